package sender

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		expected Address
	}{
		{
			name:     "name and address",
			from:     "Ana Souza <ana@empresa.com.br>",
			expected: Address{Name: "Ana Souza", Email: "ana@empresa.com.br", Domain: "empresa.com.br"},
		},
		{
			name:     "quoted name",
			from:     `"Carlos Lima" <carlos@Example.COM>`,
			expected: Address{Name: "Carlos Lima", Email: "carlos@Example.COM", Domain: "example.com"},
		},
		{
			name:     "encoded name",
			from:     "=?UTF-8?Q?Jo=C3=A3o?= <joao@example.com>",
			expected: Address{Name: "João", Email: "joao@example.com", Domain: "example.com"},
		},
		{
			name:     "bare address",
			from:     "ops@example.com",
			expected: Address{Email: "ops@example.com", Domain: "example.com"},
		},
		{
			name:     "garbage",
			from:     "not an address",
			expected: Address{Email: "not an address"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Parse(tt.from))
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ana Souza", DisplayName("Ana Souza <ana@empresa.com.br>"))
	assert.Equal(t, "", DisplayName("ana@empresa.com.br"))
}

func TestChecker(t *testing.T) {
	c := NewChecker([]string{" Example.com ", ""}, zap.NewNop())

	assert.True(t, c.Matches("bot@example.com"))
	assert.True(t, c.Matches("Alerts <alerts@mail.example.com>"))
	assert.False(t, c.Matches("someone@notexample.com"))
	assert.False(t, c.Matches("no-domain"))

	assert.False(t, NewChecker(nil, nil).Matches("bot@example.com"))
}
