package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/utils"
)

type fakeRuntime struct {
	body    []byte
	err     error
	request map[string]interface{}
	modelID string
}

func (f *fakeRuntime) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.modelID = *params.ModelId
	if err := json.Unmarshal(params.Body, &f.request); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: f.body}, nil
}

func TestClassifierRankClaude(t *testing.T) {
	fake := &fakeRuntime{body: []byte(`{"content":[{"type":"text","text":"{\"label\":\"Unproductive\",\"scores\":{\"Productive\":0.3,\"Unproductive\":0.7}}"}]}`)}
	c := NewClassifier(fake, "anthropic.claude-3-haiku-20240307-v1:0", 2000, utils.NewTextProcessor(nil), zap.NewNop())

	ranking, err := c.Rank(context.Background(), "Feliz aniversário!", []string{"Productive", "Unproductive"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Unproductive", "Productive"}, ranking.Labels)
	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", fake.modelID)
	assert.Equal(t, "bedrock-2023-05-31", fake.request["anthropic_version"])
}

func TestGeneratorTitan(t *testing.T) {
	fake := &fakeRuntime{body: []byte(`{"results":[{"outputText":"Olá, recebemos sua mensagem."}]}`)}
	g := NewGenerator(fake, "amazon.titan-text-express-v1", zap.NewNop())

	out, err := g.Generate(context.Background(), "prompt", core.GenerationParams{MaxLength: 64})
	require.NoError(t, err)
	assert.Equal(t, "Olá, recebemos sua mensagem.", out)

	genCfg := fake.request["textGenerationConfig"].(map[string]interface{})
	assert.EqualValues(t, 64, genCfg["maxTokenCount"])
	assert.NotContains(t, genCfg, "temperature")
}

func TestGeneratorGenericPayload(t *testing.T) {
	fake := &fakeRuntime{body: []byte(`{"generation":"Obrigado pelo contato."}`)}
	g := NewGenerator(fake, "meta.llama3-8b-instruct-v1:0", zap.NewNop())

	out, err := g.Generate(context.Background(), "prompt", core.GenerationParams{MaxLength: 32})
	require.NoError(t, err)
	assert.Equal(t, "Obrigado pelo contato.", out)
	assert.Equal(t, "prompt", fake.request["prompt"])
}

func TestGeneratorInvokeError(t *testing.T) {
	fake := &fakeRuntime{err: errors.New("throttled")}
	g := NewGenerator(fake, "amazon.titan-text-express-v1", zap.NewNop())

	_, err := g.Generate(context.Background(), "prompt", core.GenerationParams{MaxLength: 32})
	assert.ErrorContains(t, err, "failed to invoke Bedrock model")
}
