package mailbox

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func encode(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func gmailServer(t *testing.T, sent *map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}

	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		assert.Equal(t, "INBOX", r.URL.Query().Get("labelIds"))
		write(w, map[string]any{"messages": []map[string]any{
			{"id": "m1", "threadId": "t1"},
			{"id": "m2", "threadId": "t2"},
		}})
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/m1", func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{
			"id": "m1", "threadId": "t1",
			"payload": map[string]any{
				"mimeType": "multipart/alternative",
				"headers": []map[string]any{
					{"name": "From", "value": "Ana Souza <ana@empresa.com>"},
					{"name": "Subject", "value": "Relatório"},
				},
				"parts": []map[string]any{
					{"mimeType": "text/html", "body": map[string]any{"data": encode("<p>ignored</p>")}},
					{"mimeType": "text/plain", "body": map[string]any{"data": encode("Preciso do relatório hoje.")}},
				},
			},
		})
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/m2", func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{
			"id": "m2", "threadId": "t2",
			"payload": map[string]any{
				"mimeType": "text/html",
				"headers":  []map[string]any{{"name": "From", "value": "promo@loja.com"}},
				"body":     map[string]any{"data": encode("<b>Desconto</b> imperdível")},
			},
		})
	})
	mux.HandleFunc("/gmail/v1/users/me/threads/t1", func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{"id": "t1", "messages": []map[string]any{
			{"id": "m1", "labelIds": []string{"INBOX"}},
			{"id": "m9", "labelIds": []string{"SENT"}},
		}})
	})
	mux.HandleFunc("/gmail/v1/users/me/threads/t2", func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{"id": "t2", "messages": []map[string]any{
			{"id": "m2", "labelIds": []string{"INBOX", "SENT"}},
		}})
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/send", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(sent))
		write(w, map[string]any{"id": "s1", "threadId": "t1"})
	})
	return httptest.NewServer(mux)
}

func TestGmailFetchLatest(t *testing.T) {
	srv := gmailServer(t, nil)
	defer srv.Close()

	g := NewGmailClient(srv.URL+"/", zap.NewNop())
	messages, err := g.FetchLatest(context.Background(), "token-123", 10)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	first := messages[0]
	assert.Equal(t, "t1", first.Email.ThreadID)
	assert.Equal(t, "Ana Souza", first.Email.FromName)
	assert.Equal(t, "ana@empresa.com", first.Email.From)
	assert.Equal(t, "Relatório", first.Email.Subject)
	assert.Equal(t, "Preciso do relatório hoje.", first.Email.Body)
	assert.True(t, first.AlreadyReplied)

	second := messages[1]
	assert.Equal(t, "Desconto imperdível", second.Email.Body)
	assert.False(t, second.AlreadyReplied)
}

func TestGmailSendReply(t *testing.T) {
	var sent map[string]any
	srv := gmailServer(t, &sent)
	defer srv.Close()

	g := NewGmailClient(srv.URL+"/", zap.NewNop())
	id, err := g.SendReply(context.Background(), "token-123", Reply{
		ToEmail:  "ana@empresa.com",
		Subject:  "Relatório",
		Body:     "Olá Ana, segue em anexo.",
		ThreadID: "t1",
	})
	require.NoError(t, err)
	assert.Equal(t, "s1", id)
	assert.Equal(t, "t1", sent["threadId"])

	raw, err := base64.URLEncoding.DecodeString(sent["raw"].(string))
	require.NoError(t, err)
	email, err := ParseMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "Re: Relatório", email.Subject)
	assert.Equal(t, "Olá Ana, segue em anexo.", email.Body)
}
