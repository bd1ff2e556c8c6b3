package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/shuoxuer/shuoxuer-website/internal/config"
	"github.com/shuoxuer/shuoxuer-website/internal/domain"
	"github.com/shuoxuer/shuoxuer-website/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-20250514",
			"content": [{"type": "text", "text": "{\"total_score\": 75}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 8}
		}`))
	}))
	defer srv.Close()

	p := NewProvider(config.AnthropicConfig{APIKey: "key"}, option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	resp, err := p.Generate(context.Background(), llm.Request{
		Kind:   llm.KindPhoto,
		System: "coach",
		Prompt: "rate",
		Media:  []llm.Media{{MIMEType: "image/jpeg", Data: []byte("x")}},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, `{"total_score": 75}`, resp.Content)
	assert.Equal(t, 20, resp.TokensUsed)
	assert.Equal(t, "claude-sonnet-4-20250514", captured["model"])

	messages := captured["messages"].([]any)
	require.Len(t, messages, 1)
	content := messages[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)
	assert.Equal(t, "image", content[0].(map[string]any)["type"])
	assert.Equal(t, "text", content[1].(map[string]any)["type"])
}

func TestGenerate_Errors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		_, err := NewProvider(config.AnthropicConfig{}).Generate(context.Background(), llm.Request{Prompt: "x"}, "")
		assert.ErrorIs(t, err, domain.ErrNotConfigured)
	})

	t.Run("upstream", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
		}))
		defer srv.Close()

		p := NewProvider(config.AnthropicConfig{APIKey: "key"}, option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
		_, err := p.Generate(context.Background(), llm.Request{Prompt: "x"}, "")
		var ue *domain.UpstreamError
		assert.ErrorAs(t, err, &ue)
	})
}

func TestConvertMessages_History(t *testing.T) {
	msgs := convertMessages(llm.Request{
		Prompt:  "now",
		History: []llm.Turn{{Role: "user", Content: "a"}, {Role: "assistant", Content: "b"}},
	})
	require.Len(t, msgs, 3)
	assert.EqualValues(t, "assistant", msgs[1].Role)
	assert.EqualValues(t, "user", msgs[2].Role)
}
