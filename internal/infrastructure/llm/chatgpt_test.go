package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LeadScanner/internal/config"
)

func TestGenerateReturnsFirstChoice(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "find leads", req.Messages[1].Content)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"leads\":[]}"}}]}`))
	}))
	defer server.Close()

	client := NewChatGPTClient(config.ChatGPTConfig{Endpoint: server.URL, Model: "test-model", APIKey: "secret"}, server.Client())
	out, err := client.Generate(context.Background(), "find leads")
	require.NoError(t, err)
	assert.Equal(t, `{"leads":[]}`, out)
}

func TestGenerateSurfacesAPIErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer server.Close()

	client := NewChatGPTClient(config.ChatGPTConfig{Endpoint: server.URL, Model: "m", APIKey: "k"}, server.Client())
	_, err := client.Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestGenerateHonoursContext(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := NewChatGPTClient(config.ChatGPTConfig{Endpoint: server.URL, Model: "m", APIKey: "k"}, server.Client())
	_, err := client.Generate(ctx, "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGenerateMisconfigured(t *testing.T) {
	t.Parallel()

	_, err := NewChatGPTClient(config.ChatGPTConfig{}, nil).Generate(context.Background(), "x")
	assert.Error(t, err)

	var nilClient *ChatGPTClient
	_, err = nilClient.Generate(context.Background(), "x")
	assert.Error(t, err)
}
