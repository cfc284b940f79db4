package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"table-reservation-api/config"
)

func TestReplyDisabledWithoutKey(t *testing.T) {
	client := NewClient(config.ChatConfig{BaseURL: "http://unused"})
	_, err := client.Reply(context.Background(), []Message{{Role: "user", Content: "hi"}})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestReplyForwardsConversation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req completionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		if assert.Len(t, req.Messages, 2) {
			assert.Equal(t, "system", req.Messages[0].Role)
			assert.Equal(t, "Do you have terrace seating?", req.Messages[1].Content)
		}

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" Yes, we do. "}}]}`))
	}))
	defer srv.Close()

	client := NewClient(config.ChatConfig{APIKey: "sk-test", BaseURL: srv.URL + "/", Model: "test-model"})
	reply, err := client.Reply(context.Background(), []Message{{Role: "user", Content: "Do you have terrace seating?"}})
	require.NoError(t, err)
	assert.Equal(t, "Yes, we do.", reply)
}

func TestReplyUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(config.ChatConfig{APIKey: "sk-test", BaseURL: srv.URL, Model: "m"})
	_, err := client.Reply(context.Background(), []Message{{Role: "user", Content: "hi"}})
	assert.ErrorContains(t, err, "429")
}
