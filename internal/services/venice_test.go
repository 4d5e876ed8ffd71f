package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aberthier/conteur/pkg/chat"
)

func TestVeniceService_GenerateNarrative(t *testing.T) {
	var captured veniceChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "{\"text\": \"La porte grince.\"}"}}]}`))
	}))
	defer server.Close()

	svc := NewVeniceService("test-key", "venice-uncensored", "venice-sd35").WithBaseURL(server.URL)

	req := &chat.TurnRequest{
		Messages: []chat.Message{
			{Role: chat.RoleSystem, Content: "Tu es un conteur."},
			{Role: chat.RoleUser, Content: "Ouvrir la porte"},
		},
		Schema: chat.TurnResponseSchema(),
	}

	raw, err := svc.GenerateNarrative(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, `{"text": "La porte grince."}`, raw)

	assert.Equal(t, "venice-uncensored", captured.Model)
	assert.False(t, captured.Stream)
	require.NotNil(t, captured.ResponseFormat)
	assert.Equal(t, "json_schema", captured.ResponseFormat.Type)
	assert.Equal(t, "story_turn", captured.ResponseFormat.JSONSchema.Name)
	assert.True(t, captured.ResponseFormat.JSONSchema.Strict)
	assert.False(t, captured.VeniceParameters.IncludeVeniceSystemPrompt)
}

func TestVeniceService_GenerateNarrative_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	svc := NewVeniceService("test-key", "venice-uncensored", "").WithBaseURL(server.URL)
	raw, err := svc.GenerateNarrative(context.Background(), &chat.TurnRequest{})
	require.NoError(t, err)
	assert.Equal(t, msgNoResponse, raw)
}

func TestVeniceService_GenerateNarrative_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": {"message": "model not found", "type": "invalid_request"}}`))
	}))
	defer server.Close()

	svc := NewVeniceService("test-key", "nope", "").WithBaseURL(server.URL)
	_, err := svc.GenerateNarrative(context.Background(), &chat.TurnRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestVeniceService_GenerateNarrative_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	svc := NewVeniceService("test-key", "venice-uncensored", "").WithBaseURL(server.URL)
	_, err := svc.GenerateNarrative(context.Background(), &chat.TurnRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestVeniceService_GenerateIllustration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/image/generate", r.URL.Path)

		var req veniceImageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "venice-sd35", req.Model)
		assert.Equal(t, 1024, req.Width)
		assert.Equal(t, "webp", req.Format)

		_, _ = w.Write([]byte(`{"images": ["AAAA"]}`))
	}))
	defer server.Close()

	svc := NewVeniceService("test-key", "venice-uncensored", "venice-sd35").WithBaseURL(server.URL)
	url, err := svc.GenerateIllustration(context.Background(), "une forêt enchantée au crépuscule")
	require.NoError(t, err)
	assert.Equal(t, "data:image/webp;base64,AAAA", url)
}

func TestVeniceService_GenerateIllustration_NoImages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"images": []}`))
	}))
	defer server.Close()

	svc := NewVeniceService("test-key", "", "venice-sd35").WithBaseURL(server.URL)
	_, err := svc.GenerateIllustration(context.Background(), "un château")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no images")
}
