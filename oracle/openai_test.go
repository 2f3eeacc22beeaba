package oracle

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatReply = `{
	"choices": [{"message": {"content": "{\"section\":\"Term\",\"status\":\"Match\",\"difference_summary\":\"\"}"}}],
	"usage": {"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150}
}`

func TestNewRequiresConnectionSettings(t *testing.T) {
	for _, cfg := range []Config{
		{},
		{Endpoint: "https://x", APIKey: "k"},
		{Endpoint: "https://x", Model: "m"},
		{APIKey: "k", Model: "m"},
	} {
		_, err := New(cfg)
		assert.Error(t, err)
	}
}

func TestCompleteAzureShape(t *testing.T) {
	var gotPath, gotQuery, gotAPIKey, gotAuth string
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAPIKey = r.Header.Get("api-key")
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply))
	}))
	defer srv.Close()

	c, err := New(Config{
		Endpoint:   srv.URL,
		APIKey:     "secret",
		Model:      "gpt-4o",
		APIVersion: "2024-02-01",
	})
	require.NoError(t, err)

	result, err := c.Complete(context.Background(), "system prompt", "user prompt")
	require.NoError(t, err)

	assert.Equal(t, "/openai/deployments/gpt-4o/chat/completions", gotPath)
	assert.Equal(t, "api-version=2024-02-01", gotQuery)
	assert.Equal(t, "secret", gotAPIKey)
	assert.Empty(t, gotAuth)
	// Azure routes by deployment path; the model must stay out of the body.
	assert.Empty(t, gotBody.Model)
	require.Len(t, gotBody.Messages, 2)
	assert.Equal(t, "system", gotBody.Messages[0].Role)
	assert.Equal(t, "system prompt", gotBody.Messages[0].Content)
	assert.Equal(t, "user", gotBody.Messages[1].Role)

	assert.Contains(t, result.Content, `"status":"Match"`)
	assert.Equal(t, 150, result.Usage.TotalTokens)
	assert.Equal(t, 120, result.Usage.PromptTokens)
}

func TestCompleteOpenAIShape(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply))
	}))
	defer srv.Close()

	c, err := New(Config{Endpoint: srv.URL + "/v1/", APIKey: "sk-test", Model: "gpt-4o"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "s", "u")
	require.NoError(t, err)

	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o", gotBody.Model)
}

func TestNewEscapesDeploymentAndAPIVersion(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(chatReply))
	}))
	defer srv.Close()

	c, err := New(Config{
		Endpoint:   srv.URL,
		APIKey:     "k",
		Model:      "gpt 4o/eu",
		APIVersion: "2024-02-01&preview",
	})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "s", "u")
	require.NoError(t, err)

	assert.Equal(t, "/openai/deployments/gpt%204o%2Feu/chat/completions", gotPath)
	assert.Equal(t, "api-version=2024-02-01%26preview", gotQuery)
}

func TestCompleteForceJSONRequestsJSONObject(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(chatReply))
	}))
	defer srv.Close()

	c, err := New(Config{Endpoint: srv.URL, APIKey: "k", Model: "m", ForceJSON: true})
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "s", "u")
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"type": "json_object"}, gotBody["response_format"])

	// The comparator relies on free-text parsing, so the plain client must
	// not send the field.
	gotBody = nil
	c, err = New(Config{Endpoint: srv.URL, APIKey: "k", Model: "m"})
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.NotContains(t, gotBody, "response_format")
}

func TestCompleteDefaultsApplied(t *testing.T) {
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(chatReply))
	}))
	defer srv.Close()

	c, err := New(Config{Endpoint: srv.URL, APIKey: "k", Model: "m"})
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "s", "u")
	require.NoError(t, err)

	assert.Equal(t, defaultMaxTokens, gotBody.MaxTokens)
	assert.Zero(t, gotBody.Temperature)
}

func TestCompleteNon200CarriesTruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"code": "429", "message": "rate limit exceeded"}}`))
	}))
	defer srv.Close()

	c, err := New(Config{Endpoint: srv.URL, APIKey: "k", Model: "m"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestCompleteNoChoicesIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": [], "usage": {}}`))
	}))
	defer srv.Close()

	c, err := New(Config{Endpoint: srv.URL, APIKey: "k", Model: "m"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestCompleteHonorsContextCancellation(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server starts its background connection read;
		// otherwise it never notices the client disconnect and r.Context() is
		// never canceled, deadlocking srv.Close.
		_, _ = io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	c, err := New(Config{Endpoint: srv.URL, APIKey: "k", Model: "m"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	done := make(chan error, 1)
	go func() {
		_, err := c.Complete(ctx, "s", "u")
		done <- err
	}()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Complete did not return after cancellation")
	}
}
