package llamacpp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient("")
	require.NoError(t, err)
	assert.Equal(t, DefaultURL, c.baseURL)

	c, err = NewClient("http://gpu-box:8080/")
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:8080", c.baseURL)

	_, err = NewClient("gpu-box:8080")
	assert.Error(t, err)
}

func TestReadText(t *testing.T) {
	var got ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(ChatCompletionResponse{
			Choices: []Choice{{Message: Message{
				Role:    "assistant",
				Content: `{"spans":[{"text":"Help","confidence":0.75,"box":{"x":0.9,"y":0.0,"w":0.05,"h":0.03}},]}`,
			}}},
		})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	readout, err := c.ReadText(context.Background(), "qwen2.5-vl", "read", "aGVsbG8=")
	require.NoError(t, err)
	require.Len(t, readout.Spans, 1)
	assert.Equal(t, "Help", readout.Spans[0].Text)

	assert.Equal(t, "qwen2.5-vl", got.Model)
	assert.Equal(t, 0.0, got.Temperature)
	require.Len(t, got.Messages, 1)
}

func TestSimpleQueryPartsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":[{"type":"text","text":"a login form"}]}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	answer, err := c.SimpleQuery(context.Background(), "m", "describe", "")
	require.NoError(t, err)
	assert.Equal(t, "a login form", answer)
}

func TestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.ReadText(context.Background(), "m", "read", "aGVsbG8=")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
