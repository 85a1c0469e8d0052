package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/deepsight/internal/config"
)

// testClient builds a Client pointed at the given httptest server.
func testClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	return NewClient(config.LLMConfig{
		Host:                u.Hostname(),
		Port:                port,
		Model:               "test-model",
		Temperature:         0.7,
		MaxTokens:           2000,
		DescribeTimeoutSec:  5,
		TranslateTimeoutSec: 5,
	})
}

func writeTempImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "img.png")
	require.NoError(t, os.WriteFile(path, []byte("fake image bytes"), 0o600))
	return path
}

func TestDescribeStructuredResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req["model"])
		assert.Len(t, req["images"], 1)
		assert.Equal(t, false, req["stream"])

		body := map[string]any{
			"model":    "test-model",
			"response": `{"description":"a red barn","scene":"farmland","context":"rural photo","text":"EXIT"}`,
			"done":     true,
		}
		require.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	defer server.Close()

	client := testClient(t, server)
	desc, err := client.Describe(context.Background(), writeTempImage(t))
	require.NoError(t, err)

	assert.Equal(t, "a red barn", desc.Description)
	assert.Equal(t, "farmland", desc.Scene)
	assert.Equal(t, "rural photo", desc.Context)
	assert.Equal(t, "EXIT", desc.Text)
	assert.Equal(t, "test-model", desc.Model)
}

func TestDescribePlainTextFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"model": "test-model", "response": "Just a plain description.", "done": true}
		require.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	defer server.Close()

	client := testClient(t, server)
	desc, err := client.Describe(context.Background(), writeTempImage(t))
	require.NoError(t, err)

	assert.Equal(t, "Just a plain description.", desc.Description)
	assert.Empty(t, desc.Scene)
	assert.Empty(t, desc.Context)
}

func TestDescribeCodeFencedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fenced := "```json\n{\"description\":\"fenced\",\"scene\":\"s\",\"context\":\"c\",\"text\":\"\"}\n```"
		body := map[string]any{"model": "test-model", "response": fenced, "done": true}
		require.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	defer server.Close()

	client := testClient(t, server)
	desc, err := client.Describe(context.Background(), writeTempImage(t))
	require.NoError(t, err)
	assert.Equal(t, "fenced", desc.Description)
	assert.Equal(t, "s", desc.Scene)
}

func TestDescribeMissingImage(t *testing.T) {
	client := NewClient(config.LLMConfig{Host: "localhost", Port: 1, Model: "m", DescribeTimeoutSec: 1, TranslateTimeoutSec: 1})
	_, err := client.Describe(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}

func TestDescribeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := testClient(t, server)
	_, err := client.Describe(context.Background(), writeTempImage(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestTranslate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompt, _ := req["prompt"].(string)
		assert.Contains(t, prompt, "Hindi")
		assert.Contains(t, prompt, "hello world")
		assert.Nil(t, req["images"])

		body := map[string]any{"model": "test-model", "response": "नमस्ते दुनिया\n", "done": true}
		require.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	defer server.Close()

	client := testClient(t, server)
	out, err := client.Translate(context.Background(), "hello world", "Hindi")
	require.NoError(t, err)
	assert.Equal(t, "नमस्ते दुनिया", out)
}

func TestTranslateEmptyInputShortCircuits(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := testClient(t, server)

	for _, input := range []string{"", "   ", "\n\t "} {
		out, err := client.Translate(context.Background(), input, "Hindi")
		require.NoError(t, err)
		assert.Empty(t, out)
	}
	assert.Zero(t, calls.Load(), "whitespace-only input must not hit the network")
}

func TestTranslateServerUnreachable(t *testing.T) {
	client := NewClient(config.LLMConfig{Host: "127.0.0.1", Port: 1, Model: "m", DescribeTimeoutSec: 1, TranslateTimeoutSec: 1})
	_, err := client.Translate(context.Background(), "some text", "Hindi")
	assert.Error(t, err)
}

func TestCheckConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := testClient(t, server)
	assert.True(t, client.CheckConnection(context.Background()))

	server.Close()
	assert.False(t, client.CheckConnection(context.Background()))
}

func TestParseDescription(t *testing.T) {
	desc := parseDescription(`{"description":"d","scene":"s","context":"c","text":"t"}`)
	assert.Equal(t, "d", desc.Description)
	assert.Equal(t, "t", desc.Text)

	desc = parseDescription("plain words here")
	assert.Equal(t, "plain words here", desc.Description)
	assert.Empty(t, desc.Scene)

	// JSON without a description field degrades to plain text.
	desc = parseDescription(`{"scene":"only scene"}`)
	assert.Equal(t, `{"scene":"only scene"}`, desc.Description)
}

func TestNormalizeTargets(t *testing.T) {
	out := NormalizeTargets([]string{"hi", "en", "Hindi", "Ancient Greek!"})
	assert.Contains(t, out, "Hindi")
	assert.Contains(t, out, "English")
	assert.Contains(t, out, "Ancient Greek!")
	// "hi" and "Hindi" collapse to one entry.
	count := 0
	for _, lang := range out {
		if lang == "Hindi" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
