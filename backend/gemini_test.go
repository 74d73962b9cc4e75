package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/simon020286/promptchain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGeminiServer(t *testing.T, status int, body string, requests *[]map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if requests != nil {
			*requests = append(*requests, payload)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGeminiGenerator_Generate(t *testing.T) {
	var requests []map[string]any
	server := newGeminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"scenes\":[]}"}]},"finishReason":"STOP"}]}`,
		&requests)

	gen, err := NewGeminiGenerator(context.Background(), GeminiOptions{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gemini-2.5-flash",
	})
	require.NoError(t, err)

	result, err := gen.Generate(context.Background(), &GenerationRequest{Prompt: "final", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"scenes":[]}`, result.Text)
	assert.Equal(t, "gemini-2.5-flash", result.Model)

	require.Len(t, requests, 1)
	genConfig, ok := requests[0]["generationConfig"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "application/json", genConfig["responseMimeType"])
	assert.InDelta(t, 0.7, genConfig["temperature"], 1e-6)
}

func TestGeminiGenerator_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   models.BackendErrorKind
	}{
		{"forbidden", http.StatusForbidden, `{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`, models.BackendAuthFailure},
		{"server error", http.StatusInternalServerError, `{"error":{"code":500,"message":"internal","status":"INTERNAL"}}`, models.BackendCallFailure},
		{"no candidates", http.StatusOK, `{"candidates":[]}`, models.BackendCallFailure},
		{"no parts", http.StatusOK, `{"candidates":[{"finishReason":"SAFETY"}]}`, models.BackendCallFailure},
		{"empty text", http.StatusOK, `{"candidates":[{"content":{"role":"model","parts":[{"text":""}]},"finishReason":"STOP"}]}`, models.BackendCallFailure},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := newGeminiServer(t, tc.status, tc.body, nil)
			gen, err := NewGeminiGenerator(context.Background(), GeminiOptions{APIKey: "test-key", BaseURL: server.URL})
			require.NoError(t, err)

			_, err = gen.Generate(context.Background(), &GenerationRequest{Prompt: "p"})
			require.Error(t, err)
			var be *models.BackendError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, tc.kind, be.Kind)
			assert.Equal(t, "gemini", be.Backend)
		})
	}
}

func TestGeminiGenerator_EmptyTextNamesFinishReason(t *testing.T) {
	server := newGeminiServer(t, http.StatusOK, `{"candidates":[{"finishReason":"SAFETY"}]}`, nil)
	gen, err := NewGeminiGenerator(context.Background(), GeminiOptions{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), &GenerationRequest{Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text")
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestGeminiGenerator_ZeroTemperature(t *testing.T) {
	var requests []map[string]any
	server := newGeminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"ok"}]},"finishReason":"STOP"}]}`, &requests)
	gen, err := NewGeminiGenerator(context.Background(), GeminiOptions{APIKey: "test-key", BaseURL: server.URL, Temperature: Float(0)})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), &GenerationRequest{Prompt: "p"})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	genConfig, ok := requests[0]["generationConfig"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, genConfig, "temperature")
	assert.InDelta(t, 0.0, genConfig["temperature"], 1e-6)
}
