package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestGroqClient(url string) *groqClient {
	return &groqClient{apiKey: "groq_key", endpoint: url, httpClient: http.DefaultClient}
}

func TestGroqClientGenerateContent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer groq_key" {
				t.Errorf("Expected bearer token, got %q", got)
			}
			var body struct {
				Model          string            `json:"model"`
				ResponseFormat map[string]string `json:"response_format"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode request: %v", err)
			}
			if body.ResponseFormat["type"] != "json_object" {
				t.Errorf("Expected JSON mode, got %v", body.ResponseFormat)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"model": "llama-3.3-70b-versatile",
				"choices": [{"message": {"content": "{\"title\":\"Rösti\"}"}}],
				"usage": {"prompt_tokens": 12, "completion_tokens": 30, "total_tokens": 42}
			}`))
		}))
		defer srv.Close()

		resp, err := newTestGroqClient(srv.URL).GenerateContent(context.Background(), "extract")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if resp.Content != `{"title":"Rösti"}` {
			t.Errorf("Unexpected content %q", resp.Content)
		}
		if resp.Usage.TotalTokens != 42 || resp.Usage.PromptTokens != 12 {
			t.Errorf("Unexpected usage %+v", resp.Usage)
		}
	})

	t.Run("APIError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := newTestGroqClient(srv.URL).GenerateContent(context.Background(), "extract")
		if err == nil || !strings.Contains(err.Error(), "status=429") {
			t.Errorf("Expected status error, got %v", err)
		}
	})

	t.Run("NoChoices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices": []}`))
		}))
		defer srv.Close()

		_, err := newTestGroqClient(srv.URL).GenerateContent(context.Background(), "extract")
		if !errors.Is(err, ErrEmptyResponse) {
			t.Errorf("Expected ErrEmptyResponse, got %v", err)
		}
	})
}
