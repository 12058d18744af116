package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/jamesbell/askjames/internal/domain"
)

// chatAPIResponse mirrors the OpenAI chat completion response.
type chatAPIResponse struct {
	Object  string `json:"object"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}

		resp := chatAPIResponse{Object: "chat.completion", Model: "test-model"}
		resp.Choices = make([]struct {
			Index   int `json:"index"`
			Message struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		}, 1)
		resp.Choices[0].Message.Role = "assistant"
		resp.Choices[0].Message.Content = content
		resp.Choices[0].FinishReason = "stop"
		resp.Usage.CompletionTokens = 25

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestPhraser(url string) *Phraser {
	return NewPhraser(&PhraserConfig{
		APIKey:       "test-key",
		BaseURL:      url,
		Model:        "test-model",
		SystemPrompt: "You are a helpful assistant.",
		Temperature:  0.3,
		TopP:         1.0,
		MaxTokens:    900,
		Logger:       zap.NewNop(),
	})
}

func TestPhraser_Phrase(t *testing.T) {
	server := chatServer(t, "  He works at Arctic Wolf as a Principal Engineer.  ")
	defer server.Close()

	out, err := newTestPhraser(server.URL).Phrase(context.Background(), "Where does he work?", "Q: Where?\nA: Arctic Wolf, Principal Engineer.")
	if err != nil {
		t.Fatalf("Phrase failed: %v", err)
	}
	if out != "He works at Arctic Wolf as a Principal Engineer." {
		t.Errorf("unexpected output (whitespace not trimmed?): %q", out)
	}
}

func TestPhraser_SystemPromptCarriesGrounding(t *testing.T) {
	var gotSystem string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		for _, m := range req.Messages {
			if m.Role == "system" {
				gotSystem = m.Content
			}
		}

		resp := chatAPIResponse{Object: "chat.completion", Model: "test-model"}
		resp.Choices = make([]struct {
			Index   int `json:"index"`
			Message struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		}, 1)
		resp.Choices[0].Message.Content = "ok"
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	_, err := newTestPhraser(server.URL).Phrase(context.Background(), "question", "the source answer text")
	if err != nil {
		t.Fatalf("Phrase failed: %v", err)
	}
	if !strings.Contains(gotSystem, "[ANSWER SOURCE]") {
		t.Error("system prompt missing answer source block")
	}
	if !strings.Contains(gotSystem, "the source answer text") {
		t.Error("system prompt missing grounding text")
	}
	if !strings.Contains(gotSystem, "You are a helpful assistant.") {
		t.Error("system prompt missing configured prompt")
	}
}

func TestPhraser_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	_, err := newTestPhraser(server.URL).Phrase(context.Background(), "q", "a")
	if !errors.Is(err, domain.ErrPhrasingProvider) {
		t.Fatalf("got %v, want ErrPhrasingProvider", err)
	}
}

func TestPhraser_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limit exceeded", "type": "requests"}}`))
	}))
	defer server.Close()

	_, err := newTestPhraser(server.URL).Phrase(context.Background(), "q", "a")
	if !errors.Is(err, domain.ErrPhrasingProvider) {
		t.Fatalf("got %v, want ErrPhrasingProvider", err)
	}
}
