package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/docuquery/docuquery/model"
	"github.com/stretchr/testify/assert"
)

func TestNewProvider(t *testing.T) {
	t.Run("openai", func(t *testing.T) {
		provider, err := NewProvider(Config{Provider: "openai", Model: "gpt-4o-mini", APIKey: "sk-test"})
		assert.NoError(t, err)
		assert.NotNil(t, provider)

		compat, ok := provider.(*openAICompatProvider)
		assert.True(t, ok)
		assert.Equal(t, "https://api.openai.com", compat.cfg.BaseURL)
	})

	t.Run("ollama default base url", func(t *testing.T) {
		provider, err := NewProvider(Config{Provider: "ollama", Model: "llama3"})
		assert.NoError(t, err)

		compat, ok := provider.(*openAICompatProvider)
		assert.True(t, ok)
		assert.Equal(t, "http://localhost:11434", compat.cfg.BaseURL)
	})

	t.Run("custom requires base url", func(t *testing.T) {
		provider, err := NewProvider(Config{Provider: "custom", Model: "local"})
		assert.Error(t, err)
		assert.Nil(t, provider)
	})

	t.Run("custom with base url", func(t *testing.T) {
		provider, err := NewProvider(Config{Provider: "custom", Model: "local", BaseURL: "http://inference:8080"})
		assert.NoError(t, err)
		assert.NotNil(t, provider)
	})

	t.Run("empty provider", func(t *testing.T) {
		provider, err := NewProvider(Config{})
		assert.Error(t, err)
		assert.Nil(t, provider)
	})

	t.Run("unknown provider", func(t *testing.T) {
		provider, err := NewProvider(Config{Provider: "bedrock"})
		assert.Error(t, err)
		assert.Nil(t, provider)
	})
}

func TestChat(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req chatCompletionRequest
			err := json.NewDecoder(r.Body).Decode(&req)
			assert.NoError(t, err)
			assert.Equal(t, "gpt-4o-mini", req.Model)
			assert.Len(t, req.Messages, 2)
			assert.Equal(t, "system", req.Messages[0].Role)

			json.NewEncoder(w).Encode(map[string]any{
				"model": "gpt-4o-mini",
				"choices": []map[string]any{
					{
						"message":       map[string]any{"content": "Revenue grew in Q1."},
						"finish_reason": "stop",
					},
				},
				"usage": map[string]any{
					"prompt_tokens":     42,
					"completion_tokens": 7,
					"total_tokens":      49,
				},
			})
		}))
		defer server.Close()

		provider, err := NewProvider(Config{Provider: "custom", Model: "gpt-4o-mini", BaseURL: server.URL, APIKey: "sk-test"})
		assert.NoError(t, err)

		resp, err := provider.Chat(context.Background(), ChatRequest{
			Messages: []Message{
				{Role: "system", Content: "You are helpful."},
				{Role: "user", Content: "What happened to revenue?"},
			},
		})
		assert.NoError(t, err)
		assert.Equal(t, "Revenue grew in Q1.", resp.Content)
		assert.Equal(t, "stop", resp.FinishReason)
		assert.Equal(t, 49, resp.TotalTokens)
	})

	t.Run("retries on service unavailable", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": "ok"}, "finish_reason": "stop"},
				},
			})
		}))
		defer server.Close()

		provider := newOpenAICompat(Config{Provider: "custom", Model: "local", BaseURL: server.URL})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		resp, err := provider.Chat(ctx, ChatRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
		assert.NoError(t, err)
		assert.Equal(t, "ok", resp.Content)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("no retry on bad request", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error": "invalid model"}`)
		}))
		defer server.Close()

		provider := newOpenAICompat(Config{Provider: "custom", Model: "local", BaseURL: server.URL})

		resp, err := provider.Chat(context.Background(), ChatRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
		assert.Error(t, err)
		assert.Nil(t, resp)
		assert.Contains(t, err.Error(), "status 400")
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("no choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"choices": []map[string]any{}})
		}))
		defer server.Close()

		provider := newOpenAICompat(Config{Provider: "custom", Model: "local", BaseURL: server.URL})

		resp, err := provider.Chat(context.Background(), ChatRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
		assert.Error(t, err)
		assert.Nil(t, resp)
		assert.Contains(t, err.Error(), "no choices")
	})
}

func TestBuildContext(t *testing.T) {
	results := []model.ChunkResult{
		{
			PageNumber:   1,
			Content:      "Revenue increased significantly during the first quarter.",
			DocumentInfo: model.DocumentInfo{Title: "Quarterly Report"},
		},
		{
			PageNumber:   2,
			Content:      "Operating costs remained stable.",
			DocumentInfo: model.DocumentInfo{Title: "Quarterly Report"},
		},
	}

	t.Run("valid results", func(t *testing.T) {
		contextText := BuildContext(results, 0)
		assert.Contains(t, contextText, "[Quarterly Report, page 1]")
		assert.Contains(t, contextText, "Revenue increased significantly")
		assert.Contains(t, contextText, "[Quarterly Report, page 2]")
		assert.True(t, strings.Index(contextText, "page 1") < strings.Index(contextText, "page 2"))
	})

	t.Run("truncated at limit", func(t *testing.T) {
		contextText := BuildContext(results, 100)
		assert.Contains(t, contextText, "page 1")
		assert.NotContains(t, contextText, "page 2")
	})

	t.Run("empty results", func(t *testing.T) {
		assert.Equal(t, "", BuildContext(nil, 0))
	})
}

func TestAnswer(t *testing.T) {
	results := []model.ChunkResult{
		{
			PageNumber:   1,
			Content:      "Revenue increased significantly during the first quarter.",
			DocumentInfo: model.DocumentInfo{Title: "Quarterly Report"},
		},
	}

	t.Run("valid query", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req chatCompletionRequest
			err := json.NewDecoder(r.Body).Decode(&req)
			assert.NoError(t, err)
			assert.Len(t, req.Messages, 2)
			assert.Contains(t, req.Messages[1].Content, "[Quarterly Report, page 1]")
			assert.Contains(t, req.Messages[1].Content, "Question: what happened to revenue?")

			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": "Revenue grew (page 1)."}, "finish_reason": "stop"},
				},
			})
		}))
		defer server.Close()

		provider := newOpenAICompat(Config{Provider: "custom", Model: "local", BaseURL: server.URL})
		answerer, err := NewAnswerer(provider)
		assert.NoError(t, err)

		answer, err := answerer.Answer(context.Background(), "what happened to revenue?", results)
		assert.NoError(t, err)
		assert.Equal(t, "Revenue grew (page 1).", answer)
	})

	t.Run("empty query", func(t *testing.T) {
		answerer, err := NewAnswerer(newOpenAICompat(Config{Provider: "custom", Model: "local", BaseURL: "http://unused"}))
		assert.NoError(t, err)

		answer, err := answerer.Answer(context.Background(), "  ", results)
		assert.Error(t, err)
		assert.Equal(t, "", answer)
	})

	t.Run("no chunks", func(t *testing.T) {
		answerer, err := NewAnswerer(newOpenAICompat(Config{Provider: "custom", Model: "local", BaseURL: "http://unused"}))
		assert.NoError(t, err)

		answer, err := answerer.Answer(context.Background(), "anything", nil)
		assert.Error(t, err)
		assert.Equal(t, "", answer)
	})

	t.Run("nil provider", func(t *testing.T) {
		answerer, err := NewAnswerer(nil)
		assert.Error(t, err)
		assert.Nil(t, answerer)
	})
}
