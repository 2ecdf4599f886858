// Security tests for LLM providers to ensure error messages don't leak API keys.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestOpenAIErrorNoAPIKeyLeak verifies OpenAI errors don't contain API keys
func TestOpenAIErrorNoAPIKeyLeak(t *testing.T) {
	// Use intentionally invalid API key
	testKey := "sk-test-invalid-key-12345xyz"
	provider := NewOpenAIProvider(testKey, "gpt-4o", 100, 0)

	// Force error with invalid key
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := provider.Chat(ctx, []ChatMessage{
		{Role: "user", Content: "test"},
	})

	// Should return an error
	if err == nil {
		t.Skip("Expected error with invalid API key, but got success - skipping leak test")
	}

	// Verify error doesn't contain the API key
	errStr := err.Error()
	if strings.Contains(errStr, testKey) {
		t.Errorf("OpenAI error message leaked API key: %v", errStr)
	}

	// Should not contain common auth header patterns
	if strings.Contains(errStr, "Authorization:") {
		t.Errorf("OpenAI error exposed Authorization header: %v", errStr)
	}
}

// TestAnthropicErrorNoAPIKeyLeak verifies Anthropic errors don't contain API keys
func TestAnthropicErrorNoAPIKeyLeak(t *testing.T) {
	testKey := "sk-ant-REDACTED"
	provider := NewAnthropicProvider(testKey, "claude-sonnet-4-20250514", 100, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := provider.Chat(ctx, []ChatMessage{
		{Role: "user", Content: "test"},
	})

	if err == nil {
		t.Skip("Expected error with invalid API key, but got success - skipping leak test")
	}

	errStr := err.Error()
	if strings.Contains(errStr, testKey) {
		t.Errorf("Anthropic error message leaked API key: %v", errStr)
	}

	if strings.Contains(errStr, "x-api-key:") || strings.Contains(errStr, "X-API-Key:") {
		t.Errorf("Anthropic error exposed API key header: %v", errStr)
	}
}

// TestDeepSeekErrorNoAPIKeyLeak verifies DeepSeek errors don't contain API keys
func TestDeepSeekErrorNoAPIKeyLeak(t *testing.T) {
	testKey := "sk-test-invalid-key-12345xyz"
	provider := NewDeepSeekProvider(testKey, "deepseek-chat", 100, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := provider.Chat(ctx, []ChatMessage{
		{Role: "user", Content: "test"},
	})

	if err == nil {
		t.Skip("Expected error with invalid API key, but got success - skipping leak test")
	}

	errStr := err.Error()
	if strings.Contains(errStr, testKey) {
		t.Errorf("DeepSeek error message leaked API key: %v", errStr)
	}

	if strings.Contains(errStr, "Authorization:") {
		t.Errorf("DeepSeek error exposed Authorization header: %v", errStr)
	}
}

// TestGeminiErrorNoAPIKeyLeak verifies Gemini errors don't contain API keys
func TestGeminiErrorNoAPIKeyLeak(t *testing.T) {
	testKey := "test-invalid-key-12345xyz"
	provider := NewGeminiProvider(testKey, "gemini-2.5-flash", 100, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := provider.Chat(ctx, []ChatMessage{
		{Role: "user", Content: "test"},
	})

	if err == nil {
		t.Skip("Expected error with invalid API key, but got success - skipping leak test")
	}

	errStr := err.Error()
	if strings.Contains(errStr, testKey) {
		t.Errorf("Gemini error message leaked API key: %v", errStr)
	}

	// Gemini uses x-goog-api-key header
	if strings.Contains(errStr, "x-goog-api-key:") {
		t.Errorf("Gemini error exposed API key header: %v", errStr)
	}
}

// TestGeminiInitErrorPreserved verifies Gemini returns initialization errors
func TestGeminiInitErrorPreserved(t *testing.T) {
	// Use invalid key that should fail during client initialization
	provider := NewGeminiProvider("", "gemini-2.5-flash", 100, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := provider.Chat(ctx, []ChatMessage{
		{Role: "user", Content: "test"},
	})

	// Should return an error
	if err == nil {
		t.Error("Expected initialization error to be returned, got nil")
		return
	}

	// Error should indicate initialization failure
	errStr := err.Error()
	if !strings.Contains(errStr, "failed to initialize") {
		t.Errorf("Expected initialization error, got: %v", errStr)
	}
}

// TestFormatErrorNoAPIKeyLeak verifies JSON-mode errors don't leak API keys
func TestFormatErrorNoAPIKeyLeak(t *testing.T) {
	testKey := "sk-test-invalid-key-12345xyz"
	provider := NewOpenAIProvider(testKey, "gpt-4o", 100, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := provider.ChatWithFormat(ctx, []ChatMessage{
		{Role: "user", Content: "test"},
	}, NewJSONObjectFormat())

	if err == nil {
		t.Skip("Expected error with invalid API key, but got success - skipping leak test")
	}

	errStr := err.Error()
	if strings.Contains(errStr, testKey) {
		t.Errorf("Format error message leaked API key: %v", errStr)
	}
}

func TestParseProviderType(t *testing.T) {
	tests := []struct {
		in   string
		want ProviderType
	}{
		{"openai", ProviderOpenAI},
		{"GPT", ProviderOpenAI},
		{"claude", ProviderAnthropic},
		{"deepseek", ProviderDeepSeek},
		{"google", ProviderGemini},
		{"ollama", ProviderOllama},
		{"local", ProviderOllama},
	}
	for _, tt := range tests {
		got, err := ParseProviderType(tt.in)
		if err != nil {
			t.Fatalf("ParseProviderType(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseProviderType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseProviderType("mystery"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestBuilderOllamaNeedsNoKey(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	p, err := NewProviderBuilder(ProviderOllama).APIKey("")
	if err != nil {
		t.Fatalf("APIKey: %v", err)
	}
	if p.Name() != "ollama" || p.Model() != ModelOllamaLlama31 {
		t.Errorf("got %s/%s", p.Name(), p.Model())
	}
	if ModelID(p) != "ollama/llama3.1" {
		t.Errorf("ModelID = %q", ModelID(p))
	}
}

func TestBuilderRequiresKey(t *testing.T) {
	if _, err := NewProviderBuilder(ProviderOpenAI).APIKey(""); err == nil {
		t.Fatal("expected error for a keyed provider without a key")
	}
	p, err := NewProviderBuilder(ProviderDeepSeek).Model("deepseek-r1").APIKey("sk-test")
	if err != nil {
		t.Fatalf("APIKey: %v", err)
	}
	if ModelID(p) != "deepseek/deepseek-r1" {
		t.Errorf("ModelID = %q", ModelID(p))
	}
}

func TestDefaultModels(t *testing.T) {
	for _, pt := range ProviderTypes {
		if pt.DefaultModel() == "" {
			t.Errorf("%s has no default model", pt)
		}
	}
}

func TestOllamaBaseURL(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	tests := []struct {
		host string
		want string
	}{
		{"", "http://localhost:11434/v1"},
		{"gpu-box:11434", "http://gpu-box:11434/v1"},
		{"https://ollama.internal/", "https://ollama.internal/v1"},
		{"http://127.0.0.1:9000/v1", "http://127.0.0.1:9000/v1"},
	}
	for _, tt := range tests {
		if got := OllamaBaseURL(tt.host); got != tt.want {
			t.Errorf("OllamaBaseURL(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}

	t.Setenv("OLLAMA_HOST", "box:1234")
	if got := OllamaBaseURL(""); got != "http://box:1234/v1" {
		t.Errorf("OLLAMA_HOST not honored: %q", got)
	}
}

func TestOpenAICompatibleRoundTrip(t *testing.T) {
	var gotFormat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ResponseFormat *struct {
				Type string `json:"type"`
			} `json:"response_format"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.ResponseFormat != nil {
			gotFormat = body.ResponseFormat.Type
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"ok\":true}"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "tiny", 100, 0)
	resp, err := p.ChatWithFormat(context.Background(), []ChatMessage{UserMessage("hi")}, NewJSONObjectFormat())
	if err != nil {
		t.Fatalf("ChatWithFormat: %v", err)
	}
	if resp.Content != `{"ok":true}` {
		t.Errorf("content = %q", resp.Content)
	}
	if gotFormat != "json_object" {
		t.Errorf("response_format = %q, want json_object", gotFormat)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 5 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestStatusCodeFromOpenAICompatible(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusUnauthorized} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"test"}}`))
		}))

		p := NewOllamaProvider(srv.URL, "tiny", 100, 0)
		_, err := p.Chat(context.Background(), []ChatMessage{UserMessage("hi")})
		srv.Close()
		if err == nil {
			t.Fatalf("status %d: expected error", status)
		}
		code, ok := StatusCode(err)
		if !ok || code != status {
			t.Errorf("StatusCode = %d, %v; want %d", code, ok, status)
		}
	}
}

func TestStatusCodeAbsent(t *testing.T) {
	if _, ok := StatusCode(errors.New("dial tcp: refused")); ok {
		t.Error("plain error should carry no status")
	}
	if _, ok := StatusCode(nil); ok {
		t.Error("nil should carry no status")
	}
}
