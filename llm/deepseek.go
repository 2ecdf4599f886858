// DeepSeek and Ollama providers via the OpenAI-compatible API.
//
// Information Hiding:
// - Base URLs of the compatible endpoints
// - Ollama's local host discovery (OLLAMA_HOST)

package llm

import (
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	deepseekBaseURL   = "https://api.deepseek.com/v1"
	ollamaDefaultHost = "http://localhost:11434"
)

// NewDeepSeekProvider creates a DeepSeek provider.
func NewDeepSeekProvider(apiKey, model string, maxTokens uint32, temperature float32) *OpenAIProvider {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = deepseekBaseURL
	return newOpenAICompatible("deepseek", config, model, maxTokens, temperature)
}

// NewOllamaProvider creates a provider for a local Ollama server. host may be
// empty, in which case OLLAMA_HOST or the default local address is used.
func NewOllamaProvider(host, model string, maxTokens uint32, temperature float32) *OpenAIProvider {
	// Ollama ignores the key but the client requires one.
	config := openai.DefaultConfig("ollama")
	config.BaseURL = OllamaBaseURL(host)
	return newOpenAICompatible("ollama", config, model, maxTokens, temperature)
}

// OllamaBaseURL returns the OpenAI-compatible endpoint for an Ollama host.
func OllamaBaseURL(host string) string {
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	if host == "" {
		host = ollamaDefaultHost
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	host = strings.TrimRight(host, "/")
	if !strings.HasSuffix(host, "/v1") {
		host += "/v1"
	}
	return host
}
