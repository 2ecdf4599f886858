// Provider construction for extraction.
//
//	provider, err := llm.NewProviderBuilder(llm.ProviderOllama).
//	    Model("qwen2.5-coder").
//	    Host("gpu-box:11434").
//	    APIKey("")
//
// Information Hiding:
// - Per-provider constructors and client configuration hidden
// - Deterministic defaults (temperature 0, 4096 tokens) applied at build time

package llm

import (
	"fmt"
	"strings"
)

// ProviderType identifies a supported provider.
type ProviderType int

const (
	ProviderOpenAI ProviderType = iota
	ProviderAnthropic
	ProviderDeepSeek
	ProviderGemini
	// ProviderOllama is a local Ollama server (OpenAI-compatible, no key).
	ProviderOllama
)

// ProviderTypes lists every supported provider in display order.
var ProviderTypes = []ProviderType{ProviderOllama, ProviderOpenAI, ProviderAnthropic, ProviderDeepSeek, ProviderGemini}

const defaultMaxTokens = 4096

func (p ProviderType) String() string {
	switch p {
	case ProviderOpenAI:
		return "openai"
	case ProviderAnthropic:
		return "anthropic"
	case ProviderDeepSeek:
		return "deepseek"
	case ProviderGemini:
		return "gemini"
	case ProviderOllama:
		return "ollama"
	default:
		return "unknown"
	}
}

// EnvVar returns the API key variable, or "" for keyless providers.
func (p ProviderType) EnvVar() string {
	switch p {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderDeepSeek:
		return "DEEPSEEK_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// DefaultModel returns the model used when none is configured.
func (p ProviderType) DefaultModel() string {
	switch p {
	case ProviderOpenAI:
		return ModelOpenAIGPT4oMini
	case ProviderAnthropic:
		return ModelAnthropicClaudeSonnet4
	case ProviderDeepSeek:
		return ModelDeepSeekV32
	case ProviderGemini:
		return ModelGeminiFlash2
	case ProviderOllama:
		return ModelOllamaLlama31
	default:
		return ""
	}
}

// ParseProviderType parses a provider name or alias, case-insensitively.
func ParseProviderType(s string) (ProviderType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "openai", "gpt":
		return ProviderOpenAI, nil
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	case "deepseek":
		return ProviderDeepSeek, nil
	case "gemini", "google":
		return ProviderGemini, nil
	case "ollama", "local":
		return ProviderOllama, nil
	default:
		return 0, fmt.Errorf("unknown provider: %s", s)
	}
}

// ProviderBuilder configures a provider before construction.
type ProviderBuilder struct {
	providerType ProviderType
	host         string
	model        string
	maxTokens    uint32
	temperature  float32
}

// NewProviderBuilder starts configuring providerType.
func NewProviderBuilder(providerType ProviderType) *ProviderBuilder {
	return &ProviderBuilder{providerType: providerType}
}

// Model sets the model; empty keeps DefaultModel.
func (b *ProviderBuilder) Model(model string) *ProviderBuilder {
	b.model = model
	return b
}

// Host sets the server address for Ollama.
func (b *ProviderBuilder) Host(host string) *ProviderBuilder {
	b.host = host
	return b
}

// MaxTokens bounds the response length; zero keeps 4096.
func (b *ProviderBuilder) MaxTokens(tokens uint32) *ProviderBuilder {
	b.maxTokens = tokens
	return b
}

// Temperature sets sampling temperature. Extraction runs at 0.
func (b *ProviderBuilder) Temperature(temp float32) *ProviderBuilder {
	b.temperature = temp
	return b
}

// APIKey builds the provider. Keyed providers reject an empty key.
func (b *ProviderBuilder) APIKey(key string) (Provider, error) {
	if key == "" && b.providerType.EnvVar() != "" {
		return nil, fmt.Errorf("%s: API key required (set %s)", b.providerType, b.providerType.EnvVar())
	}

	model := b.model
	if model == "" {
		model = b.providerType.DefaultModel()
	}
	maxTokens := b.maxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	switch b.providerType {
	case ProviderOpenAI:
		return NewOpenAIProvider(key, model, maxTokens, b.temperature), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(key, model, maxTokens, b.temperature), nil
	case ProviderDeepSeek:
		return NewDeepSeekProvider(key, model, maxTokens, b.temperature), nil
	case ProviderGemini:
		return NewGeminiProvider(key, model, maxTokens, b.temperature), nil
	case ProviderOllama:
		return NewOllamaProvider(b.host, model, maxTokens, b.temperature), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %v", b.providerType)
	}
}

// Default model identifiers. Any model the provider serves can be set with
// <PROVIDER>_MODEL or --model.
const (
	ModelOpenAIGPT4oMini        = "gpt-4o-mini"
	ModelAnthropicClaudeSonnet4 = "claude-sonnet-4-20250514"
	ModelDeepSeekV32            = "deepseek-v3.2"
	ModelGeminiFlash2           = "gemini-2.0-flash"
	ModelOllamaLlama31          = "llama3.1"
)
