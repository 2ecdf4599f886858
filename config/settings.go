// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Provider-specific configuration lookup

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/richinex/cmdsaw/llm"
)

// Settings holds all application configuration.
type Settings struct {
	LLM       LLMConfig
	Discovery DiscoveryConfig
	Cache     CacheConfig
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider    string
	Model       string
	Host        string
	MaxTokens   uint32
	Temperature float64
	// RequestsPerSecond paces extraction calls; zero means unlimited.
	RequestsPerSecond float64
	CallTimeout       time.Duration
}

// DiscoveryConfig holds traversal and validation configuration.
type DiscoveryConfig struct {
	MaxDepth         int
	Concurrency      int
	Timeout          time.Duration
	RepairAttempts   int
	TransientRetries int
	DoubleCheck      bool
	HelpFlags        []string
	HelpFormat       string
	TextFallback     bool
}

// CacheConfig holds extraction cache configuration.
type CacheConfig struct {
	Path     string
	Disabled bool
}

// DefaultProvider is used when neither the caller nor CMDSAW_PROVIDER names one.
const DefaultProvider = "ollama"

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	modelEnv     string
	defaultModel string
	apiKeyEnv    string
}

// Supported providers and their configuration.
var providers = map[string]providerInfo{
	"ollama":    {"OLLAMA_MODEL", llm.ModelOllamaLlama31, ""},
	"openai":    {"OPENAI_MODEL", llm.ModelOpenAIGPT4oMini, "OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_MODEL", llm.ModelAnthropicClaudeSonnet4, "ANTHROPIC_API_KEY"},
	"deepseek":  {"DEEPSEEK_MODEL", llm.ModelDeepSeekV32, "DEEPSEEK_API_KEY"},
	"gemini":    {"GEMINI_MODEL", llm.ModelGeminiFlash2, "GEMINI_API_KEY"},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"claude": "anthropic",
	"google": "gemini",
	"gpt":    "openai",
	"local":  "ollama",
}

// New creates settings for the specified provider, loading values from environment variables.
// An empty provider falls back to CMDSAW_PROVIDER, then DefaultProvider.
// Returns an error if the provider is unknown or environment variables contain invalid values.
func New(provider string) (Settings, error) {
	if provider == "" {
		provider = os.Getenv("CMDSAW_PROVIDER")
	}
	if provider == "" {
		provider = DefaultProvider
	}
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return Settings{}, err
	}

	llmCfg, err := loadLLM(provider, info)
	if err != nil {
		return Settings{}, err
	}
	discovery, err := loadDiscovery()
	if err != nil {
		return Settings{}, err
	}
	cacheCfg, err := loadCache()
	if err != nil {
		return Settings{}, err
	}

	return Settings{
		LLM:       llmCfg,
		Discovery: discovery,
		Cache:     cacheCfg,
	}, nil
}

// MustNew creates settings for the specified provider.
// Panics if the provider is unknown or environment variables are invalid.
// Use this only when configuration errors should be fatal.
func MustNew(provider string) Settings {
	settings, err := New(provider)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

func loadLLM(provider string, info providerInfo) (LLMConfig, error) {
	maxTokens, err := getEnvUint32("LLM_MAX_TOKENS", 4096)
	if err != nil {
		return LLMConfig{}, err
	}

	temperature, err := getEnvFloat64("LLM_TEMPERATURE", 0)
	if err != nil {
		return LLMConfig{}, err
	}

	rps, err := getEnvFloat64("LLM_REQUESTS_PER_SECOND", 0)
	if err != nil {
		return LLMConfig{}, err
	}
	if rps < 0 {
		return LLMConfig{}, fmt.Errorf("invalid value for LLM_REQUESTS_PER_SECOND: %v: must not be negative", rps)
	}

	callTimeout, err := getEnvDuration("LLM_CALL_TIMEOUT", 120*time.Second)
	if err != nil {
		return LLMConfig{}, err
	}

	// Get model from environment or use default
	model := os.Getenv(info.modelEnv)
	if model == "" {
		model = info.defaultModel
	}

	return LLMConfig{
		Provider:          provider,
		Model:             model,
		Host:              os.Getenv("OLLAMA_HOST"),
		MaxTokens:         maxTokens,
		Temperature:       temperature,
		RequestsPerSecond: rps,
		CallTimeout:       callTimeout,
	}, nil
}

func loadDiscovery() (DiscoveryConfig, error) {
	var cfg DiscoveryConfig
	var err error

	if cfg.MaxDepth, err = getEnvInt("CMDSAW_MAX_DEPTH", 1); err != nil {
		return cfg, err
	}
	if cfg.MaxDepth < 0 {
		return cfg, fmt.Errorf("invalid value for CMDSAW_MAX_DEPTH: %d: must not be negative", cfg.MaxDepth)
	}
	if cfg.Concurrency, err = getEnvInt("CMDSAW_CONCURRENCY", 4); err != nil {
		return cfg, err
	}
	if cfg.Concurrency < 1 {
		return cfg, fmt.Errorf("invalid value for CMDSAW_CONCURRENCY: %d: must be at least 1", cfg.Concurrency)
	}
	if cfg.Timeout, err = getEnvDuration("CMDSAW_TIMEOUT", 30*time.Second); err != nil {
		return cfg, err
	}
	if cfg.RepairAttempts, err = getEnvInt("CMDSAW_REPAIR_ATTEMPTS", 3); err != nil {
		return cfg, err
	}
	if cfg.RepairAttempts < 1 {
		return cfg, fmt.Errorf("invalid value for CMDSAW_REPAIR_ATTEMPTS: %d: must be at least 1", cfg.RepairAttempts)
	}
	if cfg.TransientRetries, err = getEnvInt("CMDSAW_TRANSIENT_RETRIES", 3); err != nil {
		return cfg, err
	}
	if cfg.DoubleCheck, err = getEnvBool("CMDSAW_DOUBLE_CHECK", true); err != nil {
		return cfg, err
	}
	cfg.HelpFlags = getEnvList("CMDSAW_HELP_FLAGS", []string{"--help", "-h", "help"})
	cfg.HelpFormat = getEnvString("CMDSAW_HELP_FORMAT", "subcommand-help")
	if cfg.TextFallback, err = getEnvBool("CMDSAW_TEXT_FALLBACK", false); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadCache() (CacheConfig, error) {
	disabled, err := getEnvBool("CMDSAW_NO_CACHE", false)
	if err != nil {
		return CacheConfig{}, err
	}
	return CacheConfig{
		Path:     getEnvString("CMDSAW_CACHE_PATH", DefaultCachePath()),
		Disabled: disabled,
	}, nil
}

// DefaultCachePath returns the cache database location under the user cache
// directory, or a file in the working directory when there is none.
func DefaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "cmdsaw-cache.db"
	}
	return filepath.Join(dir, "cmdsaw", "cache.db")
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(provider)
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// getProviderInfo returns configuration for a provider.
func getProviderInfo(provider string) (providerInfo, error) {
	info, ok := providers[provider]
	if !ok {
		return providerInfo{}, fmt.Errorf("unknown provider: %q", provider)
	}
	return info, nil
}

// APIKeyFor returns the API key for a provider from environment variables.
// Providers that need no key return "".
func APIKeyFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}
	if info.apiKeyEnv == "" {
		return "", nil
	}

	key := os.Getenv(info.apiKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", info.apiKeyEnv)
	}
	return key, nil
}

// ModelFor returns the model for a provider, checking environment first.
func ModelFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	if val := os.Getenv(info.modelEnv); val != "" {
		return val, nil
	}
	return info.defaultModel, nil
}

// APIKeyEnv returns the name of a provider's API key variable, or "".
func APIKeyEnv(provider string) string {
	return providers[normalizeProvider(provider)].apiKeyEnv
}

// SupportedProviders returns the supported provider names, sorted.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for name := range providers {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Environment variable helpers with proper error handling

func getEnvString(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid value for %s: %q: must be positive", key, val)
	}
	return d, nil
}

// getEnvList splits a comma-separated value, dropping empty items.
func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
