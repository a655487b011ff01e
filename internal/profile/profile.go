package profile

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server.
type Profile struct {
	// Unified LLM configuration (OpenAI-compatible protocol).
	// All providers (openai, deepseek, siliconflow, dashscope, openrouter,
	// ollama) use the same config shape.
	LLMProvider string // provider identifier
	LLMAPIKey   string
	LLMBaseURL  string // optional, has default per provider
	LLMModel    string
	LLMTimeout  int // request timeout in seconds (default: 120)

	// Encoding is the default tokenizer encoding used for chunk sizing
	// when a request does not name one.
	Encoding string

	// JobTTL evicts terminal jobs from the in-memory store after this
	// duration. Zero means never evict.
	JobTTL time.Duration

	Mode    string // "prod", "dev" or "demo"
	Addr    string
	Port    int
	Version string
}

// Provider default base URLs, used when LLM_BASE_URL is not explicitly set.
var llmProviderDefaults = map[string]string{
	"openai":      "https://api.openai.com/v1",
	"deepseek":    "https://api.deepseek.com",
	"siliconflow": "https://api.siliconflow.cn/v1",
	"dashscope":   "https://dashscope.aliyuncs.com/compatible-mode/v1",
	"openrouter":  "https://openrouter.ai/api/v1",
	"ollama":      "http://localhost:11434",
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// FromEnv fills LLM settings from CONDENSE_* environment variables when
// they were not provided via flags.
func (p *Profile) FromEnv() {
	if p.LLMProvider == "" {
		p.LLMProvider = getEnvOrDefault("CONDENSE_LLM_PROVIDER", "openai")
	}
	if p.LLMAPIKey == "" {
		p.LLMAPIKey = os.Getenv("CONDENSE_LLM_API_KEY")
	}
	if p.LLMBaseURL == "" {
		p.LLMBaseURL = os.Getenv("CONDENSE_LLM_BASE_URL")
	}
	if p.LLMModel == "" {
		p.LLMModel = os.Getenv("CONDENSE_LLM_MODEL")
	}
	if p.LLMTimeout == 0 {
		p.LLMTimeout = getEnvOrDefaultInt("CONDENSE_LLM_TIMEOUT", 120)
	}
	if p.LLMBaseURL == "" {
		if def, ok := llmProviderDefaults[p.LLMProvider]; ok {
			p.LLMBaseURL = def
		}
	}
	if p.Encoding == "" {
		p.Encoding = getEnvOrDefault("CONDENSE_ENCODING", "cl100k_base")
	}
}

// Validate checks that the profile is usable before the server starts.
func (p *Profile) Validate() error {
	if p.Mode != "prod" && p.Mode != "dev" && p.Mode != "demo" {
		return errors.Errorf("invalid mode %q, expected prod, dev or demo", p.Mode)
	}
	if p.Port <= 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}
	if p.LLMModel == "" {
		return errors.New("LLM model is required (set CONDENSE_LLM_MODEL or --llm-model)")
	}
	if p.Encoding == "" {
		return errors.New("tokenizer encoding is required")
	}
	if p.JobTTL < 0 {
		return errors.Errorf("invalid job TTL %s", p.JobTTL)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
