package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/nextstep-labs/interview-server/domain/entities"
)

// Reasoning model providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Config holds runtime configuration values for the interview server.
type Config struct {
	AppEnv   string
	Port     string
	LogLevel string

	AIProvider   string
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string

	MaxTurns        int
	QuestionTimeout time.Duration
	ScoringTimeout  time.Duration
	AnalysisTimeout time.Duration

	SessionIdleTTL         time.Duration
	SessionCleanupInterval time.Duration

	JWTSecret       string
	JWTRequireToken bool
	JWTTTL          time.Duration

	STTEnabled    bool
	STTLanguage   string
	STTSampleRate int
	STTEncoding   string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}

	return fmt.Sprintf(":%s", c.Port)
}

// Development reports whether the server runs in a development environment.
func (c Config) Development() bool {
	return c.AppEnv == "development" || c.LogLevel == "debug"
}

// CredentialKey returns the environment variable holding the selected
// provider's API key. The mock provider needs none.
func (c Config) CredentialKey() string {
	switch c.AIProvider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderMock:
		return ""
	default:
		return "GEMINI_API_KEY"
	}
}

// Load reads configuration values from environment variables and an optional .env file.
// A missing model credential is not an error here: sessions fail at creation instead.
func Load() (Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("port", "8080")
	v.SetDefault("app.env", "production")
	v.SetDefault("log.level", "info")
	v.SetDefault("ai.provider", ProviderGemini)
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("interview.max_turns", entities.DefaultMaxTurns)
	v.SetDefault("interview.question_timeout", "30s")
	v.SetDefault("interview.scoring_timeout", "60s")
	v.SetDefault("interview.analysis_timeout", "20s")
	v.SetDefault("session.idle_ttl", "30m")
	v.SetDefault("session.cleanup_interval", "1m")
	v.SetDefault("jwt.require_token", false)
	v.SetDefault("jwt.ttl", "2h")
	v.SetDefault("stt.enabled", false)
	v.SetDefault("stt.language", "en-US")
	v.SetDefault("stt.sample_rate", 16000)
	v.SetDefault("stt.encoding", "LINEAR16")

	cfg := Config{
		AppEnv:          v.GetString("app.env"),
		Port:            v.GetString("port"),
		LogLevel:        strings.ToLower(v.GetString("log.level")),
		AIProvider:      strings.ToLower(v.GetString("ai.provider")),
		GeminiAPIKey:    v.GetString("gemini.api_key"),
		GeminiModel:     v.GetString("gemini.model"),
		OpenAIAPIKey:    v.GetString("openai.api_key"),
		OpenAIModel:     v.GetString("openai.model"),
		MaxTurns:        v.GetInt("interview.max_turns"),
		JWTSecret:       v.GetString("jwt.secret"),
		JWTRequireToken: v.GetBool("jwt.require_token"),
		STTEnabled:      v.GetBool("stt.enabled"),
		STTLanguage:     v.GetString("stt.language"),
		STTSampleRate:   v.GetInt("stt.sample_rate"),
		STTEncoding:     strings.ToUpper(v.GetString("stt.encoding")),
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"interview.question_timeout", &cfg.QuestionTimeout},
		{"interview.scoring_timeout", &cfg.ScoringTimeout},
		{"interview.analysis_timeout", &cfg.AnalysisTimeout},
		{"session.idle_ttl", &cfg.SessionIdleTTL},
		{"session.cleanup_interval", &cfg.SessionCleanupInterval},
		{"jwt.ttl", &cfg.JWTTTL},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(v.GetString(d.key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envName(d.key), err)
		}
		if parsed <= 0 {
			return Config{}, fmt.Errorf("%s must be positive", envName(d.key))
		}
		*d.dst = parsed
	}

	switch cfg.AIProvider {
	case ProviderGemini, ProviderOpenAI, ProviderMock:
	default:
		return Config{}, fmt.Errorf("unsupported AI_PROVIDER %q", cfg.AIProvider)
	}

	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = entities.DefaultMaxTurns
	}
	if cfg.STTSampleRate <= 0 {
		cfg.STTSampleRate = 16000
	}
	if cfg.JWTRequireToken && cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_REQUIRE_TOKEN needs JWT_SECRET")
	}

	return cfg, nil
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
