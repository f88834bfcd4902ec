package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "AI_PROVIDER", "GEMINI_API_KEY", "INTERVIEW_MAX_TURNS", "JWT_REQUIRE_TOKEN", "STT_ENABLED", "STT_ENCODING"} {
		t.Setenv(key, "")
	}

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, ProviderGemini, cfg.AIProvider)
	assert.Equal(t, 5, cfg.MaxTurns)
	assert.Equal(t, 30*time.Second, cfg.QuestionTimeout)
	assert.Equal(t, 60*time.Second, cfg.ScoringTimeout)
	assert.Equal(t, 20*time.Second, cfg.AnalysisTimeout)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
	assert.Equal(t, time.Minute, cfg.SessionCleanupInterval)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.False(t, cfg.STTEnabled)
	assert.Equal(t, "LINEAR16", cfg.STTEncoding)
	assert.Empty(t, cfg.GeminiAPIKey, "a missing credential must not fail startup")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("AI_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("INTERVIEW_MAX_TURNS", "3")
	t.Setenv("INTERVIEW_QUESTION_TIMEOUT", "5s")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_REQUIRE_TOKEN", "true")
	t.Setenv("STT_ENABLED", "true")
	t.Setenv("STT_ENCODING", "flac")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddress())
	assert.Equal(t, ProviderOpenAI, cfg.AIProvider)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, 3, cfg.MaxTurns)
	assert.Equal(t, 5*time.Second, cfg.QuestionTimeout)
	assert.True(t, cfg.JWTRequireToken)
	assert.True(t, cfg.STTEnabled)
	assert.Equal(t, "FLAC", cfg.STTEncoding)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad provider":         {"AI_PROVIDER": "llama"},
		"bad duration":         {"INTERVIEW_SCORING_TIMEOUT": "soon"},
		"negative duration":    {"SESSION_IDLE_TTL": "-1m"},
		"token without secret": {"JWT_REQUIRE_TOKEN": "true"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := load(viper.New())
			assert.Error(t, err)
		})
	}
}

func TestDevelopment(t *testing.T) {
	assert.True(t, Config{AppEnv: "development"}.Development())
	assert.True(t, Config{LogLevel: "debug"}.Development())
	assert.False(t, Config{AppEnv: "production", LogLevel: "info"}.Development())
}

func TestCredentialKey(t *testing.T) {
	assert.Equal(t, "GEMINI_API_KEY", Config{AIProvider: ProviderGemini}.CredentialKey())
	assert.Equal(t, "OPENAI_API_KEY", Config{AIProvider: ProviderOpenAI}.CredentialKey())
	assert.Empty(t, Config{AIProvider: ProviderMock}.CredentialKey())
}
