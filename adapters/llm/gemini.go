package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/nextstep-labs/interview-server/domain/repositories"
)

const (
	defaultGeminiModel = "gemini-2.5-flash"
	defaultTemperature = 0.7
	defaultMaxTokens   = 2048
	maxAttempts        = 3
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// GeminiConfig holds the settings for the Gemini reasoning model
type GeminiConfig struct {
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int
}

// GeminiLLM implements ReasoningModel and BehaviorAnalyzer using Google's Gemini API
type GeminiLLM struct {
	client      *genai.Client
	logger      *zap.Logger
	tracer      trace.Tracer
	model       string
	temperature float32
	maxTokens   int32
}

var (
	_ repositories.ReasoningModel   = (*GeminiLLM)(nil)
	_ repositories.BehaviorAnalyzer = (*GeminiLLM)(nil)
)

// NewGeminiLLM creates a new Gemini LLM instance
func NewGeminiLLM(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*GeminiLLM, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return nil, fmt.Errorf("temperature must be between 0 and 2, got %f", cfg.Temperature)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
		logger.Info("Using default model", zap.String("model", model))
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}
	maxTokens := cfg.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	return &GeminiLLM{
		client:      client,
		logger:      logger,
		tracer:      otel.Tracer("github.com/nextstep-labs/interview-server/adapters/llm/gemini"),
		model:       model,
		temperature: temperature,
		maxTokens:   int32(maxTokens),
	}, nil
}

// Generate returns free text for prompt
func (g *GeminiLLM) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, done := instrument(ctx, g.tracer, "gemini", "generate", g.model)
	text, err := g.generate(ctx, []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, g.config(""))
	done(err)
	return text, err
}

// GenerateJSON returns a JSON document for prompt
func (g *GeminiLLM) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	ctx, done := instrument(ctx, g.tracer, "gemini", "generate_json", g.model)
	text, err := g.generate(ctx, []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, g.config("application/json"))
	done(err)
	return text, err
}

// Analyze sends the answer transcript and the latest frames as inline images
func (g *GeminiLLM) Analyze(ctx context.Context, input repositories.BehaviorInput) (repositories.BehaviorAnalysis, error) {
	ctx, done := instrument(ctx, g.tracer, "gemini", "analyze", g.model)

	frames := latestFrames(input.Frames, maxAnalysisFrames)
	parts := []*genai.Part{genai.NewPartFromText(behaviorPrompt(input, len(frames)))}
	for _, frame := range frames {
		parts = append(parts, genai.NewPartFromBytes(frame, frameMIMEType))
	}

	text, err := g.generate(ctx, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, g.config("application/json"))
	if err != nil {
		done(err)
		return repositories.BehaviorAnalysis{}, err
	}

	analysis, err := parseBehaviorAnalysis(text, len(frames) > 0)
	done(err)
	return analysis, err
}

func (g *GeminiLLM) config(mimeType string) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(g.temperature),
		MaxOutputTokens:  g.maxTokens,
		ResponseMIMEType: mimeType,
	}
}

// generate calls the API with retries. The caller's context bounds the whole
// exchange, including the backoff between attempts.
func (g *GeminiLLM) generate(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error) {
	var response *genai.GenerateContentResponse
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		response, err = g.client.Models.GenerateContent(ctx, g.model, contents, config)
		if err == nil {
			break
		}

		g.logger.Warn("Failed to generate content, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		if attempt < maxAttempts-1 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("gemini generate: %w", ctx.Err())
			case <-time.After(time.Duration(attempt+1) * time.Second):
			}
		}
	}
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var text string
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
