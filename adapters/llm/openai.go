package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/nextstep-labs/interview-server/domain/repositories"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIConfig defines configuration options for the OpenAI reasoning model.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	// BaseURL overrides the API endpoint, for OpenAI-compatible gateways.
	BaseURL string
}

// OpenAILLM implements ReasoningModel and BehaviorAnalyzer against the chat completion API.
type OpenAILLM struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger *zap.Logger
}

var (
	_ repositories.ReasoningModel   = (*OpenAILLM)(nil)
	_ repositories.BehaviorAnalyzer = (*OpenAILLM)(nil)
)

// NewOpenAILLM builds a new client using the provided configuration.
func NewOpenAILLM(cfg OpenAIConfig, logger *zap.Logger) (*OpenAILLM, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAILLM{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/nextstep-labs/interview-server/adapters/llm/openai"),
		logger: logger,
	}, nil
}

// Generate returns free text for prompt.
func (o *OpenAILLM) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, done := instrument(ctx, o.tracer, "openai", "generate", o.cfg.Model)
	text, err := o.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, false)
	done(err)
	return text, err
}

// GenerateJSON returns a JSON object for prompt.
func (o *OpenAILLM) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	ctx, done := instrument(ctx, o.tracer, "openai", "generate_json", o.cfg.Model)
	text, err := o.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: "Respond with a single JSON object."},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, true)
	done(err)
	return text, err
}

// Analyze sends the transcript and the latest frames as image data URLs.
func (o *OpenAILLM) Analyze(ctx context.Context, input repositories.BehaviorInput) (repositories.BehaviorAnalysis, error) {
	ctx, done := instrument(ctx, o.tracer, "openai", "analyze", o.cfg.Model)

	frames := latestFrames(input.Frames, maxAnalysisFrames)
	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: behaviorPrompt(input, len(frames))},
	}
	for _, frame := range frames {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:" + frameMIMEType + ";base64," + base64.StdEncoding.EncodeToString(frame),
				Detail: openai.ImageURLDetailLow,
			},
		})
	}

	text, err := o.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, MultiContent: parts},
	}, true)
	if err != nil {
		done(err)
		return repositories.BehaviorAnalysis{}, err
	}

	analysis, err := parseBehaviorAnalysis(text, len(frames) > 0)
	done(err)
	return analysis, err
}

func (o *OpenAILLM) complete(ctx context.Context, messages []openai.ChatCompletionMessage, jsonMode bool) (string, error) {
	request := openai.ChatCompletionRequest{
		Model:       o.cfg.Model,
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
		Messages:    messages,
	}
	if jsonMode {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := o.client.CreateChatCompletion(ctx, request)
	if err != nil {
		o.logger.Warn("OpenAI request failed", zap.String("model", o.cfg.Model), zap.Error(err))
		return "", fmt.Errorf("openai complete: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
