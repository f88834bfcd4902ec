package stt

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nextstep-labs/interview-server/domain/repositories"
)

// MockSpeechToText is an offline stand-in for speech recognition
type MockSpeechToText struct {
	logger *zap.Logger
}

// NewMockSpeechToText creates a new mock speech-to-text service
func NewMockSpeechToText(logger *zap.Logger) *MockSpeechToText {
	return &MockSpeechToText{
		logger: logger,
	}
}

// TranscribeAudio implements repositories.SpeechToText
func (s *MockSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	s.logger.Info("Processing speech-to-text",
		zap.Int("audioSize", len(audioData)),
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding))

	if len(audioData) == 0 {
		return "", fmt.Errorf("no audio data received")
	}

	// Mock transcription based on audio size
	switch {
	case len(audioData) > 10000:
		return "In my last role I led the migration of our reporting pipeline and cut latency in half.", nil
	case len(audioData) > 5000:
		return "I would start by clarifying the requirements.", nil
	case len(audioData) > 1000:
		return "Yes, I have done that before.", nil
	default:
		return "Yes.", nil
	}
}
