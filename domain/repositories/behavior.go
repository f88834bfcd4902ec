package repositories

import (
	"context"

	"github.com/nextstep-labs/interview-server/domain/entities"
)

// BehaviorInput is the evidence of one answer handed to a BehaviorAnalyzer.
type BehaviorInput struct {
	Role         string
	Question     string
	Transcript   string
	Frames       [][]byte
	AudioSeconds float64
}

// BehaviorAnalysis is what the analyzer observed about one answer.
// EyeContactScore is nil when no frames were available to judge it.
type BehaviorAnalysis struct {
	EyeContactScore      *float64                      `json:"eye_contact_score"`
	BodyLanguageNotes    string                        `json:"body_language_notes"`
	ConfidenceIndicators []string                      `json:"confidence_indicators"`
	Emotion              string                        `json:"emotion"`
	EmotionConfidence    entities.ConfidenceLevel      `json:"emotion_confidence"`
	CommunicationIssues  []entities.CommunicationIssue `json:"communication_issues"`
}

// BehaviorAnalyzer inspects video frames and the answer transcript for
// non-verbal and delivery cues. Its results never gate the interview.
type BehaviorAnalyzer interface {
	Analyze(ctx context.Context, input BehaviorInput) (BehaviorAnalysis, error)
}
