package entities

import (
	"errors"
	"time"
)

// IssueKind classifies a communication issue noticed during an answer.
type IssueKind string

const (
	IssueFillerWords IssueKind = "filler_words"
	IssueHesitation  IssueKind = "hesitation"
	IssueUnclear     IssueKind = "unclear"
	IssueOffTopic    IssueKind = "off_topic"
	IssueTooBrief    IssueKind = "too_brief"
	IssueRambling    IssueKind = "rambling"
)

// Valid reports whether k is a known issue kind.
func (k IssueKind) Valid() bool {
	switch k {
	case IssueFillerWords, IssueHesitation, IssueUnclear, IssueOffTopic, IssueTooBrief, IssueRambling:
		return true
	}
	return false
}

// IssueSeverity grades a communication issue.
type IssueSeverity string

const (
	SeverityMinor    IssueSeverity = "minor"
	SeverityModerate IssueSeverity = "moderate"
	SeverityMajor    IssueSeverity = "major"
)

// Valid reports whether s is a known severity.
func (s IssueSeverity) Valid() bool {
	return s == SeverityMinor || s == SeverityModerate || s == SeverityMajor
}

// ConfidenceLevel qualifies an emotion snapshot.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// Valid reports whether c is a known confidence level.
func (c ConfidenceLevel) Valid() bool {
	return c == ConfidenceLow || c == ConfidenceMedium || c == ConfidenceHigh
}

// CommunicationIssue is a live-feedback signal. It never affects scoring.
type CommunicationIssue struct {
	Timestamp time.Time     `json:"timestamp"`
	Kind      IssueKind     `json:"type"`
	Severity  IssueSeverity `json:"severity"`
	Context   string        `json:"context"`
}

// Validate checks the issue classification.
func (i CommunicationIssue) Validate() error {
	if !i.Kind.Valid() {
		return errors.New("unknown issue type")
	}
	if !i.Severity.Valid() {
		return errors.New("unknown issue severity")
	}
	return nil
}

// EmotionSnapshot is the emotion detected at a point in time.
type EmotionSnapshot struct {
	Timestamp       time.Time       `json:"timestamp"`
	Emotion         string          `json:"emotion"`
	ConfidenceLevel ConfidenceLevel `json:"confidence"`
}

// BehavioralSummary aggregates behavioral observations for scoring.
type BehavioralSummary struct {
	AvgEyeContact        float64  `json:"avg_eye_contact"`
	TotalObservations    int      `json:"total_observations"`
	ConfidenceIndicators []string `json:"confidence_indicators"`
	Notes                []string `json:"notes"`
}

// SessionExport is the snapshot of a session log handed to the scorer.
type SessionExport struct {
	SessionID           string               `json:"session_id"`
	TargetRole          string               `json:"target_role"`
	UserName            string               `json:"user_name"`
	CreatedAt           time.Time            `json:"created_at"`
	TotalTurns          int                  `json:"total_turns"`
	TotalDurationSec    float64              `json:"total_duration_sec"`
	Transcript          string               `json:"transcript"`
	BehavioralSummary   BehavioralSummary    `json:"behavioral_summary"`
	Turns               []Turn               `json:"turns"`
	CommunicationIssues []CommunicationIssue `json:"communication_issues"`
	EmotionTimeline     []EmotionSnapshot    `json:"emotion_timeline"`
	VideoFramesCaptured int                  `json:"video_frames_captured"`
}
