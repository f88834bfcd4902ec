package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextstep-labs/interview-server/domain/entities"
	"github.com/nextstep-labs/interview-server/domain/repositories"
)

func TestParseBehaviorAnalysis(t *testing.T) {
	reply := "```json\n" + `{
  "eye_contact_score": 1.4,
  "body_language_notes": " Leaning forward ",
  "confidence_indicators": ["steady voice"],
  "emotion": "Calm",
  "emotion_confidence": "HIGH",
  "communication_issues": [
    {"type": "filler_words", "severity": "minor", "context": "um"},
    {"type": "mumbling", "severity": "major", "context": "dropped"}
  ]
}` + "\n```"

	analysis, err := parseBehaviorAnalysis(reply, true)
	require.NoError(t, err)

	require.NotNil(t, analysis.EyeContactScore)
	assert.Equal(t, 1.0, *analysis.EyeContactScore)
	assert.Equal(t, "Leaning forward", analysis.BodyLanguageNotes)
	assert.Equal(t, "calm", analysis.Emotion)
	assert.Equal(t, entities.ConfidenceHigh, analysis.EmotionConfidence)
	require.Len(t, analysis.CommunicationIssues, 1)
	assert.Equal(t, entities.IssueFillerWords, analysis.CommunicationIssues[0].Kind)
}

func TestParseBehaviorAnalysisIgnoresScoreWithoutFrames(t *testing.T) {
	analysis, err := parseBehaviorAnalysis(`{"eye_contact_score": 0.9}`, false)
	require.NoError(t, err)
	assert.Nil(t, analysis.EyeContactScore)
}

func TestParseBehaviorAnalysisRejectsGarbage(t *testing.T) {
	_, err := parseBehaviorAnalysis("I could not see the candidate.", true)
	assert.Error(t, err)
}

func TestBehaviorPrompt(t *testing.T) {
	input := repositories.BehaviorInput{Role: "Quant", Question: "Price this option", Transcript: "um, Black-Scholes"}

	withFrames := behaviorPrompt(input, 2)
	assert.Contains(t, withFrames, "Quant")
	assert.Contains(t, withFrames, "2 webcam frames")

	withoutFrames := behaviorPrompt(input, 0)
	assert.Contains(t, withoutFrames, "eye_contact_score to null")
}

func TestLatestFrames(t *testing.T) {
	frames := [][]byte{{1}, {2}, {3}, {4}, {5}, {6}}
	latest := latestFrames(frames, 4)
	require.Len(t, latest, 4)
	assert.Equal(t, byte(3), latest[0][0])
	assert.Len(t, latestFrames(frames[:2], 4), 2)
}
