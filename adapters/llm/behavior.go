package llm

import (
	"fmt"
	"strings"

	"github.com/nextstep-labs/interview-server/domain/entities"
	"github.com/nextstep-labs/interview-server/domain/repositories"
	"github.com/nextstep-labs/interview-server/internal/llmjson"
)

// frameMIMEType is the encoding clients are expected to send video frames in.
const frameMIMEType = "image/jpeg"

// maxAnalysisFrames bounds how many frames of one answer are sent to a model.
const maxAnalysisFrames = 4

func behaviorPrompt(input repositories.BehaviorInput, frameCount int) string {
	var b strings.Builder
	b.WriteString("You are observing a candidate in a mock job interview")
	if input.Role != "" {
		fmt.Fprintf(&b, " for a %s position", input.Role)
	}
	b.WriteString(".\n\n")

	if input.Question != "" {
		fmt.Fprintf(&b, "Question asked: %s\n", input.Question)
	}
	fmt.Fprintf(&b, "Candidate answer transcript: %q\n", input.Transcript)
	if input.AudioSeconds > 0 {
		fmt.Fprintf(&b, "Spoken answer length: %.1f seconds\n", input.AudioSeconds)
	}

	if frameCount > 0 {
		fmt.Fprintf(&b, "\n%d webcam frames captured during the answer are attached.\n", frameCount)
		b.WriteString("Judge eye contact with the camera, posture and facial expression.\n")
	} else {
		b.WriteString("\nNo video is available; set eye_contact_score to null.\n")
	}

	b.WriteString(`
Respond ONLY with a JSON object of this shape:
{
  "eye_contact_score": <number between 0 and 1, or null>,
  "body_language_notes": "<one sentence>",
  "confidence_indicators": ["<short tag>", ...],
  "emotion": "<single word such as calm, nervous, enthusiastic>",
  "emotion_confidence": "low" | "medium" | "high",
  "communication_issues": [
    {"type": "filler_words" | "hesitation" | "unclear" | "off_topic" | "too_brief" | "rambling",
     "severity": "minor" | "moderate" | "major",
     "context": "<the words or behavior that triggered it>"}
  ]
}`)
	return b.String()
}

type behaviorPayload struct {
	EyeContactScore      *float64 `json:"eye_contact_score"`
	BodyLanguageNotes    string   `json:"body_language_notes"`
	ConfidenceIndicators []string `json:"confidence_indicators"`
	Emotion              string   `json:"emotion"`
	EmotionConfidence    string   `json:"emotion_confidence"`
	CommunicationIssues  []struct {
		Type     string `json:"type"`
		Severity string `json:"severity"`
		Context  string `json:"context"`
	} `json:"communication_issues"`
}

// parseBehaviorAnalysis decodes a model reply. Unknown issue kinds are dropped
// and an eye-contact score is only kept when frames were actually analyzed.
func parseBehaviorAnalysis(reply string, hadFrames bool) (repositories.BehaviorAnalysis, error) {
	var payload behaviorPayload
	if err := llmjson.Unmarshal(reply, &payload); err != nil {
		return repositories.BehaviorAnalysis{}, fmt.Errorf("parse behavior analysis: %w", err)
	}

	analysis := repositories.BehaviorAnalysis{
		BodyLanguageNotes:    strings.TrimSpace(payload.BodyLanguageNotes),
		ConfidenceIndicators: payload.ConfidenceIndicators,
		Emotion:              strings.ToLower(strings.TrimSpace(payload.Emotion)),
		EmotionConfidence:    entities.ConfidenceLevel(strings.ToLower(payload.EmotionConfidence)),
	}
	if hadFrames && payload.EyeContactScore != nil {
		score := entities.ClampUnit(*payload.EyeContactScore)
		analysis.EyeContactScore = &score
	}

	for _, raw := range payload.CommunicationIssues {
		issue := entities.CommunicationIssue{
			Kind:     entities.IssueKind(strings.ToLower(raw.Type)),
			Severity: entities.IssueSeverity(strings.ToLower(raw.Severity)),
			Context:  raw.Context,
		}
		if issue.Validate() != nil {
			continue
		}
		analysis.CommunicationIssues = append(analysis.CommunicationIssues, issue)
	}
	return analysis, nil
}

// latestFrames returns at most n of the most recent frames.
func latestFrames(frames [][]byte, n int) [][]byte {
	if len(frames) <= n {
		return frames
	}
	return frames[len(frames)-n:]
}
