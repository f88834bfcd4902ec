package llm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/nextstep-labs/interview-server/domain/entities"
	"github.com/nextstep-labs/interview-server/domain/repositories"
)

// MockLLM is a scripted, offline reasoning model used for local development
// and end-to-end tests. It is safe for concurrent use.
type MockLLM struct {
	mu        sync.Mutex
	questions []string
	asked     int
	scoreJSON string
}

var (
	_ repositories.ReasoningModel   = (*MockLLM)(nil)
	_ repositories.BehaviorAnalyzer = (*MockLLM)(nil)
)

var defaultMockQuestions = []string{
	"Welcome! Thanks for joining today. To start, could you walk me through your background?",
	"Thanks for sharing that. Tell me about a project you're particularly proud of.",
	"Good example. Describe a time you had to resolve a disagreement within your team.",
	"That makes sense. How do you approach a problem you have never seen before?",
	"Thank you. Finally, where do you see yourself growing over the next few years?",
}

const defaultMockScore = `{
  "content_score": 78,
  "behavioral_score": 64,
  "final_score": 99,
  "overall_impression": "Clear, structured answers with room for more concrete detail.",
  "strengths": ["Structured answers", "Relevant experience"],
  "areas_for_improvement": ["Quantify impact", "Reduce filler words"],
  "question_feedback": [],
  "recommended_next_steps": ["Practice STAR-format stories"]
}`

// NewMockLLM returns a mock that cycles through a fixed set of questions and
// always scores the same.
func NewMockLLM() *MockLLM {
	return &MockLLM{
		questions: defaultMockQuestions,
		scoreJSON: defaultMockScore,
	}
}

// Generate returns the next scripted question.
func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	q := m.questions[m.asked%len(m.questions)]
	m.asked++
	if n := questionNumber(prompt); n > 0 {
		q = fmt.Sprintf("%s (question %d)", q, n)
	}
	return q, nil
}

// GenerateJSON returns the scripted score document.
func (m *MockLLM) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.scoreJSON, nil
}

var fillerPattern = regexp.MustCompile(`(?i)\b(um+|uh+|erm|you know)\b`)

// Analyze reports a neutral observation, flagging filler words found in the transcript.
func (m *MockLLM) Analyze(ctx context.Context, input repositories.BehaviorInput) (repositories.BehaviorAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return repositories.BehaviorAnalysis{}, err
	}

	analysis := repositories.BehaviorAnalysis{
		BodyLanguageNotes:    "Candidate appeared engaged",
		ConfidenceIndicators: []string{"steady pace"},
		Emotion:              "calm",
		EmotionConfidence:    entities.ConfidenceMedium,
	}
	if len(input.Frames) > 0 {
		score := 0.7
		analysis.EyeContactScore = &score
	}
	if matches := fillerPattern.FindAllString(input.Transcript, -1); len(matches) > 0 {
		severity := entities.SeverityMinor
		if len(matches) > 3 {
			severity = entities.SeverityModerate
		}
		analysis.CommunicationIssues = append(analysis.CommunicationIssues, entities.CommunicationIssue{
			Kind:     entities.IssueFillerWords,
			Severity: severity,
			Context:  strings.Join(matches, ", "),
		})
	}
	return analysis, nil
}

var questionNumberPattern = regexp.MustCompile(`question (\d+) of \d+`)

// questionNumber extracts N from an "ask question N of M" instruction.
func questionNumber(prompt string) int {
	match := questionNumberPattern.FindStringSubmatch(prompt)
	if match == nil {
		return 0
	}
	n, _ := strconv.Atoi(match[1])
	return n
}
