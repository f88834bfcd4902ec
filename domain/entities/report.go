package entities

import "math"

// Fixed scoring policy. It is not configurable per session.
const (
	ContentWeight    = 0.70
	BehavioralWeight = 0.30

	// NeutralScore is used for component scores the reasoning model did not provide.
	NeutralScore = 50.0
)

// ScoreReport is the final, immutable result of an interview.
type ScoreReport struct {
	ContentScore         float64            `json:"content_score"`
	BehavioralScore      float64            `json:"behavioral_score"`
	FinalScore           float64            `json:"final_score"`
	WeightBreakdown      WeightBreakdown    `json:"weight_breakdown"`
	OverallImpression    string             `json:"overall_impression"`
	Strengths            []string           `json:"strengths"`
	AreasForImprovement  []string           `json:"areas_for_improvement"`
	QuestionFeedback     []QuestionFeedback `json:"question_feedback"`
	RecommendedNextSteps []string           `json:"recommended_next_steps"`

	// ParseFailed is set when the reasoning model's answer could not be read
	// and neutral scores were substituted.
	ParseFailed bool `json:"parse_failed,omitempty"`
	// Error carries the diagnostic when the reasoning model could not be reached.
	Error string `json:"error,omitempty"`
}

// WeightBreakdown explains how each component contributed to the final score.
type WeightBreakdown struct {
	Content    ComponentWeight `json:"content"`
	Behavioral ComponentWeight `json:"behavioral"`
}

// ComponentWeight is one row of a WeightBreakdown.
type ComponentWeight struct {
	Score        float64 `json:"score"`
	Weight       string  `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// QuestionFeedback is the per-question assessment.
type QuestionFeedback struct {
	Question string  `json:"question"`
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// NewScoreReport builds a report from the two component scores, computing the
// final score and breakdown with the fixed weights. Scores are clamped to [0,100].
func NewScoreReport(contentScore, behavioralScore float64) ScoreReport {
	content := ClampScore(contentScore)
	behavioral := ClampScore(behavioralScore)

	return ScoreReport{
		ContentScore:    content,
		BehavioralScore: behavioral,
		FinalScore:      FinalScore(content, behavioral),
		WeightBreakdown: WeightBreakdown{
			Content: ComponentWeight{
				Score:        content,
				Weight:       "70%",
				Contribution: Round1(content * ContentWeight),
			},
			Behavioral: ComponentWeight{
				Score:        behavioral,
				Weight:       "30%",
				Contribution: Round1(behavioral * BehavioralWeight),
			},
		},
		Strengths:            []string{},
		AreasForImprovement:  []string{},
		QuestionFeedback:     []QuestionFeedback{},
		RecommendedNextSteps: []string{},
	}
}

// FailedScoreReport is the zero-score report returned when scoring could not run.
func FailedScoreReport(diagnostic string) ScoreReport {
	report := NewScoreReport(0, 0)
	report.Error = diagnostic
	report.OverallImpression = "Report generation failed: " + diagnostic
	return report
}

// FinalScore applies the 70/30 weighting, rounded to one decimal.
func FinalScore(contentScore, behavioralScore float64) float64 {
	return Round1(contentScore*ContentWeight + behavioralScore*BehavioralWeight)
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ClampScore limits v to [0,100]; NaN becomes the neutral score.
func ClampScore(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return NeutralScore
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
