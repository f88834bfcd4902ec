package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nextstep-labs/interview-server/domain/entities"
	"github.com/nextstep-labs/interview-server/domain/repositories"
	"github.com/nextstep-labs/interview-server/internal/llmjson"
	"github.com/nextstep-labs/interview-server/internal/metrics"
)

// parseFailedImpression is reported when the model's reply could not be read.
const parseFailedImpression = "Unable to parse detailed feedback."

// Scorer turns a finished session into a ScoreReport. It asks the reasoning
// model for the two component scores and narrative feedback, then applies the
// fixed 70/30 weighting itself.
type Scorer struct {
	model   repositories.ReasoningModel
	timeout time.Duration
	logger  *zap.Logger
}

// NewScorer creates a scorer. A zero timeout means the caller's context is the only bound.
func NewScorer(model repositories.ReasoningModel, timeout time.Duration, logger *zap.Logger) *Scorer {
	return &Scorer{
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

// Score calls the reasoning model exactly once. It never fails: an unreachable
// model yields a zero-score report carrying the diagnostic, and an unreadable
// reply yields neutral scores marked as a parse failure.
func (s *Scorer) Score(ctx context.Context, export entities.SessionExport) entities.ScoreReport {
	logger := s.logger.With(zap.String("sessionID", export.SessionID))

	if s.model == nil {
		metrics.Reports().WithLabelValues(metrics.OutcomeFailed).Inc()
		return entities.FailedScoreReport(ErrNotConfigured.Error())
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	reply, err := s.model.GenerateJSON(ctx, scoringPrompt(export))
	if err != nil {
		logger.Warn("Scoring call failed", zap.Error(err))
		metrics.Reports().WithLabelValues(metrics.OutcomeFailed).Inc()
		return entities.FailedScoreReport(err.Error())
	}

	report, err := parseScoreReply(reply)
	if err != nil {
		logger.Warn("Could not parse scoring reply", zap.Error(err), zap.Int("replyLength", len(reply)))
		metrics.Reports().WithLabelValues(metrics.OutcomeParseFailed).Inc()
		return report
	}

	logger.Info("Report generated",
		zap.Float64("contentScore", report.ContentScore),
		zap.Float64("behavioralScore", report.BehavioralScore),
		zap.Float64("finalScore", report.FinalScore))
	metrics.Reports().WithLabelValues(metrics.OutcomeOK).Inc()
	return report
}

// scoreReply is the document the reasoning model is asked to return. Every
// field is optional. final_score is never read from the reply.
type scoreReply struct {
	ContentScore         *float64 `json:"content_score"`
	BehavioralScore      *float64 `json:"behavioral_score"`
	OverallImpression    string   `json:"overall_impression"`
	Strengths            []string `json:"strengths"`
	AreasForImprovement  []string `json:"areas_for_improvement"`
	RecommendedNextSteps []string `json:"recommended_next_steps"`
	QuestionFeedback     []struct {
		Question string   `json:"question"`
		Score    *float64 `json:"score"`
		Feedback string   `json:"feedback"`
	} `json:"question_feedback"`
}

// parseScoreReply maps a reply onto a report. Missing component scores fall
// back to the neutral score. On a decode error the returned report is the
// neutral parse-failure report.
func parseScoreReply(reply string) (entities.ScoreReport, error) {
	var payload scoreReply
	if err := llmjson.Unmarshal(reply, &payload); err != nil {
		report := entities.NewScoreReport(entities.NeutralScore, entities.NeutralScore)
		report.ParseFailed = true
		report.OverallImpression = parseFailedImpression
		return report, err
	}

	content := entities.NeutralScore
	if payload.ContentScore != nil {
		content = *payload.ContentScore
	}
	behavioral := entities.NeutralScore
	if payload.BehavioralScore != nil {
		behavioral = *payload.BehavioralScore
	}

	report := entities.NewScoreReport(content, behavioral)
	report.OverallImpression = strings.TrimSpace(payload.OverallImpression)
	report.Strengths = nonNil(payload.Strengths)
	report.AreasForImprovement = nonNil(payload.AreasForImprovement)
	report.RecommendedNextSteps = nonNil(payload.RecommendedNextSteps)
	for _, qf := range payload.QuestionFeedback {
		score := entities.NeutralScore
		if qf.Score != nil {
			score = entities.ClampScore(*qf.Score)
		}
		report.QuestionFeedback = append(report.QuestionFeedback, entities.QuestionFeedback{
			Question: qf.Question,
			Score:    score,
			Feedback: qf.Feedback,
		})
	}
	return report, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func scoringPrompt(export entities.SessionExport) string {
	summary := export.BehavioralSummary

	indicators := "none observed"
	if len(summary.ConfidenceIndicators) > 0 {
		indicators = strings.Join(summary.ConfidenceIndicators, ", ")
	}
	notes := "none"
	if len(summary.Notes) > 0 {
		notes = strings.Join(summary.Notes, "; ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an experienced interview coach assessing a mock interview for a %s role.\n\n", export.TargetRole)
	b.WriteString("## TRANSCRIPT\n")
	b.WriteString(export.Transcript)
	b.WriteString("\n## BEHAVIORAL SIGNALS\n")
	fmt.Fprintf(&b, "- Mean eye contact: %.2f out of 1.0 (%d observations)\n", summary.AvgEyeContact, summary.TotalObservations)
	fmt.Fprintf(&b, "- Confidence indicators: %s\n", indicators)
	fmt.Fprintf(&b, "- Recent notes: %s\n", notes)
	b.WriteString(`
## TASK
Assess the interview and reply with one JSON object:
{
  "content_score": <0-100: quality, structure, relevance and depth of the answers>,
  "behavioral_score": <0-100: delivery, eye contact, confidence and tone>,
  "overall_impression": "<two or three sentences>",
  "strengths": ["<strength>", ...],
  "areas_for_improvement": ["<area>", ...],
  "question_feedback": [{"question": "<question>", "score": <0-100>, "feedback": "<specific feedback>"}, ...],
  "recommended_next_steps": ["<action>", ...]
}

Content carries 70% of the final score and behavior 30%. Very short or empty
answers should score low on content. Return only the JSON object.`)
	return b.String()
}
