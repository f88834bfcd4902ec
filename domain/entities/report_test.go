package entities

import (
	"math"
	"testing"
)

func TestFinalScoreWeighting(t *testing.T) {
	for content := 0.0; content <= 100; content += 7.5 {
		for behavioral := 0.0; behavioral <= 100; behavioral += 12.5 {
			want := math.Round((content*0.7+behavioral*0.3)*10) / 10
			report := NewScoreReport(content, behavioral)
			if report.FinalScore != want {
				t.Errorf("content=%v behavioral=%v: expected %v, got %v", content, behavioral, want, report.FinalScore)
			}
		}
	}
}

func TestNewScoreReportBreakdown(t *testing.T) {
	report := NewScoreReport(80, 60)

	if report.FinalScore != 74 {
		t.Errorf("Expected final score 74, got %v", report.FinalScore)
	}
	if report.WeightBreakdown.Content.Contribution != 56 {
		t.Errorf("Expected content contribution 56, got %v", report.WeightBreakdown.Content.Contribution)
	}
	if report.WeightBreakdown.Behavioral.Contribution != 18 {
		t.Errorf("Expected behavioral contribution 18, got %v", report.WeightBreakdown.Behavioral.Contribution)
	}
	if report.WeightBreakdown.Content.Weight != "70%" || report.WeightBreakdown.Behavioral.Weight != "30%" {
		t.Error("Unexpected weight labels")
	}
}

func TestNewScoreReportClampsScores(t *testing.T) {
	report := NewScoreReport(140, -5)
	if report.ContentScore != 100 || report.BehavioralScore != 0 {
		t.Errorf("Expected clamped scores 100/0, got %v/%v", report.ContentScore, report.BehavioralScore)
	}
	if report.FinalScore != 70 {
		t.Errorf("Expected final score 70, got %v", report.FinalScore)
	}

	report = NewScoreReport(math.NaN(), 50)
	if report.ContentScore != NeutralScore {
		t.Errorf("Expected NaN to become the neutral score, got %v", report.ContentScore)
	}
}

func TestFailedScoreReport(t *testing.T) {
	report := FailedScoreReport("quota exceeded")

	if report.FinalScore != 0 || report.ContentScore != 0 || report.BehavioralScore != 0 {
		t.Error("Expected zero scores")
	}
	if report.Error != "quota exceeded" {
		t.Errorf("Expected diagnostic, got %q", report.Error)
	}
	if report.Strengths == nil || report.QuestionFeedback == nil {
		t.Error("Expected empty, non-nil lists")
	}
}
