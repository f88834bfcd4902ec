package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextstep-labs/interview-server/domain/entities"
	"github.com/nextstep-labs/interview-server/domain/repositories"
)

func TestMockLLMGenerate(t *testing.T) {
	m := NewMockLLM()
	ctx := context.Background()

	first, err := m.Generate(ctx, "Please begin the interview.")
	require.NoError(t, err)
	assert.Equal(t, defaultMockQuestions[0], first)

	second, err := m.Generate(ctx, "Now ask question 2 of 5.")
	require.NoError(t, err)
	assert.Contains(t, second, "(question 2)")
}

func TestMockLLMHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMockLLM().Generate(ctx, "anything")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockLLMAnalyze(t *testing.T) {
	m := NewMockLLM()

	analysis, err := m.Analyze(context.Background(), repositories.BehaviorInput{
		Transcript: "Um, I think, uh, it was fine",
		Frames:     [][]byte{{0xff}},
	})
	require.NoError(t, err)
	require.NotNil(t, analysis.EyeContactScore)
	require.Len(t, analysis.CommunicationIssues, 1)
	assert.Equal(t, entities.IssueFillerWords, analysis.CommunicationIssues[0].Kind)
	assert.Equal(t, entities.SeverityMinor, analysis.CommunicationIssues[0].Severity)

	quiet, err := m.Analyze(context.Background(), repositories.BehaviorInput{Transcript: "Clear answer."})
	require.NoError(t, err)
	assert.Nil(t, quiet.EyeContactScore)
	assert.Empty(t, quiet.CommunicationIssues)
}
