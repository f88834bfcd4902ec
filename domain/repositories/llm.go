package repositories

import "context"

// ReasoningModel abstracts the external language model that asks questions
// and scores transcripts. Implementations are shared by every session and
// must be safe for concurrent use.
type ReasoningModel interface {
	// Generate takes a prompt and returns the model's free-text reply.
	Generate(ctx context.Context, prompt string) (string, error)
	// GenerateJSON takes a prompt and returns the model's reply, asking the
	// provider for a JSON document. Callers must still validate the result.
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}
