package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nextstep-labs/interview-server/domain/repositories"
)

// fakeModel is a scriptable ReasoningModel that records every prompt.
type fakeModel struct {
	mu          sync.Mutex
	prompts     []string
	jsonPrompts []string

	generate     func(ctx context.Context, prompt string) (string, error)
	generateJSON func(ctx context.Context, prompt string) (string, error)
}

func newFakeModel() *fakeModel {
	f := &fakeModel{}
	f.generate = func(ctx context.Context, prompt string) (string, error) {
		f.mu.Lock()
		n := len(f.prompts)
		f.mu.Unlock()
		return fmt.Sprintf("Question %d?", n), nil
	}
	f.generateJSON = func(ctx context.Context, prompt string) (string, error) {
		return `{"content_score": 80, "behavioral_score": 60, "final_score": 12}`, nil
	}
	return f
}

func (f *fakeModel) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	fn := f.generate
	f.mu.Unlock()
	return fn(ctx, prompt)
}

func (f *fakeModel) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.jsonPrompts = append(f.jsonPrompts, prompt)
	fn := f.generateJSON
	f.mu.Unlock()
	return fn(ctx, prompt)
}

func (f *fakeModel) promptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeModel) scoringCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jsonPrompts)
}

func (f *fakeModel) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prompts[len(f.prompts)-1]
}

func (f *fakeModel) setGenerate(fn func(ctx context.Context, prompt string) (string, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generate = fn
}

// fakeAnalyzer returns a fixed analysis, or an error, after an optional delay.
type fakeAnalyzer struct {
	mu       sync.Mutex
	calls    []repositories.BehaviorInput
	analysis repositories.BehaviorAnalysis
	err      error
	delay    time.Duration
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, input repositories.BehaviorInput) (repositories.BehaviorAnalysis, error) {
	f.mu.Lock()
	f.calls = append(f.calls, input)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return repositories.BehaviorAnalysis{}, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return repositories.BehaviorAnalysis{}, f.err
	}
	return f.analysis, nil
}

func (f *fakeAnalyzer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeSpeech returns a fixed transcript or error.
type fakeSpeech struct {
	text string
	err  error
}

func (f fakeSpeech) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	return f.text, f.err
}

func eyeContact(v float64) *float64 { return &v }
