package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nextstep-labs/interview-server/domain/entities"
	"github.com/nextstep-labs/interview-server/domain/repositories"
	"github.com/nextstep-labs/interview-server/internal/metrics"
)

// ErrBusy is returned when a command arrives while another one for the same
// interview is still running.
var ErrBusy = errors.New("interview is busy with a previous message")

// State is the lifecycle position of an interview.
type State int

const (
	StateCreated State = iota
	StateActive
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateActive:
		return "active"
	case StateEnded:
		return "ended"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Question is a prompt delivered to the candidate.
type Question struct {
	Text       string
	TurnNumber int
	IsFinal    bool
}

// MediaKind distinguishes the media samples that accompany an answer.
type MediaKind string

const (
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
)

// MediaSample is one decoded audio chunk or video frame.
type MediaSample struct {
	Kind        MediaKind
	Data        []byte
	DurationSec float64
}

// Answer is the candidate's submission for the open question.
type Answer struct {
	Transcript string
	Media      []MediaSample
}

// Outcome is the result of an answer: either the next question or, when the
// interview reached its last turn, the final report.
type Outcome struct {
	Question *Question
	Report   *entities.ScoreReport
}

// InterviewConfig holds the per-interview policy values.
type InterviewConfig struct {
	MaxTurns        int
	QuestionTimeout time.Duration
	AnalysisTimeout time.Duration
	Audio           repositories.AudioConfig
}

// InterviewDeps are the capabilities an interview calls out to. Analyzer and
// SpeechToText are optional.
type InterviewDeps struct {
	Model        repositories.ReasoningModel
	Analyzer     repositories.BehaviorAnalyzer
	SpeechToText repositories.SpeechToText
	Scorer       *Scorer

	// CredentialKey names the setting that enables Model, for error reports.
	CredentialKey string
}

// Interview drives one session through created, active and ended. Commands
// (Start, SubmitAnswer, End, Abandon and the append methods) must be issued
// one at a time; an overlapping command fails with ErrBusy.
type Interview struct {
	log    *entities.SessionLog
	deps   InterviewDeps
	cfg    InterviewConfig
	logger *zap.Logger

	cmd sync.Mutex

	mu              sync.Mutex
	state           State
	questionPending bool
	report          *entities.ScoreReport

	analyses       sync.WaitGroup
	analysisCtx    context.Context
	cancelAnalysis context.CancelFunc
	onFeedback     func(entities.CommunicationIssue)
}

// NewInterview creates an interview in the created state around log.
func NewInterview(log *entities.SessionLog, deps InterviewDeps, cfg InterviewConfig, logger *zap.Logger) *Interview {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = entities.DefaultMaxTurns
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Interview{
		log:            log,
		deps:           deps,
		cfg:            cfg,
		logger:         logger.With(zap.String("sessionID", log.SessionID())),
		state:          StateCreated,
		analysisCtx:    ctx,
		cancelAnalysis: cancel,
	}
}

// ID returns the session identifier.
func (i *Interview) ID() string { return i.log.SessionID() }

// Log returns the session log.
func (i *Interview) Log() *entities.SessionLog { return i.log }

// MaxTurns returns the number of answers after which the interview ends.
func (i *Interview) MaxTurns() int { return i.cfg.MaxTurns }

// State returns the current lifecycle state.
func (i *Interview) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Report returns the final report once the interview has produced one.
func (i *Interview) Report() (entities.ScoreReport, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.report == nil {
		return entities.ScoreReport{}, false
	}
	return *i.report, true
}

// OnFeedback registers fn to receive communication issues as behavioral
// analysis finds them. fn is called from analysis goroutines.
func (i *Interview) OnFeedback(fn func(entities.CommunicationIssue)) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.onFeedback = fn
}

func (i *Interview) setState(s State) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state = s
}

// Start moves the interview to active by asking the opening question.
// When the model fails the interview stays created and Start may be retried.
func (i *Interview) Start(ctx context.Context) (Question, error) {
	if !i.cmd.TryLock() {
		return Question{}, ErrBusy
	}
	defer i.cmd.Unlock()

	switch i.State() {
	case StateActive:
		return Question{}, ErrAlreadyStarted
	case StateEnded:
		return Question{}, ErrSessionEnded
	}

	text, err := i.ask(ctx, openingPrompt(i.log.TargetRole(), i.log.UserName(), i.cfg.MaxTurns))
	if err != nil {
		return Question{}, &CapabilityError{Op: "opening question", Err: err}
	}

	i.log.StartTurn(text)
	i.setState(StateActive)
	i.logger.Info("Interview started", zap.String("role", i.log.TargetRole()))

	return Question{Text: text, TurnNumber: 1, IsFinal: i.cfg.MaxTurns == 1}, nil
}

// SubmitAnswer logs the answer to the open question, closes the turn and
// either asks the next question or, after the last turn, ends the interview.
// Empty answers are accepted as-is.
//
// If generating the next question fails, the answer stays logged and a
// CapabilityError carrying retryQuestionDetail is returned. The following
// SubmitAnswer call then only retries the question, ignoring its own answer.
func (i *Interview) SubmitAnswer(ctx context.Context, answer Answer) (Outcome, error) {
	if !i.cmd.TryLock() {
		return Outcome{}, ErrBusy
	}
	defer i.cmd.Unlock()

	if err := i.requireActive(); err != nil {
		return Outcome{}, err
	}

	i.mu.Lock()
	pending := i.questionPending
	i.mu.Unlock()
	if pending {
		if strings.TrimSpace(answer.Transcript) != "" || len(answer.Media) > 0 {
			i.logger.Info("Ignoring answer sent while retrying the next question",
				zap.Int("transcriptLength", len(answer.Transcript)),
				zap.Int("mediaSamples", len(answer.Media)))
		}
		q, err := i.nextQuestion(ctx)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Question: &q}, nil
	}

	i.appendMedia(answer.Media)
	transcript := answer.Transcript
	if strings.TrimSpace(transcript) == "" {
		transcript = i.transcribeBuffered(ctx, transcript)
	}
	i.log.AppendTranscript(transcript)

	question, _ := i.log.OpenTurnQuestion()
	audio, frames := i.log.OpenTurnMedia()
	i.log.EndTurn()
	metrics.Turns().Inc()

	closed := i.log.Turns()
	last := closed[len(closed)-1]
	if len(frames) > 0 || len(audio) > 0 {
		i.analyze(repositories.BehaviorInput{
			Role:         i.log.TargetRole(),
			Question:     question,
			Transcript:   last.AnswerTranscript,
			Frames:       frames,
			AudioSeconds: last.AudioDurationSec,
		})
	}

	i.logger.Debug("Answer logged",
		zap.Int("turnNumber", len(closed)),
		zap.Int("answerLength", len(last.AnswerTranscript)))

	if len(closed) >= i.cfg.MaxTurns {
		report := i.finish(ctx)
		return Outcome{Report: &report}, nil
	}

	q, err := i.nextQuestion(ctx)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Question: &q}, nil
}

// AppendPartial adds streamed transcript text to the open answer.
func (i *Interview) AppendPartial(text string) error {
	if !i.cmd.TryLock() {
		return ErrBusy
	}
	defer i.cmd.Unlock()

	if err := i.requireActive(); err != nil {
		return err
	}
	i.log.AppendTranscript(text)
	return nil
}

// AppendMedia buffers media samples for the open answer.
func (i *Interview) AppendMedia(samples []MediaSample) error {
	if !i.cmd.TryLock() {
		return ErrBusy
	}
	defer i.cmd.Unlock()

	if err := i.requireActive(); err != nil {
		return err
	}
	i.appendMedia(samples)
	return nil
}

// AppendAudio buffers a raw audio chunk in the configured stream encoding.
func (i *Interview) AppendAudio(data []byte) error {
	return i.AppendMedia([]MediaSample{{
		Kind:        MediaAudio,
		Data:        data,
		DurationSec: pcmDuration(len(data), i.cfg.Audio),
	}})
}

// End closes the interview on the client's request and returns its report.
// An interview that never asked a question ends with a zero-score report.
func (i *Interview) End(ctx context.Context) (entities.ScoreReport, error) {
	if !i.cmd.TryLock() {
		return entities.ScoreReport{}, ErrBusy
	}
	defer i.cmd.Unlock()

	switch i.State() {
	case StateEnded:
		return entities.ScoreReport{}, ErrSessionEnded
	case StateCreated:
		report := entities.FailedScoreReport("interview ended before any question was asked")
		i.mu.Lock()
		i.state = StateEnded
		i.report = &report
		i.mu.Unlock()
		i.cancelAnalysis()
		metrics.Reports().WithLabelValues(metrics.OutcomeFailed).Inc()
		return report, nil
	}

	return i.finish(ctx), nil
}

// Abandon ends an interview whose client went away. If at least one answer
// was logged a report is still produced and returned; otherwise the session
// is discarded and the second value is false.
func (i *Interview) Abandon(ctx context.Context) (entities.ScoreReport, bool) {
	i.cmd.Lock()
	defer i.cmd.Unlock()

	if i.State() == StateEnded {
		return entities.ScoreReport{}, false
	}

	if i.log.ClosedTurns() == 0 {
		i.setState(StateEnded)
		i.cancelAnalysis()
		i.logger.Info("Abandoned interview discarded without answers")
		return entities.ScoreReport{}, false
	}

	report := i.finish(ctx)
	i.logger.Info("Abandoned interview scored",
		zap.Float64("finalScore", report.FinalScore),
		zap.String("error", report.Error))
	return report, true
}

// finish performs the transition to ended: close the open turn, let pending
// analyses land, and score exactly once.
func (i *Interview) finish(ctx context.Context) entities.ScoreReport {
	i.log.EndTurn()
	i.setState(StateEnded)
	i.waitForAnalyses(i.cfg.AnalysisTimeout)

	report := i.deps.Scorer.Score(ctx, i.log.Export())

	i.mu.Lock()
	i.report = &report
	i.mu.Unlock()

	i.logger.Info("Interview ended",
		zap.Int("turns", i.log.ClosedTurns()),
		zap.Float64("finalScore", report.FinalScore))
	return report
}

const retryQuestionDetail = "your answer was saved; send turn again to retry the question, its transcript and media will not be recorded"

func (i *Interview) nextQuestion(ctx context.Context) (Question, error) {
	n := i.log.ClosedTurns() + 1
	isFinal := n == i.cfg.MaxTurns

	prompt := followUpPrompt(i.log.TargetRole(), i.log.UserName(), i.log.FullTranscript(), n, i.cfg.MaxTurns)
	text, err := i.ask(ctx, prompt)
	if err != nil {
		i.mu.Lock()
		i.questionPending = true
		i.mu.Unlock()
		i.logger.Warn("Failed to generate next question", zap.Int("turnNumber", n), zap.Error(err))
		return Question{}, &CapabilityError{Op: "next question", Err: err, Detail: retryQuestionDetail}
	}

	i.mu.Lock()
	i.questionPending = false
	i.mu.Unlock()

	i.log.StartTurn(text)
	return Question{Text: text, TurnNumber: n, IsFinal: isFinal}, nil
}

// ask calls the reasoning model under the question timeout.
func (i *Interview) ask(ctx context.Context, prompt string) (string, error) {
	if i.deps.Model == nil {
		return "", ErrNotConfigured
	}
	if i.cfg.QuestionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.cfg.QuestionTimeout)
		defer cancel()
	}

	text, err := i.deps.Model.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("model returned an empty question")
	}
	return text, nil
}

func (i *Interview) requireActive() error {
	switch i.State() {
	case StateCreated:
		return ErrNotStarted
	case StateEnded:
		return ErrSessionEnded
	}
	return nil
}

func (i *Interview) appendMedia(samples []MediaSample) {
	for _, s := range samples {
		switch s.Kind {
		case MediaAudio:
			i.log.AppendAudioChunk(s.Data, s.DurationSec)
		case MediaVideo:
			i.log.AppendVideoFrame(s.Data)
		}
	}
}

// transcribeBuffered converts the open turn's audio to text when the client
// sent no transcript. Failures keep the original, empty answer.
func (i *Interview) transcribeBuffered(ctx context.Context, fallback string) string {
	if i.deps.SpeechToText == nil {
		return fallback
	}
	audio, _ := i.log.OpenTurnMedia()
	if len(audio) == 0 {
		return fallback
	}

	if i.cfg.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.cfg.AnalysisTimeout)
		defer cancel()
	}

	text, err := i.deps.SpeechToText.TranscribeAudio(ctx, audio, i.cfg.Audio)
	if err != nil {
		i.logger.Warn("Speech-to-text failed, keeping empty answer", zap.Error(err))
		return fallback
	}
	return text
}

// analyze runs behavioral analysis in the background. Its failures are only logged.
func (i *Interview) analyze(input repositories.BehaviorInput) {
	if i.deps.Analyzer == nil {
		return
	}

	i.analyses.Add(1)
	go func() {
		defer i.analyses.Done()

		ctx := i.analysisCtx
		if i.cfg.AnalysisTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, i.cfg.AnalysisTimeout)
			defer cancel()
		}

		analysis, err := i.deps.Analyzer.Analyze(ctx, input)
		if err != nil {
			i.logger.Warn("Behavioral analysis failed", zap.Error(err))
			return
		}
		i.recordAnalysis(analysis)
	}()
}

func (i *Interview) recordAnalysis(analysis repositories.BehaviorAnalysis) {
	if analysis.EyeContactScore != nil {
		i.log.AddBehavioralObservation(*analysis.EyeContactScore, analysis.BodyLanguageNotes, analysis.ConfidenceIndicators)
	}
	if analysis.Emotion != "" {
		i.log.AddEmotionSnapshot(analysis.Emotion, analysis.EmotionConfidence)
	}

	i.mu.Lock()
	notify := i.onFeedback
	i.mu.Unlock()

	for _, issue := range analysis.CommunicationIssues {
		recorded := i.log.AddCommunicationIssue(issue.Kind, issue.Severity, issue.Context)
		if notify != nil {
			notify(recorded)
		}
	}
}

// waitForAnalyses waits up to limit for in-flight analyses, then cancels the rest.
func (i *Interview) waitForAnalyses(limit time.Duration) {
	defer i.cancelAnalysis()

	done := make(chan struct{})
	go func() {
		i.analyses.Wait()
		close(done)
	}()

	if limit <= 0 {
		<-done
		return
	}

	timer := time.NewTimer(limit)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		i.logger.Warn("Behavioral analysis still running at interview end; cancelling")
	}
}

// pcmDuration estimates the length of 16-bit mono PCM audio.
func pcmDuration(size int, audio repositories.AudioConfig) float64 {
	if audio.SampleRate <= 0 {
		return 0
	}
	switch strings.ToUpper(audio.Encoding) {
	case "LINEAR16", "PCM", "":
		return float64(size) / float64(2*audio.SampleRate)
	}
	return 0
}

func openingPrompt(role, userName string, maxTurns int) string {
	var b strings.Builder
	b.WriteString(PersonaInstructions(role))
	b.WriteString("\n\n")
	if userName != "" {
		fmt.Fprintf(&b, "The candidate's name is %s. ", userName)
	}
	fmt.Fprintf(&b, "Conduct a professional interview with %d questions.\n\n", maxTurns)
	b.WriteString("Please begin the interview with a warm introduction and your first question.")
	return b.String()
}

func followUpPrompt(role, userName, transcript string, n, maxTurns int) string {
	var b strings.Builder
	b.WriteString(PersonaInstructions(role))
	b.WriteString("\n\n")
	if userName != "" {
		fmt.Fprintf(&b, "The candidate's name is %s.\n\n", userName)
	}
	b.WriteString("## CONVERSATION SO FAR\n")
	b.WriteString(transcript)
	fmt.Fprintf(&b, "\nBriefly acknowledge the candidate's last answer in one sentence, then ask question %d of %d.", n, maxTurns)
	if n == maxTurns {
		b.WriteString(" This is the final question of the interview.")
	}
	b.WriteString(" Ask exactly one question and reply only with what you would say aloud.")
	return b.String()
}
