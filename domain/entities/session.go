package entities

import (
	"iter"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultMaxTurns is the number of answered questions after which an interview ends.
	DefaultMaxTurns = 5

	// NeutralEyeContact is reported when no behavioral observation exists, so that
	// sessions without video are not scored as if the candidate looked away.
	NeutralEyeContact = 0.5

	// recentNotesLimit bounds the body-language notes carried in a summary.
	recentNotesLimit = 5

	// Per-turn media buffers are bounded; older data is dropped first.
	maxTurnAudioBytes  = 8 << 20
	maxTurnVideoFrames = 32
)

// Turn is one question/answer exchange.
type Turn struct {
	Question         string     `json:"question"`
	AnswerTranscript string     `json:"answer"`
	AudioDurationSec float64    `json:"duration_sec"`
	VideoFramesCount int        `json:"video_frames_count"`
	BehavioralNotes  []string   `json:"behavioral_notes"`
	StartedAt        time.Time  `json:"started_at"`
	EndedAt          *time.Time `json:"ended_at,omitempty"`
}

// ResponseInterval returns the time between the question being asked and the
// turn being closed. The second value is false while the turn is still open.
func (t Turn) ResponseInterval() (time.Duration, bool) {
	if t.EndedAt == nil {
		return 0, false
	}
	return t.EndedAt.Sub(t.StartedAt), true
}

func (t Turn) clone() Turn {
	c := t
	c.BehavioralNotes = append([]string(nil), t.BehavioralNotes...)
	if t.EndedAt != nil {
		ended := *t.EndedAt
		c.EndedAt = &ended
	}
	return c
}

// BehavioralObservation is a snapshot produced by analyzing video or audio cues.
type BehavioralObservation struct {
	Timestamp            time.Time `json:"timestamp"`
	EyeContactScore      float64   `json:"eye_contact_score"`
	BodyLanguageNotes    string    `json:"body_language_notes"`
	ConfidenceIndicators []string  `json:"confidence_indicators"`
}

// SessionLog is the append-only evidence trail of one interview. All methods
// are safe for concurrent use; behavioral analysis results arrive from
// goroutines other than the one driving the interview.
type SessionLog struct {
	mu sync.Mutex

	sessionID  string
	targetRole string
	userName   string
	createdAt  time.Time

	turns        []Turn
	current      *Turn
	observations []BehavioralObservation
	issues       []CommunicationIssue
	emotions     []EmotionSnapshot

	audioBuffer []byte
	videoFrames [][]byte

	now func() time.Time
}

// NewSessionLog creates an empty log for a session.
func NewSessionLog(sessionID, targetRole, userName string) *SessionLog {
	return NewSessionLogWithClock(sessionID, targetRole, userName, time.Now)
}

// NewSessionLogWithClock is NewSessionLog with an injectable time source.
func NewSessionLogWithClock(sessionID, targetRole, userName string, now func() time.Time) *SessionLog {
	if now == nil {
		now = time.Now
	}
	return &SessionLog{
		sessionID:  sessionID,
		targetRole: targetRole,
		userName:   userName,
		createdAt:  now(),
		now:        now,
	}
}

// SessionID returns the identifier of the session the log belongs to.
func (l *SessionLog) SessionID() string { return l.sessionID }

// TargetRole returns the role the candidate is interviewing for.
func (l *SessionLog) TargetRole() string { return l.targetRole }

// UserName returns the candidate display name.
func (l *SessionLog) UserName() string { return l.userName }

// StartTurn opens a new turn for question, closing any turn that is still open.
func (l *SessionLog) StartTurn(question string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current != nil {
		l.endTurnLocked()
	}
	l.current = &Turn{
		Question:        question,
		BehavioralNotes: []string{},
		StartedAt:       l.now(),
	}
}

// AppendTranscript concatenates text onto the open turn's answer. It is a
// no-op when no turn is open.
func (l *SessionLog) AppendTranscript(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return
	}
	l.current.AnswerTranscript += text
}

// AppendAudioChunk buffers audio for the open turn and accumulates its
// duration. It is a no-op when no turn is open.
func (l *SessionLog) AppendAudioChunk(data []byte, durationSec float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return
	}
	if durationSec > 0 && !math.IsInf(durationSec, 0) {
		l.current.AudioDurationSec += durationSec
	}
	l.audioBuffer = append(l.audioBuffer, data...)
	if over := len(l.audioBuffer) - maxTurnAudioBytes; over > 0 {
		l.audioBuffer = append([]byte(nil), l.audioBuffer[over:]...)
	}
}

// AppendVideoFrame buffers a frame for the open turn and counts it. It is a
// no-op when no turn is open.
func (l *SessionLog) AppendVideoFrame(frame []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return
	}
	l.current.VideoFramesCount++
	l.videoFrames = append(l.videoFrames, frame)
	if over := len(l.videoFrames) - maxTurnVideoFrames; over > 0 {
		l.videoFrames = append([][]byte(nil), l.videoFrames[over:]...)
	}
}

// AddBehavioralObservation records an observation. Scores outside [0,1] are
// clamped; NaN is recorded as the neutral score. When a turn is open the notes
// are also attached to it.
func (l *SessionLog) AddBehavioralObservation(eyeContactScore float64, notes string, indicators []string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.observations = append(l.observations, BehavioralObservation{
		Timestamp:            l.now(),
		EyeContactScore:      ClampUnit(eyeContactScore),
		BodyLanguageNotes:    notes,
		ConfidenceIndicators: append([]string{}, indicators...),
	})
	if l.current != nil {
		l.current.BehavioralNotes = append(l.current.BehavioralNotes, notes)
	}
}

// AddCommunicationIssue records a live communication issue.
func (l *SessionLog) AddCommunicationIssue(kind IssueKind, severity IssueSeverity, context string) CommunicationIssue {
	l.mu.Lock()
	defer l.mu.Unlock()

	issue := CommunicationIssue{
		Timestamp: l.now(),
		Kind:      kind,
		Severity:  severity,
		Context:   context,
	}
	l.issues = append(l.issues, issue)
	return issue
}

// AddEmotionSnapshot records the emotion detected at the current time.
func (l *SessionLog) AddEmotionSnapshot(emotion string, confidence ConfidenceLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !confidence.Valid() {
		confidence = ConfidenceMedium
	}
	l.emotions = append(l.emotions, EmotionSnapshot{
		Timestamp:       l.now(),
		Emotion:         emotion,
		ConfidenceLevel: confidence,
	})
}

// EndTurn closes the open turn and clears the per-turn media buffers. It is a
// no-op when no turn is open.
func (l *SessionLog) EndTurn() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.endTurnLocked()
}

func (l *SessionLog) endTurnLocked() {
	if l.current == nil {
		return
	}
	ended := l.now()
	l.current.EndedAt = &ended
	l.turns = append(l.turns, *l.current)
	l.current = nil
	l.audioBuffer = nil
	l.videoFrames = nil
}

// HasOpenTurn reports whether a turn is waiting for its answer.
func (l *SessionLog) HasOpenTurn() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current != nil
}

// ClosedTurns returns the number of closed turns.
func (l *SessionLog) ClosedTurns() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.turns)
}

// TurnCount returns closed turns plus the open one, if any.
func (l *SessionLog) TurnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.turns)
	if l.current != nil {
		n++
	}
	return n
}

// OpenTurnMedia returns copies of the audio and frames buffered for the open turn.
func (l *SessionLog) OpenTurnMedia() (audio []byte, frames [][]byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	audio = append([]byte(nil), l.audioBuffer...)
	frames = make([][]byte, len(l.videoFrames))
	copy(frames, l.videoFrames)
	return audio, frames
}

// OpenTurnQuestion returns the question of the open turn.
func (l *SessionLog) OpenTurnQuestion() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil {
		return "", false
	}
	return l.current.Question, true
}

// Turns returns a copy of the closed turns in order.
func (l *SessionLog) Turns() []Turn {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.turnsLocked()
}

func (l *SessionLog) turnsLocked() []Turn {
	out := make([]Turn, len(l.turns))
	for i, t := range l.turns {
		out[i] = t.clone()
	}
	return out
}

// TranscriptLines yields the transcript of the closed turns as it stood when
// the sequence was created. Each turn contributes "Q{n}: ...", "A{n}: ..." and
// an empty separator line. The sequence can be ranged over any number of times.
func (l *SessionLog) TranscriptLines() iter.Seq[string] {
	turns := l.Turns()
	return transcriptLines(turns)
}

func transcriptLines(turns []Turn) iter.Seq[string] {
	return func(yield func(string) bool) {
		for i, t := range turns {
			n := strconv.Itoa(i + 1)
			if !yield("Q" + n + ": " + t.Question) {
				return
			}
			if !yield("A" + n + ": " + t.AnswerTranscript) {
				return
			}
			if !yield("") {
				return
			}
		}
	}
}

// FullTranscript renders all closed turns as newline-joined transcript lines.
func (l *SessionLog) FullTranscript() string {
	return renderTranscript(l.Turns())
}

func renderTranscript(turns []Turn) string {
	var lines []string
	for line := range transcriptLines(turns) {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// BehavioralSummary aggregates the observations recorded so far.
func (l *SessionLog) BehavioralSummary() BehavioralSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return summarize(l.observations)
}

func summarize(observations []BehavioralObservation) BehavioralSummary {
	summary := BehavioralSummary{
		AvgEyeContact:        NeutralEyeContact,
		TotalObservations:    len(observations),
		ConfidenceIndicators: []string{},
		Notes:                []string{},
	}
	if len(observations) == 0 {
		return summary
	}

	var total float64
	seen := make(map[string]struct{})
	for _, o := range observations {
		total += o.EyeContactScore
		for _, tag := range o.ConfidenceIndicators {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			summary.ConfidenceIndicators = append(summary.ConfidenceIndicators, tag)
		}
	}
	summary.AvgEyeContact = total / float64(len(observations))

	start := len(observations) - recentNotesLimit
	if start < 0 {
		start = 0
	}
	for _, o := range observations[start:] {
		summary.Notes = append(summary.Notes, o.BodyLanguageNotes)
	}
	return summary
}

// Export returns a structured snapshot of the log. It does not modify the log.
func (l *SessionLog) Export() SessionExport {
	l.mu.Lock()
	defer l.mu.Unlock()

	turns := l.turnsLocked()
	var totalDuration float64
	for _, t := range turns {
		totalDuration += t.AudioDurationSec
	}

	return SessionExport{
		SessionID:           l.sessionID,
		TargetRole:          l.targetRole,
		UserName:            l.userName,
		CreatedAt:           l.createdAt,
		TotalTurns:          len(turns),
		TotalDurationSec:    totalDuration,
		Transcript:          renderTranscript(turns),
		BehavioralSummary:   summarize(l.observations),
		Turns:               turns,
		CommunicationIssues: append([]CommunicationIssue{}, l.issues...),
		EmotionTimeline:     append([]EmotionSnapshot{}, l.emotions...),
		VideoFramesCaptured: len(l.videoFrames),
	}
}

// ClampUnit limits v to [0,1]; NaN maps to the neutral eye-contact score.
func ClampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return NeutralEyeContact
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
