package entities

import (
	"fmt"
	"math"
	"testing"
	"time"
)

// stepClock returns a clock that advances one second per call.
func stepClock() func() time.Time {
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func TestSessionLogCreation(t *testing.T) {
	log := NewSessionLog("interview-1", "Software Engineer", "John Doe")

	if log.SessionID() != "interview-1" {
		t.Errorf("Expected session ID interview-1, got %s", log.SessionID())
	}
	if log.TargetRole() != "Software Engineer" {
		t.Errorf("Expected role Software Engineer, got %s", log.TargetRole())
	}
	if log.UserName() != "John Doe" {
		t.Errorf("Expected user John Doe, got %s", log.UserName())
	}
	if log.ClosedTurns() != 0 {
		t.Errorf("Expected no turns, got %d", log.ClosedTurns())
	}
	if log.HasOpenTurn() {
		t.Error("Expected no open turn")
	}
}

func TestStartTurnAndAppendTranscript(t *testing.T) {
	log := NewSessionLog("s", "PM", "Jane")
	log.StartTurn("Question 1")
	log.AppendTranscript("My answer ")
	log.AppendTranscript("continues here.")

	question, ok := log.OpenTurnQuestion()
	if !ok || question != "Question 1" {
		t.Fatalf("Expected open turn with Question 1, got %q (%v)", question, ok)
	}

	log.EndTurn()
	turns := log.Turns()
	if len(turns) != 1 {
		t.Fatalf("Expected 1 turn, got %d", len(turns))
	}
	if turns[0].AnswerTranscript != "My answer continues here." {
		t.Errorf("Unexpected answer %q", turns[0].AnswerTranscript)
	}
	if turns[0].EndedAt == nil {
		t.Error("Expected closed turn to have an end time")
	}
}

func TestAppendWithoutOpenTurnIsNoOp(t *testing.T) {
	log := NewSessionLog("s", "PM", "Jane")
	log.AppendTranscript("lost")
	log.AppendAudioChunk([]byte{1, 2, 3}, 1.5)
	log.AppendVideoFrame([]byte{4})

	if log.ClosedTurns() != 0 || log.HasOpenTurn() {
		t.Error("Appends without an open turn must not create turns")
	}
	audio, frames := log.OpenTurnMedia()
	if len(audio) != 0 || len(frames) != 0 {
		t.Error("Appends without an open turn must not buffer media")
	}
}

func TestStartTurnClosesOpenTurn(t *testing.T) {
	log := NewSessionLog("s", "PM", "Jane")
	log.StartTurn("Q1")
	log.AppendTranscript("A1")
	log.StartTurn("Q2")

	if log.ClosedTurns() != 1 {
		t.Fatalf("Expected the first turn to be closed, got %d closed", log.ClosedTurns())
	}
	if log.TurnCount() != 2 {
		t.Errorf("Expected 2 turns including the open one, got %d", log.TurnCount())
	}
}

func TestEndTurnTwiceIsIdempotent(t *testing.T) {
	log := NewSessionLog("s", "PM", "Jane")
	log.StartTurn("Q1")
	log.EndTurn()
	log.EndTurn()

	if log.ClosedTurns() != 1 {
		t.Errorf("Expected exactly 1 closed turn, got %d", log.ClosedTurns())
	}
}

func TestFullTranscriptFormat(t *testing.T) {
	log := NewSessionLog("s", "Engineer", "Jane")
	log.StartTurn("Q one")
	log.AppendTranscript("A one")
	log.EndTurn()
	log.StartTurn("Q two")
	log.AppendTranscript("A two")
	log.EndTurn()

	want := "Q1: Q one\nA1: A one\n\nQ2: Q two\nA2: A two\n"
	if got := log.FullTranscript(); got != want {
		t.Errorf("Unexpected transcript:\n%q\nwant\n%q", got, want)
	}
}

func TestFullTranscriptIgnoresMediaInterleaving(t *testing.T) {
	plain := NewSessionLog("s", "Engineer", "Jane")
	mixed := NewSessionLog("s", "Engineer", "Jane")

	for i := 1; i <= 4; i++ {
		q := fmt.Sprintf("question %d", i)
		a := fmt.Sprintf("answer %d", i)

		plain.StartTurn(q)
		plain.AppendTranscript(a)
		plain.EndTurn()

		mixed.StartTurn(q)
		mixed.AppendAudioChunk([]byte{0, 1}, 0.25)
		mixed.AppendTranscript(a[:3])
		mixed.AppendVideoFrame([]byte{9})
		mixed.AppendTranscript(a[3:])
		mixed.AppendAudioChunk([]byte{2}, 0.25)
		mixed.EndTurn()
	}

	if plain.FullTranscript() != mixed.FullTranscript() {
		t.Errorf("Media appends changed the transcript:\n%s\nvs\n%s", plain.FullTranscript(), mixed.FullTranscript())
	}
}

func TestTranscriptLinesIsRestartable(t *testing.T) {
	log := NewSessionLog("s", "Engineer", "Jane")
	log.StartTurn("Q")
	log.AppendTranscript("A")
	log.EndTurn()

	seq := log.TranscriptLines()
	var first, second []string
	for line := range seq {
		first = append(first, line)
	}
	for line := range seq {
		second = append(second, line)
	}

	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("Expected 3 lines per pass, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Line %d differs between passes: %q vs %q", i, first[i], second[i])
		}
	}

	// Early termination must be respected.
	count := 0
	for range seq {
		count++
		break
	}
	if count != 1 {
		t.Errorf("Expected iteration to stop after 1 line, got %d", count)
	}
}

func TestMediaCountersAndBufferReset(t *testing.T) {
	log := NewSessionLog("s", "Engineer", "Jane")
	log.StartTurn("Q")
	log.AppendAudioChunk([]byte{1, 2}, 1.5)
	log.AppendAudioChunk([]byte{3}, 0.5)
	log.AppendVideoFrame([]byte{7})
	log.AppendVideoFrame([]byte{8})

	audio, frames := log.OpenTurnMedia()
	if len(audio) != 3 || len(frames) != 2 {
		t.Errorf("Expected 3 audio bytes and 2 frames, got %d and %d", len(audio), len(frames))
	}

	log.EndTurn()
	audio, frames = log.OpenTurnMedia()
	if len(audio) != 0 || len(frames) != 0 {
		t.Error("Media buffers must be cleared when the turn closes")
	}

	turn := log.Turns()[0]
	if turn.AudioDurationSec != 2.0 {
		t.Errorf("Expected 2.0s of audio, got %f", turn.AudioDurationSec)
	}
	if turn.VideoFramesCount != 2 {
		t.Errorf("Expected 2 frames, got %d", turn.VideoFramesCount)
	}
}

func TestVideoFrameBufferIsBounded(t *testing.T) {
	log := NewSessionLog("s", "Engineer", "Jane")
	log.StartTurn("Q")
	for i := 0; i < maxTurnVideoFrames+10; i++ {
		log.AppendVideoFrame([]byte{byte(i)})
	}

	_, frames := log.OpenTurnMedia()
	if len(frames) != maxTurnVideoFrames {
		t.Errorf("Expected %d buffered frames, got %d", maxTurnVideoFrames, len(frames))
	}
	if frames[len(frames)-1][0] != byte(maxTurnVideoFrames+9) {
		t.Error("Expected the newest frame to be retained")
	}

	log.EndTurn()
	if got := log.Turns()[0].VideoFramesCount; got != maxTurnVideoFrames+10 {
		t.Errorf("Frame counter must count every frame, got %d", got)
	}
}

func TestBehavioralSummaryNeutralDefault(t *testing.T) {
	log := NewSessionLog("s", "Engineer", "Jane")
	summary := log.BehavioralSummary()

	if summary.AvgEyeContact != NeutralEyeContact {
		t.Errorf("Expected neutral eye contact %v, got %v", NeutralEyeContact, summary.AvgEyeContact)
	}
	if summary.TotalObservations != 0 {
		t.Errorf("Expected 0 observations, got %d", summary.TotalObservations)
	}
	if summary.ConfidenceIndicators == nil || summary.Notes == nil {
		t.Error("Expected empty, non-nil slices")
	}
}

func TestBehavioralObservation(t *testing.T) {
	log := NewSessionLog("s", "PM", "Jane")
	log.StartTurn("Q1")
	log.AddBehavioralObservation(0.8, "Good posture, engaged", []string{"steady voice", "appropriate pauses"})
	log.AddBehavioralObservation(0.6, "Looked down briefly", []string{"steady voice"})

	summary := log.BehavioralSummary()
	if math.Abs(summary.AvgEyeContact-0.7) > 1e-9 {
		t.Errorf("Expected average 0.7, got %v", summary.AvgEyeContact)
	}
	if len(summary.ConfidenceIndicators) != 2 {
		t.Errorf("Expected deduplicated indicators, got %v", summary.ConfidenceIndicators)
	}
	if summary.ConfidenceIndicators[0] != "steady voice" {
		t.Errorf("Expected first-seen ordering, got %v", summary.ConfidenceIndicators)
	}

	log.EndTurn()
	notes := log.Turns()[0].BehavioralNotes
	if len(notes) != 2 || notes[0] != "Good posture, engaged" {
		t.Errorf("Expected notes attached to the open turn, got %v", notes)
	}
}

func TestBehavioralObservationWithoutOpenTurn(t *testing.T) {
	log := NewSessionLog("s", "PM", "Jane")
	log.AddBehavioralObservation(0.9, "note", nil)

	if log.BehavioralSummary().TotalObservations != 1 {
		t.Error("Observation must be recorded even without an open turn")
	}
}

func TestBehavioralSummaryKeepsLastFiveNotes(t *testing.T) {
	log := NewSessionLog("s", "PM", "Jane")
	for i := 1; i <= 8; i++ {
		log.AddBehavioralObservation(0.5, fmt.Sprintf("note %d", i), nil)
	}

	notes := log.BehavioralSummary().Notes
	if len(notes) != 5 {
		t.Fatalf("Expected 5 notes, got %d", len(notes))
	}
	if notes[0] != "note 4" || notes[4] != "note 8" {
		t.Errorf("Expected notes 4..8, got %v", notes)
	}
}

func TestEyeContactClamping(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{-0.3, 0},
		{1.7, 1},
		{0.42, 0.42},
		{math.NaN(), NeutralEyeContact},
	}

	for _, tc := range cases {
		log := NewSessionLog("s", "PM", "Jane")
		log.AddBehavioralObservation(tc.in, "n", nil)
		if got := log.BehavioralSummary().AvgEyeContact; got != tc.want {
			t.Errorf("Clamp(%v): expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestResponseInterval(t *testing.T) {
	log := NewSessionLogWithClock("s", "PM", "Jane", stepClock())
	log.StartTurn("Q")
	log.EndTurn()

	interval, ok := log.Turns()[0].ResponseInterval()
	if !ok {
		t.Fatal("Expected interval to be defined for a closed turn")
	}
	if interval != time.Second {
		t.Errorf("Expected 1s interval, got %v", interval)
	}

	if _, ok := (Turn{}).ResponseInterval(); ok {
		t.Error("Open turn must not have an interval")
	}
}

func TestExportIsPureSnapshot(t *testing.T) {
	log := NewSessionLog("s", "Data Scientist", "Jane")
	log.StartTurn("Q1")
	log.AppendTranscript("A1")
	log.AppendAudioChunk([]byte{1}, 3)
	log.EndTurn()
	log.StartTurn("Q2")
	log.AppendVideoFrame([]byte{1})
	log.AddCommunicationIssue(IssueFillerWords, SeverityMinor, "um, uh")
	log.AddEmotionSnapshot("calm", ConfidenceHigh)

	first := log.Export()
	second := log.Export()

	if first.TotalTurns != 1 || second.TotalTurns != 1 {
		t.Errorf("Export must only count closed turns, got %d", first.TotalTurns)
	}
	if first.Transcript != second.Transcript {
		t.Error("Repeated exports must be identical")
	}
	if first.TotalDurationSec != 3 {
		t.Errorf("Expected total duration 3, got %v", first.TotalDurationSec)
	}
	if first.VideoFramesCaptured != 1 {
		t.Errorf("Expected 1 captured frame, got %d", first.VideoFramesCaptured)
	}
	if len(first.CommunicationIssues) != 1 || len(first.EmotionTimeline) != 1 {
		t.Error("Expected issues and emotions in the export")
	}
	if !log.HasOpenTurn() {
		t.Error("Export must not close the open turn")
	}

	first.Turns[0].AnswerTranscript = "mutated"
	if log.Turns()[0].AnswerTranscript != "A1" {
		t.Error("Export must not share turn storage with the log")
	}
}

func TestEmotionSnapshotDefaultsConfidence(t *testing.T) {
	log := NewSessionLog("s", "PM", "Jane")
	log.AddEmotionSnapshot("nervous", ConfidenceLevel("extreme"))

	if got := log.Export().EmotionTimeline[0].ConfidenceLevel; got != ConfidenceMedium {
		t.Errorf("Expected medium confidence fallback, got %s", got)
	}
}

func TestCommunicationIssueValidate(t *testing.T) {
	valid := CommunicationIssue{Kind: IssueRambling, Severity: SeverityMajor}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid issue, got %v", err)
	}
	if err := (CommunicationIssue{Kind: "shouting", Severity: SeverityMinor}).Validate(); err == nil {
		t.Error("Expected unknown kind to fail validation")
	}
	if err := (CommunicationIssue{Kind: IssueUnclear, Severity: "huge"}).Validate(); err == nil {
		t.Error("Expected unknown severity to fail validation")
	}
}
