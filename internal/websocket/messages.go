package websocket

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/nextstep-labs/interview-server/domain/entities"
	"github.com/nextstep-labs/interview-server/usecase"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Client to server message types
const (
	MessageTypeStart   MessageType = "start"
	MessageTypeTurn    MessageType = "turn"
	MessageTypePartial MessageType = "partial"
	MessageTypeMedia   MessageType = "media"
	MessageTypeEnd     MessageType = "end"
	MessageTypePing    MessageType = "ping"
)

// Server to client message types
const (
	MessageTypeQuestion MessageType = "question"
	MessageTypeReport   MessageType = "report"
	MessageTypeError    MessageType = "error"
	MessageTypeFeedback MessageType = "feedback"
	MessageTypePong     MessageType = "pong"
)

// Error codes carried by error messages
const (
	CodeProtocolError   = "protocol_error"
	CodeSessionNotFound = "session_not_found"
	CodeCapabilityError = "capability_error"
	CodeBusy            = "busy"
	CodeInvalidMessage  = "invalid_message"
	CodeInternalError   = "internal_error"
)

// ErrUnknownMessageType is returned for well-formed messages of an unsupported type.
var ErrUnknownMessageType = errors.New("unsupported message type")

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type" validate:"required"`
	Timestamp string      `json:"timestamp,omitempty"`
	MessageID string      `json:"message_id,omitempty"`
}

// StartMessage asks the interviewer for the opening question
type StartMessage struct {
	BaseMessage
}

// MediaSamplePayload is one base64 encoded audio chunk or video frame
type MediaSamplePayload struct {
	Kind        string  `json:"kind" validate:"required,oneof=audio video"`
	Data        string  `json:"data" validate:"required,base64"`
	DurationSec float64 `json:"duration_sec,omitempty" validate:"gte=0,lte=600"`
	MimeType    string  `json:"mime_type,omitempty"`
}

// TurnMessage submits the answer to the open question
type TurnMessage struct {
	BaseMessage
	Transcript   string               `json:"transcript"`
	MediaSamples []MediaSamplePayload `json:"media_samples,omitempty" validate:"max=64,dive"`
}

// PartialMessage streams transcript text for the open answer
type PartialMessage struct {
	BaseMessage
	Text string `json:"text"`
}

// MediaMessage streams media samples for the open answer
type MediaMessage struct {
	BaseMessage
	MediaSamples []MediaSamplePayload `json:"media_samples" validate:"required,min=1,max=64,dive"`
}

// EndMessage asks for the interview to end and be scored
type EndMessage struct {
	BaseMessage
}

// PingMessage represents a ping message for connection health check
type PingMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// QuestionMessage delivers an interviewer question
type QuestionMessage struct {
	BaseMessage
	Text       string `json:"text"`
	TurnNumber int    `json:"turn_number"`
	IsFinal    bool   `json:"is_final"`
}

// ReportMessage delivers the final score report
type ReportMessage struct {
	BaseMessage
	Data entities.ScoreReport `json:"data"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FeedbackMessage carries a live communication issue
type FeedbackMessage struct {
	BaseMessage
	IssueType string `json:"issue_type"`
	Severity  string `json:"severity"`
	Context   string `json:"context"`
}

// PongMessage represents a pong response
type PongMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// MessageValidator parses and validates incoming messages
type MessageValidator struct {
	validate *validator.Validate
}

// NewMessageValidator creates a new message validator
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{validate: validator.New()}
}

// ValidateMessage parses an incoming message into its typed form
func (v *MessageValidator) ValidateMessage(messageBytes []byte) (interface{}, error) {
	var base BaseMessage
	if err := json.Unmarshal(messageBytes, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	var msg interface{}
	switch base.Type {
	case MessageTypeStart:
		msg = &StartMessage{}
	case MessageTypeTurn:
		msg = &TurnMessage{}
	case MessageTypePartial:
		msg = &PartialMessage{}
	case MessageTypeMedia:
		msg = &MediaMessage{}
	case MessageTypeEnd:
		msg = &EndMessage{}
	case MessageTypePing:
		msg = &PingMessage{}
	case "":
		return nil, fmt.Errorf("message missing type field")
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageType, base.Type)
	}

	if err := json.Unmarshal(messageBytes, msg); err != nil {
		return nil, fmt.Errorf("invalid %s message: %w", base.Type, err)
	}
	if err := v.validate.Struct(msg); err != nil {
		return nil, fmt.Errorf("invalid %s message: %w", base.Type, err)
	}
	return msg, nil
}

// decodeMediaSamples converts wire samples into interview media.
func decodeMediaSamples(payloads []MediaSamplePayload) ([]usecase.MediaSample, error) {
	samples := make([]usecase.MediaSample, 0, len(payloads))
	for i, p := range payloads {
		data, err := base64.StdEncoding.DecodeString(p.Data)
		if err != nil {
			return nil, fmt.Errorf("media_samples[%d]: %w", i, err)
		}
		samples = append(samples, usecase.MediaSample{
			Kind:        usecase.MediaKind(p.Kind),
			Data:        data,
			DurationSec: p.DurationSec,
		})
	}
	return samples, nil
}

func newBase(t MessageType) BaseMessage {
	return BaseMessage{
		Type:      t,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		MessageID: uuid.NewString(),
	}
}

// CreateQuestionMessage creates a question message
func CreateQuestionMessage(q usecase.Question) *QuestionMessage {
	return &QuestionMessage{
		BaseMessage: newBase(MessageTypeQuestion),
		Text:        q.Text,
		TurnNumber:  q.TurnNumber,
		IsFinal:     q.IsFinal,
	}
}

// CreateReportMessage creates a report message
func CreateReportMessage(report entities.ScoreReport) *ReportMessage {
	return &ReportMessage{
		BaseMessage: newBase(MessageTypeReport),
		Data:        report,
	}
}

// CreateErrorMessage creates a standardized error message
func CreateErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		BaseMessage: newBase(MessageTypeError),
		Code:        code,
		Message:     message,
	}
}

// CreateFeedbackMessage creates a live feedback message
func CreateFeedbackMessage(issue entities.CommunicationIssue) *FeedbackMessage {
	return &FeedbackMessage{
		BaseMessage: newBase(MessageTypeFeedback),
		IssueType:   string(issue.Kind),
		Severity:    string(issue.Severity),
		Context:     issue.Context,
	}
}

// CreatePongMessage creates a pong response message
func CreatePongMessage(data string) *PongMessage {
	return &PongMessage{
		BaseMessage: newBase(MessageTypePong),
		Data:        data,
	}
}
