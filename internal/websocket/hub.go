package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/nextstep-labs/interview-server/domain/entities"
	"github.com/nextstep-labs/interview-server/internal/metrics"
	"github.com/nextstep-labs/interview-server/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Turn messages carry base64 video frames.
	maxMessageSize = 8 * 1024 * 1024

	// Outbound messages buffered per client.
	sendBufferSize = 256

	// Inbound commands queued per client while one is being processed.
	eventQueueSize = 16
)

var upgrader = websocket.Upgrader{
	// Browser clients are served from other origins.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Hub maintains the set of connected interview clients, keyed by session id.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Closed when Run returns.
	done chan struct{}

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	registry  *usecase.SessionRegistry
	validator *MessageValidator

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(registry *usecase.SessionRegistry, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		registry:   registry,
		validator:  NewMessageValidator(),
		logger:     logger,
	}
}

// Run starts the hub's main loop. When ctx is cancelled every connected
// client is closed.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.sessionID] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("sessionID", client.sessionID))

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.sessionID]; ok && current == client {
				delete(h.clients, client.sessionID)
			}
			h.mu.Unlock()
			client.closeSend()
			h.logger.Info("Client unregistered", zap.String("sessionID", client.sessionID))

		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				client.closeSend()
				delete(h.clients, id)
			}
			h.mu.Unlock()
			h.logger.Info("Hub stopped")
			return
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
		c.closeSend()
	}
}

// WriteData is one outbound websocket frame.
type WriteData struct {
	// Type is the websocket frame type.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// event is one inbound command waiting for the consumer. Binary frames
// arrive as audio, everything else as a parsed message.
type event struct {
	msg   interface{}
	audio []byte
}

// Client is a middleman between the websocket connection and one interview.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// Commands waiting to be applied to the interview, in arrival order.
	events chan event

	sessionID string
	interview *usecase.Interview

	// Cancelled when the peer goes away.
	ctx    context.Context
	cancel context.CancelFunc

	logger *zap.Logger

	mu     sync.Mutex
	closed bool
}

// HandleWebSocket attaches the request to sessionID and serves it. Unknown or
// already connected sessions are reported on the channel, then closed.
func (h *Hub) HandleWebSocket(c echo.Context, sessionID string) error {
	interview, err := h.registry.Attach(sessionID)
	switch {
	case errors.Is(err, usecase.ErrSessionNotFound):
		h.logger.Warn("WebSocket for unknown session", zap.String("sessionID", sessionID))
		return h.RejectConnection(c, CodeSessionNotFound, err.Error())
	case err != nil:
		h.logger.Warn("WebSocket rejected", zap.String("sessionID", sessionID), zap.Error(err))
		return h.RejectConnection(c, CodeProtocolError, err.Error())
	}
	return h.ServeInterview(c, interview)
}

// ServeInterview upgrades the request and drives interview over the
// connection until a report is delivered or the peer disconnects. The
// interview must already be attached in the registry.
func (h *Hub) ServeInterview(c echo.Context, interview *usecase.Interview) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		h.registry.Remove(interview.ID())
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan WriteData, sendBufferSize),
		events:    make(chan event, eventQueueSize),
		sessionID: interview.ID(),
		interview: interview,
		ctx:       ctx,
		cancel:    cancel,
		logger:    h.logger.With(zap.String("sessionID", interview.ID())),
	}
	interview.OnFeedback(client.sendFeedback)

	if !h.registerClient(client) {
		cancel()
		conn.Close()
		h.registry.Remove(interview.ID())
		return errors.New("websocket hub is not running")
	}

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.consume()
	go client.readPump()

	return nil
}

// RejectConnection upgrades the request only to report code and close.
// Protocol failures are reported on the channel rather than as HTTP errors.
func (h *Hub) RejectConnection(c echo.Context, code, message string) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}
	defer conn.Close()

	metrics.GatewayErrors().WithLabelValues(code).Inc()
	payload, err := json.Marshal(CreateErrorMessage(code, message))
	if err != nil {
		return err
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return nil
	}
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, code))
	return nil
}

// readPump pumps messages from the websocket connection to the consumer.
func (c *Client) readPump() {
	defer func() {
		c.cancel()
		close(c.events)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.processMessage(message)
		case websocket.BinaryMessage:
			// Raw audio for the open answer.
			c.enqueue(event{audio: message})
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the client to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processMessage validates a text message. Pings are answered at once;
// interview commands are queued for the consumer.
func (c *Client) processMessage(message []byte) {
	msg, err := c.hub.validator.ValidateMessage(message)
	if err != nil {
		code := CodeInvalidMessage
		if errors.Is(err, ErrUnknownMessageType) {
			code = CodeProtocolError
		}
		c.logger.Warn("Rejected message", zap.String("code", code), zap.Error(err))
		c.sendError(code, err.Error())
		return
	}

	if ping, ok := msg.(*PingMessage); ok {
		c.sendJSON(CreatePongMessage(ping.Data))
		return
	}
	c.enqueue(event{msg: msg})
}

// enqueue hands an event to the consumer without blocking the read loop.
func (c *Client) enqueue(ev event) {
	select {
	case c.events <- ev:
	default:
		c.sendError(CodeBusy, usecase.ErrBusy.Error())
	}
}

// consume applies queued events to the interview one at a time. It returns
// once a report has been delivered or the connection is gone.
func (c *Client) consume() {
	defer c.release()

	for ev := range c.events {
		if c.handleEvent(ev) {
			return
		}
	}
}

// handleEvent applies one event and reports whether the interview is over.
func (c *Client) handleEvent(ev event) bool {
	if ev.audio != nil {
		if err := c.interview.AppendAudio(ev.audio); err != nil {
			c.sendFailure(err)
		}
		return false
	}

	switch msg := ev.msg.(type) {
	case *StartMessage:
		q, err := c.interview.Start(c.ctx)
		if err != nil {
			c.sendFailure(err)
			return false
		}
		c.sendJSON(CreateQuestionMessage(q))

	case *TurnMessage:
		samples, err := decodeMediaSamples(msg.MediaSamples)
		if err != nil {
			c.sendError(CodeInvalidMessage, err.Error())
			return false
		}
		out, err := c.interview.SubmitAnswer(c.ctx, usecase.Answer{
			Transcript: msg.Transcript,
			Media:      samples,
		})
		if err != nil {
			c.sendFailure(err)
			return false
		}
		if out.Report != nil {
			c.sendJSON(CreateReportMessage(*out.Report))
			return true
		}
		c.sendJSON(CreateQuestionMessage(*out.Question))

	case *PartialMessage:
		if err := c.interview.AppendPartial(msg.Text); err != nil {
			c.sendFailure(err)
		}

	case *MediaMessage:
		samples, err := decodeMediaSamples(msg.MediaSamples)
		if err != nil {
			c.sendError(CodeInvalidMessage, err.Error())
			return false
		}
		if err := c.interview.AppendMedia(samples); err != nil {
			c.sendFailure(err)
		}

	case *EndMessage:
		report, err := c.interview.End(c.ctx)
		if err != nil {
			c.sendFailure(err)
			return false
		}
		c.sendJSON(CreateReportMessage(report))
		return true
	}
	return false
}

// release tears the session down once the consumer stops. A client that left
// mid-interview still gets its answers scored and logged.
func (c *Client) release() {
	c.interview.OnFeedback(nil)

	if report, ok := c.interview.Abandon(context.Background()); ok {
		c.logger.Info("Disconnected interview report",
			zap.Float64("finalScore", report.FinalScore),
			zap.Float64("contentScore", report.ContentScore),
			zap.Float64("behavioralScore", report.BehavioralScore))
	}

	c.hub.registry.Remove(c.sessionID)
	c.hub.unregisterClient(c)
}

func (c *Client) sendFeedback(issue entities.CommunicationIssue) {
	c.sendJSON(CreateFeedbackMessage(issue))
}

// sendFailure maps an interview error onto an error message. Errors caused
// by the peer going away are dropped.
func (c *Client) sendFailure(err error) {
	if c.ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return
	}
	code := errorCode(err)
	c.logger.Warn("Interview command failed", zap.String("code", code), zap.Error(err))
	c.sendError(code, err.Error())
}

func (c *Client) sendError(code, message string) {
	metrics.GatewayErrors().WithLabelValues(code).Inc()
	c.sendJSON(CreateErrorMessage(code, message))
}

func (c *Client) sendJSON(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("Failed to marshal message", zap.Error(err))
		return
	}
	c.write(WriteData{Type: websocket.TextMessage, Payload: payload})
}

// write queues a frame. Frames for a closed client, or beyond a full
// buffer, are dropped.
func (c *Client) write(data WriteData) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("Send buffer full, dropping message")
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func errorCode(err error) string {
	var capErr *usecase.CapabilityError
	switch {
	case errors.Is(err, usecase.ErrBusy):
		return CodeBusy
	case errors.Is(err, usecase.ErrNotStarted),
		errors.Is(err, usecase.ErrAlreadyStarted),
		errors.Is(err, usecase.ErrSessionEnded):
		return CodeProtocolError
	case errors.Is(err, usecase.ErrSessionNotFound):
		return CodeSessionNotFound
	case errors.As(err, &capErr), errors.Is(err, usecase.ErrNotConfigured):
		return CodeCapabilityError
	default:
		return CodeInternalError
	}
}
