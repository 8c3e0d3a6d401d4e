package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nutriplate/nutriplate/internal/domain"
	"github.com/nutriplate/nutriplate/internal/logger"
	"github.com/nutriplate/nutriplate/internal/metrics"
)

const (
	wsWriteWait      = 10 * time.Second
	wsMaxMessageSize = 64 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The chat channel carries no cookies; any origin may connect.
	CheckOrigin: func(*http.Request) bool { return true },
}

// socketMessage is a frame sent to chat clients.
type socketMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text,omitempty"`
	Error  string `json:"error,omitempty"`
}

const (
	senderAI     = "ai"
	senderSystem = "system"
)

// ChatSocket handles GET /ws/chat. Each text frame {"message": "..."} is answered
// with {"sender":"ai","text":"..."}; failures are reported with sender "system"
// and keep the connection open.
func (s *Server) ChatSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		return
	}
	defer func() { _ = conn.Close() }()
	conn.SetReadLimit(wsMaxMessageSize)

	metrics.ChatSockets.Inc()
	defer metrics.ChatSockets.Dec()

	ctx := r.Context()
	log := logger.FromContext(ctx)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("chat socket closed", zap.Error(err))
			}
			return
		}

		reply := s.answer(r, data)
		metrics.ChatMessagesTotal.WithLabelValues(reply.Sender).Inc()
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			log.Warn("chat socket write failed", zap.Error(err))
			return
		}
	}
}

func (s *Server) answer(r *http.Request, data []byte) socketMessage {
	var req chatRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return socketMessage{Sender: senderSystem, Error: "Invalid message: " + err.Error()}
	}
	if strings.TrimSpace(req.Message) == "" {
		return socketMessage{Sender: senderSystem, Error: "No message provided"}
	}

	reply, err := s.assistant.Ask(r.Context(), req.Message)
	if err != nil {
		logger.FromContext(r.Context()).Warn("chat socket answer failed", zap.Error(err))
		return socketMessage{Sender: senderSystem, Error: socketErrorMessage(err)}
	}
	return socketMessage{Sender: senderAI, Text: reply}
}

// socketErrorMessage mirrors the HTTP error mapping for socket clients.
func socketErrorMessage(err error) string {
	var ue *domain.UpstreamError
	if errors.As(err, &ue) {
		return ue.Error()
	}
	return safeDomainMessage(err)
}
