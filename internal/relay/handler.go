package relay

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type Config struct {
	MaxMessageBytes int64
	QueueSize       int
	IdleTimeout     time.Duration
	WriteTimeout    time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxMessageBytes: 1 << 20,
		QueueSize:       256,
		IdleTimeout:     60 * time.Second,
		WriteTimeout:    10 * time.Second,
	}
}

// AccessChecker decides whether a user may join a document's session.
type AccessChecker interface {
	CanCollaborate(ctx context.Context, documentID string, userID uint64) error
}

// Handler upgrades collaboration requests and pumps frames between the
// connection and its group.
type Handler struct {
	broadcaster Broadcaster
	access      AccessChecker
	cfg         Config
	upgrader    websocket.Upgrader
	log         zerolog.Logger
}

func NewHandler(b Broadcaster, access AccessChecker, cfg Config, log zerolog.Logger) *Handler {
	def := DefaultConfig()
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = def.MaxMessageBytes
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	return &Handler{
		broadcaster: b,
		access:      access,
		cfg:         cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log.With().Str("component", "relay").Logger(),
	}
}

// Connect serves GET /ws/documents/:id. The session joins the group before
// the upgrade completes, so a connected client never misses a frame.
func (h *Handler) Connect(c *gin.Context) {
	documentID := c.Param("id")
	userID := c.GetUint64("user_id")

	if h.access != nil {
		if err := h.access.CanCollaborate(c.Request.Context(), documentID, userID); err != nil {
			c.Error(err)
			return
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := NewSession(GroupName(documentID), userID, h.cfg.QueueSize)
	if err := h.broadcaster.Join(ctx, session); err != nil {
		c.Error(err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.broadcaster.Leave(session)
		session.Close()
		h.log.Warn().Err(err).Str("document_id", documentID).Msg("websocket upgrade failed")
		return
	}

	log := h.log.With().Str("session", session.ID()).Str("document_id", documentID).Uint64("user_id", userID).Logger()
	log.Info().Msg("session connected")

	go h.writePump(conn, session, log)
	h.readPump(ctx, conn, session, log)

	log.Info().Int("close_code", session.Reason().Code).Msg("session disconnected")
}

func (h *Handler) readPump(ctx context.Context, conn *websocket.Conn, s *Session, log zerolog.Logger) {
	defer func() {
		h.broadcaster.Leave(s)
		s.Close()
	}()

	conn.SetReadLimit(h.cfg.MaxMessageBytes)
	h.extendReadDeadline(conn)
	conn.SetPongHandler(func(string) error {
		h.extendReadDeadline(conn)
		return nil
	})

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			switch {
			case errors.Is(err, websocket.ErrReadLimit):
				log.Warn().Int64("limit", h.cfg.MaxMessageBytes).Err(ErrInvalidPayload).Msg("closing session")
				s.closeWith(CloseReason{Code: websocket.CloseMessageTooBig, Text: "message too big"})
			case websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				log.Debug().Err(err).Msg("unexpected close")
			}
			return
		}
		h.extendReadDeadline(conn)

		if err := h.broadcaster.Send(ctx, s.group, Message{Type: messageType, Data: data}); err != nil {
			log.Error().Err(err).Msg("relay send failed")
		}
	}
}

func (h *Handler) writePump(conn *websocket.Conn, s *Session, log zerolog.Logger) {
	ticker := time.NewTicker(h.cfg.IdleTimeout * 9 / 10)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case m := <-s.Messages():
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := conn.WriteMessage(m.Type, m.Data); err != nil {
				log.Debug().Err(err).Msg("write failed")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.Done():
			reason := s.Reason()
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(reason.Code, reason.Text),
				time.Now().Add(h.cfg.WriteTimeout))
			return
		}
	}
}

func (h *Handler) extendReadDeadline(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.IdleTimeout))
}
