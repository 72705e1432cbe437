// Package relay fans collaborative-editing frames out to every session
// connected to the same document.
package relay

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	ErrInvalidPayload = errors.New("message exceeds size limit")
	ErrSessionClosed  = errors.New("session closed")
	ErrQueueFull      = errors.New("session queue full")
)

const groupPrefix = "document_"

// GroupName returns the broadcast group of a document.
func GroupName(documentID string) string {
	return groupPrefix + documentID
}

// Message is one opaque frame. Type is a websocket message type.
type Message struct {
	Type int    `json:"type"`
	Data []byte `json:"data"`
}

func TextMessage(data []byte) Message {
	return Message{Type: websocket.TextMessage, Data: data}
}

// CloseReason is sent to the peer when the server ends a session.
type CloseReason struct {
	Code int
	Text string
}

var (
	closeNormal       = CloseReason{Code: websocket.CloseNormalClosure}
	closeSlowConsumer = CloseReason{Code: websocket.CloseTryAgainLater, Text: "slow consumer"}
	closeDeleted      = CloseReason{Code: websocket.CloseGoingAway, Text: "document deleted"}
)

// Session is one connection's membership in a group. Its outbound queue is
// drained by the connection's writer.
type Session struct {
	id     string
	group  string
	userID uint64

	send   chan Message
	done   chan struct{}
	once   sync.Once
	reason CloseReason
}

func NewSession(group string, userID uint64, queueSize int) *Session {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Session{
		id:     uuid.NewString(),
		group:  group,
		userID: userID,
		send:   make(chan Message, queueSize),
		done:   make(chan struct{}),
	}
}

func (s *Session) ID() string     { return s.id }
func (s *Session) Group() string  { return s.group }
func (s *Session) UserID() uint64 { return s.userID }

// Messages is the outbound queue.
func (s *Session) Messages() <-chan Message { return s.send }

// Done is closed once the session has ended.
func (s *Session) Done() <-chan struct{} { return s.done }

// Reason reports why the session ended. Valid after Done is closed.
func (s *Session) Reason() CloseReason { return s.reason }

// enqueue never blocks; a full queue is reported to the caller.
func (s *Session) enqueue(m Message) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.send <- m:
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *Session) Close() { s.closeWith(closeNormal) }

func (s *Session) closeWith(reason CloseReason) {
	s.once.Do(func() {
		s.reason = reason
		close(s.done)
	})
}
