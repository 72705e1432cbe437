package relay

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Broadcaster moves frames between the sessions of a group.
type Broadcaster interface {
	Join(ctx context.Context, s *Session) error
	Leave(s *Session)
	Send(ctx context.Context, group string, m Message) error
	// CloseGroup ends every session of the group.
	CloseGroup(ctx context.Context, group string) error
}

// Hub is the in-process Broadcaster. Every member of a group, the sender
// included, receives each frame in the order it was sent.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[string]*Session
	log    zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		groups: make(map[string]map[string]*Session),
		log:    log.With().Str("component", "relay_hub").Logger(),
	}
}

func (h *Hub) Join(_ context.Context, s *Session) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[s.group]
	if !ok {
		members = make(map[string]*Session)
		h.groups[s.group] = members
	}
	members[s.id] = s
	h.log.Debug().Str("group", s.group).Str("session", s.id).Int("members", len(members)).Msg("session joined")
	return nil
}

// Leave is idempotent.
func (h *Hub) Leave(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(s)
}

func (h *Hub) remove(s *Session) {
	members, ok := h.groups[s.group]
	if !ok {
		return
	}
	if _, ok := members[s.id]; !ok {
		return
	}
	delete(members, s.id)
	if len(members) == 0 {
		delete(h.groups, s.group)
	}
	h.log.Debug().Str("group", s.group).Str("session", s.id).Msg("session left")
}

// Send enqueues m on every member. Members whose queue is full are evicted.
func (h *Hub) Send(_ context.Context, group string, m Message) error {
	var slow []*Session
	for _, s := range h.snapshot(group) {
		err := s.enqueue(m)
		if errors.Is(err, ErrQueueFull) {
			slow = append(slow, s)
		}
	}
	for _, s := range slow {
		h.log.Warn().Str("group", group).Str("session", s.id).Msg("evicting slow session")
		h.Leave(s)
		s.closeWith(closeSlowConsumer)
	}
	return nil
}

func (h *Hub) CloseGroup(_ context.Context, group string) error {
	h.mu.Lock()
	members := h.groups[group]
	delete(h.groups, group)
	h.mu.Unlock()

	for _, s := range members {
		s.closeWith(closeDeleted)
	}
	if len(members) > 0 {
		h.log.Info().Str("group", group).Int("sessions", len(members)).Msg("group closed")
	}
	return nil
}

// Members returns the number of sessions in group.
func (h *Hub) Members(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

func (h *Hub) snapshot(group string) []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := h.groups[group]
	out := make([]*Session, 0, len(members))
	for _, s := range members {
		out = append(out, s)
	}
	return out
}
