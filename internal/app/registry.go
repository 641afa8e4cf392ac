package app

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dmaslov/pairdesk/internal/core"
	"github.com/dmaslov/pairdesk/internal/domain"
)

var ErrConnExists = errors.New("connection id already registered")

// Registry owns the mapping from connection ids to outbound sinks and
// from user ids to their currently bound connection. Both maps live
// under one lock so there is no ordering to get wrong between them.
// Delivery to a single connection is serialized by the sink itself
// (each sink drains into one write pump).
type Registry struct {
	mu    sync.RWMutex
	conns map[core.ConnID]core.Sink
	users map[domain.UserID]core.ConnID
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[core.ConnID]core.Sink),
		users: make(map[domain.UserID]core.ConnID),
	}
}

// Register inserts a freshly created connection. Ids are generated per
// connection, so a collision means a caller bug.
func (r *Registry) Register(id core.ConnID, sink core.Sink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; ok {
		return ErrConnExists
	}
	r.conns[id] = sink
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("registered connection")
	return nil
}

// Bind points uid at conn, displacing any previous binding without
// notifying the displaced connection. The previous connection id is
// returned so the caller may treat it as a disconnect.
func (r *Registry) Bind(uid domain.UserID, conn core.ConnID) (core.ConnID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, had := r.users[uid]
	r.users[uid] = conn
	log.Info().Str("module", "app.registry").Str("user", string(uid)).Str("conn", string(conn)).Msg("bound presence")
	return prev, had
}

// Lookup is a best-effort presence check; absence means the user has
// no live connection right now.
func (r *Registry) Lookup(uid domain.UserID) (core.ConnID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.users[uid]
	return id, ok
}

// Send delivers one frame to a connection, at most once. A missing sink
// or a refused send is logged and swallowed; nothing propagates back to
// the originating sender.
func (r *Registry) Send(id core.ConnID, frame core.Frame) {
	r.mu.RLock()
	sink, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		log.Warn().Str("module", "app.registry").Str("conn", string(id)).Msg("send to unknown connection")
		return
	}
	if err := sink.TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "app.registry").Str("conn", string(id)).Msg("send failed")
	}
}

// SendToUser resolves the user's live connection and delivers to it.
// No presence binding means the frame is dropped.
func (r *Registry) SendToUser(uid domain.UserID, frame core.Frame) {
	conn, ok := r.Lookup(uid)
	if !ok {
		return
	}
	r.Send(conn, frame)
}

// Unregister removes the connection's sink and any user binding that
// points at it. Must run whenever the transport closes or errors.
func (r *Registry) Unregister(id core.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
	for uid, conn := range r.users {
		if conn == id {
			delete(r.users, uid)
		}
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("unregistered connection")
}
