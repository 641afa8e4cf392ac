package app

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dmaslov/pairdesk/internal/core"
	"github.com/dmaslov/pairdesk/internal/domain"
)

// Router is the per-frame entry point of the hub. It parses envelopes,
// dispatches by message kind, consults the store, resolves destinations
// through the registry and emits responses. Anything malformed is
// dropped without notifying the sender; only the transport itself can
// end a connection's loop.
type Router struct {
	Registry *Registry
	Store    core.Store
	Tokens   core.TokenVerifier

	rooms roomLocks
}

func NewRouter(reg *Registry, store core.Store, tokens core.TokenVerifier) *Router {
	return &Router{Registry: reg, Store: store, Tokens: tokens}
}

// HandleFrame processes one inbound frame from conn. Frames from a
// single connection are handled strictly in arrival order by that
// connection's read loop.
func (r *Router) HandleFrame(ctx context.Context, conn core.ConnID, data core.Frame) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Debug().Str("module", "app.router").Str("conn", string(conn)).Msg("dropping unparsable frame")
		return
	}

	switch env.Type {
	case typeJoinRoom:
		r.handleJoinRoom(ctx, conn, env.Data)
	case typeRequestAccepted:
		r.handleRequestAccepted(ctx, env.Data)
	case typeOffer, typeAnswer, typeICECandidate:
		r.handleRTCRelay(env.Type, env.Data)
	case typeMouseMove:
		r.handleMouseMove(env.Data)
	case typeKeyPress:
		r.handleKeyPress(env.Data)
	case typeMouseClick:
		r.handleMouseClick(env.Data)
	case typeChatMessage:
		r.handleChatMessage(ctx, env.Data)
	case typeScreenStarted, typeScreenStopped:
		r.handleScreenShare(ctx, env.Type, env.Data)
	case typeVideoStarted, typeVideoStopped:
		r.handleVideo(ctx, env.Type, env.Data)
	case typeLeaveRoom:
		r.handleLeaveRoom(ctx, env.Data)
	case typeRequestAccess:
		r.handleRequestAccess(env.Data)
	case typeAllowedAccess:
		r.handleAllowedAccess(ctx, env.Data)
	case typeRejectedAccess:
		r.handleRejectedAccess(env.Data)
	default:
		log.Debug().Str("module", "app.router").Str("type", env.Type).Msg("dropping unknown message type")
	}
}

// deliver serializes v and pushes it to one connection.
func (r *Router) deliver(conn core.ConnID, v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Msg("marshal outbound frame")
		return
	}
	r.Send(conn, core.Frame(frame))
}

// deliverToUser resolves uid's live connection first; no binding means
// the frame goes nowhere.
func (r *Router) deliverToUser(uid domain.UserID, v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Msg("marshal outbound frame")
		return
	}
	r.Registry.SendToUser(uid, core.Frame(frame))
}

func (r *Router) Send(conn core.ConnID, frame core.Frame) {
	r.Registry.Send(conn, frame)
}

// fanout delivers v to every listed participant except those in skip,
// and to host when it is non-empty. Each destination is resolved
// independently; a dead member never blocks the rest.
func (r *Router) fanout(participants []domain.UserID, host domain.UserID, v any, skip ...domain.UserID) {
	frame, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Msg("marshal outbound frame")
		return
	}
next:
	for _, p := range participants {
		for _, s := range skip {
			if p == s {
				continue next
			}
		}
		r.Registry.SendToUser(p, core.Frame(frame))
	}
	if host != "" {
		r.Registry.SendToUser(host, core.Frame(frame))
	}
}

// roomLocks hands out one mutex per room code so multi-step store
// mutations against the same room cannot interleave.
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *roomLocks) lock(code string) *sync.Mutex {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[code]
	if !ok {
		m = &sync.Mutex{}
		l.locks[code] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m
}
