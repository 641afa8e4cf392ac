package core

import (
	"context"
	"time"

	"github.com/dmaslov/pairdesk/internal/domain"
)

// Frame is a raw JSON text frame as it travels over the wire.
type Frame []byte

// ConnID is the opaque identifier of one live transport session.
type ConnID string

// Sink is the outbound side of a connection.
// Owned by the adapter; the adapter must Close() it.
type Sink interface {
	TrySend(Frame) error
	Close()
}

// Store is the durable side of the hub. Implementations own Room and
// User lifetime entirely; the hub never caches records across messages.
// A missing record is reported as (nil, nil), not as an error.
type Store interface {
	GetRoomByCode(ctx context.Context, code string) (*domain.Room, error)
	GetUserByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	AddParticipant(ctx context.Context, code string, id domain.UserID) error
	RemoveParticipant(ctx context.Context, code string, id domain.UserID) error
	SetHost(ctx context.Context, code string, id domain.UserID) error
	DeleteRoom(ctx context.Context, code string) error
}

// AccessClaims is the verified identity carried by an access token.
type AccessClaims struct {
	UserID   domain.UserID
	Username string
	Email    string
	Expiry   time.Time
}

// TokenVerifier checks an access token and yields its claims.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*AccessClaims, error)
}
