package app

// Shared fakes for the hub tests: an in-memory store with set-like
// participant lists, a recording sink and a static token verifier.

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/dmaslov/pairdesk/internal/core"
	"github.com/dmaslov/pairdesk/internal/domain"
)

type fakeSink struct {
	mu     sync.Mutex
	frames []core.Frame
	fail   bool
}

func (s *fakeSink) TrySend(f core.Frame) error {
	if s.fail {
		return errors.New("write failed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, f)
	return nil
}

func (s *fakeSink) Close() {}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func (s *fakeSink) frame(t *testing.T, i int) map[string]any {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= len(s.frames) {
		t.Fatalf("sink has %d frames, want index %d", len(s.frames), i)
	}
	var out map[string]any
	if err := json.Unmarshal(s.frames[i], &out); err != nil {
		t.Fatalf("frame %d is not JSON: %v", i, err)
	}
	return out
}

type fakeStore struct {
	mu    sync.Mutex
	rooms map[string]*domain.Room
	users map[domain.UserID]*domain.User

	addCalls    int
	removeCalls int
	setHost     int
	deleted     []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms: make(map[string]*domain.Room),
		users: make(map[domain.UserID]*domain.User),
	}
}

func (s *fakeStore) putRoom(code string, host domain.UserID, participants ...domain.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[code] = &domain.Room{Code: code, HostID: host, Participants: participants}
}

func (s *fakeStore) putUser(id domain.UserID, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = &domain.User{ID: id, Username: username}
}

func (s *fakeStore) GetRoomByCode(_ context.Context, code string) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		return nil, nil
	}
	cp := *room
	cp.Participants = append([]domain.UserID(nil), room.Participants...)
	return &cp, nil
}

func (s *fakeStore) GetUserByID(_ context.Context, id domain.UserID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (s *fakeStore) AddParticipant(_ context.Context, code string, id domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addCalls++
	room, ok := s.rooms[code]
	if !ok {
		return errors.New("no such room")
	}
	for _, p := range room.Participants {
		if p == id {
			return nil
		}
	}
	room.Participants = append(room.Participants, id)
	return nil
}

func (s *fakeStore) RemoveParticipant(_ context.Context, code string, id domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeCalls++
	room, ok := s.rooms[code]
	if !ok {
		return errors.New("no such room")
	}
	out := room.Participants[:0]
	for _, p := range room.Participants {
		if p != id {
			out = append(out, p)
		}
	}
	room.Participants = out
	return nil
}

func (s *fakeStore) SetHost(_ context.Context, code string, id domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setHost++
	room, ok := s.rooms[code]
	if !ok {
		return errors.New("no such room")
	}
	room.HostID = id
	return nil
}

func (s *fakeStore) DeleteRoom(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
	s.deleted = append(s.deleted, code)
	return nil
}

func (s *fakeStore) room(t *testing.T, code string) *domain.Room {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		t.Fatalf("room %q not in store", code)
	}
	cp := *room
	cp.Participants = append([]domain.UserID(nil), room.Participants...)
	return &cp
}

func (s *fakeStore) mutations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addCalls + s.removeCalls + s.setHost + len(s.deleted)
}

type fakeVerifier struct {
	claims map[string]*core.AccessClaims
}

func (v *fakeVerifier) VerifyAccessToken(token string) (*core.AccessClaims, error) {
	if c, ok := v.claims[token]; ok {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

type hubFixture struct {
	router *Router
	store  *fakeStore
	tokens *fakeVerifier
}

func newHubFixture() *hubFixture {
	store := newFakeStore()
	tokens := &fakeVerifier{claims: make(map[string]*core.AccessClaims)}
	return &hubFixture{
		router: NewRouter(NewRegistry(), store, tokens),
		store:  store,
		tokens: tokens,
	}
}

// connect registers a fresh sink under the given connection id.
func (f *hubFixture) connect(t *testing.T, id core.ConnID) *fakeSink {
	t.Helper()
	sink := &fakeSink{}
	if err := f.router.Registry.Register(id, sink); err != nil {
		t.Fatalf("Register(%q) error = %v", id, err)
	}
	return sink
}

// online registers a connection for uid and binds presence to it.
func (f *hubFixture) online(t *testing.T, uid domain.UserID) *fakeSink {
	t.Helper()
	conn := core.ConnID("conn-" + string(uid))
	sink := f.connect(t, conn)
	f.router.Registry.Bind(uid, conn)
	return sink
}

func (f *hubFixture) inbound(t *testing.T, conn core.ConnID, msgType string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	frame, err := json.Marshal(map[string]any{"type": msgType, "data": json.RawMessage(raw)})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	f.router.HandleFrame(context.Background(), conn, core.Frame(frame))
}
