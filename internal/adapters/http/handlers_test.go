package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/dmaslov/pairdesk/internal/domain"
	"github.com/dmaslov/pairdesk/internal/identity"
	"github.com/dmaslov/pairdesk/internal/store"
)

type fakeAccounts struct {
	byEmail map[string]*domain.User
	nextID  int
}

func (a *fakeAccounts) CreateUser(_ context.Context, user *domain.User) (domain.UserID, error) {
	if _, ok := a.byEmail[user.Email]; ok {
		return "", store.ErrDuplicateEmail
	}
	a.nextID++
	id := domain.UserID("user-" + strconv.Itoa(a.nextID))
	cp := *user
	cp.ID = id
	a.byEmail[user.Email] = &cp
	return id, nil
}

func (a *fakeAccounts) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	return a.byEmail[email], nil
}

type fakeRooms struct {
	codes []string
	hosts []domain.UserID
}

func (r *fakeRooms) CreateRoom(_ context.Context, code string, host domain.UserID) error {
	r.codes = append(r.codes, code)
	r.hosts = append(r.hosts, host)
	return nil
}

func newTestServer() (*gin.Engine, *fakeAccounts, *fakeRooms) {
	gin.SetMode(gin.TestMode)
	accounts := &fakeAccounts{byEmail: make(map[string]*domain.User)}
	rooms := &fakeRooms{}
	tokens := identity.NewManager("access-secret", "refresh-secret")
	h := &Handlers{
		Accounts:  accounts,
		Rooms:     rooms,
		Tokens:    tokens,
		Verifier:  tokens,
		Passwords: identity.Hasher{},
	}
	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/room/create", h.CreateRoom)
	return r, accounts, rooms
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegister_ThenLogin(t *testing.T) {
	r, _, _ := newTestServer()

	w := postJSON(t, r, "/auth/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "hunter2hunter2",
	})
	if w.Code != 201 {
		t.Fatalf("register status = %d, want 201: %s", w.Code, w.Body)
	}

	w = postJSON(t, r, "/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "hunter2hunter2",
	})
	if w.Code != 200 {
		t.Fatalf("login status = %d, want 200: %s", w.Code, w.Body)
	}
	var resp struct {
		Success      bool   `json:"success"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Errorf("login response incomplete: %s", w.Body)
	}

	tokens := identity.NewManager("access-secret", "refresh-secret")
	claims, err := tokens.VerifyAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("issued access token does not verify: %v", err)
	}
	if claims.Username != "alice" || claims.Email != "alice@example.com" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	r, _, _ := newTestServer()
	payload := map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "hunter2hunter2",
	}
	if w := postJSON(t, r, "/auth/register", payload); w.Code != 201 {
		t.Fatalf("first register status = %d", w.Code)
	}
	w := postJSON(t, r, "/auth/register", payload)
	if w.Code != 400 {
		t.Fatalf("duplicate register status = %d, want 400", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("already exists")) {
		t.Errorf("duplicate register body = %s", w.Body)
	}
}

func TestLogin_IncorrectPassword(t *testing.T) {
	r, _, _ := newTestServer()
	postJSON(t, r, "/auth/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "hunter2hunter2",
	})

	w := postJSON(t, r, "/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	if w.Code != 400 {
		t.Errorf("login status = %d, want 400", w.Code)
	}

	w = postJSON(t, r, "/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever",
	})
	if w.Code != 401 {
		t.Errorf("unknown user login status = %d, want 401", w.Code)
	}
}

func TestCreateRoom(t *testing.T) {
	r, _, rooms := newTestServer()
	tokens := identity.NewManager("access-secret", "refresh-secret")
	token, err := tokens.GenerateAccessToken(&domain.User{ID: "host-1", Username: "alice", Email: "a@b.c"})
	if err != nil {
		t.Fatal(err)
	}

	w := postJSON(t, r, "/room/create", map[string]string{"access_token": token})
	if w.Code != 201 {
		t.Fatalf("create room status = %d: %s", w.Code, w.Body)
	}
	var resp struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Code) != 6 {
		t.Errorf("room code = %q, want 6 digits", resp.Code)
	}
	if len(rooms.codes) != 1 || rooms.codes[0] != resp.Code {
		t.Errorf("stored codes = %v, response code = %q", rooms.codes, resp.Code)
	}
	if rooms.hosts[0] != "host-1" {
		t.Errorf("room host = %q, want host-1", rooms.hosts[0])
	}

	w = postJSON(t, r, "/room/create", map[string]string{"access_token": "bogus"})
	if w.Code != 401 {
		t.Errorf("invalid token status = %d, want 401", w.Code)
	}
}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := generateCode()
		if len(code) != 6 {
			t.Fatalf("code %q is not 6 characters", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code %q is not numeric: %v", code, err)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d out of range", n)
		}
	}
}
