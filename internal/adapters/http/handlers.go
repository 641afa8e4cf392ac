package http

import (
	"context"
	"errors"
	"math/rand"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dmaslov/pairdesk/internal/core"
	"github.com/dmaslov/pairdesk/internal/domain"
	"github.com/dmaslov/pairdesk/internal/store"
)

// AccountStore is the slice of the store the auth endpoints need.
type AccountStore interface {
	CreateUser(ctx context.Context, user *domain.User) (domain.UserID, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// RoomCreator is the slice of the store the room endpoint needs.
type RoomCreator interface {
	CreateRoom(ctx context.Context, code string, host domain.UserID) error
}

// TokenIssuer mints the token pair handed out on login.
type TokenIssuer interface {
	GenerateAccessToken(user *domain.User) (string, error)
	GenerateRefreshToken(id domain.UserID) (string, error)
}

// PasswordHasher hashes and checks account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type Handlers struct {
	Accounts  AccountStore
	Rooms     RoomCreator
	Tokens    TokenIssuer
	Verifier  core.TokenVerifier
	Passwords PasswordHasher
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"success": false, "message": "Invalid request body."})
		return
	}
	if err := domain.ValidateRegistration(req.Username, req.Password); err != nil {
		c.JSON(400, gin.H{"success": false, "message": err.Error()})
		return
	}

	hashed, err := h.Passwords.Hash(req.Password)
	if err != nil {
		c.Status(500)
		return
	}

	_, err = h.Accounts.CreateUser(c.Request.Context(), &domain.User{
		Username: req.Username,
		Email:    req.Email,
		Password: hashed,
	})
	if errors.Is(err, store.ErrDuplicateEmail) {
		c.JSON(400, gin.H{"success": false, "message": "User already exists with this email."})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("create user")
		c.Status(500)
		return
	}

	c.JSON(201, gin.H{"success": true, "message": "User registered successfully."})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"success": false, "message": "Invalid request body."})
		return
	}

	user, err := h.Accounts.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.Status(500)
		return
	}
	if user == nil {
		c.Status(401)
		return
	}
	if !h.Passwords.Verify(req.Password, user.Password) {
		c.JSON(400, gin.H{"success": false, "message": "Incorrect password."})
		return
	}

	accessToken, err := h.Tokens.GenerateAccessToken(user)
	if err != nil {
		c.Status(500)
		return
	}
	refreshToken, err := h.Tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		c.Status(500)
		return
	}

	c.JSON(200, gin.H{
		"success":       true,
		"message":       "User logged in successfully.",
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

type createRoomRequest struct {
	AccessToken string `json:"access_token"`
}

func (h *Handlers) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"success": false, "message": "Invalid request body."})
		return
	}

	claims, err := h.Verifier.VerifyAccessToken(req.AccessToken)
	if err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Msg("create room with invalid token")
		c.Status(401)
		return
	}

	code := generateCode()
	if err := h.Rooms.CreateRoom(c.Request.Context(), code, claims.UserID); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("create room")
		c.Status(500)
		return
	}

	c.JSON(201, gin.H{
		"success": true,
		"message": "Room created successfully",
		"code":    code,
	})
}

// generateCode produces a human-shareable 6-digit room code.
func generateCode() string {
	return strconv.Itoa(100000 + rand.Intn(900000))
}
