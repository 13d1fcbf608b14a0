package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"pilgrimtrader/internal/delivery/http/dto"
	"pilgrimtrader/internal/domain"
	"pilgrimtrader/internal/middleware"
	"pilgrimtrader/internal/usecase"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	ledger *usecase.LedgerService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(ledger *usecase.LedgerService) *AuthHandler {
	return &AuthHandler{
		ledger: ledger,
	}
}

// Register handles user registration
// POST /api/auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		return BadRequestResponse(c, "Name, email and password are required")
	}
	if len(req.Password) < 6 {
		return BadRequestResponse(c, "Password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to hash password", err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.ledger.CreateUser(ctx, req.Name, req.Email, req.Phone, string(hash))
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return ConflictResponse(c, "Email already registered")
		}
		return InternalServerErrorResponse(c, "Failed to create user", err)
	}

	return CreatedResponse(c, dto.NewUserOutput(user))
}

// Login handles user login by email or account number
// POST /api/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	if req.Identifier == "" || req.Password == "" {
		return BadRequestResponse(c, "Identifier and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var user *domain.User
	var err error
	if strings.Contains(req.Identifier, "@") {
		user, err = h.ledger.AuthenticateByEmail(ctx, req.Identifier, req.Password)
	} else {
		user, err = h.ledger.AuthenticateByAccountNumber(ctx, req.Identifier, req.Password)
	}
	if err != nil {
		return UnauthorizedResponse(c, "Invalid credentials")
	}

	token, err := middleware.GenerateJWT(user.ID, user.Role)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to generate token", err)
	}

	// Set HTTP-only cookie
	cookie := &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production with HTTPS
		SameSite: http.SameSiteStrictMode,
		MaxAge:   86400, // 24 hours
	}
	c.SetCookie(cookie)

	return SuccessResponse(c, dto.LoginResponse{
		Token: token,
		User:  dto.NewUserOutput(user),
	})
}

// Logout handles user logout
// POST /api/auth/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	cookie := &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1, // Delete cookie
	}
	c.SetCookie(cookie)

	return SuccessMessageResponse(c, "Logged out", nil)
}
