package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Principal is an authenticated user as seen by the token issuer.
type Principal struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// Authenticator resolves email and password to a Principal. Implementations
// return ErrInvalidCredentials for unknown users and wrong passwords alike.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*Principal, error)
}

// AdminAuthenticator checks the single configured admin account.
type AdminAuthenticator struct {
	Email        string
	PasswordHash string
}

func (a AdminAuthenticator) Authenticate(_ context.Context, email, password string) (*Principal, error) {
	if a.Email == "" || !strings.EqualFold(a.Email, strings.TrimSpace(email)) {
		return nil, ErrInvalidCredentials
	}
	if err := CheckPassword(a.PasswordHash, password); err != nil {
		return nil, err
	}
	return &Principal{ID: "admin", Name: "Administrator", Email: a.Email, Roles: []string{RoleAdmin}}, nil
}

// Chain tries each authenticator in order until one accepts the credentials.
type Chain []Authenticator

func (ch Chain) Authenticate(ctx context.Context, email, password string) (*Principal, error) {
	for _, a := range ch {
		p, err := a.Authenticate(ctx, email, password)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrInvalidCredentials) {
			return nil, err
		}
	}
	return nil, ErrInvalidCredentials
}

type Handler struct {
	authn  Authenticator
	tokens *TokenIssuer
	logger zerolog.Logger
}

func NewHandler(authn Authenticator, tokens *TokenIssuer, logger zerolog.Logger) *Handler {
	return &Handler{authn: authn, tokens: tokens, logger: logger}
}

// RegisterRoutes mounts /auth/login on the public group and /auth/me on the
// authenticated one.
func (h *Handler) RegisterRoutes(public, protected *echo.Group) {
	public.POST("/auth/login", h.Login)
	protected.GET("/auth/me", h.Me)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      *Principal `json:"user"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	p, err := h.authn.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.logger.Warn().Str("email", req.Email).Msg("failed login")
			return echo.NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	token, exp, err := h.tokens.Issue(p.ID, p.Name, p.Roles)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token, ExpiresAt: exp, User: p})
}

func (h *Handler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":    UserIDFromContext(ctx),
		"roles": RolesFromContext(ctx),
	})
}
