package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fsp-platform/server/internal/api/middleware"
	"github.com/fsp-platform/server/internal/api/problem"
	"github.com/fsp-platform/server/internal/audit"
	"github.com/fsp-platform/server/internal/auth"
	"github.com/fsp-platform/server/internal/domain/users"
	"github.com/fsp-platform/server/internal/metrics"
)

type AuthHandler struct {
	Users *users.Service
	Env   string
}

func NewAuthHandler(users *users.Service, env string) *AuthHandler {
	return &AuthHandler{Users: users, Env: env}
}

type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type registerResponse struct {
	UserID      string `json:"user_id"`
	Role        string `json:"role"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Register creates an account and returns an access token so the client is
// logged in immediately.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input registerRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	user, token, err := h.Users.Register(r.Context(), users.RegisterParams{
		FullName: input.FullName,
		Email:    input.Email,
		Password: input.Password,
		Role:     input.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, users.ErrEmailTaken):
			problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Email already registered", err, h.Env)
		default:
			var validation users.ValidationError
			if errors.As(err, &validation) ||
				errors.Is(err, users.ErrInvalidRole) ||
				errors.Is(err, auth.ErrPasswordTooShort) ||
				errors.Is(err, auth.ErrPasswordTooLong) ||
				errors.Is(err, auth.ErrPasswordTooWeak) {
				problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
				return
			}
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		}
		return
	}

	metrics.UsersRegisteredTotal.WithLabelValues(string(user.Role)).Inc()
	audit.Record(r, audit.ActionUserRegister, user.ID, user.ID)

	writeJSON(w, http.StatusCreated, registerResponse{
		UserID:      user.ID,
		Role:        string(user.Role),
		AccessToken: token,
		TokenType:   "bearer",
	})
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Token is the login endpoint. It takes a form with username (the email) and
// password, OAuth2 password-flow style.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	email := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request",
			errors.New("username and password are required"), h.Env)
		return
	}

	_, token, err := h.Users.Authenticate(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) || errors.Is(err, users.ErrInactive) {
			problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Invalid credentials", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

type userSummary struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Me returns the authenticated account summary.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	if caller == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", nil, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, userSummary{
		ID:        caller.ID,
		FullName:  caller.FullName,
		Email:     caller.Email,
		Role:      string(caller.Role),
		IsActive:  caller.IsActive,
		CreatedAt: caller.CreatedAt,
	})
}
