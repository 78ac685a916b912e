package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/medikab/clinic-api/internal/auth"
	"github.com/medikab/clinic-api/internal/user"
)

type AuthHandler struct {
	users    *user.Service
	secret   string
	tokenTTL time.Duration
}

func NewAuthHandler(users *user.Service, secret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		users:    users,
		secret:   secret,
		tokenTTL: tokenTTL,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials", "email and password are required")
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		handleUserError(w, err)
		return
	}

	token, err := auth.IssueToken(h.secret, u.ID, u.Name, u.Role, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "could not issue token")
		return
	}

	writeSuccess(w, http.StatusOK, loginResponse{Token: token, User: u})
}

// Setup creates the first doctor account. It only works while the users table
// is empty, so it needs no token.
func (h *AuthHandler) Setup(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	u, err := h.users.CreateFirstDoctor(r.Context(), user.CreateInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		Specialty: req.Specialty,
	})
	if err != nil {
		handleUserError(w, err)
		return
	}

	token, err := auth.IssueToken(h.secret, u.ID, u.Name, u.Role, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "could not issue token")
		return
	}

	writeSuccess(w, http.StatusCreated, loginResponse{Token: token, User: u})
}
