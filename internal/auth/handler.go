package auth

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/pizzafoundry/pizza-service/internal/apperr"
	"github.com/pizzafoundry/pizza-service/internal/user/entity"
)

// Handler exposes the session endpoints: register, login, logout.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User  *entity.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates a diner account and returns the public user view plus a
// fresh token.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.New(apperr.Validation, "name, email, and password are required"))
		return
	}
	u, token, err := h.svc.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sessionResponse{User: u, Token: token})
}

// Login authenticates existing credentials.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.New(apperr.Validation, "email and password are required"))
		return
	}
	u, token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sessionResponse{User: u, Token: token})
}

// Logout revokes the presented token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := TokenFromContext(r.Context())
	if !ok {
		h.writeError(w, apperr.New(apperr.Unauthorized, "unauthorized"))
		return
	}
	if err := h.svc.Logout(r.Context(), token); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "logout successful"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		h.logger.Warnw("auth request failed", "err", err)
	}
	h.writeJSON(w, status, map[string]string{"message": apperr.Message(err)})
}
