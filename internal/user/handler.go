package user

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/pizzafoundry/pizza-service/internal/apperr"
	"github.com/pizzafoundry/pizza-service/internal/auth"
	"github.com/pizzafoundry/pizza-service/internal/user/entity"
	"github.com/pizzafoundry/pizza-service/pkg/utilities"
)

// Handler exposes HTTP endpoints for user operations.
type Handler struct {
	svc         *Service
	auth        *auth.Service
	listPerPage int
	logger      *zap.SugaredLogger
}

func NewHandler(svc *Service, authSvc *auth.Service, listPerPage int, logger *zap.SugaredLogger) *Handler {
	if listPerPage <= 0 {
		listPerPage = utilities.DefaultListPerPage
	}
	return &Handler{svc: svc, auth: authSvc, listPerPage: listPerPage, logger: logger}
}

// Me returns the authenticated caller's own record.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, apperr.New(apperr.Unauthorized, "unauthorized"))
		return
	}
	u, err := h.svc.Get(r.Context(), id.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

type updateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateResponse struct {
	User  *entity.User `json:"user"`
	Token string       `json:"token,omitempty"`
}

// Update changes name/email/credential for the target user. Callers may
// update themselves; anything else requires the global admin role. A
// self-update returns a freshly issued token because a credential change
// revokes the outstanding ones.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, apperr.New(apperr.Unauthorized, "unauthorized"))
		return
	}
	targetID, err := strconv.ParseInt(r.PathValue("userId"), 10, 64)
	if err != nil {
		h.writeError(w, apperr.New(apperr.Validation, "invalid user id"))
		return
	}
	if err := auth.Authorize(id, auth.Self(targetID)); err != nil {
		h.writeError(w, err)
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.New(apperr.Validation, "invalid request body"))
		return
	}
	u, err := h.svc.Update(r.Context(), targetID, req.Name, req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp := updateResponse{User: u}
	if id.UserID == targetID {
		token, err := h.auth.IssueFor(r.Context(), u)
		if err != nil {
			h.writeError(w, err)
			return
		}
		resp.Token = token
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Delete removes the target user. Self or global admin only; the
// authorization failure takes precedence over existence.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, apperr.New(apperr.Unauthorized, "unauthorized"))
		return
	}
	targetID, err := strconv.ParseInt(r.PathValue("userId"), 10, 64)
	if err != nil {
		h.writeError(w, apperr.New(apperr.Validation, "invalid user id"))
		return
	}
	if err := auth.Authorize(id, auth.Self(targetID)); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), targetID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// List returns a page of users with a flag indicating whether more exist.
// Admin only. The name filter supports a trailing '*' prefix wildcard.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, apperr.New(apperr.Unauthorized, "unauthorized"))
		return
	}
	if err := auth.Authorize(id, auth.GlobalAdmin()); err != nil {
		h.writeError(w, err)
		return
	}
	q := r.URL.Query()
	pageNum, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	page := utilities.NewPage(pageNum, limit, h.listPerPage)

	users, more, err := h.svc.List(r.Context(), page, q.Get("name"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if users == nil {
		users = []entity.User{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"users": users, "more": more})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		h.logger.Warnw("user request failed", "err", err)
	}
	h.writeJSON(w, status, map[string]string{"message": apperr.Message(err)})
}
