package franchise

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/pizzafoundry/pizza-service/internal/apperr"
	"github.com/pizzafoundry/pizza-service/internal/auth"
	"github.com/pizzafoundry/pizza-service/internal/franchise/entity"
)

// Handler exposes HTTP endpoints for franchises and their stores.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// ListForUser returns the franchises the target user administers. Global
// admins asking for their own listing receive every franchise.
func (h *Handler) ListForUser(w http.ResponseWriter, r *http.Request) {
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

	var franchises []entity.Franchise
	if id.IsAdmin() && targetID == id.UserID {
		franchises, err = h.svc.ListAll(r.Context())
	} else {
		franchises, err = h.svc.ListForUser(r.Context(), targetID)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	if franchises == nil {
		franchises = []entity.Franchise{}
	}
	h.writeJSON(w, http.StatusOK, franchises)
}

// Create inserts a franchise with its admin associations. Global admin only.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, apperr.New(apperr.Unauthorized, "unauthorized"))
		return
	}
	if err := auth.Authorize(id, auth.GlobalAdmin()); err != nil {
		h.writeError(w, err)
		return
	}
	var f entity.Franchise
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		h.writeError(w, apperr.New(apperr.Validation, "invalid request body"))
		return
	}
	created, err := h.svc.Create(r.Context(), &f)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, created)
}

// Delete removes a franchise and cascades to its stores. Global admin only.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, apperr.New(apperr.Unauthorized, "unauthorized"))
		return
	}
	if err := auth.Authorize(id, auth.GlobalAdmin()); err != nil {
		h.writeError(w, err)
		return
	}
	franchiseID, err := strconv.ParseInt(r.PathValue("franchiseId"), 10, 64)
	if err != nil {
		h.writeError(w, apperr.New(apperr.Validation, "invalid franchise id"))
		return
	}
	if err := h.svc.Delete(r.Context(), franchiseID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "franchise deleted"})
}

// CreateStore adds a store under a franchise. Global admin or an admin of
// that franchise.
func (h *Handler) CreateStore(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, apperr.New(apperr.Unauthorized, "unauthorized"))
		return
	}
	franchiseID, err := strconv.ParseInt(r.PathValue("franchiseId"), 10, 64)
	if err != nil {
		h.writeError(w, apperr.New(apperr.Validation, "invalid franchise id"))
		return
	}
	if err := auth.Authorize(id, auth.FranchiseAdmin(franchiseID)); err != nil {
		h.writeError(w, err)
		return
	}
	var st entity.Store
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		h.writeError(w, apperr.New(apperr.Validation, "invalid request body"))
		return
	}
	created, err := h.svc.CreateStore(r.Context(), franchiseID, &st)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, created)
}

// DeleteStore removes a store. Global admin or an admin of that franchise.
func (h *Handler) DeleteStore(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, apperr.New(apperr.Unauthorized, "unauthorized"))
		return
	}
	franchiseID, err := strconv.ParseInt(r.PathValue("franchiseId"), 10, 64)
	if err != nil {
		h.writeError(w, apperr.New(apperr.Validation, "invalid franchise id"))
		return
	}
	storeID, err := strconv.ParseInt(r.PathValue("storeId"), 10, 64)
	if err != nil {
		h.writeError(w, apperr.New(apperr.Validation, "invalid store id"))
		return
	}
	if err := auth.Authorize(id, auth.FranchiseAdmin(franchiseID)); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.svc.DeleteStore(r.Context(), franchiseID, storeID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "store deleted"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		h.logger.Warnw("franchise request failed", "err", err)
	}
	h.writeJSON(w, status, map[string]string{"message": apperr.Message(err)})
}
