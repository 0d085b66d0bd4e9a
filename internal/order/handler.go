package order

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/pizzafoundry/pizza-service/internal/apperr"
	"github.com/pizzafoundry/pizza-service/internal/auth"
	"github.com/pizzafoundry/pizza-service/internal/order/entity"
	userentity "github.com/pizzafoundry/pizza-service/internal/user/entity"
	"github.com/pizzafoundry/pizza-service/pkg/utilities"
)

// Handler exposes HTTP endpoints for the menu and diner orders.
type Handler struct {
	svc         *Service
	listPerPage int
	logger      *zap.SugaredLogger
}

func NewHandler(svc *Service, listPerPage int, logger *zap.SugaredLogger) *Handler {
	if listPerPage <= 0 {
		listPerPage = utilities.DefaultListPerPage
	}
	return &Handler{svc: svc, listPerPage: listPerPage, logger: logger}
}

// Menu returns the full catalog. No credential required.
func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	menu, err := h.svc.GetMenu(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, menu)
}

// AddMenuItem inserts a catalog item and returns the refreshed menu.
// Global admin only.
func (h *Handler) AddMenuItem(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, apperr.New(apperr.Unauthorized, "unauthorized"))
		return
	}
	if err := auth.Authorize(id, auth.GlobalAdmin()); err != nil {
		h.writeError(w, err)
		return
	}
	var item entity.MenuItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		h.writeError(w, apperr.New(apperr.Validation, "invalid request body"))
		return
	}
	menu, err := h.svc.AddMenuItem(r.Context(), &item)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, menu)
}

// List returns one page of the caller's own orders together with the diner
// id and page number for client-side continuation.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, apperr.New(apperr.Unauthorized, "unauthorized"))
		return
	}
	pageNum, _ := strconv.Atoi(r.URL.Query().Get("page"))
	page := utilities.NewPage(pageNum, 0, h.listPerPage)

	orders, err := h.svc.ListForDiner(r.Context(), id.UserID, page)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"dinerId": id.UserID,
		"orders":  orders,
		"page":    page.Number,
	})
}

// Create persists the order and hands it off to the factory. When the
// factory call fails the order stays recorded and the failure is reported
// with its own status.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, apperr.New(apperr.Unauthorized, "unauthorized"))
		return
	}
	var o entity.Order
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		h.writeError(w, apperr.New(apperr.Validation, "invalid request body"))
		return
	}
	diner := &userentity.User{ID: id.UserID, Name: id.Name, Email: id.Email}
	created, result, err := h.svc.Create(r.Context(), diner, &o)
	if err != nil {
		if created != nil && apperr.KindOf(err) == apperr.Fulfillment {
			// the order is committed; report the vendor failure distinctly
			h.writeJSON(w, apperr.Status(err), map[string]any{
				"message": apperr.Message(err),
				"order":   created,
			})
			return
		}
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"order":                created,
		"followLinkToEndChaos": result.ReportURL,
		"jwt":                  result.JWT,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		h.logger.Warnw("order request failed", "err", err)
	}
	h.writeJSON(w, status, map[string]string{"message": apperr.Message(err)})
}
