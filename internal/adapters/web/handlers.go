// Package web is the HTTP adapter: it translates requests into
// ApplicationService calls and domain errors into status codes.
package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"

	"bakehouse/internal/app"
	"bakehouse/internal/core"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	router chi.Router
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins string) http.Handler {
	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	r.Get("/api/health", h.health)

	// ── Orders ────────────────────────────────────────────────────────────────
	r.Post("/api/orders", h.createOrder)
	r.Get("/api/orders", h.listOrders)
	r.Get("/api/orders/{orderNo}", h.getOrder)
	r.Patch("/api/orders/{orderNo}/status", h.updateOrderStatus)
	r.Post("/api/orders/{orderNo}/delivery", h.confirmDelivery)
	r.Post("/api/orders/{orderNo}/items/{itemID}/assign", h.assignChef)
	r.Patch("/api/orders/{orderNo}/items/{itemID}/status", h.updateItemStatus)

	// ── Returns ───────────────────────────────────────────────────────────────
	r.Post("/api/returns", h.createReturn)
	r.Get("/api/returns", h.listReturns)
	r.Get("/api/returns/{returnNo}", h.getReturn)
	r.Post("/api/returns/{returnNo}/review", h.reviewReturn)

	// ── Inventory ─────────────────────────────────────────────────────────────
	r.Get("/api/inventory", h.stockLevels)
	r.Post("/api/inventory/adjust", h.adjustStock)
	r.Get("/api/inventory/movements", h.movementHistory)
	r.Get("/api/inventory/recompute", h.recomputeStock)

	// ── Assignments ───────────────────────────────────────────────────────────
	r.Get("/api/chefs/{chefID}/assignments", h.chefAssignments)

	h.router = r
	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// caller builds the command caller from the identity headers set by the
// gateway. Authentication happens upstream; this adapter only carries the
// result through.
func caller(w http.ResponseWriter, r *http.Request) (core.Caller, bool) {
	id, err := uuid.FromString(r.Header.Get("X-Caller-ID"))
	if err != nil {
		writeError(w, r, "missing or invalid X-Caller-ID header", "UNAUTHENTICATED", http.StatusUnauthorized)
		return core.Caller{}, false
	}
	role := core.Role(r.Header.Get("X-Caller-Role"))
	switch role {
	case core.RoleBranch, core.RoleChef, core.RoleProduction, core.RoleAdmin:
	default:
		writeError(w, r, "missing or invalid X-Caller-Role header", "UNAUTHENTICATED", http.StatusUnauthorized)
		return core.Caller{}, false
	}
	return core.Caller{ID: id, Role: role}, true
}

// decodeJSON decodes the request body into v, writing the appropriate error
// response on failure. Returns HTTP 413 when the body exceeds the limit set by
// RequestBodyLimit; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// uuidParam parses a UUID URL parameter, writing a 400 on failure.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.FromString(chi.URLParam(r, name))
	if err != nil {
		writeError(w, r, "invalid "+name+" parameter", "BAD_REQUEST", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// uuidQuery parses an optional UUID query parameter. The bool reports parse
// success; a missing parameter is success with a nil pointer.
func uuidQuery(w http.ResponseWriter, r *http.Request, name string) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.FromString(raw)
	if err != nil {
		writeError(w, r, "invalid "+name+" parameter", "BAD_REQUEST", http.StatusBadRequest)
		return nil, false
	}
	return &id, true
}
