package web

import (
	"net/http"
	"strconv"
	"time"

	"bakehouse/internal/app"
)

func (h *Handler) stockLevels(w http.ResponseWriter, r *http.Request) {
	branchID, ok := uuidQuery(w, r, "branch_id")
	if !ok {
		return
	}
	result, err := h.svc.StockLevels(r.Context(), branchID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	var req app.AdjustStockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.AdjustStock(r.Context(), c, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) movementHistory(w http.ResponseWriter, r *http.Request) {
	var req app.MovementHistoryRequest
	branchID, ok := uuidQuery(w, r, "branch_id")
	if !ok {
		return
	}
	productID, ok := uuidQuery(w, r, "product_id")
	if !ok {
		return
	}
	req.BranchID = branchID
	req.ProductID = productID

	for name, dst := range map[string]**time.Time{"from": &req.From, "to": &req.To} {
		if raw := r.URL.Query().Get(name); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				writeError(w, r, "invalid "+name+" parameter, want RFC 3339", "BAD_REQUEST", http.StatusBadRequest)
				return
			}
			*dst = &t
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, r, "invalid limit parameter", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		req.Limit = limit
	}

	result, err := h.svc.MovementHistory(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) recomputeStock(w http.ResponseWriter, r *http.Request) {
	branchID, ok := uuidQuery(w, r, "branch_id")
	if !ok {
		return
	}
	productID, ok := uuidQuery(w, r, "product_id")
	if !ok {
		return
	}
	if branchID == nil || productID == nil {
		writeError(w, r, "branch_id and product_id parameters are required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.RecomputeStock(r.Context(), *branchID, *productID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}
