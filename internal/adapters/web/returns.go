package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"bakehouse/internal/app"
	"bakehouse/internal/core"
)

func (h *Handler) createReturn(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	var req app.CreateReturnRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.CreateReturn(r.Context(), c, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result)
}

func (h *Handler) getReturn(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetReturn(r.Context(), chi.URLParam(r, "returnNo"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) listReturns(w http.ResponseWriter, r *http.Request) {
	var req app.ListReturnsRequest
	branchID, ok := uuidQuery(w, r, "branch_id")
	if !ok {
		return
	}
	req.BranchID = branchID
	if raw := r.URL.Query().Get("order_no"); raw != "" {
		req.OrderNo = &raw
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := core.ReturnStatus(raw)
		switch status {
		case core.ReturnPendingReview, core.ReturnApproved, core.ReturnRejected:
		default:
			writeError(w, r, "invalid status parameter", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		req.Status = &status
	}
	result, err := h.svc.ListReturns(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) reviewReturn(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	var req app.ReviewReturnRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ReturnNo = chi.URLParam(r, "returnNo")
	result, err := h.svc.ReviewReturn(r.Context(), c, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}
