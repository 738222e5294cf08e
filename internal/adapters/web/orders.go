package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"bakehouse/internal/app"
	"bakehouse/internal/core"
)

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	var req app.CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.CreateOrder(r.Context(), c, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetOrder(r.Context(), chi.URLParam(r, "orderNo"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	var req app.ListOrdersRequest
	branchID, ok := uuidQuery(w, r, "branch_id")
	if !ok {
		return
	}
	req.BranchID = branchID
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := core.OrderStatus(raw)
		if !status.Valid() {
			writeError(w, r, "invalid status parameter", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		req.Status = &status
	}
	result, err := h.svc.ListOrders(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	var req app.UpdateOrderStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.OrderNo = chi.URLParam(r, "orderNo")
	result, err := h.svc.UpdateOrderStatus(r.Context(), c, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) confirmDelivery(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ConfirmDelivery(r.Context(), c, chi.URLParam(r, "orderNo"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) assignChef(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "itemID")
	if !ok {
		return
	}
	var req app.AssignChefRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.OrderNo = chi.URLParam(r, "orderNo")
	req.ItemID = itemID
	result, err := h.svc.AssignChef(r.Context(), c, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) updateItemStatus(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "itemID")
	if !ok {
		return
	}
	var req app.UpdateItemStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.OrderNo = chi.URLParam(r, "orderNo")
	req.ItemID = itemID
	result, err := h.svc.UpdateItemStatus(r.Context(), c, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) chefAssignments(w http.ResponseWriter, r *http.Request) {
	chefID, ok := uuidParam(w, r, "chefID")
	if !ok {
		return
	}
	result, err := h.svc.ChefAssignments(r.Context(), chefID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}
