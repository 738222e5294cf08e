package web_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakehouse/internal/adapters/web"
	"bakehouse/internal/app"
	"bakehouse/internal/core"
)

// stubService returns canned results so handler tests need no database.
type stubService struct {
	order *core.Order
	err   error
}

func (s *stubService) CreateOrder(context.Context, core.Caller, app.CreateOrderRequest) (*app.OrderResult, error) {
	return s.orderResult()
}
func (s *stubService) GetOrder(context.Context, string) (*app.OrderResult, error) {
	return s.orderResult()
}
func (s *stubService) ListOrders(context.Context, app.ListOrdersRequest) (*app.OrderListResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &app.OrderListResult{}, nil
}
func (s *stubService) AssignChef(context.Context, core.Caller, app.AssignChefRequest) (*app.OrderResult, error) {
	return s.orderResult()
}
func (s *stubService) UpdateItemStatus(context.Context, core.Caller, app.UpdateItemStatusRequest) (*app.OrderResult, error) {
	return s.orderResult()
}
func (s *stubService) UpdateOrderStatus(context.Context, core.Caller, app.UpdateOrderStatusRequest) (*app.OrderResult, error) {
	return s.orderResult()
}
func (s *stubService) ConfirmDelivery(context.Context, core.Caller, string) (*app.OrderResult, error) {
	return s.orderResult()
}
func (s *stubService) CreateReturn(context.Context, core.Caller, app.CreateReturnRequest) (*app.ReturnResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &app.ReturnResult{}, nil
}
func (s *stubService) ReviewReturn(context.Context, core.Caller, app.ReviewReturnRequest) (*app.ReturnResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &app.ReturnResult{}, nil
}
func (s *stubService) GetReturn(context.Context, string) (*app.ReturnResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &app.ReturnResult{}, nil
}
func (s *stubService) ListReturns(context.Context, app.ListReturnsRequest) (*app.ReturnListResult, error) {
	return &app.ReturnListResult{}, nil
}
func (s *stubService) StockLevels(context.Context, *uuid.UUID) (*app.StockResult, error) {
	return &app.StockResult{}, nil
}
func (s *stubService) AdjustStock(context.Context, core.Caller, app.AdjustStockRequest) (*app.StockAdjustResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &app.StockAdjustResult{}, nil
}
func (s *stubService) MovementHistory(context.Context, app.MovementHistoryRequest) (*app.MovementListResult, error) {
	return &app.MovementListResult{}, nil
}
func (s *stubService) RecomputeStock(context.Context, uuid.UUID, uuid.UUID) (*core.RecomputeResult, error) {
	return &core.RecomputeResult{Consistent: true}, nil
}
func (s *stubService) ChefAssignments(context.Context, uuid.UUID) (*app.AssignmentListResult, error) {
	return &app.AssignmentListResult{}, nil
}

func (s *stubService) orderResult() (*app.OrderResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &app.OrderResult{Order: s.order}, nil
}

func newRequest(t *testing.T, method, path, body string) *http.Request {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Caller-ID", uuid.Must(uuid.NewV4()).String())
	req.Header.Set("X-Caller-Role", "branch")
	return req
}

func TestHandler_DomainErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation maps to 400", core.ValidationErr("bad input"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"not found maps to 404", core.NotFoundErr("no such order"), http.StatusNotFound, "NOT_FOUND"},
		{"authorization maps to 403", core.AuthorizationErr("wrong role"), http.StatusForbidden, "FORBIDDEN"},
		{"conflict maps to 409", core.ConflictErr("already reviewed"), http.StatusConflict, "CONFLICT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := web.NewHandler(&stubService{err: tt.err}, "")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, newRequest(t, http.MethodGet, "/api/orders/ORD-20260301-0001", ""))

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
		})
	}
}

func TestHandler_CallerHeaders(t *testing.T) {
	handler := web.NewHandler(&stubService{order: &core.Order{}}, "")

	// missing identity headers
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// unknown role
	req = httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{}`))
	req.Header.Set("X-Caller-ID", uuid.Must(uuid.NewV4()).String())
	req.Header.Set("X-Caller-Role", "intern")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// valid identity goes through
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest(t, http.MethodPost, "/api/orders", `{"items":[]}`))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHandler_BadJSON(t *testing.T) {
	handler := web.NewHandler(&stubService{}, "")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest(t, http.MethodPost, "/api/orders", `{not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "BAD_REQUEST")
}

func TestHandler_RequestID(t *testing.T) {
	handler := web.NewHandler(&stubService{}, "")

	// server-generated when absent
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	// caller-supplied IDs are echoed back
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "trace-1234")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "trace-1234", rec.Header().Get("X-Request-ID"))
}

func TestHandler_InvalidQueryParams(t *testing.T) {
	handler := web.NewHandler(&stubService{}, "")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest(t, http.MethodGet, "/api/orders?status=bogus", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest(t, http.MethodGet, "/api/inventory?branch_id=not-a-uuid", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest(t, http.MethodGet, "/api/inventory/recompute", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
