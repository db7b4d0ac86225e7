package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"mealmart/internal/model"
	"mealmart/internal/service"
	"mealmart/internal/store"
)

func newReportRouter(orders *store.MemoryOrderStore, users *store.MemoryUserStore) chi.Router {
	reportSvc := service.NewReportService(orders, users, 10)
	lifecycle := service.NewLifecycleManager(orders, nil)

	r := chi.NewRouter()
	r.Get("/api/admin/report/turnover", TurnoverReportHandler(reportSvc, nil))
	r.Get("/api/admin/report/orders", OrderReportHandler(reportSvc, nil))
	r.Put("/api/admin/orders/{id}/cancel", CancelOrderHandler(lifecycle))
	r.Put("/api/admin/orders/{id}/complete", CompleteOrderHandler(lifecycle))
	return r
}

func TestTurnoverReportEndpoint(t *testing.T) {
	orders := store.NewMemoryOrderStore()
	day := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	orders.Put(model.Order{Status: model.StatusCompleted, Amount: 120.5, OrderTime: day})

	router := newReportRouter(orders, store.NewMemoryUserStore())

	req := httptest.NewRequest(http.MethodGet, "/api/admin/report/turnover?begin=2024-06-01&end=2024-06-02", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var report model.TurnoverReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if report.DateList != "2024-06-01,2024-06-02" {
		t.Errorf("dateList = %q", report.DateList)
	}
	if report.TurnoverList != "120.5,0" {
		t.Errorf("turnoverList = %q, want 120.5,0", report.TurnoverList)
	}
}

func TestReportEndpointRejectsBadDates(t *testing.T) {
	router := newReportRouter(store.NewMemoryOrderStore(), store.NewMemoryUserStore())

	for _, url := range []string{
		"/api/admin/report/turnover",
		"/api/admin/report/turnover?begin=junk&end=2024-06-02",
		"/api/admin/report/orders?begin=2024-06-05&end=2024-06-01",
	} {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", url, rec.Code)
		}
	}
}

func TestCancelOrderEndpoint(t *testing.T) {
	orders := store.NewMemoryOrderStore()
	o := orders.Put(model.Order{Status: model.StatusToBeConfirmed, OrderTime: time.Now()})

	router := newReportRouter(orders, store.NewMemoryUserStore())

	body := bytes.NewBufferString(`{"reason":"out of stock"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/admin/orders/"+o.ID+"/cancel", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	got, _ := orders.GetByID(req.Context(), o.ID)
	if got.Status != model.StatusCancelled || got.CancelReason != "out of stock" {
		t.Errorf("order after cancel = %+v", got)
	}
}

func TestCancelOrderEndpointErrors(t *testing.T) {
	orders := store.NewMemoryOrderStore()
	done := orders.Put(model.Order{Status: model.StatusCompleted, OrderTime: time.Now()})

	router := newReportRouter(orders, store.NewMemoryUserStore())

	req := httptest.NewRequest(http.MethodPut, "/api/admin/orders/missing/cancel", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown order: status = %d, want 404", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/admin/orders/"+done.ID+"/cancel", bytes.NewBufferString(`{}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("terminal order: status = %d, want 409", rec.Code)
	}
}

func TestCompleteOrderEndpoint(t *testing.T) {
	orders := store.NewMemoryOrderStore()
	delivering := orders.Put(model.Order{Status: model.StatusDeliveryInProgress, OrderTime: time.Now()})
	pending := orders.Put(model.Order{Status: model.StatusPendingPayment, OrderTime: time.Now()})

	router := newReportRouter(orders, store.NewMemoryUserStore())

	req := httptest.NewRequest(http.MethodPut, "/api/admin/orders/"+delivering.ID+"/complete", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPut, "/api/admin/orders/"+pending.ID+"/complete", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("pending order: status = %d, want 409", rec.Code)
	}
}
