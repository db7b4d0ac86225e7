package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"mealmart/internal/service"
	"mealmart/internal/store"
)

type cancelRequest struct {
	Reason string `json:"reason"`
}

// CancelOrderHandler lets an operator force-cancel an order with a reason.
func CancelOrderHandler(lifecycle *service.LifecycleManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "id")

		var req cancelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Reason == "" {
			req.Reason = "cancelled by operator"
		}

		if err := lifecycle.ForceCancel(r.Context(), orderID, req.Reason, time.Now()); err != nil {
			writeTransitionError(w, orderID, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// CompleteOrderHandler lets an operator force-complete an order that is
// out for delivery.
func CompleteOrderHandler(lifecycle *service.LifecycleManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "id")

		if err := lifecycle.ForceComplete(r.Context(), orderID, time.Now()); err != nil {
			writeTransitionError(w, orderID, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func writeTransitionError(w http.ResponseWriter, orderID string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "order not found", http.StatusNotFound)
	case errors.Is(err, service.ErrInvalidTransition):
		http.Error(w, "order state does not permit this transition", http.StatusConflict)
	default:
		slog.Error("order transition failed", "order", orderID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
