package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"mealmart/internal/service"
)

// BusinessDataHandler serves the dashboard snapshot. Without query
// parameters it covers the current calendar day; explicit begin/end dates
// widen the window.
func BusinessDataHandler(snapshotSvc *service.SnapshotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		begin := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		end := begin.AddDate(0, 0, 1).Add(-time.Millisecond)

		q := r.URL.Query()
		if q.Get("begin") != "" || q.Get("end") != "" {
			var err error
			begin, end, err = reportWindow(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			end = end.AddDate(0, 0, 1).Add(-time.Millisecond)
		}

		data, err := snapshotSvc.BusinessData(r.Context(), begin, end)
		if err != nil {
			if errors.Is(err, service.ErrAggregateUnavailable) {
				slog.Error("business snapshot failed", "error", err)
				http.Error(w, "snapshot temporarily unavailable", http.StatusInternalServerError)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, "encode error", http.StatusInternalServerError)
		}
	}
}

// OrderOverviewHandler serves today's live status-bucket counts.
func OrderOverviewHandler(snapshotSvc *service.SnapshotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		overview, err := snapshotSvc.OrderOverview(r.Context())
		if err != nil {
			slog.Error("order overview failed", "error", err)
			http.Error(w, "overview temporarily unavailable", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(overview); err != nil {
			http.Error(w, "encode error", http.StatusInternalServerError)
		}
	}
}
