package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"mealmart/internal/cache"
	"mealmart/internal/service"
)

const dateFormat = "2006-01-02"

// reportWindow parses the begin/end query parameters as calendar dates.
func reportWindow(r *http.Request) (begin, end time.Time, err error) {
	begin, err = time.Parse(dateFormat, r.URL.Query().Get("begin"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid begin date")
	}
	end, err = time.Parse(dateFormat, r.URL.Query().Get("end"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid end date")
	}
	return begin, end, nil
}

// serveReport runs one report behind the optional cache. Reports are
// all-or-nothing, so a cached payload is always a complete response.
func serveReport(w http.ResponseWriter, r *http.Request, reports *cache.ReportCache, name string,
	compute func(begin, end time.Time) (any, error)) {

	begin, end, err := reportWindow(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	key := cache.Key(name, r.URL.Query().Get("begin"), r.URL.Query().Get("end"))
	if payload, ok := reports.Get(r.Context(), key); ok {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(payload)
		return
	}

	report, err := compute(begin, end)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidWindow):
			http.Error(w, "begin must not be after end", http.StatusBadRequest)
		case errors.Is(err, service.ErrAggregateUnavailable):
			slog.Error("report computation failed", "report", name, "error", err)
			http.Error(w, "report temporarily unavailable", http.StatusInternalServerError)
		default:
			slog.Error("report computation failed", "report", name, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	payload, err := json.Marshal(report)
	if err != nil {
		http.Error(w, "encode error", http.StatusInternalServerError)
		return
	}
	reports.Set(r.Context(), key, payload)

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(payload)
}

func TurnoverReportHandler(reportSvc *service.ReportService, reports *cache.ReportCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveReport(w, r, reports, "turnover", func(begin, end time.Time) (any, error) {
			return reportSvc.TurnoverReport(r.Context(), begin, end)
		})
	}
}

func UserReportHandler(reportSvc *service.ReportService, reports *cache.ReportCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveReport(w, r, reports, "users", func(begin, end time.Time) (any, error) {
			return reportSvc.UserReport(r.Context(), begin, end)
		})
	}
}

func OrderReportHandler(reportSvc *service.ReportService, reports *cache.ReportCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveReport(w, r, reports, "orders", func(begin, end time.Time) (any, error) {
			return reportSvc.OrderReport(r.Context(), begin, end)
		})
	}
}

func TopSellersHandler(reportSvc *service.ReportService, reports *cache.ReportCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveReport(w, r, reports, "top10", func(begin, end time.Time) (any, error) {
			return reportSvc.TopSellers(r.Context(), begin, end)
		})
	}
}
