package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mealmart/internal/model"
	"mealmart/internal/store"
)

var (
	// ErrAggregateUnavailable marks a report that failed because the
	// underlying store query failed. Distinct from an empty result, which
	// coerces to zero.
	ErrAggregateUnavailable = errors.New("aggregate query unavailable")

	// ErrInvalidWindow is returned when a report window has begin after end.
	ErrInvalidWindow = errors.New("report window begin is after end")
)

const dateFormat = "2006-01-02"

// ReportService computes per-day and range-aggregate statistics by reading
// through the stores. It never mutates state. Reports are all-or-nothing:
// any store failure surfaces as ErrAggregateUnavailable with no partial
// series.
type ReportService struct {
	orders     store.OrderStore
	users      store.UserStore
	topSellers int
}

func NewReportService(orders store.OrderStore, users store.UserStore, topSellers int) *ReportService {
	if topSellers <= 0 {
		topSellers = 10
	}
	return &ReportService{orders: orders, users: users, topSellers: topSellers}
}

// TurnoverReport sums completed-order amounts per calendar day in
// [begin, end]. Days with no completed orders report 0.
func (s *ReportService) TurnoverReport(ctx context.Context, begin, end time.Time) (model.TurnoverReport, error) {
	days, err := dayRange(begin, end)
	if err != nil {
		return model.TurnoverReport{}, err
	}

	turnovers := make([]float64, 0, len(days))
	for _, day := range days {
		sum, err := s.orders.SumAmountByFilter(ctx, dayWindow(day), model.StatusCompleted)
		if err != nil {
			return model.TurnoverReport{}, aggregateFailed("daily turnover", err)
		}
		// NULL sum means no completed orders that day, not unknown.
		turnovers = append(turnovers, sum.Float64)
	}

	return model.TurnoverReport{
		DateList:     joinDates(days),
		TurnoverList: joinFloats(turnovers),
	}, nil
}

// UserReport reports per-day new registrations and the running total of
// all users up to each day.
func (s *ReportService) UserReport(ctx context.Context, begin, end time.Time) (model.UserReport, error) {
	days, err := dayRange(begin, end)
	if err != nil {
		return model.UserReport{}, err
	}

	newUsers := make([]int, 0, len(days))
	totalUsers := make([]int, 0, len(days))
	for _, day := range days {
		win := dayWindow(day)

		total, err := s.users.CountByFilter(ctx, store.TimeWindow{End: win.End})
		if err != nil {
			return model.UserReport{}, aggregateFailed("total users", err)
		}
		added, err := s.users.CountByFilter(ctx, win)
		if err != nil {
			return model.UserReport{}, aggregateFailed("new users", err)
		}

		totalUsers = append(totalUsers, total)
		newUsers = append(newUsers, added)
	}

	return model.UserReport{
		DateList:      joinDates(days),
		NewUserList:   joinInts(newUsers),
		TotalUserList: joinInts(totalUsers),
	}, nil
}

// OrderReport reports per-day order counts and completed-order counts. The
// range totals are sums of the per-day series, so the series and the totals
// always agree.
func (s *ReportService) OrderReport(ctx context.Context, begin, end time.Time) (model.OrderReport, error) {
	days, err := dayRange(begin, end)
	if err != nil {
		return model.OrderReport{}, err
	}

	completed := model.StatusCompleted
	orderCounts := make([]int, 0, len(days))
	validCounts := make([]int, 0, len(days))
	totalOrders, totalValid := 0, 0
	for _, day := range days {
		win := dayWindow(day)

		count, err := s.orders.CountByFilter(ctx, win, nil)
		if err != nil {
			return model.OrderReport{}, aggregateFailed("order count", err)
		}
		valid, err := s.orders.CountByFilter(ctx, win, &completed)
		if err != nil {
			return model.OrderReport{}, aggregateFailed("valid order count", err)
		}

		orderCounts = append(orderCounts, count)
		validCounts = append(validCounts, valid)
		totalOrders += count
		totalValid += valid
	}

	completionRate := 0.0
	if totalOrders != 0 {
		completionRate = float64(totalValid) / float64(totalOrders)
	}

	return model.OrderReport{
		DateList:            joinDates(days),
		OrderCountList:      joinInts(orderCounts),
		ValidOrderCountList: joinInts(validCounts),
		TotalOrderCount:     totalOrders,
		ValidOrderCount:     totalValid,
		OrderCompletionRate: completionRate,
	}, nil
}

// TopSellers ranks item names by quantity sold on completed orders inside
// [begin, end], descending, capped at the configured limit. Ties break by
// name ascending (the stores' documented ordering).
func (s *ReportService) TopSellers(ctx context.Context, begin, end time.Time) (model.TopSellersReport, error) {
	days, err := dayRange(begin, end)
	if err != nil {
		return model.TopSellersReport{}, err
	}

	win := store.TimeWindow{Begin: days[0], End: endOfDay(days[len(days)-1])}
	sales, err := s.orders.TopSellingItems(ctx, win, s.topSellers)
	if err != nil {
		return model.TopSellersReport{}, aggregateFailed("top sellers", err)
	}

	names := make([]string, 0, len(sales))
	numbers := make([]int, 0, len(sales))
	for _, sale := range sales {
		names = append(names, sale.Name)
		numbers = append(numbers, sale.Quantity)
	}

	return model.TopSellersReport{
		NameList:   strings.Join(names, ","),
		NumberList: joinInts(numbers),
	}, nil
}

func aggregateFailed(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrAggregateUnavailable, err)
}

// dayRange expands [begin, end] into the inclusive sequence of day starts,
// normalized to midnight in the inputs' location.
func dayRange(begin, end time.Time) ([]time.Time, error) {
	first := dayStart(begin)
	last := dayStart(end)
	if last.Before(first) {
		return nil, fmt.Errorf("%s..%s: %w", begin.Format(dateFormat), end.Format(dateFormat), ErrInvalidWindow)
	}

	var days []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days, nil
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// endOfDay is 23:59:59.999 of the given day, mirroring how the windows are
// stored and compared.
func endOfDay(day time.Time) time.Time {
	return dayStart(day).AddDate(0, 0, 1).Add(-time.Millisecond)
}

func dayWindow(day time.Time) store.TimeWindow {
	return store.TimeWindow{Begin: dayStart(day), End: endOfDay(day)}
}

func joinDates(days []time.Time) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, d.Format(dateFormat))
	}
	return strings.Join(parts, ",")
}

func joinFloats(values []float64) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return strings.Join(parts, ",")
}

func joinInts(values []int) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, strconv.Itoa(v))
	}
	return strings.Join(parts, ",")
}
