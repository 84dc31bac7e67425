package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/workspace-analytics/internal/analytics"
	"github.com/example/workspace-analytics/internal/calendar"
	"github.com/example/workspace-analytics/internal/logging"
)

type analyticsService interface {
	DateBounds(ctx context.Context) (analytics.DateBounds, error)
	Countries(ctx context.Context) ([]string, error)
	Cities(ctx context.Context, country string) ([]string, error)
	Buildings(ctx context.Context, city string) ([]string, error)
	Summary(ctx context.Context, filter analytics.Filter) (analytics.Summary, error)
	OccupancyTrend(ctx context.Context, filter analytics.Filter, granularity analytics.Granularity) ([]analytics.TrendPoint, error)
	DayOfWeekOccupancy(ctx context.Context, filter analytics.Filter) ([]analytics.WeekdayOccupancy, error)
	SpaceTypeBookings(ctx context.Context, filter analytics.Filter) ([]analytics.SpaceTypeCount, error)
}

// AnalyticsHandler serves the read-only occupancy queries.
type AnalyticsHandler struct {
	service   analyticsService
	responder responder
	logger    *slog.Logger
}

func NewAnalyticsHandler(service analyticsService, logger *slog.Logger) *AnalyticsHandler {
	base := logging.OrDefault(logger)
	return &AnalyticsHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AnalyticsHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return logging.Scoped(ctx, h.logger, "handler", "AnalyticsHandler", operation, attrs...)
}

func (h *AnalyticsHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *AnalyticsHandler) fail(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	h.log(ctx, operation, "error_kind", analytics.ErrorKind(err)).ErrorContext(ctx, "analytics query failed", "error", err)
	h.responder.handleServiceError(ctx, w, err)
}

// Bounds handles GET /bounds.
func (h *AnalyticsHandler) Bounds(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	bounds, err := h.service.DateBounds(r.Context())
	if err != nil {
		h.fail(r.Context(), w, "Bounds", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, boundsResponse{
		MinDate: bounds.Min.Format(calendar.DateLayout),
		MaxDate: bounds.Max.Format(calendar.DateLayout),
	})
}

// Countries handles GET /locations/countries.
func (h *AnalyticsHandler) Countries(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	names, err := h.service.Countries(r.Context())
	if err != nil {
		h.fail(r.Context(), w, "Countries", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, locationsResponse{Items: nonNil(names)})
}

// Cities handles GET /locations/cities?country=.
func (h *AnalyticsHandler) Cities(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	country := strings.TrimSpace(r.URL.Query().Get("country"))
	names, err := h.service.Cities(r.Context(), country)
	if err != nil {
		h.fail(r.Context(), w, "Cities", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, locationsResponse{Items: nonNil(names)})
}

// Buildings handles GET /locations/buildings?city=.
func (h *AnalyticsHandler) Buildings(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	names, err := h.service.Buildings(r.Context(), city)
	if err != nil {
		h.fail(r.Context(), w, "Buildings", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, locationsResponse{Items: nonNil(names)})
}

// Summary handles GET /summary.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	filter, vErr := parseFilter(r)
	if vErr.HasErrors() {
		h.fail(r.Context(), w, "Summary", vErr)
		return
	}

	summary, err := h.service.Summary(r.Context(), filter)
	if err != nil {
		h.fail(r.Context(), w, "Summary", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSummaryResponse(summary))
}

// Occupancy handles GET /occupancy?granularity=.
func (h *AnalyticsHandler) Occupancy(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	filter, vErr := parseFilter(r)
	granularity, err := analytics.ParseGranularity(strings.TrimSpace(r.URL.Query().Get("granularity")))
	if err != nil {
		vErr.Add("granularity", "must be one of daily, weekly, monthly")
	}
	if vErr.HasErrors() {
		h.fail(r.Context(), w, "Occupancy", vErr)
		return
	}

	points, err := h.service.OccupancyTrend(r.Context(), filter, granularity)
	if err != nil {
		h.fail(r.Context(), w, "Occupancy", err)
		return
	}
	resp := occupancyResponse{Granularity: string(granularity), Points: make([]trendPointDTO, 0, len(points))}
	for _, p := range points {
		resp.Points = append(resp.Points, trendPointDTO{Period: p.Period, Occupants: p.Occupants})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

// DayOfWeek handles GET /occupancy/day-of-week.
func (h *AnalyticsHandler) DayOfWeek(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	filter, vErr := parseFilter(r)
	if vErr.HasErrors() {
		h.fail(r.Context(), w, "DayOfWeek", vErr)
		return
	}

	rows, err := h.service.DayOfWeekOccupancy(r.Context(), filter)
	if err != nil {
		h.fail(r.Context(), w, "DayOfWeek", err)
		return
	}
	resp := dayOfWeekResponse{Days: make([]weekdayDTO, 0, len(rows))}
	for _, row := range rows {
		resp.Days = append(resp.Days, weekdayDTO{
			Weekday:          row.Weekday.String(),
			AverageOccupancy: row.AverageOccupancy,
			Days:             row.Days,
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

// SpaceTypes handles GET /space-types.
func (h *AnalyticsHandler) SpaceTypes(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	filter, vErr := parseFilter(r)
	if vErr.HasErrors() {
		h.fail(r.Context(), w, "SpaceTypes", vErr)
		return
	}

	counts, err := h.service.SpaceTypeBookings(r.Context(), filter)
	if err != nil {
		h.fail(r.Context(), w, "SpaceTypes", err)
		return
	}
	resp := spaceTypesResponse{SpaceTypes: make([]spaceTypeDTO, 0, len(counts))}
	for _, c := range counts {
		resp.SpaceTypes = append(resp.SpaceTypes, spaceTypeDTO{SpaceType: c.SpaceType, Bookings: c.Bookings})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

var dates = calendar.NewEngine(time.UTC)

// parseFilter reads from, to, country, city and building. The returned
// validation error is never nil so callers can add to it.
func parseFilter(r *http.Request) (analytics.Filter, *analytics.ValidationError) {
	query := r.URL.Query()
	vErr := &analytics.ValidationError{}
	filter := analytics.Filter{
		Country:  strings.TrimSpace(query.Get("country")),
		City:     strings.TrimSpace(query.Get("city")),
		Building: strings.TrimSpace(query.Get("building")),
	}

	for field, dst := range map[string]*time.Time{"from": &filter.From, "to": &filter.To} {
		raw := strings.TrimSpace(query.Get(field))
		if raw == "" {
			continue
		}
		parsed, err := dates.Parse(raw)
		if err != nil {
			vErr.Add(field, "must be a date in YYYY-MM-DD format")
			continue
		}
		*dst = parsed
	}

	if !filter.From.IsZero() && !filter.To.IsZero() && filter.From.After(filter.To) {
		vErr.Add("from", "must not be after to")
	}
	return filter, vErr
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

type boundsResponse struct {
	MinDate string `json:"min_date"`
	MaxDate string `json:"max_date"`
}

type locationsResponse struct {
	Items []string `json:"items"`
}

type filterDTO struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Country  string `json:"country,omitempty"`
	City     string `json:"city,omitempty"`
	Building string `json:"building,omitempty"`
}

type summaryResponse struct {
	Filter                    filterDTO `json:"filter"`
	PeakDailyOccupancy        int       `json:"peak_daily_occupancy"`
	PeakDate                  string    `json:"peak_date,omitempty"`
	DistinctOccupants         int       `json:"distinct_occupants"`
	TotalSpaces               int       `json:"total_spaces"`
	AverageDailyUsers         float64   `json:"average_daily_users"`
	AverageUtilizationPercent float64   `json:"average_utilization_percent"`
	NoShowRatePercent         float64   `json:"no_show_rate_percent"`
	AdhocRatePercent          float64   `json:"adhoc_rate_percent"`
}

func toSummaryResponse(s analytics.Summary) summaryResponse {
	resp := summaryResponse{
		Filter: filterDTO{
			From:     s.Filter.From.Format(calendar.DateLayout),
			To:       s.Filter.To.Format(calendar.DateLayout),
			Country:  s.Filter.Country,
			City:     s.Filter.City,
			Building: s.Filter.Building,
		},
		PeakDailyOccupancy:        s.PeakDailyOccupancy,
		DistinctOccupants:         s.DistinctOccupants,
		TotalSpaces:               s.TotalSpaces,
		AverageDailyUsers:         s.AverageDailyUsers,
		AverageUtilizationPercent: s.AverageUtilizationPercent,
		NoShowRatePercent:         s.NoShowRatePercent,
		AdhocRatePercent:          s.AdhocRatePercent,
	}
	if !s.PeakDate.IsZero() {
		resp.PeakDate = s.PeakDate.Format(calendar.DateLayout)
	}
	return resp
}

type trendPointDTO struct {
	Period    string `json:"period"`
	Occupants int    `json:"occupants"`
}

type occupancyResponse struct {
	Granularity string          `json:"granularity"`
	Points      []trendPointDTO `json:"points"`
}

type weekdayDTO struct {
	Weekday          string  `json:"weekday"`
	AverageOccupancy float64 `json:"average_occupancy"`
	Days             int     `json:"days"`
}

type dayOfWeekResponse struct {
	Days []weekdayDTO `json:"days"`
}

type spaceTypeDTO struct {
	SpaceType string `json:"space_type"`
	Bookings  int    `json:"bookings"`
}

type spaceTypesResponse struct {
	SpaceTypes []spaceTypeDTO `json:"space_types"`
}
