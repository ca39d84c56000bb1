package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/helpdex/helpdesk-backend/internal/adapters/primary/http/middleware"
	"github.com/helpdex/helpdesk-backend/internal/adapters/primary/validation"
	"github.com/helpdex/helpdesk-backend/internal/auth"
	"github.com/helpdex/helpdesk-backend/internal/core/domain"
	"github.com/helpdex/helpdesk-backend/internal/core/ports"
)

// AnalyticsHandler serves the reporting and dashboard endpoints. All
// results are computed by the analytics service; this handler only parses
// query parameters and shapes the response.
type AnalyticsHandler struct {
	analytics    ports.AnalyticsService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(
	analytics ports.AnalyticsService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics:    analytics,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "analytics"),
	}
}

// Router sets up a new chi Router for all reporting routes.
func (h *AnalyticsHandler) Router() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes sets up the routing for all reporting endpoints.
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/trends", h.HandleTrends)
	r.Get("/comparison", h.HandleComparison)
	r.Get("/categories", h.HandleCategoryBreakdown)
	r.Get("/performance", h.HandleUserPerformance)
	r.Get("/efficiency", h.HandleEfficiencyRanking)
	r.Get("/workload", h.HandleWorkloadDistribution)
	r.Get("/response-time", h.HandleResponseTime)
	r.Get("/metrics/{metricType}", h.HandleLiveMetric)
}

// HandleTrends handles GET /reports/trends
func (h *AnalyticsHandler) HandleTrends(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	v := validation.NewValidator()

	query := ports.TrendQuery{
		Metric: domain.MetricCreated,
		Period: domain.PeriodDaily,
		Owner:  ownerScope(claims),
	}

	if metricStr := validation.ParseStringQueryParam(r, "metric"); metricStr != nil {
		query.Metric = domain.TrendMetric(*metricStr)
		if !query.Metric.IsValid() {
			v.Custom("metric", false, "Must be created, resolved, response_time or resolution_time")
		}
	}

	if periodStr := validation.ParseStringQueryParam(r, "period"); periodStr != nil {
		query.Period = domain.TrendPeriod(*periodStr)
		if !query.Period.IsValid() {
			v.Custom("period", false, "Must be daily, weekly, monthly or yearly")
		}
	}

	if category := validation.ParseStringQueryParam(r, "category"); category != nil {
		query.Category = *category
	}

	query.Range = h.parseDateRange(r, v)

	if v.HasErrors() {
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	series, err := h.analytics.Trends(r.Context(), query)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, series)
}

// HandleComparison handles GET /reports/comparison
func (h *AnalyticsHandler) HandleComparison(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	v := validation.NewValidator()

	metric := "tickets"
	if metricStr := validation.ParseStringQueryParam(r, "metric"); metricStr != nil {
		metric = *metricStr
		v.OneOf("metric", metric, []string{"tickets", "resolution_time"})
	}

	base := h.parseNamedRange(r, v, "period1_start", "period1_end")
	current := h.parseNamedRange(r, v, "period2_start", "period2_end")

	if base.IsZero() || current.IsZero() {
		v.Custom("period1_start", !base.IsZero(), "Both comparison periods are required")
		v.Custom("period2_start", !current.IsZero(), "Both comparison periods are required")
	}

	if v.HasErrors() {
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	comparison, err := h.analytics.Comparison(r.Context(), ports.ComparisonQuery{
		Metric:  metric,
		Base:    base,
		Current: current,
		Owner:   ownerScope(claims),
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, comparison)
}

// HandleCategoryBreakdown handles GET /reports/categories
func (h *AnalyticsHandler) HandleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	v := validation.NewValidator()
	dateRange := h.parseDateRange(r, v)
	if v.HasErrors() {
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	stats, err := h.analytics.CategoryBreakdown(r.Context(), dateRange, ownerScope(claims))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, stats)
}

// HandleUserPerformance handles GET /reports/performance
func (h *AnalyticsHandler) HandleUserPerformance(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.getClaims(w, r); !ok {
		return
	}

	v := validation.NewValidator()
	dateRange := h.parseDateRange(r, v)
	if v.HasErrors() {
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	performance, err := h.analytics.UserPerformance(r.Context(), dateRange)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, performance)
}

// HandleEfficiencyRanking handles GET /reports/efficiency
func (h *AnalyticsHandler) HandleEfficiencyRanking(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.getClaims(w, r); !ok {
		return
	}

	v := validation.NewValidator()

	query := ports.EfficiencyQuery{
		GroupBy: domain.EfficiencyByUser,
		Metric:  domain.EfficiencyResolutionTime,
	}

	if groupBy := validation.ParseStringQueryParam(r, "group_by"); groupBy != nil {
		query.GroupBy = domain.EfficiencyGroupBy(*groupBy)
		if !query.GroupBy.IsValid() {
			v.Custom("group_by", false, "Must be user or category")
		}
	}

	if metricStr := validation.ParseStringQueryParam(r, "metric"); metricStr != nil {
		query.Metric = domain.EfficiencyMetric(*metricStr)
		if !query.Metric.IsValid() {
			v.Custom("metric", false, "Must be resolution_time or resolution_rate")
		}
	}

	query.Range = h.parseDateRange(r, v)

	if v.HasErrors() {
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	ranking, err := h.analytics.EfficiencyRanking(r.Context(), query)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, ranking)
}

// HandleWorkloadDistribution handles GET /reports/workload
func (h *AnalyticsHandler) HandleWorkloadDistribution(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.getClaims(w, r); !ok {
		return
	}

	v := validation.NewValidator()
	dateRange := h.parseDateRange(r, v)
	if v.HasErrors() {
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	workload, err := h.analytics.WorkloadDistribution(r.Context(), dateRange)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, workload)
}

// HandleResponseTime handles GET /reports/response-time
func (h *AnalyticsHandler) HandleResponseTime(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	v := validation.NewValidator()

	query := ports.ResponseTimeQuery{
		Owner: ownerScope(claims),
	}

	if category := validation.ParseStringQueryParam(r, "category"); category != nil {
		query.Category = *category
	}

	if priorityStr := validation.ParseStringQueryParam(r, "priority"); priorityStr != nil {
		query.Priority = domain.TicketPriority(*priorityStr)
		if !query.Priority.IsValid() {
			v.Custom("priority", false, "Must be low, medium or high")
		}
	}

	query.Range = h.parseDateRange(r, v)

	if v.HasErrors() {
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	report, err := h.analytics.ResponseTimeStats(r.Context(), query)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

// HandleLiveMetric handles GET /reports/metrics/{metricType}
func (h *AnalyticsHandler) HandleLiveMetric(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	metricType := domain.AlertMetricType(chi.URLParam(r, "metricType"))
	if !metricType.IsValid() {
		v := validation.NewValidator()
		v.Custom("metricType", false, "Unknown metric type")
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	metric, err := h.analytics.LiveMetric(r.Context(), metricType, ownerScope(claims))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, metric)
}

// HandleDashboard handles GET /dashboard
func (h *AnalyticsHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	summary, err := h.analytics.DashboardSummary(r.Context(), ownerScope(claims))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, summary)
}

// --- Helper methods ---

func (h *AnalyticsHandler) getClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := mw.ClaimsFromContext(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Not authorized",
			Code:  "UNAUTHORIZED",
		})
		return nil, false
	}
	return claims, true
}

// parseDateRange reads the optional start_date / end_date parameters.
func (h *AnalyticsHandler) parseDateRange(r *http.Request, v *validation.Validator) domain.DateRange {
	return h.parseNamedRange(r, v, "start_date", "end_date")
}

func (h *AnalyticsHandler) parseNamedRange(r *http.Request, v *validation.Validator, startKey, endKey string) domain.DateRange {
	var dateRange domain.DateRange

	start, err := validation.ParseTimeQueryParam(r, startKey)
	if err != nil {
		v.Custom(startKey, false, "Must be a valid date or timestamp")
	}

	end, err := validation.ParseTimeQueryParam(r, endKey)
	if err != nil {
		v.Custom(endKey, false, "Must be a valid date or timestamp")
	}

	if start != nil {
		dateRange.Start = start.Time
	}
	if end != nil {
		dateRange.End = end.Time
		if end.DateOnly {
			// Date-only upper bounds cover the whole day.
			dateRange.End = dateRange.End.Add(24*time.Hour - time.Nanosecond)
		}
	}

	if err := dateRange.Validate(); err != nil {
		v.Custom(startKey, false, "Must not be after "+endKey)
	}

	return dateRange
}

// ownerScope limits reporting queries to the caller's own tickets for
// plain users. Agents and admins see everything.
func ownerScope(claims *auth.Claims) *uuid.UUID {
	if claims.Role == string(domain.RoleUser) {
		id := claims.UserID
		return &id
	}
	return nil
}
