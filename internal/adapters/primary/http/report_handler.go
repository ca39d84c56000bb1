package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	mw "github.com/helpdex/helpdesk-backend/internal/adapters/primary/http/middleware"
	"github.com/helpdex/helpdesk-backend/internal/adapters/primary/validation"
	"github.com/helpdex/helpdesk-backend/internal/auth"
	"github.com/helpdex/helpdesk-backend/internal/core/domain"
	"github.com/helpdex/helpdesk-backend/internal/core/ports"
)

// ReportExporter renders a one-off report as CSV. Implemented by the
// scheduler's report runner so the export endpoint and scheduled delivery
// produce identical files.
type ReportExporter interface {
	BuildCSV(ctx context.Context, reportType domain.ReportType, params domain.ReportParameters) ([]byte, error)
}

// ReportHandler handles the scheduled report subscriptions and the CSV
// export endpoint.
type ReportHandler struct {
	reports      ports.ScheduledReportService
	exporter     ReportExporter
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(
	reports ports.ScheduledReportService,
	exporter ReportExporter,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *ReportHandler {
	return &ReportHandler{
		reports:      reports,
		exporter:     exporter,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "report"),
	}
}

// Router sets up a new chi Router for the subscription routes.
func (h *ReportHandler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.HandleListReports)
	r.Post("/", h.HandleCreateReport)

	r.Route("/{reportID}", func(r chi.Router) {
		r.Get("/", h.HandleGetReport)
		r.Put("/", h.HandleUpdateReport)
		r.Delete("/", h.HandleDeleteReport)
	})
	return r
}

// --- Request/Response DTOs ---

// CreateReportRequest defines the expected JSON body for subscribing.
type CreateReportRequest struct {
	Name       string                  `json:"name"`
	ReportType string                  `json:"reportType"`
	Parameters domain.ReportParameters `json:"parameters"`
	Schedule   string                  `json:"schedule"`
	Email      string                  `json:"email"`
}

// Validate validates the create report request
func (r *CreateReportRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("name", r.Name).
		MaxLength("name", r.Name, 255)

	v.Required("reportType", r.ReportType).
		OneOf("reportType", r.ReportType, []string{
			"tickets", "performance", "categories", "users",
			"trends", "comparison", "efficiency", "workload", "response_time",
		})

	v.Required("schedule", r.Schedule).
		OneOf("schedule", r.Schedule, []string{"daily", "weekly", "monthly"})

	v.Required("email", r.Email).
		Email("email", r.Email)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdateReportRequest defines the expected JSON body for updating a
// subscription. Absent fields are left unchanged.
type UpdateReportRequest struct {
	Name       *string                  `json:"name"`
	Parameters *domain.ReportParameters `json:"parameters"`
	Schedule   *string                  `json:"schedule"`
	Email      *string                  `json:"email"`
	Active     *bool                    `json:"active"`
}

// Validate validates the update report request
func (r *UpdateReportRequest) Validate() error {
	v := validation.NewValidator()

	if r.Name != nil {
		v.Required("name", *r.Name).
			MaxLength("name", *r.Name, 255)
	}
	if r.Schedule != nil {
		v.OneOf("schedule", *r.Schedule, []string{"daily", "weekly", "monthly"})
	}
	if r.Email != nil {
		v.Email("email", *r.Email)
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// ScheduledReportDTO defines the JSON response for subscriptions.
type ScheduledReportDTO struct {
	ID         int64                   `json:"id"`
	Name       string                  `json:"name"`
	ReportType string                  `json:"reportType"`
	Parameters domain.ReportParameters `json:"parameters"`
	Schedule   string                  `json:"schedule"`
	Email      string                  `json:"email"`
	Active     bool                    `json:"active"`
	LastRun    *string                 `json:"lastRun"`
	CreatedAt  string                  `json:"createdAt"`
}

func toReportDTO(report *domain.ScheduledReport) ScheduledReportDTO {
	var lastRun *string
	if report.LastRun != nil {
		value := report.LastRun.Format(time.RFC3339)
		lastRun = &value
	}

	return ScheduledReportDTO{
		ID:         report.ID,
		Name:       report.Name,
		ReportType: string(report.ReportType),
		Parameters: report.Parameters,
		Schedule:   string(report.Schedule),
		Email:      report.Email,
		Active:     report.Active,
		LastRun:    lastRun,
		CreatedAt:  report.CreatedAt.Format(time.RFC3339),
	}
}

func toReportDTOs(reports []*domain.ScheduledReport) []ScheduledReportDTO {
	response := make([]ScheduledReportDTO, 0, len(reports))
	for _, report := range reports {
		response = append(response, toReportDTO(report))
	}
	return response
}

// --- Handlers ---

// HandleListReports handles GET /scheduled-reports
func (h *ReportHandler) HandleListReports(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	reports, err := h.reports.ListForUser(r.Context(), claims.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toReportDTOs(reports))
}

// HandleCreateReport handles POST /scheduled-reports
func (h *ReportHandler) HandleCreateReport(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[CreateReportRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	report, err := h.reports.Create(r.Context(), domain.ScheduledReportParams{
		UserID:     claims.UserID,
		Name:       req.Name,
		ReportType: domain.ReportType(req.ReportType),
		Parameters: req.Parameters,
		Schedule:   domain.Schedule(req.Schedule),
		Email:      req.Email,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("scheduled report created",
		"report_id", report.ID,
		"user_id", claims.UserID,
	)

	WriteCreated(w, toReportDTO(report))
}

// HandleGetReport handles GET /scheduled-reports/{reportID}
func (h *ReportHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	reportID, err := parseIDParam(r, "reportID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	report, err := h.reports.Get(r.Context(), reportID, claims.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toReportDTO(report))
}

// HandleUpdateReport handles PUT /scheduled-reports/{reportID}
func (h *ReportHandler) HandleUpdateReport(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	reportID, err := parseIDParam(r, "reportID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[UpdateReportRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.UpdateScheduledReportParams{
		Name:       req.Name,
		Parameters: req.Parameters,
		Email:      req.Email,
		Active:     req.Active,
	}
	if req.Schedule != nil {
		schedule := domain.Schedule(*req.Schedule)
		params.Schedule = &schedule
	}

	report, err := h.reports.Update(r.Context(), reportID, claims.UserID, params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toReportDTO(report))
}

// HandleDeleteReport handles DELETE /scheduled-reports/{reportID}
func (h *ReportHandler) HandleDeleteReport(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	reportID, err := parseIDParam(r, "reportID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.reports.Delete(r.Context(), reportID, claims.UserID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("scheduled report deleted",
		"report_id", reportID,
		"user_id", claims.UserID,
	)

	WriteNoContent(w)
}

// HandleExport handles GET /reports/export. It renders any report type
// as a CSV download using the same pipeline as scheduled delivery.
func (h *ReportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.getClaims(w, r); !ok {
		return
	}

	v := validation.NewValidator()

	reportType := domain.ReportType(r.URL.Query().Get("type"))
	if !reportType.IsValid() {
		v.Custom("type", false, "Unknown report type")
	}

	params := domain.ReportParameters{
		Category: r.URL.Query().Get("category"),
	}

	if start, err := validation.ParseTimeQueryParam(r, "start_date"); err != nil {
		v.Custom("start_date", false, "Must be a valid date or timestamp")
	} else if start != nil {
		params.StartDate = &start.Time
	}

	if end, err := validation.ParseTimeQueryParam(r, "end_date"); err != nil {
		v.Custom("end_date", false, "Must be a valid date or timestamp")
	} else if end != nil {
		params.EndDate = &end.Time
	}

	if period := validation.ParseStringQueryParam(r, "period"); period != nil {
		params.Period = domain.TrendPeriod(*period)
	}
	if metric := validation.ParseStringQueryParam(r, "metric"); metric != nil {
		params.Metric = domain.TrendMetric(*metric)
	}
	if status := validation.ParseStringQueryParam(r, "status"); status != nil {
		params.Status = domain.TicketStatus(*status)
	}
	if priority := validation.ParseStringQueryParam(r, "priority"); priority != nil {
		params.Priority = domain.TicketPriority(*priority)
	}

	if v.HasErrors() {
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	if err := params.ValidateFor(reportType); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	csvData, err := h.exporter.BuildCSV(r.Context(), reportType, params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	filename := fmt.Sprintf("report-%s-%s.csv", reportType, time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(csvData)
}

// --- Helper methods ---

func (h *ReportHandler) getClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
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

// parseIDParam extracts a positive integer URL parameter.
func parseIDParam(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		v := validation.NewValidator()
		v.Custom(key, false, "Invalid identifier")
		return 0, v.Errors()
	}
	return id, nil
}
