package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	mw "github.com/helpdex/helpdesk-backend/internal/adapters/primary/http/middleware"
	"github.com/helpdex/helpdesk-backend/internal/adapters/primary/validation"
	"github.com/helpdex/helpdesk-backend/internal/auth"
	"github.com/helpdex/helpdesk-backend/internal/core/domain"
	"github.com/helpdex/helpdesk-backend/internal/core/ports"
)

const (
	defaultAlertHistoryLimit = 50
	maxAlertHistoryLimit     = 200
)

// AlertHandler handles the metric alert CRUD and firing-history endpoints.
type AlertHandler struct {
	alerts       ports.MetricAlertService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(
	alerts ports.MetricAlertService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *AlertHandler {
	return &AlertHandler{
		alerts:       alerts,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "alert"),
	}
}

// Router sets up a new chi Router for the alert routes.
func (h *AlertHandler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.HandleListAlerts)
	r.Post("/", h.HandleCreateAlert)

	r.Route("/{alertID}", func(r chi.Router) {
		r.Get("/", h.HandleGetAlert)
		r.Put("/", h.HandleUpdateAlert)
		r.Delete("/", h.HandleDeleteAlert)
		r.Get("/history", h.HandleAlertHistory)
	})
	return r
}

// --- Request/Response DTOs ---

// CreateAlertRequest defines the expected JSON body for creating an alert.
type CreateAlertRequest struct {
	Name       string  `json:"name"`
	MetricType string  `json:"metricType"`
	Condition  string  `json:"condition"`
	Threshold  float64 `json:"threshold"`
	Email      string  `json:"email"`
}

// Validate validates the create alert request
func (r *CreateAlertRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("name", r.Name).
		MaxLength("name", r.Name, 255)

	v.Required("metricType", r.MetricType).
		OneOf("metricType", r.MetricType, []string{
			"open_tickets", "high_priority_tickets", "response_time", "resolution_time",
		})

	v.Required("condition", r.Condition).
		OneOf("condition", r.Condition, []string{">", ">=", "<", "<=", "="})

	v.Required("email", r.Email).
		Email("email", r.Email)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdateAlertRequest defines the expected JSON body for updating an alert.
// The metric type of an existing alert cannot change; absent fields are
// left unchanged.
type UpdateAlertRequest struct {
	Name      *string  `json:"name"`
	Condition *string  `json:"condition"`
	Threshold *float64 `json:"threshold"`
	Email     *string  `json:"email"`
	Active    *bool    `json:"active"`
}

// Validate validates the update alert request
func (r *UpdateAlertRequest) Validate() error {
	v := validation.NewValidator()

	if r.Name != nil {
		v.Required("name", *r.Name).
			MaxLength("name", *r.Name, 255)
	}
	if r.Condition != nil {
		v.OneOf("condition", *r.Condition, []string{">", ">=", "<", "<=", "="})
	}
	if r.Email != nil {
		v.Email("email", *r.Email)
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// MetricAlertDTO defines the JSON response for alerts.
type MetricAlertDTO struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	MetricType    string  `json:"metricType"`
	Condition     string  `json:"condition"`
	Threshold     float64 `json:"threshold"`
	Email         string  `json:"email"`
	Active        bool    `json:"active"`
	LastTriggered *string `json:"lastTriggered"`
	CreatedAt     string  `json:"createdAt"`
}

func toAlertDTO(alert *domain.MetricAlert) MetricAlertDTO {
	var lastTriggered *string
	if alert.LastTriggered != nil {
		value := alert.LastTriggered.Format(time.RFC3339)
		lastTriggered = &value
	}

	return MetricAlertDTO{
		ID:            alert.ID,
		Name:          alert.Name,
		MetricType:    string(alert.MetricType),
		Condition:     string(alert.Condition),
		Threshold:     alert.Threshold,
		Email:         alert.Email,
		Active:        alert.Active,
		LastTriggered: lastTriggered,
		CreatedAt:     alert.CreatedAt.Format(time.RFC3339),
	}
}

func toAlertDTOs(alerts []*domain.MetricAlert) []MetricAlertDTO {
	response := make([]MetricAlertDTO, 0, len(alerts))
	for _, alert := range alerts {
		response = append(response, toAlertDTO(alert))
	}
	return response
}

// AlertEventDTO defines the JSON response for one alert firing.
type AlertEventDTO struct {
	ID               int64   `json:"id"`
	AlertID          int64   `json:"alertId"`
	TriggeredAt      string  `json:"triggeredAt"`
	MetricValue      float64 `json:"metricValue"`
	NotificationSent bool    `json:"notificationSent"`
}

func toAlertEventDTOs(events []*domain.AlertEvent) []AlertEventDTO {
	response := make([]AlertEventDTO, 0, len(events))
	for _, event := range events {
		response = append(response, AlertEventDTO{
			ID:               event.ID,
			AlertID:          event.AlertID,
			TriggeredAt:      event.TriggeredAt.Format(time.RFC3339),
			MetricValue:      event.MetricValue,
			NotificationSent: event.NotificationSent,
		})
	}
	return response
}

// --- Handlers ---

// HandleListAlerts handles GET /alerts
func (h *AlertHandler) HandleListAlerts(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	alerts, err := h.alerts.ListForUser(r.Context(), claims.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toAlertDTOs(alerts))
}

// HandleCreateAlert handles POST /alerts
func (h *AlertHandler) HandleCreateAlert(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[CreateAlertRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	alert, err := h.alerts.Create(r.Context(), domain.MetricAlertParams{
		UserID:     claims.UserID,
		Name:       req.Name,
		MetricType: domain.AlertMetricType(req.MetricType),
		Condition:  domain.AlertCondition(req.Condition),
		Threshold:  req.Threshold,
		Email:      req.Email,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("metric alert created",
		"alert_id", alert.ID,
		"metric_type", alert.MetricType,
		"user_id", claims.UserID,
	)

	WriteCreated(w, toAlertDTO(alert))
}

// HandleGetAlert handles GET /alerts/{alertID}
func (h *AlertHandler) HandleGetAlert(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	alertID, err := parseIDParam(r, "alertID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	alert, err := h.alerts.Get(r.Context(), alertID, claims.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toAlertDTO(alert))
}

// HandleUpdateAlert handles PUT /alerts/{alertID}
func (h *AlertHandler) HandleUpdateAlert(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	alertID, err := parseIDParam(r, "alertID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[UpdateAlertRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.UpdateMetricAlertParams{
		Name:      req.Name,
		Threshold: req.Threshold,
		Email:     req.Email,
		Active:    req.Active,
	}
	if req.Condition != nil {
		condition := domain.AlertCondition(*req.Condition)
		params.Condition = &condition
	}

	alert, err := h.alerts.Update(r.Context(), alertID, claims.UserID, params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toAlertDTO(alert))
}

// HandleDeleteAlert handles DELETE /alerts/{alertID}
func (h *AlertHandler) HandleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	alertID, err := parseIDParam(r, "alertID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.alerts.Delete(r.Context(), alertID, claims.UserID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("metric alert deleted",
		"alert_id", alertID,
		"user_id", claims.UserID,
	)

	WriteNoContent(w)
}

// HandleAlertHistory handles GET /alerts/{alertID}/history
func (h *AlertHandler) HandleAlertHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	alertID, err := parseIDParam(r, "alertID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	limit := validation.ParseIntQueryParam(r, "limit", defaultAlertHistoryLimit)
	if limit <= 0 || limit > maxAlertHistoryLimit {
		limit = defaultAlertHistoryLimit
	}

	events, err := h.alerts.History(r.Context(), alertID, claims.UserID, limit)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toAlertEventDTOs(events))
}

// --- Helper methods ---

func (h *AlertHandler) getClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
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
