package domain

import "github.com/google/uuid"

// EventType defines the type of real-time event.
type EventType string

const (
	EventTicketCreated  EventType = "TICKET_CREATED"
	EventStatusUpdated  EventType = "STATUS_UPDATED"
	EventTicketAssigned EventType = "TICKET_ASSIGNED"
	EventAlertTriggered EventType = "ALERT_TRIGGERED"
)

// Event is the payload sent over WebSocket.
type Event struct {
	Type     EventType   `json:"type"`
	Payload  interface{} `json:"payload"`
	TicketID uuid.UUID   `json:"ticketId"` // Used for routing to specific ticket "rooms"
}

// StatusUpdatedPayload is the payload for STATUS_UPDATED events.
type StatusUpdatedPayload struct {
	TicketID  uuid.UUID    `json:"ticketId"`
	OldStatus TicketStatus `json:"oldStatus"`
	NewStatus TicketStatus `json:"newStatus"`
}

// AlertTriggeredPayload is the payload for ALERT_TRIGGERED events.
type AlertTriggeredPayload struct {
	AlertID     int64           `json:"alertId"`
	Name        string          `json:"name"`
	MetricType  AlertMetricType `json:"metricType"`
	MetricValue float64         `json:"metricValue"`
	Threshold   float64         `json:"threshold"`
}
