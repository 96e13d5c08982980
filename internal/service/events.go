package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// WorkflowEvent describes one applied assignment transition. Consumers drive
// notifications and activity feeds off this stream.
type WorkflowEvent struct {
	AssignmentID uint      `json:"assignment_id"`
	StudentID    uint      `json:"student_id"`
	Action       string    `json:"action"`
	Status       string    `json:"status"`
	ActorID      uint      `json:"actor_id"`
	ActorRole    string    `json:"actor_role"`
	OccurredAt   time.Time `json:"occurred_at"`
	Node         string    `json:"node"`
	Correlation  string    `json:"correlation_id,omitempty"`
}

// EventPublisher emits workflow events to NATS. A nil connection disables
// publishing; event delivery is best-effort and never fails the mutation.
type EventPublisher struct {
	conn    *nats.Conn
	subject string
	nodeID  string
	logger  zerolog.Logger
}

// NewEventPublisher constructs a publisher bound to the given subject.
func NewEventPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) *EventPublisher {
	if subject == "" {
		subject = "coursework.assignments.events"
	}

	return &EventPublisher{
		conn:    conn,
		subject: subject,
		nodeID:  uuid.NewString(),
		logger:  logger.With().Str("component", "event_publisher").Logger(),
	}
}

// Publish sends one event. Failures are logged and swallowed.
func (p *EventPublisher) Publish(event WorkflowEvent) {
	if p == nil || p.conn == nil {
		return
	}

	event.Node = p.nodeID
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to encode workflow event")
		return
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.logger.Warn().Err(err).Str("subject", p.subject).Msg("failed to publish workflow event")
	}
}
