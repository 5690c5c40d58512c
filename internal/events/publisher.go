// Package events fans grading events out to redis pub/sub and NATS.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/observability"
)

// Type names a grading event.
type Type string

const (
	TypeSubmissionCreated  Type = "submission.created"
	TypeResultRegraded     Type = "result.regraded"
	TypeCertificateIssued  Type = "certificate.issued"
	TypeCertificateRevoked Type = "certificate.revoked"
)

// Event is the payload published for every grading state change.
type Event struct {
	ID            string    `json:"id"`
	Type          Type      `json:"type"`
	Source        string    `json:"source"`
	CorrelationID string    `json:"correlationId,omitempty"`
	AssignmentID  uint      `json:"assignmentId,omitempty"`
	StudentID     uint      `json:"studentId"`
	CourseID      uint      `json:"courseId,omitempty"`
	ResultID      *uint     `json:"resultId,omitempty"`
	CertificateID *uint     `json:"certificateId,omitempty"`
	Percentage    int       `json:"percentage"`
	ScaledScore   int       `json:"scaledScore"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Publisher hands grading events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// BrokerPublisher publishes to a redis channel and a NATS subject when they are configured.
type BrokerPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	nodeID       string
	logger       zerolog.Logger
	now          func() time.Time
}

// NewBrokerPublisher builds a publisher. channelBase uses ':' separators ("gema:grading");
// NATS subjects are derived by swapping them for dots and appending the event type.
func NewBrokerPublisher(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) *BrokerPublisher {
	channelBase = strings.TrimSpace(channelBase)
	if channelBase == "" {
		channelBase = "gema:grading"
	}

	return &BrokerPublisher{
		redis:        redisClient,
		redisChannel: channelBase,
		nats:         natsConn,
		natsSubject:  strings.ReplaceAll(channelBase, ":", "."),
		nodeID:       uuid.NewString(),
		logger:       logger.With().Str("component", "grading_events").Logger(),
		now:          time.Now,
	}
}

// Publish stamps the event and sends it to every configured broker.
func (p *BrokerPublisher) Publish(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.now().UTC()
	}
	event.Source = p.nodeID
	if event.CorrelationID == "" {
		event.CorrelationID = observability.CorrelationIDFromContext(ctx)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}

	var errs []error
	if p.redis != nil {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis publish: %w", err))
		}
	}

	if p.nats != nil {
		subject := p.natsSubject + "." + string(event.Type)
		if err := p.nats.Publish(subject, payload); err != nil {
			errs = append(errs, fmt.Errorf("nats publish: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		observability.EventsPublishedTotal().WithLabelValues(string(event.Type), "error").Inc()
		p.logger.Warn().Err(err).Str("event_type", string(event.Type)).Msg("failed to publish grading event")
		return err
	}

	observability.EventsPublishedTotal().WithLabelValues(string(event.Type), "ok").Inc()
	return nil
}
