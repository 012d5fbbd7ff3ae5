package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"jobportal/backend/internal/telemetry"
)

var tracer = telemetry.GetTracer("jobportal/events")

const DefaultSubject = "applications.submitted"

type ApplicationSubmitted struct {
	ApplicationID uint      `json:"application_id"`
	JobPostID     uint      `json:"job_post_id"`
	JobTitle      string    `json:"job_title"`
	EmployerID    uint      `json:"employer_id"`
	CandidateID   uint      `json:"candidate_id"`
	AnswerCount   int       `json:"answer_count"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

type Publisher interface {
	PublishApplicationSubmitted(ctx context.Context, event ApplicationSubmitted) error
	Close()
}

// Conn is the subset of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subject string, data []byte) error
	Close()
}

type natsPublisher struct {
	conn    Conn
	subject string
	logger  *zap.Logger
}

func Connect(url string, timeout time.Duration) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Timeout(timeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	}
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

func NewPublisher(conn Conn, subject string, logger *zap.Logger) Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &natsPublisher{conn: conn, subject: subject, logger: logger}
}

func (p *natsPublisher) PublishApplicationSubmitted(ctx context.Context, event ApplicationSubmitted) error {
	_, span := tracer.Start(ctx, "PublishApplicationSubmitted")
	defer span.End()

	data, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	span.SetAttributes(
		telemetry.String("nats.subject", p.subject),
		telemetry.Int("message.size", len(data)),
	)

	if err := p.conn.Publish(p.subject, data); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to publish to NATS: %w", err)
	}

	p.logger.Debug("published application event",
		zap.Uint("application_id", event.ApplicationID),
		zap.String("subject", p.subject))
	return nil
}

func (p *natsPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
