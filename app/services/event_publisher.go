package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

// EventCampaignScheduled announces a campaign left for the external scheduler
const EventCampaignScheduled = "campaign.scheduled"

// CampaignScheduledEvent is the payload of EventCampaignScheduled
type CampaignScheduledEvent struct {
	Event              string     `json:"event"`
	CampaignID         uint       `json:"campaign_id"`
	CampaignUUID       string     `json:"campaign_uuid"`
	UserID             uint       `json:"user_id"`
	ScheduleType       string     `json:"schedule_type"`
	ScheduledAt        *time.Time `json:"scheduled_at,omitempty"`
	Timezone           string     `json:"timezone,omitempty"`
	RecurringFrequency string     `json:"recurring_frequency,omitempty"`
	RecurringDays      []string   `json:"recurring_days,omitempty"`
	OccurredAt         time.Time  `json:"occurred_at"`
}

// EventPublisher hands campaign events to the message queue
type EventPublisher interface {
	PublishCampaignScheduled(ctx context.Context, event CampaignScheduledEvent) error
	Close() error
}

// AMQPPublisher publishes persistent JSON messages to a durable queue
type AMQPPublisher struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// NewAMQPPublisher dials the broker and declares the queue
func NewAMQPPublisher(url, queue string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to queue: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open queue channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &AMQPPublisher{conn: conn, ch: ch, queue: queue}, nil
}

func (p *AMQPPublisher) PublishCampaignScheduled(ctx context.Context, event CampaignScheduledEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := encodeScheduledEvent(event)
	if err != nil {
		return err
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ch.Publish(
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
			Type:         event.Event,
			Body:         body,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.Close(); err != nil {
		log.Printf("Failed to close queue channel: %v", err)
	}
	return p.conn.Close()
}

func encodeScheduledEvent(event CampaignScheduledEvent) ([]byte, error) {
	if event.Event == "" {
		event.Event = EventCampaignScheduled
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}
	return body, nil
}

// NoopPublisher is used when the queue is disabled; it only logs
type NoopPublisher struct {
	mu     sync.Mutex
	Events []CampaignScheduledEvent
}

func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (p *NoopPublisher) PublishCampaignScheduled(ctx context.Context, event CampaignScheduledEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Events = append(p.Events, event)
	log.Printf("Queue disabled, %s event for campaign %d not published", EventCampaignScheduled, event.CampaignID)
	return nil
}

func (p *NoopPublisher) Close() error {
	return nil
}

// Published returns a copy of the recorded events
func (p *NoopPublisher) Published() []CampaignScheduledEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]CampaignScheduledEvent(nil), p.Events...)
}
