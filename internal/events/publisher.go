// Package events publishes session progress and profile changes to an AMQP
// topic exchange so other services can follow a session.
package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"

	"github.com/jonathan/career-navigator/internal/pipeline"
	"github.com/jonathan/career-navigator/internal/types"
)

// DefaultExchange is the topic exchange session updates are published to
const DefaultExchange = "session_updates"

// Event types
const (
	TypeProgress = "progress"
	TypeProfile  = "profile"
)

// Event is the message body published for every update
type Event struct {
	SessionID string         `json:"session_id"`
	Type      string         `json:"type"`
	Stage     string         `json:"stage,omitempty"`
	Status    string         `json:"status,omitempty"`
	Message   string         `json:"message,omitempty"`
	Epoch     uint64         `json:"epoch,omitempty"`
	Profile   *types.Profile `json:"profile,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Channel is the subset of *amqp.Channel the publisher needs
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends events for one session. It is safe for concurrent use.
type Publisher struct {
	mu        sync.Mutex
	ch        Channel
	conn      *amqp.Connection
	exchange  string
	sessionID string
	now       func() time.Time
}

// Dial connects to the broker, declares the exchange and returns a publisher
func Dial(url, exchange, sessionID string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("error dialling rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("error opening rabbitmq channel: %w", err)
	}

	p, err := NewPublisher(ch, exchange, sessionID)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewPublisher declares the exchange on an open channel
func NewPublisher(ch Channel, exchange, sessionID string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-delete
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &Publisher{
		ch:        ch,
		exchange:  exchange,
		sessionID: sessionID,
		now:       time.Now,
	}, nil
}

// RoutingKey is the key every event of the session is published under
func (p *Publisher) RoutingKey() string {
	return fmt.Sprintf("session.%s", p.sessionID)
}

// Publish sends one event. SessionID and Timestamp are filled in.
func (p *Publisher) Publish(event Event) error {
	event.SessionID = p.sessionID
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.Publish(
		p.exchange,
		p.RoutingKey(),
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   event.Timestamp,
			Body:        body,
		},
	)
}

// OnProgress adapts the publisher to a pipeline progress callback.
// Publish failures are logged, never returned to the pipeline.
func (p *Publisher) OnProgress() pipeline.ProgressCallback {
	return func(e pipeline.ProgressEvent) {
		err := p.Publish(Event{
			Type:    TypeProgress,
			Stage:   string(e.Stage),
			Status:  e.Status,
			Message: e.Message,
			Epoch:   e.Epoch,
		})
		if err != nil {
			log.Warn().Err(err).Str("session_id", p.sessionID).Str("stage", string(e.Stage)).Msg("failed to publish progress")
		}
	}
}

// OnProfile adapts the publisher to a profile listener
func (p *Publisher) OnProfile() func(types.Profile) {
	return func(profile types.Profile) {
		if err := p.Publish(Event{Type: TypeProfile, Profile: &profile}); err != nil {
			log.Warn().Err(err).Str("session_id", p.sessionID).Msg("failed to publish profile")
		}
	}
}

// Close closes the channel and, when the publisher dialled it, the connection
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
