package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// BookingEventsQueue is the durable queue all lifecycle events go to.
const BookingEventsQueue = "booking.events"

const (
	publishTimeout = 3 * time.Second
	// dialTimeout bounds the TCP connect and AMQP handshake.
	dialTimeout = 3 * time.Second
	minRedial   = time.Second
	maxRedial   = 30 * time.Second
)

// ErrBrokerUnavailable is returned without touching the network while the
// publisher waits out the redial backoff after a failed dial.
var ErrBrokerUnavailable = errors.New("rabbitmq unavailable")

// Publisher sends BookingEvents to RabbitMQ.  The connection is opened
// lazily and reopened after a failure.  A failed dial starts an
// exponential backoff during which Publish fails fast, so a dead broker
// costs callers at most one bounded dial per backoff window.
type Publisher struct {
	url  string
	log  *zap.Logger
	dial func(url string) (*amqp.Connection, error)
	now  func() time.Time

	mu      sync.Mutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	backoff time.Duration
	retryAt time.Time
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{url: url, log: log, dial: dialBroker, now: time.Now}
}

func dialBroker(url string) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
}

// Publish marshals ev and sends it as a persistent message on the default
// exchange, routed to BookingEventsQueue.
func (p *Publisher) Publish(ctx context.Context, ev BookingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	err = ch.PublishWithContext(ctx,
		"",                 // default exchange
		BookingEventsQueue, // routing key = queue name
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.ID,
			Type:         ev.Type,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
	if err != nil {
		p.reset()
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// channel returns an open channel, dialling when needed.  Callers hold p.mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	if p.url == "" {
		return nil, errors.New("rabbitmq url not configured")
	}
	if now := p.now(); now.Before(p.retryAt) {
		return nil, fmt.Errorf("%w: next dial in %s", ErrBrokerUnavailable, p.retryAt.Sub(now).Round(time.Millisecond))
	}
	conn, err := p.dial(p.url)
	if err != nil {
		return nil, p.failed(fmt.Errorf("dial broker: %w", err))
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, p.failed(fmt.Errorf("channel open: %w", err))
	}
	if _, err := ch.QueueDeclare(BookingEventsQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, p.failed(fmt.Errorf("queue declare: %w", err))
	}
	p.conn, p.ch = conn, ch
	p.backoff, p.retryAt = 0, time.Time{}
	p.log.Info("rabbitmq publisher connected", zap.String("queue", BookingEventsQueue))
	return ch, nil
}

// failed schedules the next dial attempt and returns err.
func (p *Publisher) failed(err error) error {
	switch {
	case p.backoff == 0:
		p.backoff = minRedial
	case p.backoff < maxRedial:
		p.backoff = min(2*p.backoff, maxRedial)
	}
	p.retryAt = p.now().Add(p.backoff)
	p.log.Warn("rabbitmq publisher unavailable", zap.Error(err), zap.Duration("retry_in", p.backoff))
	return err
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}
