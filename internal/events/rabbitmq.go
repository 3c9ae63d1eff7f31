package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const dialTimeout = 10 * time.Second

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher publishes transfer status changes as JSON to a durable
// topic exchange. A failed publish reopens the channel and retries once.
type RabbitPublisher struct {
	conn     *amqp.Connection
	exchange string
	logger   *slog.Logger

	mu     sync.Mutex
	ch     channel
	reopen func() (channel, error)
	now    func() time.Time
}

func NewRabbitPublisher(url, exchange string, logger *slog.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		return nil, fmt.Errorf("NewRabbitPublisher: dial: %w", err)
	}

	reopen := func() (channel, error) { return conn.Channel() }
	p, err := newRabbitPublisher(reopen, exchange, logger)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("NewRabbitPublisher: %w", err)
	}
	p.conn = conn
	return p, nil
}

func newRabbitPublisher(reopen func() (channel, error), exchange string, logger *slog.Logger) (*RabbitPublisher, error) {
	if exchange == "" {
		exchange = TransfersExchange
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &RabbitPublisher{
		exchange: exchange,
		logger:   logger,
		reopen:   reopen,
		now:      time.Now,
	}
	ch, err := p.open()
	if err != nil {
		return nil, err
	}
	p.ch = ch
	return p, nil
}

func (p *RabbitPublisher) open() (channel, error) {
	ch, err := p.reopen()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}
	return ch, nil
}

func (p *RabbitPublisher) PublishTransferStatus(ctx context.Context, event TransferStatusEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("PublishTransferStatus: marshal: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.TransferID.String() + ":" + event.Status,
		Timestamp:    p.now().UTC(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, p.exchange, event.RoutingKey(), false, false, msg)
	if err == nil {
		return nil
	}

	p.logger.Warn("publish failed, reopening channel",
		"exchange", p.exchange,
		"routing_key", event.RoutingKey(),
		"error", err,
	)
	ch, openErr := p.open()
	if openErr != nil {
		return fmt.Errorf("PublishTransferStatus: %w", openErr)
	}
	p.ch.Close()
	p.ch = ch

	if err := p.ch.PublishWithContext(ctx, p.exchange, event.RoutingKey(), false, false, msg); err != nil {
		return fmt.Errorf("PublishTransferStatus: retry: %w", err)
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if p.ch != nil {
		err = p.ch.Close()
	}
	if p.conn != nil {
		if cerr := p.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("Close: %w", err)
	}
	return nil
}
