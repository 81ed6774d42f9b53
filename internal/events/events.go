// Package events публикует доменные события приложения во внешний брокер.
//
// Событие не влияет на результат операции: ошибку публикации логирует вызывающий сервис.
// Когда брокер выключен в конфиге, используется Noop.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/ghibli-explorer/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/ghibli-explorer/internal/lib/sl"
)

// Ключи маршрутизации событий.
const (
	UserRegistered   = "user.registered"
	ReviewCreated    = "review.created"
	ReviewEdited     = "review.edited"
	ReviewDeleted    = "review.deleted"
	FavouriteAdded   = "favourite.added"
	FavouriteRemoved = "favourite.removed"
)

// Event конверт публикуемого сообщения.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Publisher отправляет событие с указанным ключом маршрутизации.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Noop ничего не публикует.
type Noop struct{}

// Publish реализует Publisher.
func (Noop) Publish(context.Context, string, any) error { return nil }

// AMQPPublisher публикует события в topic-обменник RabbitMQ.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       rabbitmq.Channel
	closer   func() error
	exchange string
	log      *slog.Logger
}

// NewAMQPPublisher подключается к брокеру и объявляет обменник.
func NewAMQPPublisher(url, exchange string, log *slog.Logger) (*AMQPPublisher, error) {
	const op = "events.NewAMQPPublisher"

	conn, err := rabbitmq.Connect(url, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, exchange)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("events publisher connected", slog.String("exchange", exchange))
	return &AMQPPublisher{
		conn:     conn,
		ch:       ch,
		closer:   ch.Close,
		exchange: exchange,
		log:      log,
	}, nil
}

// Publish сериализует событие и отправляет его в обменник.
// Канал amqp не потокобезопасен для публикации, поэтому вызовы сериализуются.
func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	const op = "events.Publish"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	event := Event{Type: routingKey, OccurredAt: time.Now().UTC(), Payload: payload}
	if err := rabbitmq.PublishMessage(p.ch, p.exchange, routingKey, event); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает канал и соединение.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closer != nil {
		if err := p.closer(); err != nil {
			p.log.Warn("failed to close events channel", sl.Err(err))
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
