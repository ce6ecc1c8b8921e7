package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/polkiloo/marketplace/internal/domain/model"
	"github.com/polkiloo/marketplace/internal/usecase"
)

const (
	ExchangeName = "receipts"
	RoutingKey   = "receipt.email"
	QueueName    = "receipt.email.q"
)

// ErrNacked reports that the broker refused to take ownership of a message.
var ErrNacked = errors.New("broker nacked publication")

// Confirmation is the pending broker answer for one publication.
// *amqp.DeferredConfirmation satisfies it.
type Confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

// Publisher publishes on a channel in confirm mode.
type Publisher interface {
	PublishConfirmed(ctx context.Context, exchange, key string, msg amqp.Publishing) (Confirmation, error)
}

// ChannelPublisher adapts *amqp.Channel to Publisher.
type ChannelPublisher struct {
	Channel *amqp.Channel
}

// PublishConfirmed publishes msg and returns its deferred confirmation.
func (p ChannelPublisher) PublishConfirmed(ctx context.Context, exchange, key string, msg amqp.Publishing) (Confirmation, error) {
	dc, err := p.Channel.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
	if err != nil {
		return nil, err
	}
	if dc == nil {
		return nil, errors.New("channel is not in confirm mode")
	}
	return dc, nil
}

// Topology is the subset of *amqp.Channel used to declare routing.
type Topology interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Confirm(noWait bool) error
}

// message is the payload consumed by the mailer.
type message struct {
	OrderID     int64  `json:"order_id"`
	PaymentID   int64  `json:"payment_id"`
	Email       string `json:"email"`
	DocumentURL string `json:"document_url"`
}

// RabbitNotifier hands receipt e-mails to the mailer through RabbitMQ.
type RabbitNotifier struct {
	pub    Publisher
	logger *slog.Logger
}

// DeclareTopology sets up the exchange, queue and binding once at startup
// and switches the channel to confirm mode.
func DeclareTopology(ch Topology) error {
	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare(QueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, RoutingKey, ExchangeName, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		return fmt.Errorf("enable confirm mode: %w", err)
	}
	return nil
}

// NewRabbitNotifier constructs RabbitNotifier.
func NewRabbitNotifier(pub Publisher, logger *slog.Logger) *RabbitNotifier {
	return &RabbitNotifier{pub: pub, logger: logger}
}

// SendReceipt publishes a persistent receipt e-mail request and waits for the
// broker to confirm it.
func (n *RabbitNotifier) SendReceipt(ctx context.Context, receipt model.ReceiptNotification) error {
	body, err := json.Marshal(message{
		OrderID:     receipt.OrderID,
		PaymentID:   receipt.PaymentID,
		Email:       receipt.Email,
		DocumentURL: receipt.DocumentURL,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    fmt.Sprintf("receipt-%d", receipt.PaymentID),
		Body:         body,
	}
	confirm, err := n.pub.PublishConfirmed(ctx, ExchangeName, RoutingKey, pub)
	if err != nil {
		return fmt.Errorf("publish receipt: %w", err)
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("await receipt confirm: %w", err)
	}
	if !acked {
		return fmt.Errorf("publish receipt %s: %w", pub.MessageId, ErrNacked)
	}

	n.logger.Debug("receipt published", slog.Int64("order_id", receipt.OrderID), slog.Int64("notification_id", receipt.ID))
	return nil
}

var _ usecase.Notifier = (*RabbitNotifier)(nil)

var (
	_ Publisher    = ChannelPublisher{}
	_ Confirmation = (*amqp.DeferredConfirmation)(nil)
)
