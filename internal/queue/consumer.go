package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"mitanda/config"
	"mitanda/pkg/mailer"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Consumer listens on orden.confirmada and delivers the corresponding
// customer/admin emails. It reconnects with backoff and never takes the
// process down; a message that cannot be handled is rejected without requeue
// to avoid tight redelivery loops.
type Consumer struct {
	url    string
	mailer mailer.Mailer
	cfg    *config.MailConfig
	log    *zap.Logger
}

func NewConsumer(url string, m mailer.Mailer, cfg *config.MailConfig, log *zap.Logger) *Consumer {
	return &Consumer{url: url, mailer: m, cfg: cfg, log: log}
}

// Start runs the consume loop until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("orden-consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
		if err := c.consumeLoop(ctx, conn); err != nil {
			c.log.Warn("orden-consumer: consume loop ended", zap.Error(err))
		}
		_ = conn.Close()
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(20, 0, false); err != nil {
		c.log.Warn("orden-consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(ordenQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(ordenQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleMessage(ctx, d.Body); err != nil {
				c.log.Warn("orden-consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, body []byte) error {
	var ev OrdenConfirmadaEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	msg := mailer.Message{From: c.cfg.FromAddress}
	switch ev.Destinatario {
	case DestinatarioAdmin:
		msg.To = c.cfg.AdminAddress
		msg.Subject = fmt.Sprintf("Nueva venta #%d (%s)", ev.OrdenID, ev.Tipo)
	default:
		msg.To = ev.EmailCliente
		msg.Subject = fmt.Sprintf("Confirmación de compra #%d", ev.OrdenID)
	}
	msg.HTML = renderOrdenHTML(&ev)
	if err := c.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %s: %w", ev.Destinatario, err)
	}
	c.log.Info("orden-consumer: email enviado",
		zap.Uint("orden_id", ev.OrdenID),
		zap.String("destinatario", ev.Destinatario),
		zap.String("to", msg.To))
	return nil
}

func renderOrdenHTML(ev *OrdenConfirmadaEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>¡Gracias por tu compra, %s!</h2>", ev.NombreCliente)
	if ev.Destinatario == DestinatarioAdmin {
		b.Reset()
		fmt.Fprintf(&b, "<h2>Nueva venta de %s (%s)</h2>", ev.NombreCliente, ev.EmailCliente)
	}
	fmt.Fprintf(&b, "<p>Orden <strong>#%d</strong> (%s)</p>", ev.OrdenID, ev.ConfirmadaEn)
	b.WriteString("<table><tr><th>Artículo</th><th>Cantidad</th><th>Importe</th></tr>")
	for _, item := range ev.Items {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%d</td><td>$%.2f MXN</td></tr>",
			item.Nombre, item.Cantidad, float64(item.MontoCents)/100)
	}
	b.WriteString("</table>")
	fmt.Fprintf(&b, "<p><strong>Total: $%.2f MXN</strong></p>", float64(ev.TotalCents)/100)
	return b.String()
}
