package queue

import (
	"context"
	"encoding/json"
	"testing"

	"mitanda/config"
	"mitanda/pkg/mailer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memMailer struct {
	sent []mailer.Message
	err  error
}

func (m *memMailer) Send(ctx context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func testMailConfig() *config.MailConfig {
	return &config.MailConfig{
		FromAddress:  "Mi Tanda <pedidos@mitanda.mx>",
		AdminAddress: "admin@mitanda.mx",
	}
}

func TestConsumerHandleMessage(t *testing.T) {
	event := OrdenConfirmadaEvent{
		OrdenID:       42,
		NombreCliente: "María",
		EmailCliente:  "maria@test.mx",
		Tipo:          "tanda",
		Items:         []ItemResumen{{Nombre: "Tanda 500, turno 4", Cantidad: 1, MontoCents: 50000}},
		TotalCents:    50000,
		ConfirmadaEn:  "2026-08-30T12:00:00Z",
	}

	t.Run("customer email goes to the buyer", func(t *testing.T) {
		m := &memMailer{}
		c := NewConsumer("amqp://unused", m, testMailConfig(), zap.NewNop())

		ev := event
		ev.Destinatario = DestinatarioCliente
		body, _ := json.Marshal(ev)
		require.NoError(t, c.handleMessage(context.Background(), body))

		require.Len(t, m.sent, 1)
		assert.Equal(t, "maria@test.mx", m.sent[0].To)
		assert.Contains(t, m.sent[0].Subject, "#42")
		assert.Contains(t, m.sent[0].HTML, "Tanda 500, turno 4")
		assert.Contains(t, m.sent[0].HTML, "$500.00 MXN")
	})

	t.Run("admin email goes to the configured address", func(t *testing.T) {
		m := &memMailer{}
		c := NewConsumer("amqp://unused", m, testMailConfig(), zap.NewNop())

		ev := event
		ev.Destinatario = DestinatarioAdmin
		body, _ := json.Marshal(ev)
		require.NoError(t, c.handleMessage(context.Background(), body))

		require.Len(t, m.sent, 1)
		assert.Equal(t, "admin@mitanda.mx", m.sent[0].To)
		assert.Contains(t, m.sent[0].Subject, "Nueva venta")
	})

	t.Run("malformed body is an error so it gets rejected", func(t *testing.T) {
		c := NewConsumer("amqp://unused", &memMailer{}, testMailConfig(), zap.NewNop())
		assert.Error(t, c.handleMessage(context.Background(), []byte("{broken")))
	})

	t.Run("mailer failure propagates", func(t *testing.T) {
		m := &memMailer{err: assert.AnError}
		c := NewConsumer("amqp://unused", m, testMailConfig(), zap.NewNop())

		ev := event
		ev.Destinatario = DestinatarioCliente
		body, _ := json.Marshal(ev)
		assert.Error(t, c.handleMessage(context.Background(), body))
	})
}
