package service

import (
	"context"
	"time"

	"mitanda/internal/queue"

	"go.uber.org/zap"
)

// OrdenPublisher publishes order-confirmed events; satisfied by
// queue.Publisher and by stubs in tests.
type OrdenPublisher interface {
	PublishOrdenConfirmada(ctx context.Context, event queue.OrdenConfirmadaEvent) error
}

// OrdenResumen is what the reconciler hands to the dispatcher after the
// financial writes committed.
type OrdenResumen struct {
	OrdenID       uint
	NombreCliente string
	EmailCliente  string
	Tipo          string
	Items         []queue.ItemResumen
	TotalCents    int64
}

// NotificationService dispatches customer and admin order notifications
// through the broker. Both calls are fire-and-forget from the caller's
// perspective: errors are logged and returned, and callers must not let them
// fail the enclosing operation.
type NotificationService struct {
	publisher OrdenPublisher
	log       *zap.Logger
}

func NewNotificationService(publisher OrdenPublisher, log *zap.Logger) *NotificationService {
	return &NotificationService{publisher: publisher, log: log}
}

func (s *NotificationService) NotifyCustomer(ctx context.Context, resumen *OrdenResumen) error {
	return s.publish(ctx, resumen, queue.DestinatarioCliente)
}

func (s *NotificationService) NotifyAdmin(ctx context.Context, resumen *OrdenResumen) error {
	return s.publish(ctx, resumen, queue.DestinatarioAdmin)
}

func (s *NotificationService) publish(ctx context.Context, resumen *OrdenResumen, destinatario string) error {
	event := queue.OrdenConfirmadaEvent{
		OrdenID:       resumen.OrdenID,
		Destinatario:  destinatario,
		NombreCliente: resumen.NombreCliente,
		EmailCliente:  resumen.EmailCliente,
		Tipo:          resumen.Tipo,
		Items:         resumen.Items,
		TotalCents:    resumen.TotalCents,
		ConfirmadaEn:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.publisher.PublishOrdenConfirmada(ctx, event); err != nil {
		s.log.Warn("notificación no publicada",
			zap.Uint("orden_id", resumen.OrdenID),
			zap.String("destinatario", destinatario),
			zap.Error(err))
		return err
	}
	return nil
}
