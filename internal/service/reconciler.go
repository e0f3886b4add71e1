package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"mitanda/config"
	"mitanda/internal/domain"
	"mitanda/internal/models"
	"mitanda/internal/queue"
	"mitanda/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CompletedSession is the slice of a checkout.session.completed event the
// reconciler needs. The gateway may deliver it more than once.
type CompletedSession struct {
	ID               string
	PaymentIntentID  string
	AmountTotalCents int64
	Metadata         map[string]string
}

// FatalWebhookError marks payloads that can never be processed, no matter
// how many times the gateway retries them. Handlers log the reason so the
// repeated deliveries are traceable to a broken payload, not a flaky store.
type FatalWebhookError struct {
	Reason string
}

func (e *FatalWebhookError) Error() string { return e.Reason }

func fatal(format string, args ...interface{}) error {
	return &FatalWebhookError{Reason: fmt.Sprintf(format, args...)}
}

// DisponibilidadBroadcaster pushes availability changes to connected
// storefront clients. Satisfied by ws.Hub.
type DisponibilidadBroadcaster interface {
	BroadcastDisponibilidad(tandaID uint, disponibles []int, disponible bool)
}

// ReconcilerService turns completed gateway sessions into durable state:
// the order row, tanda participations or stock decrements, and the outbound
// notifications. Every step tolerates redelivery; the unique index on
// stripe_session_id is the idempotence anchor.
type ReconcilerService struct {
	users         *repository.UserRepository
	tandas        *repository.TandaRepository
	participantes *repository.ParticipanteRepository
	productos     *repository.ProductoRepository
	ordenes       *repository.OrdenRepository
	capacidad     *CapacityService
	ledger        *LedgerService
	notificador   *NotificationService
	hub           DisponibilidadBroadcaster
	cfg           *config.Config
	log           *zap.Logger
}

func NewReconcilerService(
	users *repository.UserRepository,
	tandas *repository.TandaRepository,
	participantes *repository.ParticipanteRepository,
	productos *repository.ProductoRepository,
	ordenes *repository.OrdenRepository,
	capacidad *CapacityService,
	ledger *LedgerService,
	notificador *NotificationService,
	hub DisponibilidadBroadcaster,
	cfg *config.Config,
	log *zap.Logger,
) *ReconcilerService {
	return &ReconcilerService{
		users:         users,
		tandas:        tandas,
		participantes: participantes,
		productos:     productos,
		ordenes:       ordenes,
		capacidad:     capacidad,
		ledger:        ledger,
		notificador:   notificador,
		hub:           hub,
		cfg:           cfg,
		log:           log,
	}
}

// tandaPlan is a validated tanda purchase, ready for fan-out.
type tandaPlan struct {
	tanda   *models.Tanda
	numeros []int
}

// productosPlan is a validated product purchase, ready for fan-out.
type productosPlan struct {
	carrito []carritoItem
}

// ProcessCheckoutSession reconciles one completed session. Calling it twice
// with the same session ID performs the side effects exactly once. All
// payload validation happens before the order insert, so an error return
// means nothing was recorded for this session.
func (s *ReconcilerService) ProcessCheckoutSession(ctx context.Context, session *CompletedSession) error {
	if session.ID == "" {
		return fatal("sesión sin id")
	}

	// Cheap pre-check; the unique index below is what actually guarantees
	// exactly-once under concurrent redelivery.
	if _, err := s.ordenes.GetBySessionID(session.ID); err == nil {
		s.log.Info("sesión ya reconciliada", zap.String("session_id", session.ID))
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	userID, err := parseUserID(session.Metadata["userId"])
	if err != nil {
		return fatal("metadata userId inválida: %v", err)
	}
	user, err := s.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fatal("usuario %d no existe", userID)
		}
		return err
	}

	tipo := session.Metadata["tipo"]
	var planTanda *tandaPlan
	var planProductos *productosPlan
	switch tipo {
	case domain.TipoTanda:
		planTanda, err = s.planTanda(session)
	case domain.TipoProductos:
		planProductos, err = s.planProductos(session)
	default:
		return fatal("metadata tipo inválido: %q", tipo)
	}
	if err != nil {
		return err
	}

	metadataJSON, _ := json.Marshal(session.Metadata)
	orden := &models.Orden{
		UserID:                userID,
		Tipo:                  tipo,
		TotalCents:            session.AmountTotalCents,
		Estado:                domain.OrdenPagada,
		StripeSessionID:       session.ID,
		StripePaymentIntentID: session.PaymentIntentID,
		Metadata:              string(metadataJSON),
	}
	if err := s.ordenes.Create(orden); err != nil {
		if errors.Is(err, repository.ErrSesionProcesada) {
			// A concurrent delivery won the insert; its owner finishes the
			// fan-out.
			s.log.Info("sesión reconciliada por entrega concurrente", zap.String("session_id", session.ID))
			return nil
		}
		return err
	}

	// Fan-out errors past this point are per-item and logged, never
	// propagated: the payment is settled and the order row exists.
	var items []queue.ItemResumen
	if planTanda != nil {
		items = s.reconcileTanda(orden, user, planTanda, session.ID)
	} else {
		items = s.reconcileProductos(orden, planProductos, session)
	}

	resumen := &OrdenResumen{
		OrdenID:       orden.ID,
		NombreCliente: user.Nombre,
		EmailCliente:  user.Email,
		Tipo:          tipo,
		Items:         items,
		TotalCents:    orden.TotalCents,
	}
	if err := s.notificador.NotifyCustomer(ctx, resumen); err != nil {
		s.log.Warn("notificación al cliente falló", zap.Uint("orden_id", orden.ID), zap.Error(err))
	}
	if err := s.notificador.NotifyAdmin(ctx, resumen); err != nil {
		s.log.Warn("notificación al admin falló", zap.Uint("orden_id", orden.ID), zap.Error(err))
	}
	return nil
}

func (s *ReconcilerService) planTanda(session *CompletedSession) (*tandaPlan, error) {
	tandaID, err := parseTandaID(session.Metadata["tandaId"])
	if err != nil {
		return nil, fatal("metadata tandaId inválida: %v", err)
	}
	numeros, err := parseNumeros(session.Metadata["numerosSeleccionados"])
	if err != nil {
		return nil, fatal("metadata numerosSeleccionados inválida: %v", err)
	}
	tanda, err := s.tandas.GetByID(tandaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fatal("tanda %d no existe", tandaID)
		}
		return nil, err
	}
	return &tandaPlan{tanda: tanda, numeros: numeros}, nil
}

func (s *ReconcilerService) planProductos(session *CompletedSession) (*productosPlan, error) {
	var carrito []carritoItem
	if raw := session.Metadata["carrito"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &carrito); err != nil {
			return nil, fatal("metadata carrito inválida: %v", err)
		}
	}
	if len(carrito) == 0 {
		return nil, fatal("metadata carrito vacía")
	}
	return &productosPlan{carrito: carrito}, nil
}

// reconcileTanda inserts one participation per purchased slot. Each insert is
// independently guarded by the (tanda_id, turno) unique index, so a slot sold
// elsewhere between checkout and webhook is skipped and logged rather than
// failing the whole order.
func (s *ReconcilerService) reconcileTanda(orden *models.Orden, user *models.User, plan *tandaPlan, sessionID string) []queue.ItemResumen {
	tandaID := plan.tanda.ID
	asignados := make([]int, 0, len(plan.numeros))
	for _, numero := range plan.numeros {
		// Checkout already validates the range, but the metadata is attacker
		// adjacent; a slot past capacity must never become a participation.
		if numero < 1 || numero > plan.tanda.ParticipantesMax {
			s.log.Warn("turno fuera de rango al reconciliar, omitido",
				zap.Uint("tanda_id", tandaID), zap.Int("turno", numero),
				zap.Int("participantes_max", plan.tanda.ParticipantesMax),
				zap.String("session_id", sessionID))
			continue
		}
		if max := s.cfg.Tanda.MaxTurnosPorUsuario; max > 0 {
			actuales, err := s.participantes.CountByUser(tandaID, user.ID)
			if err != nil {
				s.log.Error("conteo de turnos falló, turno omitido",
					zap.Uint("tanda_id", tandaID), zap.Int("turno", numero), zap.Error(err))
				continue
			}
			if actuales >= int64(max) {
				s.log.Warn("límite de turnos por usuario alcanzado",
					zap.Uint("tanda_id", tandaID), zap.Uint("user_id", user.ID), zap.Int("turno", numero))
				continue
			}
		}
		err := s.participantes.Create(&models.TandaParticipante{
			TandaID:      tandaID,
			UserID:       user.ID,
			Turno:        numero,
			Estado:       domain.ParticipanteActivo,
			FechaIngreso: time.Now(),
		})
		if err != nil {
			if errors.Is(err, repository.ErrTurnoOcupado) {
				s.log.Warn("turno ya ocupado al reconciliar, omitido",
					zap.Uint("tanda_id", tandaID), zap.Int("turno", numero),
					zap.String("session_id", sessionID))
			} else {
				s.log.Error("alta de participación falló",
					zap.Uint("tanda_id", tandaID), zap.Int("turno", numero), zap.Error(err))
			}
			continue
		}
		asignados = append(asignados, numero)
	}

	estado, err := s.capacidad.Refresh(tandaID)
	if err != nil {
		s.log.Error("refresh de capacidad falló tras reconciliar",
			zap.Uint("tanda_id", tandaID), zap.Error(err))
	} else if s.hub != nil {
		if numeros, err := s.ledger.Compute(tandaID); err == nil {
			s.hub.BroadcastDisponibilidad(tandaID, numeros.Disponibles, estado.Disponible)
		}
	}

	s.log.Info("orden de tanda reconciliada",
		zap.Uint("orden_id", orden.ID),
		zap.Uint("tanda_id", tandaID),
		zap.Ints("solicitados", plan.numeros),
		zap.Ints("asignados", asignados))

	items := make([]queue.ItemResumen, 0, len(asignados))
	for _, numero := range asignados {
		items = append(items, queue.ItemResumen{
			Nombre:     fmt.Sprintf("%s, turno %d", plan.tanda.Nombre, numero),
			Cantidad:   1,
			MontoCents: plan.tanda.MontoCents,
		})
	}
	return items
}

// reconcileProductos materializes order items from the cart snapshot and
// decrements stock. A shortfall on one product is logged and skipped; the
// customer already paid and support resolves the difference manually.
func (s *ReconcilerService) reconcileProductos(orden *models.Orden, plan *productosPlan, session *CompletedSession) []queue.ItemResumen {
	items := make([]queue.ItemResumen, 0, len(plan.carrito))
	for _, linea := range plan.carrito {
		if err := s.ordenes.CreateItem(&models.OrdenItem{
			OrdenID:     orden.ID,
			ProductoID:  linea.ProductoID,
			Nombre:      linea.Nombre,
			Cantidad:    linea.Cantidad,
			PrecioCents: linea.PrecioCents,
		}); err != nil {
			s.log.Error("alta de item falló",
				zap.Uint("orden_id", orden.ID), zap.Uint("producto_id", linea.ProductoID), zap.Error(err))
			continue
		}
		if err := s.productos.DecrementStock(linea.ProductoID, linea.Cantidad); err != nil {
			if errors.Is(err, repository.ErrStockInsuficiente) {
				s.log.Warn("stock insuficiente al reconciliar",
					zap.Uint("producto_id", linea.ProductoID),
					zap.Int("cantidad", linea.Cantidad),
					zap.String("session_id", session.ID))
			} else {
				s.log.Error("decremento de stock falló",
					zap.Uint("producto_id", linea.ProductoID), zap.Error(err))
			}
			continue
		}
		items = append(items, queue.ItemResumen{
			Nombre:     linea.Nombre,
			Cantidad:   linea.Cantidad,
			MontoCents: linea.PrecioCents * int64(linea.Cantidad),
		})
	}

	if raw := session.Metadata["direccion_envio"]; raw != "" {
		var dir models.DireccionEnvio
		if err := json.Unmarshal([]byte(raw), &dir); err != nil {
			s.log.Warn("direccion_envio ilegible", zap.Uint("orden_id", orden.ID), zap.Error(err))
		} else {
			dir.ID = 0
			dir.OrdenID = orden.ID
			if err := s.ordenes.CreateDireccion(&dir); err != nil {
				s.log.Warn("dirección de envío no guardada", zap.Uint("orden_id", orden.ID), zap.Error(err))
			}
		}
	}

	s.log.Info("orden de productos reconciliada",
		zap.Uint("orden_id", orden.ID), zap.Int("lineas", len(plan.carrito)))
	return items
}

func parseUserID(raw string) (uint, error) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%q no es un id de usuario", raw)
	}
	return uint(n), nil
}

func parseTandaID(raw string) (uint, error) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%q no es un id de tanda", raw)
	}
	return uint(n), nil
}
