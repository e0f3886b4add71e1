package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"mitanda/config"
	"mitanda/internal/models"
	"mitanda/internal/queue"
	"mitanda/internal/repository"
	"mitanda/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// memPublisher collects published events in memory.
type memPublisher struct {
	events []queue.OrdenConfirmadaEvent
}

func (p *memPublisher) PublishOrdenConfirmada(ctx context.Context, ev queue.OrdenConfirmadaEvent) error {
	p.events = append(p.events, ev)
	return nil
}

// memHub records availability broadcasts.
type memHub struct {
	broadcasts []struct {
		TandaID     uint
		Disponibles []int
		Disponible  bool
	}
}

func (h *memHub) BroadcastDisponibilidad(tandaID uint, disponibles []int, disponible bool) {
	h.broadcasts = append(h.broadcasts, struct {
		TandaID     uint
		Disponibles []int
		Disponible  bool
	}{tandaID, disponibles, disponible})
}

type reconcilerFixture struct {
	svc       *service.ReconcilerService
	publisher *memPublisher
	hub       *memHub
}

func newReconciler(db *gorm.DB, cfg *config.Config) *reconcilerFixture {
	log := zap.NewNop()
	tandaRepo := repository.NewTandaRepository(db)
	participanteRepo := repository.NewParticipanteRepository(db)
	reservadoRepo := repository.NewReservadoRepository(db)
	publisher := &memPublisher{}
	hub := &memHub{}
	svc := service.NewReconcilerService(
		repository.NewUserRepository(db),
		tandaRepo,
		participanteRepo,
		repository.NewProductoRepository(db),
		repository.NewOrdenRepository(db),
		service.NewCapacityService(tandaRepo, reservadoRepo, log),
		service.NewLedgerService(tandaRepo, reservadoRepo, participanteRepo, log),
		service.NewNotificationService(publisher, log),
		hub,
		cfg,
		log,
	)
	return &reconcilerFixture{svc: svc, publisher: publisher, hub: hub}
}

func tandaSession(id string, user *models.User, tanda *models.Tanda, numeros string, totalCents int64) *service.CompletedSession {
	return &service.CompletedSession{
		ID:               id,
		PaymentIntentID:  "pi_" + id,
		AmountTotalCents: totalCents,
		Metadata: map[string]string{
			"userId":               strconv.FormatUint(uint64(user.ID), 10),
			"tipo":                 "tanda",
			"tandaId":              strconv.FormatUint(uint64(tanda.ID), 10),
			"tandaNombre":          tanda.Nombre,
			"numerosSeleccionados": numeros,
		},
	}
}

func TestReconcilerTanda(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns slots, records the order and notifies", func(t *testing.T) {
		db := newTestDB(t)
		f := newReconciler(db, testConfig())
		user := seedUser(t, db, "María", "maria@test.mx")
		tanda := seedTanda(t, db, "Tanda 500", 50000, 5)

		err := f.svc.ProcessCheckoutSession(ctx, tandaSession("cs_1", user, tanda, "2,4", 100000))
		require.NoError(t, err)

		var orden models.Orden
		require.NoError(t, db.Where("stripe_session_id = ?", "cs_1").First(&orden).Error)
		assert.Equal(t, user.ID, orden.UserID)
		assert.Equal(t, "pagado", orden.Estado)
		assert.Equal(t, int64(100000), orden.TotalCents)

		var turnos []int
		require.NoError(t, db.Model(&models.TandaParticipante{}).
			Where("tanda_id = ?", tanda.ID).Order("turno").Pluck("turno", &turnos).Error)
		assert.Equal(t, []int{2, 4}, turnos)

		// customer and admin notifications
		require.Len(t, f.publisher.events, 2)
		assert.Equal(t, "cliente", f.publisher.events[0].Destinatario)
		assert.Equal(t, "admin", f.publisher.events[1].Destinatario)
		assert.Equal(t, "maria@test.mx", f.publisher.events[0].EmailCliente)

		require.Len(t, f.hub.broadcasts, 1)
		assert.Equal(t, []int{1, 3, 5}, f.hub.broadcasts[0].Disponibles)
		assert.True(t, f.hub.broadcasts[0].Disponible)
	})

	t.Run("redelivery performs the side effects once", func(t *testing.T) {
		db := newTestDB(t)
		f := newReconciler(db, testConfig())
		user := seedUser(t, db, "Luis", "luis@test.mx")
		tanda := seedTanda(t, db, "Tanda", 50000, 5)
		session := tandaSession("cs_dup", user, tanda, "1", 50000)

		require.NoError(t, f.svc.ProcessCheckoutSession(ctx, session))
		require.NoError(t, f.svc.ProcessCheckoutSession(ctx, session))

		var ordenes int64
		require.NoError(t, db.Model(&models.Orden{}).Count(&ordenes).Error)
		assert.Equal(t, int64(1), ordenes)

		var participaciones int64
		require.NoError(t, db.Model(&models.TandaParticipante{}).Count(&participaciones).Error)
		assert.Equal(t, int64(1), participaciones)

		// only the first delivery notified
		assert.Len(t, f.publisher.events, 2)
	})

	t.Run("slot sold elsewhere is skipped, the rest are assigned", func(t *testing.T) {
		db := newTestDB(t)
		f := newReconciler(db, testConfig())
		user := seedUser(t, db, "Ana", "ana@test.mx")
		otro := seedUser(t, db, "Otro", "otro@test.mx")
		tanda := seedTanda(t, db, "Tanda", 50000, 5)
		seedParticipante(t, db, tanda.ID, otro.ID, 3)

		err := f.svc.ProcessCheckoutSession(ctx, tandaSession("cs_conf", user, tanda, "3,5", 100000))
		require.NoError(t, err)

		var turnos []int
		require.NoError(t, db.Model(&models.TandaParticipante{}).
			Where("tanda_id = ? AND user_id = ?", tanda.ID, user.ID).
			Pluck("turno", &turnos).Error)
		assert.Equal(t, []int{5}, turnos)

		// slot 3 still belongs to the first buyer
		var dueno models.TandaParticipante
		require.NoError(t, db.Where("tanda_id = ? AND turno = ?", tanda.ID, 3).First(&dueno).Error)
		assert.Equal(t, otro.ID, dueno.UserID)
	})

	t.Run("slots past capacity are never assigned", func(t *testing.T) {
		db := newTestDB(t)
		f := newReconciler(db, testConfig())
		user := seedUser(t, db, "Eva", "eva@test.mx")
		tanda := seedTanda(t, db, "Chica", 50000, 2)

		err := f.svc.ProcessCheckoutSession(ctx, tandaSession("cs_rango", user, tanda, "1,2,3,9", 200000))
		require.NoError(t, err)

		var turnos []int
		require.NoError(t, db.Model(&models.TandaParticipante{}).
			Where("tanda_id = ?", tanda.ID).Order("turno").Pluck("turno", &turnos).Error)
		assert.Equal(t, []int{1, 2}, turnos)

		var fresh models.Tanda
		require.NoError(t, db.First(&fresh, tanda.ID).Error)
		assert.False(t, fresh.Disponible)
	})

	t.Run("filling the last slot flips disponible", func(t *testing.T) {
		db := newTestDB(t)
		f := newReconciler(db, testConfig())
		user := seedUser(t, db, "Leo", "leo@test.mx")
		tanda := seedTanda(t, db, "Chica", 50000, 2)

		err := f.svc.ProcessCheckoutSession(ctx, tandaSession("cs_full", user, tanda, "1,2", 100000))
		require.NoError(t, err)

		var fresh models.Tanda
		require.NoError(t, db.First(&fresh, tanda.ID).Error)
		assert.False(t, fresh.Disponible)

		require.Len(t, f.hub.broadcasts, 1)
		assert.False(t, f.hub.broadcasts[0].Disponible)
		assert.Empty(t, f.hub.broadcasts[0].Disponibles)
	})
}

func TestReconcilerProductos(t *testing.T) {
	ctx := context.Background()

	productosSession := func(user *models.User, carrito []map[string]interface{}, total int64) *service.CompletedSession {
		raw, _ := json.Marshal(carrito)
		return &service.CompletedSession{
			ID:               "cs_prod",
			AmountTotalCents: total,
			Metadata: map[string]string{
				"userId":  strconv.FormatUint(uint64(user.ID), 10),
				"tipo":    "productos",
				"carrito": string(raw),
			},
		}
	}

	t.Run("creates items, decrements stock and saves the address", func(t *testing.T) {
		db := newTestDB(t)
		f := newReconciler(db, testConfig())
		user := seedUser(t, db, "María", "maria@test.mx")
		producto := seedProducto(t, db, "Playera", 29950, 10)

		session := productosSession(user, []map[string]interface{}{
			{"producto_id": producto.ID, "nombre": "Playera", "cantidad": 2, "precio_cents": 29950},
		}, 59900)
		session.Metadata["direccion_envio"] = `{"nombre_completo":"María López","calle":"Av. Siempre Viva 742"}`

		require.NoError(t, f.svc.ProcessCheckoutSession(ctx, session))

		var fresh models.Producto
		require.NoError(t, db.First(&fresh, producto.ID).Error)
		assert.Equal(t, 8, fresh.Stock)

		var items []models.OrdenItem
		require.NoError(t, db.Find(&items).Error)
		require.Len(t, items, 1)
		assert.Equal(t, 2, items[0].Cantidad)

		var dir models.DireccionEnvio
		require.NoError(t, db.First(&dir).Error)
		assert.Equal(t, "María López", dir.NombreCompleto)
	})

	t.Run("redelivery does not decrement stock twice", func(t *testing.T) {
		db := newTestDB(t)
		f := newReconciler(db, testConfig())
		user := seedUser(t, db, "Luis", "luis@test.mx")
		producto := seedProducto(t, db, "Taza", 15000, 3)

		session := productosSession(user, []map[string]interface{}{
			{"producto_id": producto.ID, "nombre": "Taza", "cantidad": 2, "precio_cents": 15000},
		}, 30000)

		require.NoError(t, f.svc.ProcessCheckoutSession(ctx, session))
		require.NoError(t, f.svc.ProcessCheckoutSession(ctx, session))

		var fresh models.Producto
		require.NoError(t, db.First(&fresh, producto.ID).Error)
		assert.Equal(t, 1, fresh.Stock)
	})

	t.Run("stock shortfall is tolerated", func(t *testing.T) {
		db := newTestDB(t)
		f := newReconciler(db, testConfig())
		user := seedUser(t, db, "Ana", "ana@test.mx")
		producto := seedProducto(t, db, "Gorra", 20000, 1)

		session := productosSession(user, []map[string]interface{}{
			{"producto_id": producto.ID, "nombre": "Gorra", "cantidad": 2, "precio_cents": 20000},
		}, 40000)

		require.NoError(t, f.svc.ProcessCheckoutSession(ctx, session))

		// stock never goes negative
		var fresh models.Producto
		require.NoError(t, db.First(&fresh, producto.ID).Error)
		assert.Equal(t, 1, fresh.Stock)

		// the order still exists: the customer paid
		var ordenes int64
		require.NoError(t, db.Model(&models.Orden{}).Count(&ordenes).Error)
		assert.Equal(t, int64(1), ordenes)
	})
}

func TestReconcilerFatalPayloads(t *testing.T) {
	ctx := context.Background()

	assertFatal := func(t *testing.T, err error) {
		t.Helper()
		var fatalErr *service.FatalWebhookError
		assert.True(t, errors.As(err, &fatalErr), "expected fatal error, got %v", err)
	}

	t.Run("missing session id", func(t *testing.T) {
		db := newTestDB(t)
		f := newReconciler(db, testConfig())
		assertFatal(t, f.svc.ProcessCheckoutSession(ctx, &service.CompletedSession{}))
	})

	t.Run("missing userId metadata", func(t *testing.T) {
		db := newTestDB(t)
		f := newReconciler(db, testConfig())
		err := f.svc.ProcessCheckoutSession(ctx, &service.CompletedSession{
			ID:       "cs_x",
			Metadata: map[string]string{"tipo": "tanda"},
		})
		assertFatal(t, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		db := newTestDB(t)
		f := newReconciler(db, testConfig())
		err := f.svc.ProcessCheckoutSession(ctx, &service.CompletedSession{
			ID:       "cs_x",
			Metadata: map[string]string{"userId": "999", "tipo": "tanda"},
		})
		assertFatal(t, err)
	})

	t.Run("unknown tipo", func(t *testing.T) {
		db := newTestDB(t)
		f := newReconciler(db, testConfig())
		user := seedUser(t, db, "X", "x@test.mx")
		err := f.svc.ProcessCheckoutSession(ctx, &service.CompletedSession{
			ID: "cs_x",
			Metadata: map[string]string{
				"userId": strconv.FormatUint(uint64(user.ID), 10),
				"tipo":   "regalo",
			},
		})
		assertFatal(t, err)
	})

	t.Run("tanda session without tandaId records nothing", func(t *testing.T) {
		db := newTestDB(t)
		f := newReconciler(db, testConfig())
		user := seedUser(t, db, "Y", "y@test.mx")
		err := f.svc.ProcessCheckoutSession(ctx, &service.CompletedSession{
			ID: "cs_y",
			Metadata: map[string]string{
				"userId": strconv.FormatUint(uint64(user.ID), 10),
				"tipo":   "tanda",
				// tandaId and numerosSeleccionados missing
			},
		})
		assertFatal(t, err)

		var ordenes int64
		require.NoError(t, db.Model(&models.Orden{}).Count(&ordenes).Error)
		assert.Zero(t, ordenes)
	})
}
