package service_test

import (
	"testing"

	"mitanda/internal/models"
	"mitanda/internal/repository"
	"mitanda/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newLedger(db *gorm.DB) *service.LedgerService {
	return service.NewLedgerService(
		repository.NewTandaRepository(db),
		repository.NewReservadoRepository(db),
		repository.NewParticipanteRepository(db),
		zap.NewNop(),
	)
}

func TestLedgerCompute(t *testing.T) {
	t.Run("partition of reserved, occupied and free", func(t *testing.T) {
		db := newTestDB(t)
		tanda := seedTanda(t, db, "Tanda Ahorro", 50000, 5)
		user := seedUser(t, db, "María", "maria@test.mx")
		seedParticipante(t, db, tanda.ID, user.ID, 1)
		seedParticipante(t, db, tanda.ID, user.ID, 3)
		require.NoError(t, db.Create(&models.NumeroReservado{TandaID: tanda.ID, Numero: 2}).Error)

		estado, err := newLedger(db).Compute(tanda.ID)
		require.NoError(t, err)

		assert.Equal(t, 5, estado.ParticipantesMax)
		assert.Equal(t, []int{2}, estado.Reservados)
		assert.Equal(t, map[int]string{1: "María", 3: "María"}, estado.Ocupados)
		assert.Equal(t, []int{4, 5}, estado.Disponibles)
		assert.Empty(t, estado.Conflictos)
	})

	t.Run("empty tanda is fully available", func(t *testing.T) {
		db := newTestDB(t)
		tanda := seedTanda(t, db, "Nueva", 10000, 3)

		estado, err := newLedger(db).Compute(tanda.ID)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, estado.Disponibles)
		assert.Empty(t, estado.Reservados)
		assert.Empty(t, estado.Ocupados)
	})

	t.Run("out of range numbers are ignored", func(t *testing.T) {
		db := newTestDB(t)
		tanda := seedTanda(t, db, "Chica", 10000, 2)
		user := seedUser(t, db, "Luis", "luis@test.mx")
		// max shrank after these rows were written
		seedParticipante(t, db, tanda.ID, user.ID, 7)
		require.NoError(t, db.Create(&models.NumeroReservado{TandaID: tanda.ID, Numero: 9}).Error)

		estado, err := newLedger(db).Compute(tanda.ID)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, estado.Disponibles)
		assert.Empty(t, estado.Ocupados)
		assert.Empty(t, estado.Reservados)
	})

	t.Run("occupied wins over reserved and the overlap is surfaced", func(t *testing.T) {
		db := newTestDB(t)
		tanda := seedTanda(t, db, "Solapada", 10000, 4)
		user := seedUser(t, db, "Ana", "ana@test.mx")
		seedParticipante(t, db, tanda.ID, user.ID, 2)
		require.NoError(t, db.Create(&models.NumeroReservado{TandaID: tanda.ID, Numero: 2}).Error)

		estado, err := newLedger(db).Compute(tanda.ID)
		require.NoError(t, err)
		assert.Equal(t, map[int]string{2: "Ana"}, estado.Ocupados)
		assert.Empty(t, estado.Reservados)
		assert.Equal(t, []int{2}, estado.Conflictos)
		assert.Equal(t, []int{1, 3, 4}, estado.Disponibles)
	})

	t.Run("unknown tanda", func(t *testing.T) {
		db := newTestDB(t)
		_, err := newLedger(db).Compute(99)
		assert.ErrorIs(t, err, service.ErrTandaNoEncontrada)
	})
}
