package service_test

import (
	"testing"

	"mitanda/internal/database"
	"mitanda/internal/domain"
	"mitanda/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database with the same error
// translation the server uses, so duplicate-key handling behaves like
// production.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, nombre, email string) *models.User {
	t.Helper()
	u := &models.User{
		Nombre:       nombre,
		Email:        email,
		PasswordHash: "x",
		Role:         domain.RoleCliente,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedTanda(t *testing.T, db *gorm.DB, nombre string, montoCents int64, max int) *models.Tanda {
	t.Helper()
	tanda := &models.Tanda{
		Nombre:           nombre,
		MontoCents:       montoCents,
		ParticipantesMax: max,
		Frecuencia:       domain.FrecuenciaSemanal,
		Disponible:       true,
	}
	require.NoError(t, db.Create(tanda).Error)
	return tanda
}

func seedProducto(t *testing.T, db *gorm.DB, nombre string, precioCents int64, stock int) *models.Producto {
	t.Helper()
	p := &models.Producto{
		Nombre:      nombre,
		PrecioCents: precioCents,
		Stock:       stock,
		Disponible:  true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedParticipante(t *testing.T, db *gorm.DB, tandaID, userID uint, turno int) {
	t.Helper()
	require.NoError(t, db.Create(&models.TandaParticipante{
		TandaID: tandaID,
		UserID:  userID,
		Turno:   turno,
		Estado:  domain.ParticipanteActivo,
	}).Error)
}
