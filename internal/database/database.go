package database

import (
	"os"

	"mitanda/config"
	"mitanda/internal/domain"
	"mitanda/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
		// Duplicate keys must surface as gorm.ErrDuplicatedKey: slot claims
		// and order idempotence depend on telling conflicts apart from
		// generic database errors.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Tanda{},
		&models.NumeroReservado{},
		&models.TandaParticipante{},
		&models.Producto{},
		&models.Orden{},
		&models.OrdenItem{},
		&models.DireccionEnvio{},
	)
}

// SeedAdmin ensures a default admin account exists. Credentials come from
// ADMIN_EMAIL / ADMIN_PASSWORD; nothing is created when they are unset.
func SeedAdmin(db *gorm.DB) {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}
	var count int64
	db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return
	}
	db.Create(&models.User{
		Nombre:       "Administrador",
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	})
}
