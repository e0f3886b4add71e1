package repository

import (
	"errors"

	"mitanda/internal/models"

	"gorm.io/gorm"
)

type OrdenRepository struct {
	db *gorm.DB
}

func NewOrdenRepository(db *gorm.DB) *OrdenRepository {
	return &OrdenRepository{db: db}
}

// Create inserts the order for a completed checkout session. The unique index
// on stripe_session_id turns webhook redelivery into ErrSesionProcesada
// instead of a duplicate financial record.
func (r *OrdenRepository) Create(o *models.Orden) error {
	err := r.db.Create(o).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrSesionProcesada
	}
	return err
}

func (r *OrdenRepository) GetBySessionID(sessionID string) (*models.Orden, error) {
	var o models.Orden
	if err := r.db.Where("stripe_session_id = ?", sessionID).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrdenRepository) CreateItem(item *models.OrdenItem) error {
	return r.db.Create(item).Error
}

func (r *OrdenRepository) CreateDireccion(d *models.DireccionEnvio) error {
	return r.db.Create(d).Error
}

func (r *OrdenRepository) ListByUser(userID uint) ([]models.Orden, error) {
	var ordenes []models.Orden
	err := r.db.Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&ordenes).Error
	return ordenes, err
}

// ListAll returns every order, newest first, for the admin sales view.
func (r *OrdenRepository) ListAll() ([]models.Orden, error) {
	var ordenes []models.Orden
	err := r.db.Preload("Items").
		Order("created_at DESC").
		Find(&ordenes).Error
	return ordenes, err
}
