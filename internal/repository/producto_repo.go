package repository

import (
	"mitanda/internal/models"

	"gorm.io/gorm"
)

type ProductoRepository struct {
	db *gorm.DB
}

func NewProductoRepository(db *gorm.DB) *ProductoRepository {
	return &ProductoRepository{db: db}
}

func (r *ProductoRepository) Create(p *models.Producto) error {
	return r.db.Create(p).Error
}

func (r *ProductoRepository) GetByID(id uint) (*models.Producto, error) {
	var p models.Producto
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductoRepository) Update(p *models.Producto) error {
	return r.db.Save(p).Error
}

func (r *ProductoRepository) Delete(id uint) error {
	return r.db.Delete(&models.Producto{}, id).Error
}

// List returns products, optionally only those marked available.
func (r *ProductoRepository) List(soloDisponibles bool) ([]models.Producto, error) {
	q := r.db.Order("created_at DESC")
	if soloDisponibles {
		q = q.Where("disponible = ?", true)
	}
	var productos []models.Producto
	err := q.Find(&productos).Error
	return productos, err
}

// DecrementStock subtracts cantidad from stock in a single conditional
// update, so stock can never be driven below zero by racing sales. When no
// row matches, the shortfall is reported as ErrStockInsuficiente.
func (r *ProductoRepository) DecrementStock(productoID uint, cantidad int) error {
	res := r.db.Model(&models.Producto{}).
		Where("id = ? AND stock >= ?", productoID, cantidad).
		Update("stock", gorm.Expr("stock - ?", cantidad))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockInsuficiente
	}
	return nil
}
