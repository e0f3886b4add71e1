package models

import (
	"time"

	"gorm.io/gorm"
)

type Producto struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Nombre      string         `gorm:"size:160;not null" json:"nombre"`
	Descripcion string         `gorm:"type:text" json:"descripcion"`
	PrecioCents int64          `gorm:"not null" json:"precio_cents"`
	Stock       int            `gorm:"not null;default:0" json:"stock"`
	Disponible  bool           `gorm:"not null;default:true;index" json:"disponible"`
	Imagen      string         `gorm:"size:16" json:"imagen"`
	ImagenURL   string         `gorm:"size:512" json:"imagen_url"`
	EnvioCents  *int64         `json:"envio_cents"` // nil = default shipping cost
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Producto) TableName() string { return "productos" }
