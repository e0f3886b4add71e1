package models

import (
	"time"

	"gorm.io/gorm"
)

// Tanda is a rotating-savings pool with a fixed count of numbered slots.
// MontoCents is the per-slot contribution. Disponible is recomputed from the
// active participant count; it is never incremented in application memory.
type Tanda struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Nombre           string         `gorm:"size:120;not null" json:"nombre"`
	MontoCents       int64          `gorm:"not null" json:"monto_cents"`
	ParticipantesMax int            `gorm:"not null" json:"participantes_max"`
	Duracion         string         `gorm:"size:60" json:"duracion"`
	Frecuencia       string         `gorm:"size:20;not null" json:"frecuencia"` // semanal | quincenal | mensual
	Imagen           string         `gorm:"size:16" json:"imagen"`              // emoji/icon shown on cards
	Color            string         `gorm:"size:40" json:"color"`
	Disponible       bool           `gorm:"not null;default:true;index" json:"disponible"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Tanda) TableName() string { return "tandas" }
