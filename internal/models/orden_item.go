package models

import "time"

// OrdenItem snapshots one cart line at purchase time. PrecioCents is the unit
// price the customer actually paid, independent of later product edits.
type OrdenItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrdenID     uint      `gorm:"not null;index" json:"orden_id"`
	ProductoID  uint      `gorm:"not null;index" json:"producto_id"`
	Nombre      string    `gorm:"size:160;not null" json:"nombre"`
	Cantidad    int       `gorm:"not null" json:"cantidad"`
	PrecioCents int64     `gorm:"not null" json:"precio_cents"`
	CreatedAt   time.Time `json:"created_at"`

	Producto Producto `gorm:"foreignKey:ProductoID" json:"-"`
}

func (OrdenItem) TableName() string { return "orden_items" }
