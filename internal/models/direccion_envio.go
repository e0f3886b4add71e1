package models

import "time"

// DireccionEnvio is the shipping address a product order was paid with,
// persisted from the checkout session metadata during reconciliation.
type DireccionEnvio struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrdenID        uint      `gorm:"not null;uniqueIndex" json:"orden_id"`
	NombreCompleto string    `gorm:"size:160" json:"nombre_completo"`
	Telefono       string    `gorm:"size:20" json:"telefono"`
	Calle          string    `gorm:"size:160" json:"calle"`
	NumeroExterior string    `gorm:"size:20" json:"numero_exterior"`
	NumeroInterior string    `gorm:"size:20" json:"numero_interior"`
	Colonia        string    `gorm:"size:120" json:"colonia"`
	Ciudad         string    `gorm:"size:120" json:"ciudad"`
	Estado         string    `gorm:"size:120" json:"estado"`
	CodigoPostal   string    `gorm:"size:10" json:"codigo_postal"`
	Referencias    string    `gorm:"type:text" json:"referencias"`
	CreatedAt      time.Time `json:"created_at"`
}

func (DireccionEnvio) TableName() string { return "direcciones_envio" }
