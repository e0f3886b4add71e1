package models

import "time"

// Orden records one completed gateway transaction. StripeSessionID carries a
// unique index so reprocessing the same checkout session can never materialize
// a second order row.
type Orden struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	UserID                uint      `gorm:"not null;index" json:"user_id"`
	Tipo                  string    `gorm:"size:20;not null;index" json:"tipo"` // tanda | productos
	TotalCents            int64     `gorm:"not null" json:"total_cents"`
	Estado                string    `gorm:"size:20;not null" json:"estado"` // pagado
	StripeSessionID       string    `gorm:"size:255;uniqueIndex;not null" json:"stripe_session_id"`
	StripePaymentIntentID string    `gorm:"size:255" json:"stripe_payment_intent_id"`
	Metadata              string    `gorm:"type:text" json:"metadata"` // session metadata snapshot, JSON
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`

	User  User        `gorm:"foreignKey:UserID" json:"-"`
	Items []OrdenItem `gorm:"foreignKey:OrdenID" json:"items,omitempty"`
}

func (Orden) TableName() string { return "ordenes" }
