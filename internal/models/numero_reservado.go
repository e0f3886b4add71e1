package models

import "time"

// NumeroReservado is an admin-held slot, withdrawn from sale. It has no owner
// beyond the tanda itself and is only ever written by the admin editor.
type NumeroReservado struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TandaID   uint      `gorm:"not null;uniqueIndex:idx_tanda_numero;index" json:"tanda_id"`
	Numero    int       `gorm:"not null;uniqueIndex:idx_tanda_numero" json:"numero"`
	CreatedAt time.Time `json:"created_at"`

	Tanda Tanda `gorm:"foreignKey:TandaID" json:"-"`
}

func (NumeroReservado) TableName() string { return "numeros_reservados" }
