package models

import "time"

// TandaParticipante binds a paying user to one numbered slot. The composite
// unique index on (tanda_id, turno) is what makes a slot claim a conditional
// insert: the second of two racing writers fails with a duplicate key instead
// of double-selling the slot.
type TandaParticipante struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TandaID      uint      `gorm:"not null;uniqueIndex:idx_tanda_turno;index" json:"tanda_id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Turno        int       `gorm:"not null;uniqueIndex:idx_tanda_turno" json:"turno"`
	Estado       string    `gorm:"size:20;not null;index" json:"estado"` // activo | pendiente | inactivo
	FechaIngreso time.Time `gorm:"not null" json:"fecha_ingreso"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Tanda Tanda `gorm:"foreignKey:TandaID" json:"-"`
	User  User  `gorm:"foreignKey:UserID" json:"-"`
}

func (TandaParticipante) TableName() string { return "tanda_participantes" }
