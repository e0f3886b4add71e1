package repository

import (
	"errors"

	"mitanda/internal/models"

	"gorm.io/gorm"
)

type ReservadoRepository struct {
	db *gorm.DB
}

func NewReservadoRepository(db *gorm.DB) *ReservadoRepository {
	return &ReservadoRepository{db: db}
}

func (r *ReservadoRepository) Numeros(tandaID uint) ([]int, error) {
	var numeros []int
	err := r.db.Model(&models.NumeroReservado{}).
		Where("tanda_id = ?", tandaID).
		Order("numero").
		Pluck("numero", &numeros).Error
	return numeros, err
}

// Sync applies a reservation diff (add/remove) after re-checking, inside the
// same transaction, that none of the numbers to add is occupied by a
// participant. checkOcupados receives the fresh occupied set and returns an
// error to abort the write.
func (r *ReservadoRepository) Sync(tandaID uint, agregar, quitar []int, checkOcupados func(ocupados []int) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var ocupados []int
		if err := tx.Model(&models.TandaParticipante{}).
			Where("tanda_id = ?", tandaID).
			Pluck("turno", &ocupados).Error; err != nil {
			return err
		}
		if checkOcupados != nil {
			if err := checkOcupados(ocupados); err != nil {
				return err
			}
		}
		if len(quitar) > 0 {
			if err := tx.Where("tanda_id = ? AND numero IN ?", tandaID, quitar).
				Delete(&models.NumeroReservado{}).Error; err != nil {
				return err
			}
		}
		for _, numero := range agregar {
			row := models.NumeroReservado{TandaID: tandaID, Numero: numero}
			err := tx.Create(&row).Error
			// Reservation is set-based: re-adding an existing number is a no-op.
			if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
				return err
			}
		}
		return nil
	})
}
