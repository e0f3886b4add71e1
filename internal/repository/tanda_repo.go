package repository

import (
	"mitanda/internal/domain"
	"mitanda/internal/models"

	"gorm.io/gorm"
)

type TandaRepository struct {
	db *gorm.DB
}

func NewTandaRepository(db *gorm.DB) *TandaRepository {
	return &TandaRepository{db: db}
}

// TandaConConteo is a tanda plus its current participant count, for listings.
type TandaConConteo struct {
	models.Tanda
	ParticipantesCount int64 `json:"participantes_count"`
}

func (r *TandaRepository) Create(t *models.Tanda) error {
	return r.db.Create(t).Error
}

func (r *TandaRepository) GetByID(id uint) (*models.Tanda, error) {
	var t models.Tanda
	if err := r.db.First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TandaRepository) Update(t *models.Tanda) error {
	return r.db.Save(t).Error
}

func (r *TandaRepository) List() ([]TandaConConteo, error) {
	var tandas []models.Tanda
	if err := r.db.Order("created_at DESC").Find(&tandas).Error; err != nil {
		return nil, err
	}
	out := make([]TandaConConteo, 0, len(tandas))
	for _, t := range tandas {
		var count int64
		if err := r.db.Model(&models.TandaParticipante{}).
			Where("tanda_id = ?", t.ID).Count(&count).Error; err != nil {
			return nil, err
		}
		out = append(out, TandaConConteo{Tanda: t, ParticipantesCount: count})
	}
	return out, nil
}

func (r *TandaRepository) ListIDs() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Tanda{}).Pluck("id", &ids).Error
	return ids, err
}

// CountActivos returns the authoritative occupied-slot count. It is always
// queried fresh; the application never keeps a running counter.
func (r *TandaRepository) CountActivos(tandaID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.TandaParticipante{}).
		Where("tanda_id = ? AND estado = ?", tandaID, domain.ParticipanteActivo).
		Count(&count).Error
	return count, err
}

func (r *TandaRepository) SetDisponible(tandaID uint, disponible bool) error {
	return r.db.Model(&models.Tanda{}).Where("id = ?", tandaID).
		Update("disponible", disponible).Error
}

// Delete removes a tanda and its dependent rows (reservations and
// participations) in one transaction so no orphaned slot state survives.
func (r *TandaRepository) Delete(tandaID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tanda_id = ?", tandaID).
			Delete(&models.NumeroReservado{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tanda_id = ?", tandaID).
			Delete(&models.TandaParticipante{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Tanda{}, tandaID).Error
	})
}
