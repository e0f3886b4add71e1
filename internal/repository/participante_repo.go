package repository

import (
	"errors"

	"mitanda/internal/models"

	"gorm.io/gorm"
)

type ParticipanteRepository struct {
	db *gorm.DB
}

func NewParticipanteRepository(db *gorm.DB) *ParticipanteRepository {
	return &ParticipanteRepository{db: db}
}

// Create claims one slot. The (tanda_id, turno) unique index makes this a
// conditional insert; a duplicate key means somebody else holds the slot and
// is reported as ErrTurnoOcupado.
func (r *ParticipanteRepository) Create(p *models.TandaParticipante) error {
	err := r.db.Create(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrTurnoOcupado
	}
	return err
}

// OcupadoPorNombre maps each occupied slot number to the occupant's display
// name, for the ledger.
func (r *ParticipanteRepository) OcupadosPorNombre(tandaID uint) (map[int]string, error) {
	var rows []struct {
		Turno  int
		Nombre string
	}
	err := r.db.Model(&models.TandaParticipante{}).
		Select("tanda_participantes.turno, users.nombre").
		Joins("JOIN users ON users.id = tanda_participantes.user_id").
		Where("tanda_participantes.tanda_id = ?", tandaID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	ocupados := make(map[int]string, len(rows))
	for _, row := range rows {
		ocupados[row.Turno] = row.Nombre
	}
	return ocupados, nil
}

func (r *ParticipanteRepository) Turnos(tandaID uint) ([]int, error) {
	var turnos []int
	err := r.db.Model(&models.TandaParticipante{}).
		Where("tanda_id = ?", tandaID).
		Order("turno").
		Pluck("turno", &turnos).Error
	return turnos, err
}

func (r *ParticipanteRepository) CountByUser(tandaID, userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.TandaParticipante{}).
		Where("tanda_id = ? AND user_id = ?", tandaID, userID).
		Count(&count).Error
	return count, err
}

func (r *ParticipanteRepository) ListByTanda(tandaID uint) ([]models.TandaParticipante, error) {
	var participantes []models.TandaParticipante
	err := r.db.Preload("User").
		Where("tanda_id = ?", tandaID).
		Order("turno").
		Find(&participantes).Error
	return participantes, err
}

func (r *ParticipanteRepository) ListByUser(userID uint) ([]models.TandaParticipante, error) {
	var participantes []models.TandaParticipante
	err := r.db.Preload("Tanda").
		Where("user_id = ?", userID).
		Order("fecha_ingreso DESC").
		Find(&participantes).Error
	return participantes, err
}
