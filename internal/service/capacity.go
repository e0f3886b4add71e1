package service

import (
	"errors"
	"fmt"
	"sort"

	"mitanda/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNumerosOcupados reports which requested numbers an admin cannot reserve.
type ErrNumerosOcupados struct {
	Numeros []int
}

func (e *ErrNumerosOcupados) Error() string {
	return fmt.Sprintf("numeros ocupados por participantes: %v", e.Numeros)
}

// EstadoCapacidad is the result of recomputing a tanda's occupancy.
type EstadoCapacidad struct {
	TandaID    uint  `json:"tanda_id"`
	Ocupados   int64 `json:"ocupados"`
	Max        int   `json:"max"`
	Disponible bool  `json:"disponible"`
}

// CapacityService owns the disponible flag lifecycle and the admin-side
// reservation rules.
type CapacityService struct {
	tandas     *repository.TandaRepository
	reservados *repository.ReservadoRepository
	log        *zap.Logger
}

func NewCapacityService(tandas *repository.TandaRepository, reservados *repository.ReservadoRepository, log *zap.Logger) *CapacityService {
	return &CapacityService{tandas: tandas, reservados: reservados, log: log}
}

// SyncReservas applies an admin reservation diff. The occupancy re-check and
// the writes happen inside one transaction, so an admin can never reserve a
// slot a participant holds.
func (s *CapacityService) SyncReservas(tandaID uint, agregar, quitar []int) error {
	tanda, err := s.tandas.GetByID(tandaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTandaNoEncontrada
		}
		return err
	}
	var fueraDeRango []int
	for _, numero := range agregar {
		if numero < 1 || numero > tanda.ParticipantesMax {
			fueraDeRango = append(fueraDeRango, numero)
		}
	}
	if len(fueraDeRango) > 0 {
		return fmt.Errorf("numeros fuera de rango 1..%d: %v", tanda.ParticipantesMax, fueraDeRango)
	}
	return s.reservados.Sync(tandaID, agregar, quitar, func(ocupados []int) error {
		var conflicto []int
		for _, numero := range agregar {
			if contiene(ocupados, numero) {
				conflicto = append(conflicto, numero)
			}
		}
		if len(conflicto) > 0 {
			sort.Ints(conflicto)
			return &ErrNumerosOcupados{Numeros: conflicto}
		}
		return nil
	})
}

// Refresh recomputes disponible from the authoritative active-participant
// count. It runs after every successful slot assignment and from the periodic
// sweep; repeating it is always safe because nothing is incremented in place.
func (s *CapacityService) Refresh(tandaID uint) (*EstadoCapacidad, error) {
	tanda, err := s.tandas.GetByID(tandaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTandaNoEncontrada
		}
		return nil, err
	}
	ocupados, err := s.tandas.CountActivos(tandaID)
	if err != nil {
		return nil, err
	}
	disponible := ocupados < int64(tanda.ParticipantesMax)
	if disponible != tanda.Disponible {
		if err := s.tandas.SetDisponible(tandaID, disponible); err != nil {
			// The participations are already committed; a stale flag is
			// recoverable and the sweep will realign it.
			s.log.Error("no se pudo actualizar disponible",
				zap.Uint("tanda_id", tandaID), zap.Bool("disponible", disponible), zap.Error(err))
			return nil, err
		}
		s.log.Info("disponible actualizado",
			zap.Uint("tanda_id", tandaID),
			zap.Int64("ocupados", ocupados),
			zap.Int("max", tanda.ParticipantesMax),
			zap.Bool("disponible", disponible))
	}
	return &EstadoCapacidad{
		TandaID:    tandaID,
		Ocupados:   ocupados,
		Max:        tanda.ParticipantesMax,
		Disponible: disponible,
	}, nil
}
