package service

import (
	"errors"
	"sort"

	"mitanda/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrTandaNoEncontrada = errors.New("tanda no encontrada")

// EstadoNumeros is the partition of a tanda's slots. Reservados, the keys of
// Ocupados, and Disponibles are disjoint and together cover 1..ParticipantesMax.
// Conflictos lists slots that somehow appear both reserved and occupied; the
// write paths make that unreachable, but the ledger surfaces it rather than
// hiding the overlap (occupied wins for display).
type EstadoNumeros struct {
	ParticipantesMax int            `json:"participantes_max"`
	Reservados       []int          `json:"reservados"`
	Ocupados         map[int]string `json:"ocupados"`
	Disponibles      []int          `json:"disponibles"`
	Conflictos       []int          `json:"conflictos,omitempty"`
}

// LedgerService derives slot occupancy from the two raw sets: admin
// reservations and paid participations.
type LedgerService struct {
	tandas        *repository.TandaRepository
	reservados    *repository.ReservadoRepository
	participantes *repository.ParticipanteRepository
	log           *zap.Logger
}

func NewLedgerService(
	tandas *repository.TandaRepository,
	reservados *repository.ReservadoRepository,
	participantes *repository.ParticipanteRepository,
	log *zap.Logger,
) *LedgerService {
	return &LedgerService{tandas: tandas, reservados: reservados, participantes: participantes, log: log}
}

func (s *LedgerService) Compute(tandaID uint) (*EstadoNumeros, error) {
	tanda, err := s.tandas.GetByID(tandaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTandaNoEncontrada
		}
		return nil, err
	}
	estado := &EstadoNumeros{
		ParticipantesMax: tanda.ParticipantesMax,
		Reservados:       []int{},
		Ocupados:         map[int]string{},
		Disponibles:      []int{},
	}
	if tanda.ParticipantesMax <= 0 {
		return estado, nil
	}

	reservados, err := s.reservados.Numeros(tandaID)
	if err != nil {
		return nil, err
	}
	ocupados, err := s.participantes.OcupadosPorNombre(tandaID)
	if err != nil {
		return nil, err
	}

	for numero := range ocupados {
		if numero >= 1 && numero <= tanda.ParticipantesMax {
			estado.Ocupados[numero] = ocupados[numero]
		}
	}
	for _, numero := range reservados {
		if numero < 1 || numero > tanda.ParticipantesMax {
			continue
		}
		if _, ok := estado.Ocupados[numero]; ok {
			// Should be unreachable through correct writers.
			estado.Conflictos = append(estado.Conflictos, numero)
			s.log.Warn("numero reservado y ocupado a la vez",
				zap.Uint("tanda_id", tandaID), zap.Int("numero", numero))
			continue
		}
		estado.Reservados = append(estado.Reservados, numero)
	}
	for numero := 1; numero <= tanda.ParticipantesMax; numero++ {
		if _, ok := estado.Ocupados[numero]; ok {
			continue
		}
		if contiene(estado.Reservados, numero) {
			continue
		}
		estado.Disponibles = append(estado.Disponibles, numero)
	}
	sort.Ints(estado.Reservados)
	sort.Ints(estado.Conflictos)
	return estado, nil
}

func contiene(nums []int, n int) bool {
	for _, v := range nums {
		if v == n {
			return true
		}
	}
	return false
}
