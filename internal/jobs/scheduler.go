package jobs

import (
	"mitanda/internal/repository"
	"mitanda/internal/service"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs the periodic capacity sweep. The sweep recomputes every
// tanda's disponible flag from the participant count, so a flag left stale by
// a crashed webhook or an admin edit converges on its own.
type Scheduler struct {
	cron      *cron.Cron
	tandas    *repository.TandaRepository
	capacidad *service.CapacityService
	log       *zap.Logger
}

func NewScheduler(tandas *repository.TandaRepository, capacidad *service.CapacityService, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		tandas:    tandas,
		capacidad: capacidad,
		log:       log,
	}
}

// Start registers the sweep with the given cron spec and launches the
// scheduler goroutine.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("barrido de capacidad programado", zap.String("spec", spec))
	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sweep() {
	ids, err := s.tandas.ListIDs()
	if err != nil {
		s.log.Error("barrido: no se pudieron listar las tandas", zap.Error(err))
		return
	}
	for _, id := range ids {
		if _, err := s.capacidad.Refresh(id); err != nil {
			s.log.Error("barrido: refresh falló", zap.Uint("tanda_id", id), zap.Error(err))
		}
	}
	s.log.Debug("barrido de capacidad completado", zap.Int("tandas", len(ids)))
}
