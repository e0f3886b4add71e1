package handler

import (
	"errors"
	"net/http"

	"mitanda/internal/domain"
	"mitanda/internal/models"
	"mitanda/internal/repository"
	"mitanda/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminTandaHandler manages the tanda catalog and admin slot reservations.
type AdminTandaHandler struct {
	tandas        *repository.TandaRepository
	participantes *repository.ParticipanteRepository
	reservados    *repository.ReservadoRepository
	capacidad     *service.CapacityService
	ledger        *service.LedgerService
	log           *zap.Logger
}

func NewAdminTandaHandler(
	tandas *repository.TandaRepository,
	participantes *repository.ParticipanteRepository,
	reservados *repository.ReservadoRepository,
	capacidad *service.CapacityService,
	ledger *service.LedgerService,
	log *zap.Logger,
) *AdminTandaHandler {
	return &AdminTandaHandler{
		tandas:        tandas,
		participantes: participantes,
		reservados:    reservados,
		capacidad:     capacidad,
		ledger:        ledger,
		log:           log,
	}
}

type TandaRequest struct {
	Nombre            string  `json:"nombre" binding:"required,min=2,max=120"`
	Monto             float64 `json:"monto" binding:"required,gt=0"` // pesos
	ParticipantesMax  int     `json:"participantes_max" binding:"required,gt=0"`
	Duracion          string  `json:"duracion"`
	Frecuencia        string  `json:"frecuencia" binding:"required"`
	Imagen            string  `json:"imagen"`
	Color             string  `json:"color"`
	NumerosReservados []int   `json:"numeros_reservados"` // pre-blocked slots
}

func (h *AdminTandaHandler) Create(c *gin.Context) {
	var req TandaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !domain.FrecuenciaValida(req.Frecuencia) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "frecuencia inválida (semanal, quincenal o mensual)"})
		return
	}
	tanda := &models.Tanda{
		Nombre:           req.Nombre,
		MontoCents:       pesosACents(req.Monto),
		ParticipantesMax: req.ParticipantesMax,
		Duracion:         req.Duracion,
		Frecuencia:       req.Frecuencia,
		Imagen:           req.Imagen,
		Color:            req.Color,
		Disponible:       true,
	}
	if err := h.tandas.Create(tanda); err != nil {
		h.log.Error("no se pudo crear la tanda", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no se pudo crear la tanda"})
		return
	}
	if len(req.NumerosReservados) > 0 {
		if err := h.capacidad.SyncReservas(tanda.ID, req.NumerosReservados, nil); err != nil {
			h.log.Warn("reservas iniciales no aplicadas", zap.Uint("tanda_id", tanda.ID), zap.Error(err))
		}
	}
	c.JSON(http.StatusCreated, tanda)
}

func (h *AdminTandaHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req TandaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !domain.FrecuenciaValida(req.Frecuencia) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "frecuencia inválida (semanal, quincenal o mensual)"})
		return
	}
	tanda, err := h.tandas.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "tanda no encontrada"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no se pudo obtener la tanda"})
		return
	}
	tanda.Nombre = req.Nombre
	tanda.MontoCents = pesosACents(req.Monto)
	tanda.ParticipantesMax = req.ParticipantesMax
	tanda.Duracion = req.Duracion
	tanda.Frecuencia = req.Frecuencia
	tanda.Imagen = req.Imagen
	tanda.Color = req.Color
	if err := h.tandas.Update(tanda); err != nil {
		h.log.Error("no se pudo actualizar la tanda", zap.Uint("tanda_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no se pudo actualizar la tanda"})
		return
	}
	// Shrinking participantes_max can flip availability.
	if _, err := h.capacidad.Refresh(id); err != nil {
		h.log.Warn("refresh tras actualización falló", zap.Uint("tanda_id", id), zap.Error(err))
	}
	c.JSON(http.StatusOK, tanda)
}

func (h *AdminTandaHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.tandas.Delete(id); err != nil {
		h.log.Error("no se pudo eliminar la tanda", zap.Uint("tanda_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no se pudo eliminar la tanda"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// Detail returns the tanda, its ledger and the participant roster.
func (h *AdminTandaHandler) Detail(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	tanda, err := h.tandas.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "tanda no encontrada"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no se pudo obtener la tanda"})
		return
	}
	estado, err := h.ledger.Compute(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no se pudo calcular el estado de números"})
		return
	}
	participantes, err := h.participantes.ListByTanda(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no se pudieron listar los participantes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tanda":         tanda,
		"numeros":       estado,
		"participantes": participantes,
	})
}

type ReservasRequest struct {
	Agregar []int `json:"agregar"`
	Quitar  []int `json:"quitar"`
}

// Reservas adds and removes admin slot reservations in one atomic sync.
func (h *AdminTandaHandler) Reservas(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req ReservasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.capacidad.SyncReservas(id, req.Agregar, req.Quitar); err != nil {
		var ocupados *service.ErrNumerosOcupados
		if errors.As(err, &ocupados) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "números ya ocupados por participantes",
				"numeros": ocupados.Numeros,
			})
			return
		}
		if errors.Is(err, service.ErrTandaNoEncontrada) {
			c.JSON(http.StatusNotFound, gin.H{"error": "tanda no encontrada"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	estado, err := h.ledger.Compute(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no se pudo calcular el estado de números"})
		return
	}
	c.JSON(http.StatusOK, estado)
}
