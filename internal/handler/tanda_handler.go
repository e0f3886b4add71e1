package handler

import (
	"errors"
	"net/http"
	"strconv"

	"mitanda/internal/repository"
	"mitanda/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TandaHandler serves the public tanda catalog and the slot ledger.
type TandaHandler struct {
	tandas *repository.TandaRepository
	ledger *service.LedgerService
	log    *zap.Logger
}

func NewTandaHandler(tandas *repository.TandaRepository, ledger *service.LedgerService, log *zap.Logger) *TandaHandler {
	return &TandaHandler{tandas: tandas, ledger: ledger, log: log}
}

func (h *TandaHandler) List(c *gin.Context) {
	tandas, err := h.tandas.List()
	if err != nil {
		h.log.Error("no se pudieron listar las tandas", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no se pudieron listar las tandas"})
		return
	}
	c.JSON(http.StatusOK, tandas)
}

func (h *TandaHandler) Get(c *gin.Context) {
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
		h.log.Error("no se pudo obtener la tanda", zap.Uint("tanda_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no se pudo obtener la tanda"})
		return
	}
	c.JSON(http.StatusOK, tanda)
}

// Numeros returns the slot ledger: which numbers are reserved, taken and free.
func (h *TandaHandler) Numeros(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	estado, err := h.ledger.Compute(id)
	if err != nil {
		if errors.Is(err, service.ErrTandaNoEncontrada) {
			c.JSON(http.StatusNotFound, gin.H{"error": "tanda no encontrada"})
			return
		}
		h.log.Error("no se pudo calcular el estado de números", zap.Uint("tanda_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no se pudo calcular el estado de números"})
		return
	}
	c.JSON(http.StatusOK, estado)
}

func parseIDParam(c *gin.Context) (uint, bool) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || n == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id inválido"})
		return 0, false
	}
	return uint(n), true
}
