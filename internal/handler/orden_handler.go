package handler

import (
	"net/http"

	"mitanda/internal/middleware"
	"mitanda/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OrdenHandler serves the authenticated customer's purchase history.
type OrdenHandler struct {
	ordenes       *repository.OrdenRepository
	participantes *repository.ParticipanteRepository
	log           *zap.Logger
}

func NewOrdenHandler(ordenes *repository.OrdenRepository, participantes *repository.ParticipanteRepository, log *zap.Logger) *OrdenHandler {
	return &OrdenHandler{ordenes: ordenes, participantes: participantes, log: log}
}

// MisPedidos lists the caller's orders with their items.
func (h *OrdenHandler) MisPedidos(c *gin.Context) {
	userID := middleware.GetUserID(c)
	ordenes, err := h.ordenes.ListByUser(userID)
	if err != nil {
		h.log.Error("no se pudieron listar los pedidos", zap.Uint("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no se pudieron listar los pedidos"})
		return
	}
	c.JSON(http.StatusOK, ordenes)
}

// MisTandas lists the caller's tanda participations with the tanda preloaded.
func (h *OrdenHandler) MisTandas(c *gin.Context) {
	userID := middleware.GetUserID(c)
	participaciones, err := h.participantes.ListByUser(userID)
	if err != nil {
		h.log.Error("no se pudieron listar las participaciones", zap.Uint("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no se pudieron listar las participaciones"})
		return
	}
	c.JSON(http.StatusOK, participaciones)
}
