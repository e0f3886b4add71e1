package handler

import (
	"net/http"

	"mitanda/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminVentaHandler exposes the sales ledger to administrators.
type AdminVentaHandler struct {
	ordenes *repository.OrdenRepository
	log     *zap.Logger
}

func NewAdminVentaHandler(ordenes *repository.OrdenRepository, log *zap.Logger) *AdminVentaHandler {
	return &AdminVentaHandler{ordenes: ordenes, log: log}
}

// List returns every order with its items and buyer, newest first.
func (h *AdminVentaHandler) List(c *gin.Context) {
	ordenes, err := h.ordenes.ListAll()
	if err != nil {
		h.log.Error("no se pudieron listar las ventas", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no se pudieron listar las ventas"})
		return
	}
	c.JSON(http.StatusOK, ordenes)
}
