package handler

import (
	"errors"
	"net/http"

	"mitanda/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductoHandler serves the public product catalog.
type ProductoHandler struct {
	productos *repository.ProductoRepository
	log       *zap.Logger
}

func NewProductoHandler(productos *repository.ProductoRepository, log *zap.Logger) *ProductoHandler {
	return &ProductoHandler{productos: productos, log: log}
}

// List returns available products; ?todos=1 includes unavailable ones.
func (h *ProductoHandler) List(c *gin.Context) {
	soloDisponibles := c.Query("todos") == ""
	productos, err := h.productos.List(soloDisponibles)
	if err != nil {
		h.log.Error("no se pudieron listar los productos", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no se pudieron listar los productos"})
		return
	}
	c.JSON(http.StatusOK, productos)
}

func (h *ProductoHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	p, err := h.productos.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "producto no encontrado"})
			return
		}
		h.log.Error("no se pudo obtener el producto", zap.Uint("producto_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no se pudo obtener el producto"})
		return
	}
	c.JSON(http.StatusOK, p)
}
