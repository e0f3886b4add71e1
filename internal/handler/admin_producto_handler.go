package handler

import (
	"errors"
	"math"
	"net/http"

	"mitanda/internal/models"
	"mitanda/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminProductoHandler manages the product catalog.
type AdminProductoHandler struct {
	productos *repository.ProductoRepository
	log       *zap.Logger
}

func NewAdminProductoHandler(productos *repository.ProductoRepository, log *zap.Logger) *AdminProductoHandler {
	return &AdminProductoHandler{productos: productos, log: log}
}

type ProductoRequest struct {
	Nombre      string   `json:"nombre" binding:"required,min=2,max=160"`
	Descripcion string   `json:"descripcion"`
	Precio      float64  `json:"precio" binding:"required,gt=0"` // pesos
	Stock       int      `json:"stock" binding:"gte=0"`
	Disponible  *bool    `json:"disponible"`
	Imagen      string   `json:"imagen"`
	ImagenURL   string   `json:"imagen_url"`
	Envio       *float64 `json:"envio"` // pesos; nil = default shipping
}

func (h *AdminProductoHandler) Create(c *gin.Context) {
	var req ProductoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := &models.Producto{
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		PrecioCents: pesosACents(req.Precio),
		Stock:       req.Stock,
		Disponible:  req.Disponible == nil || *req.Disponible,
		Imagen:      req.Imagen,
		ImagenURL:   req.ImagenURL,
	}
	if req.Envio != nil {
		envio := pesosACents(*req.Envio)
		p.EnvioCents = &envio
	}
	if err := h.productos.Create(p); err != nil {
		h.log.Error("no se pudo crear el producto", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no se pudo crear el producto"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *AdminProductoHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req ProductoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.productos.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "producto no encontrado"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no se pudo obtener el producto"})
		return
	}
	p.Nombre = req.Nombre
	p.Descripcion = req.Descripcion
	p.PrecioCents = pesosACents(req.Precio)
	p.Stock = req.Stock
	if req.Disponible != nil {
		p.Disponible = *req.Disponible
	}
	p.Imagen = req.Imagen
	p.ImagenURL = req.ImagenURL
	if req.Envio != nil {
		envio := pesosACents(*req.Envio)
		p.EnvioCents = &envio
	} else {
		p.EnvioCents = nil
	}
	if err := h.productos.Update(p); err != nil {
		h.log.Error("no se pudo actualizar el producto", zap.Uint("producto_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no se pudo actualizar el producto"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *AdminProductoHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.productos.Delete(id); err != nil {
		h.log.Error("no se pudo eliminar el producto", zap.Uint("producto_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no se pudo eliminar el producto"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func pesosACents(pesos float64) int64 {
	return int64(math.Round(pesos * 100))
}
