package handler

import (
	"errors"
	"net/http"

	"mitanda/internal/middleware"
	"mitanda/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	svc *service.CheckoutService
	log *zap.Logger
}

func NewCheckoutHandler(svc *service.CheckoutService, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, log: log}
}

// Create opens a gateway checkout session for the authenticated user. Nothing
// is written here; the webhook materializes the purchase.
func (h *CheckoutHandler) Create(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := middleware.GetUserID(c)
	session, err := h.svc.CreateSession(c.Request.Context(), userID, &req)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Reason})
			return
		}
		if errors.Is(err, service.ErrTandaNoEncontrada) {
			c.JSON(http.StatusNotFound, gin.H{"error": "tanda no encontrada"})
			return
		}
		h.log.Error("no se pudo crear la sesión de pago",
			zap.Uint("user_id", userID), zap.String("tipo", req.Tipo), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no se pudo crear la sesión de pago"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": session.ID, "url": session.URL})
}
