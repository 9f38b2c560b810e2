package warranty

import (
	"net/http"

	"doorstep/internal/domain"
	"doorstep/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/warranties/lookup", h.Lookup)
}

func (h *Handler) Lookup(c *gin.Context) {
	code, ref := c.Query("code"), c.Query("reference")
	if code == "" || ref == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "code and reference are required")
		return
	}

	w, b, err := h.service.Lookup(c.Request.Context(), code, ref)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"warranty": w,
		"booking": gin.H{
			"reference":   b.Reference,
			"device_type": b.DeviceType,
			"brand":       b.Brand,
			"model":       b.Model,
		},
		"is_valid": w.Status == domain.WarrantyActive && w.ExpiryDate.After(h.service.now()),
	})
}
