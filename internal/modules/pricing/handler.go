package pricing

import (
	"net/http"

	"doorstep/internal/pkg/response"
	"doorstep/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	resolver *Resolver
	admin    *AdminService
}

func NewHandler(resolver *Resolver, admin *AdminService) *Handler {
	return &Handler{resolver: resolver, admin: admin}
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/pricing/quote", h.Quote)
	rg.GET("/pricing/tiers", h.ListTiers)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/pricing/bulk-toggle", h.BulkToggle)
	rg.POST("/pricing/cache/invalidate", h.InvalidateCache)
}

// Quote godoc
// @Summary      Price quote
// @Description  Quotes a repair for a device, service, tier and optional postal code
// @Tags         Pricing
// @Produce      json
// @Param        device_type query string true "mobile, laptop or tablet"
// @Param        brand query string true "Brand"
// @Param        model query string true "Model"
// @Param        service query string true "Service slug"
// @Param        tier query string false "economy, standard, premium or same-day"
// @Param        postal_code query string false "Postal code"
// @Success      200 {object} PriceBreakdown
// @Router       /pricing/quote [get]
func (h *Handler) Quote(c *gin.Context) {
	var in QuoteInput
	if err := c.ShouldBindQuery(&in); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}
	if errs := validator.Validate(in); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid quote request", errs)
		return
	}

	quote, err := h.resolver.Calculate(c.Request.Context(), in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, quote)
}

func (h *Handler) ListTiers(c *gin.Context) {
	response.Success(c, http.StatusOK, Tiers())
}

func (h *Handler) BulkToggle(c *gin.Context) {
	var req BulkToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid bulk toggle request", errs)
		return
	}

	n, err := h.admin.BulkToggle(c.Request.Context(), req.IDs, *req.IsActive)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, BulkToggleResponse{Updated: n})
}

func (h *Handler) InvalidateCache(c *gin.Context) {
	h.admin.InvalidateCache()
	response.Success(c, http.StatusOK, gin.H{"invalidated": true})
}
