package admin

import (
	"net/http"
	"strconv"

	"doorstep/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes expects a group already guarded by JWTAuth and AdminOnly.
func (h *Handler) RegisterRoutes(admin *gin.RouterGroup) {
	admin.GET("/bookings", h.ListBookings)
	admin.GET("/bookings/:reference", h.GetBooking)
	admin.GET("/stats", h.GetStats)
}

// ListBookings godoc
// @Summary      List bookings by status
// @Tags         Admin
// @Security     BearerAuth
// @Param        status query string false "pending (default), assigned, in-progress, completed, cancelled"
// @Param        limit  query int    false "max rows (default 50)"
// @Success      200 {object} map[string]interface{}
// @Router       /admin/bookings [get]
func (h *Handler) ListBookings(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, err := h.service.ListBookings(c.Request.Context(), c.Query("status"), limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": rows})
}

func (h *Handler) GetBooking(c *gin.Context) {
	detail, err := h.service.BookingDetail(c.Request.Context(), c.Param("reference"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, detail)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}
