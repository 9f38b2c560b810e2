package booking

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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.CreateBooking)
	rg.GET("/bookings/:reference", h.GetBooking)
	rg.PATCH("/bookings/:reference", h.UpdateBooking)
	rg.POST("/bookings/:reference/cancel", h.CancelBooking)
}

func (h *Handler) RegisterTechnicianRoutes(rg *gin.RouterGroup) {
	rg.GET("/jobs", h.ListAvailable)
	rg.GET("/jobs/mine", h.ListMine)
	rg.POST("/jobs/:reference/claim", h.Claim)
	rg.POST("/jobs/:reference/start", h.Start)
	rg.POST("/jobs/:reference/complete", h.Complete)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings/:reference/cancel", h.AdminCancel)
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.service.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) UpdateBooking(c *gin.Context) {
	var req UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.UpdateBooking(c.Request.Context(), c.Param("reference"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) CancelBooking(c *gin.Context) {
	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "email is required")
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), c.Param("reference"), Actor{Email: req.Email}, req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) AdminCancel(c *gin.Context) {
	var req CancelRequest
	_ = c.ShouldBindJSON(&req)

	b, err := h.service.Cancel(c.Request.Context(), c.Param("reference"), Actor{Admin: true}, req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) ListAvailable(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, err := h.service.ListAvailable(c.Request.Context(), limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"jobs": rows})
}

func (h *Handler) ListMine(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, err := h.service.ListForTechnician(c.Request.Context(), c.GetInt64("subject_id"), limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"jobs": rows})
}

func (h *Handler) Claim(c *gin.Context) {
	b, err := h.service.Claim(c.Request.Context(), c.Param("reference"), c.GetInt64("subject_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) Start(c *gin.Context) {
	b, err := h.service.Start(c.Request.Context(), c.Param("reference"), c.GetInt64("subject_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) Complete(c *gin.Context) {
	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	res, err := h.service.Complete(c.Request.Context(), c.Param("reference"), c.GetInt64("subject_id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}
