package auth

import (
	"errors"
	"net/http"

	"doorstep/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/technician/login", h.TechnicianLogin)
		authGroup.POST("/admin/login", h.AdminLogin)
	}
}

// TechnicianLogin godoc
// @Summary      Technician login
// @Description  Exchanges technician credentials for a bearer token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200 {object} LoginResult
// @Failure      401 {object} map[string]interface{}
// @Failure      429 {object} map[string]interface{}
// @Router       /auth/technician/login [post]
func (h *Handler) TechnicianLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "email and password are required")
		return
	}
	res, err := h.service.LoginTechnician(c.Request.Context(), req)
	if err != nil {
		h.loginError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "email and password are required")
		return
	}
	res, err := h.service.LoginAdmin(c.Request.Context(), req)
	if err != nil {
		h.loginError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) loginError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, ErrAccountLocked):
		response.Error(c, http.StatusTooManyRequests, "ACCOUNT_LOCKED", "Too many failed attempts, try again later")
	case errors.Is(err, ErrAccountDisabled):
		response.Error(c, http.StatusForbidden, "ACCOUNT_DISABLED", "Account is disabled")
	case errors.Is(err, ErrAdminNotConfigured):
		response.Error(c, http.StatusServiceUnavailable, "NOT_CONFIGURED", "Admin login is not configured")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Login failed")
	}
}
