package payment

import (
	"io"
	"net/http"

	"doorstep/internal/pkg/apperr"
	"doorstep/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// maxWebhookBody caps the webhook payload read into memory.
const maxWebhookBody = 65536

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/checkout", h.Checkout)
	rg.GET("/payments/verify-session", h.VerifySession)
	rg.POST("/payments/webhook", h.Webhook)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/refund", h.Refund)
	rg.POST("/payments/link", h.SendLink)
	rg.POST("/bookings/:reference/mark-paid", h.MarkPaid)
}

// Checkout godoc
// @Summary      Start checkout
// @Description  Creates a checkout session for an upfront booking
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        body body CheckoutRequest true "Booking reference"
// @Success      200 {object} CheckoutResponse
// @Router       /payments/checkout [post]
func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Reference == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "reference is required")
		return
	}
	resp, err := h.service.StartCheckout(c.Request.Context(), req.Reference)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

func (h *Handler) VerifySession(c *gin.Context) {
	status, err := h.service.VerifySession(c.Request.Context(), c.Query("session_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, status)
}

// Webhook godoc
// @Summary      Payment gateway webhook
// @Description  Verifies the Stripe-Signature header and applies the event once
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Success      200 {object} map[string]bool
// @Failure      400 {object} map[string]string
// @Router       /payments/webhook [post]
func (h *Handler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	if err := h.service.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		_ = c.Error(err)
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *Handler) Refund(c *gin.Context) {
	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	res, err := h.service.Refund(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) SendLink(c *gin.Context) {
	var req PaymentLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Reference == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "reference is required")
		return
	}
	resp, err := h.service.SendPaymentLink(c.Request.Context(), req.Reference)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

func (h *Handler) MarkPaid(c *gin.Context) {
	p, err := h.service.MarkPaid(c.Request.Context(), c.Param("reference"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payment": p})
}
