package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/khiva-labs/hotelier/internal/domain"
	"github.com/khiva-labs/hotelier/internal/middleware"
	"github.com/khiva-labs/hotelier/internal/service"
	"github.com/khiva-labs/hotelier/pkg/response"
)

// PaymentHandler handles the staff-facing payment endpoints
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RegisterRoutes mounts the endpoints on a JWT-protected group. Removing a
// payment is restricted to admins.
func (h *PaymentHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/payments", h.CreatePayment)
	router.DELETE("/payments/:id", middleware.RequireRole(middleware.RoleAdmin), h.RemovePayment)
	router.GET("/bookings/:id/payments", h.ListPayments)
	router.GET("/bookings/:id/balance", h.GetBalance)
}

// CreatePaymentRequest is the manual payment payload
type CreatePaymentRequest struct {
	BookingID int64  `json:"booking_id" binding:"required,gt=0"`
	Amount    int64  `json:"amount" binding:"required,gt=0"`
	Method    string `json:"method" binding:"required"`
	Reference string `json:"reference"`
}

// CreatePayment handles POST /payments
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	payment, err := h.paymentService.CreatePayment(c.Request.Context(), service.CreatePaymentInput{
		BookingID: req.BookingID,
		Amount:    req.Amount,
		Method:    domain.PaymentMethod(req.Method),
		Reference: req.Reference,
		UserID:    c.GetString(middleware.ContextUserID),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Created(c, payment)
}

// RemovePayment handles DELETE /payments/:id
func (h *PaymentHandler) RemovePayment(c *gin.Context) {
	paymentID := c.Param("id")
	if paymentID == "" {
		response.BadRequest(c, "payment id is required")
		return
	}

	payment, err := h.paymentService.RemovePayment(c.Request.Context(), paymentID,
		c.GetString(middleware.ContextUserID))
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": true, "id": payment.ID})
}

// ListPayments handles GET /bookings/:id/payments
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || bookingID <= 0 {
		response.BadRequest(c, "booking id must be a positive integer")
		return
	}

	payments, err := h.paymentService.ListPayments(c.Request.Context(), bookingID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, gin.H{"payments": payments, "count": len(payments)})
}

// GetBalance handles GET /bookings/:id/balance
func (h *PaymentHandler) GetBalance(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || bookingID <= 0 {
		response.BadRequest(c, "booking id must be a positive integer")
		return
	}

	booking, err := h.paymentService.GetBookingBalance(c.Request.Context(), bookingID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, gin.H{
		"booking_id":   booking.ID,
		"total_amount": booking.TotalAmount,
		"paid_amount":  booking.PaidAmount,
		"remaining":    booking.Remaining(),
		"currency":     booking.Currency,
		"status":       booking.Status,
		"fully_paid":   booking.IsFullyPaid(),
	})
}

// respondError maps domain errors to HTTP statuses. Staff-facing callers get
// descriptive messages, including the remaining balance on overpayment.
func (h *PaymentHandler) respondError(c *gin.Context, err error) {
	var overErr *domain.OverpaymentError
	switch {
	case errors.As(err, &overErr):
		response.Error(c, http.StatusConflict, "OVERPAYMENT",
			fmt.Sprintf("payment exceeds remaining balance of %d", overErr.Remaining), "")
	case errors.Is(err, domain.ErrBookingClosed):
		response.Conflict(c, "BOOKING_CLOSED", "booking does not accept payments")
	case domain.IsNotFoundError(err):
		response.NotFound(c, err.Error())
	case domain.IsValidationError(err):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
