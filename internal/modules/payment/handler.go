package payment

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"studiorent/internal/domain"
	"studiorent/internal/pkg/response"
)

type Handler struct {
	service *Service
	loggerf func(format string, args ...interface{})
}

func NewHandler(service *Service, loggerf func(format string, args ...interface{})) *Handler {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Handler{service: service, loggerf: loggerf}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/init", h.InitPayment)
}

// RegisterGatewayRoutes mounts the callbacks the gateway posts to. They are
// unauthenticated; the signature in the payload is the credential.
func (h *Handler) RegisterGatewayRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/callback", h.Callback)
	rg.POST("/payments/fail", h.Fail)
}

func (h *Handler) RegisterStaffRoutes(rg *gin.RouterGroup) {
	rg.POST("/reservations/:id/refund/approve", h.ApproveRefund)
	rg.POST("/reservations/:id/refund/complete", h.CompleteRefund)
}

func (h *Handler) InitPayment(c *gin.Context) {
	var req InitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	intent, err := h.service.InitPayment(c.Request.Context(), req)
	if err != nil {
		h.loggerf("level=error msg=payment init failed reservation_id=%d err=%v", req.ReservationID, err)
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payment": intent})
}

func (h *Handler) Callback(c *gin.Context) {
	var cb GatewayCallback
	if err := c.ShouldBindJSON(&cb); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	res, err := h.service.HandleCallback(c.Request.Context(), cb)
	if err != nil {
		h.loggerf("level=error msg=payment callback failed reference=%s err=%v", cb.Reference, err)
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservation": res})
}

func (h *Handler) Fail(c *gin.Context) {
	var req FailPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	res, err := h.service.FailPayment(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservation": res})
}

func (h *Handler) ApproveRefund(c *gin.Context) {
	h.refundTransition(c, h.service.ApproveRefund)
}

func (h *Handler) CompleteRefund(c *gin.Context) {
	h.refundTransition(c, h.service.CompleteRefund)
}

func (h *Handler) refundTransition(c *gin.Context, op func(ctx context.Context, id int64) (*domain.Reservation, error)) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid reservation id")
		return
	}
	res, err := op(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservation": res})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidSignature):
		response.Error(c, http.StatusForbidden, "INVALID_SIGNATURE", err.Error())
	case errors.Is(err, ErrAmountMismatch):
		response.Error(c, http.StatusConflict, "AMOUNT_MISMATCH", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		response.Error(c, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}
