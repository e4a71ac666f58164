package booking

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
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/slots/:id/availability", h.CheckSlotAvailability)
	rg.POST("/reservations/slots", h.CreateSlotReservation)
	rg.GET("/reservations", h.ListMyReservations)
	rg.GET("/reservations/:id", h.GetReservation)
	rg.GET("/reservations/by-reference/:reference", h.GetReservationByReference)
	rg.POST("/reservations/:id/cancel", h.CancelReservation)
	rg.GET("/reservations/:id/refund-eligibility", h.RefundEligibility)
}

// RegisterStaffRoutes mounts the operations reserved to staff.
func (h *Handler) RegisterStaffRoutes(rg *gin.RouterGroup) {
	rg.POST("/reservations/:id/complete", h.MarkCompleted)
	rg.POST("/reservations/:id/no-show", h.MarkNoShow)
}

func (h *Handler) CheckSlotAvailability(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid slot id")
		return
	}

	av, err := h.service.CheckSlotAvailability(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, av)
}

func (h *Handler) CreateSlotReservation(c *gin.Context) {
	var req CreateSlotReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	res, err := h.service.CreateSlotReservation(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrResourceUnavailable) {
			// include the current slot state so the caller can offer alternatives
			detail, derr := h.service.CheckSlotAvailability(c.Request.Context(), req.SlotID)
			if derr == nil {
				response.ErrorWithDetails(c, http.StatusConflict, "RESOURCE_UNAVAILABLE",
					"Slot is not available", detail)
				return
			}
		}
		writeDomainError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"reservation": res})
}

func (h *Handler) GetReservation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid reservation id")
		return
	}

	res, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservation": res})
}

func (h *Handler) GetReservationByReference(c *gin.Context) {
	ref := c.Param("reference")
	if ref == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Missing reservation reference")
		return
	}

	res, err := h.service.GetByReference(c.Request.Context(), ref)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservation": res})
}

func (h *Handler) ListMyReservations(c *gin.Context) {
	email := c.GetString("customer_email")
	if email == "" {
		email = c.Query("email")
	}
	if email == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Missing customer email")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.service.ListByCustomer(c.Request.Context(), email, limit, offset)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservations": list})
}

func (h *Handler) CancelReservation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid reservation id")
		return
	}
	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	out, err := h.service.CancelReservation(c.Request.Context(), id, req.Actor, req.Reason)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *Handler) RefundEligibility(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid reservation id")
		return
	}

	out, err := h.service.ComputeRefundEligibility(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *Handler) MarkCompleted(c *gin.Context) {
	h.transition(c, h.service.MarkCompleted)
}

func (h *Handler) MarkNoShow(c *gin.Context) {
	h.transition(c, h.service.MarkNoShow)
}

func (h *Handler) transition(c *gin.Context, fn func(ctx context.Context, id int64) (*domain.Reservation, error)) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid reservation id")
		return
	}
	res, err := fn(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservation": res})
}

// writeDomainError maps engine errors to their HTTP shapes.
func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, domain.ErrInvalidInterval):
		response.Error(c, http.StatusBadRequest, "INVALID_INTERVAL", err.Error())
	case errors.Is(err, domain.ErrPolicyViolation):
		response.Error(c, http.StatusUnprocessableEntity, "POLICY_VIOLATION", err.Error())
	case errors.Is(err, domain.ErrResourceUnavailable):
		response.Error(c, http.StatusConflict, "RESOURCE_UNAVAILABLE", err.Error())
	case errors.Is(err, domain.ErrCancellationNotAllowed):
		response.Error(c, http.StatusConflict, "CANCELLATION_NOT_ALLOWED", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		response.Error(c, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected error")
	}
}
