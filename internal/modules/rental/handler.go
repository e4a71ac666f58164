package rental

import (
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
	rg.POST("/rentals/availability", h.CheckAvailability)
	rg.POST("/reservations/rentals", h.CreateReservation)
}

func (h *Handler) RegisterStaffRoutes(rg *gin.RouterGroup) {
	rg.POST("/reservations/:id/stage", h.AdvanceStage)
}

func (h *Handler) CheckAvailability(c *gin.Context) {
	var req CheckAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	out, err := h.service.CheckItemAvailability(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": out})
}

func (h *Handler) CreateReservation(c *gin.Context) {
	var req CreateItemReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	res, err := h.service.CreateItemReservation(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrResourceUnavailable) {
			// report per-item availability so the caller can adjust quantities
			detail, derr := h.service.CheckItemAvailability(c.Request.Context(), CheckAvailabilityRequest{
				Items:     req.Items,
				StartDate: req.StartDate,
				EndDate:   req.EndDate,
			})
			if derr == nil {
				response.ErrorWithDetails(c, http.StatusConflict, "RESOURCE_UNAVAILABLE",
					"One or more items are not available for the period", gin.H{"items": detail})
				return
			}
		}
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"reservation": res})
}

func (h *Handler) AdvanceStage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid reservation id")
		return
	}
	var req struct {
		Stage string `json:"stage" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	res, err := h.service.AdvanceStage(c.Request.Context(), id, domain.RentalStage(req.Stage))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservation": res})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, domain.ErrInvalidInterval):
		response.Error(c, http.StatusBadRequest, "INVALID_INTERVAL", err.Error())
	case errors.Is(err, domain.ErrPolicyViolation):
		response.Error(c, http.StatusUnprocessableEntity, "POLICY_VIOLATION", err.Error())
	case errors.Is(err, domain.ErrResourceUnavailable):
		response.Error(c, http.StatusConflict, "RESOURCE_UNAVAILABLE", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		response.Error(c, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected error")
	}
}
