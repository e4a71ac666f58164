package rental

import (
	"studiorent/internal/domain"
	"studiorent/internal/pricing"
)

type ItemRequest struct {
	ItemID   int64 `json:"item_id" binding:"required"`
	Quantity int   `json:"quantity" binding:"required,gt=0"`
}

type CheckAvailabilityRequest struct {
	Items     []ItemRequest `json:"items" binding:"required,min=1,dive"`
	StartDate string        `json:"start_date" binding:"required"` // "2006-01-02"
	EndDate   string        `json:"end_date" binding:"required"`
}

// ItemAvailability is the per-item answer of an availability probe: either
// a price quote or the reason the item cannot be rented as requested.
type ItemAvailability struct {
	ItemID            int64              `json:"item_id"`
	Available         bool               `json:"available"`
	AvailableQuantity int                `json:"available_quantity"`
	Pricing           *pricing.LineQuote `json:"pricing,omitempty"`
	Reason            string             `json:"reason,omitempty"`
}

type CreateItemReservationRequest struct {
	Items     []ItemRequest       `json:"items" binding:"required,min=1,dive"`
	StartDate string              `json:"start_date" binding:"required"`
	EndDate   string              `json:"end_date" binding:"required"`
	Customer  domain.CustomerInfo `json:"customer" binding:"required"`
	Notes     string              `json:"notes"`
}
