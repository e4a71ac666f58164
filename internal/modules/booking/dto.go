package booking

import "studiorent/internal/domain"

type CreateSlotReservationRequest struct {
	SlotID   int64               `json:"slot_id" binding:"required"`
	Customer domain.CustomerInfo `json:"customer" binding:"required"`
	Notes    string              `json:"notes"`
}

type CancelRequest struct {
	Actor  string `json:"actor" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// SlotAvailability is the answer to a slot availability probe. Reasons is
// empty exactly when Available is true.
type SlotAvailability struct {
	SlotID    int64             `json:"slot_id"`
	Available bool              `json:"available"`
	Status    domain.SlotStatus `json:"status"`
	Reasons   []string          `json:"reasons,omitempty"`
}

// CancelResult reports the outcome of a cancellation.
type CancelResult struct {
	Reservation  *domain.Reservation  `json:"reservation"`
	RefundAmount float64              `json:"refund_amount"`
	RefundStatus domain.PaymentStatus `json:"refund_status,omitempty"`
}

// RefundEligibility is the dry-run answer for a refund question.
type RefundEligibility struct {
	Eligible   bool    `json:"eligible"`
	Percentage float64 `json:"percentage"`
	MaxAmount  float64 `json:"max_amount"`
	Reason     string  `json:"reason,omitempty"`
}
