package domain

import "time"

type ReservationKind string

const (
	KindSlot   ReservationKind = "slot"
	KindRental ReservationKind = "rental"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
	BookingNoShow    BookingStatus = "no_show"
)

type PaymentStatus string

const (
	PaymentPending         PaymentStatus = "pending"
	PaymentPaid            PaymentStatus = "paid"
	PaymentFailed          PaymentStatus = "failed"
	PaymentRefundRequested PaymentStatus = "refund_requested"
	PaymentRefundApproved  PaymentStatus = "refund_approved"
	PaymentRefunded        PaymentStatus = "refunded"
)

// RentalStage tracks equipment handover for rental reservations.
// Cancellation is only permitted while the stage is still "reserved".
type RentalStage string

const (
	StageReserved   RentalStage = "reserved"
	StageCheckedOut RentalStage = "checked_out"
	StageInUse      RentalStage = "in_use"
	StageReturned   RentalStage = "returned"
	StageCompleted  RentalStage = "completed"
	StageOverdue    RentalStage = "overdue"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCancelled, BookingCompleted, BookingNoShow},
}

var stageTransitions = map[RentalStage][]RentalStage{
	StageReserved:   {StageCheckedOut},
	StageCheckedOut: {StageInUse, StageReturned, StageOverdue},
	StageInUse:      {StageReturned, StageOverdue},
	StageOverdue:    {StageReturned},
	StageReturned:   {StageCompleted},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:         {PaymentPaid, PaymentFailed},
	PaymentPaid:            {PaymentRefundRequested},
	PaymentRefundRequested: {PaymentRefundApproved},
	PaymentRefundApproved:  {PaymentRefunded},
}

// CanTransition reports whether the booking status may move to next.
// Cancelled, completed and no_show are terminal.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanTransition reports whether the handover stage may move to next
// (reserved -> checked_out -> in_use -> returned -> completed, with overdue
// as a detour).
func (s RentalStage) CanTransition(next RentalStage) bool {
	for _, allowed := range stageTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Active reports whether the reservation still holds capacity.
func (s BookingStatus) Active() bool {
	return s != BookingCancelled && s != BookingCompleted && s != BookingNoShow
}

// CustomerInfo is the opaque customer profile recorded at reservation time.
// The engine never authenticates it.
type CustomerInfo struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty"`
}

// ReservationLine is one (item, quantity) pair of a rental reservation with
// the rate that was in effect when the reservation was priced.
type ReservationLine struct {
	ID            int64   `json:"id"`
	ReservationID int64   `json:"reservation_id"`
	ItemID        int64   `json:"item_id"`
	Quantity      int     `json:"quantity"`
	EffectiveRate float64 `json:"effective_rate"` // per day per unit
	LineTotal     float64 `json:"line_total"`
}

// CancellationRecord captures who cancelled, when, why and what was refunded.
type CancellationRecord struct {
	Actor        string        `json:"actor"`
	Reason       string        `json:"reason"`
	CancelledAt  time.Time     `json:"cancelled_at"`
	RefundAmount float64       `json:"refund_amount"`
	RefundStatus PaymentStatus `json:"refund_status"`
}

// Reservation is a commitment against a slot or a set of rental items.
// Slot reservations reference exactly one slot; rental reservations carry
// one or more lines over an inclusive [StartDate, EndDate] range.
// Once payment has completed a reservation is never deleted, only moved
// through its state machine.
type Reservation struct {
	ID        int64           `json:"id"`
	Reference string          `json:"reference"`
	Kind      ReservationKind `json:"kind"`

	SlotID    *int64            `json:"slot_id,omitempty"`
	StartDate time.Time         `json:"start_date"`
	EndDate   time.Time         `json:"end_date"`
	Lines     []ReservationLine `json:"lines,omitempty"`

	Customer CustomerInfo `json:"customer"`

	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Deposit  float64 `json:"deposit"`
	Total    float64 `json:"total"`
	Paid     float64 `json:"paid"`

	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Stage         RentalStage   `json:"stage,omitempty"`

	Notes string `json:"notes,omitempty"`

	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	ConfirmedAt  *time.Time          `json:"confirmed_at,omitempty"`
	CancelledAt  *time.Time          `json:"cancelled_at,omitempty"`
	Cancellation *CancellationRecord `json:"cancellation,omitempty"`
}

// Cancellable reports whether the reservation's current state permits
// cancellation at all; the lead-time gate is policy and checked separately.
func (r *Reservation) Cancellable() bool {
	if !r.Status.CanTransition(BookingCancelled) {
		return false
	}
	if r.Kind == KindRental && r.Stage != StageReserved {
		return false
	}
	return true
}

// StartInstant is the moment the reservation begins: slot start for slot
// reservations, midnight of StartDate for rentals.
func (r *Reservation) StartInstant() time.Time {
	return r.StartDate
}
