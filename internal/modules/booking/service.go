package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"studiorent/internal/domain"
	"studiorent/internal/interval"
	"studiorent/internal/pricing"
	"studiorent/internal/refund"
)

type Service struct {
	slots        SlotRepository
	reservations ReservationRepository
	notifs       NotificationSender

	slotPolicy   refund.Policy
	rentalPolicy refund.Policy
	taxRate      float64
}

func NewService(
	slots SlotRepository,
	reservations ReservationRepository,
	notifs NotificationSender,
	slotPolicy refund.Policy,
	rentalPolicy refund.Policy,
	taxRate float64,
) *Service {
	return &Service{
		slots:        slots,
		reservations: reservations,
		notifs:       notifs,
		slotPolicy:   slotPolicy,
		rentalPolicy: rentalPolicy,
		taxRate:      taxRate,
	}
}

// CheckSlotAvailability answers whether a slot can currently be reserved and
// why not otherwise. Purely advisory: the authoritative check reruns under
// lock inside CreateSlotReservation.
func (s *Service) CheckSlotAvailability(ctx context.Context, slotID int64) (*SlotAvailability, error) {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}

	out := &SlotAvailability{SlotID: slotID, Status: slot.Status}
	if !slot.IsAvailable() {
		out.Reasons = append(out.Reasons, fmt.Sprintf("slot is %s", slot.Status))
	}
	start, err := slot.StartInstant()
	if err != nil {
		return nil, err
	}
	if !start.After(time.Now()) {
		out.Reasons = append(out.Reasons, "slot is in the past")
	}
	out.Available = len(out.Reasons) == 0
	return out, nil
}

// CreateSlotReservation reserves a studio slot for a customer. The
// availability check, the slot status flip and the reservation insert commit
// as one transaction; of two racing requests exactly one wins.
func (s *Service) CreateSlotReservation(ctx context.Context, req CreateSlotReservationRequest) (*domain.Reservation, error) {
	now := time.Now()

	res, err := s.reservations.ReserveSlot(ctx, req.SlotID, func(slot *domain.Slot) (*domain.Reservation, error) {
		if !slot.IsAvailable() {
			return nil, fmt.Errorf("%w: slot is %s", domain.ErrResourceUnavailable, slot.Status)
		}
		start, err := slot.StartInstant()
		if err != nil {
			return nil, err
		}
		end, err := slot.EndInstant()
		if err != nil {
			return nil, err
		}
		if !start.After(now) {
			return nil, fmt.Errorf("%w: slot has already started", domain.ErrInvalidInterval)
		}

		subtotal := pricing.Round2(slot.Price)
		tax := pricing.Tax(subtotal, s.taxRate)
		slotID := slot.ID

		return &domain.Reservation{
			Reference:     uuid.NewString(),
			Kind:          domain.KindSlot,
			SlotID:        &slotID,
			StartDate:     start,
			EndDate:       end,
			Customer:      req.Customer,
			Subtotal:      subtotal,
			Tax:           tax,
			Total:         pricing.Round2(subtotal + tax),
			Status:        domain.BookingPending,
			PaymentStatus: domain.PaymentPending,
			Notes:         req.Notes,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifs != nil {
		_ = s.notifs.NotifyReservationCreated(ctx, res)
	}
	return res, nil
}

// CancelReservation cancels a slot or rental reservation, computing the
// refund from the policy for its kind. The cancellation record and the
// capacity release commit atomically with the status change.
func (s *Service) CancelReservation(ctx context.Context, id int64, actor, reason string) (*CancelResult, error) {
	now := time.Now()

	res, err := s.reservations.Cancel(ctx, id, now, func(r *domain.Reservation) (*domain.CancellationRecord, error) {
		if !r.Cancellable() {
			return nil, fmt.Errorf("%w: status %s does not permit cancellation", domain.ErrCancellationNotAllowed, r.Status)
		}

		frac, err := s.refundFraction(r, now)
		if err != nil {
			return nil, err
		}

		rec := &domain.CancellationRecord{
			Actor:        actor,
			Reason:       reason,
			CancelledAt:  now,
			RefundAmount: pricing.Round2(r.Paid * frac),
		}
		if rec.RefundAmount > 0 {
			rec.RefundStatus = domain.PaymentRefundRequested
		}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifs != nil {
		_ = s.notifs.NotifyReservationCancelled(ctx, res, reason)
	}

	out := &CancelResult{Reservation: res}
	if res.Cancellation != nil {
		out.RefundAmount = res.Cancellation.RefundAmount
		out.RefundStatus = res.Cancellation.RefundStatus
	}
	return out, nil
}

// ComputeRefundEligibility answers the refund question without cancelling.
func (s *Service) ComputeRefundEligibility(ctx context.Context, id int64) (*RefundEligibility, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !res.Cancellable() {
		return &RefundEligibility{Reason: "reservation is not cancellable in its current state"}, nil
	}

	now := time.Now()
	frac, err := s.refundFraction(res, now)
	if err != nil {
		return &RefundEligibility{Reason: "inside cancellation lock-out window"}, nil
	}

	out := &RefundEligibility{
		Eligible:   frac > 0,
		Percentage: frac,
		MaxAmount:  pricing.Round2(res.Paid * frac),
	}
	if frac == 0 {
		out.Reason = "lead time too short for a refund"
	} else if res.Paid == 0 {
		out.Reason = "nothing has been paid yet"
	}
	return out, nil
}

// refundFraction applies the policy for the reservation's kind. Slot
// refunds grade on whole days until the booking date while the lock-out gate
// uses the actual start instant; rentals grade on hours until the start.
func (s *Service) refundFraction(r *domain.Reservation, now time.Time) (float64, error) {
	switch r.Kind {
	case domain.KindSlot:
		lead := r.StartDate.Sub(now)
		if !s.slotPolicy.CancellationAllowed(lead) {
			return 0, fmt.Errorf("%w: inside %s lock-out window", domain.ErrCancellationNotAllowed, s.slotPolicy.LockOut)
		}
		dayLead := interval.Day(r.StartDate).Sub(interval.Day(now))
		return s.slotPolicy.Fraction(dayLead), nil
	default:
		lead := r.StartDate.Sub(now)
		if !s.rentalPolicy.CancellationAllowed(lead) {
			return 0, fmt.Errorf("%w: inside %s lock-out window", domain.ErrCancellationNotAllowed, s.rentalPolicy.LockOut)
		}
		return s.rentalPolicy.Fraction(lead), nil
	}
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	return s.reservations.GetByID(ctx, id)
}

func (s *Service) GetByReference(ctx context.Context, ref string) (*domain.Reservation, error) {
	return s.reservations.GetByReference(ctx, ref)
}

func (s *Service) ListByCustomer(ctx context.Context, email string, limit, offset int) ([]domain.Reservation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.reservations.ListByCustomerEmail(ctx, email, limit, offset)
}

// MarkCompleted and MarkNoShow are staff operations on past reservations.
func (s *Service) MarkCompleted(ctx context.Context, id int64) (*domain.Reservation, error) {
	return s.reservations.TransitionStatus(ctx, id, domain.BookingCompleted)
}

func (s *Service) MarkNoShow(ctx context.Context, id int64) (*domain.Reservation, error) {
	return s.reservations.TransitionStatus(ctx, id, domain.BookingNoShow)
}
