package rental

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"studiorent/internal/domain"
	"studiorent/internal/interval"
	"studiorent/internal/pricing"
)

type Service struct {
	items        ItemRepository
	reservations ReservationRepository
	notifs       NotificationSender
	taxRate      float64
}

func NewService(items ItemRepository, reservations ReservationRepository, notifs NotificationSender, taxRate float64) *Service {
	return &Service{
		items:        items,
		reservations: reservations,
		notifs:       notifs,
		taxRate:      taxRate,
	}
}

func parseRange(startStr, endStr string, now time.Time) (interval.DateRange, error) {
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return interval.DateRange{}, fmt.Errorf("%w: bad start date %q", domain.ErrInvalidInterval, startStr)
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return interval.DateRange{}, fmt.Errorf("%w: bad end date %q", domain.ErrInvalidInterval, endStr)
	}
	rng := interval.NewDateRange(start, end)
	if !rng.Valid() {
		return interval.DateRange{}, fmt.Errorf("%w: end date before start date", domain.ErrInvalidInterval)
	}
	if rng.InPast(now) {
		return interval.DateRange{}, fmt.Errorf("%w: range starts in the past", domain.ErrInvalidInterval)
	}
	return rng, nil
}

func itemIDs(items []ItemRequest) ([]int64, error) {
	seen := make(map[int64]bool, len(items))
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrPolicyViolation)
		}
		if seen[it.ItemID] {
			return nil, fmt.Errorf("%w: duplicate item %d", domain.ErrPolicyViolation, it.ItemID)
		}
		seen[it.ItemID] = true
		ids = append(ids, it.ItemID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// CheckItemAvailability answers, per requested item, whether the quantity is
// free over the range, with a price quote when it is. Advisory only: the
// authoritative check reruns under lock in CreateItemReservation.
func (s *Service) CheckItemAvailability(ctx context.Context, req CheckAvailabilityRequest) ([]ItemAvailability, error) {
	rng, err := parseRange(req.StartDate, req.EndDate, time.Now())
	if err != nil {
		return nil, err
	}
	ids, err := itemIDs(req.Items)
	if err != nil {
		return nil, err
	}

	items, err := s.items.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	reserved, err := s.reservations.ReservedQuantities(ctx, ids, rng)
	if err != nil {
		return nil, err
	}

	days := rng.Days()
	out := make([]ItemAvailability, 0, len(req.Items))
	for _, r := range req.Items {
		out = append(out, checkOne(items[r.ItemID], r, reserved[r.ItemID], days))
	}
	return out, nil
}

func checkOne(item *domain.RentalItem, req ItemRequest, reserved, days int) ItemAvailability {
	av := ItemAvailability{ItemID: req.ItemID}
	if item == nil {
		av.Reason = "item not found"
		return av
	}
	if !item.IsAvailable() {
		av.Reason = "item is not rentable in its current condition"
		return av
	}
	if !item.AllowsDuration(days) {
		av.Reason = fmt.Sprintf("duration %d days outside allowed range %d..%d",
			days, item.MinRentalDays, item.MaxRentalDays)
		return av
	}
	free := item.TotalQuantity - reserved
	if free < 0 {
		free = 0
	}
	av.AvailableQuantity = free
	if free < req.Quantity {
		av.Reason = fmt.Sprintf("only %d of %d units free for the period", free, req.Quantity)
		return av
	}
	q := pricing.QuoteLine(item, days, req.Quantity)
	av.Available = true
	av.Pricing = &q
	return av
}

// CreateItemReservation reserves all requested items over the range, or
// nothing: a single item short on capacity rejects the whole request. The
// capacity checks and the reservation insert run in one transaction with
// the item rows locked.
func (s *Service) CreateItemReservation(ctx context.Context, req CreateItemReservationRequest) (*domain.Reservation, error) {
	now := time.Now()
	rng, err := parseRange(req.StartDate, req.EndDate, now)
	if err != nil {
		return nil, err
	}
	ids, err := itemIDs(req.Items)
	if err != nil {
		return nil, err
	}
	days := rng.Days()

	res, err := s.reservations.ReserveItems(ctx, rng, ids, func(items map[int64]*domain.RentalItem, reserved map[int64]int) (*domain.Reservation, error) {
		var subtotal, deposit float64
		lines := make([]domain.ReservationLine, 0, len(req.Items))

		for _, r := range req.Items {
			item := items[r.ItemID]
			if item == nil {
				return nil, fmt.Errorf("%w: item %d", domain.ErrNotFound, r.ItemID)
			}
			if !item.IsAvailable() {
				return nil, fmt.Errorf("%w: %s is not rentable", domain.ErrResourceUnavailable, item.Name)
			}
			if !item.AllowsDuration(days) {
				return nil, fmt.Errorf("%w: %s allows %d..%d rental days, requested %d",
					domain.ErrPolicyViolation, item.Name, item.MinRentalDays, item.MaxRentalDays, days)
			}
			free := item.TotalQuantity - reserved[r.ItemID]
			if free < r.Quantity {
				return nil, fmt.Errorf("%w: %s has %d units free for the period, requested %d",
					domain.ErrResourceUnavailable, item.Name, free, r.Quantity)
			}

			q := pricing.QuoteLine(item, days, r.Quantity)
			subtotal += q.Subtotal
			deposit += q.Deposit
			lines = append(lines, domain.ReservationLine{
				ItemID:        r.ItemID,
				Quantity:      r.Quantity,
				EffectiveRate: q.EffectiveRate,
				LineTotal:     q.Subtotal,
			})
		}

		subtotal = pricing.Round2(subtotal)
		tax := pricing.Tax(subtotal, s.taxRate)

		return &domain.Reservation{
			Reference:     uuid.NewString(),
			Kind:          domain.KindRental,
			StartDate:     rng.Start,
			EndDate:       rng.End,
			Customer:      req.Customer,
			Lines:         lines,
			Subtotal:      subtotal,
			Tax:           tax,
			Deposit:       pricing.Round2(deposit),
			Total:         pricing.Round2(subtotal + tax),
			Status:        domain.BookingPending,
			PaymentStatus: domain.PaymentPending,
			Stage:         domain.StageReserved,
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

// AdvanceStage moves a rental reservation through the handover flow. All
// validation happens in the repository under the row lock, so a concurrent
// cancellation cannot race the stage write.
func (s *Service) AdvanceStage(ctx context.Context, id int64, next domain.RentalStage) (*domain.Reservation, error) {
	return s.reservations.TransitionStage(ctx, id, next)
}
