package rental

import (
	"context"

	"studiorent/internal/domain"
	"studiorent/internal/interval"
)

// ItemRepository is the read side of rental item resources.
type ItemRepository interface {
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.RentalItem, error)
}

// ReservationRepository is the subset of reservation persistence the rental
// lifecycle needs. ReserveItems runs its callback inside a transaction with
// the item rows locked in ascending id order.
type ReservationRepository interface {
	ReserveItems(ctx context.Context, rng interval.DateRange, itemIDs []int64, build func(items map[int64]*domain.RentalItem, reserved map[int64]int) (*domain.Reservation, error)) (*domain.Reservation, error)
	ReservedQuantities(ctx context.Context, itemIDs []int64, rng interval.DateRange) (map[int64]int, error)
	TransitionStage(ctx context.Context, id int64, next domain.RentalStage) (*domain.Reservation, error)
}

// NotificationSender mirrors notification.Sender; failures are ignored.
type NotificationSender interface {
	NotifyReservationCreated(ctx context.Context, res *domain.Reservation) error
}
