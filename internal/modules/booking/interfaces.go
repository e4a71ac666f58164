package booking

import (
	"context"
	"time"

	"studiorent/internal/domain"
)

// SlotRepository is the read side of slot resources.
type SlotRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Slot, error)
}

// ReservationRepository is the subset of reservation persistence the slot
// lifecycle needs. ReserveSlot and Cancel run their callbacks inside a
// transaction with the affected rows locked.
type ReservationRepository interface {
	ReserveSlot(ctx context.Context, slotID int64, build func(slot *domain.Slot) (*domain.Reservation, error)) (*domain.Reservation, error)
	Cancel(ctx context.Context, id int64, now time.Time, decide func(res *domain.Reservation) (*domain.CancellationRecord, error)) (*domain.Reservation, error)
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	GetByReference(ctx context.Context, ref string) (*domain.Reservation, error)
	ListByCustomerEmail(ctx context.Context, email string, limit, offset int) ([]domain.Reservation, error)
	TransitionStatus(ctx context.Context, id int64, next domain.BookingStatus) (*domain.Reservation, error)
}

// NotificationSender mirrors notification.Sender; failures are ignored.
type NotificationSender interface {
	NotifyReservationCreated(ctx context.Context, res *domain.Reservation) error
	NotifyReservationCancelled(ctx context.Context, res *domain.Reservation, reason string) error
}
