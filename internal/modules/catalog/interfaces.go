package catalog

import (
	"context"
	"time"

	"studiorent/internal/domain"
)

type SlotRepository interface {
	Create(ctx context.Context, s *domain.Slot) error
	GetByID(ctx context.Context, id int64) (*domain.Slot, error)
	ListByPackageAndDate(ctx context.Context, packageID int64, date time.Time) ([]domain.Slot, error)
	ListByDate(ctx context.Context, date time.Time) ([]domain.Slot, error)
	Update(ctx context.Context, s *domain.Slot) error
	SetStatus(ctx context.Context, id int64, status domain.SlotStatus) error
	SoftDelete(ctx context.Context, id int64, now time.Time) error
}

type ItemRepository interface {
	Create(ctx context.Context, i *domain.RentalItem) error
	GetByID(ctx context.Context, id int64) (*domain.RentalItem, error)
	List(ctx context.Context, category string) ([]domain.RentalItem, error)
	Update(ctx context.Context, i *domain.RentalItem) error
	SoftDelete(ctx context.Context, id int64, now time.Time) error
}

// ReservationCounter guards destructive slot operations: a slot with an
// active reservation cannot be blocked or removed.
type ReservationCounter interface {
	CountActiveForSlot(ctx context.Context, slotID int64) (int64, error)
}
