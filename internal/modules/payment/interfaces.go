package payment

import (
	"context"
	"time"

	"studiorent/internal/domain"
)

type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	GetByReference(ctx context.Context, ref string) (*domain.Reservation, error)
	MarkPaid(ctx context.Context, id int64, amount float64, now time.Time) (*domain.Reservation, error)
	MarkPaymentFailed(ctx context.Context, id int64) (*domain.Reservation, error)
	TransitionPayment(ctx context.Context, id int64, next domain.PaymentStatus) (*domain.Reservation, error)
}

type NotificationSender interface {
	NotifyPaymentCompleted(ctx context.Context, res *domain.Reservation) error
}
