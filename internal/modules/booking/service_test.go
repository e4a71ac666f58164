package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiorent/internal/domain"
	"studiorent/internal/interval"
	"studiorent/internal/refund"
)

// fakeStore implements SlotRepository and ReservationRepository in memory
// with the same atomicity contract as the real repositories: the whole
// reserve/cancel step runs under one lock.
type fakeStore struct {
	mu     sync.Mutex
	slots  map[int64]*domain.Slot
	res    map[int64]*domain.Reservation
	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		slots: map[int64]*domain.Slot{},
		res:   map[int64]*domain.Reservation{},
	}
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*domain.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.slots[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) ReserveSlot(_ context.Context, slotID int64, build func(slot *domain.Slot) (*domain.Reservation, error)) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.slots[slotID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	res, err := build(&cp)
	if err != nil {
		return nil, err
	}
	if s.Status != domain.SlotAvailable {
		return nil, domain.ErrResourceUnavailable
	}
	s.Status = domain.SlotBooked

	f.nextID++
	res.ID = f.nextID
	res.CreatedAt = time.Now()
	stored := *res
	f.res[res.ID] = &stored
	return res, nil
}

func (f *fakeStore) Cancel(_ context.Context, id int64, now time.Time, decide func(res *domain.Reservation) (*domain.CancellationRecord, error)) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.res[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	rec, err := decide(&cp)
	if err != nil {
		return nil, err
	}

	r.Status = domain.BookingCancelled
	r.CancelledAt = &now
	r.Cancellation = rec
	if rec.RefundAmount > 0 {
		r.PaymentStatus = rec.RefundStatus
	}
	if r.Kind == domain.KindSlot && r.SlotID != nil {
		if s, ok := f.slots[*r.SlotID]; ok && s.Status == domain.SlotBooked {
			s.Status = domain.SlotAvailable
		}
	}
	out := *r
	return &out, nil
}

func (f *fakeStore) GetReservationByID(_ context.Context, id int64) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.res[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStore) GetByReference(_ context.Context, ref string) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.res {
		if r.Reference == ref {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeStore) ListByCustomerEmail(_ context.Context, email string, _, _ int) ([]domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Reservation
	for _, r := range f.res {
		if r.Customer.Email == email {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) TransitionStatus(_ context.Context, id int64, next domain.BookingStatus) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.res[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !r.Status.CanTransition(next) {
		return nil, domain.ErrInvalidTransition
	}
	r.Status = next
	cp := *r
	return &cp, nil
}

// reservationRepo adapts fakeStore to the ReservationRepository interface
// (GetByID collides with SlotRepository's on the same struct).
type reservationRepo struct{ *fakeStore }

func (r reservationRepo) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	return r.fakeStore.GetReservationByID(ctx, id)
}

func newTestService(store *fakeStore) *Service {
	return NewService(
		store,
		reservationRepo{store},
		nil,
		refund.DefaultSlotPolicy(),
		refund.DefaultRentalPolicy(),
		0.10,
	)
}

func futureSlot(id int64, daysAhead int) *domain.Slot {
	return &domain.Slot{
		ID:        id,
		PackageID: 1,
		Date:      interval.Day(time.Now().Add(time.Duration(daysAhead) * 24 * time.Hour)),
		StartTime: "10:00",
		EndTime:   "12:00",
		Price:     100,
		Status:    domain.SlotAvailable,
	}
}

func TestCreateSlotReservation(t *testing.T) {
	store := newFakeStore()
	store.slots[1] = futureSlot(1, 2)
	svc := newTestService(store)

	res, err := svc.CreateSlotReservation(context.Background(), CreateSlotReservationRequest{
		SlotID:   1,
		Customer: domain.CustomerInfo{Name: "Aidana", Email: "aidana@example.com"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Reference)
	assert.Equal(t, domain.KindSlot, res.Kind)
	assert.Equal(t, domain.BookingPending, res.Status)
	assert.Equal(t, domain.PaymentPending, res.PaymentStatus)
	assert.InDelta(t, 100.0, res.Subtotal, 1e-9)
	assert.InDelta(t, 10.0, res.Tax, 1e-9)
	assert.InDelta(t, 110.0, res.Total, 1e-9)

	// capacity consumed together with the insert
	assert.Equal(t, domain.SlotBooked, store.slots[1].Status)
}

func TestCreateSlotReservationUnavailable(t *testing.T) {
	store := newFakeStore()
	slot := futureSlot(1, 2)
	slot.Status = domain.SlotBooked
	store.slots[1] = slot
	svc := newTestService(store)

	_, err := svc.CreateSlotReservation(context.Background(), CreateSlotReservationRequest{
		SlotID:   1,
		Customer: domain.CustomerInfo{Name: "A", Email: "a@example.com"},
	})
	assert.ErrorIs(t, err, domain.ErrResourceUnavailable)
}

func TestCreateSlotReservationPastSlot(t *testing.T) {
	store := newFakeStore()
	slot := futureSlot(1, 0)
	slot.Date = interval.Day(time.Now().Add(-48 * time.Hour))
	store.slots[1] = slot
	svc := newTestService(store)

	_, err := svc.CreateSlotReservation(context.Background(), CreateSlotReservationRequest{
		SlotID:   1,
		Customer: domain.CustomerInfo{Name: "A", Email: "a@example.com"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInterval)
}

func TestCreateSlotReservationRace(t *testing.T) {
	store := newFakeStore()
	store.slots[7] = futureSlot(7, 3)
	svc := newTestService(store)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateSlotReservation(context.Background(), CreateSlotReservationRequest{
				SlotID:   7,
				Customer: domain.CustomerInfo{Name: "Racer", Email: "racer@example.com"},
			})
		}(i)
	}
	wg.Wait()

	var won int
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, domain.ErrResourceUnavailable)
		}
	}
	assert.Equal(t, 1, won, "exactly one racing request must win")
	assert.Equal(t, domain.SlotBooked, store.slots[7].Status)
}

func TestCancelSlotReservationReleasesCapacity(t *testing.T) {
	store := newFakeStore()
	store.slots[1] = futureSlot(1, 10)
	svc := newTestService(store)

	res, err := svc.CreateSlotReservation(context.Background(), CreateSlotReservationRequest{
		SlotID:   1,
		Customer: domain.CustomerInfo{Name: "A", Email: "a@example.com"},
	})
	require.NoError(t, err)

	// simulate completed payment
	store.res[res.ID].PaymentStatus = domain.PaymentPaid
	store.res[res.ID].Status = domain.BookingConfirmed
	store.res[res.ID].Paid = 110

	out, err := svc.CancelReservation(context.Background(), res.ID, "customer", "change of plans")
	require.NoError(t, err)

	// 10 days ahead: full refund per the slot policy
	assert.InDelta(t, 110.0, out.RefundAmount, 1e-9)
	assert.Equal(t, domain.PaymentRefundRequested, out.RefundStatus)
	assert.Equal(t, domain.BookingCancelled, out.Reservation.Status)
	assert.Equal(t, domain.SlotAvailable, store.slots[1].Status, "capacity must be released")
}

func TestCancelInsideLockoutRejected(t *testing.T) {
	store := newFakeStore()
	store.slots[1] = futureSlot(1, 0)
	store.slots[1].Date = interval.Day(time.Now()) // today: inside 24h lock-out
	store.res[5] = &domain.Reservation{
		ID:            5,
		Kind:          domain.KindSlot,
		SlotID:        ptr(int64(1)),
		StartDate:     time.Now().Add(10 * time.Hour),
		Status:        domain.BookingConfirmed,
		PaymentStatus: domain.PaymentPaid,
		Paid:          110,
	}
	svc := newTestService(store)

	_, err := svc.CancelReservation(context.Background(), 5, "customer", "too late")
	assert.ErrorIs(t, err, domain.ErrCancellationNotAllowed)
}

func TestCancelRentalAtThirtyHoursRefundsHalf(t *testing.T) {
	store := newFakeStore()
	start := interval.Day(time.Now()).Add(48 * time.Hour) // lead in (24h, 48h]
	store.res[9] = &domain.Reservation{
		ID:            9,
		Kind:          domain.KindRental,
		StartDate:     start,
		EndDate:       start.Add(3 * 24 * time.Hour),
		Stage:         domain.StageReserved,
		Status:        domain.BookingConfirmed,
		PaymentStatus: domain.PaymentPaid,
		Paid:          200,
	}
	svc := newTestService(store)

	out, err := svc.CancelReservation(context.Background(), 9, "customer", "weather")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, out.RefundAmount, 1e-9)
	assert.Equal(t, domain.PaymentRefundRequested, out.RefundStatus)
}

func TestCancelCheckedOutRentalRejected(t *testing.T) {
	store := newFakeStore()
	store.res[3] = &domain.Reservation{
		ID:        3,
		Kind:      domain.KindRental,
		StartDate: time.Now().Add(100 * time.Hour),
		Stage:     domain.StageCheckedOut,
		Status:    domain.BookingConfirmed,
	}
	svc := newTestService(store)

	_, err := svc.CancelReservation(context.Background(), 3, "staff", "mistake")
	assert.ErrorIs(t, err, domain.ErrCancellationNotAllowed)
}

func TestComputeRefundEligibility(t *testing.T) {
	store := newFakeStore()
	store.res[4] = &domain.Reservation{
		ID:            4,
		Kind:          domain.KindRental,
		StartDate:     time.Now().Add(80 * time.Hour),
		Stage:         domain.StageReserved,
		Status:        domain.BookingConfirmed,
		PaymentStatus: domain.PaymentPaid,
		Paid:          150,
	}
	svc := newTestService(store)

	out, err := svc.ComputeRefundEligibility(context.Background(), 4)
	require.NoError(t, err)
	assert.True(t, out.Eligible)
	assert.InDelta(t, 0.90, out.Percentage, 1e-9)
	assert.InDelta(t, 135.0, out.MaxAmount, 1e-9)
}

func TestComputeRefundEligibilityTerminal(t *testing.T) {
	store := newFakeStore()
	store.res[4] = &domain.Reservation{
		ID:     4,
		Kind:   domain.KindSlot,
		Status: domain.BookingCompleted,
	}
	svc := newTestService(store)

	out, err := svc.ComputeRefundEligibility(context.Background(), 4)
	require.NoError(t, err)
	assert.False(t, out.Eligible)
	assert.NotEmpty(t, out.Reason)
}

func TestMarkCompleted(t *testing.T) {
	store := newFakeStore()
	store.res[2] = &domain.Reservation{ID: 2, Kind: domain.KindSlot, Status: domain.BookingConfirmed}
	svc := newTestService(store)

	res, err := svc.MarkCompleted(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCompleted, res.Status)

	_, err = svc.MarkNoShow(context.Background(), 2)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func ptr[T any](v T) *T { return &v }
