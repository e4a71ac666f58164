package rental

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiorent/internal/domain"
	"studiorent/internal/interval"
)

// fakeStore implements ItemRepository and ReservationRepository in memory
// with the same contract as the real repositories: ReserveItems computes
// reserved sums and inserts under a single lock.
type fakeStore struct {
	mu     sync.Mutex
	items  map[int64]*domain.RentalItem
	res    map[int64]*domain.Reservation
	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items: map[int64]*domain.RentalItem{},
		res:   map[int64]*domain.Reservation{},
	}
}

func (f *fakeStore) GetByIDs(_ context.Context, ids []int64) (map[int64]*domain.RentalItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int64]*domain.RentalItem, len(ids))
	for _, id := range ids {
		if it, ok := f.items[id]; ok {
			cp := *it
			out[id] = &cp
		}
	}
	return out, nil
}

func (f *fakeStore) reservedLocked(ids []int64, rng interval.DateRange) map[int64]int {
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := map[int64]int{}
	for _, r := range f.res {
		if !r.Status.Active() {
			continue
		}
		if !interval.NewDateRange(r.StartDate, r.EndDate).OverlapsRange(rng) {
			continue
		}
		for _, l := range r.Lines {
			if want[l.ItemID] {
				out[l.ItemID] += l.Quantity
			}
		}
	}
	return out
}

func (f *fakeStore) ReservedQuantities(_ context.Context, ids []int64, rng interval.DateRange) (map[int64]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reservedLocked(ids, rng), nil
}

func (f *fakeStore) ReserveItems(_ context.Context, rng interval.DateRange, ids []int64, build func(items map[int64]*domain.RentalItem, reserved map[int64]int) (*domain.Reservation, error)) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := make(map[int64]*domain.RentalItem, len(ids))
	for _, id := range ids {
		if it, ok := f.items[id]; ok {
			cp := *it
			items[id] = &cp
		}
	}

	res, err := build(items, f.reservedLocked(ids, rng))
	if err != nil {
		return nil, err
	}

	f.nextID++
	res.ID = f.nextID
	res.CreatedAt = time.Now()
	stored := *res
	f.res[res.ID] = &stored
	return res, nil
}

func (f *fakeStore) TransitionStage(_ context.Context, id int64, next domain.RentalStage) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.res[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if r.Kind != domain.KindRental {
		return nil, domain.ErrInvalidTransition
	}
	if !r.Status.Active() {
		return nil, domain.ErrInvalidTransition
	}
	if !r.Stage.CanTransition(next) {
		return nil, domain.ErrInvalidTransition
	}
	r.Stage = next
	cp := *r
	return &cp, nil
}

func fptr(v float64) *float64 { return &v }

func camera(total int) *domain.RentalItem {
	return &domain.RentalItem{
		ID:            1,
		Name:          "Canon R5",
		Category:      "camera",
		Condition:     domain.ConditionGood,
		TotalQuantity: total,
		Rates:         domain.RateTable{DailyRate: 100, WeeklyRate: fptr(560)},
		MinRentalDays: 1,
		MaxRentalDays: 30,
		IsActive:      true,
	}
}

func dateStr(daysAhead int) string {
	return interval.Day(time.Now()).Add(time.Duration(daysAhead) * 24 * time.Hour).Format("2006-01-02")
}

func customer() domain.CustomerInfo {
	return domain.CustomerInfo{Name: "Dana", Email: "dana@example.com"}
}

func TestCheckItemAvailability(t *testing.T) {
	store := newFakeStore()
	store.items[1] = camera(3)
	// two units already held over the window
	start := interval.Day(time.Now()).Add(5 * 24 * time.Hour)
	store.res[100] = &domain.Reservation{
		ID:        100,
		Kind:      domain.KindRental,
		Status:    domain.BookingConfirmed,
		StartDate: start,
		EndDate:   start.Add(2 * 24 * time.Hour),
		Lines:     []domain.ReservationLine{{ItemID: 1, Quantity: 2}},
	}
	svc := NewService(store, store, nil, 0.10)

	out, err := svc.CheckItemAvailability(context.Background(), CheckAvailabilityRequest{
		Items:     []ItemRequest{{ItemID: 1, Quantity: 1}},
		StartDate: dateStr(5),
		EndDate:   dateStr(7),
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].Available)
	assert.Equal(t, 1, out[0].AvailableQuantity)
	require.NotNil(t, out[0].Pricing)
	// 3 inclusive days at the daily rate
	assert.InDelta(t, 300.0, out[0].Pricing.Subtotal, 1e-9)

	out, err = svc.CheckItemAvailability(context.Background(), CheckAvailabilityRequest{
		Items:     []ItemRequest{{ItemID: 1, Quantity: 2}},
		StartDate: dateStr(5),
		EndDate:   dateStr(7),
	})
	require.NoError(t, err)
	assert.False(t, out[0].Available)
	assert.NotEmpty(t, out[0].Reason)
}

func TestCheckItemAvailabilityDisjointWindow(t *testing.T) {
	store := newFakeStore()
	store.items[1] = camera(2)
	start := interval.Day(time.Now()).Add(5 * 24 * time.Hour)
	store.res[100] = &domain.Reservation{
		ID:        100,
		Kind:      domain.KindRental,
		Status:    domain.BookingConfirmed,
		StartDate: start,
		EndDate:   start.Add(24 * time.Hour),
		Lines:     []domain.ReservationLine{{ItemID: 1, Quantity: 2}},
	}
	svc := NewService(store, store, nil, 0.10)

	// window after the held one: full quantity free
	out, err := svc.CheckItemAvailability(context.Background(), CheckAvailabilityRequest{
		Items:     []ItemRequest{{ItemID: 1, Quantity: 2}},
		StartDate: dateStr(8),
		EndDate:   dateStr(9),
	})
	require.NoError(t, err)
	assert.True(t, out[0].Available)
	assert.Equal(t, 2, out[0].AvailableQuantity)
}

func TestCreateItemReservation(t *testing.T) {
	store := newFakeStore()
	item := camera(3)
	item.RequiresDeposit = true
	store.items[1] = item
	svc := NewService(store, store, nil, 0.10)

	res, err := svc.CreateItemReservation(context.Background(), CreateItemReservationRequest{
		Items:     []ItemRequest{{ItemID: 1, Quantity: 2}},
		StartDate: dateStr(3),
		EndDate:   dateStr(9), // 7 inclusive days: weekly tier kicks in
		Customer:  customer(),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.KindRental, res.Kind)
	assert.Equal(t, domain.StageReserved, res.Stage)
	require.Len(t, res.Lines, 1)
	// weekly 560/7 = 80/day, 7 days, 2 units
	assert.InDelta(t, 80.0, res.Lines[0].EffectiveRate, 1e-9)
	assert.InDelta(t, 1120.0, res.Subtotal, 1e-9)
	assert.InDelta(t, 112.0, res.Tax, 1e-9)
	assert.InDelta(t, 1232.0, res.Total, 1e-9)
	// no explicit deposit amount: 20% of the line subtotal
	assert.InDelta(t, 224.0, res.Deposit, 1e-9)
}

func TestCreateItemReservationPolicyViolation(t *testing.T) {
	store := newFakeStore()
	item := camera(3)
	item.MinRentalDays = 3
	store.items[1] = item
	svc := NewService(store, store, nil, 0.10)

	_, err := svc.CreateItemReservation(context.Background(), CreateItemReservationRequest{
		Items:     []ItemRequest{{ItemID: 1, Quantity: 1}},
		StartDate: dateStr(3),
		EndDate:   dateStr(3), // single day, minimum is 3
		Customer:  customer(),
	})
	assert.ErrorIs(t, err, domain.ErrPolicyViolation)
}

func TestCreateItemReservationInvalidRange(t *testing.T) {
	store := newFakeStore()
	store.items[1] = camera(3)
	svc := NewService(store, store, nil, 0.10)

	_, err := svc.CreateItemReservation(context.Background(), CreateItemReservationRequest{
		Items:     []ItemRequest{{ItemID: 1, Quantity: 1}},
		StartDate: dateStr(5),
		EndDate:   dateStr(3),
		Customer:  customer(),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInterval)

	_, err = svc.CreateItemReservation(context.Background(), CreateItemReservationRequest{
		Items:     []ItemRequest{{ItemID: 1, Quantity: 1}},
		StartDate: dateStr(-3),
		EndDate:   dateStr(2),
		Customer:  customer(),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInterval)
}

func TestCreateItemReservationAllOrNothing(t *testing.T) {
	store := newFakeStore()
	store.items[1] = camera(3)
	tripod := camera(1)
	tripod.ID = 2
	tripod.Name = "Tripod"
	store.items[2] = tripod
	svc := NewService(store, store, nil, 0.10)

	_, err := svc.CreateItemReservation(context.Background(), CreateItemReservationRequest{
		Items: []ItemRequest{
			{ItemID: 1, Quantity: 2},
			{ItemID: 2, Quantity: 2}, // only 1 unit exists
		},
		StartDate: dateStr(3),
		EndDate:   dateStr(5),
		Customer:  customer(),
	})
	assert.ErrorIs(t, err, domain.ErrResourceUnavailable)
	assert.Empty(t, store.res, "a partial failure must book nothing")
}

func TestCreateItemReservationRaceForLastUnits(t *testing.T) {
	store := newFakeStore()
	store.items[1] = camera(2)
	svc := NewService(store, store, nil, 0.10)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateItemReservation(context.Background(), CreateItemReservationRequest{
				Items:     []ItemRequest{{ItemID: 1, Quantity: 2}},
				StartDate: dateStr(3),
				EndDate:   dateStr(5),
				Customer:  customer(),
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
	assert.Equal(t, 1, won, "exactly one request may take the last units")
}

func TestCancelledReservationReleasesQuantity(t *testing.T) {
	store := newFakeStore()
	store.items[1] = camera(2)
	svc := NewService(store, store, nil, 0.10)

	res, err := svc.CreateItemReservation(context.Background(), CreateItemReservationRequest{
		Items:     []ItemRequest{{ItemID: 1, Quantity: 2}},
		StartDate: dateStr(3),
		EndDate:   dateStr(5),
		Customer:  customer(),
	})
	require.NoError(t, err)

	// full: a second identical request is rejected
	_, err = svc.CreateItemReservation(context.Background(), CreateItemReservationRequest{
		Items:     []ItemRequest{{ItemID: 1, Quantity: 1}},
		StartDate: dateStr(4),
		EndDate:   dateStr(6),
		Customer:  customer(),
	})
	assert.ErrorIs(t, err, domain.ErrResourceUnavailable)

	// cancelled rows stop counting immediately
	store.mu.Lock()
	store.res[res.ID].Status = domain.BookingCancelled
	store.mu.Unlock()

	out, err := svc.CheckItemAvailability(context.Background(), CheckAvailabilityRequest{
		Items:     []ItemRequest{{ItemID: 1, Quantity: 2}},
		StartDate: dateStr(3),
		EndDate:   dateStr(5),
	})
	require.NoError(t, err)
	assert.True(t, out[0].Available)
	assert.Equal(t, 2, out[0].AvailableQuantity)
}

func TestAdvanceStage(t *testing.T) {
	store := newFakeStore()
	store.res[1] = &domain.Reservation{
		ID:     1,
		Kind:   domain.KindRental,
		Status: domain.BookingConfirmed,
		Stage:  domain.StageReserved,
	}
	svc := NewService(store, store, nil, 0.10)

	res, err := svc.AdvanceStage(context.Background(), 1, domain.StageCheckedOut)
	require.NoError(t, err)
	assert.Equal(t, domain.StageCheckedOut, res.Stage)

	_, err = svc.AdvanceStage(context.Background(), 1, domain.StageCompleted)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	res, err = svc.AdvanceStage(context.Background(), 1, domain.StageReturned)
	require.NoError(t, err)
	assert.Equal(t, domain.StageReturned, res.Stage)

	res, err = svc.AdvanceStage(context.Background(), 1, domain.StageCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.StageCompleted, res.Stage)
}

func TestAdvanceStageRejectsCancelled(t *testing.T) {
	store := newFakeStore()
	store.res[1] = &domain.Reservation{
		ID:     1,
		Kind:   domain.KindRental,
		Status: domain.BookingConfirmed,
		Stage:  domain.StageReserved,
	}
	svc := NewService(store, store, nil, 0.10)

	// cancellation lands before the stage write commits
	store.mu.Lock()
	store.res[1].Status = domain.BookingCancelled
	store.mu.Unlock()

	_, err := svc.AdvanceStage(context.Background(), 1, domain.StageCheckedOut)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	store.mu.Lock()
	stage := store.res[1].Stage
	store.mu.Unlock()
	assert.Equal(t, domain.StageReserved, stage, "a cancelled reservation must keep its stage")
}

func TestAdvanceStageRejectsSlotKind(t *testing.T) {
	store := newFakeStore()
	store.res[1] = &domain.Reservation{
		ID:     1,
		Kind:   domain.KindSlot,
		Status: domain.BookingConfirmed,
	}
	svc := NewService(store, store, nil, 0.10)

	_, err := svc.AdvanceStage(context.Background(), 1, domain.StageCheckedOut)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}
