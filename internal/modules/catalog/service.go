package catalog

import (
	"context"
	"fmt"
	"time"

	"studiorent/internal/domain"
	"studiorent/internal/interval"
)

type Service struct {
	slots        SlotRepository
	items        ItemRepository
	reservations ReservationCounter
}

func NewService(slots SlotRepository, items ItemRepository, reservations ReservationCounter) *Service {
	return &Service{slots: slots, items: items, reservations: reservations}
}

/* ---------- SLOTS ---------- */

// CreateSlot validates the time window and rejects any slot that overlaps
// an existing one for the same package and date, deleted slots excluded.
func (s *Service) CreateSlot(ctx context.Context, req CreateSlotRequest) (*domain.Slot, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date %q", domain.ErrInvalidInterval, req.Date)
	}

	slot := &domain.Slot{
		PackageID: req.PackageID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Price:     req.Price,
		Status:    domain.SlotAvailable,
	}
	if err := s.validateSlotWindow(ctx, slot, 0); err != nil {
		return nil, err
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// UpdateSlot changes the window or price of a slot, re-running overlap
// validation against its siblings when the times move.
func (s *Service) UpdateSlot(ctx context.Context, id int64, req UpdateSlotRequest) (*domain.Slot, error) {
	slot, err := s.slots.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.StartTime != nil {
		slot.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		slot.EndTime = *req.EndTime
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, fmt.Errorf("%w: negative price", domain.ErrPolicyViolation)
		}
		slot.Price = *req.Price
	}

	if req.StartTime != nil || req.EndTime != nil {
		if err := s.validateSlotWindow(ctx, slot, slot.ID); err != nil {
			return nil, err
		}
	}
	if err := s.slots.Update(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

func (s *Service) validateSlotWindow(ctx context.Context, slot *domain.Slot, selfID int64) error {
	start, err := slot.StartInstant()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInterval, err)
	}
	end, err := slot.EndInstant()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInterval, err)
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: start %s is not before end %s", domain.ErrInvalidInterval, slot.StartTime, slot.EndTime)
	}

	siblings, err := s.slots.ListByPackageAndDate(ctx, slot.PackageID, slot.Date)
	if err != nil {
		return err
	}
	for i := range siblings {
		other := &siblings[i]
		if other.ID == selfID || other.DeletedAt != nil {
			continue
		}
		os, err := other.StartInstant()
		if err != nil {
			continue
		}
		oe, err := other.EndInstant()
		if err != nil {
			continue
		}
		if interval.Overlaps(start, end, os, oe) {
			return fmt.Errorf("%w: window %s-%s overlaps slot %d (%s-%s)",
				domain.ErrPolicyViolation, slot.StartTime, slot.EndTime, other.ID, other.StartTime, other.EndTime)
		}
	}
	return nil
}

func (s *Service) GetSlot(ctx context.Context, id int64) (*domain.Slot, error) {
	return s.slots.GetByID(ctx, id)
}

// ListSlots returns the slots for a date, optionally narrowed to a package.
func (s *Service) ListSlots(ctx context.Context, packageID int64, date time.Time) ([]domain.Slot, error) {
	if packageID > 0 {
		return s.slots.ListByPackageAndDate(ctx, packageID, date)
	}
	return s.slots.ListByDate(ctx, date)
}

// BlockSlot withdraws an available slot from sale. A booked slot cannot be
// blocked while its reservation is active.
func (s *Service) BlockSlot(ctx context.Context, id int64) (*domain.Slot, error) {
	return s.setSlotStatus(ctx, id, domain.SlotBlocked)
}

// UnblockSlot returns a blocked slot to sale.
func (s *Service) UnblockSlot(ctx context.Context, id int64) (*domain.Slot, error) {
	slot, err := s.slots.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if slot.Status != domain.SlotBlocked {
		return nil, fmt.Errorf("%w: slot is %s, not blocked", domain.ErrInvalidTransition, slot.Status)
	}
	if err := s.slots.SetStatus(ctx, id, domain.SlotAvailable); err != nil {
		return nil, err
	}
	slot.Status = domain.SlotAvailable
	return slot, nil
}

func (s *Service) setSlotStatus(ctx context.Context, id int64, status domain.SlotStatus) (*domain.Slot, error) {
	slot, err := s.slots.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNoActiveReservation(ctx, slot); err != nil {
		return nil, err
	}
	if err := s.slots.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	slot.Status = status
	return slot, nil
}

// DeleteSlot soft-deletes a slot so past reservations keep their reference.
func (s *Service) DeleteSlot(ctx context.Context, id int64) error {
	slot, err := s.slots.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ensureNoActiveReservation(ctx, slot); err != nil {
		return err
	}
	return s.slots.SoftDelete(ctx, id, time.Now())
}

func (s *Service) ensureNoActiveReservation(ctx context.Context, slot *domain.Slot) error {
	n, err := s.reservations.CountActiveForSlot(ctx, slot.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: slot %d holds an active reservation", domain.ErrResourceUnavailable, slot.ID)
	}
	return nil
}

/* ---------- RENTAL ITEMS ---------- */

var conditions = map[domain.ItemCondition]bool{
	domain.ConditionGood:        true,
	domain.ConditionFair:        true,
	domain.ConditionNeedsRepair: true,
}

func (s *Service) CreateItem(ctx context.Context, req CreateItemRequest) (*domain.RentalItem, error) {
	cond := domain.ItemCondition(req.Condition)
	if cond == "" {
		cond = domain.ConditionGood
	}
	if !conditions[cond] {
		return nil, fmt.Errorf("%w: unknown condition %q", domain.ErrPolicyViolation, req.Condition)
	}

	item := &domain.RentalItem{
		Name:          req.Name,
		Category:      req.Category,
		Condition:     cond,
		TotalQuantity: req.TotalQuantity,
		Rates: domain.RateTable{
			DailyRate:   req.DailyRate,
			WeeklyRate:  req.WeeklyRate,
			MonthlyRate: req.MonthlyRate,
		},
		MinRentalDays:   req.MinRentalDays,
		MaxRentalDays:   req.MaxRentalDays,
		RequiresDeposit: req.RequiresDeposit,
		DepositAmount:   req.DepositAmount,
		IsActive:        true,
	}
	if err := validateItem(item); err != nil {
		return nil, err
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) UpdateItem(ctx context.Context, id int64, req UpdateItemRequest) (*domain.RentalItem, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.Condition != nil {
		cond := domain.ItemCondition(*req.Condition)
		if !conditions[cond] {
			return nil, fmt.Errorf("%w: unknown condition %q", domain.ErrPolicyViolation, *req.Condition)
		}
		item.Condition = cond
	}
	if req.TotalQuantity != nil {
		item.TotalQuantity = *req.TotalQuantity
	}
	if req.DailyRate != nil {
		item.Rates.DailyRate = *req.DailyRate
	}
	if req.WeeklyRate != nil {
		item.Rates.WeeklyRate = req.WeeklyRate
	}
	if req.MonthlyRate != nil {
		item.Rates.MonthlyRate = req.MonthlyRate
	}
	if req.MinRentalDays != nil {
		item.MinRentalDays = *req.MinRentalDays
	}
	if req.MaxRentalDays != nil {
		item.MaxRentalDays = *req.MaxRentalDays
	}
	if req.RequiresDeposit != nil {
		item.RequiresDeposit = *req.RequiresDeposit
	}
	if req.DepositAmount != nil {
		item.DepositAmount = req.DepositAmount
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}

	if err := validateItem(item); err != nil {
		return nil, err
	}
	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func validateItem(item *domain.RentalItem) error {
	if item.TotalQuantity <= 0 {
		return fmt.Errorf("%w: total quantity must be positive", domain.ErrPolicyViolation)
	}
	if item.Rates.DailyRate <= 0 {
		return fmt.Errorf("%w: daily rate must be positive", domain.ErrPolicyViolation)
	}
	if item.MinRentalDays < 0 || item.MaxRentalDays < 0 {
		return fmt.Errorf("%w: rental day bounds cannot be negative", domain.ErrPolicyViolation)
	}
	if item.MinRentalDays > 0 && item.MaxRentalDays > 0 && item.MinRentalDays > item.MaxRentalDays {
		return fmt.Errorf("%w: min rental days exceeds max", domain.ErrPolicyViolation)
	}
	if item.RequiresDeposit && item.DepositAmount != nil && *item.DepositAmount < 0 {
		return fmt.Errorf("%w: negative deposit amount", domain.ErrPolicyViolation)
	}
	return nil
}

func (s *Service) GetItem(ctx context.Context, id int64) (*domain.RentalItem, error) {
	return s.items.GetByID(ctx, id)
}

func (s *Service) ListItems(ctx context.Context, category string) ([]domain.RentalItem, error) {
	return s.items.List(ctx, category)
}

func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	if _, err := s.items.GetByID(ctx, id); err != nil {
		return err
	}
	return s.items.SoftDelete(ctx, id, time.Now())
}
