package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"studiorent/internal/domain"
	"studiorent/internal/interval"
)

// ReservationRepository owns reservation persistence and the atomic
// check-then-reserve operations. Availability checks and capacity writes
// always run inside one transaction with the resource rows locked, so two
// racing requests for the same slot or the last units of an item cannot
// both succeed.
type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

type reservationModel struct {
	ID        int64  `gorm:"column:id;primaryKey"`
	Reference string `gorm:"column:reference;uniqueIndex"`
	Kind      string `gorm:"column:kind"`

	SlotID    *int64    `gorm:"column:slot_id;index"`
	StartDate time.Time `gorm:"column:start_date;index"`
	EndDate   time.Time `gorm:"column:end_date;index"`

	CustomerName  string `gorm:"column:customer_name"`
	CustomerEmail string `gorm:"column:customer_email;index"`
	CustomerPhone string `gorm:"column:customer_phone"`

	Subtotal float64 `gorm:"column:subtotal"`
	Tax      float64 `gorm:"column:tax"`
	Deposit  float64 `gorm:"column:deposit"`
	Total    float64 `gorm:"column:total"`
	Paid     float64 `gorm:"column:paid"`

	Status        string `gorm:"column:status;index"`
	PaymentStatus string `gorm:"column:payment_status"`
	Stage         string `gorm:"column:stage"`

	Notes *string `gorm:"column:notes"`

	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
	ConfirmedAt *time.Time `gorm:"column:confirmed_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`

	CancelledBy        *string  `gorm:"column:cancelled_by"`
	CancellationReason *string  `gorm:"column:cancellation_reason"`
	RefundAmount       *float64 `gorm:"column:refund_amount"`
	RefundStatus       *string  `gorm:"column:refund_status"`
}

func (reservationModel) TableName() string { return "reservations" }

type reservationLineModel struct {
	ID            int64   `gorm:"column:id;primaryKey"`
	ReservationID int64   `gorm:"column:reservation_id;index"`
	ItemID        int64   `gorm:"column:item_id;index"`
	Quantity      int     `gorm:"column:quantity"`
	EffectiveRate float64 `gorm:"column:effective_rate"`
	LineTotal     float64 `gorm:"column:line_total"`
}

func (reservationLineModel) TableName() string { return "reservation_lines" }

var activeStatuses = []string{
	string(domain.BookingPending),
	string(domain.BookingConfirmed),
}

func toDomainReservation(m reservationModel, lines []reservationLineModel) *domain.Reservation {
	var notes string
	if m.Notes != nil {
		notes = *m.Notes
	}

	res := &domain.Reservation{
		ID:        m.ID,
		Reference: m.Reference,
		Kind:      domain.ReservationKind(m.Kind),
		SlotID:    m.SlotID,
		StartDate: m.StartDate,
		EndDate:   m.EndDate,
		Customer: domain.CustomerInfo{
			Name:  m.CustomerName,
			Email: m.CustomerEmail,
			Phone: m.CustomerPhone,
		},
		Subtotal:      m.Subtotal,
		Tax:           m.Tax,
		Deposit:       m.Deposit,
		Total:         m.Total,
		Paid:          m.Paid,
		Status:        domain.BookingStatus(m.Status),
		PaymentStatus: domain.PaymentStatus(m.PaymentStatus),
		Stage:         domain.RentalStage(m.Stage),
		Notes:         notes,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		ConfirmedAt:   m.ConfirmedAt,
		CancelledAt:   m.CancelledAt,
	}

	if m.CancelledAt != nil && m.CancelledBy != nil {
		rec := &domain.CancellationRecord{
			Actor:       *m.CancelledBy,
			CancelledAt: *m.CancelledAt,
		}
		if m.CancellationReason != nil {
			rec.Reason = *m.CancellationReason
		}
		if m.RefundAmount != nil {
			rec.RefundAmount = *m.RefundAmount
		}
		if m.RefundStatus != nil {
			rec.RefundStatus = domain.PaymentStatus(*m.RefundStatus)
		}
		res.Cancellation = rec
	}

	for _, l := range lines {
		res.Lines = append(res.Lines, domain.ReservationLine{
			ID:            l.ID,
			ReservationID: l.ReservationID,
			ItemID:        l.ItemID,
			Quantity:      l.Quantity,
			EffectiveRate: l.EffectiveRate,
			LineTotal:     l.LineTotal,
		})
	}

	return res
}

func toReservationModel(res *domain.Reservation) reservationModel {
	m := reservationModel{
		ID:            res.ID,
		Reference:     res.Reference,
		Kind:          string(res.Kind),
		SlotID:        res.SlotID,
		StartDate:     res.StartDate,
		EndDate:       res.EndDate,
		CustomerName:  res.Customer.Name,
		CustomerEmail: res.Customer.Email,
		CustomerPhone: res.Customer.Phone,
		Subtotal:      res.Subtotal,
		Tax:           res.Tax,
		Deposit:       res.Deposit,
		Total:         res.Total,
		Paid:          res.Paid,
		Status:        string(res.Status),
		PaymentStatus: string(res.PaymentStatus),
		Stage:         string(res.Stage),
		CreatedAt:     res.CreatedAt,
		UpdatedAt:     res.UpdatedAt,
		ConfirmedAt:   res.ConfirmedAt,
		CancelledAt:   res.CancelledAt,
	}
	if res.Notes != "" {
		v := res.Notes
		m.Notes = &v
	}
	return m
}

// ReserveSlot locks the slot row, hands the current slot state to build for
// validation and pricing, then flips the slot to booked and inserts the
// reservation. An error from build aborts the whole transaction.
func (r *ReservationRepository) ReserveSlot(ctx context.Context, slotID int64, build func(slot *domain.Slot) (*domain.Reservation, error)) (*domain.Reservation, error) {
	var out *domain.Reservation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sm slotModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND deleted_at IS NULL", slotID).
			First(&sm).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}

		res, err := build(toDomainSlot(sm))
		if err != nil {
			return err
		}

		upd := tx.Model(&slotModel{}).
			Where("id = ? AND status = ?", slotID, string(domain.SlotAvailable)).
			Update("status", string(domain.SlotBooked))
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected == 0 {
			return domain.ErrResourceUnavailable
		}

		m := toReservationModel(res)
		if err := tx.Create(&m).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrResourceUnavailable
			}
			return err
		}
		out = toDomainReservation(m, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReserveItems locks the item rows in ascending id order, computes the
// quantities already reserved over the requested range, and hands both to
// build. All lines commit together or not at all.
func (r *ReservationRepository) ReserveItems(ctx context.Context, rng interval.DateRange, itemIDs []int64, build func(items map[int64]*domain.RentalItem, reserved map[int64]int) (*domain.Reservation, error)) (*domain.Reservation, error) {
	var out *domain.Reservation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []rentalItemModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ? AND deleted_at IS NULL", itemIDs).
			Order("id").
			Find(&rows).Error; err != nil {
			return err
		}
		items := make(map[int64]*domain.RentalItem, len(rows))
		for _, m := range rows {
			items[m.ID] = toDomainItem(m)
		}

		reserved, err := reservedQuantities(tx, itemIDs, rng)
		if err != nil {
			return err
		}

		res, err := build(items, reserved)
		if err != nil {
			return err
		}

		m := toReservationModel(res)
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		lines := make([]reservationLineModel, 0, len(res.Lines))
		for _, l := range res.Lines {
			lines = append(lines, reservationLineModel{
				ReservationID: m.ID,
				ItemID:        l.ItemID,
				Quantity:      l.Quantity,
				EffectiveRate: l.EffectiveRate,
				LineTotal:     l.LineTotal,
			})
		}
		if len(lines) > 0 {
			if err := tx.Create(&lines).Error; err != nil {
				return err
			}
		}
		out = toDomainReservation(m, lines)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel locks the reservation, lets decide validate the cancellation and
// compute the refund, then commits the status change, the cancellation
// record and the capacity release as one unit.
func (r *ReservationRepository) Cancel(ctx context.Context, id int64, now time.Time, decide func(res *domain.Reservation) (*domain.CancellationRecord, error)) (*domain.Reservation, error) {
	var out *domain.Reservation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, lines, err := lockReservation(tx, id)
		if err != nil {
			return err
		}

		res := toDomainReservation(*m, lines)
		rec, err := decide(res)
		if err != nil {
			return err
		}

		refundStatus := string(rec.RefundStatus)
		upd := map[string]interface{}{
			"status":              string(domain.BookingCancelled),
			"cancelled_at":        now,
			"cancelled_by":        rec.Actor,
			"cancellation_reason": rec.Reason,
			"refund_amount":       rec.RefundAmount,
			"refund_status":       refundStatus,
		}
		if rec.RefundAmount > 0 {
			upd["payment_status"] = refundStatus
		}
		if err := tx.Model(&reservationModel{}).Where("id = ?", id).Updates(upd).Error; err != nil {
			return err
		}

		// release slot capacity together with the cancellation
		if res.Kind == domain.KindSlot && res.SlotID != nil {
			if err := tx.Model(&slotModel{}).
				Where("id = ? AND status = ?", *res.SlotID, string(domain.SlotBooked)).
				Update("status", string(domain.SlotAvailable)).Error; err != nil {
				return err
			}
		}
		// rental capacity is derived from active reservation sums, so the
		// cancelled row simply stops counting once this commits

		m2, lines2, err := loadReservation(tx, id)
		if err != nil {
			return err
		}
		out = toDomainReservation(*m2, lines2)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkPaid records a successful payment. Idempotent: paying an already paid
// reservation returns it unchanged. Payment completion forces the booking to
// confirmed and stamps ConfirmedAt.
func (r *ReservationRepository) MarkPaid(ctx context.Context, id int64, amount float64, now time.Time) (*domain.Reservation, error) {
	var out *domain.Reservation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, lines, err := lockReservation(tx, id)
		if err != nil {
			return err
		}

		cur := domain.PaymentStatus(m.PaymentStatus)
		if cur == domain.PaymentPaid {
			out = toDomainReservation(*m, lines)
			return nil
		}
		if !cur.CanTransition(domain.PaymentPaid) {
			return domain.ErrInvalidTransition
		}

		upd := map[string]interface{}{
			"payment_status": string(domain.PaymentPaid),
			"paid":           amount,
		}
		if domain.BookingStatus(m.Status).CanTransition(domain.BookingConfirmed) {
			upd["status"] = string(domain.BookingConfirmed)
			upd["confirmed_at"] = now
		}
		if err := tx.Model(&reservationModel{}).Where("id = ?", id).Updates(upd).Error; err != nil {
			return err
		}

		m2, lines2, err := loadReservation(tx, id)
		if err != nil {
			return err
		}
		out = toDomainReservation(*m2, lines2)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkPaymentFailed moves a pending payment to failed.
func (r *ReservationRepository) MarkPaymentFailed(ctx context.Context, id int64) (*domain.Reservation, error) {
	return r.transitionPayment(ctx, id, domain.PaymentFailed)
}

// TransitionPayment advances the refund workflow
// (refund_requested -> refund_approved -> refunded).
func (r *ReservationRepository) TransitionPayment(ctx context.Context, id int64, next domain.PaymentStatus) (*domain.Reservation, error) {
	return r.transitionPayment(ctx, id, next)
}

func (r *ReservationRepository) transitionPayment(ctx context.Context, id int64, next domain.PaymentStatus) (*domain.Reservation, error) {
	var out *domain.Reservation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, _, err := lockReservation(tx, id)
		if err != nil {
			return err
		}
		if !domain.PaymentStatus(m.PaymentStatus).CanTransition(next) {
			return domain.ErrInvalidTransition
		}

		upd := map[string]interface{}{"payment_status": string(next)}
		switch next {
		case domain.PaymentRefundApproved, domain.PaymentRefunded:
			upd["refund_status"] = string(next)
		}
		if err := tx.Model(&reservationModel{}).Where("id = ?", id).Updates(upd).Error; err != nil {
			return err
		}

		m2, lines2, err := loadReservation(tx, id)
		if err != nil {
			return err
		}
		out = toDomainReservation(*m2, lines2)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TransitionStatus moves the booking status (completed, no_show) with the
// transition table enforced under lock.
func (r *ReservationRepository) TransitionStatus(ctx context.Context, id int64, next domain.BookingStatus) (*domain.Reservation, error) {
	var out *domain.Reservation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, _, err := lockReservation(tx, id)
		if err != nil {
			return err
		}
		if !domain.BookingStatus(m.Status).CanTransition(next) {
			return domain.ErrInvalidTransition
		}
		if err := tx.Model(&reservationModel{}).Where("id = ?", id).
			Update("status", string(next)).Error; err != nil {
			return err
		}
		m2, lines2, err := loadReservation(tx, id)
		if err != nil {
			return err
		}
		out = toDomainReservation(*m2, lines2)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TransitionStage moves the rental handover stage with the kind, liveness
// and stage-order checks enforced under lock, so a concurrent cancellation
// cannot slip between the check and the write.
func (r *ReservationRepository) TransitionStage(ctx context.Context, id int64, next domain.RentalStage) (*domain.Reservation, error) {
	var out *domain.Reservation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, _, err := lockReservation(tx, id)
		if err != nil {
			return err
		}
		if domain.ReservationKind(m.Kind) != domain.KindRental {
			return fmt.Errorf("%w: not a rental reservation", domain.ErrInvalidTransition)
		}
		if !domain.BookingStatus(m.Status).Active() {
			return fmt.Errorf("%w: reservation is %s", domain.ErrInvalidTransition, m.Status)
		}
		if !domain.RentalStage(m.Stage).CanTransition(next) {
			return fmt.Errorf("%w: stage %s -> %s", domain.ErrInvalidTransition, m.Stage, next)
		}
		if err := tx.Model(&reservationModel{}).Where("id = ?", id).
			Update("stage", string(next)).Error; err != nil {
			return err
		}
		m2, lines2, err := loadReservation(tx, id)
		if err != nil {
			return err
		}
		out = toDomainReservation(*m2, lines2)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	m, lines, err := loadReservation(r.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return toDomainReservation(*m, lines), nil
}

func (r *ReservationRepository) GetByReference(ctx context.Context, ref string) (*domain.Reservation, error) {
	var m reservationModel
	if err := r.db.WithContext(ctx).Where("reference = ?", ref).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	lines, err := loadLines(r.db.WithContext(ctx), m.ID)
	if err != nil {
		return nil, err
	}
	return toDomainReservation(m, lines), nil
}

func (r *ReservationRepository) ListByCustomerEmail(ctx context.Context, email string, limit, offset int) ([]domain.Reservation, error) {
	var rows []reservationModel
	tx := r.db.WithContext(ctx).
		Where("customer_email = ?", email).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.Reservation, 0, len(rows))
	for _, m := range rows {
		lines, err := loadLines(r.db.WithContext(ctx), m.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, *toDomainReservation(m, lines))
	}
	return out, nil
}

// CountActiveForSlot reports how many non-cancelled reservations reference a
// slot; at most one may exist.
func (r *ReservationRepository) CountActiveForSlot(ctx context.Context, slotID int64) (int64, error) {
	var cnt int64
	tx := r.db.WithContext(ctx).Model(&reservationModel{}).
		Where("slot_id = ? AND status IN ?", slotID, activeStatuses).
		Count(&cnt)
	return cnt, tx.Error
}

// ReservedQuantities sums quantities held by active reservations per item
// over an inclusive date range. This is the read-only variant used by
// availability queries; reservation writes recompute the same sums under
// lock.
func (r *ReservationRepository) ReservedQuantities(ctx context.Context, itemIDs []int64, rng interval.DateRange) (map[int64]int, error) {
	return reservedQuantities(r.db.WithContext(ctx), itemIDs, rng)
}

func reservedQuantities(tx *gorm.DB, itemIDs []int64, rng interval.DateRange) (map[int64]int, error) {
	type row struct {
		ItemID   int64
		Reserved int
	}
	var rows []row
	q := `
SELECT l.item_id AS item_id, COALESCE(SUM(l.quantity), 0) AS reserved
FROM reservation_lines l
JOIN reservations r ON r.id = l.reservation_id
WHERE l.item_id IN ?
  AND r.status IN ?
  AND r.start_date <= ?
  AND r.end_date >= ?
GROUP BY l.item_id
`
	if err := tx.Raw(q, itemIDs, activeStatuses, rng.End, rng.Start).Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[int64]int, len(rows))
	for _, r := range rows {
		out[r.ItemID] = r.Reserved
	}
	return out, nil
}

func lockReservation(tx *gorm.DB, id int64) (*reservationModel, []reservationLineModel, error) {
	var m reservationModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, err
	}
	lines, err := loadLines(tx, id)
	if err != nil {
		return nil, nil, err
	}
	return &m, lines, nil
}

func loadReservation(tx *gorm.DB, id int64) (*reservationModel, []reservationLineModel, error) {
	var m reservationModel
	if err := tx.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, err
	}
	lines, err := loadLines(tx, id)
	if err != nil {
		return nil, nil, err
	}
	return &m, lines, nil
}

func loadLines(tx *gorm.DB, reservationID int64) ([]reservationLineModel, error) {
	var lines []reservationLineModel
	if err := tx.Where("reservation_id = ?", reservationID).Order("id").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}

// AutoMigrate creates the engine's tables; used by cmd/seed and tests.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&slotModel{},
		&rentalItemModel{},
		&reservationModel{},
		&reservationLineModel{},
	)
}
