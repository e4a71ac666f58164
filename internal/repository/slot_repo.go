package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"studiorent/internal/domain"
)

type SlotRepository struct {
	db *gorm.DB
}

func NewSlotRepository(db *gorm.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

type slotModel struct {
	ID        int64      `gorm:"column:id;primaryKey"`
	PackageID int64      `gorm:"column:package_id;index"`
	Date      time.Time  `gorm:"column:date;index"`
	StartTime string     `gorm:"column:start_time"`
	EndTime   string     `gorm:"column:end_time"`
	Price     float64    `gorm:"column:price"`
	Status    string     `gorm:"column:status"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
	DeletedAt *time.Time `gorm:"column:deleted_at;index"`
}

func (slotModel) TableName() string { return "slots" }

func toDomainSlot(m slotModel) *domain.Slot {
	return &domain.Slot{
		ID:        m.ID,
		PackageID: m.PackageID,
		Date:      m.Date,
		StartTime: m.StartTime,
		EndTime:   m.EndTime,
		Price:     m.Price,
		Status:    domain.SlotStatus(m.Status),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		DeletedAt: m.DeletedAt,
	}
}

func toSlotModel(s *domain.Slot) slotModel {
	return slotModel{
		ID:        s.ID,
		PackageID: s.PackageID,
		Date:      s.Date,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Price:     s.Price,
		Status:    string(s.Status),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		DeletedAt: s.DeletedAt,
	}
}

func (r *SlotRepository) Create(ctx context.Context, s *domain.Slot) error {
	m := toSlotModel(s)
	if tx := r.db.WithContext(ctx).Create(&m); tx.Error != nil {
		return tx.Error
	}
	*s = *toDomainSlot(m)
	return nil
}

func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*domain.Slot, error) {
	var m slotModel
	tx := r.db.WithContext(ctx).Where("deleted_at IS NULL").First(&m, id)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, tx.Error
	}
	return toDomainSlot(m), nil
}

// ListByPackageAndDate returns all live slots of a package on a calendar
// date; slot-creation overlap checks run against this set.
func (r *SlotRepository) ListByPackageAndDate(ctx context.Context, packageID int64, date time.Time) ([]domain.Slot, error) {
	var rows []slotModel
	tx := r.db.WithContext(ctx).
		Where("package_id = ? AND date = ? AND deleted_at IS NULL", packageID, date).
		Order("start_time").
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.Slot, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainSlot(m))
	}
	return out, nil
}

func (r *SlotRepository) ListByDate(ctx context.Context, date time.Time) ([]domain.Slot, error) {
	var rows []slotModel
	tx := r.db.WithContext(ctx).
		Where("date = ? AND deleted_at IS NULL", date).
		Order("package_id, start_time").
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.Slot, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainSlot(m))
	}
	return out, nil
}

func (r *SlotRepository) Update(ctx context.Context, s *domain.Slot) error {
	m := toSlotModel(s)
	tx := r.db.WithContext(ctx).Model(&slotModel{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
		"package_id": m.PackageID,
		"date":       m.Date,
		"start_time": m.StartTime,
		"end_time":   m.EndTime,
		"price":      m.Price,
		"status":     m.Status,
	})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetStatus is for administrative blocking/unblocking only; reservation
// transitions flip slot status inside their own transactions.
func (r *SlotRepository) SetStatus(ctx context.Context, id int64, status domain.SlotStatus) error {
	tx := r.db.WithContext(ctx).Model(&slotModel{}).Where("id = ?", id).Update("status", string(status))
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SlotRepository) SoftDelete(ctx context.Context, id int64, now time.Time) error {
	tx := r.db.WithContext(ctx).Model(&slotModel{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", now)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
