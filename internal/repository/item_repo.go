package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"studiorent/internal/domain"
)

type RentalItemRepository struct {
	db *gorm.DB
}

func NewRentalItemRepository(db *gorm.DB) *RentalItemRepository {
	return &RentalItemRepository{db: db}
}

type rentalItemModel struct {
	ID              int64      `gorm:"column:id;primaryKey"`
	Name            string     `gorm:"column:name"`
	Category        string     `gorm:"column:category;index"`
	Condition       string     `gorm:"column:condition"`
	TotalQuantity   int        `gorm:"column:total_quantity"`
	DailyRate       float64    `gorm:"column:daily_rate"`
	WeeklyRate      *float64   `gorm:"column:weekly_rate"`
	MonthlyRate     *float64   `gorm:"column:monthly_rate"`
	MinRentalDays   int        `gorm:"column:min_rental_days"`
	MaxRentalDays   int        `gorm:"column:max_rental_days"`
	RequiresDeposit bool       `gorm:"column:requires_deposit"`
	DepositAmount   *float64   `gorm:"column:deposit_amount"`
	IsActive        bool       `gorm:"column:is_active"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
	DeletedAt       *time.Time `gorm:"column:deleted_at;index"`
}

func (rentalItemModel) TableName() string { return "rental_items" }

func toDomainItem(m rentalItemModel) *domain.RentalItem {
	return &domain.RentalItem{
		ID:            m.ID,
		Name:          m.Name,
		Category:      m.Category,
		Condition:     domain.ItemCondition(m.Condition),
		TotalQuantity: m.TotalQuantity,
		Rates: domain.RateTable{
			DailyRate:   m.DailyRate,
			WeeklyRate:  m.WeeklyRate,
			MonthlyRate: m.MonthlyRate,
		},
		MinRentalDays:   m.MinRentalDays,
		MaxRentalDays:   m.MaxRentalDays,
		RequiresDeposit: m.RequiresDeposit,
		DepositAmount:   m.DepositAmount,
		IsActive:        m.IsActive,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		DeletedAt:       m.DeletedAt,
	}
}

func toItemModel(i *domain.RentalItem) rentalItemModel {
	return rentalItemModel{
		ID:              i.ID,
		Name:            i.Name,
		Category:        i.Category,
		Condition:       string(i.Condition),
		TotalQuantity:   i.TotalQuantity,
		DailyRate:       i.Rates.DailyRate,
		WeeklyRate:      i.Rates.WeeklyRate,
		MonthlyRate:     i.Rates.MonthlyRate,
		MinRentalDays:   i.MinRentalDays,
		MaxRentalDays:   i.MaxRentalDays,
		RequiresDeposit: i.RequiresDeposit,
		DepositAmount:   i.DepositAmount,
		IsActive:        i.IsActive,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
		DeletedAt:       i.DeletedAt,
	}
}

func (r *RentalItemRepository) Create(ctx context.Context, i *domain.RentalItem) error {
	m := toItemModel(i)
	if tx := r.db.WithContext(ctx).Create(&m); tx.Error != nil {
		return tx.Error
	}
	*i = *toDomainItem(m)
	return nil
}

func (r *RentalItemRepository) GetByID(ctx context.Context, id int64) (*domain.RentalItem, error) {
	var m rentalItemModel
	tx := r.db.WithContext(ctx).Where("deleted_at IS NULL").First(&m, id)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, tx.Error
	}
	return toDomainItem(m), nil
}

// GetByIDs loads a batch of live items keyed by id; callers detect missing
// ids by map lookup.
func (r *RentalItemRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.RentalItem, error) {
	var rows []rentalItemModel
	tx := r.db.WithContext(ctx).Where("id IN ? AND deleted_at IS NULL", ids).Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make(map[int64]*domain.RentalItem, len(rows))
	for _, m := range rows {
		out[m.ID] = toDomainItem(m)
	}
	return out, nil
}

func (r *RentalItemRepository) List(ctx context.Context, category string) ([]domain.RentalItem, error) {
	q := r.db.WithContext(ctx).Where("deleted_at IS NULL")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var rows []rentalItemModel
	if tx := q.Order("name").Find(&rows); tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.RentalItem, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainItem(m))
	}
	return out, nil
}

func (r *RentalItemRepository) Update(ctx context.Context, i *domain.RentalItem) error {
	m := toItemModel(i)
	tx := r.db.WithContext(ctx).Model(&rentalItemModel{}).Where("id = ?", i.ID).Updates(map[string]interface{}{
		"name":             m.Name,
		"category":         m.Category,
		"condition":        m.Condition,
		"total_quantity":   m.TotalQuantity,
		"daily_rate":       m.DailyRate,
		"weekly_rate":      m.WeeklyRate,
		"monthly_rate":     m.MonthlyRate,
		"min_rental_days":  m.MinRentalDays,
		"max_rental_days":  m.MaxRentalDays,
		"requires_deposit": m.RequiresDeposit,
		"deposit_amount":   m.DepositAmount,
		"is_active":        m.IsActive,
	})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *RentalItemRepository) SoftDelete(ctx context.Context, id int64, now time.Time) error {
	tx := r.db.WithContext(ctx).Model(&rentalItemModel{}).
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
