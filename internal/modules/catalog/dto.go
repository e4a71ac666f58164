package catalog

type CreateSlotRequest struct {
	PackageID int64   `json:"package_id" binding:"required"`
	Date      string  `json:"date" binding:"required"` // "2006-01-02"
	StartTime string  `json:"start_time" binding:"required"`
	EndTime   string  `json:"end_time" binding:"required"`
	Price     float64 `json:"price" binding:"gte=0"`
}

type UpdateSlotRequest struct {
	StartTime *string  `json:"start_time,omitempty"`
	EndTime   *string  `json:"end_time,omitempty"`
	Price     *float64 `json:"price,omitempty"`
}

type CreateItemRequest struct {
	Name          string   `json:"name" binding:"required"`
	Category      string   `json:"category"`
	Condition     string   `json:"condition"`
	TotalQuantity int      `json:"total_quantity" binding:"required,gt=0"`
	DailyRate     float64  `json:"daily_rate" binding:"required,gt=0"`
	WeeklyRate    *float64 `json:"weekly_rate,omitempty"`
	MonthlyRate   *float64 `json:"monthly_rate,omitempty"`
	MinRentalDays int      `json:"min_rental_days"`
	MaxRentalDays int      `json:"max_rental_days"`

	RequiresDeposit bool     `json:"requires_deposit"`
	DepositAmount   *float64 `json:"deposit_amount,omitempty"`
}

type UpdateItemRequest struct {
	Name          *string  `json:"name,omitempty"`
	Category      *string  `json:"category,omitempty"`
	Condition     *string  `json:"condition,omitempty"`
	TotalQuantity *int     `json:"total_quantity,omitempty"`
	DailyRate     *float64 `json:"daily_rate,omitempty"`
	WeeklyRate    *float64 `json:"weekly_rate,omitempty"`
	MonthlyRate   *float64 `json:"monthly_rate,omitempty"`
	MinRentalDays *int     `json:"min_rental_days,omitempty"`
	MaxRentalDays *int     `json:"max_rental_days,omitempty"`

	RequiresDeposit *bool    `json:"requires_deposit,omitempty"`
	DepositAmount   *float64 `json:"deposit_amount,omitempty"`
	IsActive        *bool    `json:"is_active,omitempty"`
}
