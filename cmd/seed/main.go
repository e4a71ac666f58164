package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"studiorent/internal/database"
	"studiorent/internal/domain"
	"studiorent/internal/repository"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "studiorent.db"
	}

	db, err := database.Connect(dsn, database.Quiet())
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM reservation_lines")
	db.Exec("DELETE FROM reservations")
	db.Exec("DELETE FROM rental_items")
	db.Exec("DELETE FROM slots")

	ctx := context.Background()
	slots := repository.NewSlotRepository(db)
	items := repository.NewRentalItemRepository(db)

	// ================== SLOTS ==================
	log.Println("Creating slots...")

	windows := []struct {
		start, end string
		price      float64
	}{
		{"10:00", "12:00", 120},
		{"12:00", "14:00", 120},
		{"14:00", "16:00", 150},
		{"16:00", "18:00", 150},
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	var slotCount int
	for pkg := int64(1); pkg <= 3; pkg++ {
		for day := 1; day <= 14; day++ {
			date := today.Add(time.Duration(day) * 24 * time.Hour)
			for _, w := range windows {
				s := &domain.Slot{
					PackageID: pkg,
					Date:      date,
					StartTime: w.start,
					EndTime:   w.end,
					Price:     w.price,
					Status:    domain.SlotAvailable,
				}
				if err := slots.Create(ctx, s); err != nil {
					log.Fatal("seed slot failed:", err)
				}
				slotCount++
			}
		}
	}
	log.Printf("Created %d slots", slotCount)

	// ================== RENTAL ITEMS ==================
	log.Println("Creating rental items...")

	rate := func(v float64) *float64 { return &v }

	catalog := []domain.RentalItem{
		{
			Name:          "Canon EOS R5",
			Category:      "camera",
			Condition:     domain.ConditionGood,
			TotalQuantity: 3,
			Rates:         domain.RateTable{DailyRate: 95, WeeklyRate: rate(560), MonthlyRate: rate(1900)},
			MinRentalDays: 1, MaxRentalDays: 30,
			RequiresDeposit: true,
			IsActive:        true,
		},
		{
			Name:          "Godox AD600 Pro",
			Category:      "lighting",
			Condition:     domain.ConditionGood,
			TotalQuantity: 6,
			Rates:         domain.RateTable{DailyRate: 40, WeeklyRate: rate(230)},
			MinRentalDays: 1, MaxRentalDays: 14,
			IsActive: true,
		},
		{
			Name:          "Manfrotto 055 Tripod",
			Category:      "support",
			Condition:     domain.ConditionFair,
			TotalQuantity: 8,
			Rates:         domain.RateTable{DailyRate: 12},
			IsActive:      true,
		},
		{
			Name:          "Aputure 600d",
			Category:      "lighting",
			Condition:     domain.ConditionNeedsRepair,
			TotalQuantity: 1,
			Rates:         domain.RateTable{DailyRate: 55},
			IsActive:      false,
		},
	}

	for i := range catalog {
		if err := items.Create(ctx, &catalog[i]); err != nil {
			log.Fatal("seed item failed:", err)
		}
	}
	log.Printf("Created %d rental items", len(catalog))

	log.Println("Seed complete")
}
