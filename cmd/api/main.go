package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"studiorent/internal/config"
	"studiorent/internal/database"
	"studiorent/internal/middleware"
	"studiorent/internal/modules/booking"
	"studiorent/internal/modules/catalog"
	"studiorent/internal/modules/payment"
	"studiorent/internal/modules/rental"
	"studiorent/internal/notification"
	jwtsvc "studiorent/internal/pkg/jwt"
	"studiorent/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	slotRepo := repository.NewSlotRepository(db)
	itemRepo := repository.NewRentalItemRepository(db)
	reservationRepo := repository.NewReservationRepository(db)

	tokens := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	hub := notification.NewHub()
	notifs := notification.Fanout{notification.LogSender{}, notification.NewHubSender(hub)}

	bookingService := booking.NewService(slotRepo, reservationRepo, notifs,
		cfg.SlotRefund, cfg.RentalRefund, cfg.TaxRate)
	bookingHandler := booking.NewHandler(bookingService)

	rentalService := rental.NewService(itemRepo, reservationRepo, notifs, cfg.TaxRate)
	rentalHandler := rental.NewHandler(rentalService)

	catalogService := catalog.NewService(slotRepo, itemRepo, reservationRepo)
	catalogHandler := catalog.NewHandler(catalogService)

	paymentService := payment.NewService(reservationRepo, notifs, log.Printf)
	paymentHandler := payment.NewHandler(paymentService, log.Printf)

	r := gin.New()
	r.Use(gin.Logger(), middleware.ErrorLogger(), middleware.CORS())

	r.GET("/ws", func(c *gin.Context) {
		if err := hub.ServeWS(c.Writer, c.Request); err != nil {
			log.Printf("level=error msg=websocket upgrade failed err=%v", err)
		}
	})

	v1 := r.Group("/api/v1")
	{
		// public
		catalogHandler.RegisterRoutes(v1)
		paymentHandler.RegisterGatewayRoutes(v1)

		// customer
		protected := v1.Group("/")
		protected.Use(middleware.RequireAuth(tokens))
		{
			bookingHandler.RegisterRoutes(protected)
			rentalHandler.RegisterRoutes(protected)
			paymentHandler.RegisterRoutes(protected)
		}

		// staff
		staff := v1.Group("/staff")
		staff.Use(middleware.RequireAuth(tokens), middleware.StaffOnly())
		{
			catalogHandler.RegisterStaffRoutes(staff)
			bookingHandler.RegisterStaffRoutes(staff)
			rentalHandler.RegisterStaffRoutes(staff)
			paymentHandler.RegisterStaffRoutes(staff)
		}
	}

	if err := r.Run(cfg.Addr); err != nil {
		log.Fatal(err)
	}
}
