package cli

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/config"
	"github.com/iliyamo/charter-booking/internal/database"
	"github.com/iliyamo/charter-booking/internal/logger"
	"github.com/iliyamo/charter-booking/internal/queue"
	"github.com/iliyamo/charter-booking/internal/repository"
	"github.com/iliyamo/charter-booking/internal/service"
)

// app is the wired dependency graph shared by the commands.
type app struct {
	cfg       config.Config
	log       *zap.Logger
	db        *sql.DB
	publisher *queue.Publisher

	users    *repository.UserRepo
	bookings *service.BookingService
	sweeper  *service.Sweeper
	blocks   *service.BlockService
	catalog  *service.CatalogService
	waitlist *service.WaitlistService
}

// newApp loads configuration, opens the database and builds the services.
// Callers must call close.
func newApp() (*app, error) {
	cfg := config.Load()
	log, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	refund, err := service.ParseRefundTiers(cfg.RefundTiers)
	if err != nil {
		return nil, fmt.Errorf("REFUND_TIERS: %w", err)
	}
	db, err := database.Open(database.Options{
		User:    cfg.DBUser,
		Pass:    cfg.DBPass,
		Host:    cfg.DBHost,
		Port:    cfg.DBPort,
		Name:    cfg.DBName,
		Timeout: cfg.StoreTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &app{cfg: cfg, log: log, db: db, users: repository.NewUserRepo(db)}
	opts := []service.Option{
		service.WithLogger(log),
		service.WithHoldTTL(cfg.HoldTTL),
		service.WithStoreTimeout(cfg.StoreTimeout),
		service.WithSweepBatch(cfg.SweepBatch),
		service.WithRefundPolicy(refund),
	}
	if cfg.AMQPURL != "" {
		a.publisher = queue.NewPublisher(cfg.AMQPURL, log)
		opts = append(opts, service.WithPublisher(a.publisher))
	} else {
		log.Info("RABBITMQ_URL not set; booking events are not published")
	}

	boats := repository.NewBoatRepo(db)
	pricing := repository.NewPricingRepo(db)
	bookings := repository.NewBookingRepo(db)
	a.bookings = service.NewBookingService(bookings, boats, pricing, opts...)
	a.sweeper = service.NewSweeper(bookings, opts...)
	a.blocks = service.NewBlockService(repository.NewBlockedSlotRepo(db), boats, opts...)
	a.catalog = service.NewCatalogService(boats, pricing, opts...)
	a.waitlist = service.NewWaitlistService(repository.NewWaitlistRepo(db), boats, opts...)
	return a, nil
}

func (a *app) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("close publisher", zap.Error(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.log.Warn("close database", zap.Error(err))
	}
	_ = a.log.Sync()
}
