package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/config"
	"github.com/iliyamo/charter-booking/internal/handler"
	"github.com/iliyamo/charter-booking/internal/middleware"
	"github.com/iliyamo/charter-booking/internal/queue"
	"github.com/iliyamo/charter-booking/internal/router"
	"github.com/iliyamo/charter-booking/internal/scheduler"
)

const shutdownGrace = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the hold expiry sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	log := a.log

	sched, err := scheduler.New(log)
	if err != nil {
		return err
	}
	if _, err := sched.AddSweepJob(ctx, a.sweeper, a.cfg.SweepInterval); err != nil {
		return err
	}
	sched.Start()
	defer func() {
		if err := sched.Shutdown(); err != nil {
			log.Warn("scheduler shutdown", zap.Error(err))
		}
	}()

	if a.cfg.EventsConsumer && a.cfg.AMQPURL != "" {
		consumer := queue.NewConsumer(a.cfg.AMQPURL, "", log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("events consumer stopped", zap.Error(err))
			}
		}()
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())

	auth := router.Auth{
		Secret: a.cfg.JWTSecret,
		Users:  a.users,
		Log:    log,
		Extra:  []echo.MiddlewareFunc{middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log)},
	}
	router.RegisterRoutes(e, a.db)
	router.RegisterBookings(e, auth,
		&handler.BookingHandler{Bookings: a.bookings, Sweeper: a.sweeper, Log: log},
		&handler.BlockedSlotHandler{Blocks: a.blocks, Log: log},
	)
	router.RegisterCatalog(e, auth,
		&handler.CatalogHandler{
			Catalog: a.catalog,
			Log:     log,
			OnChange: func(ctx context.Context, companyID uint64) {
				if err := middleware.InvalidateCompany(ctx, cacheCfg, rdb, companyID); err != nil {
					log.Warn("cache invalidation failed", zap.Uint64("company_id", companyID), zap.Error(err))
				}
			},
		},
		&handler.WaitlistHandler{Waitlist: a.waitlist, Log: log},
		middleware.NewRedisCache(cacheCfg, rdb, log),
	)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + a.cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", a.cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return e.Shutdown(sctx)
}
