package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/train-seat-reservation/internal/config"
	"github.com/iliyamo/train-seat-reservation/internal/database"
	"github.com/iliyamo/train-seat-reservation/internal/handler"
	"github.com/iliyamo/train-seat-reservation/internal/logger"
	"github.com/iliyamo/train-seat-reservation/internal/middleware"
	"github.com/iliyamo/train-seat-reservation/internal/queue"
	"github.com/iliyamo/train-seat-reservation/internal/repository"
	"github.com/iliyamo/train-seat-reservation/internal/reservation"
	"github.com/iliyamo/train-seat-reservation/internal/router"
	"github.com/iliyamo/train-seat-reservation/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config.LoadDotEnv(".env")
	cfg := config.Load()

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, closeSource, err := buildSource(ctx, cfg, log)
	if err != nil {
		log.Fatal("seat source unavailable", zap.String("source", cfg.SeatSource), zap.Error(err))
	}
	defer closeSource()

	opts := []reservation.Option{
		reservation.WithTotalSeats(cfg.TotalSeats),
		reservation.WithSeatsPerRow(cfg.SeatsPerRow),
		reservation.WithMaxBooking(cfg.MaxBooking),
		reservation.WithDelay(cfg.SimulatedDelay),
		reservation.WithToggleWhilePending(cfg.ToggleWhilePending),
		reservation.WithLogger(log.Named("reservation")),
	}
	if cfg.BookingEventsEnabled {
		opts = append(opts, reservation.WithBookingSink(service.NewPublisher(cfg.RabbitMQURL, cfg.TrainID, log.Named("publisher"))))
	}
	if cfg.BookingLogConsumer {
		go func() {
			dir := filepath.Join(".", "logs")
			if err := queue.StartBookingConsumer(ctx, cfg.RabbitMQURL, dir, log.Named("consumer")); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("booking consumer stopped", zap.Error(err))
			}
		}()
	}
	store := reservation.New(source, opts...)

	// First seat map; the server answers with an empty carriage until it lands.
	if _, err := store.Load(ctx); err != nil {
		log.Warn("initial load not started", zap.Error(err))
	}

	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		log.Warn("redis unreachable, rate limiting disabled")
	} else {
		defer func() { _ = rdb.Close() }()
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log.Named("ratelimit"))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log.Named("http")))
	router.RegisterRoutes(e)
	router.RegisterReservation(e, handler.NewReservationHandler(store, log.Named("handler")), limiter)

	addr := ":" + cfg.Port
	log.Info("listening",
		zap.String("addr", addr),
		zap.String("env", cfg.Env),
		zap.String("seat_source", cfg.SeatSource),
		zap.Int("total_seats", cfg.TotalSeats))

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- e.Start(addr)
	}()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server shutdown error", zap.Error(err))
	}
	log.Info("server stopped")
}

// buildSource returns the seat source selected by SEAT_SOURCE and a
// function releasing its resources.
func buildSource(ctx context.Context, cfg config.Config, log *zap.Logger) (reservation.SeatSource, func(), error) {
	switch cfg.SeatSource {
	case "", "random":
		return reservation.NewRandomSource(cfg.BookedProbability, cfg.RandomSeed), func() {}, nil
	case "mysql":
		db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, nil, err
		}
		log.Info("seat map backed by mysql", zap.String("host", cfg.DBHost), zap.Uint64("train_id", cfg.TrainID))
		return repository.NewSeatMapRepo(db, cfg.TrainID), func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown seat source %q", cfg.SeatSource)
	}
}
