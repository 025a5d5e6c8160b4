package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pos-backend/internal/apperror"
	"pos-backend/internal/audit"
	"pos-backend/internal/cashier"
	"pos-backend/internal/checkout"
	"pos-backend/internal/config"
	"pos-backend/internal/database"
	"pos-backend/internal/inventory"
	"pos-backend/internal/logger"
	"pos-backend/internal/metrics"
	"pos-backend/internal/middleware"
	"pos-backend/internal/notify"
	"pos-backend/internal/order"
	"pos-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type services struct {
	store    *store.Store
	recorder *audit.Recorder
	metrics  *metrics.Metrics
	ledger   *inventory.Ledger
	orders   *order.Machine
	checkout *checkout.Coordinator
	till     *cashier.Till
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(logger.Options{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: "pos-backend",
	})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zap.ReplaceGlobals(zl)

	sink, err := auditSink(cfg, zl)
	if err != nil {
		zl.Fatal("audit sink could not be opened", zap.Error(err))
	}

	notifiers := notify.Multi{notify.NewLogNotifier(zl)}
	if cfg.RedisAddr != "" {
		if client := notify.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, zl); client != nil {
			defer client.Close()
			notifiers = append(notifiers, notify.NewRedisNotifier(client, zl))
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := newServices(cfg, store.New(), sink, notifiers, metrics.New(reg), zl)
	if cfg.SeedDemo {
		if err := seedDemo(context.Background(), svc, zl); err != nil {
			zl.Warn("demo data could not be seeded", zap.Error(err))
		}
	}

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	defer limiter.Stop()

	app := newApp(cfg, svc, limiter, zl)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		zl.Info("server starting", zap.String("port", cfg.HTTPPort))
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			zl.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zl.Error("shutdown failed", zap.Error(err))
	}
}

// auditSink keeps the trail in postgres when DATABASE_DSN is set, in memory otherwise.
func auditSink(cfg *config.Config, zl *zap.Logger) (audit.Sink, error) {
	if cfg.DatabaseDSN == "" {
		zl.Info("DATABASE_DSN empty, audit trail kept in memory")
		return audit.NewMemorySink(), nil
	}
	db, err := database.Open(cfg.DatabaseDSN, zl)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return audit.NewGormSink(db), nil
}

func newServices(cfg *config.Config, st *store.Store, sink audit.Sink, n notify.Notifier, m *metrics.Metrics, zl *zap.Logger) *services {
	rec := audit.NewRecorder(sink, zl)
	ledger := inventory.NewLedger(st, inventory.Options{
		LowStockThreshold: cfg.LowStockThreshold,
		StrictStock:       cfg.StrictStock,
	}, n, rec, m, zl)
	orders := order.NewMachine(st, rec, m, zl)

	return &services{
		store:    st,
		recorder: rec,
		metrics:  m,
		ledger:   ledger,
		orders:   orders,
		checkout: checkout.NewCoordinator(st, ledger, orders, rec, m, zl),
		till:     cashier.NewTill(orders),
	}
}

func newApp(cfg *config.Config, svc *services, limiter *middleware.RateLimiter, zl *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "pos-backend",
		BodyLimit:    8 * 1024 * 1024,
		ErrorHandler: errorHandler,
	})

	app.Use(middleware.RequestID())
	app.Use(logger.Middleware(zl))
	app.Use(svc.metrics.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOriginList(), ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))
	if limiter != nil {
		app.Use(limiter.Middleware())
	}

	registerRoutes(app, cfg, svc)
	return app
}

func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindValidation, apperror.KindIndexOutOfRange:
		return fiber.StatusBadRequest
	case apperror.KindAccessDenied:
		return fiber.StatusForbidden
	case apperror.KindInsufficientStock, apperror.KindConflict:
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// errorHandler maps domain error kinds to HTTP statuses.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	kind := apperror.KindOf(err)
	status := statusFor(kind)
	if status == fiber.StatusInternalServerError {
		logger.FromCtx(c).Error("unexpected error",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(status).JSON(fiber.Map{
			"error": "unexpected server error",
			"code":  string(apperror.KindInternal),
		})
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
		"code":  string(kind),
	})
}
