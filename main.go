package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"healthcare-scheduling-server/internal/booking"
	"healthcare-scheduling-server/internal/config"
	"healthcare-scheduling-server/internal/events"
	"healthcare-scheduling-server/internal/logger"
	"healthcare-scheduling-server/internal/metrics"
	"healthcare-scheduling-server/internal/models"
	"healthcare-scheduling-server/internal/repository"
	"healthcare-scheduling-server/internal/routes"
	"healthcare-scheduling-server/internal/slotlock"
	"healthcare-scheduling-server/internal/tracer"
)

func main() {
	// Load environment variables; a missing .env is fine outside development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Error building logger: %v", err)
	}

	if err := run(cfg, zlog); err != nil {
		zlog.Error("server exited with error", zap.Error(err))
		_ = zlog.Sync()
		os.Exit(1)
	}
	_ = zlog.Sync()
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracer.Init(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initialising tracer: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewCollector(reg, "scheduling")

	loc, err := cfg.Scheduling.Location()
	if err != nil {
		return err
	}

	var (
		appointments repository.AppointmentRepository
		directory    repository.Directory
		audit        repository.AuditRepository
		pings        []func(context.Context) error
	)

	switch cfg.Database.Driver {
	case "memory":
		zlog.Warn("using in-memory storage; data is lost on restart and participants are not verified")
		appointments = repository.NewMemoryAppointmentRepository()
		audit = &repository.MemoryAuditRepository{}
	default:
		db, err := models.InitDB(models.DatabaseConfig{
			Driver:          cfg.Database.Driver,
			DSN:             cfg.Database.DSN,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		pings = append(pings, sqlDB.PingContext)

		appointments = repository.NewAppointmentRepository(db)
		directory = repository.NewDirectory(db)
		if cfg.DirectoryCache.Size > 0 {
			directory = repository.NewCachedDirectory(directory, cfg.DirectoryCache.Size, cfg.DirectoryCache.TTL)
		}
		audit = repository.NewAuditRepository(db)
		zlog.Info("database connected", zap.String("driver", cfg.Database.Driver))
	}

	var locker slotlock.Locker
	switch cfg.Scheduling.LockBackend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr, err)
		}
		pings = append(pings, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		locker = slotlock.NewRedisLocker(rdb, zlog, cfg.Scheduling.LockTTL, cfg.Scheduling.LockTimeout)
		zlog.Info("using redis slot lock", zap.String("addr", cfg.Redis.Addr))
	default:
		locker = slotlock.NewLocalLocker(cfg.Scheduling.LockTimeout)
	}

	sinks := []events.Sink{events.NewLogSink(zlog), events.NewAuditSink(audit)}
	if cfg.RabbitMQ.URL != "" {
		conn, err := amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			return fmt.Errorf("connecting to rabbitmq: %w", err)
		}
		defer conn.Close()
		notify, err := events.NewNotificationSink(conn, cfg.RabbitMQ.NotificationQueue, zlog)
		if err != nil {
			return err
		}
		sinks = append(sinks, notify)
		zlog.Info("publishing notifications", zap.String("queue", cfg.RabbitMQ.NotificationQueue))
	}
	dispatcher := events.NewDispatcher(zlog, m, cfg.Events.BufferSize, cfg.Events.Workers, sinks...)

	svc := booking.NewService(appointments, directory, locker, dispatcher, m, zlog, booking.Options{
		Location:               loc,
		DefaultDurationMinutes: cfg.Scheduling.DefaultDurationMinutes,
		MaxDurationMinutes:     cfg.Scheduling.MaxDurationMinutes,
		DefaultStatus:          models.AppointmentStatus(cfg.Scheduling.DefaultStatus),
	})

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"Retry-After", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	err = routes.SetupRoutes(router, routes.Dependencies{
		Booking:    svc,
		Log:        zlog,
		Metrics:    m,
		Gatherer:   reg,
		JWTSecret:  cfg.JWTSecret,
		RateLimit:  cfg.RateLimit,
		RetryAfter: cfg.Scheduling.LockTimeout,
		Ping: func(ctx context.Context) error {
			for _, ping := range pings {
				if err := ping(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("setting up routes: %w", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		zlog.Info("server running", zap.String("port", cfg.Port), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		zlog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("http server shutdown", zap.Error(err))
	}
	// in-flight requests are done, so no more events will be published
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		zlog.Error("event dispatcher shutdown", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		zlog.Error("tracer shutdown", zap.Error(err))
	}
	return nil
}
