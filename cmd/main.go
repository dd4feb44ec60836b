package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/YelzhanWeb/pickup/internal/adapter/jsonfile"
	"github.com/YelzhanWeb/pickup/internal/adapter/logger"
	"github.com/YelzhanWeb/pickup/internal/adapter/memory"
	"github.com/YelzhanWeb/pickup/internal/adapter/postgres"
	"github.com/YelzhanWeb/pickup/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/pickup/internal/app/availability"
	"github.com/YelzhanWeb/pickup/internal/app/backup"
	"github.com/YelzhanWeb/pickup/internal/app/order"
	"github.com/YelzhanWeb/pickup/internal/app/payment"
	"github.com/YelzhanWeb/pickup/internal/app/timeslot"
	"github.com/YelzhanWeb/pickup/internal/config"
	"github.com/YelzhanWeb/pickup/internal/domain"
	"github.com/YelzhanWeb/pickup/internal/interfaces"

	amqpAdapter "github.com/YelzhanWeb/pickup/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/pickup/internal/adapter/http"
	redisAdapter "github.com/YelzhanWeb/pickup/internal/adapter/redis"
)

func main() {
	mode := flag.String("mode", "api", "Service mode: api, notification-subscriber, backup")
	configPath := flag.String("config", "config.yaml", "Path to the YAML config file")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load .env: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	lgr := logger.New(*mode, logger.ParseLevel(cfg.Log.Level))
	ctx := context.Background()

	switch *mode {
	case "api":
		store := openStorage(ctx, cfg, lgr)
		defer store.Close()
		runAPI(ctx, cfg, store, lgr)

	case "backup":
		store := openStorage(ctx, cfg, lgr)
		defer store.Close()
		runBackup(ctx, cfg, store, lgr)

	case "notification-subscriber":
		runNotificationSubscriber(cfg, lgr)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

type storage struct {
	slots    interfaces.TimeSlotRepository
	orders   interfaces.OrderRepository
	payments interfaces.PaymentSettingsRepository
	backups  interfaces.BackupStore
	closers  []func()
}

func (s *storage) Close() {
	for _, c := range s.closers {
		c()
	}
}

func openStorage(ctx context.Context, cfg *config.Config, lgr logger.Logger) *storage {
	store := &storage{backups: jsonfile.NewBackupStore(cfg.BackupDir())}

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		store.slots = memory.NewTimeSlotRepository()
		store.orders = memory.NewOrderRepository()
		store.payments = memory.NewPaymentSettingsRepository()

	case config.DriverPostgres:
		db, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		store.closers = append(store.closers, db.Close)
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatalf("Failed to migrate PostgreSQL: %v", err)
		}
		lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
			"host": cfg.Database.Host,
			"db":   cfg.Database.Database,
		})

		store.slots = jsonfile.NewTimeSlotRepository(cfg.Storage.DataDir)
		store.orders = postgres.NewOrderRepository(db)
		store.payments = jsonfile.NewPaymentSettingsRepository(cfg.Storage.DataDir)

	default:
		store.slots = jsonfile.NewTimeSlotRepository(cfg.Storage.DataDir)
		store.orders = jsonfile.NewOrderRepository(cfg.Storage.DataDir)
		store.payments = jsonfile.NewPaymentSettingsRepository(cfg.Storage.DataDir)
	}

	lgr.Info("storage_ready", "Storage initialized", "startup", map[string]interface{}{
		"driver":     cfg.Storage.Driver,
		"data_dir":   cfg.Storage.DataDir,
		"backup_dir": cfg.BackupDir(),
	})
	return store
}

func openLocker(ctx context.Context, cfg *config.Config, lgr logger.Logger) (interfaces.SlotLocker, func()) {
	if !cfg.Redis.Enabled {
		return memory.NewLocker(), func() {}
	}

	client, err := redisAdapter.Connect(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	lgr.Info("redis_connected", "Connected to Redis", "startup", map[string]interface{}{
		"addr": cfg.Redis.Addr,
	})
	return redisAdapter.NewLocker(client, cfg.Redis.LockTTL), func() { client.Close() }
}

func openPublisher(cfg *config.Config, lgr logger.Logger) (interfaces.OrderEventPublisher, func()) {
	if !cfg.RabbitMQ.Enabled {
		return rabbitmq.NewNopPublisher(), func() {}
	}

	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})
	return rabbitmq.NewPublisher(mqConn), func() { mqConn.Close() }
}

func runAPI(ctx context.Context, cfg *config.Config, store *storage, lgr logger.Logger) {
	loc, err := cfg.Booking.Location()
	if err != nil {
		log.Fatalf("Invalid booking config: %v", err)
	}

	locker, closeLocker := openLocker(ctx, cfg, lgr)
	defer closeLocker()
	publisher, closePublisher := openPublisher(cfg, lgr)
	defer closePublisher()

	// Initialize services
	slotService := timeslot.NewService(store.slots, lgr)
	orderService := order.NewService(store.orders, slotService, locker, publisher, lgr, order.Options{
		Policy:   domain.CapacityPolicy{CountCancelled: cfg.Booking.CountCancelled},
		Location: loc,
	})
	availabilityService := availability.NewService(slotService, orderService, loc)
	paymentService := payment.NewService(store.payments, lgr)
	backupService := backup.NewService(store.slots, store.orders, store.payments, store.backups, lgr)

	var scheduler *backup.Scheduler
	if cfg.Backup.Enabled {
		scheduler, err = backup.NewScheduler(backupService, cfg.Backup.Schedule, cfg.Backup.Keep, lgr)
		if err != nil {
			log.Fatalf("Failed to start backup scheduler: %v", err)
		}
		scheduler.Start()
	}

	handler := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AdminToken:        cfg.Server.AdminToken,
		CORSOrigins:       cfg.Server.CORSOrigins,
		CheckoutPerMinute: cfg.Server.CheckoutPerMinute,
	}, httpAdapter.Services{
		TimeSlots:    slotService,
		Availability: availabilityService,
		Orders:       orderService,
		Payments:     paymentService,
		Backups:      backupService,
	}, lgr)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if cfg.Server.AdminToken == "" {
		lgr.Warn("admin_unprotected", "server.admin_token is empty, admin routes are open", "startup", nil)
	}
	lgr.Info("service_started", fmt.Sprintf("Pickup API started on port %d", cfg.Server.Port), "startup", map[string]interface{}{
		"port":     cfg.Server.Port,
		"timezone": loc.String(),
		"redis":    cfg.Redis.Enabled,
		"rabbitmq": cfg.RabbitMQ.Enabled,
	})

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", "Shutting down Pickup API", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if scheduler != nil {
			scheduler.Stop(shutdownCtx)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
	}
}

func runBackup(ctx context.Context, cfg *config.Config, store *storage, lgr logger.Logger) {
	backupService := backup.NewService(store.slots, store.orders, store.payments, store.backups, lgr)

	id, err := backupService.Create(ctx)
	if err != nil {
		log.Fatalf("Backup failed: %v", err)
	}
	removed, err := backupService.Prune(ctx, cfg.Backup.Keep)
	if err != nil {
		log.Fatalf("Failed to prune backups: %v", err)
	}

	lgr.Info("backup_done", "Backup written", "backup", map[string]interface{}{
		"backup_id": id,
		"pruned":    removed,
	})
}

func runNotificationSubscriber(cfg *config.Config, lgr logger.Logger) {
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mqConn.Close()

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})

	consumer := rabbitmq.NewConsumer(mqConn, 10, lgr)
	notificationHandler := amqpAdapter.NewNotificationHandler(lgr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lgr.Info("service_started", "Notification Subscriber started", "startup", nil)

	go func() {
		if err := consumer.ConsumeOrderEvents(ctx, notificationHandler.HandleOrderEvent); err != nil && ctx.Err() == nil {
			lgr.Error("consumer_error", "Error consuming order events", "runtime", nil, err)
		}
	}()

	// Wait for shutdown signal
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint

	lgr.Info("shutdown_initiated", "Shutting down Notification Subscriber", "shutdown", nil)
}
