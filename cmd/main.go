package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YelzhanWeb/orderbridge/internal/adapter/logger"
	"github.com/YelzhanWeb/orderbridge/internal/adapter/postgres"
	"github.com/YelzhanWeb/orderbridge/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/orderbridge/internal/adapter/serial"
	"github.com/YelzhanWeb/orderbridge/internal/app/order"
	"github.com/YelzhanWeb/orderbridge/internal/app/tracking"
	"github.com/YelzhanWeb/orderbridge/internal/config"
	"github.com/YelzhanWeb/orderbridge/internal/domain"
	"github.com/YelzhanWeb/orderbridge/internal/interfaces"

	amqpAdapter "github.com/YelzhanWeb/orderbridge/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/orderbridge/internal/adapter/http"
)

func main() {
	// Parse command-line flags
	mode := flag.String("mode", "order-service", "Service mode: order-service, notification-subscriber, list-ports")
	configPath := flag.String("config", "config.yaml", "Path to the YAML config file")
	flag.Parse()

	if *mode == "list-ports" {
		for _, name := range serial.ListCandidatePorts() {
			fmt.Println(name)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	lgr := logger.New(*mode)

	switch *mode {
	case "order-service":
		runOrderService(ctx, *cfg, lgr)

	case "notification-subscriber":
		runNotificationSubscriber(ctx, *cfg, lgr)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

// deviceLink is the opened serial port and the bridge running on it.
type deviceLink struct {
	transport *serial.Transport
	bridge    *serial.Bridge
}

func runOrderService(ctx context.Context, cfg config.Config, lgr logger.Logger) {
	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})

	var publisher interfaces.MessagePublisher
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		lgr.Error("rabbitmq_connection_failed", "RabbitMQ unavailable, status notifications disabled", "startup", map[string]interface{}{
			"host": cfg.RabbitMQ.Host,
		}, err)
	} else {
		defer mqConn.Close()
		publisher = rabbitmq.NewPublisher(mqConn)
		lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
			"host": cfg.RabbitMQ.Host,
		})
	}

	orderRepo := postgres.NewOrderRepository(db)
	deviceRepo := postgres.NewDeviceRepository(db)

	link := openDevice(cfg.Serial, lgr)

	devicePort := ""
	if link != nil {
		devicePort = link.transport.Name()
	}
	trackingService := tracking.NewService(orderRepo, deviceRepo, publisher, devicePort, lgr)

	var dispatcher interfaces.OrderDispatcher
	if link != nil {
		link.bridge = serial.NewBridge(link.transport.Reader(), link.transport.Writer(),
			serial.NewNotifier(trackingService.ApplyDeviceStatus),
			serial.WithLogger(lgr),
			serial.WithQueueSize(cfg.Serial.QueueSize),
			serial.WithDispatchHook(trackingService.RecordDispatch),
		)

		device, err := domain.NewDevice(devicePort)
		if err == nil {
			err = deviceRepo.Upsert(ctx, device)
		}
		if err != nil {
			lgr.Error("device_register_failed", "Failed to register device", "startup", nil, err)
		}

		if err := link.bridge.Start(ctx); err != nil {
			log.Fatalf("Failed to start serial bridge: %v", err)
		}
		dispatcher = link.bridge.Dispatcher()

		lgr.Info("bridge_started", "Serial bridge running", "startup", map[string]interface{}{
			"port":      devicePort,
			"baud_rate": cfg.Serial.BaudRate,
		})
	}

	orderService := order.NewService(orderRepo, publisher, dispatcher, lgr)

	handler := httpAdapter.NewRouter(
		httpAdapter.NewOrderHandler(orderService, lgr),
		httpAdapter.NewTrackingHandler(trackingService, lgr),
		lgr,
	)

	server := &http.Server{
		Addr:         cfg.HTTP.ListenAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("Order Service listening on %s", cfg.HTTP.ListenAddr), "startup", map[string]interface{}{
		"addr":   cfg.HTTP.ListenAddr,
		"device": devicePort,
	})

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", "Shutting down Order Service", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}

		if link == nil {
			return
		}
		if err := link.bridge.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Serial bridge did not drain in time", "shutdown", nil, err)
		}
		if err := link.transport.Close(); err != nil {
			lgr.Error("shutdown_error", "Failed to close serial port", "shutdown", nil, err)
		}
		if err := deviceRepo.SetStatus(shutdownCtx, devicePort, domain.DeviceStatusOffline); err != nil {
			lgr.Error("shutdown_error", "Failed to mark device offline", "shutdown", nil, err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
		return
	}
	<-done
}

// openDevice resolves and opens the serial port. The service keeps running
// without a device, so every failure only disables the bridge.
func openDevice(cfg config.SerialConfig, lgr logger.Logger) *deviceLink {
	name, ok := serial.ResolvePort(cfg.Port)
	if !ok {
		lgr.Info("bridge_disabled", "No serial device found, bridge disabled", "startup", map[string]interface{}{
			"candidates": serial.ListCandidatePorts(),
		})
		return nil
	}

	tr, err := serial.Open(name, cfg.BaudRate, cfg.ReadTimeout())
	if err != nil {
		details := map[string]interface{}{"port": name}
		var openErr *serial.TransportOpenError
		if errors.As(err, &openErr) {
			details["busy"] = openErr.Busy()
			details["not_found"] = openErr.NotFound()
		}
		lgr.Error("bridge_disabled", "Failed to open serial port, bridge disabled", "startup", details, err)
		return nil
	}

	return &deviceLink{transport: tr}
}

func runNotificationSubscriber(ctx context.Context, cfg config.Config, lgr logger.Logger) {
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mqConn.Close()

	consumer := rabbitmq.NewConsumer(mqConn, lgr)
	notificationHandler := amqpAdapter.NewNotificationHandler(lgr)

	lgr.Info("service_started", "Notification Subscriber started", "startup", nil)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := consumer.ConsumeNotifications(ctx, notificationHandler.HandleNotification); err != nil && ctx.Err() == nil {
		lgr.Error("consumer_error", "Error consuming notifications", "runtime", nil, err)
	}

	lgr.Info("shutdown_initiated", "Shutting down Notification Subscriber", "shutdown", nil)
}
