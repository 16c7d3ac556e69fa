// @title SporMatch API
// @version 1.0
// @description Sports events, chat and invites for SporMatch mobile clients.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-co-op/gocron/v2"

	"github.com/Dosada05/spormatch/broker"
	"github.com/Dosada05/spormatch/config"
	"github.com/Dosada05/spormatch/db"
	"github.com/Dosada05/spormatch/handlers"
	"github.com/Dosada05/spormatch/realtime"
	"github.com/Dosada05/spormatch/repositories"
	api "github.com/Dosada05/spormatch/routes"
	"github.com/Dosada05/spormatch/services"
	"github.com/Dosada05/spormatch/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	if err := run(cfg, logger); err != nil {
		logger.Error("application stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, dbConn); err != nil {
			return err
		}
		logger.Info("database schema applied")
	}

	// Хранилище изображений: Cloudflare R2 или локальная папка
	uploader, localUploadDir, err := newUploader(ctx, cfg)
	if err != nil {
		return err
	}

	// Инициализация WebSocket Hub
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	wsHub := realtime.NewHub(logger)
	go wsHub.Run(hubCtx)
	logger.Info("WebSocket Hub started")

	publisher, err := newPublisher(cfg, wsHub, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close message publisher", slog.Any("error", err))
		}
	}()

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	resultRepo := repositories.NewPostgresMatchResultRepository(dbConn)
	conversationRepo := repositories.NewPostgresConversationRepository(dbConn)
	messageRepo := repositories.NewPostgresMessageRepository(dbConn)
	notificationRepo := repositories.NewPostgresNotificationRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	authService := services.NewAuthService(userRepo, logger)
	userService := services.NewUserService(userRepo, eventRepo, logger)
	eventService := services.NewEventService(dbConn, eventRepo, participantRepo, resultRepo, notificationRepo, userRepo, logger)
	participantService := services.NewParticipantService(dbConn, eventRepo, participantRepo, cfg.EventCapacityEnforced, logger)
	conversationService := services.NewConversationService(dbConn, conversationRepo, messageRepo, userRepo, publisher, logger)
	notificationService := services.NewNotificationService(dbConn, notificationRepo, userRepo, eventRepo, participantRepo, cfg.EventCapacityEnforced, logger)
	teamService := services.NewTeamService(dbConn, teamRepo, logger)
	uploadService := services.NewUploadService(uploader, logger)
	logger.Info("Services initialized", slog.Bool("capacity_enforced", cfg.EventCapacityEnforced))

	// Планировщик перевода прошедших событий в past
	scheduler, err := startSweepScheduler(eventService, cfg.StatusSweepInterval, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.Error("failed to stop scheduler", slog.Any("error", err))
		}
	}()

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:         handlers.NewAuthHandler(authService, cfg.JWTSecretKey, cfg.JWTTTL),
		User:         handlers.NewUserHandler(userService),
		Event:        handlers.NewEventHandler(eventService),
		Participant:  handlers.NewParticipantHandler(participantService),
		Match:        handlers.NewMatchHandler(eventService),
		Dashboard:    handlers.NewDashboardHandler(eventService),
		Conversation: handlers.NewConversationHandler(conversationService),
		Message:      handlers.NewMessageHandler(conversationService),
		Notification: handlers.NewNotificationHandler(notificationService),
		Team:         handlers.NewTeamHandler(teamService),
		Upload:       handlers.NewUploadHandler(uploadService),
		WebSocket:    handlers.NewWebSocketHandler(wsHub, conversationService, cfg.CORSAllowedOrigins),
		Health:       handlers.NewHealthHandler(dbConn),
	}, api.Options{
		JWTSecret:      cfg.JWTSecretKey,
		AuthRateLimit:  cfg.RateLimit,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		UploadDir:      localUploadDir,
		Logger:         logger,
	})
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return err
		}
		logger.Info("server shutdown complete")
	}
	return nil
}

// newUploader возвращает R2, если он полностью настроен, иначе локальное хранилище.
// Второе значение непустое, только когда файлы нужно раздавать самим.
func newUploader(ctx context.Context, cfg *config.Config) (storage.FileUploader, string, error) {
	if cfg.R2Enabled() {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		slog.Info("Cloudflare R2 uploader initialized", slog.String("bucket", cfg.R2BucketName))
		return uploader, "", nil
	}

	uploader, err := storage.NewLocalUploader(cfg.UploadDir, cfg.PublicBaseURL+"/uploads")
	if err != nil {
		return nil, "", fmt.Errorf("failed to initialize local uploader: %w", err)
	}
	slog.Info("local uploader initialized", slog.String("dir", cfg.UploadDir))
	return uploader, cfg.UploadDir, nil
}

func newPublisher(cfg *config.Config, hub *realtime.Hub, logger *slog.Logger) (broker.Publisher, error) {
	if cfg.NATSURL == "" {
		logger.Info("realtime messages delivered in-process")
		return broker.NewLocalPublisher(hub), nil
	}
	publisher, err := broker.NewNATSPublisher(broker.NATSConfig{URL: cfg.NATSURL, Token: cfg.NATSToken}, hub, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("realtime messages relayed through NATS", slog.String("url", cfg.NATSURL))
	return publisher, nil
}

func startSweepScheduler(eventService services.EventService, interval time.Duration, logger *slog.Logger) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			moved, err := eventService.SweepPastEvents(ctx, time.Now())
			if err != nil {
				logger.Error("Scheduler: past event sweep failed", slog.Any("error", err))
				return
			}
			if moved > 0 {
				logger.Info("Scheduler: events moved to past", slog.Int64("count", moved))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule past event sweep: %w", err)
	}

	scheduler.Start()
	logger.Info("Event status sweep scheduler started", slog.Duration("interval", interval))
	return scheduler, nil
}
