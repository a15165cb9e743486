package appServer

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gatherhub/gatherhub/config"
	repository "github.com/gatherhub/gatherhub/internal/database/postgres"
	"github.com/gatherhub/gatherhub/internal/service"
	"github.com/gatherhub/gatherhub/internal/transport"
	"github.com/gatherhub/gatherhub/internal/worker"

	"github.com/gatherhub/gatherhub/pkg/embedding"
	"github.com/gatherhub/gatherhub/pkg/postgres"
	"github.com/gatherhub/gatherhub/pkg/queue"
	"github.com/gatherhub/gatherhub/pkg/redis"
	"github.com/gatherhub/gatherhub/pkg/scheduler"
	"github.com/gatherhub/gatherhub/pkg/telegram"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)
	logger := logrus.StandardLogger()

	// Initialize database
	db, err := postgres.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run database migrations
	if err := postgres.RunMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	communityRepo := repository.NewCommunityRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	eventRepo := repository.NewEventRepository(db)
	rsvpRepo := repository.NewRSVPRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// Initialize Telegram bot
	var telegramBot *telegram.Bot
	if cfg.Telegram.Enabled && cfg.Telegram.BotToken != "" {
		telegramBot = telegram.NewBot(cfg.Telegram.BotToken)
		logger.Info("Telegram bot initialized")
	} else {
		logger.Warn("Telegram bot disabled, notifications will be skipped")
	}

	// Initialize embedding client
	var embedder service.Embedder
	if cfg.Embedding.Enabled && cfg.Embedding.BaseURL != "" {
		embedder = embedding.NewClient(cfg.Embedding.BaseURL, cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.Timeout)
		logger.Info("Embedding client initialized")
	} else {
		logger.Warn("Embedding client disabled, search will use text matching")
	}

	var redisQueue queue.Queue
	var taskPublisher service.TaskPublisher

	if cfg.Redis.Host != "" {
		redisConfig := queue.DefaultRedisQueueConfig()
		redisConfig.Addr = fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
		redisConfig.Password = cfg.Redis.Password
		redisConfig.DB = cfg.Redis.DB

		retryManager := queue.NewRetryManager(3, 5*time.Second)
		redisClient := redis.NewRedisClient(&cfg.Redis)
		defer redisClient.Close()
		dlqHandler := queue.NewDefaultDLQHandler(redisClient, redisConfig.DLQ)

		q, err := queue.NewRedisQueue(redisConfig, retryManager, dlqHandler)
		if err != nil {
			logger.Errorf("Failed to initialize Redis queue: %v. Continuing without queue...", err)
		} else {
			logger.Info("Redis queue initialized")
			redisQueue = q
			taskPublisher = q
		}
	}

	// Initialize services
	communityService := service.NewCommunityService(communityRepo, membershipRepo, activityRepo, taskPublisher)
	eventService := service.NewEventService(eventRepo, communityRepo, membershipRepo, rsvpRepo, taskPublisher, cfg.Event, cfg.Reminder)
	rsvpService := service.NewRSVPService(rsvpRepo, eventRepo, taskPublisher, cfg.Event)
	tagService := service.NewTagService(membershipRepo, rsvpRepo, profileRepo, cfg.Tags)
	searchService := service.NewSearchService(eventRepo, rsvpRepo, embedder, cfg.Event)
	profileService := service.NewProfileService(profileRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start queue consumer if the queue is available
	if redisQueue != nil {
		var notifier service.Notifier
		if telegramBot != nil {
			notifier = telegramBot
		}
		processor := service.NewTaskProcessor(activityRepo, eventRepo, rsvpRepo, profileRepo, embedder, notifier, logger)

		if err := redisQueue.Subscribe(ctx, processor.Handle); err != nil {
			logger.Errorf("Queue subscriber error: %v", err)
		} else {
			logger.Info("Queue subscriber started")
		}
	}

	// Periodic jobs: event reminders
	jobScheduler := scheduler.NewScheduler(logger)
	sweepInterval := cfg.Reminder.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	jobScheduler.AddJob("reminder_sweep", sweepInterval, eventService.SendDueReminders)
	defer jobScheduler.Stop()

	// Embedding backfill worker
	embeddingWorker := worker.NewEmbeddingWorker(eventRepo, embedder, logger, cfg.Worker)
	embeddingWorker.Start()
	defer embeddingWorker.Stop()

	// Initialize handlers
	handlers := &transport.Handlers{
		Community: transport.NewCommunityHandler(communityService),
		Event:     transport.NewEventHandler(eventService),
		RSVP:      transport.NewRSVPHandler(rsvpService),
		Search:    transport.NewSearchHandler(searchService, tagService),
		Profile:   transport.NewProfileHandler(profileService),
	}

	// Setup HTTP server
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(handlers)); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logger.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Print("App Shutting Down")

	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Errorf("error occured on server shutting down: %s", err.Error())
	}

	if redisQueue != nil {
		if err := redisQueue.Close(); err != nil {
			logger.Errorf("error occured on queue shutting down: %s", err.Error())
		}
	}
}
