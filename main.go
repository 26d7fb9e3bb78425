package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"streamclips/domain/model"
	"streamclips/domain/repository"
	"streamclips/infrastructure/cache"
	"streamclips/infrastructure/configuration"
	"streamclips/infrastructure/logger"
	"streamclips/infrastructure/media"
	"streamclips/infrastructure/notification"
	"streamclips/infrastructure/persistence"
	"streamclips/infrastructure/platform"
	"streamclips/infrastructure/publish"
	"streamclips/infrastructure/queue"
	"streamclips/infrastructure/realtime"
	httpHandler "streamclips/interfaces/http"
	"streamclips/server"
	"streamclips/usecase"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")

	cfg := configuration.C

	db, err := persistence.NewPostgresDB(cfg.Database)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
		os.Exit(1)
	}
	logger.GetLogger().Info("Database connected")

	redisClient, err := cache.NewClient(
		ctx,
		fmt.Sprintf("%s:%s", cfg.RedisClient.Host, cfg.RedisClient.Port),
		cfg.RedisClient.Username,
		cfg.RedisClient.Password,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to Redis")
		os.Exit(1)
	}
	logger.GetLogger().Info("Redis client initialized successfully")

	streamerRepository := persistence.NewStreamerRepository(db)
	streamRepository := persistence.NewStreamRepository(db)
	clipRepository := persistence.NewClipRepository(db)
	publicationRepository := persistence.NewPublicationRepository(db)

	jobQueue := queue.NewRedisQueue(redisClient, queue.Options{
		StalledInterval: time.Duration(cfg.Queue.StalledIntervalSeconds) * time.Second,
		MaxStalledCount: cfg.Queue.MaxStalledCount,
	})

	// Platform adapters are optional: a missing credential disables that
	// platform instead of blocking startup.
	var platforms []repository.ILivePlatform
	if cfg.Twitch.ClientID != "" && cfg.Twitch.ClientSecret != "" {
		platforms = append(platforms, platform.NewTwitchPlatform(cfg.Twitch.ClientID, cfg.Twitch.ClientSecret))
	} else {
		logger.GetLogger().Warn("Twitch credentials not configured - Twitch monitoring disabled")
	}
	if cfg.YouTube.APIKey != "" {
		youtubePlatform, err := platform.NewYouTubePlatform(ctx, cfg.YouTube.APIKey)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Failed to initialize YouTube client - YouTube monitoring disabled")
		} else {
			platforms = append(platforms, youtubePlatform)
		}
	} else {
		logger.GetLogger().Warn("YouTube API key not configured - YouTube monitoring disabled")
	}
	platforms = append(platforms, platform.NewKickPlatform())

	ffmpeg, err := media.NewFFmpeg(cfg.Clip.StoragePath)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot initialize media tooling")
		os.Exit(1)
	}

	var transcriber repository.ITranscription
	if cfg.Transcription.DeepgramAPIKey != "" {
		transcriber = media.NewDeepgramTranscriber(cfg.Transcription.DeepgramAPIKey, ffmpeg)
	} else {
		logger.GetLogger().Warn("Deepgram API key not configured - transcription and subtitles disabled")
	}

	var notifier repository.INotifier
	if cfg.Discord.NotificationsWebhookURL != "" || cfg.Discord.ClipsWebhookURL != "" {
		notifier = notification.NewDiscordNotifier(cfg.Discord.NotificationsWebhookURL, cfg.Discord.ClipsWebhookURL)
	} else {
		logger.GetLogger().Warn("Discord webhooks not configured - notifications disabled")
	}

	hub := realtime.NewHub()

	publishers := []repository.IPublisher{
		publish.NewTikTokPublisher(),
		publish.NewInstagramPublisher(),
		publish.NewYouTubeShortsPublisher(),
	}
	if cfg.Discord.ClipsWebhookURL != "" {
		publishers = append(publishers, publish.NewDiscordPublisher(cfg.Discord.ClipsWebhookURL))
	}

	dispatcher := usecase.NewPublicationDispatcher(
		clipRepository,
		publicationRepository,
		streamerRepository,
		jobQueue,
		publishers,
		hub,
		cfg.Publish.AutoPublishThreshold,
		cfg.Publish.ReviewThreshold,
	)
	dispatcher.Register()

	pipeline := usecase.NewClipPipeline(
		clipRepository,
		streamRepository,
		streamerRepository,
		jobQueue,
		ffmpeg,
		ffmpeg,
		transcriber,
		media.NewBasicAnalyzer(),
		usecase.NewViralScorer(),
		dispatcher,
		notifier,
		hub,
		time.Duration(cfg.Clip.DurationSeconds)*time.Second,
		cfg.Clip.StoragePath,
		cfg.Transcription.Language,
	)
	pipeline.Register()

	validator := usecase.NewRPValidator(cfg.RP.AllowedGames, cfg.RP.BannedCategories, cfg.RP.RequiredKeywords)
	monitor := usecase.NewStreamMonitor(
		streamerRepository,
		streamRepository,
		platforms,
		validator,
		pipeline,
		notifier,
		hub,
		time.Duration(cfg.Monitor.IntervalSeconds)*time.Second,
		model.TriggerKind(cfg.Monitor.ClipTrigger),
	)

	streamerUsecase := usecase.NewStreamerUsecase(streamerRepository, streamRepository)
	clipUsecase := usecase.NewClipUsecase(clipRepository, publicationRepository, dispatcher)

	streamerHandler := httpHandler.NewStreamerHandler(streamerUsecase)
	clipHandler := httpHandler.NewClipHandler(clipUsecase)

	router := server.InitiateRouter(streamerHandler, clipHandler, hub)

	g.Go(func() error {
		return jobQueue.Run(ctx)
	})
	g.Go(func() error {
		return monitor.Run(ctx)
	})

	port := cfg.App.Port
	logger.GetLogger().WithField("port", port).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}
