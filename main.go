package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"my-publisher/domain/model"
	"my-publisher/domain/publisher"
	"my-publisher/domain/repository"
	"my-publisher/infrastructure/cache"
	facebookclient "my-publisher/infrastructure/clients/facebook"
	instagramclient "my-publisher/infrastructure/clients/instagram"
	linkedinclient "my-publisher/infrastructure/clients/linkedin"
	pinterestclient "my-publisher/infrastructure/clients/pinterest"
	tiktokclient "my-publisher/infrastructure/clients/tiktok"
	twitterclient "my-publisher/infrastructure/clients/twitter"
	youtubeclient "my-publisher/infrastructure/clients/youtube"
	"my-publisher/infrastructure/configuration"
	"my-publisher/infrastructure/logger"
	"my-publisher/infrastructure/persistence"
	"my-publisher/infrastructure/pubsub"
	"my-publisher/infrastructure/realtime"
	"my-publisher/infrastructure/servicebus"
	"my-publisher/infrastructure/vault"
	"my-publisher/infrastructure/webhook"
	httpHandler "my-publisher/interfaces/http"
	"my-publisher/server"
	"my-publisher/usecase"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")

	app := configuration.C.App

	primaryDb, psqlDb, err := InitiateDatabase()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Database initialization failed")
	}

	if psqlDb != nil {
		if err := persistence.EnsurePublisherSchema(psqlDb); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring publisher schema")
		}
	} else if primaryDb != nil {
		if err := persistence.EnsurePublisherSchemaMSSQL(primaryDb); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring publisher schema (mssql)")
		}
	}

	mongoDb, err := persistence.NewMongoDb(
		configuration.C.Database.Mongo.Host,
		configuration.C.Database.Mongo.Port,
		configuration.C.Database.Mongo.User,
		configuration.C.Database.Mongo.Password,
		configuration.C.Database.Mongo.Name,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - report archive disabled")
		mongoDb = nil
	} else {
		logger.GetLogger().Info("MongoDB connected successfully")
	}

	redisDb := 0
	redisPort, _ := strconv.Atoi(configuration.C.RedisClient.Port)
	redisClient, err := cache.NewCache(configuration.C.RedisClient.Host, redisPort, configuration.C.RedisClient.Password, redisDb)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - metrics cache disabled")
		redisClient = nil
	}

	pubSubClient, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("PubSub not available - lifecycle events disabled")
		pubSubClient = nil
	}

	azServiceBusClient, err := servicebus.NewServiceBus(configuration.C.ServiceBus.Namespace)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without Service Bus events")
		azServiceBusClient = nil
	}

	credentialVault, err := vault.New(configuration.C.Vault.Key)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Credential vault key invalid or missing")
		os.Exit(1)
	}

	// Repository wiring: use MSSQL in production, otherwise PostgreSQL.
	var userRepository repository.IUser
	var profileRepository repository.IConnectionProfile
	var scheduledRepository repository.IScheduledPost
	var publishedRepository repository.IPublishedContent
	if psqlDb == nil {
		userRepository = persistence.NewUserRepositoryMSSQL(primaryDb)
		profileRepository = persistence.NewConnectionProfileRepositoryMSSQL(primaryDb)
		scheduledRepository = persistence.NewScheduledPostRepositoryMSSQL(primaryDb)
		publishedRepository = persistence.NewPublishedContentRepositoryMSSQL(primaryDb)
	} else {
		userRepository = persistence.NewUserRepository(psqlDb)
		profileRepository = persistence.NewConnectionProfileRepository(psqlDb)
		scheduledRepository = persistence.NewScheduledPostRepository(psqlDb)
		publishedRepository = persistence.NewPublishedContentRepository(psqlDb)
	}

	reportArchive := persistence.NewReportArchive(mongoDb)
	metricsCache := cache.NewMetricsCache(redisClient, 5*time.Minute)
	eventPublisher := pubsub.NewEventPublisher(pubSubClient, configuration.C.Pubsub.Topic)
	eventSender := servicebus.NewEventSender(azServiceBusClient, configuration.C.ServiceBus.Queue)

	adapterTimeout := time.Duration(configuration.C.Publish.AdapterTimeoutSec) * time.Second
	registry := buildRegistry(configuration.C.Publish.Platforms, configuration.C.OAuth, adapterTimeout)
	logger.GetLogger().WithField("platforms", registry.Platforms()).Info("Platform adapters registered")

	limiter := usecase.NewRateLimiter(profileRepository)
	tokenManager := usecase.NewTokenLifecycleManager(profileRepository, credentialVault, buildOAuthConfigs(configuration.C.OAuth))
	hub := realtime.NewPublishHub()

	coordinator := usecase.NewPublishCoordinator(
		registry,
		profileRepository,
		limiter,
		tokenManager,
		publishedRepository,
		reportArchive,
		usecase.PublishCoordinatorOptions{
			MaxParallel:    configuration.C.Publish.MaxParallel,
			DispatchDelay:  time.Duration(configuration.C.Publish.DispatchDelayMs) * time.Millisecond,
			AdapterTimeout: adapterTimeout,
			Hub:            hub,
			Events:         eventPublisher,
			Bus:            eventSender,
		},
	)

	schedulerUsecase := usecase.NewSchedulerUsecase(
		scheduledRepository,
		coordinator,
		time.Duration(configuration.C.Scheduler.SweepIntervalSec)*time.Second,
		time.Duration(configuration.C.Scheduler.ClaimTimeoutMin)*time.Minute,
		configuration.C.Scheduler.BatchSize,
	)
	g.Go(func() error { return schedulerUsecase.Run(ctx) })

	userUsecase := usecase.NewUserUsecase(userRepository)
	connectionUsecase := usecase.NewConnectionUsecase(
		profileRepository,
		credentialVault,
		registry,
		tokenManager,
		configuration.C.Publish.DefaultPostsPerHour,
		configuration.C.Publish.DefaultPostsPerDay,
	)
	analyticsUsecase := usecase.NewAnalyticsUsecase(
		publishedRepository,
		profileRepository,
		reportArchive,
		registry,
		tokenManager,
		metricsCache,
	)

	statusRepository := persistence.NewStatusRepository(mongoDb, psqlDb)
	webhookVerifier := webhook.NewVerifier(configuration.C.Webhook.Secrets)

	userHandler := httpHandler.NewUserHandler(userUsecase)
	healthHandler := httpHandler.NewHealthHandler(statusRepository)
	publishHandler := httpHandler.NewPublishHandler(coordinator, schedulerUsecase)
	connectionHandler := httpHandler.NewConnectionHandler(connectionUsecase)
	scheduleHandler := httpHandler.NewScheduleHandler(schedulerUsecase)
	analyticsHandler := httpHandler.NewAnalyticsHandler(analyticsUsecase)
	webhookHandler := httpHandler.NewWebhookHandler(webhookVerifier)

	router := server.InitiateRouter(
		userHandler,
		healthHandler,
		publishHandler,
		connectionHandler,
		scheduleHandler,
		analyticsHandler,
		webhookHandler,
		hub,
		userRepository,
	)

	port := app.Port
	logger.GetLogger().WithFields(map[string]interface{}{"port": port, "tls": app.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}
		if app.TLSEnabled {
			cert := app.TLSCertFile
			key := app.TLSKeyFile
			if cert == "" || key == "" {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			} else {
				logger.GetLogger().WithFields(map[string]interface{}{"cert": cert, "key": key}).Info("Serving HTTPS")
				if err := httpServer.ListenAndServeTLS(cert, key); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
		} else {
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
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

// InitiateDatabase returns (primaryDB, psqlDB). In production the primary
// is MSSQL and psqlDB is nil; repositories that are PostgreSQL-only are
// disabled by the caller in that mode.
func InitiateDatabase() (*sql.DB, *sql.DB, error) {
	env := os.Getenv("ENV")
	if v := os.Getenv("DB_VENDOR"); v == "mssql" || env == "production" || env == "prod" {
		mssql, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL")
			return nil, nil, err
		}
		return mssql, nil, nil
	}

	postgres, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
		return nil, nil, err
	}
	return postgres, postgres, nil
}

// buildRegistry instantiates one adapter per enabled platform.
func buildRegistry(platforms []string, oauthConf configuration.OAuth, timeout time.Duration) *publisher.Registry {
	var adapters []publisher.Adapter
	for _, name := range platforms {
		platform, err := model.ParsePlatform(name)
		if err != nil {
			logger.GetLogger().WithField("platform", name).Warn("Unknown platform in config - skipping")
			continue
		}
		switch platform {
		case model.PlatformFacebook:
			adapters = append(adapters, facebookclient.New(timeout))
		case model.PlatformInstagram:
			adapters = append(adapters, instagramclient.New(timeout))
		case model.PlatformTwitter:
			adapters = append(adapters, twitterclient.New(timeout))
		case model.PlatformLinkedIn:
			adapters = append(adapters, linkedinclient.New(timeout))
		case model.PlatformTikTok:
			adapters = append(adapters, tiktokclient.New(timeout))
		case model.PlatformYouTube:
			yt := oauthConf.YouTube
			adapters = append(adapters, youtubeclient.New(yt.ClientID, yt.ClientSecret, yt.RedirectURI, timeout))
		case model.PlatformPinterest:
			adapters = append(adapters, pinterestclient.New(timeout))
		}
	}
	return publisher.NewRegistry(adapters...)
}

// buildOAuthConfigs maps each platform to the oauth2 client used for
// refresh-token exchanges.
func buildOAuthConfigs(conf configuration.OAuth) map[model.Platform]*oauth2.Config {
	tokenURLs := map[model.Platform]string{
		model.PlatformFacebook:  "https://graph.facebook.com/v19.0/oauth/access_token",
		model.PlatformInstagram: "https://graph.facebook.com/v19.0/oauth/access_token",
		model.PlatformTwitter:   "https://api.twitter.com/2/oauth2/token",
		model.PlatformLinkedIn:  "https://www.linkedin.com/oauth/v2/accessToken",
		model.PlatformTikTok:    "https://open.tiktokapis.com/v2/oauth/token/",
		model.PlatformYouTube:   "https://oauth2.googleapis.com/token",
		model.PlatformPinterest: "https://api.pinterest.com/v5/oauth/token",
	}
	clients := map[model.Platform]configuration.OAuthClient{
		model.PlatformFacebook:  conf.Facebook,
		model.PlatformInstagram: conf.Instagram,
		model.PlatformTwitter:   conf.Twitter,
		model.PlatformLinkedIn:  conf.LinkedIn,
		model.PlatformTikTok:    conf.TikTok,
		model.PlatformYouTube:   conf.YouTube,
		model.PlatformPinterest: conf.Pinterest,
	}

	configs := make(map[model.Platform]*oauth2.Config, len(clients))
	for platform, client := range clients {
		if client.ClientID == "" {
			continue
		}
		configs[platform] = &oauth2.Config{
			ClientID:     client.ClientID,
			ClientSecret: client.ClientSecret,
			RedirectURL:  client.RedirectURI,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURLs[platform]},
		}
	}
	return configs
}
