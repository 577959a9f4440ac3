package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"varanasihub.com/site/internal/handlers"
	"varanasihub.com/site/internal/media"
	mw "varanasihub.com/site/internal/middleware"
	"varanasihub.com/site/internal/platform/config"
	"varanasihub.com/site/internal/platform/events"
	pfirestore "varanasihub.com/site/internal/platform/firestore"
	"varanasihub.com/site/internal/platform/observability"
	"varanasihub.com/site/internal/platform/secrets"
	"varanasihub.com/site/internal/platform/sqldb"
	platformstorage "varanasihub.com/site/internal/platform/storage"
	"varanasihub.com/site/internal/profileapi"
	"varanasihub.com/site/internal/repositories"
	firestoreRepo "varanasihub.com/site/internal/repositories/firestore"
	localRepo "varanasihub.com/site/internal/repositories/local"
	postgresRepo "varanasihub.com/site/internal/repositories/postgres"
	"varanasihub.com/site/internal/services"
	"varanasihub.com/site/internal/site"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("site")
	ctx = observability.WithLogger(ctx, logger)

	lookup, err := config.Lookup()
	if err != nil {
		logger.Fatal("failed to read environment values", zap.Error(err))
	}

	fetcher, err := newSecretFetcher(ctx, logger, lookup)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx, config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)))
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	store, err := newProfileStore(ctx, logger, cfg)
	if err != nil {
		logger.Fatal("failed to initialise profile store", zap.Error(err))
	}
	defer store.close()

	profiles, err := services.NewProfileService(services.ProfileServiceDeps{
		Repository:    store.repo,
		Logger:        logger.Named("profiles"),
		CacheTTL:      cfg.Cache.TTL,
		CacheCapacity: cfg.Cache.Capacity,
	})
	if err != nil {
		logger.Fatal("failed to initialise profile service", zap.Error(err))
	}

	remote, err := newRemoteSource(cfg)
	if err != nil {
		logger.Fatal("failed to initialise media source", zap.Error(err))
	}

	runCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()

	checks := append([]repositories.DependencyCheck{}, store.checks...)
	checks = append(checks, secretCheck(fetcher, cfg))

	subscriberDone := make(chan struct{})
	subscription, closePubSub, err := newProfileSubscription(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialise pubsub subscription", zap.Error(err))
	}
	if subscription != nil {
		defer closePubSub()
		subscriber, err := events.NewProfileSubscriber(subscription, logger.Named("events"))
		if err != nil {
			logger.Fatal("failed to initialise profile subscriber", zap.Error(err))
		}
		checks = append(checks, repositories.DependencyCheck{
			Name:    "pubsub",
			Timeout: 2 * time.Second,
			Check: func(ctx context.Context) error {
				ok, err := subscription.Exists(ctx)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("subscription %s not found", cfg.PubSub.Subscription)
				}
				return nil
			},
		})
		go func() {
			defer close(subscriberDone)
			if err := subscriber.Run(runCtx, profiles.HandleProfileChanged); err != nil {
				logger.Error("profile subscriber stopped", zap.Error(err))
			}
		}()
	} else {
		close(subscriberDone)
	}

	healthRepo, err := repositories.NewDependencyHealthRepository(checks)
	if err != nil {
		logger.Fatal("failed to initialise health repository", zap.Error(err))
	}
	healthService, err := services.NewHealthService(services.HealthServiceDeps{Repository: healthRepo})
	if err != nil {
		logger.Fatal("failed to initialise health service", zap.Error(err))
	}

	views := site.NewViews(
		site.WithLogger(logger.Named("views")),
		site.WithMaxViews(cfg.Views.MaxPublished),
		site.WithMaxPreviews(cfg.Views.MaxPreviews),
	)
	sweeper, err := site.NewSweeper(views, cfg.Views.SweepSchedule, cfg.Views.IdleTTL, logger.Named("views"))
	if err != nil {
		logger.Fatal("failed to initialise view sweeper", zap.Error(err))
	}
	sweeper.Start()

	renderer, err := handlers.NewRenderer(
		handlers.WithTemplatesDir(cfg.Site.TemplatesDir),
		handlers.WithDevMode(cfg.Site.Dev),
	)
	if err != nil {
		logger.Fatal("failed to parse templates", zap.Error(err))
	}

	location, err := time.LoadLocation(cfg.Site.Timezone)
	if err != nil {
		logger.Fatal("invalid site timezone", zap.String("timezone", cfg.Site.Timezone), zap.Error(err))
	}

	siteHandlers, err := handlers.NewSiteHandlers(handlers.SiteDeps{
		Profiles:         profiles,
		Views:            views,
		Registry:         media.NewRegistry(),
		Remote:           remote,
		Renderer:         renderer,
		RootDomain:       cfg.Site.RootDomain,
		MapsAPIKey:       cfg.Site.MapsAPIKey,
		Location:         location,
		MaxUploadBytes:   cfg.Preview.MaxUploadBytes,
		PreviewPerMinute: cfg.Preview.PerMinute,
	})
	if err != nil {
		logger.Fatal("failed to initialise site handlers", zap.Error(err))
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			mw.Tenant(cfg.Site.RootDomain),
			observability.InjectLoggerMiddleware(logger),
			observability.TraceMiddleware(traceProject(cfg)),
			observability.RequestLoggerMiddleware(),
			observability.RecoveryMiddleware(logger),
		),
		handlers.WithTrustedProxies(cfg.Server.TrustedProxies...),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(handlers.WithHealthService(healthService))),
		handlers.WithSiteRoutes(siteHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("starting site server",
			zap.String("addr", server.Addr),
			zap.String("store", storeLabel(cfg)),
			zap.String("root_domain", cfg.Site.RootDomain),
			zap.Bool("dev", cfg.Site.Dev),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down site server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	stopBackground()
	<-subscriberDone
	sweeper.Stop(shutdownCtx)
	views.CloseAll()
}

// profileStore is the configured profile backend plus its health checks.
type profileStore struct {
	repo   repositories.ProfileRepository
	checks []repositories.DependencyCheck
	close  func()
}

func newProfileStore(ctx context.Context, logger *zap.Logger, cfg config.Config) (profileStore, error) {
	noop := func() {}
	if base := strings.TrimSpace(cfg.Site.APIBaseURL); base != "" {
		client := profileapi.NewClient(base)
		return profileStore{
			repo: client,
			checks: []repositories.DependencyCheck{{
				Name:    "profileApi",
				Timeout: 2 * time.Second,
				Check: func(ctx context.Context) error {
					_, err := client.GetBySlug(ctx, "healthz")
					if err == nil || errors.Is(err, profileapi.ErrNotFound) {
						return nil
					}
					return err
				},
			}},
			close: noop,
		}, nil
	}

	switch cfg.Store.Driver {
	case config.StoreFirestore:
		provider := pfirestore.NewProvider(cfg.Firestore)
		collection := cfg.Firestore.Collection
		repo, err := firestoreRepo.NewProfileRepository(provider, collection)
		if err != nil {
			_ = provider.Close()
			return profileStore{}, err
		}
		return profileStore{
			repo: repo,
			checks: []repositories.DependencyCheck{{
				Name:    "firestore",
				Timeout: 1500 * time.Millisecond,
				Check: func(ctx context.Context) error {
					client, err := provider.Client(ctx)
					if err != nil {
						return err
					}
					iter := client.Collection(collection).Limit(1).Documents(ctx)
					defer iter.Stop()
					_, err = iter.Next()
					if errors.Is(err, iterator.Done) {
						return nil
					}
					return err
				},
			}},
			close: func() {
				if err := provider.Close(); err != nil {
					logger.Warn("firestore close error", zap.Error(err))
				}
			},
		}, nil
	case config.StorePostgres:
		db, err := sqldb.Open(ctx, sqldb.Config{DSN: cfg.Postgres.DSN})
		if err != nil {
			return profileStore{}, err
		}
		if err := postgresRepo.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return profileStore{}, err
		}
		repo, err := postgresRepo.NewProfileRepository(logger.Named("postgres"), db)
		if err != nil {
			_ = db.Close()
			return profileStore{}, err
		}
		return profileStore{
			repo: repo,
			checks: []repositories.DependencyCheck{{
				Name:    "postgres",
				Timeout: time.Second,
				Check: func(ctx context.Context) error {
					return sqldb.StatusCheck(ctx, db)
				},
			}},
			close: func() {
				if err := db.Close(); err != nil {
					logger.Warn("postgres close error", zap.Error(err))
				}
			},
		}, nil
	default:
		dir := cfg.Store.ProfilesDir
		repo, err := localRepo.NewProfileRepository(dir)
		if err != nil {
			return profileStore{}, err
		}
		return profileStore{
			repo: repo,
			checks: []repositories.DependencyCheck{{
				Name:    "profiles",
				Timeout: 500 * time.Millisecond,
				Check: func(context.Context) error {
					_, err := os.Stat(dir)
					return err
				},
			}},
			close: noop,
		}, nil
	}
}

// newRemoteSource signs storage references when a service account key and
// bucket are configured; otherwise only absolute URLs resolve.
func newRemoteSource(cfg config.Config) (*media.RemoteSource, error) {
	opts := []media.RemoteOption{media.WithURLTTL(cfg.Storage.URLTTL)}
	keyFile := strings.TrimSpace(cfg.Storage.CredentialsFile)
	bucket := strings.TrimSpace(cfg.Storage.MediaBucket)
	if keyFile != "" && bucket != "" {
		signer, err := platformstorage.NewServiceAccountSignerFromFile(keyFile)
		if err != nil {
			return nil, fmt.Errorf("storage signer: %w", err)
		}
		client, err := platformstorage.NewClient(signer)
		if err != nil {
			return nil, fmt.Errorf("storage client: %w", err)
		}
		opts = append(opts, media.WithSigner(client, bucket))
	}
	return media.NewRemoteSource(opts...), nil
}

func newProfileSubscription(ctx context.Context, cfg config.Config) (*pubsub.Subscription, func(), error) {
	name := strings.TrimSpace(cfg.PubSub.Subscription)
	if name == "" {
		return nil, func() {}, nil
	}
	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return client.Subscription(name), func() { _ = client.Close() }, nil
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger, lookup func(string) string) (*secrets.Fetcher, error) {
	project := strings.TrimSpace(lookup("SITE_SECRETS_PROJECT_ID"))
	if project == "" {
		project = strings.TrimSpace(lookup("SITE_FIRESTORE_PROJECT_ID"))
	}
	opts := []secrets.Option{secrets.WithLogger(logger.Named("secrets"))}
	if project != "" {
		opts = append(opts, secrets.WithProject(project))
	}
	if path := strings.TrimSpace(lookup("SITE_SECRET_FALLBACK_FILE")); path != "" {
		opts = append(opts, secrets.WithFallbackFile(path))
	}
	return secrets.NewFetcher(ctx, opts...)
}

// secretCheck treats a missing health-check secret as healthy; only transport and
// permission failures count.
func secretCheck(fetcher *secrets.Fetcher, cfg config.Config) repositories.DependencyCheck {
	const healthRef = "secret://system/healthz"
	return repositories.DependencyCheck{
		Name:    "secretManager",
		Timeout: time.Second,
		Check: func(ctx context.Context) error {
			if cfg.Security.SecretsProjectID == "" {
				return nil
			}
			_, err := fetcher.Resolve(ctx, healthRef)
			if err == nil || status.Code(err) == codes.NotFound {
				return nil
			}
			return err
		},
	}
}

func traceProject(cfg config.Config) string {
	if cfg.Security.SecretsProjectID != "" {
		return cfg.Security.SecretsProjectID
	}
	return cfg.Firestore.ProjectID
}

func storeLabel(cfg config.Config) string {
	if strings.TrimSpace(cfg.Site.APIBaseURL) != "" {
		return "api"
	}
	if cfg.Store.Driver == "" {
		return config.StoreLocal
	}
	return cfg.Store.Driver
}
