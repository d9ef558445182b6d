package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/retailgenie/orchestrator/api/routes"
	"github.com/retailgenie/orchestrator/internal/accounts"
	"github.com/retailgenie/orchestrator/internal/catalog"
	"github.com/retailgenie/orchestrator/internal/chat"
	"github.com/retailgenie/orchestrator/internal/location"
	"github.com/retailgenie/orchestrator/internal/postpurchase"
	"github.com/retailgenie/orchestrator/internal/recommender"
	"github.com/retailgenie/orchestrator/internal/sessions"
	"github.com/retailgenie/orchestrator/pkg/config"
	"github.com/retailgenie/orchestrator/pkg/logger"
	"github.com/retailgenie/orchestrator/pkg/metrics"
	redisclient "github.com/retailgenie/orchestrator/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "orchestrator"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "orchestrator",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	cat, err := catalog.Load(
		filepath.Join(cfg.Data.Dir, cfg.Data.InventoryFile),
		filepath.Join(cfg.Data.Dir, cfg.Data.ProductsFile),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to load catalog", err)
		os.Exit(1)
	}

	engine, err := location.NewEngine(cat, cfg.Location.DefaultRadiusKm)
	if err != nil {
		logg.Error(context.Background(), "failed to build location engine", err)
		os.Exit(1)
	}

	gateway, err := recommender.NewGateway(cfg.Recommender.URL,
		recommender.WithTimeout(cfg.Recommender.Timeout),
		recommender.WithDefaultLimit(cfg.Recommender.DefaultLimit),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to build recommender gateway", err)
		os.Exit(1)
	}

	var redisClient *redisclient.Client
	if cfg.Sessions.UseRedis() || cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redisclient.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	}

	var sessionRepo sessions.Repository
	if cfg.Sessions.UseRedis() {
		sessionRepo, err = sessions.NewRedisRepository(redisClient, cfg.Sessions.TTL, cfg.Sessions.HistoryLimit)
		if err != nil {
			logg.Error(context.Background(), "failed to build session repository", err)
			os.Exit(1)
		}
	} else {
		sessionRepo = sessions.NewMemoryRepository(cfg.Sessions.HistoryLimit)
	}

	tokenManager, err := newTokenManager(redisClient, cfg)
	if err != nil {
		logg.Error(context.Background(), "failed to build token manager", err)
		os.Exit(1)
	}

	accountRepo, err := accounts.NewFileRepository(filepath.Join(cfg.Data.Dir, cfg.Data.UsersFile))
	if err != nil {
		logg.Error(context.Background(), "failed to open users store", err)
		os.Exit(1)
	}

	accountService, err := accounts.NewService(accounts.ServiceParams{
		Repo:            accountRepo,
		Tokens:          tokenManager,
		JWT:             cfg.JWT,
		Password:        cfg.Password,
		DefaultRadiusKm: cfg.Location.DefaultRadiusKm,
		Logger:          logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create account service", err)
		os.Exit(1)
	}

	orderRepo, err := postpurchase.NewFileRepository(postpurchase.RepositoryPaths{
		Orders:    filepath.Join(cfg.Data.Dir, cfg.Data.OrdersFile),
		Shipments: filepath.Join(cfg.Data.Dir, cfg.Data.ShipmentsFile),
		Feedback:  filepath.Join(cfg.Data.Dir, cfg.Data.FeedbackFile),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to open order store", err)
		os.Exit(1)
	}

	postPurchaseService, err := postpurchase.NewService(postpurchase.ServiceParams{
		Repo:    orderRepo,
		Loyalty: accountService,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create post-purchase service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	chatMetrics := metrics.NewChatMetrics(registry)

	chatService, err := chat.NewService(chat.ServiceParams{
		Sessions: sessionRepo,
		Gateway:  gateway,
		Nearby:   engine,
		Profiles: accountService,
		Logger:   logg,
		Metrics:  chatMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create chat service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":           cfg.App.Env,
		"addr":          addr,
		"stores":        len(cat.Stores()),
		"products":      len(cat.Products()),
		"session_store": cfg.Sessions.Backend,
	})
	logg.Info(ctx, "starting orchestrator server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:         cfg,
			Logger:         logg,
			Redis:          redisClient,
			SessionChecker: tokenManager,
			ChatService:    chatService,
			AccountService: accountService,
			PostPurchase:   postPurchaseService,
			LocationEngine: engine,
			Metrics:        registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "orchestrator server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// newTokenManager backs refresh sessions with Redis when available and an
// in-process store otherwise.
func newTokenManager(redisClient *redisclient.Client, cfg *config.Config) (*accounts.TokenManager, error) {
	if redisClient != nil {
		return accounts.NewTokenManager(redisClient, cfg.JWT)
	}
	return accounts.NewTokenManager(accounts.NewMemoryTokenStore(), cfg.JWT)
}
