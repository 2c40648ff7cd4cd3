package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsclient "github.com/cyphera/cyphera-agent/internal/client/aws"
	"github.com/cyphera/cyphera-agent/internal/client/coinmarketcap"
	dsClient "github.com/cyphera/cyphera-agent/internal/client/delegation_server"
	"github.com/cyphera/cyphera-agent/internal/client/email"
	"github.com/cyphera/cyphera-agent/internal/client/liquidity/oneinch"
	"github.com/cyphera/cyphera-agent/internal/client/liquidity/uniswapv3"
	"github.com/cyphera/cyphera-agent/internal/client/liquidity/zeroex"
	"github.com/cyphera/cyphera-agent/internal/config"
	"github.com/cyphera/cyphera-agent/internal/constants"
	"github.com/cyphera/cyphera-agent/internal/db"
	"github.com/cyphera/cyphera-agent/internal/handlers"
	"github.com/cyphera/cyphera-agent/internal/interfaces"
	"github.com/cyphera/cyphera-agent/internal/logger"
	"github.com/cyphera/cyphera-agent/internal/metrics"
	"github.com/cyphera/cyphera-agent/internal/middleware"
	"github.com/cyphera/cyphera-agent/internal/registry"
	"github.com/cyphera/cyphera-agent/internal/services"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	metricsNamespace    = "cyphera_agent"
	activitySinkTimeout = 5 * time.Second
)

// Handler Definitions
var (
	grantHandler      *handlers.GrantHandler
	redemptionHandler *handlers.RedemptionHandler
	networkHandler    *handlers.NetworkHandler
	healthHandler     *handlers.HealthHandler

	authenticator *middleware.Authenticator
	rateLimiter   *middleware.RateLimiter
	appMetrics    *metrics.Metrics

	// Background workers and connections released by Shutdown
	delegationClient *dsClient.DelegationClient
	reconciler       *services.Reconciler
	activityService  *services.ActivityService
	dbPool           *pgxpool.Pool
	redisClient      *redis.Client
	rpcClients       []*ethclient.Client
	stopCleanup      context.CancelFunc
)

// InitializeHandlers loads configuration and builds the service graph.
func InitializeHandlers(ctx context.Context) (err error) {
	timer := logger.NewStructuredLogger(logger.ComponentAPI).NewTimer("initialize services")
	defer func() { timer.StopWithResult(err == nil, err) }()

	secrets, awsCfg, err := newSecretsProvider(ctx)
	if err != nil {
		return err
	}

	cfg, err := config.Load(ctx, secrets)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	appMetrics = metrics.New(metricsNamespace)

	tokens, err := registry.LoadFile(cfg.RegistryFile)
	if err != nil {
		return fmt.Errorf("failed to load network registry %s: %w", cfg.RegistryFile, err)
	}

	store, err := newGrantStore(ctx, cfg)
	if err != nil {
		return err
	}

	budgetStore, err := newBudgetStore(ctx, cfg)
	if err != nil {
		return err
	}

	adapters, err := newAdapterRegistry(ctx, cfg, tokens)
	if err != nil {
		return err
	}

	scopes, err := services.NewScopeResolver(tokens, adapters, services.DefaultPermissionTypes())
	if err != nil {
		return fmt.Errorf("failed to create scope resolver: %w", err)
	}

	grants := services.NewGrantService(store, scopes, tokens)
	ledger := services.NewBudgetLedger(grants, budgetStore, services.WithLedgerMetrics(appMetrics))

	aggregatorOpts := []services.QuoteAggregatorOption{services.WithAggregatorMetrics(appMetrics)}
	if cfg.PriceGuardMaxDeviationBps > 0 {
		prices := coinmarketcap.NewClient(cfg.CMCAPIKey)
		aggregatorOpts = append(aggregatorOpts,
			services.WithPriceGuard(services.NewPriceGuard(prices, tokens, cfg.PriceGuardMaxDeviationBps)))
	}
	aggregator := services.NewQuoteAggregator(adapters, aggregatorOpts...)

	delegationClient, err = dsClient.NewDelegationClient(dsClient.DelegationClientConfig{
		DelegationGRPCAddr: cfg.RelayGRPCAddr,
		RPCTimeout:         cfg.RelayRPCTimeout,
		UseLocalMode:       cfg.RelayLocalMode,
	})
	if err != nil {
		return fmt.Errorf("failed to create delegation client: %w", err)
	}

	sinks, err := newActivitySinks(ctx, cfg, awsCfg)
	if err != nil {
		return err
	}
	activityService = services.NewActivityService(activitySinkTimeout, sinks...)

	reconcilerConfig := services.DefaultReconcilerConfig()
	reconcilerConfig.Interval = cfg.ReconcileInterval
	reconcilerOpts := []services.ReconcilerOption{
		services.WithReconcilerConfig(reconcilerConfig),
		services.WithReconcilerMetrics(appMetrics),
	}
	if redisClient != nil {
		reconcilerOpts = append(reconcilerOpts, services.WithPendingExecutionStore(services.NewRedisPendingStore(redisClient)))
	}
	reconciler = services.NewReconciler(delegationClient, ledger, activityService, reconcilerOpts...)
	if err := reconciler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start reconciler: %w", err)
	}

	coordinator := services.NewExecutionCoordinator(grants, scopes, aggregator, ledger, delegationClient, activityService,
		services.WithCoordinatorConfig(services.CoordinatorConfig{
			QuoteDeadline: cfg.QuoteDeadline,
			PollInterval:  cfg.RelayPollInterval,
			MaxPolls:      cfg.RelayMaxPolls,
		}),
		services.WithCoordinatorMetrics(appMetrics),
		services.WithReconciliationQueue(reconciler),
	)

	commonServices := handlers.NewCommonServices(grants, ledger, coordinator, scopes, tokens)

	grantHandler = handlers.NewGrantHandler(commonServices)
	redemptionHandler = handlers.NewRedemptionHandler(commonServices)
	networkHandler = handlers.NewNetworkHandler(commonServices)
	healthHandler = handlers.NewHealthHandler(healthChecks())

	authenticator = middleware.NewAuthenticator(cfg.JWTSecret, os.Getenv("AUTH_JWT_AUDIENCE"))
	rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	var cleanupCtx context.Context
	cleanupCtx, stopCleanup = context.WithCancel(context.Background())
	go rateLimiter.RunCleanup(cleanupCtx)

	logger.Info("Agent services initialized",
		zap.String("stage", cfg.Stage),
		zap.Int("networks", len(tokens.NetworkIDs())),
		zap.Int("sinks", len(sinks)),
		zap.Bool("price_guard", cfg.PriceGuardMaxDeviationBps > 0),
		zap.Bool("persistent_grants", dbPool != nil),
		zap.Bool("shared_budget_store", redisClient != nil),
	)
	return nil
}

// newSecretsProvider returns a Secrets Manager backed provider. In the local
// stage the provider only reads plain environment variables and no AWS config is loaded.
func newSecretsProvider(ctx context.Context) (interfaces.SecretsProvider, *aws.Config, error) {
	if stage := os.Getenv("STAGE"); stage == "" || stage == constants.LocalEnvironment {
		return awsclient.NewSecretsManagerClientWithAPI(nil), nil, nil
	}
	awsCfg, err := awsclient.LoadAWSConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	return awsclient.NewSecretsManagerClient(awsCfg), &awsCfg, nil
}

func newGrantStore(ctx context.Context, cfg *config.Config) (db.Store, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("Using in-memory grant store")
		return db.NewMemoryStore(), nil
	}
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	dbPool = pool
	return db.NewPostgresStore(pool), nil
}

func newBudgetStore(ctx context.Context, cfg *config.Config) (interfaces.BudgetWindowStore, error) {
	if cfg.RedisAddr == "" {
		logger.Warn("Using in-memory budget store, budget windows are not shared across instances")
		return services.NewMemoryBudgetStore(), nil
	}
	client, err := services.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, 0)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}
	redisClient = client
	return services.NewRedisBudgetStore(client), nil
}

// newAdapterRegistry enables every liquidity venue that has what it needs:
// an RPC endpoint for Uniswap V3 and an API key for the aggregator APIs.
func newAdapterRegistry(ctx context.Context, cfg *config.Config, tokens *registry.NetworkTokenRegistry) (*registry.AdapterRegistry, error) {
	adapters := registry.NewAdapterRegistry()

	callers := make(map[business.NetworkID]uniswapv3.ContractCaller)
	for networkID := range tokens.SourceRouters(uniswapv3.SourceID) {
		network, err := tokens.Network(networkID)
		if err != nil {
			return nil, err
		}
		if network.RPCURL == "" {
			logger.Warn("No RPC URL for network, skipping uniswap_v3", zap.Uint64("network_id", uint64(networkID)))
			continue
		}
		client, err := ethclient.DialContext(ctx, network.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("failed to dial RPC for network %d: %w", networkID, err)
		}
		rpcClients = append(rpcClients, client)
		callers[networkID] = client
	}
	if len(callers) > 0 {
		adapter, err := uniswapv3.NewAdapter(tokens, callers)
		if err != nil {
			return nil, fmt.Errorf("failed to create uniswap_v3 adapter: %w", err)
		}
		if err := adapters.Register(adapter); err != nil {
			return nil, err
		}
	}

	if cfg.ZeroExAPIKey != "" {
		adapter, err := zeroex.NewAdapter(tokens, cfg.ZeroExAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create zeroex adapter: %w", err)
		}
		if err := adapters.Register(adapter); err != nil {
			return nil, err
		}
	}

	if cfg.OneInchAPIKey != "" {
		adapter, err := oneinch.NewAdapter(tokens, cfg.OneInchAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create oneinch adapter: %w", err)
		}
		if err := adapters.Register(adapter); err != nil {
			return nil, err
		}
	}
	return adapters, nil
}

func newActivitySinks(ctx context.Context, cfg *config.Config, awsCfg *aws.Config) ([]interfaces.ActivitySink, error) {
	sinks := []interfaces.ActivitySink{services.NewLogSink()}

	if cfg.ActivityQueueURL != "" {
		if awsCfg == nil {
			loaded, err := awsclient.LoadAWSConfig(ctx)
			if err != nil {
				return nil, err
			}
			awsCfg = &loaded
		}
		sinks = append(sinks, awsclient.NewActivityQueue(*awsCfg, cfg.ActivityQueueURL))
	}

	if cfg.ResendAPIKey != "" && len(cfg.AlertEmailTo) > 0 {
		sinks = append(sinks, email.NewFailureAlertSink(cfg.ResendAPIKey, cfg.AlertEmailFrom, cfg.AlertEmailTo))
	}
	return sinks, nil
}

func healthChecks() map[string]handlers.HealthCheckFunc {
	checks := map[string]handlers.HealthCheckFunc{
		"relay": delegationClient.HealthCheck,
	}
	if dbPool != nil {
		checks["database"] = dbPool.Ping
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}

func InitializeRoutes(router *gin.Engine) {
	router.Use(middleware.CorrelationIDMiddleware())
	router.Use(middleware.RequestLoggingMiddleware(appMetrics))

	// Configure and apply CORS middleware
	router.Use(configureCORS())

	// Health check and metrics
	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(appMetrics.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Public registry routes
		v1.GET("/networks", networkHandler.ListNetworks)
		v1.GET("/networks/:chain_id", networkHandler.GetNetwork)
		v1.GET("/scopes", networkHandler.GetScope)

		// Protected routes (caller token required)
		protected := v1.Group("/")
		protected.Use(authenticator.RequireCaller(), rateLimiter.Middleware())
		{
			grants := protected.Group("/grants")
			{
				grants.POST("", grantHandler.CreateGrant)
				grants.GET("", grantHandler.ListGrants)
				grants.GET("/:grant_id", grantHandler.GetGrant)
				grants.PATCH("/:grant_id", grantHandler.AdjustGrant)
				grants.POST("/:grant_id/activate", grantHandler.ActivateGrant)
				grants.POST("/:grant_id/revoke", grantHandler.RevokeGrant)

				// Redemption
				grants.POST("/:grant_id/redeem", redemptionHandler.Redeem)
				grants.GET("/:grant_id/budget", redemptionHandler.GetRemainingBudget)
			}
		}
	}
}

// Shutdown stops background workers and closes connections.
func Shutdown(ctx context.Context) {
	if stopCleanup != nil {
		stopCleanup()
	}
	if reconciler != nil {
		reconciler.Stop()
	}
	if activityService != nil {
		done := make(chan struct{})
		go func() {
			activityService.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			logger.Warn("Timed out waiting for activity sinks")
		}
	}
	if delegationClient != nil {
		if err := delegationClient.Close(); err != nil {
			logger.Error("Failed to close delegation client", zap.Error(err))
		}
	}
	for _, client := range rpcClients {
		client.Close()
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Failed to close redis client", zap.Error(err))
		}
	}
	if dbPool != nil {
		dbPool.Close()
	}
}

// configureCORS returns a configured CORS middleware
func configureCORS() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()

	// Get allowed origins from environment variable
	originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	if originsEnv == "" {
		// Default to localhost if not set
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	} else {
		corsConfig.AllowOrigins = splitAndTrim(originsEnv)
	}

	methodsEnv := os.Getenv("CORS_ALLOWED_METHODS")
	if methodsEnv == "" {
		corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions}
	} else {
		corsConfig.AllowMethods = splitAndTrim(methodsEnv)
	}

	headersEnv := os.Getenv("CORS_ALLOWED_HEADERS")
	if headersEnv == "" {
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.CorrelationIDHeader}
	} else {
		corsConfig.AllowHeaders = splitAndTrim(headersEnv)
	}

	exposedHeadersEnv := os.Getenv("CORS_EXPOSED_HEADERS")
	if exposedHeadersEnv == "" {
		corsConfig.ExposeHeaders = []string{middleware.CorrelationIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"}
	} else {
		corsConfig.ExposeHeaders = splitAndTrim(exposedHeadersEnv)
	}

	// Set credentials allowed
	corsConfig.AllowCredentials = os.Getenv("CORS_ALLOW_CREDENTIALS") == "true"

	return cors.New(corsConfig)
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
