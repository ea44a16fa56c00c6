package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/johnrirwin/marketwire/internal/aggregator"
	"github.com/johnrirwin/marketwire/internal/cache"
	"github.com/johnrirwin/marketwire/internal/config"
	"github.com/johnrirwin/marketwire/internal/database"
	"github.com/johnrirwin/marketwire/internal/feedparse"
	"github.com/johnrirwin/marketwire/internal/httpapi"
	"github.com/johnrirwin/marketwire/internal/logging"
	"github.com/johnrirwin/marketwire/internal/mcp"
	"github.com/johnrirwin/marketwire/internal/models"
	"github.com/johnrirwin/marketwire/internal/orchestrator"
	"github.com/johnrirwin/marketwire/internal/ratelimit"
	"github.com/johnrirwin/marketwire/internal/sources"
)

const shutdownTimeout = 10 * time.Second

// App holds all application dependencies
type App struct {
	Config       *config.Config
	Logger       *logging.Logger
	Cache        cache.Cache
	Registry     *sources.Registry
	Aggregator   *aggregator.Aggregator
	Orchestrator *orchestrator.Orchestrator
	HTTPServer   *httpapi.Server
	MCPServer    *mcp.Server

	db             *database.DB
	feedStore      *database.FeedSourceStore
	refreshLimiter ratelimit.RateLimiter
}

// New creates and initializes a new App instance
func New(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	// Initialize logger
	app.Logger = logging.New(logging.ParseLevel(cfg.Logging.Level))

	// Initialize cache and refresh limiter
	app.Cache = app.initCache()

	// Initialize database when the registry lives in PostgreSQL
	app.initDatabase()

	// Initialize feed registry
	registry, err := sources.NewRegistry(app.loadFeeds())
	if err != nil {
		return nil, err
	}
	app.Registry = registry

	// Initialize fetcher and parser
	var limiter *ratelimit.Limiter
	if cfg.Server.RateLimitDur > 0 {
		limiter = ratelimit.New(cfg.Server.RateLimitDur)
	}
	fetcher := sources.NewHTTPFetcher(limiter, sources.FetcherConfig{
		Timeout:      cfg.Fetch.Timeout,
		MaxRedirects: cfg.Fetch.MaxRedirects,
		UserAgent:    cfg.Fetch.UserAgent,
	})
	parser, err := feedparse.New(cfg.Fetch.Parser, feedparse.DefaultMaxItems)
	if err != nil {
		return nil, err
	}

	// Initialize aggregator
	app.Aggregator = aggregator.New(registry, fetcher, parser, app.Cache, app.Logger,
		aggregator.WithCacheTTL(cfg.Cache.TTL),
		aggregator.WithMaxConcurrency(cfg.Fetch.MaxConcurrency),
	)

	// Initialize news desk
	app.Orchestrator = orchestrator.New(app.Aggregator, app.Cache, app.Logger, orchestrator.Config{
		CategoryDelay: cfg.Orchestrator.CategoryDelay,
		Interval:      cfg.Orchestrator.Interval,
		AutoRefresh:   cfg.Orchestrator.AutoRefresh,
		Throttle:      app.refreshLimiter,
	})

	// Initialize servers
	app.HTTPServer = httpapi.New(app.Aggregator, registry, app.Orchestrator, app.Logger)
	app.MCPServer = mcp.NewServer(app.Aggregator, registry, app.Orchestrator, app.Logger)

	app.Logger.Info("Application initialized", logging.WithFields(map[string]interface{}{
		"feeds":      registry.Len(),
		"categories": len(registry.Categories()),
		"parser":     cfg.Fetch.Parser,
		"cache":      cfg.Cache.Backend,
	}))

	return app, nil
}

// RunHTTP serves the HTTP API and keeps the news desk refreshed until ctx
// is done.
func (a *App) RunHTTP(ctx context.Context) error {
	go a.runDesk(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.HTTPServer.Start(a.Config.Server.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.HTTPServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// RunMCP serves MCP over stdio with the news desk refreshing in the background.
func (a *App) RunMCP(ctx context.Context) error {
	a.Logger.Info("Starting MCP server in stdio mode")
	go a.runDesk(ctx)
	return a.MCPServer.ServeStdio()
}

func (a *App) runDesk(ctx context.Context) {
	if err := a.Orchestrator.Run(ctx); err != nil {
		a.Logger.Error("News desk stopped", logging.WithField("error", err.Error()))
	}
}

// Shutdown releases the cache and database connections.
func (a *App) Shutdown(ctx context.Context) error {
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error("HTTP server shutdown error", logging.WithField("error", err.Error()))
		}
	}

	switch c := a.Cache.(type) {
	case *cache.MemoryCache:
		c.Stop()
	case *cache.RedisCache:
		if err := c.Close(); err != nil {
			a.Logger.Error("Redis close error", logging.WithField("error", err.Error()))
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.Logger.Error("Database close error", logging.WithField("error", err.Error()))
		}
	}

	return nil
}

func (a *App) initCache() cache.Cache {
	cooldown := a.Config.Orchestrator.RefreshCooldown

	switch a.Config.Cache.Backend {
	case "redis":
		a.Logger.Info("Using Redis cache backend", logging.WithField("addr", a.Config.Cache.RedisAddr))
		redisCache, err := cache.NewRedis(cache.RedisConfig{
			Addr:     a.Config.Cache.RedisAddr,
			Password: a.Config.Cache.RedisPassword,
			DB:       a.Config.Cache.RedisDB,
			Prefix:   cache.DefaultPrefix,
		}, a.Config.Cache.TTL)
		if err != nil {
			a.Logger.Error("Failed to connect to Redis, falling back to memory cache", logging.WithField("error", err.Error()))
			a.refreshLimiter = ratelimit.New(cooldown)
			return cache.NewMemory(a.Config.Cache.TTL)
		}
		// Use Redis for distributed rate limiting when available
		a.refreshLimiter = ratelimit.NewRedis(redisCache.Client(), cache.DefaultPrefix+"ratelimit:refresh:", cooldown)
		a.Logger.Info("Using Redis for distributed rate limiting")
		return redisCache
	default:
		a.Logger.Info("Using in-memory cache backend")
		a.refreshLimiter = ratelimit.New(cooldown)
		return cache.NewMemory(a.Config.Cache.TTL)
	}
}

func (a *App) initDatabase() {
	if a.Config.Feeds.Source != config.FeedsSourcePostgres {
		return
	}

	dbConfig := database.DefaultConfig()
	dbConfig.Host = a.Config.Database.Host
	dbConfig.Port = a.Config.Database.Port
	dbConfig.User = a.Config.Database.User
	dbConfig.Password = a.Config.Database.Password
	dbConfig.Database = a.Config.Database.Database
	dbConfig.SSLMode = a.Config.Database.SSLMode

	db, err := database.New(dbConfig)
	if err != nil {
		a.Logger.Warn("Failed to connect to PostgreSQL, feed registry disabled", logging.WithField("error", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Migrate(ctx); err != nil {
		a.Logger.Warn("Failed to run migrations, feed registry disabled", logging.WithField("error", err.Error()))
		db.Close()
		return
	}

	a.Logger.Info("Connected to PostgreSQL")
	a.db = db
	a.feedStore = database.NewFeedSourceStore(db)
}

// loadFeeds resolves the registry source, falling back to the built-in list
// whenever the configured source is unusable.
func (a *App) loadFeeds() []models.FeedSource {
	switch a.Config.Feeds.Source {
	case config.FeedsSourcePostgres:
		if feeds := a.loadFeedsFromDatabase(); len(feeds) > 0 {
			return feeds
		}
	case config.FeedsSourceFile:
		if feeds := a.loadFeedsFromFile(); len(feeds) > 0 {
			return feeds
		}
	}

	a.Logger.Info("Using default feed sources")
	return sources.DefaultFeeds()
}

func (a *App) loadFeedsFromDatabase() []models.FeedSource {
	if a.feedStore == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	seeded, err := a.feedStore.SeedIfEmpty(ctx, sources.DefaultFeeds())
	if err != nil {
		a.Logger.Warn("Failed to seed feed sources", logging.WithField("error", err.Error()))
		return nil
	}
	if seeded {
		a.Logger.Info("Seeded feed sources with defaults")
	}

	feeds, err := a.feedStore.List(ctx)
	if err != nil {
		a.Logger.Warn("Failed to load feed sources, using defaults", logging.WithField("error", err.Error()))
		return nil
	}

	a.Logger.Info("Loaded feed sources from PostgreSQL", logging.WithField("sources", len(feeds)))
	return feeds
}

func (a *App) loadFeedsFromFile() []models.FeedSource {
	configPath := a.Config.Feeds.ConfigPath
	if configPath == "" {
		configPath = sources.FindFeedsConfig()
	}
	if configPath == "" {
		a.Logger.Info("No feeds file found, using default sources")
		return nil
	}

	feedsConfig, err := sources.LoadFeedsConfig(configPath)
	if err != nil {
		a.Logger.Warn("Failed to load feeds config, using defaults", logging.WithFields(map[string]interface{}{
			"path":  configPath,
			"error": err.Error(),
		}))
		return nil
	}

	a.Logger.Info("Loaded feeds configuration", logging.WithFields(map[string]interface{}{
		"path":    configPath,
		"sources": len(feedsConfig.Feeds),
	}))
	return feedsConfig.Feeds
}
