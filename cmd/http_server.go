package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kanbanhq/board-management/internal"
	"github.com/kanbanhq/board-management/internal/auth"
	authPostgres "github.com/kanbanhq/board-management/internal/auth/postgres"
	"github.com/kanbanhq/board-management/internal/cache"
	"github.com/kanbanhq/board-management/internal/permission"
	permissionPostgres "github.com/kanbanhq/board-management/internal/permission/postgres"
	"github.com/kanbanhq/board-management/internal/profile"
	profilePostgres "github.com/kanbanhq/board-management/internal/profile/postgres"
	"github.com/kanbanhq/board-management/internal/team"
	teamPostgres "github.com/kanbanhq/board-management/internal/team/postgres"
	"github.com/kanbanhq/board-management/internal/transport/rest"
	"github.com/kanbanhq/board-management/internal/user"
	userPostgres "github.com/kanbanhq/board-management/internal/user/postgres"
	"github.com/kanbanhq/board-management/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *gorm.DB
	Cache  cache.Cache
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up routes: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if sqlDB, err := deps.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				slog.Error("Database close error", "error", err)
			}
		}
		if err := deps.Cache.Close(); err != nil {
			slog.Error("Cache close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) error {
	lg := deps.Logger

	invalidator := permission.NewInvalidator(deps.Cache, lg)

	permissionRepo := permissionPostgres.NewPermissionRepository(deps.DB)
	resolver := permission.NewResolver(permissionRepo, lg)
	aggregate := permission.NewAggregateService(permissionRepo, deps.Cache, lg)
	permissionHandler := permission.NewHandler(aggregate)

	tokenGen := auth.NewJWTTokenGenerator(
		deps.Config.Security.AccessTokenSecret,
		deps.Config.Security.RefreshTokenSecret,
		deps.Config.Security.AccessTokenDuration,
		deps.Config.Security.RefreshTokenDuration,
	)
	blacklist := auth.NewBlacklist(deps.Cache)
	authRepo := authPostgres.NewRepository(deps.DB)
	authService := auth.NewService(authRepo, tokenGen, blacklist, invalidator, deps.Config.Security.BCryptCost, lg)
	contextBuilder := auth.NewContextBuilder(tokenGen, blacklist, deps.Cache, resolver, deps.Config.Security.PermissionCacheTTL, lg)
	authHandler := auth.NewHandler(authService, contextBuilder)

	profileService := profile.NewService(profilePostgres.NewProfileRepository(deps.DB), invalidator, lg)
	profileHandler := profile.NewHandler(profileService)

	teamService := team.NewService(teamPostgres.NewTeamRepository(deps.DB), invalidator, lg)
	teamHandler := team.NewHandler(teamService)

	userService := user.NewService(userPostgres.NewUserRepository(deps.DB), invalidator, deps.Config.Security.BCryptCost, lg)
	userHandler := user.NewHandler(userService)

	sqlDB, err := deps.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql db: %w", err)
	}

	rest.RegisterAllRoutes(deps.Router, sqlDB, deps.Cache, authHandler, userHandler, profileHandler, teamHandler, permissionHandler, lg)
	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	c := initCache(config.Redis)

	return &Dependencies{
		Config: config,
		Logger: logger.L(),
		DB:     db,
		Cache:  c,
		Router: chi.NewRouter(),
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*gorm.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: dbConn.DB}), &gorm.Config{})
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to wrap db connection: %w", err)
	}
	return db, nil
}

// initCache connects to Redis when an address is configured and otherwise
// falls back to the in-process cache, which is only suitable for a single
// instance deployment.
func initCache(cfg internal.RedisConfig) cache.Cache {
	if cfg.Addr == "" {
		slog.Warn("no redis address configured, using in-memory cache")
		return cache.NewMemoryCache()
	}

	c, err := cache.NewRedisCache(cfg)
	if err != nil {
		slog.Error("failed to connect to redis, falling back to in-memory cache", "error", err)
		return cache.NewMemoryCache()
	}
	return c
}
