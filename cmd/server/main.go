// Package main - точка входа для HTTP API сервера Momentum Core.
//
// Сервер отвечает за:
// - Приём пользовательских действий и начисление XP
// - Отдачу прогресса, рейтинга и расписания
// - Создание повторяющихся паттернов тренировок
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/momentum-app/momentum-core/config"
	"github.com/momentum-app/momentum-core/internal/application/command"
	"github.com/momentum-app/momentum-core/internal/application/eventhandler"
	"github.com/momentum-app/momentum-core/internal/application/query"
	"github.com/momentum-app/momentum-core/internal/domain/leaderboard"
	"github.com/momentum-app/momentum-core/internal/domain/shared"
	"github.com/momentum-app/momentum-core/internal/infrastructure/messaging"
	"github.com/momentum-app/momentum-core/internal/infrastructure/persistence/postgres"
	"github.com/momentum-app/momentum-core/internal/infrastructure/persistence/redis"
	httpiface "github.com/momentum-app/momentum-core/internal/interface/http"
	"github.com/momentum-app/momentum-core/internal/interface/http/handlers"
	"github.com/momentum-app/momentum-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	// Создаём корневой контекст с возможностью отмены
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запускаем приложение
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Momentum Core API server",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	appLogger := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  parseLogLevel(cfg.Observability.LogLevel),
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("checking database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var leaderboardCache leaderboard.Cache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			leaderboardCache = redis.NewLeaderboardCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	profileRepo := postgres.NewProfileRepository(dbConn)
	transactionRepo := postgres.NewTransactionRepository(dbConn)
	achievementRepo := postgres.NewAchievementRepository(dbConn)
	statsRepo := postgres.NewStatsRepository(dbConn)
	leaderboardRepo := postgres.NewLeaderboardRepository(dbConn)
	scheduleRepo := postgres.NewScheduleRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	eventBus, err := buildEventBus(redisCache, log)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// Инвалидация кеша рейтинга при начислении XP
	if leaderboardCache != nil {
		xpHandler := eventhandler.NewOnXPAwardedHandler(
			leaderboardCache,
			log,
			eventhandler.DefaultXPAwardedConfig(),
		)
		if err := eventBus.Subscribe(xpHandler.EventType(), xpHandler.Handle); err != nil {
			return fmt.Errorf("failed to subscribe XP handler: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ ОБРАБОТЧИКОВ (CQRS)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing command and query handlers...")
	processActionHandler := command.NewProcessActionHandler(
		profileRepo,
		transactionRepo,
		achievementRepo,
		statsRepo,
		eventBus,
	)
	createPatternHandler := command.NewCreatePatternHandler(scheduleRepo, eventBus)

	getProgressHandler := query.NewGetProgressHandler(profileRepo, transactionRepo, achievementRepo)
	getLeaderboardHandler := query.NewGetLeaderboardHandler(leaderboardRepo, leaderboardCache)
	getScheduleHandler := query.NewGetScheduleHandler(scheduleRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	healthChecker.AddCheck("database", handlers.NewDatabaseCheck(dbConn))
	if redisCache != nil {
		healthChecker.AddCheck("cache", handlers.NewCacheCheck(redisCache))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. ЗАПУСК HTTP СЕРВЕРА
	// ─────────────────────────────────────────────────────────────────────────
	serverConfig := httpiface.DefaultConfig()
	serverConfig.Host = cfg.Server.Host
	serverConfig.Port = cfg.Server.Port
	serverConfig.ReadTimeout = cfg.Server.ReadTimeout
	serverConfig.WriteTimeout = cfg.Server.WriteTimeout
	serverConfig.IdleTimeout = cfg.Server.IdleTimeout
	serverConfig.EnableCORS = cfg.Server.EnableCORS
	serverConfig.AllowedOrigins = cfg.Server.AllowedOrigins
	serverConfig.EnableMetrics = cfg.Observability.MetricsEnabled
	serverConfig.RateLimitPerMinute = cfg.Server.RateLimitPerMinute
	serverConfig.APIKeyHeader = cfg.Server.APIKeyHeader
	serverConfig.APIKeys = cfg.Server.APIKeys

	server := httpiface.NewServer(serverConfig, httpiface.Dependencies{
		ProcessActionHandler:  processActionHandler,
		CreatePatternHandler:  createPatternHandler,
		GetProgressHandler:    getProgressHandler,
		GetLeaderboardHandler: getLeaderboardHandler,
		GetScheduleHandler:    getScheduleHandler,
		Logger:                appLogger,
		HealthChecker:         healthChecker,
	})

	errCh := server.StartAsync()
	log.Info("Momentum Core API server is running", "address", serverConfig.Address())

	// ─────────────────────────────────────────────────────────────────────────
	// 11. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// closableBus объединяет шину событий с закрытием ресурсов.
type closableBus interface {
	shared.EventBus
	Close() error
}

// buildEventBus выбирает Redis-шину при доступном Redis, иначе локальную.
func buildEventBus(redisCache *redis.Cache, log *slog.Logger) (closableBus, error) {
	localConfig := messaging.DefaultInMemoryEventBusConfig()
	localConfig.Logger = log
	localConfig.AsyncMode = true

	if redisCache == nil {
		return messaging.NewInMemoryEventBus(localConfig), nil
	}

	return messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
		Client:         messaging.NewGoRedisClient(redisCache.Client()),
		LocalBusConfig: localConfig,
		Logger:         log,
	})
}

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		// JSON формат для production (лучше для агрегаторов логов)
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		// Текстовый формат для development (лучше читается)
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

// parseLogLevel переводит строковый уровень в уровень pkg/logger.
func parseLogLevel(level string) logger.Level {
	switch level {
	case "debug":
		return logger.LevelDebug
	case "warn":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}
