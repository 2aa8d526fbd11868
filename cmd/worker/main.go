// Package main - точка входа для фоновых процессов (Worker) Momentum Core.
//
// Worker отвечает за периодические задачи:
// - Пересчёт кешированного рейтинга по всем метрикам
// - Инвалидация кеша при начислении XP на других инстансах
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/momentum-app/momentum-core/config"
	"github.com/momentum-app/momentum-core/internal/application/eventhandler"
	"github.com/momentum-app/momentum-core/internal/infrastructure/messaging"
	"github.com/momentum-app/momentum-core/internal/infrastructure/persistence/postgres"
	"github.com/momentum-app/momentum-core/internal/infrastructure/persistence/redis"
	"github.com/momentum-app/momentum-core/internal/infrastructure/scheduler"
	"github.com/momentum-app/momentum-core/internal/infrastructure/scheduler/jobs"
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
	log.Info("starting Momentum Core Worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

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
	// 4. ЗАПУСК МИГРАЦИЙ (Worker также должен иметь актуальную схему)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("checking database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS
	// ─────────────────────────────────────────────────────────────────────────
	// Без Redis worker бесполезен: единственная его задача - поддерживать
	// кеш рейтинга. Падаем сразу, а не молча крутимся вхолостую.
	if cfg.Redis.Disabled {
		return fmt.Errorf("worker requires Redis (REDIS_DISABLED must be false)")
	}

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

	redisCache, err := redis.NewCache(redisCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisCache.Close()
	leaderboardCache := redis.NewLeaderboardCache(redisCache)
	log.Info("Redis connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	leaderboardRepo := postgres.NewLeaderboardRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	localBusConfig := messaging.DefaultInMemoryEventBusConfig()
	localBusConfig.Logger = log
	localBusConfig.AsyncMode = true

	eventBus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
		Client:         messaging.NewGoRedisClient(redisCache.Client()),
		LocalBusConfig: localBusConfig,
		Logger:         log,
	})
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// Инвалидация кеша рейтинга при начислении XP на API-инстансах
	xpHandler := eventhandler.NewOnXPAwardedHandler(
		leaderboardCache,
		log,
		eventhandler.DefaultXPAwardedConfig(),
	)
	if err := eventBus.Subscribe(xpHandler.EventType(), xpHandler.Handle); err != nil {
		return fmt.Errorf("failed to subscribe XP handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ SCHEDULER И JOBS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing scheduler...")
	rebuildConfig := jobs.DefaultRebuildLeaderboardConfig()
	rebuildConfig.TopN = cfg.Scheduler.LeaderboardTopN
	rebuildConfig.CacheTTL = cfg.Scheduler.LeaderboardCacheTTL
	rebuildConfig.Timeout = cfg.Scheduler.JobTimeout

	rebuildJob := jobs.NewRebuildLeaderboardJob(
		leaderboardRepo,
		leaderboardCache,
		eventBus,
		log,
		rebuildConfig,
	)

	// Расписание задаётся либо cron-выражением, либо фиксированным интервалом.
	var rebuildSchedule scheduler.Schedule = scheduler.NewIntervalSchedule(cfg.Scheduler.RebuildLeaderboardInterval)
	if expr := cfg.Scheduler.RebuildLeaderboardCron; expr != "" {
		rebuildSchedule, err = scheduler.ParseSchedule(expr)
		if err != nil {
			return fmt.Errorf("invalid leaderboard rebuild schedule %q: %w", expr, err)
		}
	}

	var stopScheduler func()
	if !cfg.Scheduler.Enabled {
		log.Warn("scheduler is disabled, worker will only process events")
	} else {
		schedConfig := scheduler.DefaultSchedulerConfig()
		schedConfig.Logger = log

		sched := scheduler.NewScheduler(schedConfig)
		if err := sched.Register(rebuildJob, rebuildSchedule); err != nil {
			return fmt.Errorf("failed to register rebuild job: %w", err)
		}
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		stopScheduler = func() {
			if err := sched.Stop(); err != nil {
				log.Warn("scheduler stop failed", "error", err)
			}
		}
		log.Info("scheduler started",
			"rebuild_schedule", rebuildSchedule.String(),
		)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("Momentum Core Worker is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	if stopScheduler != nil {
		stopScheduler()
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

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
