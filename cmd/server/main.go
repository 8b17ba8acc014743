package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/theAAcoderr/agrimodelbackend/config"
	"github.com/theAAcoderr/agrimodelbackend/internal/api/handler"
	"github.com/theAAcoderr/agrimodelbackend/internal/api/middleware"
	"github.com/theAAcoderr/agrimodelbackend/internal/api/router"
	"github.com/theAAcoderr/agrimodelbackend/internal/authz"
	"github.com/theAAcoderr/agrimodelbackend/internal/repository"
	"github.com/theAAcoderr/agrimodelbackend/internal/service"
	"github.com/theAAcoderr/agrimodelbackend/pkg/cache"
	"github.com/theAAcoderr/agrimodelbackend/pkg/database"
	"github.com/theAAcoderr/agrimodelbackend/pkg/jwt"
	applogger "github.com/theAAcoderr/agrimodelbackend/pkg/logger"
	"github.com/theAAcoderr/agrimodelbackend/pkg/metrics"
	"github.com/theAAcoderr/agrimodelbackend/pkg/redis"
	"github.com/theAAcoderr/agrimodelbackend/pkg/storage"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("AGRI_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log, cfg.Server.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("env", cfg.Server.Env),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 错误上报（DSN 为空时跳过）
	if cfg.Sentry.DSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
			AttachStacktrace: true,
		})
		if err != nil {
			logger.Warn("Sentry 初始化失败，错误上报不可用", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// 4. 连接数据库并执行迁移
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	// AGRI_MIGRATE_DOWN=N 仅回退 N 个版本后退出，不启动服务
	if v := os.Getenv("AGRI_MIGRATE_DOWN"); v != "" {
		steps, err := strconv.Atoi(v)
		if err != nil {
			logger.Fatal("AGRI_MIGRATE_DOWN 必须为整数", zap.String("value", v))
		}
		if err := database.RollbackMigrations(sqlDB, steps, logger); err != nil {
			logger.Fatal("回退迁移失败", zap.Error(err))
		}
		return
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 5. 连接 Redis（可选：失败时限流放行、缓存退回内存）
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，限流与分布式缓存将不可用", zap.Error(err))
			rdb = nil
		}
	}

	// 6. 缓存
	var appCache cache.Cache = cache.NewMemoryCache()
	if cfg.Cache.Driver == "redis" {
		if rdb != nil {
			appCache = cache.NewRedisCache(rdb)
		} else {
			logger.Warn("cache.driver=redis 但 Redis 不可用，使用内存缓存")
		}
	}

	// 7. 对象存储
	var blob storage.BlobStore = storage.DisabledStore{}
	if cfg.Storage.Driver == "s3" {
		s3Store, err := storage.NewS3Store(context.Background(), &cfg.Storage)
		if err != nil {
			logger.Warn("对象存储初始化失败，上传将使用本地占位", zap.Error(err))
		} else {
			blob = s3Store
			logger.Info("对象存储已启用", zap.String("bucket", s3Store.Bucket()))
		}
	}

	// 8. 授权策略与指标
	az, err := authz.NewAuthorizer(logger)
	if err != nil {
		logger.Fatal("加载授权策略失败", zap.Error(err))
	}
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// 9. 依赖注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, az, blob, appCache, m, logger)

	var (
		limiter     middleware.RateLimiter
		redisPinger handler.Pinger
	)
	if rdb != nil {
		limiter = rdb
		redisPinger = rdb
	}
	h := handler.NewHandler(svc, handler.NewHealthHandler(repo, redisPinger), cfg.Server.IsProduction())

	// 10. 初始化路由
	engine := router.Setup(cfg, h, router.Deps{
		JWT:     jwtMgr,
		Users:   repo.User,
		Limiter: limiter,
		Metrics: m,
		Logger:  logger,
	})

	// 11. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 12. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	sqlDB.Close()
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
