package app

import (
	"context"
	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/controller"
	"exam_prep_backend/internal/repository"
	"exam_prep_backend/internal/service"
	"exam_prep_backend/pkg/configwatcher"
	"exam_prep_backend/pkg/database"
	"exam_prep_backend/pkg/logger"
	"exam_prep_backend/pkg/monitoring"
	"exam_prep_backend/pkg/security"
	"exam_prep_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user      *repository.UserRepository
	question  *repository.QuestionRepository
	dashboard *repository.DashboardRepository
	test      *repository.TestRecordRepository
}

type services struct {
	question  *service.QuestionService
	analytics *service.AnalyticsService
}

type controllers struct {
	question  *controller.QuestionController
	dashboard *controller.DashboardController
	test      *controller.TestController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:      repository.NewUserRepository(db),
		question:  repository.NewQuestionRepository(db),
		dashboard: repository.NewDashboardRepository(db),
		test:      repository.NewTestRecordRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.question = service.NewQuestionService(repos.question, cfg.Assembly)

	// 多实例部署时必须启用 Redis，进程内锁只能保证单实例串行
	var locker service.UserLocker
	if rdb != nil {
		locker = service.NewRedisLocker(rdb, cfg.Analytics.LockTTL, cfg.Analytics.LockWait)
	} else {
		locker = service.NewLocalLocker()
	}
	s.analytics = service.NewAnalyticsService(repos.user, repos.dashboard, repos.test, locker, cfg.Analytics)

	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.question.UpdateLimits(newCfg.Assembly)
		logger.Log.Info("assembly limits updated", zap.Int("maxQuestions", newCfg.Assembly.MaxQuestions))
	})
	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		question:  controller.NewQuestionController(s.question),
		dashboard: controller.NewDashboardController(s.analytics),
		test:      controller.NewTestController(s.analytics),
		health:    controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// newApp 装配各层，不负责建立连接，测试中直接传入 sqlite
func newApp(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	app.services = app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(app.services, db, rdb)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, repos, cfg)
	return app
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// release 模式默认不自动迁移
	if cfg.ForceMigrate || cfg.Server.Mode != "release" {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := newApp(cfg, db, rdb)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("exam-prep", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	return app
}

func (a *App) watchConfig(ctx context.Context) {
	if a.Config.ConfigDir == "" {
		return
	}
	path := filepath.Join(a.Config.ConfigDir, "config.yaml")
	if _, err := os.Stat(path); err != nil {
		logger.Log.Info("config file not found, hot reload disabled", zap.String("path", path))
		return
	}
	go func() {
		err := configwatcher.WatchConfig(ctx, path, func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	a.watchConfig(ctx)

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Log.Info("Server exiting")
}
