package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"reading_eval_backend/internal/config"
	"reading_eval_backend/internal/controller"
	"reading_eval_backend/internal/repository"
	"reading_eval_backend/internal/service"
	"reading_eval_backend/pkg/configwatcher"
	"reading_eval_backend/pkg/database"
	"reading_eval_backend/pkg/locker"
	"reading_eval_backend/pkg/logger"
	"reading_eval_backend/pkg/monitoring"
	"reading_eval_backend/pkg/security"
	"reading_eval_backend/pkg/tracing"
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
	tracerProvider  *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
	stopWatcher     context.CancelFunc
}

type repositories struct {
	session    *repository.SessionRepository
	attempt    *repository.AttemptRepository
	accessCode *repository.AccessCodeRepository
	answer     *repository.AnswerRepository
	content    *repository.ContentRepository
	directory  *repository.DirectoryRepository
}

type services struct {
	policy     *service.PolicyStore
	storage    *service.StorageService
	issuer     *service.CodeIssuer
	accessCode *service.AccessCodeService
	attempt    *service.AttemptService
	session    *service.SessionService
}

type controllers struct {
	evaluation *controller.EvaluationController
	session    *controller.SessionController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		session:    repository.NewSessionRepository(db),
		attempt:    repository.NewAttemptRepository(db),
		accessCode: repository.NewAccessCodeRepository(db),
		answer:     repository.NewAnswerRepository(db),
		content:    repository.NewContentRepository(db),
		directory:  repository.NewDirectoryRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.policy = service.NewPolicyStore(service.PolicyFromConfig(cfg.Evaluation))
	s.storage = service.NewStorageService(cfg)
	s.issuer = service.NewCodeIssuer(repos.accessCode, cfg.Evaluation.CodeSecret)

	// 未启用 Redis 时提交锁退化为空操作，唯一键 upsert 仍保证不产生重复行
	var lock locker.Locker = locker.Noop{}
	if rdb != nil {
		lock = locker.NewRedisLocker(rdb)
	}

	s.accessCode = service.NewAccessCodeService(
		repos.accessCode,
		repos.attempt,
		repos.session,
		repos.content,
		s.issuer,
		s.policy,
		cfg.Evaluation.CodeSecret,
	)
	s.attempt = service.NewAttemptService(
		repos.attempt,
		repos.session,
		repos.answer,
		repos.content,
		lock,
		s.policy,
	)
	s.session = service.NewSessionService(
		repos.session,
		repos.attempt,
		repos.accessCode,
		repos.content,
		repos.directory,
		s.issuer,
		s.storage,
		s.policy,
	)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		evaluation: controller.NewEvaluationController(s.accessCode, s.attempt),
		session:    controller.NewSessionController(s.session, s.accessCode),
		health:     controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(logger.GinMiddleware())
	router.Use(gin.Recovery())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startConfigWatcher 配置文件变化时刷新评测策略；访问码密钥不参与热更新
func (a *App) startConfigWatcher() {
	if a.Config.ConfigFile == "" {
		return
	}

	a.RegisterConfigCallback(func(newCfg *config.Config) {
		a.services.policy.Store(service.PolicyFromConfig(newCfg.Evaluation))
		logger.Log.Info("Evaluation policy reloaded",
			zap.Bool("allowResubmission", newCfg.Evaluation.AllowResubmission),
			zap.Bool("enforceDeadline", newCfg.Evaluation.EnforceDeadline),
			zap.Bool("closeRevokesAccess", newCfg.Evaluation.CloseRevokesAccess))
	})

	ctx, cancel := context.WithCancel(context.Background())
	a.stopWatcher = cancel
	go func() {
		err := configwatcher.WatchConfig(ctx, a.Config.ConfigFile, func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if cfg.Server.Mode != gin.ReleaseMode || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
		app.Redis = rdb
	}

	repos := app.initRepositories(db)
	app.services = app.initServices(repos, cfg, app.Redis)
	controllers := app.initControllers(app.services, db, app.Redis)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("reading-eval", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracerProvider = tp
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startConfigWatcher()

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	if a.stopWatcher != nil {
		a.stopWatcher()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
