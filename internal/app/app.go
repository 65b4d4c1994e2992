package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"party_games_backend/internal/config"
	"party_games_backend/internal/controller"
	"party_games_backend/internal/repository"
	"party_games_backend/internal/service"
	"party_games_backend/internal/util"
	"party_games_backend/pkg/database"
	"party_games_backend/pkg/logger"
	"party_games_backend/pkg/monitoring"
	"party_games_backend/pkg/security"
	"party_games_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
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
	user     *repository.UserRepository
	otp      *repository.OTPRepository
	event    *repository.EventRepository
	game     *repository.GameRepository
	level    *repository.LevelRepository
	progress *repository.ProgressRepository
	media    *repository.MediaRepository
}

type services struct {
	auth        *service.AuthService
	event       *service.EventService
	game        *service.GameService
	level       *service.LevelService
	progress    *service.ProgressService
	leaderboard *service.LeaderboardService
	media       *service.MediaService
}

type controllers struct {
	auth        *controller.AuthController
	event       *controller.EventController
	game        *controller.GameController
	level       *controller.LevelController
	progress    *controller.ProgressController
	leaderboard *controller.LeaderboardController
	media       *controller.MediaController
	health      *controller.HealthController
}

// RegisterConfigCallback 配置文件变更后依次调用
func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 供 configwatcher 调用
func (a *App) ApplyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		otp:      repository.NewOTPRepository(db),
		event:    repository.NewEventRepository(db),
		game:     repository.NewGameRepository(db),
		level:    repository.NewLevelRepository(db),
		progress: repository.NewProgressRepository(db),
		media:    repository.NewMediaRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}
	clock := service.SystemClock{}

	s.leaderboard = service.NewLeaderboardService(repos.progress, repos.level, repos.event, repos.user,
		cfg.Leaderboard.DefaultLimit, cfg.Leaderboard.MaxLimit)
	s.auth = service.NewAuthService(repos.user, repos.otp, rdb, service.NewSMSSender(&cfg.SMS), cfg, clock)
	s.event = service.NewEventService(repos.event, s.leaderboard)
	s.game = service.NewGameService(repos.game)
	s.level = service.NewLevelService(repos.level, repos.event, repos.game, repos.progress)
	s.progress = service.NewProgressService(repos.progress, repos.level, repos.event, clock)
	s.media = service.NewMediaService(repos.media, repos.event, repos.level,
		service.NewObjectStore(&cfg.Storage), cfg.Storage.MaxUploadMB)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth),
		event:       controller.NewEventController(s.event),
		game:        controller.NewGameController(s.game),
		level:       controller.NewLevelController(s.level),
		progress:    controller.NewProgressController(s.progress),
		leaderboard: controller.NewLeaderboardController(s.leaderboard),
		media:       controller.NewMediaController(s.media),
		health:      controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func gormLogLevel(mode string) gormlogger.LogLevel {
	if mode == gin.DebugMode {
		return gormlogger.Info
	}
	return gormlogger.Warn
}

// NewApp 初始化依赖，Redis 与追踪为可选组件
func NewApp(cfg *config.Config) (*App, error) {
	gin.SetMode(cfg.Server.Mode)

	db, err := database.InitDB(&cfg.Database, gormLogLevel(cfg.Server.Mode))
	if err != nil {
		return nil, err
	}
	if cfg.ForceMigrate || cfg.Server.Mode != gin.ReleaseMode {
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
	}

	app := &App{Config: cfg, DB: db}
	if cfg.MigrateOnly {
		return app, nil
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Warn("Redis unavailable, OTP cooldown disabled", zap.Error(err))
		rdb = nil
	}
	app.Redis = rdb

	if util.FFmpegAvailable() {
		logger.Log.Info("ffmpeg found, video thumbnails enabled")
	} else {
		logger.Log.Info("ffmpeg not found, video thumbnails disabled")
	}

	repos := app.initRepositories(db)
	app.services = app.initServices(repos, cfg, rdb)
	ctrls := app.initControllers(app.services, db, rdb)

	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("party-games-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
		} else {
			app.tracer = tp
		}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router
	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, ctrls, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.RegisterConfigCallback(func(newCfg *config.Config) {
		logger.ApplyMode(newCfg.Server.Mode)
	})
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		app.services.leaderboard.SetLimits(newCfg.Leaderboard.DefaultLimit, newCfg.Leaderboard.MaxLimit)
	})

	return app, nil
}

// Run 阻塞直到收到退出信号，随后优雅关闭
func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	a.Close(ctx)

	logger.Log.Info("Server exiting")
}

// Close 释放数据库、Redis 与追踪资源
func (a *App) Close(ctx context.Context) {
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}
