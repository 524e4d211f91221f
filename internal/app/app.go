package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"lms_client/internal/apiclient"
	"lms_client/internal/config"
	"lms_client/internal/controller"
	"lms_client/internal/page"
	"lms_client/internal/service"
	"lms_client/internal/session"
	"lms_client/internal/theme"
	"lms_client/pkg/configwatcher"
	"lms_client/pkg/database"
	"lms_client/pkg/logger"
	"lms_client/pkg/monitoring"
	"lms_client/pkg/security"
	"lms_client/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

type App struct {
	Config   *config.Config
	API      *apiclient.Client
	Session  *session.Manager
	Theme    *theme.Provider
	Redis    *redis.Client
	Services *Services

	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type Services struct {
	Auth         *service.AuthService
	Courses      *service.CourseService
	Categories   *service.CategoryService
	Lessons      *service.LessonService
	Enrollments  *service.EnrollmentService
	Reviews      *service.ReviewService
	Wishlist     *service.WishlistService
	Certificates *service.CertificateService
	Batches      *service.BatchService
	Analytics    *service.AnalyticsService
	Admin        *service.AdminService
}

type controllers struct {
	health    *controller.HealthController
	auth      *controller.AuthController
	course    *controller.CourseController
	dashboard *controller.DashboardController
	wishlist  *controller.WishlistController
	batch     *controller.BatchController
	theme     *controller.ThemeController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initSessionStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	if cfg.Session.Store != "redis" {
		return session.NewFileStore(cfg.Session.Path), nil
	}
	rdb, err := database.InitRedis(ctx, &cfg.Redis)
	if err != nil {
		return nil, err
	}
	a.Redis = rdb
	return session.NewRedisStore(rdb, cfg.Session.Profile), nil
}

func (a *App) initServices(cfg *config.Config) *Services {
	api := a.API
	return &Services{
		Auth:         service.NewAuthService(api, a.Session),
		Courses:      service.NewCourseService(api),
		Categories:   service.NewCategoryService(api),
		Lessons:      service.NewLessonService(api),
		Enrollments:  service.NewEnrollmentService(api),
		Reviews:      service.NewReviewService(api),
		Wishlist:     service.NewWishlistService(api),
		Certificates: service.NewCertificateService(api, service.NewArtifactSaver(cfg)),
		Batches:      service.NewBatchService(api),
		Analytics:    service.NewAnalyticsService(api),
		Admin:        service.NewAdminService(api),
	}
}

// CourseServices 课程详情页需要的依赖
func (a *App) CourseServices() page.CourseServices {
	s := a.Services
	return page.CourseServices{
		Courses:     s.Courses,
		Lessons:     s.Lessons,
		Reviews:     s.Reviews,
		Enrollments: s.Enrollments,
		Session:     a.Session,
	}
}

func (a *App) StudentServices() page.StudentServices {
	s := a.Services
	return page.StudentServices{
		Enrollments:  s.Enrollments,
		Certificates: s.Certificates,
		Wishlist:     s.Wishlist,
		Analytics:    s.Analytics,
	}
}

func (a *App) TeacherServices() page.TeacherServices {
	return page.TeacherServices{Courses: a.Services.Courses, Analytics: a.Services.Analytics}
}

func (a *App) AdminServices() page.AdminServices {
	return page.AdminServices{Admin: a.Services.Admin}
}

func (a *App) initControllers() *controllers {
	s := a.Services
	return &controllers{
		health:    controller.NewHealthController(a.API, a.Session),
		auth:      controller.NewAuthController(s.Auth),
		course:    controller.NewCourseController(a.CourseServices(), s.Categories),
		dashboard: controller.NewDashboardController(a.StudentServices(), a.TeacherServices(), a.AdminServices()),
		wishlist:  controller.NewWishlistController(s.Wishlist),
		batch:     controller.NewBatchController(s.Batches),
		theme:     controller.NewThemeController(a.Theme),
	}
}

// NewApp 组装客户端：日志、会话、API 客户端、各业务服务和主题
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Debug("Logger initialized", zap.String("config", cfg.ConfigFile))

	monitoring.Init()

	app := &App{Config: cfg}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("lms-client", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
		} else {
			app.tracer = tp
		}
	}

	store, err := app.initSessionStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init session store: %w", err)
	}
	app.Session = session.NewManager(store)
	if err := app.Session.Init(ctx); err != nil {
		// 会话损坏按未登录处理
		logger.Log.Warn("Failed to restore session", zap.Error(err))
	}

	app.API = apiclient.New(cfg.API.BaseURL,
		apiclient.WithTokenSource(app.Session),
		apiclient.WithTimeout(cfg.API.Timeout()),
		apiclient.WithRateLimit(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window()),
		apiclient.WithTracing(app.tracer != nil),
		apiclient.WithLogger(logger.Log),
	)

	app.Services = app.initServices(cfg)
	app.Theme = theme.NewProvider(cfg.Theme.Path, theme.NewFileSystemSource(cfg.Theme.SystemPath))

	return app, nil
}

// Close 释放后台资源，可重复调用
func (a *App) Close() {
	if a.Theme != nil {
		a.Theme.Close()
		a.Theme = nil
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Log.Warn("Failed to close redis", zap.Error(err))
		}
		a.Redis = nil
	}
	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(ctx, a.tracer); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
		a.tracer = nil
	}
	_ = logger.Log.Sync()
}

func (a *App) setupMiddlewares(ctx context.Context, router *gin.Engine, cfg *config.Config) {
	router.Use(gin.Recovery())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(ctx, 600, time.Minute))

	if a.tracer != nil {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// Router 构建视图服务的路由
func (a *App) Router(ctx context.Context) *gin.Engine {
	if a.Config.Server.Mode != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	a.setupMiddlewares(ctx, router, a.Config)
	a.registerRoutes(router, a.initControllers())

	if a.Config.Storage.Type == "local" {
		router.Static("/certificates", a.Config.Storage.LocalPath)
	}
	return router
}

// Serve 启动视图服务，ctx 结束后优雅退出
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort(a.Config.Server.Host, a.Config.Server.Port),
		Handler:           a.Router(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if a.Config.ConfigFile != "" {
		a.RegisterConfigCallback(func(cfg *config.Config) {
			if cfg.API.BaseURL != a.Config.API.BaseURL {
				logger.Log.Warn("api.base_url changed, restart to apply", zap.String("base_url", cfg.API.BaseURL))
			}
			a.Config.Server.Mode = cfg.Server.Mode
		})
		err := configwatcher.Watch(ctx, a.Config.ConfigFile, func(cfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(cfg)
			}
		})
		if err != nil {
			logger.Log.Warn("Config hot reload disabled", zap.Error(err))
		}
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("View server running", zap.String("addr", srv.Addr), zap.String("api", a.API.BaseURL()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Log.Info("Shutting down view server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Log.Info("View server exiting")
	return nil
}
