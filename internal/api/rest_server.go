package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/annel0/voxel-planets/internal/auth"
	"github.com/annel0/voxel-planets/internal/game"
	"github.com/annel0/voxel-planets/internal/logging"
	"github.com/annel0/voxel-planets/internal/metrics"
	"github.com/annel0/voxel-planets/internal/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RestServer - HTTP API администрирования планет
type RestServer struct {
	router  *gin.Engine
	server  *http.Server
	session *game.Session
	tokens  *auth.TokenIssuer
	admin   auth.AdminCredentials
	metrics *ServerMetrics
	logger  *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Addr    string                // адрес для запуска сервера
	Session *game.Session         // игровая сессия
	Tokens  *auth.TokenIssuer     // подпись токенов
	Admin   auth.AdminCredentials // учётная запись администратора
	Metrics *metrics.Metrics      // Prometheus метрики (может быть nil)
}

// NewRestServer создает новый REST API сервер
func NewRestServer(cfg Config) *RestServer {
	if cfg.Addr == "" {
		cfg.Addr = ":8088"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("voxel-api"))
	router.Use(middleware.NewRequestLogger().Handler())
	router.Use(middleware.Prometheus(cfg.Metrics))
	router.Use(corsMiddleware())

	rs := &RestServer{
		router:  router,
		session: cfg.Session,
		tokens:  cfg.Tokens,
		admin:   cfg.Admin,
		metrics: NewServerMetrics(),
		logger:  logging.GetComponentLogger("api"),
	}
	rs.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	rs.setupRoutes()
	return rs
}

func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	api.POST("/auth/login", rs.handleLogin)

	// Чтение доступно любому владельцу токена
	protected := api.Group("/")
	protected.Use(rs.jwtMiddleware())
	{
		protected.GET("/server", rs.handleServerInfo)
		protected.GET("/planets", rs.handleListPlanets)
		protected.GET("/planets/current", rs.handleCurrentPlanet)
		protected.GET("/planets/current/export.obj", rs.handleExportOBJ)

		admin := protected.Group("/")
		admin.Use(rs.adminMiddleware())
		{
			admin.POST("/planets", rs.handleCreatePlanet)
			admin.POST("/planets/next", rs.handleNextPlanet)
			admin.POST("/planets/prev", rs.handlePreviousPlanet)
			admin.DELETE("/planets/current", rs.handleDeletePlanet)
			admin.PUT("/planets/current/name", rs.handleRename)
			admin.POST("/planets/current/sell", rs.handleSell)
			admin.POST("/planets/current/save", rs.handleSave)
			admin.POST("/planets/current/spawners/:id/extra", rs.handleBuyExtraSpawn)
		}
	}
}

// Handler возвращает HTTP обработчик API
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// Start запускает HTTP сервер (блокирующий вызов)
func (rs *RestServer) Start() error {
	rs.logger.Info("API администрирования слушает %s", rs.server.Addr)
	if err := rs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop завершает сервер, дожидаясь активных запросов
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.server.Shutdown(ctx)
}
