package httptransport

import (
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"deptinbox/backend/internal/config"
	"deptinbox/backend/internal/health"
	"deptinbox/backend/internal/middleware"
	"deptinbox/backend/internal/monitoring"
	"deptinbox/backend/internal/service"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config        *config.Config
	IntakeService *service.IntakeService
	TriageService *service.TriageService
	AuthService   *service.AuthService
	HealthChecker *health.HealthChecker
	Metrics       *monitoring.Metrics
	Logger        *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()

	var onPanic func()
	if deps.Metrics != nil {
		onPanic = deps.Metrics.RecordPanic
	}
	router.Use(middleware.RecoveryHandler(log, onPanic))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.SecurityHeaders())
	if deps.Metrics != nil {
		router.Use(middleware.HTTPMetrics(deps.Metrics))
	}
	router.Use(middleware.BodySizeLimit(deps.Config.Server.BodyLimit))
	router.Use(gincors.New(corsConfig(deps.Config.CORS)))

	if deps.AuthService == nil {
		deps.AuthService = service.NewAuthService("", "", nil, log)
	}
	messages := NewMessageHandler(deps.IntakeService, deps.TriageService)
	admin := NewAdminHandler(deps.AuthService)

	// 未配置管理员密码时后台接口不做认证
	var validator middleware.TokenValidator
	if deps.AuthService.Enabled() {
		validator = deps.AuthService
	} else {
		log.Warn("admin authentication disabled, triage routes are open")
	}
	requireAdmin := middleware.NewAdminAuth(validator, log).RequireAdmin()

	if deps.HealthChecker != nil {
		router.GET("/health", gin.WrapF(deps.HealthChecker.ReadyEndpoint))
		router.GET("/live", gin.WrapF(deps.HealthChecker.LiveEndpoint))
		router.GET("/ready", gin.WrapF(deps.HealthChecker.ReadyEndpoint))
		router.GET("/health/mirror", gin.WrapF(deps.HealthChecker.MirrorEndpoint))
	}
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))
	}

	// 同一组路由同时挂在根路径和 /api 下
	for _, group := range []*gin.RouterGroup{&router.RouterGroup, router.Group("/api")} {
		group.POST("/messages", messages.Submit)
		group.GET("/messages", requireAdmin, messages.List)
		group.PATCH("/messages/:id", requireAdmin, messages.UpdateStatus)
		group.DELETE("/messages/:id", requireAdmin, messages.Delete)
		group.POST("/admin/login", admin.Login)
	}

	return router
}

// corsConfig 构造跨域配置，允许所有来源时关闭凭证支持
func corsConfig(cfg config.CORSConfig) gincors.Config {
	c := gincors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(c.AllowOrigins) == 0 {
		c.AllowOrigins = []string{"*"}
	}
	for _, origin := range c.AllowOrigins {
		if origin == "*" {
			c.AllowOrigins = nil
			c.AllowAllOrigins = true
			c.AllowCredentials = false
			break
		}
	}
	return c
}
