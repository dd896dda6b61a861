package app

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"deptinbox/backend/internal/auth/jwt"
	"deptinbox/backend/internal/config"
	"deptinbox/backend/internal/health"
	"deptinbox/backend/internal/monitoring"
	"deptinbox/backend/internal/overflow"
	"deptinbox/backend/internal/service"
	"deptinbox/backend/internal/storage"
	redisstore "deptinbox/backend/internal/storage/redis"
	httptransport "deptinbox/backend/internal/transport/http"
)

// App 组装好的服务实例，HTTP 服务器与 Lambda 入口共用。
type App struct {
	Config  *config.Config
	Router  *gin.Engine
	Intake  *service.IntakeService
	Triage  *service.TriageService
	Auth    *service.AuthService
	Metrics *monitoring.Metrics

	connector *storage.Connector
	redis     *redisstore.Client
	log       *zap.Logger
}

// New 按配置创建全部依赖。
//
// 存储连接在第一次请求时才建立；Redis 镜像连接失败只记录警告。
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	dial, err := Dialer(cfg, log)
	if err != nil {
		return nil, err
	}
	connector := storage.NewConnector(dial, log)
	gateway := connector.Lazy()

	metrics := monitoring.NewMetrics()

	intake := service.NewIntakeService(gateway, overflow.New(cfg.Overflow.Capacity), cfg.Database.OperationTimeout, log)
	intake.SetMetrics(metrics)
	triage := service.NewTriageService(gateway, cfg.Database.OperationTimeout, log)
	triage.SetMetrics(metrics)

	a := &App{
		Config:    cfg,
		Intake:    intake,
		Triage:    triage,
		Metrics:   metrics,
		connector: connector,
		log:       log,
	}

	var redisPinger health.Pinger
	if cfg.Redis.Enabled {
		rc, err := redisstore.New(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn("redis unavailable, overflow mirror disabled", zap.Error(err))
		} else {
			a.redis = rc
			redisPinger = rc
			intake.SetMirror(redisstore.NewMirror(rc.Client(), cfg.Redis.OverflowKey, cfg.Overflow.Capacity))
			log.Info("overflow queue mirrored to redis", zap.String("key", cfg.Redis.OverflowKey))
		}
	}

	var tokens *jwt.Manager
	if cfg.Admin.Enabled() {
		tokens = jwt.NewManager(cfg.Admin.JWTSecret, cfg.Admin.Issuer, cfg.Admin.TokenExpiry)
		log.Info("admin authentication enabled",
			zap.String("username", cfg.Admin.Username),
			zap.Duration("token_expiry", cfg.Admin.TokenExpiry),
		)
	}
	a.Auth = service.NewAuthService(cfg.Admin.Username, cfg.Admin.PasswordHash, tokens, log)

	a.Router = httptransport.NewRouter(httptransport.RouterDependencies{
		Config:        cfg,
		IntakeService: intake,
		TriageService: triage,
		AuthService:   a.Auth,
		HealthChecker: health.NewHealthChecker(gateway, redisPinger, log),
		Metrics:       metrics,
		Logger:        log,
	})

	return a, nil
}

// Close 释放存储与 Redis 连接
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.connector.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
