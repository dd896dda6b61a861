package health

import (
	"context"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"
)

// Pinger 可被探测存活的依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// DefaultTimeout 单次探测的超时时间
const DefaultTimeout = 5 * time.Second

// HealthChecker 健康检查器
type HealthChecker struct {
	health  healthcheck.Handler
	mirror  healthcheck.Handler
	logger  *zap.Logger
	timeout time.Duration
}

// NewHealthChecker 创建健康检查器
//
// 存储做就绪检查：数据库不可达时 /ready 返回 503，但进程本身仍然存活。
// Redis 镜像是尽力而为的，不参与存活与就绪判断，只在 MirrorEndpoint 上报告；
// redis 为 nil 时 MirrorEndpoint 恒为 200。
func NewHealthChecker(store Pinger, redis Pinger, logger *zap.Logger) *HealthChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	hc := &HealthChecker{
		health:  healthcheck.NewHandler(),
		mirror:  healthcheck.NewHandler(),
		logger:  logger,
		timeout: DefaultTimeout,
	}

	hc.health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(1000))
	hc.health.AddReadinessCheck("database", hc.pingCheck("database", store))
	if redis != nil {
		hc.mirror.AddReadinessCheck("redis", hc.pingCheck("redis", redis))
	}

	return hc
}

func (hc *HealthChecker) pingCheck(name string, p Pinger) healthcheck.Check {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), hc.timeout)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			hc.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			return err
		}
		return nil
	}
}

// Handler 返回健康检查处理器
func (hc *HealthChecker) Handler() http.Handler {
	return hc.health
}

// LiveEndpoint 存活探测
func (hc *HealthChecker) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	hc.health.LiveEndpoint(w, r)
}

// ReadyEndpoint 就绪探测（包含存活检查）
func (hc *HealthChecker) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	hc.health.ReadyEndpoint(w, r)
}

// MirrorEndpoint 溢出队列镜像的状态，仅供查看，不参与存活与就绪检查
func (hc *HealthChecker) MirrorEndpoint(w http.ResponseWriter, r *http.Request) {
	hc.mirror.ReadyEndpoint(w, r)
}
