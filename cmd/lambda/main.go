package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"deptinbox/backend/internal/app"
	"deptinbox/backend/internal/config"
	"deptinbox/backend/internal/logger"
)

// proxyHandler 把 API Gateway REST 代理事件交给 gin 路由处理。
//
// 非 UTF-8 响应体（如 gzip 压缩的 /metrics）会以 base64 返回。
func proxyHandler(router *gin.Engine) func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	adapter := ginadapter.New(router)
	return adapter.ProxyWithContext
}

// main 在 API Gateway 后运行同一套路由。
//
// 存储连接在冷启动后的第一次调用时建立，并在后续调用中复用。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	gin.SetMode(gin.ReleaseMode)

	log, err := logger.NewLogger(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	application, err := app.New(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("failed to initialize application", zap.Error(err))
	}

	log.Info("starting deptinbox lambda handler", zap.String("driver", cfg.Database.Driver))
	lambda.Start(proxyHandler(application.Router))
}
