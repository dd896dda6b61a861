package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"deptinbox/backend/internal/app"
	"deptinbox/backend/internal/config"
	"deptinbox/backend/internal/logger"
)

func main() {
	// 命令行参数覆盖环境变量中的驱动与集合名
	driver := flag.String("driver", "", "存储驱动: mongo, dynamodb, postgres, memory")
	collection := flag.String("collection", "", "集合名 / 表名")
	timeout := flag.Duration("timeout", time.Minute, "迁移超时")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("错误: 加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if *driver != "" {
		cfg.Database.Driver = *driver
	}
	if *collection != "" {
		cfg.Database.Collection = *collection
	}

	log, err := logger.NewLogger(cfg.Log)
	if err != nil {
		fmt.Printf("错误: 初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := app.Migrate(ctx, cfg, log); err != nil {
		log.Error("migration failed", zap.Error(err))
		os.Exit(1)
	}

	fmt.Printf("✓ %s 存储迁移完成 (%s)\n", cfg.Database.Driver, cfg.Database.Collection)
}
