package app

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"

	"deptinbox/backend/internal/config"
	"deptinbox/backend/internal/secrets"
	"deptinbox/backend/internal/storage"
	"deptinbox/backend/internal/storage/dynamo"
	"deptinbox/backend/internal/storage/memory"
	"deptinbox/backend/internal/storage/mongo"
	"deptinbox/backend/internal/storage/postgres"
)

// loadAWSConfig 加载 AWS 默认凭据链，配置了 region 时覆盖
var loadAWSConfig = func(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

// Dialer 按 database.driver 返回建立存储连接的函数。
//
// 连接字符串优先取 database.uri，否则从 SSM 参数 aws.uri_parameter 读取。
func Dialer(cfg *config.Config, log *zap.Logger) (storage.DialFunc, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		return func(context.Context) (storage.MessageGateway, error) {
			log.Warn("using memory storage, messages are lost on restart")
			return memory.NewStore(), nil
		}, nil

	case config.DriverMongo:
		return func(ctx context.Context) (storage.MessageGateway, error) {
			uri, err := resolveURI(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return mongo.Connect(ctx, cfg.Database, uri, log)
		}, nil

	case config.DriverPostgres:
		return func(ctx context.Context) (storage.MessageGateway, error) {
			uri, err := resolveURI(ctx, cfg)
			if err != nil {
				return nil, err
			}
			client, err := postgres.New(ctx, cfg.Database, uri, log)
			if err != nil {
				return nil, err
			}
			store, err := postgres.NewStore(client, cfg.Database.Collection)
			if err != nil {
				client.Close()
				return nil, err
			}
			return store, nil
		}, nil

	case config.DriverDynamoDB:
		return func(ctx context.Context) (storage.MessageGateway, error) {
			awsCfg, err := loadAWSConfig(ctx, cfg.AWS)
			if err != nil {
				return nil, fmt.Errorf("load AWS config: %w", err)
			}
			client := awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
				if cfg.AWS.Endpoint != "" {
					o.BaseEndpoint = aws.String(cfg.AWS.Endpoint)
				}
			})
			log.Info("using DynamoDB storage",
				zap.String("table", cfg.Database.Collection),
				zap.String("region", awsCfg.Region),
			)
			return dynamo.New(client, cfg.Database.Collection)
		}, nil
	}

	return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
}

// resolveURI 取得文档库连接字符串
func resolveURI(ctx context.Context, cfg *config.Config) (string, error) {
	var getter secrets.Getter
	if cfg.Database.URI == "" && cfg.AWS.URIParameter != "" {
		awsCfg, err := loadAWSConfig(ctx, cfg.AWS)
		if err != nil {
			return "", fmt.Errorf("load AWS config: %w", err)
		}
		ps, err := secrets.NewParamStore(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			return "", err
		}
		getter = ps
	}

	uri, err := secrets.ResolveURI(ctx, cfg.Database.URI, cfg.AWS.URIParameter, getter)
	if err != nil {
		return "", err
	}
	if uri == "" {
		return "", fmt.Errorf("database URI is not configured for driver %q", cfg.Database.Driver)
	}
	return uri, nil
}

// Migrate 连接所选后端并执行建表/建索引，不支持迁移的后端直接返回。
func Migrate(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	dial, err := Dialer(cfg, log)
	if err != nil {
		return err
	}
	gw, err := dial(ctx)
	if err != nil {
		return err
	}
	defer gw.Close(context.Background())

	m, ok := gw.(storage.Migrator)
	if !ok {
		log.Info("storage backend needs no migration", zap.String("driver", cfg.Database.Driver))
		return nil
	}
	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate %s: %w", cfg.Database.Driver, err)
	}
	log.Info("storage migrated",
		zap.String("driver", cfg.Database.Driver),
		zap.String("collection", cfg.Database.Collection),
	)
	return nil
}
