package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 支持的存储驱动
const (
	DriverMongo    = "mongo"
	DriverDynamoDB = "dynamodb"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host         string        // 监听地址，默认 "0.0.0.0"
	Port         int           // 监听端口，默认 8080
	BodyLimit    int64         // 请求体上限（字节），默认 64KB
	ReadTimeout  time.Duration // 读超时，默认 15s
	WriteTimeout time.Duration // 写超时，默认 15s
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 彩色输出和详细堆栈
	File        string // 日志文件路径，留空只输出到控制台
	MaxSize     int    // 单个日志文件上限（MB）
	MaxBackups  int    // 保留的旧文件个数
	MaxAge      int    // 保留天数
	Compress    bool   // 是否压缩旧文件
}

// DatabaseConfig 定义文档存储连接配置
type DatabaseConfig struct {
	Driver           string        // mongo / dynamodb / postgres / memory
	URI              string        // 连接字符串（mongo、postgres）
	Name             string        // 数据库名（mongo）
	Collection       string        // 集合名 / 表名
	MaxOpenConns     int           // 连接池上限，默认 25
	MaxIdleConns     int           // 最小空闲连接，默认 2
	ConnMaxLifetime  time.Duration // 连接最大生命周期，默认 5 分钟
	ConnectTimeout   time.Duration // 建立连接超时，默认 10s
	OperationTimeout time.Duration // 单次存储调用超时，默认 10s
}

// RedisConfig 定义溢出队列的 Redis 镜像配置
type RedisConfig struct {
	Enabled     bool   // 是否把溢出队列镜像到 Redis
	Address     string // 格式 "host:port"，默认 "localhost:6379"
	Password    string // 留空表示无密码
	DB          int    // 数据库编号，默认 0
	OverflowKey string // 镜像列表的键名
}

// OverflowConfig 定义内存溢出队列
type OverflowConfig struct {
	Capacity int // 保留最近 N 条提交，默认 100
}

// AdminConfig 定义后台登录凭据
type AdminConfig struct {
	Username     string        // 管理员用户名，默认 "admin"
	PasswordHash string        // bcrypt 哈希，留空则不启用认证
	JWTSecret    string        // 签名密钥，启用认证时至少 32 字符
	Issuer       string        // 签发者，默认 "deptinbox"
	TokenExpiry  time.Duration // 令牌有效期，默认 12h
}

// Enabled 配置了密码哈希即启用后台认证。
func (a AdminConfig) Enabled() bool {
	return a.PasswordHash != ""
}

// AWSConfig 定义 DynamoDB 与 SSM 相关配置
type AWSConfig struct {
	Region       string // 留空使用 SDK 默认链
	Endpoint     string // 自定义端点（如 DynamoDB Local）
	URIParameter string // SSM 参数名，存放数据库连接字符串
}

// Config 是系统配置的根结构体
type Config struct {
	Server   ServerConfig
	CORS     CORSConfig
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Overflow OverflowConfig
	Admin    AdminConfig
	AWS      AWSConfig
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//  1. 系统环境变量
//  2. .env 文件（如果存在）
//  3. 默认值
//
// 环境变量前缀: DEPTINBOX_，例如 DEPTINBOX_DATABASE_URI
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetEnvPrefix("deptinbox")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.body_limit", 64*1024)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("cors.allowed_origins", "*")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", DriverMongo)
	v.SetDefault("database.uri", "")
	v.SetDefault("database.name", "department")
	v.SetDefault("database.collection", "messages")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.operation_timeout", "10s")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.overflow_key", "deptinbox:overflow")
	v.SetDefault("overflow.capacity", 100)
	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password_hash", "")
	v.SetDefault("admin.jwt_secret", "")
	v.SetDefault("admin.issuer", "deptinbox")
	v.SetDefault("admin.token_expiry", "12h")
	v.SetDefault("aws.region", "")
	v.SetDefault("aws.endpoint", "")
	v.SetDefault("aws.uri_parameter", "")

	durations := map[string]time.Duration{}
	for _, key := range []string{
		"server.read_timeout",
		"server.write_timeout",
		"database.conn_max_lifetime",
		"database.connect_timeout",
		"database.operation_timeout",
		"admin.token_expiry",
	} {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid %s: must be positive", key)
		}
		durations[key] = d
	}

	corsOrigins := parseList(v.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	capacity := v.GetInt("overflow.capacity")
	if capacity <= 0 {
		capacity = 100
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         v.GetString("server.host"),
			Port:         v.GetInt("server.port"),
			BodyLimit:    v.GetInt64("server.body_limit"),
			ReadTimeout:  durations["server.read_timeout"],
			WriteTimeout: durations["server.write_timeout"],
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
			File:        v.GetString("log.file"),
			MaxSize:     v.GetInt("log.max_size"),
			MaxBackups:  v.GetInt("log.max_backups"),
			MaxAge:      v.GetInt("log.max_age"),
			Compress:    v.GetBool("log.compress"),
		},
		Database: DatabaseConfig{
			Driver:           strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
			URI:              v.GetString("database.uri"),
			Name:             v.GetString("database.name"),
			Collection:       v.GetString("database.collection"),
			MaxOpenConns:     v.GetInt("database.max_open_conns"),
			MaxIdleConns:     v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime:  durations["database.conn_max_lifetime"],
			ConnectTimeout:   durations["database.connect_timeout"],
			OperationTimeout: durations["database.operation_timeout"],
		},
		Redis: RedisConfig{
			Enabled:     v.GetBool("redis.enabled"),
			Address:     v.GetString("redis.address"),
			Password:    v.GetString("redis.password"),
			DB:          v.GetInt("redis.db"),
			OverflowKey: v.GetString("redis.overflow_key"),
		},
		Overflow: OverflowConfig{
			Capacity: capacity,
		},
		Admin: AdminConfig{
			Username:     v.GetString("admin.username"),
			PasswordHash: v.GetString("admin.password_hash"),
			JWTSecret:    v.GetString("admin.jwt_secret"),
			Issuer:       v.GetString("admin.issuer"),
			TokenExpiry:  durations["admin.token_expiry"],
		},
		AWS: AWSConfig{
			Region:       v.GetString("aws.region"),
			Endpoint:     v.GetString("aws.endpoint"),
			URIParameter: v.GetString("aws.uri_parameter"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate 校验跨字段约束
func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverMongo, DriverPostgres:
		if c.Database.URI == "" && c.AWS.URIParameter == "" {
			return fmt.Errorf("database.uri is required for driver %q (or set aws.uri_parameter)", c.Database.Driver)
		}
	case DriverDynamoDB, DriverMemory:
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}

	if strings.TrimSpace(c.Database.Collection) == "" {
		return fmt.Errorf("database.collection must not be empty")
	}

	if c.Redis.Enabled && c.Redis.OverflowKey == "" {
		return fmt.Errorf("redis.overflow_key must not be empty when redis is enabled")
	}

	// 启用后台认证时 JWT 密钥必须足够长
	if c.Admin.Enabled() && len(c.Admin.JWTSecret) < 32 {
		return fmt.Errorf("SECURITY ERROR: admin.jwt_secret must be at least 32 characters when admin.password_hash is set")
	}

	return nil
}

// parseList 将逗号分隔的字符串解析为字符串切片
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile 尝试加载 .env 文件
//
// 文件不存在时静默跳过；已存在的环境变量不会被覆盖。
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
