package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Storage    StorageConfig
	Tracing    TracingConfig `mapstructure:"tracing"`
	Redis      RedisConfig
	CORS       CORSConfig       `mapstructure:"cors"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Evaluation EvaluationConfig `mapstructure:"evaluation"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool   `mapstructure:"-"`
	MigrateOnly  bool   `mapstructure:"-"`
	ConfigFile   string `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
	// 访问码兑换接口单独限流，防止暴力枚举
	RedeemPerMinute int `mapstructure:"redeem_per_minute"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	Charset      string
	ParseTime    bool
	MaxOpenConns int `mapstructure:"max_open_conns"`
	MaxIdleConns int `mapstructure:"max_idle_conns"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl"`
	// 预签名链接有效期（分钟）
	SignedURLMinutes int `mapstructure:"signed_url_minutes"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// EvaluationConfig 评测策略，除 CodeSecret 外均支持热加载
type EvaluationConfig struct {
	CodeLength         int    `mapstructure:"code_length"`
	CodeSecret         string `mapstructure:"code_secret"`
	AllowResubmission  bool   `mapstructure:"allow_resubmission"`
	EnforceDeadline    bool   `mapstructure:"enforce_deadline"`
	CloseRevokesAccess bool   `mapstructure:"close_revokes_access"`
	SubmitLockSeconds  int    `mapstructure:"submit_lock_seconds"`
}

func (e EvaluationConfig) SubmitLockTTL() time.Duration {
	if e.SubmitLockSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(e.SubmitLockSeconds) * time.Second
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.charset", "utf8mb4")
	viper.SetDefault("database.parsetime", true)
	viper.SetDefault("database.max_open_conns", 50)
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("storage.type", "local")
	viper.SetDefault("storage.local_path", "uploads")
	viper.SetDefault("storage.signed_url_minutes", 60)
	viper.SetDefault("rate_limit.max_requests", 6000)
	viper.SetDefault("rate_limit.window_minutes", 1)
	viper.SetDefault("rate_limit.redeem_per_minute", 20)
	viper.SetDefault("evaluation.code_length", 6)
	viper.SetDefault("evaluation.allow_resubmission", false)
	viper.SetDefault("evaluation.enforce_deadline", true)
	viper.SetDefault("evaluation.close_revokes_access", false)
	viper.SetDefault("evaluation.submit_lock_seconds", 30)
}

func LoadConfig(path string) (*Config, error) {
	// .env 可选，仅用于本地开发
	_ = godotenv.Load()

	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("READING_EVAL")
	viper.AutomaticEnv()
	setDefaults()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.enabled", "REDIS_ENABLED")
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")
	viper.BindEnv("server.port", "SERVER_PORT")

	// Storage
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	// Evaluation
	viper.BindEnv("evaluation.code_secret", "ACCESS_CODE_SECRET")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.ConfigFile = viper.ConfigFileUsed()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	// 生产环境校验密钥强度
	if c.Server.Mode == "release" {
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(c.JWT.Secret))
		}
		if len(c.Evaluation.CodeSecret) < 32 {
			return fmt.Errorf("access code secret is too short (%d chars), must be at least 32 characters in release mode", len(c.Evaluation.CodeSecret))
		}
	}
	if c.Evaluation.CodeLength < 4 || c.Evaluation.CodeLength > 16 {
		return fmt.Errorf("evaluation.code_length must be between 4 and 16, got %d", c.Evaluation.CodeLength)
	}
	return nil
}
