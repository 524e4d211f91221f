package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const DefaultBaseURL = "http://localhost:9000/api/v1"

type Config struct {
	API       APIConfig
	Session   SessionConfig
	Redis     RedisConfig
	Theme     ThemeConfig
	Server    ServerConfig
	Log       LogConfig
	Storage   StorageConfig
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时字段，不来自配置文件
	ConfigFile string `mapstructure:"-"`
}

type APIConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type SessionConfig struct {
	Store   string `mapstructure:"store"`
	Path    string `mapstructure:"path"`
	Profile string `mapstructure:"profile"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type ThemeConfig struct {
	Path       string `mapstructure:"path"`
	SystemPath string `mapstructure:"system_path"`
}

// ServerConfig 本地视图服务，默认只监听回环地址
type ServerConfig struct {
	Host string
	Port string
	Mode string
}

type LogConfig struct {
	Path string `mapstructure:"path"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioSecure   bool   `mapstructure:"minio_secure"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig 客户端发请求的节流，0 表示不限制
type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

func homeDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return h
	}
	return "."
}

func setDefaults(v *viper.Viper) {
	base := filepath.Join(homeDir(), ".lms")

	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.timeout_seconds", 30)

	v.SetDefault("session.store", "file")
	v.SetDefault("session.path", filepath.Join(base, "session.json"))
	v.SetDefault("session.profile", "default")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("theme.path", filepath.Join(base, "theme"))
	v.SetDefault("theme.system_path", filepath.Join(base, "system-theme"))

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "7070")
	v.SetDefault("server.mode", "release")

	v.SetDefault("log.path", filepath.Join(base, "logs", "client.log"))

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "certificates")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173"})
}

// LoadConfig 读取 path 目录下的 config.yaml。文件不存在时只使用默认值和环境变量。
func LoadConfig(path string) (*Config, error) {
	// .env 可选
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("LMS")
	v.AutomaticEnv()

	setDefaults(v)

	// API
	v.BindEnv("api.base_url", "LMS_API_URL")
	v.BindEnv("api.timeout_seconds", "LMS_API_TIMEOUT")

	// Session
	v.BindEnv("session.store", "LMS_SESSION_STORE")
	v.BindEnv("session.path", "LMS_SESSION_PATH")
	v.BindEnv("session.profile", "LMS_PROFILE")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.host", "SERVER_HOST")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.local_path", "STORAGE_LOCAL_PATH")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	if cfg.API.TimeoutSeconds <= 0 {
		cfg.API.TimeoutSeconds = 30
	}

	switch cfg.Session.Store {
	case "file", "redis":
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}

	if cfg.Storage.Type == "minio" && cfg.Storage.MinioBucket == "" {
		return nil, fmt.Errorf("storage.minio_bucket is required when storage.type is minio")
	}

	return &cfg, nil
}
