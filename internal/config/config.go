// AngelaMos | 2026
// config.go

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	JWT       JWTConfig       `koanf:"jwt"`
	Security  SecurityConfig  `koanf:"security"`
	Tenant    TenantConfig    `koanf:"tenant"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
	Kafka     KafkaConfig     `koanf:"kafka"`
	Storage   StorageConfig   `koanf:"storage"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type RedisConfig struct {
	URL          string        `koanf:"url"`
	PoolSize     int           `koanf:"pool_size"`
	MinIdleConns int           `koanf:"min_idle_conns"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type JWTConfig struct {
	PrivateKeyPath      string        `koanf:"private_key_path"`
	PublicKeyPath       string        `koanf:"public_key_path"`
	AccessTokenExpire   time.Duration `koanf:"access_token_expire"`
	RefreshTokenExpire  time.Duration `koanf:"refresh_token_expire"`
	Issuer              string        `koanf:"issuer"`
	Audience            string        `koanf:"audience"`
	RotateRefreshTokens bool          `koanf:"rotate_refresh_tokens"`
}

type SecurityConfig struct {
	BcryptCost int `koanf:"bcrypt_cost"`
}

type TenantConfig struct {
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

type KafkaConfig struct {
	Enabled  bool     `koanf:"enabled"`
	Brokers  []string `koanf:"brokers"`
	Topic    string   `koanf:"topic"`
	ClientID string   `koanf:"client_id"`
}

type StorageConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Region          string        `koanf:"region"`
	Bucket          string        `koanf:"bucket"`
	Endpoint        string        `koanf:"endpoint"`
	AccessKeyID     string        `koanf:"access_key_id"`
	SecretAccessKey string        `koanf:"secret_access_key"`
	UsePathStyle    bool          `koanf:"use_path_style"`
	PresignTTL      time.Duration `koanf:"presign_ttl"`
	MaxUploadBytes  int64         `koanf:"max_upload_bytes"`
}

var (
	cfg  *Config
	once sync.Once
)

// Load reads defaults, then the optional YAML file, then the environment.
// A .env file in the working directory is loaded into the process
// environment first when present.
func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Tenant API",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,
		"redis.dial_timeout":   "5s",
		"redis.read_timeout":   "3s",
		"redis.write_timeout":  "3s",

		"jwt.access_token_expire":   "15m",
		"jwt.refresh_token_expire":  "168h",
		"jwt.issuer":                "tenant-api",
		"jwt.audience":              "tenant-api",
		"jwt.private_key_path":      "keys/private.pem",
		"jwt.public_key_path":       "keys/public.pem",
		"jwt.rotate_refresh_tokens": false,

		"security.bcrypt_cost": 10,

		"tenant.cache_ttl": "60s",

		"rate_limit.requests": 100,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    20,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Correlation-ID",
			"X-Tenant-Slug",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "tenant-api",

		"kafka.enabled":   false,
		"kafka.brokers":   []string{"localhost:9092"},
		"kafka.topic":     "tenant-api.events",
		"kafka.client_id": "tenant-api",

		"storage.enabled":          false,
		"storage.region":           "us-east-1",
		"storage.use_path_style":   false,
		"storage.presign_ttl":      "15m",
		"storage.max_upload_bytes": 5 << 20,
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"JWT_PRIVATE_KEY_PATH":        "jwt.private_key_path",
	"JWT_PUBLIC_KEY_PATH":         "jwt.public_key_path",
	"JWT_ACCESS_TOKEN_EXPIRE":     "jwt.access_token_expire",
	"JWT_REFRESH_TOKEN_EXPIRE":    "jwt.refresh_token_expire",
	"JWT_ISSUER":                  "jwt.issuer",
	"JWT_AUDIENCE":                "jwt.audience",
	"JWT_ROTATE_REFRESH_TOKENS":   "jwt.rotate_refresh_tokens",
	"SALT_ROUNDS":                 "security.bcrypt_cost",
	"BCRYPT_COST":                 "security.bcrypt_cost",
	"TENANT_CACHE_TTL":            "tenant.cache_ttl",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"KAFKA_ENABLED":               "kafka.enabled",
	"KAFKA_TOPIC":                 "kafka.topic",
	"KAFKA_CLIENT_ID":             "kafka.client_id",
	"STORAGE_ENABLED":             "storage.enabled",
	"AWS_REGION":                  "storage.region",
	"AWS_S3_BUCKET_NAME":          "storage.bucket",
	"AWS_ENDPOINT_URL":            "storage.endpoint",
	"AWS_ACCESS_KEY_ID":           "storage.access_key_id",
	"AWS_SECRET_ACCESS_KEY":       "storage.secret_access_key",
	"STORAGE_USE_PATH_STYLE":      "storage.use_path_style",
	"STORAGE_PRESIGN_TTL":         "storage.presign_ttl",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.JWT.PrivateKeyPath == "" {
		return fmt.Errorf("JWT_PRIVATE_KEY_PATH is required")
	}

	if c.JWT.PublicKeyPath == "" {
		return fmt.Errorf("JWT_PUBLIC_KEY_PATH is required")
	}

	if c.JWT.RefreshTokenExpire <= 0 {
		return fmt.Errorf("jwt.refresh_token_expire must be positive")
	}

	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		return fmt.Errorf(
			"security.bcrypt_cost must be between 4 and 31, got %d",
			c.Security.BcryptCost,
		)
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers is required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when kafka is enabled")
		}
	}

	if c.Storage.Enabled {
		if c.Storage.Bucket == "" {
			return fmt.Errorf("AWS_S3_BUCKET_NAME is required when storage is enabled")
		}
		if c.Storage.Region == "" {
			return fmt.Errorf("AWS_REGION is required when storage is enabled")
		}
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
