package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		ENV string `yaml:"env"`
	} `yaml:"app"`

	Log struct {
		Level     string `yaml:"level"`
		Format    string `yaml:"format"`
		Component string `yaml:"component"`
		Source    bool   `yaml:"source"`
	} `yaml:"log"`

	DB struct {
		Driver   string `yaml:"driver"` // mysql | postgres | sqlite
		DSN      string `yaml:"dsn"`
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"db"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	GRPC struct {
		Host string `yaml:"host"`
		Port string `yaml:"port"`
	} `yaml:"grpc"`

	HTTP struct {
		Host           string   `yaml:"host"`
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`

	Auth struct {
		JWTSecret       string        `yaml:"jwt_secret"`
		Issuer          string        `yaml:"issuer"`
		SessionTTL      time.Duration `yaml:"session_ttl"`
		VerificationTTL time.Duration `yaml:"verification_ttl"`
		PublicBaseURL   string        `yaml:"public_base_url"`
	} `yaml:"auth"`

	Notify struct {
		ChannelPrefix string `yaml:"channel_prefix"`
	} `yaml:"notify"`

	Storage struct {
		Bucket     string        `yaml:"bucket"`
		Region     string        `yaml:"region"`
		PresignTTL time.Duration `yaml:"presign_ttl"`
	} `yaml:"storage"`
}

// New builds the config from defaults, an optional YAML file named by
// CONFIG_FILE, and finally environment variables. Env always wins.
func New() *Config {
	cfg, err := Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		// a broken config file is a deploy error; fall back to env only
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		cfg = &Config{}
		setDefaults(cfg)
		applyEnv(cfg)
	}
	return cfg
}

// Load reads path (if non-empty and present) on top of the defaults and then
// applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			raw, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.App.ENV = "development"

	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Log.Component = "approach"

	cfg.DB.Driver = "mysql"
	cfg.DB.Host = "localhost"
	cfg.DB.Port = "3306"
	cfg.DB.User = "root"
	cfg.DB.Password = "root"
	cfg.DB.Name = "approach"

	cfg.Redis.Addr = "localhost:6379"

	cfg.GRPC.Host = "127.0.0.1"
	cfg.GRPC.Port = "50051"

	cfg.HTTP.Host = "127.0.0.1"
	cfg.HTTP.Port = "8080"
	cfg.HTTP.AllowedOrigins = []string{"*"}

	cfg.Auth.JWTSecret = "dev-secret-change-me"
	cfg.Auth.Issuer = "approach"
	cfg.Auth.SessionTTL = 24 * time.Hour
	cfg.Auth.VerificationTTL = 48 * time.Hour
	cfg.Auth.PublicBaseURL = "http://localhost:8080"

	cfg.Notify.ChannelPrefix = "changes"

	cfg.Storage.Region = "ap-south-1"
	cfg.Storage.PresignTTL = 5 * time.Minute
}

func applyEnv(cfg *Config) {
	cfg.App.ENV = getEnvDefault("APP_ENV", cfg.App.ENV)

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", cfg.Log.Format)
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", cfg.Log.Component)
	if v, ok := os.LookupEnv("LOG_SOURCE"); ok {
		cfg.Log.Source = isTruthy(v)
	}

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", cfg.DB.Driver))
	cfg.DB.Host = getEnvDefault("DB_HOST", cfg.DB.Host)
	cfg.DB.Port = getEnvDefault("DB_PORT", cfg.DB.Port)
	cfg.DB.User = getEnvDefault("DB_USER", cfg.DB.User)
	cfg.DB.Password = getEnvDefault("DB_PASSWORD", cfg.DB.Password)
	cfg.DB.Name = getEnvDefault("DB_NAME", cfg.DB.Name)
	cfg.DB.DSN = getEnvDefault("DB_DSN", cfg.DB.DSN)
	if cfg.DB.DSN == "" {
		cfg.DB.DSN = buildDSN(cfg)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", cfg.Redis.Password)
	if dbStr := getEnvDefault("REDIS_DB", ""); dbStr != "" {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			cfg.Redis.DB = dbInt
		}
	}

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", cfg.GRPC.Host)
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", cfg.GRPC.Port)

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", cfg.HTTP.Host)
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", cfg.HTTP.Port)
	if origins := getEnvDefault("HTTP_ALLOWED_ORIGINS", ""); origins != "" {
		cfg.HTTP.AllowedOrigins = splitList(origins)
	}

	// Auth
	cfg.Auth.JWTSecret = getEnvDefault("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.Issuer = getEnvDefault("JWT_ISSUER", cfg.Auth.Issuer)
	cfg.Auth.SessionTTL = getDurationDefault("SESSION_TTL", cfg.Auth.SessionTTL)
	cfg.Auth.VerificationTTL = getDurationDefault("VERIFICATION_TTL", cfg.Auth.VerificationTTL)
	cfg.Auth.PublicBaseURL = getEnvDefault("PUBLIC_BASE_URL", cfg.Auth.PublicBaseURL)

	// Notify
	cfg.Notify.ChannelPrefix = getEnvDefault("NOTIFY_CHANNEL_PREFIX", cfg.Notify.ChannelPrefix)

	// Storage
	cfg.Storage.Bucket = getEnvDefault("S3_BUCKET_NAME", cfg.Storage.Bucket)
	cfg.Storage.Region = getEnvDefault("AWS_REGION", cfg.Storage.Region)
	cfg.Storage.PresignTTL = getDurationDefault("S3_PRESIGN_TTL", cfg.Storage.PresignTTL)
}

func buildDSN(cfg *Config) string {
	switch cfg.DB.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name,
		)
	case "sqlite":
		return cfg.DB.Name + ".db"
	default:
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getDurationDefault(k string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
