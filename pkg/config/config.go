package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Storage drivers understood by the blob store factory.
const (
	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Storage      StorageConfig
	SMTP         SMTPConfig
	Notification NotificationConfig
	Admin        AdminSeedConfig
	LoginGuard   LoginGuardConfig
	Digest       DigestConfig
	Metrics      MetricsConfig
	Swagger      SwaggerConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig selects and configures the blob store used for uploads.
type StorageConfig struct {
	Driver            string
	UploadDir         string
	AllowedExtensions []string
	MaxFileSizeBytes  int64
	S3                S3Config
}

// S3Config points at an S3-compatible bucket.
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
}

// SMTPConfig configures outgoing mail. An empty Host disables delivery.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	UseTLS   bool
}

// NotificationConfig sizes the asynchronous notification worker pool.
type NotificationConfig struct {
	Workers     int
	BufferSize  int
	FrontendURL string
}

// AdminSeedConfig describes the bootstrap administrator.
type AdminSeedConfig struct {
	Username string
	Password string
	Email    string
	FullName string
}

// LoginGuardConfig throttles repeated failed logins.
type LoginGuardConfig struct {
	MaxAttempts int
	Window      time.Duration
}

// DigestConfig schedules the pending-approval digest for administrators.
type DigestConfig struct {
	Enabled  bool
	Schedule string
}

type MetricsConfig struct {
	Enabled bool
}

type SwaggerConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxFileSize := v.GetInt64("FILE_MAX_SIZE")
	if maxFileSize <= 0 {
		maxFileSize = 5 * 1024 * 1024
	}
	cfg.Storage = StorageConfig{
		Driver:            strings.ToLower(v.GetString("STORAGE_DRIVER")),
		UploadDir:         v.GetString("FILE_UPLOAD_DIR"),
		AllowedExtensions: splitAndTrim(strings.ToLower(v.GetString("FILE_ALLOWED_EXTENSIONS"))),
		MaxFileSizeBytes:  maxFileSize,
		S3: S3Config{
			Endpoint:        v.GetString("S3_ENDPOINT"),
			Region:          v.GetString("S3_REGION"),
			Bucket:          v.GetString("S3_BUCKET"),
			AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
			ForcePathStyle:  v.GetBool("S3_FORCE_PATH_STYLE"),
		},
	}

	cfg.SMTP = SMTPConfig{
		Host:     v.GetString("SMTP_HOST"),
		Port:     v.GetInt("SMTP_PORT"),
		Username: v.GetString("SMTP_USERNAME"),
		Password: v.GetString("SMTP_PASSWORD"),
		From:     v.GetString("SMTP_FROM"),
		FromName: v.GetString("SMTP_FROM_NAME"),
		UseTLS:   v.GetBool("SMTP_USE_TLS"),
	}

	cfg.Notification = NotificationConfig{
		Workers:     v.GetInt("NOTIFY_WORKERS"),
		BufferSize:  v.GetInt("NOTIFY_BUFFER"),
		FrontendURL: v.GetString("FRONTEND_URL"),
	}

	cfg.Admin = AdminSeedConfig{
		Username: v.GetString("ADMIN_USERNAME"),
		Password: v.GetString("ADMIN_PASSWORD"),
		Email:    v.GetString("ADMIN_EMAIL"),
		FullName: v.GetString("ADMIN_FULL_NAME"),
	}

	cfg.LoginGuard = LoginGuardConfig{
		MaxAttempts: v.GetInt("LOGIN_MAX_ATTEMPTS"),
		Window:      parseDuration(v.GetString("LOGIN_LOCKOUT_WINDOW"), 15*time.Minute),
	}

	cfg.Digest = DigestConfig{
		Enabled:  v.GetBool("DIGEST_ENABLED"),
		Schedule: v.GetString("DIGEST_CRON"),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("METRICS_ENABLED")}
	cfg.Swagger = SwaggerConfig{Enabled: v.GetBool("SWAGGER_ENABLED")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "symbohub")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STORAGE_DRIVER", StorageDriverLocal)
	v.SetDefault("FILE_UPLOAD_DIR", "./uploads")
	v.SetDefault("FILE_ALLOWED_EXTENSIONS", "pdf,jpg,jpeg,png,doc,docx")
	v.SetDefault("FILE_MAX_SIZE", 5*1024*1024)
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_FORCE_PATH_STYLE", true)

	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_FROM", "no-reply@symbohub.local")
	v.SetDefault("SMTP_FROM_NAME", "SymboHub")
	v.SetDefault("SMTP_USE_TLS", false)

	v.SetDefault("NOTIFY_WORKERS", 4)
	v.SetDefault("NOTIFY_BUFFER", 256)
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")

	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_EMAIL", "admin@symbohub.local")
	v.SetDefault("ADMIN_FULL_NAME", "System Administrator")

	v.SetDefault("LOGIN_MAX_ATTEMPTS", 5)
	v.SetDefault("LOGIN_LOCKOUT_WINDOW", "15m")

	v.SetDefault("DIGEST_ENABLED", false)
	v.SetDefault("DIGEST_CRON", "0 0 8 * * *")

	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("SWAGGER_ENABLED", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
