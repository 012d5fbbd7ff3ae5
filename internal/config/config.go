package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Storage      StorageConfig
	MinIO        MinIOConfig
	Redis        RedisConfig
	NATS         NATSConfig
	Notification NotificationConfig
	Mail         MailConfig
	Worker       WorkerConfig
	Telemetry    TelemetryConfig
}

type ServerConfig struct {
	Port      string
	Env       string
	BodyLimit int64
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

type StorageConfig struct {
	Driver           string
	UploadPath       string
	PublicURLPrefix  string
	ResumeMaxSize    int64
	AnswerMaxSize    int64
	ResumeExtensions []string
	AnswerExtensions []string
}

type MinIOConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	Region        string
	PresignExpiry time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type NATSConfig struct {
	URL         string
	Subject     string
	ConnTimeout time.Duration
}

// NotificationConfig lists the enabled dispatch channels ("queue", "events").
type NotificationConfig struct {
	Channels []string
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type WorkerConfig struct {
	Concurrency int
}

type TelemetryConfig struct {
	CollectorURL string
	ServiceName  string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port:      getEnv("PORT", "3000"),
			Env:       getEnv("ENV", "development"),
			BodyLimit: getEnvAsInt64("BODY_LIMIT", 32<<20),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", "postgres"),
			DBName:     getEnv("DB_NAME", "job_portal"),
			SQLitePath: getEnv("SQLITE_PATH", "job_portal.db"),
		},
		Storage: StorageConfig{
			Driver:           getEnv("STORAGE_DRIVER", "local"),
			UploadPath:       getEnv("UPLOAD_PATH", "./uploads"),
			PublicURLPrefix:  getEnv("UPLOAD_URL_PREFIX", "/uploads"),
			ResumeMaxSize:    getEnvAsInt64("RESUME_MAX_SIZE", 5120*1024),
			AnswerMaxSize:    getEnvAsInt64("ANSWER_FILE_MAX_SIZE", 10240*1024),
			ResumeExtensions: getEnvAsList("RESUME_EXTENSIONS", ".pdf,.doc,.docx"),
			AnswerExtensions: getEnvAsList("ANSWER_FILE_EXTENSIONS", ".pdf,.doc,.docx,.odt,.rtf,.txt,.png,.jpg,.jpeg,.zip"),
		},
		MinIO: MinIOConfig{
			Endpoint:      getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey:     getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey:     getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:        getEnv("MINIO_BUCKET", "job-portal"),
			UseSSL:        getEnvAsBool("MINIO_USE_SSL", false),
			Region:        getEnv("MINIO_REGION", "us-east-1"),
			PresignExpiry: getEnvAsDuration("MINIO_PRESIGN_EXPIRY", "15m"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			CacheTTL: getEnvAsDuration("META_CACHE_TTL", "10m"),
		},
		NATS: NATSConfig{
			URL:         getEnv("NATS_URL", "nats://localhost:4222"),
			Subject:     getEnv("NATS_SUBJECT", "applications.submitted"),
			ConnTimeout: getEnvAsDuration("NATS_CONN_TIMEOUT", "5s"),
		},
		Notification: NotificationConfig{
			Channels: getEnvAsList("NOTIFY_CHANNELS", ""),
		},
		Mail: MailConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("MAIL_FROM", "no-reply@jobportal.local"),
		},
		Worker: WorkerConfig{
			Concurrency: getEnvAsInt("WORKER_CONCURRENCY", 5),
		},
		Telemetry: TelemetryConfig{
			CollectorURL: getEnv("OTEL_COLLECTOR_URL", ""),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "job-portal"),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// NotifyChannel reports whether the named notification channel is enabled.
func (c *Config) NotifyChannel(name string) bool {
	for _, ch := range c.Notification.Channels {
		if ch == name {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getEnvAsList(key string, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
