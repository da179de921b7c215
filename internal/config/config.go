package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Log         LogConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	MinIO       MinIOConfig
	Redis       RedisConfig
	Certificate CertificateConfig
	Batch       BatchConfig
}

type AppConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string // json | text
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	Secret          string
	ExpireHours     int
	RefreshExpHours int
}

type MinIOConfig struct {
	Endpoint string
	User     string
	Password string
	Bucket   string
	UseSSL   bool
}

// RedisConfig tanpa Addr = cache render di memori proses (MemoryMB, 0 = mati)
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	TTLMinutes int
	MemoryMB   int
}

type CertificateConfig struct {
	PublicAppURL       string
	InstructorFallback string
	DefaultLanguage    string
	FontDir            string
	StrictFields       bool
	TextBaseline       string // top | alphabetic

	// batas render publik /image dan /pdf yang berjalan bersamaan, 0 = tanpa batas
	RenderConcurrency int
	RenderBacklog     int
}

type BatchConfig struct {
	Schedule string // cron spec, kosong = job dimatikan
	Size     int
}

func Load() *Config {
	// Load .env jika ada (development), di production pakai env variable langsung
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}

	jwtExpire, _ := strconv.Atoi(getEnv("JWT_EXPIRE_HOURS", "24"))
	jwtRefreshExpire, _ := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRE_HOURS", "168"))
	minioSSL, _ := strconv.ParseBool(getEnv("MINIO_USE_SSL", "false"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	redisTTL, _ := strconv.Atoi(getEnv("REDIS_TTL_MINUTES", "60"))
	memoryMB, _ := strconv.Atoi(getEnv("RENDER_CACHE_MEMORY_MB", "64"))
	renderConcurrency, _ := strconv.Atoi(getEnv("CERT_RENDER_CONCURRENCY", "4"))
	renderBacklog, _ := strconv.Atoi(getEnv("CERT_RENDER_BACKLOG", "32"))
	strictFields, _ := strconv.ParseBool(getEnv("TEMPLATE_STRICT_FIELDS", "false"))
	batchSize, _ := strconv.Atoi(getEnv("BATCH_SIZE", "50"))

	return &Config{
		App: AppConfig{
			Port:           getEnv("APP_PORT", "8080"),
			Env:            getEnv("APP_ENV", "development"),
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "lms_user"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "lms_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "change-this-secret"),
			ExpireHours:     jwtExpire,
			RefreshExpHours: jwtRefreshExpire,
		},
		MinIO: MinIOConfig{
			Endpoint: getEnv("MINIO_ENDPOINT", "localhost:9000"),
			User:     getEnv("MINIO_USER", "minioadmin"),
			Password: getEnv("MINIO_PASSWORD", "minioadmin123"),
			Bucket:   getEnv("MINIO_BUCKET", "certificates"),
			UseSSL:   minioSSL,
		},
		Redis: RedisConfig{
			Addr:       getEnv("REDIS_ADDR", ""),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         redisDB,
			TTLMinutes: redisTTL,
			MemoryMB:   memoryMB,
		},
		Certificate: CertificateConfig{
			PublicAppURL:       strings.TrimRight(getEnv("PUBLIC_APP_URL", "http://localhost:3000"), "/"),
			InstructorFallback: getEnv("CERT_INSTRUCTOR_FALLBACK", "Academy Instructor"),
			DefaultLanguage:    getEnv("CERT_DEFAULT_LANGUAGE", "ar"),
			FontDir:            getEnv("CERT_FONT_DIR", ""),
			StrictFields:       strictFields,
			TextBaseline:       getEnv("CERT_TEXT_BASELINE", "top"),
			RenderConcurrency:  renderConcurrency,
			RenderBacklog:      renderBacklog,
		},
		Batch: BatchConfig{
			Schedule: getEnv("BATCH_CRON", "@every 10m"),
			Size:     batchSize,
		},
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
