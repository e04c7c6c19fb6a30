package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port          int
	DBDriver      string
	DBDSN         string
	RedisURL      string
	JWTAccessTTL  time.Duration
	JWTRefreshTTL time.Duration
	JWTSecret     string
	AllowOrigins  []string

	RateLimitPublic RateLimitConfig
	RateLimitAuth   RateLimitConfig

	// Anexos: diretório local ou bucket S3 compatível. Os dois vazios
	// desligam o recurso (backend noop).
	AnexosDir   string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load carrega variáveis de ambiente e aplica defaults seguros.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.DBDriver = strings.ToLower(strings.TrimSpace(getEnv("DB_DRIVER", "postgres")))
	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return nil, errors.New("DB_DRIVER deve ser postgres ou sqlite")
	}

	cfg.DBDSN = getEnv("DB_DSN", "")
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN obrigatório")
	}

	cfg.RedisURL = getEnv("REDIS_URL", "")
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL obrigatório")
	}

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", ""))
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET deve ter pelo menos 32 caracteres")
	}

	accessTTL, err := parseDurationEnv("JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.JWTAccessTTL = accessTTL

	refreshTTL, err := parseDurationEnv("JWT_REFRESH_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWTRefreshTTL = refreshTTL

	allowOrigins := strings.Split(getEnv("ALLOW_ORIGINS", ""), ",")
	cfg.AllowOrigins = nil
	for _, origin := range allowOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 10, Burst: 40}

	cfg.AnexosDir = strings.TrimSpace(getEnv("ANEXOS_DIR", ""))

	cfg.S3Endpoint = strings.TrimSpace(getEnv("S3_ENDPOINT", ""))
	cfg.S3AccessKey = strings.TrimSpace(getEnv("S3_ACCESS_KEY", ""))
	cfg.S3SecretKey = strings.TrimSpace(getEnv("S3_SECRET_KEY", ""))
	cfg.S3Bucket = strings.TrimSpace(getEnv("S3_BUCKET", ""))
	cfg.S3UseSSL = getEnv("S3_USE_SSL", "true") != "false"
	if cfg.S3Endpoint != "" && (cfg.S3AccessKey == "" || cfg.S3SecretKey == "" || cfg.S3Bucket == "") {
		return nil, errors.New("S3_ENDPOINT exige S3_ACCESS_KEY, S3_SECRET_KEY e S3_BUCKET")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}
