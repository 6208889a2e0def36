package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Backends de armazenamento aceitos em STORE.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port            int
	Store           string
	DBDSN           string
	RedisURL        string
	SeedFile        string
	JWTAccessTTL    time.Duration
	JWTSecret       string
	AllowOrigins    []string
	Timezone        *time.Location
	RateLimitPublic RateLimitConfig
	RateLimitAPI    RateLimitConfig
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load carrega variáveis de ambiente e aplica defaults seguros.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return fromEnv()
}

func fromEnv() (*Config, error) {
	cfg := &Config{}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.Store = strings.ToLower(strings.TrimSpace(getEnv("STORE", StoreMemory)))
	switch cfg.Store {
	case StoreMemory, StorePostgres:
	default:
		return nil, errors.New("STORE deve ser memory ou postgres")
	}

	cfg.DBDSN = getEnv("DB_DSN", "")
	if cfg.Store == StorePostgres && cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN obrigatório")
	}

	cfg.RedisURL = strings.TrimSpace(getEnv("REDIS_URL", ""))
	cfg.SeedFile = strings.TrimSpace(getEnv("SEED_FILE", ""))

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", ""))
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET deve ter pelo menos 32 caracteres")
	}

	accessTTL, err := parseDurationEnv("JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.JWTAccessTTL = accessTTL

	allowOrigins := strings.Split(getEnv("ALLOW_ORIGINS", ""), ",")
	for _, origin := range allowOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	tz := strings.TrimSpace(getEnv("TZ_LOCATION", "America/Sao_Paulo"))
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, errors.New("TZ_LOCATION inválido")
	}
	cfg.Timezone = loc

	cfg.RateLimitPublic, err = parseRateLimit("RATE_LIMIT_PUBLIC", RateLimitConfig{RequestsPerSecond: 10, Burst: 20})
	if err != nil {
		return nil, err
	}
	cfg.RateLimitAPI, err = parseRateLimit("RATE_LIMIT_API", RateLimitConfig{RequestsPerSecond: 20, Burst: 40})
	if err != nil {
		return nil, err
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
	if err != nil || dur <= 0 {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}

// parseRateLimit lê valores no formato "rps/burst", por exemplo "10/20".
func parseRateLimit(key string, def RateLimitConfig) (RateLimitConfig, error) {
	val := strings.TrimSpace(getEnv(key, ""))
	if val == "" {
		return def, nil
	}
	rpsStr, burstStr, ok := strings.Cut(val, "/")
	if !ok {
		return RateLimitConfig{}, errors.New(key + " deve usar o formato rps/burst")
	}
	rps, err := strconv.ParseFloat(strings.TrimSpace(rpsStr), 64)
	if err != nil || rps <= 0 {
		return RateLimitConfig{}, errors.New(key + " inválido")
	}
	burst, err := strconv.Atoi(strings.TrimSpace(burstStr))
	if err != nil || burst <= 0 {
		return RateLimitConfig{}, errors.New(key + " inválido")
	}
	return RateLimitConfig{RequestsPerSecond: rps, Burst: burst}, nil
}
