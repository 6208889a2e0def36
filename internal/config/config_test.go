package config

import (
	"testing"
	"time"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)

	cfg, err := fromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 8080 || cfg.Store != StoreMemory || cfg.JWTAccessTTL != 15*time.Minute {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.RateLimitPublic.Burst != 20 || cfg.RateLimitAPI.RequestsPerSecond != 20 {
		t.Fatalf("unexpected rate limits %+v %+v", cfg.RateLimitPublic, cfg.RateLimitAPI)
	}
	if cfg.Timezone == nil {
		t.Fatalf("timezone not loaded")
	}
}

func TestOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("PORT", "9090")
	t.Setenv("STORE", "Postgres")
	t.Setenv("DB_DSN", "postgres://localhost/zeladoria")
	t.Setenv("ALLOW_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("RATE_LIMIT_API", "5/15")
	t.Setenv("TZ_LOCATION", "UTC")

	cfg, err := fromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 9090 || cfg.Store != StorePostgres {
		t.Fatalf("unexpected cfg %+v", cfg)
	}
	if len(cfg.AllowOrigins) != 2 || cfg.AllowOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", cfg.AllowOrigins)
	}
	if cfg.RateLimitAPI != (RateLimitConfig{RequestsPerSecond: 5, Burst: 15}) {
		t.Fatalf("unexpected rate limit %+v", cfg.RateLimitAPI)
	}
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"segredo-curto", map[string]string{"JWT_SECRET": "curto"}},
		{"porta", map[string]string{"JWT_SECRET": secret, "PORT": "abc"}},
		{"store", map[string]string{"JWT_SECRET": secret, "STORE": "mongo"}},
		{"postgres-sem-dsn", map[string]string{"JWT_SECRET": secret, "STORE": "postgres", "DB_DSN": ""}},
		{"ttl", map[string]string{"JWT_SECRET": secret, "JWT_ACCESS_TTL": "-1m"}},
		{"rate-limit", map[string]string{"JWT_SECRET": secret, "RATE_LIMIT_PUBLIC": "10"}},
		{"timezone", map[string]string{"JWT_SECRET": secret, "TZ_LOCATION": "Lua/Crater"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := fromEnv(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
