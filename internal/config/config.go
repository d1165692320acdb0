package config

import (
	"os"
	"strings"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string
	DBDSN    string

	HMACSecret string

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	// Dev-only: accept the role claim from the token when the user row
	// is missing. Forced off in online mode regardless of env.
	AllowClaimRoleFallback bool
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	cfg := Config{
		Mode:                   mode,
		HTTPAddr:               addr,
		DBDriver:               envOr("DB_DRIVER", "sqlite"),
		DBDSN:                  envOr("DB_DSN", ""),
		HMACSecret:             envOr("AUTH_HMAC_SECRET", "darasa-dev-secret"),
		CORSOriginsOnline:      csvOr("CORS_ORIGINS_ONLINE", "https://app.darasa.example"),
		CORSOriginsOffline:     csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),
		AllowClaimRoleFallback: envBool("ALLOW_CLAIM_ROLE_FALLBACK", mode == ModeOffline),
	}
	if cfg.Mode == ModeOnline {
		cfg.AllowClaimRoleFallback = false
	}
	return cfg
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
