package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/mind-engage/quizgrade/internal/grading"
)

type Config struct {
	HTTPAddr string
	SiteID   string

	DBDriver string
	DBDSN    string

	AuthHMACSecret string
	AdminUser      string
	AdminPassHash  string // bcrypt

	CORSOrigins []string

	// System-default grading policy; quizzes can override per quiz.
	PartialCredit     bool
	CaseSensitiveText bool
	RoundingPrecision int
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr: addr,
		SiteID:   envOr("SITE_ID", "local"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		AuthHMACSecret: envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminUser:      envOr("ADMIN_USER", "admin"),
		AdminPassHash:  envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),

		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:3010"),

		PartialCredit:     envBool("GRADE_PARTIAL_CREDIT", true),
		CaseSensitiveText: envBool("GRADE_CASE_SENSITIVE", false),
		RoundingPrecision: envInt("GRADE_PRECISION", 2),
	}
}

// DefaultPolicy is the system-wide grading policy before per-quiz overrides.
func (c Config) DefaultPolicy() grading.Policy {
	return grading.Policy{
		PartialCredit: c.PartialCredit,
		CaseSensitive: c.CaseSensitiveText,
		Precision:     c.RoundingPrecision,
	}
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

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
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
