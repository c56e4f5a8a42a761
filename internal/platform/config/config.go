package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration so main stays lean.
type Server struct {
	Addr string

	// PostgresDSN selects the persistence backend; empty means in-memory
	// stores (dev and test mode).
	PostgresDSN string

	// RedisURL enables the outbound reminder queue when set.
	RedisURL string

	// KafkaBrokers enables the audit outbox worker when non-empty.
	KafkaBrokers []string
	AuditTopic   string

	// AdminToken guards the admin surface. AdminTokenHash, when set, takes
	// precedence and is compared with bcrypt so the cleartext never has to
	// live in the environment.
	AdminToken     string
	AdminTokenHash string

	// JWTSigningKey validates entity-owner bearer tokens.
	JWTSigningKey string
}

// ReminderDedupeTTL bounds how often the same expiry reminder may be queued.
var ReminderDedupeTTL = 24 * time.Hour

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("CARETRUST_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	topic := os.Getenv("CARETRUST_AUDIT_TOPIC")
	if topic == "" {
		topic = "caretrust.audit"
	}

	var brokers []string
	if raw := os.Getenv("CARETRUST_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	jwtSigningKey := os.Getenv("CARETRUST_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:           addr,
		PostgresDSN:    os.Getenv("CARETRUST_POSTGRES_DSN"),
		RedisURL:       os.Getenv("CARETRUST_REDIS_URL"),
		KafkaBrokers:   brokers,
		AuditTopic:     topic,
		AdminToken:     os.Getenv("CARETRUST_ADMIN_TOKEN"),
		AdminTokenHash: os.Getenv("CARETRUST_ADMIN_TOKEN_HASH"),
		JWTSigningKey:  jwtSigningKey,
	}
}
