// Package config builds runtime configuration from environment variables so
// main stays lean. Every backing service is optional in development: with no
// DATABASE_URL the server runs on in-memory stores, with no REDIS_URL the SMS
// outbox falls back to the logging dispatcher, with no KAFKA_BROKERS the audit
// trail stays local.
package config

import (
	"os"
	"strings"
)

// Config captures process-level configuration.
type Config struct {
	Addr         string
	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string
	AuditTopic   string
	SMSOutboxKey string
}

// FromEnv builds a Config from environment variables with dev defaults.
func FromEnv() Config {
	cfg := Config{
		Addr:         getenv("BAYANIHAN_ADDR", ":8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),
		AuditTopic:   getenv("AUDIT_TOPIC", "bayanihan.audit"),
		SMSOutboxKey: getenv("SMS_OUTBOX_KEY", "bayanihan:sms:outbox"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
