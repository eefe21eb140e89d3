// Package config loads server configuration from the environment.
//
// Values come from process environment variables through viper's AutomaticEnv, with a .env
// file loaded first outside production. An empty DATABASE_URL selects in-memory stores.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	devSigningKey = "dev-secret-key-change-in-production"
)

// DefaultInviteTTL is how long a group invite link stays valid.
const DefaultInviteTTL = 7 * 24 * time.Hour

// Server captures HTTP server level configuration.
type Server struct {
	Addr     string
	Env      string
	LogLevel string

	DatabaseURL string
	AutoMigrate bool
	Redis       RedisConfig

	NATSURL      string
	KafkaBrokers []string
	AuditTopic   string

	JWTSigningKey string
	AdminToken    string

	InviteBaseURL string
	InviteTTL     time.Duration

	OTLPEndpoint string
	ServiceName  string
}

// RedisConfig configures the invite preview cache connection. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// IsProduction reports whether the server runs with production safeguards.
func (s Server) IsProduction() bool {
	return s.Env == EnvProduction
}

// Load reads configuration from the environment.
func Load() (Server, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if v.GetString("ENV") != EnvProduction {
		// A missing .env file is normal; only the process environment is used then.
		_ = godotenv.Load()
	}

	cfg := Server{
		Addr:        v.GetString("ADDR"),
		Env:         v.GetString("ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		DatabaseURL: v.GetString("DATABASE_URL"),
		AutoMigrate: v.GetBool("AUTO_MIGRATE"),
		Redis: RedisConfig{
			URL:          v.GetString("REDIS_URL"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
			DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("REDIS_WRITE_TIMEOUT"),
		},
		NATSURL:       v.GetString("NATS_URL"),
		KafkaBrokers:  splitList(v.GetString("KAFKA_BROKERS")),
		AuditTopic:    v.GetString("AUDIT_TOPIC"),
		JWTSigningKey: v.GetString("JWT_SIGNING_KEY"),
		AdminToken:    v.GetString("ADMIN_TOKEN"),
		InviteBaseURL: strings.TrimRight(v.GetString("INVITE_BASE_URL"), "/"),
		InviteTTL:     v.GetDuration("INVITE_TTL"),
		OTLPEndpoint:  v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:   v.GetString("SERVICE_NAME"),
	}
	if err := cfg.validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ADDR", ":8080")
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 2)
	v.SetDefault("REDIS_DIAL_TIMEOUT", 5*time.Second)
	v.SetDefault("REDIS_READ_TIMEOUT", 3*time.Second)
	v.SetDefault("REDIS_WRITE_TIMEOUT", 3*time.Second)
	v.SetDefault("AUDIT_TOPIC", "fellowship.audit")
	v.SetDefault("JWT_SIGNING_KEY", devSigningKey)
	v.SetDefault("INVITE_BASE_URL", "https://fellowship.app/invite")
	v.SetDefault("INVITE_TTL", DefaultInviteTTL)
	v.SetDefault("SERVICE_NAME", "fellowship")
}

func (s Server) validate() error {
	if s.InviteTTL <= 0 {
		return fmt.Errorf("INVITE_TTL must be positive, got %s", s.InviteTTL)
	}
	if s.IsProduction() {
		if s.JWTSigningKey == devSigningKey {
			return errors.New("JWT_SIGNING_KEY must be set in production")
		}
		if s.DatabaseURL == "" {
			return errors.New("DATABASE_URL must be set in production")
		}
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
