// Package config loads the typed application configuration from YAML with
// an environment-variable secret overlay: one file per concern.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	pkgconfig "github.com/cleanco/platform/pkg/config"
)

// Config is the full application configuration surface.
type Config struct {
	Service    ServiceConfig    `yaml:"service"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Redis      RedisConfig      `yaml:"redis"`
	Logs       LogsConfig       `yaml:"logs"`
	Secrets    Secrets          `yaml:"secrets"`
	Authn      AuthnConfig      `yaml:"authn"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Storage    StorageConfig    `yaml:"storage"`
	Email      EmailConfig      `yaml:"email"`
	Payment    PaymentConfig    `yaml:"payment"`
	Export     ExportConfig     `yaml:"export"`
	Admin      AdminConfig      `yaml:"admin"`
	Retention  RetentionConfig  `yaml:"retention"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Jobs       JobsConfig       `yaml:"jobs"`
	Captcha    CaptchaConfig    `yaml:"captcha"`
	CORS       CORSConfig       `yaml:"cors"`
}

type ServiceConfig struct {
	Name         string `yaml:"name"`
	HTTPPort     string `yaml:"http_port"`
	Env          string `yaml:"env"`
	DefaultOrgID string `yaml:"default_org_id"`
}

// Load reads path, unmarshals into Config, and overlays secrets from the
// environment using pkg/config so nothing sensitive needs to live on disk.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	overlay := pkgconfig.NewEnvOverlay(envPrefix(cfg.Service.Name))
	applySecretOverlay(&cfg, overlay)

	if cfg.Service.DefaultOrgID == "" {
		cfg.Service.DefaultOrgID = DefaultOrgID
	}

	return &cfg, nil
}

// DefaultOrgID is the fixed default-org identifier relied on by
// single-tenant deployments that never send X-Org-Id.
const DefaultOrgID = "org_default000"

func envPrefix(serviceName string) string {
	if serviceName == "" {
		return "CLEANCO"
	}
	return serviceName
}

func applySecretOverlay(cfg *Config, overlay pkgconfig.Overlay) {
	cfg.Postgres.Password = pkgconfig.ApplyString(overlay, "postgres_password", cfg.Postgres.Password)
	cfg.Redis.Password = pkgconfig.ApplyString(overlay, "redis_password", cfg.Redis.Password)
	cfg.Secrets.JWTSigningKey = pkgconfig.ApplyString(overlay, "jwt_signing_key", cfg.Secrets.JWTSigningKey)
	cfg.Secrets.JWTPublicKey = pkgconfig.ApplyString(overlay, "jwt_public_key", cfg.Secrets.JWTPublicKey)
	cfg.Secrets.SessionSecret = pkgconfig.ApplyString(overlay, "session_secret", cfg.Secrets.SessionSecret)
	cfg.Secrets.AdminBasicPassword = pkgconfig.ApplyString(overlay, "admin_basic_password", cfg.Secrets.AdminBasicPassword)
	cfg.Secrets.WorkerTokenKey = pkgconfig.ApplyString(overlay, "worker_token_key", cfg.Secrets.WorkerTokenKey)
	cfg.Secrets.BreakGlassSecret = pkgconfig.ApplyString(overlay, "break_glass_secret", cfg.Secrets.BreakGlassSecret)
	cfg.Storage.S3.SecretKey = pkgconfig.ApplyString(overlay, "s3_secret_key", cfg.Storage.S3.SecretKey)
	cfg.Storage.CDN.SigningKey = pkgconfig.ApplyString(overlay, "cdn_signing_key", cfg.Storage.CDN.SigningKey)
	cfg.Storage.Local.SigningKey = pkgconfig.ApplyString(overlay, "local_signing_key", cfg.Storage.Local.SigningKey)
	cfg.Email.Password = pkgconfig.ApplyString(overlay, "email_password", cfg.Email.Password)
	cfg.Payment.SecretKey = pkgconfig.ApplyString(overlay, "payment_secret_key", cfg.Payment.SecretKey)
	cfg.Payment.WebhookSecret = pkgconfig.ApplyString(overlay, "payment_webhook_secret", cfg.Payment.WebhookSecret)
	cfg.Metrics.Token = pkgconfig.ApplyString(overlay, "metrics_token", cfg.Metrics.Token)
	cfg.Captcha.Key = pkgconfig.ApplyString(overlay, "captcha_key", cfg.Captcha.Key)
}

// Redacted returns a copy of cfg safe to expose via an admin config
// snapshot endpoint: every secret field is replaced with "[REDACTED]" and
// the Secrets block is zeroed.
func (c *Config) Redacted() *Config {
	clone := *c
	clone.Postgres.Password = "[REDACTED]"
	clone.Redis.Password = "[REDACTED]"
	clone.Secrets = Secrets{}
	clone.Storage.S3.SecretKey = "[REDACTED]"
	clone.Storage.CDN.SigningKey = "[REDACTED]"
	clone.Storage.Local.SigningKey = "[REDACTED]"
	clone.Email.Password = "[REDACTED]"
	clone.Payment.SecretKey = "[REDACTED]"
	clone.Payment.WebhookSecret = "[REDACTED]"
	clone.Metrics.Token = "[REDACTED]"
	clone.Captcha.Key = "[REDACTED]"
	return &clone
}
