package config

import "time"

type PostgresConfig struct {
	Address             string        `yaml:"address"`
	Username            string        `yaml:"username"`
	Password            string        `yaml:"password"`
	Database            string        `yaml:"database"`
	MaxOpenConns        int           `yaml:"max_open_conns"`
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	StatementTimeout    time.Duration `yaml:"statement_timeout"`
}

type RedisConfig struct {
	Addresses []string `yaml:"addresses"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	Database  int      `yaml:"database"`
	TLS       bool     `yaml:"tls"`
}

type LogsConfig struct {
	LogLevel   string `yaml:"log_level"`
	StdoutOnly bool   `yaml:"stdout_only"`
	LogPath    string `yaml:"log_path"`
}

type Secrets struct {
	JWTSigningKey      string `yaml:"jwt_signing_key"` // PEM-encoded EC private key
	JWTPublicKey       string `yaml:"jwt_public_key"`  // PEM-encoded EC public key
	SessionSecret      string `yaml:"session_secret"`
	AdminBasicUser     string `yaml:"admin_basic_user"`
	AdminBasicPassword string `yaml:"admin_basic_password"`
	WorkerTokenKey     string `yaml:"worker_token_key"`
	BreakGlassSecret   string `yaml:"break_glass_secret"`
}

type AuthnConfig struct {
	PasswordHashScheme    string        `yaml:"password_hash_scheme"` // "bcrypt" current, "legacy_salted_bcrypt" legacy
	AccessTokenTTL        time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL       time.Duration `yaml:"refresh_token_ttl"`
	SessionTTL            time.Duration `yaml:"session_ttl"`
	MagicLinkTTL          time.Duration `yaml:"magic_link_ttl"`
}

type RateLimitConfig struct {
	PerMinute      int      `yaml:"per_minute"`
	SharedStoreURL string   `yaml:"shared_store_url"`
	TrustedProxies []string `yaml:"trusted_proxies"`
}

type StorageConfig struct {
	Backend string          `yaml:"backend"` // "local" | "s3" | "cdn"
	Local   LocalStorage    `yaml:"local"`
	S3      S3Storage       `yaml:"s3"`
	CDN     CDNStorage      `yaml:"cdn"`
	Photo   PhotoLimits     `yaml:"photo"`
	URLTTLDefault time.Duration `yaml:"url_ttl_default"`
	URLTTLCeiling time.Duration `yaml:"url_ttl_ceiling"`
}

type LocalStorage struct {
	RootDir      string `yaml:"root_dir"`
	SigningKey   string `yaml:"signing_key"`
	ProxyBaseURL string `yaml:"proxy_base_url"`
}

type S3Storage struct {
	Region     string `yaml:"region"`
	Bucket     string `yaml:"bucket"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Endpoint   string `yaml:"endpoint"`
}

type CDNStorage struct {
	BaseURL    string `yaml:"base_url"`
	SigningKey string `yaml:"signing_key"`
}

type PhotoLimits struct {
	MaxBytes     int64         `yaml:"max_bytes"`
	AllowedMIME  []string      `yaml:"allowed_mime"`
	URLTTL       time.Duration `yaml:"url_ttl"`
}

type EmailConfig struct {
	Backend     string `yaml:"backend"` // "smtp" | "noop"
	SMTPHost    string `yaml:"smtp_host"`
	SMTPPort    int    `yaml:"smtp_port"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	SenderEmail string `yaml:"sender_email"`
}

type PaymentConfig struct {
	Provider        string        `yaml:"provider"` // "stripe"
	SecretKey       string        `yaml:"secret_key"`
	WebhookSecret   string        `yaml:"webhook_secret"`
	CheckoutBaseURL string        `yaml:"checkout_base_url"`
	DepositWindow   time.Duration `yaml:"deposit_window"`
}

type ExportConfig struct {
	Mode            string   `yaml:"mode"` // "webhook" | "disabled"
	AllowedHosts    []string `yaml:"allowed_hosts"`
	HTTPSOnly       bool     `yaml:"https_only"`
	BlockPrivateIPs bool     `yaml:"block_private_ips"`
}

type AdminConfig struct {
	IPAllowlist     []string      `yaml:"ip_allowlist"`
	ReadOnly        bool          `yaml:"read_only"`
	BreakGlassTTL   time.Duration `yaml:"break_glass_ttl"`
	IdempotencyTTL  time.Duration `yaml:"idempotency_ttl"`
}

type RetentionConfig struct {
	LeadRetention     time.Duration `yaml:"lead_retention"`
	ChatRetention     time.Duration `yaml:"chat_retention"`
	AuditRetention    time.Duration `yaml:"audit_retention"`
	OutboxRetention   time.Duration `yaml:"outbox_retention"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

type JobsConfig struct {
	HeartbeatRequired bool          `yaml:"heartbeat_required"`
	HeartbeatTTL      time.Duration `yaml:"heartbeat_ttl"`
	DrainBudget       time.Duration `yaml:"drain_budget"`
}

type CaptchaConfig struct {
	Mode string `yaml:"mode"` // "off" | "always" | "risk_based"
	Key  string `yaml:"key"`
}

type CORSConfig struct {
	Strict      bool     `yaml:"strict"`
	AllowOrigins []string `yaml:"allow_origins"`
}
