// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvDatabaseURL overrides database.url when set.
const EnvDatabaseURL = "LEARNPAY_DATABASE_URL"

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL            string `yaml:"url"`
	MaxConns       int32  `yaml:"max_conns"`
	MigrateOnStart bool   `yaml:"migrate_on_start"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"`
}

// AdminConfig configures operator bearer tokens.
type AdminConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	Issuer    string        `yaml:"issuer"`
}

type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	ClientID     string        `yaml:"client_id"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

func (s SMTPConfig) Enabled() bool { return s.Host != "" && s.From != "" }

type TelegramConfig struct {
	Token          string `yaml:"token"`
	OperatorChatID int64  `yaml:"operator_chat_id"`
}

func (t TelegramConfig) Enabled() bool { return t.Token != "" }

type OrdersConfig struct {
	DefaultCurrency string `yaml:"default_currency"`
	// Attempts pending longer than StaleAfter are reported for manual
	// verification every ScanInterval. A zero interval disables the scan.
	StaleAfter   time.Duration `yaml:"stale_after"`
	ScanInterval time.Duration `yaml:"scan_interval"`
}

// GatewayBootstrap is seeded into the gateway config store at startup.
type GatewayBootstrap struct {
	Name         string `yaml:"name"`
	MerchantID   string `yaml:"merchant_id"`
	MerchantName string `yaml:"merchant_name"`
	Secret       string `yaml:"secret"`
	KeyIndex     string `yaml:"key_index"`
	Currency     string `yaml:"currency"`
	CallbackPath string `yaml:"callback_path"`
	Active       bool   `yaml:"active"`
}

type Config struct {
	HTTP     HTTPConfig         `yaml:"http"`
	Log      LogConfig          `yaml:"log"`
	Database DatabaseConfig     `yaml:"database"`
	Redis    RedisConfig        `yaml:"redis"`
	Security SecurityConfig     `yaml:"security"`
	Admin    AdminConfig        `yaml:"admin"`
	Kafka    KafkaConfig        `yaml:"kafka"`
	SMTP     SMTPConfig         `yaml:"smtp"`
	Telegram TelegramConfig     `yaml:"telegram"`
	Orders   OrdersConfig       `yaml:"orders"`
	Gateways []GatewayBootstrap `yaml:"gateways"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

// Parse decodes, applies defaults and validates.
func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		cfg.Database.URL = v
	}
	cfg.Runtime.Dev = dev
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.ReadTimeout <= 0 {
		cfg.HTTP.ReadTimeout = 10 * time.Second
	}
	if cfg.HTTP.WriteTimeout <= 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Admin.TokenTTL <= 0 {
		cfg.Admin.TokenTTL = 30 * time.Minute
	}
	if cfg.Admin.Issuer == "" {
		cfg.Admin.Issuer = "learnpay"
	}
	if cfg.Kafka.ClientID == "" {
		cfg.Kafka.ClientID = "learnpay"
	}
	if cfg.Kafka.WriteTimeout <= 0 {
		cfg.Kafka.WriteTimeout = 5 * time.Second
	}
	if cfg.SMTP.Port <= 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.Orders.DefaultCurrency == "" {
		cfg.Orders.DefaultCurrency = "INR"
	}
	if cfg.Orders.StaleAfter <= 0 {
		cfg.Orders.StaleAfter = 15 * time.Minute
	}
	for i := range cfg.Gateways {
		g := &cfg.Gateways[i]
		if g.KeyIndex == "" {
			g.KeyIndex = "1"
		}
		if g.Currency == "" {
			g.Currency = cfg.Orders.DefaultCurrency
		}
		if g.CallbackPath == "" {
			g.CallbackPath = "/webhooks/" + g.Name
		}
	}
}

// Minimal validation
func (cfg *Config) validate() error {
	if cfg.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if cfg.Admin.JWTSecret == "" && !cfg.Runtime.Dev {
		return errors.New("admin.jwt_secret is required")
	}
	if k := len(cfg.Security.EncryptionKey); k != 0 && k != 16 && k != 24 && k != 32 {
		return fmt.Errorf("security.encryption_key must be 16, 24, or 32 bytes; got %d", k)
	}
	seen := make(map[string]bool, len(cfg.Gateways))
	for _, g := range cfg.Gateways {
		name := strings.TrimSpace(g.Name)
		if name == "" {
			return errors.New("gateways[].name is required")
		}
		if seen[name] {
			return fmt.Errorf("gateway %q configured twice", name)
		}
		seen[name] = true
		if g.Secret != "" && cfg.Security.EncryptionKey == "" {
			return fmt.Errorf("gateway %q: security.encryption_key is required to store secrets", name)
		}
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 5 * time.Minute
	}
	return d
}
