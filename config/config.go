package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvFile is read on Load when present. Variables already set in the
// process environment win over the file.
const EnvFile = ".env"

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Shop     ShopConfig     `yaml:"shop"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// AuthConfig covers token signing, the authorization policy and the login
// rate limit.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	Issuer     string        `yaml:"issuer"`
	Audience   string        `yaml:"audience"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	ClockSkew  time.Duration `yaml:"clock_skew"`
	PolicyFile string        `yaml:"policy_file"`
	LoginRate  float64       `yaml:"login_rate"` // attempts per second per client IP
	LoginBurst int           `yaml:"login_burst"`
}

// ShopConfig holds the storefront's business rules. Money is in cents.
type ShopConfig struct {
	Currency                   string  `yaml:"currency"`
	LegalAge                   int     `yaml:"legal_age"`
	MaxLineQuantity            int     `yaml:"max_line_quantity"`
	ShippingFlatCents          int64   `yaml:"shipping_flat_cents"`
	FreeShippingThresholdCents int64   `yaml:"free_shipping_threshold_cents"`
	TaxRate                    float64 `yaml:"tax_rate"`
	LowStockThreshold          int     `yaml:"low_stock_threshold"`
	RelatedProducts            int     `yaml:"related_products"`
	DetailReviews              int     `yaml:"detail_reviews"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      20 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Auth: AuthConfig{
			Issuer:     "spirits-storefront",
			Audience:   "storefront-api",
			TokenTTL:   time.Hour,
			ClockSkew:  5 * time.Minute,
			LoginRate:  0.2,
			LoginBurst: 5,
		},
		Shop: ShopConfig{
			Currency:                   "EUR",
			LegalAge:                   18,
			MaxLineQuantity:            12,
			ShippingFlatCents:          695,
			FreeShippingThresholdCents: 15000,
			TaxRate:                    0.21,
			LowStockThreshold:          5,
			RelatedProducts:            4,
			DetailReviews:              5,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is not empty), the .env file and finally the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load %s: %w", EnvFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"STOREFRONT_ADDR":        &c.HTTP.Addr,
		"DATABASE_URL":           &c.Database.URL,
		"JWT_SECRET":             &c.Auth.JWTSecret,
		"JWT_ISSUER":             &c.Auth.Issuer,
		"JWT_AUDIENCE":           &c.Auth.Audience,
		"STOREFRONT_POLICY_FILE": &c.Auth.PolicyFile,
		"LOG_LEVEL":              &c.Log.Level,
		"LOG_FORMAT":             &c.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("STOREFRONT_LEGAL_AGE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("STOREFRONT_LEGAL_AGE: %w", err)
		}
		c.Shop.LegalAge = n
	}
	if v, ok := os.LookupEnv("STOREFRONT_TAX_RATE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("STOREFRONT_TAX_RATE: %w", err)
		}
		c.Shop.TaxRate = f
	}
	if v, ok := os.LookupEnv("JWT_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("JWT_TTL: %w", err)
		}
		c.Auth.TokenTTL = d
	}
	return nil
}

// Validate checks everything the HTTP server needs and reports every
// problem at once.
func (c Config) Validate() error {
	return c.ValidateFor("serve")
}

// ValidateFor checks only the settings cmd reads. migrate needs the
// database and logging; seed also builds the shop service; serve needs all.
func (c Config) ValidateFor(cmd string) error {
	errs := c.baseErrors()
	switch cmd {
	case "migrate":
	case "seed":
		errs = append(errs, c.shopErrors()...)
	default:
		errs = append(errs, c.shopErrors()...)
		errs = append(errs, c.serveErrors()...)
	}
	return errors.Join(errs...)
}

func (c Config) baseErrors() []error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("log.format %q must be json or text", c.Log.Format))
	}
	return errs
}

func (c Config) shopErrors() []error {
	var errs []error
	if c.Shop.LegalAge < 0 {
		errs = append(errs, errors.New("shop.legal_age cannot be negative"))
	}
	if c.Shop.MaxLineQuantity <= 0 {
		errs = append(errs, errors.New("shop.max_line_quantity must be positive"))
	}
	if c.Shop.ShippingFlatCents < 0 || c.Shop.FreeShippingThresholdCents < 0 {
		errs = append(errs, errors.New("shop shipping amounts cannot be negative"))
	}
	if c.Shop.TaxRate < 0 || c.Shop.TaxRate > 1 {
		errs = append(errs, fmt.Errorf("shop.tax_rate %v outside 0..1", c.Shop.TaxRate))
	}
	return errs
}

func (c Config) serveErrors() []error {
	var errs []error
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 32 bytes"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Auth.LoginRate <= 0 || c.Auth.LoginBurst <= 0 {
		errs = append(errs, errors.New("auth.login_rate and auth.login_burst must be positive"))
	}
	return errs
}

// ParseLevel maps a config level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return l, fmt.Errorf("log.level %q: %w", s, err)
	}
	return l, nil
}
