package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StoreDriverMemory   = "memory"
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"

	ReportsStorageOnDemand = "ondemand"
	ReportsStorageLocal    = "local"

	MailTransportLog      = "log"
	MailTransportSMTP     = "smtp"
	MailTransportSendgrid = "sendgrid"
)

// Environment variable names referenced outside of struct tags.
const (
	EnvAppEnv          = "FORTUNE_APP_ENV"
	EnvPort            = "FORTUNE_APP_PORT"
	EnvBaseURL         = "FORTUNE_APP_BASE_URL"
	EnvStoreDriver     = "FORTUNE_STORE_DRIVER"
	EnvDBDSN           = "FORTUNE_DB_DSN"
	EnvRedisURL        = "FORTUNE_REDIS_URL"
	EnvPaymentProvider = "FORTUNE_PAYMENT_PROVIDER"
	EnvStripeAPIKey    = "FORTUNE_STRIPE_API_KEY"
	EnvStripeSecret    = "FORTUNE_STRIPE_SECRET"
	EnvReportsStorage  = "FORTUNE_REPORTS_STORAGE"
	EnvMailTransport   = "FORTUNE_MAIL_TRANSPORT"
	EnvSMTPHost        = "FORTUNE_SMTP_HOST"
	EnvSendgridAPIKey  = "FORTUNE_SENDGRID_API_KEY"
)

type Config struct {
	App      AppConfig
	Order    OrderConfig
	DB       DBConfig
	Redis    RedisConfig
	Payments PaymentsConfig
	Stripe   StripeConfig
	OpenAI   OpenAIConfig
	Reports  ReportsConfig
	Mail     MailConfig
}

// Load resolves the process-wide configuration once at start-up.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"FORTUNE_APP_ENV" required:"true"`
	Port         string   `envconfig:"FORTUNE_APP_PORT" default:"8080"`
	BaseURL      string   `envconfig:"FORTUNE_APP_BASE_URL" default:"http://localhost:8080"`
	BrandName    string   `envconfig:"FORTUNE_BRAND_NAME" default:"Fortune Atelier"`
	LogLevel     string   `envconfig:"FORTUNE_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"FORTUNE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"FORTUNE_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AbsoluteURL joins the configured base URL with a site-relative path.
func (a AppConfig) AbsoluteURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	base := strings.TrimRight(a.BaseURL, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

type OrderConfig struct {
	Amount   int64  `envconfig:"FORTUNE_ORDER_AMOUNT" default:"330"`
	Currency string `envconfig:"FORTUNE_ORDER_CURRENCY" default:"jpy"`
}

type DBConfig struct {
	Driver      string `envconfig:"FORTUNE_STORE_DRIVER" default:"memory"`
	DSN         string `envconfig:"FORTUNE_DB_DSN"`
	AutoMigrate bool   `envconfig:"FORTUNE_AUTO_MIGRATE" default:"false"`

	MaxOpenConns    int           `envconfig:"FORTUNE_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"FORTUNE_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"FORTUNE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FORTUNE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// Durable reports whether orders are kept outside process memory.
func (d DBConfig) Durable() bool {
	driver := strings.ToLower(strings.TrimSpace(d.Driver))
	return driver == StoreDriverSQLite || driver == StoreDriverPostgres
}

type RedisConfig struct {
	URL                   string        `envconfig:"FORTUNE_REDIS_URL"`
	PoolSize              int           `envconfig:"FORTUNE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns          int           `envconfig:"FORTUNE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout           time.Duration `envconfig:"FORTUNE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout           time.Duration `envconfig:"FORTUNE_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout          time.Duration `envconfig:"FORTUNE_REDIS_WRITE_TIMEOUT" default:"3s"`
	WebhookIdempotencyTTL time.Duration `envconfig:"FORTUNE_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type PaymentsConfig struct {
	Provider string `envconfig:"FORTUNE_PAYMENT_PROVIDER" default:"mock"`
}

type StripeConfig struct {
	APIKey string `envconfig:"FORTUNE_STRIPE_API_KEY"`
	Secret string `envconfig:"FORTUNE_STRIPE_SECRET"`
	Env    string `envconfig:"FORTUNE_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type OpenAIConfig struct {
	APIKey          string        `envconfig:"FORTUNE_OPENAI_API_KEY"`
	Model           string        `envconfig:"FORTUNE_OPENAI_MODEL" default:"gpt-4o-mini"`
	BaseURL         string        `envconfig:"FORTUNE_OPENAI_BASE_URL"`
	Timeout         time.Duration `envconfig:"FORTUNE_OPENAI_TIMEOUT" default:"45s"`
	MaxOutputTokens int           `envconfig:"FORTUNE_OPENAI_MAX_OUTPUT_TOKENS" default:"2400"`
	Temperature     float32       `envconfig:"FORTUNE_OPENAI_TEMPERATURE" default:"0.6"`
}

// Enabled reports whether the text generator has credentials.
func (o OpenAIConfig) Enabled() bool {
	return strings.TrimSpace(o.APIKey) != ""
}

type ReportsConfig struct {
	Storage  string `envconfig:"FORTUNE_REPORTS_STORAGE" default:"ondemand"`
	Dir      string `envconfig:"FORTUNE_REPORTS_DIR" default:"public/reports"`
	FontPath string `envconfig:"FORTUNE_REPORTS_FONT_PATH"`
}

type MailConfig struct {
	Transport      string        `envconfig:"FORTUNE_MAIL_TRANSPORT" default:"log"`
	From           string        `envconfig:"FORTUNE_MAIL_FROM" default:"no-reply@example.com"`
	SMTPHost       string        `envconfig:"FORTUNE_SMTP_HOST"`
	SMTPPort       int           `envconfig:"FORTUNE_SMTP_PORT" default:"587"`
	SMTPUser       string        `envconfig:"FORTUNE_SMTP_USER"`
	SMTPPass       string        `envconfig:"FORTUNE_SMTP_PASS"`
	SendgridAPIKey string        `envconfig:"FORTUNE_SENDGRID_API_KEY"`
	NotifyTimeout  time.Duration `envconfig:"FORTUNE_NOTIFY_TIMEOUT" default:"20s"`
}

func (c *Config) validate() error {
	if c.Order.Amount <= 0 {
		return fmt.Errorf("order amount must be positive, got %d", c.Order.Amount)
	}

	switch strings.ToLower(c.DB.Driver) {
	case StoreDriverMemory:
	case StoreDriverSQLite, StoreDriverPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvStoreDriver, c.DB.Driver)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvStoreDriver, c.DB.Driver)
	}

	switch strings.ToLower(c.Reports.Storage) {
	case ReportsStorageOnDemand, ReportsStorageLocal:
	default:
		return fmt.Errorf("unsupported %s %q", EnvReportsStorage, c.Reports.Storage)
	}

	switch strings.ToLower(c.Mail.Transport) {
	case MailTransportLog:
	case MailTransportSMTP:
		if c.Mail.SMTPHost == "" {
			return fmt.Errorf("%s is required when %s=smtp", EnvSMTPHost, EnvMailTransport)
		}
	case MailTransportSendgrid:
		if c.Mail.SendgridAPIKey == "" {
			return fmt.Errorf("%s is required when %s=sendgrid", EnvSendgridAPIKey, EnvMailTransport)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvMailTransport, c.Mail.Transport)
	}

	if strings.EqualFold(c.Payments.Provider, "stripe") {
		missing := []string{}
		if c.Stripe.APIKey == "" {
			missing = append(missing, EnvStripeAPIKey)
		}
		if c.Stripe.Secret == "" {
			missing = append(missing, EnvStripeSecret)
		}
		if len(missing) > 0 {
			return fmt.Errorf("stripe provider requires %s", strings.Join(missing, ", "))
		}
	}
	return nil
}
