package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuelReschke/LinkFox/internal/pkg/env"
	envparse "github.com/caarlos0/env/v11"
)

const (
	GatewayRazorpay = "razorpay"
	GatewaySandbox  = "sandbox"

	VerifySignature = "signature"
	VerifyPoll      = "poll"

	GatewayEnvSandbox    = "sandbox"
	GatewayEnvProduction = "production"

	razorpayTestKeyPrefix = "rzp_test_"
	razorpayLiveKeyPrefix = "rzp_live_"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type App struct {
	Host          string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port          string `env:"APP_PORT" envDefault:"4000"`
	Env           string `env:"APP_ENV" envDefault:"prod"`
	PublicDomain  string `env:"PUBLIC_DOMAIN" envDefault:"http://localhost:4000"`
	CORSOrigins   string `env:"CORS_ORIGINS" envDefault:"*"`
	MetricsUser   string `env:"METRICS_USER"`
	MetricsPass   string `env:"METRICS_PASSWORD"`
	ContactTarget string `env:"CONTACT_RECIPIENT"`
}

type Database struct {
	Driver     string `env:"DB_DRIVER" envDefault:"mysql"`
	Host       string `env:"DB_HOST" envDefault:"127.0.0.1"`
	Port       string `env:"DB_PORT" envDefault:"3306"`
	User       string `env:"DB_USER"`
	Password   string `env:"DB_PASSWORD"`
	Name       string `env:"DB_NAME" envDefault:"linkfox"`
	SQLitePath string `env:"DB_SQLITE_PATH" envDefault:"linkfox.db"`
}

type Cache struct {
	Enabled  bool          `env:"CACHE_ENABLED" envDefault:"false"`
	Host     string        `env:"CACHE_HOST" envDefault:"localhost"`
	Port     int           `env:"CACHE_PORT" envDefault:"6379"`
	Password string        `env:"CACHE_PASSWORD"`
	LinkTTL  time.Duration `env:"CACHE_LINK_TTL" envDefault:"24h"`
}

type Auth struct {
	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"1h"`
}

type Payment struct {
	Gateway           string        `env:"PAYMENT_GATEWAY" envDefault:"sandbox"`
	GatewayEnv        string        `env:"PAYMENT_GATEWAY_ENV" envDefault:"sandbox"`
	VerifyMode        string        `env:"PAYMENT_VERIFY_MODE" envDefault:"signature"`
	Currency          string        `env:"PAYMENT_CURRENCY" envDefault:"INR"`
	Timeout           time.Duration `env:"PAYMENT_TIMEOUT" envDefault:"15s"`
	RazorpayKeyID     string        `env:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string        `env:"RAZORPAY_KEY_SECRET"`
	WebhookSecret     string        `env:"RAZORPAY_WEBHOOK_SECRET"`
	RazorpayBaseURL   string        `env:"RAZORPAY_API_BASE_URL" envDefault:"https://api.razorpay.com/v1"`
}

type Mail struct {
	SMTPHost       string `env:"SMTP_HOST"`
	SMTPPort       string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser       string `env:"SMTP_USERNAME"`
	SMTPPassword   string `env:"SMTP_PASSWORD"`
	Sender         string `env:"SMTP_SENDER" envDefault:"noreply@linkfox.local"`
	PostmarkServer string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAcct   string `env:"POSTMARK_ACCOUNT_TOKEN"`
}

type Membership struct {
	DefaultPlanID      uint `env:"DEFAULT_PLAN_ID" envDefault:"1"`
	DefaultPlanDays    int  `env:"DEFAULT_PLAN_DAYS" envDefault:"30"`
	AllowDirectUpgrade bool `env:"ALLOW_DIRECT_UPGRADE" envDefault:"false"`
	ShortCodeLength    int  `env:"SHORT_CODE_LENGTH" envDefault:"7"`
}

// Config is the full runtime configuration.
type Config struct {
	App        App
	Database   Database
	Cache      Cache
	Auth       Auth
	Payment    Payment
	Mail       Mail
	Membership Membership
	HCaptcha   string `env:"HCAPTCHA_SECRET"`
}

// Load parses the merged .env and process environment.
func Load() (*Config, error) {
	return Parse(env.Merged())
}

// Parse builds a Config from the given variables and validates it.
func Parse(vars map[string]string) (*Config, error) {
	var cfg Config
	if err := envparse.ParseWithOptions(&cfg, envparse.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.Payment.Gateway = strings.ToLower(strings.TrimSpace(cfg.Payment.Gateway))
	cfg.Payment.VerifyMode = strings.ToLower(strings.TrimSpace(cfg.Payment.VerifyMode))
	cfg.Payment.GatewayEnv = strings.ToLower(strings.TrimSpace(cfg.Payment.GatewayEnv))
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		problems = append(problems, "DB_DRIVER must be mysql or sqlite")
	}
	switch c.Payment.Gateway {
	case GatewaySandbox:
	case GatewayRazorpay:
		if c.Payment.RazorpayKeyID == "" || c.Payment.RazorpayKeySecret == "" {
			problems = append(problems, "razorpay gateway needs RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET")
		}
	default:
		problems = append(problems, "PAYMENT_GATEWAY must be razorpay or sandbox")
	}
	problems = append(problems, c.Payment.environmentProblems()...)
	switch c.Payment.VerifyMode {
	case VerifySignature:
		if c.Payment.RazorpayKeySecret == "" {
			problems = append(problems, "signature verification needs RAZORPAY_KEY_SECRET")
		}
	case VerifyPoll:
	default:
		problems = append(problems, "PAYMENT_VERIFY_MODE must be signature or poll")
	}
	if c.Payment.Timeout <= 0 {
		problems = append(problems, "PAYMENT_TIMEOUT must be positive")
	}
	if c.Membership.DefaultPlanDays < 1 || c.Membership.DefaultPlanDays > 3650 {
		problems = append(problems, "DEFAULT_PLAN_DAYS must be between 1 and 3650")
	}
	if c.Membership.ShortCodeLength < 4 || c.Membership.ShortCodeLength > 32 {
		problems = append(problems, "SHORT_CODE_LENGTH must be between 4 and 32")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) IsDev() bool { return c.App.Env == "dev" }

// ListenAddr is the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return c.App.Host + ":" + c.App.Port
}

// LoadDatabase parses only the database settings. Tools that never serve
// traffic use it to skip the full validation.
func LoadDatabase() (Database, error) {
	var db Database
	if err := envparse.ParseWithOptions(&db, envparse.Options{Environment: env.Merged()}); err != nil {
		return db, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	db.Driver = strings.ToLower(strings.TrimSpace(db.Driver))
	return db, nil
}

// IsProduction reports whether real money moves through the gateway.
func (p Payment) IsProduction() bool { return p.GatewayEnv == GatewayEnvProduction }

// environmentProblems keeps the gateway, its keys and the webhook secret
// consistent with PAYMENT_GATEWAY_ENV.
func (p Payment) environmentProblems() []string {
	var problems []string
	switch p.GatewayEnv {
	case GatewayEnvSandbox, GatewayEnvProduction:
	default:
		return []string{"PAYMENT_GATEWAY_ENV must be sandbox or production"}
	}
	if p.IsProduction() && p.Gateway == GatewaySandbox {
		problems = append(problems, "the sandbox gateway cannot run with PAYMENT_GATEWAY_ENV=production")
	}
	if (p.Gateway == GatewayRazorpay || p.IsProduction()) && strings.TrimSpace(p.WebhookSecret) == "" {
		problems = append(problems, "RAZORPAY_WEBHOOK_SECRET is required for the razorpay gateway and in production")
	}
	if p.Gateway == GatewayRazorpay && p.RazorpayKeyID != "" {
		want := razorpayTestKeyPrefix
		if p.IsProduction() {
			want = razorpayLiveKeyPrefix
		}
		if !strings.HasPrefix(p.RazorpayKeyID, want) {
			problems = append(problems, fmt.Sprintf("RAZORPAY_KEY_ID must start with %s when PAYMENT_GATEWAY_ENV=%s", want, p.GatewayEnv))
		}
	}
	return problems
}
