package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Gateway  GatewayConfig
	Payments PaymentsConfig
	Catalog  CatalogConfig
	Referral ReferralConfig
	Admin    AdminConfig
	Cron     CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if len(cfg.Catalog.Pincodes()) == 0 {
		return nil, fmt.Errorf("%s must list at least one pincode", EnvServicePincodes)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BALUTEDAAR_APP_ENV" required:"true"`
	Port         string `envconfig:"BALUTEDAAR_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BALUTEDAAR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BALUTEDAAR_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"BALUTEDAAR_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BALUTEDAAR_DB_DSN"`
	Driver string `envconfig:"BALUTEDAAR_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"BALUTEDAAR_DB_HOST"`
	Port     int    `envconfig:"BALUTEDAAR_DB_PORT" default:"5432"`
	User     string `envconfig:"BALUTEDAAR_DB_USER"`
	Password string `envconfig:"BALUTEDAAR_DB_PASSWORD"`
	Name     string `envconfig:"BALUTEDAAR_DB_NAME"`
	SSLMode  string `envconfig:"BALUTEDAAR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BALUTEDAAR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BALUTEDAAR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BALUTEDAAR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BALUTEDAAR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BALUTEDAAR_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BALUTEDAAR_REDIS_ADDR"`
	Password     string        `envconfig:"BALUTEDAAR_REDIS_PASSWORD"`
	DB           int           `envconfig:"BALUTEDAAR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BALUTEDAAR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BALUTEDAAR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BALUTEDAAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BALUTEDAAR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BALUTEDAAR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// GatewayConfig configures the outbound WhatsApp message provider.
type GatewayConfig struct {
	BaseURL     string        `envconfig:"BALUTEDAAR_GATEWAY_BASE_URL" default:"https://apis.rmlconnect.net"`
	AuthKey     string        `envconfig:"BALUTEDAAR_GATEWAY_AUTH_KEY" required:"true"`
	Timeout     time.Duration `envconfig:"BALUTEDAAR_GATEWAY_TIMEOUT" default:"10s"`
	MaxRetries  int           `envconfig:"BALUTEDAAR_GATEWAY_MAX_RETRIES" default:"3"`
	CountryCode string        `envconfig:"BALUTEDAAR_GATEWAY_COUNTRY_CODE" default:"+91"`
}

// PaymentsConfig configures the payment-link provider key pair.
type PaymentsConfig struct {
	BaseURL     string        `envconfig:"BALUTEDAAR_PAYMENTS_BASE_URL" default:"https://api.razorpay.com/v1"`
	KeyID       string        `envconfig:"BALUTEDAAR_PAYMENTS_KEY_ID" required:"true"`
	KeySecret   string        `envconfig:"BALUTEDAAR_PAYMENTS_KEY_SECRET" required:"true"`
	CallbackURL string        `envconfig:"BALUTEDAAR_PAYMENTS_CALLBACK_URL" required:"true"`
	Timeout     time.Duration `envconfig:"BALUTEDAAR_PAYMENTS_TIMEOUT" default:"10s"`
	MaxRetries  int           `envconfig:"BALUTEDAAR_PAYMENTS_MAX_RETRIES" default:"3"`
}

type CatalogConfig struct {
	CatalogID       string `envconfig:"BALUTEDAAR_CATALOG_ID" required:"true"`
	ServicePincodes string `envconfig:"BALUTEDAAR_SERVICE_PINCODES" default:"411038,411052,411058,411041"`
}

// Pincodes returns the supported service-area pincodes.
func (c CatalogConfig) Pincodes() []string {
	parts := strings.Split(c.ServicePincodes, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type ReferralConfig struct {
	FlatDiscount  string `envconfig:"BALUTEDAAR_REFERRAL_FLAT_DISCOUNT" default:"20"`
	RewardPoints  int    `envconfig:"BALUTEDAAR_REFERRAL_REWARD_POINTS" default:"50"`
	UsageLimit    int    `envconfig:"BALUTEDAAR_REFERRAL_USAGE_LIMIT" default:"5"`
	MaxAgeDays    int    `envconfig:"BALUTEDAAR_REFERRAL_MAX_AGE_DAYS" default:"30"`
	MilestoneSize int    `envconfig:"BALUTEDAAR_REFERRAL_MILESTONE_SIZE" default:"5"`
}

// FlatDiscountAmount parses the configured flat discount, falling back to zero.
func (r ReferralConfig) FlatDiscountAmount() decimal.Decimal {
	amount, err := decimal.NewFromString(strings.TrimSpace(r.FlatDiscount))
	if err != nil || amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

type AdminConfig struct {
	Username   string        `envconfig:"BALUTEDAAR_ADMIN_USERNAME" required:"true"`
	Password   string        `envconfig:"BALUTEDAAR_ADMIN_PASSWORD" required:"true"`
	JWTSecret  string        `envconfig:"BALUTEDAAR_ADMIN_JWT_SECRET" required:"true"`
	JWTIssuer  string        `envconfig:"BALUTEDAAR_ADMIN_JWT_ISSUER" default:"balutedaar"`
	SessionTTL time.Duration `envconfig:"BALUTEDAAR_ADMIN_SESSION_TTL" default:"12h"`
}

type CronConfig struct {
	PendingPaymentCutoff time.Duration `envconfig:"BALUTEDAAR_CRON_PENDING_PAYMENT_CUTOFF" default:"2h"`
	Interval             time.Duration `envconfig:"BALUTEDAAR_CRON_INTERVAL" default:"30m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
