package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port     string // サーバーポート（8080）
	GoEnv    string // development/production
	LogLevel string // debug/info/warn/error

	DatabaseURL      string // あれば POSTGRES_* より優先
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string
	MigrateOnStart   bool

	AuthJWTSecret  string   // 認証プロバイダのJWT署名シークレット
	AuthCookieName string   // Bearerが無いときに読むcookie名
	AdminEmails    []string // 初期管理者（ブートストラップのみ）

	SiteURL             string // 決済後の戻り先
	StripeSecretKey     string
	StripeWebhookSecret string

	ResendAPIKey           string // 空ならログ出力のみ
	EmailFrom              string
	OwnerNotificationEmail string // 空なら店舗向け通知はしない

	CheckoutRatePerMin int
	CheckoutRateBurst  int
	TrustProxy         bool // trueならプライベート網のプロキシが付けたX-Forwarded-Forを使う

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int

	KafkaBrokers  []string // 空ならイベントは配信しない
	KafkaClientID string
}

// Loadは環境変数
func Load() (Config, error) {
	cfg, err := LoadDatabase()
	if err != nil {
		return Config{}, err
	}
	migrate, err := boolDefault("MIGRATE_ON_START", false)
	if err != nil {
		return Config{}, err
	}
	trustProxy, err := boolDefault("TRUST_PROXY", false)
	if err != nil {
		return Config{}, err
	}
	ratePerMin, err := atoiDefault("CHECKOUT_RATE_PER_MIN", 10)
	if err != nil {
		return Config{}, err
	}
	rateBurst, err := atoiDefault("CHECKOUT_RATE_BURST", 5)
	if err != nil {
		return Config{}, err
	}
	pollInterval, err := durationDefault("OUTBOX_POLL_INTERVAL", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	batchSize, err := atoiDefault("OUTBOX_BATCH_SIZE", 20)
	if err != nil {
		return Config{}, err
	}
	maxAttempts, err := atoiDefault("OUTBOX_MAX_ATTEMPTS", 5)
	if err != nil {
		return Config{}, err
	}

	cfg.MigrateOnStart = migrate

	cfg.AuthJWTSecret = os.Getenv("AUTH_JWT_SECRET")
	cfg.AuthCookieName = getenv("AUTH_COOKIE_NAME", "sb-access-token")
	cfg.AdminEmails = splitList(os.Getenv("ADMIN_EMAILS"))

	cfg.SiteURL = strings.TrimRight(os.Getenv("SITE_URL"), "/")
	cfg.StripeSecretKey = os.Getenv("STRIPE_SECRET_KEY")
	cfg.StripeWebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")

	cfg.ResendAPIKey = os.Getenv("RESEND_API_KEY")
	cfg.EmailFrom = getenv("EMAIL_FROM", "Dani Candles <orders@danicandles.com>")
	cfg.OwnerNotificationEmail = os.Getenv("OWNER_NOTIFICATION_EMAIL")

	cfg.CheckoutRatePerMin = ratePerMin
	cfg.CheckoutRateBurst = rateBurst
	cfg.TrustProxy = trustProxy

	cfg.OutboxPollInterval = pollInterval
	cfg.OutboxBatchSize = batchSize
	cfg.OutboxMaxAttempts = maxAttempts

	cfg.KafkaBrokers = splitList(os.Getenv("KAFKA_BROKERS"))
	cfg.KafkaClientID = getenv("KAFKA_CLIENT_ID", "danicandles-api")

	//必須チェック
	if cfg.AuthJWTSecret == "" {
		return Config{}, fmt.Errorf("AUTH_JWT_SECRET is required")
	}
	if cfg.SiteURL == "" {
		return Config{}, fmt.Errorf("SITE_URL is required")
	}
	if cfg.StripeSecretKey == "" {
		return Config{}, fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if cfg.StripeWebhookSecret == "" {
		return Config{}, fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}
	if cfg.CheckoutRatePerMin <= 0 || cfg.CheckoutRateBurst <= 0 {
		return Config{}, fmt.Errorf("CHECKOUT_RATE_PER_MIN and CHECKOUT_RATE_BURST must be positive")
	}
	if cfg.OutboxBatchSize <= 0 || cfg.OutboxMaxAttempts <= 0 || cfg.OutboxPollInterval <= 0 {
		return Config{}, fmt.Errorf("OUTBOX_* must be positive")
	}

	return cfg, nil
}

// LoadDatabase はDB接続とログの設定だけを読む（cmd/migrate用）
func LoadDatabase() (Config, error) {
	pgPort, err := atoiDefault("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:     getenv("PORT", "8080"),
		GoEnv:    getenv("GO_ENV", "development"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),
	}

	if cfg.DatabaseURL == "" {
		if cfg.PostgresUser == "" {
			return Config{}, fmt.Errorf("DATABASE_URL or POSTGRES_USER is required")
		}
		if cfg.PostgresDB == "" {
			return Config{}, fmt.Errorf("DATABASE_URL or POSTGRES_DB is required")
		}
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.GoEnv == "production" || c.GoEnv == "prod"
}

// DSN は gorm / goose 共通の接続文字列
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func boolDefault(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be bool: %w", key, err)
	}
	return b, nil
}

func durationDefault(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration (e.g. 5s): %w", key, err)
	}
	return d, nil
}

// カンマ区切り。空要素は捨てる
func splitList(v string) []string {
	out := []string{}
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
