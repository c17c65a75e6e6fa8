package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL      string // あれば最優先
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	JWTSecret string // JWT署名シークレット（ID基盤と共有）

	RedisAddr      string        // 空なら決済ロックなし
	PaymentLockTTL time.Duration // 同じ取引IDの同時処理を防ぐ時間

	KafkaBrokers string // CSV。空ならログ通知のみ
	KafkaTopic   string

	TaxPercent           int64  // 税率（%）
	PaymentWebhookSecret string // 空なら署名検証しない

	LogLevel string
	GoEnv    string // dev/prod
}

// .env（あれば）→ 環境変数 の順で読む
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_DB", "app")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("PAYMENT_LOCK_TTL", "30s")
	v.SetDefault("KAFKA_TOPIC", "shopcart.order-confirmed")
	v.SetDefault("TAX_PERCENT", 2)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("GO_ENV", "dev")

	cfg := Config{
		Port: strings.TrimPrefix(v.GetString("PORT"), ":"),

		DatabaseURL:      v.GetString("DATABASE_URL"),
		PostgresUser:     v.GetString("POSTGRES_USER"),
		PostgresPassword: v.GetString("POSTGRES_PASSWORD"),
		PostgresDB:       v.GetString("POSTGRES_DB"),
		PostgresHost:     v.GetString("POSTGRES_HOST"),
		PostgresPort:     v.GetInt("POSTGRES_PORT"),
		PostgresSSLMode:  v.GetString("POSTGRES_SSLMODE"),

		JWTSecret: v.GetString("JWT_SECRET"),

		RedisAddr:      v.GetString("REDIS_ADDR"),
		PaymentLockTTL: v.GetDuration("PAYMENT_LOCK_TTL"),

		KafkaBrokers: v.GetString("KAFKA_BROKERS"),
		KafkaTopic:   v.GetString("KAFKA_TOPIC"),

		TaxPercent:           v.GetInt64("TAX_PERCENT"),
		PaymentWebhookSecret: v.GetString("PAYMENT_WEBHOOK_SECRET"),

		LogLevel: v.GetString("LOG_LEVEL"),
		GoEnv:    v.GetString("GO_ENV"),
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.DatabaseURL == "" && cfg.PostgresPassword == "" {
		return Config{}, fmt.Errorf("DATABASE_URL or POSTGRES_PASSWORD is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.TaxPercent < 0 || cfg.TaxPercent > 100 {
		return Config{}, fmt.Errorf("TAX_PERCENT must be between 0 and 100")
	}
	if cfg.PaymentLockTTL <= 0 {
		return Config{}, fmt.Errorf("PAYMENT_LOCK_TTL must be positive")
	}

	return cfg, nil
}

// gorm.io/driver/postgres 用のDSN
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}
