package config

import (
	"github.com/ilyakaznacheev/cleanenv"
)

// Configはアプリ全体の設定。環境変数から読む。
type Config struct {
	Port  string `env:"PORT" env-default:"8080"`
	GoEnv string `env:"GO_ENV" env-default:"local"` // local/dev/prod

	DatabaseURL      string `env:"DATABASE_URL"` // あれば個別項目より優先
	PostgresUser     string `env:"POSTGRES_USER" env-default:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" env-default:"postgres"`
	PostgresDB       string `env:"POSTGRES_DB" env-default:"freshleap"`
	PostgresHost     string `env:"POSTGRES_HOST" env-default:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" env-default:"5432"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" env-default:"disable"`

	JWTSecret string `env:"JWT_SECRET" env-required:"true"`

	APIDomain string `env:"API_DOMAIN" env-default:"http://localhost:8080"` // 認証メールのリンクで使う
	FEURL     string `env:"FE_URL" env-default:"http://localhost:3000"`     // CORSと決済リダイレクトで使う

	// Stripe
	StripeSecretKey    string `env:"STRIPE_SECRET_KEY" env-required:"true"`
	CheckoutSuccessURL string `env:"CHECKOUT_SUCCESS_URL"` // 空ならFEURLから組み立て
	CheckoutCancelURL  string `env:"CHECKOUT_CANCEL_URL"`
	Currency           string `env:"CURRENCY" env-default:"usd"`

	// SMTP（空ならログ出力のみの開発用メーラー）
	SMTPAddr string `env:"SMTP_ADDR"`
	SMTPFrom string `env:"SMTP_FROM" env-default:"no-reply@freshleap.example"`

	// Kafka（空ならイベント発行は無効）
	KafkaBrokers string `env:"KAFKA_BROKERS"`
	KafkaTopic   string `env:"KAFKA_TOPIC" env-default:"freshleap.orders"`

	// Redis（空ならゲストカートは無効）
	RedisAddr string `env:"REDIS_ADDR"`

	MigrationsPath string `env:"MIGRATIONS_PATH" env-default:"./migrations"`
}

// DBConfig はDBだけ必要なコマンド（migratorなど）用。
// JWTやStripeの必須チェックを引きずらない。
type DBConfig struct {
	DatabaseURL      string `env:"DATABASE_URL"`
	PostgresUser     string `env:"POSTGRES_USER" env-default:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" env-default:"postgres"`
	PostgresDB       string `env:"POSTGRES_DB" env-default:"freshleap"`
	PostgresHost     string `env:"POSTGRES_HOST" env-default:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" env-default:"5432"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" env-default:"disable"`
	MigrationsPath   string `env:"MIGRATIONS_PATH" env-default:"./migrations"`
}

func LoadDB() (DBConfig, error) {
	var cfg DBConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return DBConfig{}, err
	}
	return cfg, nil
}

// Loadは環境変数から設定を読む。必須が無ければエラー。
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.CheckoutSuccessURL == "" {
		cfg.CheckoutSuccessURL = cfg.FEURL + "/checkout/success"
	}
	if cfg.CheckoutCancelURL == "" {
		cfg.CheckoutCancelURL = cfg.FEURL + "/cart"
	}

	return cfg, nil
}
