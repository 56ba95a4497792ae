package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR,default=:8000"`

	DBHost            string        `env:"DB_HOST,required"`
	DBPort            int           `env:"DB_PORT,default=5432"`
	DBUser            string        `env:"DB_USER,required"`
	DBPassword        string        `env:"DB_PASSWORD,required"`
	DBName            string        `env:"DB_NAME,required"`
	DBSSLMode         string        `env:"DB_SSLMODE,default=disable"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=10"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=25"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`

	RedstoneBaseURL string        `env:"REDSTONE_BASE_URL,default=https://api.redstone.finance/prices"`
	RedstoneTimeout time.Duration `env:"REDSTONE_TIMEOUT,default=10s"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB,default=0"`
	PriceCacheTTL time.Duration `env:"PRICE_CACHE_TTL,default=15s"`

	EngineInterval   time.Duration `env:"ENGINE_INTERVAL,default=30s"`
	DispatchTimeout  time.Duration `env:"DISPATCH_TIMEOUT,default=10s"`
	SupportedSymbols []string      `env:"SUPPORTED_SYMBOLS,default=BTC,ETH,SOL,AAVE,UNI,SUSHI,COMP,MKR,SNX,CRV,1INCH,USDC,USDT"`

	LLMBaseURL string        `env:"LLM_BASE_URL"`
	LLMModel   string        `env:"LLM_MODEL,default=llama3"`
	LLMTimeout time.Duration `env:"LLM_TIMEOUT,default=30s"`

	ResendAPIKey    string `env:"RESEND_API_KEY"`
	ResendBaseURL   string `env:"RESEND_BASE_URL,default=https://api.resend.com"`
	EmailFrom       string `env:"EMAIL_FROM,default=alerts@tokentalk.app"`
	VAPIDPublicKey  string `env:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `env:"VAPID_PRIVATE_KEY"`
	VAPIDSubscriber string `env:"VAPID_SUBSCRIBER,default=mailto:admin@tokentalk.app"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
}

func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
