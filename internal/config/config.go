package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Env      string `env:"APP_ENV" env-default:"local"`
	HTTP     HTTP
	Database Database
	FastPay  FastPay
	Identity Identity
	Sweeper  Sweeper
}

type HTTP struct {
	Addr            string        `env:"HTTP_ADDR" env-default:":8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

type Database struct {
	Host     string `env:"LMS_DB_HOST" env-default:"localhost"`
	Port     string `env:"LMS_DB_PORT" env-default:"5432"`
	Username string `env:"LMS_DB_USERNAME" env-default:"postgres"`
	Password string `env:"LMS_DB_PASSWORD" env-default:"postgres"`
	Database string `env:"LMS_DB_DATABASE" env-default:"lms"`
	Schema   string `env:"LMS_DB_SCHEMA" env-default:"public"`
}

type FastPay struct {
	APIURL        string        `env:"FASTPAY_API_URL"`
	APIKey        string        `env:"FASTPAY_API_KEY"`
	WebhookSecret string        `env:"FASTPAY_WEBHOOK_SECRET" env-required:"true"`
	SuccessURL    string        `env:"CHECKOUT_SUCCESS_URL" env-default:"http://localhost:3000/loading/my-enrollments"`
	CancelURL     string        `env:"CHECKOUT_CANCEL_URL" env-default:"http://localhost:3000/course"`
	Tolerance     time.Duration `env:"FASTPAY_SIGNATURE_TOLERANCE" env-default:"5m"`
}

type Identity struct {
	WebhookSecret string        `env:"IDENTITY_WEBHOOK_SECRET" env-required:"true"`
	Tolerance     time.Duration `env:"IDENTITY_SIGNATURE_TOLERANCE" env-default:"5m"`
}

type Sweeper struct {
	Interval   time.Duration `env:"SWEEPER_INTERVAL" env-default:"5m"`
	PendingTTL time.Duration `env:"CHECKOUT_PENDING_TTL" env-default:"24h"`
	BatchSize  int           `env:"SWEEPER_BATCH_SIZE" env-default:"100"`
}

func MustLoad() Config {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("error loading config: %v", err)
	}
	return cfg
}
