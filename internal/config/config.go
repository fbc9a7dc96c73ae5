package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	Database Database
	Redis    Redis  `envPrefix:"REDIS_"`
	Stripe   Stripe `envPrefix:"STRIPE_"`
	Webhook  Webhook
}

type Stripe struct {
	SecretKey          string `env:"SECRET_KEY,required"`
	WebhookSecret      string `env:"WEBHOOK_SECRET,required"`
	Currency           string `env:"CURRENCY" envDefault:"usd"`
	PlatformFeePercent int64  `env:"PLATFORM_FEE_PERCENT" envDefault:"10"`
}

type Database struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite"` // sqlite, mysql
	URL    string `env:"DATABASE_URL" envDefault:"marketplace.db"`
}

// Redis is optional. An empty Addr disables the delivery lock.
type Redis struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type Webhook struct {
	RateLimit float64 `env:"WEBHOOK_RATE_LIMIT" envDefault:"20"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

func (e Environment) IsProduction() bool {
	return e.Name == "production"
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
