package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL"`
	DatabaseURL string `env:"DATABASE_URL"`

	Auth     Auth     `envPrefix:"AUTH_"`
	Mollie   Mollie   `envPrefix:"MOLLIE_"`
	Storage  Storage  `envPrefix:"STORAGE_"`
	SMTP     SMTP     `envPrefix:"SMTP_"`
	Checkout Checkout `envPrefix:"CHECKOUT_"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

type Auth struct {
	// JWTSecret verifies bearer tokens issued by the identity provider.
	JWTSecret string `env:"JWT_SECRET"`
}

type Mollie struct {
	BaseApiURL string `env:"BASE_API_URL" envDefault:"https://api.mollie.com/v2"`
	APIKey     string `env:"API_KEY"`
}

// Configured reports whether a live payment provider is available.
func (m Mollie) Configured() bool {
	return m.APIKey != ""
}

type Storage struct {
	BaseURL    string `env:"BASE_URL"`
	ServiceKey string `env:"SERVICE_KEY"`
	Bucket     string `env:"BUCKET" envDefault:"product-files"`
}

type SMTP struct {
	Host        string `env:"HOST"`
	Port        int    `env:"PORT" envDefault:"587"`
	Username    string `env:"USERNAME"`
	Password    string `env:"PASSWORD"`
	FromAddress string `env:"FROM_ADDRESS"`
	FromName    string `env:"FROM_NAME" envDefault:"LittleFidan"`
}

type Checkout struct {
	// AllowDevFallback lets checkout confirm orders locally when NO payment
	// provider is configured. It has no effect when a provider is configured:
	// a reachable provider is always authoritative and an unreachable one
	// fails the checkout instead of silently succeeding.
	AllowDevFallback bool `env:"ALLOW_DEV_FALLBACK" envDefault:"false"`
}
