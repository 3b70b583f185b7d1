package global

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

// Config is the process configuration, read from the environment (and .env).
type Config struct {
	Port     string `envconfig:"PORT" default:"5001"`
	Env      string `envconfig:"ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	MongoURI      string `envconfig:"MONGODB_URI"`
	MongoDatabase string `envconfig:"MONGODB_DATABASE" default:"roots_to_farm"`

	RedisAddress  string `envconfig:"REDIS_ADDRESS" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	JWTSecret string        `envconfig:"JWT_SECRET"`
	JWTExpire time.Duration `envconfig:"JWT_EXPIRE" default:"168h"`

	ClientURLs      string        `envconfig:"CLIENT_URLS" default:"http://localhost:3000,http://localhost:5173"`
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"100"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"15m"`

	SMTPHost string `envconfig:"SMTP_HOST"`
	SMTPPort int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser string `envconfig:"SMTP_USER"`
	SMTPPass string `envconfig:"SMTP_PASS"`
	SMTPFrom string `envconfig:"SMTP_FROM"`

	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	StripeCurrency      string `envconfig:"STRIPE_CURRENCY" default:"usd"`

	KafkaBrokers string `envconfig:"KAFKA_BROKERS"`

	AzureOpenAIEndpoint   string `envconfig:"AZURE_OPENAI_ENDPOINT"`
	AzureOpenAIAPIKey     string `envconfig:"AZURE_OPENAI_API_KEY"`
	AzureOpenAIDeployment string `envconfig:"AZURE_OPENAI_DEPLOYMENT_NAME" default:"gpt-35-turbo"`

	TracingStdout     bool `envconfig:"TRACING_STDOUT" default:"false"`
	LowStockThreshold int  `envconfig:"LOW_STOCK_THRESHOLD" default:"10"`
}

// LoadConfig loads envFile (when present) and then the process environment.
func LoadConfig(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			log.Printf("No %s file found, using process environment", envFile)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) AllowedOrigins() []string {
	return SplitList(c.ClientURLs)
}

func (c *Config) Brokers() []string {
	return SplitList(c.KafkaBrokers)
}
