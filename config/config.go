package config

import (
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Server struct {
		Port           string   `env:"SERVER_PORT" envDefault:"5250"`
		AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
		// Maximum time to wait for in-flight requests on shutdown (in seconds)
		ShutdownTimeout int `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10"`
	}

	Database struct {
		Path string `env:"DATABASE_PATH" envDefault:"database/househunt.db"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL" envDefault:"info"`
	}

	// BatchProcessing configuration
	BatchProcessing struct {
		// Maximum number of properties to accumulate before processing
		MaxBatchSize int `env:"BATCH_MAX_SIZE" envDefault:"100"`

		// Capacity of the rescore queue (in batches)
		QueueSize int `env:"BATCH_QUEUE_SIZE" envDefault:"100"`

		// Number of concurrent batch processors
		ProcessorCount int `env:"BATCH_PROCESSOR_COUNT" envDefault:"2"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`
	}

	Geocoding struct {
		Enabled   bool   `env:"GEOCODING_ENABLED" envDefault:"true"`
		BaseURL   string `env:"GEOCODING_BASE_URL" envDefault:"https://nominatim.openstreetmap.org"`
		Country   string `env:"GEOCODING_COUNTRY" envDefault:"nl"`
		UserAgent string `env:"GEOCODING_USER_AGENT" envDefault:"househunt/1.0"`
		CacheFile string `env:"GEOCODING_CACHE_FILE" envDefault:"cache/geocoding.json"`
		// Pause between live requests in milliseconds
		RequestDelay int `env:"GEOCODING_REQUEST_DELAY" envDefault:"1000"`
	}

	Scheduler struct {
		// Interval of the coordinates backfill job in minutes, 0 disables it
		GeocodeInterval int `env:"SCHEDULER_GEOCODE_INTERVAL" envDefault:"60"`
		// Interval of the stale score report in minutes, 0 disables it
		StaleReportInterval int `env:"SCHEDULER_STALE_REPORT_INTERVAL" envDefault:"720"`
	}

	Telegram struct {
		BotToken string `env:"TELEGRAM_BOT_TOKEN"`
		ChatID   int64  `env:"TELEGRAM_CHAT_ID"`
		// Alert when a property's score rises to or above this value
		ScoreThreshold int `env:"TELEGRAM_SCORE_THRESHOLD" envDefault:"80"`
	}

	Presets struct {
		Path string `env:"CRITERIA_PRESETS_PATH" envDefault:"config/criteria_presets.json"`
	}
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.BatchProcessing.RetryDelay) * time.Second
}

func (c *Config) GeocodeRequestDelay() time.Duration {
	return time.Duration(c.Geocoding.RequestDelay) * time.Millisecond
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeout) * time.Second
}

// TelegramEnabled reports whether alerts can be delivered
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != 0
}
