package config

import "github.com/kelseyhightower/envconfig"

// Config holds application configuration loaded from environment variables.
type Config struct {
	DBPath    string `envconfig:"DB_PATH" default:"./data/happy.db"`
	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	DefaultTZ string `envconfig:"DEFAULT_TZ" default:"America/New_York"`

	AppURL   string `envconfig:"APP_URL" default:"https://do-it-app.vercel.app"`
	FromName string `envconfig:"FROM_NAME" default:"Happy"`

	// Text generation (x.ai chat completions, OpenAI-compatible).
	GrokAPIKey  string `envconfig:"GROK_API_KEY" required:"true"`
	GrokBaseURL string `envconfig:"GROK_BASE_URL" default:"https://api.x.ai/v1"`
	GrokModel   string `envconfig:"GROK_MODEL" default:"grok-3-mini"`

	// Gmail delivery (OAuth2 refresh-token grant).
	GmailClientID     string `envconfig:"GMAIL_CLIENT_ID" required:"true"`
	GmailClientSecret string `envconfig:"GMAIL_CLIENT_SECRET" required:"true"`
	GmailRefreshToken string `envconfig:"GMAIL_REFRESH_TOKEN" required:"true"`
	FromEmail         string `envconfig:"FROM_EMAIL" default:"randomoranges.apps@gmail.com"`

	// Built-in cron loop driving scheduled jobs. When disabled, an external
	// scheduler is expected to POST /jobs instead.
	CronEnabled  bool   `envconfig:"CRON_ENABLED" default:"true"`
	CronInterval string `envconfig:"CRON_INTERVAL" default:"15m"`
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
