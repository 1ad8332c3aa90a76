package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	Analytics  AnalyticsConfig
	Report     ReportConfig
	SeatGeek   SeatGeekConfig
	StubHub    StubHubConfig
	Partnerize PartnerizeConfig
	Redis      RedisConfig
}

type AppConfig struct {
	Port            string        `envconfig:"CFP_PORT" default:"8080"`
	LogLevel        string        `envconfig:"CFP_LOG_LEVEL" default:"info"`
	HTTPTimeout     time.Duration `envconfig:"CFP_HTTP_TIMEOUT" default:"15s"`
	DefaultProvider string        `envconfig:"CFP_DEFAULT_PROVIDER"`
}

type AnalyticsConfig struct {
	BaseURL    string `envconfig:"CFP_ANALYTICS_BASE_URL" required:"true"`
	ClickLimit int    `envconfig:"CFP_ANALYTICS_CLICK_LIMIT" default:"200"`
}

type ReportConfig struct {
	ExportPrefix      string `envconfig:"CFP_REPORT_EXPORT_PREFIX" default:"cfp-affiliate-report"`
	DefaultWindowDays int    `envconfig:"CFP_REPORT_WINDOW_DAYS" default:"30"`
}

type SeatGeekConfig struct {
	WebBase       string `envconfig:"SEATGEEK_WEB_BASE" default:"https://seatgeek.com"`
	AffiliateCode string `envconfig:"SEATGEEK_AFFILIATE_CODE"`
}

type StubHubConfig struct {
	WebBase       string `envconfig:"STUBHUB_WEB_BASE" default:"https://www.stubhub.com"`
	AffiliateCode string `envconfig:"STUBHUB_AFFILIATE_CODE"`
}

type PartnerizeConfig struct {
	BaseURL    string `envconfig:"PARTNERIZE_BASE_URL" default:"https://api.partnerize.com"`
	AppKey     string `envconfig:"PARTNERIZE_APP_KEY"`
	UserAPIKey string `envconfig:"PARTNERIZE_USER_API_KEY"`
}

// RedisConfig holds the optional ops-store connection. An empty URL means the
// in-memory backend is used.
type RedisConfig struct {
	URL string `envconfig:"REDIS_URL"`
}

// Load reads a local .env if present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}
