package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/alignwork/agenda/internal/platform/tz"
)

type Config struct {
	Port            string        `mapstructure:"PORT"`
	Env             string        `mapstructure:"ENV"`
	APIURL          string        `mapstructure:"API_URL"`
	APITimeout      time.Duration `mapstructure:"API_TIMEOUT"`
	LookupTimeout   time.Duration `mapstructure:"LOOKUP_TIMEOUT"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ViaCEPURL       string        `mapstructure:"VIACEP_URL"`
	IBGEURL         string        `mapstructure:"IBGE_URL"`
	DefaultTenant   string        `mapstructure:"DEFAULT_TENANT"`
	DisplayTimezone string        `mapstructure:"DISPLAY_TIMEZONE"`
	StateFile       string        `mapstructure:"STATE_FILE"`
	CORSOrigins     []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS    float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst  int           `mapstructure:"RATE_LIMIT_BURST"`
	CacheStaleTime  time.Duration `mapstructure:"CACHE_STALE_TIME"`
	UpcomingLimit   int           `mapstructure:"UPCOMING_LIMIT"`
	SlotPolicy      string        `mapstructure:"SLOT_POLICY"`
	BodyLimit       string        `mapstructure:"BODY_LIMIT"`
}

var keys = []string{
	"PORT", "ENV", "API_URL", "API_TIMEOUT", "LOOKUP_TIMEOUT", "REQUEST_TIMEOUT",
	"VIACEP_URL", "IBGE_URL", "DEFAULT_TENANT", "DISPLAY_TIMEZONE", "STATE_FILE",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "CACHE_STALE_TIME",
	"UPCOMING_LIMIT", "SLOT_POLICY", "BODY_LIMIT",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("API_URL", "http://localhost:8000")
	v.SetDefault("API_TIMEOUT", "0s")
	v.SetDefault("LOOKUP_TIMEOUT", "10s")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("VIACEP_URL", "https://viacep.com.br/ws")
	v.SetDefault("IBGE_URL", "https://servicodados.ibge.gov.br/api/v1/localidades")
	v.SetDefault("DEFAULT_TENANT", "default-tenant")
	v.SetDefault("DISPLAY_TIMEZONE", tz.DefaultZoneName)
	v.SetDefault("STATE_FILE", "./.alignwork-state.json")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("CACHE_STALE_TIME", "30s")
	v.SetDefault("UPCOMING_LIMIT", 15)
	v.SetDefault("SLOT_POLICY", "point-match")
	v.SetDefault("BODY_LIMIT", "1M")

	for _, k := range keys {
		v.BindEnv(k)
	}

	// .env is optional.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(strings.Join(cfg.CORSOrigins, ","))

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is usable before anything starts.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{"API_URL": c.APIURL, "VIACEP_URL": c.ViaCEPURL, "IBGE_URL": c.IBGEURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}
	if _, err := tz.Load(c.DisplayTimezone); err != nil {
		return fmt.Errorf("DISPLAY_TIMEZONE: %w", err)
	}
	if c.APITimeout < 0 || c.LookupTimeout < 0 || c.RequestTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative")
	}
	if c.UpcomingLimit < 0 {
		return fmt.Errorf("UPCOMING_LIMIT must not be negative")
	}
	switch c.SlotPolicy {
	case "", "point-match", "overlap":
	default:
		return fmt.Errorf("SLOT_POLICY must be \"point-match\" or \"overlap\", got %q", c.SlotPolicy)
	}
	if c.IsProduction() && len(c.CORSOrigins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required in production")
	}
	return nil
}
