// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Transport names accepted by server.transport.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Site    SiteConfig    `mapstructure:"site"`
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls how the tool server is exposed.
type ServerConfig struct {
	Port      int    `mapstructure:"port"`
	Transport string `mapstructure:"transport"`
}

// SiteConfig names the listing site every tool reads from.
type SiteConfig struct {
	Origin string `mapstructure:"origin"`
}

// CrawlerConfig governs outbound identity and robots.txt handling.
type CrawlerConfig struct {
	UserAgent      string  `mapstructure:"user_agent"`
	RobotsAgent    string  `mapstructure:"robots_agent"`
	Accept         string  `mapstructure:"accept"`
	AcceptLanguage string  `mapstructure:"accept_language"`
	IgnoreRobots   bool    `mapstructure:"ignore_robots"`
	RobotsPreload  bool    `mapstructure:"robots_preload"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("STAYSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindEnvAliases(v); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	applyIgnoreRobotsAlias(v, &cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.transport", TransportHTTP)
	v.SetDefault("site.origin", "https://www.airbnb.com")
	v.SetDefault("crawler.user_agent", "Mozilla/5.0 (compatible; StayScoutBot/1.0; +https://github.com/JakeFAU/stayscout)")
	v.SetDefault("crawler.robots_agent", "StayScoutBot")
	v.SetDefault("crawler.accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	v.SetDefault("crawler.accept_language", "en-US,en;q=0.5")
	v.SetDefault("crawler.ignore_robots", false)
	v.SetDefault("crawler.robots_preload", true)
	v.SetDefault("crawler.rate_limit_rps", 0)
	v.SetDefault("crawler.rate_limit_burst", 1)
	v.SetDefault("logging.development", false)
}

// ignoreRobotsAliasKey holds the raw IGNORE_ROBOTS_TXT value. It is decoded
// by hand because deployments set it to arbitrary strings.
const ignoreRobotsAliasKey = "compat.ignore_robots_txt"

// applyIgnoreRobotsAlias maps IGNORE_ROBOTS_TXT onto crawler.ignore_robots.
// Only "true" and "1" disable enforcement; the prefixed variable wins when both are set.
func applyIgnoreRobotsAlias(v *viper.Viper, cfg *Config) {
	raw := strings.TrimSpace(v.GetString(ignoreRobotsAliasKey))
	if raw == "" {
		return
	}
	if _, ok := os.LookupEnv("STAYSCOUT_CRAWLER_IGNORE_ROBOTS"); ok {
		return
	}
	switch strings.ToLower(raw) {
	case "true", "1":
		cfg.Crawler.IgnoreRobots = true
	default:
		cfg.Crawler.IgnoreRobots = false
	}
}

// bindEnvAliases keeps the unprefixed variables deployments already set.
func bindEnvAliases(v *viper.Viper) error {
	aliases := map[string][]string{
		ignoreRobotsAliasKey: {"IGNORE_ROBOTS_TXT"},
		"server.port":        {"STAYSCOUT_SERVER_PORT", "PORT"},
	}
	for key, envs := range aliases {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	switch c.Server.Transport {
	case TransportHTTP:
		if c.Server.Port <= 0 {
			return fmt.Errorf("server.port must be > 0")
		}
	case TransportStdio:
	default:
		return fmt.Errorf("server.transport must be %q or %q, got %q", TransportHTTP, TransportStdio, c.Server.Transport)
	}
	origin, err := url.Parse(c.Site.Origin)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return fmt.Errorf("site.origin must be an absolute URL, got %q", c.Site.Origin)
	}
	if strings.TrimSpace(c.Crawler.UserAgent) == "" {
		return fmt.Errorf("crawler.user_agent must be set")
	}
	if strings.TrimSpace(c.Crawler.RobotsAgent) == "" {
		return fmt.Errorf("crawler.robots_agent must be set")
	}
	if c.Crawler.RateLimitRPS < 0 {
		return fmt.Errorf("crawler.rate_limit_rps must be >= 0")
	}
	if c.Crawler.RateLimitRPS > 0 && c.Crawler.RateLimitBurst <= 0 {
		return fmt.Errorf("crawler.rate_limit_burst must be > 0 when rate limiting is enabled")
	}
	return nil
}

// RespectRobots reports whether robots.txt enforcement is on.
func (c Config) RespectRobots() bool {
	return !c.Crawler.IgnoreRobots
}
