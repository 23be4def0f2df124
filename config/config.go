package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Auth           AuthConfig           `mapstructure:"auth"`
	Sync           SyncConfig           `mapstructure:"sync"`
	R2             R2Config             `mapstructure:"r2"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
	Scheduler      SchedulerConfig      `mapstructure:"scheduler"`
}

type ServerConfig struct {
	Port           string `mapstructure:"port"`
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type AuthConfig struct {
	ServiceToken string `mapstructure:"service_token"`
}

type SyncConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type R2Config struct {
	AccountID       string `mapstructure:"account_id"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	Bucket          string `mapstructure:"bucket"`
	CDNBaseURL      string `mapstructure:"cdn_base_url"`
}

type RecommendationConfig struct {
	WindowDays int `mapstructure:"window_days"`
}

type SchedulerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	RankInterval time.Duration `mapstructure:"rank_interval"`
}

// Loader keeps the viper instance around so a watched config file can be
// re-read.
type Loader struct {
	v *viper.Viper
}

// Load reads .env (if present), defaults, an optional YAML file and VPAY_*
// environment variables, in increasing precedence.
func Load(configPath string) (*Config, *Loader, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, relying on environment")
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("VPAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("read config: %w", err)
		}
		log.Println("[Config] no config file, using defaults and environment")
	} else {
		log.Printf("[Config] loaded %s", v.ConfigFileUsed())
	}

	l := &Loader{v: v}
	cfg, err := l.decode()
	if err != nil {
		return nil, nil, err
	}
	return cfg, l, nil
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Recommendation.WindowDays <= 0 {
		cfg.Recommendation.WindowDays = 30
	}
	return &cfg, nil
}

// OnChange calls fn with the re-decoded config whenever the config file
// changes. It is a no-op when no file was loaded.
func (l *Loader) OnChange(fn func(*Config)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.decode()
		if err != nil {
			log.Printf("[Config] reload of %s failed: %v", e.Name, err)
			return
		}
		log.Printf("[Config] reloaded %s", e.Name)
		fn(cfg)
	})
	l.v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origins", "*")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")

	v.SetDefault("sync.poll_interval", 30*time.Second)

	v.SetDefault("recommendation.window_days", 30)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.rank_interval", 5*time.Minute)
}

// bindLegacyEnv keeps the deployment's existing variable names working.
func bindLegacyEnv(v *viper.Viper) {
	for key, env := range map[string]string{
		"server.port":            "PORT",
		"server.allowed_origins": "ALLOWED_ORIGINS",
		"database.dsn":           "DATABASE_URL",
		"auth.service_token":     "GAME_SERVICE_TOKEN",
		"sync.base_url":          "SYNC_SERVICE_URL",
		"r2.account_id":          "CLOUDFLARE_ACCOUNT_ID",
		"r2.access_key_id":       "R2_ACCESS_KEY_ID",
		"r2.access_key_secret":   "R2_ACCESS_KEY_SECRET",
		"r2.bucket":              "R2_BUCKET_NAME",
		"r2.cdn_base_url":        "CDN_BASE_URL",
	} {
		_ = v.BindEnv(key, "VPAY_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}
}
