package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	Renderer RendererConfig `toml:"renderer"`
	Storage  StorageConfig  `toml:"storage"`
	Export   ExportConfig   `toml:"export"`
	Log      LogConfig      `toml:"log"`
}

type ServerConfig struct {
	Port string `toml:"port"`
	Env  string `toml:"env"`
	// BaseURL prefixes download links handed out after an export.
	BaseURL       string        `toml:"base_url"`
	SessionTTL    time.Duration `toml:"session_ttl"`
	SweepInterval time.Duration `toml:"sweep_interval"`
	BodyLimit     int           `toml:"body_limit"`
}

type DatabaseConfig struct {
	// URL of the export log database. Empty disables it.
	URL string `toml:"url"`
}

type RedisConfig struct {
	// URL of the PDF cache. Empty disables caching.
	URL    string        `toml:"url"`
	Prefix string        `toml:"prefix"`
	TTL    time.Duration `toml:"ttl"`
}

type RendererConfig struct {
	ChromePath string        `toml:"chrome_path"`
	Timeout    time.Duration `toml:"timeout"`
	TempDir    string        `toml:"temp_dir"`
}

type StorageConfig struct {
	OutputDir string `toml:"output_dir"`
	SaveHTML  bool   `toml:"save_html"`
}

type ExportConfig struct {
	ProgressInterval time.Duration `toml:"progress_interval"`
	ProgressStep     int           `toml:"progress_step"`
	ProgressCeiling  int           `toml:"progress_ceiling"`
	StartDelay       time.Duration `toml:"start_delay"`
	ModalCloseDelay  time.Duration `toml:"modal_close_delay"`
	BannerTTL        time.Duration `toml:"banner_ttl"`
	Direction        string        `toml:"direction"`
	Lang             string        `toml:"lang"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          "3000",
			Env:           "development",
			SessionTTL:    2 * time.Hour,
			SweepInterval: 5 * time.Minute,
			BodyLimit:     10 * 1024 * 1024,
		},
		Redis: RedisConfig{Prefix: "cv-builder:", TTL: 24 * time.Hour},
		Renderer: RendererConfig{
			Timeout: 60 * time.Second,
		},
		Storage: StorageConfig{OutputDir: "./exports", SaveHTML: true},
		Export: ExportConfig{
			ProgressInterval: 3 * time.Second,
			ProgressStep:     10,
			ProgressCeiling:  90,
			StartDelay:       time.Second,
			ModalCloseDelay:  500 * time.Millisecond,
			BannerTTL:        5 * time.Second,
			Direction:        "ltr",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds the configuration from defaults, then the TOML file at path
// (skipped when empty), then .env and the process environment. Later
// sources win.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	// a missing .env is normal outside development
	_ = godotenv.Load()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.Env = getEnv("ENV", c.Server.Env)
	c.Server.BaseURL = getEnv("BASE_URL", c.Server.BaseURL)
	c.Server.SessionTTL = getEnvAsDuration("SESSION_TTL", c.Server.SessionTTL)
	c.Server.SweepInterval = getEnvAsDuration("SESSION_SWEEP_INTERVAL", c.Server.SweepInterval)
	c.Server.BodyLimit = getEnvAsInt("BODY_LIMIT", c.Server.BodyLimit)

	c.Database.URL = getEnv("EXPORTS_DATABASE_URL", c.Database.URL)

	c.Redis.URL = getEnv("REDIS_URL", c.Redis.URL)
	c.Redis.Prefix = getEnv("REDIS_PREFIX", c.Redis.Prefix)
	c.Redis.TTL = getEnvAsDuration("PDF_CACHE_TTL", c.Redis.TTL)

	c.Renderer.ChromePath = getEnv("CHROME_PATH", c.Renderer.ChromePath)
	c.Renderer.Timeout = getEnvAsDuration("RENDER_TIMEOUT", c.Renderer.Timeout)
	c.Renderer.TempDir = getEnv("RENDER_TEMP_DIR", c.Renderer.TempDir)

	c.Storage.OutputDir = getEnv("OUTPUT_DIR", c.Storage.OutputDir)
	c.Storage.SaveHTML = getEnvAsBool("SAVE_HTML", c.Storage.SaveHTML)

	c.Export.ProgressInterval = getEnvAsDuration("EXPORT_PROGRESS_INTERVAL", c.Export.ProgressInterval)
	c.Export.ProgressStep = getEnvAsInt("EXPORT_PROGRESS_STEP", c.Export.ProgressStep)
	c.Export.ProgressCeiling = getEnvAsInt("EXPORT_PROGRESS_CEILING", c.Export.ProgressCeiling)
	c.Export.StartDelay = getEnvAsDuration("EXPORT_START_DELAY", c.Export.StartDelay)
	c.Export.ModalCloseDelay = getEnvAsDuration("EXPORT_MODAL_CLOSE_DELAY", c.Export.ModalCloseDelay)
	c.Export.BannerTTL = getEnvAsDuration("EXPORT_BANNER_TTL", c.Export.BannerTTL)
	c.Export.Direction = getEnv("CV_DIRECTION", c.Export.Direction)
	c.Export.Lang = getEnv("CV_LANG", c.Export.Lang)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server port is required"))
	}
	if c.Server.BodyLimit <= 0 {
		errs = append(errs, errors.New("body limit must be positive"))
	}
	if c.Renderer.Timeout <= 0 {
		errs = append(errs, errors.New("renderer timeout must be positive"))
	}
	if c.Storage.OutputDir == "" {
		errs = append(errs, errors.New("output dir is required"))
	}
	if c.Export.ProgressStep <= 0 {
		errs = append(errs, errors.New("progress step must be positive"))
	}
	if c.Export.ProgressCeiling <= 0 || c.Export.ProgressCeiling >= 100 {
		errs = append(errs, fmt.Errorf("progress ceiling %d must be between 1 and 99", c.Export.ProgressCeiling))
	}
	switch strings.ToLower(c.Export.Direction) {
	case "", "ltr", "rtl":
	default:
		errs = append(errs, fmt.Errorf("unknown text direction %q", c.Export.Direction))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Env, "production")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	return defaultValue
}
