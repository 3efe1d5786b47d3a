package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Web    WebConfig
	Prefs  PrefsConfig
	Worker WorkerConfig
	Log    LogConfig
}

type WebConfig struct {
	Host           string   `env:"WEB_HOST" envDefault:"0.0.0.0"`
	Port           int      `env:"WEB_PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"WEB_ALLOWED_ORIGINS" envSeparator:","`
	ContentDir     string   `env:"CONTENT_DIR" envDefault:"wwwroot"` // served at / for the content page
}

type PrefsConfig struct {
	Backend     string `env:"PREFS_BACKEND" envDefault:"file"` // file, postgres or memory
	Path        string `env:"PREFS_PATH"`                      // YAML file for the file backend
	DatabaseURL string `env:"DATABASE_URL"`

	// Assembled into DatabaseURL when it is not set directly.
	PostgresHost     string `env:"POSTGRES_HOST"`
	PostgresPort     string `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PostgresDB       string `env:"POSTGRES_DB"`
}

type WorkerConfig struct {
	Command string `env:"WORKER_COMMAND" envDefault:"node worker/index.js"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"` // text or json
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.Prefs.resolve()
	return &cfg, nil
}

func (p *PrefsConfig) resolve() {
	if p.DatabaseURL == "" && p.PostgresHost != "" {
		p.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
			p.PostgresUser, p.PostgresPassword, p.PostgresHost, p.PostgresPort, p.PostgresDB)
	}
	if p.Path == "" {
		p.Path = defaultPrefsPath()
	}
}

// defaultPrefsPath puts the preferences file in the user config dir, falling back
// to the working directory when there is none (e.g. minimal containers).
func defaultPrefsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "facebridge-prefs.yaml"
	}
	return filepath.Join(dir, "facebridge", "prefs.yaml")
}

// Addr is the listen address for the web host.
func (w WebConfig) Addr() string {
	return fmt.Sprintf("%s:%d", w.Host, w.Port)
}
