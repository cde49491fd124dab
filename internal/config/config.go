package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda "dev".
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Log struct {
		// debug | info | warn | error
		Level string `yaml:"level"`
	} `yaml:"log"`

	Storage struct {
		// postgres | memory
		Driver string `yaml:"driver"`
		// DSN es un handle opaco para el store; este módulo no lo parsea.
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MaxIdleConns    int    `yaml:"max_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`
}

// Load lee el YAML, aplica defaults y pisa con env vars GATEHOUSE_*.
// Path vacío => sólo defaults + env (útil para el driver memory).
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "postgres"
	}

	// env overrides
	if v := os.Getenv("GATEHOUSE_ENV"); v != "" {
		c.App.Env = v
	}
	if v := os.Getenv("GATEHOUSE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("GATEHOUSE_STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("GATEHOUSE_DSN"); v != "" {
		c.Storage.DSN = v
	}

	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return nil, fmt.Errorf("storage.dsn is required for the postgres driver (or set GATEHOUSE_DSN)")
	}
	return &c, nil
}
