package config

import (
	"os"
	"path"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	Storage           string        `yaml:"storage" validate:"required,oneof=pg mongo memory"`
	HTTPPort          int           `yaml:"http_port" validate:"required,min=1,max=65535"`
	ThreadsPerPage    int           `yaml:"threads_per_page" validate:"required,min=1"`
	EditProfilePath   string        `yaml:"edit_profile_path" validate:"required,startswith=/"`
	MongoDatabase     string        `yaml:"mongo_database"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval"` // seconds, 0 disables the background pass
	AllowedOrigins    []string      `yaml:"allowed_origins"`
	SecureHeaders     bool          `yaml:"secure_headers"`
	LogLevel          string        `yaml:"log_level"`
	LogJSON           bool          `yaml:"log_json"`
}

type Private struct {
	DatabaseURL string `yaml:"database_url"` // usually supplied via DATABASE_URL
	RedisURL    string `yaml:"redis_url"`
	JwtKey      string `yaml:"jwt_key"`
}

func (c *Config) JwtKey() string {
	return c.Private.JwtKey
}

func (c *Config) ReconcileInterval() time.Duration {
	return c.Public.ReconcileInterval * time.Second
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}

	if err = yaml.Unmarshal(configFile, output); err != nil {
		panic("can't unmarshal config file: " + err.Error())
	}
}

// MustLoad reads public.yaml and, if present, private.yaml from configFolder,
// applies environment overrides and validates the result. Panics on error.
func MustLoad(configFolder string) *Config {
	public := defaultPublic()
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	privatePath := path.Join(configFolder, "private.yaml")
	if _, err := os.Stat(privatePath); err == nil {
		mustLoadPath(privatePath, &private)
	}

	cfg := &Config{Public: public, Private: private}
	cfg.applyEnv()

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg.Public); err != nil {
		panic("invalid config: " + err.Error())
	}
	return cfg
}

func defaultPublic() Public {
	return Public{
		Storage:         "pg",
		HTTPPort:        8080,
		ThreadsPerPage:  20,
		EditProfilePath: "/profile/edit",
		MongoDatabase:   "threads",
		LogLevel:        "info",
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Private.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Private.RedisURL = v
	}
	if v := os.Getenv("JWT_KEY"); v != "" {
		c.Private.JwtKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Public.HTTPPort = port
		}
	}
}
