package config

import (
	"fmt"
	"os"
	"path"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

const (
	DriverMongo  = "mongo"
	DriverPg     = "pg"
	DriverMemory = "memory"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	Store          Store `yaml:"store" validate:"required"`
	ThreadsPerPage int   `yaml:"threads_per_page" validate:"required,gt=0"`
	MaxPageSize    int   `yaml:"max_page_size" validate:"required,gtefield=ThreadsPerPage"`
	MaxTextLength  int   `yaml:"max_text_length" validate:"required,gt=0"`
	// UserThreadsLimit caps the activity list of a user, zero falls back to ThreadsPerPage
	UserThreadsLimit int       `yaml:"user_threads_limit" validate:"gte=0"`
	LogLevel         string    `yaml:"log_level"`
	LogJSON          bool      `yaml:"log_json"`
	CORSOrigins      []string  `yaml:"cors_origins"`
	SecureCookies    bool      `yaml:"secure_cookies"` // HSTS header is sent only behind https
	RateLimit        RateLimit `yaml:"rate_limit"`
	// TrustedProxies may set X-Real-IP and X-Forwarded-For, single ips or cidr ranges
	TrustedProxies []string `yaml:"trusted_proxies" validate:"dive,ip|cidr"`
}

type Store struct {
	Driver string `yaml:"driver" validate:"required,oneof=mongo pg memory"`
}

// RateLimit applies per client ip on mutating endpoints. Zero rps disables it.
type RateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst float64 `yaml:"burst"`
}

type Private struct {
	Mongo    Mongo  `yaml:"mongo"`
	Pg       Pg     `yaml:"pg"`
	RedisURL string `yaml:"redis_url"`
}

type Mongo struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
}

func mustLoadPath(configPath string, output interface{}) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file: " + configPath)
	}

	if err := yaml.Unmarshal(configFile, output); err != nil {
		panic("can't unmarshal config file: " + configPath)
	}
}

// MustLoad reads public.yaml and private.yaml from configFolder, applies environment
// overrides and panics if a required field is missing.
func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{Public: public, Private: private}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		panic(err.Error())
	}
	return cfg
}

func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c.Public); err != nil {
		return fmt.Errorf("invalid public config: %w", err)
	}
	switch c.Public.Store.Driver {
	case DriverMongo:
		if c.Private.Mongo.URI == "" || c.Private.Mongo.Database == "" {
			return fmt.Errorf("invalid private config: mongo uri and database are required")
		}
	case DriverPg:
		if c.Private.Pg.Host == "" || c.Private.Pg.Dbname == "" {
			return fmt.Errorf("invalid private config: pg host and dbname are required")
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("THREADS_STORE_DRIVER"); v != "" {
		c.Public.Store.Driver = v
	}
	if v := os.Getenv("THREADS_MONGO_URI"); v != "" {
		c.Private.Mongo.URI = v
	}
	if v := os.Getenv("THREADS_REDIS_URL"); v != "" {
		c.Private.RedisURL = v
	}
	if v := os.Getenv("THREADS_PG_HOST"); v != "" {
		c.Private.Pg.Host = v
	}
	if v := os.Getenv("THREADS_PG_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Private.Pg.Port = port
		}
	}
}
