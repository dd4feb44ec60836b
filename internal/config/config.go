package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Booking  BookingConfig  `yaml:"booking"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Redis    RedisConfig    `yaml:"redis"`
	Backup   BackupConfig   `yaml:"backup"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port              int      `yaml:"port"`
	AdminToken        string   `yaml:"admin_token"`
	CORSOrigins       []string `yaml:"cors_origins"`
	CheckoutPerMinute int      `yaml:"checkout_per_minute"`
}

// Storage drivers
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

type StorageConfig struct {
	Driver  string `yaml:"driver"`
	DataDir string `yaml:"data_dir"`
}

type BookingConfig struct {
	// Timezone names the IANA zone used to decide what "today" is.
	Timezone       string `yaml:"timezone"`
	CountCancelled bool   `yaml:"count_cancelled"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RabbitMQConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

type BackupConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
	Keep     int    `yaml:"keep"`
	Dir      string `yaml:"dir"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used for keys missing from the file.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              3000,
			CORSOrigins:       []string{"*"},
			CheckoutPerMinute: 10,
		},
		Storage: StorageConfig{
			Driver:  DriverFile,
			DataDir: "data",
		},
		Booking: BookingConfig{
			Timezone: "Local",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "pickup",
			Database: "pickup",
		},
		RabbitMQ: RabbitMQConfig{
			Host: "localhost",
			Port: 5672,
			User: "guest",
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			LockTTL: 10 * time.Second,
		},
		Backup: BackupConfig{
			Enabled:  true,
			Schedule: "@daily",
			Keep:     10,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Storage.DataDir = getEnv("DATA_DIR", c.Storage.DataDir)
	c.Storage.Driver = getEnv("STORAGE_DRIVER", c.Storage.Driver)
	c.Server.AdminToken = getEnv("ADMIN_TOKEN", c.Server.AdminToken)
	c.Booking.Timezone = getEnv("BOOKING_TIMEZONE", c.Booking.Timezone)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Database = getEnv("DB_NAME", c.Database.Database)

	c.RabbitMQ.Host = getEnv("RABBITMQ_HOST", c.RabbitMQ.Host)
	c.RabbitMQ.User = getEnv("RABBITMQ_USER", c.RabbitMQ.User)
	c.RabbitMQ.Password = getEnv("RABBITMQ_PASSWORD", c.RabbitMQ.Password)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)

	var err error
	if c.Server.Port, err = getEnvInt("PORT", c.Server.Port); err != nil {
		return err
	}
	if c.Database.Port, err = getEnvInt("DB_PORT", c.Database.Port); err != nil {
		return err
	}
	if c.RabbitMQ.Port, err = getEnvInt("RABBITMQ_PORT", c.RabbitMQ.Port); err != nil {
		return err
	}
	return nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverFile, DriverMemory, DriverPostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == DriverFile && strings.TrimSpace(c.Storage.DataDir) == "" {
		return fmt.Errorf("storage.data_dir is required for the file driver")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Backup.Keep < 1 {
		return fmt.Errorf("backup.keep must be at least 1")
	}
	if _, err := c.Booking.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the booking time zone.
func (b BookingConfig) Location() (*time.Location, error) {
	if b.Timezone == "" || b.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid booking.timezone %q: %w", b.Timezone, err)
	}
	return loc, nil
}

// BackupDir defaults to <data_dir>/backups.
func (c *Config) BackupDir() string {
	if c.Backup.Dir != "" {
		return c.Backup.Dir
	}
	return strings.TrimRight(c.Storage.DataDir, "/") + "/backups"
}

// ConnString builds a keyword/value DSN. Values are quoted so credentials may
// contain spaces, quotes or backslashes.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		dsnQuote(d.Host), d.Port, dsnQuote(d.User), dsnQuote(d.Password), dsnQuote(d.Database))
}

var dsnEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func dsnQuote(v string) string {
	return "'" + dsnEscaper.Replace(v) + "'"
}

func (r RabbitMQConfig) URL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(r.User, r.Password),
		Host:   net.JoinHostPort(r.Host, strconv.Itoa(r.Port)),
		Path:   "/",
	}
	return u.String()
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getEnvInt retrieves an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) (int, error) {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return intVal, nil
	}
	return defaultVal, nil
}
