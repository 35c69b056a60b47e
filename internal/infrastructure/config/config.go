package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	once     sync.Once
	instance *Config
)

// Storage drivers
const (
	StorageDriverFile    = "file"
	StorageDriverMongoDB = "mongodb"
)

// Config holds all application configuration
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	MongoDB MongoDBConfig `mapstructure:"mongodb"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type AppConfig struct {
	Name  string `mapstructure:"name"`
	Env   string `mapstructure:"env"`
	Debug bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StorageConfig selects the persistence backend for the three documents.
// Relative file names are resolved against DataDir.
type StorageConfig struct {
	Driver       string `mapstructure:"driver"` // file, mongodb
	DataDir      string `mapstructure:"data_dir"`
	DishesFile   string `mapstructure:"dishes_file"`
	ScheduleFile string `mapstructure:"schedule_file"`
	TrackingFile string `mapstructure:"tracking_file"`
}

type MongoDBConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	MaxPoolSize    uint64        `mapstructure:"max_pool_size"`
	MinPoolSize    uint64        `mapstructure:"min_pool_size"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// JWTConfig protects the API when Secret is set.
type JWTConfig struct {
	Secret         string        `mapstructure:"secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
	Issuer         string        `mapstructure:"issuer"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Initialize sets up Viper with default configuration paths and environment bindings
func Initialize() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/mealplanner")
	viper.AddConfigPath("$HOME/.mealplanner")

	// Environment variable support
	viper.SetEnvPrefix("MEALPLANNER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, using defaults and env vars
	}

	return nil
}

func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "mealplanner")
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)

	// Server defaults
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.shutdown_timeout", "10s")

	// Storage defaults
	viper.SetDefault("storage.driver", StorageDriverFile)
	viper.SetDefault("storage.data_dir", "./data")
	viper.SetDefault("storage.dishes_file", "dishes.json")
	viper.SetDefault("storage.schedule_file", "schedule.json")
	viper.SetDefault("storage.tracking_file", "ingredient_tracking.json")

	// MongoDB defaults
	viper.SetDefault("mongodb.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongodb.database", "mealplanner")
	viper.SetDefault("mongodb.max_pool_size", 10)
	viper.SetDefault("mongodb.min_pool_size", 1)
	viper.SetDefault("mongodb.connect_timeout", "10s")

	// JWT defaults
	viper.SetDefault("jwt.secret", "")
	viper.SetDefault("jwt.access_token_ttl", "720h")
	viper.SetDefault("jwt.issuer", "mealplanner")

	// Logging defaults
	viper.SetDefault("logging.level", "debug")
	viper.SetDefault("logging.format", "console")
	viper.SetDefault("logging.output", "stdout")
}

// Load returns the singleton config instance
func Load() (*Config, error) {
	var err error
	once.Do(func() {
		if err = Initialize(); err != nil {
			return
		}
		instance = &Config{}
		if err = viper.Unmarshal(instance); err != nil {
			err = fmt.Errorf("failed to unmarshal config: %w", err)
			return
		}
		if os.Getenv("MEALPLANNER_STORAGE_DISHES_FILE") == "" {
			if err = instance.Storage.applyLegacyDataFile(os.Getenv(LegacyDataFileEnv)); err != nil {
				return
			}
		}
		if err = instance.Validate(); err != nil {
			return
		}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

// Validate checks values viper cannot constrain on its own.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverFile, StorageDriverMongoDB:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

// GetAddress returns the server address string
func (c *Config) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// AuthEnabled reports whether API requests must carry a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.JWT.Secret != ""
}

// DishesPath returns the dish catalog location.
func (s StorageConfig) DishesPath() string { return s.resolve(s.DishesFile) }

// SchedulePath returns the schedule document location.
func (s StorageConfig) SchedulePath() string { return s.resolve(s.ScheduleFile) }

// TrackingPath returns the ingredient tracking document location.
func (s StorageConfig) TrackingPath() string { return s.resolve(s.TrackingFile) }

// LegacyDataFileEnv points older installs at their dish catalog. The path is
// taken relative to the working directory, not DataDir.
const LegacyDataFileEnv = "DATA_FILE"

func (s *StorageConfig) applyLegacyDataFile(path string) error {
	if path == "" {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", LegacyDataFileEnv, path, err)
	}
	s.DishesFile = abs
	return nil
}

func (s StorageConfig) resolve(name string) string {
	if filepath.IsAbs(name) || s.DataDir == "" {
		return name
	}
	return filepath.Join(s.DataDir, name)
}

// SetConfigFile makes Load read path instead of searching the default locations.
func SetConfigFile(path string) {
	if path != "" {
		viper.SetConfigFile(path)
	}
}
