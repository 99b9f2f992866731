package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bnema/regatta/pkg/duration"
	"github.com/bnema/regatta/pkg/logger"
	"github.com/bnema/regatta/pkg/parser"
)

func init() {
	logger.GetLogger().ConfigureFromEnv()
}

type Config struct {
	General  GeneralConfig  `yaml:"General"`
	Http     HttpConfig     `yaml:"Http"`
	Registry RegistryConfig `yaml:"Registry"`
	Build    BuildConfig    `yaml:"-"`
}

type BuildConfig struct {
	RunEnv       string `yaml:"-"` // come from env
	BuildVersion string `yaml:"-"` // come from build ldflags
	BuildCommit  string `yaml:"-"`
	BuildDate    string `yaml:"-"`
}

type GeneralConfig struct {
	LogLevel string `yaml:"logLevel"`
}

type HttpConfig struct {
	Port       string `yaml:"port"`
	PathPrefix string `yaml:"pathPrefix"` // inbound prefix rewritten to /v2 upstream
}

type RegistryConfig struct {
	URL            string            `yaml:"url"`
	MaxRetries     int               `yaml:"maxRetries"`
	RetryInterval  duration.Duration `yaml:"retryInterval"`
	RequestTimeout duration.Duration `yaml:"requestTimeout"`
}

// Default values
var (
	defaultLogLevel       = "info"
	defaultHttpPort       = "8080"
	defaultPathPrefix     = "/registry"
	defaultRegistryURL    = "http://localhost:5000"
	defaultMaxRetries     = 3
	defaultRetryInterval  = duration.Duration(1 * time.Second)
	defaultRequestTimeout = duration.Duration(30 * time.Second)
)

// applyDefaults fills in any fields left at their zero value. Returns true
// if any defaults were applied.
func applyDefaults(config *Config) bool {
	applied := false

	if config.General.LogLevel == "" {
		config.General.LogLevel = defaultLogLevel
		logger.Debug("Applied default value for General.LogLevel", "value", defaultLogLevel)
		applied = true
	}
	if config.Http.Port == "" {
		config.Http.Port = defaultHttpPort
		logger.Debug("Applied default value for Http.Port", "value", defaultHttpPort)
		applied = true
	}
	if config.Http.PathPrefix == "" {
		config.Http.PathPrefix = defaultPathPrefix
		logger.Debug("Applied default value for Http.PathPrefix", "value", defaultPathPrefix)
		applied = true
	}
	if config.Registry.URL == "" {
		config.Registry.URL = defaultRegistryURL
		logger.Debug("Applied default value for Registry.URL", "value", defaultRegistryURL)
		applied = true
	}
	if config.Registry.MaxRetries == 0 {
		config.Registry.MaxRetries = defaultMaxRetries
		logger.Debug("Applied default value for Registry.MaxRetries", "value", defaultMaxRetries)
		applied = true
	}
	if config.Registry.RetryInterval == 0 {
		config.Registry.RetryInterval = defaultRetryInterval
		logger.Debug("Applied default value for Registry.RetryInterval", "value", defaultRetryInterval)
		applied = true
	}
	if config.Registry.RequestTimeout == 0 {
		config.Registry.RequestTimeout = defaultRequestTimeout
		logger.Debug("Applied default value for Registry.RequestTimeout", "value", defaultRequestTimeout)
		applied = true
	}

	return applied
}

// loadConfigFromEnv overrides configuration from environment variables
func loadConfigFromEnv(config *Config) {
	if val := os.Getenv("REGATTA_LOG_LEVEL"); val != "" {
		config.General.LogLevel = val
		logger.Info("Using environment variable REGATTA_LOG_LEVEL", "value", val)
	}
	if val := os.Getenv("REGATTA_HTTP_PORT"); val != "" {
		config.Http.Port = val
		logger.Info("Using environment variable REGATTA_HTTP_PORT", "value", val)
	}
	if val := os.Getenv("REGATTA_HTTP_PATH_PREFIX"); val != "" {
		config.Http.PathPrefix = val
		logger.Info("Using environment variable REGATTA_HTTP_PATH_PREFIX", "value", val)
	}
	if val := os.Getenv("REGATTA_REGISTRY_URL"); val != "" {
		config.Registry.URL = val
		logger.Info("Using environment variable REGATTA_REGISTRY_URL", "value", val)
	}
	if val := os.Getenv("REGATTA_REGISTRY_MAX_RETRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			config.Registry.MaxRetries = i
			logger.Info("Using environment variable REGATTA_REGISTRY_MAX_RETRIES", "value", i)
		}
	}
	if val := os.Getenv("REGATTA_REGISTRY_RETRY_INTERVAL"); val != "" {
		if d, err := duration.Parse(val); err == nil {
			config.Registry.RetryInterval = duration.Duration(d)
			logger.Info("Using environment variable REGATTA_REGISTRY_RETRY_INTERVAL", "value", d)
		}
	}
	if val := os.Getenv("REGATTA_REGISTRY_REQUEST_TIMEOUT"); val != "" {
		if d, err := duration.Parse(val); err == nil {
			config.Registry.RequestTimeout = duration.Duration(d)
			logger.Info("Using environment variable REGATTA_REGISTRY_REQUEST_TIMEOUT", "value", d)
		}
	}
}

// configFilePath resolves the config file location: an explicit
// REGATTA_CONFIG path wins, then ./config.yml, then the user config dir.
func configFilePath() string {
	if val := os.Getenv("REGATTA_CONFIG"); val != "" {
		return val
	}
	if fileExists("./config.yml") {
		return "./config.yml"
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "./config.yml"
	}
	return filepath.Join(configDir, "regatta", "config.yml")
}

// LoadConfig reads the YAML config file if one exists, applies defaults for
// missing fields and finally overrides from REGATTA_* environment variables.
// A missing config file is not an error: the defaults describe a local
// registry on the standard port.
func (config *Config) LoadConfig() (*Config, error) {
	path := configFilePath()

	if fileExists(path) {
		logger.Info("Loading configuration", "path", path)
		err := parser.ParseYAMLFile(os.DirFS(filepath.Dir(path)), filepath.Base(path), config)
		if err != nil {
			return nil, fmt.Errorf("error reading configuration file: %w", err)
		}
	} else {
		logger.Info("No config file found, using defaults", "path", path)
	}

	applyDefaults(config)
	loadConfigFromEnv(config)

	config.Build.RunEnv = os.Getenv("RUN_ENV")
	if config.Build.RunEnv == "" {
		config.Build.RunEnv = "prod"
	}

	logger.GetLogger().SetLogLevel(config.General.LogLevel)

	return config, nil
}

// SaveConfig writes the current configuration back to the config file
func (config *Config) SaveConfig() error {
	path := configFilePath()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating configuration directory: %w", err)
	}

	logger.Info("Saving configuration to", "path", path)

	if err := parser.WriteYAMLFile(path, config); err != nil {
		return fmt.Errorf("error writing configuration file: %w", err)
	}
	return nil
}

func fileExists(filepath string) bool {
	_, err := os.Stat(filepath)
	return err == nil
}

// GetRunEnv returns the run environment
func (config *BuildConfig) GetRunEnv() string {
	return config.RunEnv
}

func (c *Config) GetVersion() string {
	return c.Build.BuildVersion
}
