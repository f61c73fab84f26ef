package config

import (
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/railpoint/railpoint"
	"github.com/railpoint/railpoint/internal/logger"
)

// Config holds the full configuration of the railpoint server
type Config struct {
	Server    railpoint.ServerConf    `yaml:"server"`
	Storage   storageConf             `yaml:"storage"`
	Logging   loggingConf             `yaml:"logging"`
	RateLimit railpoint.RateLimitConf `yaml:"rate_limit"`
	Secrets   secretsConf             `yaml:"secrets"`
}

var conf *Config

// Get returns the loaded Config
func Get() *Config {
	return conf
}

var possibleConfigLocations = []string{
	".",
	"config",
	"/config",
	"/railpoint/config",
	"/railpoint",
	"/etc/railpoint",
}

func (c *Config) validate() error {
	if err := c.Storage.validate(); err != nil {
		return err
	}
	if err := c.Logging.validate(); err != nil {
		return err
	}
	// Rate limit defaults are applied by railpoint.NewRateLimiter.
	return c.Secrets.validate()
}

// Load reads the config file, applies defaults, resolves env-provided
// secrets and validates everything; any problem is fatal.
func Load(file string) {
	if file == "" {
		file = findConfigFile()
	}
	data, err := os.ReadFile(file)
	if err != nil {
		log.WithError(err).Fatal("could not read config file")
	}
	c := defaultConfig()
	if err = yaml.Unmarshal(data, c); err != nil {
		log.WithError(err).Fatal("could not parse config file")
	}
	if err = c.validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	conf = c
}

func defaultConfig() *Config {
	return &Config{
		Server: railpoint.ServerConf{
			Port: 8765,
		},
		Storage: defaultStorageConf,
		Logging: defaultLoggingConf,
	}
}

func findConfigFile() string {
	for _, dir := range possibleConfigLocations {
		candidate := dir + "/config.yaml"
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	log.Fatal("could not find config file in any of the known locations")
	return ""
}

// loggingConf holds all logging-related configuration under the
// `logging` key.
type loggingConf struct {
	Internal logger.Conf `yaml:"internal"`
}

func (c *loggingConf) validate() error {
	if c.Internal.Dir != "" {
		if _, err := os.Stat(c.Internal.Dir); err != nil {
			return err
		}
	}
	return nil
}

var defaultLoggingConf = loggingConf{
	Internal: logger.Conf{
		Level:  "INFO",
		StdErr: true,
	},
}
