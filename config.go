package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Supported storage and queue drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverBolt   = "bolt"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit          string        `yaml:"git_commit" envconfig:"BKS_GIT_COMMIT"`
	GitTag             string        `yaml:"git_tag" envconfig:"BKS_GIT_TAG"`
	BuildTime          string        `yaml:"build_time" envconfig:"BKS_BUILD_TIME"`
	IsProduction       bool          `yaml:"is_production" envconfig:"BKS_IS_PRODUCTION"`
	LogLevel           zapcore.Level `yaml:"log_level" envconfig:"BKS_LOG_LEVEL"`
	LogFolder          string        `yaml:"log_folder" envconfig:"BKS_LOG_FOLDER"`
	LogMaxSize         int           `yaml:"log_max_size" envconfig:"BKS_LOG_MAX_SIZE"`
	ProfilerEnable     bool          `yaml:"profiler_enable" envconfig:"BKS_PROFILER_ENABLE"`
	OpsEndpointsEnable bool          `yaml:"ops_endpoints_enable" envconfig:"BKS_OPS_ENDPOINTS_ENABLE"`
	Server             ServerConfig  `yaml:"server"`
	Storage            StorageConfig `yaml:"storage"`
	Queue              QueueConfig   `yaml:"queue"`
	Journal            JournalConfig `yaml:"journal"`
	Redis              RedisConfig   `yaml:"redis"`
	BoltDB             BoltDBConfig  `yaml:"boltdb"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"BKS_SERVER_HOST"`
	Port            string        `yaml:"port" envconfig:"BKS_SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"BKS_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"BKS_SERVER_WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"BKS_SERVER_REQUEST_TIMEOUT"` // Time to wait for a request to finish
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"BKS_SERVER_SHUTDOWN_TIMEOUT"`
}

// StorageConfig selects the books storage backend.
type StorageConfig struct {
	Driver string `yaml:"driver" envconfig:"BKS_STORAGE_DRIVER"`
}

// QueueConfig selects where books change events are published.
type QueueConfig struct {
	Driver   string `yaml:"driver" envconfig:"BKS_QUEUE_DRIVER"`
	Capacity int    `yaml:"capacity" envconfig:"BKS_QUEUE_CAPACITY"`
}

// JournalConfig controls the bolt-based changes journal.
type JournalConfig struct {
	Enable     bool   `yaml:"enable" envconfig:"BKS_JOURNAL_ENABLE"`
	BucketName string `yaml:"bucket_name" envconfig:"BKS_JOURNAL_BUCKET_NAME"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"BKS_REDIS_HOST"`
	Port          string        `yaml:"port" envconfig:"BKS_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"BKS_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"BKS_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"BKS_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" envconfig:"BKS_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"BKS_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" envconfig:"BKS_REDIS_USERNAME"`
	Password      string        `yaml:"password" envconfig:"BKS_REDIS_PASSWORD" json:"-"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"BKS_REDIS_DATABASE_INDEX"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" envconfig:"BKS_BOLTDB_FILE_PATH"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"BKS_BOLTDB_TIMEOUT"`
	BucketName string        `yaml:"bucket_name" envconfig:"BKS_BOLTDB_BUCKET_NAME"`
}

// NeedsRedis tells if any configured component uses the redis server.
func (c *Config) NeedsRedis() bool {
	return c.Storage.Driver == DriverRedis || c.Queue.Driver == DriverRedis
}

// NeedsBolt tells if any configured component uses the bolt database.
func (c *Config) NeedsBolt() bool {
	return c.Storage.Driver == DriverBolt || c.Journal.Enable
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	err = yd.Decode(cfg)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and provides an instance of the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	if config.Server.RequestTimeout == 0 {
		config.Server.RequestTimeout = 10 * time.Second
	}

	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = 30 * time.Second
	}

	if len(config.LogFolder) == 0 {
		config.LogFolder = "./logs"
	}

	if config.LogMaxSize <= 0 {
		config.LogMaxSize = 100
	}

	if len(config.Storage.Driver) == 0 {
		config.Storage.Driver = DriverMemory
	}

	switch config.Storage.Driver {
	case DriverMemory, DriverRedis, DriverBolt:
	default:
		return fmt.Errorf("unsupported storage driver %q", config.Storage.Driver)
	}

	if len(config.Queue.Driver) == 0 {
		config.Queue.Driver = DriverMemory
	}

	switch config.Queue.Driver {
	case DriverMemory, DriverRedis:
	default:
		return fmt.Errorf("unsupported queue driver %q", config.Queue.Driver)
	}

	if config.Queue.Capacity <= 0 {
		config.Queue.Capacity = 1024
	}

	if len(config.Journal.BucketName) == 0 {
		config.Journal.BucketName = "journal"
	}

	if config.NeedsRedis() && (len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0) {
		return errors.New("make sure to set valid redis address and port in configuration file")
	}

	if config.NeedsBolt() {
		if len(config.BoltDB.FilePath) == 0 {
			return errors.New("make sure to set valid boltdb file path in configuration file")
		}
		if len(config.BoltDB.BucketName) == 0 {
			config.BoltDB.BucketName = "books"
		}
		if config.BoltDB.Timeout == 0 {
			config.BoltDB.Timeout = 5 * time.Second
		}
	}

	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data. The env file is optional.
func LoadAndInitConfigs(configFile, envFile, gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile(configFile)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration.
	if _, err = os.Stat(envFile); err == nil {
		if err = godotenv.Load(envFile); err != nil {
			return config, fmt.Errorf("failed to set environment configurations: %s", err)
		}
	}

	// Use environment variables with prefix `BKS`.
	err = LoadConfigEnvs("BKS", config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
