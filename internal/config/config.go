// Package config provides configuration management for vodarr using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultServerPort      = 8080
	defaultServerTimeout   = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 10
	defaultConnMaxIdleTime = 30 * time.Minute
	defaultProbeTimeout    = 30 * time.Second
	defaultUploadPartSize  = 50 * 1024 * 1024
	defaultUploadConc      = 8
	defaultTaskRetention   = 15 * time.Minute
	defaultCRFHigh         = 18
	defaultCRFStandard     = 24
	defaultCoverWidth      = 640
	defaultCoverHeight     = 360
	defaultCoverQuality    = 80
)

// Config holds all configuration for the application.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Storage     StorageConfig     `mapstructure:"storage"`
	ObjectStore ObjectStoreConfig `mapstructure:"objectstore"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Transcode   TranscodeConfig   `mapstructure:"transcode"`
	FFmpeg      FFmpegConfig      `mapstructure:"ffmpeg"`
	Tasks       TasksConfig       `mapstructure:"tasks"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite, postgres
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel        string        `mapstructure:"log_level"` // silent, error, warn, info
}

// StorageConfig holds local file staging configuration and remote key prefixes.
type StorageConfig struct {
	// TempDir is where per-ingestion working directories are created,
	// one directory per content hash.
	TempDir string `mapstructure:"temp_dir"`
	// VideoPrefix is the remote key prefix for rendition and subtitle files.
	VideoPrefix string `mapstructure:"video_prefix"`
	// CoverPrefix is the remote key prefix for processed cover images.
	CoverPrefix string `mapstructure:"cover_prefix"`
}

// ObjectStoreConfig holds S3-compatible object storage configuration.
type ObjectStoreConfig struct {
	Endpoint       string `mapstructure:"endpoint"` // empty = AWS default resolution
	Region         string `mapstructure:"region"`
	Bucket         string `mapstructure:"bucket"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	ForcePathStyle bool   `mapstructure:"force_path_style"` // required for MinIO
	PartSize       int64  `mapstructure:"part_size"`
	Concurrency    int    `mapstructure:"concurrency"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// TranscodeConfig holds encoder quality presets and the cover image format.
type TranscodeConfig struct {
	// CRFHigh is the constant rate factor for the top (near-source) rung.
	CRFHigh int `mapstructure:"crf_high"`
	// CRFStandard is the constant rate factor for intermediate rungs.
	CRFStandard int `mapstructure:"crf_standard"`
	// ProfileHigh is the H.264 profile for the top rung.
	ProfileHigh string `mapstructure:"profile_high"`
	// ProfileStandard is the H.264 profile for intermediate rungs.
	ProfileStandard string `mapstructure:"profile_standard"`
	// Cover image output dimensions and JPEG quality.
	CoverWidth   int `mapstructure:"cover_width"`
	CoverHeight  int `mapstructure:"cover_height"`
	CoverQuality int `mapstructure:"cover_quality"`
}

// FFmpegConfig holds FFmpeg binary configuration.
type FFmpegConfig struct {
	BinaryPath   string        `mapstructure:"binary_path"` // path to ffmpeg (empty = $PATH lookup)
	ProbePath    string        `mapstructure:"probe_path"`  // path to ffprobe (empty = $PATH lookup)
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

// TasksConfig holds the in-memory task registry configuration.
type TasksConfig struct {
	// Retention is how long terminal tasks remain pollable before eviction.
	Retention time.Duration `mapstructure:"retention"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with VODARR_ and use underscores for
// nesting. Example: VODARR_SERVER_PORT=8080.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/vodarr")
		v.AddConfigPath("$HOME/.vodarr")
	}

	v.SetEnvPrefix("VODARR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found is OK - we'll use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file so defaults are in place.
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.read_timeout", defaultServerTimeout)
	v.SetDefault("server.write_timeout", defaultServerTimeout)
	v.SetDefault("server.shutdown_timeout", defaultShutdownTimeout)

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "vodarr.db")
	v.SetDefault("database.max_open_conns", defaultMaxOpenConns)
	v.SetDefault("database.max_idle_conns", defaultMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", defaultConnMaxIdleTime)
	v.SetDefault("database.log_level", "warn")

	// Storage defaults
	v.SetDefault("storage.temp_dir", "./data/temp")
	v.SetDefault("storage.video_prefix", "videos")
	v.SetDefault("storage.cover_prefix", "covers")

	// Object store defaults
	v.SetDefault("objectstore.endpoint", "")
	v.SetDefault("objectstore.region", "us-east-1")
	v.SetDefault("objectstore.bucket", "vodarr")
	v.SetDefault("objectstore.force_path_style", false)
	v.SetDefault("objectstore.part_size", defaultUploadPartSize)
	v.SetDefault("objectstore.concurrency", defaultUploadConc)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Transcode defaults
	v.SetDefault("transcode.crf_high", defaultCRFHigh)
	v.SetDefault("transcode.crf_standard", defaultCRFStandard)
	v.SetDefault("transcode.profile_high", "high")
	v.SetDefault("transcode.profile_standard", "main")
	v.SetDefault("transcode.cover_width", defaultCoverWidth)
	v.SetDefault("transcode.cover_height", defaultCoverHeight)
	v.SetDefault("transcode.cover_quality", defaultCoverQuality)

	// FFmpeg defaults
	v.SetDefault("ffmpeg.binary_path", "")
	v.SetDefault("ffmpeg.probe_path", "")
	v.SetDefault("ffmpeg.probe_timeout", defaultProbeTimeout)

	// Task registry defaults
	v.SetDefault("tasks.retention", defaultTaskRetention)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	const maxPort = 65535
	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return fmt.Errorf("server.port must be between 1 and %d", maxPort)
	}

	validDrivers := map[string]bool{"sqlite": true, "postgres": true}
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("database.driver must be one of: sqlite, postgres")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	if c.Storage.TempDir == "" {
		return fmt.Errorf("storage.temp_dir is required")
	}
	if c.Storage.VideoPrefix == "" {
		return fmt.Errorf("storage.video_prefix is required")
	}
	if c.Storage.CoverPrefix == "" {
		return fmt.Errorf("storage.cover_prefix is required")
	}

	if c.ObjectStore.Bucket == "" {
		return fmt.Errorf("objectstore.bucket is required")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	if c.Transcode.CRFHigh < 0 || c.Transcode.CRFHigh > 51 {
		return fmt.Errorf("transcode.crf_high must be between 0 and 51")
	}
	if c.Transcode.CRFStandard < 0 || c.Transcode.CRFStandard > 51 {
		return fmt.Errorf("transcode.crf_standard must be between 0 and 51")
	}

	if c.Tasks.Retention <= 0 {
		return fmt.Errorf("tasks.retention must be positive")
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// VideoKey returns the remote key for a file belonging to a content hash.
func (c *StorageConfig) VideoKey(contentHash, name string) string {
	return fmt.Sprintf("%s/%s/%s", c.VideoPrefix, contentHash, name)
}

// CoverKey returns the remote key for a processed cover image.
func (c *StorageConfig) CoverKey(coverHash string) string {
	return fmt.Sprintf("%s/%s/cover.jpg", c.CoverPrefix, coverHash)
}

// VideoPrefixFor returns the remote prefix holding every object for a content hash.
func (c *StorageConfig) VideoPrefixFor(contentHash string) string {
	return fmt.Sprintf("%s/%s", c.VideoPrefix, contentHash)
}

// CoverPrefixFor returns the remote prefix holding every object for a cover hash.
func (c *StorageConfig) CoverPrefixFor(coverHash string) string {
	return fmt.Sprintf("%s/%s", c.CoverPrefix, coverHash)
}
