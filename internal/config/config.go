// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrBlockSizeInvalid is returned when WAVEFORM_BLOCK_SIZE is not positive.
	ErrBlockSizeInvalid = errors.New("config: WAVEFORM_BLOCK_SIZE must be positive")
	// ErrWindowSizeInvalid is returned when SPECTROGRAM_WINDOW is not positive.
	ErrWindowSizeInvalid = errors.New("config: SPECTROGRAM_WINDOW must be positive")
	// ErrResolutionInvalid is returned when ARCHIVE_RESOLUTION is not positive.
	ErrResolutionInvalid = errors.New("config: ARCHIVE_RESOLUTION must be positive")
	// ErrPortInvalid is returned when PORT is outside the valid range.
	ErrPortInvalid = errors.New("config: PORT must be between 1 and 65535")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// Media tool settings
	FFmpegPath  string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	FFprobePath string `env:"FFPROBE_PATH, default=ffprobe" json:"ffprobe_path"`
	WAVFastPath bool   `env:"WAV_FAST_PATH, default=true" json:"wav_fast_path"`

	// Storage settings
	TempDir string `env:"TEMP_DIR, default=/tmp/wavedeck" json:"temp_dir"`

	// Analysis settings
	WaveformBlockSize int `env:"WAVEFORM_BLOCK_SIZE, default=100" json:"waveform_block_size"`
	SpectrogramWindow int `env:"SPECTROGRAM_WINDOW, default=1024" json:"spectrogram_window"`
	ArchiveResolution int `env:"ARCHIVE_RESOLUTION, default=1000" json:"archive_resolution"`

	// Playback settings
	AudioDevices bool `env:"AUDIO_DEVICES, default=false" json:"audio_devices"`

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from environment variables using go-envconfig.
// It returns an error if a variable cannot be parsed or fails validation.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all configured values are usable.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return ErrPortInvalid
	}
	if c.WaveformBlockSize <= 0 {
		return ErrBlockSizeInvalid
	}
	if c.SpectrogramWindow <= 0 {
		return ErrWindowSizeInvalid
	}
	if c.ArchiveResolution <= 0 {
		return ErrResolutionInvalid
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, FFmpegPath: %s, FFprobePath: %s, WAVFastPath: %t, TempDir: %s, WaveformBlockSize: %d, SpectrogramWindow: %d, ArchiveResolution: %d, AudioDevices: %t, S3Bucket: %s, S3Region: %s, S3Endpoint: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.FFmpegPath,
		c.FFprobePath,
		c.WAVFastPath,
		c.TempDir,
		c.WaveformBlockSize,
		c.SpectrogramWindow,
		c.ArchiveResolution,
		c.AudioDevices,
		c.S3Bucket,
		c.S3Region,
		c.S3Endpoint,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
