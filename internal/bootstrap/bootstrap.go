// Package bootstrap provides dependency initialization for the wavedeck API.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/wavedeck/wavedeck/internal/audio"
	"github.com/wavedeck/wavedeck/internal/config"
	"github.com/wavedeck/wavedeck/internal/device"
	"github.com/wavedeck/wavedeck/internal/server"
	"github.com/wavedeck/wavedeck/internal/storage"
	"github.com/wavedeck/wavedeck/internal/track"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	TrackService *track.Service
	Hub          *server.Hub
	Devices      *device.Manager

	logger             *slog.Logger
	devicesInitialized bool
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	// Initialize storage
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Initialize the FFmpeg decoder and extraction pipeline
	decoder := audio.NewFFmpegDecoder(cfg.FFmpegPath, cfg.FFprobePath)
	extractor := audio.NewExtractor(decoder, logger,
		audio.WithWAVFastPath(cfg.WAVFastPath),
	)

	// Initialize track repository and event hub
	repo := track.NewMemoryRepository()
	hub := server.NewHub(logger)

	svc := track.NewService(
		repo,
		extractor,
		store,
		logger,
		track.WithNotifier(hub),
		track.WithDefaultBlockSize(cfg.WaveformBlockSize),
		track.WithDefaultWindowSize(cfg.SpectrogramWindow),
		track.WithArchiveResolution(cfg.ArchiveResolution),
	)

	deps := &Dependencies{
		TrackService: svc,
		Hub:          hub,
		logger:       logger,
	}

	// Audio device enumeration is opt-in: PortAudio needs a host audio
	// backend that headless deployments usually lack. Init failure keeps
	// the server running without the device endpoints.
	if cfg.AudioDevices {
		if err := device.Initialize(); err != nil {
			logger.Warn("audio device support unavailable",
				slog.String("error", err.Error()),
			)
		} else {
			deps.Devices = device.NewManager(device.PortAudioEnumerator{})
			deps.devicesInitialized = true
			logger.Info("audio device enumeration enabled")
		}
	}

	return deps, nil
}

// Close releases resources held by the dependencies. It must be called
// once the HTTP server has stopped serving requests.
func (d *Dependencies) Close() {
	d.Hub.Shutdown()

	if d.devicesInitialized {
		if err := device.Terminate(); err != nil {
			d.logger.Warn("failed to terminate PortAudio",
				slog.String("error", err.Error()),
			)
		}
	}
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("temp_dir", cfg.TempDir),
	)
	return localStore, nil
}
