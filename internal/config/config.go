// Package config reads the compositor's runtime settings from the environment.
package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/ironsheep/compositor-mcp/internal/logging"
)

// Environment variable names.
const (
	EnvLogLevel           = "COMPOSITOR_LOG_LEVEL"
	EnvMaxPixels          = "COMPOSITOR_MAX_PIXELS"
	EnvMaxDeconvolveDim   = "COMPOSITOR_MAX_DECONVOLVE_DIM"
	EnvPreviewSize        = "COMPOSITOR_PREVIEW_SIZE"
	EnvWorkerQueue        = "COMPOSITOR_WORKER_QUEUE"
	EnvNormalizeKernels   = "COMPOSITOR_NORMALIZE_KERNELS"
	defaultMaxPixels      = 64 * 1024 * 1024
	defaultMaxDeconvolve  = 2048
	defaultPreviewSize    = 512
	defaultWorkerQueueLen = 1
)

// Config holds settings shared by the server and the pipeline.
type Config struct {
	// LogLevel is the minimum level written to stderr.
	LogLevel slog.Level

	// MaxPixels bounds width*height for any buffer allocated on request.
	MaxPixels int

	// MaxDeconvolveDim bounds the row and column matrix side accepted by the
	// deconvolver. Matrix inversion is cubic in this value.
	MaxDeconvolveDim int

	// PreviewSize is the bounding box, in pixels, of base64 previews.
	PreviewSize int

	// WorkerQueue is the number of requests the pipeline worker buffers.
	WorkerQueue int

	// NormalizeKernels rescales Gaussian kernels to sum to 1 before blur
	// and deblur. Off by default, matching the analytic weights.
	NormalizeKernels bool
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:         slog.LevelWarn,
		MaxPixels:        defaultMaxPixels,
		MaxDeconvolveDim: defaultMaxDeconvolve,
		PreviewSize:      defaultPreviewSize,
		WorkerQueue:      defaultWorkerQueueLen,
	}
}

// Load returns Default overridden by any valid environment variables.
// Invalid values are logged and ignored.
func Load() Config {
	return load(os.Getenv)
}

func load(getenv func(string) string) Config {
	cfg := Default()

	if v := getenv(EnvLogLevel); v != "" {
		level, ok := logging.ParseLevel(v, cfg.LogLevel)
		if !ok {
			logging.Logger().Warn("ignoring invalid setting", "var", EnvLogLevel, "value", v)
		}
		cfg.LogLevel = level
	}
	cfg.MaxPixels = positiveInt(getenv, EnvMaxPixels, cfg.MaxPixels)
	cfg.MaxDeconvolveDim = positiveInt(getenv, EnvMaxDeconvolveDim, cfg.MaxDeconvolveDim)
	cfg.PreviewSize = positiveInt(getenv, EnvPreviewSize, cfg.PreviewSize)
	cfg.WorkerQueue = positiveInt(getenv, EnvWorkerQueue, cfg.WorkerQueue)

	if v := getenv(EnvNormalizeKernels); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			logging.Logger().Warn("ignoring invalid setting", "var", EnvNormalizeKernels, "value", v)
		} else {
			cfg.NormalizeKernels = b
		}
	}

	return cfg
}

func positiveInt(getenv func(string) string, name string, fallback int) int {
	v := getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		logging.Logger().Warn("ignoring invalid setting", "var", name, "value", v)
		return fallback
	}
	return n
}
