package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/compositor-mcp/internal/config"
	"github.com/ironsheep/compositor-mcp/internal/logging"
	"github.com/ironsheep/compositor-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("compositor-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("compositor-mcp - MCP server for image compositing")
			fmt.Println()
			fmt.Println("Usage: compositor-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  COMPOSITOR_LOG_LEVEL=warn              debug, info, warn or error")
			fmt.Println("  COMPOSITOR_MAX_PIXELS=67108864         Largest image, in pixels")
			fmt.Println("  COMPOSITOR_MAX_DECONVOLVE_DIM=2048     Largest side accepted by gaussian_deblur")
			fmt.Println("  COMPOSITOR_PREVIEW_SIZE=512            Bounding box of image_preview")
			fmt.Println("  COMPOSITOR_WORKER_QUEUE=1              Queued pipeline operations")
			fmt.Println("  COMPOSITOR_NORMALIZE_KERNELS=false     Rescale Gaussian kernels to sum to 1")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Logging goes to stderr (stdout is for MCP protocol). Settings are read
	// twice so warnings about invalid values reach the configured logger.
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	logging.SetLogger(logger)
	slog.SetDefault(logger)
	cfg = config.Load()

	server.Version = Version
	logger.Info("starting compositor-mcp", "version", Version, "built", BuildTime, "commit", GitCommit,
		"max_pixels", cfg.MaxPixels, "max_deconvolve_dim", cfg.MaxDeconvolveDim)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg)
	err := srv.Run(ctx)
	srv.Close()
	if err != nil && err != context.Canceled {
		log.Fatalf("Server error: %v", err)
	}
}
