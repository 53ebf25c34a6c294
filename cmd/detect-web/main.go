package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/detect-web/internal/config"
	"github.com/ironsheep/detect-web/internal/inference"
	"github.com/ironsheep/detect-web/internal/pipeline"
	"github.com/ironsheep/detect-web/internal/server"
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
			fmt.Printf("detect-web %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("detect-web - object detection web demo")
			fmt.Println()
			fmt.Println("Usage: detect-web [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  PORT                 Listen port (default 8080)")
			fmt.Println("  MODEL_ID             Inference model (default facebook/detr-resnet-50)")
			fmt.Println("  HF_API_BASE          Inference router base URL")
			fmt.Println("  HF_TOKEN             Bearer token for the inference API")
			fmt.Println("  INFERENCE_TIMEOUT    Single-call timeout (default 60s)")
			fmt.Println("  DEFAULT_THRESHOLD    Score threshold when a request omits it (default 0.5)")
			fmt.Println("  DEFAULT_TOP_K        Max boxes when a request omits it (default 50)")
			fmt.Println("  BOX_COLOR            Fixed box color as #RRGGBB (default: per-label colors)")
			fmt.Println("  LOG_LEVEL            debug, info, warn, or error (default info)")
			fmt.Println()
			fmt.Println("A .env file in the working directory is loaded if present.")
			return
		}
	}

	log := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Unknown log level %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	client := inference.New(cfg.APIBaseURL, cfg.ModelID, cfg.Token, cfg.InferenceTimeout)
	log.WithFields(logrus.Fields{
		"version":  Version,
		"endpoint": client.URL(),
		"auth":     cfg.Token != "",
	}).Info("inference client configured")

	srv := server.New(cfg, pipeline.New(client, cfg.BoxColor), log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}
}
