// Command targets-server exposes the marketing-targets API over HTTP.
package main

import (
	"flag"
	"fmt"
	"net/http"

	"github.com/fieldserve/marketing-targets/internal/config"
	"github.com/fieldserve/marketing-targets/internal/server"
	"github.com/fieldserve/marketing-targets/internal/store"
	"github.com/fieldserve/marketing-targets/pkg/constants"
	"go.uber.org/zap"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	address := flag.String("address", "", "listen address override")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return
	}
	if *address != "" {
		cfg.Address = *address
	}

	logger, err := config.NewLogger(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	st, err := store.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to open target store",
			zap.String("op", "main"),
			zap.String("path", cfg.Database.Path),
			zap.Error(err),
		)
	}
	defer func() {
		_ = st.Close()
	}()

	handler := server.NewHandler(logger, st, cfg.BodySizeBytes(), Version)

	logger.Info("starting targets server",
		zap.String("op", "main"),
		zap.String("address", cfg.Address),
		zap.String("database", cfg.Database.Path),
		zap.String("version", Version),
	)

	if err := http.ListenAndServe(cfg.Address, handler); err != nil {
		logger.Fatal("server failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
