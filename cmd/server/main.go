package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/GriffinCanCode/SuperApp/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/SuperApp/backend/internal/server"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("server", pflag.ContinueOnError)
	configFile := flags.String("config", "", "YAML configuration file")
	port := flags.String("port", "", "Server port")
	manifestURL := flags.String("manifest-url", "", "Primary manifest base URL")
	fallbackURL := flags.String("fallback-url", "", "Fallback manifest base URL")
	source := flags.String("source", "", "Preferred manifest base (primary or fallback)")
	logLevel := flags.String("log-level", "", "Log level (debug, info, warn, error)")
	dev := flags.Bool("dev", false, "Development mode: colored logs at debug level")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *configFile != "" {
		if err := os.Setenv(config.FileEnv, *configFile); err != nil {
			return err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Flags override env vars
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *manifestURL != "" {
		cfg.Manifest.PrimaryBaseURL = *manifestURL
	}
	if *fallbackURL != "" {
		cfg.Manifest.FallbackBaseURL = *fallbackURL
	}
	if *source != "" {
		cfg.Manifest.Preferred = *source
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *dev {
		cfg.Logging.Development = true
		if *logLevel == "" {
			cfg.Logging.Level = "debug"
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
