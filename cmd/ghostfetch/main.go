package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ternarybob/ghostfetch/internal/app"
	"github.com/ternarybob/ghostfetch/internal/common"
	"github.com/ternarybob/ghostfetch/internal/server"
)

// configFlags collects repeatable -config flags.
type configFlags []string

func (c *configFlags) String() string { return strings.Join(*c, ",") }
func (c *configFlags) Set(v string) error {
	*c = append(*c, v)
	return nil
}

func main() {
	var configs configFlags
	flag.Var(&configs, "config", "Path to a TOML config file (repeatable, later files override)")
	flag.Var(&configs, "c", "Path to a TOML config file (shorthand)")
	port := flag.Int("port", 0, "Override the listen port")
	flag.IntVar(port, "p", 0, "Override the listen port (shorthand)")
	host := flag.String("host", "", "Override the listen host")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.BoolVar(showVersion, "v", false, "Print version and exit (shorthand)")
	flag.Parse()

	if *showVersion {
		fmt.Println(common.GetFullVersion())
		return
	}

	config, err := common.LoadFromFiles(configs...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	common.ApplyFlagOverrides(config, *port, *host)

	logger := common.InitLogger(config)
	common.PrintBanner(common.Version)

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start application")
	}

	srv := server.New(config, application, logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			logger.Error().Err(err).Msg("HTTP server error")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("HTTP server shutdown incomplete")
	}

	cancel()
	application.Shutdown()
}
