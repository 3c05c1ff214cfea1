package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"github.com/htmlpress/htmlpress"
	"github.com/htmlpress/htmlpress/internal/config"
	"github.com/htmlpress/htmlpress/internal/logging"
	"github.com/htmlpress/htmlpress/internal/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// shutdownTimeout bounds draining of in-flight renders on SIGINT/SIGTERM.
const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(flags.config)
	if err != nil {
		return err
	}
	if flags.strategy != "" {
		cfg.Browser.Strategy = flags.strategy
	}
	if flags.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// Error ignored: maxprocs.Set only fails if the GOMAXPROCS env is
	// invalid, in which case Go runtime defaults apply and the program
	// continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(log.Sugar().Debugf))

	manager := htmlpress.NewManager(
		htmlpress.WithStrategy(htmlpress.Strategy(cfg.Browser.Strategy)),
		htmlpress.WithLogger(log.Named("browser")),
		htmlpress.WithBrowserBin(cfg.Browser.Bin),
	)

	addr := flags.addr
	if addr == "" {
		addr = cfg.Server.Addr()
	}
	srv := server.New(addr, manager, log.Named("http"))

	ctx, stop := notifyContext(context.Background())
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	log.Info("listening",
		zap.String("addr", addr),
		zap.String("strategy", cfg.Browser.Strategy),
		zap.String("version", Version))

	select {
	case err := <-errCh:
		manager.Cleanup()
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}

	// Cleanup must finish before the process exits so no browser process
	// is orphaned.
	manager.Cleanup()
	return nil
}
