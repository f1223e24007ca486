// Package main is the entry point for Julook, a makgeolli catalog you drive
// from the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/dshills/julook/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type cliOptions struct {
	app         app.Options
	metricsAddr string
	logFile     string
}

func main() {
	os.Exit(run())
}

func run() int {
	cli := parseFlags()

	if cli.logFile != "" {
		cli.app.LogOutput = []string{cli.logFile}
	} else if term.IsTerminal(int(os.Stdout.Fd())) {
		// Keep log lines out of the screen the shell draws.
		cli.app.LogOutput = []string{"julook.log"}
	}

	application, err := app.New(cli.app)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := cli.metricsAddr
	if addr == "" {
		addr = application.Config().Metrics.Addr
	}
	var metricsSrv *http.Server
	if addr != "" {
		metricsSrv = serveMetrics(application, addr)
	}

	code := 0
	if err := application.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		code = 1
	} else {
		sh := newShell(application, os.Stdin, os.Stdout)
		if term.IsTerminal(int(os.Stdin.Fd())) {
			sh.prompt = "julook> "
			if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
				sh.width = w
			}
		}

		done := make(chan error, 1)
		go func() { done <- sh.run(ctx) }()

		select {
		case <-ctx.Done():
		case err := <-done:
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				code = 1
			}
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	if err := application.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: shutdown: %v\n", err)
		code = 1
	}
	return code
}

// serveMetrics exposes the Prometheus registry on addr.
func serveMetrics(application *app.Application, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", application.Metrics().Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			application.Logger().Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	application.Logger().Info("serving metrics", "addr", addr)
	return srv
}

func parseFlags() cliOptions {
	var cli cliOptions
	var showVersion bool
	var showHelp bool

	flag.StringVar(&cli.app.ConfigPath, "config", "", "Path to a .toml or .yaml configuration file")
	flag.StringVar(&cli.app.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&cli.app.EnvFile, "env", ".env", "Path to a dotenv file")
	flag.BoolVar(&cli.app.Watch, "watch", false, "Reload the configuration file when it changes")
	flag.StringVar(&cli.app.StoragePath, "db", "", "Path to the on-device database")
	flag.BoolVar(&cli.app.Debug, "debug", false, "Enable debug mode")
	flag.BoolVar(&cli.app.Debug, "d", false, "Enable debug mode (shorthand)")
	flag.StringVar(&cli.app.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&cli.logFile, "log-file", "", "Write logs to this file")
	flag.StringVar(&cli.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Julook - find your makgeolli\n\n")
		fmt.Fprintf(os.Stderr, "Usage: julook [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  julook -c julook.toml                 Start with a config file\n")
		fmt.Fprintf(os.Stderr, "  julook -c julook.toml -watch          Reload the config on change\n")
		fmt.Fprintf(os.Stderr, "  julook -metrics-addr :9090            Serve metrics\n")
		fmt.Fprintf(os.Stderr, "  echo 'open 1' | julook -c julook.toml Run commands from a script\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("Julook %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch cli.app.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", cli.app.LogLevel)
		os.Exit(1)
	}

	return cli
}
