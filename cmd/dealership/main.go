package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/erazemk/dealership/internal/api"
	"github.com/erazemk/dealership/internal/auth"
	"github.com/erazemk/dealership/internal/config"
	"github.com/erazemk/dealership/internal/db"
	"github.com/erazemk/dealership/internal/store"
)

// levelRouter is a slog.Handler that routes records below ERROR to stdout and
// ERROR+ to stderr.
type levelRouter struct {
	level  slog.Leveler
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.level.Level()
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		level:  lr.level,
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		level:  lr.level,
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// newLevelRouter builds the split handler. If logFile is non-nil, all levels
// are also written to it.
func newLevelRouter(stdout, stderr, logFile io.Writer, level slog.Level) *levelRouter {
	opts := &slog.HandlerOptions{Level: level}
	if logFile != nil {
		stdout = io.MultiWriter(stdout, logFile)
		stderr = io.MultiWriter(stderr, logFile)
	}
	return &levelRouter{
		level:  level,
		stdout: slog.NewTextHandler(stdout, opts),
		stderr: slog.NewTextHandler(stderr, opts),
	}
}

// setupLogger configures structured logging and returns a cleanup function
// that closes the log file (if opened).
func setupLogger(logPath, levelName string) (func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}

	var (
		cleanup func()
		logFile io.Writer
	)
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		logFile = f
	}

	slog.SetDefault(slog.New(newLevelRouter(os.Stdout, os.Stderr, logFile, level)))
	return cleanup, nil
}

func main() {
	fs := flag.NewFlagSet("dealership", flag.ContinueOnError)

	var configPath string
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")

	var dbPath string
	fs.StringVar(&dbPath, "db", "", "")
	fs.StringVar(&dbPath, "d", "", "")

	var addr string
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: dealership [flags]

Flags:
  -c, -config <path>      YAML config file (default: none)
  -d, -db <path>          SQLite database path (default: dealership.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -h, -help               show this help and exit

Every setting can also be given as a DEALERSHIP_* environment variable,
for example DEALERSHIP_AUTH_SIGNINGKEY or DEALERSHIP_HTTP_ADDR.
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if addr != "" {
		cfg.HTTP.Addr = addr
	}
	if logPath != "" {
		cfg.Log.Path = logPath
	}

	closeLog, err := setupLogger(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	if err := run(cfg); err != nil {
		slog.Error("server error", "error", err)
		if closeLog != nil {
			closeLog()
		}
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Idempotent.
	if err := db.EnsureSchema(database); err != nil {
		return fmt.Errorf("ensuring database schema: %w", err)
	}
	slog.Info("database ready", "path", cfg.Database.Path)

	key, err := signingKey(cfg, &store.Settings{DB: database})
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokens(key, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("configuring tokens: %w", err)
	}

	service := auth.NewService(
		&store.Accounts{DB: database},
		auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		tokens,
		slog.Default(),
	)
	router := api.NewRouter(service, tokens, &store.Revocations{DB: database}, &store.Cars{DB: database})

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.RequestIDMiddleware(api.LoggingMiddleware(router)),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	slog.Info("server stopped, closing database")
	return nil
}

// signingKey returns the configured key or, when none is set, the one kept in
// the settings table. The key itself is never logged.
func signingKey(cfg *config.Config, settings *store.Settings) ([]byte, error) {
	if cfg.Auth.SigningKey != "" {
		slog.Info("using configured signing key")
		return []byte(cfg.Auth.SigningKey), nil
	}

	key, err := settings.SigningKey(context.Background())
	if err != nil {
		return nil, fmt.Errorf("loading signing key: %w", err)
	}
	slog.Info("using stored signing key")
	return key, nil
}
