package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"sisvei/internal/app"
	"sisvei/internal/capture"
	"sisvei/internal/config"
	appLog "sisvei/internal/log"
	"sisvei/internal/prefs"
	"sisvei/internal/refresh"
	"sisvei/internal/store"
	"sisvei/internal/web"
)

const version = "0.1.0"

// flagConfig holds CLI flag values; non-empty ones override the config file.
type flagConfig struct {
	configPath string
	listen     string
	apiURL     string
	snapshot   string
}

func main() {
	flags := parseFlags()

	// A missing .env is normal; anything else is worth a warning.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		appLog.Warn("failed to read .env", "err", err.Error())
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	conf.ApplyEnv(os.LookupEnv)
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.apiURL != "" {
		conf.APIURL = flags.apiURL
		conf.Normalize()
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	appLog.Info("sisvei starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"api_url", conf.APIURL,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"refresh", conf.RefreshCron,
		"request_timeout_seconds", conf.RequestTimeoutSeconds,
		"state_dir", conf.StateDir,
		"snapshot", flags.snapshot,
	)

	loc, err := conf.Location()
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", conf.Timezone)
	}

	prefStore, err := prefs.Open(filepath.Join(conf.StateDir, "prefs.json"))
	if err != nil {
		appLog.Error("failed to open preferences; using in-memory store", err, "state_dir", conf.StateDir)
	}

	opts := app.Options{
		Store:     store.NewClient(conf.APIURL, conf.RequestTimeout()),
		Location:  loc,
		WeekStart: conf.Weekday(),
	}
	if prefStore != nil {
		opts.Prefs = prefStore
	}
	ctrl := app.New(opts)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load failures are already surfaced as an alert on the page.
	_ = ctrl.Load(ctx)

	srv := web.NewServer(conf, ctrl)

	if flags.snapshot != "" {
		if err := runSnapshot(ctx, srv, flags.snapshot); err != nil {
			appLog.Error("snapshot failed", err, "output", flags.snapshot)
			os.Exit(1)
		}
		appLog.Info("snapshot written", "output", flags.snapshot)
		return
	}

	sched, err := refresh.New(conf.RefreshCron, ctrl)
	if err != nil {
		appLog.Error("invalid refresh schedule; periodic reload disabled", err, "refresh", conf.RefreshCron)
		sched = nil
	}
	sched.Start(ctx)
	defer sched.Stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		appLog.Error("http server failed", err, "listen", conf.Listen)
		os.Exit(1)
	}
	appLog.Info("sisvei exiting")
}

// runSnapshot serves the UI on a loopback port just long enough for
// headless Chromium to capture it.
func runSnapshot(ctx context.Context, srv *web.Server, output string) error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}
	hs := &http.Server{Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("snapshot server failed", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}()

	return capture.CalendarPNG(ctx, capture.Options{
		URL:        "http://" + ln.Addr().String() + "/",
		OutputPath: output,
	})
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./sisvei.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.apiURL, "api", "", "Remote appointment API base URL (overrides config if set)")
	flag.StringVar(&cfg.snapshot, "snapshot", "", "Write a PNG screenshot of the calendar to this path and exit")

	flag.Parse()

	return cfg
}
