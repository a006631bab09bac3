package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"caldesign/internal/config"
	"caldesign/internal/export"
	"caldesign/internal/ics"
	appLog "caldesign/internal/log"
	"caldesign/internal/store"
	"caldesign/internal/textview"
	"caldesign/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
	preview    bool
	year       int
	month      int
	format     string
	out        string
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if lvl, ok := appLog.ParseLevel(conf.LogLevel); ok {
		appLog.SetLevel(lvl)
	} else {
		appLog.Warn("unknown log level; keeping info", "log_level", conf.LogLevel)
	}

	appLog.Info("caldesign starting",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"template", conf.Template,
		"ics_count", len(conf.ICS),
		"seed_events", len(conf.Events),
		"once", flags.once,
		"preview", flags.preview,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	srv, err := newServer(conf)
	if err != nil {
		appLog.Error("failed to initialize server", err)
		os.Exit(1)
	}
	if err := applyMonthFlags(srv, flags); err != nil {
		appLog.Error("invalid -year/-month", err, "year", flags.year, "month", flags.month)
		os.Exit(2)
	}

	switch {
	case flags.preview:
		srv.Refresh(ctx)
		l, colored, err := srv.CurrentLayout()
		if err != nil {
			appLog.Error("failed to compose month", err)
			os.Exit(1)
		}
		fmt.Println(textview.Render(l, colored))
	case flags.once:
		if err := runOnce(ctx, srv, conf, flags); err != nil {
			appLog.Error("one-shot export failed", err)
			os.Exit(1)
		}
	default:
		if err := runServer(ctx, srv, conf); err != nil {
			appLog.Error("server exited with error", err)
			os.Exit(1)
		}
	}
	appLog.Info("caldesign exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./caldesign.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Import ICS, export one month and exit")
	flag.BoolVar(&cfg.preview, "preview", false, "Print the month to the terminal and exit")
	flag.IntVar(&cfg.year, "year", 0, "Year to show (default: current)")
	flag.IntVar(&cfg.month, "month", 0, "Month to show, 1-12 (default: current)")
	flag.StringVar(&cfg.format, "format", "", "Export format for -once: pdf, png or jpg (default: config)")
	flag.StringVar(&cfg.out, "out", "", "Output directory for -once (default: config export.output_dir)")

	flag.Parse()

	return cfg
}

func newServer(conf *config.Config) (*web.Server, error) {
	st := store.New()
	for _, ev := range conf.Events {
		if _, err := st.Add(ev); err != nil {
			appLog.Warn("skipping invalid seed event", "title", ev.Title, "date", ev.Date, "error", err)
		}
	}

	cacheDir := filepath.Join(filepath.Dir(conf.Export.OutputDir), "cache", "ics")
	return web.NewServer(web.Options{
		Config: conf,
		Store:  st,
		Exporter: &export.Chromium{
			ExecPath: conf.Export.ChromePath,
			Timeout:  time.Duration(conf.Export.TimeoutSec) * time.Second,
		},
		Fetcher: ics.NewFetcher(cacheDir, &http.Client{Timeout: 30 * time.Second}),
	})
}

// applyMonthFlags moves the session when -year or -month is given. The
// flag month is 1-based.
func applyMonthFlags(srv *web.Server, flags flagConfig) error {
	if flags.year == 0 && flags.month == 0 {
		return nil
	}
	l, _, err := srv.CurrentLayout()
	if err != nil {
		return err
	}
	year, month := l.Year, l.Month
	if flags.year != 0 {
		year = flags.year
	}
	if flags.month != 0 {
		month = flags.month - 1
	}
	return srv.SetMonth(year, month)
}

func runOnce(ctx context.Context, srv *web.Server, conf *config.Config, flags flagConfig) error {
	srv.Refresh(ctx)

	l, _, err := srv.CurrentLayout()
	if err != nil {
		return err
	}
	dir := flags.out
	if dir == "" {
		dir = conf.Export.OutputDir
	}
	path, err := srv.ExportMonth(ctx, l.Year, l.Month, flags.format, dir)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func runServer(ctx context.Context, srv *web.Server, conf *config.Config) error {
	sched, err := startScheduler(ctx, srv, conf)
	if err != nil {
		return err
	}
	defer func() {
		<-sched.Stop().Done()
	}()

	// Initial import so the first page view has feed events.
	go srv.Refresh(ctx)

	httpSrv := &http.Server{
		Addr:              conf.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func startScheduler(ctx context.Context, srv *web.Server, conf *config.Config) (*cron.Cron, error) {
	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Warn("failed to load timezone for scheduler; using UTC", "timezone", conf.Timezone)
		loc = time.UTC
	}

	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	if len(conf.ICS) > 0 {
		if _, err := c.AddFunc(conf.RefreshCron, func() { srv.Refresh(ctx) }); err != nil {
			return nil, fmt.Errorf("invalid refresh schedule %q: %w", conf.RefreshCron, err)
		}
		appLog.Info("ICS refresh scheduled", "cron", conf.RefreshCron)
	}
	if conf.Export.Cron != "" {
		_, err := c.AddFunc(conf.Export.Cron, func() {
			if _, err := srv.ExportCurrent(ctx); err != nil {
				appLog.Error("scheduled export failed", err)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("invalid export schedule %q: %w", conf.Export.Cron, err)
		}
		appLog.Info("export scheduled", "cron", conf.Export.Cron, "dir", conf.Export.OutputDir)
	}

	c.Start()
	return c, nil
}
