// Command seocrawl is the CLI entrypoint for the SEO crawl engine. It wires
// the Crawl Controller's full dependency graph from resolved config, runs
// the crawl to completion or SIGINT, and prints the exit summary. This file
// is the thin cobra.Command wrapper around internal/config.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ridgeline-labs/seocrawl/internal/config"
	"github.com/ridgeline-labs/seocrawl/internal/controller"
	"github.com/ridgeline-labs/seocrawl/internal/crawlerrors"
	"github.com/ridgeline-labs/seocrawl/internal/fetcher"
	"github.com/ridgeline-labs/seocrawl/internal/fingerprint"
	"github.com/ridgeline-labs/seocrawl/internal/frontier"
	"github.com/ridgeline-labs/seocrawl/internal/metrics"
	"github.com/ridgeline-labs/seocrawl/internal/politeness"
	"github.com/ridgeline-labs/seocrawl/internal/report"
	"github.com/ridgeline-labs/seocrawl/internal/robots"
	"github.com/ridgeline-labs/seocrawl/internal/sitemap"
	"github.com/ridgeline-labs/seocrawl/internal/storage"
	"github.com/ridgeline-labs/seocrawl/internal/storage/postgres"
	"github.com/ridgeline-labs/seocrawl/internal/storage/sqlite"
	"github.com/ridgeline-labs/seocrawl/internal/urlnorm"
	"github.com/ridgeline-labs/seocrawl/internal/useragent"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// exit codes.
const (
	exitOK        = 0
	exitStorage   = 1
	exitCLIMisuse = 2
	exitSIGINT    = 130
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	v := viper.New()
	var exitCode int

	cmd := &cobra.Command{
		Use:           "seocrawl <seed-url>",
		Short:         "A persistent, resumable SEO crawler",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, positional []string) error {
			cfg, err := config.Resolve(cmd, v, positional[0])
			if err != nil {
				exitCode = exitCLIMisuse
				return err
			}
			code, err := runCrawl(cmd.Context(), cfg)
			exitCode = code
			return err
		},
	}
	if err := config.BindFlags(cmd, v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCLIMisuse
	}
	cmd.SetArgs(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "seocrawl:", err)
		if exitCode == 0 {
			exitCode = exitStorage
		}
		return exitCode
	}
	return exitCode
}

func runCrawl(ctx context.Context, cfg config.Config) (int, error) {
	logger := newLogger(cfg.Verbose, cfg.Quiet)

	seedHost, err := urlnorm.Normalize(cfg.SeedURL, nil, urlnorm.Options{})
	if err != nil {
		return exitCLIMisuse, fmt.Errorf("seed URL: %w", err)
	}

	repo, err := openRepository(ctx, cfg, seedHost.Host)
	if err != nil {
		return exitStorage, err
	}
	defer repo.Close()

	fr := frontier.New(repo, cfg.MaxDepth)
	if cfg.ResetFrontier {
		if err := fr.Reset(ctx); err != nil {
			return exitStorage, fmt.Errorf("reset frontier: %w", err)
		}
	}

	ua, err := useragent.Resolve(cfg.UserAgentPreset, cfg.CustomUA)
	if err != nil {
		return exitCLIMisuse, err
	}

	robotsCache := robots.NewCache(robots.Config{
		UserAgent: ua,
		Timeout:   cfg.Timeout,
		Logger:    logger,
	})
	sitemaps := sitemap.NewDiscoverer(sitemap.Config{
		UserAgent: ua,
		Timeout:   cfg.Timeout,
		Logger:    logger,
	})

	backend, err := newFetchBackend(cfg)
	if err != nil {
		return exitCLIMisuse, err
	}

	f := fetcher.New(fetcher.Config{
		Backend:       backend,
		Robots:        robotsCache,
		Pacer:         politeness.NewPacer(cfg.Delay),
		UserAgent:     ua,
		Timeout:       cfg.Timeout,
		MaxRedirects:  10,
		RespectRobots: cfg.RespectRobots,
	})

	tracker := report.NewTracker()

	var metricsServer *metrics.Server
	if cfg.MetricsPort > 0 {
		metricsServer = metrics.Start(cfg.MetricsPort)
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Stop(stopCtx)
		}()
	}

	c := controller.New(
		controller.Deps{
			Repo:     repo,
			Frontier: fr,
			Robots:   robotsCache,
			Sitemaps: sitemaps,
			Fetcher:  f,
			Tracker:  tracker,
			Logger:   logger,
		},
		controller.Options{
			MaxPages:           cfg.MaxPages,
			Offsite:            cfg.Offsite,
			SameHostOnly:       cfg.SameHostOnly,
			Concurrency:        cfg.Concurrency,
			SkipRobotsSitemaps: cfg.SkipRobotsSitemaps,
			SkipSitemaps:       cfg.SkipSitemaps,
			MetricsEnabled:     metricsServer != nil,
		},
		urlnorm.Options{
			SeedHosts:         []string{seedHost.Host},
			IncludeSubdomains: !cfg.SameHostOnly,
		},
	)

	summary, runErr := c.Run(ctx, cfg.SeedURL)
	if writeErr := report.WriteText(os.Stdout, summary); writeErr != nil {
		logger.Error("write summary", "error", writeErr)
	}

	if runErr != nil {
		if kind, ok := crawlerrors.KindOf(runErr); ok && kind.Fatal() {
			return exitStorage, runErr
		}
		if ctx.Err() != nil {
			return exitSIGINT, nil
		}
		return exitStorage, runErr
	}
	return exitOK, nil
}

func openRepository(ctx context.Context, cfg config.Config, host string) (storage.Repository, error) {
	switch cfg.StorageDriver {
	case "postgres":
		return postgres.Open(ctx, cfg.StorageDSN)
	default:
		safeHost := strings.ReplaceAll(host, string(filepath.Separator), "_")
		return sqlite.Open(sqlite.Config{
			PagesPath: fmt.Sprintf("%s_pages.db", safeHost),
			CrawlPath: fmt.Sprintf("%s_crawl.db", safeHost),
			Writers:   cfg.MaxWorkers,
			QueueSize: 256,
		})
	}
}

// newFetchBackend selects the fetch backend. --js selects the scripted-
// browser backend, which satisfies the Backend contract but fails every
// fetch loudly since no headless-browser renderer is wired in; otherwise it
// always constructs the default HTTP backend explicitly (rather than leaving
// fetcher.New to build a fingerprint-less, proxy-less one internally), with
// the configured TLS fingerprint and the proxy pool when one is configured.
func newFetchBackend(cfg config.Config) (fetcher.Backend, error) {
	if cfg.JS {
		return fetcher.NewBrowserBackend(), nil
	}

	profile := fingerprint.Profile(cfg.TLSFingerprint)

	var proxyPool *politeness.ProxyPool
	if path := config.ProxyFile(); path != "" {
		pool := politeness.NewProxyPool(politeness.ProxyPoolConfig{
			MaxFailures: 3,
			Cooldown:    time.Minute,
		})
		if err := pool.LoadFile(path); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		proxyPool = pool
	}

	return fetcher.NewHTTPBackend(fetcher.HTTPBackendConfig{
		Timeout:      cfg.Timeout,
		MaxRedirects: 10,
		Fingerprint:  profile,
		ProxyPool:    proxyPool,
	}), nil
}

func newLogger(verbose, quiet bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
