package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"screenerdash/browser"
	"screenerdash/cache"
	"screenerdash/registry"
	"screenerdash/scrape"
	"screenerdash/service"
	"screenerdash/web"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveHost != "" {
			cfg.Server.Host = serveHost
		}
		if servePort > 0 {
			cfg.Server.Port = servePort
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// The process cannot serve without the master list.
		reg, err := registry.Load(cfg.Registry.Path)
		if err != nil {
			return fmt.Errorf("load ticker registry: %w", err)
		}
		logger.Info().Int("companies", reg.Len()).Str("path", cfg.Registry.Path).Msg("registry loaded")

		var store cache.Store
		switch cfg.Cache.Backend {
		case "redis":
			rs := cache.NewRedisStore(cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB)
			if err := rs.Ping(ctx); err != nil {
				return fmt.Errorf("connect redis cache at %s: %w", cfg.Cache.Redis.Addr, err)
			}
			defer rs.Close()
			store = rs
		default:
			store = cache.NewMemoryStore()
		}

		var fallback scrape.HTMLFetcher
		if cfg.Browser.Enabled {
			pool := browser.NewPool(browser.Options{
				Size:       cfg.Browser.PoolSize,
				NavTimeout: cfg.Browser.NavTimeout,
				UserAgent:  cfg.Screener.UserAgent,
			}, logger)
			defer pool.Shutdown()
			fallback = pool
		}

		client := scrape.NewClient(scrape.Options{
			BaseURL:          cfg.Screener.BaseURL,
			Timeout:          cfg.Screener.RequestTimeout,
			UserAgent:        cfg.Screener.UserAgent,
			MaxAnnouncements: cfg.Screener.MaxAnnouncements,
			Fallback:         fallback,
		}, logger)

		svc := service.New(reg, client, store, cfg.Cache.TTL, logger)
		return web.NewServer(cfg.Server, svc, logger).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Override listen host")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Override listen port")
}
