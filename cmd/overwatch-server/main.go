// Overwatch proctor server: accepts participant connections, aggregates
// their alert states into session metrics, and serves the dashboard API
// and live feed.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/jaehyun-p/overwatch/internal/config"
	"github.com/jaehyun-p/overwatch/internal/log"
	"github.com/jaehyun-p/overwatch/pkg/presence"
	"github.com/jaehyun-p/overwatch/pkg/session"
	"github.com/jaehyun-p/overwatch/pkg/web"
)

func main() {
	cfg := parseFlags()
	log.Init(string(cfg.Server.LogLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := presence.NewStore()
	agg := session.NewAggregator(store)
	srv := web.NewServer(cfg.Server.Port, store, agg)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		agg.Run(ctx)
		return nil
	})
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		return srv.Shutdown()
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// parseFlags parses command line flags over the config file and defaults.
func parseFlags() *config.Config {
	configPath := flag.String("config", "", "Path to YAML config file")
	port := flag.String("port", "", "Dashboard listen port")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Error("config load failed", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if *port != "" {
		cfg.Server.Port = *port
	}
	if *debug {
		cfg.Server.LogLevel = config.LogDebug
	}
	return cfg
}
