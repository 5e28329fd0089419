package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xtding233/gacha-simulator/internal/catalog"
	"github.com/xtding233/gacha-simulator/internal/config"
	"github.com/xtding233/gacha-simulator/internal/gacha"
	"github.com/xtding233/gacha-simulator/internal/logger"
	"github.com/xtding233/gacha-simulator/internal/service"
	"github.com/xtding233/gacha-simulator/internal/session"
	"github.com/xtding233/gacha-simulator/internal/store"
	"github.com/xtding233/gacha-simulator/internal/transport/grpcapi"
	"github.com/xtding233/gacha-simulator/internal/transport/httpapi"
)

func main() {
	configPath := pflag.StringP("config", "c", "configs/config.yaml", "config file")
	catalogPath := pflag.String("catalog", "", "catalog file, overrides catalog.path")
	pflag.Parse()

	if err := run(*configPath, *catalogPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, catalogPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if catalogPath != "" {
		cfg.Catalog.Path = catalogPath
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := service.NewMetrics(reg)
	if err != nil {
		return err
	}

	cat := catalog.New(log)
	loader := catalog.NewLoader(cat, cfg.Catalog.Path, log)
	loader.RemoteURL = cfg.Catalog.RemoteURL
	loader.MaxTries = cfg.Catalog.RemoteRetries
	if _, err := loader.Reload(); err != nil {
		log.Warn("catalog file not loaded, pulls use placeholders until a catalog arrives", zap.Error(err))
	}
	if _, err := loader.ReloadRemote(ctx); err != nil {
		log.Warn("remote catalog not loaded", zap.Error(err))
	}
	if cfg.Catalog.Watch && cfg.Catalog.Path != "" {
		w := catalog.NewFileWatcher([]string{cfg.Catalog.Path}, func(string) {
			if _, err := loader.Reload(); err != nil {
				log.Error("catalog reload failed, keeping previous catalog", zap.Error(err))
			}
		}, log)
		if err := w.Start(); err != nil {
			log.Warn("catalog watch disabled", zap.Error(err))
		} else {
			defer w.Stop()
		}
	}

	rng := gacha.DefaultRNG()
	if cfg.Session.RNGSeed != 0 {
		rng = gacha.NewSeededRNG(cfg.Session.RNGSeed)
	}
	svc, err := service.New(cat, service.Options{
		Rarity:     cfg.Rarity.Table(),
		Pity:       cfg.Pity,
		HistoryCap: cfg.Limits.MaxHistorySize,
		RNG:        rng,
		Tokens:     cfg.Tokens,
		Shop:       cfg.Shop,
		Logger:     log,
		Metrics:    metrics,
	})
	if err != nil {
		return err
	}

	var snapshots session.SnapshotStore
	if cfg.Session.RedisAddr != "" {
		rs, err := store.NewRedis(ctx, store.Options{
			Addr:   cfg.Session.RedisAddr,
			DB:     cfg.Session.RedisDB,
			Prefix: cfg.Session.RedisPrefix,
			TTL:    cfg.Session.RedisTTL,
		})
		if err != nil {
			log.Warn("redis unavailable, sessions stay in memory", zap.Error(err))
		} else {
			defer func() { _ = rs.Close() }()
			snapshots = rs
		}
	}

	locker := session.NewLocker()
	g, gctx := errgroup.WithContext(ctx)

	httpSrv := httpapi.New(svc, httpapi.Options{
		Mode:             cfg.Server.Mode,
		CookieName:       cfg.Server.CookieName,
		CookieSecure:     cfg.Server.CookieSecure,
		CookieMaxAge:     cfg.Server.CookieMaxAge,
		AutoReset:        cfg.Session.AutoReset,
		MaxSinglePull:    cfg.Limits.MaxSinglePull,
		MaxReturnResults: cfg.Limits.MaxReturnResults,
		MaxHistory:       cfg.Limits.MaxHistorySize,
		Locker:           locker,
		Snapshots:        snapshots,
		Gatherer:         reg,
		Logger:           log,
	})
	g.Go(func() error { return httpSrv.Run(gctx, cfg.Server.HTTPAddr) })

	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			return err
		}
		gs := grpcapi.NewServer(svc, grpcapi.Options{
			AutoReset:        cfg.Session.AutoReset,
			MaxSinglePull:    cfg.Limits.MaxSinglePull,
			MaxReturnResults: cfg.Limits.MaxReturnResults,
			MaxHistory:       cfg.Limits.MaxHistorySize,
			Locker:           locker,
			Snapshots:        snapshots,
			Logger:           log,
		}).NewGRPCServer()
		g.Go(func() error { return grpcapi.Serve(gctx, gs, lis, log) })
	}

	log.Info("gacha simulator started",
		zap.String("http", cfg.Server.HTTPAddr),
		zap.String("grpc", cfg.Server.GRPCAddr),
		zap.Int("pools", len(cat.Pools())))
	return g.Wait()
}
