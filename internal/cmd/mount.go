package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dendrascience/telegram-media-fuse/media"
	"github.com/dendrascience/telegram-media-fuse/tgfs"
	"github.com/dendrascience/telegram-media-fuse/util"
	"github.com/dendrascience/telegram-media-fuse/version"
)

func runMount(cmd *cobra.Command, args []string) error {
	mountpoint := args[0]

	cfg, err := loadFromCommand(cmd)
	if err != nil {
		return err
	}
	log, err := NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if !cfg.Demo && pathsOverlap(cfg.Telegram.SessionFile, mountpoint) {
		return fmt.Errorf("session file %s must not live under the mountpoint %s", cfg.Telegram.SessionFile, mountpoint)
	}

	log.Info("tgfs starting",
		zap.String("version", version.GetFullVersion()),
		zap.String("mountpoint", mountpoint),
		zap.Bool("demo", cfg.Demo))

	return withProvider(cmd.Context(), cfg, log, func(ctx context.Context, p media.Provider) error {
		return serve(ctx, cfg, log, p, mountpoint)
	})
}

// withProvider runs fn with the configured provider. For Telegram the client
// is connected and authorized for the whole duration of fn.
func withProvider(ctx context.Context, cfg *Config, log *zap.Logger, fn func(context.Context, media.Provider) error) error {
	if cfg.Demo {
		return fn(ctx, media.DemoProvider())
	}
	return media.RunTelegram(ctx, cfg.telegram(), log, func(ctx context.Context, p *media.TelegramProvider) error {
		return fn(ctx, p)
	})
}

// serve mounts the filesystem and blocks until it is unmounted. Cancelling ctx
// unmounts it; a clean unmount returns nil.
func serve(ctx context.Context, cfg *Config, log *zap.Logger, p media.Provider, mountpoint string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := tgfs.NewMetrics(reg)

	store := tgfs.NewStore()
	refresher := tgfs.NewRefresher(p, store, util.NewAllocator(), cfg.refresh(), log.Named("refresh"), metrics)
	adapter := tgfs.NewAdapter(store, tgfs.Owner{Uid: cfg.Mount.UID, Gid: cfg.Mount.GID}, metrics)

	options := []fuse.MountOption{
		fuse.FSName(cfg.Mount.FSName),
		fuse.Subtype("tgfs"),
		fuse.ReadOnly(),
	}
	if cfg.Mount.AllowOther {
		options = append(options, fuse.AllowOther())
	}

	c, err := fuse.Mount(mountpoint, options...)
	if err != nil {
		return fmt.Errorf("mount %s: %w", mountpoint, err)
	}
	defer c.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, cfg.Metrics.Addr, reg, log)
		})
	}

	g.Go(func() error {
		if err := refresher.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	var served atomic.Bool
	g.Go(func() error {
		unmountWhenDone(gctx, mountpoint, &served, fuse.Unmount, log)
		return nil
	})

	g.Go(func() error {
		defer cancel()
		defer served.Store(true)
		log.Info("mounted", zap.String("mountpoint", mountpoint), zap.String("fsname", cfg.Mount.FSName))
		if err := fs.Serve(c, tgfs.NewFS(adapter)); err != nil {
			return fmt.Errorf("serve %s: %w", mountpoint, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

// unmountWhenDone unmounts mountpoint once ctx ends. Nothing is done when the
// serve loop has already returned, since the kernel mount is then gone.
func unmountWhenDone(ctx context.Context, mountpoint string, served *atomic.Bool, unmount func(string) error, log *zap.Logger) {
	<-ctx.Done()
	if served.Load() {
		log.Debug("already unmounted", zap.String("mountpoint", mountpoint))
		return
	}
	log.Info("unmounting", zap.String("mountpoint", mountpoint))
	if err := unmount(mountpoint); err != nil {
		log.Warn("unmount failed", zap.String("mountpoint", mountpoint), zap.Error(err))
	}
}

// serveMetrics exposes reg on addr until ctx ends.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("metrics server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("metrics server failed: %w", err)
	}
}

// pathsOverlap reports whether one of the two paths contains the other.
func pathsOverlap(path1, path2 string) bool {
	abs1, err1 := filepath.Abs(path1)
	abs2, err2 := filepath.Abs(path2)
	if err1 != nil || err2 != nil {
		return false
	}
	if abs1 == abs2 {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(abs1, abs2+sep) || strings.HasPrefix(abs2, abs1+sep)
}
