package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/normanking/cortexpuppet/internal/bus"
	"github.com/normanking/cortexpuppet/internal/config"
	"github.com/normanking/cortexpuppet/internal/feed"
	"github.com/normanking/cortexpuppet/internal/loader"
	"github.com/normanking/cortexpuppet/internal/logging"
	"github.com/normanking/cortexpuppet/internal/metrics"
	"github.com/normanking/cortexpuppet/internal/puppet"
	"github.com/normanking/cortexpuppet/internal/retarget"
	"github.com/normanking/cortexpuppet/internal/solver"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the configured avatars and retarget the estimate feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default ~/.cortexpuppet/config.yaml)")
	return cmd
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(&logging.Config{
		LogDir:  cfg.Log.Dir,
		Level:   logging.ParseLevel(cfg.Log.Level),
		Console: cfg.Log.Console,
	})
	if err != nil {
		return err
	}
	defer logger.Close()
	log := logger.Component("main")

	events := bus.NewEventBus()
	events.SubscribeMultiple([]bus.EventType{
		bus.EventTypeAvatarLoadFailed,
		bus.EventTypeTuningChanged,
	}, func(e bus.Event) {
		log.Debug().Str("event", string(e.Type)).Interface("data", e.Data).Msg("Event")
	})

	baseDir := "."
	if configPath != "" {
		baseDir = filepath.Dir(configPath)
	}
	registry := puppet.NewRegistry(loader.NewGLTFLoader(baseDir, logger.Zerolog()), events, logger.Zerolog())
	retargeter := retarget.New(cfg.Tuning, solver.BlinkStabilizer(solver.DefaultBlinkOptions()))

	// Landmark solving happens upstream; the feed carries solved frames.
	mux := puppet.NewMultiplexer(registry, retargeter, nil, logger.Zerolog())

	for _, ac := range cfg.Avatars {
		loadCtx, cancel := context.WithTimeout(ctx, config.LoadTimeout)
		h := registry.RegisterNamed(loadCtx, ac.Name, ac.URL)
		go func() {
			<-h.Done()
			cancel()
		}()
		if err := registry.SetPlacement(h.ID, mgl32.Vec3(ac.Offset), ac.Yaw); err != nil {
			log.Warn().Err(err).Str("url", ac.URL).Msg("Failed to place avatar")
		}
		if ac.Scale > 0 {
			h.SetScale(ac.Scale)
		}
	}

	if configPath != "" {
		err := config.Watch(configPath, func(c *config.Config) {
			retargeter.SetTuning(c.Tuning)
			log.Info().Msg("Tuning reloaded")
			events.Publish(bus.Event{Type: bus.EventTypeTuningChanged})
		}, func(err error) {
			log.Warn().Err(err).Msg("Config reload failed")
		})
		if err != nil {
			log.Warn().Err(err).Msg("Config watch disabled")
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 3)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := mux.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	if cfg.Feed.Enabled {
		srv := feed.NewServer(mux, events, logger.Zerolog())
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.ListenAndServe(ctx, cfg.Feed.Addr); err != nil {
				errCh <- err
			}
		}()
	}

	if cfg.Metrics.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := serveMetrics(ctx, cfg.Metrics.Addr, log); err != nil {
				errCh <- err
			}
		}()
	}

	log.Info().Int("avatars", len(cfg.Avatars)).Msg("CortexPuppet running")

	select {
	case <-ctx.Done():
	case err = <-errCh:
		log.Error().Err(err).Msg("Component failed, shutting down")
		cancel()
	}
	wg.Wait()
	registry.WaitLoads()
	log.Info().Uint64("dropped_frames", mux.Dropped()).Msg("CortexPuppet stopped")
	return err
}

func serveMetrics(ctx context.Context, addr string, log zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("Metrics listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
