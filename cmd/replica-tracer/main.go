// cmd/replica-tracer/main.go
// Standalone demo binary wiring the observability core end to end: it
// opens the configured trace sink and StatsD transport, starts the
// optional viewer/remote-collector/fleet-status ambient services, and
// emits metrics on a fixed tick until a signal arrives.
//
// Combines a cobra root command (persistent --config flag feeding viper,
// zap initialised once) with a plain signal-driven graceful-shutdown loop.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xet7/tigerbeetle/internal/config"
	"github.com/xet7/tigerbeetle/internal/emitter"
	"github.com/xet7/tigerbeetle/internal/fleetstatus"
	"github.com/xet7/tigerbeetle/internal/iorun"
	"github.com/xet7/tigerbeetle/internal/logging"
	"github.com/xet7/tigerbeetle/internal/remotecollector"
	"github.com/xet7/tigerbeetle/internal/selfmetrics"
	"github.com/xet7/tigerbeetle/internal/statsdline"
	"github.com/xet7/tigerbeetle/internal/tracer"
	"github.com/xet7/tigerbeetle/internal/viewer"
	"github.com/xet7/tigerbeetle/pkg/authtoken"
	"github.com/xet7/tigerbeetle/pkg/version"
)

var cfgFile string

func main() {
	root := &cobra.Command{
		Use:   "replica-tracer",
		Short: "Replica observability core: Chrome-trace spans + StatsD metrics",
		RunE:  run,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to configuration file (YAML/TOML/JSON)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile, "REPLICATRACER")
	if err != nil {
		return err
	}

	lg, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("zap init: %w", err)
	}
	logging.Set(lg)
	defer lg.Sync()

	cluster, err := cfg.Cluster()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	writer, closeWriter, err := buildWriter(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeWriter()

	sender, pool, closeSender, err := buildSender(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSender()

	em := emitter.New(sender, pool, statsdline.Identity{Cluster: cluster, Replica: cfg.Replica})
	tr := tracer.New(tracer.Options{
		Writer:  writer,
		Emitter: em,
		Replica: cfg.Replica,
	})

	selfmetrics.Register()

	if cfg.FleetStatus.Enabled {
		startFleetStatus(ctx, cfg, pool)
	}

	lg.Info("replica-tracer started",
		zap.String("version", version.String()),
		zap.Uint8("replica", cfg.Replica),
		zap.String("statsd_mode", string(cfg.StatsD.Mode)))

	waitForShutdown(ctx, cancel, lg, func() {
		runEmitLoop(ctx, tr, cfg.EmitInterval, pool)
	})
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

// buildWriter fans the Chrome-trace stream out to every configured sink: an
// optional trace file, the viewer hub, and the remote collector client. A
// nil writer (none configured) leaves spans unrecorded, per spec.md §6.
func buildWriter(ctx context.Context, cfg config.Config) (tracer.Writer, func(), error) {
	var writers []io.Writer
	var closers []func()

	if cfg.TraceFile != "" {
		f, err := os.OpenFile(cfg.TraceFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, func() {}, fmt.Errorf("open trace file: %w", err)
		}
		writers = append(writers, f)
		closers = append(closers, func() { _ = f.Close() })
	}

	if cfg.Viewer.Enabled {
		hub := viewer.NewHub()
		var verifier *authtoken.Verifier
		if cfg.Viewer.JWTSecret != "" {
			verifier = authtoken.NewVerifier([]byte(cfg.Viewer.JWTSecret))
		}
		srv := viewer.Serve(viewer.Config{
			Addr:          cfg.Viewer.Addr,
			EnableMetrics: true,
			Verifier:      verifier,
			Replica:       cfg.Replica,
		}, hub)
		writers = append(writers, hub)
		closers = append(closers, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = viewer.Shutdown(shutdownCtx, srv)
		})
	}

	if cfg.RemoteCollector.Enabled {
		client, err := remotecollector.Dial(ctx, remotecollector.Config{Addr: cfg.RemoteCollector.Addr})
		if err != nil {
			return nil, func() {}, fmt.Errorf("dial remote collector: %w", err)
		}
		writers = append(writers, client)
		closers = append(closers, func() { _ = client.Close() })
	}

	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if len(writers) == 0 {
		return nil, closeAll, nil
	}
	return io.MultiWriter(writers...), closeAll, nil
}

func buildSender(ctx context.Context, cfg config.Config) (iorun.Sender, iorun.CompletionPool, func(), error) {
	pool := iorun.NewPool(statsdline.PacketCountMax())

	if cfg.StatsD.Mode == config.StatsDModeUDP {
		sender, err := iorun.DialUDP(ctx, cfg.StatsD.Addr, statsdline.PacketCountMax())
		if err != nil {
			return nil, nil, func() {}, fmt.Errorf("dial statsd udp: %w", err)
		}
		return sender, pool, func() { _ = sender.Close() }, nil
	}
	return iorun.LogSender{}, pool, func() {}, nil
}

func startFleetStatus(ctx context.Context, cfg config.Config, pool iorun.CompletionPool) {
	cli := redis.NewClient(&redis.Options{Addr: cfg.FleetStatus.Addr})
	pub := fleetstatus.NewPublisher(cli, cfg.FleetStatus.Channel, cfg.Replica)
	go pub.Run(ctx, 10*time.Second, func() selfmetrics.Snapshot {
		selfmetrics.ObservePool(pool.Executing(), pool.Capacity())
		return selfmetrics.Snapshot{
			CompletionsInUse:    pool.Executing(),
			CompletionsCapacity: pool.Capacity(),
		}
	})
}

func runEmitLoop(ctx context.Context, tr *tracer.Tracer, interval time.Duration, pool iorun.CompletionPool) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			selfmetrics.ObservePool(pool.Executing(), pool.Capacity())
			res := tr.EmitMetrics()
			if res.Busy {
				logging.Logger().Debug("emit_metrics: busy, skipping this tick")
			}
		}
	}
}

func waitForShutdown(ctx context.Context, cancel context.CancelFunc, lg *zap.Logger, loop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		loop()
		close(done)
	}()

	select {
	case <-sigCh:
		lg.Info("signal received, shutting down")
	case <-ctx.Done():
	}
	cancel()
	<-done
	lg.Info("bye")
}
