package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ripple-dev/ripple/pkg/live"
	"github.com/ripple-dev/ripple/pkg/metrics"
	"github.com/ripple-dev/ripple/pkg/resource"
	"github.com/ripple-dev/ripple/pkg/ripple"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo live feed server",
		Long: `Serve a small demo reactive graph over WebSocket.

Channels:
  clock    current time, ticking every second
  uptime   seconds since start, derived from the clock
  stats    fetched through a keyed resource that refetches each minute

Endpoints: /ws (feed), /healthz, /metrics (Prometheus).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8420", "Listen address")

	return cmd
}

func runServe(addr string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	metrics.Enable()

	start := time.Now()
	clock := ripple.NewSignal(start.Format(time.RFC3339))
	uptime := ripple.NewMemo(func() int {
		_ = clock.Get() // recompute each tick
		return int(time.Since(start).Seconds())
	})

	// Re-key every minute so the resource demonstrates refetch and
	// cancellation over the feed.
	minute := ripple.NewSignal(0)
	stats := resource.NewKeyed(
		func() int { return minute.Get() },
		resource.TracedKeyed("demo.stats", func(ctx context.Context, m int) (map[string]any, error) {
			select {
			case <-time.After(200 * time.Millisecond):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return map[string]any{"minute": m, "fetched_at": time.Now().Format(time.RFC3339)}, nil
		}),
	)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	go func() {
		for t := range ticker.C {
			clock.Set(t.Format(time.RFC3339))
			minute.Set(int(time.Since(start).Minutes()))
		}
	}()

	srv := live.NewServer(&live.Config{Addr: addr, Logger: logger})
	srv.Channel("clock", func() any { return clock.Get() })
	srv.Channel("uptime", func() any { return uptime.Get() })
	srv.Channel("stats", func() any {
		return map[string]any{
			"status": stats.Status().String(),
			"value":  stats.Value(),
		}
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", fmt.Sprint(sig))
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		stats.Dispose()
		return srv.Shutdown(ctx)
	}
}
