package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/signalsfoundry/vlbi-planner/core"
	"github.com/signalsfoundry/vlbi-planner/internal/logging"
	"github.com/signalsfoundry/vlbi-planner/internal/observability"
)

var metricsAddr string

var watchCmd = &cobra.Command{
	Use:   "watch <observation.json>",
	Short: "Re-validate an observation whenever its file changes",
	Long:  "Watches an observation JSON file and re-runs validation on every write, optionally serving Prometheus metrics.",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "listen address for /metrics (disabled when empty)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector, err := observability.NewPlannerCollector(nil)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error(ctx, "metrics server failed", logging.Err(err))
			}
		}()
		defer srv.Close()
		log.Info(ctx, "serving metrics", logging.String("addr", metricsAddr))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors typically replace the file, which
	// drops a watch registered on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	validateOnce(ctx, path, collector)

	for {
		select {
		case <-ctx.Done():
			log.Info(ctx, "watch stopped")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			validateOnce(ctx, path, collector)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn(ctx, "watcher error", logging.Err(err))
		}
	}
}

func validateOnce(ctx context.Context, path string, collector *observability.PlannerCollector) {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warn(ctx, "read observation failed", logging.String("path", path), logging.Err(err))
		return
	}

	var obs core.Observation
	if err := json.Unmarshal(raw, &obs); err != nil {
		log.Warn(ctx, "decode observation failed", logging.String("path", path), logging.Err(err))
		return
	}
	obs.SetMetricsRecorder(collector)
	collector.ObserveCounts(obs.Sources().Len(), obs.Telescopes().Len(), obs.Frequencies().Len(), obs.Scans().Len())

	if err := obs.Validate(); err != nil {
		collector.ValidationFailed()
		log.Warn(ctx, "observation failed validation",
			logging.String("code", obs.Code()), logging.Err(err))
		return
	}
	log.Info(ctx, "observation valid", logging.String("code", obs.Code()))
}
