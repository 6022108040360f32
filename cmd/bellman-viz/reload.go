package main

import (
	"context"
	"time"

	"github.com/ritzau/bellman-viz/pkg/config"
	"github.com/ritzau/bellman-viz/pkg/controller"
	"github.com/ritzau/bellman-viz/pkg/generator"
	"github.com/ritzau/bellman-viz/pkg/logging"
	"github.com/ritzau/bellman-viz/pkg/watcher"
	"github.com/spf13/pflag"
)

const (
	reloadQuietPeriod = 200 * time.Millisecond
	reloadMaxWait     = 2 * time.Second
)

// watchConfig reapplies the config file whenever it changes. Flags and env keep
// their priority over the file on every reload.
func watchConfig(ctx context.Context, current *config.Config, f *pflag.FlagSet, ctrl *controller.Controller) error {
	fw, err := watcher.NewFileWatcher(current.ConfigFile)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), reloadQuietPeriod, reloadMaxWait)
	debouncer.Start(ctx)

	go func() {
		for event := range debouncer.Output() {
			next, err := config.Load(f)
			if err != nil {
				logging.Warn("ignoring invalid config change", "error", err)
				continue
			}

			analysis := watcher.AnalyzeChanges(event, current, next)
			if !analysis.Any() {
				logging.Debug("config file changed without effective changes")
				continue
			}
			applyConfig(ctrl, analysis, next)
			current = next
		}
	}()
	return nil
}

func applyConfig(ctrl *controller.Controller, analysis *watcher.ChangeAnalysis, cfg *config.Config) {
	if analysis.GraphChanged {
		gen := generator.NewSeeded(cfg.Seed, generator.WithMaxAttempts(cfg.MaxAttempts))
		g, err := gen.Generate(gen.ParseNodeCount(cfg.Nodes))
		if err != nil {
			logging.Warn("failed to regenerate graph", "error", err)
		} else {
			ctrl.SetGraph(g)
		}
	}

	if analysis.SpeedChanged {
		delay := ctrl.SetSpeed(cfg.Speed)
		logging.Info("speed reloaded", "speed", cfg.Speed, "delayMs", delay.Milliseconds())
	}

	if analysis.SourceChanged || analysis.GraphChanged {
		if err := ctrl.SelectSource(cfg.Source); err != nil {
			logging.Warn("failed to apply source", "source", cfg.Source, "error", err)
		}
	}
	if analysis.TargetChanged || analysis.GraphChanged {
		if err := ctrl.SelectTarget(cfg.Target); err != nil {
			logging.Warn("failed to apply target", "target", cfg.Target, "error", err)
		}
	}

	if len(analysis.NeedsRestart) > 0 {
		logging.Warn("restart required to apply config changes", "keys", analysis.NeedsRestart)
	}
}
