package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ritzau/bellman-viz/pkg/bellmanford"
	"github.com/ritzau/bellman-viz/pkg/config"
	"github.com/ritzau/bellman-viz/pkg/controller"
	"github.com/ritzau/bellman-viz/pkg/generator"
	"github.com/ritzau/bellman-viz/pkg/graph"
	"github.com/ritzau/bellman-viz/pkg/logging"
	"github.com/ritzau/bellman-viz/pkg/metrics"
	"github.com/ritzau/bellman-viz/pkg/output"
	"github.com/ritzau/bellman-viz/pkg/web"
	"github.com/spf13/pflag"
)

func main() {
	f := newFlagSet()
	if err := f.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	if err := run(cfg, f); err != nil {
		logging.Error("bellman-viz failed", "error", err)
		os.Exit(1)
	}
}

func newFlagSet() *pflag.FlagSet {
	f := pflag.NewFlagSet("bellman-viz", pflag.ContinueOnError)
	f.Bool("web", false, "Start web server instead of printing to console")
	f.Int("port", 8080, "Port for web server (only used with --web)")
	f.String("nodes", "7", "Number of nodes to generate (3-26, anything else picks 5-8)")
	f.Uint64("seed", 0, "Random seed for graph generation (0 picks one)")
	f.String("source", "", "Source node id (console mode defaults to A)")
	f.String("target", "", "Target node id for path reconstruction")
	f.Int("speed", controller.DefaultSpeed, "Animation speed 1-10")
	f.Bool("mark-unbounded", false, "Mark every node reachable from a negative cycle as -∞")
	f.Int("max-attempts", 0, "Rejected edge draws before generation gives up (0 = 100 per edge)")
	f.String("verbosity", "", "Log level: trace, debug, info, warn, error")
	f.CountP("verbose", "v", "Increase verbosity (-v debug, -vv trace)")
	f.Bool("json-logs", false, "Emit logs as JSON")
	f.Bool("watch", false, "Reload the config file when it changes (web mode)")
	f.String("config", "", "Config file (TOML or YAML, default "+config.DefaultFile+")")
	f.Bool("open", false, "Open the browser (web mode)")
	return f
}

func setupLogging(cfg *config.Config) {
	level := logging.LevelFromCount(cfg.VerboseCnt)
	if cfg.Verbosity != "" {
		level = logging.ParseLevel(cfg.Verbosity)
	}
	// Console reports go to stdout, so logs stay on stderr
	logging.Setup(os.Stderr, level, cfg.JSONLogs)
}

func run(cfg *config.Config, f *pflag.FlagSet) error {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	gen := generator.NewSeeded(seed, generator.WithMaxAttempts(cfg.MaxAttempts))

	g, err := gen.Generate(gen.ParseNodeCount(cfg.Nodes))
	if err != nil {
		return fmt.Errorf("generating graph: %w", err)
	}
	logging.Info("graph generated", "nodes", g.NodeCount(), "edges", g.EdgeCount(), "seed", seed)

	reg := metrics.DefaultRegistry()
	ctrl := controller.New(g,
		controller.WithRecorder(reg),
		controller.WithSpeed(cfg.Speed),
		controller.WithEngineOptions(bellmanford.WithMarkUnbounded(cfg.MarkUnbounded)),
	)

	if cfg.WebMode {
		return runWeb(cfg, f, ctrl, gen, reg)
	}
	return runConsole(cfg, ctrl, g)
}

// runConsole performs one batch run and prints the report
func runConsole(cfg *config.Config, ctrl *controller.Controller, g *graph.Graph) error {
	source := cfg.Source
	if source == "" && g.NodeCount() > 0 {
		source = g.NodeIDs()[0]
	}
	if err := applySelection(ctrl, source, cfg.Target); err != nil {
		return err
	}

	runErr := ctrl.RunToCompletion()
	output.PrintRunReport(os.Stdout, ctrl.Snapshot())

	if runErr != nil && !bellmanford.Informational(runErr) {
		return fmt.Errorf("run failed: %w", runErr)
	}
	return nil
}

func applySelection(ctrl *controller.Controller, source, target string) error {
	if err := ctrl.SelectSource(source); err != nil {
		return fmt.Errorf("selecting source %q: %w", source, err)
	}
	if err := ctrl.SelectTarget(target); err != nil {
		return fmt.Errorf("selecting target %q: %w", target, err)
	}
	return nil
}

func runWeb(cfg *config.Config, f *pflag.FlagSet, ctrl *controller.Controller, gen *generator.Generator, reg *metrics.Registry) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := applySelection(ctrl, cfg.Source, cfg.Target); err != nil {
		return err
	}

	server := web.NewServer(ctrl, gen, reg)

	if cfg.Watch {
		if err := watchConfig(ctx, cfg, f, ctrl); err != nil {
			logging.Warn("config watching disabled", "error", err)
		}
	}

	if cfg.OpenBrowser {
		go func() {
			// Give the listener a moment to come up
			time.Sleep(500 * time.Millisecond)
			openBrowser(fmt.Sprintf("http://localhost:%d", cfg.Port))
		}()
	}

	defer ctrl.Stop()
	if err := server.Start(ctx, cfg.Port); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		logging.Warn("cannot open browser on this platform", "os", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		logging.Warn("failed to open browser", "error", err)
	}
}
