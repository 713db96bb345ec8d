// Package main is the upgrade-dispatcherd entrypoint: it loads
// configuration, wires the protocol channel, orchestrator, dispatcher, and
// task-tracker reporter, then runs until signaled to stop.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/smnsjas/upgrade-dispatcher/config"
	"github.com/smnsjas/upgrade-dispatcher/dispatcher"
	ilog "github.com/smnsjas/upgrade-dispatcher/internal/log"
	"github.com/smnsjas/upgrade-dispatcher/internal/upgradewire"
	"github.com/smnsjas/upgrade-dispatcher/tasktracker"
	"github.com/smnsjas/upgrade-dispatcher/upgrade"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("upgrade-dispatcherd", flag.ExitOnError)
	configPath := fs.String("config", "/var/ossec/etc/upgrade-dispatcherd.yaml", "Path to the dispatcher's YAML configuration file")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closeLog, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	socketPath := cfg.SocketPath
	if socketPath == "" {
		socketPath = upgradewire.DefaultSocketPath
	}
	channel := upgradewire.NewChannel(socketPath,
		upgradewire.WithLogger(logger),
		upgradewire.WithDialTimeout(cfg.DialTimeout),
	)

	orchestrator := &upgrade.Orchestrator{
		Config: cfg.Upgrade,
		Steps:  upgradewire.NewSteps(channel),
		// WpkValidator and CustomValidator are external collaborators
		// (spec.md §1); a real deployment wires in the upgrade API's
		// validator here before accepting traffic.
	}

	reporter := tasktracker.NewReporter(unwiredClient{logger: logger}, logger)

	d := dispatcher.New(
		cfg.Upgrade.MaxThreads,
		cfg.QueueCapacity,
		orchestrator,
		reporter,
		dispatcher.WithLogger(logger),
		dispatcher.WithPopTimeout(cfg.WorkerIdleTimeout),
	)

	logger.Info("upgrade-dispatcherd starting",
		"max_threads", cfg.Upgrade.MaxThreads, "queue_capacity", cfg.QueueCapacity)

	return d.Run(ctx)
}

func buildLogger(cfg config.Config) (*slog.Logger, func(), error) {
	if cfg.LogPath == "" {
		handler := ilog.NewRedactingHandler(slog.NewJSONHandler(os.Stderr, nil))
		return slog.New(handler), func() {}, nil
	}

	rf, err := ilog.NewRotatingFile(cfg.LogPath, cfg.LogMaxSize, cfg.LogBackups)
	if err != nil {
		return nil, nil, err
	}
	handler := ilog.NewRedactingHandler(slog.NewJSONHandler(rf, nil))
	return slog.New(handler), func() { _ = rf.Close() }, nil
}

// unwiredClient stands in for the task tracker's actual submit transport,
// out of scope per spec.md §1 ("task-tracker JSON request/response wire
// format"). tasktracker.Reporter itself — the stage→message mapping, the
// sha1-mismatch message, and the legacy-sentinel logic — is in scope and
// runs for real; only the HTTP/queue call this stub would make is deferred
// to the upgrade API's own client.
type unwiredClient struct {
	logger *slog.Logger
}

func (c unwiredClient) Submit(_ context.Context, req tasktracker.StatusUpdateRequest) (tasktracker.StatusUpdateResponse, error) {
	c.logger.Warn("task tracker client not wired, dropping status update",
		"agent_id", req.Agent, "status", req.Status)
	return tasktracker.StatusUpdateResponse{Agent: req.Agent, Status: req.Status}, nil
}
