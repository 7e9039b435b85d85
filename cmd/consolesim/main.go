// Command consolesim runs (or inspects) a fully in-process simulation of
// the four-chip console topology, wiring together packages bus,
// topology, mockrouter, commands and telemetry: a console-wide harness
// built on spf13/cobra, fsnotify and sirupsen/logrus.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/picolemon/picocom16-sub001/commands"
	"github.com/picolemon/picocom16-sub001/mockrouter"
	"github.com/picolemon/picocom16-sub001/telemetry"
	"github.com/picolemon/picocom16-sub001/topology"
)

var (
	log        = logrus.WithField("component", "consolesim")
	configPath string
)

func main() {
	root := &cobra.Command{
		Use:   "consolesim",
		Short: "Simulate the APP/VDP1/VDP2/APU inter-chip link console",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a JSON config file (optional, defaults apply)")

	root.AddCommand(newRunCmd())
	root.AddCommand(newDescribeCmd())
	root.AddCommand(newTraceCmd())

	if err := root.Execute(); err != nil {
		log.WithError(err).Fatal("consolesim: fatal")
	}
}

func loadConfigOrDefault() *Config {
	if configPath == "" {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		log.WithError(err).Fatalf("consolesim: load config %s", configPath)
	}
	return cfg
}

func newRunCmd() *cobra.Command {
	var redisEnabled bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulated console, dispatching every link until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfigOrDefault()

			reg := prometheus.NewRegistry()
			console, err := buildConsole(cfg, reg)
			if err != nil {
				return fmt.Errorf("consolesim: build console: %w", err)
			}
			log.WithField("links", len(console.Links)).Info("console assembled")

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if configPath != "" {
				go watchConfig(ctx, configPath)
			}

			if redisEnabled {
				pub, err := telemetry.NewPublisher(cfg.RedisAddr, "", 0, "consolesim:stats", "consolesim:stats:live")
				if err != nil {
					log.WithError(err).Warn("telemetry: redis unavailable, continuing without it")
				} else {
					defer pub.Close()
					go pub.Run(ctx, console, cfg.TelemetryPeriod)
				}
			}

			ticker := time.NewTicker(time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					log.Info("consolesim: shutting down")
					return nil
				case <-ticker.C:
					console.DispatchAll()
				}
			}
		},
	}
	cmd.Flags().BoolVar(&redisEnabled, "telemetry", false, "publish link stats to redis")
	return cmd
}

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Print the static per-chip command registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, e := range commands.Global().Describe() {
				fmt.Printf("%#04x\t%-6s\t%-20s\t%s\n", e.Code, e.Chip, e.Name, e.Class)
			}
			return nil
		},
	}
}

func newTraceCmd() *cobra.Command {
	trace := &cobra.Command{
		Use:   "trace",
		Short: "Inspect or replay captured link traces",
	}
	trace.AddCommand(newTraceReplayCmd())
	return trace
}

func newTraceReplayCmd() *cobra.Command {
	var compressed bool
	var linkName string

	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Replay a captured trace dump against a fresh simulated console",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			entries, err := mockrouter.Load(data, compressed)
			if err != nil {
				return fmt.Errorf("consolesim: decode trace: %w", err)
			}

			cfg := loadConfigOrDefault()
			reg := prometheus.NewRegistry()
			console, err := buildConsole(cfg, reg)
			if err != nil {
				return err
			}

			link, ok := console.Links[topology.LinkName(linkName)]
			if !ok {
				return fmt.Errorf("consolesim: unknown link %q", linkName)
			}
			mockrouter.Replay(entries, link.Rx)
			log.WithField("entries", len(entries)).WithField("link", linkName).Info("trace replay complete")
			return nil
		},
	}
	cmd.Flags().BoolVar(&compressed, "compressed", false, "dump was written with zlib compression")
	cmd.Flags().StringVar(&linkName, "link", "VLNK:APP->VDP1", "link name to replay frames into")
	return cmd
}

func watchConfig(ctx context.Context, path string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.WithError(err).Warn("consolesim: config watch unavailable")
		return
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		log.WithError(err).Warn("consolesim: config watch add failed")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				log.WithField("path", path).Info("consolesim: config changed, restart to apply")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("consolesim: config watch error")
		}
	}
}
