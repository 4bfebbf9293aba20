package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/saaga0h/jeeves-sky/e2e/internal/executor"
	"github.com/saaga0h/jeeves-sky/e2e/internal/reporter"
	"github.com/saaga0h/jeeves-sky/e2e/internal/scenario"
)

func main() {
	scenarioPath := pflag.String("scenario", "", "Path to YAML scenario file (required)")
	mqttBroker := pflag.String("mqtt-broker", "tcp://mosquitto:1883", "MQTT broker URL")
	redisAddr := pflag.String("redis-host", "redis:6379", "Redis address")
	postgresConn := pflag.String("postgres", "", "Postgres connection string (empty skips postgres checks)")
	outputDir := pflag.String("output-dir", "./test-output", "Output directory for run artifacts")
	startupDelay := pflag.Duration("startup-delay", 5*time.Second, "Time to let agents pick up the clock config")
	resetTime := pflag.Bool("reset-time", true, "Return agents to real time after the run")
	verbose := pflag.BoolP("verbose", "v", false, "Enable debug logging")
	pflag.Parse()

	if *scenarioPath == "" {
		fmt.Fprintf(os.Stderr, "Error: --scenario is required\n")
		pflag.Usage()
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	scen, err := scenario.LoadScenario(*scenarioPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load scenario: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := executor.NewRunner(executor.Options{
		MQTTBroker:     *mqttBroker,
		RedisAddr:      *redisAddr,
		PostgresConn:   *postgresConn,
		StartupDelay:   *startupDelay,
		ResetTimeAfter: *resetTime,
	}, logger)

	result, timelineEvents, err := runner.Run(ctx, scen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scenario execution failed: %v\n", err)
		os.Exit(1)
	}

	name := strings.TrimSuffix(filepath.Base(*scenarioPath), filepath.Ext(*scenarioPath))

	timeline := reporter.GenerateTimeline(result, timelineEvents)
	fmt.Println(timeline)

	if err := reporter.SaveTimeline(timeline, filepath.Join(*outputDir, "timelines", name+".txt")); err != nil {
		logger.Warn("Failed to save timeline", "error", err)
	}
	if err := runner.SaveCapture(filepath.Join(*outputDir, "captures", name+".json")); err != nil {
		logger.Warn("Failed to save capture", "error", err)
	}
	if err := reporter.SaveSummary(result, filepath.Join(*outputDir, "summaries", name+".json")); err != nil {
		logger.Warn("Failed to save summary", "error", err)
	}

	if !result.Passed {
		os.Exit(1)
	}
}
