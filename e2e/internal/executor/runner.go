package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/saaga0h/jeeves-sky/e2e/internal/capture"
	"github.com/saaga0h/jeeves-sky/e2e/internal/checker"
	"github.com/saaga0h/jeeves-sky/e2e/internal/reporter"
	"github.com/saaga0h/jeeves-sky/e2e/internal/scenario"
	"github.com/saaga0h/jeeves-sky/pkg/mqtt"
)

// Topics the recorder captures during a run
var captureTopics = []string{
	mqtt.TopicRawWeather,
	mqtt.TopicSkyContext,
	mqtt.TopicStatusBase + "/+",
}

// Options configures the external services a run talks to
type Options struct {
	MQTTBroker     string
	RedisAddr      string
	PostgresConn   string // empty skips postgres expectations
	StartupDelay   time.Duration
	ResetTimeAfter bool
}

// Runner orchestrates scenario execution
type Runner struct {
	opts     Options
	logger   *slog.Logger
	recorder *capture.Recorder
	player   *Player
	redis    *redis.Client
	postgres *checker.PostgresChecker
}

// NewRunner creates a new scenario runner
func NewRunner(opts Options, logger *slog.Logger) *Runner {
	return &Runner{
		opts:   opts,
		logger: logger,
	}
}

// Run executes a scenario and checks its expectations
func (r *Runner) Run(ctx context.Context, s *scenario.Scenario) (*scenario.TestResult, []reporter.TimelineEvent, error) {
	r.logger.Info("Starting scenario", "name", s.Name, "description", s.Description)

	if err := r.initialize(ctx); err != nil {
		return nil, nil, fmt.Errorf("initialization failed: %w", err)
	}
	defer r.cleanup()

	timeScale := 1
	virtualStart := time.Now()
	if s.TestMode != nil {
		timeScale = s.TestMode.TimeScale
		virtualStart, _ = time.Parse(time.RFC3339, s.TestMode.VirtualStart)
		if err := r.player.PublishTimeConfig(s.TestMode); err != nil {
			return nil, nil, fmt.Errorf("failed to publish time config: %w", err)
		}
		r.logger.Info("Virtual time configured",
			"virtual_start", s.TestMode.VirtualStart,
			"time_scale", timeScale)
	}

	if r.opts.StartupDelay > 0 {
		r.logger.Info("Waiting for agents", "delay", r.opts.StartupDelay)
		if err := sleep(ctx, r.opts.StartupDelay); err != nil {
			return nil, nil, err
		}
	}

	startTime := time.Now()
	var timeline []reporter.TimelineEvent
	var results []scenario.ExpectationResult

	for _, step := range BuildSchedule(s) {
		if err := WaitUntil(ctx, startTime, step.Time, timeScale); err != nil {
			return nil, nil, err
		}

		switch step.Kind {
		case StepEvent:
			event := step.Event
			if err := r.player.PublishWeather(event, VirtualAt(virtualStart, event.Time)); err != nil {
				return nil, nil, fmt.Errorf("failed to publish event: %w", err)
			}
			desc := fmt.Sprintf("%s: %s (%s)", event.Location, describeWeather(event), event.Description)
			r.logger.Info("Published weather", "elapsed_sec", time.Since(startTime).Seconds(), "event", desc)
			timeline = append(timeline, reporter.TimelineEvent{
				Elapsed:     time.Since(startTime).Seconds(),
				Layer:       "weather",
				Description: desc,
			})

		case StepWait:
			timeline = append(timeline, reporter.TimelineEvent{
				Elapsed:     time.Since(startTime).Seconds(),
				Layer:       "wait",
				Description: step.Wait.Description,
			})

		case StepCheck:
			exp := step.Expectation
			passed, reason, actual := r.check(ctx, exp)
			results = append(results, scenario.ExpectationResult{
				Layer:         step.Layer,
				Expectation:   exp,
				Passed:        passed,
				Reason:        reason,
				ActualPayload: actual,
			})

			if passed {
				r.logger.Info("Expectation passed", "layer", step.Layer, "check", describeExpectation(exp))
			} else {
				r.logger.Warn("Expectation failed", "layer", step.Layer, "check", describeExpectation(exp), "reason", reason)
			}

			timeline = append(timeline, reporter.TimelineEvent{
				Elapsed:     time.Since(startTime).Seconds(),
				Layer:       step.Layer,
				Description: describeExpectation(exp),
				Success:     passed,
				IsCheck:     true,
			})
		}
	}

	if s.TestMode != nil && r.opts.ResetTimeAfter {
		if err := r.player.ClearTimeConfig(); err != nil {
			r.logger.Warn("Failed to reset agent clock", "error", err)
		}
	}

	return Summarize(s, startTime, time.Now(), results), timeline, nil
}

// Summarize counts results into a TestResult
func Summarize(s *scenario.Scenario, start, end time.Time, results []scenario.ExpectationResult) *scenario.TestResult {
	result := &scenario.TestResult{
		Scenario:     s,
		StartTime:    start,
		EndTime:      end,
		Expectations: results,
	}
	for _, res := range results {
		if res.Passed {
			result.PassedCount++
		} else {
			result.FailedCount++
		}
	}
	result.Passed = result.FailedCount == 0
	return result
}

func (r *Runner) check(ctx context.Context, exp scenario.Expectation) (bool, string, interface{}) {
	switch exp.Kind() {
	case "postgres":
		if r.postgres == nil {
			return false, "postgres not configured for this run", nil
		}
		return r.postgres.CheckQuery(ctx, exp.PostgresQuery, exp.PostgresExpected)
	case "redis":
		return checker.CheckRedis(ctx, r.redis, exp)
	default:
		return checker.CheckMessages(exp, r.recorder.Messages())
	}
}

func (r *Runner) initialize(ctx context.Context) error {
	r.recorder = capture.NewRecorder(r.opts.MQTTBroker, captureTopics, r.logger)
	if err := r.recorder.Start(); err != nil {
		return fmt.Errorf("failed to start recorder: %w", err)
	}

	player, err := NewPlayer(r.opts.MQTTBroker, r.logger)
	if err != nil {
		return fmt.Errorf("failed to create MQTT player: %w", err)
	}
	r.player = player

	r.redis = redis.NewClient(&redis.Options{Addr: r.opts.RedisAddr})
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if r.opts.PostgresConn != "" {
		pc, err := checker.NewPostgresChecker(ctx, r.opts.PostgresConn, r.logger)
		if err != nil {
			return err
		}
		r.postgres = pc
	}

	return nil
}

func (r *Runner) cleanup() {
	if r.recorder != nil {
		r.recorder.Stop()
	}
	if r.player != nil {
		r.player.Close()
	}
	if r.redis != nil {
		r.redis.Close()
	}
	if r.postgres != nil {
		r.postgres.Close()
	}
}

// SaveCapture writes all captured MQTT traffic to filename
func (r *Runner) SaveCapture(filename string) error {
	if r.recorder == nil {
		return fmt.Errorf("recorder not initialized")
	}
	return r.recorder.Save(filename)
}

func describeWeather(event scenario.WeatherEvent) string {
	if event.Condition != "" && event.Code != 0 {
		return fmt.Sprintf("%s [%d]", event.Condition, event.Code)
	}
	if event.Condition != "" {
		return event.Condition
	}
	return fmt.Sprintf("code %d", event.Code)
}

func describeExpectation(exp scenario.Expectation) string {
	switch exp.Kind() {
	case "postgres":
		return "postgres: " + exp.PostgresQuery
	case "redis":
		return fmt.Sprintf("redis: %s %s", exp.RedisKey, exp.RedisField)
	default:
		return exp.Topic
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
