// Package runner executes a plan's task units against the external tool. One
// run holds an exclusive file lock, registers every unit in the state ledger,
// and dispatches pending units to a bounded worker pool. Units whose manifest
// is unchanged since a completed run are skipped.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"platepipe/internal/config"
	"platepipe/internal/invoker"
	"platepipe/internal/logging"
	"platepipe/internal/notifications"
	"platepipe/internal/plan"
	"platepipe/internal/runstate"
	"platepipe/internal/services"
	"platepipe/internal/staging"
)

// ToolClient abstracts the external tool invocation for testing.
type ToolClient interface {
	Run(ctx context.Context, inv invoker.Invocation, output func(string)) ([]string, error)
}

// Runner drives plan execution.
type Runner struct {
	cfg      *config.Config
	store    *runstate.Store
	client   ToolClient
	logger   *slog.Logger
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock
}

// SetNotifier installs a notification service for task failure pushes.
func (r *Runner) SetNotifier(notifier notifications.Service) {
	if notifier != nil {
		r.notifier = notifier
	}
}

// New constructs a runner. The lock file lives in the state directory so two
// concurrent runs against the same workspace exclude each other.
func New(cfg *config.Config, store *runstate.Store, client ToolClient, logger *slog.Logger) (*Runner, error) {
	if cfg == nil || store == nil || client == nil {
		return nil, errors.New("runner requires config, store, and tool client")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.StateDir, "platepipe.lock")
	return &Runner{
		cfg:      cfg,
		store:    store,
		client:   client,
		logger:   logger,
		notifier: notifications.NewService(cfg),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Result summarizes one run.
type Result struct {
	Completed int
	Skipped   int
	Failed    int
	Review    int
	Errors    []error
}

// Execute runs every runnable unit in the plan. Unit failures are recorded
// in the ledger and the result; they never abort sibling units.
func (r *Runner) Execute(ctx context.Context, p plan.Plan) (Result, error) {
	ok, err := r.lock.TryLock()
	if err != nil {
		return Result{}, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return Result{}, fmt.Errorf("another run already holds %s", r.lockPath)
	}
	defer func() { _ = r.lock.Unlock() }()

	if _, err := r.store.ResetRunning(ctx); err != nil {
		return Result{}, err
	}

	var result Result
	for _, planErr := range p.Errors {
		result.Errors = append(result.Errors, planErr)
	}

	runnable := make([]runnableUnit, 0, len(p.Units))
	for _, unit := range p.Units {
		task, err := r.store.Register(ctx, unit.Stage.String(), unit.GroupKey(), unit.Checksum)
		if err != nil {
			return result, err
		}
		if task.CompletedWith(unit.Checksum) {
			result.Skipped++
			r.logger.Info("skipping completed unit",
				logging.String(logging.FieldStage, unit.Stage.String()),
				logging.String(logging.FieldGroup, unit.GroupKey()),
				logging.String(logging.FieldEventType, "task_skipped"),
			)
			continue
		}
		runnable = append(runnable, runnableUnit{unit: unit, taskID: task.ID})
	}

	started := time.Now()
	if len(runnable) > 0 {
		r.notify(ctx, func(ctx context.Context) error {
			return r.notifier.NotifyRunStarted(ctx, len(runnable))
		})
	}

	workers := r.cfg.Workflow.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs = make(chan runnableUnit)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				err := r.runUnit(ctx, job)
				mu.Lock()
				switch {
				case err == nil:
					result.Completed++
				case services.NeedsReview(err):
					result.Review++
					result.Errors = append(result.Errors, err)
				default:
					result.Failed++
					result.Errors = append(result.Errors, err)
				}
				mu.Unlock()
			}
		}()
	}

	for _, job := range runnable {
		select {
		case jobs <- job:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return result, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	if len(runnable) > 0 {
		r.notify(ctx, func(ctx context.Context) error {
			return r.notifier.NotifyRunCompleted(ctx, result.Completed, result.Failed, result.Review, time.Since(started))
		})
	}
	return result, nil
}

// notify sends a push on a background-tolerant context. Delivery failures are
// logged and never affect run outcome.
func (r *Runner) notify(ctx context.Context, send func(context.Context) error) {
	if r.notifier == nil {
		return
	}
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	if err := send(ctx); err != nil {
		r.logger.Warn("notification delivery failed", logging.Error(err))
	}
}

type runnableUnit struct {
	unit   plan.Unit
	taskID int64
}

func (r *Runner) runUnit(ctx context.Context, job runnableUnit) error {
	unit := job.unit
	stageName := unit.Stage.String()
	correlationID := uuid.NewString()

	taskCtx := services.WithStage(ctx, stageName)
	taskCtx = services.WithGroup(taskCtx, unit.GroupKey())
	taskCtx = services.WithRequestID(taskCtx, correlationID)
	logger := logging.WithContext(taskCtx, r.logger)

	if err := r.store.MarkRunning(ctx, job.taskID, correlationID); err != nil {
		return err
	}
	logger.Info("starting unit", logging.String(logging.FieldEventType, "task_start"))

	err := r.invokeUnit(taskCtx, unit, logger)
	if err != nil {
		if services.NeedsReview(err) {
			_ = r.store.MarkReview(ctx, job.taskID, err.Error())
			logger.Warn("unit parked for review",
				logging.Error(err),
				logging.String(logging.FieldEventType, "task_review"),
			)
		} else {
			_ = r.store.MarkFailed(ctx, job.taskID, err.Error())
			logger.Error("unit failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "task_failed"),
			)
			failErr := err
			r.notify(ctx, func(ctx context.Context) error {
				return r.notifier.NotifyTaskFailed(ctx, stageName, unit.GroupKey(), failErr)
			})
		}
		return err
	}

	if err := r.store.MarkCompleted(ctx, job.taskID); err != nil {
		return err
	}
	logger.Info("unit completed", logging.String(logging.FieldEventType, "task_complete"))
	return nil
}

func (r *Runner) invokeUnit(ctx context.Context, unit plan.Unit, logger *slog.Logger) error {
	stageName := unit.Stage.String()

	taskDir, err := staging.Materialize(ctx, r.cfg.Paths.StagingDir, staging.Task{
		Stage:    stageName,
		GroupKey: unit.GroupKey(),
		Manifest: unit.Manifest.Render(),
		Inputs:   unit.Group.Members,
		Slots:    unit.Slots,
		Illum:    unit.Group.Coarse.Members,
	}, logger)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "stage inputs", "", err)
	}

	outputDir := filepath.Join(r.cfg.Paths.OutputDir, stageName, staging.DirName(stageName, unit.GroupKey()))
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "create output directory", "", err)
	}

	inv := invoker.Invocation{
		Stage:      stageName,
		GroupKey:   unit.GroupKey(),
		Pipeline:   filepath.Join(r.cfg.Tools.PipelineDir, stageName+".cppipe"),
		DataFile:   filepath.Join(taskDir, staging.ManifestFileName),
		ImageDir:   taskDir,
		OutputDir:  outputDir,
		OutputGlob: unit.Spec.OutputGlob,
	}
	_, err = r.client.Run(ctx, inv, func(line string) {
		logger.Debug("tool output", logging.String("line", line))
	})
	return err
}
