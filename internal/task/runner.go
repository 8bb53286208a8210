package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/lexiday/lexiday-api/internal/generation"
)

// TaskRunnerConfig holds configuration for the task runner.
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks.
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue.
	QueueSize int

	// MaxAttempts is the number of times a task is executed before it is
	// marked failed. Must be at least 1.
	MaxAttempts int

	// RetryBaseDelay is the delay before the first retry; each further
	// retry doubles it, capped at RetryMaxDelay.
	RetryBaseDelay time.Duration

	// RetryMaxDelay caps the backoff between retries.
	RetryMaxDelay time.Duration

	// TypeConcurrency limits how many tasks of a given type may execute at
	// once, independent of WorkerCount. Task types without an entry are
	// unlimited.
	TypeConcurrency map[string]int64

	// StuckTaskAge defines how long a task can be in processing state
	// before it's considered stuck and reset.
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval defines how often to check for stuck tasks.
	// If zero, defaults to 5 minutes.
	StuckTaskCheckInterval time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults.
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            2,
		QueueSize:              100,
		MaxAttempts:            3,
		RetryBaseDelay:         2 * time.Second,
		RetryMaxDelay:          time.Minute,
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
	}
}

// TaskRunner manages background task processing.
type TaskRunner struct {
	store      TaskStore
	taskChan   chan Task
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     TaskRunnerConfig
	logger     *slog.Logger
	semaphores map[string]*semaphore.Weighted
	errHandler func(task Task, err error)
}

// NewTaskRunner creates a new TaskRunner.
func NewTaskRunner(store TaskStore, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if config.StuckTaskCheckInterval == 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.RetryBaseDelay <= 0 {
		config.RetryBaseDelay = 2 * time.Second
	}
	if config.RetryMaxDelay <= 0 {
		config.RetryMaxDelay = time.Minute
	}

	semaphores := make(map[string]*semaphore.Weighted, len(config.TypeConcurrency))
	for taskType, limit := range config.TypeConcurrency {
		if limit > 0 {
			semaphores[taskType] = semaphore.NewWeighted(limit)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &TaskRunner{
		store:      store,
		taskChan:   make(chan Task, config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger,
		semaphores: semaphores,
		errHandler: func(task Task, err error) {
			logger.Error("task execution failed",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
		},
	}
}

// SetErrorHandler allows setting a custom error handler function.
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// Submit adds a new task to the queue. The task is persisted before being
// queued so it can be recovered if the process dies before execution.
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	if err := r.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	select {
	case r.taskChan <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full, try again later")
	}
}

// Start initializes the worker pool and begins processing tasks.
func (r *TaskRunner) Start() error {
	if err := r.Recover(); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.stuckTaskMonitor()

	return nil
}

// Stop gracefully shuts down the task runner.
func (r *TaskRunner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	close(r.taskChan)
}

// Recover loads any unfinished tasks from the database and requeues them.
// Tasks found in processing state were interrupted by a crash and are reset
// to pending first.
func (r *TaskRunner) Recover() error {
	ctx := context.Background()

	pendingTasks, err := r.store.GetPendingTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending tasks: %w", err)
	}

	processingTasks, err := r.store.GetProcessingTasks(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing tasks: %w", err)
	}

	r.logger.Info("recovering unfinished tasks",
		"pending_count", len(pendingTasks),
		"processing_count", len(processingTasks))

	for _, task := range pendingTasks {
		r.requeue(task)
	}

	for _, task := range processingTasks {
		if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusPending, "Reset after recovery"); err != nil {
			r.logger.Error("failed to reset processing task status",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
			continue
		}
		r.requeue(task)
	}

	return nil
}

func (r *TaskRunner) requeue(task Task) {
	select {
	case r.taskChan <- task:
	default:
		r.logger.Error("failed to requeue task, queue is full",
			"task_id", task.ID(),
			"task_type", task.Type())
	}
}

// worker processes tasks from the queue.
func (r *TaskRunner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return

		case task, ok := <-r.taskChan:
			if !ok {
				r.logger.Debug("task channel closed, stopping worker", "worker_id", id)
				return
			}
			r.processTask(task, id)
		}
	}
}

// processTask handles execution of a single task, including retries.
func (r *TaskRunner) processTask(task Task, workerID int) {
	ctx := context.Background()
	logger := r.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
		"worker_id", workerID,
	)

	if sem, ok := r.semaphores[task.Type()]; ok {
		if err := sem.Acquire(r.ctx, 1); err != nil {
			// Runner is shutting down; leave the task pending for recovery.
			return
		}
		defer sem.Release(1)
	}

	if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusProcessing, ""); err != nil {
		logger.Error("failed to update task status to processing", "error", err)
		return
	}

	logger.Info("processing task")

	err := r.executeWithRetry(ctx, task, logger)
	if err != nil {
		logger.Error("task failed after all attempts", "error", err)
		if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
			logger.Error("failed to update task status to failed", "error", updateErr)
		}
		r.errHandler(task, err)
		return
	}

	logger.Info("task completed successfully")
	if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusCompleted, ""); updateErr != nil {
		logger.Error("failed to update task status to completed", "error", updateErr)
	}
}

// executeWithRetry runs the task up to MaxAttempts times with doubling
// backoff between attempts. Quota failures cannot succeed until their window
// resets, so they fail immediately instead of burning attempts.
func (r *TaskRunner) executeWithRetry(ctx context.Context, task Task, logger *slog.Logger) error {
	var lastErr error

	delay := r.config.RetryBaseDelay
	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		lastErr = task.Execute(ctx)
		if lastErr == nil {
			return nil
		}

		if errors.Is(lastErr, generation.ErrRateLimitExceeded) ||
			errors.Is(lastErr, generation.ErrCostCeilingExceeded) {
			logger.Warn("task hit a quota limit, not retrying",
				"attempt", attempt,
				"error", lastErr)
			return lastErr
		}

		if attempt == r.config.MaxAttempts {
			break
		}

		logger.Warn("task attempt failed, retrying",
			"attempt", attempt,
			"max_attempts", r.config.MaxAttempts,
			"retry_in", delay,
			"error", lastErr)

		select {
		case <-r.ctx.Done():
			return lastErr
		case <-time.After(delay):
		}

		delay *= 2
		if delay > r.config.RetryMaxDelay {
			delay = r.config.RetryMaxDelay
		}
	}

	return lastErr
}

// stuckTaskMonitor periodically checks for tasks that have been in
// processing state for too long and resets them.
func (r *TaskRunner) stuckTaskMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			ctx := context.Background()

			stuckTasks, err := r.store.GetProcessingTasks(ctx, r.config.StuckTaskAge)
			if err != nil {
				r.logger.Error("failed to check for stuck tasks", "error", err)
				continue
			}
			if len(stuckTasks) == 0 {
				continue
			}

			r.logger.Info("found stuck tasks", "count", len(stuckTasks))

			for _, task := range stuckTasks {
				if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusPending,
					"Reset after being stuck in processing state"); err != nil {
					r.logger.Error("failed to reset stuck task status",
						"task_id", task.ID(),
						"task_type", task.Type(),
						"error", err)
					continue
				}
				r.requeue(task)
			}
		}
	}
}
