package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lexiday/lexiday-api/internal/platform/logger"
	"github.com/lexiday/lexiday-api/internal/store"
	"github.com/lexiday/lexiday-api/internal/task"
)

// TaskStore implements the task.TaskStore interface using PostgreSQL.
type TaskStore struct {
	db       store.DBTX
	resolver task.Resolver
	logger   *slog.Logger
}

// NewTaskStore creates a new PostgreSQL implementation of task.TaskStore.
// The resolver rebinds recovered tasks to their execution logic; it may be
// nil in tests that never execute recovered tasks.
func NewTaskStore(db store.DBTX, resolver task.Resolver, log *slog.Logger) *TaskStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &TaskStore{
		db:       db,
		resolver: resolver,
		logger:   log.With(slog.String("component", "task_store")),
	}
}

var _ task.TaskStore = (*TaskStore)(nil)

// SaveTask persists a task to the database.
func (s *TaskStore) SaveTask(ctx context.Context, t task.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO tasks (id, type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, query,
		t.ID(),
		t.Type(),
		t.Payload(),
		t.Status(),
		now,
		now,
	)
	if err != nil {
		log.Error("failed to save task",
			"task_id", t.ID(),
			"task_type", t.Type(),
			"error", err)
		return fmt.Errorf("failed to save task to database: %w", err)
	}

	return nil
}

// UpdateTaskStatus updates the status of a task in the database.
// Updating an unknown task ID is a no-op.
func (s *TaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status task.TaskStatus,
	errorMsg string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query, status, errorMsg, time.Now().UTC(), taskID)
	if err != nil {
		log.Error("failed to update task status",
			"task_id", taskID,
			"status", status,
			"error", err)
		return fmt.Errorf("failed to update task status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		log.Warn("no task found with ID to update status", "task_id", taskID)
	}

	return nil
}

// GetPendingTasks retrieves all tasks with "pending" status.
func (s *TaskStore) GetPendingTasks(ctx context.Context) ([]task.Task, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusPending, 0)
}

// GetProcessingTasks retrieves tasks with "processing" status, optionally
// filtered to those untouched for longer than olderThan.
func (s *TaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]task.Task, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusProcessing, olderThan)
}

func (s *TaskStore) getTasksByStatus(
	ctx context.Context,
	status task.TaskStatus,
	olderThan time.Duration,
) ([]task.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, type, payload, status, error_message, created_at, updated_at
		FROM tasks
		WHERE status = $1
		ORDER BY created_at ASC
	`
	args := []any{status}

	if olderThan > 0 {
		query = `
			SELECT id, type, payload, status, error_message, created_at, updated_at
			FROM tasks
			WHERE status = $1 AND updated_at < $2
			ORDER BY created_at ASC
		`
		args = append(args, time.Now().UTC().Add(-olderThan))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks by status",
			"status", status,
			"error", err)
		return nil, fmt.Errorf("failed to query tasks by status: %w", err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		var (
			dbTask       databaseTask
			errorMessage sql.NullString
		)
		if err := rows.Scan(
			&dbTask.id,
			&dbTask.taskType,
			&dbTask.payload,
			&dbTask.status,
			&errorMessage,
			&dbTask.createdAt,
			&dbTask.updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		dbTask.errorMessage = errorMessage.String

		if s.resolver != nil {
			fn, err := s.resolver.Resolve(dbTask.taskType, dbTask.payload)
			if err != nil {
				log.Warn("failed to resolve recovered task, it will fail on execution",
					"task_id", dbTask.id,
					"task_type", dbTask.taskType,
					"error", err)
			} else {
				dbTask.executeFn = fn
			}
		}

		tasks = append(tasks, &dbTask)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

// WithTx implements task.TaskStore.WithTx.
func (s *TaskStore) WithTx(tx *sql.Tx) task.TaskStore {
	return &TaskStore{db: tx, resolver: s.resolver, logger: s.logger}
}

// databaseTask implements the task.Task interface for tasks loaded from the
// database. Its execution logic is rebound by the resolver at load time.
type databaseTask struct {
	id           uuid.UUID
	taskType     string
	payload      []byte
	status       task.TaskStatus
	errorMessage string
	createdAt    time.Time
	updatedAt    time.Time
	executeFn    func(ctx context.Context) error
}

func (t *databaseTask) ID() uuid.UUID {
	return t.id
}

func (t *databaseTask) Type() string {
	return t.taskType
}

func (t *databaseTask) Payload() []byte {
	return t.payload
}

func (t *databaseTask) Status() task.TaskStatus {
	return t.status
}

func (t *databaseTask) Execute(ctx context.Context) error {
	if t.executeFn != nil {
		return t.executeFn(ctx)
	}
	return errors.New("no execution function defined for recovered task")
}
