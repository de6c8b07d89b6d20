package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/signup-sheets-api/internal/models"
)

const taskColumns = `id, sheet_id, title, description, dates, time_start, time_end, qty,
need_details, details_required, details_text, allow_duplicates, enable_quantities, position,
confirmation_template_id, reminder1_template_id, reminder2_template_id, clear_template_id, reschedule_template_id,
extra, created_at, updated_at`

// TaskRepository persists tasks.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository constructs a task repository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// ListBySheet returns the sheet's tasks in display order.
func (r *TaskRepository) ListBySheet(ctx context.Context, sheetID int64) ([]models.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE sheet_id = $1 ORDER BY position ASC, id ASC", taskColumns)
	var tasks []models.Task
	if err := r.db.SelectContext(ctx, &tasks, query, sheetID); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// GetByID fetches a task by primary key.
func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE id = $1", taskColumns)
	var task models.Task
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		return nil, err
	}
	return &task, nil
}

// Create inserts a task and captures the generated id.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	const query = `INSERT INTO tasks (sheet_id, title, description, dates, time_start, time_end, qty,
need_details, details_required, details_text, allow_duplicates, enable_quantities, position,
confirmation_template_id, reminder1_template_id, reminder2_template_id, clear_template_id, reschedule_template_id,
extra, created_at, updated_at)
VALUES (:sheet_id, :title, :description, :dates, :time_start, :time_end, :qty,
:need_details, :details_required, :details_text, :allow_duplicates, :enable_quantities, :position,
:confirmation_template_id, :reminder1_template_id, :reminder2_template_id, :clear_template_id, :reschedule_template_id,
:extra, :created_at, :updated_at)
RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, task)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&task.ID); err != nil {
			return fmt.Errorf("scan task id: %w", err)
		}
	}
	return rows.Err()
}

// Update modifies a task.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now().UTC()
	const query = `UPDATE tasks SET title = :title, description = :description, dates = :dates,
time_start = :time_start, time_end = :time_end, qty = :qty,
need_details = :need_details, details_required = :details_required, details_text = :details_text,
allow_duplicates = :allow_duplicates, enable_quantities = :enable_quantities, position = :position,
confirmation_template_id = :confirmation_template_id, reminder1_template_id = :reminder1_template_id,
reminder2_template_id = :reminder2_template_id, clear_template_id = :clear_template_id,
reschedule_template_id = :reschedule_template_id, extra = :extra, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// UpdatePosition moves a task in the display order.
func (r *TaskRepository) UpdatePosition(ctx context.Context, id int64, position int) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE tasks SET position = $2, updated_at = $3 WHERE id = $1",
		id, position, time.Now().UTC()); err != nil {
		return fmt.Errorf("update task position: %w", err)
	}
	return nil
}

// Delete removes a task and its signups in one transaction.
func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin task delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM signups WHERE task_id = $1", id); err != nil {
		return fmt.Errorf("delete task signups: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return tx.Commit()
}

// CountSignupsForDates reports how many signups exist against any of the
// given dates across the sheet's tasks. The scheduling policy uses this as
// its guardrail before rewriting dates.
func (r *TaskRepository) CountSignupsForDates(ctx context.Context, sheetID int64, dates []string) (int, error) {
	const query = `SELECT COUNT(*) FROM signups s JOIN tasks t ON t.id = s.task_id WHERE t.sheet_id = $1 AND s.date = ANY($2)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, sheetID, datesArray(dates)); err != nil {
		return 0, fmt.Errorf("count signups for dates: %w", err)
	}
	return count, nil
}
