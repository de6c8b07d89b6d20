package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/signup-sheets-api/internal/models"
)

const sheetColumns = `id, title, details, first_date, last_date, type, chair_name, chair_email, sheet_group,
reminder1_days, reminder2_days, clear, clear_type, clear_days, no_signups, duplicate_times, visible, trash,
confirmation_template_id, reminder1_template_id, reminder2_template_id, clear_template_id, reschedule_template_id,
extra, created_at, updated_at`

// SheetRepository persists sheets.
type SheetRepository struct {
	db *sqlx.DB
}

// NewSheetRepository constructs a sheet repository.
func NewSheetRepository(db *sqlx.DB) *SheetRepository {
	return &SheetRepository{db: db}
}

// List returns sheets matching the filter. Trashed sheets are excluded
// unless explicitly requested.
func (r *SheetRepository) List(ctx context.Context, filter models.SheetFilter) ([]models.Sheet, int, error) {
	base := "FROM sheets"
	where := []string{"1=1"}
	args := []interface{}{}

	switch {
	case filter.TrashedOnly:
		where = append(where, "trash = TRUE")
	case !filter.IncludeTrashed:
		where = append(where, "trash = FALSE")
	}
	if filter.VisibleOnly {
		where = append(where, "visible = TRUE")
	}
	if filter.Group != "" {
		where = append(where, fmt.Sprintf("sheet_group = $%d", len(args)+1))
		args = append(args, filter.Group)
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("LOWER(title) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY first_date ASC NULLS LAST, id ASC LIMIT %d OFFSET %d",
		sheetColumns, base, whereClause, size, offset)
	var sheets []models.Sheet
	if err := r.db.SelectContext(ctx, &sheets, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sheets: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sheets: %w", err)
	}
	return sheets, total, nil
}

// GetByID fetches a sheet by primary key.
func (r *SheetRepository) GetByID(ctx context.Context, id int64) (*models.Sheet, error) {
	query := fmt.Sprintf("SELECT %s FROM sheets WHERE id = $1", sheetColumns)
	var sheet models.Sheet
	if err := r.db.GetContext(ctx, &sheet, query, id); err != nil {
		return nil, err
	}
	return &sheet, nil
}

// Create inserts a sheet and captures the generated id.
func (r *SheetRepository) Create(ctx context.Context, sheet *models.Sheet) error {
	now := time.Now().UTC()
	if sheet.CreatedAt.IsZero() {
		sheet.CreatedAt = now
	}
	sheet.UpdatedAt = now

	const query = `INSERT INTO sheets (title, details, first_date, last_date, type, chair_name, chair_email, sheet_group,
reminder1_days, reminder2_days, clear, clear_type, clear_days, no_signups, duplicate_times, visible, trash,
confirmation_template_id, reminder1_template_id, reminder2_template_id, clear_template_id, reschedule_template_id,
extra, created_at, updated_at)
VALUES (:title, :details, :first_date, :last_date, :type, :chair_name, :chair_email, :sheet_group,
:reminder1_days, :reminder2_days, :clear, :clear_type, :clear_days, :no_signups, :duplicate_times, :visible, :trash,
:confirmation_template_id, :reminder1_template_id, :reminder2_template_id, :clear_template_id, :reschedule_template_id,
:extra, :created_at, :updated_at)
RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&sheet.ID); err != nil {
			return fmt.Errorf("scan sheet id: %w", err)
		}
	}
	return rows.Err()
}

// Update modifies a sheet.
func (r *SheetRepository) Update(ctx context.Context, sheet *models.Sheet) error {
	sheet.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sheets SET title = :title, details = :details, first_date = :first_date, last_date = :last_date,
type = :type, chair_name = :chair_name, chair_email = :chair_email, sheet_group = :sheet_group,
reminder1_days = :reminder1_days, reminder2_days = :reminder2_days,
clear = :clear, clear_type = :clear_type, clear_days = :clear_days,
no_signups = :no_signups, duplicate_times = :duplicate_times, visible = :visible, trash = :trash,
confirmation_template_id = :confirmation_template_id, reminder1_template_id = :reminder1_template_id,
reminder2_template_id = :reminder2_template_id, clear_template_id = :clear_template_id,
reschedule_template_id = :reschedule_template_id, extra = :extra, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, sheet); err != nil {
		return fmt.Errorf("update sheet: %w", err)
	}
	return nil
}

// SetTrash flips the soft-delete flag.
func (r *SheetRepository) SetTrash(ctx context.Context, id int64, trashed bool) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE sheets SET trash = $2, updated_at = $3 WHERE id = $1",
		id, trashed, time.Now().UTC()); err != nil {
		return fmt.Errorf("set sheet trash: %w", err)
	}
	return nil
}

// Delete hard-deletes a sheet and cascades to its tasks and signups in one
// transaction.
func (r *SheetRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sheet delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM signups WHERE task_id IN (SELECT id FROM tasks WHERE sheet_id = $1)", id); err != nil {
		return fmt.Errorf("delete sheet signups: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE sheet_id = $1", id); err != nil {
		return fmt.Errorf("delete sheet tasks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sheets WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete sheet: %w", err)
	}
	return tx.Commit()
}

// RewriteTaskDates applies a new date list to every task of the sheet and
// optionally removes signups whose date fell out of the set. Used by the
// scheduling policy's cascade and reschedule flows.
func (r *SheetRepository) RewriteTaskDates(ctx context.Context, sheetID int64, dates string, first *string, last *string, dropOrphans bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin date rewrite: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, "UPDATE tasks SET dates = $2, updated_at = $3 WHERE sheet_id = $1", sheetID, dates, now); err != nil {
		return fmt.Errorf("rewrite task dates: %w", err)
	}
	if dropOrphans {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM signups WHERE task_id IN (SELECT id FROM tasks WHERE sheet_id = $1) AND date <> ALL(string_to_array($2, ','))",
			sheetID, dates); err != nil {
			return fmt.Errorf("drop orphaned signups: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, "UPDATE sheets SET first_date = $2, last_date = $3, updated_at = $4 WHERE id = $1",
		sheetID, first, last, now); err != nil {
		return fmt.Errorf("update sheet bounds: %w", err)
	}
	return tx.Commit()
}
