package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/signup-sheets-api/internal/models"
)

const signupColumns = `id, task_id, date, user_id, item, firstname, lastname, email, phone, item_qty,
reminder1_sent, reminder2_sent, validated, extra, ts`

func datesArray(dates []string) interface{} {
	return pq.Array(dates)
}

// AdmissionResult reports the outcome of a locked admission attempt.
type AdmissionResult struct {
	Admitted  bool
	Filled    int
	Available int
	Duplicate bool
}

// SignupRepository persists signups and owns the capacity-critical queries.
type SignupRepository struct {
	db *sqlx.DB
}

// NewSignupRepository constructs a signup repository.
func NewSignupRepository(db *sqlx.DB) *SignupRepository {
	return &SignupRepository{db: db}
}

// GetByID fetches a signup by primary key.
func (r *SignupRepository) GetByID(ctx context.Context, id int64) (*models.Signup, error) {
	query := fmt.Sprintf("SELECT %s FROM signups WHERE id = $1", signupColumns)
	var signup models.Signup
	if err := r.db.GetContext(ctx, &signup, query, id); err != nil {
		return nil, err
	}
	return &signup, nil
}

// ListForTaskDate returns the signups consuming capacity for one (task, date).
func (r *SignupRepository) ListForTaskDate(ctx context.Context, taskID int64, date string) ([]models.Signup, error) {
	query := fmt.Sprintf("SELECT %s FROM signups WHERE task_id = $1 AND date = $2 ORDER BY ts ASC", signupColumns)
	var signups []models.Signup
	if err := r.db.SelectContext(ctx, &signups, query, taskID, date); err != nil {
		return nil, fmt.Errorf("list signups: %w", err)
	}
	return signups, nil
}

// ListByIdentity returns the signups owned by an identity tuple, joined
// with task and sheet context for display.
func (r *SignupRepository) ListByIdentity(ctx context.Context, identity models.SignupIdentity) ([]models.SignupDetail, error) {
	const query = `SELECT s.id, s.task_id, s.date, s.user_id, s.item, s.firstname, s.lastname, s.email, s.phone,
s.item_qty, s.reminder1_sent, s.reminder2_sent, s.validated, s.extra, s.ts,
t.title AS task_title, t.dates AS task_dates, t.time_start, t.time_end,
sh.id AS sheet_id, sh.title AS sheet_title, sh.type AS sheet_type
FROM signups s
JOIN tasks t ON t.id = s.task_id
JOIN sheets sh ON sh.id = t.sheet_id
WHERE sh.trash = FALSE
  AND ((s.user_id <> 0 AND s.user_id = $1)
    OR (LOWER(s.firstname) = LOWER($2) AND LOWER(s.lastname) = LOWER($3) AND LOWER(s.email) = LOWER($4)))
ORDER BY s.date ASC, s.ts ASC`
	var signups []models.SignupDetail
	if err := r.db.SelectContext(ctx, &signups, query, identity.UserID, identity.FirstName, identity.LastName, identity.Email); err != nil {
		return nil, fmt.Errorf("list signups by identity: %w", err)
	}
	return signups, nil
}

// ListBySheet returns all signups under a sheet for rosters and exports.
func (r *SignupRepository) ListBySheet(ctx context.Context, sheetID int64) ([]models.SignupDetail, error) {
	const query = `SELECT s.id, s.task_id, s.date, s.user_id, s.item, s.firstname, s.lastname, s.email, s.phone,
s.item_qty, s.reminder1_sent, s.reminder2_sent, s.validated, s.extra, s.ts,
t.title AS task_title, t.dates AS task_dates, t.time_start, t.time_end,
sh.id AS sheet_id, sh.title AS sheet_title, sh.type AS sheet_type
FROM signups s
JOIN tasks t ON t.id = s.task_id
JOIN sheets sh ON sh.id = t.sheet_id
WHERE sh.id = $1
ORDER BY s.date ASC, t.position ASC, s.ts ASC`
	var signups []models.SignupDetail
	if err := r.db.SelectContext(ctx, &signups, query, sheetID); err != nil {
		return nil, fmt.Errorf("list signups by sheet: %w", err)
	}
	return signups, nil
}

// Filled returns the capacity consumed for one (task, date): the signup
// count with quantities disabled, the item_qty sum with them enabled.
func (r *SignupRepository) Filled(ctx context.Context, taskID int64, date string, quantities bool) (int, error) {
	return r.filled(ctx, r.db, taskID, date, quantities, 0)
}

type queryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func (r *SignupRepository) filled(ctx context.Context, q queryer, taskID int64, date string, quantities bool, excludeSignupID int64) (int, error) {
	expr := "COUNT(*)"
	if quantities {
		expr = "COALESCE(SUM(item_qty), 0)"
	}
	query := fmt.Sprintf("SELECT %s FROM signups WHERE task_id = $1 AND date = $2 AND id <> $3", expr)
	var filled int
	if err := q.GetContext(ctx, &filled, query, taskID, date, excludeSignupID); err != nil {
		return 0, fmt.Errorf("compute filled: %w", err)
	}
	return filled, nil
}

// Admit runs the admission protocol atomically: the task row is locked for
// the duration of the transaction, so two concurrent attempts for the same
// task serialize and the second observes the first's insert. When signup.ID
// is non-zero the call is an edit and the row's own consumption is excluded
// from the filled figure before the updated quantity is checked.
func (r *SignupRepository) Admit(ctx context.Context, task *models.Task, signup *models.Signup, checkDuplicate bool) (*AdmissionResult, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin admission: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var qty int
	if err := tx.GetContext(ctx, &qty, "SELECT qty FROM tasks WHERE id = $1 FOR UPDATE", task.ID); err != nil {
		return nil, fmt.Errorf("lock task: %w", err)
	}

	quantities := task.EnableQuantities.Bool()

	if checkDuplicate && signup.ID == 0 {
		const dupQuery = `SELECT COUNT(*) FROM signups WHERE task_id = $1 AND date = $2
AND ((user_id <> 0 AND user_id = $3)
  OR (LOWER(firstname) = LOWER($4) AND LOWER(lastname) = LOWER($5) AND LOWER(email) = LOWER($6)))`
		var dupes int
		if err := tx.GetContext(ctx, &dupes, dupQuery, task.ID, signup.Date,
			signup.UserID, signup.FirstName, signup.LastName, signup.Email); err != nil {
			return nil, fmt.Errorf("check duplicate signup: %w", err)
		}
		if dupes > 0 {
			return &AdmissionResult{Duplicate: true}, tx.Commit()
		}
	}

	filled, err := r.filled(ctx, tx, task.ID, signup.Date, quantities, signup.ID)
	if err != nil {
		return nil, err
	}

	proposed := filled + 1
	if quantities {
		proposed = filled + signup.ItemQty
	}
	available := qty - filled
	if available < 0 {
		available = 0
	}

	if proposed > qty {
		return &AdmissionResult{Filled: filled, Available: available}, tx.Commit()
	}

	if signup.ID == 0 {
		if signup.TS.IsZero() {
			signup.TS = time.Now().UTC()
		}
		const insert = `INSERT INTO signups (task_id, date, user_id, item, firstname, lastname, email, phone, item_qty,
reminder1_sent, reminder2_sent, validated, extra, ts)
VALUES (:task_id, :date, :user_id, :item, :firstname, :lastname, :email, :phone, :item_qty,
:reminder1_sent, :reminder2_sent, :validated, :extra, :ts)
RETURNING id`
		rows, err := tx.NamedQuery(insert, signup)
		if err != nil {
			return nil, fmt.Errorf("insert signup: %w", err)
		}
		if rows.Next() {
			if err := rows.Scan(&signup.ID); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan signup id: %w", err)
			}
		}
		rows.Close()
	} else {
		const update = `UPDATE signups SET item = :item, firstname = :firstname, lastname = :lastname,
email = :email, phone = :phone, item_qty = :item_qty, validated = :validated, extra = :extra
WHERE id = :id`
		if _, err := tx.NamedExecContext(ctx, update, signup); err != nil {
			return nil, fmt.Errorf("update signup: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit admission: %w", err)
	}
	return &AdmissionResult{Admitted: true, Filled: proposed, Available: qty - proposed}, nil
}

// SetValidated marks matching signups as identity-confirmed.
func (r *SignupRepository) SetValidated(ctx context.Context, identity models.SignupIdentity) error {
	const query = `UPDATE signups SET validated = TRUE
WHERE validated = FALSE
  AND ((user_id <> 0 AND user_id = $1)
    OR (LOWER(firstname) = LOWER($2) AND LOWER(lastname) = LOWER($3) AND LOWER(email) = LOWER($4)))`
	if _, err := r.db.ExecContext(ctx, query, identity.UserID, identity.FirstName, identity.LastName, identity.Email); err != nil {
		return fmt.Errorf("mark signups validated: %w", err)
	}
	return nil
}

// Delete removes a signup.
func (r *SignupRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM signups WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete signup: %w", err)
	}
	return nil
}

// DeleteUnvalidatedBefore removes never-validated signups older than the
// cutoff and returns how many were swept.
func (r *SignupRepository) DeleteUnvalidatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM signups WHERE validated = FALSE AND user_id = 0 AND ts < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep unvalidated signups: %w", err)
	}
	return res.RowsAffected()
}

// ListDueReminders returns validated signups whose task date falls within
// the sheet's reminder window and whose flag for the given round is unset.
// The date cast sits inside a CASE guard: plain AND quals carry no
// evaluation-order guarantee, so a bare s.date::date could hit a
// sentinel-dated ongoing row first and abort the whole scan.
func (r *SignupRepository) ListDueReminders(ctx context.Context, round int, now time.Time) ([]models.SignupDetail, error) {
	flag, days := "reminder1_sent", "sh.reminder1_days"
	if round == 2 {
		flag, days = "reminder2_sent", "sh.reminder2_days"
	}
	query := fmt.Sprintf(`SELECT s.id, s.task_id, s.date, s.user_id, s.item, s.firstname, s.lastname, s.email, s.phone,
s.item_qty, s.reminder1_sent, s.reminder2_sent, s.validated, s.extra, s.ts,
t.title AS task_title, t.dates AS task_dates, t.time_start, t.time_end,
sh.id AS sheet_id, sh.title AS sheet_title, sh.type AS sheet_type
FROM signups s
JOIN tasks t ON t.id = s.task_id
JOIN sheets sh ON sh.id = t.sheet_id
WHERE sh.trash = FALSE
  AND s.validated = TRUE
  AND s.%s = FALSE
  AND %s IS NOT NULL
  AND CASE WHEN s.date <> '%s' THEN s.date::date END
      BETWEEN $1::date AND ($1::date + (%s || ' days')::interval)`,
		flag, days, models.DateSentinel, days)
	var due []models.SignupDetail
	if err := r.db.SelectContext(ctx, &due, query, now.Format("2006-01-02")); err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	return due, nil
}

// MarkReminderSent sets the idempotency flag for the given round.
func (r *SignupRepository) MarkReminderSent(ctx context.Context, id int64, round int) error {
	flag := "reminder1_sent"
	if round == 2 {
		flag = "reminder2_sent"
	}
	query := fmt.Sprintf("UPDATE signups SET %s = TRUE WHERE id = $1", flag)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}
