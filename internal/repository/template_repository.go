package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/signup-sheets-api/internal/models"
)

const templateColumns = `id, author_id, email_type, subject, body, from_name, from_email, is_default, created_at, updated_at`

// TemplateRepository persists email templates.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository constructs a template repository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// List returns templates matching the filter.
func (r *TemplateRepository) List(ctx context.Context, filter models.TemplateFilter) ([]models.EmailTemplate, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}

	if filter.EmailType != nil {
		where = append(where, fmt.Sprintf("email_type = $%d", len(args)+1))
		args = append(args, *filter.EmailType)
	}
	if filter.AuthorID != nil {
		where = append(where, fmt.Sprintf("author_id = $%d", len(args)+1))
		args = append(args, *filter.AuthorID)
	}
	if filter.DefaultsOnly {
		where = append(where, "is_default = TRUE")
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

	query := fmt.Sprintf("SELECT %s FROM email_templates WHERE %s ORDER BY email_type ASC, id ASC LIMIT %d OFFSET %d",
		templateColumns, whereClause, size, offset)
	var templates []models.EmailTemplate
	if err := r.db.SelectContext(ctx, &templates, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list templates: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM email_templates WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count templates: %w", err)
	}
	return templates, total, nil
}

// GetByID fetches a template by primary key.
func (r *TemplateRepository) GetByID(ctx context.Context, id int64) (*models.EmailTemplate, error) {
	query := fmt.Sprintf("SELECT %s FROM email_templates WHERE id = $1", templateColumns)
	var template models.EmailTemplate
	if err := r.db.GetContext(ctx, &template, query, id); err != nil {
		return nil, err
	}
	return &template, nil
}

// GetDefault fetches the system default for an email type.
func (r *TemplateRepository) GetDefault(ctx context.Context, emailType models.EmailType) (*models.EmailTemplate, error) {
	query := fmt.Sprintf("SELECT %s FROM email_templates WHERE email_type = $1 AND is_default = TRUE ORDER BY id ASC LIMIT 1", templateColumns)
	var template models.EmailTemplate
	if err := r.db.GetContext(ctx, &template, query, emailType); err != nil {
		return nil, err
	}
	return &template, nil
}

// Create inserts a template and captures the generated id. Promoting a
// template to default demotes the previous default for the same type.
func (r *TemplateRepository) Create(ctx context.Context, template *models.EmailTemplate) error {
	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin template create: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if template.IsDefault {
		if _, err := tx.ExecContext(ctx,
			"UPDATE email_templates SET is_default = FALSE WHERE email_type = $1 AND is_default = TRUE",
			template.EmailType); err != nil {
			return fmt.Errorf("demote default template: %w", err)
		}
	}

	const query = `INSERT INTO email_templates (author_id, email_type, subject, body, from_name, from_email, is_default, created_at, updated_at)
VALUES (:author_id, :email_type, :subject, :body, :from_name, :from_email, :is_default, :created_at, :updated_at)
RETURNING id`
	rows, err := tx.NamedQuery(query, template)
	if err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	if rows.Next() {
		if err := rows.Scan(&template.ID); err != nil {
			rows.Close()
			return fmt.Errorf("scan template id: %w", err)
		}
	}
	rows.Close()
	return tx.Commit()
}

// Update modifies a template, demoting any other default of the same type
// when this one is promoted.
func (r *TemplateRepository) Update(ctx context.Context, template *models.EmailTemplate) error {
	template.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin template update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if template.IsDefault {
		if _, err := tx.ExecContext(ctx,
			"UPDATE email_templates SET is_default = FALSE WHERE email_type = $1 AND is_default = TRUE AND id <> $2",
			template.EmailType, template.ID); err != nil {
			return fmt.Errorf("demote default template: %w", err)
		}
	}

	const query = `UPDATE email_templates SET email_type = :email_type, subject = :subject, body = :body,
from_name = :from_name, from_email = :from_email, is_default = :is_default, updated_at = :updated_at
WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, template); err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	return tx.Commit()
}

// Delete removes a template and resets any sheet or task references to it.
func (r *TemplateRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin template delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, table := range []string{"sheets", "tasks"} {
		for _, col := range []string{
			"confirmation_template_id", "reminder1_template_id", "reminder2_template_id",
			"clear_template_id", "reschedule_template_id",
		} {
			query := fmt.Sprintf("UPDATE %s SET %s = 0 WHERE %s = $1", table, col, col)
			if _, err := tx.ExecContext(ctx, query, id); err != nil {
				return fmt.Errorf("detach template reference: %w", err)
			}
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM email_templates WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return tx.Commit()
}
