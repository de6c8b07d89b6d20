package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/signup-sheets-api/internal/models"
	"github.com/noah-isme/signup-sheets-api/internal/sanitize"
	appErrors "github.com/noah-isme/signup-sheets-api/pkg/errors"
)

type templateRepository interface {
	List(ctx context.Context, filter models.TemplateFilter) ([]models.EmailTemplate, int, error)
	GetByID(ctx context.Context, id int64) (*models.EmailTemplate, error)
	GetDefault(ctx context.Context, emailType models.EmailType) (*models.EmailTemplate, error)
	Create(ctx context.Context, template *models.EmailTemplate) error
	Update(ctx context.Context, template *models.EmailTemplate) error
	Delete(ctx context.Context, id int64) error
}

// SaveTemplateRequest creates or updates an email template.
type SaveTemplateRequest struct {
	EmailType models.EmailType `json:"email_type" validate:"required"`
	Subject   string           `json:"subject" validate:"required"`
	Body      string           `json:"body" validate:"required"`
	FromName  string           `json:"from_name"`
	FromEmail string           `json:"from_email"`
	IsDefault bool             `json:"is_default"`
}

// TemplateService manages email templates and resolves which template
// applies to a given task.
type TemplateService struct {
	repo      templateRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTemplateService constructs a TemplateService.
func NewTemplateService(repo templateRepository, validate *validator.Validate, logger *zap.Logger) *TemplateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateService{repo: repo, validator: validate, logger: logger}
}

// List returns templates with pagination metadata.
func (s *TemplateService) List(ctx context.Context, filter models.TemplateFilter) ([]models.EmailTemplate, *models.Pagination, error) {
	templates, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list templates")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return templates, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one template.
func (s *TemplateService) Get(ctx context.Context, id int64) (*models.EmailTemplate, error) {
	template, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	return template, nil
}

// Create stores a new template.
func (s *TemplateService) Create(ctx context.Context, authorID int64, req SaveTemplateRequest) (*models.EmailTemplate, error) {
	template, err := s.buildTemplate(req)
	if err != nil {
		return nil, err
	}
	template.AuthorID = authorID
	if err := s.repo.Create(ctx, template); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create template")
	}
	return template, nil
}

// Update modifies an existing template.
func (s *TemplateService) Update(ctx context.Context, id int64, req SaveTemplateRequest) (*models.EmailTemplate, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	template, err := s.buildTemplate(req)
	if err != nil {
		return nil, err
	}
	template.ID = existing.ID
	template.AuthorID = existing.AuthorID
	template.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, template); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update template")
	}
	return template, nil
}

// Delete removes a template. Sheets and tasks pointing at it fall back to
// the system default for that email type.
func (s *TemplateService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete template")
	}
	return nil
}

// Resolve picks the template for an email type using the override chain:
// the task's own template wins, then the sheet's, then the system default.
// A nil return with nil error means no template exists and the email is
// skipped.
func (s *TemplateService) Resolve(ctx context.Context, emailType models.EmailType, sheet *models.Sheet, task *models.Task) (*models.EmailTemplate, error) {
	for _, id := range []int64{templateOverride(emailType, task), sheetOverride(emailType, sheet)} {
		if id == 0 {
			continue
		}
		template, err := s.repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve template")
		}
		return template, nil
	}

	template, err := s.repo.GetDefault(ctx, emailType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve default template")
	}
	return template, nil
}

// Render substitutes {placeholder} tokens in the subject and body.
func (s *TemplateService) Render(template *models.EmailTemplate, data map[string]string) (subject string, body string) {
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{"+key+"}", value)
	}
	replacer := strings.NewReplacer(pairs...)
	return replacer.Replace(template.Subject), replacer.Replace(template.Body)
}

func (s *TemplateService) buildTemplate(req SaveTemplateRequest) (*models.EmailTemplate, error) {
	req.Subject = sanitize.Text(req.Subject)
	req.Body = sanitize.RichText(req.Body)
	req.FromName = sanitize.Text(req.FromName)
	req.FromEmail = sanitize.Email(req.FromEmail)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}
	if !req.EmailType.ValidEmailType() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown email type")
	}
	return &models.EmailTemplate{
		EmailType: req.EmailType,
		Subject:   req.Subject,
		Body:      req.Body,
		FromName:  req.FromName,
		FromEmail: req.FromEmail,
		IsDefault: req.IsDefault,
	}, nil
}

func templateOverride(emailType models.EmailType, task *models.Task) int64 {
	if task == nil {
		return 0
	}
	switch emailType {
	case models.EmailTypeConfirmation:
		return task.ConfirmationTemplateID
	case models.EmailTypeReminder1:
		return task.Reminder1TemplateID
	case models.EmailTypeReminder2:
		return task.Reminder2TemplateID
	case models.EmailTypeClear:
		return task.ClearTemplateID
	case models.EmailTypeReschedule:
		return task.RescheduleTemplateID
	}
	return 0
}

func sheetOverride(emailType models.EmailType, sheet *models.Sheet) int64 {
	if sheet == nil {
		return 0
	}
	switch emailType {
	case models.EmailTypeConfirmation:
		return sheet.ConfirmationTemplateID
	case models.EmailTypeReminder1:
		return sheet.Reminder1TemplateID
	case models.EmailTypeReminder2:
		return sheet.Reminder2TemplateID
	case models.EmailTypeClear:
		return sheet.ClearTemplateID
	case models.EmailTypeReschedule:
		return sheet.RescheduleTemplateID
	}
	return 0
}
