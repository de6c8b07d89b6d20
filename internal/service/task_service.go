package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/signup-sheets-api/internal/fields"
	"github.com/noah-isme/signup-sheets-api/internal/models"
	"github.com/noah-isme/signup-sheets-api/internal/sanitize"
	"github.com/noah-isme/signup-sheets-api/internal/schedule"
	appErrors "github.com/noah-isme/signup-sheets-api/pkg/errors"
)

type taskRepository interface {
	ListBySheet(ctx context.Context, sheetID int64) ([]models.Task, error)
	GetByID(ctx context.Context, id int64) (*models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	UpdatePosition(ctx context.Context, id int64, position int) error
	Delete(ctx context.Context, id int64) error
}

// SaveTaskRequest creates or updates a task.
type SaveTaskRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`

	// Dates seeds the shared occurrence list when the sheet has no tasks
	// yet, or carries the task's own date on a multi-day sheet. Once a
	// single or recurring sheet has tasks, new tasks inherit the shared
	// list and this field is ignored.
	Dates []string `json:"dates"`

	TimeStart *string `json:"time_start"`
	TimeEnd   *string `json:"time_end"`

	Qty int `json:"qty"`

	NeedDetails     bool   `json:"need_details"`
	DetailsRequired bool   `json:"details_required"`
	DetailsText     string `json:"details_text"`

	AllowDuplicates  bool `json:"allow_duplicates"`
	EnableQuantities bool `json:"enable_quantities"`

	ConfirmationTemplateID int64 `json:"confirmation_template_id"`
	Reminder1TemplateID    int64 `json:"reminder1_template_id"`
	Reminder2TemplateID    int64 `json:"reminder2_template_id"`
	ClearTemplateID        int64 `json:"clear_template_id"`
	RescheduleTemplateID   int64 `json:"reschedule_template_id"`

	Extra map[string]string `json:"extra"`
}

// TaskService manages tasks under a sheet.
type TaskService struct {
	repo      taskRepository
	sheets    sheetReader
	registry  *fields.Registry
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTaskService constructs a TaskService.
func NewTaskService(repo taskRepository, sheets sheetReader, registry *fields.Registry, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = fields.NewRegistry()
	}
	return &TaskService{repo: repo, sheets: sheets, registry: registry, validator: validate, logger: logger}
}

// ListBySheet returns the sheet's tasks in display order.
func (s *TaskService) ListBySheet(ctx context.Context, sheetID int64) ([]models.Task, error) {
	if _, err := s.loadSheet(ctx, sheetID); err != nil {
		return nil, err
	}
	tasks, err := s.repo.ListBySheet(ctx, sheetID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	return tasks, nil
}

// Get returns one task.
func (s *TaskService) Get(ctx context.Context, id int64) (*models.Task, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	return task, nil
}

// Create adds a task to a sheet, deriving its dates from the sheet type.
func (s *TaskService) Create(ctx context.Context, sheetID int64, req SaveTaskRequest) (*models.Task, error) {
	sheet, err := s.loadSheet(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	siblings, err := s.repo.ListBySheet(ctx, sheetID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tasks")
	}

	task, err := s.buildTask(sheet, siblings, req)
	if err != nil {
		return nil, err
	}
	task.SheetID = sheetID
	task.Position = len(siblings)
	if err := s.registry.Notify(ctx, fields.EntityTask, fields.HookBeforeSave, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "task rejected")
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}
	s.observe(ctx, fields.HookAfterCreate, task)
	return task, nil
}

// Update modifies a task.
func (s *TaskService) Update(ctx context.Context, id int64, req SaveTaskRequest) (*models.Task, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sheet, err := s.loadSheet(ctx, existing.SheetID)
	if err != nil {
		return nil, err
	}
	siblings, err := s.repo.ListBySheet(ctx, existing.SheetID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tasks")
	}

	task, err := s.buildTask(sheet, siblings, req)
	if err != nil {
		return nil, err
	}
	task.ID = existing.ID
	task.SheetID = existing.SheetID
	task.Position = existing.Position
	task.CreatedAt = existing.CreatedAt
	if sheet.Type == models.SheetTypeSingle || sheet.Type == models.SheetTypeRecurring {
		task.Dates = existing.Dates
	}
	if err := s.registry.Notify(ctx, fields.EntityTask, fields.HookBeforeSave, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "task rejected")
	}
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
	}
	s.observe(ctx, fields.HookAfterUpdate, task)
	return task, nil
}

// Reorder applies a new display order. Every task of the sheet must appear
// exactly once.
func (s *TaskService) Reorder(ctx context.Context, sheetID int64, orderedIDs []int64) error {
	tasks, err := s.ListBySheet(ctx, sheetID)
	if err != nil {
		return err
	}
	if len(orderedIDs) != len(tasks) {
		return appErrors.Clone(appErrors.ErrValidation, "order must include every task exactly once")
	}
	known := make(map[int64]bool, len(tasks))
	for _, task := range tasks {
		known[task.ID] = true
	}
	for _, id := range orderedIDs {
		if !known[id] {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("task %d does not belong to sheet %d", id, sheetID))
		}
		delete(known, id)
	}
	for position, id := range orderedIDs {
		if err := s.repo.UpdatePosition(ctx, id, position); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reorder tasks")
		}
	}
	return nil
}

// Delete removes a task and its signups.
func (s *TaskService) Delete(ctx context.Context, id int64) error {
	task, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete task")
	}
	s.observe(ctx, fields.HookAfterDelete, task)
	return nil
}

func (s *TaskService) observe(ctx context.Context, hook fields.Hook, task *models.Task) {
	if err := s.registry.Notify(ctx, fields.EntityTask, hook, task); err != nil {
		s.logger.Warn("task observer failed", zap.String("hook", string(hook)), zap.Int64("task_id", task.ID), zap.Error(err))
	}
}

func (s *TaskService) loadSheet(ctx context.Context, id int64) (*models.Sheet, error) {
	sheet, err := s.sheets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "sheet not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sheet")
	}
	return sheet, nil
}

func (s *TaskService) buildTask(sheet *models.Sheet, siblings []models.Task, req SaveTaskRequest) (*models.Task, error) {
	req.Title = sanitize.Text(req.Title)
	req.Description = sanitize.RichText(req.Description)
	req.DetailsText = sanitize.Text(req.DetailsText)
	if req.TimeStart != nil {
		trimmed := sanitize.Time(*req.TimeStart)
		req.TimeStart = &trimmed
	}
	if req.TimeEnd != nil {
		trimmed := sanitize.Time(*req.TimeEnd)
		req.TimeEnd = &trimmed
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}

	// A zero quantity means the slot is informational only, which is valid
	// solely on a display-only sheet.
	if req.Qty < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "quantity cannot be negative")
	}
	if req.Qty == 0 && !sheet.NoSignups {
		return nil, appErrors.Clone(appErrors.ErrValidation, "quantity must be at least 1 on a sheet that takes signups")
	}

	dates, err := s.resolveTaskDates(sheet, siblings, req.Dates)
	if err != nil {
		return nil, err
	}

	extra, missing := s.registry.Apply(fields.EntityTask, req.Extra)
	if len(missing) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")))
	}

	return &models.Task{
		Title:                  req.Title,
		Description:            req.Description,
		Dates:                  dates,
		TimeStart:              req.TimeStart,
		TimeEnd:                req.TimeEnd,
		Qty:                    req.Qty,
		NeedDetails:            yesNo(req.NeedDetails),
		DetailsRequired:        yesNo(req.DetailsRequired),
		DetailsText:            req.DetailsText,
		AllowDuplicates:        yesNo(req.AllowDuplicates),
		EnableQuantities:       yesNo(req.EnableQuantities),
		ConfirmationTemplateID: req.ConfirmationTemplateID,
		Reminder1TemplateID:    req.Reminder1TemplateID,
		Reminder2TemplateID:    req.Reminder2TemplateID,
		ClearTemplateID:        req.ClearTemplateID,
		RescheduleTemplateID:   req.RescheduleTemplateID,
		Extra:                  extra,
	}, nil
}

// resolveTaskDates derives the stored dates value: single and recurring
// sheets share one list across every task, ongoing sheets use the sentinel,
// and multi-day tasks carry their own date.
func (s *TaskService) resolveTaskDates(sheet *models.Sheet, siblings []models.Task, raw []string) (string, error) {
	switch sheet.Type {
	case models.SheetTypeSingle, models.SheetTypeRecurring:
		if len(siblings) > 0 {
			return siblings[0].Dates, nil
		}
		dates, err := schedule.NormalizeDates(raw)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid dates")
		}
		if err := schedule.ValidateForType(sheet.Type, dates); err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid dates for sheet type")
		}
		return schedule.TaskDates(sheet.Type, dates, ""), nil
	case models.SheetTypeOngoing:
		return models.DateSentinel, nil
	default:
		own := ""
		if len(raw) > 0 {
			own = raw[0]
		}
		dates := schedule.TaskDates(sheet.Type, nil, own)
		if dates == models.DateSentinel {
			return "", appErrors.Clone(appErrors.ErrValidation, "a multi-day task requires a valid date")
		}
		return dates, nil
	}
}

func yesNo(b bool) models.YesNo {
	if b {
		return models.Yes
	}
	return models.No
}
