package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/signup-sheets-api/internal/fields"
	"github.com/noah-isme/signup-sheets-api/internal/models"
	"github.com/noah-isme/signup-sheets-api/internal/repository"
	"github.com/noah-isme/signup-sheets-api/internal/sanitize"
	"github.com/noah-isme/signup-sheets-api/internal/schedule"
	appErrors "github.com/noah-isme/signup-sheets-api/pkg/errors"
)

type sheetRepository interface {
	List(ctx context.Context, filter models.SheetFilter) ([]models.Sheet, int, error)
	GetByID(ctx context.Context, id int64) (*models.Sheet, error)
	Create(ctx context.Context, sheet *models.Sheet) error
	Update(ctx context.Context, sheet *models.Sheet) error
	SetTrash(ctx context.Context, id int64, trashed bool) error
	Delete(ctx context.Context, id int64) error
	RewriteTaskDates(ctx context.Context, sheetID int64, dates string, first *string, last *string, dropOrphans bool) error
}

type sheetTaskRepository interface {
	ListBySheet(ctx context.Context, sheetID int64) ([]models.Task, error)
	CountSignupsForDates(ctx context.Context, sheetID int64, dates []string) (int, error)
}

type entityCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// SaveSheetRequest creates or updates a sheet.
type SaveSheetRequest struct {
	Title      string           `json:"title" validate:"required"`
	Details    string           `json:"details"`
	Type       models.SheetType `json:"type" validate:"required"`
	ChairName  string           `json:"chair_name"`
	ChairEmail string           `json:"chair_email"`
	SheetGroup string           `json:"sheet_group"`

	Reminder1Days *int `json:"reminder1_days"`
	Reminder2Days *int `json:"reminder2_days"`

	Clear     bool             `json:"clear"`
	ClearType models.ClearUnit `json:"clear_type"`
	ClearDays int              `json:"clear_days"`

	NoSignups      bool `json:"no_signups"`
	DuplicateTimes bool `json:"duplicate_times"`
	Visible        bool `json:"visible"`

	ConfirmationTemplateID int64 `json:"confirmation_template_id"`
	Reminder1TemplateID    int64 `json:"reminder1_template_id"`
	Reminder2TemplateID    int64 `json:"reminder2_template_id"`
	ClearTemplateID        int64 `json:"clear_template_id"`
	RescheduleTemplateID   int64 `json:"reschedule_template_id"`

	// Dates is the shared occurrence list for single and recurring sheets.
	// RecurrenceRule expands an RFC 5545 rule from RecurrenceStart instead.
	Dates           []string `json:"dates"`
	RecurrenceRule  string   `json:"recurrence_rule"`
	RecurrenceStart string   `json:"recurrence_start"`
	RecurrenceCount int      `json:"recurrence_count"`

	Extra map[string]string `json:"extra"`
}

// ApplyDatesRequest rewrites the shared date list of an existing sheet.
type ApplyDatesRequest struct {
	Dates           []string `json:"dates"`
	RecurrenceRule  string   `json:"recurrence_rule"`
	RecurrenceStart string   `json:"recurrence_start"`
	RecurrenceCount int      `json:"recurrence_count"`

	// Override drops signups that fall off the new date set instead of
	// refusing the change.
	Override bool `json:"override"`
}

// SheetDetail bundles a sheet with its tasks.
type SheetDetail struct {
	Sheet models.Sheet  `json:"sheet"`
	Tasks []models.Task `json:"tasks"`
}

// SheetService manages sheet lifecycle and the shared date policy.
type SheetService struct {
	repo      sheetRepository
	tasks     sheetTaskRepository
	cache     entityCache
	cacheTTL  time.Duration
	registry  *fields.Registry
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSheetService constructs a SheetService.
func NewSheetService(repo sheetRepository, tasks sheetTaskRepository, cache entityCache, cacheTTL time.Duration, registry *fields.Registry, validate *validator.Validate, logger *zap.Logger) *SheetService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = fields.NewRegistry()
	}
	return &SheetService{repo: repo, tasks: tasks, cache: cache, cacheTTL: cacheTTL, registry: registry, validator: validate, logger: logger}
}

// List returns sheets with pagination metadata.
func (s *SheetService) List(ctx context.Context, filter models.SheetFilter) ([]models.Sheet, *models.Pagination, error) {
	sheets, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sheets")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return sheets, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a sheet with its tasks, served from the entity cache when warm.
func (s *SheetService) Get(ctx context.Context, id int64, includeTrashed bool) (*SheetDetail, error) {
	if s.cache != nil {
		var cached SheetDetail
		if err := s.cache.Get(ctx, repository.SheetKey(id), &cached); err == nil {
			if includeTrashed || !cached.Sheet.Trash {
				return &cached, nil
			}
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("sheet cache read failed", zap.Int64("sheet_id", id), zap.Error(err))
		}
	}

	sheet, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sheet.Trash && !includeTrashed {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "sheet not found")
	}
	tasks, err := s.tasks.ListBySheet(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tasks")
	}
	detail := &SheetDetail{Sheet: *sheet, Tasks: tasks}

	if s.cache != nil {
		if err := s.cache.Set(ctx, repository.SheetKey(id), detail, s.cacheTTL); err != nil {
			s.logger.Warn("sheet cache write failed", zap.Int64("sheet_id", id), zap.Error(err))
		}
	}
	return detail, nil
}

// Create stores a new sheet.
func (s *SheetService) Create(ctx context.Context, req SaveSheetRequest) (*models.Sheet, error) {
	sheet, dates, err := s.buildSheet(req)
	if err != nil {
		return nil, err
	}
	sheet.FirstDate, sheet.LastDate = schedule.Bounds(dates)
	if err := s.registry.Notify(ctx, fields.EntitySheet, fields.HookBeforeSave, sheet); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "sheet rejected")
	}
	if err := s.repo.Create(ctx, sheet); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create sheet")
	}
	s.observe(ctx, fields.HookAfterCreate, sheet)
	return sheet, nil
}

// Update modifies sheet metadata. Date changes go through ApplyDates so the
// signup guardrail always runs.
func (s *SheetService) Update(ctx context.Context, id int64, req SaveSheetRequest) (*models.Sheet, error) {
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Type != req.Type {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sheet type cannot change after creation")
	}
	sheet, _, err := s.buildSheet(req)
	if err != nil {
		return nil, err
	}
	sheet.ID = existing.ID
	sheet.FirstDate = existing.FirstDate
	sheet.LastDate = existing.LastDate
	sheet.Trash = existing.Trash
	sheet.CreatedAt = existing.CreatedAt
	if err := s.registry.Notify(ctx, fields.EntitySheet, fields.HookBeforeSave, sheet); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "sheet rejected")
	}
	if err := s.repo.Update(ctx, sheet); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update sheet")
	}
	s.invalidate(ctx, id)
	s.observe(ctx, fields.HookAfterUpdate, sheet)
	return sheet, nil
}

// ApplyDates rewrites the shared occurrence list of a single or recurring
// sheet across all of its tasks. Existing signups on dates that would fall
// off the list block the change unless Override is set, in which case those
// signups are dropped with the rewrite.
func (s *SheetService) ApplyDates(ctx context.Context, id int64, req ApplyDatesRequest) (*models.Sheet, error) {
	sheet, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sheet.Type != models.SheetTypeSingle && sheet.Type != models.SheetTypeRecurring {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only single and recurring sheets share a date list")
	}

	dates, err := s.expandDates(sheet.Type, req.Dates, req.RecurrenceRule, req.RecurrenceStart, req.RecurrenceCount)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.ListBySheet(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tasks")
	}
	removed := removedDates(tasks, dates)
	if len(removed) > 0 {
		blocked, err := s.tasks.CountSignupsForDates(ctx, id, removed)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check blocking signups")
		}
		if blocked > 0 && !req.Override {
			return nil, appErrors.Clone(appErrors.ErrScheduleConflict,
				fmt.Sprintf("%d signup(s) exist on dates being removed", blocked))
		}
	}

	first, last := schedule.Bounds(dates)
	if err := s.repo.RewriteTaskDates(ctx, id, strings.Join(dates, ","), first, last, req.Override); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rewrite dates")
	}
	s.invalidate(ctx, id)

	sheet.FirstDate, sheet.LastDate = first, last
	return sheet, nil
}

// Trash soft-deletes a sheet; it disappears from public listings but keeps
// its tasks and signups.
func (s *SheetService) Trash(ctx context.Context, id int64) error {
	return s.setTrash(ctx, id, true)
}

// Restore brings a trashed sheet back.
func (s *SheetService) Restore(ctx context.Context, id int64) error {
	return s.setTrash(ctx, id, false)
}

// Delete permanently removes a sheet with its tasks and signups.
func (s *SheetService) Delete(ctx context.Context, id int64) error {
	sheet, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete sheet")
	}
	s.invalidate(ctx, id)
	s.observe(ctx, fields.HookAfterDelete, sheet)
	return nil
}

func (s *SheetService) setTrash(ctx context.Context, id int64, trashed bool) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetTrash(ctx, id, trashed); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to change trash state")
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *SheetService) load(ctx context.Context, id int64) (*models.Sheet, error) {
	sheet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "sheet not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sheet")
	}
	return sheet, nil
}

func (s *SheetService) buildSheet(req SaveSheetRequest) (*models.Sheet, []string, error) {
	req.Title = sanitize.Text(req.Title)
	req.Details = sanitize.RichText(req.Details)
	req.ChairName = sanitize.Text(req.ChairName)
	req.ChairEmail = sanitize.Email(req.ChairEmail)
	req.SheetGroup = sanitize.Text(req.SheetGroup)
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sheet payload")
	}
	if !req.Type.ValidType() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown sheet type")
	}
	if req.ClearType != models.ClearUnitDays && req.ClearType != models.ClearUnitHours {
		req.ClearType = models.ClearUnitDays
	}

	dates, err := s.expandDates(req.Type, req.Dates, req.RecurrenceRule, req.RecurrenceStart, req.RecurrenceCount)
	if err != nil {
		return nil, nil, err
	}

	extra, missing := s.registry.Apply(fields.EntitySheet, req.Extra)
	if len(missing) > 0 {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")))
	}

	return &models.Sheet{
		Title:                  req.Title,
		Details:                req.Details,
		Type:                   req.Type,
		ChairName:              req.ChairName,
		ChairEmail:             req.ChairEmail,
		SheetGroup:             req.SheetGroup,
		Reminder1Days:          req.Reminder1Days,
		Reminder2Days:          req.Reminder2Days,
		Clear:                  req.Clear,
		ClearType:              req.ClearType,
		ClearDays:              req.ClearDays,
		NoSignups:              req.NoSignups,
		DuplicateTimes:         req.DuplicateTimes,
		Visible:                req.Visible,
		ConfirmationTemplateID: req.ConfirmationTemplateID,
		Reminder1TemplateID:    req.Reminder1TemplateID,
		Reminder2TemplateID:    req.Reminder2TemplateID,
		ClearTemplateID:        req.ClearTemplateID,
		RescheduleTemplateID:   req.RescheduleTemplateID,
		Extra:                  extra,
	}, dates, nil
}

// expandDates resolves the requested occurrence list, expanding a
// recurrence rule when one is supplied, and validates it for the type.
func (s *SheetService) expandDates(t models.SheetType, raw []string, rule, start string, count int) ([]string, error) {
	if rule != "" {
		if t != models.SheetTypeRecurring {
			return nil, appErrors.Clone(appErrors.ErrValidation, "recurrence rules apply to recurring sheets only")
		}
		expanded, err := schedule.ExpandRecurrence(rule, start, count)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recurrence rule")
		}
		raw = expanded
	}
	if t == models.SheetTypeOngoing && len(raw) == 0 {
		raw = []string{models.DateSentinel}
	}
	dates, err := schedule.NormalizeDates(raw)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid dates")
	}
	if t == models.SheetTypeSingle || t == models.SheetTypeRecurring {
		if err := schedule.ValidateForType(t, dates); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid dates for sheet type")
		}
	}
	return dates, nil
}

func (s *SheetService) observe(ctx context.Context, hook fields.Hook, sheet *models.Sheet) {
	if err := s.registry.Notify(ctx, fields.EntitySheet, hook, sheet); err != nil {
		s.logger.Warn("sheet observer failed", zap.String("hook", string(hook)), zap.Int64("sheet_id", sheet.ID), zap.Error(err))
	}
}

func (s *SheetService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("sheet:%d*", id)); err != nil {
		s.logger.Warn("sheet cache invalidation failed", zap.Int64("sheet_id", id), zap.Error(err))
	}
}

// removedDates computes the dates tasks currently occur on that are absent
// from the proposed list.
func removedDates(tasks []models.Task, next []string) []string {
	keep := make(map[string]bool, len(next))
	for _, d := range next {
		keep[d] = true
	}
	seen := make(map[string]bool)
	var removed []string
	for _, task := range tasks {
		for _, d := range task.DateList() {
			if d == models.DateSentinel || keep[d] || seen[d] {
				continue
			}
			seen[d] = true
			removed = append(removed, d)
		}
	}
	return removed
}
