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
	"github.com/noah-isme/signup-sheets-api/pkg/mailer"
)

type signupRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Signup, error)
	ListForTaskDate(ctx context.Context, taskID int64, date string) ([]models.Signup, error)
	ListByIdentity(ctx context.Context, identity models.SignupIdentity) ([]models.SignupDetail, error)
	Filled(ctx context.Context, taskID int64, date string, quantities bool) (int, error)
	Admit(ctx context.Context, task *models.Task, signup *models.Signup, checkDuplicate bool) (*repository.AdmissionResult, error)
	Delete(ctx context.Context, id int64) error
}

type taskReader interface {
	GetByID(ctx context.Context, id int64) (*models.Task, error)
}

type sheetReader interface {
	GetByID(ctx context.Context, id int64) (*models.Sheet, error)
}

type templateResolver interface {
	Resolve(ctx context.Context, emailType models.EmailType, sheet *models.Sheet, task *models.Task) (*models.EmailTemplate, error)
	Render(template *models.EmailTemplate, data map[string]string) (string, string)
}

type admissionRecorder interface {
	RecordAdmission(outcome string)
}

// SignupRequest is the public payload for creating or editing a signup.
type SignupRequest struct {
	TaskID    int64             `json:"task_id" validate:"required"`
	Date      string            `json:"date"`
	FirstName string            `json:"firstname" validate:"required"`
	LastName  string            `json:"lastname" validate:"required"`
	Email     string            `json:"email" validate:"required,email"`
	Phone     string            `json:"phone"`
	Item      string            `json:"item"`
	ItemQty   int               `json:"item_qty"`
	Extra     map[string]string `json:"extra"`
}

// SignupResult is returned after a successful admission.
type SignupResult struct {
	Signup    *models.Signup `json:"signup"`
	Available int            `json:"available"`
}

// SpotSummary reports capacity for one task-date.
type SpotSummary struct {
	TaskID    int64  `json:"task_id"`
	Date      string `json:"date"`
	Qty       int    `json:"qty"`
	Filled    int    `json:"filled"`
	Available int    `json:"available"`
}

// SignupService orchestrates admission, editing and clearing of signups.
type SignupService struct {
	repo      signupRepository
	tasks     taskReader
	sheets    sheetReader
	templates templateResolver
	registry  *fields.Registry
	sender    mailer.Sender
	metrics   admissionRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSignupService constructs a SignupService.
func NewSignupService(repo signupRepository, tasks taskReader, sheets sheetReader, templates templateResolver, registry *fields.Registry, sender mailer.Sender, metrics admissionRecorder, validate *validator.Validate, logger *zap.Logger) *SignupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if sender == nil {
		sender = mailer.NewNopSender(logger)
	}
	if registry == nil {
		registry = fields.NewRegistry()
	}
	return &SignupService{repo: repo, tasks: tasks, sheets: sheets, templates: templates, registry: registry, sender: sender, metrics: metrics, validator: validate, logger: logger}
}

// AvailableSpots returns the remaining capacity for a task on a date.
func (s *SignupService) AvailableSpots(ctx context.Context, taskID int64, date string) (*SpotSummary, error) {
	task, _, err := s.loadTaskAndSheet(ctx, taskID)
	if err != nil {
		return nil, err
	}
	date, err = s.resolveDate(task, date)
	if err != nil {
		return nil, err
	}
	filled, err := s.repo.Filled(ctx, task.ID, date, task.EnableQuantities.Bool())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute availability")
	}
	available := task.Qty - filled
	if available < 0 {
		available = 0
	}
	return &SpotSummary{TaskID: task.ID, Date: date, Qty: task.Qty, Filled: filled, Available: available}, nil
}

// ListForTaskDate returns the signups consuming capacity on one task-date.
func (s *SignupService) ListForTaskDate(ctx context.Context, taskID int64, date string) ([]models.Signup, error) {
	task, _, err := s.loadTaskAndSheet(ctx, taskID)
	if err != nil {
		return nil, err
	}
	date, err = s.resolveDate(task, date)
	if err != nil {
		return nil, err
	}
	signups, err := s.repo.ListForTaskDate(ctx, task.ID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list signups")
	}
	return signups, nil
}

// ListMine returns the caller's signups across all live sheets.
func (s *SignupService) ListMine(ctx context.Context, identity models.SignupIdentity) ([]models.SignupDetail, error) {
	if identity.UserID == 0 && identity.Email == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "identity required")
	}
	signups, err := s.repo.ListByIdentity(ctx, identity)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list signups")
	}
	return signups, nil
}

// Signup admits a new volunteer onto a task-date. identity carries the
// caller's proven identity when a validation cookie or account is present;
// the signup starts validated only when the claimed email matches it.
func (s *SignupService) Signup(ctx context.Context, req SignupRequest, identity *models.SignupIdentity) (*SignupResult, error) {
	task, sheet, err := s.loadTaskAndSheet(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}
	if sheet.NoSignups {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "this sheet does not take signups")
	}

	signup, err := s.buildSignup(task, req, identity)
	if err != nil {
		s.record("rejected")
		return nil, err
	}
	if err := s.registry.Notify(ctx, fields.EntitySignup, fields.HookBeforeSave, signup); err != nil {
		s.record("rejected")
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "signup rejected")
	}

	checkDuplicate := !task.AllowDuplicates.Bool()
	result, err := s.repo.Admit(ctx, task, signup, checkDuplicate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to admit signup")
	}
	if result.Duplicate {
		s.record("duplicate")
		return nil, appErrors.Clone(appErrors.ErrDuplicateSignup, "")
	}
	if !result.Admitted {
		s.record("full")
		return nil, appErrors.Clone(appErrors.ErrCapacityFull, fmt.Sprintf("only %d spot(s) remain", result.Available))
	}
	s.record("admitted")
	s.observe(ctx, fields.HookAfterCreate, signup)

	s.sendLifecycleEmail(ctx, models.EmailTypeConfirmation, sheet, task, signup)
	return &SignupResult{Signup: signup, Available: result.Available}, nil
}

// Update edits an existing signup. The row's own capacity consumption is
// excluded before the new quantity is checked, so shrinking or keeping a
// quantity on a full task always succeeds.
func (s *SignupService) Update(ctx context.Context, id int64, req SignupRequest, identity *models.SignupIdentity, privileged bool) (*SignupResult, error) {
	existing, err := s.getOwned(ctx, id, identity, privileged)
	if err != nil {
		return nil, err
	}
	task, _, err := s.loadTaskAndSheet(ctx, existing.TaskID)
	if err != nil {
		return nil, err
	}

	req.TaskID = existing.TaskID
	if req.Date == "" {
		req.Date = existing.Date
	}
	signup, err := s.buildSignup(task, req, identity)
	if err != nil {
		return nil, err
	}
	signup.ID = existing.ID
	signup.UserID = existing.UserID
	signup.Validated = existing.Validated
	signup.TS = existing.TS
	if signup.Date != existing.Date {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date cannot change on edit, clear and re-sign instead")
	}
	if err := s.registry.Notify(ctx, fields.EntitySignup, fields.HookBeforeSave, signup); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "signup rejected")
	}

	result, err := s.repo.Admit(ctx, task, signup, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update signup")
	}
	if !result.Admitted {
		return nil, appErrors.Clone(appErrors.ErrCapacityFull, fmt.Sprintf("only %d spot(s) remain", result.Available))
	}
	s.observe(ctx, fields.HookAfterUpdate, signup)
	return &SignupResult{Signup: signup, Available: result.Available}, nil
}

// Clear removes a signup, subject to the sheet's clearing policy for
// non-privileged callers.
func (s *SignupService) Clear(ctx context.Context, id int64, identity *models.SignupIdentity, privileged bool) error {
	signup, err := s.getOwned(ctx, id, identity, privileged)
	if err != nil {
		return err
	}
	task, sheet, err := s.loadTaskAndSheet(ctx, signup.TaskID)
	if err != nil {
		return err
	}

	policy := schedule.PolicyFor(sheet)
	if !policy.CanClear(signup.Date, task.TimeStart, privileged, time.Now()) {
		return appErrors.Clone(appErrors.ErrClearWindowClosed, "")
	}

	if err := s.repo.Delete(ctx, signup.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear signup")
	}
	s.observe(ctx, fields.HookAfterDelete, signup)

	s.sendLifecycleEmail(ctx, models.EmailTypeClear, sheet, task, signup)
	return nil
}

func (s *SignupService) loadTaskAndSheet(ctx context.Context, taskID int64) (*models.Task, *models.Sheet, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	sheet, err := s.sheets.GetByID(ctx, task.SheetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "sheet not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sheet")
	}
	if sheet.Trash {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "sheet not found")
	}
	return task, sheet, nil
}

// resolveDate validates the requested date against the task's occurrence
// list. A task with a single occurrence accepts an empty date.
func (s *SignupService) resolveDate(task *models.Task, date string) (string, error) {
	date = sanitize.Date(date)
	list := task.DateList()
	if date == "" {
		if len(list) == 1 {
			return list[0], nil
		}
		return "", appErrors.Clone(appErrors.ErrValidation, "date required for this task")
	}
	if !task.OccursOn(date) {
		return "", appErrors.Clone(appErrors.ErrValidation, "task does not occur on that date")
	}
	return date, nil
}

func (s *SignupService) buildSignup(task *models.Task, req SignupRequest, identity *models.SignupIdentity) (*models.Signup, error) {
	req.FirstName = sanitize.Text(req.FirstName)
	req.LastName = sanitize.Text(req.LastName)
	req.Email = sanitize.Email(req.Email)
	req.Phone = sanitize.Phone(req.Phone)
	req.Item = sanitize.Text(req.Item)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid signup payload")
	}

	date, err := s.resolveDate(task, req.Date)
	if err != nil {
		return nil, err
	}

	if task.NeedDetails.Bool() && task.DetailsRequired.Bool() && strings.TrimSpace(req.Item) == "" {
		label := task.DetailsText
		if label == "" {
			label = "item"
		}
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is required", label))
	}

	qty := 1
	if task.EnableQuantities.Bool() {
		qty = req.ItemQty
		if qty < 1 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "quantity must be at least 1")
		}
	}

	extra, missing := s.registry.Apply(fields.EntitySignup, req.Extra)
	if len(missing) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")))
	}

	signup := &models.Signup{
		TaskID:    task.ID,
		Date:      date,
		Item:      req.Item,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		ItemQty:   qty,
		Extra:     extra,
		TS:        time.Now().UTC(),
	}
	if identity != nil {
		signup.UserID = identity.UserID
		if identity.UserID != 0 || strings.EqualFold(identity.Email, req.Email) {
			signup.Validated = true
		}
	}
	return signup, nil
}

func (s *SignupService) getOwned(ctx context.Context, id int64, identity *models.SignupIdentity, privileged bool) (*models.Signup, error) {
	signup, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "signup not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load signup")
	}
	if privileged {
		return signup, nil
	}
	if identity == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "identity required")
	}
	if identity.UserID != 0 && identity.UserID == signup.UserID {
		return signup, nil
	}
	if strings.EqualFold(identity.FirstName, signup.FirstName) &&
		strings.EqualFold(identity.LastName, signup.LastName) &&
		strings.EqualFold(identity.Email, signup.Email) {
		return signup, nil
	}
	return nil, appErrors.Clone(appErrors.ErrForbidden, "signup belongs to someone else")
}

func (s *SignupService) sendLifecycleEmail(ctx context.Context, emailType models.EmailType, sheet *models.Sheet, task *models.Task, signup *models.Signup) {
	if s.templates == nil {
		return
	}
	template, err := s.templates.Resolve(ctx, emailType, sheet, task)
	if err != nil {
		s.logger.Warn("failed to resolve email template", zap.String("type", string(emailType)), zap.Error(err))
		return
	}
	if template == nil {
		return
	}
	subject, body := s.templates.Render(template, EmailData(sheet, task, signup))
	msg := mailer.Message{
		To:       signup.Email,
		FromName: template.FromName,
		From:     resolveFromEmail(template.FromEmail, sheet),
		Subject:  subject,
		HTML:     body,
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Warn("failed to send lifecycle email",
			zap.String("type", string(emailType)), zap.Int64("signup_id", signup.ID), zap.Error(err))
	}
}

func (s *SignupService) observe(ctx context.Context, hook fields.Hook, signup *models.Signup) {
	if err := s.registry.Notify(ctx, fields.EntitySignup, hook, signup); err != nil {
		s.logger.Warn("signup observer failed", zap.String("hook", string(hook)), zap.Int64("signup_id", signup.ID), zap.Error(err))
	}
}

func (s *SignupService) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordAdmission(outcome)
	}
}

// EmailData builds the placeholder substitution map shared by all
// lifecycle emails.
func EmailData(sheet *models.Sheet, task *models.Task, signup *models.Signup) map[string]string {
	data := map[string]string{
		"firstname":   signup.FirstName,
		"lastname":    signup.LastName,
		"email":       signup.Email,
		"item":        signup.Item,
		"date":        signup.Date,
		"sheet_title": sheet.Title,
		"task_title":  task.Title,
		"chair_name":  sheet.ChairName,
		"chair_email": sheet.ChairEmail,
	}
	if signup.Date == models.DateSentinel {
		data["date"] = ""
	}
	if task.TimeStart != nil {
		data["start_time"] = *task.TimeStart
	}
	if task.TimeEnd != nil {
		data["end_time"] = *task.TimeEnd
	}
	return data
}

// resolveFromEmail expands the chair-email token in a template from address.
func resolveFromEmail(fromEmail string, sheet *models.Sheet) string {
	if fromEmail == sanitize.ChairEmailToken {
		return sheet.ChairEmail
	}
	return fromEmail
}
