package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/signup-sheets-api/internal/fields"
	"github.com/noah-isme/signup-sheets-api/internal/models"
	appErrors "github.com/noah-isme/signup-sheets-api/pkg/errors"
)

type mockSheetRepo struct {
	sheets    map[int64]*models.Sheet
	nextID    int64
	rewritten string
	dropped   bool
}

func newMockSheetRepo() *mockSheetRepo {
	return &mockSheetRepo{sheets: make(map[int64]*models.Sheet), nextID: 1}
}

func (m *mockSheetRepo) List(ctx context.Context, filter models.SheetFilter) ([]models.Sheet, int, error) {
	var out []models.Sheet
	for _, s := range m.sheets {
		if s.Trash && !filter.IncludeTrashed && !filter.TrashedOnly {
			continue
		}
		if filter.TrashedOnly && !s.Trash {
			continue
		}
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *mockSheetRepo) GetByID(ctx context.Context, id int64) (*models.Sheet, error) {
	if s, ok := m.sheets[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSheetRepo) Create(ctx context.Context, sheet *models.Sheet) error {
	sheet.ID = m.nextID
	m.nextID++
	copied := *sheet
	m.sheets[sheet.ID] = &copied
	return nil
}

func (m *mockSheetRepo) Update(ctx context.Context, sheet *models.Sheet) error {
	copied := *sheet
	m.sheets[sheet.ID] = &copied
	return nil
}

func (m *mockSheetRepo) SetTrash(ctx context.Context, id int64, trashed bool) error {
	if s, ok := m.sheets[id]; ok {
		s.Trash = trashed
	}
	return nil
}

func (m *mockSheetRepo) Delete(ctx context.Context, id int64) error {
	delete(m.sheets, id)
	return nil
}

func (m *mockSheetRepo) RewriteTaskDates(ctx context.Context, sheetID int64, dates string, first *string, last *string, dropOrphans bool) error {
	m.rewritten = dates
	m.dropped = dropOrphans
	if s, ok := m.sheets[sheetID]; ok {
		s.FirstDate, s.LastDate = first, last
	}
	return nil
}

type mockSheetTaskRepo struct {
	tasks          []models.Task
	signupsOnDates map[string]int
}

func (m *mockSheetTaskRepo) ListBySheet(ctx context.Context, sheetID int64) ([]models.Task, error) {
	return m.tasks, nil
}

func (m *mockSheetTaskRepo) CountSignupsForDates(ctx context.Context, sheetID int64, dates []string) (int, error) {
	total := 0
	for _, d := range dates {
		total += m.signupsOnDates[d]
	}
	return total, nil
}

func newSheetFixture(tasks *mockSheetTaskRepo) (*SheetService, *mockSheetRepo) {
	repo := newMockSheetRepo()
	if tasks == nil {
		tasks = &mockSheetTaskRepo{}
	}
	svc := NewSheetService(repo, tasks, nil, 0, nil, validator.New(), zap.NewNop())
	return svc, repo
}

func TestSheetCreateSingleRequiresOneDate(t *testing.T) {
	svc, _ := newSheetFixture(nil)
	ctx := context.Background()

	sheet, err := svc.Create(ctx, SaveSheetRequest{Title: "Bake Sale", Type: models.SheetTypeSingle, Dates: []string{"2025-06-01"}})
	require.NoError(t, err)
	require.NotNil(t, sheet.FirstDate)
	assert.Equal(t, "2025-06-01", *sheet.FirstDate)

	_, err = svc.Create(ctx, SaveSheetRequest{Title: "Bad", Type: models.SheetTypeSingle, Dates: []string{"2025-06-01", "2025-06-02"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSheetCreateRecurringFromRule(t *testing.T) {
	svc, _ := newSheetFixture(nil)

	sheet, err := svc.Create(context.Background(), SaveSheetRequest{
		Title:           "Weekly Shift",
		Type:            models.SheetTypeRecurring,
		RecurrenceRule:  "FREQ=WEEKLY;COUNT=3",
		RecurrenceStart: "2025-03-01",
	})
	require.NoError(t, err)
	require.NotNil(t, sheet.FirstDate)
	assert.Equal(t, "2025-03-01", *sheet.FirstDate)
	assert.Equal(t, "2025-03-15", *sheet.LastDate)
}

func TestApplyDatesCascadesToAllTasks(t *testing.T) {
	tasks := &mockSheetTaskRepo{tasks: []models.Task{
		{ID: 1, Dates: "2025-03-01,2025-03-08"},
		{ID: 2, Dates: "2025-03-01,2025-03-08"},
		{ID: 3, Dates: "2025-03-01,2025-03-08"},
	}}
	svc, repo := newSheetFixture(tasks)
	ctx := context.Background()

	sheet, err := svc.Create(ctx, SaveSheetRequest{Title: "Shifts", Type: models.SheetTypeRecurring, Dates: []string{"2025-03-01", "2025-03-08"}})
	require.NoError(t, err)

	updated, err := svc.ApplyDates(ctx, sheet.ID, ApplyDatesRequest{Dates: []string{"2025-03-08", "2025-03-15"}})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-08,2025-03-15", repo.rewritten)
	assert.False(t, repo.dropped)
	assert.Equal(t, "2025-03-15", *updated.LastDate)
}

func TestApplyDatesBlockedBySignups(t *testing.T) {
	tasks := &mockSheetTaskRepo{
		tasks:          []models.Task{{ID: 1, Dates: "2025-03-01,2025-03-08"}},
		signupsOnDates: map[string]int{"2025-03-01": 2},
	}
	svc, repo := newSheetFixture(tasks)
	ctx := context.Background()

	sheet, err := svc.Create(ctx, SaveSheetRequest{Title: "Shifts", Type: models.SheetTypeRecurring, Dates: []string{"2025-03-01", "2025-03-08"}})
	require.NoError(t, err)

	_, err = svc.ApplyDates(ctx, sheet.ID, ApplyDatesRequest{Dates: []string{"2025-03-08", "2025-03-15"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScheduleConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.rewritten)

	// override drops the blocking signups with the rewrite
	_, err = svc.ApplyDates(ctx, sheet.ID, ApplyDatesRequest{Dates: []string{"2025-03-08", "2025-03-15"}, Override: true})
	require.NoError(t, err)
	assert.True(t, repo.dropped)
}

func TestSheetTrashRestore(t *testing.T) {
	svc, repo := newSheetFixture(nil)
	ctx := context.Background()

	sheet, err := svc.Create(ctx, SaveSheetRequest{Title: "Bake Sale", Type: models.SheetTypeOngoing})
	require.NoError(t, err)

	require.NoError(t, svc.Trash(ctx, sheet.ID))
	assert.True(t, repo.sheets[sheet.ID].Trash)

	require.NoError(t, svc.Restore(ctx, sheet.ID))
	assert.False(t, repo.sheets[sheet.ID].Trash)
}

func TestSheetLifecycleObservers(t *testing.T) {
	reg := fields.NewRegistry()
	var created *models.Sheet
	require.NoError(t, reg.Observe(fields.EntitySheet, fields.HookAfterCreate, func(ctx context.Context, entity fields.Entity, record interface{}) error {
		created = record.(*models.Sheet)
		return nil
	}))
	var deletedID int64
	require.NoError(t, reg.Observe(fields.EntitySheet, fields.HookAfterDelete, func(ctx context.Context, entity fields.Entity, record interface{}) error {
		deletedID = record.(*models.Sheet).ID
		return nil
	}))

	repo := newMockSheetRepo()
	svc := NewSheetService(repo, &mockSheetTaskRepo{}, nil, 0, reg, validator.New(), zap.NewNop())
	ctx := context.Background()

	sheet, err := svc.Create(ctx, SaveSheetRequest{Title: "Bake Sale", Type: models.SheetTypeOngoing})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, sheet.ID, created.ID)
	assert.Equal(t, "Bake Sale", created.Title)

	require.NoError(t, svc.Delete(ctx, sheet.ID))
	assert.Equal(t, sheet.ID, deletedID)
}

func TestSheetBeforeSaveObserverVetoes(t *testing.T) {
	reg := fields.NewRegistry()
	require.NoError(t, reg.Observe(fields.EntitySheet, fields.HookBeforeSave, func(ctx context.Context, entity fields.Entity, record interface{}) error {
		if record.(*models.Sheet).SheetGroup == "" {
			return errors.New("a group is required")
		}
		return nil
	}))

	repo := newMockSheetRepo()
	svc := NewSheetService(repo, &mockSheetTaskRepo{}, nil, 0, reg, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), SaveSheetRequest{Title: "Bake Sale", Type: models.SheetTypeOngoing})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.sheets)

	_, err = svc.Create(context.Background(), SaveSheetRequest{Title: "Bake Sale", Type: models.SheetTypeOngoing, SheetGroup: "pta"})
	require.NoError(t, err)
}

func TestSheetTypeImmutable(t *testing.T) {
	svc, _ := newSheetFixture(nil)
	ctx := context.Background()

	sheet, err := svc.Create(ctx, SaveSheetRequest{Title: "Bake Sale", Type: models.SheetTypeSingle, Dates: []string{"2025-06-01"}})
	require.NoError(t, err)

	_, err = svc.Update(ctx, sheet.ID, SaveSheetRequest{Title: "Bake Sale", Type: models.SheetTypeOngoing})
	require.Error(t, err)
	assert.True(t, strings.Contains(appErrors.FromError(err).Message, "type"))
}
