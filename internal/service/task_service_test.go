package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/signup-sheets-api/internal/models"
	appErrors "github.com/noah-isme/signup-sheets-api/pkg/errors"
)

type mockTaskRepo struct {
	tasks     map[int64]*models.Task
	nextID    int64
	positions map[int64]int
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{tasks: make(map[int64]*models.Task), nextID: 1, positions: make(map[int64]int)}
}

func (m *mockTaskRepo) ListBySheet(ctx context.Context, sheetID int64) ([]models.Task, error) {
	var out []models.Task
	for _, t := range m.tasks {
		if t.SheetID == sheetID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *mockTaskRepo) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	if t, ok := m.tasks[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTaskRepo) Create(ctx context.Context, task *models.Task) error {
	task.ID = m.nextID
	m.nextID++
	copied := *task
	m.tasks[task.ID] = &copied
	return nil
}

func (m *mockTaskRepo) Update(ctx context.Context, task *models.Task) error {
	copied := *task
	m.tasks[task.ID] = &copied
	return nil
}

func (m *mockTaskRepo) UpdatePosition(ctx context.Context, id int64, position int) error {
	m.positions[id] = position
	if t, ok := m.tasks[id]; ok {
		t.Position = position
	}
	return nil
}

func (m *mockTaskRepo) Delete(ctx context.Context, id int64) error {
	delete(m.tasks, id)
	return nil
}

func newTaskFixture(sheet *models.Sheet) (*TaskService, *mockTaskRepo) {
	repo := newMockTaskRepo()
	sheets := &mockSheetReader{sheets: map[int64]*models.Sheet{sheet.ID: sheet}}
	svc := NewTaskService(repo, sheets, nil, validator.New(), zap.NewNop())
	return svc, repo
}

func TestTaskZeroQtyOnlyOnDisplaySheet(t *testing.T) {
	sheet := &models.Sheet{ID: 1, Type: models.SheetTypeSingle}
	svc, _ := newTaskFixture(sheet)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, SaveTaskRequest{Title: "Greeter", Qty: 0, Dates: []string{"2025-06-01"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	display := &models.Sheet{ID: 2, Type: models.SheetTypeSingle, NoSignups: true}
	svc2, _ := newTaskFixture(display)
	task, err := svc2.Create(ctx, 2, SaveTaskRequest{Title: "Info Only", Qty: 0, Dates: []string{"2025-06-01"}})
	require.NoError(t, err)
	assert.Equal(t, 0, task.Qty)
}

func TestTaskInheritsSharedDates(t *testing.T) {
	sheet := &models.Sheet{ID: 1, Type: models.SheetTypeRecurring}
	svc, _ := newTaskFixture(sheet)
	ctx := context.Background()

	first, err := svc.Create(ctx, 1, SaveTaskRequest{Title: "Setup", Qty: 2, Dates: []string{"2025-03-01", "2025-03-08"}})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01,2025-03-08", first.Dates)

	// later tasks inherit the shared list even when the payload disagrees
	second, err := svc.Create(ctx, 1, SaveTaskRequest{Title: "Cleanup", Qty: 2, Dates: []string{"2025-12-25"}})
	require.NoError(t, err)
	assert.Equal(t, first.Dates, second.Dates)
}

func TestTaskOngoingAlwaysSentinel(t *testing.T) {
	sheet := &models.Sheet{ID: 1, Type: models.SheetTypeOngoing}
	svc, _ := newTaskFixture(sheet)

	task, err := svc.Create(context.Background(), 1, SaveTaskRequest{Title: "Pantry", Qty: 5, Dates: []string{"2025-06-01"}})
	require.NoError(t, err)
	assert.Equal(t, models.DateSentinel, task.Dates)
}

func TestTaskMultiDayRequiresOwnDate(t *testing.T) {
	sheet := &models.Sheet{ID: 1, Type: models.SheetTypeMultiDay}
	svc, _ := newTaskFixture(sheet)
	ctx := context.Background()

	task, err := svc.Create(ctx, 1, SaveTaskRequest{Title: "Day One", Qty: 3, Dates: []string{"2025-04-01"}})
	require.NoError(t, err)
	assert.Equal(t, "2025-04-01", task.Dates)

	_, err = svc.Create(ctx, 1, SaveTaskRequest{Title: "No Date", Qty: 3})
	require.Error(t, err)
}

func TestTaskReorder(t *testing.T) {
	sheet := &models.Sheet{ID: 1, Type: models.SheetTypeOngoing}
	svc, repo := newTaskFixture(sheet)
	ctx := context.Background()

	a, err := svc.Create(ctx, 1, SaveTaskRequest{Title: "A", Qty: 1})
	require.NoError(t, err)
	b, err := svc.Create(ctx, 1, SaveTaskRequest{Title: "B", Qty: 1})
	require.NoError(t, err)

	require.NoError(t, svc.Reorder(ctx, 1, []int64{b.ID, a.ID}))
	assert.Equal(t, 0, repo.positions[b.ID])
	assert.Equal(t, 1, repo.positions[a.ID])

	err = svc.Reorder(ctx, 1, []int64{b.ID})
	require.Error(t, err)
	err = svc.Reorder(ctx, 1, []int64{b.ID, 999})
	require.Error(t, err)
}
