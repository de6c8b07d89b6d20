package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/signup-sheets-api/internal/models"
	"github.com/noah-isme/signup-sheets-api/internal/repository"
	appErrors "github.com/noah-isme/signup-sheets-api/pkg/errors"
)

type mockSignupRepo struct {
	signups map[int64]*models.Signup
	nextID  int64
	deleted []int64
}

func newMockSignupRepo() *mockSignupRepo {
	return &mockSignupRepo{signups: make(map[int64]*models.Signup), nextID: 1}
}

func (m *mockSignupRepo) GetByID(ctx context.Context, id int64) (*models.Signup, error) {
	if s, ok := m.signups[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSignupRepo) ListForTaskDate(ctx context.Context, taskID int64, date string) ([]models.Signup, error) {
	var out []models.Signup
	for _, s := range m.signups {
		if s.TaskID == taskID && s.Date == date {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockSignupRepo) ListByIdentity(ctx context.Context, identity models.SignupIdentity) ([]models.SignupDetail, error) {
	var out []models.SignupDetail
	for _, s := range m.signups {
		if s.Email == identity.Email {
			out = append(out, models.SignupDetail{Signup: *s})
		}
	}
	return out, nil
}

func (m *mockSignupRepo) Filled(ctx context.Context, taskID int64, date string, quantities bool) (int, error) {
	return m.filled(taskID, date, quantities, 0), nil
}

func (m *mockSignupRepo) filled(taskID int64, date string, quantities bool, exclude int64) int {
	total := 0
	for _, s := range m.signups {
		if s.TaskID != taskID || s.Date != date || s.ID == exclude {
			continue
		}
		if quantities {
			total += s.ItemQty
		} else {
			total++
		}
	}
	return total
}

func (m *mockSignupRepo) Admit(ctx context.Context, task *models.Task, signup *models.Signup, checkDuplicate bool) (*repository.AdmissionResult, error) {
	quantities := task.EnableQuantities.Bool()
	if checkDuplicate && signup.ID == 0 {
		for _, s := range m.signups {
			if s.TaskID == task.ID && s.Date == signup.Date && s.Email == signup.Email {
				return &repository.AdmissionResult{Duplicate: true}, nil
			}
		}
	}
	filled := m.filled(task.ID, signup.Date, quantities, signup.ID)
	proposed := filled + 1
	if quantities {
		proposed = filled + signup.ItemQty
	}
	available := task.Qty - filled
	if available < 0 {
		available = 0
	}
	if proposed > task.Qty {
		return &repository.AdmissionResult{Filled: filled, Available: available}, nil
	}
	if signup.ID == 0 {
		signup.ID = m.nextID
		m.nextID++
	}
	copied := *signup
	m.signups[signup.ID] = &copied
	return &repository.AdmissionResult{Admitted: true, Filled: proposed, Available: task.Qty - proposed}, nil
}

func (m *mockSignupRepo) Delete(ctx context.Context, id int64) error {
	delete(m.signups, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockTaskReader struct {
	tasks map[int64]*models.Task
}

func (m *mockTaskReader) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	if t, ok := m.tasks[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

type mockSheetReader struct {
	sheets map[int64]*models.Sheet
}

func (m *mockSheetReader) GetByID(ctx context.Context, id int64) (*models.Sheet, error) {
	if s, ok := m.sheets[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func newSignupFixture(task *models.Task, sheet *models.Sheet) (*SignupService, *mockSignupRepo) {
	repo := newMockSignupRepo()
	svc := NewSignupService(repo,
		&mockTaskReader{tasks: map[int64]*models.Task{task.ID: task}},
		&mockSheetReader{sheets: map[int64]*models.Sheet{sheet.ID: sheet}},
		nil, nil, nil, nil, validator.New(), zap.NewNop())
	return svc, repo
}

func basicSheet() *models.Sheet {
	return &models.Sheet{ID: 1, Title: "Bake Sale", Type: models.SheetTypeSingle, Visible: true}
}

func basicTask() *models.Task {
	return &models.Task{
		ID: 10, SheetID: 1, Title: "Cookies", Dates: "2025-06-01", Qty: 3,
		NeedDetails: models.No, DetailsRequired: models.No,
		AllowDuplicates: models.No, EnableQuantities: models.No,
	}
}

func signupReq(email string) SignupRequest {
	return SignupRequest{TaskID: 10, FirstName: "Pat", LastName: "Lee", Email: email}
}

func TestSignupAdmitsUntilFull(t *testing.T) {
	svc, _ := newSignupFixture(basicTask(), basicSheet())
	ctx := context.Background()

	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		result, err := svc.Signup(ctx, signupReq(email), nil)
		require.NoError(t, err, "signup %d", i)
		assert.Equal(t, 2-i, result.Available)
	}

	_, err := svc.Signup(ctx, signupReq("d@example.com"), nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCapacityFull.Code, appErrors.FromError(err).Code)
}

func TestSignupQuantityWeightedCapacity(t *testing.T) {
	task := basicTask()
	task.Qty = 10
	task.EnableQuantities = models.Yes
	svc, _ := newSignupFixture(task, basicSheet())
	ctx := context.Background()

	first := signupReq("a@example.com")
	first.ItemQty = 6
	_, err := svc.Signup(ctx, first, nil)
	require.NoError(t, err)

	second := signupReq("b@example.com")
	second.ItemQty = 5
	_, err = svc.Signup(ctx, second, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCapacityFull.Code, appErrors.FromError(err).Code)

	second.ItemQty = 4
	result, err := svc.Signup(ctx, second, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Available)
}

func TestSignupDuplicateRejected(t *testing.T) {
	svc, _ := newSignupFixture(basicTask(), basicSheet())
	ctx := context.Background()

	_, err := svc.Signup(ctx, signupReq("a@example.com"), nil)
	require.NoError(t, err)

	_, err = svc.Signup(ctx, signupReq("a@example.com"), nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateSignup.Code, appErrors.FromError(err).Code)
}

func TestSignupDuplicateAllowedWhenTaskPermits(t *testing.T) {
	task := basicTask()
	task.AllowDuplicates = models.Yes
	svc, _ := newSignupFixture(task, basicSheet())
	ctx := context.Background()

	_, err := svc.Signup(ctx, signupReq("a@example.com"), nil)
	require.NoError(t, err)
	_, err = svc.Signup(ctx, signupReq("a@example.com"), nil)
	require.NoError(t, err)
}

func TestSignupUpdateExcludesOwnConsumption(t *testing.T) {
	task := basicTask()
	task.Qty = 10
	task.EnableQuantities = models.Yes
	svc, _ := newSignupFixture(task, basicSheet())
	ctx := context.Background()

	req := signupReq("a@example.com")
	req.ItemQty = 10
	result, err := svc.Signup(ctx, req, nil)
	require.NoError(t, err)

	// Shrinking a full task's own quantity must succeed.
	edit := signupReq("a@example.com")
	edit.ItemQty = 8
	identity := &models.SignupIdentity{FirstName: "Pat", LastName: "Lee", Email: "a@example.com"}
	updated, err := svc.Update(ctx, result.Signup.ID, edit, identity, false)
	require.NoError(t, err)
	assert.Equal(t, 8, updated.Signup.ItemQty)
	assert.Equal(t, 2, updated.Available)
}

func TestSignupDetailsRequired(t *testing.T) {
	task := basicTask()
	task.NeedDetails = models.Yes
	task.DetailsRequired = models.Yes
	task.DetailsText = "Dish"
	svc, _ := newSignupFixture(task, basicSheet())

	_, err := svc.Signup(context.Background(), signupReq("a@example.com"), nil)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "Dish")
}

func TestSignupRejectedOnDisplayOnlySheet(t *testing.T) {
	sheet := basicSheet()
	sheet.NoSignups = true
	svc, _ := newSignupFixture(basicTask(), sheet)

	_, err := svc.Signup(context.Background(), signupReq("a@example.com"), nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSignupWrongDateRejected(t *testing.T) {
	svc, _ := newSignupFixture(basicTask(), basicSheet())

	req := signupReq("a@example.com")
	req.Date = "2025-07-04"
	_, err := svc.Signup(context.Background(), req, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSignupValidatedWhenIdentityMatches(t *testing.T) {
	svc, _ := newSignupFixture(basicTask(), basicSheet())
	identity := &models.SignupIdentity{FirstName: "Pat", LastName: "Lee", Email: "a@example.com"}

	result, err := svc.Signup(context.Background(), signupReq("a@example.com"), identity)
	require.NoError(t, err)
	assert.True(t, result.Signup.Validated)

	other, err := svc.Signup(context.Background(), signupReq("b@example.com"), identity)
	require.NoError(t, err)
	assert.False(t, other.Signup.Validated)
}

func TestClearHonorsWindow(t *testing.T) {
	sheet := basicSheet()
	sheet.Clear = true
	sheet.ClearType = models.ClearUnitDays
	sheet.ClearDays = 2

	task := basicTask()
	task.Dates = time.Now().Add(24 * time.Hour).Format("2006-01-02")

	svc, repo := newSignupFixture(task, sheet)
	ctx := context.Background()

	req := signupReq("a@example.com")
	result, err := svc.Signup(ctx, req, nil)
	require.NoError(t, err)

	identity := &models.SignupIdentity{FirstName: "Pat", LastName: "Lee", Email: "a@example.com"}
	err = svc.Clear(ctx, result.Signup.ID, identity, false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrClearWindowClosed.Code, appErrors.FromError(err).Code)

	// privileged bypasses the window
	require.NoError(t, svc.Clear(ctx, result.Signup.ID, nil, true))
	assert.Contains(t, repo.deleted, result.Signup.ID)
}

func TestClearOwnershipEnforced(t *testing.T) {
	sheet := basicSheet()
	sheet.Clear = true
	svc, _ := newSignupFixture(basicTask(), sheet)
	ctx := context.Background()

	result, err := svc.Signup(ctx, signupReq("a@example.com"), nil)
	require.NoError(t, err)

	stranger := &models.SignupIdentity{FirstName: "Sam", LastName: "Roe", Email: "sam@example.com"}
	err = svc.Clear(ctx, result.Signup.ID, stranger, false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
