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
)

type mockTemplateRepo struct {
	templates map[int64]*models.EmailTemplate
	defaults  map[models.EmailType]*models.EmailTemplate
	nextID    int64
}

func newMockTemplateRepo() *mockTemplateRepo {
	return &mockTemplateRepo{
		templates: make(map[int64]*models.EmailTemplate),
		defaults:  make(map[models.EmailType]*models.EmailTemplate),
		nextID:    1,
	}
}

func (m *mockTemplateRepo) List(ctx context.Context, filter models.TemplateFilter) ([]models.EmailTemplate, int, error) {
	var out []models.EmailTemplate
	for _, t := range m.templates {
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (m *mockTemplateRepo) GetByID(ctx context.Context, id int64) (*models.EmailTemplate, error) {
	if t, ok := m.templates[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTemplateRepo) GetDefault(ctx context.Context, emailType models.EmailType) (*models.EmailTemplate, error) {
	if t, ok := m.defaults[emailType]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTemplateRepo) Create(ctx context.Context, template *models.EmailTemplate) error {
	template.ID = m.nextID
	m.nextID++
	copied := *template
	m.templates[template.ID] = &copied
	if template.IsDefault {
		m.defaults[template.EmailType] = &copied
	}
	return nil
}

func (m *mockTemplateRepo) Update(ctx context.Context, template *models.EmailTemplate) error {
	copied := *template
	m.templates[template.ID] = &copied
	if template.IsDefault {
		m.defaults[template.EmailType] = &copied
	}
	return nil
}

func (m *mockTemplateRepo) Delete(ctx context.Context, id int64) error {
	delete(m.templates, id)
	return nil
}

func newTemplateFixture() (*TemplateService, *mockTemplateRepo) {
	repo := newMockTemplateRepo()
	return NewTemplateService(repo, validator.New(), zap.NewNop()), repo
}

func TestTemplateResolutionChain(t *testing.T) {
	svc, repo := newTemplateFixture()
	ctx := context.Background()

	systemDefault, err := svc.Create(ctx, 1, SaveTemplateRequest{
		EmailType: models.EmailTypeConfirmation, Subject: "default", Body: "default body", IsDefault: true,
	})
	require.NoError(t, err)
	sheetLevel, err := svc.Create(ctx, 1, SaveTemplateRequest{
		EmailType: models.EmailTypeConfirmation, Subject: "sheet", Body: "sheet body",
	})
	require.NoError(t, err)
	taskLevel, err := svc.Create(ctx, 1, SaveTemplateRequest{
		EmailType: models.EmailTypeConfirmation, Subject: "task", Body: "task body",
	})
	require.NoError(t, err)

	sheet := &models.Sheet{ID: 1, ConfirmationTemplateID: sheetLevel.ID}
	task := &models.Task{ID: 10, ConfirmationTemplateID: taskLevel.ID}

	resolved, err := svc.Resolve(ctx, models.EmailTypeConfirmation, sheet, task)
	require.NoError(t, err)
	assert.Equal(t, "task", resolved.Subject)

	task.ConfirmationTemplateID = 0
	resolved, err = svc.Resolve(ctx, models.EmailTypeConfirmation, sheet, task)
	require.NoError(t, err)
	assert.Equal(t, "sheet", resolved.Subject)

	sheet.ConfirmationTemplateID = 0
	resolved, err = svc.Resolve(ctx, models.EmailTypeConfirmation, sheet, task)
	require.NoError(t, err)
	assert.Equal(t, "default", resolved.Subject)

	// dangling override falls through to the default
	task.ConfirmationTemplateID = 999
	resolved, err = svc.Resolve(ctx, models.EmailTypeConfirmation, sheet, task)
	require.NoError(t, err)
	assert.Equal(t, systemDefault.ID, resolved.ID)

	delete(repo.defaults, models.EmailTypeConfirmation)
	sheet.ConfirmationTemplateID = 0
	task.ConfirmationTemplateID = 0
	resolved, err = svc.Resolve(ctx, models.EmailTypeConfirmation, sheet, task)
	require.NoError(t, err)
	assert.Nil(t, resolved, "no template means the email is skipped")
}

func TestTemplateRenderPlaceholders(t *testing.T) {
	svc, _ := newTemplateFixture()
	template := &models.EmailTemplate{
		Subject: "See you {date}, {firstname}",
		Body:    "<p>{firstname} {lastname} signed up for {task_title} on {sheet_title}.</p>",
	}
	sheet := &models.Sheet{Title: "Bake Sale"}
	task := &models.Task{Title: "Cookies"}
	signup := &models.Signup{FirstName: "Pat", LastName: "Lee", Email: "pat@example.com", Date: "2025-06-01"}

	subject, body := svc.Render(template, EmailData(sheet, task, signup))
	assert.Equal(t, "See you 2025-06-01, Pat", subject)
	assert.Contains(t, body, "Pat Lee signed up for Cookies on Bake Sale.")
}

func TestTemplateRejectsUnknownType(t *testing.T) {
	svc, _ := newTemplateFixture()
	_, err := svc.Create(context.Background(), 1, SaveTemplateRequest{EmailType: "bogus", Subject: "s", Body: "b"})
	require.Error(t, err)
}
