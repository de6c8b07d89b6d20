package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	internalmiddleware "github.com/noah-isme/signup-sheets-api/internal/middleware"
	"github.com/noah-isme/signup-sheets-api/internal/models"
	"github.com/noah-isme/signup-sheets-api/internal/service"
	"github.com/noah-isme/signup-sheets-api/pkg/mailer"
)

const testCookieName = "signup_validated"

func TestPublicFlowIntegration(t *testing.T) {
	sender := &senderIntegrationMock{}
	router := buildPublicRouter(sender)

	t.Run("request validation code", func(t *testing.T) {
		payload := `{"firstname":"Pat","lastname":"Lee","email":"pat@example.com"}`
		req, _ := http.NewRequest(http.MethodPost, "/validate/request", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusAccepted, resp.Code)
		require.Len(t, sender.sent, 1)
	})

	t.Run("confirm sets the identity cookie", func(t *testing.T) {
		code := extractCode(t, sender.sent[0].HTML)
		req, _ := http.NewRequest(http.MethodGet, "/validate?code="+code, nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)

		cookies := resp.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Equal(t, testCookieName, cookies[0].Name)
		require.NotEmpty(t, cookies[0].Value)
	})

	t.Run("confirm without code", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/validate", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("create sheet requires role", func(t *testing.T) {
		payload := `{"title":"Bake Sale","type":"ONGOING"}`
		req, _ := http.NewRequest(http.MethodPost, "/sheets", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("create sheet as admin", func(t *testing.T) {
		payload := `{"title":"Bake Sale","type":"ONGOING"}`
		req, _ := http.NewRequest(http.MethodPost, "/sheets", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusCreated, resp.Code)
		require.Contains(t, resp.Body.String(), `"Bake Sale"`)
	})

	t.Run("bad sheet id", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/sheets/nope", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func buildPublicRouter(sender *senderIntegrationMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{
				UserID: 1,
				Role:   models.UserRole(role),
			})
		}
		c.Next()
	})

	validationService := service.NewValidationService(
		newValidationRepoIntegrationMock(), &signupValidatorIntegrationMock{}, sender, nil, zap.NewNop(),
		service.ValidationConfig{
			CookieSecret: "integration-secret",
			CookieTTL:    time.Hour,
			CodeTTL:      time.Hour,
			PublicURL:    "http://localhost",
		})
	validationHandler := NewValidationHandler(validationService, testCookieName, false)

	sheetService := service.NewSheetService(newSheetRepoIntegrationMock(), &sheetTaskRepoIntegrationMock{}, nil, 0, nil, nil, zap.NewNop())
	sheetHandler := NewSheetHandler(sheetService)

	router.POST("/validate/request", validationHandler.Request)
	router.GET("/validate", validationHandler.Confirm)
	router.GET("/sheets/:id", sheetHandler.Get)
	router.POST("/sheets", internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleManager), sheetHandler.Create)

	return router
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// extractCode pulls the code query parameter out of the mailed link.
func extractCode(t *testing.T, html string) string {
	t.Helper()
	idx := strings.Index(html, "code=")
	require.GreaterOrEqual(t, idx, 0)
	code := html[idx+len("code="):]
	if end := strings.IndexAny(code, `"<& `); end >= 0 {
		code = code[:end]
	}
	return code
}

type senderIntegrationMock struct {
	sent []mailer.Message
}

func (s *senderIntegrationMock) Send(ctx context.Context, msg mailer.Message) error {
	s.sent = append(s.sent, msg)
	return nil
}

type validationRepoIntegrationMock struct {
	codes  map[string]*models.ValidationCode
	nextID int64
}

func newValidationRepoIntegrationMock() *validationRepoIntegrationMock {
	return &validationRepoIntegrationMock{codes: make(map[string]*models.ValidationCode), nextID: 1}
}

func (m *validationRepoIntegrationMock) Upsert(ctx context.Context, code *models.ValidationCode, expireBefore time.Time) (string, error) {
	key := strings.ToLower(code.FirstName + "|" + code.LastName + "|" + code.Email)
	if existing, ok := m.codes[key]; ok {
		if !existing.IssuedAt.Before(expireBefore) {
			existing.IssuedAt = code.IssuedAt
			return existing.Code, nil
		}
		existing.Code = code.Code
		existing.IssuedAt = code.IssuedAt
		return existing.Code, nil
	}
	code.ID = m.nextID
	m.nextID++
	copied := *code
	m.codes[key] = &copied
	return code.Code, nil
}

func (m *validationRepoIntegrationMock) FindByCode(ctx context.Context, code string, issuedAfter time.Time) (*models.ValidationCode, error) {
	for _, c := range m.codes {
		if c.Code == code && !c.IssuedAt.Before(issuedAfter) {
			copied := *c
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *validationRepoIntegrationMock) Delete(ctx context.Context, id int64) error {
	for key, c := range m.codes {
		if c.ID == id {
			delete(m.codes, key)
		}
	}
	return nil
}

type signupValidatorIntegrationMock struct{}

func (s *signupValidatorIntegrationMock) SetValidated(ctx context.Context, identity models.SignupIdentity) error {
	return nil
}

type sheetRepoIntegrationMock struct {
	sheets map[int64]*models.Sheet
	nextID int64
}

func newSheetRepoIntegrationMock() *sheetRepoIntegrationMock {
	return &sheetRepoIntegrationMock{sheets: make(map[int64]*models.Sheet), nextID: 1}
}

func (m *sheetRepoIntegrationMock) List(ctx context.Context, filter models.SheetFilter) ([]models.Sheet, int, error) {
	var out []models.Sheet
	for _, s := range m.sheets {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *sheetRepoIntegrationMock) GetByID(ctx context.Context, id int64) (*models.Sheet, error) {
	if s, ok := m.sheets[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *sheetRepoIntegrationMock) Create(ctx context.Context, sheet *models.Sheet) error {
	sheet.ID = m.nextID
	m.nextID++
	copied := *sheet
	m.sheets[sheet.ID] = &copied
	return nil
}

func (m *sheetRepoIntegrationMock) Update(ctx context.Context, sheet *models.Sheet) error {
	copied := *sheet
	m.sheets[sheet.ID] = &copied
	return nil
}

func (m *sheetRepoIntegrationMock) SetTrash(ctx context.Context, id int64, trashed bool) error {
	if s, ok := m.sheets[id]; ok {
		s.Trash = trashed
	}
	return nil
}

func (m *sheetRepoIntegrationMock) Delete(ctx context.Context, id int64) error {
	delete(m.sheets, id)
	return nil
}

func (m *sheetRepoIntegrationMock) RewriteTaskDates(ctx context.Context, sheetID int64, dates string, first *string, last *string, dropOrphans bool) error {
	return nil
}

type sheetTaskRepoIntegrationMock struct{}

func (m *sheetTaskRepoIntegrationMock) ListBySheet(ctx context.Context, sheetID int64) ([]models.Task, error) {
	return nil, nil
}

func (m *sheetTaskRepoIntegrationMock) CountSignupsForDates(ctx context.Context, sheetID int64, dates []string) (int, error) {
	return 0, nil
}
