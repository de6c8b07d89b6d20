package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	mathrand "math/rand"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/signup-sheets-api/internal/models"
	"github.com/noah-isme/signup-sheets-api/internal/sanitize"
	appErrors "github.com/noah-isme/signup-sheets-api/pkg/errors"
	"github.com/noah-isme/signup-sheets-api/pkg/mailer"
)

type validationRepository interface {
	Upsert(ctx context.Context, code *models.ValidationCode, expireBefore time.Time) (string, error)
	FindByCode(ctx context.Context, code string, issuedAfter time.Time) (*models.ValidationCode, error)
	Delete(ctx context.Context, id int64) error
}

type signupValidator interface {
	SetValidated(ctx context.Context, identity models.SignupIdentity) error
}

// ValidationConfig carries the identity flow settings.
type ValidationConfig struct {
	CookieSecret string
	CookieTTL    time.Duration
	CodeTTL      time.Duration
	PublicURL    string
}

// RequestValidationRequest asks for a validation code to be emailed.
type RequestValidationRequest struct {
	FirstName string `json:"firstname" validate:"required"`
	LastName  string `json:"lastname" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
}

// ValidationService implements the email-round-trip identity flow for
// anonymous volunteers: issue a code, verify it, and maintain the signed
// validation cookie.
type ValidationService struct {
	repo      validationRepository
	signups   signupValidator
	sender    mailer.Sender
	validator *validator.Validate
	logger    *zap.Logger
	config    ValidationConfig
}

// NewValidationService constructs a ValidationService.
func NewValidationService(repo validationRepository, signups signupValidator, sender mailer.Sender, validate *validator.Validate, logger *zap.Logger, config ValidationConfig) *ValidationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if sender == nil {
		sender = mailer.NewNopSender(logger)
	}
	return &ValidationService{repo: repo, signups: signups, sender: sender, validator: validate, logger: logger, config: config}
}

// RequestCode issues (or re-sends) a validation code for the identity tuple
// and emails the verification link. Re-requesting within the TTL returns the
// same code so earlier emails stay usable.
func (s *ValidationService) RequestCode(ctx context.Context, req RequestValidationRequest) error {
	req.FirstName = sanitize.Text(req.FirstName)
	req.LastName = sanitize.Text(req.LastName)
	req.Email = sanitize.Email(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid validation request")
	}

	now := time.Now().UTC()
	code := &models.ValidationCode{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Code:      s.generateCode(),
		IssuedAt:  now,
	}
	effective, err := s.repo.Upsert(ctx, code, now.Add(-s.config.CodeTTL))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store validation code")
	}

	link := fmt.Sprintf("%s/validate?code=%s", strings.TrimRight(s.config.PublicURL, "/"), effective)
	msg := mailer.Message{
		To:      req.Email,
		Subject: "Please confirm your sign-up",
		HTML: fmt.Sprintf("<p>Hi %s,</p><p>Click the link below to confirm your sign-up:</p><p><a href=%q>%s</a></p>",
			req.FirstName, link, link),
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Error("failed to send validation email", zap.String("email", req.Email), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send validation email")
	}
	return nil
}

// Confirm verifies a code, marks the identity's signups validated, consumes
// the code and returns the signed cookie value to set on the client.
func (s *ValidationService) Confirm(ctx context.Context, code string) (string, *models.ValidationCookie, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", nil, appErrors.Clone(appErrors.ErrValidation, "validation code required")
	}

	cutoff := time.Now().UTC().Add(-s.config.CodeTTL)
	vc, err := s.repo.FindByCode(ctx, code, cutoff)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, appErrors.Clone(appErrors.ErrNotFound, "validation code is unknown or expired")
		}
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up validation code")
	}

	identity := models.SignupIdentity{FirstName: vc.FirstName, LastName: vc.LastName, Email: vc.Email}
	if err := s.signups.SetValidated(ctx, identity); err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate signups")
	}

	if err := s.repo.Delete(ctx, vc.ID); err != nil {
		s.logger.Warn("failed to delete consumed validation code", zap.Int64("id", vc.ID), zap.Error(err))
	}

	cookie := &models.ValidationCookie{FirstName: vc.FirstName, LastName: vc.LastName, Email: vc.Email}
	value, err := s.EncodeCookie(cookie)
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign validation cookie")
	}
	return value, cookie, nil
}

// EncodeCookie signs the identity tuple into a cookie value of the form
// base64(payload).hex(hmac-sha256).
func (s *ValidationService) EncodeCookie(cookie *models.ValidationCookie) (string, error) {
	payload, err := json.Marshal(cookie)
	if err != nil {
		return "", fmt.Errorf("marshal cookie: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + s.sign(encoded), nil
}

// DecodeCookie verifies the signature and returns the identity tuple. Any
// malformed or tampered value fails closed.
func (s *ValidationService) DecodeCookie(value string) (*models.ValidationCookie, error) {
	parts := strings.SplitN(value, ".", 2)
	if len(parts) != 2 {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "malformed validation cookie")
	}
	if !hmac.Equal([]byte(s.sign(parts[0])), []byte(parts[1])) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "validation cookie signature mismatch")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "malformed validation cookie")
	}
	var cookie models.ValidationCookie
	if err := json.Unmarshal(payload, &cookie); err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "malformed validation cookie")
	}
	if cookie.Email == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "validation cookie missing identity")
	}
	return &cookie, nil
}

// CookieTTL exposes the configured cookie lifetime for handlers.
func (s *ValidationService) CookieTTL() time.Duration {
	return s.config.CookieTTL
}

func (s *ValidationService) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(s.config.CookieSecret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// generateCode produces a 40-hex-character token. The non-crypto fallback
// only runs if the system entropy source fails, and is logged loudly.
func (s *ValidationService) generateCode() string {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		s.logger.Warn("crypto/rand unavailable, falling back to weak validation code", zap.Error(err))
		for i := range buf {
			buf[i] = byte(mathrand.Intn(256))
		}
	}
	return hex.EncodeToString(buf)
}
