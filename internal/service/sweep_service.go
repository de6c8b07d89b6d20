package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type sweepSignupRepository interface {
	DeleteUnvalidatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type sweepValidationRepository interface {
	DeleteIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type sweepRecorder interface {
	RecordSweep(kind string, removed int64)
}

// SweepConfig carries the retention windows.
type SweepConfig struct {
	Interval       time.Duration
	CodeTTL        time.Duration
	UnvalidatedTTL time.Duration
}

// SweepResult reports what one pass removed.
type SweepResult struct {
	ExpiredCodes       int64 `json:"expired_codes"`
	UnvalidatedSignups int64 `json:"unvalidated_signups"`
}

// SweepService removes expired validation codes and stale unvalidated
// signups, either on a timer or when triggered by the maintenance endpoint.
type SweepService struct {
	signups sweepSignupRepository
	codes   sweepValidationRepository
	metrics sweepRecorder
	logger  *zap.Logger
	config  SweepConfig
}

// NewSweepService constructs a SweepService.
func NewSweepService(signups sweepSignupRepository, codes sweepValidationRepository, metrics sweepRecorder, logger *zap.Logger, config SweepConfig) *SweepService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweepService{signups: signups, codes: codes, metrics: metrics, logger: logger, config: config}
}

// RunOnce performs a single sweep pass.
func (s *SweepService) RunOnce(ctx context.Context) (*SweepResult, error) {
	now := time.Now().UTC()
	result := &SweepResult{}

	codes, err := s.codes.DeleteIssuedBefore(ctx, now.Add(-s.config.CodeTTL))
	if err != nil {
		return nil, err
	}
	result.ExpiredCodes = codes

	signups, err := s.signups.DeleteUnvalidatedBefore(ctx, now.Add(-s.config.UnvalidatedTTL))
	if err != nil {
		return nil, err
	}
	result.UnvalidatedSignups = signups

	if s.metrics != nil {
		s.metrics.RecordSweep("validation_codes", codes)
		s.metrics.RecordSweep("unvalidated_signups", signups)
	}
	if codes > 0 || signups > 0 {
		s.logger.Info("sweep completed",
			zap.Int64("expired_codes", codes),
			zap.Int64("unvalidated_signups", signups))
	}
	return result, nil
}

// Run loops RunOnce on the configured interval until the context ends.
func (s *SweepService) Run(ctx context.Context) {
	interval := s.config.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Error("sweep pass failed", zap.Error(err))
			}
		}
	}
}
