package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSweepSignups struct {
	cutoff  time.Time
	removed int64
}

func (m *mockSweepSignups) DeleteUnvalidatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.cutoff = cutoff
	return m.removed, nil
}

type mockSweepCodes struct {
	cutoff  time.Time
	removed int64
}

func (m *mockSweepCodes) DeleteIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.cutoff = cutoff
	return m.removed, nil
}

func TestSweepRunOnce(t *testing.T) {
	signups := &mockSweepSignups{removed: 4}
	codes := &mockSweepCodes{removed: 2}
	svc := NewSweepService(signups, codes, nil, zap.NewNop(), SweepConfig{
		CodeTTL:        24 * time.Hour,
		UnvalidatedTTL: time.Hour,
	})

	result, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.ExpiredCodes)
	assert.Equal(t, int64(4), result.UnvalidatedSignups)

	// each sweep gets its own retention window
	assert.WithinDuration(t, time.Now().UTC().Add(-24*time.Hour), codes.cutoff, time.Minute)
	assert.WithinDuration(t, time.Now().UTC().Add(-time.Hour), signups.cutoff, time.Minute)
}
