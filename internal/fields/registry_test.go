package fields

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/signup-sheets-api/internal/sanitize"
)

func TestRegistryApplySanitizesAndDefaults(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(EntitySignup, Field{Name: "shirt_size", Type: sanitize.TypeText, Default: "M"}))
	require.NoError(t, reg.Register(EntitySignup, Field{Name: "guests", Type: sanitize.TypeInt}))

	extra, missing := reg.Apply(EntitySignup, map[string]string{
		"shirt_size": " <b>XL</b> ",
		"guests":     "-2",
		"unknown":    "dropped",
	})
	require.Empty(t, missing)
	assert.Equal(t, "XL", extra["shirt_size"])
	assert.Equal(t, "2", extra["guests"])
	_, ok := extra["unknown"]
	assert.False(t, ok)

	extra, _ = reg.Apply(EntitySignup, nil)
	assert.Equal(t, "M", extra["shirt_size"])
}

func TestRegistryRequiredFieldReported(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(EntitySheet, Field{Name: "venue", Type: sanitize.TypeText, Required: true, Label: "Venue"}))

	_, missing := reg.Apply(EntitySheet, map[string]string{})
	assert.Equal(t, []string{"Venue"}, missing)
}

func TestRegistryObserversRunInOrder(t *testing.T) {
	reg := NewRegistry()
	var order []string
	require.NoError(t, reg.Observe(EntitySignup, HookAfterCreate, func(ctx context.Context, entity Entity, record interface{}) error {
		order = append(order, "first")
		return nil
	}))
	require.NoError(t, reg.Observe(EntitySignup, HookAfterCreate, func(ctx context.Context, entity Entity, record interface{}) error {
		order = append(order, "second")
		return nil
	}))

	require.NoError(t, reg.Notify(context.Background(), EntitySignup, HookAfterCreate, nil))
	assert.Equal(t, []string{"first", "second"}, order)

	// a hook nobody observes is a no-op
	assert.NoError(t, reg.Notify(context.Background(), EntitySignup, HookAfterDelete, nil))
}

func TestRegistryBeforeSaveVetoStopsChain(t *testing.T) {
	reg := NewRegistry()
	veto := errors.New("blocked")
	ran := false
	require.NoError(t, reg.Observe(EntitySheet, HookBeforeSave, func(ctx context.Context, entity Entity, record interface{}) error {
		return veto
	}))
	require.NoError(t, reg.Observe(EntitySheet, HookBeforeSave, func(ctx context.Context, entity Entity, record interface{}) error {
		ran = true
		return nil
	}))

	err := reg.Notify(context.Background(), EntitySheet, HookBeforeSave, nil)
	assert.ErrorIs(t, err, veto)
	assert.False(t, ran)
}

func TestRegistryLaterRegistrationWins(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(EntityTask, Field{Name: "room", Type: sanitize.TypeText, Default: "A"}))
	require.NoError(t, reg.Register(EntityTask, Field{Name: "room", Type: sanitize.TypeText, Default: "B"}))

	extra, _ := reg.Apply(EntityTask, nil)
	assert.Equal(t, "B", extra["room"])
}
