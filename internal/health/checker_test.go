package health

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/echoface/mediation-adapter/internal/mediation"
	"github.com/echoface/mediation-adapter/pkg/bridge"
)

func TestCheckerThresholds(t *testing.T) {
	c := NewChecker(2, 2)
	offline := mediation.NewError(mediation.NoConnectivity, "offline")

	c.Record("sim", offline)
	assert.True(t, c.IsHealthy("sim"))
	c.Record("sim", offline)
	assert.False(t, c.IsHealthy("sim"))

	status := c.Get("sim")
	assert.Equal(t, 2, status.FailureCount)
	assert.Equal(t, "no_connectivity", status.LastKind)

	c.Record("sim", nil)
	assert.False(t, c.IsHealthy("sim"))
	c.Record("sim", nil)
	assert.True(t, c.IsHealthy("sim"))
	assert.Empty(t, c.Get("sim").LastError)
}

func TestNoFillDoesNotCount(t *testing.T) {
	c := NewChecker(1, 1)
	c.Record("sim", mediation.NewError(mediation.NoFill, "empty"))
	c.Record("sim", mediation.NewError(mediation.AdNotFound, "gone"))
	assert.True(t, c.IsHealthy("sim"))
	assert.Empty(t, c.IDs())

	c.Record("sim", errors.New("plain"))
	assert.False(t, c.IsHealthy("sim"))
	assert.Equal(t, "partner_error", c.Get("sim").LastKind)
}

func TestAbandonedCallIsIgnored(t *testing.T) {
	c := NewChecker(1, 1)
	c.Record("sim", fmt.Errorf("%w: load: %w", bridge.ErrAbandoned, context.DeadlineExceeded))
	c.Record("sim", context.Canceled)
	assert.True(t, c.IsHealthy("sim"))
	assert.Empty(t, c.IDs())
}

func TestReady(t *testing.T) {
	c := NewChecker(1, 1)
	assert.True(t, c.IsHealthy("unknown"))
	assert.False(t, c.Ready([]string{"a"}))
	assert.True(t, c.Ready(nil))

	c.MarkReady("a", true)
	c.MarkReady("b", true)
	assert.True(t, c.Ready([]string{"a", "b"}))

	c.Record("b", mediation.NewError(mediation.InitializationFailure, "down"))
	assert.False(t, c.Ready([]string{"a", "b"}))
	assert.Equal(t, []string{"a", "b"}, c.IDs())
	assert.Len(t, c.All(), 2)
}
