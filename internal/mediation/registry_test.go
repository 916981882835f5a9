package mediation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapterRegistry(t *testing.T) {
	r := NewAdapterRegistry()

	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(&MockAdapter{}))

	require.NoError(t, r.Register(&MockAdapter{ID: "zeta"}))
	require.NoError(t, r.Register(&MockAdapter{ID: "alpha"}))
	assert.Error(t, r.Register(&MockAdapter{ID: "alpha"}))

	assert.Equal(t, 2, r.Len())
	assert.True(t, r.Has("alpha"))

	a, err := r.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", a.Info().PartnerID)

	_, err = r.Get("missing")
	assert.Error(t, err)

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].Info().PartnerID)
	assert.Equal(t, "zeta", all[1].Info().PartnerID)

	require.NoError(t, r.Unregister("alpha"))
	assert.False(t, r.Has("alpha"))
	assert.Error(t, r.Unregister("alpha"))
}
