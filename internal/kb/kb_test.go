package kb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGet(t *testing.T) {
	m := NewMemory()

	_, ok := m.Get("host/tcp/22")
	assert.False(t, ok)

	m.Set("host/tcp/22", "open")
	v, ok := m.Get("host/tcp/22")
	require.True(t, ok)
	assert.Equal(t, "open", v)
}

func TestMemory_Reset_DiscardsInheritedState(t *testing.T) {
	m := NewMemory()
	m.Set("stale", "from-parent")

	require.NoError(t, m.Reset())

	_, ok := m.Get("stale")
	assert.False(t, ok, "reset must rebind the handle to a clean execution")

	m.Set("fresh", "v")
	_, ok = m.Get("fresh")
	assert.True(t, ok, "handle must stay usable after reset")
}
