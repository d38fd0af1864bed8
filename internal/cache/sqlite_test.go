package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelscan/kestrel/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "cache.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testMeta() *domain.PluginMetadata {
	return &domain.PluginMetadata{
		OID:      "1.3.6.1.4.1.25623.1.0.100001",
		Name:     "Service Detection",
		Category: domain.CategoryGatherInfo,
		Preferences: []domain.Preference{
			{Name: "Timeout", Type: "entry", Default: "5"},
			{Name: "Aggressive", Type: "checkbox", Default: "no"},
		},
	}
}

func TestStore_AddGet_RoundTrip(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Add(testMeta(), "svc_detect.nasl"))

	got, ok := store.Get("svc_detect.nasl")
	require.True(t, ok)
	assert.Equal(t, testMeta(), got)
}

func TestStore_Get_MissOnUnknownName(t *testing.T) {
	store := newTestStore(t)
	_, ok := store.Get("never_added.nasl")
	assert.False(t, ok)
}

func TestStore_Add_OverwritesPriorEntry(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Add(testMeta(), "p.nasl"))

	updated := testMeta()
	updated.Preferences[0].Default = "30"
	require.NoError(t, store.Add(updated, "p.nasl"))

	got, ok := store.Get("p.nasl")
	require.True(t, ok)
	assert.Equal(t, "30", got.Preferences[0].Default)
}

func TestStore_Add_RejectsInvalidMetadata(t *testing.T) {
	store := newTestStore(t)
	err := store.Add(&domain.PluginMetadata{Name: "no-oid"}, "p.nasl")
	assert.Error(t, err, "records without OID are never cached")
}

func TestStore_Add_NormalizesWhitespace(t *testing.T) {
	store := newTestStore(t)
	meta := testMeta()
	meta.OID = "  1.2.3  "
	meta.Name = " padded \n"
	require.NoError(t, store.Add(meta, "p.nasl"))

	got, ok := store.Get("p.nasl")
	require.True(t, ok)
	assert.Equal(t, "1.2.3", got.OID)
	assert.Equal(t, "padded", got.Name)
}

func TestStore_Reset_PreservesData(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Add(testMeta(), "p.nasl"))

	require.NoError(t, store.Reset())

	got, ok := store.Get("p.nasl")
	require.True(t, ok, "reset re-establishes the connection, it does not clear data")
	assert.Equal(t, testMeta().OID, got.OID)
}

func TestStore_Get_MissAfterClose(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Add(testMeta(), "p.nasl"))
	require.NoError(t, store.Close())

	_, ok := store.Get("p.nasl")
	assert.False(t, ok, "an unreachable cache degrades to a miss, never an error")
	assert.Error(t, store.Add(testMeta(), "p.nasl"))
}

func TestStore_List(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Add(testMeta(), "b.nasl"))
	other := testMeta()
	other.OID = "1.2.3.4"
	require.NoError(t, store.Add(other, "a.nasl"))

	all, err := store.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "1.2.3.4", all["a.nasl"].OID)
	assert.Equal(t, testMeta().OID, all["b.nasl"].OID)
}

func TestStore_EmptyPreferencesRoundTrip(t *testing.T) {
	store := newTestStore(t)
	meta := &domain.PluginMetadata{OID: "1.0", Name: "bare"}
	require.NoError(t, store.Add(meta, "bare.nasl"))

	got, ok := store.Get("bare.nasl")
	require.True(t, ok)
	assert.Empty(t, got.Preferences)
}
