package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPluginMetadata_Valid(t *testing.T) {
	tests := []struct {
		name     string
		meta     *PluginMetadata
		expected bool
	}{
		{"WithOID_IsValid", &PluginMetadata{OID: "1.3.6.1.4.1.25623.1.0.1"}, true},
		{"WithoutOID_IsInvalid", &PluginMetadata{Name: "anonymous"}, false},
		{"Nil_IsInvalid", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.meta.Valid())
		})
	}
}

func TestCategory_StringRoundTrip(t *testing.T) {
	for c := CategoryInit; c < CategoryUnknown; c++ {
		assert.Equal(t, c, ParseCategory(c.String()), "category %d should round-trip", c)
	}
}

func TestParseCategory_Unknown(t *testing.T) {
	assert.Equal(t, CategoryUnknown, ParseCategory("no_such_category"))
	assert.Equal(t, "unknown", CategoryUnknown.String())
	assert.Equal(t, "unknown", Category(99).String())
}

func TestCategory_SchedulingOrder(t *testing.T) {
	// The scheduler relies on init running first and end/kill-host last.
	assert.Less(t, int(CategoryInit), int(CategoryGatherInfo))
	assert.Less(t, int(CategoryGatherInfo), int(CategoryAttack))
	assert.Less(t, int(CategoryAttack), int(CategoryEnd))
}
