package prefs

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kestrelscan/kestrel/internal/core/domain"
)

// Registrar merges a plugin's declared preferences into a Store.
type Registrar struct {
	store *Store
}

// NewRegistrar returns a registrar writing into store.
func NewRegistrar(store *Store) *Registrar {
	return &Registrar{store: store}
}

// Register writes each of the metadata's preferences into the store in
// declaration order, overwriting existing values. No-op for invalid metadata.
func (r *Registrar) Register(meta *domain.PluginMetadata) {
	if !meta.Valid() {
		return
	}
	for _, p := range meta.Preferences {
		r.store.Set(Key(meta.Name, p.Type, p.Name), p.Default)
	}
}

// Key builds the composite preference key "<plugin_name>[<type>]:<pref_name>".
// Trailing whitespace is trimmed from the preference name.
func Key(pluginName, prefType, prefName string) string {
	return fmt.Sprintf("%s[%s]:%s", pluginName, prefType,
		strings.TrimRightFunc(prefName, unicode.IsSpace))
}
