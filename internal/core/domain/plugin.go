package domain

// Category classifies a plugin by the phase of a scan it belongs to and how
// intrusive it is. The ordering is significant: the scheduler runs lower
// categories before higher ones.
type Category int

const (
	CategoryInit Category = iota
	CategoryScanner
	CategorySettings
	CategoryGatherInfo
	CategoryAttack
	CategoryMixedAttack
	CategoryDestructiveAttack
	CategoryDenial
	CategoryKillHost
	CategoryFlood
	CategoryEnd
	CategoryUnknown
)

var categoryNames = map[Category]string{
	CategoryInit:              "init",
	CategoryScanner:           "scanner",
	CategorySettings:          "settings",
	CategoryGatherInfo:        "gather_info",
	CategoryAttack:            "attack",
	CategoryMixedAttack:       "mixed_attack",
	CategoryDestructiveAttack: "destructive_attack",
	CategoryDenial:            "denial",
	CategoryKillHost:          "kill_host",
	CategoryFlood:             "flood",
	CategoryEnd:               "end",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseCategory maps a category name to its Category value. Unrecognized
// names map to CategoryUnknown rather than failing; plugins declaring odd
// categories are still loadable.
func ParseCategory(name string) Category {
	for c, n := range categoryNames {
		if n == name {
			return c
		}
	}
	return CategoryUnknown
}

// Preference is one user-tunable setting declared by a plugin. Read-only
// once constructed.
type Preference struct {
	// Name is the preference name as declared by the plugin
	Name string `json:"name"`

	// Type is the preference widget type (e.g., "checkbox", "entry")
	Type string `json:"type"`

	// Default is the declared default value
	Default string `json:"default"`
}

// PluginMetadata identifies a single vulnerability-check plugin. A record is
// only usable once OID is set; OID-less records exist transiently during
// description extraction and are discarded, never cached.
type PluginMetadata struct {
	// OID is the plugin's unique identifier, assigned by the plugin itself
	// during description extraction
	OID string `json:"oid"`

	// Name is the plugin's display name
	Name string `json:"name"`

	// Category classifies the plugin for scheduling purposes
	Category Category `json:"category"`

	// Preferences lists the plugin's declared preferences in declaration order
	Preferences []Preference `json:"preferences,omitempty"`
}

// Valid reports whether the metadata identifies a plugin. Records without an
// OID are discarded by the loader.
func (m *PluginMetadata) Valid() bool {
	return m != nil && m.OID != ""
}

// Host describes the target of one plugin execution.
type Host struct {
	// Name is the hostname as given to the scanner
	Name string `json:"name"`

	// Address is the resolved address, if known
	Address string `json:"address,omitempty"`
}
