package loader

import (
	"context"

	"github.com/kestrelscan/kestrel/internal/core/domain"
	"github.com/kestrelscan/kestrel/internal/core/ports"
)

// DescriptionExtractor populates a fresh metadata record by running the
// interpreter in description-only mode.
type DescriptionExtractor struct {
	interp ports.Interpreter

	// alwaysSigned bypasses signature verification during extraction
	alwaysSigned bool
}

// NewDescriptionExtractor returns an extractor over interp. When alwaysSigned
// is set, scripts are treated as signed and trusted.
func NewDescriptionExtractor(interp ports.Interpreter, alwaysSigned bool) *DescriptionExtractor {
	return &DescriptionExtractor{interp: interp, alwaysSigned: alwaysSigned}
}

// Extract runs description mode against the plugin file at path. The returned
// record may lack an OID, which means the plugin is undiscoverable; an error
// means the interpreter aborted entirely.
func (e *DescriptionExtractor) Extract(ctx context.Context, path string) (*domain.PluginMetadata, error) {
	mode := ports.ModeDescription
	if e.alwaysSigned {
		mode |= ports.ModeAlwaysSigned
	}
	return e.interp.Describe(ctx, path, mode)
}
