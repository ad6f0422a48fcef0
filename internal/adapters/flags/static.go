// Package flags provides feature flag providers.
package flags

import (
	"context"

	"github.com/jsamuelsen/quotebook/internal/platform/config"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

var _ ports.FeatureFlags = Static(nil)

// Static is a fixed set of flag values read once from configuration.
type Static map[string]bool

// FromConfig builds the flag set from the features config section.
func FromConfig(cfg config.FeaturesConfig) Static {
	return Static{
		ports.FlagClearResetsSearchMarks: cfg.ClearResetsSearchMarks,
	}
}

// IsEnabled returns the configured value, or defaultValue for unknown flags.
func (s Static) IsEnabled(_ context.Context, flag string, defaultValue bool) bool {
	if v, ok := s[flag]; ok {
		return v
	}

	return defaultValue
}
