package ports

import "context"

// Feature flag names.
const (
	// FlagClearResetsSearchMarks makes clear-all also unmark every card in
	// the search results view. Off by default: cleared favorites keep their
	// search cards marked until the next search or toggle.
	FlagClearResetsSearchMarks = "clear_resets_search_marks"
)

// FeatureFlags answers boolean flags. Unknown flags, and any evaluation
// failure, yield defaultValue.
type FeatureFlags interface {
	IsEnabled(ctx context.Context, flag string, defaultValue bool) bool
}
