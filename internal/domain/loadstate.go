package domain

// LoadState tracks the one-shot load of the quote cache.
type LoadState int

const (
	// LoadStateUnloaded means the fetch has not completed yet.
	LoadStateUnloaded LoadState = iota

	// LoadStateLoaded means the cache holds the fetched quotes.
	LoadStateLoaded

	// LoadStateFailed means the fetch failed. It is never retried.
	LoadStateFailed
)

// String returns the lowercase name of the state.
func (s LoadState) String() string {
	switch s {
	case LoadStateUnloaded:
		return "unloaded"
	case LoadStateLoaded:
		return "loaded"
	case LoadStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ParseLoadState is the inverse of String. Unknown names parse as unloaded.
func ParseLoadState(s string) LoadState {
	switch s {
	case "loaded":
		return LoadStateLoaded
	case "failed":
		return LoadStateFailed
	default:
		return LoadStateUnloaded
	}
}
