package domain

// Favorites is an ordered set of quotes, most recently added first.
// No two elements are Equal. The methods never modify the receiver.
type Favorites []Quote

// NewFavorites builds a set from quotes, keeping the first occurrence of
// each distinct quote.
func NewFavorites(quotes []Quote) Favorites {
	set := make(Favorites, 0, len(quotes))
	for _, q := range quotes {
		if !set.Contains(q) {
			set = append(set, q)
		}
	}

	return set
}

// Contains reports whether an equal quote is in the set.
func (f Favorites) Contains(q Quote) bool {
	for _, existing := range f {
		if existing.Equal(q) {
			return true
		}
	}

	return false
}

// With returns the set with q inserted at the front.
// It returns f unchanged when an equal quote is already present.
func (f Favorites) With(q Quote) Favorites {
	if f.Contains(q) {
		return f
	}

	next := make(Favorites, 0, len(f)+1)
	next = append(next, q)

	return append(next, f...)
}

// Without returns the set with every quote equal to q removed.
func (f Favorites) Without(q Quote) Favorites {
	next := make(Favorites, 0, len(f))
	for _, existing := range f {
		if !existing.Equal(q) {
			next = append(next, existing)
		}
	}

	return next
}

// Unique reports whether no two elements are equal.
func (f Favorites) Unique() bool {
	for i := range f {
		for j := i + 1; j < len(f); j++ {
			if f[i].Equal(f[j]) {
				return false
			}
		}
	}

	return true
}

// Quotes returns a copy of the set as a plain slice.
func (f Favorites) Quotes() []Quote {
	out := make([]Quote, len(f))
	copy(out, f)

	return out
}
