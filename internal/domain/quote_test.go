package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	wilde   = Quote{Text: "Be yourself; everyone else is already taken.", Author: "Oscar Wilde"}
	daVinci = Quote{Text: "Simplicity is the ultimate sophistication.", Author: "Leonardo da Vinci"}
)

func TestQuote_Equal(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Quote
		expected bool
	}{
		{"identical", wilde, wilde, true},
		{"same text different author", wilde, Quote{Text: wilde.Text, Author: "Someone"}, false},
		{"same author different text", wilde, Quote{Text: "Other", Author: wilde.Author}, false},
		{"case differs", wilde, Quote{Text: wilde.Text, Author: "oscar wilde"}, false},
		{"zero values", Quote{}, Quote{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.Equal(tt.b))
			assert.Equal(t, tt.expected, tt.b.Equal(tt.a))
		})
	}
}

func TestQuote_Key(t *testing.T) {
	t.Run("equal quotes share a key", func(t *testing.T) {
		copied := Quote{Text: wilde.Text, Author: wilde.Author}
		assert.Equal(t, wilde.Key(), copied.Key())
	})

	t.Run("different quotes get different keys", func(t *testing.T) {
		assert.NotEqual(t, wilde.Key(), daVinci.Key())
	})

	t.Run("field boundary is part of the key", func(t *testing.T) {
		a := Quote{Text: "ab", Author: "c"}
		b := Quote{Text: "a", Author: "bc"}
		assert.NotEqual(t, a.Key(), b.Key())
	})

	t.Run("key is fixed width hex", func(t *testing.T) {
		assert.Len(t, wilde.Key(), 16)
	})
}

func TestQuote_Validate(t *testing.T) {
	require.NoError(t, wilde.Validate())
	require.NoError(t, Quote{Text: "anonymous words"}.Validate())

	err := Quote{Text: "   ", Author: "Nobody"}.Validate()
	require.ErrorIs(t, err, ErrValidation)
}

func TestMatchQuotes(t *testing.T) {
	cache := []Quote{wilde, daVinci}

	tests := []struct {
		name     string
		term     string
		expected []Quote
	}{
		{"empty term matches all in order", "", []Quote{wilde, daVinci}},
		{"whitespace term matches all", "   ", []Quote{wilde, daVinci}},
		{"matches text case-insensitively", "simpli", []Quote{daVinci}},
		{"matches author", "WILDE", []Quote{wilde}},
		{"trims the term", "  vinci ", []Quote{daVinci}},
		{"no match", "zebra", []Quote{}},
		{"matches both", "e", []Quote{wilde, daVinci}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MatchQuotes(cache, tt.term))
		})
	}
}

func TestMatchQuotes_DoesNotModifyInput(t *testing.T) {
	cache := []Quote{wilde, daVinci}

	_ = MatchQuotes(cache, "simpli")

	assert.Equal(t, []Quote{wilde, daVinci}, cache)
}

func TestLoadState_String(t *testing.T) {
	assert.Equal(t, "unloaded", LoadStateUnloaded.String())
	assert.Equal(t, "loaded", LoadStateLoaded.String())
	assert.Equal(t, "failed", LoadStateFailed.String())
	assert.Equal(t, "unknown", LoadState(42).String())
}

func TestParseLoadState(t *testing.T) {
	for _, s := range []LoadState{LoadStateUnloaded, LoadStateLoaded, LoadStateFailed} {
		assert.Equal(t, s, ParseLoadState(s.String()))
	}

	assert.Equal(t, LoadStateUnloaded, ParseLoadState("bogus"))
}
