// Package domain contains core business entities and rules.
package domain

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Quote represents a quotation with its author.
// This is a domain entity - it has no knowledge of external systems.
//
// A quote has no assigned identifier. Two quotes are the same quote exactly
// when both Text and Author are equal, so the same words by the same author
// coming from different sources collapse into one favorite.
type Quote struct {
	// Text is the text of the quote.
	Text string

	// Author is who said or wrote the quote.
	Author string
}

// Equal reports whether q and other carry identical text and author.
func (q Quote) Equal(other Quote) bool {
	return q.Text == other.Text && q.Author == other.Author
}

// Key returns a content fingerprint for q.
// Equal quotes always share a key. It labels cards for clients and is never
// used as stored identity.
func (q Quote) Key() string {
	d := xxhash.New()
	_, _ = d.WriteString(q.Text)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(q.Author)

	return fmt.Sprintf("%016x", d.Sum64())
}

// Validate checks the quote can be stored as a favorite.
func (q Quote) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return NewValidationError("text", "is required")
	}

	return nil
}

// Matches reports whether the normalized term is a substring of the
// lowercased text or author. An empty term matches every quote.
func (q Quote) Matches(term string) bool {
	if term == "" {
		return true
	}

	return strings.Contains(strings.ToLower(q.Text), term) ||
		strings.Contains(strings.ToLower(q.Author), term)
}

// NormalizeTerm trims surrounding whitespace and lowercases a search term.
func NormalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// MatchQuotes returns the quotes matching term, preserving input order.
// The term is normalized before matching.
func MatchQuotes(quotes []Quote, term string) []Quote {
	term = NormalizeTerm(term)

	matched := make([]Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.Matches(term) {
			matched = append(matched, q)
		}
	}

	return matched
}
