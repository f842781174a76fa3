package models

import (
	"fmt"
	"strings"
)

// ScopeKind is the content-scope mode a review was scheduled under
type ScopeKind string

const (
	// ScopeJuz selects content by juz (section mode)
	ScopeJuz ScopeKind = "juz"
	// ScopeSurah selects content by surah (named-unit mode)
	ScopeSurah ScopeKind = "surah"
)

// Valid reports whether k is a known scope kind
func (k ScopeKind) Valid() bool {
	return k == ScopeJuz || k == ScopeSurah
}

// ParseScopeKind parses "juz" or "surah" case-insensitively
func ParseScopeKind(s string) (ScopeKind, error) {
	k := ScopeKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown scope kind %q: want juz or surah", s)
	}
	return k, nil
}

// Scope is a user's selection of juz or surah numbers
type Scope struct {
	Kind ScopeKind `json:"kind"`
	IDs  []int     `json:"ids"`
}
