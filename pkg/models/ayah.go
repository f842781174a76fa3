package models

import (
	"fmt"
	"strconv"
	"strings"
)

// AyahKey identifies a single ayah by surah number and position within the surah
type AyahKey struct {
	Surah int `json:"surah" db:"surah"`
	Ayah  int `json:"ayah" db:"ayah"`
}

// String formats the key as "surah:ayah"
func (k AyahKey) String() string {
	return fmt.Sprintf("%d:%d", k.Surah, k.Ayah)
}

// Less orders keys by mushaf position
func (k AyahKey) Less(other AyahKey) bool {
	if k.Surah != other.Surah {
		return k.Surah < other.Surah
	}
	return k.Ayah < other.Ayah
}

// ParseAyahKey parses a "surah:ayah" string
func ParseAyahKey(s string) (AyahKey, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return AyahKey{}, fmt.Errorf("invalid ayah key %q: want surah:ayah", s)
	}
	surah, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return AyahKey{}, fmt.Errorf("invalid surah in %q: %w", s, err)
	}
	ayah, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return AyahKey{}, fmt.Errorf("invalid ayah in %q: %w", s, err)
	}
	if surah < 1 || ayah < 1 {
		return AyahKey{}, fmt.Errorf("invalid ayah key %q: numbers start at 1", s)
	}
	return AyahKey{Surah: surah, Ayah: ayah}, nil
}

// Ayah represents a verse of the Quran with its optional text
type Ayah struct {
	Key         AyahKey `json:"key"`
	Juz         int     `json:"juz"`
	Text        string  `json:"text,omitempty"`
	Translation string  `json:"translation,omitempty"`
}
