package spaced_repetition

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Quality is the binary recall outcome of a grading
type Quality int

const (
	// Failure means the ayah was forgotten
	Failure Quality = iota
	// Success means the ayah was remembered
	Success
)

// String returns "success" or "failure"
func (q Quality) String() string {
	switch q {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return fmt.Sprintf("Quality(%d)", int(q))
	}
}

// IsValid reports whether q is Success or Failure
func (q Quality) IsValid() bool {
	return q == Success || q == Failure
}

// ParseQuality accepts success/remembered and failure/forgot, case-insensitively
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "success", "remembered", "s":
		return Success, nil
	case "failure", "forgot", "f":
		return Failure, nil
	default:
		return Failure, fmt.Errorf("invalid quality %q: want success or failure", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (q Quality) MarshalText() ([]byte, error) {
	if !q.IsValid() {
		return nil, fmt.Errorf("invalid quality %d", int(q))
	}
	return []byte(q.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (q *Quality) UnmarshalText(text []byte) error {
	parsed, err := ParseQuality(string(text))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// MarshalJSON encodes the quality as a JSON string
func (q Quality) MarshalJSON() ([]byte, error) {
	text, err := q.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON decodes a JSON string quality
func (q *Quality) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("quality must be a string: %w", err)
	}
	return q.UnmarshalText([]byte(s))
}
