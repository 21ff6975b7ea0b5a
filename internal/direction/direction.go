// Package direction maps driving-direction labels to the track side that
// carries them.
package direction

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"roadnet.roadmap.org/internal/track"
)

type Side = track.Side

const (
	Left  = track.Left
	Right = track.Right
)

// UnknownDirectionError reports a label that has no entry in the mapping table.
type UnknownDirectionError struct {
	Label string
}

func (e *UnknownDirectionError) Error() string {
	return fmt.Sprintf("unknown direction label %q", e.Label)
}

// DefaultTable is used when no mapping file is configured.
func DefaultTable() map[string]Side {
	return map[string]Side{
		"东侧": Right,
		"西侧": Left,
		"南侧": Right,
		"北侧": Left,
		"内圈": Right,
		"外圈": Left,
		"上行": Left,
		"下行": Right,
	}
}

// Mapper resolves direction labels using a fixed table.
type Mapper struct {
	table map[string]Side
}

func NewMapper(table map[string]Side) *Mapper {
	t := make(map[string]Side, len(table))
	for label, side := range table {
		t[strings.TrimSpace(label)] = side
	}
	return &Mapper{table: t}
}

// mappingFile mirrors assets/direction_mapping.json.
type mappingFile struct {
	DirectionMapping map[string]string `json:"direction_mapping"`
}

// LoadMapper reads a JSON mapping file of the form
// {"direction_mapping": {"东侧": "right_track", ...}}.
func LoadMapper(path string) (*Mapper, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading direction mapping: %w", err)
	}

	var file mappingFile
	if err := json.Unmarshal(b, &file); err != nil {
		return nil, fmt.Errorf("decoding direction mapping: %w", err)
	}
	if len(file.DirectionMapping) == 0 {
		return nil, fmt.Errorf("direction mapping %s is empty", path)
	}

	table := make(map[string]Side, len(file.DirectionMapping))
	for label, value := range file.DirectionMapping {
		side, err := ParseSide(value)
		if err != nil {
			return nil, fmt.Errorf("direction %q: %w", label, err)
		}
		table[label] = side
	}
	return NewMapper(table), nil
}

// ParseSide accepts "left"/"right" and the "left_track"/"right_track" spelling.
func ParseSide(value string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "left", "left_track":
		return Left, nil
	case "right", "right_track":
		return Right, nil
	}
	return "", fmt.Errorf("invalid track side %q", value)
}

// Resolve returns the side configured for label.
func (m *Mapper) Resolve(label string) (Side, error) {
	side, ok := m.table[strings.TrimSpace(label)]
	if !ok {
		return "", &UnknownDirectionError{Label: label}
	}
	return side, nil
}

// Labels returns the configured labels in sorted order.
func (m *Mapper) Labels() []string {
	labels := make([]string, 0, len(m.table))
	for label := range m.table {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Table returns a copy of the mapping table.
func (m *Mapper) Table() map[string]Side {
	out := make(map[string]Side, len(m.table))
	for label, side := range m.table {
		out[label] = side
	}
	return out
}

// Split breaks compound text such as "东侧/西侧" into its labels, in order.
// Empty parts are dropped.
func Split(text string) []string {
	parts := strings.Split(text, "/")
	labels := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			labels = append(labels, p)
		}
	}
	return labels
}

// Resolved pairs a label with its side.
type Resolved struct {
	Label string
	Side  Side
}

// ResolveAll splits text and resolves every label. The first unknown label fails the call.
func (m *Mapper) ResolveAll(text string) ([]Resolved, error) {
	labels := Split(text)
	if len(labels) == 0 {
		return nil, fmt.Errorf("no direction labels in %q", text)
	}

	resolved := make([]Resolved, 0, len(labels))
	for _, label := range labels {
		side, err := m.Resolve(label)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, Resolved{Label: label, Side: side})
	}
	return resolved, nil
}
