package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Priority string

const (
	PriorityNone   Priority = ""
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority accepts low/medium/high or 1/2/3. Empty input means no priority.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return PriorityNone, nil
	case "low", "1":
		return PriorityLow, nil
	case "medium", "med", "2":
		return PriorityMedium, nil
	case "high", "3":
		return PriorityHigh, nil
	}
	return PriorityNone, fmt.Errorf("invalid priority %q", s)
}

// Rank orders priorities for sorting; higher is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	}
	return 0
}

type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// PresetLabels are offered by the task editor.
var PresetLabels = []Label{
	{Name: "bug", Color: "#FF4444"},
	{Name: "feature", Color: "#4CAF50"},
	{Name: "enhancement", Color: "#2196F3"},
	{Name: "documentation", Color: "#9C27B0"},
	{Name: "help wanted", Color: "#FF9800"},
	{Name: "question", Color: "#00BCD4"},
	{Name: "wontfix", Color: "#9E9E9E"},
	{Name: "duplicate", Color: "#795548"},
}

// LabelFor returns the preset label called name, or a default-coloured one.
func LabelFor(name string) Label {
	for _, l := range PresetLabels {
		if l.Name == name {
			return l
		}
	}
	return Label{Name: name, Color: DefaultColor}
}

// Labels decodes both the legacy shape (a list of names) and the structured
// shape (a list of {name, color}); it always encodes the structured shape.
type Labels []Label

func (ls *Labels) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*ls = nil
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("labels: %w", err)
	}

	out := make(Labels, 0, len(raw))
	for _, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			name, err := strconv.Unquote(string(item))
			if err != nil {
				return fmt.Errorf("legacy label: %w", err)
			}
			out = append(out, LabelFor(name))
			continue
		}
		var l Label
		if err := json.Unmarshal(item, &l); err != nil {
			return fmt.Errorf("label: %w", err)
		}
		if l.Color == "" {
			l.Color = LabelFor(l.Name).Color
		}
		out = append(out, l)
	}
	*ls = out
	return nil
}

func (ls Labels) MarshalJSON() ([]byte, error) {
	if ls == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Label(ls))
}

// Names returns the label names in order.
func (ls Labels) Names() []string {
	names := make([]string, len(ls))
	for i, l := range ls {
		names[i] = l.Name
	}
	return names
}

// Has reports whether a label called name is present.
func (ls Labels) Has(name string) bool {
	for _, l := range ls {
		if l.Name == name {
			return true
		}
	}
	return false
}
