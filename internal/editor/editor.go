// Package editor edits a task's notes. The stored form is block JSON; the
// editing surface is a plain textarea with one paragraph per line.
package editor

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrDestroyed = errors.New("editor: destroyed")

type block struct {
	Type string    `json:"type"`
	Data blockData `json:"data"`
}

type blockData struct {
	Text  string   `json:"text,omitempty"`
	Items []string `json:"items,omitempty"`
}

type document struct {
	Blocks []block `json:"blocks"`
}

type Editor struct {
	ta        textarea.Model
	original  json.RawMessage
	initial   string
	destroyed bool
}

// New opens content for editing. Content that is not block JSON is shown as
// raw text.
func New(content json.RawMessage, placeholder string) *Editor {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 0

	initial := Text(content)
	ta.SetValue(initial)

	return &Editor{
		ta:       ta,
		original: content,
		initial:  ta.Value(),
	}
}

// Text flattens block JSON to one line per block.
func Text(content json.RawMessage) string {
	if len(content) == 0 {
		return ""
	}
	var doc document
	if err := json.Unmarshal(content, &doc); err != nil || doc.Blocks == nil {
		return string(content)
	}
	lines := make([]string, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		if len(b.Data.Items) > 0 {
			lines = append(lines, b.Data.Items...)
			continue
		}
		lines = append(lines, b.Data.Text)
	}
	return strings.Join(lines, "\n")
}

// Modified reports whether the text differs from what was loaded.
func (e *Editor) Modified() bool {
	return e.ta.Value() != e.initial
}

// Save returns the content blob. An unmodified editor returns the original
// bytes unchanged.
func (e *Editor) Save() (json.RawMessage, error) {
	if e.destroyed {
		return nil, ErrDestroyed
	}
	if !e.Modified() {
		return e.original, nil
	}

	doc := document{Blocks: []block{}}
	for _, line := range strings.Split(e.ta.Value(), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		doc.Blocks = append(doc.Blocks, block{Type: "paragraph", Data: blockData{Text: line}})
	}
	return json.Marshal(doc)
}

// Destroy releases the editor. Later calls to Save fail.
func (e *Editor) Destroy() {
	e.destroyed = true
	e.ta.Blur()
	e.ta.Reset()
}

func (e *Editor) Focus() tea.Cmd { return e.ta.Focus() }

func (e *Editor) Blur() { e.ta.Blur() }

func (e *Editor) Focused() bool { return e.ta.Focused() }

func (e *Editor) SetSize(w, h int) {
	e.ta.SetWidth(w)
	e.ta.SetHeight(h)
}

func (e *Editor) Value() string { return e.ta.Value() }

func (e *Editor) SetValue(s string) { e.ta.SetValue(s) }

func (e *Editor) Update(msg tea.Msg) tea.Cmd {
	if e.destroyed {
		return nil
	}
	var cmd tea.Cmd
	e.ta, cmd = e.ta.Update(msg)
	return cmd
}

func (e *Editor) View() string {
	if e.destroyed {
		return ""
	}
	return e.ta.View()
}
