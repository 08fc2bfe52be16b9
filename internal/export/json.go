package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/floe/internal/store"
)

type jsonExport struct {
	ExportedAt string     `json:"exported_at"`
	Count      int        `json:"count"`
	Tasks      []jsonTask `json:"tasks"`
}

type jsonTask struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Project   string          `json:"project"`
	ProjectID string          `json:"project_id,omitempty"`
	Completed bool            `json:"completed"`
	Priority  string          `json:"priority,omitempty"`
	Due       string          `json:"due_date,omitempty"`
	Labels    store.Labels    `json:"labels"`
	Order     int             `json:"order"`
	Content   json.RawMessage `json:"content,omitempty"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

func ToJSON(tasks []store.Task, projects Projects, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()
	if err := WriteJSON(f, tasks, projects); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

func WriteJSON(w io.Writer, tasks []store.Task, projects Projects) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(tasks),
		Tasks:      []jsonTask{},
	}

	for _, t := range tasks {
		jt := jsonTask{
			ID:        t.ID,
			Title:     t.Title,
			Project:   projects.name(t),
			Completed: t.Completed,
			Priority:  string(t.Priority),
			Due:       formatDue(t.DueDate),
			Labels:    t.Labels,
			Order:     t.Order,
			Content:   t.Content,
			CreatedAt: t.CreatedAt.Local().Format(time.RFC3339),
			UpdatedAt: t.UpdatedAt.Local().Format(time.RFC3339),
		}
		if t.ProjectID != nil {
			jt.ProjectID = *t.ProjectID
		}
		export.Tasks = append(export.Tasks, jt)
	}

	return export.write(w)
}

// write indents the envelope and puts each task on one compact line, so
// content blobs come out exactly as stored.
func (e jsonExport) write(w io.Writer) error {
	var buf bytes.Buffer
	exportedAt, err := compactJSON(e.ExportedAt)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintf(&buf, "{\n  \"exported_at\": %s,\n  \"count\": %d,\n  \"tasks\": [", exportedAt, e.Count)
	for i, t := range e.Tasks {
		line, err := compactJSON(t)
		if err != nil {
			return fmt.Errorf("marshal task %s: %w", t.ID, err)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString("\n    ")
		buf.Write(line)
	}
	if len(e.Tasks) > 0 {
		buf.WriteString("\n  ")
	}
	buf.WriteString("]\n}\n")
	_, err = w.Write(buf.Bytes())
	return err
}

func compactJSON(v any) ([]byte, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(b.Bytes(), "\n"), nil
}
