package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/floe/internal/store"
)

// Projects maps project id to project, for resolving names.
type Projects map[string]store.Project

func ProjectIndex(projects []store.Project) Projects {
	idx := make(Projects, len(projects))
	for _, p := range projects {
		idx[p.ID] = p
	}
	return idx
}

func (ps Projects) name(t store.Task) string {
	if t.ProjectID == nil {
		return "Inbox"
	}
	if p, ok := ps[*t.ProjectID]; ok {
		return p.Name
	}
	return "Unknown"
}

func ToCSV(tasks []store.Task, projects Projects, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()
	return WriteCSV(f, tasks, projects)
}

func WriteCSV(out io.Writer, tasks []store.Task, projects Projects) error {
	w := csv.NewWriter(out)

	header := []string{"ID", "Title", "Project", "Completed", "Priority", "Due", "Labels", "Order", "Created", "Updated"}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, t := range tasks {
		row := []string{
			t.ID,
			t.Title,
			projects.name(t),
			strconv.FormatBool(t.Completed),
			string(t.Priority),
			formatDue(t.DueDate),
			strings.Join(t.Labels.Names(), ";"),
			strconv.Itoa(t.Order),
			t.CreatedAt.Local().Format(time.RFC3339),
			t.UpdatedAt.Local().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatDue(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Local().Format(time.RFC3339)
}
