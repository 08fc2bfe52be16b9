package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/floe/internal/store"
)

func sampleData() ([]store.Task, Projects) {
	now := time.Now().UTC()
	due := now.Add(24 * time.Hour)
	alpha := "p-alpha"
	missing := "p-gone"

	tasks := []store.Task{
		{
			ID:        "t1",
			ProjectID: &alpha,
			Title:     "Write report",
			Priority:  store.PriorityHigh,
			DueDate:   &due,
			Labels:    store.Labels{store.LabelFor("bug"), store.LabelFor("feature")},
			Order:     1,
			Content:   json.RawMessage(`{"blocks":[]}`),
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:        "t2",
			Title:     "Inbox item",
			Completed: true,
			Order:     2,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:        "t3",
			ProjectID: &missing,
			Title:     "Orphan",
			Order:     3,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	projects := ProjectIndex([]store.Project{
		{ID: alpha, Name: "Project Alpha", Color: "#FF0000"},
	})

	return tasks, projects
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return records
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	tasks, projects := sampleData()
	path := filepath.Join(t.TempDir(), "test.csv")

	if err := ToCSV(tasks, projects, path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}
	records := readCSV(t, path)

	// header + 3 data rows
	if len(records) != 4 {
		t.Fatalf("expected 4 rows (1 header + 3 data), got %d", len(records))
	}

	expectedHeader := []string{"ID", "Title", "Project", "Completed", "Priority", "Due", "Labels", "Order", "Created", "Updated"}
	for i, h := range expectedHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	row := records[1]
	if row[0] != "t1" || row[1] != "Write report" || row[2] != "Project Alpha" {
		t.Fatalf("unexpected first row: %v", row)
	}
	if row[4] != "high" {
		t.Fatalf("Priority = %q, want high", row[4])
	}
	if row[6] != "bug;feature" {
		t.Fatalf("Labels = %q, want bug;feature", row[6])
	}
	if _, err := time.Parse(time.RFC3339, row[5]); err != nil {
		t.Fatalf("Due is not RFC3339: %q", row[5])
	}

	inbox := records[2]
	if inbox[2] != "Inbox" || inbox[3] != "true" || inbox[5] != "" {
		t.Fatalf("unexpected inbox row: %v", inbox)
	}
	if records[3][2] != "Unknown" {
		t.Fatalf("expected 'Unknown' for missing project, got %q", records[3][2])
	}
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := ToCSV(nil, nil, path); err != nil {
		t.Fatal(err)
	}
	if records := readCSV(t, path); len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(nil, nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestWriteCSVSpecialCharacters(t *testing.T) {
	id := "p1"
	tasks := []store.Task{{ID: "t1", ProjectID: &id, Title: `title with "quotes" and, commas`}}
	projects := ProjectIndex([]store.Project{{ID: id, Name: `Project "Special"`}})

	var buf bytes.Buffer
	if err := WriteCSV(&buf, tasks, projects); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("CSV should be valid even with special chars: %v", err)
	}
	if records[1][1] != `title with "quotes" and, commas` {
		t.Fatalf("title mangled: %q", records[1][1])
	}
	if records[1][2] != `Project "Special"` {
		t.Fatalf("project name mangled: %q", records[1][2])
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	tasks, projects := sampleData()
	path := filepath.Join(t.TempDir(), "test.json")

	if err := ToJSON(tasks, projects, path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if result.Count != 3 || len(result.Tasks) != 3 {
		t.Fatalf("count = %d tasks = %d, want 3", result.Count, len(result.Tasks))
	}
	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}

	first := result.Tasks[0]
	if first.Project != "Project Alpha" || first.ProjectID != "p-alpha" {
		t.Fatalf("unexpected project fields: %+v", first)
	}
	if len(first.Labels) != 2 || first.Labels[0].Color != "#FF4444" {
		t.Fatalf("labels should export structured: %+v", first.Labels)
	}
	if string(first.Content) != `{"blocks":[]}` {
		t.Fatalf("content should pass through, got %s", first.Content)
	}
	if result.Tasks[1].ProjectID != "" || result.Tasks[1].Project != "Inbox" {
		t.Fatalf("unexpected inbox task: %+v", result.Tasks[1])
	}
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"tasks": []`) {
		t.Fatalf("empty export should carry an empty list: %s", buf.String())
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON(nil, nil, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestWriteJSONPrettyPrinted(t *testing.T) {
	var buf bytes.Buffer
	WriteJSON(&buf, nil, nil)
	if !strings.Contains(buf.String(), "\n  ") {
		t.Fatal("JSON should be indented")
	}
}

func TestWriteJSONKeepsContentBytes(t *testing.T) {
	content := `{"blocks":[{"type":"paragraph","data":{"text":"a < b && c > d"}},{"type":"list","data":{"items":["x","y"]}}]}`
	tasks := []store.Task{{ID: "t1", Title: "Nested", Content: json.RawMessage(content)}}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, tasks, nil); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"content":`+content) {
		t.Fatalf("content changed on export:\n%s", buf.String())
	}

	var result jsonExport
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if string(result.Tasks[0].Content) != content {
		t.Fatalf("content = %s, want %s", result.Tasks[0].Content, content)
	}
}
