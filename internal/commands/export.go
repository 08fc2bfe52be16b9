package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sadopc/floe/internal/export"
	"github.com/sadopc/floe/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all tasks as CSV or JSON",
	Args:  cobra.NoArgs,
	RunE:  withEnv(runExport),
}

func init() {
	exportCmd.Flags().StringP("format", "f", "csv", "Output format: csv or json")
	exportCmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")
}

func runExport(cmd *cobra.Command, _ []string, e *env) error {
	ctx := cmd.Context()
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	u, err := e.user(ctx)
	if err != nil {
		return err
	}
	tasks, err := e.store.ListTasks(ctx, u.ID)
	if err != nil {
		return err
	}
	projects, err := e.store.ListProjects(ctx, u.ID)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}
	if err := writeExport(w, format, tasks, export.ProjectIndex(projects)); err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d tasks to %s\n", len(tasks), output)
	}
	return nil
}

func writeExport(w io.Writer, format string, tasks []store.Task, projects export.Projects) error {
	switch format {
	case "csv":
		return export.WriteCSV(w, tasks, projects)
	case "json":
		return export.WriteJSON(w, tasks, projects)
	}
	return fmt.Errorf("unknown format %q (want csv or json)", format)
}
