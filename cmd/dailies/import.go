package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"dailies/internal/importer"
)

const previewLimit = 20

var importDryRun bool

var importCmd = &cobra.Command{
	Use:   "import FORMAT FILE",
	Short: "Import tasks from Todoist or Taskwarrior",
	Long: `Import tasks from other productivity tools into the active profile.

TODOIST:
  Export your tasks from Todoist via Settings > Backups and import the CSV.

TASKWARRIOR:
  Export your tasks using: task export > tasks.json
  Both JSON array and newline-delimited JSON formats are supported.

Projects become labels. Tasks already done in the source are imported as
completed. Todoist notes and deleted Taskwarrior tasks are skipped.`,
	Example: `  dailies import todoist ~/Downloads/Todoist_backup.csv
  dailies import --dry-run taskwarrior tasks.json`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: importer.SupportedFormats(),
	RunE: func(cmd *cobra.Command, args []string) error {
		imp := importer.GetImporter(args[0])
		if imp == nil {
			return fmt.Errorf("unknown format %q (supported: %s)", args[0], strings.Join(importer.SupportedFormats(), ", "))
		}
		file, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer file.Close()

		if importDryRun {
			return previewImport(imp, file)
		}

		e, err := openSession()
		if err != nil {
			return err
		}
		defer e.close()

		result, err := importer.Import(imp, file, e.store)
		if err != nil {
			return fmt.Errorf("parse %s: %w", args[1], err)
		}

		fmt.Println(e.styles.Success(fmt.Sprintf("imported %d tasks into %s", result.Imported, e.profile.Name)))
		if result.Skipped > 0 {
			fmt.Printf("  Skipped %d entries (notes, deleted or empty)\n", result.Skipped)
		}
		if len(result.Errors) > 0 {
			fmt.Fprintln(os.Stderr, e.styles.Warn(fmt.Sprintf("%d tasks failed:", len(result.Errors))))
			for _, msg := range result.Errors {
				fmt.Fprintf(os.Stderr, "  %s\n", msg)
			}
		}
		return nil
	},
}

func previewImport(imp importer.Importer, file *os.File) error {
	tasks, skipped, err := imp.Preview(file)
	if err != nil {
		return fmt.Errorf("parse file: %w", err)
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks found to import.")
		return nil
	}

	fmt.Printf("Preview: %d tasks to import from %s (%d skipped)\n", len(tasks), imp.Name(), skipped)
	fmt.Println("────────────────────────────")
	for _, t := range tasks[:min(len(tasks), previewLimit)] {
		var details []string
		if t.Project != "" {
			details = append(details, t.Project)
		}
		if t.Priority != 0 {
			details = append(details, fmt.Sprintf("P%d", t.Priority))
		}
		if t.DueDate != "" {
			details = append(details, strings.TrimSpace(t.DueDate+" "+t.DueTime))
		}
		if t.Done {
			details = append(details, "done")
		}
		line := "  " + t.Title
		if len(details) > 0 {
			line += " (" + strings.Join(details, ", ") + ")"
		}
		fmt.Println(line)
	}
	if len(tasks) > previewLimit {
		fmt.Printf("  ... and %d more\n", len(tasks)-previewLimit)
	}
	fmt.Println()
	fmt.Println("Run without --dry-run to import.")
	return nil
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "preview the import without making changes")
}
