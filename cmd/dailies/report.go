package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"dailies/internal/fsutil"
	"dailies/internal/model"
	"dailies/internal/reports"
	"dailies/internal/ui"
)

var (
	reportWeekly bool
	reportFormat string
	reportOutput string
	reportRaw    bool
)

var reportCmd = &cobra.Command{
	Use:   "report [DATE]",
	Short: "Summarize a day or week of tasks and habits",
	Long: `Generates a report of completed and overdue tasks, habit completion and
time logged on timer habits. DATE defaults to today; for --weekly it picks
the Sunday-to-Saturday week containing it. Markdown printed to a terminal is
rendered unless --raw is given.`,
	Example: `  dailies report
  dailies report 2026-03-10
  dailies report --weekly --format json -o week.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(reportFormat)
		switch format {
		case "md":
			format = "markdown"
		case "markdown", "json":
		default:
			return fmt.Errorf("invalid format %q; use markdown or json", reportFormat)
		}

		date := time.Now()
		if len(args) == 1 {
			d, err := model.ParseDate(args[0], time.Local)
			if err != nil {
				return err
			}
			date = d
		}

		e, err := openSession()
		if err != nil {
			return err
		}
		defer e.close()

		gen := reports.NewGenerator(e.profile.Name, e.store.Tasks(), e.store.Habits(), time.Local)

		var output []byte
		if reportWeekly {
			report := gen.GenerateWeekly(date)
			if format == "json" {
				if output, err = reports.FormatWeeklyJSON(report); err != nil {
					return err
				}
			} else {
				output = []byte(reports.FormatWeeklyMarkdown(report))
			}
		} else {
			report := gen.GenerateDaily(date)
			if format == "json" {
				if output, err = reports.FormatDailyJSON(report); err != nil {
					return err
				}
			} else {
				output = []byte(reports.FormatDailyMarkdown(report))
			}
		}

		if reportOutput == "" {
			if format == "markdown" && !reportRaw && isatty.IsTerminal(os.Stdout.Fd()) {
				output = []byte(ui.RenderMarkdown(string(output)))
			}
			_, err := os.Stdout.Write(output)
			return err
		}
		if dir := filepath.Dir(reportOutput); dir != "." {
			if err := os.MkdirAll(dir, fsutil.DirPerm); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
		}
		if err := fsutil.WriteFileAtomic(reportOutput, output, fsutil.FilePerm); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Println(e.styles.Success("report written to " + reportOutput))
		return nil
	},
}

func init() {
	reportCmd.Flags().BoolVarP(&reportWeekly, "weekly", "w", false, "weekly report")
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "markdown", "output format: markdown or json")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "write to file instead of stdout")
	reportCmd.Flags().BoolVar(&reportRaw, "raw", false, "print markdown source even on a terminal")
}
