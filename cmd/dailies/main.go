// Command dailies is the command-line front end for the dailies task and
// habit store.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dailies/internal/storage"
	"dailies/internal/ui"
)

// Version information - set at build time with -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	flagProfile string
	flagDataDir string
	flagConfig  string
	flagNoColor bool
	flagDebug   bool
)

var rootCmd = &cobra.Command{
	Use:   "dailies",
	Short: "dailies - tasks and habits, one profile at a time",
	Long: `dailies keeps tasks and habits in plain JSON files under ~/.dailies,
one document per profile, and delivers their reminders as desktop
notifications.

Configuration is read from ~/.config/dailies/config.yaml; a .env file next
to it (or in the working directory) may set DAILIES_DATA_DIR and
DAILIES_LOG_LEVEL.`,
	Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagProfile, "profile", "", "profile id, name or id prefix (default: the default profile)")
	pf.StringVar(&flagDataDir, "data-dir", "", "data directory (overrides config and DAILIES_DATA_DIR)")
	pf.StringVar(&flagConfig, "config", "", "config file (default ~/.config/dailies/config.yaml)")
	pf.BoolVar(&flagNoColor, "no-color", false, "disable colored output")
	pf.BoolVar(&flagDebug, "debug", false, "log debug output to stderr")

	rootCmd.AddCommand(
		profileCmd,
		taskCmd,
		habitCmd,
		labelCmd,
		todayCmd,
		remindersCmd,
		backupCmd,
		restoreCmd,
		syncCmd,
		importCmd,
		reportCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		ui.SetColorProfile(flagNoColor)
		styles := defaultStyles()
		fmt.Fprintln(os.Stderr, styles.Error(err.Error()))
		if errors.Is(err, storage.ErrCorrupt) {
			fmt.Fprintln(os.Stderr, styles.Warn("run 'dailies profile recover <id>' to restore the last good copy"))
		}
		os.Exit(1)
	}
}
