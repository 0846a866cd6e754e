package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dailies/internal/backup"
)

var (
	backupList  bool
	backupPrune bool
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create and manage backups",
	Long: `Creates a timestamped copy of every profile and the settings file under
<data_dir>/backups. Restore one with 'dailies restore'.`,
	Example: `  dailies backup
  dailies backup --list
  dailies backup --prune`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		manager := backup.NewManager(e.cfg.GetDataDir(), version, e.log)
		switch {
		case backupList:
			return listBackups(e, manager)
		case backupPrune:
			n, err := manager.Prune(e.cfg.Backup.Keep)
			if err != nil {
				return err
			}
			fmt.Println(e.styles.Success(fmt.Sprintf("removed %d old backups, keeping %d", n, e.cfg.Backup.Keep)))
			return nil
		}
		return createBackup(e, manager)
	},
}

func createBackup(e *env, manager *backup.Manager) error {
	name, err := manager.Create()
	if err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	info, err := manager.GetBackup(name)
	if err != nil {
		return err
	}

	fmt.Println(e.styles.Success("backup created: " + name))
	fmt.Printf("  Profiles: %d, Tasks: %d, Habits: %d\n",
		info.Stats["profiles"], info.Stats["tasks"], info.Stats["habits"])
	fmt.Printf("  Location: %s\n", info.Path)

	if keep := e.cfg.Backup.Keep; keep > 0 {
		if n, err := manager.Prune(keep); err != nil {
			fmt.Fprintln(os.Stderr, e.styles.Warn("prune old backups: "+err.Error()))
		} else if n > 0 {
			fmt.Printf("  Removed %d old backups (keeping %d)\n", n, keep)
		}
	}
	return nil
}

func listBackups(e *env, manager *backup.Manager) error {
	backups, err := manager.List()
	if err != nil {
		return fmt.Errorf("list backups: %w", err)
	}
	if len(backups) == 0 {
		fmt.Println("No backups available.")
		fmt.Println("Run 'dailies backup' to create one.")
		return nil
	}

	fmt.Println("Available backups:")
	for _, b := range backups {
		fmt.Printf("  %s  %s   Profiles: %d, Tasks: %d, Habits: %d\n",
			b.Name, e.styles.IDStyle.Render("("+formatAge(b.CreatedAt)+")"),
			b.Stats["profiles"], b.Stats["tasks"], b.Stats["habits"])
	}
	return nil
}

var (
	restoreLatest bool
	restoreForce  bool
)

var restoreCmd = &cobra.Command{
	Use:   "restore [NAME]",
	Short: "Restore data from a backup",
	Long: `Restores profiles and settings from a backup. A safety backup of the
current data is taken first. Profiles created after the backup are kept.`,
	Example: `  dailies restore --latest
  dailies restore 2026-03-10_143022_123`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		manager := backup.NewManager(e.cfg.GetDataDir(), version, e.log)

		var name string
		switch {
		case restoreLatest:
			backups, err := manager.List()
			if err != nil {
				return err
			}
			if len(backups) == 0 {
				return fmt.Errorf("no backups available")
			}
			name = backups[0].Name
		case len(args) == 1:
			name = args[0]
		default:
			return fmt.Errorf("no backup specified; use 'dailies restore NAME' or --latest (see 'dailies backup --list')")
		}

		info, err := manager.GetBackup(name)
		if err != nil {
			return err
		}
		fmt.Printf("Restoring from backup: %s\n", info.Name)
		fmt.Printf("  Created: %s\n", info.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("  Profiles: %d, Tasks: %d, Habits: %d\n",
			info.Stats["profiles"], info.Stats["tasks"], info.Stats["habits"])
		fmt.Println()

		if !restoreForce {
			fmt.Println(e.styles.Warn("this will overwrite the profiles contained in the backup"))
			ok, err := confirm("Continue? [y/N] ")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Restore cancelled.")
				return nil
			}
		}

		if err := manager.Restore(name); err != nil {
			return fmt.Errorf("restore backup: %w", err)
		}
		fmt.Println(e.styles.Success("restored from " + name))
		fmt.Println("Run 'dailies reminders resync' to rebuild reminders for the restored data.")
		return nil
	},
}

// confirm asks a yes/no question on stdin. Anything but y or yes is no.
func confirm(prompt string) (bool, error) {
	fmt.Print(prompt)
	response, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && response == "" {
		return false, fmt.Errorf("read input: %w", err)
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// formatAge returns a human-readable age string.
func formatAge(t time.Time) string {
	d := time.Since(t)

	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour") + " ago"
	case d < 7*24*time.Hour:
		return plural(int(d.Hours()/24), "day") + " ago"
	default:
		return plural(int(d.Hours()/24/7), "week") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func init() {
	backupCmd.Flags().BoolVarP(&backupList, "list", "l", false, "list available backups")
	backupCmd.Flags().BoolVar(&backupPrune, "prune", false, "delete backups beyond backup.keep")
	restoreCmd.Flags().BoolVar(&restoreLatest, "latest", false, "restore the most recent backup")
	restoreCmd.Flags().BoolVarP(&restoreForce, "force", "f", false, "skip the confirmation prompt")
}
