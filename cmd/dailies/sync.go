package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dailies/internal/config"
	dsync "dailies/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Git synchronization of the data directory",
	Long: `Keeps the data directory in a git repository. With sync.enabled and
sync.auto_commit set, every save is committed with a message describing the
change, e.g. "Complete task: Pay rent".

  sync:
    enabled: false           # Enable/disable git sync
    auto_commit: true        # Commit after changes
    auto_push: false         # Push after each commit
    pull_on_startup: false   # Pull before each command
    commit_message: "auto"   # "auto" or a fixed message`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !dsync.IsGitInstalled() {
			return fmt.Errorf("git is not installed; install git to use sync")
		}
		return nil
	},
}

var (
	syncRemote string
	syncEnable bool
)

var syncInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a git repository in the data directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		dataDir := e.cfg.GetDataDir()
		if e.git.IsRepo() {
			fmt.Printf("Git repository already initialized in %s\n", dataDir)
		} else {
			if err := e.git.Init(); err != nil {
				return err
			}
			fmt.Println(e.styles.Success("repository initialized in " + dataDir))
		}

		if syncRemote != "" {
			if err := e.git.AddRemote("origin", syncRemote); err != nil {
				return err
			}
			fmt.Println(e.styles.Success("remote 'origin' set to " + syncRemote))
		}

		if syncEnable {
			path := configPathForDisplay()
			fileCfg, err := config.LoadFile(path)
			if err != nil {
				return err
			}
			fileCfg.Sync.Enabled = true
			if err := fileCfg.SaveTo(path); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			fmt.Println(e.styles.Success("sync enabled in " + path))
		} else if !e.cfg.Sync.Enabled {
			fmt.Println()
			fmt.Println("Enable auto-commit with 'dailies sync init --enable' or in " + configPathForDisplay() + ":")
			fmt.Println("  sync:")
			fmt.Println("    enabled: true")
		}
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		status, err := e.git.Status()
		if err != nil {
			return err
		}

		fmt.Println(e.styles.SectionStyle.Render("Git Sync Status"))
		if e.cfg.Sync.Enabled {
			fmt.Println("Sync:        enabled")
		} else {
			fmt.Println("Sync:        disabled")
		}
		fmt.Printf("Data dir:    %s\n", e.cfg.GetDataDir())

		if !status.IsRepo {
			fmt.Println("Repository:  not initialized")
			fmt.Println()
			fmt.Println("Run 'dailies sync init' to initialize.")
			return nil
		}
		fmt.Println("Repository:  initialized")
		fmt.Printf("Branch:      %s\n", status.Branch)

		if status.HasRemote {
			fmt.Printf("Remote:      %s (%s)\n", status.RemoteName, status.RemoteURL)
			if status.Ahead > 0 || status.Behind > 0 {
				fmt.Printf("Status:      %d ahead, %d behind\n", status.Ahead, status.Behind)
			} else {
				fmt.Println("Status:      up to date")
			}
		} else {
			fmt.Println("Remote:      not configured")
		}

		if status.HasChanges {
			fmt.Println("Changes:     uncommitted changes present")
		} else {
			fmt.Println("Changes:     clean")
		}
		if status.LastCommitAt != nil {
			fmt.Printf("Last commit: %s\n", formatAge(*status.LastCommitAt))
		}
		return nil
	},
}

var syncNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Pull, commit everything and push",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		if !e.git.IsRepo() {
			return dsync.ErrNotRepo
		}
		status, err := e.git.Status()
		if err != nil {
			return err
		}

		if status.HasRemote {
			fmt.Println("Pulling latest changes...")
			if err := e.git.Pull(); err != nil {
				return err
			}
		}

		fmt.Println("Committing changes...")
		if err := e.git.CommitAll(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}

		if !status.HasRemote {
			fmt.Println(e.styles.Success("changes committed locally"))
			fmt.Println("(No remote configured - add one with 'dailies sync init --remote <url>')")
			return nil
		}
		fmt.Println("Pushing to remote...")
		if err := e.git.Push(); err != nil {
			fmt.Fprintln(os.Stderr, e.styles.Warn("push failed: "+err.Error()))
			fmt.Println("Changes committed locally.")
			return nil
		}
		fmt.Println(e.styles.Success("sync complete"))
		return nil
	},
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull latest changes from the remote",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		if err := e.git.Pull(); err != nil {
			return err
		}
		fmt.Println(e.styles.Success("pull complete"))
		return nil
	},
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push local commits to the remote",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		if err := e.git.Push(); err != nil {
			return err
		}
		fmt.Println(e.styles.Success("push complete"))
		return nil
	},
}

func init() {
	syncInitCmd.Flags().StringVar(&syncRemote, "remote", "", "add or update the 'origin' remote")
	syncInitCmd.Flags().BoolVar(&syncEnable, "enable", false, "turn on sync in the config file")
	syncCmd.AddCommand(syncInitCmd, syncStatusCmd, syncNowCmd, syncPullCmd, syncPushCmd)
}
