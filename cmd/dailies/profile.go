package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dailies/internal/storage"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage profiles",
}

var profileListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List profiles",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		settings, err := e.settings.Get()
		if err != nil {
			e.log.Warn("read settings", zap.Error(err))
		}
		list := e.profiles.List()
		if len(list) == 0 {
			fmt.Println("No profiles yet. Any task or habit command creates one.")
			return nil
		}
		for _, d := range list {
			mark := " "
			if d.ID == settings.DefaultProfile {
				mark = "*"
			}
			line := fmt.Sprintf("%s %s %s", mark, e.styles.IDStyle.Render(d.ID), d.Name)
			if d.Corrupt {
				line += " " + e.styles.ErrorStyle.Render("(corrupt)")
			}
			fmt.Println(line)
		}
		return nil
	},
}

var profileCreateDefault bool

var profileCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		d, err := e.profiles.Create(args[0])
		if err != nil {
			return err
		}
		if profileCreateDefault {
			if _, err := e.settings.Update(storage.SettingsPatch{DefaultProfile: &d.ID}); err != nil {
				return err
			}
		}
		fmt.Println(e.styles.Success(fmt.Sprintf("created profile %s (%s)", d.Name, d.ID)))
		return nil
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:     "delete ID",
	Aliases: []string{"rm"},
	Short:   "Delete a profile and cancel its reminders",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		d, err := matchProfile(e.profiles.List(), args[0])
		if err != nil {
			return err
		}

		if err := e.profiles.Delete(d.ID); err != nil {
			return err
		}
		if err := e.queues.Remove(d.ID); err != nil {
			e.log.Warn("remove profile reminders", zap.String("profile", d.ID), zap.Error(err))
		}
		if settings, err := e.settings.Get(); err == nil && settings.DefaultProfile == d.ID {
			none := ""
			if _, err := e.settings.Update(storage.SettingsPatch{DefaultProfile: &none}); err != nil {
				e.log.Warn("clear default profile", zap.Error(err))
			}
		}
		fmt.Println(e.styles.Success("deleted profile " + d.Name))
		return nil
	},
}

var profileExportOutput string

var profileExportCmd = &cobra.Command{
	Use:   "export ID",
	Short: "Export a profile document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		d, err := matchProfile(e.profiles.List(), args[0])
		if err != nil {
			return err
		}
		if profileExportOutput == "" || profileExportOutput == "-" {
			data, err := e.profiles.Export(d.ID)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		}
		if err := e.profiles.ExportTo(d.ID, profileExportOutput); err != nil {
			return err
		}
		fmt.Println(e.styles.Success(fmt.Sprintf("exported %s to %s", d.Name, profileExportOutput)))
		return nil
	},
}

var profileImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import an exported profile as a new profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		d, err := e.profiles.Import(data)
		if err != nil {
			return err
		}
		fmt.Println(e.styles.Success(fmt.Sprintf("imported profile %s (%s)", d.Name, d.ID)))
		return nil
	},
}

var profileDefaultCmd = &cobra.Command{
	Use:   "default ID",
	Short: "Set the profile used when --profile is not given",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		d, err := matchProfile(e.profiles.List(), args[0])
		if err != nil {
			return err
		}
		if _, err := e.settings.Update(storage.SettingsPatch{DefaultProfile: &d.ID}); err != nil {
			return err
		}
		fmt.Println(e.styles.Success("default profile is now " + d.Name))
		return nil
	},
}

var profileRecoverReset bool

var profileRecoverCmd = &cobra.Command{
	Use:   "recover ID",
	Short: "Restore a corrupt profile from its last good copy",
	Long: `Restore a corrupt profile from the snapshot written before its last save.
With --reset, start the profile over empty instead. Either way the broken
file is kept next to it as <id>.json.corrupt.<timestamp>.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		d, err := matchProfile(e.profiles.List(), args[0])
		if err != nil {
			return err
		}
		if profileRecoverReset {
			name := d.Name
			if d.Corrupt {
				name = ""
			}
			if _, err := e.profiles.Reset(d.ID, name); err != nil {
				return err
			}
			fmt.Println(e.styles.Success("profile " + d.ID + " reset"))
			return nil
		}
		doc, err := e.profiles.RestoreBackup(d.ID)
		if err != nil {
			return err
		}
		fmt.Println(e.styles.Success(fmt.Sprintf("restored %s: %d tasks, %d habits",
			doc.Profile.Name, len(doc.Tasks), len(doc.Habits))))
		return nil
	},
}

func init() {
	profileCreateCmd.Flags().BoolVar(&profileCreateDefault, "default", false, "make it the default profile")
	profileExportCmd.Flags().StringVarP(&profileExportOutput, "output", "o", "", "write to file instead of stdout")
	profileRecoverCmd.Flags().BoolVar(&profileRecoverReset, "reset", false, "start over with an empty profile")

	profileCmd.AddCommand(
		profileListCmd,
		profileCreateCmd,
		profileDeleteCmd,
		profileExportCmd,
		profileImportCmd,
		profileDefaultCmd,
		profileRecoverCmd,
	)
}
