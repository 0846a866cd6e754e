package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Manage task labels",
}

var labelAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a label",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openSession()
		if err != nil {
			return err
		}
		defer e.close()

		l, err := e.store.AddLabel(args[0])
		if err != nil {
			return err
		}
		fmt.Println(e.styles.Success("label " + l.Name))
		return nil
	},
}

var labelListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List labels with their open task counts",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openSession()
		if err != nil {
			return err
		}
		defer e.close()

		open := map[string]int{}
		for _, t := range e.store.Tasks() {
			if !t.Completed {
				open[t.Category]++
			}
		}
		for _, l := range e.store.Labels() {
			fmt.Printf("%s %s\n", e.styles.CategoryStyle.Render("#"+l.Name), e.styles.IDStyle.Render(fmt.Sprint(open[l.Name])))
		}
		return nil
	},
}

var labelRmCmd = &cobra.Command{
	Use:     "rm NAME",
	Aliases: []string{"delete"},
	Short:   "Delete a label; its tasks keep the category",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openSession()
		if err != nil {
			return err
		}
		defer e.close()

		if err := e.store.DeleteLabel(args[0]); err != nil {
			return err
		}
		fmt.Println(e.styles.Success("deleted label " + args[0]))
		return nil
	},
}

func init() {
	labelCmd.AddCommand(labelAddCmd, labelListCmd, labelRmCmd)
}
