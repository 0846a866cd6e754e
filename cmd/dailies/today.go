package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show what is due today and today's habits",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openSession()
		if err != nil {
			return err
		}
		defer e.close()

		fmt.Print(e.styles.Today(e.profile.Name, e.store.Tasks(), e.store.Habits(), e.store.Today()))
		return nil
	},
}
