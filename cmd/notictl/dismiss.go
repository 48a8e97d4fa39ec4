package main

import (
	"github.com/spf13/cobra"
)

var dismissOpts struct {
	all bool
	id  uint32
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss",
	Short: "Dismiss notifications",
	Long: `Dismiss the selected notification, a specific one by id, or all of them.

Without flags the currently selected notification is dismissed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		return c.Dismiss(dismissOpts.all, dismissOpts.id)
	},
}

func init() {
	dismissCmd.Flags().BoolVarP(&dismissOpts.all, "all", "a", false,
		"Dismiss every active notification")
	dismissCmd.Flags().Uint32Var(&dismissOpts.id, "id", 0,
		"Dismiss the notification with this id")
	rootCmd.AddCommand(dismissCmd)
}
