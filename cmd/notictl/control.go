package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var focusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Focus the notification popup",
	Long:  `Grab keyboard focus for the popup, selecting the first notification if none is selected.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		return c.Focus()
	},
}

var unfocusCmd = &cobra.Command{
	Use:   "unfocus",
	Short: "Release popup focus",
	Long:  `Clear the selection and return keyboard focus to the compositor.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		return c.Unfocus()
	},
}

var muteCmd = &cobra.Command{
	Use:   "mute",
	Short: "Mute notification sounds",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		return c.Mute()
	},
}

var unmuteCmd = &cobra.Command{
	Use:   "unmute",
	Short: "Unmute notification sounds",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		return c.Unmute()
	},
}

var inhibitCmd = &cobra.Command{
	Use:   "inhibit",
	Short: "Inhibit notification display",
	Long:  `Stop showing new notifications. They are recorded to history instead and are not shown later.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		return c.Inhibit()
	},
}

var uninhibitCmd = &cobra.Command{
	Use:   "uninhibit",
	Short: "Resume notification display",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		return c.Uninhibit()
	},
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show daemon state",
	Long:  `Show the daemon's mute and inhibit flags and how many notifications were diverted while inhibited.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		muted, inhibited, waiting, err := c.State()
		if err != nil {
			return err
		}
		fmt.Printf("muted: %v\ninhibited: %v\n", muted, inhibited)
		if inhibited {
			fmt.Printf("diverted: %d\n", waiting)
		}
		return nil
	},
}

var keyCmd = &cobra.Command{
	Use:   "key <sequence>",
	Short: "Send a key sequence to the daemon",
	Long: `Feed a key sequence through the daemon keymap, exactly as if typed
on the focused popup. Sequences use the keymap syntax, for example:

  notictl key j
  notictl key gg
  notictl key '<esc>'
  notictl key 'ctrl+d'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		return c.Key(args[0])
	},
}

func init() {
	rootCmd.AddCommand(focusCmd)
	rootCmd.AddCommand(unfocusCmd)
	rootCmd.AddCommand(muteCmd)
	rootCmd.AddCommand(unmuteCmd)
	rootCmd.AddCommand(inhibitCmd)
	rootCmd.AddCommand(uninhibitCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(keyCmd)
}
