package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var listOpts struct {
	jsonOut bool
}

type listEntry struct {
	ID       uint32 `json:"id"`
	AppName  string `json:"app_name"`
	Summary  string `json:"summary"`
	Body     string `json:"body"`
	Urgency  int    `json:"urgency"`
	Value    int    `json:"value"`
	Selected bool   `json:"selected,omitempty"`
	Visible  bool   `json:"visible,omitempty"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List active notifications",
	Long:  `List the daemon's active notifications, visible or not.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		out, err := c.List()
		if err != nil {
			return err
		}

		if listOpts.jsonOut {
			fmt.Println(out)
			return nil
		}

		var entries []listEntry
		if err := json.Unmarshal([]byte(out), &entries); err != nil {
			return fmt.Errorf("decoding notification list: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No active notifications.")
			return nil
		}
		for _, e := range entries {
			marker := " "
			if e.Selected {
				marker = "*"
			}
			urgency := [3]string{"low", "normal", "critical"}[min(e.Urgency, 2)]
			fmt.Printf("%s %4d  [%s]  %s: %s\n", marker, e.ID, urgency, e.AppName, e.Summary)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listOpts.jsonOut, "json", false,
		"Print the raw JSON document")
	rootCmd.AddCommand(listCmd)
}
