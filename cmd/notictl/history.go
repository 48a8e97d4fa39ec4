package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/notid/internal/config"
	"github.com/jmylchreest/notid/internal/history"
)

var historyOpts struct {
	limit   int
	jsonOut bool
	path    string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse notification history",
	Long: `List closed notifications from the history database, newest first.

The database is read directly, so this works whether or not the daemon
is running.`,
	RunE: runHistory,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all history records",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Println("History cleared.")
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyOpts.limit, "limit", "n", 20,
		"Maximum number of records to show (0 = no limit)")
	historyCmd.Flags().BoolVar(&historyOpts.jsonOut, "json", false,
		"Print records as JSON")
	historyCmd.PersistentFlags().StringVar(&historyOpts.path, "db", "",
		"Path to history database (default: ~/.local/share/notid/history.db)")

	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (*history.Store, error) {
	path := historyOpts.path
	if path == "" {
		cfg, err := config.Load()
		if err == nil && cfg.History.Path != "" {
			path = cfg.History.Path
		}
	}
	return history.Open(path, logger)
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(historyOpts.limit)
	if err != nil {
		return err
	}

	if historyOpts.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No history.")
		return nil
	}
	for _, r := range records {
		urgency := [3]string{"low", "normal", "critical"}[min(r.Urgency, 2)]
		fmt.Printf("%-14s [%s] %s: %s\n",
			humanize.Time(r.ClosedAt), urgency, r.AppName, r.Summary)
	}
	return nil
}
