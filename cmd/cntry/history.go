package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pders01/cntry/internal/storage"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent lookups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, index, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		defer index.Close()

		entries, err := store.RecentLookups(historyLimit)
		if err != nil {
			return fmt.Errorf("loading history: %w", err)
		}
		printEntries(cmd.OutOrStdout(), entries)
		return nil
	},
}

var historySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search past lookups",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, index, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		defer index.Close()

		results, err := index.Search(args[0], historyLimit)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		entries := make([]*storage.HistoryEntry, 0, len(results))
		for _, r := range results {
			entries = append(entries, r.Entry)
		}
		printEntries(cmd.OutOrStdout(), entries)
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all recorded lookups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, index, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		defer index.Close()

		n, err := store.ClearHistory()
		if err != nil {
			return fmt.Errorf("clearing history: %w", err)
		}
		if err := index.Clear(); err != nil {
			return fmt.Errorf("clearing search index: %w", err)
		}
		cmd.Printf("Removed %s lookups\n", humanize.Comma(int64(n)))
		return nil
	},
}

func init() {
	historyCmd.PersistentFlags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of lookups")
	historyCmd.AddCommand(historySearchCmd, historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

func printEntries(w io.Writer, entries []*storage.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No lookups found.")
		return
	}
	for _, e := range entries {
		outcome := fmt.Sprintf("%s (%d)", e.Kind, e.Count)
		if e.Failed() {
			outcome = "failed: " + e.Error
		}
		fmt.Fprintf(w, "  %-24s %-28s %s\n", e.Term, outcome, humanize.Time(e.At))
	}
}
