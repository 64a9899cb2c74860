package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/spigell/candidate-evaluator/internal/history"
	"github.com/spigell/candidate-evaluator/internal/render"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse saved evaluations",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved evaluations, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withStore(func(store *history.Store) error {
			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), records)
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved evaluation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *history.Store) error {
			record, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.Report(recordTitle(record), record.Report))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd)

	historyListCmd.Flags().IntP("limit", "n", 20, "how many evaluations to list, 0 for all")
}

func withStore(fn func(*history.Store) error) error {
	config, err := getConfig()
	if err != nil {
		log.Fatalf("getting a config: %s", err)
	}
	if config.History.Path == "" {
		return errors.New("history path is not configured")
	}

	store, err := history.Open(config.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(store)
}

func printRecords(w io.Writer, records []history.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "no saved evaluations")
		return err
	}
	_, err := fmt.Fprintln(w, render.Records(records))
	return err
}

func recordTitle(r *history.Record) string {
	if r.JobTitle == "" {
		return r.CandidateName
	}
	return fmt.Sprintf("%s / %s", r.CandidateName, r.JobTitle)
}
