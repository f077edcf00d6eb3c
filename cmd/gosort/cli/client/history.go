package client

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mwantia/gosort/internal/agent"
	config "github.com/mwantia/gosort/internal/config/server"
	"github.com/mwantia/gosort/pkg/db/store"
	"github.com/spf13/cobra"
)

const historyTimeFormat = "2006-01-02 15:04:05"

func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the move and event history",
		Long:  "Inspect the moves and events recorded by the agent in the history store.",
	}

	cmd.AddCommand(NewHistoryMovesCommand())
	cmd.AddCommand(NewHistoryEventsCommand())
	cmd.AddCommand(NewHistoryPruneCommand())
	cmd.AddCommand(NewHistoryMigrateCommand())

	return cmd
}

func openHistory(cmd *cobra.Command) (*store.SQLiteStore, error) {
	cfg, err := historyConfig(cmd)
	if err != nil {
		return nil, err
	}
	return agent.OpenHistory(cmd.Context(), cfg)
}

func historyConfig(cmd *cobra.Command) (config.MetadataServerConfig, error) {
	s, err := newSession(cmd.ErrOrStderr())
	if err != nil {
		return config.MetadataServerConfig{}, err
	}
	if !s.cfg.Metadata.Enabled() {
		return config.MetadataServerConfig{}, errors.New("history is disabled (metadata.type is 'none')")
	}
	return s.cfg.Metadata, nil
}

func NewHistoryMovesCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "moves",
		Short: "List recent moves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer history.Close()

			moves, err := history.ListMoves(cmd.Context(), limit, 0)
			if err != nil {
				return fmt.Errorf("failed to list moves: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(moves) == 0 {
				fmt.Fprintln(out, "No moves recorded")
				return nil
			}

			rows := make([][]string, 0, len(moves))
			for _, m := range moves {
				rows = append(rows, []string{
					m.MovedAt.Local().Format(historyTimeFormat),
					m.Source,
					m.Destination,
				})
			}

			fmt.Fprint(out, renderTable([]string{"Moved At", "Source", "Destination"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum number of moves to show")

	return cmd
}

func NewHistoryEventsCommand() *cobra.Command {
	var (
		filter store.EventFilter
		since  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List recent events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer history.Close()

			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}

			events, err := history.ListEvents(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("failed to list events: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, "No events recorded")
				return nil
			}

			rows := make([][]string, 0, len(events))
			for _, e := range events {
				detail := e.Detail
				if targets := store.SplitTargets(e.Targets); len(targets) > 0 {
					detail = strings.TrimSpace(detail + "\n" + strings.Join(targets, "\n"))
				}
				rows = append(rows, []string{
					e.OccurredAt.Local().Format(historyTimeFormat),
					e.Kind,
					e.Path,
					detail,
				})
			}

			fmt.Fprint(out, renderTable([]string{"Time", "Kind", "Path", "Detail"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.Kind, "kind", "", "only show events of this kind (e.g. moved, conflict)")
	cmd.Flags().StringVar(&filter.Path, "path", "", "only show events for paths with this prefix")
	cmd.Flags().DurationVar(&since, "since", 0, "only show events newer than this duration (e.g. 24h)")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", 50, "maximum number of events to show")

	return cmd
}

func NewHistoryPruneCommand() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old history entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return errors.New("--older-than must be positive")
			}

			history, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer history.Close()

			pruned, err := history.PruneEvents(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return fmt.Errorf("failed to prune history: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d events\n", pruned)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "delete entries older than this duration")

	return cmd
}

func NewHistoryMigrateCommand() *cobra.Command {
	var rollback bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back history schema migrations",
		Long: `Applies all pending migrations of the history store and shows their status.

With --rollback the most recently applied migration is reverted instead. The
agent applies pending migrations again on its next start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := historyConfig(cmd)
			if err != nil {
				return err
			}

			history, err := agent.ConnectHistory(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer history.Close()

			out := cmd.OutOrStdout()
			if rollback {
				if err := history.Rollback(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(out, "Rolled back the last migration")
			} else {
				if err := history.Migrate(cmd.Context()); err != nil {
					return err
				}
			}

			statuses, err := history.MigrationStatus(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				state := "pending"
				if status.Applied {
					state = "applied"
				}
				rows = append(rows, []string{strconv.Itoa(status.Version), status.Description, state})
			}

			fmt.Fprint(out, renderTable([]string{"Version", "Description", "Status"}, rows, []columnAlignment{alignRight}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&rollback, "rollback", false, "revert the most recently applied migration")

	return cmd
}
