package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ammerola/countsync/internal/offline"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show queued operations in sync order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ops, err := a.engine.Queue.List(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return printJSON(a.out, ops)
			}
			if len(ops) == 0 {
				fmt.Fprintln(a.out, "queue is empty")
				return nil
			}

			tw := newTable(a.out, "ID", "KIND", "PRODUCT", "QUEUED", "RETRIES", "LAST ERROR")
			for _, op := range ops {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%s\n",
					op.ID, op.Kind, op.ProductID(), formatAge(op.EnqueuedAt),
					op.RetryCount, op.MaxRetries, truncate(op.LastError, 48))
			}
			return tw.Flush()
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := a.engine.Queue.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return printJSON(a.out, stats)
			}

			fmt.Fprintf(a.out, "queued:        %d\n", stats.Total)
			for _, kind := range offline.Kinds() {
				if n := stats.CountByKind[kind]; n > 0 {
					fmt.Fprintf(a.out, "  %-16s %d\n", kind, n)
				}
			}
			fmt.Fprintf(a.out, "retrying:      %d\n", stats.Retrying)
			fmt.Fprintf(a.out, "dead letters:  %d\n", stats.DeadLettered)
			if stats.OldestTimestamp != nil {
				fmt.Fprintf(a.out, "oldest:        %s\n", formatAge(*stats.OldestTimestamp))
			}
			if stats.LastSuccessfulSync != nil {
				fmt.Fprintf(a.out, "last sync:     %s\n", formatAge(*stats.LastSuccessfulSync))
			} else {
				fmt.Fprintln(a.out, "last sync:     never")
			}
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop every queued operation without syncing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("clear discards unsynced work; pass --yes to confirm")
			}
			n, err := a.engine.Queue.Len(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.engine.Queue.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "cleared %d operations\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm")
	return cmd
}

func newDeadLettersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deadletters",
		Aliases: []string{"dl"},
		Short:   "Inspect operations that left the queue without syncing",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List dead letters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dead, err := a.engine.Queue.DeadLetters(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return printJSON(a.out, dead)
			}
			if len(dead) == 0 {
				fmt.Fprintln(a.out, "no dead letters")
				return nil
			}

			tw := newTable(a.out, "ID", "KIND", "REASON", "DEAD", "DETAIL")
			for _, dl := range dead {
				detail := dl.Error
				if dl.Conflict != nil {
					detail = fmt.Sprintf("%s: expected %d, server has %d",
						dl.Conflict.ProductName, dl.Conflict.Expected, dl.Conflict.Actual)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					dl.Operation.ID, dl.Operation.Kind, dl.Reason, formatAge(dl.DeadAt), truncate(detail, 60))
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "requeue <id>",
		Short: "Move a dead letter back to the end of the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := a.engine.Queue.Requeue(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return printJSON(a.out, op)
			}
			fmt.Fprintf(a.out, "requeued %s %s\n", op.Kind, op.ID)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete every dead letter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := a.engine.Queue.PurgeDeadLetters(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "purged %d dead letters\n", n)
			return nil
		},
	})

	return cmd
}
