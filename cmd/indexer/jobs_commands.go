package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nodo1014/indexer/internal/jobs"
	"github.com/nodo1014/indexer/internal/language"
	"github.com/nodo1014/indexer/internal/session"
	"github.com/nodo1014/indexer/internal/workerapi"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and control processing jobs",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsControlCommand(ctx, "pause", "Pause a running job"))
	jobsCmd.AddCommand(newJobsControlCommand(ctx, "resume", "Resume a paused job"))
	jobsCmd.AddCommand(newJobsControlCommand(ctx, "cancel", "Cancel a job"))
	jobsCmd.AddCommand(newJobsDeleteCommand(ctx))
	jobsCmd.AddCommand(newJobsHistoryCommand(ctx))
	jobsCmd.AddCommand(newJobsClearHistoryCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs known to the worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorker(func(client *workerapi.Client) error {
				resp, err := client.Jobs(cmd.Context())
				if err != nil {
					return fmt.Errorf("list jobs: %w", err)
				}

				rows := make([]table.Row, 0, len(resp.Jobs))
				for _, record := range resp.Jobs {
					status, ok := jobs.ParseStatus(record.Status)
					if !ok {
						status = jobs.Status(record.Status)
					}
					if !all && jobs.IsTerminalStatus(status) {
						continue
					}
					rows = append(rows, table.Row{
						record.ID,
						record.FileName,
						string(status),
						strconv.Itoa(record.Progress) + "%",
						language.DisplayName(record.Language),
						record.Model,
					})
				}
				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					fmt.Fprintln(out, "No jobs.")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					table.Row{"ID", "File", "Status", "Progress", "Language", "Model"},
					rows, 3))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include completed, failed, and cancelled jobs")
	return cmd
}

func newJobsControlCommand(ctx *commandContext, verb, short string) *cobra.Command {
	var aliases []string
	if verb == "cancel" {
		// The worker calls this "stop"; accept both.
		aliases = []string{"stop"}
	}
	return &cobra.Command{
		Use:     verb + " <job-id>",
		Short:   short,
		Aliases: aliases,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, ok := jobs.ParseAction(verb)
			if !ok {
				return fmt.Errorf("unknown action %q", verb)
			}
			return ctx.withWorker(func(client *workerapi.Client) error {
				if err := client.Control(cmd.Context(), args[0], controlAction(action)); err != nil {
					return fmt.Errorf("%s job %s: %w", verb, args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Requested %s for job %s\n", verb, args[0])
				return nil
			})
		},
	}
}

// controlAction maps the local action vocabulary onto the worker's verbs;
// cancellation is "stop" on the wire.
func controlAction(action jobs.Action) workerapi.ControlAction {
	switch action {
	case jobs.ActionPause:
		return workerapi.ActionPause
	case jobs.ActionResume:
		return workerapi.ActionResume
	default:
		return workerapi.ActionStop
	}
}

func newJobsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <job-id>",
		Short: "Remove a finished job from the worker's table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorker(func(client *workerapi.Client) error {
				if err := client.Control(cmd.Context(), args[0], workerapi.ActionDelete); err != nil {
					return fmt.Errorf("delete job %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted job %s\n", args[0])
				return nil
			})
		},
	}
}

func newJobsHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show locally journaled finished jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(store *session.Store) error {
				completed, err := store.Completed(cmd.Context())
				if err != nil {
					return fmt.Errorf("read history: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(completed) == 0 {
					fmt.Fprintln(out, "History is empty.")
					return nil
				}
				rows := make([]table.Row, 0, len(completed))
				for _, entry := range completed {
					detail := entry.OutputPath
					if entry.ErrorMessage != "" {
						detail = entry.ErrorMessage
					}
					rows = append(rows, table.Row{
						entry.FileName,
						entry.Status,
						language.DisplayName(entry.Language),
						entry.CompletedAt.Local().Format("2006-01-02 15:04"),
						detail,
					})
				}
				fmt.Fprintln(out, renderTable(
					table.Row{"File", "Status", "Language", "Finished", "Detail"}, rows))
				return nil
			})
		},
	}
}

func newJobsClearHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-history",
		Short: "Delete the local finished-jobs journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(store *session.Store) error {
				removed, err := store.ClearCompleted(cmd.Context())
				if err != nil {
					return fmt.Errorf("clear history: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d history entries\n", removed)
				return nil
			})
		},
	}
}
