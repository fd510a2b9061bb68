package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nodo1014/indexer/internal/jobs"
	"github.com/nodo1014/indexer/internal/logging"
	"github.com/nodo1014/indexer/internal/pushchan"
	"github.com/nodo1014/indexer/internal/session"
	"github.com/nodo1014/indexer/internal/workerapi"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var refresh time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow job progress over the worker's push channel",
		Long: "Connects to the worker's push channel and prints job events as they " +
			"arrive. The job table is resynchronized from the worker on start and " +
			"on a fixed interval, so missed events heal themselves. Interrupt to stop.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.ensureLogger()

			return ctx.withSession(func(store *session.Store) error {
				watchCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				clientID, err := ctx.clientID(watchCtx, store)
				if err != nil {
					return err
				}
				client, err := ctx.workerClient()
				if err != nil {
					return err
				}

				jobStore := jobs.NewStore(
					jobs.WithControlSender(&workerControl{client: client}),
					jobs.WithJournal(store),
					jobs.WithLogger(logger),
				)

				out := cmd.OutOrStdout()
				unsubscribe := jobStore.Subscribe(func(ev jobs.Event, job jobs.Job) {
					printJobEvent(out, ev, job)
				})
				defer unsubscribe()

				resync := func() {
					resp, err := client.Jobs(watchCtx)
					if err != nil {
						logger.Warn("resync failed", logging.Error(err))
						return
					}
					jobStore.Seed(watchCtx, jobsFromRecords(resp.Jobs))
				}
				resync()
				for _, job := range jobStore.ListActive() {
					fmt.Fprintf(out, "%s  %-10s %3d%%  %s\n",
						time.Now().Format("15:04:05"), job.Status, job.Progress, job.DisplayName())
				}

				conn := pushchan.New(
					pushchan.OptionsFromConfig(cfg, clientID, logger),
					func(payload []byte) {
						ev, err := jobs.ParseEvent(payload)
						if err != nil {
							logger.Warn("undecodable push frame", logging.Error(err))
							return
						}
						jobStore.ApplyEvent(watchCtx, ev)
					},
				)
				conn.OnStateChange(func(state pushchan.State) {
					fmt.Fprintf(out, "%s  push channel %s\n", time.Now().Format("15:04:05"), state)
				})
				defer conn.Disconnect()

				if err := conn.Connect(watchCtx); err != nil {
					// Redial is already scheduled; report and keep watching.
					fmt.Fprintf(out, "initial connection failed: %v\n", err)
				}

				ticker := time.NewTicker(refresh)
				defer ticker.Stop()
				for {
					select {
					case <-watchCtx.Done():
						return nil
					case <-ticker.C:
						resync()
					}
				}
			})
		},
	}

	cmd.Flags().DurationVar(&refresh, "refresh", 30*time.Second, "Interval for resynchronizing the job table")
	return cmd
}

// newStopCommand asks the worker to abandon the current batch over a
// short-lived push connection.
func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Ask the worker to stop the current batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withSession(func(store *session.Store) error {
				clientID, err := ctx.clientID(cmd.Context(), store)
				if err != nil {
					return err
				}
				conn := pushchan.New(pushchan.OptionsFromConfig(cfg, clientID, ctx.ensureLogger()), nil)
				if err := conn.Connect(cmd.Context()); err != nil {
					return fmt.Errorf("reach worker: %w", err)
				}
				defer conn.Disconnect()
				if err := conn.Stop(); err != nil {
					return fmt.Errorf("send stop request: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Stop requested.")
				return nil
			})
		},
	}
}

// workerControl adapts the typed worker client to the job store's
// string-verb control surface.
type workerControl struct {
	client *workerapi.Client
}

func (w *workerControl) Control(ctx context.Context, jobID, action string) error {
	return w.client.Control(ctx, jobID, workerapi.ControlAction(action))
}

func jobsFromRecords(records []workerapi.JobRecord) []jobs.Job {
	out := make([]jobs.Job, 0, len(records))
	for _, record := range records {
		status, ok := jobs.ParseStatus(record.Status)
		if !ok {
			status = jobs.StatusQueued
		}
		out = append(out, jobs.Job{
			ID:         record.ID,
			FilePath:   record.FilePath,
			FileName:   record.FileName,
			Status:     status,
			Progress:   record.Progress,
			Language:   record.Language,
			Model:      record.Model,
			Error:      record.Error,
			OutputPath: record.OutputPath,
		})
	}
	return out
}

func printJobEvent(out io.Writer, ev jobs.Event, job jobs.Job) {
	stamp := time.Now().Format("15:04:05")
	switch ev.Type {
	case jobs.EventBatchComplete:
		fmt.Fprintf(out, "%s  batch complete\n", stamp)
	case jobs.EventBatchCancelled:
		fmt.Fprintf(out, "%s  batch cancelled\n", stamp)
	default:
		marker := ""
		if job.Optimistic {
			marker = "  (pending confirmation)"
		}
		detail := ""
		if job.Error != "" {
			detail = "  " + job.Error
		}
		fmt.Fprintf(out, "%s  %-10s %3d%%  %s%s%s\n",
			stamp, job.Status, job.Progress, job.DisplayName(), detail, marker)
	}
}
