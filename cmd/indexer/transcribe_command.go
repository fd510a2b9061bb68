package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nodo1014/indexer/internal/language"
	"github.com/nodo1014/indexer/internal/session"
	"github.com/nodo1014/indexer/internal/workerapi"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var modelSize string
	var lang string

	cmd := &cobra.Command{
		Use:   "transcribe <file> [file...]",
		Short: "Submit media files for speech-to-text processing",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			model := strings.TrimSpace(modelSize)
			if model == "" {
				model = cfg.Worker.ModelSize
			}
			code := language.ToISO2(lang)
			if code == "" {
				code = cfg.Worker.Language
			}

			return ctx.withSession(func(store *session.Store) error {
				clientID, err := ctx.clientID(cmd.Context(), store)
				if err != nil {
					return err
				}
				return ctx.withWorker(func(client *workerapi.Client) error {
					resp, err := client.Submit(cmd.Context(), workerapi.SubmitRequest{
						Files:     args,
						ClientID:  clientID,
						ModelSize: model,
						Language:  code,
					})
					if err != nil {
						return fmt.Errorf("submit transcription: %w", err)
					}

					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "Submitted %d file(s) (model %s, language %s)\n",
						len(args), model, language.DisplayName(code))
					if resp.Message != "" {
						fmt.Fprintln(out, resp.Message)
					}
					fmt.Fprintln(out, "Run `indexer watch` to follow progress.")
					return nil
				})
			})
		},
	}

	cmd.Flags().StringVarP(&modelSize, "model", "m", "", "Model size (tiny, base, small, medium, large)")
	cmd.Flags().StringVarP(&lang, "language", "l", "", "Spoken language of the media")
	return cmd
}
