package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nodo1014/indexer/internal/acquire"
	"github.com/nodo1014/indexer/internal/language"
	"github.com/nodo1014/indexer/internal/workerapi"
)

func newSubtitleCommand(ctx *commandContext) *cobra.Command {
	subtitleCmd := &cobra.Command{
		Use:   "subtitle",
		Short: "Find and download subtitles",
	}

	subtitleCmd.AddCommand(newSubtitleSearchCommand(ctx))
	subtitleCmd.AddCommand(newSubtitleFetchCommand(ctx))

	return subtitleCmd
}

func newSubtitleSearchCommand(ctx *commandContext) *cobra.Command {
	var lang string
	var noFallback bool
	var minSimilarity float64
	var save bool

	cmd := &cobra.Command{
		Use:   "search <file> [file...]",
		Short: "Search for subtitles with language fallback",
		Long: "Searches the worker's subtitle sources for each file, trying the " +
			"requested language first and then the configured fallback languages " +
			"in order. The first match above the similarity floor wins.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if noFallback {
				cfg.Subtitles.MultilingualFallback = false
			}
			if cmd.Flags().Changed("min-similarity") {
				cfg.Subtitles.MinSimilarity = minSimilarity
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			primary := lang
			if strings.TrimSpace(primary) == "" {
				primary = cfg.Worker.Language
			}

			client, err := ctx.workerClient()
			if err != nil {
				return err
			}
			pipeline := acquire.New(client, cfg, ctx.ensureLogger())
			out := cmd.OutOrStdout()

			summary, err := pipeline.Batch(cmd.Context(), args, primary, func(outcome acquire.FileOutcome) {
				name := filepath.Base(outcome.MediaPath)
				if outcome.Err != nil {
					fmt.Fprintf(out, "[%d/%d] %s: no subtitle (%d languages tried)\n",
						outcome.Index+1, outcome.Total, name, len(outcome.Result.Attempts))
					return
				}
				result := outcome.Result
				note := ""
				if result.NeedsAdjustment {
					note = ", needs resync"
				}
				fmt.Fprintf(out, "[%d/%d] %s: %s (similarity %.1f%%%s)\n",
					outcome.Index+1, outcome.Total, name,
					language.DisplayName(result.Language), result.Similarity, note)
				if save {
					if err := writeSubtitle(outcome.MediaPath, result); err != nil {
						fmt.Fprintf(out, "  save failed: %v\n", err)
					}
				}
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Done: %d found, %d without subtitles\n",
				summary.SuccessCount, summary.FailCount)
			if summary.FailCount > 0 {
				return errors.New("some files have no subtitle")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "language", "l", "", "Preferred subtitle language")
	cmd.Flags().BoolVar(&noFallback, "no-fallback", false, "Only try the preferred language")
	cmd.Flags().Float64Var(&minSimilarity, "min-similarity", 0, "Similarity floor (0-100)")
	cmd.Flags().BoolVar(&save, "save", true, "Write found subtitles next to the media files")
	return cmd
}

func newSubtitleFetchCommand(ctx *commandContext) *cobra.Command {
	var lang string
	var save bool

	cmd := &cobra.Command{
		Use:   "fetch <file>",
		Short: "Download a subtitle in one explicit language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			code := language.ToISO2(lang)
			if code == "" {
				code = cfg.Worker.Language
			}

			client, err := ctx.workerClient()
			if err != nil {
				return err
			}
			pipeline := acquire.New(client, cfg, ctx.ensureLogger())
			result, err := pipeline.Fetch(cmd.Context(), args[0], code)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Found %s subtitle for %s\n",
				language.DisplayName(result.Language), filepath.Base(args[0]))
			if save {
				if err := writeSubtitle(args[0], result); err != nil {
					return err
				}
				fmt.Fprintf(out, "Saved %s\n", subtitlePath(args[0], result.Language))
			} else {
				fmt.Fprint(out, result.SubtitleText)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "language", "l", "", "Subtitle language")
	cmd.Flags().BoolVar(&save, "save", true, "Write the subtitle next to the media file")
	return cmd
}

// subtitlePath places the subtitle beside its media file with a language
// suffix, e.g. movie.ko.srt.
func subtitlePath(mediaPath, lang string) string {
	base := strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath))
	if lang != "" {
		return base + "." + lang + ".srt"
	}
	return base + ".srt"
}

func writeSubtitle(mediaPath string, result *acquire.Result) error {
	if result.SubtitleText == "" {
		return errors.New("subtitle body is empty")
	}
	target := subtitlePath(mediaPath, result.Language)
	if err := os.WriteFile(target, []byte(result.SubtitleText), 0o644); err != nil {
		return fmt.Errorf("write subtitle %s: %w", target, err)
	}
	return nil
}

// ensure the workerapi client keeps satisfying the pipeline's interface
var _ acquire.Searcher = (*workerapi.Client)(nil)
