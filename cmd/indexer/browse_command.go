package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nodo1014/indexer/internal/language"
	"github.com/nodo1014/indexer/internal/workerapi"
)

func newBrowseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "browse [path]",
		Short: "Browse directories on the worker's media volume",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current := ""
			if len(args) == 1 {
				current = args[0]
			}
			return ctx.withWorker(func(client *workerapi.Client) error {
				resp, err := client.ListDirectories(cmd.Context(), current)
				if err != nil {
					return fmt.Errorf("browse %q: %w", current, err)
				}

				out := cmd.OutOrStdout()
				if resp.ParentPath != "" {
					fmt.Fprintf(out, "Parent: %s\n", resp.ParentPath)
				}
				if len(resp.Directories) == 0 {
					fmt.Fprintln(out, "No subdirectories.")
					return nil
				}
				rows := make([]table.Row, 0, len(resp.Directories))
				for _, dir := range resp.Directories {
					rows = append(rows, table.Row{
						dir.Name,
						strconv.Itoa(dir.VideoCount),
						strconv.Itoa(dir.AudioCount),
					})
				}
				fmt.Fprintln(out, renderTable(
					table.Row{"Directory", "Video", "Audio"}, rows, 1, 2))
				return nil
			})
		},
	}
}

func newFilesCommand(ctx *commandContext) *cobra.Command {
	var videoOnly bool
	var audioOnly bool

	cmd := &cobra.Command{
		Use:   "files [path]",
		Short: "List media files under a directory on the worker",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scanPath := ""
			if len(args) == 1 {
				scanPath = args[0]
			}
			filterVideo := videoOnly || !audioOnly
			filterAudio := audioOnly || !videoOnly

			return ctx.withWorker(func(client *workerapi.Client) error {
				resp, err := client.ScanFiles(cmd.Context(), scanPath, filterVideo, filterAudio)
				if err != nil {
					return fmt.Errorf("scan %q: %w", scanPath, err)
				}

				out := cmd.OutOrStdout()
				if len(resp.Files) == 0 {
					fmt.Fprintln(out, "No media files.")
					return nil
				}
				rows := make([]table.Row, 0, len(resp.Files))
				for _, file := range resp.Files {
					rows = append(rows, table.Row{
						file.Name,
						file.Type,
						language.DisplayName(file.Language),
						yesNo(file.HasSubtitle),
						yesNo(file.HasEmbedded),
					})
				}
				fmt.Fprintln(out, renderTable(
					table.Row{"File", "Type", "Language", "Subtitle", "Embedded"}, rows))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&videoOnly, "video", false, "Video files only")
	cmd.Flags().BoolVar(&audioOnly, "audio", false, "Audio files only")
	return cmd
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
