package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nodo1014/indexer/internal/language"
	"github.com/nodo1014/indexer/internal/panels"
	"github.com/nodo1014/indexer/internal/session"
	"github.com/nodo1014/indexer/internal/workerapi"
)

func newPanelCommand(ctx *commandContext) *cobra.Command {
	var scanPath string

	cmd := &cobra.Command{
		Use:   "panel [name]",
		Short: "Show or switch the active workspace panel",
		Long: "Without arguments, lists the panels and marks the active one. With a " +
			"name, switches to that panel, renders its view, and remembers the " +
			"choice for the next session.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(store *session.Store) error {
				if len(args) == 0 {
					return listPanels(cmd.Context(), cmd.OutOrStdout(), store, ctx.configValue().UI.DefaultPanel)
				}
				return switchPanel(cmd, ctx, store, args[0], scanPath)
			})
		},
	}

	cmd.Flags().StringVar(&scanPath, "path", "", "Directory the panel view scans")
	return cmd
}

func listPanels(ctx context.Context, out io.Writer, store *session.Store, fallback string) error {
	active, err := store.ActivePanel(ctx)
	if err != nil {
		return err
	}
	if !panels.Known(active) {
		active = fallback
	}
	rows := make([]table.Row, 0, len(panels.Names()))
	for _, name := range panels.Names() {
		marker := ""
		if name == active {
			marker = "*"
		}
		rows = append(rows, table.Row{marker, name, panelShort(name)})
	}
	fmt.Fprintln(out, renderTable(table.Row{"", "Panel", "View"}, rows))
	return nil
}

func switchPanel(cmd *cobra.Command, ctx *commandContext, store *session.Store, name, scanPath string) error {
	client, err := ctx.workerClient()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	controller := panels.NewController(store, ctx.ensureLogger())
	for _, panelName := range panels.Names() {
		panel := &viewPanel{
			name:     panelName,
			out:      out,
			client:   client,
			scanPath: scanPath,
		}
		if err := controller.Register(panel); err != nil {
			return err
		}
	}
	if err := controller.Activate(cmd.Context(), name); err != nil {
		return err
	}
	return nil
}

func panelShort(name string) string {
	switch name {
	case panels.PanelExtract:
		return "files with embedded subtitles to extract"
	case panels.PanelSyncAI:
		return "files with sidecar subtitles to resync"
	case panels.PanelDownload:
		return "files still missing subtitles"
	case panels.PanelWhisper:
		return "speech-to-text job table"
	default:
		return ""
	}
}

// viewPanel renders one read-only view of the worker's state when activated.
type viewPanel struct {
	name     string
	out      io.Writer
	client   *workerapi.Client
	scanPath string
}

func (p *viewPanel) Name() string { return p.name }

func (p *viewPanel) Deactivate(context.Context) error { return nil }

func (p *viewPanel) Activate(ctx context.Context) error {
	fmt.Fprintf(p.out, "Panel %s: %s\n", p.name, panelShort(p.name))
	switch p.name {
	case panels.PanelWhisper:
		return p.renderJobs(ctx)
	case panels.PanelExtract:
		return p.renderFiles(ctx, func(f workerapi.FileEntry) bool { return f.HasEmbedded })
	case panels.PanelSyncAI:
		return p.renderFiles(ctx, func(f workerapi.FileEntry) bool { return f.HasSubtitle })
	case panels.PanelDownload:
		return p.renderFiles(ctx, func(f workerapi.FileEntry) bool { return !f.HasSubtitle && !f.HasEmbedded })
	default:
		return nil
	}
}

func (p *viewPanel) renderJobs(ctx context.Context) error {
	resp, err := p.client.Jobs(ctx)
	if err != nil {
		return fmt.Errorf("load job table: %w", err)
	}
	if len(resp.Jobs) == 0 {
		fmt.Fprintln(p.out, "No jobs.")
		return nil
	}
	rows := make([]table.Row, 0, len(resp.Jobs))
	for _, record := range resp.Jobs {
		rows = append(rows, table.Row{
			record.FileName,
			record.Status,
			fmt.Sprintf("%d%%", record.Progress),
			language.DisplayName(record.Language),
		})
	}
	fmt.Fprintln(p.out, renderTable(table.Row{"File", "Status", "Progress", "Language"}, rows, 2))
	return nil
}

func (p *viewPanel) renderFiles(ctx context.Context, keep func(workerapi.FileEntry) bool) error {
	resp, err := p.client.ScanFiles(ctx, p.scanPath, true, true)
	if err != nil {
		return fmt.Errorf("scan media files: %w", err)
	}
	rows := make([]table.Row, 0, len(resp.Files))
	for _, file := range resp.Files {
		if !keep(file) {
			continue
		}
		rows = append(rows, table.Row{
			file.Name,
			file.Type,
			language.DisplayName(file.Language),
		})
	}
	if len(rows) == 0 {
		fmt.Fprintln(p.out, "Nothing to do here.")
		return nil
	}
	fmt.Fprintln(p.out, renderTable(table.Row{"File", "Type", "Language"}, rows))
	return nil
}
