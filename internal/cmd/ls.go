package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dendrascience/telegram-media-fuse/media"
	"github.com/dendrascience/telegram-media-fuse/tgfs"
	"github.com/dendrascience/telegram-media-fuse/util"
)

// NewLsCmd creates the ls subcommand, which builds the tree once and prints it.
func NewLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List the conversations the filesystem would expose",
		Long: `Build the cache once, exactly as a mount would, and print one row per
conversation directory with its file count and payload size.

Use --files to also list every file.`,
		Args: cobra.NoArgs,
		RunE: runLs,
	}
	cmd.Flags().Bool("files", false, "List every file under its conversation")
	return cmd
}

func runLs(cmd *cobra.Command, _ []string) error {
	cfg, err := loadFromCommand(cmd)
	if err != nil {
		return err
	}
	log, err := NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	showFiles, _ := cmd.Flags().GetBool("files")

	return withProvider(cmd.Context(), cfg, log, func(ctx context.Context, p media.Provider) error {
		refresher := tgfs.NewRefresher(p, tgfs.NewStore(), util.NewAllocator(), cfg.refresh(), log.Named("refresh"), nil)
		gen, err := refresher.Refresh(ctx)
		if err != nil {
			return err
		}
		log.Debug("listing generation", zap.Stringer("id", gen.ID))
		printGeneration(cmd.OutOrStdout(), gen, showFiles)
		return nil
	})
}

func printGeneration(w io.Writer, gen *tgfs.Generation, showFiles bool) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Conversation", "Remote ID", "Files", "Size"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for _, folder := range gen.Folders() {
		table.Append([]string{
			folder.Name,
			strconv.FormatInt(folder.RemoteID, 10),
			strconv.Itoa(len(folder.Files)),
			humanize.Bytes(uint64(folder.Size())),
		})
		if !showFiles {
			continue
		}
		for _, file := range folder.Files {
			table.Append([]string{"  " + file.Name, strconv.FormatInt(file.MessageID, 10), file.Kind.String(), humanize.Bytes(uint64(len(file.Data)))})
		}
	}

	folders, files, size := gen.Stats()
	table.SetFooter([]string{
		fmt.Sprintf("%d conversations", folders),
		"",
		strconv.Itoa(files),
		humanize.Bytes(uint64(size)),
	})
	table.Render()
}
