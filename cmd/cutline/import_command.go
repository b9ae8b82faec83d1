package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Probe media files and generate thumbnails and proxies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := ctx.importer().ImportMany(cmd.Context(), args)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, items)
			}
			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rows = append(rows, []string{
					item.Name,
					fmt.Sprintf("%.2fs", item.Duration),
					fmt.Sprintf("%dx%d", item.Width, item.Height),
					strconv.FormatFloat(item.FPS, 'f', 2, 64),
					item.Codec,
					yesNo(item.ProxyPath != ""),
					yesNo(item.ThumbnailPath != ""),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Duration", "Resolution", "FPS", "Codec", "Proxy", "Thumbnail"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft, alignLeft},
			))
			if skipped := len(args) - len(items); skipped > 0 {
				fmt.Fprintf(out, "%d file(s) skipped; see the log for details\n", skipped)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print imported items as JSON")
	return cmd
}
