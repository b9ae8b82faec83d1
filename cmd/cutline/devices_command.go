package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cutline/internal/devices"
)

func newDevicesCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "List video and audio capture devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := ctx.devices().List(cmd.Context())
			if err != nil {
				return devicesError(err)
			}
			devices.Sort(list)
			if jsonOut {
				if list == nil {
					list = []devices.Device{}
				}
				return writeJSON(cmd, list)
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No capture devices found")
				return nil
			}
			rows := make([][]string, 0, len(list))
			for _, dev := range list {
				rows = append(rows, []string{string(dev.Kind), dev.Name, dev.Path})
			}
			fmt.Fprintln(out, renderTable([]string{"Kind", "Name", "Path"}, rows, nil))
			return nil
		},
	}
	devicesCmd.Flags().BoolVar(&jsonOut, "json", false, "Print devices as JSON")

	devicesCmd.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Print capture devices as they are plugged in or removed",
		RunE: func(cmd *cobra.Command, args []string) error {
			watchCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			out := cmd.OutOrStdout()
			err := ctx.devices().Watch(watchCtx, func(ev devices.Event) {
				fmt.Fprintf(out, "%-6s %-5s %s (%s)\n", ev.Action, ev.Device.Kind, ev.Device.Name, ev.Device.Path)
			})
			if err != nil && watchCtx.Err() == nil {
				return devicesError(err)
			}
			return nil
		},
	})

	return devicesCmd
}

func devicesError(err error) error {
	if errors.Is(err, devices.ErrUnsupported) {
		return fmt.Errorf("device listing is not available on this platform: %w", err)
	}
	return err
}
