package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"clapper/internal/devices"
)

func newCamerasCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cameras",
		Short: "List capture devices present on this host",
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := devices.Lister{}.List()
			if err != nil {
				return err
			}

			cfg := ctx.configValue()
			configured := make(map[string]string)
			if cfg != nil {
				for _, camera := range cfg.Cameras {
					configured[camera.Device] = camera.Name
				}
			}

			out := cmd.OutOrStdout()
			if len(found) == 0 {
				fmt.Fprintln(out, "No capture devices found")
				return nil
			}

			rows := make([][]string, 0, len(found))
			for _, device := range found {
				name := device.Name
				if name != "" {
					name = cases.Title(language.Und).String(name)
				}
				rows = append(rows, []string{
					device.Path,
					name,
					configured[device.Path],
				})
			}
			fmt.Fprintln(out, renderTable(
				[]tableColumn{{header: "DEVICE"}, {header: "NAME"}, {header: "CONFIGURED AS"}},
				rows,
			))
			return nil
		},
	}
}
