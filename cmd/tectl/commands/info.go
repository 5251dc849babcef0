package commands

import (
	"context"
	"fmt"

	"github.com/grayhill/touchencoder/cmd/tectl/cmdutil"
	"github.com/grayhill/touchencoder/internal/cli/output"
	"github.com/grayhill/touchencoder/pkg/te"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show full metadata for a touch encoder",
	Long: `Refresh and print a device's version, hardware, and project info.

Select the device with --device, or omit it to be prompted when more than
one touch encoder is reachable.`,
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return err
	}

	sessions := cmdutil.DiscoverSessions(context.Background(), cfg, nil)
	defer cmdutil.DisconnectAll(sessions)

	s, err := cmdutil.SelectSession(sessions)
	if err != nil {
		return err
	}

	if _, err := s.RefreshInfo(); err != nil {
		return err
	}
	info := s.Info()

	format, err := output.ParseFormat(cmdutil.Flags.Output)
	if err != nil {
		return err
	}
	printer := output.NewPrinter(cmd.OutOrStdout(), format, !cmdutil.Flags.NoColor)

	if format == output.FormatTable {
		return output.SimpleTable(printer.Writer(), [][2]string{
			{"Interface", info.InterfaceID},
			{"Hardware", info.Hardware.String()},
			{"Firmware", info.Version.Firmware},
			{"Bootloader", info.Version.Bootloader},
			{"Project version", info.Version.Project},
			{"Custom module", info.Version.CustomModule},
			{"Project type", projectTypeName(info.Project)},
		})
	}
	return printer.Print(info)
}

func projectTypeName(p te.ProjectInfo) string {
	switch p.Type {
	case te.ProjectInfoGUIDE:
		return fmt.Sprintf("GUIDE (checksum 0x%08x)", p.Checksum)
	case te.ProjectInfoGIIB:
		return fmt.Sprintf("GIIB (checksum 0x%08x)", p.Checksum)
	default:
		return "unknown"
	}
}
