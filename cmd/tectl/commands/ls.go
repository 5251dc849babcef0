package commands

import (
	"context"
	"fmt"

	"github.com/grayhill/touchencoder/cmd/tectl/cmdutil"
	"github.com/grayhill/touchencoder/internal/cli/output"
	"github.com/grayhill/touchencoder/internal/metrics"
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"discover"},
	Short:   "Discover reachable touch encoders",
	Long: `Scan every configured CAN bus and the host's HID devices for touch
encoders, printing each one's interface id, hardware type, and whether it's
currently running its utility app.`,
	RunE: runLs,
}

type deviceRow struct {
	InterfaceID string `json:"interface_id" yaml:"interface_id"`
	Hardware    string `json:"hardware" yaml:"hardware"`
	InUtility   string `json:"in_utility" yaml:"in_utility"`
}

type deviceTable []deviceRow

func (t deviceTable) Headers() []string {
	return []string{"INTERFACE", "HARDWARE", "UTILITY"}
}

func (t deviceTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, d := range t {
		rows[i] = []string{d.InterfaceID, d.Hardware, d.InUtility}
	}
	return rows
}

func runLs(cmd *cobra.Command, args []string) error {
	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(nil)
	}

	sessions := cmdutil.DiscoverSessions(context.Background(), cfg, m)
	defer cmdutil.DisconnectAll(sessions)

	format, err := output.ParseFormat(cmdutil.Flags.Output)
	if err != nil {
		return err
	}
	printer := output.NewPrinter(cmd.OutOrStdout(), format, !cmdutil.Flags.NoColor)

	rows := make(deviceTable, 0, len(sessions))
	for _, s := range sessions {
		hw := "?"
		if _, err := s.RefreshHardwareInfo(); err == nil {
			if info := s.Info(); info != nil {
				hw = info.Hardware.String()
			}
		}
		util := "?"
		if ok, err := s.InUtilityApp(); err == nil {
			util = fmt.Sprintf("%v", ok)
		}
		rows = append(rows, deviceRow{InterfaceID: s.InterfaceID(), Hardware: hw, InUtility: util})
	}

	if len(rows) == 0 {
		printer.Println("No touch encoders found.")
		return nil
	}

	return printer.Print(rows)
}
