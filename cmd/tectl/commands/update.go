package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/grayhill/touchencoder/cmd/tectl/cmdutil"
	"github.com/grayhill/touchencoder/internal/cli/output"
	"github.com/grayhill/touchencoder/internal/cli/prompt"
	"github.com/grayhill/touchencoder/internal/logger"
	"github.com/grayhill/touchencoder/internal/metrics"
	"github.com/grayhill/touchencoder/pkg/te"
	"github.com/spf13/cobra"
)

var updateForce bool

var updateCmd = &cobra.Command{
	Use:   "update <file>",
	Short: "Flash a firmware/project image onto a touch encoder",
	Long: `Upload file to the selected device and drive its update state
machine to completion, printing each state transition as it happens.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().BoolVarP(&updateForce, "force", "f", false, "Skip the confirmation prompt")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	filePath := args[0]

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

	s, err := cmdutil.SelectSession(sessions)
	if err != nil {
		return err
	}

	if !updateForce {
		label := fmt.Sprintf("About to flash %s onto %s, which cannot be interrupted safely", filePath, s.InterfaceID())
		ok, err := prompt.ConfirmDanger(label, s.InterfaceID())
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	out := cmd.OutOrStdout()
	start := time.Now()
	logger.SetProgressLine(true)
	status, err := s.Update(filePath, func(state te.UpdateState, completed, total int) {
		if completed >= 0 && total > 0 {
			pct := float64(completed) / float64(total) * 100
			m.RecordUpdateProgress(s.InterfaceID(), state.String(), completed, total)
			fmt.Fprintf(out, "\r%-24s %5.1f%%", state, pct)
		} else {
			fmt.Fprintf(out, "\r%-24s", state)
		}
		if state == te.UpdateStateSuccess || state == te.UpdateStateError || state == te.UpdateStateRejected {
			fmt.Fprintln(out)
		}
	})
	logger.SetProgressLine(false)

	result := "failure"
	if err == nil {
		switch status {
		case te.UpdateSuccess, te.UpdateSuccessRestart, te.UpdateSuccessUpToDate:
			result = "success"
		case te.UpdateTimeout:
			result = "timeout"
		}
	}
	m.RecordUpdateResult(transportOf(s), result, time.Since(start))

	if err != nil {
		return err
	}
	output.NewPrinter(out, output.FormatTable, !cmdutil.Flags.NoColor).UpdateResult(status)
	return nil
}

func transportOf(s te.Session) string {
	if len(s.InterfaceID()) >= 4 && s.InterfaceID()[:4] == "usb:" {
		return "hid"
	}
	return "can"
}
