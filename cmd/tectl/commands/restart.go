package commands

import (
	"context"
	"fmt"

	"github.com/grayhill/touchencoder/cmd/tectl/cmdutil"
	"github.com/grayhill/touchencoder/internal/cli/output"
	"github.com/grayhill/touchencoder/internal/cli/prompt"
	"github.com/grayhill/touchencoder/pkg/te"
	"github.com/spf13/cobra"
)

var (
	restartToUtility    bool
	restartWait         bool
	restartAuthenticate bool
	restartForce        bool
)

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart a touch encoder",
	Long: `Restart the selected device, optionally into its utility
(servicing) app, waiting for the post-restart acknowledgement, and
authenticating as a service tool beforehand.`,
	RunE: runRestart,
}

func init() {
	restartCmd.Flags().BoolVar(&restartToUtility, "to-utility", false, "Restart into the utility app instead of the normal project")
	restartCmd.Flags().BoolVar(&restartWait, "wait", true, "Wait for the device to come back before returning")
	restartCmd.Flags().BoolVar(&restartAuthenticate, "authenticate", false, "Authenticate as a service tool before restarting")
	restartCmd.Flags().BoolVarP(&restartForce, "force", "f", false, "Skip the confirmation prompt")
}

func runRestart(cmd *cobra.Command, args []string) error {
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

	ok, err := prompt.ConfirmWithForce(fmt.Sprintf("Restart %s?", s.InterfaceID()), restartForce)
	if err != nil {
		return cmdutil.HandleAbort(err)
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
		return nil
	}

	status, err := s.Restart(te.RestartOptions{
		ToUtility:    restartToUtility,
		Wait:         restartWait,
		Authenticate: restartAuthenticate,
	})
	if err != nil {
		return err
	}

	printer := output.NewPrinter(cmd.OutOrStdout(), output.FormatTable, !cmdutil.Flags.NoColor)
	printer.Status("restart", status)
	if status != te.StatusSuccess {
		return fmt.Errorf("restart: %s", status)
	}
	return nil
}
