package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/grayhill/touchencoder/cmd/tectl/cmdutil"
	"github.com/grayhill/touchencoder/pkg/te"
	"github.com/spf13/cobra"
)

var screenCmd = &cobra.Command{
	Use:   "screen [id]",
	Short: "Get or set the active GUIDE screen",
	Long: `With no argument, print the device's current screen id. With an
argument, switch the device to that screen.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScreen,
}

func runScreen(cmd *cobra.Command, args []string) error {
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

	if len(args) == 0 {
		id, status, err := s.Guide().GetScreen()
		if err != nil {
			return err
		}
		if status != te.StatusSuccess {
			return fmt.Errorf("get screen: %s", status)
		}
		fmt.Fprintln(cmd.OutOrStdout(), int(id))
		return nil
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid screen id %q: %w", args[0], err)
	}
	id, err := te.NewScreenID(n)
	if err != nil {
		return err
	}

	status, err := s.Guide().SetScreen(id)
	if err != nil {
		return err
	}
	if status != te.StatusSuccess {
		return fmt.Errorf("set screen: %s", status)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Screen set to %d\n", n)
	return nil
}
