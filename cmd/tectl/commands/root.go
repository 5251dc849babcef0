// Package commands implements the CLI commands for tectl.
package commands

import (
	"os"

	"github.com/grayhill/touchencoder/cmd/tectl/cmdutil"
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tectl",
	Short: "Touch Encoder Control - discover and drive Grayhill touch encoders",
	Long: `tectl discovers Grayhill touch encoders over USB HID and CAN/J1939 and
drives their service-tool protocol: version/hardware/project info, screen
and variable access, restart, and firmware/project updates.

Use "tectl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmdutil.Flags.ConfigPath, _ = cmd.Flags().GetString("config")
		cmdutil.Flags.Device, _ = cmd.Flags().GetString("device")
		cmdutil.Flags.Bus, _ = cmd.Flags().GetStringSlice("bus")
		cmdutil.Flags.Universal, _ = cmd.Flags().GetBool("universal")
		cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
		cmdutil.Flags.NoColor, _ = cmd.Flags().GetBool("no-color")
		cmdutil.Flags.Verbose, _ = cmd.Flags().GetBool("verbose")
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("device", "", "Interface id of the touch encoder to target (usb:<serial> or <can_iface>:<hex_addr>)")
	rootCmd.PersistentFlags().StringSlice("bus", nil, "CAN bus names to scan (overrides config)")
	rootCmd.PersistentFlags().Bool("universal", false, "Use the universal CAN backend instead of the native Linux J1939 socket backend")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(screenCmd)
	rootCmd.AddCommand(variableCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}
