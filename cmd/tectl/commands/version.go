package commands

import (
	"fmt"
	"runtime"

	"github.com/grayhill/touchencoder/pkg/te"
	"github.com/spf13/cobra"
)

var versionShort bool

var supportedHardware = []te.HardwareID{
	te.HardwareTERFUSB,
	te.HardwareTERFCAN,
	te.HardwareTEFXUSB,
	te.HardwareTEFXCAN,
	te.HardwareTEMX,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display the tectl version, build information, and recognized hardware.`,
	Run: func(cmd *cobra.Command, args []string) {
		if versionShort {
			fmt.Println(Version)
			return
		}

		fmt.Printf("tectl %s\n", Version)
		fmt.Printf("  Commit:     %s\n", Commit)
		fmt.Printf("  Built:      %s\n", Date)
		fmt.Printf("  Go version: %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Print("  Hardware:   ")
		for i, hw := range supportedHardware {
			if i > 0 {
				fmt.Print(", ")
			}
			fmt.Print(hw)
		}
		fmt.Println()
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show only version number")
}
