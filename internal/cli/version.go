package cli

import (
	"fmt"
	"runtime"
	rtdebug "runtime/debug"

	"github.com/LeJamon/goStorageRent/internal/core/storagerent"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display version information for rentd including build details, Go version and the rent parameters it charges with.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "rentd version %s\n", rootCmd.Version)
		if info, ok := rtdebug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" {
					fmt.Fprintf(out, "Git commit hash: %s\n", s.Value)
				}
			}
		}
		fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
		fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(out, "Rental rate: 2^-%d gas per byte-second, %d bytes overhead per node\n",
			storagerent.RentalRateShift, storagerent.StorageOverhead)
		fmt.Fprintf(out, "Rent caps: %d (code %d), read threshold: %d (code %d), write threshold: %d\n",
			storagerent.RentCap, storagerent.RentCapContractCode,
			storagerent.ReadThreshold, storagerent.ReadThresholdContractCode, storagerent.WriteThreshold)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
