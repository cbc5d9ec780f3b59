package cli

import (
	"fmt"
	"strconv"

	"github.com/LeJamon/goStorageRent/internal/core/storagerent"
	"github.com/LeJamon/goStorageRent/internal/core/tracking"
	"github.com/LeJamon/goStorageRent/internal/core/types/rentstamp"
	"github.com/spf13/cobra"
)

var (
	computeSize     int64
	computeSeconds  int64
	computeOp       string
	computeCode     bool
	computeLastPaid string
	computeNow      int64
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute the rent of a single trie node",
	Long: `Compute evaluates the rent formulas for one node without any state.

Examples:
    rentd compute due --size 15358 --seconds 2031480
    rentd compute rent --size 4 --seconds 2246250 --op write
    rentd compute timestamp --size 15358 --last-paid 1577836800 --now 1579868310 --code`,
}

var computeDueCmd = &cobra.Command{
	Use:   "due",
	Short: "Rent accrued by a node over a duration, before caps and thresholds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if computeSeconds < 0 || computeSeconds > 1<<53 {
			return fmt.Errorf("--seconds out of range: %d", computeSeconds)
		}
		due, err := storagerent.RentDue(computeSize, computeSeconds*1000)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rentDue: %d\n", due)
		return nil
	},
}

var computeRentCmd = &cobra.Command{
	Use:   "rent",
	Short: "Rent and rollback fee a transaction pays for a node",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if computeSeconds < 0 {
			return fmt.Errorf("--seconds must be non-negative: %d", computeSeconds)
		}
		// Paid at zero, so the block time is the elapsed time.
		node, err := computeNode(rentstamp.Paid(0))
		if err != nil {
			return err
		}
		due, err := node.RentDue(computeSeconds)
		if err != nil {
			return err
		}
		payable, err := node.PayableRent(computeSeconds)
		if err != nil {
			return err
		}
		rollback, err := node.RollbackFee(computeSeconds)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "rentDue: %d\n", due)
		fmt.Fprintf(out, "cap: %d\n", node.Cap())
		fmt.Fprintf(out, "threshold: %d\n", node.Threshold())
		fmt.Fprintf(out, "payableRent: %d\n", payable)
		fmt.Fprintf(out, "rollbackFee: %d\n", rollback)
		return nil
	},
}

var computeTimestampCmd = &cobra.Command{
	Use:   "timestamp",
	Short: "Rent timestamp of a node after it paid at --now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lastPaid, err := parseTimestamp(computeLastPaid)
		if err != nil {
			return err
		}
		node, err := computeNode(lastPaid)
		if err != nil {
			return err
		}
		ts, err := node.NewTimestamp(computeNow)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "timestamp: %s\n", ts)
		return nil
	},
}

func computeNode(lastPaid rentstamp.Timestamp) (storagerent.RentedNode, error) {
	op, err := tracking.ParseOperation(computeOp)
	if err != nil {
		return storagerent.RentedNode{}, err
	}
	if computeSize < 0 {
		return storagerent.RentedNode{}, fmt.Errorf("--size must be non-negative: %d", computeSize)
	}
	return storagerent.NewRentedNode(nil, op, computeSize, lastPaid, computeCode, true), nil
}

// parseTimestamp reads a unix time in seconds, or "unset".
func parseTimestamp(s string) (rentstamp.Timestamp, error) {
	if s == "" || s == "unset" {
		return rentstamp.Unset, nil
	}
	seconds, err := strconv.ParseInt(s, 10, 64)
	if err != nil || seconds < 0 {
		return rentstamp.Unset, fmt.Errorf("invalid timestamp %q: want unix seconds or \"unset\"", s)
	}
	return rentstamp.Paid(seconds), nil
}

func init() {
	rootCmd.AddCommand(computeCmd)
	computeCmd.AddCommand(computeDueCmd, computeRentCmd, computeTimestampCmd)

	computeCmd.PersistentFlags().Int64Var(&computeSize, "size", 0, "node value size in bytes")
	computeDueCmd.Flags().Int64Var(&computeSeconds, "seconds", 0, "time since the node last paid")
	computeRentCmd.Flags().Int64Var(&computeSeconds, "seconds", 0, "time since the node last paid")

	for _, c := range []*cobra.Command{computeRentCmd, computeTimestampCmd} {
		c.Flags().StringVar(&computeOp, "op", "read", "access kind: read, write or delete")
		c.Flags().BoolVar(&computeCode, "code", false, "the node holds contract code")
	}
	computeTimestampCmd.Flags().StringVar(&computeLastPaid, "last-paid", "unset", "rent timestamp of the node: unix seconds or \"unset\"")
	computeTimestampCmd.Flags().Int64Var(&computeNow, "now", 0, "block timestamp, unix seconds")
}
