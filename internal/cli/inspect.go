package cli

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var (
	totalsFrom uint64
	totalsTo   uint64
)

var headsCmd = &cobra.Command{
	Use:   "heads",
	Short: "List the states saved in the node database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := provider.TrieStore()
		if err != nil {
			return err
		}
		heads, err := store.Heads(cmd.Context())
		if err != nil {
			return err
		}
		names := make([]string, 0, len(heads))
		for name := range heads {
			names = append(names, name)
		}
		sort.Strings(names)

		out := cmd.OutOrStdout()
		for _, name := range names {
			h := heads[name]
			fmt.Fprintf(out, "%s\troot=%s block=%d timestamp=%d\n", name, h.Root.Hex(), h.Block, h.Timestamp)
		}
		return nil
	},
}

var receiptsCmd = &cobra.Command{
	Use:   "receipts",
	Short: "Query the receipts database",
}

var receiptsShowCmd = &cobra.Command{
	Use:   "show <tx hash>",
	Short: "Print the receipt of a transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := hexutil.Decode(args[0])
		if err != nil || len(raw) != common.HashLength {
			return fmt.Errorf("invalid transaction hash %q", args[0])
		}
		repo, err := provider.Receipts()
		if err != nil {
			return err
		}
		r, err := repo.Receipt(cmd.Context(), common.BytesToHash(raw))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "tx: %s\n", r.TxHash.Hex())
		fmt.Fprintf(out, "block: %d\n", r.BlockNumber)
		fmt.Fprintf(out, "status: %s\n", r.Status)
		if r.Reason != "" {
			fmt.Fprintf(out, "reason: %s\n", r.Reason)
		}
		fmt.Fprintf(out, "gasUsed: %d\n", r.GasUsed)
		fmt.Fprintf(out, "rentEngaged: %t\n", r.RentEngaged)
		fmt.Fprintf(out, "payableRent: %d\n", r.PayableRent)
		fmt.Fprintf(out, "rollbackRent: %d\n", r.RollbackRent)
		fmt.Fprintf(out, "paidRent: %d\n", r.PaidRent)
		fmt.Fprintf(out, "rentedNodes: %d\n", r.RentedNodes)
		fmt.Fprintf(out, "rollbackNodes: %d\n", r.RollbackNodes)
		return nil
	},
}

var receiptsTotalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Sum the rent of a block range",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if totalsTo < totalsFrom {
			return fmt.Errorf("--to %d is before --from %d", totalsTo, totalsFrom)
		}
		repo, err := provider.Receipts()
		if err != nil {
			return err
		}
		t, err := repo.RentTotals(cmd.Context(), totalsFrom, totalsTo)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "blocks: %d-%d\n", totalsFrom, totalsTo)
		fmt.Fprintf(out, "transactions: %d (engaged %d, failed %d)\n", t.Transactions, t.Engaged, t.Failed)
		fmt.Fprintf(out, "payableRent: %d\n", t.Payable)
		fmt.Fprintf(out, "rollbackRent: %d\n", t.Rollback)
		fmt.Fprintf(out, "paidRent: %d\n", t.Paid)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(headsCmd, receiptsCmd)
	receiptsCmd.AddCommand(receiptsShowCmd, receiptsTotalsCmd)
	receiptsTotalsCmd.Flags().Uint64Var(&totalsFrom, "from", 0, "first block")
	receiptsTotalsCmd.Flags().Uint64Var(&totalsTo, "to", 1<<62, "last block")
}
