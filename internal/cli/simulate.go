package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/LeJamon/goStorageRent/internal/core/executor"
	"github.com/LeJamon/goStorageRent/internal/simulation"
	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	simulateSave     bool
	simulateReceipts bool
	simulateWorkers  int
)

// ErrScenarioFailed is returned when a scenario's expectations do not hold.
var ErrScenarioFailed = errors.New("scenario failed")

var simulateCmd = &cobra.Command{
	Use:   "simulate <scenario.json>...",
	Short: "Play scenarios through the storage rent accounting",
	Long: `Simulate runs each scenario file from its genesis and checks the rent
figures of its transactions against the expectations it declares.

With --save the final state trie of each scenario is written to the node
database under a head named after the scenario. With --receipts every receipt
is stored in the receipts database, which must be enabled in the configuration.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().BoolVar(&simulateSave, "save", false, "persist the final state of each scenario")
	simulateCmd.Flags().BoolVar(&simulateReceipts, "receipts", false, "persist the receipts of each scenario")
	simulateCmd.Flags().IntVarP(&simulateWorkers, "workers", "j", runtime.NumCPU(), "scenarios run in parallel")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	logger := log.New("module", "simulate")
	opts := provider.GetConfig().SimulationOptions()

	reports := make([]*simulation.Report, len(args))
	g, ctx := errgroup.WithContext(cmd.Context())
	if simulateWorkers > 0 {
		g.SetLimit(simulateWorkers)
	}
	for i, path := range args {
		g.Go(func() error {
			s, err := simulation.LoadScenario(path)
			if err != nil {
				return err
			}
			logger.Debug("Running scenario", "file", path, "name", s.Name, "blocks", len(s.Blocks))
			report, err := simulation.Run(ctx, s, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for i, report := range reports {
		printReport(out, args[i], report)
		if !report.Passed() {
			failed++
		}
		if err := persistReport(cmd.Context(), report); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrScenarioFailed, failed, len(reports))
	}
	return nil
}

func printReport(w io.Writer, path string, report *simulation.Report) {
	status := "PASS"
	if !report.Passed() {
		status = "FAIL"
	}
	fmt.Fprintf(w, "%s %s (%s)\n", status, report.Scenario, path)
	for _, tr := range report.Transactions {
		r := tr.Receipt
		fmt.Fprintf(w, "  %-12s block=%d status=%s gas=%d engaged=%t payable=%d rollback=%d paid=%d nodes=%d/%d\n",
			tr.Name, tr.Block, r.Status, r.GasUsed, r.RentEngaged, r.PayableRent, r.RollbackRent, r.PaidRent,
			r.RentedNodes, r.RollbackNodes)
		if r.Reason != "" {
			fmt.Fprintf(w, "  %-12s reason: %s\n", "", r.Reason)
		}
	}
	for _, m := range report.Mismatches {
		fmt.Fprintf(w, "  mismatch: %s\n", m)
	}
	fmt.Fprintf(w, "  state root: %s\n", report.StateRoot.Hex())
}

// persistReport stores what --save and --receipts ask for.
func persistReport(ctx context.Context, report *simulation.Report) error {
	logger := log.New("module", "simulate")
	if simulateSave {
		store, err := provider.TrieStore()
		if err != nil {
			return err
		}
		head, err := store.SaveHead(ctx, report.Scenario, report.Trie, report.Block, report.Timestamp)
		if err != nil {
			return fmt.Errorf("saving state of %q: %w", report.Scenario, err)
		}
		logger.Info("Saved state", "scenario", report.Scenario, "root", head.Root, "block", head.Block)
	}
	if simulateReceipts {
		repo, err := provider.Receipts()
		if err != nil {
			return err
		}
		for _, block := range receiptsByBlock(report) {
			if err := repo.SaveBlockReceipts(ctx, block); err != nil {
				return fmt.Errorf("saving receipts of %q: %w", report.Scenario, err)
			}
		}
		logger.Info("Saved receipts", "scenario", report.Scenario, "count", len(report.Transactions))
	}
	return nil
}

// receiptsByBlock groups receipts by block, keeping their order.
func receiptsByBlock(report *simulation.Report) [][]*executor.Receipt {
	var blocks [][]*executor.Receipt
	for i, tr := range report.Transactions {
		if i == 0 || tr.Block != report.Transactions[i-1].Block {
			blocks = append(blocks, nil)
		}
		blocks[len(blocks)-1] = append(blocks[len(blocks)-1], tr.Receipt)
	}
	return blocks
}
