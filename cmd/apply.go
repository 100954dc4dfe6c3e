package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/autolabel/filter"
	"github.com/s0up4200/autolabel/labeler"
)

var (
	applyAll    bool
	filterExpr  string
	showResults bool
)

// applyCmd represents the apply command
var applyCmd = &cobra.Command{
	Use:   "apply [hash]",
	Short: "Apply the rules to existing torrents",
	Long: `Apply the rules to a single torrent by hash, or to every torrent with --all.

With --all, --filter narrows the torrents using an expression, for example:
  autolabel apply --all --filter 'Label == "" and daysSince(AddedOn) < 7'
  autolabel apply --all --filter 'icontains(Name, "1080p") or Name endsWith ".iso"'`,
	Args: func(cmd *cobra.Command, args []string) error {
		if applyAll && len(args) > 0 {
			return fmt.Errorf("a hash cannot be combined with --all")
		}
		if !applyAll && len(args) != 1 {
			return fmt.Errorf("pass a torrent hash or --all")
		}
		if filterExpr != "" && !applyAll {
			return fmt.Errorf("--filter requires --all")
		}
		return nil
	},
	PreRunE:  initializeApp,
	RunE:     runApply,
	PostRunE: closeApp,
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().BoolVarP(&applyAll, "all", "a", false, "apply to every torrent")
	applyCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression for --all")
	applyCmd.Flags().BoolVarP(&showResults, "verbose", "v", false, "print the outcome for every torrent")
}

func runApply(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var f *filter.Filter
	if filterExpr != "" {
		var err error
		if f, err = filter.Compile(filterExpr); err != nil {
			return fmt.Errorf("invalid filter expression: %w", err)
		}
	}

	client, err := connect()
	if err != nil {
		return err
	}
	svc, _ := newService(ctx, client)

	if !applyAll {
		res, err := svc.ApplyRulesToTorrent(ctx, args[0])
		if err != nil {
			return err
		}
		printResult(res)
		return nil
	}

	summary, err := svc.ApplyRulesToAll(ctx, f)
	if err != nil {
		return err
	}

	if showResults {
		for _, res := range summary.Results {
			printResult(res)
		}
		fmt.Println()
	}

	fmt.Printf("Labeled %d of %d torrents", summary.Labeled, summary.Total)
	fmt.Printf(" (%d skipped, %d unmatched, %d failed)\n", summary.Skipped, summary.Unmatched, summary.Failed)
	return nil
}

func printResult(res labeler.Result) {
	switch res.Outcome {
	case labeler.OutcomeLabeled:
		fmt.Printf("✓ %s → %s (rule %d)\n", res.Name, res.Label, res.Rule)
	case labeler.OutcomeSkipped:
		fmt.Printf("- %s already labeled %q\n", res.Name, res.Label)
	case labeler.OutcomeNoMatch:
		fmt.Printf("- %s: no rule matched\n", res.Name)
	default:
		fmt.Printf("✗ %s: failed\n", res.TorrentID)
	}
}
