package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var setLabel string

// labelsCmd represents the labels command
var labelsCmd = &cobra.Command{
	Use:   "labels [hash]",
	Short: "List labels known to qBittorrent, or set one on a torrent",
	Long: `Without arguments, list the categories (or tags in tag mode) known to qBittorrent.
With a hash and --set, assign that label to the torrent, creating it if needed.`,
	Args:     cobra.MaximumNArgs(1),
	PreRunE:  initializeApp,
	RunE:     runLabels,
	PostRunE: closeApp,
}

func init() {
	rootCmd.AddCommand(labelsCmd)
	labelsCmd.Flags().StringVar(&setLabel, "set", "", "label to assign to the torrent")
}

func runLabels(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, err := connect()
	if err != nil {
		return err
	}
	svc, _ := newService(ctx, client)

	if len(args) == 1 {
		if setLabel == "" {
			return fmt.Errorf("--set is required when a hash is given")
		}
		if err := svc.SetTorrentLabel(ctx, args[0], setLabel); err != nil {
			return err
		}
		fmt.Printf("✓ Labeled %s\n", args[0])
		return nil
	}

	labels, err := svc.GetAvailableLabels(ctx)
	if err != nil {
		return err
	}
	if len(labels) == 0 {
		fmt.Println("No labels found.")
		return nil
	}
	for _, label := range labels {
		fmt.Printf("  • %s\n", label)
	}
	return nil
}
