package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:      "test",
	Short:    "Test connection to qBittorrent",
	Long:     `Test the connection to your qBittorrent instance and display basic information.`,
	PreRunE:  initializeApp,
	RunE:     runTest,
	PostRunE: closeApp,
}

func init() {
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	fmt.Printf("Testing connection to qBittorrent at %s...\n", cfg.QBittorrent.URL)

	client, err := connect()
	if err != nil {
		return err
	}
	fmt.Println("✓ Connection successful!")

	ctx := context.Background()
	version, err := client.Version(ctx)
	if err != nil {
		return err
	}

	torrents, err := client.Torrents(ctx)
	if err != nil {
		return err
	}

	labels, err := client.Labels(ctx)
	if err != nil {
		return err
	}

	var unlabeled int
	for _, t := range torrents {
		if !t.HasLabel() {
			unlabeled++
		}
	}

	fmt.Printf("\nqBittorrent Statistics:\n")
	fmt.Printf("- Version: %s\n", version)
	fmt.Printf("- Label mode: %s\n", client.Mode())
	fmt.Printf("- Total torrents: %d (%d unlabeled)\n", len(torrents), unlabeled)
	fmt.Printf("- Total labels: %d\n", len(labels))

	settings := ruleStore.Load(ctx)
	fmt.Printf("\nRules: %d\n", settings.Rules.Len())
	fmt.Printf("- Apply on add: %s\n", boolToStatus(settings.ApplyOnAdd))
	fmt.Printf("- Skip if labeled: %s\n", boolToStatus(settings.SkipIfLabeled))
	fmt.Printf("- Watcher: %s\n", boolToStatus(cfg.Watcher.Enabled))
	fmt.Printf("- HTTP server: %s\n", boolToStatus(cfg.Server.Enabled))

	return nil
}

func boolToStatus(b bool) string {
	if b {
		return "Enabled"
	}
	return "Disabled"
}
