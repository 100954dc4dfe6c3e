package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/s0up4200/autolabel/store"
)

// configCmd groups commands that read or change the stored rule settings
var configCmd = &cobra.Command{
	Use:                "config",
	Short:              "Show or change the stored labeling settings",
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: closeApp,
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the stored settings document as JSON",
	Args:  cobra.NoArgs,
	RunE:  runConfigGet,
}

var configSetCaseCmd = &cobra.Command{
	Use:   "set-case <insensitive|sensitive>",
	Short: "Set whether patterns ignore case",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSetCase,
}

var configSetCmd = &cobra.Command{
	Use:   "set <apply_on_add|skip_if_labeled> <true|false>",
	Short: "Change a boolean setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd, configSetCaseCmd, configSetCmd)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	svc, _ := newService(context.Background(), nil)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(svc.GetConfig())
}

func runConfigSetCase(cmd *cobra.Command, args []string) error {
	var insensitive bool
	switch args[0] {
	case "insensitive":
		insensitive = true
	case "sensitive":
	default:
		return fmt.Errorf("invalid case mode %q (must be 'insensitive' or 'sensitive')", args[0])
	}

	svc, _ := newService(context.Background(), nil)
	if err := svc.SetConfig(context.Background(), store.Document{CaseInsensitive: &insensitive}); err != nil {
		return err
	}
	fmt.Printf("✓ Patterns are now case %s\n", args[0])
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	value, err := strconv.ParseBool(args[1])
	if err != nil {
		return fmt.Errorf("invalid value %q: %w", args[1], err)
	}

	var patch store.Document
	switch args[0] {
	case "apply_on_add":
		patch.ApplyOnAdd = &value
	case "skip_if_labeled":
		patch.SkipIfLabeled = &value
	default:
		return fmt.Errorf("unknown setting %q", args[0])
	}

	svc, _ := newService(context.Background(), nil)
	if err := svc.SetConfig(context.Background(), patch); err != nil {
		return err
	}
	fmt.Printf("✓ %s = %t\n", args[0], value)
	return nil
}
