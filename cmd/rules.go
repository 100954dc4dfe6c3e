package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/s0up4200/autolabel/rules"
)

var (
	ruleDisabled bool
	ruleLabel    string
	rulePattern  string
	testPattern  string
)

// rulesCmd groups the rule management commands
var rulesCmd = &cobra.Command{
	Use:                "rules",
	Short:              "Manage the ordered labeling rules",
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: closeApp,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules in evaluation order",
	Args:  cobra.NoArgs,
	RunE:  runRulesList,
}

var rulesAddCmd = &cobra.Command{
	Use:   "add <label> <pattern>",
	Short: "Append a rule",
	Args:  cobra.ExactArgs(2),
	RunE:  runRulesAdd,
}

var rulesRemoveCmd = &cobra.Command{
	Use:   "remove <index>",
	Short: "Remove the rule at index",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesRemove,
}

var rulesUpdateCmd = &cobra.Command{
	Use:   "update <index>",
	Short: "Change the label or pattern of a rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesUpdate,
}

var rulesMoveCmd = &cobra.Command{
	Use:   "move <from> <to>",
	Short: "Move a rule to another position",
	Args:  cobra.ExactArgs(2),
	RunE:  runRulesMove,
}

var rulesEnableCmd = &cobra.Command{
	Use:   "enable <index>",
	Short: "Enable a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRuleEnabled(args[0], true)
	},
}

var rulesDisableCmd = &cobra.Command{
	Use:   "disable <index>",
	Short: "Disable a rule without removing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRuleEnabled(args[0], false)
	},
}

var rulesTestCmd = &cobra.Command{
	Use:   "test <name>",
	Short: "Show which rule and label a torrent name resolves to",
	Long: `Resolve a torrent name against the rules without touching qBittorrent.
With --pattern, test a single pattern against the name instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runRulesTest,
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <pattern>",
	Short: "Check that a pattern compiles",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesValidate,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd, rulesAddCmd, rulesRemoveCmd, rulesUpdateCmd,
		rulesMoveCmd, rulesEnableCmd, rulesDisableCmd, rulesTestCmd, rulesValidateCmd)

	rulesAddCmd.Flags().BoolVar(&ruleDisabled, "disabled", false, "add the rule disabled")
	rulesUpdateCmd.Flags().StringVar(&ruleLabel, "label", "", "new label")
	rulesUpdateCmd.Flags().StringVar(&rulePattern, "pattern", "", "new pattern")
	rulesTestCmd.Flags().StringVar(&testPattern, "pattern", "", "test this pattern instead of the rule set")
}

func parseIndex(s string) (int, error) {
	index, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid rule index %q", s)
	}
	return index, nil
}

func runRulesList(cmd *cobra.Command, args []string) error {
	svc, _ := newService(context.Background(), nil)
	list := svc.GetRules()

	if len(list) == 0 {
		fmt.Println("No rules configured.")
		return nil
	}

	ci := svc.GetConfig().CaseInsensitive
	fmt.Printf("Case insensitive: %t\n\n", ci != nil && *ci)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tLABEL\tPATTERN\tENABLED")
	for i, r := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\n", i, r.Label, r.Pattern, r.Enabled)
	}
	return w.Flush()
}

func runRulesAdd(cmd *cobra.Command, args []string) error {
	svc, _ := newService(context.Background(), nil)

	index, err := svc.AddRule(context.Background(), args[0], args[1], !ruleDisabled)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Added rule %d: %s → %s\n", index, args[1], args[0])
	return nil
}

func runRulesRemove(cmd *cobra.Command, args []string) error {
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}

	svc, _ := newService(context.Background(), nil)
	removed, err := svc.RemoveRule(context.Background(), index)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Removed rule %d: %s → %s\n", index, removed.Pattern, removed.Label)
	return nil
}

func runRulesUpdate(cmd *cobra.Command, args []string) error {
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}

	var u rules.RuleUpdate
	if cmd.Flags().Changed("label") {
		u.Label = &ruleLabel
	}
	if cmd.Flags().Changed("pattern") {
		u.Pattern = &rulePattern
	}
	if u.Label == nil && u.Pattern == nil {
		return fmt.Errorf("nothing to update: pass --label and/or --pattern")
	}

	svc, _ := newService(context.Background(), nil)
	updated, err := svc.UpdateRule(context.Background(), index, u)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Updated rule %d: %s → %s\n", index, updated.Pattern, updated.Label)
	return nil
}

func runRulesMove(cmd *cobra.Command, args []string) error {
	from, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	to, err := parseIndex(args[1])
	if err != nil {
		return err
	}

	svc, _ := newService(context.Background(), nil)
	if err := svc.MoveRule(context.Background(), from, to); err != nil {
		return err
	}
	fmt.Printf("✓ Moved rule %d to position %d\n", from, to)
	return nil
}

func setRuleEnabled(arg string, enabled bool) error {
	index, err := parseIndex(arg)
	if err != nil {
		return err
	}

	svc, _ := newService(context.Background(), nil)
	if _, err := svc.UpdateRule(context.Background(), index, rules.RuleUpdate{Enabled: &enabled}); err != nil {
		return err
	}

	state := "Disabled"
	if enabled {
		state = "Enabled"
	}
	fmt.Printf("✓ %s rule %d\n", state, index)
	return nil
}

func runRulesTest(cmd *cobra.Command, args []string) error {
	name := args[0]
	svc, l := newService(context.Background(), nil)

	if testPattern != "" {
		m, err := svc.TestPattern(testPattern, name)
		if err != nil {
			return err
		}
		if !m.Matched {
			fmt.Println("No match")
			return nil
		}
		fmt.Printf("Matched %q at %d-%d\n", m.Text, m.Start, m.End)
		return nil
	}

	res := l.Resolver().ResolveSet(name, l.Settings().Rules)
	if !res.Matched {
		fmt.Println("No rule matched")
		return nil
	}

	label := res.Label
	if cfg.Labels.Lowercase {
		label = strings.ToLower(label)
	}
	fmt.Printf("Rule %d matched → %s\n", res.Index, label)
	return nil
}

func runRulesValidate(cmd *cobra.Command, args []string) error {
	svc, _ := newService(context.Background(), nil)
	if err := svc.ValidateRegex(args[0]); err != nil {
		return err
	}
	fmt.Println("✓ Pattern is valid")
	return nil
}
