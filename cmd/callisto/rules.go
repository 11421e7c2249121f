package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var rulesFlags struct {
	ruleset string
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the resolved execution order of a ruleset",
	Long: `Resolve a ruleset's dependency graph and print the execution order.

Rules are grouped into levels: every rule in a level has all its
dependencies satisfied by earlier levels, so rules within a level may run
concurrently. Within a level, higher-priority rules run first.

Examples:
  callisto rules --ruleset rules.yaml`,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)

	rulesCmd.Flags().StringVarP(&rulesFlags.ruleset, "ruleset", "r", "", "ruleset file (required)")
	rulesCmd.MarkFlagRequired("ruleset")
}

func runRules(cmd *cobra.Command, args []string) error {
	p, err := buildPipeline()
	if err != nil {
		return err
	}

	ruleset, err := loadRuleset(rulesFlags.ruleset)
	if err != nil {
		return err
	}
	for _, rule := range ruleset {
		if err := p.AddRule(rule); err != nil {
			return fmt.Errorf("registering rule %q: %w", rule.Name(), err)
		}
	}

	levels := p.RuleLevels()
	fmt.Printf("%d rules in %d levels:\n", len(ruleset), len(levels))
	for i, level := range levels {
		fmt.Printf("  level %d: %s\n", i, strings.Join(level, ", "))
	}

	fmt.Println("\nexecution order:")
	position := 1
	for _, level := range levels {
		for _, name := range level {
			rule, _ := p.GetRule(name)
			line := fmt.Sprintf("  %2d. %s", position, name)
			if deps := rule.Dependencies(); len(deps) > 0 {
				line += fmt.Sprintf(" (after %s)", strings.Join(deps, ", "))
			}
			fmt.Println(line)
			position++
		}
	}
	return nil
}
