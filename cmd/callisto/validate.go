package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"chemlab-hq/callisto/pkg/config"
	"chemlab-hq/callisto/pkg/pipeline"
	"chemlab-hq/callisto/pkg/telemetry/logging"
	"chemlab-hq/callisto/pkg/validation"
)

var validateFlags struct {
	ruleset string
	format  string
}

var validateCmd = &cobra.Command{
	Use:   "validate [documents...]",
	Short: "Validate JSON documents against a ruleset",
	Long: `Validate one or more JSON documents against a YAML-declared ruleset.

Each document is validated independently; findings are reported per
document with their severity, code, and path. The exit code is non-zero
when any document is invalid.

Examples:
  # Validate documents against a ruleset
  callisto validate --ruleset rules.yaml compound.json

  # JSON output for CI
  callisto validate --ruleset rules.yaml --format json compounds/*.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFlags.ruleset, "ruleset", "r", "", "ruleset file (required)")
	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
	validateCmd.MarkFlagRequired("ruleset")
}

func runValidate(cmd *cobra.Command, args []string) error {
	p, err := buildPipeline()
	if err != nil {
		return err
	}

	ruleset, err := loadRuleset(validateFlags.ruleset)
	if err != nil {
		return err
	}
	for _, rule := range ruleset {
		if err := p.AddRule(rule); err != nil {
			return fmt.Errorf("registering rule %q: %w", rule.Name(), err)
		}
	}

	invalid := 0
	for _, path := range args {
		doc, err := readDocument(path)
		if err != nil {
			return err
		}

		result, err := p.Validate(cmd.Context(), doc)
		if err != nil {
			return fmt.Errorf("validating %s: %w", path, err)
		}
		if !result.Valid {
			invalid++
		}

		if err := printResult(path, result); err != nil {
			return err
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d documents invalid", invalid, len(args))
	}
	return nil
}

// buildPipeline assembles a pipeline from the optional config file.
func buildPipeline() (*pipeline.Pipeline, error) {
	cfg := config.DefaultConfig()
	if cfgFile != "" {
		loaded, err := config.LoadWithEnvOverrides(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if verbose {
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "text"
	}

	logger, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		return nil, err
	}

	return pipeline.New(cfg.Pipeline, pipeline.WithLogger(logger))
}

func readDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}

func printResult(path string, result *validation.Result) error {
	if validateFlags.format == "json" {
		out := map[string]any{
			"document": path,
			"valid":    result.Valid,
			"errors":   findingsJSON(result.Errors),
			"warnings": findingsJSON(result.Warnings),
		}
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(out)
	}

	status := "OK"
	if !result.Valid {
		status = "INVALID"
	}
	fmt.Printf("%s: %s (%d errors, %d warnings, %v)\n",
		path, status, len(result.Errors), len(result.Warnings), result.Metrics.Duration)

	for _, finding := range result.Errors {
		printFinding(finding)
	}
	for _, finding := range result.Warnings {
		printFinding(finding)
	}
	return nil
}

func printFinding(f *validation.Error) {
	location := ""
	if len(f.Path) > 0 {
		location = " at " + strings.Join(f.Path, ".")
	}
	fmt.Printf("  [%s] %s: %s%s\n", f.Severity, f.Code, f.Message, location)
	for _, suggestion := range f.Suggestions {
		fmt.Printf("    hint: %s\n", suggestion)
	}
}

func findingsJSON(findings []*validation.Error) []map[string]any {
	out := make([]map[string]any, 0, len(findings))
	for _, f := range findings {
		out = append(out, map[string]any{
			"code":     f.Code,
			"message":  f.Message,
			"severity": f.Severity.String(),
			"path":     f.Path,
		})
	}
	return out
}
