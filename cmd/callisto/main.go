// Callisto is a rule-based validation pipeline for structured documents.
//
// It resolves rule dependencies into a deterministic execution order,
// caches results of pure checks, bounds execution with timeouts and a
// concurrency budget, and reports findings with severities rather than
// failing on the first problem.
//
// Usage:
//
//	# Validate JSON documents against a YAML ruleset
//	callisto validate --ruleset rules.yaml doc1.json doc2.json
//
//	# Print the resolved execution order of a ruleset
//	callisto rules --ruleset rules.yaml
//
//	# Show version information
//	callisto version
package main

func main() {
	Execute()
}
