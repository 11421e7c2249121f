// Package config defines the Callisto configuration model and its YAML
// loading pipeline.
//
// Loading sequence:
//
//  1. Start from DefaultConfig
//  2. Unmarshal the YAML file over the defaults
//  3. Apply CALLISTO_* environment variable overrides
//  4. Validate the final configuration
//
// A fsnotify-based Watcher supports hot reload: it re-runs the loading
// sequence when the file changes (debounced) and hands the fresh
// configuration to a callback.
package config
