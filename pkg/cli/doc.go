// Package cli provides the configuration and terminal helpers of the
// callmanager command.
//
// This package includes:
//   - Configuration management (named contexts, like kubectl)
//   - Directory layout under ~/.callmanager
//   - Output formatting (JSON, YAML)
//   - Styles for session states and diagnostics
//
// Example usage:
//
//	cfg, err := cli.LoadConfig()
//	ctx, err := cfg.ResolveContext(name)
//	key := ctx.Credential()
package cli
