// Package config loads and validates Ratewise Core configuration.
//
// Configuration is layered: hardcoded defaults, then the YAML file, then
// RATEWISE_* environment variable overrides. Validation runs once at load
// time; a configuration the validator rejects never reaches the rest of
// the process. In particular the JWT signing secret is mandatory and must
// meet a minimum length — a weak or absent secret aborts startup rather
// than degrading token security silently.
package config
