// Package config provides typed access to deployment configuration:
// platform window overrides, retry policy, store paths.
//
// Config wraps a plain map so any source (YAML, JSON, a .env file,
// hardcoded test fixtures) feeds the same accessors. Accessors never
// fail; they fall back to the caller's default when a key is missing
// or mistyped, keeping policy data out of engine logic.
package config
