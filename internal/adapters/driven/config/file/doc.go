// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage in .beans/config.toml
//
// LoadSettings turns the stored configuration into domain.Settings.
package file
