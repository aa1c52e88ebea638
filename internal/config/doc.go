// Package config loads and validates murmur's TOML configuration.
//
// Configuration resolution order: explicit --config path, then
// ~/.config/murmur/config.toml, then ./murmur.toml. Credentials and model
// overrides may come from the environment and win over file values.
package config
