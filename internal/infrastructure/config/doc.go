// Package config loads server configuration.
//
// Values come from three layers, later ones winning: built-in defaults, an
// optional YAML or TOML file named by WHITEBOARD_CONFIG, and environment
// variables. Durations are written as Go duration strings ("800ms", "1m").
package config
