// Package config handles configuration loading and validation.
//
// Configuration is read from an optional YAML file, then overridden
// by COMBINE_* environment variables (which may come from a .env
// file), and finally by command line flags. Validation uses struct
// tags and runs once all sources have been applied.
package config
