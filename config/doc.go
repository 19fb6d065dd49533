// Package config loads and validates application configuration from a YAML
// file and environment variables via viper. Every load validates the result
// before handing it out.
package config
