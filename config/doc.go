// Package config loads the relay's settings from defaults, an optional YAML
// file and environment variables. It covers the listen address, server
// timeouts, logging and the metrics pipeline. The upstream URL is fixed in
// code and intentionally not part of the configuration.
package config
