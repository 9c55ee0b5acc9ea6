// Package config loads, validates, and normalizes the TOML configuration that
// drives the pipeline: artifact directory layout, external tool names, model
// settings, and service endpoints.
package config
