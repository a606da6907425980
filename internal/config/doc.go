// Package config provides the configuration of a maxtract run: crawl
// limits, pattern and output selection, HTTP settings and the optional
// .maxtract YAML file with per-site overrides.
package config
