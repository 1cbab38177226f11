// Package config loads runtime configuration of the options service from
// multiple sources (YAML files, environment variables, CLI flags) with
// precedence: CLI flags > YAML config > Environment variables > Defaults.
// Initial option overrides travel alongside the server settings and are
// resolved against the option schema by the application package.
package config
