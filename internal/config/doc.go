// Package config loads the bot configuration from environment variables,
// optionally seeded from a .env file. Command-line flags override the
// environment; see the run command.
package config
