// Package cmd implements the command-line interface for autoreply.
//
// This package provides the following commands:
//   - run: Poll Gmail and send automatic replies to matching messages
//   - auth: Authenticate a Google account and cache the OAuth token
//   - version: Display version information
//
// The run command is the default command when no subcommand is specified.
package cmd
