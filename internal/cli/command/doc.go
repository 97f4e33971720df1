// Package command provides CLI command definitions for memkv-cli.
//
// It uses urfave/cli/v2 for command parsing. Each subcommand opens one
// connection, performs its exchange and prints the reply.
package command
