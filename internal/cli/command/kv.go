package command

import (
	"strconv"

	"github.com/urfave/cli/v2"
)

// PingCommand checks server liveness.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:      "ping",
		Usage:     "Check server liveness",
		ArgsUsage: "[message]",
		Action: func(c *cli.Context) error {
			args := []string{"PING"}
			if c.Args().Len() > 0 {
				args = append(args, c.Args().First())
			}
			return exchange(c, args...)
		},
	}
}

// EchoCommand echoes a message through the server.
func EchoCommand() *cli.Command {
	return &cli.Command{
		Name:      "echo",
		Usage:     "Echo a message",
		ArgsUsage: "message",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return cli.Exit("echo requires exactly one message argument", 2)
			}
			return exchange(c, "ECHO", c.Args().First())
		},
	}
}

// GetCommand fetches a key.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Get the value of a key",
		ArgsUsage: "key",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return cli.Exit("get requires exactly one key argument", 2)
			}
			return exchange(c, "GET", c.Args().First())
		},
	}
}

// SetCommand stores a key with optional conditional and TTL flags.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Set a key to a value",
		ArgsUsage: "key value",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "nx", Usage: "only set if the key does not exist"},
			&cli.BoolFlag{Name: "xx", Usage: "only set if the key already exists"},
			&cli.Int64Flag{Name: "ex", Usage: "expire after `SECONDS`"},
			&cli.Int64Flag{Name: "px", Usage: "expire after `MILLIS`"},
			&cli.Int64Flag{Name: "exat", Usage: "expire at unix `SECONDS`"},
			&cli.Int64Flag{Name: "pxat", Usage: "expire at unix `MILLIS`"},
			&cli.BoolFlag{Name: "keepttl", Usage: "keep the key's existing TTL"},
			&cli.BoolFlag{Name: "get", Usage: "return the previous value instead of OK"},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 2 {
				return cli.Exit("set requires key and value arguments", 2)
			}
			args := []string{"SET", c.Args().Get(0), c.Args().Get(1)}
			if c.Bool("nx") {
				args = append(args, "NX")
			}
			if c.Bool("xx") {
				args = append(args, "XX")
			}
			for _, opt := range []string{"ex", "px", "exat", "pxat"} {
				if c.IsSet(opt) {
					args = append(args, opt, strconv.FormatInt(c.Int64(opt), 10))
				}
			}
			if c.Bool("keepttl") {
				args = append(args, "KEEPTTL")
			}
			if c.Bool("get") {
				args = append(args, "GET")
			}
			// Conflicting flags are forwarded as-is; the server owns
			// the grammar and reports the syntax error.
			return exchange(c, args...)
		},
	}
}

// ExistsCommand counts how many of the given keys exist.
func ExistsCommand() *cli.Command {
	return &cli.Command{
		Name:      "exists",
		Usage:     "Count how many of the given keys hold a live value",
		ArgsUsage: "key [key ...]",
		Action: func(c *cli.Context) error {
			args := append([]string{"EXISTS"}, c.Args().Slice()...)
			return exchange(c, args...)
		},
	}
}
