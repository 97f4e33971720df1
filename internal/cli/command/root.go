package command

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/memkv-go/internal/cli/connection"
	"github.com/yndnr/memkv-go/internal/infra/buildinfo"
	"github.com/yndnr/memkv-go/internal/resp"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "memkv-cli",
		Usage:   "memkv command-line client",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			PingCommand(),
			EchoCommand(),
			GetCommand(),
			SetCommand(),
			ExistsCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "memkv server address",
			EnvVars: []string{"MEMKV_SERVER"},
			Value:   "localhost:6379",
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "request timeout",
			Value:   connection.DefaultTimeout,
		},
	}
}

// dial opens a connection using the global flags.
func dial(c *cli.Context) (*connection.Socket, error) {
	return connection.Dial(c.String("server"), c.Duration("timeout"))
}

// exchange performs one request-reply round trip and prints the result.
func exchange(c *cli.Context, args ...string) error {
	sock, err := dial(c)
	if err != nil {
		return err
	}
	defer sock.Close()

	reply, err := sock.Do(args...)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, formatValue(reply))
	if msg, ok := reply.ErrorText(); ok {
		return cli.Exit("", exitCodeForError(msg))
	}
	return nil
}

func exitCodeForError(string) int {
	return 1
}

// formatValue renders a reply the way redis-cli would.
func formatValue(v resp.Value) string {
	switch v.Kind() {
	case resp.KindNil:
		return "(nil)"
	case resp.KindInteger:
		n, _ := v.Int()
		return "(integer) " + strconv.FormatInt(n, 10)
	case resp.KindError:
		msg, _ := v.ErrorText()
		return "(error) " + msg
	case resp.KindArray:
		elems, _ := v.Elems()
		out := ""
		for i, e := range elems {
			if i > 0 {
				out += "\n"
			}
			out += strconv.Itoa(i+1) + ") " + formatValue(e)
		}
		return out
	default:
		s, _ := v.Text()
		return s
	}
}
