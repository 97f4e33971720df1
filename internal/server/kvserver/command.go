package kvserver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yndnr/memkv-go/internal/resp"
	"github.com/yndnr/memkv-go/internal/storage/memory"
)

// CommandKind identifies a parsed request.
type CommandKind uint8

const (
	CmdPing CommandKind = iota
	CmdEcho
	CmdGet
	CmdSet
	CmdExists
	// CmdInvalid carries a parse-time failure. It dispatches like any
	// other command and produces the error reply held in Reply.
	CmdInvalid
)

// String returns the kind's name, used as a metric label.
func (k CommandKind) String() string {
	switch k {
	case CmdPing:
		return "ping"
	case CmdEcho:
		return "echo"
	case CmdGet:
		return "get"
	case CmdSet:
		return "set"
	case CmdExists:
		return "exists"
	default:
		return "invalid"
	}
}

// Command is one typed request, constructed from a decoded array and
// consumed immediately by dispatch.
type Command struct {
	Kind CommandKind

	// Message is the PING payload or the ECHO argument.
	Message    resp.Value
	HasMessage bool

	// Key and Value carry GET/SET operands; Keys carries EXISTS operands.
	Key   string
	Value resp.Value
	Keys  []string

	// SET option state. Each of Insert and Expire transitions at most
	// once from its zero value; ReturnOld may be set any number of times.
	Insert    memory.InsertionMode
	Expire    memory.Expiration
	ReturnOld bool

	// Reply is the error reply for CmdInvalid.
	Reply resp.Value
}

// Parse turns a decoded value into a Command.
//
// The only hard failures are structural: the input must be a non-empty
// array whose first element (and every token position) is text. Those are
// transport-tier errors wrapping resp.ErrProtocol and end the connection.
// Every application-level problem parses into a CmdInvalid command.
func Parse(v resp.Value) (Command, error) {
	args, ok := v.Elems()
	if !ok || len(args) == 0 {
		return Command{}, fmt.Errorf("%w: expected command array", resp.ErrProtocol)
	}

	name, ok := args[0].Text()
	if !ok {
		return Command{}, fmt.Errorf("%w: command name must be a string", resp.ErrProtocol)
	}
	rest := args[1:]

	switch strings.ToUpper(name) {
	case "PING":
		switch len(rest) {
		case 0:
			return Command{Kind: CmdPing}, nil
		case 1:
			return Command{Kind: CmdPing, Message: rest[0], HasMessage: true}, nil
		default:
			return arityError(name), nil
		}

	case "ECHO":
		if len(rest) != 1 {
			return arityError(name), nil
		}
		return Command{Kind: CmdEcho, Message: rest[0], HasMessage: true}, nil

	case "GET":
		if len(rest) != 1 {
			return arityError(name), nil
		}
		key, ok := rest[0].Text()
		if !ok {
			return Command{}, fmt.Errorf("%w: key must be a string", resp.ErrProtocol)
		}
		return Command{Kind: CmdGet, Key: key}, nil

	case "EXISTS":
		keys := make([]string, 0, len(rest))
		for _, arg := range rest {
			key, ok := arg.Text()
			if !ok {
				return Command{}, fmt.Errorf("%w: key must be a string", resp.ErrProtocol)
			}
			keys = append(keys, key)
		}
		return Command{Kind: CmdExists, Keys: keys}, nil

	case "SET":
		return parseSet(name, rest)

	default:
		return Command{
			Kind:  CmdInvalid,
			Reply: resp.Error("unknown command '" + name + "'"),
		}, nil
	}
}

// parseSet scans SET's flag grammar left to right. Insertion and
// expiration are independent one-shot slots; a repeated or conflicting
// token for an already-decided slot is a syntax error.
func parseSet(name string, args []resp.Value) (Command, error) {
	if len(args) < 2 {
		return arityError(name), nil
	}

	key, ok := args[0].Text()
	if !ok {
		return Command{}, fmt.Errorf("%w: key must be a string", resp.ErrProtocol)
	}

	cmd := Command{Kind: CmdSet, Key: key, Value: args[1]}

	for i := 2; i < len(args); i++ {
		tok, ok := args[i].Text()
		if !ok {
			return syntaxError(), nil
		}

		switch flag := strings.ToUpper(tok); flag {
		case "NX":
			if cmd.Insert != memory.InsertNormal {
				return syntaxError(), nil
			}
			cmd.Insert = memory.InsertIfNotExists

		case "XX":
			if cmd.Insert != memory.InsertNormal {
				return syntaxError(), nil
			}
			cmd.Insert = memory.InsertIfExists

		case "EX", "PX", "EXAT", "PXAT":
			if cmd.Expire.Kind != memory.ExpireNone {
				return syntaxError(), nil
			}
			i++
			if i >= len(args) {
				return syntaxError(), nil
			}
			numTok, ok := args[i].Text()
			if !ok {
				return syntaxError(), nil
			}
			n, err := strconv.ParseInt(numTok, 10, 64)
			if err != nil {
				return invalid("value is not an integer or out of range"), nil
			}
			if n <= 0 {
				return invalid("invalid expire time in 'set' command"), nil
			}
			cmd.Expire = memory.Expiration{Kind: expireKind(flag), Value: n}

		case "KEEPTTL":
			if cmd.Expire.Kind != memory.ExpireNone {
				return syntaxError(), nil
			}
			cmd.Expire = memory.Expiration{Kind: memory.ExpireKeepTTL}

		case "GET":
			cmd.ReturnOld = true

		default:
			return syntaxError(), nil
		}
	}

	return cmd, nil
}

func expireKind(flag string) memory.ExpireKind {
	switch flag {
	case "EX":
		return memory.ExpireRelativeSeconds
	case "PX":
		return memory.ExpireRelativeMillis
	case "EXAT":
		return memory.ExpireAbsoluteSeconds
	default: // PXAT
		return memory.ExpireAbsoluteMillis
	}
}

func arityError(name string) Command {
	return invalid("wrong number of arguments for '" + name + "' command")
}

func syntaxError() Command {
	return invalid("syntax error")
}

func invalid(msg string) Command {
	return Command{Kind: CmdInvalid, Reply: resp.Error(msg)}
}
