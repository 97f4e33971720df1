package kvserver

import (
	"github.com/yndnr/memkv-go/internal/resp"
	"github.com/yndnr/memkv-go/internal/storage/memory"
)

// CommandHandler maps commands onto the shared keyspace.
//
// Handle is a pure dispatch: it takes a parsed command and returns the
// reply value; serialization and I/O belong to the connection loop.
type CommandHandler struct {
	store *memory.Store
}

// NewCommandHandler creates a handler over store.
func NewCommandHandler(store *memory.Store) *CommandHandler {
	return &CommandHandler{store: store}
}

var pong = resp.SimpleString("PONG")

// Handle executes one command and returns its reply.
func (h *CommandHandler) Handle(cmd Command) resp.Value {
	switch cmd.Kind {
	case CmdPing:
		if cmd.HasMessage {
			return cmd.Message
		}
		return pong

	case CmdEcho:
		return cmd.Message

	case CmdGet:
		value, ok := h.store.Get(cmd.Key)
		if !ok {
			return resp.Nil()
		}
		return value

	case CmdSet:
		out := h.store.Insert(cmd.Key, cmd.Value, cmd.Insert, cmd.Expire)
		if !out.Written {
			// Failed NX/XX condition: a normal negative result.
			return resp.Nil()
		}
		if cmd.ReturnOld {
			if !out.HadPrevious {
				return resp.Nil()
			}
			return out.Previous
		}
		return resp.SimpleString("OK")

	case CmdExists:
		var count int64
		for _, key := range cmd.Keys {
			if h.store.Has(key) {
				count++
			}
		}
		return resp.Integer(count)

	default: // CmdInvalid
		return cmd.Reply
	}
}
