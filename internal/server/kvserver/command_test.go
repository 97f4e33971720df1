package kvserver

import (
	"errors"
	"testing"

	"github.com/yndnr/memkv-go/internal/resp"
	"github.com/yndnr/memkv-go/internal/storage/memory"
)

// req builds the decoded form of a client command array.
func req(args ...string) resp.Value {
	elems := make([]resp.Value, len(args))
	for i, a := range args {
		elems[i] = resp.BulkString(a)
	}
	return resp.Array(elems...)
}

// ============================================================
// Parse: well-formed commands
// ============================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input resp.Value
		want  Command
	}{
		{
			name:  "ping bare",
			input: req("PING"),
			want:  Command{Kind: CmdPing},
		},
		{
			name:  "ping with message",
			input: req("PING", "hello"),
			want:  Command{Kind: CmdPing, Message: resp.BulkString("hello"), HasMessage: true},
		},
		{
			name:  "ping lowercase",
			input: req("ping"),
			want:  Command{Kind: CmdPing},
		},
		{
			name:  "echo",
			input: req("ECHO", "msg"),
			want:  Command{Kind: CmdEcho, Message: resp.BulkString("msg"), HasMessage: true},
		},
		{
			name:  "get",
			input: req("GET", "k"),
			want:  Command{Kind: CmdGet, Key: "k"},
		},
		{
			name:  "exists no keys",
			input: req("EXISTS"),
			want:  Command{Kind: CmdExists, Keys: []string{}},
		},
		{
			name:  "exists several keys",
			input: req("EXISTS", "a", "b", "a"),
			want:  Command{Kind: CmdExists, Keys: []string{"a", "b", "a"}},
		},
		{
			name:  "set plain",
			input: req("SET", "k", "v"),
			want:  Command{Kind: CmdSet, Key: "k", Value: resp.BulkString("v")},
		},
		{
			name:  "set nx",
			input: req("SET", "k", "v", "NX"),
			want: Command{Kind: CmdSet, Key: "k", Value: resp.BulkString("v"),
				Insert: memory.InsertIfNotExists},
		},
		{
			name:  "set xx lowercase flag",
			input: req("SET", "k", "v", "xx"),
			want: Command{Kind: CmdSet, Key: "k", Value: resp.BulkString("v"),
				Insert: memory.InsertIfExists},
		},
		{
			name:  "set ex",
			input: req("SET", "k", "v", "EX", "10"),
			want: Command{Kind: CmdSet, Key: "k", Value: resp.BulkString("v"),
				Expire: memory.Expiration{Kind: memory.ExpireRelativeSeconds, Value: 10}},
		},
		{
			name:  "set px",
			input: req("SET", "k", "v", "PX", "1500"),
			want: Command{Kind: CmdSet, Key: "k", Value: resp.BulkString("v"),
				Expire: memory.Expiration{Kind: memory.ExpireRelativeMillis, Value: 1500}},
		},
		{
			name:  "set exat",
			input: req("SET", "k", "v", "EXAT", "1700000000"),
			want: Command{Kind: CmdSet, Key: "k", Value: resp.BulkString("v"),
				Expire: memory.Expiration{Kind: memory.ExpireAbsoluteSeconds, Value: 1700000000}},
		},
		{
			name:  "set pxat",
			input: req("SET", "k", "v", "PXAT", "1700000000000"),
			want: Command{Kind: CmdSet, Key: "k", Value: resp.BulkString("v"),
				Expire: memory.Expiration{Kind: memory.ExpireAbsoluteMillis, Value: 1700000000000}},
		},
		{
			name:  "set keepttl",
			input: req("SET", "k", "v", "KEEPTTL"),
			want: Command{Kind: CmdSet, Key: "k", Value: resp.BulkString("v"),
				Expire: memory.Expiration{Kind: memory.ExpireKeepTTL}},
		},
		{
			name:  "set get flag",
			input: req("SET", "k", "v", "GET"),
			want: Command{Kind: CmdSet, Key: "k", Value: resp.BulkString("v"),
				ReturnOld: true},
		},
		{
			name:  "set get flag repeated",
			input: req("SET", "k", "v", "GET", "GET"),
			want: Command{Kind: CmdSet, Key: "k", Value: resp.BulkString("v"),
				ReturnOld: true},
		},
		{
			name:  "set all slots combined",
			input: req("SET", "k", "v", "NX", "EX", "30", "GET"),
			want: Command{Kind: CmdSet, Key: "k", Value: resp.BulkString("v"),
				Insert:    memory.InsertIfNotExists,
				Expire:    memory.Expiration{Kind: memory.ExpireRelativeSeconds, Value: 30},
				ReturnOld: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertCommandEqual(t, got, tt.want)
		})
	}
}

// ============================================================
// Parse: application-level failures become CmdInvalid
// ============================================================

func TestParse_InvalidCommands(t *testing.T) {
	tests := []struct {
		name      string
		input     resp.Value
		wantReply string
	}{
		{
			name:      "unknown command",
			input:     req("FOO", "bar"),
			wantReply: "unknown command 'FOO'",
		},
		{
			name:      "unknown command preserves case",
			input:     req("flushall"),
			wantReply: "unknown command 'flushall'",
		},
		{
			name:      "ping too many args",
			input:     req("PING", "a", "b"),
			wantReply: "wrong number of arguments for 'PING' command",
		},
		{
			name:      "echo no args",
			input:     req("ECHO"),
			wantReply: "wrong number of arguments for 'ECHO' command",
		},
		{
			name:      "echo too many args",
			input:     req("ECHO", "a", "b"),
			wantReply: "wrong number of arguments for 'ECHO' command",
		},
		{
			name:      "get no args",
			input:     req("GET"),
			wantReply: "wrong number of arguments for 'GET' command",
		},
		{
			name:      "get too many args",
			input:     req("GET", "a", "b"),
			wantReply: "wrong number of arguments for 'GET' command",
		},
		{
			name:      "set missing value",
			input:     req("SET", "k"),
			wantReply: "wrong number of arguments for 'SET' command",
		},
		{
			name:      "set no args",
			input:     req("SET"),
			wantReply: "wrong number of arguments for 'SET' command",
		},
		{
			name:      "set nx twice",
			input:     req("SET", "k", "v", "NX", "NX"),
			wantReply: "syntax error",
		},
		{
			name:      "set nx and xx conflict",
			input:     req("SET", "k", "v", "NX", "XX"),
			wantReply: "syntax error",
		},
		{
			name:      "set xx then nx conflict",
			input:     req("SET", "k", "v", "XX", "NX"),
			wantReply: "syntax error",
		},
		{
			name:      "set ex and px conflict",
			input:     req("SET", "k", "v", "EX", "1", "PX", "1000"),
			wantReply: "syntax error",
		},
		{
			name:      "set ex and keepttl conflict",
			input:     req("SET", "k", "v", "EX", "1", "KEEPTTL"),
			wantReply: "syntax error",
		},
		{
			name:      "set keepttl then exat conflict",
			input:     req("SET", "k", "v", "KEEPTTL", "EXAT", "1700000000"),
			wantReply: "syntax error",
		},
		{
			name:      "set ex missing operand",
			input:     req("SET", "k", "v", "EX"),
			wantReply: "syntax error",
		},
		{
			name:      "set ex non-numeric operand",
			input:     req("SET", "k", "v", "EX", "soon"),
			wantReply: "value is not an integer or out of range",
		},
		{
			name:      "set px overflowing operand",
			input:     req("SET", "k", "v", "PX", "99999999999999999999"),
			wantReply: "value is not an integer or out of range",
		},
		{
			name:      "set ex zero",
			input:     req("SET", "k", "v", "EX", "0"),
			wantReply: "invalid expire time in 'set' command",
		},
		{
			name:      "set px negative",
			input:     req("SET", "k", "v", "PX", "-5"),
			wantReply: "invalid expire time in 'set' command",
		},
		{
			name:      "set unrecognized flag",
			input:     req("SET", "k", "v", "BOGUS"),
			wantReply: "syntax error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Kind != CmdInvalid {
				t.Fatalf("kind = %v, want CmdInvalid", got.Kind)
			}
			msg, ok := got.Reply.ErrorText()
			if !ok {
				t.Fatalf("reply is not an error value: %q", got.Reply)
			}
			if msg != tt.wantReply {
				t.Errorf("reply = %q, want %q", msg, tt.wantReply)
			}
		})
	}
}

// ============================================================
// Parse: structural failures end the connection
// ============================================================

func TestParse_ProtocolErrors(t *testing.T) {
	tests := []struct {
		name  string
		input resp.Value
	}{
		{"not an array", resp.BulkString("PING")},
		{"nil input", resp.Nil()},
		{"empty array", resp.Array()},
		{"integer command name", resp.Array(resp.Integer(1))},
		{"nil get key", resp.Array(resp.BulkString("GET"), resp.Nil())},
		{"array set key", resp.Array(resp.BulkString("SET"), resp.Array(), resp.BulkString("v"))},
		{"integer exists key", resp.Array(resp.BulkString("EXISTS"), resp.Integer(3))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.input); !errors.Is(err, resp.ErrProtocol) {
				t.Errorf("error = %v, want resp.ErrProtocol", err)
			}
		})
	}
}

func assertCommandEqual(t *testing.T, got, want Command) {
	t.Helper()
	if got.Kind != want.Kind {
		t.Errorf("Kind = %v, want %v", got.Kind, want.Kind)
	}
	if got.HasMessage != want.HasMessage || !got.Message.Equal(want.Message) {
		t.Errorf("Message = %q (has=%v), want %q (has=%v)",
			got.Message, got.HasMessage, want.Message, want.HasMessage)
	}
	if got.Key != want.Key {
		t.Errorf("Key = %q, want %q", got.Key, want.Key)
	}
	if !got.Value.Equal(want.Value) {
		t.Errorf("Value = %q, want %q", got.Value, want.Value)
	}
	if len(got.Keys) != len(want.Keys) {
		t.Errorf("Keys = %v, want %v", got.Keys, want.Keys)
	} else {
		for i := range got.Keys {
			if got.Keys[i] != want.Keys[i] {
				t.Errorf("Keys[%d] = %q, want %q", i, got.Keys[i], want.Keys[i])
			}
		}
	}
	if got.Insert != want.Insert {
		t.Errorf("Insert = %v, want %v", got.Insert, want.Insert)
	}
	if got.Expire != want.Expire {
		t.Errorf("Expire = %+v, want %+v", got.Expire, want.Expire)
	}
	if got.ReturnOld != want.ReturnOld {
		t.Errorf("ReturnOld = %v, want %v", got.ReturnOld, want.ReturnOld)
	}
}
