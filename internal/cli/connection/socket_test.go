package connection

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/yndnr/memkv-go/internal/resp"
	"github.com/yndnr/memkv-go/internal/server/kvserver"
	"github.com/yndnr/memkv-go/internal/storage/memory"
)

func startServer(t *testing.T) string {
	t.Helper()
	cfg := kvserver.DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	srv := kvserver.New(cfg, memory.New(), nil, slog.New(slog.DiscardHandler))
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})
	return srv.Addr().String()
}

func TestDo_RoundTrips(t *testing.T) {
	addr := startServer(t)

	sock, err := Dial(addr, DefaultTimeout)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer sock.Close()

	reply, err := sock.Do("PING")
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if !reply.Equal(resp.SimpleString("PONG")) {
		t.Errorf("reply = %q", reply)
	}

	if _, err := sock.Do("SET", "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	reply, err = sock.Do("GET", "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reply.Equal(resp.BulkString("v")) {
		t.Errorf("reply = %q", reply)
	}
}

func TestDo_ErrorRepliesAreValues(t *testing.T) {
	addr := startServer(t)

	sock, err := Dial(addr, DefaultTimeout)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer sock.Close()

	// A server-side error reply is a normal value, not a transport error.
	reply, err := sock.Do("NOPE")
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if msg, ok := reply.ErrorText(); !ok || msg != "unknown command 'NOPE'" {
		t.Errorf("reply = %q", reply)
	}
}

func TestDial_Failure(t *testing.T) {
	// A port nothing listens on.
	if _, err := Dial("127.0.0.1:1", time.Second); err == nil {
		t.Error("dial to a closed port should fail")
	}
}
