package connection

import (
	"fmt"
	"net"
	"time"

	"github.com/yndnr/memkv-go/internal/resp"
)

// DefaultTimeout bounds a single request-reply exchange.
const DefaultTimeout = 5 * time.Second

// Socket is one client connection. It is not safe for concurrent use.
type Socket struct {
	conn    net.Conn
	reader  *resp.Reader
	out     []byte
	timeout time.Duration
}

// Dial connects to a memkv server.
func Dial(addr string, timeout time.Duration) (*Socket, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Socket{
		conn:    conn,
		reader:  resp.NewReader(conn),
		timeout: timeout,
	}, nil
}

// Do sends one command as an array of bulk strings and reads the reply.
func (s *Socket) Do(args ...string) (resp.Value, error) {
	elems := make([]resp.Value, len(args))
	for i, arg := range args {
		elems[i] = resp.BulkString(arg)
	}
	s.out = resp.Array(elems...).Append(s.out[:0])

	if err := s.conn.SetDeadline(time.Now().Add(s.timeout)); err != nil {
		return resp.Value{}, err
	}
	if _, err := s.conn.Write(s.out); err != nil {
		return resp.Value{}, fmt.Errorf("write command: %w", err)
	}

	reply, err := s.reader.ReadValue()
	if err != nil {
		return resp.Value{}, fmt.Errorf("read reply: %w", err)
	}
	return reply, nil
}

// Close closes the connection.
func (s *Socket) Close() error {
	return s.conn.Close()
}
