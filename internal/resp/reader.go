package resp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Protocol limits to bound resource use on adversarial input.
const (
	// MaxArrayLen limits the number of elements in an array.
	// Commands have <20 args; EXISTS with many keys is the widest caller.
	MaxArrayLen = 1024

	// MaxBulkLen limits the size of a single bulk string (512KB).
	MaxBulkLen = 512 * 1024

	// MaxLineLen limits the length of one protocol line (headers and
	// simple strings; bulk payloads are length-delimited instead).
	MaxLineLen = 4 * 1024

	// MaxDepth limits array nesting. The reference protocol places no
	// bound on recursion, which is an invitation for stack exhaustion.
	MaxDepth = 32
)

var (
	ErrProtocol      = errors.New("resp: protocol error")
	ErrLimitExceeded = errors.New("resp: limit exceeded")
)

// Reader decodes values from a byte stream, one per ReadValue call.
type Reader struct {
	br *bufio.Reader
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// Peek returns the next n bytes without consuming them.
func (r *Reader) Peek(n int) ([]byte, error) {
	return r.br.Peek(n)
}

// ReadValue decodes the next value from the stream.
//
// A clean close at a value boundary surfaces as io.EOF; a close in the
// middle of a value surfaces as io.ErrUnexpectedEOF. Malformed input is
// reported as an error wrapping ErrProtocol or ErrLimitExceeded.
func (r *Reader) ReadValue() (Value, error) {
	return r.readValue(0)
}

func (r *Reader) readValue(depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, fmt.Errorf("%w: array nesting exceeds depth %d", ErrLimitExceeded, MaxDepth)
	}

	line, err := r.readLine(MaxLineLen)
	if err != nil {
		return Value{}, err
	}
	if len(line) == 0 {
		return Value{}, fmt.Errorf("%w: empty line", ErrProtocol)
	}

	switch line[0] {
	case '*':
		return r.readArray(line[1:], depth)
	case '$':
		return r.readBulkString(line[1:])
	case '+':
		return SimpleString(line[1:]), nil
	case '-':
		return Error(line[1:]), nil
	case ':':
		n, err := strconv.ParseInt(line[1:], 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: invalid integer", ErrProtocol)
		}
		return Integer(n), nil
	default:
		return Value{}, fmt.Errorf("%w: unexpected type byte %q", ErrProtocol, line[0])
	}
}

func (r *Reader) readArray(header string, depth int) (Value, error) {
	n, err := parseLen(header)
	if err != nil {
		return Value{}, fmt.Errorf("%w: invalid array length", ErrProtocol)
	}
	if n == -1 {
		return Nil(), nil
	}
	if n < 0 {
		return Value{}, fmt.Errorf("%w: array cannot have negative length", ErrProtocol)
	}
	if n > MaxArrayLen {
		return Value{}, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, n, MaxArrayLen)
	}

	elems := make([]Value, 0, n)
	for i := int64(0); i < n; i++ {
		elem, err := r.readValue(depth + 1)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Value{}, io.ErrUnexpectedEOF
			}
			return Value{}, err
		}
		elems = append(elems, elem)
	}
	return Array(elems...), nil
}

func (r *Reader) readBulkString(header string) (Value, error) {
	n, err := parseLen(header)
	if err != nil {
		return Value{}, fmt.Errorf("%w: invalid bulk length", ErrProtocol)
	}
	if n == -1 {
		return Nil(), nil
	}
	if n < 0 {
		return Value{}, fmt.Errorf("%w: bulk string cannot have negative length", ErrProtocol)
	}
	if n > MaxBulkLen {
		return Value{}, fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrLimitExceeded, n, MaxBulkLen)
	}

	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r.br, buf); err != nil {
		if errors.Is(err, io.EOF) {
			return Value{}, io.ErrUnexpectedEOF
		}
		return Value{}, err
	}
	if !bytes.HasSuffix(buf, []byte("\r\n")) {
		return Value{}, fmt.Errorf("%w: bulk string length mismatch", ErrProtocol)
	}
	return BulkString(string(buf[:n])), nil
}

func parseLen(s string) (int64, error) {
	if s == "" {
		return 0, errors.New("empty length")
	}
	return strconv.ParseInt(s, 10, 64)
}

// readLine reads one CRLF-terminated line and returns it without the
// terminator. A clean EOF before any byte is returned as io.EOF.
func (r *Reader) readLine(maxLen int) (string, error) {
	var buf []byte
	for {
		frag, err := r.br.ReadSlice('\n')
		if err == nil {
			buf = append(buf, frag...)
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			buf = append(buf, frag...)
			if len(buf) > maxLen {
				return "", fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLen)
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			if len(buf) == 0 && len(frag) == 0 {
				return "", io.EOF
			}
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}

	if len(buf) > maxLen {
		return "", fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLen)
	}
	if len(buf) < 2 || !bytes.HasSuffix(buf, []byte("\r\n")) {
		return "", fmt.Errorf("%w: missing CRLF", ErrProtocol)
	}

	return string(buf[:len(buf)-2]), nil
}
