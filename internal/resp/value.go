package resp

import "strconv"

// Kind identifies the variant held by a Value.
type Kind uint8

// Value kinds. The set is closed: extend it only by adding a kind here and
// a case to every switch in this package.
const (
	KindNil Kind = iota
	KindSimpleString
	KindBulkString
	KindArray
	KindInteger
	KindError
)

// Value is one wire-representable value. The zero Value is Nil.
type Value struct {
	kind  Kind
	str   string
	num   int64
	elems []Value
}

// Nil returns the nil value, serialized as the null bulk string.
func Nil() Value {
	return Value{kind: KindNil}
}

// SimpleString returns a simple string value.
func SimpleString(s string) Value {
	return Value{kind: KindSimpleString, str: s}
}

// BulkString returns a bulk string value.
func BulkString(s string) Value {
	return Value{kind: KindBulkString, str: s}
}

// Integer returns an integer value.
func Integer(n int64) Value {
	return Value{kind: KindInteger, num: n}
}

// Error returns an error value carrying a client-visible message.
func Error(msg string) Value {
	return Value{kind: KindError, str: msg}
}

// Array returns an array value with the given elements.
func Array(elems ...Value) Value {
	return Value{kind: KindArray, elems: elems}
}

// Kind returns the variant of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNil reports whether the value is Nil.
func (v Value) IsNil() bool {
	return v.kind == KindNil
}

// Text returns the textual payload of a simple or bulk string.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindSimpleString, KindBulkString:
		return v.str, true
	default:
		return "", false
	}
}

// ErrorText returns the message of an error value.
func (v Value) ErrorText() (string, bool) {
	if v.kind != KindError {
		return "", false
	}
	return v.str, true
}

// Int returns the payload of an integer value.
func (v Value) Int() (int64, bool) {
	if v.kind != KindInteger {
		return 0, false
	}
	return v.num, true
}

// Elems returns the elements of an array value. The returned slice is
// shared with the value and must not be mutated.
func (v Value) Elems() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.elems, true
}

// Equal reports whether two values are structurally identical.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindInteger:
		return v.num == other.num
	case KindArray:
		if len(v.elems) != len(other.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(other.elems[i]) {
				return false
			}
		}
		return true
	default:
		return v.str == other.str
	}
}

// Append serializes the value in its canonical wire form and appends the
// bytes to dst. It is pure and total over the closed kind set.
func (v Value) Append(dst []byte) []byte {
	switch v.kind {
	case KindSimpleString:
		dst = append(dst, '+')
		dst = append(dst, v.str...)
	case KindBulkString:
		dst = append(dst, '$')
		dst = strconv.AppendInt(dst, int64(len(v.str)), 10)
		dst = append(dst, '\r', '\n')
		dst = append(dst, v.str...)
	case KindArray:
		dst = append(dst, '*')
		dst = strconv.AppendInt(dst, int64(len(v.elems)), 10)
		dst = append(dst, '\r', '\n')
		for _, e := range v.elems {
			dst = e.Append(dst)
		}
		return dst
	case KindInteger:
		dst = append(dst, ':')
		dst = strconv.AppendInt(dst, v.num, 10)
	case KindError:
		dst = append(dst, '-')
		dst = append(dst, v.str...)
	default: // KindNil
		dst = append(dst, '$', '-', '1')
	}
	return append(dst, '\r', '\n')
}

// String returns the wire form, for logs and test failure messages.
func (v Value) String() string {
	return string(v.Append(nil))
}
