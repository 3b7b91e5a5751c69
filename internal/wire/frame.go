// Package wire implements the length-prefixed framing described in spec.md
// §6: UInt16BE length + UTF-8 bytes for strings, Int64BE for the declared
// file size. It has no knowledge of upload semantics, only of bytes on a
// net.Conn.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

const maxStringLen = 1<<16 - 1

// ReadString reads a UInt16BE length prefix followed by that many UTF-8
// bytes. ASCII input is bit-identical to the DataInput "modified UTF-8"
// format the original protocol used.
func ReadString(r io.Reader) (string, error) {
	var length uint16
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return "", fmt.Errorf("read string length: %w", err)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read string body: %w", err)
	}
	return string(buf), nil
}

// WriteString writes a UInt16BE length prefix followed by s's UTF-8 bytes.
func WriteString(w io.Writer, s string) error {
	if len(s) > maxStringLen {
		return fmt.Errorf("string too long: %d bytes", len(s))
	}
	if err := binary.Write(w, binary.BigEndian, uint16(len(s))); err != nil {
		return fmt.Errorf("write string length: %w", err)
	}
	if _, err := io.WriteString(w, s); err != nil {
		return fmt.Errorf("write string body: %w", err)
	}
	return nil
}

// ReadInt64 reads a signed 64-bit big-endian integer.
func ReadInt64(r io.Reader) (int64, error) {
	var v int64
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return 0, fmt.Errorf("read int64: %w", err)
	}
	return v, nil
}

// WriteInt64 writes a signed 64-bit big-endian integer.
func WriteInt64(w io.Writer, v int64) error {
	if err := binary.Write(w, binary.BigEndian, v); err != nil {
		return fmt.Errorf("write int64: %w", err)
	}
	return nil
}
