package store

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrLength is returned when a store file's header disagrees with its body.
var ErrLength = errors.New("store file length mismatch")

// File layout: "<byte-length>\n" followed by exactly that many bytes of
// store text.

// WriteFile encodes the subtree rooted at n to path.
func (n *Node) WriteFile(path string) error {
	body := n.WriteString()
	data := strconv.Itoa(len(body)) + "\n" + body
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("write store %s: %w", path, err)
	}
	return nil
}

// OpenFromFile reads and parses a file written by WriteFile.
func OpenFromFile(path string) (*Node, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read store %s: %w", path, err)
	}
	body, err := unframe(string(raw))
	if err != nil {
		return nil, fmt.Errorf("read store %s: %w", path, err)
	}
	n, err := OpenFromString(body)
	if err != nil {
		return nil, fmt.Errorf("parse store %s: %w", path, err)
	}
	return n, nil
}

func unframe(data string) (string, error) {
	header, body, ok := strings.Cut(data, "\n")
	if !ok {
		return "", fmt.Errorf("%w: missing header", ErrLength)
	}
	length, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || length < 0 {
		return "", fmt.Errorf("%w: bad header %q", ErrLength, header)
	}
	if len(body) != length {
		return "", fmt.Errorf("%w: header says %d bytes, have %d", ErrLength, length, len(body))
	}
	return body, nil
}
