package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrCorrupt is returned when store text does not follow the grammar.
var ErrCorrupt = errors.New("corrupt store text")

// The text grammar:
//
//	node   = "{" string string node* "}"
//	string = "-1" | length `"` bytes `"`
//
// length counts the raw bytes between the quotes, which are copied verbatim.
// An absent name or payload is written as -1. Whitespace between tokens is
// ignored.

// WriteString encodes the subtree rooted at n.
func (n *Node) WriteString() string {
	var b strings.Builder
	n.write(&b, 0)
	return b.String()
}

func (n *Node) write(b *strings.Builder, depth int) {
	indent := strings.Repeat("\t", depth)
	b.WriteString(indent)
	b.WriteString("{ ")
	writeString(b, n.name, n.name != "")
	b.WriteByte(' ')
	writeString(b, n.payload, n.hasPayload)
	if len(n.children) == 0 {
		b.WriteString(" }\n")
		return
	}
	b.WriteByte('\n')
	for _, c := range n.children {
		c.write(b, depth+1)
	}
	b.WriteString(indent)
	b.WriteString("}\n")
}

func writeString(b *strings.Builder, s string, present bool) {
	if !present {
		b.WriteString("-1")
		return
	}
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteByte('"')
	b.WriteString(s)
	b.WriteByte('"')
}

// OpenFromString parses text produced by WriteString.
func OpenFromString(text string) (*Node, error) {
	p := &parser{src: text}
	n, err := p.node()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("trailing data")
	}
	return n, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: offset %d: %s", ErrCorrupt, p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return p.errorf("expected %q, got end of input", c)
	}
	if p.src[p.pos] != c {
		return p.errorf("expected %q, got %q", c, p.src[p.pos])
	}
	p.pos++
	return nil
}

func (p *parser) node() (*Node, error) {
	if err := p.expect('{'); err != nil {
		return nil, err
	}
	n := &Node{}
	name, ok, err := p.str()
	if err != nil {
		return nil, err
	}
	if ok {
		n.name = name
	}
	n.payload, n.hasPayload, err = p.str()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated node")
		}
		switch p.src[p.pos] {
		case '}':
			p.pos++
			return n, nil
		case '{':
			c, err := p.node()
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, c)
		default:
			return nil, p.errorf("unexpected %q", p.src[p.pos])
		}
	}
}

func (p *parser) str() (string, bool, error) {
	p.skipSpace()
	start := p.pos
	if p.pos < len(p.src) && p.src[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	length, err := strconv.Atoi(p.src[start:p.pos])
	if err != nil {
		p.pos = start
		return "", false, p.errorf("expected string length")
	}
	if length == -1 {
		return "", false, nil
	}
	if length < 0 {
		p.pos = start
		return "", false, p.errorf("bad string length %d", length)
	}
	if p.pos >= len(p.src) || p.src[p.pos] != '"' {
		return "", false, p.errorf("expected opening quote")
	}
	p.pos++
	if length > len(p.src)-p.pos-1 {
		return "", false, p.errorf("string of length %d overruns input", length)
	}
	end := p.pos + length
	if p.src[end] != '"' {
		return "", false, p.errorf("string of length %d overruns input", length)
	}
	s := p.src[p.pos:end]
	p.pos = end + 1
	return s, true, nil
}
