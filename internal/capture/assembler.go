// Package capture feeds the event store with log lines recovered from two
// independent sources: a tap on the process's own stdout/stderr and a
// poller over a structured system log. Both tolerate bursty, duplicated,
// and partially garbled input.
package capture

import (
	"bytes"
	"strings"
)

const (
	// maxCarry bounds the bytes held while waiting for a line terminator.
	// Pathological writers that never emit a newline get truncated to a
	// small tail instead of growing the buffer without limit.
	maxCarry     = 1 << 20
	carryTailLen = 4 << 10
)

// Assembler reconstructs complete lines from arbitrary byte chunks and
// keeps only lines containing one of the configured tokens. Not safe for
// concurrent use; the tap drains its pipe from a single goroutine.
type Assembler struct {
	tokens []string
	carry  []byte
}

// NewAssembler creates an assembler matching the given substring tokens.
// With no tokens every line matches.
func NewAssembler(tokens ...string) *Assembler {
	return &Assembler{tokens: tokens}
}

// Feed consumes one chunk and returns the matching complete lines it
// produced. A trailing partial line is carried over to the next call.
func (a *Assembler) Feed(chunk []byte) []string {
	a.carry = append(a.carry, chunk...)

	var out []string
	for {
		idx := bytes.IndexByte(a.carry, '\n')
		if idx < 0 {
			break
		}
		line := a.carry[:idx]
		a.carry = a.carry[idx+1:]
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
		if text, ok := a.match(line); ok {
			out = append(out, text)
		}
	}

	if len(a.carry) > maxCarry {
		a.carry = append([]byte(nil), a.carry[len(a.carry)-carryTailLen:]...)
	}
	return out
}

// Flush returns the held partial line as a final match candidate and
// resets the carry. Used on shutdown so a trailing unterminated line is
// not lost.
func (a *Assembler) Flush() (string, bool) {
	if len(a.carry) == 0 {
		return "", false
	}
	line := a.carry
	a.carry = nil
	return a.match(line)
}

// match decodes the line (lossily, so binary garbage cannot fault the
// pipeline) and trims it to start at the first recognized token.
func (a *Assembler) match(line []byte) (string, bool) {
	return matchToken(strings.ToValidUTF8(string(line), "�"), a.tokens)
}

// matchToken classifies text against the token set and trims a match to
// start at its recognized marker. With no tokens any non-empty text
// matches untrimmed.
func matchToken(text string, tokens []string) (string, bool) {
	if len(tokens) == 0 {
		return text, text != ""
	}
	for _, token := range tokens {
		if idx := strings.Index(text, token); idx >= 0 {
			return text[idx:], true
		}
	}
	return "", false
}
