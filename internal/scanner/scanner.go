// Package scanner splits a raw SQL byte stream into statement spans.
//
// The scanner is byte-oriented: every character it recognizes (quotes,
// semicolons, comment markers, dollar-quote delimiters) is ASCII, so
// multi-byte UTF-8 content passes through untouched.
package scanner

import (
	"errors"
	"fmt"
)

// Statement is a half-open byte span [Start, End) into the scanned input,
// covering one complete SQL statement including its trailing terminator and
// any whitespace or comments that precede it. Spans are emitted in strictly
// increasing, contiguous order.
type Statement struct {
	Start int
	End   int
}

// Size returns the span length in bytes.
func (s Statement) Size() int { return s.End - s.Start }

// IsZero reports whether the span is empty.
func (s Statement) IsZero() bool { return s.End <= s.Start }

// lexState identifies the scanner's lexical mode at the current position.
// Exactly one mode is active at any offset; transitions are deterministic
// functions of the current byte and mode.
type lexState int

const (
	stateNormal lexState = iota
	stateSingleQuoted
	stateDoubleQuoted
	stateLineComment
	stateBlockComment
	stateDollarQuoted
)

func (s lexState) String() string {
	switch s {
	case stateNormal:
		return "statement"
	case stateSingleQuoted:
		return "single-quoted string"
	case stateDoubleQuoted:
		return "quoted identifier"
	case stateLineComment:
		return "line comment"
	case stateBlockComment:
		return "block comment"
	case stateDollarQuoted:
		return "dollar-quoted string"
	default:
		return "unknown"
	}
}

// ErrUnterminatedLiteral indicates the input ended inside a quoted literal,
// quoted identifier, block comment, or dollar-quoted string.
var ErrUnterminatedLiteral = errors.New("unterminated literal")

// UnterminatedError reports where a never-closed lexical construct opened.
type UnterminatedError struct {
	Construct string
	Offset    int
}

func (e *UnterminatedError) Error() string {
	return fmt.Sprintf("unterminated %s opened at byte %d", e.Construct, e.Offset)
}

// Unwrap makes the error match ErrUnterminatedLiteral via errors.Is.
func (e *UnterminatedError) Unwrap() error { return ErrUnterminatedLiteral }

// Scanner walks the input once, emitting statement spans. It is not
// restartable; the cursor only moves forward.
type Scanner struct {
	input []byte

	pos       int
	spanStart int
	state     lexState
	openedAt  int    // offset where the active non-normal construct opened
	tag       []byte // active dollar-quote tag, delimiters excluded

	// sawContent tracks whether the current span holds anything besides
	// whitespace and comments. Decides whether an unterminated tail is a
	// final statement or discardable trailing material.
	sawContent bool

	cur  Statement
	err  error
	done bool
}

// New returns a Scanner over input.
func New(input []byte) *Scanner {
	return &Scanner{input: input}
}

// Scan advances to the next statement. It returns false when the input is
// exhausted or a lexical error occurred; Err disambiguates.
func (s *Scanner) Scan() bool {
	if s.done || s.err != nil {
		return false
	}

	for s.pos < len(s.input) {
		if s.step() {
			return true
		}
	}

	return s.finish()
}

// step consumes input at the current position and reports whether a
// statement was completed.
func (s *Scanner) step() bool {
	c := s.input[s.pos]

	switch s.state {
	case stateNormal:
		return s.stepNormal(c)
	case stateSingleQuoted:
		s.stepQuoted(c, '\'')
	case stateDoubleQuoted:
		s.stepQuoted(c, '"')
	case stateLineComment:
		if c == '\n' {
			s.state = stateNormal
		}

		s.pos++
	case stateBlockComment:
		if c == '*' && s.peek(1) == '/' {
			s.state = stateNormal
			s.pos += 2
		} else {
			s.pos++
		}
	case stateDollarQuoted:
		if c == '$' && s.closesDollarQuote() {
			s.state = stateNormal
			s.pos += len(s.tag) + 2
		} else {
			s.pos++
		}
	}

	return false
}

func (s *Scanner) stepNormal(c byte) bool {
	switch {
	case c == ';':
		s.pos++
		s.cur = Statement{Start: s.spanStart, End: s.pos}
		s.spanStart = s.pos
		s.sawContent = false

		return true
	case c == '\'':
		s.enter(stateSingleQuoted, 1)
	case c == '"':
		s.enter(stateDoubleQuoted, 1)
	case c == '-' && s.peek(1) == '-':
		s.openedAt = s.pos
		s.state = stateLineComment
		s.pos += 2
	case c == '/' && s.peek(1) == '*':
		s.openedAt = s.pos
		s.state = stateBlockComment
		s.pos += 2
	case c == '$':
		if tag, ok := s.dollarTag(); ok {
			s.tag = tag
			s.enter(stateDollarQuoted, len(tag)+2)
		} else {
			s.sawContent = true
			s.pos++
		}
	default:
		if !isSpace(c) {
			s.sawContent = true
		}

		s.pos++
	}

	return false
}

// enter switches into a quoted mode, recording the opening offset for error
// reporting. Quoted content counts as statement content.
func (s *Scanner) enter(state lexState, width int) {
	s.openedAt = s.pos
	s.state = state
	s.sawContent = true
	s.pos += width
}

// stepQuoted handles both quote modes. A doubled quote character is an
// escape and stays inside the literal.
func (s *Scanner) stepQuoted(c, quote byte) {
	if c != quote {
		s.pos++
		return
	}

	if s.peek(1) == quote {
		s.pos += 2
		return
	}

	s.state = stateNormal
	s.pos++
}

// dollarTag inspects input at the current '$' for a full opening delimiter
// "$tag$" where tag is a possibly-empty run of identifier bytes. It returns
// the tag and whether a delimiter is present; a lone '$' (e.g. a positional
// parameter like $1 not followed by a closing '$') is ordinary content.
func (s *Scanner) dollarTag() ([]byte, bool) {
	i := s.pos + 1
	for i < len(s.input) && isTagByte(s.input[i]) {
		i++
	}

	if i < len(s.input) && s.input[i] == '$' {
		return s.input[s.pos+1 : i], true
	}

	return nil, false
}

// closesDollarQuote reports whether input at the current '$' spells the
// closing "$tag$" of the active dollar quote.
func (s *Scanner) closesDollarQuote() bool {
	end := s.pos + len(s.tag) + 2
	if end > len(s.input) {
		return false
	}

	if s.input[end-1] != '$' {
		return false
	}

	return string(s.input[s.pos+1:end-1]) == string(s.tag)
}

// finish handles end of input: an unterminated quoted construct is fatal, a
// non-blank tail becomes the final statement, a blank tail is left as the
// remainder.
func (s *Scanner) finish() bool {
	s.done = true

	switch s.state {
	case stateSingleQuoted, stateDoubleQuoted, stateBlockComment, stateDollarQuoted:
		s.err = &UnterminatedError{Construct: s.state.String(), Offset: s.openedAt}
		return false
	}

	if s.sawContent && s.spanStart < len(s.input) {
		s.cur = Statement{Start: s.spanStart, End: len(s.input)}
		s.spanStart = len(s.input)

		return true
	}

	return false
}

// Statement returns the span produced by the last successful Scan.
func (s *Scanner) Statement() Statement { return s.cur }

// Err returns the terminal scan error, or nil on clean end of input.
func (s *Scanner) Err() error { return s.err }

// Remainder returns the trailing span of pure whitespace and comments left
// after the final statement. It is meaningful only once Scan has returned
// false with a nil Err, and may be zero.
func (s *Scanner) Remainder() Statement {
	if !s.done || s.err != nil {
		return Statement{}
	}

	return Statement{Start: s.spanStart, End: len(s.input)}
}

func (s *Scanner) peek(ahead int) byte {
	if s.pos+ahead >= len(s.input) {
		return 0
	}

	return s.input[s.pos+ahead]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

// isTagByte reports whether c may appear in a dollar-quote tag.
func isTagByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
