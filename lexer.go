// Copyright 2011 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ninja

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
)

// TokenKind enumerates the lexical token types.
type TokenKind int32

const (
	NONE TokenKind = iota
	UNKNOWN
	IDENT
	NEWLINE
	EQUALS
	COLON
	PIPE
	PIPE2
	INDENT
	OUTDENT
	TEOF
)

// String returns the name used when reporting an unexpected token.
func (t TokenKind) String() string {
	switch t {
	case NONE:
		return "none"
	case UNKNOWN:
		return "unknown"
	case IDENT:
		return "identifier"
	case NEWLINE:
		return "newline"
	case EQUALS:
		return "'='"
	case COLON:
		return "':'"
	case PIPE:
		return "'|'"
	case PIPE2:
		return "'||'"
	case INDENT:
		return "indent"
	case OUTDENT:
		return "outdent"
	case TEOF:
		return "eof"
	}
	panic("M-A")
}

// Token is a single lexeme. Start and End index into the buffer given to
// Start, so a Token stays meaningful only as long as that buffer does.
type Token struct {
	Kind  TokenKind
	Start int
	End   int
}

// SourceLocation is a 1-based line and column within an input buffer.
type SourceLocation struct {
	Line   int
	Column int
}

func (s SourceLocation) String() string {
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// ParseError is a syntax error with its position and, when the column is
// narrow enough to be readable, the offending line with a caret under the
// error column.
type ParseError struct {
	Loc     SourceLocation
	Msg     string
	Context string
}

func (p *ParseError) Error() string {
	if p.Context == "" {
		return fmt.Sprintf("%s: %s", p.Loc, p.Msg)
	}
	return fmt.Sprintf("%s: %s\n%s", p.Loc, p.Msg, p.Context)
}

// flavor selects which dialect the lexer tokenizes.
type flavor int32

const (
	// manifestFlavor is the build manifest language: '$' before a newline
	// continues the line, '#' starts comments and indentation is
	// significant.
	manifestFlavor flavor = iota
	// depfileFlavor is the makefile-style dependency dialect written by
	// compilers: '\' continues lines and escapes separators inside paths,
	// and indentation carries no meaning.
	depfileFlavor
)

// lexer splits an input buffer into Tokens. The zero value lexes the
// manifest flavor; call Start before use.
type lexer struct {
	flavor flavor

	input     []byte
	cur       int // offset of the next byte to scan
	lineStart int // offset of the start of the current physical line

	tok Token // pending token when Kind != NONE

	lastIndent int // indentation of the previous logical line
	curIndent  int // indentation of the current line, -1 until measured
}

// Start begins lexing the given buffer. A single trailing NUL, the
// convention used by FileReader, is stripped. The flavor is kept across
// calls.
func (l *lexer) Start(input []byte) {
	if len(input) > 0 && input[len(input)-1] == 0 {
		input = input[:len(input)-1]
	}
	l.input = input
	l.cur = 0
	l.lineStart = 0
	l.tok = Token{}
	l.lastIndent = 0
	l.curIndent = -1
}

// PeekToken returns the current token without consuming it. At the start
// of each logical line it first measures indentation and, in the manifest
// flavor, synthesizes a single INDENT or OUTDENT token when the level
// changed since the previous line.
func (l *lexer) PeekToken() Token {
	if l.tok.Kind != NONE {
		return l.tok
	}
	if l.curIndent < 0 {
		l.skipWhitespace(true)
		indent := l.cur - l.lineStart
		if l.cur == len(l.input) {
			// EOF closes any indented block.
			indent = 0
		}
		l.curIndent = indent
		if l.flavor == manifestFlavor && indent != l.lastIndent {
			kind := INDENT
			if indent < l.lastIndent {
				kind = OUTDENT
			}
			l.lastIndent = indent
			l.tok = Token{Kind: kind, Start: l.cur, End: l.cur}
			return l.tok
		}
	} else {
		l.skipWhitespace(false)
	}
	l.tok = l.scanToken()
	return l.tok
}

// ConsumeToken advances past the current token. TEOF is sticky, and
// INDENT and OUTDENT consume no input.
func (l *lexer) ConsumeToken() {
	switch l.tok.Kind {
	case NONE, TEOF:
		return
	case INDENT, OUTDENT:
	case NEWLINE:
		l.cur = l.tok.End
		l.lineStart = l.cur
		l.curIndent = -1
	default:
		l.cur = l.tok.End
	}
	l.tok = Token{}
}

// peekToken consumes the next token and reports true when its kind
// matches, otherwise leaves the token pending and reports false.
func (l *lexer) peekToken(kind TokenKind) bool {
	if l.PeekToken().Kind != kind {
		return false
	}
	l.ConsumeToken()
	return true
}

// scanToken reads the token at the cursor without advancing it.
func (l *lexer) scanToken() Token {
	if l.cur >= len(l.input) {
		return Token{Kind: TEOF, Start: l.cur, End: l.cur}
	}
	c := l.input[l.cur]
	if c == '\n' {
		return Token{Kind: NEWLINE, Start: l.cur, End: l.cur + 1}
	}
	if c == '\r' {
		if l.cur+1 < len(l.input) && l.input[l.cur+1] == '\n' {
			return Token{Kind: NEWLINE, Start: l.cur, End: l.cur + 2}
		}
		return Token{Kind: UNKNOWN, Start: l.cur, End: l.cur + 1}
	}
	switch c {
	case '=':
		return Token{Kind: EQUALS, Start: l.cur, End: l.cur + 1}
	case ':':
		return Token{Kind: COLON, Start: l.cur, End: l.cur + 1}
	case '|':
		if l.cur+1 < len(l.input) && l.input[l.cur+1] == '|' {
			return Token{Kind: PIPE2, Start: l.cur, End: l.cur + 2}
		}
		return Token{Kind: PIPE, Start: l.cur, End: l.cur + 1}
	}
	if l.flavor == depfileFlavor {
		return l.scanDepfileIdent()
	}
	if isIdentChar(c) {
		i := l.cur
		for i < len(l.input) && isIdentChar(l.input[i]) {
			i++
		}
		return Token{Kind: IDENT, Start: l.cur, End: i}
	}
	return Token{Kind: UNKNOWN, Start: l.cur, End: l.cur + 1}
}

// isIdentChar reports whether c may appear in a manifest identifier or
// path.
func isIdentChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '_' || c == '.' || c == '-' || c == '/'
}

// scanDepfileIdent scans a depfile path. Backslashes escape separators,
// "$$" writes a literal '$', and a backslash before a newline ends the
// path, leaving the continuation for skipWhitespace.
func (l *lexer) scanDepfileIdent() Token {
	i := l.cur
scan:
	for i < len(l.input) {
		switch c := l.input[i]; {
		case isDepfileTerminator(c):
			break scan
		case c == '\\':
			if l.continuationAt(i) > 0 {
				break scan
			}
			if i+1 < len(l.input) && isDepfileEscape(l.input[i+1]) {
				i += 2
				continue
			}
			i++
		case c == '$':
			if i+1 < len(l.input) && l.input[i+1] == '$' {
				i += 2
				continue
			}
			i++
		default:
			i++
		}
	}
	if i == l.cur {
		return Token{Kind: UNKNOWN, Start: l.cur, End: l.cur + 1}
	}
	return Token{Kind: IDENT, Start: l.cur, End: i}
}

func isDepfileEscape(c byte) bool {
	return c == ' ' || c == ':' || c == '#' || c == '\\'
}

// isDepfileTerminator reports whether an unescaped c ends a depfile
// path.
func isDepfileTerminator(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', ':', '#', '=', '|', 0:
		return true
	}
	return false
}

// tokenText materializes the text of t. Depfile idents decode their
// escapes; every other token aliases the input directly.
func (l *lexer) tokenText(t Token) string {
	raw := l.input[t.Start:t.End]
	if l.flavor != depfileFlavor || t.Kind != IDENT {
		return string(raw)
	}
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '\\' && i+1 < len(raw) && isDepfileEscape(raw[i+1]):
			out = append(out, raw[i+1])
			i++
		case c == '$' && i+1 < len(raw) && raw[i+1] == '$':
			out = append(out, '$')
			i++
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

// continuationAt returns the byte length of a line continuation starting
// at i, or zero when i does not start one.
func (l *lexer) continuationAt(i int) int {
	esc := byte('$')
	if l.flavor == depfileFlavor {
		esc = '\\'
	}
	if i >= len(l.input) || l.input[i] != esc {
		return 0
	}
	if i+1 < len(l.input) && l.input[i+1] == '\n' {
		return 2
	}
	if i+2 < len(l.input) && l.input[i+1] == '\r' && l.input[i+2] == '\n' {
		return 3
	}
	return 0
}

// skipWhitespace advances over spaces, tabs, line continuations and
// whole-line comments. Newlines are only crossed when includeNewlines is
// set, which PeekToken uses at the start of a fresh line so that blank
// and comment-only lines produce no tokens.
func (l *lexer) skipWhitespace(includeNewlines bool) {
	for l.cur < len(l.input) {
		switch c := l.input[l.cur]; c {
		case ' ', '\t':
			l.cur++
		case '\n':
			if !includeNewlines {
				return
			}
			l.cur++
			l.lineStart = l.cur
		case '\r':
			if !includeNewlines || l.cur+1 >= len(l.input) || l.input[l.cur+1] != '\n' {
				return
			}
			l.cur += 2
			l.lineStart = l.cur
		case '#':
			if !l.blankSoFar() {
				return
			}
			for l.cur < len(l.input) && l.input[l.cur] != '\n' && l.input[l.cur] != '\r' {
				l.cur++
			}
		default:
			if n := l.continuationAt(l.cur); n > 0 {
				l.cur += n
				l.lineStart = l.cur
				continue
			}
			return
		}
	}
}

// blankSoFar reports whether the current physical line holds only
// whitespace before the cursor.
func (l *lexer) blankSoFar() bool {
	for i := l.lineStart; i < l.cur; i++ {
		if l.input[i] != ' ' && l.input[i] != '\t' {
			return false
		}
	}
	return true
}

// readIdent consumes the current token and returns its text when it is an
// identifier. Otherwise it returns "" and leaves the token pending, so a
// following Error anchors at the offending token.
func (l *lexer) readIdent() string {
	t := l.PeekToken()
	if t.Kind != IDENT {
		return ""
	}
	s := l.tokenText(t)
	l.ConsumeToken()
	return s
}

// expectToken consumes the current token when its kind matches.
func (l *lexer) expectToken(expected TokenKind) error {
	t := l.PeekToken()
	if t.Kind != expected {
		return l.Error("expected " + expected.String() + ", got " + t.Kind.String())
	}
	l.ConsumeToken()
	return nil
}

// expectIdent consumes an identifier with the exact given text, such as a
// statement keyword.
func (l *lexer) expectIdent(value string) error {
	t := l.PeekToken()
	if t.Kind == IDENT && l.tokenText(t) == value {
		l.ConsumeToken()
		return nil
	}
	got := t.Kind.String()
	if t.Kind == IDENT {
		got = "'" + l.tokenText(t) + "'"
	}
	return l.Error("expected '" + value + "', got " + got)
}

// readToNewline reads raw text up to but not including the line
// terminator, joining physical lines at continuations and dropping the
// whitespace that follows each one. It returns the text along with the
// buffer offset of its first byte. Reading more than maxLength bytes is
// an error anchored at the first excess byte; a non-positive maxLength
// imposes no limit. Any pending token is discarded; the read starts at
// its first byte.
func (l *lexer) readToNewline(maxLength int) (string, int, error) {
	l.tok = Token{}
	l.skipWhitespace(false)
	start := l.cur
	var text []byte
	for l.cur < len(l.input) {
		if n := l.continuationAt(l.cur); n > 0 {
			l.cur += n
			l.lineStart = l.cur
			for l.cur < len(l.input) && (l.input[l.cur] == ' ' || l.input[l.cur] == '\t') {
				l.cur++
			}
			continue
		}
		c := l.input[l.cur]
		if c == '\n' || c == '\r' && l.cur+1 < len(l.input) && l.input[l.cur+1] == '\n' {
			break
		}
		if maxLength > 0 && len(text) >= maxLength {
			return "", 0, l.errorAt(l.cur, "line exceeded maximum length")
		}
		text = append(text, c)
		l.cur++
	}
	return string(text), start, nil
}

// valueOffset maps an index into the text returned by readToNewline back
// to the buffer offset holding that byte, re-walking the continuations
// the read dropped. Only error paths need it.
func (l *lexer) valueOffset(start, idx int) int {
	i := start
	n := 0
	for i < len(l.input) {
		for {
			cn := l.continuationAt(i)
			if cn == 0 {
				break
			}
			i += cn
			for i < len(l.input) && (l.input[i] == ' ' || l.input[i] == '\t') {
				i++
			}
		}
		if i >= len(l.input) || n == idx {
			break
		}
		c := l.input[i]
		if c == '\n' || c == '\r' && i+1 < len(l.input) && l.input[i+1] == '\n' {
			break
		}
		n++
		i++
	}
	return i
}

// Error reports msg at the current token, or at the cursor when no token
// is pending.
func (l *lexer) Error(msg string) error {
	pos := l.cur
	if l.tok.Kind != NONE {
		pos = l.tok.Start
	}
	return l.errorAt(pos, msg)
}

const truncateColumn = 72

// errorAt reports msg at the given buffer offset.
func (l *lexer) errorAt(offset int, msg string) error {
	if offset > len(l.input) {
		offset = len(l.input)
	}
	line := 1
	lineStart := 0
	for i := 0; i < offset; i++ {
		if l.input[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	col := offset - lineStart
	context := ""
	if col < truncateColumn {
		lineEnd := lineStart
		for lineEnd < len(l.input) && l.input[lineEnd] != '\n' && l.input[lineEnd] != '\r' {
			lineEnd++
		}
		text := string(l.input[lineStart:lineEnd])
		if len(text) > truncateColumn {
			text = text[:truncateColumn] + "..."
		}
		context = text + "\n" + caretPadding(l.input[lineStart:offset]) + "^"
	}
	return &ParseError{
		Loc:     SourceLocation{Line: line, Column: col + 1},
		Msg:     msg,
		Context: context,
	}
}

// caretPadding builds the run of blanks that places a caret under the
// column following prefix. Tabs are kept so the caret stays aligned at
// any tab width; everything else pads by its display width.
func caretPadding(prefix []byte) string {
	var b strings.Builder
	start := 0
	for i, c := range prefix {
		if c != '\t' {
			continue
		}
		b.WriteString(strings.Repeat(" ", uniseg.StringWidth(string(prefix[start:i]))))
		b.WriteByte('\t')
		start = i + 1
	}
	b.WriteString(strings.Repeat(" ", uniseg.StringWidth(string(prefix[start:]))))
	return b.String()
}
