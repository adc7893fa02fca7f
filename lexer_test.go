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
	"testing"

	"github.com/google/go-cmp/cmp"
)

// lexAll drains the lexer, returning every token kind plus the decoded
// text of each identifier.
func lexAll(t *testing.T, f flavor, input string) ([]TokenKind, []string) {
	t.Helper()
	l := lexer{flavor: f}
	l.Start([]byte(input))
	var kinds []TokenKind
	var texts []string
	for {
		tok := l.PeekToken()
		kinds = append(kinds, tok.Kind)
		if tok.Kind == TEOF {
			return kinds, texts
		}
		if tok.Kind == IDENT {
			texts = append(texts, l.tokenText(tok))
		}
		l.ConsumeToken()
		if len(kinds) > 100 {
			t.Fatal("lexer did not terminate")
		}
	}
}

func TestLexer_Basic(t *testing.T) {
	kinds, texts := lexAll(t, manifestFlavor, "build out: cat in | dep || oo\n")
	wantKinds := []TokenKind{IDENT, IDENT, COLON, IDENT, IDENT, PIPE, IDENT, PIPE2, IDENT, NEWLINE, TEOF}
	if diff := cmp.Diff(wantKinds, kinds); diff != "" {
		t.Fatal(diff)
	}
	wantTexts := []string{"build", "out", "cat", "in", "dep", "oo"}
	if diff := cmp.Diff(wantTexts, texts); diff != "" {
		t.Fatal(diff)
	}
}

func TestLexer_ReadIdent(t *testing.T) {
	l := lexer{}
	l.Start([]byte("foo baR baz_123 foo-bar"))
	if got := l.readIdent(); got != "foo" {
		t.Fatal(got)
	}
	if got := l.readIdent(); got != "baR" {
		t.Fatal(got)
	}
	if got := l.readIdent(); got != "baz_123" {
		t.Fatal(got)
	}
	if got := l.readIdent(); got != "foo-bar" {
		t.Fatal(got)
	}
	if got := l.readIdent(); got != "" {
		t.Fatal(got)
	}
	if got := l.PeekToken(); got.Kind != TEOF {
		t.Fatal(got.Kind)
	}
}

func TestLexer_ReadIdentCurlies(t *testing.T) {
	// Verify that a line like "foo.dots $bar.dots ${bar.dots}" is scanned
	// as an identifier (periods are plain path characters) followed by a
	// value where only the braced form may contain periods.
	l := lexer{}
	l.Start([]byte("foo.dots $bar.dots ${bar.dots}\n"))
	if got := l.readIdent(); got != "foo.dots" {
		t.Fatal(got)
	}
	raw, _, err := l.readToNewline(0)
	if err != nil {
		t.Fatal(err)
	}
	eval := EvalString{}
	if _, err := eval.Parse(raw); err != nil {
		t.Fatal(err)
	}
	if got := eval.Serialize(); got != "[$bar][.dots ][$bar.dots]" {
		t.Fatal(got)
	}
}

func TestLexer_ValueOne(t *testing.T) {
	l := lexer{}
	l.Start([]byte("plain text $var $VaR ${x}\n"))
	raw, _, err := l.readToNewline(0)
	if err != nil {
		t.Fatal(err)
	}
	eval := EvalString{}
	if _, err := eval.Parse(raw); err != nil {
		t.Fatal(err)
	}
	if got := eval.Serialize(); got != "[plain text ][$var][ ][$VaR][ ][$x]" {
		t.Fatal(got)
	}
}

func TestLexer_ValueEscapes(t *testing.T) {
	l := lexer{}
	l.Start([]byte("$ $$ab c$: $\ncde\n"))
	raw, _, err := l.readToNewline(0)
	if err != nil {
		t.Fatal(err)
	}
	if raw != "$ $$ab c$: cde" {
		t.Fatalf("%q", raw)
	}
	eval := EvalString{}
	if _, err := eval.Parse(raw); err != nil {
		t.Fatal(err)
	}
	if got := eval.Serialize(); got != "[ $ab c: cde]" {
		t.Fatal(got)
	}
}

func TestLexer_Continuation(t *testing.T) {
	// A continuation joins physical lines; the indentation of the
	// continued line is dropped but the space before the '$' survives.
	l := lexer{}
	l.Start([]byte("foo bar $\n    baz\n"))
	raw, _, err := l.readToNewline(0)
	if err != nil {
		t.Fatal(err)
	}
	if raw != "foo bar baz" {
		t.Fatalf("%q", raw)
	}
}

func TestLexer_Indent(t *testing.T) {
	kinds, _ := lexAll(t, manifestFlavor, "a\n  b\nc\n")
	want := []TokenKind{IDENT, NEWLINE, INDENT, IDENT, NEWLINE, OUTDENT, IDENT, NEWLINE, TEOF}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatal(diff)
	}
}

func TestLexer_IndentAtEOF(t *testing.T) {
	// EOF closes an open block.
	kinds, _ := lexAll(t, manifestFlavor, "a\n  b\n")
	want := []TokenKind{IDENT, NEWLINE, INDENT, IDENT, NEWLINE, OUTDENT, TEOF}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatal(diff)
	}

	// Without a final newline the last line never ends, so there is no
	// fresh-line measurement and no OUTDENT.
	kinds, _ = lexAll(t, manifestFlavor, "a\n  b")
	want = []TokenKind{IDENT, NEWLINE, INDENT, IDENT, TEOF}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatal(diff)
	}
}

func TestLexer_IndentIsEdgeTriggered(t *testing.T) {
	// Each change of level emits exactly one token, however large the
	// change. Deepening from 2 to 4 is a second INDENT and falling from 4
	// straight to 0 a single OUTDENT.
	kinds, _ := lexAll(t, manifestFlavor, "a\n  b\n    c\nd\n")
	want := []TokenKind{
		IDENT, NEWLINE,
		INDENT, IDENT, NEWLINE,
		INDENT, IDENT, NEWLINE,
		OUTDENT, IDENT, NEWLINE,
		TEOF,
	}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatal(diff)
	}
}

func TestLexer_BlankAndCommentLines(t *testing.T) {
	kinds, texts := lexAll(t, manifestFlavor, "a\n\n# comment\n   \nb\n")
	wantKinds := []TokenKind{IDENT, NEWLINE, IDENT, NEWLINE, TEOF}
	if diff := cmp.Diff(wantKinds, kinds); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff([]string{"a", "b"}, texts); diff != "" {
		t.Fatal(diff)
	}
}

func TestLexer_CommentEOF(t *testing.T) {
	// A comment on the last line needs no trailing newline.
	kinds, _ := lexAll(t, manifestFlavor, "# foo")
	if diff := cmp.Diff([]TokenKind{TEOF}, kinds); diff != "" {
		t.Fatal(diff)
	}
}

func TestLexer_Tabs(t *testing.T) {
	// A tab indents like a single space.
	kinds, _ := lexAll(t, manifestFlavor, "a\n\tb\n")
	want := []TokenKind{IDENT, NEWLINE, INDENT, IDENT, NEWLINE, OUTDENT, TEOF}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatal(diff)
	}
}

func TestLexer_CRLF(t *testing.T) {
	kinds, _ := lexAll(t, manifestFlavor, "a\r\n  b\r\nc\r\n")
	want := []TokenKind{IDENT, NEWLINE, INDENT, IDENT, NEWLINE, OUTDENT, IDENT, NEWLINE, TEOF}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatal(diff)
	}
}

func TestLexer_TrailingNul(t *testing.T) {
	// FileReader appends one NUL; Start strips it again.
	kinds, _ := lexAll(t, manifestFlavor, "foo\n\x00")
	want := []TokenKind{IDENT, NEWLINE, TEOF}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatal(diff)
	}
}

func TestLexer_Error(t *testing.T) {
	l := lexer{}
	l.Start([]byte("foo$\nbad $"))
	raw, off, err := l.readToNewline(0)
	if err != nil {
		t.Fatal(err)
	}
	if raw != "foobad $" {
		t.Fatalf("%q", raw)
	}
	eval := EvalString{}
	errIdx, perr := eval.Parse(raw)
	if perr == nil {
		t.Fatal("expected error")
	}
	got := l.errorAt(l.valueOffset(off, errIdx), perr.Error()).Error()
	want := "2:5: bad $-escape (literal $ must be written as $$)\nbad $\n    ^"
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestLexer_ErrorWideRunes(t *testing.T) {
	// The caret column counts display cells, not bytes.
	l := lexer{}
	l.Start([]byte("x = \xe5\x80\xbc$"))
	l.readIdent()
	if err := l.expectToken(EQUALS); err != nil {
		t.Fatal(err)
	}
	raw, off, err := l.readToNewline(0)
	if err != nil {
		t.Fatal(err)
	}
	eval := EvalString{}
	errIdx, perr := eval.Parse(raw)
	if perr == nil {
		t.Fatal("expected error")
	}
	got := l.errorAt(l.valueOffset(off, errIdx), perr.Error()).Error()
	want := "1:8: bad $-escape (literal $ must be written as $$)\nx = \xe5\x80\xbc$\n      ^"
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestLexer_ErrorTabAlignment(t *testing.T) {
	// Tabs before the error column are preserved in the caret padding so
	// the caret lines up at any tab width.
	l := lexer{}
	l.Start([]byte("x = a\t$"))
	l.readIdent()
	if err := l.expectToken(EQUALS); err != nil {
		t.Fatal(err)
	}
	raw, off, err := l.readToNewline(0)
	if err != nil {
		t.Fatal(err)
	}
	eval := EvalString{}
	errIdx, perr := eval.Parse(raw)
	if perr == nil {
		t.Fatal("expected error")
	}
	got := l.errorAt(l.valueOffset(off, errIdx), perr.Error()).Error()
	want := "1:7: bad $-escape (literal $ must be written as $$)\nx = a\t$\n     \t^"
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestLexer_DepfileIdents(t *testing.T) {
	kinds, texts := lexAll(t, depfileFlavor, "out.o: foo.cc foo.h\n")
	wantKinds := []TokenKind{IDENT, COLON, IDENT, IDENT, NEWLINE, TEOF}
	if diff := cmp.Diff(wantKinds, kinds); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff([]string{"out.o", "foo.cc", "foo.h"}, texts); diff != "" {
		t.Fatal(diff)
	}
}

func TestLexer_DepfileEscapes(t *testing.T) {
	_, texts := lexAll(t, depfileFlavor, "a\\ b\\:c\\#d\\\\e $$f g$h i\\j")
	want := []string{"a b:c#d\\e", "$f", "g$h", "i\\j"}
	if diff := cmp.Diff(want, texts); diff != "" {
		t.Fatal(diff)
	}
}

func TestLexer_DepfileContinuation(t *testing.T) {
	kinds, texts := lexAll(t, depfileFlavor, "out: a \\\n b\n")
	wantKinds := []TokenKind{IDENT, COLON, IDENT, IDENT, NEWLINE, TEOF}
	if diff := cmp.Diff(wantKinds, kinds); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff([]string{"out", "a", "b"}, texts); diff != "" {
		t.Fatal(diff)
	}
}

func TestLexer_DepfileNoIndentTokens(t *testing.T) {
	// Indentation means nothing in the depfile dialect.
	kinds, _ := lexAll(t, depfileFlavor, " out: x\n    more\n")
	wantKinds := []TokenKind{IDENT, COLON, IDENT, NEWLINE, IDENT, NEWLINE, TEOF}
	if diff := cmp.Diff(wantKinds, kinds); diff != "" {
		t.Fatal(diff)
	}
}

func TestLexer_DepfileTerminators(t *testing.T) {
	// '=', '|' and '||' end a path and come through as operator tokens.
	kinds, texts := lexAll(t, depfileFlavor, "a=b|c||d")
	wantKinds := []TokenKind{IDENT, EQUALS, IDENT, PIPE, IDENT, PIPE2, IDENT, TEOF}
	if diff := cmp.Diff(wantKinds, kinds); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, texts); diff != "" {
		t.Fatal(diff)
	}
}
