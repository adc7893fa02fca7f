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

// Parser for the dependency information emitted by gcc's -M flags.
//
// The zero value is ready to use. Duplicate inputs are kept in order;
// compilers repeat headers freely and the caller deduplicates if it
// cares.
type DepfileParser struct {
	Out string
	Ins []string

	lexer lexer
}

// A note on backslashes in Makefiles, from reading the docs:
// Backslash-newline is the line continuation character.
// Backslash-# escapes a # (otherwise meaningful as a comment start).
// Finally, quoting the GNU manual, "Backslashes that are not in danger
// of quoting '%' characters go unmolested."
//
// Rather than implement all of the above, we follow what GCC/Clang
// produces: backslashes escape a space, colon, hash sign or backslash,
// "$$" stands for a dollar sign, and everything else passes through.
func (d *DepfileParser) Parse(input []byte) error {
	defer metricRecord("depfile load")()
	d.Out = ""
	d.Ins = nil
	d.lexer.flavor = depfileFlavor
	d.lexer.Start(input)

	d.Out = d.lexer.readIdent()
	if d.Out == "" {
		return d.lexer.Error("expected output filename")
	}
	if err := d.lexer.expectToken(COLON); err != nil {
		return err
	}
	// The dependency list runs to the end of the logical line; escaped
	// newlines were already folded away by the lexer.
	for {
		t := d.lexer.PeekToken()
		switch t.Kind {
		case IDENT:
			d.Ins = append(d.Ins, d.lexer.tokenText(t))
			d.lexer.ConsumeToken()
		case NEWLINE, TEOF:
			d.lexer.ConsumeToken()
			return nil
		default:
			return d.lexer.Error("expected input filename, got " + t.Kind.String())
		}
	}
}
