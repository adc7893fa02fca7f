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
	"strconv"
)

// ManifestParserOptions are the options when parsing a build.ninja file.
type ManifestParserOptions struct {
	// ErrOnDupeEdge causes duplicate rules for one target to print an error,
	// otherwise warns.
	ErrOnDupeEdge bool
	// ErrOnPhonyCycle causes phony cycles to print an error, otherwise warns.
	ErrOnPhonyCycle bool
	// Silence warnings.
	Quiet bool
}

// Values read out of a manifest line are bounded so a stray binary fed
// to the parser fails fast instead of buffering it whole.
const maxLetValueLength = 64 << 10

// Included files may nest this deep before the parser assumes the
// manifests form an include cycle.
const maxIncludeDepth = 64

// ManifestParser parses .ninja files.
type ManifestParser struct {
	// Immutable
	fileReader FileReader
	options    ManifestParserOptions

	// Mutable.
	lexer        lexer
	state        *State
	env          *BindingEnv
	includeDepth int
}

// NewManifestParser returns an initialized ManifestParser.
func NewManifestParser(state *State, fileReader FileReader, options ManifestParserOptions) *ManifestParser {
	return &ManifestParser{
		fileReader: fileReader,
		options:    options,
		state:      state,
		env:        state.Bindings,
	}
}

// Load reads and parses the named manifest into the parser's State.
func (m *ManifestParser) Load(path string) error {
	input, err := m.fileReader.ReadFile(path)
	if err != nil {
		return fmt.Errorf("loading '%s': %s", path, err)
	}
	return m.parse(input)
}

// parse parses a file, given its contents as a string.
func (m *ManifestParser) parse(input []byte) error {
	defer metricRecord(".ninja parse")()

	m.lexer.Start(input)

	for {
		t := m.lexer.PeekToken()
		if t.Kind == TEOF {
			m.lexer.ConsumeToken()
			return nil
		}
		if t.Kind != IDENT {
			return m.lexer.Error("expected statement, got " + t.Kind.String())
		}
		var err error
		switch m.lexer.tokenText(t) {
		case "pool":
			err = m.parsePool()
		case "build":
			err = m.parseEdge()
		case "rule":
			err = m.parseRule()
		case "default":
			err = m.parseDefault()
		case "include":
			err = m.parseFileInclude(false)
		case "subninja":
			err = m.parseFileInclude(true)
		default:
			err = m.parseLet()
		}
		if err != nil {
			return err
		}
	}
}

// parsePool parses a "pool" statement.
func (m *ManifestParser) parsePool() error {
	if err := m.lexer.expectIdent("pool"); err != nil {
		return err
	}
	name := m.lexer.readIdent()
	if name == "" {
		return m.lexer.Error("expected pool name")
	}

	if m.state.LookupPool(name) != nil {
		// TODO(maruel): Use %q for real quoting.
		return m.lexer.Error(fmt.Sprintf("duplicate pool '%s'", name))
	}

	if err := m.lexer.expectToken(NEWLINE); err != nil {
		return err
	}

	depth := -1

	if m.lexer.peekToken(INDENT) {
		for !m.lexer.peekToken(OUTDENT) {
			key, value, err := m.parseLetValue()
			if err != nil {
				return err
			}
			if key != "depth" || depth >= 0 {
				// TODO(maruel): Use %q for real quoting.
				return m.lexer.Error(fmt.Sprintf("unexpected variable '%s'", key))
			}
			// TODO(maruel): Do we want to use ParseInt() here? Aka support hex.
			if depth, err = strconv.Atoi(value.Evaluate(m.env)); depth < 0 || err != nil {
				return m.lexer.Error("invalid pool depth")
			}
		}
	}

	if depth < 0 {
		return m.lexer.Error("expected 'depth =' line")
	}

	m.state.AddPool(NewPool(name, depth))
	return nil
}

// parseRule parses a "rule" statement.
func (m *ManifestParser) parseRule() error {
	if err := m.lexer.expectIdent("rule"); err != nil {
		return err
	}
	name := m.lexer.readIdent()
	if name == "" {
		return m.lexer.Error("expected rule name")
	}

	if m.state.LookupRule(name) != nil {
		// TODO(maruel): Use %q for real quoting.
		return m.lexer.Error(fmt.Sprintf("duplicate rule '%s'", name))
	}

	if err := m.lexer.expectToken(NEWLINE); err != nil {
		return err
	}

	rule := NewRule(name)
	if m.lexer.peekToken(INDENT) {
		for !m.lexer.peekToken(OUTDENT) {
			key, value, err := m.parseLetValue()
			if err != nil {
				return err
			}

			if !IsReservedBinding(key) {
				// Die on other keyvals for now; revisit if we want to add a
				// scope here.
				// TODO(maruel): Use %q for real quoting.
				return m.lexer.Error(fmt.Sprintf("unexpected variable '%s'", key))
			}
			rule.Bindings[key] = &value
		}
	}

	b1, ok1 := rule.Bindings["rspfile"]
	b2, ok2 := rule.Bindings["rspfile_content"]
	if ok1 != ok2 || (ok1 && (len(b1.Parsed) == 0) != (len(b2.Parsed) == 0)) {
		return m.lexer.Error("rspfile and rspfile_content need to be both specified")
	}

	b, ok := rule.Bindings["command"]
	if !ok || len(b.Parsed) == 0 {
		return m.lexer.Error("expected 'command =' line")
	}
	m.state.AddRule(rule)
	return nil
}

// parseDefault parses a "default" statement.
func (m *ManifestParser) parseDefault() error {
	if err := m.lexer.expectIdent("default"); err != nil {
		return err
	}
	var targets []string
	for {
		path := m.lexer.readIdent()
		if path == "" {
			break
		}
		targets = append(targets, path)
	}
	if len(targets) == 0 {
		return m.lexer.Error("expected target name")
	}
	if err := m.state.AddDefaults(targets); err != nil {
		return m.lexer.Error(err.Error())
	}
	return m.lexer.expectToken(NEWLINE)
}

// parseLet parses a top level "ident = value" assignment. The value is
// expanded right away against the current scope, so a self-reference
// picks up the old binding.
func (m *ManifestParser) parseLet() error {
	key, letValue, err := m.parseLetValue()
	if err != nil {
		return err
	}
	value := letValue.Evaluate(m.env)
	// Check ninja_required_version immediately so we can exit
	// before encountering any syntactic surprises.
	if key == "ninja_required_version" {
		if err := checkNinjaVersion(value); err != nil {
			return err
		}
	}
	m.env.AddBinding(key, value)
	return nil
}

// parseEdge parses a "build" statement that results into an edge, which
// defines inputs and outputs.
func (m *ManifestParser) parseEdge() error {
	if err := m.lexer.expectIdent("build"); err != nil {
		return err
	}
	var outs []string
	for {
		out := m.lexer.readIdent()
		if out == "" {
			break
		}
		outs = append(outs, out)
	}
	if len(outs) == 0 {
		return m.lexer.Error("expected path")
	}

	if err := m.lexer.expectToken(COLON); err != nil {
		return err
	}

	ruleTok := m.lexer.PeekToken()
	ruleName := m.lexer.readIdent()
	if ruleName == "" {
		return m.lexer.Error("expected build command name")
	}

	rule := m.state.LookupRule(ruleName)
	if rule == nil {
		// TODO(maruel): Use %q for real quoting.
		return m.lexer.errorAt(ruleTok.Start, fmt.Sprintf("unknown build rule '%s'", ruleName))
	}

	var ins []string
	for {
		in := m.lexer.readIdent()
		if in == "" {
			break
		}
		ins = append(ins, in)
	}

	// Add all implicit deps.
	var implicit []string
	if m.lexer.peekToken(PIPE) {
		for {
			in := m.lexer.readIdent()
			if in == "" {
				break
			}
			implicit = append(implicit, in)
		}
	}

	// Add all order-only deps.
	var orderOnly []string
	if m.lexer.peekToken(PIPE2) {
		for {
			in := m.lexer.readIdent()
			if in == "" {
				break
			}
			orderOnly = append(orderOnly, in)
		}
	}

	if err := m.lexer.expectToken(NEWLINE); err != nil {
		return err
	}

	// Bindings on edges are rare, so allocate per-edge envs only when needed.
	env := m.env
	if m.lexer.peekToken(INDENT) {
		env = NewBindingEnv(m.env)
		for !m.lexer.peekToken(OUTDENT) {
			key, val, err := m.parseLetValue()
			if err != nil {
				return err
			}
			env.AddDeferred(key, &val)
		}
	}

	edge, dupes := m.state.AddEdge(rule, outs, ins, implicit, orderOnly, env)
	if len(dupes) != 0 {
		if m.options.ErrOnDupeEdge {
			return m.lexer.Error("multiple rules generate " + dupes[0])
		}
		if !m.options.Quiet {
			for _, path := range dupes {
				Warning("multiple rules generate %s. builds involving this target will not be correct; continuing anyway", path)
			}
		}
	}
	if edge == nil {
		// All outputs of the edge are already created by other edges. The
		// statement was dropped whole.
		return nil
	}

	if !m.options.ErrOnPhonyCycle && edge.maybePhonycycleDiagnostic() {
		// CMake 2.8.12.x and 3.0.x incorrectly write phony build statements
		// that reference themselves.  Ninja used to tolerate these in the
		// build graph but that has since been fixed.  Filter them out to
		// support users of those old CMake versions.
		out := edge.Outputs[0]
		for i, n := range edge.Inputs {
			if n == out {
				// An explicit input needs no count fixup; its class is
				// whatever remains after the trailing counts.
				if edge.IsOrderOnly(i) {
					edge.OrderOnlyDeps--
				}
				copy(edge.Inputs[i:], edge.Inputs[i+1:])
				edge.Inputs = edge.Inputs[:len(edge.Inputs)-1]
				if !m.options.Quiet {
					Warning("phony target '%s' names itself as an input; ignoring [-w phonycycle=warn]", out.Path)
				}
				break
			}
		}
	}

	if poolName := edge.GetBinding("pool"); poolName != "" {
		pool := m.state.LookupPool(poolName)
		if pool == nil {
			// TODO(maruel): Use %q for real quoting.
			return m.lexer.Error(fmt.Sprintf("unknown pool name '%s'", poolName))
		}
		edge.Pool = pool
	}
	return nil
}

// parseFileInclude parses an "include" or "subninja" statement. Both
// re-enter the parser on the named file; subninja gives the file its
// own child scope, include extends the current one as if the text were
// inlined.
func (m *ManifestParser) parseFileInclude(newScope bool) error {
	keyword := "include"
	if newScope {
		keyword = "subninja"
	}
	if err := m.lexer.expectIdent(keyword); err != nil {
		return err
	}
	raw, valueOff, err := m.lexer.readToNewline(maxLetValueLength)
	if err != nil {
		return err
	}
	eval := EvalString{}
	if errIdx, err := eval.Parse(raw); err != nil {
		return m.lexer.errorAt(m.lexer.valueOffset(valueOff, errIdx), err.Error())
	}
	path := eval.Evaluate(m.env)

	// Anchor errors about the file itself at the end of the statement,
	// before the newline is consumed.
	stmtEnd := m.lexer.PeekToken().Start
	if err := m.lexer.expectToken(NEWLINE); err != nil {
		return err
	}

	if m.includeDepth >= maxIncludeDepth {
		return m.lexer.errorAt(stmtEnd, "manifest files include each other too deeply; possible cycle")
	}

	input, err := m.fileReader.ReadFile(path)
	if err != nil {
		// TODO(maruel): Use %q for real quoting.
		return m.lexer.errorAt(stmtEnd, fmt.Sprintf("loading '%s': %s", path, err))
	}

	env := m.env
	if newScope {
		// Bindings made inside the subninja stay invisible out here.
		env = NewBindingEnv(m.env)
	}
	subparser := ManifestParser{
		fileReader:   m.fileReader,
		options:      m.options,
		state:        m.state,
		env:          env,
		includeDepth: m.includeDepth + 1,
	}
	// Do not wrap errors from inside the included file.
	return subparser.parse(input)
}

// parseLetValue parses an "ident = value" line and returns the value
// still unexpanded. Rule and build bodies store it as is; parseLet
// expands it on the spot.
func (m *ManifestParser) parseLetValue() (string, EvalString, error) {
	eval := EvalString{}
	key := m.lexer.readIdent()
	if key == "" {
		return key, eval, m.lexer.Error("expected variable name")
	}
	if err := m.lexer.expectToken(EQUALS); err != nil {
		return key, eval, err
	}
	raw, valueOff, err := m.lexer.readToNewline(maxLetValueLength)
	if err != nil {
		return key, eval, err
	}
	if errIdx, err := eval.Parse(raw); err != nil {
		return key, eval, m.lexer.errorAt(m.lexer.valueOffset(valueOff, errIdx), err.Error())
	}
	return key, eval, m.lexer.expectToken(NEWLINE)
}
