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
	"errors"
	"fmt"
	"sort"
)

// An interface for a scope for variable (e.g. "$foo") lookups.
type Env interface {
	LookupVariable(v string) string
}

type TokenListItem struct {
	Value     string
	IsSpecial bool
}

func (t *TokenListItem) String() string {
	out := fmt.Sprintf("%q:", t.Value)
	if t.IsSpecial {
		out += "special"
	} else {
		out += "raw"
	}
	return out
}

type TokenList []TokenListItem

// A tokenized string that contains variable references.
// Can be evaluated relative to an Env.
type EvalString struct {
	Parsed TokenList
}

func (e *EvalString) String() string {
	out := ""
	for i, t := range e.Parsed {
		if i != 0 {
			out += ","
		}
		out += t.String()
	}
	return out
}

var (
	errBadDollar    = errors.New("bad $-escape (literal $ must be written as $$)")
	errMissingBrace = errors.New("expected closing '}' after '${'")
)

// Parse splits raw into literal text and variable references. On
// failure the returned index is the offset of the offending '$' within
// raw, letting the caller map it back to a source position.
func (e *EvalString) Parse(raw string) (int, error) {
	start := 0
	i := 0
	for i < len(raw) {
		if raw[i] != '$' {
			i++
			continue
		}
		if i > start {
			e.AddText(raw[start:i])
		}
		if i+1 == len(raw) {
			return i, errBadDollar
		}
		switch c := raw[i+1]; {
		case c == '$' || c == ' ' || c == ':':
			e.AddText(raw[i+1 : i+2])
			i += 2
		case c == '{':
			j := i + 2
			for j < len(raw) && isBraceVarChar(raw[j]) {
				j++
			}
			if j == len(raw) || raw[j] != '}' {
				return i, errMissingBrace
			}
			if j == i+2 {
				return i, errBadDollar
			}
			e.AddSpecial(raw[i+2 : j])
			i = j + 1
		case isSimpleVarChar(c):
			j := i + 1
			for j < len(raw) && isSimpleVarChar(raw[j]) {
				j++
			}
			e.AddSpecial(raw[i+1 : j])
			i = j
		default:
			return i, errBadDollar
		}
		start = i
	}
	if i > start {
		e.AddText(raw[start:])
	}
	return 0, nil
}

func isSimpleVarChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '_' || c == '-'
}

func isBraceVarChar(c byte) bool {
	return isSimpleVarChar(c) || c == '.'
}

// @return The evaluated string with variable expanded using value found in
//         environment @a env.
func (e *EvalString) Evaluate(env Env) string {
	// Warning: this function is recursive.
	var z [64]string
	var s []string
	if l := len(e.Parsed); l <= cap(z) {
		s = z[:l]
	} else {
		s = make([]string, len(e.Parsed))
	}
	total := 0
	for i, p := range e.Parsed {
		if !p.IsSpecial {
			x := p.Value
			s[i] = x
			total += len(x)
		} else {
			x := env.LookupVariable(p.Value)
			s[i] = x
			total += len(x)
		}
	}
	out := make([]byte, total)
	offset := 0
	for _, x := range s {
		l := len(x)
		copy(out[offset:], x)
		offset += l
	}
	return unsafeString(out)
}

// AddText appends literal text, extending the last fragment when it is
// literal too so escapes don't splinter the parse.
func (e *EvalString) AddText(text string) {
	if n := len(e.Parsed); n != 0 && !e.Parsed[n-1].IsSpecial {
		e.Parsed[n-1].Value += text
		return
	}
	e.Parsed = append(e.Parsed, TokenListItem{text, false})
}

func (e *EvalString) AddSpecial(text string) {
	e.Parsed = append(e.Parsed, TokenListItem{text, true})
}

// Construct a human-readable representation of the parsed state,
// for use in tests.
func (e *EvalString) Serialize() string {
	result := ""
	for _, i := range e.Parsed {
		result += "["
		if i.IsSpecial {
			result += "$"
		}
		result += i.Value
		result += "]"
	}
	return result
}

// @return The string with variables not expanded.
func (e *EvalString) Unparse() string {
	result := ""
	for _, i := range e.Parsed {
		special := i.IsSpecial
		if special {
			result += "${"
		}
		result += i.Value
		if special {
			result += "}"
		}
	}
	return result
}

//

func IsReservedBinding(v string) bool {
	return v == "command" ||
		v == "depfile" ||
		v == "description" ||
		v == "deps" ||
		v == "generator" ||
		v == "pool" ||
		v == "restat" ||
		v == "rspfile" ||
		v == "rspfile_content"
}

// An invocable build command and associated metadata (description, etc.).
type Rule struct {
	Name     string
	Bindings map[string]*EvalString
}

func NewRule(name string) *Rule {
	return &Rule{
		Name:     name,
		Bindings: map[string]*EvalString{},
	}
}

func (r *Rule) GetBinding(key string) *EvalString {
	return r.Bindings[key]
}

func (r *Rule) String() string {
	out := "Rule:" + r.Name + "{"
	names := make([]string, 0, len(r.Bindings))
	for n := range r.Bindings {
		names = append(names, n)
	}
	sort.Strings(names)
	for i, n := range names {
		if i != 0 {
			out += ","
		}
		out += n + ":" + r.Bindings[n].String()
	}
	out += "}"
	return out
}

//

// An Env which contains a mapping of variables to values
// as well as a pointer to a parent scope.
//
// Bindings hold plain strings expanded once when the assignment was
// parsed. Deferred holds unexpanded values from rule and build bodies;
// they re-expand against this scope on every lookup, so an assignment
// made after the body still shows through.
type BindingEnv struct {
	Bindings map[string]string
	Deferred map[string]*EvalString
	Parent   *BindingEnv

	// Names currently being expanded. A deferred value that mentions
	// its own name resolves it in the parent scope instead of
	// recursing forever.
	expanding map[string]bool
}

func NewBindingEnv(parent *BindingEnv) *BindingEnv {
	return &BindingEnv{
		Bindings: map[string]string{},
		Parent:   parent,
	}
}

func (b *BindingEnv) AddBinding(key, val string) {
	b.Bindings[key] = val
}

func (b *BindingEnv) AddDeferred(key string, val *EvalString) {
	if b.Deferred == nil {
		b.Deferred = map[string]*EvalString{}
	}
	b.Deferred[key] = val
}

func (b *BindingEnv) String() string {
	out := "BindingEnv{"
	if b.Parent != nil {
		out += "(has parent)"
	}
	out += "\n  Bindings:"
	names := make([]string, 0, len(b.Bindings))
	for n := range b.Bindings {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		out += "\n    " + n + ":" + b.Bindings[n]
	}
	if len(b.Deferred) != 0 {
		out += "\n  Deferred:"
		names = names[:0]
		for n := range b.Deferred {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			out += "\n    " + n + ":" + b.Deferred[n].Serialize()
		}
	}
	out += "\n}"
	return out
}

func (b *BindingEnv) LookupVariable(v string) string {
	if i, ok := b.Bindings[v]; ok {
		return i
	}
	if out, ok := b.evalDeferred(v, b); ok {
		return out
	}
	if b.Parent != nil {
		return b.Parent.LookupVariable(v)
	}
	return ""
}

// evalDeferred expands the deferred value bound to v, masking v for the
// duration so a self-reference falls through to the parent scope and
// mutually recursive deferred values terminate.
func (b *BindingEnv) evalDeferred(v string, env Env) (string, bool) {
	eval := b.Deferred[v]
	if eval == nil || b.expanding[v] {
		return "", false
	}
	if b.expanding == nil {
		b.expanding = map[string]bool{}
	}
	b.expanding[v] = true
	out := eval.Evaluate(env)
	delete(b.expanding, v)
	return out, true
}

// This is tricky.  Edges want lookup scope to go in this order:
// 1) value set on edge itself (edge_->env_)
// 2) value set on rule, with expansion in the edge's scope
// 3) value set on enclosing scope of edge (edge_->env_->parent_)
// This function takes as parameters the necessary info to do (2).
// Deferred bindings set on the edge expand against env, the edge's full
// scope, so they can mention $in, $out and rule bindings.
func (b *BindingEnv) LookupWithFallback(v string, eval *EvalString, env Env) string {
	if i, ok := b.Bindings[v]; ok {
		return i
	}
	if out, ok := b.evalDeferred(v, env); ok {
		return out
	}
	if eval != nil {
		return eval.Evaluate(env)
	}
	if b.Parent != nil {
		return b.Parent.LookupVariable(v)
	}
	return ""
}
