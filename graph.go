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
)

// Information about a node in the dependency graph: a file path plus
// the edges it participates in.
type Node struct {
	Path string

	// The Edge that produces this Node, or nil when there is no
	// known edge to produce it.
	InEdge *Edge

	// All Edges that use this Node as an input.
	OutEdges []*Edge

	// A dense integer id assigned in creation order; usable as a
	// stable node name in dumps.
	ID int32
}

func NewNode(path string, id int32) *Node {
	return &Node{Path: path, ID: id}
}

func (n *Node) Dump(prefix string) {
	fmt.Printf("%s <%s id:%d> ", prefix, n.Path, n.ID)
	if n.InEdge != nil {
		n.InEdge.Dump("in-edge: ")
	} else {
		fmt.Printf("no in-edge\n")
	}
	fmt.Printf(" out edges:\n")
	for _, e := range n.OutEdges {
		if e == nil {
			break
		}
		e.Dump(" +- ")
	}
}

// An edge in the dependency graph; links between Nodes using Rules.
type Edge struct {
	Rule    *Rule
	Pool    *Pool
	Inputs  []*Node
	Outputs []*Node
	Env     *BindingEnv
	ID      int32

	// There are three types of inputs.
	// 1) explicit deps, which show up as $in on the command line;
	// 2) implicit deps, which the target depends on implicitly (e.g. C headers),
	//                   and changes in them cause the target to rebuild;
	// 3) order-only deps, which are needed before the target builds but which
	//                     don't cause the target to rebuild.
	// These are stored in Inputs in that order, and we keep counts of
	// #2 and #3 when we need to access the various subsets.
	ImplicitDeps  int32
	OrderOnlyDeps int32
}

func NewEdge() *Edge {
	return &Edge{}
}

func (e *Edge) IsImplicit(index int) bool {
	return index >= len(e.Inputs)-int(e.ImplicitDeps)-int(e.OrderOnlyDeps) && !e.IsOrderOnly(index)
}

func (e *Edge) IsOrderOnly(index int) bool {
	return index >= len(e.Inputs)-int(e.OrderOnlyDeps)
}

// An Env for an Edge, providing $in and $out.
type EdgeEnv struct {
	lookups     []string
	edge        *Edge
	escapeInOut EscapeKind
	recursive   bool
}

type EscapeKind int

const (
	ShellEscape EscapeKind = iota
	DoNotEscape
)

func NewEdgeEnv(edge *Edge, escape EscapeKind) EdgeEnv {
	return EdgeEnv{
		edge:        edge,
		escapeInOut: escape,
	}
}

func (e *EdgeEnv) LookupVariable(v string) string {
	if v == "in" || v == "in_newline" {
		explicitDepsCount := len(e.edge.Inputs) - int(e.edge.ImplicitDeps) - int(e.edge.OrderOnlyDeps)
		sep := byte('\n')
		if v == "in" {
			sep = ' '
		}
		return e.makePathList(e.edge.Inputs[:explicitDepsCount], sep)
	} else if v == "out" {
		return e.makePathList(e.edge.Outputs, ' ')
	}

	if e.recursive {
		i := 0
		for ; i < len(e.lookups); i++ {
			if e.lookups[i] == v {
				break
			}
		}
		if i != len(e.lookups) {
			cycle := ""
			for ; i < len(e.lookups); i++ {
				cycle += e.lookups[i] + " -> "
			}
			cycle += v
			Fatal("cycle in rule variables: %s", cycle)
		}
	}

	// See notes on BindingEnv.LookupWithFallback.
	eval := e.edge.Rule.GetBinding(v)
	if e.recursive && eval != nil {
		e.lookups = append(e.lookups, v)
	}

	// In practice, variables defined on rules never use another rule
	// variable. For performance, only start checking for cycles after
	// the first lookup.
	e.recursive = true
	return e.edge.Env.LookupWithFallback(v, eval, e)
}

// Given a span of Nodes, construct a list of paths suitable for a command
// line.
func (e *EdgeEnv) makePathList(span []*Node, sep byte) string {
	result := ""
	for _, i := range span {
		if len(result) != 0 {
			result += string(sep)
		}
		if e.escapeInOut == ShellEscape {
			result += GetShellEscapedString(i.Path)
		} else {
			result += i.Path
		}
	}
	return result
}

// Expand all variables in a command and return it as a string.
// If inclRspFile is enabled, the string will also contain the
// full contents of a response file (if applicable).
func (e *Edge) EvaluateCommand(inclRspFile bool) string {
	command := e.GetBinding("command")
	if inclRspFile {
		rspfileContent := e.GetBinding("rspfile_content")
		if rspfileContent != "" {
			command += ";rspfile=" + rspfileContent
		}
	}
	return command
}

// Returns the shell-escaped value of |key|.
func (e *Edge) GetBinding(key string) string {
	env := NewEdgeEnv(e, ShellEscape)
	return env.LookupVariable(key)
}

func (e *Edge) GetBindingBool(key string) bool {
	return e.GetBinding(key) != ""
}

// Like GetBinding("depfile"), but without shell escaping.
func (e *Edge) GetUnescapedDepfile() string {
	env := NewEdgeEnv(e, DoNotEscape)
	return env.LookupVariable("depfile")
}

// Like GetBinding("rspfile"), but without shell escaping.
func (e *Edge) GetUnescapedRspfile() string {
	env := NewEdgeEnv(e, DoNotEscape)
	return env.LookupVariable("rspfile")
}

func (e *Edge) Dump(prefix string) {
	fmt.Printf("%s[ ", prefix)
	for _, i := range e.Inputs {
		if i != nil {
			fmt.Printf("%s ", i.Path)
		}
	}
	fmt.Printf("--%s-> ", e.Rule.Name)
	for _, i := range e.Outputs {
		fmt.Printf("%s ", i.Path)
	}
	if e.Pool != nil {
		if e.Pool.Name != "" {
			fmt.Printf("(in pool '%s')", e.Pool.Name)
		}
	} else {
		fmt.Printf("(null pool?)")
	}
	fmt.Printf("] 0x%p\n", e)
}

func (e *Edge) isPhony() bool {
	return e.Rule == PhonyRule
}

func (e *Edge) maybePhonycycleDiagnostic() bool {
	// CMake 2.8.12.x and 3.0.x produced self-referencing phony rules
	// of the form "build a: phony ... a ...".   Restrict our
	// "phonycycle" diagnostic option to the form it used.
	return e.isPhony() && len(e.Outputs) == 1 && e.ImplicitDeps == 0
}
