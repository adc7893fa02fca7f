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
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type GraphTest struct {
	StateTestWithBuiltinRules
}

func NewGraphTest(t *testing.T) GraphTest {
	return GraphTest{NewStateTestWithBuiltinRules(t)}
}

func TestGraph_RootNodes(t *testing.T) {
	g := NewGraphTest(t)
	g.AssertParse(&g.state, "build out1: cat in1\nbuild mid1: cat in1\nbuild out2: cat mid1\nbuild out3 out4: cat mid1\n", ManifestParserOptions{})

	rootNodes, err := g.state.RootNodes()
	if err != nil {
		t.Fatal(err)
	}
	if len(rootNodes) != 4 {
		t.Fatal(len(rootNodes))
	}
	for _, node := range rootNodes {
		if !strings.HasPrefix(node.Path, "out") {
			t.Fatal(node.Path)
		}
	}
}

func TestGraph_VarInScope(t *testing.T) {
	g := NewGraphTest(t)
	// Rule level variables should be in scope of eval contexts.
	g.AssertParse(&g.state, "rule r\n  depfile = x\n  command = depfile is $depfile\nbuild out: r in\n", ManifestParserOptions{})

	edge := g.GetNode("out").InEdge
	if got := edge.EvaluateCommand(false); got != "depfile is x" {
		t.Fatal(got)
	}
}

func TestGraph_DepfileOverride(t *testing.T) {
	g := NewGraphTest(t)
	// Build-level variables should override rule-level variables.
	g.AssertParse(&g.state, "rule r\n  depfile = x\n  command = unused\nbuild out: r in\n  depfile = y\n", ManifestParserOptions{})

	edge := g.GetNode("out").InEdge
	if got := edge.GetBinding("depfile"); got != "y" {
		t.Fatal(got)
	}
}

func TestGraph_DepfileOverrideParent(t *testing.T) {
	g := NewGraphTest(t)
	// Build-level variables should override rule-level variables even
	// when expanded through other variables.
	g.AssertParse(&g.state, "rule r\n  depfile = x\n  command = depfile is $depfile\nbuild out: r in\n  depfile = y\n", ManifestParserOptions{})

	edge := g.GetNode("out").InEdge
	if got := edge.GetBinding("command"); got != "depfile is y" {
		t.Fatal(got)
	}
}

func TestGraph_InOutVariables(t *testing.T) {
	g := NewGraphTest(t)
	g.AssertParse(&g.state, "build o1 o2: cat i1 i2 | im1 im2 || oo\n", ManifestParserOptions{})

	edge := g.GetNode("o1").InEdge
	env := NewEdgeEnv(edge, ShellEscape)
	if got := env.LookupVariable("in"); got != "i1 i2" {
		t.Fatal(got)
	}
	if got := env.LookupVariable("in_newline"); got != "i1\ni2" {
		t.Fatal(got)
	}
	if got := env.LookupVariable("out"); got != "o1 o2" {
		t.Fatal(got)
	}

	if diff := cmp.Diff([]string{"i1", "i2", "im1", "im2", "oo"}, inputPaths(edge)); diff != "" {
		t.Fatal(diff)
	}
	for index, implicit := range []bool{false, false, true, true, false} {
		if got := edge.IsImplicit(index); got != implicit {
			t.Fatal(index, got)
		}
	}
	for index, orderOnly := range []bool{false, false, false, false, true} {
		if got := edge.IsOrderOnly(index); got != orderOnly {
			t.Fatal(index, got)
		}
	}
}

func TestGraph_ShellEscaping(t *testing.T) {
	g := NewGraphTest(t)
	rule := g.state.LookupRule("cat")
	edge, dupes := g.state.AddEdge(rule, []string{"out file"}, []string{"in file"}, nil, nil, g.state.Bindings)
	if edge == nil || len(dupes) != 0 {
		t.Fatal(edge, dupes)
	}

	if got := edge.EvaluateCommand(false); got != "cat 'in file' > 'out file'" {
		t.Fatal(got)
	}
	env := NewEdgeEnv(edge, DoNotEscape)
	if got := env.LookupVariable("in"); got != "in file" {
		t.Fatal(got)
	}
	if got := env.LookupVariable("out"); got != "out file" {
		t.Fatal(got)
	}
}

func TestGraph_UnescapedDepfileAndRspfile(t *testing.T) {
	g := NewGraphTest(t)
	rule := NewRule("r")
	for key, raw := range map[string]string{
		"command":         "cmd",
		"depfile":         "$out.d",
		"rspfile":         "$out.rsp",
		"rspfile_content": "$in",
	} {
		var eval EvalString
		if _, err := eval.Parse(raw); err != nil {
			t.Fatal(err)
		}
		rule.Bindings[key] = &eval
	}
	g.state.AddRule(rule)

	edge, dupes := g.state.AddEdge(rule, []string{"out file"}, []string{"in"}, nil, nil, g.state.Bindings)
	if edge == nil || len(dupes) != 0 {
		t.Fatal(edge, dupes)
	}

	if got := edge.GetUnescapedDepfile(); got != "out file.d" {
		t.Fatal(got)
	}
	if got := edge.GetBinding("depfile"); got != "'out file'.d" {
		t.Fatal(got)
	}
	if got := edge.GetUnescapedRspfile(); got != "out file.rsp" {
		t.Fatal(got)
	}
	if got := edge.EvaluateCommand(true); got != "cmd;rspfile=in" {
		t.Fatal(got)
	}
}

func TestGraph_PhonycycleDiagnostic(t *testing.T) {
	g := NewGraphTest(t)
	g.AssertParse(&g.state, "build a: phony b\nbuild c d: phony e\nbuild f: phony g | h\nbuild i: cat j\n", ManifestParserOptions{})

	// Only the exact shape produced by old CMake versions qualifies:
	// phony, a single output and no implicit deps.
	if !g.GetNode("a").InEdge.maybePhonycycleDiagnostic() {
		t.Fatal("a")
	}
	if g.GetNode("c").InEdge.maybePhonycycleDiagnostic() {
		t.Fatal("c")
	}
	if g.GetNode("f").InEdge.maybePhonycycleDiagnostic() {
		t.Fatal("f")
	}
	if g.GetNode("i").InEdge.maybePhonycycleDiagnostic() {
		t.Fatal("i")
	}
}
