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

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/isuhao/ninja"
)

// GraphCmd writes the build graph reachable from the given targets as
// a graphviz dot file on stdout.
type GraphCmd struct {
	Targets []string `arg:"" optional:"" help:"Targets to graph (defaults to the default targets)."`
}

func (c *GraphCmd) Run(cli *CLI) error {
	state, err := loadState(cli)
	if err != nil {
		return err
	}
	targets, err := collectTargets(state, c.Targets)
	if err != nil {
		return err
	}
	graph := newGraphViz(os.Stdout)
	graph.Start()
	for _, node := range targets {
		graph.AddTarget(node)
	}
	graph.Finish()
	return nil
}

// graphViz renders nodes and edges in the dot language. Names use the
// graph's dense ids so output is stable across runs.
type graphViz struct {
	w            io.Writer
	visitedNodes map[*ninja.Node]struct{}
	visitedEdges map[*ninja.Edge]struct{}
}

func newGraphViz(w io.Writer) *graphViz {
	return &graphViz{
		w:            w,
		visitedNodes: map[*ninja.Node]struct{}{},
		visitedEdges: map[*ninja.Edge]struct{}{},
	}
}

func (g *graphViz) Start() {
	fmt.Fprintf(g.w, "digraph ninja {\n")
	fmt.Fprintf(g.w, "rankdir=\"LR\"\n")
	fmt.Fprintf(g.w, "node [fontsize=10, shape=box, height=0.25]\n")
	fmt.Fprintf(g.w, "edge [fontsize=10]\n")
}

func (g *graphViz) AddTarget(node *ninja.Node) {
	if _, ok := g.visitedNodes[node]; ok {
		return
	}
	g.visitedNodes[node] = struct{}{}
	fmt.Fprintf(g.w, "\"node%d\" [label=\"%s\"]\n", node.ID, strings.ReplaceAll(node.Path, "\\", "/"))

	edge := node.InEdge
	if edge == nil {
		// Leaf node.
		return
	}
	if _, ok := g.visitedEdges[edge]; ok {
		return
	}
	g.visitedEdges[edge] = struct{}{}

	if len(edge.Inputs) == 1 && len(edge.Outputs) == 1 {
		// Can draw simply.
		// Note extra space before label text -- this is cosmetic and feels
		// like a graphviz bug.
		fmt.Fprintf(g.w, "\"node%d\" -> \"node%d\" [label=\" %s\"]\n", edge.Inputs[0].ID, edge.Outputs[0].ID, edge.Rule.Name)
	} else {
		fmt.Fprintf(g.w, "\"edge%d\" [label=\"%s\", shape=ellipse]\n", edge.ID, edge.Rule.Name)
		for _, out := range edge.Outputs {
			fmt.Fprintf(g.w, "\"edge%d\" -> \"node%d\"\n", edge.ID, out.ID)
		}
		for i, in := range edge.Inputs {
			orderOnly := ""
			if edge.IsOrderOnly(i) {
				orderOnly = " style=dotted"
			}
			fmt.Fprintf(g.w, "\"node%d\" -> \"edge%d\" [arrowhead=none%s]\n", in.ID, edge.ID, orderOnly)
		}
	}

	for _, in := range edge.Inputs {
		g.AddTarget(in)
	}
}

func (g *graphViz) Finish() {
	fmt.Fprintf(g.w, "}\n")
}
