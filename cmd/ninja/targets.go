// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-yaml"

	"github.com/isuhao/ninja"
)

// TargetsCmd lists targets: by default the ones needed to build the
// default targets down to a given depth, otherwise the outputs of one
// rule, the manifest's leaf sources, or every target in the manifest.
type TargetsCmd struct {
	Mode   string `arg:"" optional:"" default:"depth" enum:"depth,rule,all" help:"List mode: depth, rule or all."`
	Arg    string `arg:"" optional:"" help:"Tree depth for the depth mode (0 lists the whole tree), or the rule name for the rule mode (empty lists leaf sources)."`
	Filter string `help:"Only list target paths matching this glob (** is supported)."`
	Format string `default:"text" enum:"text,json,yaml" help:"Output format: text, json or yaml."`
}

// targetEntry is one listed target in the structured output modes.
type targetEntry struct {
	Path string `json:"path" yaml:"path"`
	Rule string `json:"rule,omitempty" yaml:"rule,omitempty"`
}

func (c *TargetsCmd) Run(cli *CLI) error {
	if c.Filter != "" && !doublestar.ValidatePattern(c.Filter) {
		return fmt.Errorf("invalid filter pattern '%s'", c.Filter)
	}
	state, err := loadState(cli)
	if err != nil {
		return err
	}
	switch c.Mode {
	case "rule":
		if c.Arg == "" {
			return c.emit(sourceTargets(state))
		}
		return c.emit(ruleTargets(state, c.Arg))
	case "all":
		return c.emit(allTargets(state))
	default:
		depth := 1
		if c.Arg != "" {
			depth, err = strconv.Atoi(c.Arg)
			if err != nil {
				return fmt.Errorf("invalid depth '%s'", c.Arg)
			}
		}
		roots, err := state.RootNodes()
		if err != nil {
			return err
		}
		if c.Format == "text" {
			c.printTree(roots, depth, 0)
			return nil
		}
		return c.emit(treeTargets(roots, depth))
	}
}

// printTree prints the dependency tree in the text format, two spaces
// of indent per level. A filter drops non-matching lines but the
// subtree below them is still walked.
func (c *TargetsCmd) printTree(nodes []*ninja.Node, depth, indent int) {
	for _, node := range nodes {
		if c.matches(node.Path) {
			fmt.Printf("%s", strings.Repeat("  ", indent))
			if node.InEdge != nil {
				fmt.Printf("%s: %s\n", node.Path, node.InEdge.Rule.Name)
			} else {
				fmt.Println(node.Path)
			}
		}
		if node.InEdge != nil && (depth > 1 || depth <= 0) {
			c.printTree(node.InEdge.Inputs, depth-1, indent+1)
		}
	}
}

// treeTargets flattens the dependency tree in visit order for the
// structured output modes.
func treeTargets(nodes []*ninja.Node, depth int) []targetEntry {
	var entries []targetEntry
	var visit func(nodes []*ninja.Node, depth int)
	visit = func(nodes []*ninja.Node, depth int) {
		for _, node := range nodes {
			entry := targetEntry{Path: node.Path}
			if node.InEdge != nil {
				entry.Rule = node.InEdge.Rule.Name
			}
			entries = append(entries, entry)
			if node.InEdge != nil && (depth > 1 || depth <= 0) {
				visit(node.InEdge.Inputs, depth-1)
			}
		}
	}
	visit(nodes, depth)
	return entries
}

// sourceTargets lists inputs that no edge generates, once per use.
func sourceTargets(state *ninja.State) []targetEntry {
	var entries []targetEntry
	for _, edge := range state.Edges {
		for _, in := range edge.Inputs {
			if in.InEdge == nil {
				entries = append(entries, targetEntry{Path: in.Path})
			}
		}
	}
	return entries
}

// ruleTargets lists the outputs of every edge using the named rule,
// sorted and deduplicated.
func ruleTargets(state *ninja.State, ruleName string) []targetEntry {
	seen := map[string]struct{}{}
	var paths []string
	for _, edge := range state.Edges {
		if edge.Rule.Name != ruleName {
			continue
		}
		for _, out := range edge.Outputs {
			if _, ok := seen[out.Path]; !ok {
				seen[out.Path] = struct{}{}
				paths = append(paths, out.Path)
			}
		}
	}
	sort.Strings(paths)
	entries := make([]targetEntry, len(paths))
	for i, path := range paths {
		entries[i] = targetEntry{Path: path}
	}
	return entries
}

// allTargets lists every output in the manifest with the rule that
// generates it, in edge declaration order.
func allTargets(state *ninja.State) []targetEntry {
	var entries []targetEntry
	for _, edge := range state.Edges {
		for _, out := range edge.Outputs {
			entries = append(entries, targetEntry{Path: out.Path, Rule: edge.Rule.Name})
		}
	}
	return entries
}

func (c *TargetsCmd) matches(path string) bool {
	if c.Filter == "" {
		return true
	}
	ok, _ := doublestar.Match(c.Filter, path)
	return ok
}

func (c *TargetsCmd) emit(entries []targetEntry) error {
	if c.Filter != "" {
		kept := entries[:0]
		for _, e := range entries {
			if c.matches(e.Path) {
				kept = append(kept, e)
			}
		}
		entries = kept
	}
	if entries == nil {
		entries = []targetEntry{}
	}
	switch c.Format {
	case "json":
		out, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", out)
	case "yaml":
		out, err := yaml.Marshal(entries)
		if err != nil {
			return err
		}
		fmt.Printf("%s", out)
	default:
		for _, e := range entries {
			if e.Rule != "" {
				fmt.Printf("%s: %s\n", e.Path, e.Rule)
			} else {
				fmt.Println(e.Path)
			}
		}
	}
	return nil
}
