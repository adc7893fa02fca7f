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

// Pool is a named concurrency budget for edges.
//
// Pools are scoped to a State; edges within a State share them. The
// front end only declares pools and checks that build statements refer
// to a declared one, so a Pool here is just its name and depth. A depth
// of 0 means unbounded.
type Pool struct {
	Name  string
	Depth int
}

func NewPool(name string, depth int) *Pool {
	return &Pool{Name: name, Depth: depth}
}

// Dump the Pool (useful for debugging).
func (p *Pool) Dump() {
	fmt.Printf("%s (depth %d)\n", p.Name, p.Depth)
}

var (
	DefaultPool = NewPool("", 0)
	ConsolePool = NewPool("console", 1)
	PhonyRule   = NewRule("phony")
)

//

// Global state for a single run: the build graph plus the registries
// the parser populates.
type State struct {
	// Mapping of path -> Node.
	Paths Paths

	// All the pools used in the graph.
	Pools map[string]*Pool

	// All the rules used in the graph, keyed by name.
	Rules map[string]*Rule

	// All the edges of the graph, in declaration order.
	Edges []*Edge

	// The file-level variable scope.
	Bindings *BindingEnv

	Defaults []*Node
}

type Paths map[string]*Node

func NewState() State {
	s := State{
		Paths:    Paths{},
		Pools:    map[string]*Pool{},
		Rules:    map[string]*Rule{},
		Bindings: NewBindingEnv(nil),
	}
	s.AddRule(PhonyRule)
	s.AddPool(DefaultPool)
	s.AddPool(ConsolePool)
	return s
}

// AddRule registers a rule. The caller must have rejected duplicates
// already.
func (s *State) AddRule(rule *Rule) {
	if s.LookupRule(rule.Name) != nil {
		panic(rule.Name)
	}
	s.Rules[rule.Name] = rule
}

func (s *State) LookupRule(ruleName string) *Rule {
	return s.Rules[ruleName]
}

// AddPool registers a pool. The caller must have rejected duplicates
// already.
func (s *State) AddPool(pool *Pool) {
	if s.LookupPool(pool.Name) != nil {
		panic(pool.Name)
	}
	s.Pools[pool.Name] = pool
}

func (s *State) LookupPool(poolName string) *Pool {
	return s.Pools[poolName]
}

// AddEdge builds one edge from a build statement: it claims the output
// nodes, wires the three input classes in their combined order and
// registers the edge. Output paths already produced by an earlier edge
// are skipped and returned so the caller can warn or fail; when every
// output is such a duplicate the edge is dropped and nil is returned.
func (s *State) AddEdge(rule *Rule, outs, ins, implicit, orderOnly []string, env *BindingEnv) (*Edge, []string) {
	if len(outs) == 0 {
		panic("M-A")
	}
	edge := NewEdge()
	edge.Rule = rule
	edge.Pool = DefaultPool
	edge.Env = env
	edge.ID = int32(len(s.Edges))
	var dupes []string
	for _, path := range outs {
		node := s.GetNode(CanonicalizePath(path))
		if node.InEdge != nil {
			dupes = append(dupes, node.Path)
			continue
		}
		node.InEdge = edge
		edge.Outputs = append(edge.Outputs, node)
	}
	if len(edge.Outputs) == 0 {
		// Every output is already generated elsewhere; there is no
		// edge left to add.
		return nil, dupes
	}
	s.Edges = append(s.Edges, edge)

	edge.Inputs = make([]*Node, 0, len(ins)+len(implicit)+len(orderOnly))
	for _, path := range ins {
		s.addIn(edge, path)
	}
	for _, path := range implicit {
		s.addIn(edge, path)
	}
	for _, path := range orderOnly {
		s.addIn(edge, path)
	}
	edge.ImplicitDeps = int32(len(implicit))
	edge.OrderOnlyDeps = int32(len(orderOnly))
	return edge, dupes
}

func (s *State) addIn(edge *Edge, path string) {
	node := s.GetNode(CanonicalizePath(path))
	edge.Inputs = append(edge.Inputs, node)
	node.OutEdges = append(node.OutEdges, edge)
}

// GetNode returns the node for a canonical path, creating it on first
// use.
func (s *State) GetNode(path string) *Node {
	node := s.LookupNode(path)
	if node != nil {
		return node
	}
	node = NewNode(path, int32(len(s.Paths)))
	s.Paths[node.Path] = node
	return node
}

func (s *State) LookupNode(path string) *Node {
	return s.Paths[path]
}

func (s *State) SpellcheckNode(path string) *Node {
	const maxValidEditDistance = 3
	minDistance := maxValidEditDistance + 1
	var result *Node
	for p, node := range s.Paths {
		distance := editDistance(p, path, true, maxValidEditDistance)
		if distance < minDistance && node != nil {
			minDistance = distance
			result = node
		}
	}
	return result
}

// AddDefaults marks targets as default build targets. The paths are
// canonicalized before lookup; a path with no node yet fails.
func (s *State) AddDefaults(paths []string) error {
	for _, path := range paths {
		node := s.LookupNode(CanonicalizePath(path))
		if node == nil {
			return errors.New("unknown target '" + path + "'")
		}
		s.Defaults = append(s.Defaults, node)
	}
	return nil
}

// RootNodes returns the root node(s) of the graph: nodes produced by an
// edge but consumed by none.
func (s *State) RootNodes() ([]*Node, error) {
	var rootNodes []*Node
	for _, e := range s.Edges {
		for _, out := range e.Outputs {
			if len(out.OutEdges) == 0 {
				rootNodes = append(rootNodes, out)
			}
		}
	}
	if len(s.Edges) != 0 && len(rootNodes) == 0 {
		return nil, errors.New("could not determine root nodes of build graph")
	}
	return rootNodes, nil
}

// DefaultNodes returns the targets named by default statements, or the
// graph roots when the manifest declared none.
func (s *State) DefaultNodes() ([]*Node, error) {
	if len(s.Defaults) == 0 {
		return s.RootNodes()
	}
	return s.Defaults, nil
}

// Dump the nodes and Pools (useful for debugging).
func (s *State) Dump() {
	names := make([]string, 0, len(s.Paths))
	for n := range s.Paths {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, name := range names {
		node := s.Paths[name]
		fmt.Printf("%s [id:%d]\n", node.Path, node.ID)
	}
	if len(s.Pools) != 0 {
		fmt.Printf("resource_pools:\n")
		names = names[:0]
		for n := range s.Pools {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, name := range names {
			if name != "" {
				s.Pools[name].Dump()
			}
		}
	}
}
