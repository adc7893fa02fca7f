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
	"fmt"
	"io"
	"os"

	"github.com/isuhao/ninja"
)

// QueryCmd prints the inputs and outputs of each named target.
type QueryCmd struct {
	Targets []string `arg:"" help:"Targets to describe."`
}

func (c *QueryCmd) Run(cli *CLI) error {
	state, err := loadState(cli)
	if err != nil {
		return err
	}
	for _, target := range c.Targets {
		node, err := collectTarget(state, target)
		if err != nil {
			return err
		}
		printNode(os.Stdout, node)
	}
	return nil
}

func printNode(w io.Writer, node *ninja.Node) {
	fmt.Fprintf(w, "%s:\n", node.Path)
	if edge := node.InEdge; edge != nil {
		fmt.Fprintf(w, "  input: %s\n", edge.Rule.Name)
		for i, in := range edge.Inputs {
			label := ""
			if edge.IsImplicit(i) {
				label = "| "
			} else if edge.IsOrderOnly(i) {
				label = "|| "
			}
			fmt.Fprintf(w, "    %s%s\n", label, in.Path)
		}
	}
	fmt.Fprintf(w, "  outputs:\n")
	for _, edge := range node.OutEdges {
		for _, out := range edge.Outputs {
			fmt.Fprintf(w, "    %s\n", out.Path)
		}
	}
}
