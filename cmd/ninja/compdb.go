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
	"os"
	"slices"
	"strings"

	"github.com/isuhao/ninja"
)

// CompdbCmd dumps a clang-style compilation database
// (compile_commands.json) built from the manifest's edges.
type CompdbCmd struct {
	Rules          []string `arg:"" optional:"" help:"Only include edges produced by these rules."`
	ExpandRspfiles bool     `short:"x" help:"Expand @rspfile style response file invocations."`
}

// compdbEntry matches the schema clang tooling expects.
type compdbEntry struct {
	Directory string `json:"directory"`
	Command   string `json:"command"`
	File      string `json:"file"`
	Output    string `json:"output"`
}

func (c *CompdbCmd) Run(cli *CLI) error {
	state, err := loadState(cli)
	if err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("cannot determine working directory: %s", err)
	}
	out, err := json.MarshalIndent(collectCompdb(state, c.Rules, c.ExpandRspfiles, cwd), "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", out)
	return nil
}

// collectCompdb builds one entry per edge that has at least one input,
// optionally restricted to the given rules.
func collectCompdb(state *ninja.State, rules []string, expand bool, cwd string) []compdbEntry {
	entries := []compdbEntry{}
	for _, edge := range state.Edges {
		if len(edge.Inputs) == 0 {
			continue
		}
		if len(rules) != 0 && !slices.Contains(rules, edge.Rule.Name) {
			continue
		}
		entries = append(entries, compdbEntry{
			Directory: cwd,
			Command:   evaluateCommandWithRspfile(edge, expand),
			File:      edge.Inputs[0].Path,
			Output:    edge.Outputs[0].Path,
		})
	}
	return entries
}

// evaluateCommandWithRspfile returns the edge's command, optionally
// replacing an @rspfile argument with the response file's content.
func evaluateCommandWithRspfile(edge *ninja.Edge, expand bool) string {
	command := edge.EvaluateCommand(false)
	if !expand {
		return command
	}
	rspfile := edge.GetUnescapedRspfile()
	if rspfile == "" {
		return command
	}
	index := strings.Index(command, rspfile)
	if index <= 0 || command[index-1] != '@' {
		return command
	}
	content := edge.GetBinding("rspfile_content")
	content = strings.ReplaceAll(content, "\n", " ")
	return command[:index-1] + content + command[index+len(rspfile):]
}
