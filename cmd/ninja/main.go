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

// ninja inspects ninja build manifests: it parses them, lists targets
// and dumps dependency information in formats other tools consume.
package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/pkg/profile"
	"github.com/sahilm/fuzzy"

	"github.com/isuhao/ninja"
)

type CLI struct {
	File          string `short:"f" default:"build.ninja" help:"Input build file."`
	DupbuildErr   bool   `name:"dupbuild-err" help:"Treat multiple rules generating the same output as an error."`
	PhonycycleErr bool   `name:"phonycycle-err" help:"Treat phony build statements that reference themselves as errors."`
	Quiet         bool   `short:"q" help:"Silence warnings."`
	Profile       string `help:"Write a CPU profile to this directory." type:"path"`
	Metrics       bool   `help:"Print internal timing metrics before exiting."`

	Parse   ParseCmd   `cmd:"" help:"Parse manifests and print graph statistics."`
	Targets TargetsCmd `cmd:"" help:"List targets by depth, by rule or in full."`
	Compdb  CompdbCmd  `cmd:"" help:"Dump a JSON compilation database to stdout."`
	Graph   GraphCmd   `cmd:"" help:"Output a graphviz dot file for targets."`
	Query   QueryCmd   `cmd:"" help:"Show the inputs and outputs of targets."`
	Depfile DepfileCmd `cmd:"" help:"Parse a Makefile-style dependency file."`
	Version VersionCmd `cmd:"" help:"Print the ninja version."`
}

func main() {
	var cli CLI
	ktx := kong.Parse(&cli,
		kong.Name("ninja"),
		kong.Description("A tool for inspecting ninja build manifests."),
		kong.UsageOnError(),
	)
	ktx.FatalIfErrorf(run(ktx, &cli))
}

func run(ktx *kong.Context, cli *CLI) error {
	if cli.Profile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(cli.Profile), profile.Quiet).Stop()
	}
	if cli.Metrics {
		defer ninja.EnableMetrics().Report()
	}
	return ktx.Run(cli)
}

func parserOptions(cli *CLI) ninja.ManifestParserOptions {
	return ninja.ManifestParserOptions{
		ErrOnDupeEdge:   cli.DupbuildErr,
		ErrOnPhonyCycle: cli.PhonycycleErr,
		Quiet:           cli.Quiet,
	}
}

func loadState(cli *CLI) (*ninja.State, error) {
	state := ninja.NewState()
	disk := ninja.NewRealDiskInterface()
	parser := ninja.NewManifestParser(&state, &disk, parserOptions(cli))
	if err := parser.Load(cli.File); err != nil {
		return nil, err
	}
	return &state, nil
}

// collectTarget maps a command line argument to a node. The special
// syntax "foo.cc^" means "the first output of foo.cc".
func collectTarget(state *ninja.State, arg string) (*ninja.Node, error) {
	if arg == "" {
		return nil, errors.New("empty path")
	}
	path := ninja.CanonicalizePath(arg)
	firstDependent := false
	if path != "" && path[len(path)-1] == '^' {
		path = path[:len(path)-1]
		firstDependent = true
	}
	node := state.LookupNode(path)
	if node == nil {
		return nil, unknownTargetError(state, path)
	}
	if firstDependent {
		if len(node.OutEdges) == 0 {
			return nil, fmt.Errorf("'%s' has no out edge", path)
		}
		node = node.OutEdges[0].Outputs[0]
	}
	return node, nil
}

func collectTargets(state *ninja.State, args []string) ([]*ninja.Node, error) {
	if len(args) == 0 {
		return state.DefaultNodes()
	}
	var targets []*ninja.Node
	for _, arg := range args {
		node, err := collectTarget(state, arg)
		if err != nil {
			return nil, err
		}
		targets = append(targets, node)
	}
	return targets, nil
}

// unknownTargetError suggests the closest known path: by edit distance
// for plain typos, then fuzzily for mistakes beyond a couple of edits,
// like naming a target by a fragment of its path.
func unknownTargetError(state *ninja.State, path string) error {
	msg := "unknown target '" + path + "'"
	if suggestion := state.SpellcheckNode(path); suggestion != nil {
		return fmt.Errorf("%s, did you mean '%s'?", msg, suggestion.Path)
	}
	if matches := fuzzy.Find(path, statePaths(state)); len(matches) != 0 {
		n := len(matches)
		if n > 3 {
			n = 3
		}
		paths := make([]string, n)
		for i := range paths {
			paths[i] = matches[i].Str
		}
		return fmt.Errorf("%s, did you mean one of '%s'?", msg, strings.Join(paths, "', '"))
	}
	return errors.New(msg)
}

func statePaths(state *ninja.State) []string {
	paths := make([]string, 0, len(state.Paths))
	for path := range state.Paths {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

type VersionCmd struct{}

func (VersionCmd) Run() error {
	fmt.Println(ninja.NinjaVersion)
	return nil
}
