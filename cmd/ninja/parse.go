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
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/isuhao/ninja"
)

// ParseCmd loads one or more manifests and prints what the parser
// built. Each file gets its own State, so independent manifests are
// checked in parallel.
type ParseCmd struct {
	Files []string `arg:"" optional:"" help:"Manifest files (defaults to the -f file)." type:"existingfile"`
}

type parseStats struct {
	file     string
	rules    int
	pools    int
	edges    int
	paths    int
	defaults int
}

func (c *ParseCmd) Run(cli *CLI) error {
	files := c.Files
	if len(files) == 0 {
		files = []string{cli.File}
	}
	stats := make([]parseStats, len(files))
	grp, _ := errgroup.WithContext(context.Background())
	grp.SetLimit(runtime.NumCPU())
	for i, file := range files {
		grp.Go(func() error {
			state := ninja.NewState()
			disk := ninja.NewRealDiskInterface()
			parser := ninja.NewManifestParser(&state, &disk, parserOptions(cli))
			if err := parser.Load(file); err != nil {
				return err
			}
			defaults, err := state.DefaultNodes()
			if err != nil {
				return fmt.Errorf("%s: %s", file, err)
			}
			stats[i] = parseStats{
				file:     file,
				rules:    len(state.Rules),
				pools:    len(state.Pools),
				edges:    len(state.Edges),
				paths:    len(state.Paths),
				defaults: len(defaults),
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return err
	}
	for _, s := range stats {
		fmt.Printf("%s: %d rules, %d pools, %d edges, %d paths, %d default targets\n",
			s.file, s.rules, s.pools, s.edges, s.paths, s.defaults)
	}
	return nil
}
