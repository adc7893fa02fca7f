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

	"github.com/isuhao/ninja"
)

// DepfileCmd parses a Makefile-style dependency file and prints what
// the parser extracted, for debugging depfiles a compiler emitted.
type DepfileCmd struct {
	Path string `arg:"" help:"Dependency file to parse." type:"existingfile"`
}

func (c *DepfileCmd) Run() error {
	disk := ninja.NewRealDiskInterface()
	contents, err := disk.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("loading '%s': %s", c.Path, err)
	}
	var parser ninja.DepfileParser
	if err := parser.Parse(contents); err != nil {
		return fmt.Errorf("%s: %s", c.Path, err)
	}
	fmt.Printf("output: %s\n", parser.Out)
	fmt.Printf("inputs (%d):\n", len(parser.Ins))
	for _, in := range parser.Ins {
		fmt.Printf("  %s\n", in)
	}
	return nil
}
