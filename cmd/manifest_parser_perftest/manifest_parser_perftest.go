// Copyright 2014 Google Inc. All Rights Reserved.
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

// Tests manifest parser performance.  Expects to be run in ninja's root
// directory.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/profile"

	"github.com/isuhao/ninja"
)

// writeFakeManifests generates a synthetic source tree the way a
// meta-build system would: a root manifest with the shared rules and
// one subninja per module. Skipped when the test data already exists.
func writeFakeManifests(dir string) error {
	disk := ninja.NewRealDiskInterface()
	mtime, err := disk.Stat(filepath.Join(dir, "build.ninja"))
	if err != nil {
		return err
	}
	if mtime != 0 {
		return nil
	}

	fmt.Printf("Creating manifest data...")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	const modules = 32
	const edgesPerModule = 128

	root := &bytes.Buffer{}
	fmt.Fprintf(root, "builddir = out\n")
	fmt.Fprintf(root, "cflags = -O2 -g -Wall -Wextra -fno-exceptions -std=c++20\n")
	fmt.Fprintf(root, "rule cc\n  command = clang++ $cflags -c $in -o $out\n  description = CC $out\n")
	fmt.Fprintf(root, "rule ar\n  command = ar rcs $out $in\n  description = AR $out\n")
	fmt.Fprintf(root, "rule link\n  command = clang++ $in -o $out\n  description = LINK $out\n")
	var libs []string
	for i := 0; i < modules; i++ {
		sub := &bytes.Buffer{}
		fmt.Fprintf(sub, "objdir = $builddir/module%03d\n", i)
		var objs []string
		for j := 0; j < edgesPerModule; j++ {
			obj := fmt.Sprintf("$objdir/source%04d.o", j)
			fmt.Fprintf(sub, "build %s: cc module%03d/source%04d.cc\n", obj, i, j)
			objs = append(objs, obj)
		}
		lib := fmt.Sprintf("$builddir/module%03d.a", i)
		fmt.Fprintf(sub, "build %s: ar", lib)
		for _, obj := range objs {
			fmt.Fprintf(sub, " %s", obj)
		}
		fmt.Fprintf(sub, "\n")
		name := fmt.Sprintf("module%03d.ninja", i)
		if err := os.WriteFile(filepath.Join(dir, name), sub.Bytes(), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(root, "subninja %s\n", name)
		libs = append(libs, lib)
	}
	fmt.Fprintf(root, "build $builddir/app: link")
	for _, lib := range libs {
		fmt.Fprintf(root, " %s", lib)
	}
	fmt.Fprintf(root, "\n")
	fmt.Fprintf(root, "default $builddir/app\n")
	if err := os.WriteFile(filepath.Join(dir, "build.ninja"), root.Bytes(), 0o644); err != nil {
		return err
	}
	fmt.Printf("done.\n")
	return nil
}

func loadManifests(measureCommandEvaluation bool) int {
	disk := ninja.NewRealDiskInterface()
	state := ninja.NewState()
	parser := ninja.NewManifestParser(&state, &disk, ninja.ManifestParserOptions{})
	if err := parser.Load("build.ninja"); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read test data: %s\n", err)
		os.Exit(1)
	}
	// Doing an empty build involves reading the manifest and evaluating all
	// commands required for the requested targets. So include command
	// evaluation in the perftest by default.
	optimizationGuard := 0
	if measureCommandEvaluation {
		for _, edge := range state.Edges {
			optimizationGuard += len(edge.EvaluateCommand(false))
		}
	}
	return optimizationGuard
}

func mainImpl() error {
	f := flag.Bool("f", false, "only measure manifest load time, not command evaluation time")
	profileDir := flag.String("profile", "", "write a CPU profile to this directory")
	flag.Parse()
	if len(flag.Args()) != 0 {
		return errors.New("unexpected arguments")
	}

	manifestDir := filepath.Join("build", "manifest_perftest")

	if err := writeFakeManifests(manifestDir); err != nil {
		return fmt.Errorf("failed to write test data: %s", err)
	}

	if *profileDir != "" {
		abs, err := filepath.Abs(*profileDir)
		if err != nil {
			return err
		}
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(abs), profile.Quiet).Stop()
	}

	if err := os.Chdir(manifestDir); err != nil {
		return err
	}

	numRepetitions := 5
	var times []time.Duration
	for i := 0; i < numRepetitions; i++ {
		start := time.Now()
		optimizationGuard := loadManifests(!*f)
		delta := time.Since(start)
		fmt.Printf("%s (hash: %x)\n", delta, optimizationGuard)
		times = append(times, delta)
	}

	min := times[0]
	max := times[0]
	total := times[0]
	for i := 1; i < len(times); i++ {
		if min > times[i] {
			min = times[i]
		}
		if max < times[i] {
			max = times[i]
		}
		total += times[i]
	}
	avg := float64(total.Milliseconds()) / float64(len(times))
	fmt.Printf("min %dms  max %dms  avg %.1fms\n", min.Milliseconds(), max.Milliseconds(), avg)
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "manifest_parser_perftest: %s\n", err)
		os.Exit(1)
	}
}
