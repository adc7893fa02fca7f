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

// Package ninja implements the front end of the ninja build language:
// a lexer for the indentation-sensitive manifest syntax, a manifest
// parser that populates a build State, and a parser for the
// Makefile-style dependency files compilers emit.
//
// Parsing starts from ManifestParser.Load, which reads a manifest
// through a FileReader and declares rules, pools, variable bindings
// and the node/edge graph on a State. Variable references in rule
// bindings stay unevaluated (EvalString) until an edge provides $in
// and $out.
package ninja
