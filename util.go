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
	"fmt"
	"os"
	"unsafe"
)

// Log a fatal message and exit.
func Fatal(msg string, s ...interface{}) {
	fmt.Fprintf(os.Stderr, "ninja: fatal: ")
	fmt.Fprintf(os.Stderr, msg, s...)
	fmt.Fprintf(os.Stderr, "\n")
	// On Windows, some tools may inject extra threads.
	// exit() may block on locks held by those threads, so forcibly exit.
	os.Stderr.Sync()
	os.Stdout.Sync()
	os.Exit(1)
}

// Log a warning message.
func Warning(msg string, s ...interface{}) {
	fmt.Fprintf(os.Stderr, "ninja: warning: ")
	fmt.Fprintf(os.Stderr, msg, s...)
	fmt.Fprintf(os.Stderr, "\n")
}

// Log an error message.
func Error(msg string, s ...interface{}) {
	fmt.Fprintf(os.Stderr, "ninja: error: ")
	fmt.Fprintf(os.Stderr, msg, s...)
	fmt.Fprintf(os.Stderr, "\n")
}

// Log an informational message.
func Info(msg string, s ...interface{}) {
	fmt.Fprintf(os.Stdout, "ninja: ")
	fmt.Fprintf(os.Stdout, msg, s...)
	fmt.Fprintf(os.Stdout, "\n")
}

// CanonicalizePath canonicalizes a path like "foo/../bar.h" into just
// "bar.h".
func CanonicalizePath(path string) string {
	// WARNING: this function is performance-critical; please benchmark
	// any changes you make to it.
	l := len(path)
	if l == 0 {
		return path
	}

	const maxPathComponents = 60
	var components [maxPathComponents]int
	componentCount := 0

	buf := []byte(path)
	dst := 0
	src := 0

	if buf[0] == '/' {
		src++
		dst++
	}

	for src < l {
		if buf[src] == '.' {
			if src+1 == l || buf[src+1] == '/' {
				// '.' component; eliminate.
				src += 2
				continue
			}
			if buf[src+1] == '.' && (src+2 == l || buf[src+2] == '/') {
				// '..' component.  Back up if possible.
				if componentCount > 0 {
					dst = components[componentCount-1]
					src += 3
					componentCount--
				} else {
					buf[dst] = buf[src]
					buf[dst+1] = buf[src+1]
					dst += 2
					src += 2
					if src < l {
						buf[dst] = buf[src]
						dst++
						src++
					}
				}
				continue
			}
		}

		if buf[src] == '/' {
			src++
			continue
		}

		if componentCount == maxPathComponents {
			Fatal("path has too many components : %s", path)
		}
		components[componentCount] = dst
		componentCount++

		for src != l && buf[src] != '/' {
			buf[dst] = buf[src]
			dst++
			src++
		}
		// Copy the component's trailing slash as well; a trailing
		// slash on the whole path is trimmed below.
		if src < l {
			buf[dst] = buf[src]
			dst++
			src++
		}
	}

	if dst == 0 {
		return "."
	}
	if dst > 1 && buf[dst-1] == '/' {
		dst--
	}
	return unsafeString(buf[:dst])
}

func IsKnownShellSafeCharacter(ch byte) bool {
	if 'A' <= ch && ch <= 'Z' {
		return true
	}
	if 'a' <= ch && ch <= 'z' {
		return true
	}
	if '0' <= ch && ch <= '9' {
		return true
	}
	switch ch {
	case '_', '+', '-', '.', '/':
		return true
	default:
		return false
	}
}

func StringNeedsShellEscaping(input string) bool {
	for i := 0; i < len(input); i++ {
		if !IsKnownShellSafeCharacter(input[i]) {
			return true
		}
	}
	return false
}

// GetShellEscapedString escapes input according to the whims of Bash.
// The string is returned unmodified if we can determine that it
// contains no problematic characters.
func GetShellEscapedString(input string) string {
	if !StringNeedsShellEscaping(input) {
		return input
	}

	const quote = byte('\'')
	const escapeSequence = "'\\'"

	result := "'"
	spanBegin := 0
	for i := 0; i < len(input); i++ {
		if input[i] == quote {
			result += input[spanBegin:i] + escapeSequence
			spanBegin = i
		}
	}
	result += input[spanBegin:] + "'"
	return result
}

// SpellcheckString returns the candidate word closest to text within a
// small edit distance, or "" when nothing is close enough.
func SpellcheckString(text string, words ...string) string {
	const maxValidEditDistance = 3
	minDistance := maxValidEditDistance + 1
	result := ""
	for _, word := range words {
		distance := editDistance(word, text, true, maxValidEditDistance)
		if distance < minDistance {
			minDistance = distance
			result = word
		}
	}
	return result
}

// unsafeString performs an unsafe conversion from a []byte to a string.
// The returned string shares the underlying memory with the []byte,
// which thus must not be modified afterwards.
func unsafeString(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// unsafeByteSlice performs an unsafe conversion from a string to a
// []byte. The returned slice must not be modified.
func unsafeByteSlice(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
