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
	"os"
	"path/filepath"
	"syscall"
)

// TimeStamp is a file modification time in microseconds since the
// epoch. -1 means the file hasn't been examined, 0 that it is missing.
type TimeStamp int64

// Interface for reading files from disk.  See DiskInterface for details.
// This base offers the minimum interface needed just to read files.
type FileReader interface {
	// ReadFile reads a file and returns its content.
	//
	// If the content is not empty, it appends a zero byte at the end of the
	// slice.
	ReadFile(path string) ([]byte, error)
}

// Interface for accessing the disk.
//
// Abstract so it can be mocked out for tests.  The real implementation
// is RealDiskInterface.
type DiskInterface interface {
	FileReader

	// Stat stat()'s a file, returning the mtime, or 0 if missing and -1 on
	// other errors.
	Stat(path string) (TimeStamp, error)

	// MakeDir creates a directory, returning false on failure.
	MakeDir(path string) error

	// WriteFile creates a file, with the specified name and contents
	WriteFile(path, contents string) error

	// RemoveFile removes the file named path.
	//
	// It should return an error that matches os.IsNotExist() if the file was
	// not present.
	RemoveFile(path string) error
}

func dirName(path string) string {
	return filepath.Dir(path)
}

func statSingleFile(path string) (TimeStamp, error) {
	s, err := os.Stat(path)
	if err != nil {
		// See TestDiskInterface_StatMissingFile for rationale for the
		// ENOTDIR check.
		if os.IsNotExist(err) || errors.Unwrap(err) == syscall.ENOTDIR {
			return 0, nil
		}
		return -1, err
	}
	return TimeStamp(s.ModTime().UnixMicro()), nil
}

// MakeDirs creates all the parent directories for path; like
// mkdir -p `basename path`.
func MakeDirs(d DiskInterface, path string) error {
	dir := dirName(path)
	if dir == path || dir == "." || dir == "" {
		return nil // Reached root; assume it's there.
	}
	mtime, err := d.Stat(dir)
	if mtime < 0 {
		return err
	}
	if mtime > 0 {
		return nil // Exists already; we're done.
	}

	// Directory doesn't exist.  Try creating its parent first.
	if err := MakeDirs(d, dir); err != nil {
		return err
	}
	return d.MakeDir(dir)
}

//

// Implementation of DiskInterface that actually hits the disk.
type RealDiskInterface struct{}

func NewRealDiskInterface() RealDiskInterface {
	return RealDiskInterface{}
}

func (r *RealDiskInterface) Stat(path string) (TimeStamp, error) {
	defer metricRecord("node stat")()
	return statSingleFile(path)
}

func (r *RealDiskInterface) WriteFile(path string, contents string) error {
	return os.WriteFile(path, unsafeByteSlice(contents), 0o666)
}

func (r *RealDiskInterface) MakeDir(path string) error {
	return os.Mkdir(path, 0o777)
}

func (r *RealDiskInterface) ReadFile(path string) ([]byte, error) {
	c, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(c) != 0 {
		// os.ReadFile reserves a spare byte; reuse it for the
		// trailing NUL the lexer tolerates.
		c = append(c, 0)
	}
	return c, nil
}

func (r *RealDiskInterface) RemoveFile(path string) error {
	return os.Remove(path)
}
