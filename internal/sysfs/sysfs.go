/**
 * Copyright (c) 2024 Peking University and Peking University
 * Changsha Institute for Computing and Digital Economy
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

// Package sysfs reads and writes kernel attribute files.
//
// Attributes are never created: writing to a path that does not exist is an
// error, the same as on a real sysfs mount.
package sysfs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

type Reader interface {
	ReadAttr(path string) (string, error)
}

type Writer interface {
	WriteAttr(path, value string) error
}

type ReadWriter interface {
	Reader
	Writer
}

// WriteError is returned when an attribute write fails.
type WriteError struct {
	Path  string
	Value string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %q to %s: %v", e.Value, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

type FS struct {
	fs afero.Fs
}

func New(fs afero.Fs) *FS {
	return &FS{fs: fs}
}

// NewOs returns an FS backed by the real filesystem.
func NewOs() *FS {
	return New(afero.NewOsFs())
}

func (f *FS) ReadAttr(path string) (string, error) {
	data, err := afero.ReadFile(f.fs, path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (f *FS) WriteAttr(path, value string) error {
	file, err := f.fs.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return &WriteError{Path: path, Value: value, Err: err}
	}

	_, err = file.WriteString(value)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return &WriteError{Path: path, Value: value, Err: err}
	}

	log.Tracef("Wrote %q to %s", value, path)
	return nil
}

// Exists reports whether path exists. Stat errors other than "not exist"
// count as existing.
func (f *FS) Exists(path string) bool {
	ok, err := afero.Exists(f.fs, path)
	if err != nil {
		return true
	}
	return ok
}

// SubDirs returns the immediate subdirectories of root whose names match the
// glob pattern, sorted by name. A missing root yields no entries.
func (f *FS) SubDirs(root, pattern string) ([]string, error) {
	entries, err := afero.ReadDir(f.fs, root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []string
	for _, entry := range entries {
		matched, err := filepath.Match(pattern, entry.Name())
		if err != nil {
			return nil, err
		}
		if !matched {
			continue
		}
		path := filepath.Join(root, entry.Name())
		// hwmon entries are usually symlinks into the class tree.
		if !entry.IsDir() {
			if isDir, _ := afero.IsDir(f.fs, path); !isDir {
				continue
			}
		}
		dirs = append(dirs, path)
	}
	sort.Strings(dirs)
	return dirs, nil
}
