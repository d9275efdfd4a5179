// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package changelog

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalAccessor implements Accessor over a local directory, mirroring
// the teacher's migrate.LocalDir: a thin os.Open wrapper scoped to a
// base path, with nothing else (no caching, no locking).
type LocalAccessor struct {
	path string
}

// NewLocalAccessor returns an Accessor rooted at path.
func NewLocalAccessor(path string) (*LocalAccessor, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("changelog: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("changelog: %q is not a dir", path)
	}
	return &LocalAccessor{path: path}, nil
}

// Open implements Accessor.
func (a *LocalAccessor) Open(name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(a.path, name))
}

// OpenFS opens name relative to the base path and returns it as an
// fs.File. LocalAccessor itself does not implement fs.FS, since its Open
// method returns an io.ReadCloser.
func (a *LocalAccessor) OpenFS(name string) (fs.File, error) {
	return os.Open(filepath.Join(a.path, name))
}

var _ Accessor = (*LocalAccessor)(nil)

// StaticAccessor is an in-memory Accessor keyed by name, useful for
// tests and for callers embedding changelog content that didn't come
// from a directory (e.g. fetched over the network by the caller).
type StaticAccessor map[string][]byte

// Open implements Accessor.
func (a StaticAccessor) Open(name string) (io.ReadCloser, error) {
	b, ok := a[name]
	if !ok {
		return nil, fmt.Errorf("changelog: %q not found", name)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

var _ Accessor = StaticAccessor(nil)
