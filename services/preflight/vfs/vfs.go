// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package vfs provides an in-memory content overlay over the real filesystem.
//
// An FS instance shadows specific files with in-memory content while all other
// reads fall through to disk. It never writes to disk. One validation request
// owns exactly two instances: an empty overlay for the baseline pass and a
// populated overlay for the edited pass.
//
// Thread Safety: FS is safe for concurrent reads after the overlay has been
// populated. Population (SetContent) and reads must not race; the validation
// pipeline populates the overlay fully before handing the FS to an engine.
package vfs

import (
	"os"
	"path/filepath"
)

// FS is a path-keyed content overlay with disk fallback.
//
// Overlay keys are normalized absolute paths (forward slashes). Once a path
// has been set, its content is fixed for the lifetime of this instance
// regardless of concurrent changes to the file on disk.
type FS struct {
	overlay map[string]string
}

// New creates an FS with an empty overlay. All reads fall through to disk
// until SetContent is called.
func New() *FS {
	return &FS{overlay: make(map[string]string)}
}

// NormalizePath converts a path to the canonical overlay key: absolute,
// cleaned, forward slashes. Relative paths are resolved against root.
func NormalizePath(root, path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	return filepath.ToSlash(filepath.Clean(path))
}

// GetContent returns the content for path. The overlay wins over disk. The
// second return is false when neither the overlay nor disk has the path.
func (f *FS) GetContent(path string) (string, bool) {
	if content, ok := f.overlay[path]; ok {
		return content, true
	}
	data, err := os.ReadFile(filepath.FromSlash(path))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// SetContent inserts or overwrites an overlay entry. Disk is never touched.
func (f *FS) SetContent(path, content string) {
	f.overlay[path] = content
}

// Exists reports whether the path is present in the overlay or on disk.
func (f *FS) Exists(path string) bool {
	if _, ok := f.overlay[path]; ok {
		return true
	}
	_, err := os.Stat(filepath.FromSlash(path))
	return err == nil
}

// OverlayLen returns the number of overlay entries. Used for telemetry.
func (f *FS) OverlayLen() int {
	return len(f.overlay)
}
