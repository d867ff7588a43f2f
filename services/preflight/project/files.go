// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package project discovers the set of source files that participate in a
// validation pass.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/AleutianAI/preflight/services/preflight/compiler"
)

// ErrTooLarge is returned when discovery exceeds the configured file limit.
var ErrTooLarge = errors.New("project exceeds file limit")

// Discover walks the project root collecting analyzable source files.
//
// Description:
//
//	Discover returns the absolute, slash-normalized paths of every file
//	under root whose extension has an analysis backend, skipping the
//	directories excluded by opts. The result is sorted so both validation
//	passes see the same ordering. Discovery aborts with ErrTooLarge once
//	more than limit files accumulate, keeping a request from walking a
//	monorepo.
//
// Inputs:
//
//	root - Absolute project root directory.
//	opts - Resolved options carrying the exclude list.
//	limit - Maximum number of files, must be positive.
//	maxFileSize - Maximum size in bytes of one file; larger files are
//	              skipped. Zero means no size cap.
//
// Outputs:
//
//	[]string - Sorted absolute file paths.
//	error - ErrTooLarge past the limit, otherwise any walk failure.
func Discover(root string, opts compiler.Options, limit int, maxFileSize int64) ([]string, error) {
	excluded := make(map[string]bool, len(opts.Exclude))
	for _, name := range opts.Exclude {
		excluded[name] = true
	}

	files := make([]string, 0, 64)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped rather than failing the pass.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if excluded[d.Name()] {
				return filepath.SkipDir
			}
			// Multi-segment excludes from config files match against the
			// root-relative path.
			if rel, relErr := filepath.Rel(root, path); relErr == nil && excluded[filepath.ToSlash(rel)] {
				return filepath.SkipDir
			}
			return nil
		}
		if !compiler.Supported(path) {
			return nil
		}
		if maxFileSize > 0 {
			info, infoErr := d.Info()
			if infoErr != nil || info.Size() > maxFileSize {
				return nil
			}
		}
		if len(files) >= limit {
			return ErrTooLarge
		}
		files = append(files, filepath.ToSlash(path))
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return nil, fmt.Errorf("%w: more than %d files under %s", ErrTooLarge, limit, root)
		}
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

// Union merges discovered files with additional paths, deduplicating and
// keeping the sorted order. Edit targets that create new files enter the
// analysis scope through here.
func Union(files []string, extra ...string) []string {
	seen := make(map[string]bool, len(files)+len(extra))
	out := make([]string, 0, len(files)+len(extra))
	for _, f := range files {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, f := range extra {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}
