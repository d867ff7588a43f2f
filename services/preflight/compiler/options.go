// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package compiler provides request-scoped analysis engines for validation
// passes. An Engine reads exclusively through an overlay filesystem, so the
// same project can be analyzed in its baseline and edited states without
// touching disk.
//
// Thread Safety: Options values are immutable after Discover returns and may
// be shared across engines. Engine instances are safe for concurrent use.
package compiler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// Options holds the effective analysis configuration for a project.
//
// Description:
//
//	Options mirrors the subset of compiler configuration that affects
//	diagnostics. It is resolved once per request from the project's config
//	file (tsconfig.json, jsconfig.json, or go.mod) and shared read-only by
//	both validation passes.
//
//	Only Exclude and GoModulePath change engine behavior today. The
//	TypeScript-family fields (ModuleResolution, JSX, Strict, NoEmit,
//	ResolveJSONModule, ForceConsistentCasing) are parsed and merged for
//	config compatibility; the tree-sitter backend is syntax-only and does
//	not consult them.
type Options struct {
	// ConfigPath is the absolute path of the config file the options were
	// loaded from. Empty when defaults are in effect.
	ConfigPath string

	// ModuleResolution selects the import resolution strategy.
	ModuleResolution string

	// JSX selects the JSX transform mode.
	JSX string

	// Strict enables the strict diagnostic family.
	Strict bool

	// NoEmit is always true here; validation never writes output files.
	NoEmit bool

	// ResolveJSONModule allows importing .json files.
	ResolveJSONModule bool

	// ForceConsistentCasing rejects imports whose casing differs from disk.
	ForceConsistentCasing bool

	// Exclude holds glob-free directory names or root-relative directory
	// paths excluded from file discovery, merged from defaults and the
	// config file's exclude list.
	Exclude []string

	// GoModulePath is the module path from go.mod when the project is a Go
	// module, empty otherwise.
	GoModulePath string
}

// defaultExcludes are directory names skipped during project file discovery
// regardless of configuration.
var defaultExcludes = []string{"node_modules", "vendor", ".git", "dist", "build"}

// DefaultOptions returns the options used when no config file is found.
func DefaultOptions() Options {
	return Options{
		ModuleResolution:      "node",
		JSX:                   "react-jsx",
		Strict:                true,
		NoEmit:                true,
		ResolveJSONModule:     true,
		ForceConsistentCasing: true,
		Exclude:               append([]string(nil), defaultExcludes...),
	}
}

// tsconfigFile is the JSON shape of the config fields we consume. Extra
// fields are ignored.
type tsconfigFile struct {
	CompilerOptions struct {
		ModuleResolution                 *string `json:"moduleResolution"`
		JSX                              *string `json:"jsx"`
		Strict                           *bool   `json:"strict"`
		ResolveJSONModule                *bool   `json:"resolveJsonModule"`
		ForceConsistentCasingInFileNames *bool   `json:"forceConsistentCasingInFileNames"`
	} `json:"compilerOptions"`
	Exclude []string `json:"exclude"`
}

// Discover resolves analysis options for a project root.
//
// Description:
//
//	Discover walks from root upward looking for tsconfig.json, then
//	jsconfig.json, stopping at the filesystem root. The first file found
//	wins. Fields absent from the file keep their defaults. Config files may
//	contain // and /* */ comments, which are stripped before parsing. A
//	go.mod at the project root additionally contributes the module path for
//	Go analysis.
//
// Inputs:
//
//	root - Absolute project root directory.
//
// Outputs:
//
//	Options - The effective options, defaults when no config exists.
//	error - Non-nil only when a config file exists but cannot be parsed.
func Discover(root string) (Options, error) {
	opts := DefaultOptions()

	if path, data, ok := findConfig(root); ok {
		var cfg tsconfigFile
		if err := json.Unmarshal(stripJSONComments(data), &cfg); err != nil {
			return opts, fmt.Errorf("parse %s: %w", path, err)
		}
		opts.ConfigPath = path
		co := cfg.CompilerOptions
		if co.ModuleResolution != nil {
			opts.ModuleResolution = *co.ModuleResolution
		}
		if co.JSX != nil {
			opts.JSX = *co.JSX
		}
		if co.Strict != nil {
			opts.Strict = *co.Strict
		}
		if co.ResolveJSONModule != nil {
			opts.ResolveJSONModule = *co.ResolveJSONModule
		}
		if co.ForceConsistentCasingInFileNames != nil {
			opts.ForceConsistentCasing = *co.ForceConsistentCasingInFileNames
		}
		for _, ex := range cfg.Exclude {
			// Pattern-free directory entries only; glob patterns from real
			// configs degrade to their leading literal segment.
			seg := strings.TrimSuffix(ex, "/**")
			seg = strings.TrimSuffix(seg, "/*")
			seg = strings.TrimPrefix(seg, "./")
			if seg != "" && !strings.ContainsAny(seg, "*?[") {
				opts.Exclude = append(opts.Exclude, filepath.ToSlash(seg))
			}
		}
	}

	if data, err := os.ReadFile(filepath.Join(root, "go.mod")); err == nil {
		opts.GoModulePath = modfile.ModulePath(data)
	}

	return opts, nil
}

// findConfig walks from root toward the filesystem root looking for a
// config file. tsconfig.json takes precedence over jsconfig.json within
// the same directory.
func findConfig(root string) (string, []byte, bool) {
	dir := root
	for {
		for _, name := range []string{"tsconfig.json", "jsconfig.json"} {
			path := filepath.Join(dir, name)
			if data, err := os.ReadFile(path); err == nil {
				return path, data, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil, false
		}
		dir = parent
	}
}

// stripJSONComments removes // line comments and /* */ block comments from
// JSONC input so it can be parsed as plain JSON. String contents are left
// untouched.
func stripJSONComments(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString := false
	escaped := false

	for i := 0; i < len(data); i++ {
		c := data[i]

		if inString {
			out = append(out, c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}

		switch {
		case c == '"':
			inString = true
			out = append(out, c)
		case c == '/' && i+1 < len(data) && data[i+1] == '/':
			for i < len(data) && data[i] != '\n' {
				i++
			}
			if i < len(data) {
				out = append(out, '\n')
			}
		case c == '/' && i+1 < len(data) && data[i+1] == '*':
			i += 2
			for i+1 < len(data) && !(data[i] == '*' && data[i+1] == '/') {
				i++
			}
			i++ // skip the closing '/'
		default:
			out = append(out, c)
		}
	}
	return out
}
