// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package compiler

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/preflight/services/preflight/diagnostic"
	"github.com/AleutianAI/preflight/services/preflight/vfs"
)

// Diagnostic codes grouped by producing stage. Codes are stable across
// releases; clients key on them.
const (
	// CodeSyntaxError marks an unexpected token reported by the parser.
	CodeSyntaxError = 1000

	// CodeMissingNode marks a token the parser recovered by inserting.
	CodeMissingNode = 1001

	// CodeParseError marks a file the parser could not process at all.
	CodeParseError = 1100

	// CodeTypeError marks a semantic (type checking) failure.
	CodeTypeError = 2000
)

// Engine analyzes one snapshot of a project.
//
// Description:
//
//	Engine dispatches per-file analysis to a language backend chosen by
//	file extension. Go files get full parse and type checking through the
//	standard toolchain libraries; TypeScript, JavaScript, Python, Rust, and
//	Bash files get tree-sitter syntax analysis. All reads go through the
//	engine's overlay filesystem, so two engines over the same root can see
//	different content.
//
// Thread Safety: Engine is safe for concurrent use.
type Engine struct {
	fs    *vfs.FS
	opts  Options
	files []string

	gobe *goBackend
	tsbe *sitterBackend
}

// NewEngine creates an engine over one project snapshot.
//
// Inputs:
//
//	fs - Overlay filesystem the engine reads through, never nil.
//	files - Absolute paths of every file in the analysis scope.
//	opts - Resolved analysis options, shared read-only.
//
// Outputs:
//
//	*Engine - The configured engine, never nil.
func NewEngine(fs *vfs.FS, files []string, opts Options) *Engine {
	return &Engine{
		fs:    fs,
		opts:  opts,
		files: files,
		gobe:  newGoBackend(fs, files, opts),
		tsbe:  newSitterBackend(fs),
	}
}

// SyntacticDiagnostics returns parse-stage diagnostics for one file.
//
// Outputs:
//
//	[]diagnostic.Record - Diagnostics, empty when the file parses cleanly.
//	error - Non-nil when the file cannot be analyzed at all; the caller
//	        treats this as zero diagnostics for the file.
func (e *Engine) SyntacticDiagnostics(ctx context.Context, file string) ([]diagnostic.Record, error) {
	if isGoFile(file) {
		return e.gobe.syntactic(ctx, file)
	}
	return e.tsbe.syntactic(ctx, file)
}

// SemanticDiagnostics returns type-checking diagnostics for one file.
//
// Files handled by the tree-sitter backend have no semantic stage and
// always yield an empty list.
func (e *Engine) SemanticDiagnostics(ctx context.Context, file string) ([]diagnostic.Record, error) {
	if isGoFile(file) {
		return e.gobe.semantic(ctx, file)
	}
	return nil, nil
}

// Supported reports whether the engine has a backend for the file.
func Supported(file string) bool {
	if isGoFile(file) {
		return true
	}
	return sitterLanguageFor(file) != nil
}

func isGoFile(file string) bool {
	return strings.ToLower(filepath.Ext(file)) == ".go"
}
