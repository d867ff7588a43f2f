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
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"path"
	"path/filepath"
	"sync"

	"github.com/AleutianAI/preflight/services/preflight/diagnostic"
	"github.com/AleutianAI/preflight/services/preflight/vfs"
)

// goBackend produces parse and type-checking diagnostics for Go files.
//
// Description:
//
//	Go source is analyzed per directory. All files sharing a directory and
//	package clause are parsed and type-checked together, so an edit in one
//	file surfaces errors in its siblings. Results are memoized per engine
//	instance; both stages of a pass see one consistent analysis.
//
// Thread Safety: goBackend is safe for concurrent use.
type goBackend struct {
	fs    *vfs.FS
	opts  Options
	files []string

	mu   sync.Mutex
	dirs map[string]*goDirResult
}

// goDirResult holds the analysis of one directory.
type goDirResult struct {
	syntactic map[string][]diagnostic.Record
	semantic  map[string][]diagnostic.Record
}

func newGoBackend(fs *vfs.FS, files []string, opts Options) *goBackend {
	return &goBackend{
		fs:    fs,
		opts:  opts,
		files: files,
		dirs:  make(map[string]*goDirResult),
	}
}

func (b *goBackend) syntactic(ctx context.Context, file string) ([]diagnostic.Record, error) {
	res, err := b.analyzeDir(ctx, path.Dir(file))
	if err != nil {
		return nil, err
	}
	return res.syntactic[file], nil
}

func (b *goBackend) semantic(ctx context.Context, file string) ([]diagnostic.Record, error) {
	res, err := b.analyzeDir(ctx, path.Dir(file))
	if err != nil {
		return nil, err
	}
	return res.semantic[file], nil
}

// analyzeDir parses and type-checks every Go file in scope under dir,
// memoizing the result.
func (b *goBackend) analyzeDir(ctx context.Context, dir string) (*goDirResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if res, ok := b.dirs[dir]; ok {
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &goDirResult{
		syntactic: make(map[string][]diagnostic.Record),
		semantic:  make(map[string][]diagnostic.Record),
	}

	fset := token.NewFileSet()

	// Parse every in-scope file in the directory, grouping parsed files by
	// package clause so external test packages check separately.
	pkgs := make(map[string][]*ast.File)
	for _, file := range b.files {
		if !isGoFile(file) || path.Dir(file) != dir {
			continue
		}

		content, ok := b.fs.GetContent(file)
		if !ok {
			res.syntactic[file] = []diagnostic.Record{{
				File:     file,
				Message:  "file not found",
				Code:     CodeParseError,
				Category: diagnostic.CategoryError,
			}}
			continue
		}

		f, err := parser.ParseFile(fset, file, content, parser.AllErrors)
		if err != nil {
			res.syntactic[file] = parseRecords(file, err)
		} else {
			res.syntactic[file] = []diagnostic.Record{}
		}
		// A partial AST still participates in type checking so semantic
		// errors past the first syntax error remain visible.
		if f != nil && f.Name != nil {
			pkgs[f.Name.Name] = append(pkgs[f.Name.Name], f)
		}
	}

	for name, astFiles := range pkgs {
		b.typeCheck(fset, name, astFiles, res)
	}

	b.dirs[dir] = res
	return res, nil
}

// typeCheck runs go/types over one package's files, appending a semantic
// record per reported error.
func (b *goBackend) typeCheck(fset *token.FileSet, pkgName string, astFiles []*ast.File, res *goDirResult) {
	pkgPath := pkgName
	if b.opts.GoModulePath != "" {
		pkgPath = path.Join(b.opts.GoModulePath, pkgName)
	}

	conf := types.Config{
		Importer: importer.Default(),
		Error: func(err error) {
			terr, ok := err.(types.Error)
			if !ok {
				return
			}
			pos := terr.Fset.Position(terr.Pos)
			file := filepath.ToSlash(pos.Filename)

			category := diagnostic.CategoryError
			if terr.Soft {
				category = diagnostic.CategoryWarning
			}
			res.semantic[file] = append(res.semantic[file], diagnostic.Record{
				File:     file,
				Start:    pos.Offset,
				Message:  terr.Msg,
				Code:     CodeTypeError,
				Category: category,
			})
		},
	}

	// Errors flow through conf.Error; Check's return only duplicates the
	// first of them.
	_, _ = conf.Check(pkgPath, fset, astFiles, nil)
}

// parseRecords converts a parser error into diagnostic records. The parser
// reports a scanner.ErrorList when it can recover, a single opaque error
// otherwise.
func parseRecords(file string, err error) []diagnostic.Record {
	list, ok := err.(scanner.ErrorList)
	if !ok {
		return []diagnostic.Record{{
			File:     file,
			Message:  fmt.Sprintf("parse failed: %v", err),
			Code:     CodeParseError,
			Category: diagnostic.CategoryError,
		}}
	}

	records := make([]diagnostic.Record, 0, len(list))
	for i, e := range list {
		if i >= maxSyntaxRecords {
			break
		}
		records = append(records, diagnostic.Record{
			File:     file,
			Start:    e.Pos.Offset,
			Message:  e.Msg,
			Code:     CodeSyntaxError,
			Category: diagnostic.CategoryError,
		})
	}
	return records
}
