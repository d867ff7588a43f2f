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
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/AleutianAI/preflight/services/preflight/diagnostic"
	"github.com/AleutianAI/preflight/services/preflight/vfs"
)

// maxSyntaxRecords caps diagnostics per file on heavily malformed input.
const maxSyntaxRecords = 50

// sitterBackend produces syntax diagnostics with tree-sitter.
//
// Thread Safety: sitterBackend is safe for concurrent use. Tree-sitter
// parsers are not, so a fresh parser is created per call.
type sitterBackend struct {
	fs *vfs.FS
}

func newSitterBackend(fs *vfs.FS) *sitterBackend {
	return &sitterBackend{fs: fs}
}

// sitterLanguageFor maps a file path to its grammar, nil when unsupported.
// TSX and JSX need the tsx grammar; the plain typescript grammar rejects
// JSX syntax.
func sitterLanguageFor(file string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	case ".tsx", ".jsx":
		return tsx.GetLanguage()
	case ".js", ".mjs", ".cjs":
		return javascript.GetLanguage()
	case ".py", ".pyi":
		return python.GetLanguage()
	case ".rs":
		return rust.GetLanguage()
	case ".sh", ".bash":
		return bash.GetLanguage()
	default:
		return nil
	}
}

func (b *sitterBackend) syntactic(ctx context.Context, file string) ([]diagnostic.Record, error) {
	lang := sitterLanguageFor(file)
	if lang == nil {
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(file))
	}

	content, ok := b.fs.GetContent(file)
	if !ok {
		return nil, fmt.Errorf("file not found: %s", file)
	}
	src := []byte(content)

	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	defer tree.Close()

	records := make([]diagnostic.Record, 0)
	collectErrorNodes(tree.RootNode(), src, file, &records, 0)
	return records, nil
}

// collectErrorNodes walks the tree appending a record per ERROR or MISSING
// node. Depth is bounded to keep pathological trees from overflowing the
// stack.
func collectErrorNodes(node *sitter.Node, src []byte, file string, records *[]diagnostic.Record, depth int) {
	if depth > 1000 || len(*records) >= maxSyntaxRecords {
		return
	}

	if node.IsError() || node.IsMissing() {
		start := int(node.StartByte())
		end := int(node.EndByte())
		if end > len(src) {
			end = len(src)
		}
		if start > end {
			start = end
		}

		code := CodeSyntaxError
		msg := "Syntax error"
		if node.IsMissing() {
			code = CodeMissingNode
			msg = fmt.Sprintf("Missing %s", node.Type())
		} else if end > start && end-start < 100 {
			msg = fmt.Sprintf("Unexpected: %s", truncate(string(src[start:end]), 50))
		}

		*records = append(*records, diagnostic.Record{
			File:     file,
			Start:    start,
			Length:   end - start,
			Message:  msg,
			Code:     code,
			Category: diagnostic.CategoryError,
		})
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		collectErrorNodes(node.Child(i), src, file, records, depth+1)
	}
}

// truncate shortens a string to the given length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
