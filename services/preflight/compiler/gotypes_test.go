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
	"testing"

	"github.com/AleutianAI/preflight/services/preflight/diagnostic"
	"github.com/AleutianAI/preflight/services/preflight/vfs"
)

func goFixture(t *testing.T, files map[string]string) *Engine {
	t.Helper()
	fs := vfs.New()
	paths := make([]string, 0, len(files))
	for path, content := range files {
		fs.SetContent(path, content)
		paths = append(paths, path)
	}
	return NewEngine(fs, paths, DefaultOptions())
}

func TestGoBackend_CleanPackage(t *testing.T) {
	eng := goFixture(t, map[string]string{
		"/p/a.go": "package p\n\nfunc Double(x int) int { return x * 2 }\n",
		"/p/b.go": "package p\n\nvar _ = Double(5)\n",
	})

	ctx := context.Background()
	for _, file := range []string{"/p/a.go", "/p/b.go"} {
		syn, err := eng.SyntacticDiagnostics(ctx, file)
		if err != nil {
			t.Fatalf("SyntacticDiagnostics(%s) error = %v", file, err)
		}
		if len(syn) != 0 {
			t.Errorf("SyntacticDiagnostics(%s) = %v, want none", file, syn)
		}
		sem, err := eng.SemanticDiagnostics(ctx, file)
		if err != nil {
			t.Fatalf("SemanticDiagnostics(%s) error = %v", file, err)
		}
		if len(sem) != 0 {
			t.Errorf("SemanticDiagnostics(%s) = %v, want none", file, sem)
		}
	}
}

func TestGoBackend_SyntaxError(t *testing.T) {
	eng := goFixture(t, map[string]string{
		"/p/a.go": "package p\n\nfunc broken( {\n",
	})

	records, err := eng.SyntacticDiagnostics(context.Background(), "/p/a.go")
	if err != nil {
		t.Fatalf("SyntacticDiagnostics() error = %v", err)
	}
	if len(records) == 0 {
		t.Fatal("SyntacticDiagnostics() = 0 records for malformed source")
	}
	if records[0].Code != CodeSyntaxError {
		t.Errorf("record code = %d, want %d", records[0].Code, CodeSyntaxError)
	}
}

func TestGoBackend_TypeErrorInSiblingFile(t *testing.T) {
	// Changing a signature in a.go must surface the error at the call site
	// in b.go even though b.go itself was not modified.
	eng := goFixture(t, map[string]string{
		"/p/a.go": "package p\n\nfunc Double(x string) string { return x + x }\n",
		"/p/b.go": "package p\n\nvar _ = Double(5)\n",
	})

	ctx := context.Background()

	aRecs, err := eng.SemanticDiagnostics(ctx, "/p/a.go")
	if err != nil {
		t.Fatalf("SemanticDiagnostics(a.go) error = %v", err)
	}
	if len(aRecs) != 0 {
		t.Errorf("SemanticDiagnostics(a.go) = %v, want none", aRecs)
	}

	bRecs, err := eng.SemanticDiagnostics(ctx, "/p/b.go")
	if err != nil {
		t.Fatalf("SemanticDiagnostics(b.go) error = %v", err)
	}
	if len(bRecs) == 0 {
		t.Fatal("SemanticDiagnostics(b.go) = 0 records, want a type error at the call site")
	}
	if bRecs[0].Code != CodeTypeError {
		t.Errorf("record code = %d, want %d", bRecs[0].Code, CodeTypeError)
	}
	if bRecs[0].Category != diagnostic.CategoryError {
		t.Errorf("record category = %v, want error", bRecs[0].Category)
	}
}

func TestGoBackend_OverlayContentWins(t *testing.T) {
	// Two engines over the same file list but different overlays must
	// disagree about the same file.
	files := []string{"/p/a.go", "/p/b.go"}
	base := vfs.New()
	base.SetContent("/p/a.go", "package p\n\nfunc Double(x int) int { return x * 2 }\n")
	base.SetContent("/p/b.go", "package p\n\nvar _ = Double(5)\n")

	edited := vfs.New()
	edited.SetContent("/p/a.go", "package p\n\nfunc Double(x string) string { return x + x }\n")
	edited.SetContent("/p/b.go", "package p\n\nvar _ = Double(5)\n")

	opts := DefaultOptions()
	ctx := context.Background()

	baseRecs, err := NewEngine(base, files, opts).SemanticDiagnostics(ctx, "/p/b.go")
	if err != nil {
		t.Fatalf("baseline SemanticDiagnostics() error = %v", err)
	}
	if len(baseRecs) != 0 {
		t.Errorf("baseline records = %v, want none", baseRecs)
	}

	editRecs, err := NewEngine(edited, files, opts).SemanticDiagnostics(ctx, "/p/b.go")
	if err != nil {
		t.Fatalf("edited SemanticDiagnostics() error = %v", err)
	}
	if len(editRecs) == 0 {
		t.Error("edited records = 0, want a type error introduced by the overlay")
	}
}

func TestGoBackend_PartialASTStillTypeChecks(t *testing.T) {
	// A syntax error in one function must not hide type errors elsewhere
	// in the file.
	eng := goFixture(t, map[string]string{
		"/p/a.go": "package p\n\nvar x int = \"nope\"\n\nfunc broken( {\n",
	})

	ctx := context.Background()
	syn, err := eng.SyntacticDiagnostics(ctx, "/p/a.go")
	if err != nil {
		t.Fatalf("SyntacticDiagnostics() error = %v", err)
	}
	if len(syn) == 0 {
		t.Error("SyntacticDiagnostics() = 0 records, want syntax errors")
	}

	sem, err := eng.SemanticDiagnostics(ctx, "/p/a.go")
	if err != nil {
		t.Fatalf("SemanticDiagnostics() error = %v", err)
	}
	if len(sem) == 0 {
		t.Error("SemanticDiagnostics() = 0 records, want the string-to-int mismatch")
	}
}

func TestSupported(t *testing.T) {
	tests := []struct {
		file string
		want bool
	}{
		{"/p/a.go", true},
		{"/p/a.ts", true},
		{"/p/a.tsx", true},
		{"/p/a.js", true},
		{"/p/a.py", true},
		{"/p/a.rs", true},
		{"/p/a.sh", true},
		{"/p/a.md", false},
		{"/p/a.css", false},
	}
	for _, tt := range tests {
		if got := Supported(tt.file); got != tt.want {
			t.Errorf("Supported(%s) = %v, want %v", tt.file, got, tt.want)
		}
	}
}
