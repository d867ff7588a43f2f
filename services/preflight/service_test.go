// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/preflight/services/preflight/edit"
)

func strPtr(s string) *string { return &s }

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func newTestService() *Service {
	return NewService(DefaultServiceConfig())
}

func TestValidateEdits_SignatureChangeBreaksCaller(t *testing.T) {
	root := writeProject(t, map[string]string{
		"a.go": "package p\n\nfunc Double(x int) int { return x * 2 }\n",
		"b.go": "package p\n\nvar _ = Double(5)\n",
	})

	result, err := newTestService().ValidateEdits(context.Background(), root, []edit.Proposed{
		{
			File:    "a.go",
			OldText: strPtr("func Double(x int) int { return x * 2 }"),
			NewText: strPtr("func Double(x string) string { return x + x }"),
		},
	})
	require.NoError(t, err)

	assert.False(t, result.Safe)
	require.Len(t, result.EditResults, 1)
	assert.True(t, result.EditResults[0].Applied)
	assert.Greater(t, result.EditResults[0].ErrorsIntroduced, 0)

	require.NotEmpty(t, result.NewErrors)
	// The break surfaces at the call site in the untouched file and is
	// attributed to the edit that caused it.
	found := false
	for _, ne := range result.NewErrors {
		if filepath.Base(ne.File) == "b.go" {
			found = true
			assert.Equal(t, 0, ne.CausedByEdit.EditIndex)
			assert.Equal(t, filepath.Join(root, "a.go"), filepath.FromSlash(ne.CausedByEdit.File))
		}
	}
	assert.True(t, found, "expected a new error in b.go, got %+v", result.NewErrors)
}

func TestValidateEdits_SafeEdit(t *testing.T) {
	root := writeProject(t, map[string]string{
		"a.go": "package p\n\nfunc Double(x int) int { return x * 2 }\n",
		"b.go": "package p\n\nvar _ = Double(5)\n",
	})

	result, err := newTestService().ValidateEdits(context.Background(), root, []edit.Proposed{
		{
			File:    "a.go",
			OldText: strPtr("return x * 2"),
			NewText: strPtr("return x + x"),
		},
	})
	require.NoError(t, err)

	assert.True(t, result.Safe)
	assert.Empty(t, result.NewErrors)
	assert.Equal(t, "All 1 edit(s) are safe to apply", result.Summary)
	assert.True(t, result.EditResults[0].Applied)
	assert.NotEmpty(t, result.EditResults[0].Diff)
}

func TestValidateEdits_PreExistingErrorsCancel(t *testing.T) {
	// broken.go is broken before and after the edit; only the diff counts.
	root := writeProject(t, map[string]string{
		"broken.go": "package q\n\nvar x int = \"nope\"\n",
		"app.ts":    "export const version = 1;\n",
	})

	result, err := newTestService().ValidateEdits(context.Background(), root, []edit.Proposed{
		{
			File:    "app.ts",
			OldText: strPtr("version = 1"),
			NewText: strPtr("version = 2"),
		},
	})
	require.NoError(t, err)

	assert.True(t, result.Safe)
	assert.Empty(t, result.NewErrors, "pre-existing diagnostics must not be reported")
}

func TestValidateEdits_SyntaxBreakInTypeScript(t *testing.T) {
	root := writeProject(t, map[string]string{
		"app.ts": "export function greet(name: string): string {\n  return name;\n}\n",
	})

	result, err := newTestService().ValidateEdits(context.Background(), root, []edit.Proposed{
		{
			File:    "app.ts",
			OldText: strPtr("return name;\n}"),
			NewText: strPtr("return name;\n"),
		},
	})
	require.NoError(t, err)

	assert.False(t, result.Safe)
	require.NotEmpty(t, result.NewErrors)
	assert.Equal(t, 0, result.NewErrors[0].CausedByEdit.EditIndex)
}

func TestValidateEdits_NoMatchFailsEditOnly(t *testing.T) {
	root := writeProject(t, map[string]string{
		"a.ts": "const x = 1;\n",
		"b.ts": "const y = 2;\n",
	})

	result, err := newTestService().ValidateEdits(context.Background(), root, []edit.Proposed{
		{File: "a.ts", OldText: strPtr("not present"), NewText: strPtr("z")},
		{File: "b.ts", OldText: strPtr("const y = 2;"), NewText: strPtr("const y = 3;")},
	})
	require.NoError(t, err)

	assert.False(t, result.Safe, "a failed edit makes the batch unsafe")
	assert.False(t, result.EditResults[0].Applied)
	assert.NotEmpty(t, result.EditResults[0].Error)
	assert.True(t, result.EditResults[1].Applied, "later edits still apply")
	assert.Contains(t, result.Summary, "1 edit(s) failed to apply")
}

func TestValidateEdits_AmbiguousMatchFails(t *testing.T) {
	root := writeProject(t, map[string]string{
		"a.ts": "let a = 0;\nlet a2 = 0;\n",
	})

	result, err := newTestService().ValidateEdits(context.Background(), root, []edit.Proposed{
		{File: "a.ts", OldText: strPtr("= 0;"), NewText: strPtr("= 1;")},
	})
	require.NoError(t, err)

	assert.False(t, result.EditResults[0].Applied)
	assert.Contains(t, result.EditResults[0].Error, "2 times")
}

func TestValidateEdits_NewFileViaContent(t *testing.T) {
	root := writeProject(t, map[string]string{
		"a.go": "package p\n\nfunc Double(x int) int { return x * 2 }\n",
	})

	result, err := newTestService().ValidateEdits(context.Background(), root, []edit.Proposed{
		{
			File:    "c.go",
			Content: strPtr("package p\n\nvar _ = Double(21)\n"),
		},
	})
	require.NoError(t, err)

	assert.True(t, result.Safe)
	assert.True(t, result.EditResults[0].Applied)
}

func TestValidateEdits_SequentialEditsCompose(t *testing.T) {
	// The second edit matches text the first edit introduced.
	root := writeProject(t, map[string]string{
		"a.ts": "const x = 1;\n",
	})

	result, err := newTestService().ValidateEdits(context.Background(), root, []edit.Proposed{
		{File: "a.ts", OldText: strPtr("const x = 1;"), NewText: strPtr("const y = 1;")},
		{File: "a.ts", OldText: strPtr("const y = 1;"), NewText: strPtr("const y = 2;")},
	})
	require.NoError(t, err)

	assert.True(t, result.Safe)
	assert.True(t, result.EditResults[0].Applied)
	assert.True(t, result.EditResults[1].Applied)
}

func TestValidateEdits_DiskUntouched(t *testing.T) {
	root := writeProject(t, map[string]string{
		"a.ts": "const x = 1;\n",
	})

	_, err := newTestService().ValidateEdits(context.Background(), root, []edit.Proposed{
		{File: "a.ts", OldText: strPtr("const x = 1;"), NewText: strPtr("const x = 2;")},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "a.ts"))
	require.NoError(t, err)
	assert.Equal(t, "const x = 1;\n", string(data), "validation must never write to disk")
}

func TestValidateEdits_Idempotent(t *testing.T) {
	root := writeProject(t, map[string]string{
		"a.go": "package p\n\nfunc Double(x int) int { return x * 2 }\n",
		"b.go": "package p\n\nvar _ = Double(5)\n",
	})
	edits := []edit.Proposed{
		{
			File:    "a.go",
			OldText: strPtr("func Double(x int) int { return x * 2 }"),
			NewText: strPtr("func Double(x string) string { return x + x }"),
		},
	}

	svc := newTestService()
	first, err := svc.ValidateEdits(context.Background(), root, edits)
	require.NoError(t, err)
	second, err := svc.ValidateEdits(context.Background(), root, edits)
	require.NoError(t, err)

	assert.Equal(t, first.Safe, second.Safe)
	assert.Equal(t, len(first.NewErrors), len(second.NewErrors))
	assert.Equal(t, first.Summary, second.Summary)
}

func TestValidateEdits_RequestShapeErrors(t *testing.T) {
	svc := newTestService()
	root := t.TempDir()
	one := []edit.Proposed{{File: "a.ts", Content: strPtr("x")}}

	_, err := svc.ValidateEdits(context.Background(), root, nil)
	assert.True(t, errors.Is(err, ErrNoEdits))

	// An edit with no file path must abort before any edit applies; an
	// empty path would otherwise normalize to the project root itself.
	result, err := svc.ValidateEdits(context.Background(), root, []edit.Proposed{
		{File: "", Content: strPtr("const x = 1;\n")},
	})
	assert.True(t, errors.Is(err, ErrMissingFile))
	assert.Nil(t, result)

	_, err = svc.ValidateEdits(context.Background(), "relative/path", one)
	assert.True(t, errors.Is(err, ErrRelativePath))

	_, err = svc.ValidateEdits(context.Background(), "/tmp/../etc", one)
	assert.True(t, errors.Is(err, ErrPathTraversal))

	_, err = svc.ValidateEdits(context.Background(), filepath.Join(root, "missing"), one)
	assert.True(t, errors.Is(err, ErrRootNotFound))

	small := NewService(ServiceConfig{MaxValidateDuration: DefaultServiceConfig().MaxValidateDuration, MaxProjectFiles: 100, MaxEdits: 1})
	_, err = small.ValidateEdits(context.Background(), root, []edit.Proposed{
		{File: "a.ts", Content: strPtr("x")},
		{File: "b.ts", Content: strPtr("y")},
	})
	assert.True(t, errors.Is(err, ErrTooManyEdits))
}

func TestValidateEdits_EditEscapingRootFails(t *testing.T) {
	root := writeProject(t, map[string]string{"a.ts": "const x = 1;\n"})

	result, err := newTestService().ValidateEdits(context.Background(), root, []edit.Proposed{
		{File: "../outside.ts", Content: strPtr("x")},
	})
	require.NoError(t, err)

	assert.False(t, result.EditResults[0].Applied)
	assert.Contains(t, result.EditResults[0].Error, "escapes project root")
}

func TestValidateEdits_MalformedEditFailsEditOnly(t *testing.T) {
	root := writeProject(t, map[string]string{"a.ts": "const x = 1;\n"})

	result, err := newTestService().ValidateEdits(context.Background(), root, []edit.Proposed{
		{File: "a.ts"}, // no variant at all
		{File: "a.ts", OldText: strPtr("const x = 1;"), NewText: strPtr("const x = 2;")},
	})
	require.NoError(t, err)

	assert.False(t, result.EditResults[0].Applied)
	assert.True(t, result.EditResults[1].Applied)
}

func TestValidateEdits_OversizedEditFails(t *testing.T) {
	root := writeProject(t, map[string]string{"a.ts": "const x = 1;\n"})

	config := DefaultServiceConfig()
	config.MaxFileSize = 16
	svc := NewService(config)

	result, err := svc.ValidateEdits(context.Background(), root, []edit.Proposed{
		{File: "a.ts", Content: strPtr("const padding = \"this is far past sixteen bytes\";\n")},
	})
	require.NoError(t, err)

	assert.False(t, result.Safe)
	assert.False(t, result.EditResults[0].Applied)
	assert.Contains(t, result.EditResults[0].Error, "maximum size")
}

func TestLoadServiceConfig(t *testing.T) {
	dir := t.TempDir()

	// Missing file returns defaults.
	config, err := LoadServiceConfig(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultServiceConfig(), config)

	path := filepath.Join(dir, "preflight.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_edits: 7\nmax_project_files: 42\n"), 0o644))

	config, err = LoadServiceConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, config.MaxEdits)
	assert.Equal(t, 42, config.MaxProjectFiles)
	assert.Equal(t, DefaultServiceConfig().MaxValidateDuration, config.MaxValidateDuration)
}

func TestBuildSummary(t *testing.T) {
	assert.Equal(t, "All 3 edit(s) are safe to apply", buildSummary(3, 0, 0))
	assert.Equal(t, "2 new error(s) would be introduced", buildSummary(3, 0, 2))
	assert.Equal(t, "1 edit(s) failed to apply", buildSummary(3, 1, 0))
	assert.Equal(t, "1 edit(s) failed to apply; 2 new error(s) would be introduced", buildSummary(3, 1, 2))
}
