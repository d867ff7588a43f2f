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
	"os"
	"path/filepath"
	"testing"
)

func TestDiscover_Defaults(t *testing.T) {
	root := t.TempDir()

	opts, err := Discover(root)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if opts.ConfigPath != "" {
		t.Errorf("ConfigPath = %q, want empty", opts.ConfigPath)
	}
	if opts.ModuleResolution != "node" {
		t.Errorf("ModuleResolution = %q, want node", opts.ModuleResolution)
	}
	if opts.JSX != "react-jsx" {
		t.Errorf("JSX = %q, want react-jsx", opts.JSX)
	}
	if !opts.Strict || !opts.NoEmit || !opts.ResolveJSONModule || !opts.ForceConsistentCasing {
		t.Errorf("boolean defaults = %+v, want all true", opts)
	}
}

func TestDiscover_TsconfigWithComments(t *testing.T) {
	root := t.TempDir()
	config := `{
  // project options
  "compilerOptions": {
    "strict": false, /* relaxed for legacy code */
    "jsx": "preserve"
  },
  "exclude": ["generated", "coverage/**", "./src/gen/**"]
}`
	if err := os.WriteFile(filepath.Join(root, "tsconfig.json"), []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := Discover(root)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if opts.ConfigPath != filepath.Join(root, "tsconfig.json") {
		t.Errorf("ConfigPath = %q", opts.ConfigPath)
	}
	if opts.Strict {
		t.Error("Strict = true, want false from config")
	}
	if opts.JSX != "preserve" {
		t.Errorf("JSX = %q, want preserve", opts.JSX)
	}
	// Unset fields keep defaults.
	if opts.ModuleResolution != "node" {
		t.Errorf("ModuleResolution = %q, want node", opts.ModuleResolution)
	}

	wantExcluded := map[string]bool{"node_modules": true, "generated": true, "coverage": true, "src/gen": true}
	found := 0
	for _, ex := range opts.Exclude {
		if wantExcluded[ex] {
			found++
		}
	}
	if found != 4 {
		t.Errorf("Exclude = %v, want node_modules, generated, coverage, src/gen present", opts.Exclude)
	}
}

func TestDiscover_WalksUpward(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "packages", "app")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "jsconfig.json"), []byte(`{"compilerOptions":{"jsx":"react"}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := Discover(sub)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if opts.JSX != "react" {
		t.Errorf("JSX = %q, want react from ancestor jsconfig", opts.JSX)
	}
}

func TestDiscover_MalformedConfig(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "tsconfig.json"), []byte(`{"compilerOptions": {`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Discover(root); err == nil {
		t.Error("Discover() error = nil, want parse error")
	}
}

func TestDiscover_GoModulePath(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/widget\n\ngo 1.25\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := Discover(root)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if opts.GoModulePath != "example.com/widget" {
		t.Errorf("GoModulePath = %q, want example.com/widget", opts.GoModulePath)
	}
}

func TestStripJSONComments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"line comment", "{\"a\": 1 // note\n}", "{\"a\": 1 \n}"},
		{"block comment", `{"a": /* x */ 1}`, `{"a":  1}`},
		{"slashes in string", `{"a": "http://x//y"}`, `{"a": "http://x//y"}`},
		{"escaped quote", `{"a": "say \"//\" ok"}`, `{"a": "say \"//\" ok"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(stripJSONComments([]byte(tt.in))); got != tt.want {
				t.Errorf("stripJSONComments(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
