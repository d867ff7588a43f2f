// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package edit turns proposed edits into overlay content without ever
// touching disk. An edit either fully succeeds or leaves the target file's
// overlay state unchanged.
package edit

import (
	"errors"
	"fmt"
)

// Sentinel errors for edit application.
var (
	// ErrMalformed indicates the edit did not carry exactly one variant.
	ErrMalformed = errors.New("edit must carry exactly one of content, old_text/new_text, or patch")

	// ErrFileMissing indicates a text replace against a nonexistent file.
	ErrFileMissing = errors.New("file does not exist and edit is not a full-content replace")

	// ErrNoMatch indicates old_text does not occur in the current content.
	ErrNoMatch = errors.New("old_text not found in file content")

	// ErrAmbiguous indicates old_text occurs more than once.
	ErrAmbiguous = errors.New("old_text is ambiguous; provide more surrounding context")

	// ErrBadPatch indicates the patch variant could not be parsed or applied.
	ErrBadPatch = errors.New("patch cannot be applied")
)

// Proposed is the wire shape of a single proposed edit.
//
// Exactly one of Content, OldText+NewText, or Patch must be present. Pointer
// fields distinguish "absent" from "present but empty": a full-content
// replace with an empty string is a valid way to blank a file.
type Proposed struct {
	// File is the target path, project-root-relative or absolute.
	File string `json:"file" validate:"required"`

	// Content replaces the entire file content. Always applies, even when
	// the file does not exist yet (this is how new virtual files appear).
	Content *string `json:"content,omitempty"`

	// OldText is the exact text to replace. Must occur exactly once.
	OldText *string `json:"old_text,omitempty"`

	// NewText is the replacement for OldText.
	NewText *string `json:"new_text,omitempty"`

	// Patch is a unified diff applied to the current content.
	Patch *string `json:"patch,omitempty"`
}

// Kind discriminates the edit variants.
type Kind int

const (
	// KindFullReplace replaces the entire file content.
	KindFullReplace Kind = iota

	// KindTextReplace substitutes a unique occurrence of old text.
	KindTextReplace

	// KindPatch applies a unified diff.
	KindPatch
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindFullReplace:
		return "content"
	case KindTextReplace:
		return "text_replace"
	case KindPatch:
		return "patch"
	default:
		return "unknown"
	}
}

// Edit is a validated, normalized edit ready for application.
type Edit struct {
	// File is the normalized absolute target path.
	File string

	// Index is the position of this edit in the request array.
	Index int

	// Kind selects which variant fields are meaningful.
	Kind Kind

	Content string
	OldText string
	NewText string
	Patch   string
}

// Normalize validates the discriminated shape of a proposed edit and returns
// the tagged form. Shape violations are application failures for that edit
// alone; they never abort the batch.
//
// The file path is carried through verbatim; the caller resolves it against
// the project root before application.
func Normalize(p Proposed, index int) (Edit, error) {
	e := Edit{File: p.File, Index: index}

	variants := 0
	if p.Content != nil {
		variants++
		e.Kind = KindFullReplace
		e.Content = *p.Content
	}
	if p.OldText != nil || p.NewText != nil {
		if p.OldText == nil || p.NewText == nil || *p.OldText == "" {
			return e, fmt.Errorf("edit %d (%s): old_text and new_text must both be present and old_text non-empty: %w",
				index, p.File, ErrMalformed)
		}
		variants++
		e.Kind = KindTextReplace
		e.OldText = *p.OldText
		e.NewText = *p.NewText
	}
	if p.Patch != nil {
		variants++
		e.Kind = KindPatch
		e.Patch = *p.Patch
	}

	if variants != 1 {
		return e, fmt.Errorf("edit %d (%s): %w", index, p.File, ErrMalformed)
	}
	return e, nil
}
