// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package diagnostic models analysis diagnostics and computes the
// content-keyed set difference between two diagnostic collections produced by
// independently constructed engine instances.
package diagnostic

import (
	"fmt"
	"strings"
)

// Category is the severity of a diagnostic.
type Category int

const (
	// CategoryError is a hard error.
	CategoryError Category = iota

	// CategoryWarning is a recoverable issue.
	CategoryWarning

	// CategorySuggestion is an informational hint, excluded from validation.
	CategorySuggestion

	// CategoryMessage is a plain message, excluded from validation.
	CategoryMessage
)

// String returns the wire name of the category.
func (c Category) String() string {
	switch c {
	case CategoryError:
		return "error"
	case CategoryWarning:
		return "warning"
	case CategorySuggestion:
		return "suggestion"
	case CategoryMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Record is one diagnostic produced by an engine pass. Records are built
// fresh per pass and compared by content key, never by identity.
type Record struct {
	// File is the normalized absolute path the diagnostic refers to.
	File string

	// Start is the zero-based byte offset of the diagnostic in File.
	Start int

	// Length is the byte length of the flagged range.
	Length int

	// Message is the flattened, single-string diagnostic message.
	Message string

	// Code identifies the diagnostic kind (see the compiler package codes).
	Code int

	// Category is the severity.
	Category Category
}

// Key returns the canonical comparison key. Two records with equal keys are
// considered the same diagnostic even when produced by different engine
// instances, which makes the baseline/edited set difference meaningful.
func (r Record) Key() string {
	return fmt.Sprintf("%s|%d|%d|%s", r.File, r.Start, r.Code, r.Message)
}

// Position is a 1-based line/column location.
type Position struct {
	Line   int
	Column int
}

// PositionAt converts a byte offset in content to a 1-based position.
// Offsets past the end of content clamp to the final position.
func PositionAt(content string, offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(content) {
		offset = len(content)
	}
	prefix := content[:offset]
	line := strings.Count(prefix, "\n") + 1
	col := offset - strings.LastIndex(prefix, "\n")
	return Position{Line: line, Column: col}
}
