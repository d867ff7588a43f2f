// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package diagnostic

import "sort"

// CausedBy attributes a new diagnostic to the edit responsible for the
// content change that produced it.
type CausedBy struct {
	// File is the target file of the attributed edit.
	File string `json:"file"`

	// EditIndex is the position of the attributed edit in the request array.
	EditIndex int `json:"edit_index"`
}

// NewError is a diagnostic present in the edited pass but absent from the
// baseline pass, converted to 1-based coordinates.
type NewError struct {
	File         string   `json:"file"`
	Line         int      `json:"line"`
	Column       int      `json:"column"`
	EndLine      int      `json:"end_line"`
	EndColumn    int      `json:"end_column"`
	Message      string   `json:"message"`
	Code         int      `json:"code"`
	Category     string   `json:"category"`
	CausedByEdit CausedBy `json:"caused_by_edit"`
}

// Diff computes the newly introduced diagnostics: every edited-pass record
// whose content key is absent from the baseline pass.
//
// contentOf resolves a file to its edited-pass content for offset-to-line
// conversion. lastWriter maps an edited file to the edit that last wrote its
// overlay content; when multiple edits touch one file the later edit
// receives the attribution, matching the overlay's last-write-wins
// semantics. A diagnostic rippling into a file no edit touched (a caller
// broken by a signature change elsewhere) attributes to fallback, the last
// successfully applied edit.
//
// The result is sorted by (file, line, column) ascending.
func Diff(baseline, edited map[string][]Record, contentOf func(string) (string, bool), lastWriter map[string]CausedBy, fallback CausedBy) []NewError {
	seen := make(map[string]struct{})
	for _, records := range baseline {
		for _, r := range records {
			seen[r.Key()] = struct{}{}
		}
	}

	newErrors := make([]NewError, 0)
	for file, records := range edited {
		for _, r := range records {
			if _, ok := seen[r.Key()]; ok {
				continue
			}

			content, _ := contentOf(file)
			start := PositionAt(content, r.Start)
			end := PositionAt(content, r.Start+r.Length)

			cause, ok := lastWriter[file]
			if !ok {
				cause = fallback
			}

			newErrors = append(newErrors, NewError{
				File:         file,
				Line:         start.Line,
				Column:       start.Column,
				EndLine:      end.Line,
				EndColumn:    end.Column,
				Message:      r.Message,
				Code:         r.Code,
				Category:     r.Category.String(),
				CausedByEdit: cause,
			})
		}
	}

	sort.Slice(newErrors, func(i, j int) bool {
		a, b := newErrors[i], newErrors[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})

	return newErrors
}
