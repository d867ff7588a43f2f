// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package edit

import (
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// Apply computes the new content for a single edit against the current
// overlay content. exists reports whether the file currently has content
// (overlay or disk). Apply is pure: on error the caller must leave the
// overlay untouched.
func Apply(current string, exists bool, e Edit) (string, error) {
	switch e.Kind {
	case KindFullReplace:
		return e.Content, nil

	case KindTextReplace:
		if !exists {
			return "", fmt.Errorf("edit %d (%s): %w", e.Index, e.File, ErrFileMissing)
		}
		count := strings.Count(current, e.OldText)
		if count == 0 {
			return "", fmt.Errorf("edit %d (%s): %w", e.Index, e.File, ErrNoMatch)
		}
		if count > 1 {
			return "", fmt.Errorf("edit %d (%s): old_text matches %d times: %w", e.Index, e.File, count, ErrAmbiguous)
		}
		return strings.Replace(current, e.OldText, e.NewText, 1), nil

	case KindPatch:
		return applyPatch(current, exists, e)

	default:
		return "", fmt.Errorf("edit %d (%s): %w", e.Index, e.File, ErrMalformed)
	}
}

// applyPatch applies a unified diff to the current content. A patch against
// a missing or empty file builds the file from the added lines alone.
func applyPatch(current string, exists bool, e Edit) (string, error) {
	fileDiffs, err := diff.NewMultiFileDiffReader(strings.NewReader(e.Patch)).ReadAllFiles()
	if err != nil {
		return "", fmt.Errorf("edit %d (%s): parsing diff: %v: %w", e.Index, e.File, err, ErrBadPatch)
	}
	if len(fileDiffs) != 1 {
		return "", fmt.Errorf("edit %d (%s): patch must describe exactly one file, got %d: %w",
			e.Index, e.File, len(fileDiffs), ErrBadPatch)
	}
	fd := fileDiffs[0]

	if fd.NewName == "/dev/null" {
		// Deletion: the overlay models it as empty content.
		return "", nil
	}

	if !exists || fd.OrigName == "/dev/null" || current == "" {
		var lines []string
		for _, hunk := range fd.Hunks {
			for _, line := range strings.Split(string(hunk.Body), "\n") {
				if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++") {
					lines = append(lines, strings.TrimPrefix(line, "+"))
				}
			}
		}
		return strings.Join(lines, "\n"), nil
	}

	origLines := strings.Split(current, "\n")
	newLines := make([]string, 0, len(origLines))

	origIdx := 0
	for _, hunk := range fd.Hunks {
		hunkStart := int(hunk.OrigStartLine) - 1
		if hunkStart < 0 || hunkStart > len(origLines) {
			return "", fmt.Errorf("edit %d (%s): hunk start %d out of range: %w",
				e.Index, e.File, hunk.OrigStartLine, ErrBadPatch)
		}
		for origIdx < hunkStart && origIdx < len(origLines) {
			newLines = append(newLines, origLines[origIdx])
			origIdx++
		}

		for _, line := range strings.Split(string(hunk.Body), "\n") {
			switch {
			case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
				newLines = append(newLines, strings.TrimPrefix(line, "+"))
			case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
				if origIdx >= len(origLines) || origLines[origIdx] != strings.TrimPrefix(line, "-") {
					return "", fmt.Errorf("edit %d (%s): hunk does not match current content at line %d: %w",
						e.Index, e.File, origIdx+1, ErrBadPatch)
				}
				origIdx++
			case strings.HasPrefix(line, " ") || line == "":
				if origIdx < len(origLines) {
					newLines = append(newLines, origLines[origIdx])
					origIdx++
				}
			}
		}
	}

	for origIdx < len(origLines) {
		newLines = append(newLines, origLines[origIdx])
		origIdx++
	}

	return strings.Join(newLines, "\n"), nil
}

// UnifiedDiff renders a compact unified diff between two versions of a file,
// used for the per-edit preview in edit results.
func UnifiedDiff(path, oldContent, newContent string) string {
	oldLines := strings.Split(oldContent, "\n")
	newLines := strings.Split(newContent, "\n")

	change, ok := findChange(oldLines, newLines)
	if !ok {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- %s (current)\n", path)
	fmt.Fprintf(&b, "+++ %s (proposed)\n", path)
	fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n",
		change.oldStart+1, change.oldCount,
		change.newStart+1, change.newCount)

	contextStart := max(0, change.oldStart-3)
	for i := contextStart; i < change.oldStart; i++ {
		fmt.Fprintf(&b, " %s\n", oldLines[i])
	}
	for i := change.oldStart; i < change.oldStart+change.oldCount && i < len(oldLines); i++ {
		fmt.Fprintf(&b, "-%s\n", oldLines[i])
	}
	for i := change.newStart; i < change.newStart+change.newCount && i < len(newLines); i++ {
		fmt.Fprintf(&b, "+%s\n", newLines[i])
	}
	contextEnd := min(len(oldLines), change.oldStart+change.oldCount+3)
	for i := change.oldStart + change.oldCount; i < contextEnd; i++ {
		fmt.Fprintf(&b, " %s\n", oldLines[i])
	}

	return b.String()
}

// changeRegion is a single contiguous differing region between two files.
type changeRegion struct {
	oldStart int
	oldCount int
	newStart int
	newCount int
}

// findChange locates the first-to-last differing region between the two line
// slices. A proper LCS would produce tighter hunks; a single region is enough
// for a preview.
func findChange(oldLines, newLines []string) (changeRegion, bool) {
	minLen := min(len(oldLines), len(newLines))

	firstDiff := -1
	for i := 0; i < minLen; i++ {
		if oldLines[i] != newLines[i] {
			firstDiff = i
			break
		}
	}
	if firstDiff == -1 {
		if len(oldLines) == len(newLines) {
			return changeRegion{}, false
		}
		firstDiff = minLen
	}

	oldIdx := len(oldLines) - 1
	newIdx := len(newLines) - 1
	for oldIdx >= firstDiff && newIdx >= firstDiff {
		if oldLines[oldIdx] != newLines[newIdx] {
			break
		}
		oldIdx--
		newIdx--
	}

	return changeRegion{
		oldStart: firstDiff,
		oldCount: oldIdx - firstDiff + 1,
		newStart: firstDiff,
		newCount: newIdx - firstDiff + 1,
	}, true
}
