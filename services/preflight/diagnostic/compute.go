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

import (
	"context"
	"log/slog"
)

// Engine is the narrow analysis capability the computer consumes. The
// concrete engines live in the compiler package; anything exposing syntactic
// and semantic diagnostics per file can serve.
type Engine interface {
	// SyntacticDiagnostics returns parse-level diagnostics for one file.
	SyntacticDiagnostics(ctx context.Context, file string) ([]Record, error)

	// SemanticDiagnostics returns type-level diagnostics for one file.
	SemanticDiagnostics(ctx context.Context, file string) ([]Record, error)
}

// Compute runs syntactic and semantic diagnostics for every file in the
// fixed list against one engine instance, filtered to error and warning
// severities.
//
// A per-file engine failure is contained: the file is recorded with zero
// diagnostics and the batch continues. The returned map has an entry for
// every input file.
func Compute(ctx context.Context, eng Engine, files []string) map[string][]Record {
	result := make(map[string][]Record, len(files))

	for _, file := range files {
		records := make([]Record, 0)

		syntactic, err := eng.SyntacticDiagnostics(ctx, file)
		if err != nil {
			slog.Debug("syntactic diagnostics failed, recording none",
				slog.String("file", file),
				slog.String("error", err.Error()),
			)
			result[file] = records
			continue
		}
		records = append(records, filterSeverity(syntactic)...)

		semantic, err := eng.SemanticDiagnostics(ctx, file)
		if err != nil {
			slog.Debug("semantic diagnostics failed, recording none",
				slog.String("file", file),
				slog.String("error", err.Error()),
			)
			result[file] = make([]Record, 0)
			continue
		}
		records = append(records, filterSeverity(semantic)...)

		result[file] = records
	}

	return result
}

// filterSeverity keeps only error- and warning-level records. Suggestions
// and informational messages never participate in the safety verdict.
func filterSeverity(records []Record) []Record {
	kept := records[:0:0]
	for _, r := range records {
		if r.Category == CategoryError || r.Category == CategoryWarning {
			kept = append(kept, r)
		}
	}
	return kept
}
