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
	"github.com/AleutianAI/preflight/services/preflight/diagnostic"
	"github.com/AleutianAI/preflight/services/preflight/edit"
)

// ValidateRequest is the request body for POST /v1/preflight/validate.
type ValidateRequest struct {
	// ProjectRoot is the absolute path of the project to validate against.
	ProjectRoot string `json:"project_root" binding:"required" validate:"required"`

	// Edits are the proposed changes, applied in order. An empty list is
	// rejected by the service so the error carries a specific code.
	Edits []edit.Proposed `json:"edits" validate:"dive"`
}

// EditResult reports the outcome of applying one proposed edit.
type EditResult struct {
	// File is the absolute path the edit targeted.
	File string `json:"file"`

	// EditIndex is the position of the edit in the request.
	EditIndex int `json:"edit_index"`

	// Applied reports whether the edit made it into the edited overlay.
	Applied bool `json:"applied"`

	// Error describes why the edit failed to apply. Empty when applied.
	Error string `json:"error,omitempty"`

	// ErrorsIntroduced counts the new diagnostics attributed to this edit.
	ErrorsIntroduced int `json:"errors_introduced"`

	// Diff is a unified diff of the file content this edit produced.
	// Empty when the edit failed to apply.
	Diff string `json:"diff,omitempty"`
}

// ValidationResult is the response body for a completed validation.
type ValidationResult struct {
	// Safe is true when every edit applied cleanly and no new errors
	// appeared anywhere in the project.
	Safe bool `json:"safe"`

	// Summary is a one-line human-readable verdict.
	Summary string `json:"summary"`

	// NewErrors lists diagnostics present after the edits but not before,
	// sorted by file, line, then column.
	NewErrors []diagnostic.NewError `json:"new_errors"`

	// EditResults has one entry per requested edit, in request order.
	EditResults []EditResult `json:"edit_results"`
}

// ErrorResponse is the error payload for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse is the payload for health and readiness probes.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
