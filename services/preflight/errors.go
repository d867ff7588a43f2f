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

import "errors"

// Sentinel errors for the Preflight service. These abort the whole request;
// failures scoped to a single edit or file are reported inside the result
// instead.
var (
	// ErrNoEdits indicates the request carried an empty edit list.
	ErrNoEdits = errors.New("no edits provided")

	// ErrRelativePath indicates the project root was a relative path.
	ErrRelativePath = errors.New("project root must be absolute path")

	// ErrPathTraversal indicates a path contains .. traversal sequences.
	ErrPathTraversal = errors.New("path contains traversal sequences")

	// ErrRootNotFound indicates the project root does not exist.
	ErrRootNotFound = errors.New("project root not found")

	// ErrProjectTooLarge indicates the project exceeds size limits.
	ErrProjectTooLarge = errors.New("project exceeds size limits")

	// ErrTooManyEdits indicates the edit list exceeds the configured cap.
	ErrTooManyEdits = errors.New("too many edits in request")

	// ErrMissingFile indicates an edit carried no file path.
	ErrMissingFile = errors.New("edit missing file path")

	// ErrBadConfig indicates the project's compiler config cannot be parsed.
	ErrBadConfig = errors.New("project config unreadable")

	// ErrInternal indicates a validation pass failed unexpectedly.
	ErrInternal = errors.New("internal validation failure")
)
