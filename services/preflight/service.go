// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package preflight provides the Preflight HTTP service for previewing the
// effect of proposed source edits on a project's diagnostics.
//
// The service applies edits to an in-memory overlay, analyzes the project
// in its baseline and edited states with two isolated engines, and reports
// exactly the diagnostics the edits would introduce. Nothing is written to
// disk.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/preflight/services/preflight/compiler"
	"github.com/AleutianAI/preflight/services/preflight/diagnostic"
	"github.com/AleutianAI/preflight/services/preflight/edit"
	"github.com/AleutianAI/preflight/services/preflight/project"
	"github.com/AleutianAI/preflight/services/preflight/vfs"
)

// ServiceConfig configures the Preflight service.
type ServiceConfig struct {
	// MaxValidateDuration is the maximum time allowed for one validation.
	// Default: 30s
	MaxValidateDuration time.Duration `yaml:"max_validate_duration"`

	// MaxProjectFiles is the maximum number of files in analysis scope.
	// Default: 5000
	MaxProjectFiles int `yaml:"max_project_files"`

	// MaxFileSize is the maximum size in bytes of any analyzed or edited
	// file. Larger files on disk are skipped; an edit producing a larger
	// file fails. Zero disables the cap.
	// Default: 1 MiB
	MaxFileSize int64 `yaml:"max_file_size"`

	// MaxEdits is the maximum number of edits in one request.
	// Default: 100
	MaxEdits int `yaml:"max_edits"`

	// AllowedRoots is an optional list of allowed project root prefixes.
	// If empty, all absolute paths are allowed. Security feature.
	AllowedRoots []string `yaml:"allowed_roots"`
}

// DefaultServiceConfig returns sensible defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxValidateDuration: 30 * time.Second,
		MaxProjectFiles:     5000,
		MaxFileSize:         1 << 20,
		MaxEdits:            100,
	}
}

// LoadServiceConfig reads a YAML config file, filling unset fields with
// defaults. A missing file is not an error; defaults are returned.
func LoadServiceConfig(path string) (ServiceConfig, error) {
	config := DefaultServiceConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("parse config %s: %w", path, err)
	}
	if config.MaxValidateDuration <= 0 {
		config.MaxValidateDuration = 30 * time.Second
	}
	if config.MaxProjectFiles <= 0 {
		config.MaxProjectFiles = 5000
	}
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = 1 << 20
	}
	if config.MaxEdits <= 0 {
		config.MaxEdits = 100
	}
	return config, nil
}

// Service is the Preflight service.
//
// Thread Safety:
//
//	Service is safe for concurrent use. Each validation builds its own
//	overlays and engines; no state is shared between requests.
type Service struct {
	config ServiceConfig
}

// NewService creates a new Preflight service.
func NewService(config ServiceConfig) *Service {
	initMetrics()
	return &Service{config: config}
}

// Config returns the service configuration.
func (s *Service) Config() ServiceConfig {
	return s.config
}

// ValidateEdits previews the effect of proposed edits on a project.
//
// Description:
//
//	Builds two views of the project: a baseline that reads straight from
//	disk, and an edited view with every proposed edit applied in order to
//	an in-memory overlay. Both views are analyzed with independent engine
//	instances and the diagnostic sets are diffed; only diagnostics absent
//	from the baseline are reported. A failed edit is recorded in its
//	result and skipped; later edits still apply.
//
// Inputs:
//
//	ctx - Context for cancellation and tracing.
//	projectRoot - Absolute path of the project to validate against.
//	proposed - Edits in application order, at least one.
//
// Outputs:
//
//	*ValidationResult - Per-edit outcomes, new diagnostics, safety verdict.
//	error - Non-nil only for request-level failures (bad root, empty edit
//	        list, an edit without a file, unreadable config, limits,
//	        internal faults).
func (s *Service) ValidateEdits(ctx context.Context, projectRoot string, proposed []edit.Proposed) (*ValidationResult, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "preflight.ValidateEdits",
		trace.WithAttributes(
			attribute.String("project_root", projectRoot),
			attribute.Int("edit_count", len(proposed)),
		),
	)
	defer span.End()

	logger := slog.With("component", "preflight", "project_root", projectRoot)

	if err := s.checkRequest(projectRoot, proposed); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.MaxValidateDuration)
	defer cancel()

	root := filepath.ToSlash(filepath.Clean(projectRoot))

	opts, err := compiler.Discover(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadConfig, err)
	}

	files, err := project.Discover(root, opts, s.config.MaxProjectFiles, s.config.MaxFileSize)
	if err != nil {
		if errors.Is(err, project.ErrTooLarge) {
			return nil, fmt.Errorf("%w: %v", ErrProjectTooLarge, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	editedFS := vfs.New()
	results := make([]EditResult, len(proposed))
	lastWriter := make(map[string]diagnostic.CausedBy)
	fallback := diagnostic.CausedBy{EditIndex: -1}
	editedPaths := make([]string, 0, len(proposed))

	for i, p := range proposed {
		results[i] = s.applyOne(editedFS, root, p, i)
		if !results[i].Applied {
			logger.Warn("Edit failed to apply",
				"edit_index", i, "file", results[i].File, "error", results[i].Error)
			continue
		}
		cause := diagnostic.CausedBy{File: results[i].File, EditIndex: i}
		lastWriter[results[i].File] = cause
		fallback = cause
		editedPaths = append(editedPaths, results[i].File)
	}

	scope := project.Union(files, supportedOnly(editedPaths)...)

	newErrors, err := s.runPasses(ctx, scope, opts, editedFS, lastWriter, fallback)
	if err != nil {
		return nil, err
	}

	failed := 0
	for i := range results {
		if !results[i].Applied {
			failed++
		}
	}
	for _, ne := range newErrors {
		idx := ne.CausedByEdit.EditIndex
		if idx >= 0 && idx < len(results) {
			results[idx].ErrorsIntroduced++
		}
	}

	result := &ValidationResult{
		Safe:        failed == 0 && len(newErrors) == 0,
		Summary:     buildSummary(len(proposed), failed, len(newErrors)),
		NewErrors:   newErrors,
		EditResults: results,
	}

	recordValidation(ctx, result, time.Since(start))
	logger.Info("Validation complete",
		"safe", result.Safe,
		"new_errors", len(newErrors),
		"failed_edits", failed,
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// checkRequest enforces request-level invariants before any work starts.
func (s *Service) checkRequest(projectRoot string, proposed []edit.Proposed) error {
	if len(proposed) == 0 {
		return ErrNoEdits
	}
	if len(proposed) > s.config.MaxEdits {
		return fmt.Errorf("%w: %d > %d", ErrTooManyEdits, len(proposed), s.config.MaxEdits)
	}
	for i, p := range proposed {
		if p.File == "" {
			return fmt.Errorf("%w: edit %d", ErrMissingFile, i)
		}
	}
	if !filepath.IsAbs(projectRoot) {
		return ErrRelativePath
	}
	if strings.Contains(projectRoot, "..") {
		return ErrPathTraversal
	}
	if len(s.config.AllowedRoots) > 0 {
		allowed := false
		for _, prefix := range s.config.AllowedRoots {
			if strings.HasPrefix(projectRoot, prefix) {
				allowed = true
				break
			}
		}
		if !allowed {
			return ErrPathTraversal
		}
	}
	info, err := os.Stat(projectRoot)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrRootNotFound, projectRoot)
	}
	return nil
}

// applyOne normalizes and applies a single proposed edit against the edited
// overlay. Failures are contained in the returned result.
func (s *Service) applyOne(editedFS *vfs.FS, root string, p edit.Proposed, index int) EditResult {
	res := EditResult{File: p.File, EditIndex: index}

	e, err := edit.Normalize(p, index)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	path := vfs.NormalizePath(root, e.File)
	if path != root && !strings.HasPrefix(path, root+"/") {
		res.Error = "file path escapes project root"
		return res
	}
	res.File = path

	current, exists := editedFS.GetContent(path)
	updated, err := edit.Apply(current, exists, e)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	if s.config.MaxFileSize > 0 && int64(len(updated)) > s.config.MaxFileSize {
		res.Error = fmt.Sprintf("edited file exceeds maximum size of %d bytes", s.config.MaxFileSize)
		return res
	}

	editedFS.SetContent(path, updated)
	res.Applied = true
	res.Diff = edit.UnifiedDiff(path, current, updated)
	return res
}

// runPasses analyzes baseline and edited views and diffs the results. A
// panic inside an engine is contained here and surfaces as ErrInternal.
func (s *Service) runPasses(ctx context.Context, scope []string, opts compiler.Options, editedFS *vfs.FS, lastWriter map[string]diagnostic.CausedBy, fallback diagnostic.CausedBy) (newErrors []diagnostic.NewError, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	baselineEngine := compiler.NewEngine(vfs.New(), scope, opts)
	editedEngine := compiler.NewEngine(editedFS, scope, opts)

	baseline := diagnostic.Compute(ctx, baselineEngine, scope)
	edited := diagnostic.Compute(ctx, editedEngine, scope)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, ctxErr)
	}

	return diagnostic.Diff(baseline, edited, editedFS.GetContent, lastWriter, fallback), nil
}

// supportedOnly filters paths to those with an analysis backend. Edits to
// other file types still apply and diff, they just have no diagnostics.
func supportedOnly(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if compiler.Supported(p) {
			out = append(out, p)
		}
	}
	return out
}

// buildSummary renders the one-line verdict.
func buildSummary(total, failed, newErrors int) string {
	if failed == 0 && newErrors == 0 {
		return fmt.Sprintf("All %d edit(s) are safe to apply", total)
	}
	parts := make([]string, 0, 2)
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("%d edit(s) failed to apply", failed))
	}
	if newErrors > 0 {
		parts = append(parts, fmt.Sprintf("%d new error(s) would be introduced", newErrors))
	}
	return strings.Join(parts, "; ")
}
