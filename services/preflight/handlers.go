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
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// validate enforces the struct-level validate tags on request bodies,
// including the per-edit rules gin's binding layer does not dive into.
var validate = validator.New()

// ServiceVersion is the Preflight service version.
const ServiceVersion = "0.1.0"

// Handlers contains the HTTP handlers for Preflight.
type Handlers struct {
	svc *Service
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleValidate handles POST /v1/preflight/validate.
//
// Description:
//
//	Previews the effect of proposed edits on a project's diagnostics.
//	Edits are applied to an in-memory overlay and never touch disk.
//
// Request Body:
//
//	ValidateRequest
//
// Response:
//
//	200 OK: ValidationResult (including unsafe results; unsafe is not an
//	        HTTP error)
//	400 Bad Request: Validation error
//	500 Internal Server Error: Processing error
func (h *Handlers) HandleValidate(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleValidate")

	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	if err := validate.Struct(&req); err != nil {
		logger.Warn("Request failed validation", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_REQUEST",
		})
		return
	}

	logger.Info("Validating edits",
		"project_root", req.ProjectRoot, "edit_count", len(req.Edits))

	result, err := h.svc.ValidateEdits(c.Request.Context(), req.ProjectRoot, req.Edits)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errCode := "VALIDATE_FAILED"

		if errors.Is(err, ErrNoEdits) {
			statusCode = http.StatusBadRequest
			errCode = "NO_EDITS"
		} else if errors.Is(err, ErrTooManyEdits) {
			statusCode = http.StatusBadRequest
			errCode = "TOO_MANY_EDITS"
		} else if errors.Is(err, ErrMissingFile) {
			statusCode = http.StatusBadRequest
			errCode = "INVALID_REQUEST"
		} else if errors.Is(err, ErrRelativePath) {
			statusCode = http.StatusBadRequest
			errCode = "INVALID_PATH"
		} else if errors.Is(err, ErrPathTraversal) {
			statusCode = http.StatusBadRequest
			errCode = "PATH_TRAVERSAL"
		} else if errors.Is(err, ErrRootNotFound) {
			statusCode = http.StatusBadRequest
			errCode = "ROOT_NOT_FOUND"
		} else if errors.Is(err, ErrProjectTooLarge) {
			statusCode = http.StatusBadRequest
			errCode = "PROJECT_TOO_LARGE"
		} else if errors.Is(err, ErrBadConfig) {
			statusCode = http.StatusUnprocessableEntity
			errCode = "BAD_CONFIG"
		}

		logger.Error("Validation failed", "error", err)
		c.JSON(statusCode, ErrorResponse{
			Error: err.Error(),
			Code:  errCode,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// HandleHealth handles GET /v1/preflight/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: ServiceVersion,
	})
}

// HandleReady handles GET /v1/preflight/ready.
//
// Description:
//
//	The service has no warm state or external dependencies, so readiness
//	matches liveness.
func (h *Handlers) HandleReady(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ready",
		Version: ServiceVersion,
	})
}

// getOrCreateRequestID returns the X-Request-ID header, generating one if
// the client did not send it.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
