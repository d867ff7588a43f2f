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
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all Preflight routes with the router.
//
// Description:
//
//	Registers all /v1/preflight/* endpoints with the given Gin router
//	group. The router group should already have any required middleware
//	applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Endpoints:
//
//	POST /v1/preflight/validate - Preview the effect of proposed edits
//	GET  /v1/preflight/health - Health check
//	GET  /v1/preflight/ready - Readiness check
//
// Example:
//
//	service := preflight.NewService(preflight.DefaultServiceConfig())
//	handlers := preflight.NewHandlers(service)
//
//	v1 := router.Group("/v1")
//	preflight.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	pf := rg.Group("/preflight")
	{
		pf.POST("/validate", handlers.HandleValidate)

		pf.GET("/health", handlers.HandleHealth)
		pf.GET("/ready", handlers.HandleReady)
	}
}
