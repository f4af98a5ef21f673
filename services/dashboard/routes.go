// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dashboard

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all dashboard routes with the router.
//
// Description:
//
//	Registers all /v1/dashboard/* endpoints with the given Gin router
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
//	GET    /v1/dashboard/repositories - List tracked repositories
//	POST   /v1/dashboard/repositories - Register a repository and scan it
//	GET    /v1/dashboard/repositories/:id - Get one repository
//	DELETE /v1/dashboard/repositories/:id - Delete a repository and its records
//	POST   /v1/dashboard/repositories/:id/scan - Re-scan a repository
//	GET    /v1/dashboard/repositories/:id/branches - List branches
//	GET    /v1/dashboard/repositories/:id/branches/:branchID/commits - List commits
//	GET    /v1/dashboard/repositories/:id/branches/:branchID/changes - Per-file diff stats vs base
//	GET    /v1/dashboard/repositories/:id/events - List test events
//	GET    /v1/dashboard/health - Health check
//	GET    /v1/dashboard/ready - Readiness check
//
// Example:
//
//	handlers := dashboard.NewHandlers(trackingStore)
//
//	v1 := router.Group("/v1")
//	dashboard.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	dash := rg.Group("/dashboard")
	{
		dash.GET("/repositories", handlers.HandleListRepos)
		dash.POST("/repositories", handlers.HandleRegisterRepo)
		dash.GET("/repositories/:id", handlers.HandleGetRepo)
		dash.DELETE("/repositories/:id", handlers.HandleDeleteRepo)
		dash.POST("/repositories/:id/scan", handlers.HandleScanRepo)

		dash.GET("/repositories/:id/branches", handlers.HandleListBranches)
		dash.GET("/repositories/:id/branches/:branchID/commits", handlers.HandleListCommits)
		dash.GET("/repositories/:id/branches/:branchID/changes", handlers.HandleListBranchChanges)
		dash.GET("/repositories/:id/events", handlers.HandleListEvents)

		// Health checks
		dash.GET("/health", handlers.HandleHealth)
		dash.GET("/ready", handlers.HandleReady)
	}
}
