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

import "github.com/forgeworks/forge/services/store"

// ServiceVersion is the dashboard service version.
const ServiceVersion = "0.1.0"

// ErrorResponse is the error body for all dashboard endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RegisterRepoRequest registers a local repository for tracking.
type RegisterRepoRequest struct {
	LocalPath  string `json:"local_path" binding:"required"`
	Name       string `json:"name"`
	BaseBranch string `json:"base_branch"`
}

// RegisterRepoResponse returns the registered repository and the result of
// its initial scan.
type RegisterRepoResponse struct {
	Repository store.Repository `json:"repository"`
	Scan       *ScanResponse    `json:"scan,omitempty"`
}

// ScanResponse reports what a scan recorded.
type ScanResponse struct {
	BranchesScanned int `json:"branches_scanned"`
	CommitsRecorded int `json:"commits_recorded"`
}

// HealthResponse is the health check body.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ReadyResponse is the readiness check body.
type ReadyResponse struct {
	Ready     bool `json:"ready"`
	RepoCount int  `json:"repo_count"`
}
