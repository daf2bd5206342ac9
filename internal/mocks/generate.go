// Package mocks provides mock implementations for testing the ops-api job system.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our repository interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockJobRepository(ctrl)
//	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(job, nil)
package mocks

// Generate mock for JobRepository interface from internal/core package.
// This creates MockJobRepository with methods for all JobRepository interface methods:
// Create, GetByID, UpdateProgress, Complete, Fail, Stats, List
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_repository_mock.go github.com/resellkit/ops-api/internal/core JobRepository

// Generate mock for ValidationSessionRepository interface from internal/core package.
// This creates MockValidationSessionRepository with methods for all ValidationSessionRepository interface methods:
// Create, GetByID, Update, Finish
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=session_repository_mock.go github.com/resellkit/ops-api/internal/core ValidationSessionRepository

// Generate mock for ValidationReportRepository interface from internal/core package.
// This creates MockValidationReportRepository with methods for all ValidationReportRepository interface methods:
// Upsert, GetBySessionID
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=report_repository_mock.go github.com/resellkit/ops-api/internal/core ValidationReportRepository

// Generate mock for CacheRepository interface from internal/core package.
// This creates MockCacheRepository with methods for all CacheRepository interface methods:
// Set, Get, Delete, Health
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=cache_repository_mock.go github.com/resellkit/ops-api/internal/core CacheRepository

// Generate mock for ReaperRepository interface from internal/core package.
// This creates MockReaperRepository with methods for all ReaperRepository interface methods:
// DeleteTerminalJobs, DeleteTerminalSessions
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=reaper_repository_mock.go github.com/resellkit/ops-api/internal/core ReaperRepository

// Generate mocks for the validation pipeline phase ports from internal/core package.
// This creates MockTokenChecker, MockItemAnalyzer, MockDestructiveTester and MockIntegrityChecker.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=pipeline_mock.go github.com/resellkit/ops-api/internal/core TokenChecker,ItemAnalyzer,DestructiveTester,IntegrityChecker
