package core

import (
	"context"

	"github.com/resellkit/ops-api/internal/domain/model"
)

// TokenChecker verifies the marketplace API token before any item work starts.
// A returned error aborts the pipeline.
type TokenChecker interface {
	CheckToken(ctx context.Context, token string) error
}

// ItemAnalyzer runs the per-item category analysis phase. A non-nil error
// aborts the pipeline; an item that merely fails its checks is reported
// through ItemResult.Passed instead.
type ItemAnalyzer interface {
	AnalyzeItem(ctx context.Context, item model.ValidationItem) (*model.ItemResult, error)
}

// DestructiveTester exercises the create-then-delete round trip against the
// marketplace. Only invoked when the caller opted in.
type DestructiveTester interface {
	RunDestructive(ctx context.Context, token string) (*model.DestructiveTestResult, error)
}

// IntegrityChecker cross-checks the analysed items against what the backing
// store actually holds.
type IntegrityChecker interface {
	CheckIntegrity(ctx context.Context, items []model.ValidationItem, results []model.ItemResult) (*model.IntegrityCheckResult, error)
}
