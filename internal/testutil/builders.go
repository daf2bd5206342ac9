package testutil

import (
	"fmt"

	"github.com/resellkit/ops-api/internal/domain/model"
)

// JobRequestBuilder provides a fluent interface for building CreateJobRequest objects for testing.
type JobRequestBuilder struct {
	req *model.CreateJobRequest
}

// NewJobRequest creates a new JobRequestBuilder with sensible defaults.
func NewJobRequest() *JobRequestBuilder {
	return &JobRequestBuilder{
		req: &model.CreateJobRequest{
			Type:    model.JobTypeSync,
			OwnerID: "user-1",
		},
	}
}

// WithType sets the job type.
func (b *JobRequestBuilder) WithType(jobType model.JobType) *JobRequestBuilder {
	b.req.Type = jobType
	return b
}

// WithOwner sets the owning user.
func (b *JobRequestBuilder) WithOwner(ownerID string) *JobRequestBuilder {
	b.req.OwnerID = ownerID
	return b
}

// Build returns the constructed request.
func (b *JobRequestBuilder) Build() *model.CreateJobRequest {
	return b.req
}

// ValidationRequestBuilder provides a fluent interface for building StartValidationRequest objects for testing.
type ValidationRequestBuilder struct {
	req *model.StartValidationRequest
}

// NewValidationRequest creates a new ValidationRequestBuilder with sensible defaults.
func NewValidationRequest() *ValidationRequestBuilder {
	return &ValidationRequestBuilder{
		req: &model.StartValidationRequest{
			Token:   "test-token",
			OwnerID: "user-1",
			Items: []model.ValidationItem{
				{ID: "item-1", Name: "Widget", CategoryPath: "tools/widgets"},
			},
		},
	}
}

// WithToken sets the marketplace token.
func (b *ValidationRequestBuilder) WithToken(token string) *ValidationRequestBuilder {
	b.req.Token = token
	return b
}

// WithOwner sets the owning user.
func (b *ValidationRequestBuilder) WithOwner(ownerID string) *ValidationRequestBuilder {
	b.req.OwnerID = ownerID
	return b
}

// WithItems replaces the item list.
func (b *ValidationRequestBuilder) WithItems(items ...model.ValidationItem) *ValidationRequestBuilder {
	b.req.Items = items
	return b
}

// WithGeneratedItems fills the item list with n synthetic items.
func (b *ValidationRequestBuilder) WithGeneratedItems(n int) *ValidationRequestBuilder {
	items := make([]model.ValidationItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, model.ValidationItem{
			ID:           fmt.Sprintf("item-%d", i+1),
			Name:         fmt.Sprintf("Item %d", i+1),
			CategoryPath: "tools/widgets",
		})
	}
	b.req.Items = items
	return b
}

// WithDestructive toggles the destructive test phase.
func (b *ValidationRequestBuilder) WithDestructive(run bool) *ValidationRequestBuilder {
	b.req.RunDestructive = run
	return b
}

// Build returns the constructed request.
func (b *ValidationRequestBuilder) Build() *model.StartValidationRequest {
	return b.req
}
