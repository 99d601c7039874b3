package policies

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/assent/pkg/pagination"
	"github.com/JaimeStill/assent/pkg/storage"
)

// System defines the public contract for policy store operations.
// The store is read-only; policies are written by the external corpus sync.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Policy], error)

	Find(ctx context.Context, id uuid.UUID) (*Policy, error)

	// FindByCode returns the most recently synced active policy whose code
	// list contains code, or ErrNotFound.
	FindByCode(ctx context.Context, code string) (*Policy, error)

	// Sections returns the policy's current sections in display order.
	Sections(ctx context.Context, policyID uuid.UUID) ([]Section, error)

	// Rules returns the policy's structured rules in position order.
	Rules(ctx context.Context, policyID uuid.UUID) ([]Rule, error)

	// Source opens the policy's source document. The caller must close the body.
	Source(ctx context.Context, policyID uuid.UUID) (*storage.Blob, error)
}
