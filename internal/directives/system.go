package directives

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/assent/pkg/pagination"
)

// System defines the public contract for directive operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Directive], error)

	Find(ctx context.Context, id uuid.UUID) (*Directive, error)

	// Instructions returns the active override for scope, or the built-in
	// default when none is active.
	Instructions(ctx context.Context, scope Scope) (string, error)
	Spec(ctx context.Context, scope Scope) (string, error)

	Create(ctx context.Context, cmd CreateCommand) (*Directive, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Directive, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Activate(ctx context.Context, id uuid.UUID) (*Directive, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*Directive, error)
}
