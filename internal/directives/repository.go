package directives

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/assent/pkg/pagination"
	"github.com/JaimeStill/assent/pkg/query"
	"github.com/JaimeStill/assent/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a directive repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "directives"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Directive], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "Description")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count directives: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanDirective)
	if err != nil {
		return nil, fmt.Errorf("query directives: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Directive, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDirective)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

func (r *repo) Instructions(ctx context.Context, scope Scope) (string, error) {
	fallback, err := Instructions(scope)
	if err != nil {
		return "", err
	}

	active := true
	q, args := query.
		NewBuilder(projection).
		WhereEquals("Scope", &scope).
		WhereEquals("Active", &active).
		BuildFirst()

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDirective)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fallback, nil
		}
		return "", fmt.Errorf("query active %s directive: %w", scope, err)
	}
	return d.Instructions, nil
}

func (r *repo) Spec(_ context.Context, scope Scope) (string, error) {
	return Spec(scope)
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Directive, error) {
	if err := validate(cmd.Name, cmd.Scope, cmd.Instructions); err != nil {
		return nil, err
	}

	q := `
		INSERT INTO directives(name, scope, instructions, description)
		VALUES ($1, $2, $3, $4)
		` + returning

	args := []any{cmd.Name, cmd.Scope, cmd.Instructions, cmd.Description}

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Directive, error) {
		return repository.QueryOne(ctx, tx, q, args, scanDirective)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("directive created", "id", d.ID, "name", d.Name, "scope", d.Scope)
	return &d, nil
}

// Update rewrites a directive. Moving an active directive to another scope
// deactivates it so the target scope keeps at most one active override.
func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Directive, error) {
	if err := validate(cmd.Name, cmd.Scope, cmd.Instructions); err != nil {
		return nil, err
	}

	q := `
		UPDATE directives
		SET name = $1, scope = $2, instructions = $3, description = $4,
			active = active AND scope = $2
		WHERE id = $5
		` + returning

	args := []any{cmd.Name, cmd.Scope, cmd.Instructions, cmd.Description, id}

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Directive, error) {
		return repository.QueryOne(ctx, tx, q, args, scanDirective)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("directive updated", "id", d.ID, "name", d.Name)
	return &d, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM directives WHERE id = $1",
			id,
		)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("directive deleted", "id", id)
	return nil
}

func (r *repo) Activate(ctx context.Context, id uuid.UUID) (*Directive, error) {
	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Directive, error) {
		findQ, findArgs := query.NewBuilder(projection).BuildSingle("ID", id)
		target, err := repository.QueryOne(ctx, tx, findQ, findArgs, scanDirective)
		if err != nil {
			return Directive{}, err
		}

		if _, err := tx.ExecContext(
			ctx,
			"UPDATE directives SET active = false WHERE scope = $1 AND active = true AND id <> $2",
			target.Scope, id,
		); err != nil {
			return Directive{}, fmt.Errorf("deactivate current: %w", err)
		}

		q := "UPDATE directives SET active = true WHERE id = $1 " + returning
		return repository.QueryOne(ctx, tx, q, []any{id}, scanDirective)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("directive activated", "id", d.ID, "name", d.Name, "scope", d.Scope)
	return &d, nil
}

func (r *repo) Deactivate(ctx context.Context, id uuid.UUID) (*Directive, error) {
	q := "UPDATE directives SET active = false WHERE id = $1 " + returning

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Directive, error) {
		return repository.QueryOne(ctx, tx, q, []any{id}, scanDirective)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("directive deactivated", "id", d.ID, "name", d.Name, "scope", d.Scope)
	return &d, nil
}
