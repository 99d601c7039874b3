package policies

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
	"github.com/JaimeStill/assent/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a policy repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "policies"),
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
) (*pagination.PageResult[Policy], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Title", "Payer")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count policies: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanPolicy)
	if err != nil {
		return nil, fmt.Errorf("query policies: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Policy, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPolicy)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}
	return &p, nil
}

func (r *repo) FindByCode(ctx context.Context, code string) (*Policy, error) {
	active := StatusActive
	q, args := query.
		NewBuilder(projection, latestSync).
		WhereHasElement("Codes", &code).
		WhereEquals("Status", &active).
		BuildFirst()

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPolicy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: code %s", ErrNotFound, code)
		}
		return nil, fmt.Errorf("find policy by code %s: %w", code, err)
	}
	return &p, nil
}

func (r *repo) Sections(ctx context.Context, policyID uuid.UUID) ([]Section, error) {
	q, args := query.
		NewBuilder(sectionProjection, query.SortField{Field: "DisplayOrder"}).
		WhereEquals("PolicyID", policyID).
		WhereNull("SupersededAt").
		Build()

	sections, err := repository.QueryMany(ctx, r.db, q, args, scanSection)
	if err != nil {
		return nil, fmt.Errorf("query sections for policy %s: %w", policyID, err)
	}
	return sections, nil
}

func (r *repo) Rules(ctx context.Context, policyID uuid.UUID) ([]Rule, error) {
	q, args := query.
		NewBuilder(ruleProjection, query.SortField{Field: "Position"}).
		WhereEquals("PolicyID", policyID).
		Build()

	rules, err := repository.QueryMany(ctx, r.db, q, args, scanRule)
	if err != nil {
		return nil, fmt.Errorf("query rules for policy %s: %w", policyID, err)
	}
	return rules, nil
}

func (r *repo) Source(ctx context.Context, policyID uuid.UUID) (*storage.Blob, error) {
	p, err := r.Find(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if p.SourceRef == "" {
		return nil, ErrNoSource
	}

	blob, err := r.storage.Download(ctx, p.SourceRef)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			r.logger.Warn("policy source missing from storage", "id", p.ID, "source_ref", p.SourceRef)
			return nil, ErrNoSource
		}
		return nil, err
	}
	return blob, nil
}
