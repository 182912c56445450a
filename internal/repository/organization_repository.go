package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/parietal-io/djaodjin-saas/internal/cache"
	"github.com/parietal-io/djaodjin-saas/internal/ledger"
	"github.com/parietal-io/djaodjin-saas/internal/models"
)

const organizationKeyPrefix = "organization:"

// OrganizationRepository resolves organization slugs, Redis first with
// a PostgreSQL fallback.
type OrganizationRepository struct {
	db    *sql.DB
	views *cache.View[models.Organization]
}

func NewOrganizationRepository(db *sql.DB, redisClient *goredis.Client) *OrganizationRepository {
	return &OrganizationRepository{
		db:    db,
		views: cache.NewView[models.Organization](redisClient, 10*time.Minute),
	}
}

func (r *OrganizationRepository) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	cacheKey := organizationKeyPrefix + slug
	if org, ok := r.views.Get(ctx, cacheKey); ok {
		return org, nil
	}

	var org models.Organization
	err := r.db.QueryRowContext(ctx,
		"SELECT slug, full_name FROM organizations WHERE slug = $1", slug).
		Scan(&org.Slug, &org.FullName)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrOrganizationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	r.views.Set(ctx, cacheKey, &org)
	return &org, nil
}
