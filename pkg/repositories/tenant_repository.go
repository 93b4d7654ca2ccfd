package repositories

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const tenantsTable = "tenants"

var tenantStruct = database.NewStruct(new(models.Tenant))

// TenantRepository handles database operations for tenants
type TenantRepository struct {
	*Repository
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db database.DB, logger ectologger.Logger) *TenantRepository {
	return &TenantRepository{
		Repository: NewRepository(db, logger),
	}
}

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	ctx, span := tracing.StartSpan(ctx, "TenantRepository.GetByID")
	defer span.End()

	sb := tenantStruct.SelectFrom(tenantsTable)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var tenant models.Tenant
	err := r.DB().GetContext(ctx, &tenant, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "tenant %s does not exist", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"tenant_id": id,
		}).Error("failed to get tenant by ID")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get tenant by ID")
	}

	return &tenant, nil
}

// GetByIDs retrieves multiple tenants by ID
func (r *TenantRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Tenant, error) {
	ctx, span := tracing.StartSpan(ctx, "TenantRepository.GetByIDs")
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}

	idArgs := make([]any, 0, len(ids))
	for _, id := range ids {
		idArgs = append(idArgs, id)
	}

	sb := tenantStruct.SelectFrom(tenantsTable)
	sb.Where(sb.In("id", idArgs...))
	sb.OrderBy("name")

	query, args := sb.Build()
	var tenants []models.Tenant
	err := r.DB().SelectContext(ctx, &tenants, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to get tenants by IDs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get tenants by IDs")
	}

	return tenants, nil
}

// List retrieves all tenants
func (r *TenantRepository) List(ctx context.Context) ([]models.Tenant, error) {
	ctx, span := tracing.StartSpan(ctx, "TenantRepository.List")
	defer span.End()

	sb := tenantStruct.SelectFrom(tenantsTable)
	sb.OrderBy("name")

	query, args := sb.Build()
	var tenants []models.Tenant
	err := r.DB().SelectContext(ctx, &tenants, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list tenants")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list tenants")
	}

	return tenants, nil
}
