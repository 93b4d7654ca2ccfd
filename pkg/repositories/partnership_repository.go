package repositories

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const partnershipsTable = "partnerships"

var partnershipStruct = database.NewStruct(new(models.Partnership))

// featureColumns maps a partnership feature to its flag column. The map is
// the only place feature names touch SQL, which keeps the feature set closed.
var featureColumns = map[models.Feature]string{
	models.FeatureMembers:      "members_enabled",
	models.FeatureListings:     "listings_enabled",
	models.FeatureEvents:       "events_enabled",
	models.FeatureGroups:       "groups_enabled",
	models.FeatureMessaging:    "messaging_enabled",
	models.FeatureTransactions: "transactions_enabled",
}

// PartnershipRepository handles database operations for partnerships
type PartnershipRepository struct {
	*Repository
}

// NewPartnershipRepository creates a new partnership repository
func NewPartnershipRepository(db database.DB, logger ectologger.Logger) *PartnershipRepository {
	return &PartnershipRepository{
		Repository: NewRepository(db, logger),
	}
}

// ListForTenant retrieves every partnership direction originating from the
// given tenant, newest first.
func (r *PartnershipRepository) ListForTenant(ctx context.Context, tenantID uuid.UUID) ([]models.Partnership, error) {
	ctx, span := tracing.StartSpan(ctx, "PartnershipRepository.ListForTenant")
	defer span.End()

	sb := partnershipStruct.SelectFrom(partnershipsTable)
	sb.Where(sb.Equal("tenant_id", tenantID))
	sb.OrderBy("since DESC")

	query, args := sb.Build()
	var partnerships []models.Partnership
	err := r.DB().SelectContext(ctx, &partnerships, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"tenant_id": tenantID,
		}).Error("failed to list partnerships")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list partnerships")
	}

	return partnerships, nil
}

// ListSharingWith retrieves the active partnership directions that share the
// given feature with the tenant. Each returned row belongs to a partner
// tenant and records what that partner exposes.
func (r *PartnershipRepository) ListSharingWith(ctx context.Context, tenantID uuid.UUID, feature models.Feature) ([]models.Partnership, error) {
	ctx, span := tracing.StartSpan(ctx, "PartnershipRepository.ListSharingWith")
	defer span.End()

	column, ok := featureColumns[feature]
	if !ok {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown partnership feature '%s'", feature)
	}

	sb := partnershipStruct.SelectFrom(partnershipsTable)
	sb.Where(
		sb.Equal("partner_tenant_id", tenantID),
		sb.Equal("status", models.PartnershipActive),
		sb.Equal(column, true),
	)
	sb.OrderBy("since DESC")

	query, args := sb.Build()
	var partnerships []models.Partnership
	err := r.DB().SelectContext(ctx, &partnerships, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"tenant_id": tenantID,
			"feature":   feature,
		}).Error("failed to list sharing partnerships")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list sharing partnerships")
	}

	return partnerships, nil
}

// GetPair retrieves the direction (tenantID -> partnerTenantID).
func (r *PartnershipRepository) GetPair(ctx context.Context, tenantID, partnerTenantID uuid.UUID) (*models.Partnership, error) {
	ctx, span := tracing.StartSpan(ctx, "PartnershipRepository.GetPair")
	defer span.End()

	sb := partnershipStruct.SelectFrom(partnershipsTable)
	sb.Where(sb.Equal("tenant_id", tenantID), sb.Equal("partner_tenant_id", partnerTenantID))

	query, args := sb.Build()
	var partnership models.Partnership
	err := r.DB().GetContext(ctx, &partnership, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "no partnership between %s and %s", tenantID, partnerTenantID)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"tenant_id":         tenantID,
			"partner_tenant_id": partnerTenantID,
		}).Error("failed to get partnership")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get partnership")
	}

	return &partnership, nil
}

// UpdateFeatures updates the feature flags and status of one partnership
// direction. Only the owning tenant's direction is mutable through the API.
func (r *PartnershipRepository) UpdateFeatures(ctx context.Context, partnership *models.Partnership) error {
	ctx, span := tracing.StartSpan(ctx, "PartnershipRepository.UpdateFeatures")
	defer span.End()

	tenantID, err := GetTenantID(ctx)
	if err != nil {
		return err
	}

	ub := database.NewUpdateBuilder()
	ub.Update(partnershipsTable).
		Set(
			ub.Assign("status", partnership.Status),
			ub.Assign("members_enabled", partnership.MembersEnabled),
			ub.Assign("listings_enabled", partnership.ListingsEnabled),
			ub.Assign("events_enabled", partnership.EventsEnabled),
			ub.Assign("groups_enabled", partnership.GroupsEnabled),
			ub.Assign("messaging_enabled", partnership.MessagingEnabled),
			ub.Assign("transactions_enabled", partnership.TransactionsEnabled),
			ub.Assign("updated_at", sqlbuilder.Raw("NOW()")),
		).
		Where(ub.Equal("tenant_id", tenantID), ub.Equal("partner_tenant_id", partnership.PartnerTenantID))
	ub.SQL("RETURNING updated_at")

	query, args := ub.Build()
	err = r.DB().QueryRowContext(ctx, query, args...).Scan(&partnership.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "no partnership with %s", partnership.PartnerTenantID)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"partner_tenant_id": partnership.PartnerTenantID,
		}).Error("failed to update partnership features")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update partnership features")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"partner_tenant_id": partnership.PartnerTenantID,
	}).Debugf("Updated %s", partnershipsTable)
	return nil
}
