// Package registry resolves which partner communities a tenant may query.
package registry

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/repositories"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/utils"
)

// Partner is a tenant eligible to serve a federated query, paired with the
// partnership direction that made it eligible.
type Partner struct {
	Tenant      models.Tenant      `json:"tenant"`
	Partnership models.Partnership `json:"partnership"`
}

// Registry is the partnership registry service
type Registry struct {
	tenants      *repositories.TenantRepository
	partnerships *repositories.PartnershipRepository
	emitter      *events.Emitter
	logger       ectologger.Logger
}

// NewRegistry creates a new partnership registry
func NewRegistry(
	tenants *repositories.TenantRepository,
	partnerships *repositories.PartnershipRepository,
	emitter *events.Emitter,
	logger ectologger.Logger,
) *Registry {
	return &Registry{
		tenants:      tenants,
		partnerships: partnerships,
		emitter:      emitter,
		logger:       logger,
	}
}

// EligiblePartners returns the partner tenants that share the given feature
// with the querying tenant. Only active partnership directions count, and
// only the direction pointing at the querying tenant: the partner decides
// what it shares, not the querier.
func (r *Registry) EligiblePartners(ctx context.Context, tenantID uuid.UUID, feature models.Feature) ([]Partner, error) {
	ctx, span := tracing.StartSpan(ctx, "registry.Registry.EligiblePartners")
	defer span.End()

	// 404 for a tenant the registry has never heard of.
	if _, err := r.tenants.GetByID(ctx, tenantID); err != nil {
		return nil, err
	}

	directions, err := r.partnerships.ListSharingWith(ctx, tenantID, feature)
	if err != nil {
		return nil, err
	}
	if len(directions) == 0 {
		return []Partner{}, nil
	}

	ids := make([]uuid.UUID, 0, len(directions))
	for _, d := range directions {
		ids = append(ids, d.TenantID)
	}

	tenants, err := r.tenants.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Tenant, len(tenants))
	for _, t := range tenants {
		byID[t.ID] = t
	}

	partners := make([]Partner, 0, len(directions))
	for _, d := range directions {
		tenant, ok := byID[d.TenantID]
		if !ok {
			// Partnership row pointing at a missing tenant. Skip it rather
			// than fail the whole query.
			r.logger.WithContext(ctx).WithFields(map[string]any{
				"partnership_id": d.ID,
				"tenant_id":      d.TenantID,
			}).Warn("partnership references unknown tenant")
			continue
		}
		partners = append(partners, Partner{Tenant: tenant, Partnership: d})
	}

	return partners, nil
}

// ListPartnerships returns every partnership direction owned by the tenant,
// for the admin surface.
func (r *Registry) ListPartnerships(ctx context.Context, tenantID uuid.UUID) ([]models.Partnership, error) {
	ctx, span := tracing.StartSpan(ctx, "registry.Registry.ListPartnerships")
	defer span.End()

	return r.partnerships.ListForTenant(ctx, tenantID)
}

// FeatureUpdate is the mutable surface of a partnership direction. Nil fields
// are left unchanged.
type FeatureUpdate struct {
	Status              *models.PartnershipStatus `json:"status" validate:"omitempty,oneof=active suspended"`
	MembersEnabled      *bool                     `json:"members_enabled"`
	ListingsEnabled     *bool                     `json:"listings_enabled"`
	EventsEnabled       *bool                     `json:"events_enabled"`
	GroupsEnabled       *bool                     `json:"groups_enabled"`
	MessagingEnabled    *bool                     `json:"messaging_enabled"`
	TransactionsEnabled *bool                     `json:"transactions_enabled"`
}

// UpdateFeatures applies a feature update to the direction the tenant owns
// toward the given partner and emits partnership.updated.
func (r *Registry) UpdateFeatures(ctx context.Context, tenantID, partnerTenantID uuid.UUID, update *FeatureUpdate) (*models.Partnership, error) {
	ctx, span := tracing.StartSpan(ctx, "registry.Registry.UpdateFeatures")
	defer span.End()

	if _, err := utils.Validate(update); err != nil {
		return nil, httperror.WrapError(http.StatusBadRequest, err)
	}

	partnership, err := r.partnerships.GetPair(ctx, tenantID, partnerTenantID)
	if err != nil {
		return nil, err
	}

	if update.Status != nil {
		partnership.Status = *update.Status
	}
	if update.MembersEnabled != nil {
		partnership.MembersEnabled = *update.MembersEnabled
	}
	if update.ListingsEnabled != nil {
		partnership.ListingsEnabled = *update.ListingsEnabled
	}
	if update.EventsEnabled != nil {
		partnership.EventsEnabled = *update.EventsEnabled
	}
	if update.GroupsEnabled != nil {
		partnership.GroupsEnabled = *update.GroupsEnabled
	}
	if update.MessagingEnabled != nil {
		partnership.MessagingEnabled = *update.MessagingEnabled
	}
	if update.TransactionsEnabled != nil {
		partnership.TransactionsEnabled = *update.TransactionsEnabled
	}

	if err := r.partnerships.UpdateFeatures(ctx, partnership); err != nil {
		return nil, err
	}

	if r.emitter != nil {
		if err := r.emitter.EmitPartnershipUpdated(ctx, partnership); err != nil {
			// The update is committed; the event is advisory.
			r.logger.WithContext(ctx).WithError(err).Warn("partnership updated but event emission failed")
		}
	}

	return partnership, nil
}
