// Package tenantclient is the narrow surface through which partner tenants
// are queried. Each partner owns its data; the client pushes filters down and
// never caches across requests.
package tenantclient

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Filters is the tenant-local filter set pushed down with every fetch. The
// partner applies them against its own store; the router only re-filters for
// privacy.
type Filters struct {
	Query               string              `json:"q,omitempty"`
	Category            string              `json:"category,omitempty"`
	Kind                string              `json:"kind,omitempty"`
	Skills              []string            `json:"skills,omitempty"`
	Location            string              `json:"location,omitempty"`
	ServiceReach        models.ServiceReach `json:"service_reach,omitempty"`
	RequireMessaging    bool                `json:"require_messaging,omitempty"`
	RequireTransactions bool                `json:"require_transactions,omitempty"`
	From                *time.Time          `json:"from,omitempty"`
	To                  *time.Time          `json:"to,omitempty"`
}

// AuthContext identifies the caller to the partner tenant.
type AuthContext struct {
	TenantID uuid.UUID `json:"tenant_id"`
	UserID   uuid.UUID `json:"user_id"`
}

// Client fetches federated records from one partner tenant. Implementations
// must honor ctx cancellation and deadlines; the router relies on that for
// its per-tenant timeout and supersede behavior.
type Client interface {
	FetchMembers(ctx context.Context, tenant models.Tenant, filters Filters, auth AuthContext) ([]models.FederatedMember, error)
	FetchListings(ctx context.Context, tenant models.Tenant, filters Filters, auth AuthContext) ([]models.FederatedListing, error)
	FetchEvents(ctx context.Context, tenant models.Tenant, filters Filters, auth AuthContext) ([]models.FederatedEvent, error)
	FetchGroups(ctx context.Context, tenant models.Tenant, filters Filters, auth AuthContext) ([]models.FederatedGroup, error)
	FetchSkills(ctx context.Context, tenant models.Tenant, prefix string, auth AuthContext) ([]string, error)
}
