package tenantclient

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/httpclient"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// HTTPClient talks to partner tenants over their federation HTTP API.
type HTTPClient struct {
	http   *httpclient.Client
	logger ectologger.Logger
}

// NewHTTPClient creates a tenant client backed by the shared HTTP client.
func NewHTTPClient(http *httpclient.Client, logger ectologger.Logger) *HTTPClient {
	return &HTTPClient{
		http:   http,
		logger: logger,
	}
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Items   []T  `json:"items"`
}

func (c *HTTPClient) fetchURL(tenant models.Tenant, path string, filters Filters) string {
	q := url.Values{}
	if filters.Query != "" {
		q.Set("q", filters.Query)
	}
	if filters.Category != "" {
		q.Set("category", filters.Category)
	}
	if filters.Kind != "" {
		q.Set("kind", filters.Kind)
	}
	if len(filters.Skills) > 0 {
		q.Set("skills", strings.Join(filters.Skills, ","))
	}
	if filters.Location != "" {
		q.Set("location", filters.Location)
	}
	if filters.ServiceReach != "" {
		q.Set("service_reach", string(filters.ServiceReach))
	}
	if filters.RequireMessaging {
		q.Set("require_messaging", strconv.FormatBool(true))
	}
	if filters.RequireTransactions {
		q.Set("require_transactions", strconv.FormatBool(true))
	}
	if filters.From != nil {
		q.Set("from", filters.From.UTC().Format(time.RFC3339))
	}
	if filters.To != nil {
		q.Set("to", filters.To.UTC().Format(time.RFC3339))
	}

	u := strings.TrimRight(tenant.BaseURL, "/") + path
	if encoded := q.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

func authHeaders(auth AuthContext) map[string]string {
	return map[string]string{
		"X-Tenant-ID": auth.TenantID.String(),
		"X-User-ID":   auth.UserID.String(),
	}
}

func fetch[T any](ctx context.Context, c *HTTPClient, tenant models.Tenant, path string, filters Filters, auth AuthContext) ([]T, error) {
	var resp envelope[T]
	u := c.fetchURL(tenant, path, filters)
	if err := c.http.GetJSON(ctx, u, authHeaders(auth), &resp); err != nil {
		c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"tenant_id": tenant.ID,
			"path":      path,
		}).Warn("partner tenant fetch failed")
		return nil, fmt.Errorf("tenant %s: %w", tenant.ID, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("tenant %s: fetch rejected", tenant.ID)
	}
	return resp.Items, nil
}

// memberPayload is a partner's member record as it arrives off the wire.
// It carries the owner's privacy settings, which models.FederatedMember
// deliberately never serializes outbound; decoding into the model directly
// would drop them before the privacy gate ever sees the record.
type memberPayload struct {
	ID                  uuid.UUID           `json:"id"`
	TenantID            uuid.UUID           `json:"tenant_id"`
	Name                string              `json:"name"`
	Avatar              *string             `json:"avatar"`
	Bio                 *string             `json:"bio"`
	Location            *string             `json:"location"`
	Skills              []string            `json:"skills"`
	ServiceReach        models.ServiceReach `json:"service_reach"`
	OptedIn             bool                `json:"opted_in"`
	PrivacyLevel        models.PrivacyLevel `json:"privacy_level"`
	ShowLocation        bool                `json:"show_location"`
	ShowSkills          bool                `json:"show_skills"`
	MessagingEnabled    bool                `json:"messaging_enabled"`
	TransactionsEnabled bool                `json:"transactions_enabled"`
	LastActiveAt        time.Time           `json:"last_active_at"`
	CreatedAt           time.Time           `json:"created_at"`
}

func (p memberPayload) toModel(tenant models.Tenant) models.FederatedMember {
	return models.FederatedMember{
		ID:                  p.ID,
		TenantID:            tenant.ID,
		Name:                p.Name,
		Avatar:              p.Avatar,
		Bio:                 p.Bio,
		Location:            p.Location,
		Skills:              p.Skills,
		ServiceReach:        p.ServiceReach,
		MessagingEnabled:    p.MessagingEnabled,
		TransactionsEnabled: p.TransactionsEnabled,
		OptedIn:             p.OptedIn,
		PrivacyLevel:        p.PrivacyLevel,
		ShowLocation:        p.ShowLocation,
		ShowSkills:          p.ShowSkills,
		LastActiveAt:        p.LastActiveAt,
		CreatedAt:           p.CreatedAt,
	}
}

// FetchMembers retrieves the tenant's opted-in members matching the filters.
func (c *HTTPClient) FetchMembers(ctx context.Context, tenant models.Tenant, filters Filters, auth AuthContext) ([]models.FederatedMember, error) {
	ctx, span := tracing.StartSpan(ctx, "tenantclient.HTTPClient.FetchMembers")
	defer span.End()

	payloads, err := fetch[memberPayload](ctx, c, tenant, "/api/v1/federation/members", filters, auth)
	if err != nil {
		return nil, err
	}
	members := make([]models.FederatedMember, 0, len(payloads))
	for _, p := range payloads {
		members = append(members, p.toModel(tenant))
	}
	return members, nil
}

// FetchListings retrieves the tenant's listings matching the filters.
func (c *HTTPClient) FetchListings(ctx context.Context, tenant models.Tenant, filters Filters, auth AuthContext) ([]models.FederatedListing, error) {
	ctx, span := tracing.StartSpan(ctx, "tenantclient.HTTPClient.FetchListings")
	defer span.End()

	return fetch[models.FederatedListing](ctx, c, tenant, "/api/v1/federation/listings", filters, auth)
}

// FetchEvents retrieves the tenant's events matching the filters.
func (c *HTTPClient) FetchEvents(ctx context.Context, tenant models.Tenant, filters Filters, auth AuthContext) ([]models.FederatedEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "tenantclient.HTTPClient.FetchEvents")
	defer span.End()

	return fetch[models.FederatedEvent](ctx, c, tenant, "/api/v1/federation/events", filters, auth)
}

// FetchGroups retrieves the tenant's groups matching the filters.
func (c *HTTPClient) FetchGroups(ctx context.Context, tenant models.Tenant, filters Filters, auth AuthContext) ([]models.FederatedGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "tenantclient.HTTPClient.FetchGroups")
	defer span.End()

	return fetch[models.FederatedGroup](ctx, c, tenant, "/api/v1/federation/groups", filters, auth)
}

// FetchSkills retrieves the tenant's distinct skill tokens with the prefix.
func (c *HTTPClient) FetchSkills(ctx context.Context, tenant models.Tenant, prefix string, auth AuthContext) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "tenantclient.HTTPClient.FetchSkills")
	defer span.End()

	return fetch[string](ctx, c, tenant, "/api/v1/federation/skills", Filters{Query: prefix}, auth)
}
