// Package federation implements the federated query router: it fans a search
// out across every eligible partner tenant, applies privacy gating to the
// returned records, and merges the survivors into one deterministic,
// paginated sequence.
package federation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	appctx "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/privacy"
	"github.com/Ramsey-B/clover/pkg/registry"
	"github.com/Ramsey-B/clover/pkg/tenantclient"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const (
	// DefaultLimit is the page size used when the caller supplies none
	DefaultLimit = 20

	// MaxLimit caps the page size a caller may request
	MaxLimit = 100

	// DefaultGlobalTimeout caps the whole search regardless of per-partner
	// timeouts
	DefaultGlobalTimeout = 15 * time.Second
)

// RouterConfig tunes the router's concurrency and pagination bounds.
type RouterConfig struct {
	Concurrency    int
	PartnerTimeout time.Duration
	GlobalTimeout  time.Duration
	DefaultLimit   int
	MaxLimit       int
}

// Router is the federated query router service
type Router struct {
	registry *registry.Registry
	client   tenantclient.Client
	tracker  *SupersedeTracker
	cfg      RouterConfig
	logger   ectologger.Logger
}

// NewRouter creates a new federated query router
func NewRouter(
	reg *registry.Registry,
	client tenantclient.Client,
	tracker *SupersedeTracker,
	cfg RouterConfig,
	logger ectologger.Logger,
) *Router {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = MaxLimit
	}
	if cfg.GlobalTimeout <= 0 {
		cfg.GlobalTimeout = DefaultGlobalTimeout
	}
	return &Router{
		registry: reg,
		client:   client,
		tracker:  tracker,
		cfg:      cfg,
		logger:   logger,
	}
}

// SearchRequest is one federated search. Offset/limit pagination is
// stateless: every page is a full re-query, made consistent by the composite
// merge key rather than server-held cursors.
type SearchRequest struct {
	Resource models.ResourceType
	TenantID *uuid.UUID // restrict the search to a single partner
	Filters  tenantclient.Filters
	Offset   int
	Limit    int
	Sort     SortOrder
}

// SearchResponse is the merged, paginated result of a federated search.
// TenantsConsulted lists the partners that answered; a partner that timed
// out or errored is absent, letting callers distinguish "no partners" from
// "partner unreachable".
type SearchResponse struct {
	Success          bool        `json:"success"`
	Items            []any       `json:"items"`
	HasMore          bool        `json:"hasMore"`
	TenantsConsulted []uuid.UUID `json:"tenantsConsulted"`
}

func defaultSort(resource models.ResourceType) SortOrder {
	if resource == models.ResourceMember {
		return SortName
	}
	return SortRecent
}

func (r *Router) normalize(req *SearchRequest) error {
	if !req.Resource.Valid() {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown resource type %q", req.Resource)
	}
	if req.Sort == "" {
		req.Sort = defaultSort(req.Resource)
	}
	if !req.Sort.Valid() {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown sort %q", req.Sort)
	}
	if req.Offset < 0 {
		return httperror.NewHTTPError(http.StatusBadRequest, "offset must not be negative")
	}
	if req.Limit <= 0 {
		req.Limit = r.cfg.DefaultLimit
	}
	if req.Limit > r.cfg.MaxLimit {
		req.Limit = r.cfg.MaxLimit
	}
	return nil
}

func (r *Router) authFromContext(ctx context.Context) (tenantclient.AuthContext, error) {
	tenantID, err := uuid.Parse(appctx.GetTenantID(ctx))
	if err != nil {
		return tenantclient.AuthContext{}, httperror.NewHTTPError(http.StatusUnauthorized, "missing tenant id")
	}
	userID, err := uuid.Parse(appctx.GetUserID(ctx))
	if err != nil {
		return tenantclient.AuthContext{}, httperror.NewHTTPError(http.StatusUnauthorized, "missing user id")
	}
	return tenantclient.AuthContext{TenantID: tenantID, UserID: userID}, nil
}

// sessionKey scopes supersede tracking to one user's client session.
func sessionKey(ctx context.Context, auth tenantclient.AuthContext) string {
	clientSession := appctx.GetSessionKey(ctx)
	if clientSession == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s:%s", auth.TenantID, auth.UserID, clientSession)
}

// Search fans the request out to every eligible partner, gates and merges the
// results, and returns one page. A partner that fails is skipped; a registry
// failure is fatal.
func (r *Router) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "federation.Router.Search")
	defer span.End()

	start := time.Now()

	if err := r.normalize(&req); err != nil {
		metrics.RecordSearch(string(req.Resource), "invalid", time.Since(start).Seconds())
		return nil, err
	}

	auth, err := r.authFromContext(ctx)
	if err != nil {
		return nil, err
	}

	searchCtx, release := r.tracker.Begin(ctx, sessionKey(ctx, auth))
	defer release()

	searchCtx, cancel := context.WithTimeout(searchCtx, r.cfg.GlobalTimeout)
	defer cancel()

	partners, err := r.registry.EligiblePartners(searchCtx, auth.TenantID, req.Resource.Feature())
	if err != nil {
		metrics.RecordSearch(string(req.Resource), "error", time.Since(start).Seconds())
		return nil, err
	}

	if req.TenantID != nil {
		filtered := partners[:0]
		for _, p := range partners {
			if p.Tenant.ID == *req.TenantID {
				filtered = append(filtered, p)
			}
		}
		partners = filtered
	}

	records, consulted := r.collect(searchCtx, partners, auth, req)

	// A search superseded mid-flight must not be mistaken for a partial
	// result with every partner down.
	if err := searchCtx.Err(); errors.Is(err, context.Canceled) && ctx.Err() == nil {
		metrics.RecordSearch(string(req.Resource), "superseded", time.Since(start).Seconds())
		return nil, httperror.NewHTTPError(http.StatusConflict, "search superseded by a newer request")
	}

	sortRecords(records, req.Sort)
	items, hasMore := paginate(records, req.Offset, req.Limit)

	sort.Slice(consulted, func(i, j int) bool { return consulted[i].String() < consulted[j].String() })

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"resource":          req.Resource,
		"partners":          len(partners),
		"tenants_consulted": len(consulted),
		"merged":            len(records),
		"returned":          len(items),
	}).Debug("federated search completed")

	metrics.RecordSearch(string(req.Resource), "success", time.Since(start).Seconds())

	return &SearchResponse{
		Success:          true,
		Items:            items,
		HasMore:          hasMore,
		TenantsConsulted: consulted,
	}, nil
}

// collect dispatches the fan-out for the request's resource type and returns
// the gated records plus the partners that answered.
func (r *Router) collect(ctx context.Context, partners []registry.Partner, auth tenantclient.AuthContext, req SearchRequest) ([]record, []uuid.UUID) {
	switch req.Resource {
	case models.ResourceMember:
		return collectRecords(r, ctx, partners,
			func(ctx context.Context, p registry.Partner) ([]models.FederatedMember, error) {
				return r.client.FetchMembers(ctx, p.Tenant, req.Filters, auth)
			},
			func(m *models.FederatedMember, p *registry.Partner) bool {
				if !privacy.Visible(m) {
					return false
				}
				// Capture the owner's settings before redaction wipes
				// the flags the action gates read.
				settings := privacy.MemberSettings(m)
				privacy.Redact(m, &p.Partnership)
				if len(req.Filters.Skills) > 0 && !matchesAnySkill(m.Skills, req.Filters.Skills) {
					return false
				}
				if req.Filters.RequireMessaging && !privacy.CanMessage(settings, &p.Partnership) {
					return false
				}
				if req.Filters.RequireTransactions && !privacy.CanTransact(settings, &p.Partnership) {
					return false
				}
				m.TenantName = p.Tenant.Name
				return true
			},
			func(m *models.FederatedMember, order SortOrder) mergeKey {
				ts := m.CreatedAt
				if order == SortActive {
					ts = m.LastActiveAt
				}
				return newMergeKey(m.Name, ts, m.TenantID, m.ID)
			},
			req.Sort)

	case models.ResourceListing:
		return collectRecords(r, ctx, partners,
			func(ctx context.Context, p registry.Partner) ([]models.FederatedListing, error) {
				return r.client.FetchListings(ctx, p.Tenant, req.Filters, auth)
			},
			func(l *models.FederatedListing, p *registry.Partner) bool {
				l.TenantName = p.Tenant.Name
				return true
			},
			func(l *models.FederatedListing, order SortOrder) mergeKey {
				ts := l.CreatedAt
				if order == SortActive {
					ts = l.LastActiveAt
				}
				return newMergeKey(l.Title, ts, l.TenantID, l.ID)
			},
			req.Sort)

	case models.ResourceEvent:
		return collectRecords(r, ctx, partners,
			func(ctx context.Context, p registry.Partner) ([]models.FederatedEvent, error) {
				return r.client.FetchEvents(ctx, p.Tenant, req.Filters, auth)
			},
			func(e *models.FederatedEvent, p *registry.Partner) bool {
				e.TenantName = p.Tenant.Name
				return true
			},
			func(e *models.FederatedEvent, order SortOrder) mergeKey {
				ts := e.CreatedAt
				if order == SortActive {
					ts = e.StartsAt
				}
				return newMergeKey(e.Title, ts, e.TenantID, e.ID)
			},
			req.Sort)

	default: // models.ResourceGroup, resource already validated
		return collectRecords(r, ctx, partners,
			func(ctx context.Context, p registry.Partner) ([]models.FederatedGroup, error) {
				return r.client.FetchGroups(ctx, p.Tenant, req.Filters, auth)
			},
			func(g *models.FederatedGroup, p *registry.Partner) bool {
				g.TenantName = p.Tenant.Name
				return true
			},
			func(g *models.FederatedGroup, order SortOrder) mergeKey {
				ts := g.CreatedAt
				if order == SortActive {
					ts = g.LastActiveAt
				}
				return newMergeKey(g.Name, ts, g.TenantID, g.ID)
			},
			req.Sort)
	}
}

// collectRecords runs the fan-out for one resource type and folds the
// per-partner results into gated, keyed records. include may mutate the
// record (redaction) and returning false drops it.
func collectRecords[T any](
	r *Router,
	ctx context.Context,
	partners []registry.Partner,
	fetch func(ctx context.Context, p registry.Partner) ([]T, error),
	include func(item *T, p *registry.Partner) bool,
	key func(item *T, order SortOrder) mergeKey,
	order SortOrder,
) ([]record, []uuid.UUID) {
	results := fanOut(ctx, partners, r.cfg.Concurrency, r.cfg.PartnerTimeout, r.logger, fetch)

	records := make([]record, 0)
	consulted := make([]uuid.UUID, 0, len(results))
	for i := range results {
		res := &results[i]
		if res.err != nil {
			continue
		}
		consulted = append(consulted, res.partner.Tenant.ID)
		for j := range res.items {
			item := &res.items[j]
			if !include(item, &res.partner) {
				continue
			}
			records = append(records, record{item: item, key: key(item, order)})
		}
	}
	return records, consulted
}

// matchesAnySkill reports whether any requested skill appears in the
// member's skill set (OR semantics), case-insensitively.
func matchesAnySkill(memberSkills, wanted []string) bool {
	if len(memberSkills) == 0 {
		return false
	}
	have := make(map[string]bool, len(memberSkills))
	for _, s := range memberSkills {
		have[strings.ToLower(s)] = true
	}
	for _, w := range wanted {
		if have[strings.ToLower(w)] {
			return true
		}
	}
	return false
}

// SkillsResponse is the merged skills autocomplete result.
type SkillsResponse struct {
	Success          bool        `json:"success"`
	Skills           []string    `json:"skills"`
	TenantsConsulted []uuid.UUID `json:"tenantsConsulted"`
}

// SearchSkills is the autocomplete variant of Search: the same fan-out,
// restricted to distinct skill tokens with the given prefix.
func (r *Router) SearchSkills(ctx context.Context, prefix string, limit int) (*SkillsResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "federation.Router.SearchSkills")
	defer span.End()

	auth, err := r.authFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > r.cfg.MaxLimit {
		limit = r.cfg.DefaultLimit
	}

	searchCtx, cancel := context.WithTimeout(ctx, r.cfg.GlobalTimeout)
	defer cancel()

	partners, err := r.registry.EligiblePartners(searchCtx, auth.TenantID, models.FeatureMembers)
	if err != nil {
		return nil, err
	}

	results := fanOut(searchCtx, partners, r.cfg.Concurrency, r.cfg.PartnerTimeout, r.logger,
		func(ctx context.Context, p registry.Partner) ([]string, error) {
			return r.client.FetchSkills(ctx, p.Tenant, prefix, auth)
		})

	seen := make(map[string]bool)
	skills := make([]string, 0)
	consulted := make([]uuid.UUID, 0, len(results))
	lowerPrefix := strings.ToLower(prefix)
	for _, res := range results {
		if res.err != nil {
			continue
		}
		consulted = append(consulted, res.partner.Tenant.ID)
		for _, s := range res.items {
			token := strings.TrimSpace(s)
			key := strings.ToLower(token)
			if token == "" || seen[key] {
				continue
			}
			if lowerPrefix != "" && !strings.HasPrefix(key, lowerPrefix) {
				continue
			}
			seen[key] = true
			skills = append(skills, token)
		}
	}

	sort.Slice(skills, func(i, j int) bool { return strings.ToLower(skills[i]) < strings.ToLower(skills[j]) })
	if len(skills) > limit {
		skills = skills[:limit]
	}
	sort.Slice(consulted, func(i, j int) bool { return consulted[i].String() < consulted[j].String() })

	return &SkillsResponse{Success: true, Skills: skills, TenantsConsulted: consulted}, nil
}
