package federation

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appctx "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/registry"
	"github.com/Ramsey-B/clover/pkg/repositories"
	"github.com/Ramsey-B/clover/pkg/tenantclient"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

// registryDB serves the registry's queries from memory: the viewer tenant
// for GetContext, partnerships then partner tenants for SelectContext.
type registryDB struct {
	viewer       models.Tenant
	partnerships []models.Partnership
	partners     []models.Tenant
}

func (f *registryDB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	if tenant, ok := dest.(*models.Tenant); ok {
		*tenant = f.viewer
		return nil
	}
	return sql.ErrNoRows
}

func (f *registryDB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	switch d := dest.(type) {
	case *[]models.Partnership:
		*d = append([]models.Partnership(nil), f.partnerships...)
	case *[]models.Tenant:
		*d = append([]models.Tenant(nil), f.partners...)
	}
	return nil
}

func (f *registryDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, errors.New("not supported")
}

func (f *registryDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, errors.New("not supported")
}

func (f *registryDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

func (f *registryDB) QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	return nil, errors.New("not supported")
}

func (f *registryDB) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, errors.New("not supported")
}

func (f *registryDB) PingContext(ctx context.Context) error { return nil }

func (f *registryDB) Close() error { return nil }

func (f *registryDB) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error) {
	return ctx, nil, errors.New("not supported")
}

// fakeClient returns canned members per tenant; tenants in failing error out.
type fakeClient struct {
	members map[uuid.UUID][]models.FederatedMember
	skills  map[uuid.UUID][]string
	failing map[uuid.UUID]bool

	// blockMembers, when set, parks FetchMembers until the context dies and
	// signals started on entry.
	blockMembers atomic.Bool
	started      chan struct{}
}

func (c *fakeClient) FetchMembers(ctx context.Context, tenant models.Tenant, filters tenantclient.Filters, auth tenantclient.AuthContext) ([]models.FederatedMember, error) {
	if c.blockMembers.Load() {
		if c.started != nil {
			c.started <- struct{}{}
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if c.failing[tenant.ID] {
		return nil, errors.New("connection refused")
	}
	return c.members[tenant.ID], nil
}

func (c *fakeClient) FetchListings(ctx context.Context, tenant models.Tenant, filters tenantclient.Filters, auth tenantclient.AuthContext) ([]models.FederatedListing, error) {
	return nil, nil
}

func (c *fakeClient) FetchEvents(ctx context.Context, tenant models.Tenant, filters tenantclient.Filters, auth tenantclient.AuthContext) ([]models.FederatedEvent, error) {
	return nil, nil
}

func (c *fakeClient) FetchGroups(ctx context.Context, tenant models.Tenant, filters tenantclient.Filters, auth tenantclient.AuthContext) ([]models.FederatedGroup, error) {
	return nil, nil
}

func (c *fakeClient) FetchSkills(ctx context.Context, tenant models.Tenant, prefix string, auth tenantclient.AuthContext) ([]string, error) {
	if c.failing[tenant.ID] {
		return nil, errors.New("connection refused")
	}
	return c.skills[tenant.ID], nil
}

func optedInMember(name string, tenantID uuid.UUID, skills ...string) models.FederatedMember {
	return models.FederatedMember{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Name:         name,
		Skills:       skills,
		OptedIn:      true,
		PrivacyLevel: models.PrivacySocial,
		ShowLocation: true,
		ShowSkills:   true,
		CreatedAt:    time.Now(),
	}
}

type routerFixture struct {
	router   *Router
	viewerID uuid.UUID
	tenantA  models.Tenant
	tenantB  models.Tenant
	client   *fakeClient
}

func newRouterFixture(t *testing.T, client *fakeClient) *routerFixture {
	t.Helper()

	viewerID := uuid.New()
	tenantA := models.Tenant{ID: uuid.New(), Name: "Riverside Timebank"}
	tenantB := models.Tenant{ID: uuid.New(), Name: "Hilltop Exchange"}

	sharing := func(partner uuid.UUID) models.Partnership {
		return models.Partnership{
			ID:                  uuid.New(),
			TenantID:            partner,
			PartnerTenantID:     viewerID,
			Status:              models.PartnershipActive,
			MembersEnabled:      true,
			MessagingEnabled:    true,
			TransactionsEnabled: true,
		}
	}

	db := &registryDB{
		viewer:       models.Tenant{ID: viewerID, Name: "Viewer"},
		partnerships: []models.Partnership{sharing(tenantA.ID), sharing(tenantB.ID)},
		partners:     []models.Tenant{tenantA, tenantB},
	}

	logger := getTestLogger()
	reg := registry.NewRegistry(
		repositories.NewTenantRepository(db, logger),
		repositories.NewPartnershipRepository(db, logger),
		nil,
		logger,
	)

	router := NewRouter(reg, client, NewSupersedeTracker(), RouterConfig{}, logger)

	return &routerFixture{
		router:   router,
		viewerID: viewerID,
		tenantA:  tenantA,
		tenantB:  tenantB,
		client:   client,
	}
}

func (f *routerFixture) authedContext() context.Context {
	ctx := appctx.SetTenantID(context.Background(), f.viewerID.String())
	return appctx.SetUserID(ctx, uuid.New().String())
}

func TestSearchSkipsUnreachablePartner(t *testing.T) {
	client := &fakeClient{
		members: map[uuid.UUID][]models.FederatedMember{},
		failing: map[uuid.UUID]bool{},
	}
	f := newRouterFixture(t, client)

	client.members[f.tenantA.ID] = []models.FederatedMember{optedInMember("Alice", f.tenantA.ID, "carpentry")}
	client.failing[f.tenantB.ID] = true

	resp, err := f.router.Search(f.authedContext(), SearchRequest{Resource: models.ResourceMember})
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	member := resp.Items[0].(*models.FederatedMember)
	assert.Equal(t, "Alice", member.Name)
	assert.Equal(t, "Riverside Timebank", member.TenantName)

	assert.True(t, resp.Success)
	assert.Equal(t, []uuid.UUID{f.tenantA.ID}, resp.TenantsConsulted)
	assert.False(t, resp.HasMore)
}

func TestSearchExcludesOptedOutMembers(t *testing.T) {
	client := &fakeClient{members: map[uuid.UUID][]models.FederatedMember{}}
	f := newRouterFixture(t, client)

	in := optedInMember("Alice", f.tenantA.ID)
	out := optedInMember("Bob", f.tenantA.ID)
	out.OptedIn = false
	client.members[f.tenantA.ID] = []models.FederatedMember{in, out}

	resp, err := f.router.Search(f.authedContext(), SearchRequest{Resource: models.ResourceMember})
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Alice", resp.Items[0].(*models.FederatedMember).Name)
}

func TestSearchRedactsBeyondPrivacyLevel(t *testing.T) {
	client := &fakeClient{members: map[uuid.UUID][]models.FederatedMember{}}
	f := newRouterFixture(t, client)

	bio := "restores antique clocks"
	location := "Lisbon"
	member := optedInMember("Alice", f.tenantA.ID, "carpentry")
	member.PrivacyLevel = models.PrivacyDiscovery
	member.Bio = &bio
	member.Location = &location
	client.members[f.tenantA.ID] = []models.FederatedMember{member}

	resp, err := f.router.Search(f.authedContext(), SearchRequest{Resource: models.ResourceMember})
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	got := resp.Items[0].(*models.FederatedMember)
	require.NotNil(t, got.Bio)
	assert.Equal(t, "restores antique clocks", *got.Bio)
	assert.Nil(t, got.Location, "discovery level must not expose location")
	assert.Nil(t, got.Skills, "discovery level must not expose skills")
	assert.False(t, got.MessagingEnabled)
}

func TestSearchSkillFilterIgnoresHiddenSkills(t *testing.T) {
	client := &fakeClient{members: map[uuid.UUID][]models.FederatedMember{}}
	f := newRouterFixture(t, client)

	hidden := optedInMember("Bob", f.tenantA.ID, "carpentry")
	hidden.ShowSkills = false
	guarded := optedInMember("Cara", f.tenantA.ID, "carpentry")
	guarded.PrivacyLevel = models.PrivacyDiscovery
	visible := optedInMember("Alice", f.tenantA.ID, "Carpentry")
	client.members[f.tenantA.ID] = []models.FederatedMember{hidden, guarded, visible}

	resp, err := f.router.Search(f.authedContext(), SearchRequest{
		Resource: models.ResourceMember,
		Filters:  tenantclient.Filters{Skills: []string{"carpentry"}},
	})
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Alice", resp.Items[0].(*models.FederatedMember).Name)
}

func TestSearchRequireMessagingGatesOnSettings(t *testing.T) {
	client := &fakeClient{members: map[uuid.UUID][]models.FederatedMember{}}
	f := newRouterFixture(t, client)

	reachable := optedInMember("Alice", f.tenantA.ID)
	reachable.MessagingEnabled = true
	declined := optedInMember("Bob", f.tenantA.ID)
	declined.MessagingEnabled = false
	tooGuarded := optedInMember("Cara", f.tenantA.ID)
	tooGuarded.MessagingEnabled = true
	tooGuarded.PrivacyLevel = models.PrivacyDiscovery
	client.members[f.tenantA.ID] = []models.FederatedMember{reachable, declined, tooGuarded}

	resp, err := f.router.Search(f.authedContext(), SearchRequest{
		Resource: models.ResourceMember,
		Filters:  tenantclient.Filters{RequireMessaging: true},
	})
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Alice", resp.Items[0].(*models.FederatedMember).Name)
}

func TestSearchRequireTransactionsGatesOnSettings(t *testing.T) {
	client := &fakeClient{members: map[uuid.UUID][]models.FederatedMember{}}
	f := newRouterFixture(t, client)

	trading := optedInMember("Alice", f.tenantA.ID)
	trading.PrivacyLevel = models.PrivacyEconomic
	trading.TransactionsEnabled = true
	socialOnly := optedInMember("Bob", f.tenantA.ID)
	socialOnly.TransactionsEnabled = true
	client.members[f.tenantA.ID] = []models.FederatedMember{trading, socialOnly}

	resp, err := f.router.Search(f.authedContext(), SearchRequest{
		Resource: models.ResourceMember,
		Filters:  tenantclient.Filters{RequireTransactions: true},
	})
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Alice", resp.Items[0].(*models.FederatedMember).Name)
}

func TestSearchSingleTenantRestriction(t *testing.T) {
	client := &fakeClient{members: map[uuid.UUID][]models.FederatedMember{}}
	f := newRouterFixture(t, client)

	client.members[f.tenantA.ID] = []models.FederatedMember{optedInMember("Alice", f.tenantA.ID)}
	client.members[f.tenantB.ID] = []models.FederatedMember{optedInMember("Bob", f.tenantB.ID)}

	resp, err := f.router.Search(f.authedContext(), SearchRequest{
		Resource: models.ResourceMember,
		TenantID: &f.tenantB.ID,
	})
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Bob", resp.Items[0].(*models.FederatedMember).Name)
	assert.Equal(t, []uuid.UUID{f.tenantB.ID}, resp.TenantsConsulted)
}

func TestSearchPagination(t *testing.T) {
	client := &fakeClient{members: map[uuid.UUID][]models.FederatedMember{}}
	f := newRouterFixture(t, client)

	names := []string{"Dora", "Alice", "Bob", "Carol", "Eve"}
	members := make([]models.FederatedMember, 0, len(names))
	for _, n := range names {
		members = append(members, optedInMember(n, f.tenantA.ID))
	}
	client.members[f.tenantA.ID] = members

	first, err := f.router.Search(f.authedContext(), SearchRequest{
		Resource: models.ResourceMember,
		Limit:    2,
		Sort:     SortName,
	})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.True(t, first.HasMore)
	assert.Equal(t, "Alice", first.Items[0].(*models.FederatedMember).Name)
	assert.Equal(t, "Bob", first.Items[1].(*models.FederatedMember).Name)

	second, err := f.router.Search(f.authedContext(), SearchRequest{
		Resource: models.ResourceMember,
		Offset:   2,
		Limit:    2,
		Sort:     SortName,
	})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	assert.True(t, second.HasMore)
	assert.Equal(t, "Carol", second.Items[0].(*models.FederatedMember).Name)

	third, err := f.router.Search(f.authedContext(), SearchRequest{
		Resource: models.ResourceMember,
		Offset:   4,
		Limit:    2,
		Sort:     SortName,
	})
	require.NoError(t, err)
	require.Len(t, third.Items, 1)
	assert.False(t, third.HasMore)
	assert.Equal(t, "Eve", third.Items[0].(*models.FederatedMember).Name)
}

func TestSearchRejectsInvalidRequests(t *testing.T) {
	client := &fakeClient{members: map[uuid.UUID][]models.FederatedMember{}}
	f := newRouterFixture(t, client)
	ctx := f.authedContext()

	_, err := f.router.Search(ctx, SearchRequest{Resource: "widgets"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))

	_, err = f.router.Search(ctx, SearchRequest{Resource: models.ResourceMember, Offset: -1})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))

	_, err = f.router.Search(ctx, SearchRequest{Resource: models.ResourceMember, Sort: "alphabetical"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestSearchRequiresAuthContext(t *testing.T) {
	client := &fakeClient{members: map[uuid.UUID][]models.FederatedMember{}}
	f := newRouterFixture(t, client)

	_, err := f.router.Search(context.Background(), SearchRequest{Resource: models.ResourceMember})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, httperror.GetStatusCode(err))
}

func TestSearchSupersededByNewerRequest(t *testing.T) {
	client := &fakeClient{
		members: map[uuid.UUID][]models.FederatedMember{},
		started: make(chan struct{}, 4),
	}
	client.blockMembers.Store(true)
	f := newRouterFixture(t, client)

	ctx := appctx.SetSessionKey(f.authedContext(), "search-tab-1")

	type result struct {
		resp *SearchResponse
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := f.router.Search(ctx, SearchRequest{Resource: models.ResourceMember})
		done <- result{resp, err}
	}()

	// Wait until the first search is parked inside a partner fetch.
	<-client.started

	client.blockMembers.Store(false)
	_, err := f.router.Search(ctx, SearchRequest{Resource: models.ResourceMember})
	require.NoError(t, err)

	first := <-done
	require.Error(t, first.err)
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(first.err))
}

func TestSearchSkillsMergesAndDeduplicates(t *testing.T) {
	client := &fakeClient{
		skills: map[uuid.UUID][]string{},
	}
	f := newRouterFixture(t, client)

	client.skills[f.tenantA.ID] = []string{"Carpentry", "Cooking", "Welding"}
	client.skills[f.tenantB.ID] = []string{"carpentry", "Ceramics"}

	resp, err := f.router.SearchSkills(f.authedContext(), "c", 10)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, []string{"Carpentry", "Ceramics", "Cooking"}, resp.Skills)
	assert.Len(t, resp.TenantsConsulted, 2)
}
