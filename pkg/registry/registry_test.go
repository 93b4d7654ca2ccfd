package registry

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"

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
	"github.com/Ramsey-B/clover/pkg/repositories"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

// registryDB serves tenant and partnership lookups from memory.
type registryDB struct {
	tenants      map[uuid.UUID]models.Tenant
	partnerships []models.Partnership
	pair         *models.Partnership
}

func (f *registryDB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	switch d := dest.(type) {
	case *models.Tenant:
		for _, a := range args {
			if id, ok := a.(uuid.UUID); ok {
				if tenant, found := f.tenants[id]; found {
					*d = tenant
					return nil
				}
			}
		}
		return sql.ErrNoRows
	case *models.Partnership:
		if f.pair != nil {
			*d = *f.pair
			return nil
		}
		return sql.ErrNoRows
	}
	return sql.ErrNoRows
}

func (f *registryDB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	switch d := dest.(type) {
	case *[]models.Partnership:
		*d = append([]models.Partnership(nil), f.partnerships...)
	case *[]models.Tenant:
		for _, a := range args {
			if id, ok := a.(uuid.UUID); ok {
				if tenant, found := f.tenants[id]; found {
					*d = append(*d, tenant)
				}
			}
		}
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

func newTestRegistry(db *registryDB) *Registry {
	logger := getTestLogger()
	return NewRegistry(
		repositories.NewTenantRepository(db, logger),
		repositories.NewPartnershipRepository(db, logger),
		nil,
		logger,
	)
}

func TestEligiblePartnersUnknownTenant(t *testing.T) {
	r := newTestRegistry(&registryDB{tenants: map[uuid.UUID]models.Tenant{}})

	_, err := r.EligiblePartners(context.Background(), uuid.New(), models.FeatureMembers)

	require.Error(t, err)
	assert.True(t, httperror.IsHTTPError(err))
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}

func TestEligiblePartnersNoPartnerships(t *testing.T) {
	viewer := models.Tenant{ID: uuid.New(), Name: "Viewer"}
	r := newTestRegistry(&registryDB{
		tenants: map[uuid.UUID]models.Tenant{viewer.ID: viewer},
	})

	partners, err := r.EligiblePartners(context.Background(), viewer.ID, models.FeatureMembers)

	require.NoError(t, err)
	assert.Empty(t, partners)
}

func TestEligiblePartnersSkipsMissingTenants(t *testing.T) {
	viewer := models.Tenant{ID: uuid.New(), Name: "Viewer"}
	partner := models.Tenant{ID: uuid.New(), Name: "Partner"}
	ghost := uuid.New() // partnership row pointing at a deleted tenant

	db := &registryDB{
		tenants: map[uuid.UUID]models.Tenant{viewer.ID: viewer, partner.ID: partner},
		partnerships: []models.Partnership{
			{ID: uuid.New(), TenantID: partner.ID, PartnerTenantID: viewer.ID, Status: models.PartnershipActive, MembersEnabled: true},
			{ID: uuid.New(), TenantID: ghost, PartnerTenantID: viewer.ID, Status: models.PartnershipActive, MembersEnabled: true},
		},
	}
	r := newTestRegistry(db)

	partners, err := r.EligiblePartners(context.Background(), viewer.ID, models.FeatureMembers)

	require.NoError(t, err)
	require.Len(t, partners, 1)
	assert.Equal(t, partner.ID, partners[0].Tenant.ID)
	assert.Equal(t, "Partner", partners[0].Tenant.Name)
}

func TestUpdateFeaturesRejectsUnknownStatus(t *testing.T) {
	r := newTestRegistry(&registryDB{})

	status := models.PartnershipStatus("archived")
	_, err := r.UpdateFeatures(context.Background(), uuid.New(), uuid.New(), &FeatureUpdate{Status: &status})

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestUpdateFeaturesUnknownPartnership(t *testing.T) {
	tenantID := uuid.New()
	ctx := appctx.SetTenantID(context.Background(), tenantID.String())

	r := newTestRegistry(&registryDB{})

	enabled := true
	_, err := r.UpdateFeatures(ctx, tenantID, uuid.New(), &FeatureUpdate{MembersEnabled: &enabled})

	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}
