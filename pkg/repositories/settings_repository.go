package repositories

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const settingsTable = "federation_settings"

var settingsStruct = database.NewStruct(new(models.FederationSettings))

// SettingsRepository handles database operations for federation settings
type SettingsRepository struct {
	*Repository
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db database.DB, logger ectologger.Logger) *SettingsRepository {
	return &SettingsRepository{
		Repository: NewRepository(db, logger),
	}
}

// GetByUserID retrieves a user's federation settings. A user that never
// saved settings gets the opted-out defaults rather than a 404: absence of a
// row must read as "not federated".
func (r *SettingsRepository) GetByUserID(ctx context.Context, userID, tenantID uuid.UUID) (*models.FederationSettings, error) {
	ctx, span := tracing.StartSpan(ctx, "SettingsRepository.GetByUserID")
	defer span.End()

	sb := settingsStruct.SelectFrom(settingsTable)
	sb.Where(sb.Equal("user_id", userID))

	query, args := sb.Build()
	var settings models.FederationSettings
	err := r.DB().GetContext(ctx, &settings, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultFederationSettings(userID, tenantID), nil
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"user_id": userID,
		}).Error("failed to get federation settings")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get federation settings")
	}

	return &settings, nil
}

// Upsert saves a user's federation settings, one row per user.
func (r *SettingsRepository) Upsert(ctx context.Context, settings *models.FederationSettings) error {
	ctx, span := tracing.StartSpan(ctx, "SettingsRepository.Upsert")
	defer span.End()

	now := time.Now().UTC()
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = now
	}
	settings.UpdatedAt = now

	ib := settingsStruct.InsertInto(settingsTable, settings)
	ub := ib.OnConflict("user_id")
	ub.Set(
		ub.Assign("opted_in", database.Excluded("opted_in")),
		ub.Assign("privacy_level", database.Excluded("privacy_level")),
		ub.Assign("service_reach", database.Excluded("service_reach")),
		ub.Assign("show_location", database.Excluded("show_location")),
		ub.Assign("show_skills", database.Excluded("show_skills")),
		ub.Assign("allow_messaging", database.Excluded("allow_messaging")),
		ub.Assign("allow_transactions", database.Excluded("allow_transactions")),
		ub.Assign("updated_at", now),
	)

	query, args := ib.Build()
	_, err := r.DB().ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"user_id": settings.UserID,
		}).Error("failed to save federation settings")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to save federation settings")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"user_id": settings.UserID,
	}).Debugf("Upserted %s", settingsTable)
	return nil
}
