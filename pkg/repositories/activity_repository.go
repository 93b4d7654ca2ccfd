package repositories

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const activityTable = "activity_entries"

var activityStruct = database.NewStruct(new(models.ActivityEntry))

// ActivityRepository handles database operations for activity entries
type ActivityRepository struct {
	*Repository
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db database.DB, logger ectologger.Logger) *ActivityRepository {
	return &ActivityRepository{
		Repository: NewRepository(db, logger),
	}
}

// Insert appends an activity entry to the owner's feed.
func (r *ActivityRepository) Insert(ctx context.Context, entry *models.ActivityEntry) error {
	ctx, span := tracing.StartSpan(ctx, "ActivityRepository.Insert")
	defer span.End()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = entry.CreatedAt
	}

	ib := activityStruct.InsertInto(activityTable, entry)
	query, args := ib.Build()
	_, err := r.DB().ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"entry_id":      entry.ID,
			"owner_user_id": entry.OwnerUserID,
		}).Error("failed to insert activity entry")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert activity entry")
	}

	return nil
}

// ListByOwner retrieves entries of the given types for an owner, newest
// first with id as the tiebreaker so ordering is stable across refreshes.
func (r *ActivityRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, types []models.ActivityType, limit int) ([]models.ActivityEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "ActivityRepository.ListByOwner")
	defer span.End()

	sb := activityStruct.SelectFrom(activityTable)
	conds := []string{sb.Equal("owner_user_id", ownerID)}
	if len(types) > 0 {
		typeArgs := make([]any, 0, len(types))
		for _, t := range types {
			typeArgs = append(typeArgs, t)
		}
		conds = append(conds, sb.In("type", typeArgs...))
	}
	sb.Where(conds...)
	sb.OrderBy("occurred_at DESC", "id DESC")
	if limit > 0 {
		sb.Limit(limit)
	}

	query, args := sb.Build()
	var entries []models.ActivityEntry
	err := r.DB().SelectContext(ctx, &entries, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"owner_user_id": ownerID,
		}).Error("failed to list activity entries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list activity entries")
	}

	return entries, nil
}

// MarkRead sets the read flag on a single entry. The owner check is part of
// the statement so a user can never mark another user's entry.
func (r *ActivityRepository) MarkRead(ctx context.Context, ownerID, entryID uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "ActivityRepository.MarkRead")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(activityTable).
		Set(ub.Assign("read", true)).
		Where(ub.Equal("id", entryID), ub.Equal("owner_user_id", ownerID))

	query, args := ub.Build()
	result, err := r.DB().ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"entry_id": entryID,
		}).Error("failed to mark activity entry read")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to mark activity entry read")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to mark activity entry read")
	}
	if rows == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "activity entry %s does not exist", entryID)
	}

	return nil
}

// CountUnread returns the number of unread entries for an owner.
func (r *ActivityRepository) CountUnread(ctx context.Context, ownerID uuid.UUID) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "ActivityRepository.CountUnread")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("COUNT(*)").From(activityTable)
	sb.Where(sb.Equal("owner_user_id", ownerID), sb.Equal("read", false))

	query, args := sb.Build()
	var count int
	err := r.DB().GetContext(ctx, &count, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"owner_user_id": ownerID,
		}).Error("failed to count unread activity entries")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count unread activity entries")
	}

	return count, nil
}
