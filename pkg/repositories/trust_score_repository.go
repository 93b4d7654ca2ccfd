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

const trustScoreTable = "trust_scores"

var trustScoreStruct = database.NewStruct(new(models.TrustScore))

// TrustScoreRepository handles database operations for cached trust scores
type TrustScoreRepository struct {
	*Repository
}

// NewTrustScoreRepository creates a new trust score repository
func NewTrustScoreRepository(db database.DB, logger ectologger.Logger) *TrustScoreRepository {
	return &TrustScoreRepository{
		Repository: NewRepository(db, logger),
	}
}

// Get retrieves the cached score for a member, or nil when the member has
// never been scored.
func (r *TrustScoreRepository) Get(ctx context.Context, memberID uuid.UUID) (*models.TrustScore, error) {
	ctx, span := tracing.StartSpan(ctx, "TrustScoreRepository.Get")
	defer span.End()

	sb := trustScoreStruct.SelectFrom(trustScoreTable)
	sb.Where(sb.Equal("member_id", memberID))

	query, args := sb.Build()
	var score models.TrustScore
	err := r.DB().GetContext(ctx, &score, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"member_id": memberID,
		}).Error("failed to get trust score")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get trust score")
	}

	return &score, nil
}

// Upsert replaces the cached score for a member.
func (r *TrustScoreRepository) Upsert(ctx context.Context, score *models.TrustScore) error {
	ctx, span := tracing.StartSpan(ctx, "TrustScoreRepository.Upsert")
	defer span.End()

	score.CachedAt = time.Now().UTC()

	ib := trustScoreStruct.InsertInto(trustScoreTable, score)
	ub := ib.OnConflict("member_id")
	ub.Set(
		ub.Assign("score", database.Excluded("score")),
		ub.Assign("level", database.Excluded("level")),
		ub.Assign("review_average", database.Excluded("review_average")),
		ub.Assign("review_count", database.Excluded("review_count")),
		ub.Assign("transaction_count", database.Excluded("transaction_count")),
		ub.Assign("cross_tenant", database.Excluded("cross_tenant")),
		ub.Assign("cached_at", database.Excluded("cached_at")),
	)

	query, args := ib.Build()
	_, err := r.DB().ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"member_id": score.MemberID,
		}).Error("failed to upsert trust score")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert trust score")
	}

	return nil
}
