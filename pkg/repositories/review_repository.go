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
	"github.com/lib/pq"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const reviewTable = "reviews"

var reviewStruct = database.NewStruct(new(models.Review))

// ReviewRepository handles database operations for reviews
type ReviewRepository struct {
	*Repository
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db database.DB, logger ectologger.Logger) *ReviewRepository {
	return &ReviewRepository{
		Repository: NewRepository(db, logger),
	}
}

// Create inserts a review. The reviews table carries a unique constraint on
// (transaction_id, reviewer_id), so a second submission surfaces as a 409
// rather than a second row.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	ctx, span := tracing.StartSpan(ctx, "ReviewRepository.Create")
	defer span.End()

	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	review.CreatedAt = time.Now().UTC()

	ib := reviewStruct.InsertInto(reviewTable, review)
	query, args := ib.Build()
	_, err := r.DB().ExecContext(ctx, query, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return httperror.NewHTTPErrorf(http.StatusConflict, "transaction %s has already been reviewed by this user", review.TransactionID)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"transaction_id": review.TransactionID,
			"reviewer_id":    review.ReviewerID,
		}).Error("failed to create review")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create review")
	}

	return nil
}

// GetByTransactionAndReviewer returns the review a user left on a
// transaction, or nil when none exists.
func (r *ReviewRepository) GetByTransactionAndReviewer(ctx context.Context, transactionID, reviewerID uuid.UUID) (*models.Review, error) {
	ctx, span := tracing.StartSpan(ctx, "ReviewRepository.GetByTransactionAndReviewer")
	defer span.End()

	sb := reviewStruct.SelectFrom(reviewTable)
	sb.Where(sb.Equal("transaction_id", transactionID), sb.Equal("reviewer_id", reviewerID))

	query, args := sb.Build()
	var review models.Review
	err := r.DB().GetContext(ctx, &review, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"transaction_id": transactionID,
			"reviewer_id":    reviewerID,
		}).Error("failed to get review")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get review")
	}

	return &review, nil
}

// ListForReviewee retrieves reviews received by a member, newest first.
func (r *ReviewRepository) ListForReviewee(ctx context.Context, revieweeID uuid.UUID, limit int) ([]models.Review, error) {
	ctx, span := tracing.StartSpan(ctx, "ReviewRepository.ListForReviewee")
	defer span.End()

	sb := reviewStruct.SelectFrom(reviewTable)
	sb.Where(sb.Equal("reviewee_id", revieweeID))
	sb.OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		sb.Limit(limit)
	}

	query, args := sb.Build()
	var reviews []models.Review
	err := r.DB().SelectContext(ctx, &reviews, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"reviewee_id": revieweeID,
		}).Error("failed to list reviews")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list reviews")
	}

	return reviews, nil
}

// StatsFor aggregates a member's received reviews. A member with no reviews
// gets zero values, not an error.
func (r *ReviewRepository) StatsFor(ctx context.Context, revieweeID uuid.UUID) (*models.ReviewStats, error) {
	ctx, span := tracing.StartSpan(ctx, "ReviewRepository.StatsFor")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(
		"COALESCE(AVG(rating), 0) AS average",
		"COUNT(*) AS total",
	)
	sb.From(reviewTable)
	sb.Where(sb.Equal("reviewee_id", revieweeID))

	query, args := sb.Build()
	var stats models.ReviewStats
	err := r.DB().GetContext(ctx, &stats, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"reviewee_id": revieweeID,
		}).Error("failed to aggregate review stats")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to aggregate review stats")
	}

	return &stats, nil
}

// HasCrossTenant reports whether the member has received at least one review
// from a completed cross-tenant transaction.
func (r *ReviewRepository) HasCrossTenant(ctx context.Context, revieweeID uuid.UUID) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "ReviewRepository.HasCrossTenant")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("COUNT(*)").From(reviewTable)
	sb.Where(sb.Equal("reviewee_id", revieweeID), sb.Equal("is_cross_tenant", true))

	query, args := sb.Build()
	var count int
	err := r.DB().GetContext(ctx, &count, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"reviewee_id": revieweeID,
		}).Error("failed to check cross tenant reviews")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to check cross tenant reviews")
	}

	return count > 0, nil
}
