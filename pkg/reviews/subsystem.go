// Package reviews manages review eligibility, submission and aggregates.
package reviews

import (
	"context"
	"net/http"
	"unicode/utf8"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	appctx "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/queue"
	"github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/repositories"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Subsystem is the review service
type Subsystem struct {
	reviews      *repositories.ReviewRepository
	transactions *repositories.TransactionRepository
	streams      *redis.Streams
	stream       string
	emitter      *events.Emitter
	logger       ectologger.Logger
}

// NewSubsystem creates a new review subsystem
func NewSubsystem(
	reviews *repositories.ReviewRepository,
	transactions *repositories.TransactionRepository,
	streams *redis.Streams,
	stream string,
	emitter *events.Emitter,
	logger ectologger.Logger,
) *Subsystem {
	return &Subsystem{
		reviews:      reviews,
		transactions: transactions,
		streams:      streams,
		stream:       stream,
		emitter:      emitter,
		logger:       logger,
	}
}

// SubmitRequest is a review submission.
type SubmitRequest struct {
	TransactionID uuid.UUID `json:"transaction_id" validate:"required"`
	Rating        int       `json:"rating" validate:"required,min=1,max=5"`
	Comment       *string   `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

// EligibleToReview reports whether the user may review the transaction: it
// must be completed, the user must be one of its parties, and the user must
// not have reviewed it already. Unknown transactions are a 404.
func (s *Subsystem) EligibleToReview(ctx context.Context, userID, transactionID uuid.UUID) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "reviews.Subsystem.EligibleToReview")
	defer span.End()

	tx, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return false, err
	}

	if tx.Status != models.TransactionCompleted || !tx.IsParty(userID) {
		return false, nil
	}

	existing, err := s.reviews.GetByTransactionAndReviewer(ctx, transactionID, userID)
	if err != nil {
		return false, err
	}

	return existing == nil, nil
}

// Submit validates and persists a review, then fires the trust recompute job
// and the review.created event. Both side effects are advisory: the write
// succeeds even if the queue or broker is down.
func (s *Subsystem) Submit(ctx context.Context, reviewerID uuid.UUID, req SubmitRequest) (*models.Review, error) {
	ctx, span := tracing.StartSpan(ctx, "reviews.Subsystem.Submit")
	defer span.End()

	if req.Rating < 1 || req.Rating > 5 {
		metrics.RecordReviewSubmission("invalid")
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
	}
	if req.Comment != nil && utf8.RuneCountInString(*req.Comment) > models.MaxReviewCommentLength {
		metrics.RecordReviewSubmission("invalid")
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "comment must be at most %d characters", models.MaxReviewCommentLength)
	}

	tx, err := s.transactions.GetByID(ctx, req.TransactionID)
	if err != nil {
		metrics.RecordReviewSubmission("not_found")
		return nil, err
	}

	if tx.Status != models.TransactionCompleted {
		metrics.RecordReviewSubmission("not_eligible")
		return nil, httperror.NewHTTPErrorf(http.StatusUnprocessableEntity, "transaction %s is not completed", tx.ID)
	}
	if !tx.IsParty(reviewerID) {
		metrics.RecordReviewSubmission("not_eligible")
		return nil, httperror.NewHTTPErrorf(http.StatusUnprocessableEntity, "user is not a party to transaction %s", tx.ID)
	}

	existing, err := s.reviews.GetByTransactionAndReviewer(ctx, req.TransactionID, reviewerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		metrics.RecordReviewSubmission("duplicate")
		return nil, httperror.NewHTTPErrorf(http.StatusConflict, "transaction %s has already been reviewed by this user", tx.ID)
	}

	review := &models.Review{
		TransactionID: tx.ID,
		ReviewerID:    reviewerID,
		RevieweeID:    tx.Counterparty(reviewerID),
		Rating:        req.Rating,
		Comment:       req.Comment,
		IsCrossTenant: tx.IsCrossTenant(),
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		metrics.RecordReviewSubmission("error")
		return nil, err
	}

	metrics.RecordReviewSubmission("success")
	s.notify(ctx, review)

	return review, nil
}

// notify enqueues the reviewee's trust recompute and emits review.created.
func (s *Subsystem) notify(ctx context.Context, review *models.Review) {
	tenantID := appctx.GetTenantID(ctx)

	if s.streams != nil {
		_, err := queue.PublishTrustRecompute(ctx, s.streams, s.stream, queue.TrustRecomputeJob{
			MemberID: review.RevieweeID.String(),
			TenantID: tenantID,
			Trigger:  "review",
		})
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"review_id":   review.ID,
				"reviewee_id": review.RevieweeID,
			}).Warn("review saved but trust recompute enqueue failed")
		}
	}

	if s.emitter != nil {
		tenantUUID, _ := uuid.Parse(tenantID)
		if err := s.emitter.EmitReviewCreated(ctx, tenantUUID, review); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"review_id": review.ID,
			}).Warn("review saved but event emission failed")
		}
	}
}

// StatsFor aggregates the member's received reviews.
func (s *Subsystem) StatsFor(ctx context.Context, memberID uuid.UUID) (*models.ReviewStats, error) {
	ctx, span := tracing.StartSpan(ctx, "reviews.Subsystem.StatsFor")
	defer span.End()

	return s.reviews.StatsFor(ctx, memberID)
}

// ListFor returns the member's received reviews, newest first.
func (s *Subsystem) ListFor(ctx context.Context, memberID uuid.UUID, limit int) ([]models.Review, error) {
	ctx, span := tracing.StartSpan(ctx, "reviews.Subsystem.ListFor")
	defer span.End()

	return s.reviews.ListForReviewee(ctx, memberID, limit)
}
