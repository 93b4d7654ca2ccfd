package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxReviewCommentLength is the upper bound on review comment length.
const MaxReviewCommentLength = 2000

// Review is a rating left by one party of a completed transaction. At most
// one review exists per (transaction_id, reviewer_id).
type Review struct {
	ID            uuid.UUID `db:"id" json:"id"`
	TransactionID uuid.UUID `db:"transaction_id" json:"transaction_id"`
	ReviewerID    uuid.UUID `db:"reviewer_id" json:"reviewer_id"`
	RevieweeID    uuid.UUID `db:"reviewee_id" json:"reviewee_id"`
	Rating        int       `db:"rating" json:"rating"`
	Comment       *string   `db:"comment" json:"comment,omitempty"`
	IsCrossTenant bool      `db:"is_cross_tenant" json:"is_cross_tenant"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// TableName returns the database table name
func (Review) TableName() string {
	return "reviews"
}

// ReviewStats is the aggregate over a member's received reviews.
type ReviewStats struct {
	Average float64 `db:"average" json:"average"`
	Total   int     `db:"total" json:"total"`
}
