package models

import (
	"time"

	"github.com/google/uuid"
)

// TrustLevel is the qualitative band derived from a trust score.
type TrustLevel string

const (
	TrustNew         TrustLevel = "new"
	TrustGrowing     TrustLevel = "growing"
	TrustEstablished TrustLevel = "established"
	TrustTrusted     TrustLevel = "trusted"
	TrustExcellent   TrustLevel = "excellent"
)

// TrustLevelForScore maps a 0-100 score to its qualitative level.
func TrustLevelForScore(score int) TrustLevel {
	switch {
	case score <= 0:
		return TrustNew
	case score < 30:
		return TrustGrowing
	case score < 60:
		return TrustEstablished
	case score < 85:
		return TrustTrusted
	default:
		return TrustExcellent
	}
}

// TrustScore is the cached reputation score for a member, recomputed when a
// review or completed transaction referencing the member is ingested.
type TrustScore struct {
	MemberID         uuid.UUID  `db:"member_id" json:"member_id"`
	Score            int        `db:"score" json:"score"`
	Level            TrustLevel `db:"level" json:"level"`
	ReviewAverage    float64    `db:"review_average" json:"review_average"`
	ReviewCount      int        `db:"review_count" json:"review_count"`
	TransactionCount int        `db:"transaction_count" json:"transaction_count"`
	CrossTenant      bool       `db:"cross_tenant" json:"cross_tenant"`
	CachedAt         time.Time  `db:"cached_at" json:"cached_at"`
}

// TableName returns the database table name
func (TrustScore) TableName() string {
	return "trust_scores"
}
