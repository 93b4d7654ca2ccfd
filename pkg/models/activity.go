package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/database"
)

// ActivityType is the closed set of feed entry kinds.
type ActivityType string

const (
	ActivityMessage     ActivityType = "message"
	ActivityTransaction ActivityType = "transaction"
	ActivityNewPartner  ActivityType = "new_partner"
)

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityMessage, ActivityTransaction, ActivityNewPartner:
		return true
	}
	return false
}

// ActivityEntry is one row of a user's federated activity feed. Rows are
// append-only; only the read flag mutates, and only by the owning user.
type ActivityEntry struct {
	ID          uuid.UUID                      `db:"id" json:"id"`
	OwnerUserID uuid.UUID                      `db:"owner_user_id" json:"owner_user_id"`
	TenantID    uuid.UUID                      `db:"tenant_id" json:"tenant_id"`
	Type        ActivityType                   `db:"type" json:"type"`
	OccurredAt  time.Time                      `db:"occurred_at" json:"occurred_at"`
	Read        bool                           `db:"read" json:"read"`
	Payload     database.JSONB[map[string]any] `db:"payload" json:"payload"`
	CreatedAt   time.Time                      `db:"created_at" json:"created_at"`
}

// TableName returns the database table name
func (ActivityEntry) TableName() string {
	return "activity_entries"
}
