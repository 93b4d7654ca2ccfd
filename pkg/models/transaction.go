package models

import (
	"time"

	"github.com/google/uuid"
)

// TransactionStatus is the lifecycle state of a time exchange.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionDisputed  TransactionStatus = "disputed"
	TransactionCancelled TransactionStatus = "cancelled"
)

// Transaction is a time exchange between two members. Clover reads these for
// review eligibility, feed aggregation and trust scoring; the exchange
// lifecycle itself is owned by the tenant services.
type Transaction struct {
	ID               uuid.UUID         `db:"id" json:"id"`
	TenantID         uuid.UUID         `db:"tenant_id" json:"tenant_id"`
	SenderID         uuid.UUID         `db:"sender_id" json:"sender_id"`
	SenderTenantID   uuid.UUID         `db:"sender_tenant_id" json:"sender_tenant_id"`
	ReceiverID       uuid.UUID         `db:"receiver_id" json:"receiver_id"`
	ReceiverTenantID uuid.UUID         `db:"receiver_tenant_id" json:"receiver_tenant_id"`
	Hours            float64           `db:"hours" json:"hours"`
	Description      *string           `db:"description" json:"description,omitempty"`
	Status           TransactionStatus `db:"status" json:"status"`
	CompletedAt      *time.Time        `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt        time.Time         `db:"created_at" json:"created_at"`
}

// TableName returns the database table name
func (Transaction) TableName() string {
	return "transactions"
}

// IsCrossTenant reports whether the two parties belong to different tenants.
func (t *Transaction) IsCrossTenant() bool {
	return t.SenderTenantID != t.ReceiverTenantID
}

// IsParty reports whether the user is the sender or receiver.
func (t *Transaction) IsParty(userID uuid.UUID) bool {
	return t.SenderID == userID || t.ReceiverID == userID
}

// Counterparty returns the other party of the transaction.
func (t *Transaction) Counterparty(userID uuid.UUID) uuid.UUID {
	if t.SenderID == userID {
		return t.ReceiverID
	}
	return t.SenderID
}
