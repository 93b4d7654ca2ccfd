package models

import (
	"time"

	"github.com/google/uuid"
)

// Feature is one of the closed set of shareable capabilities a partnership
// can enable per direction.
type Feature string

const (
	FeatureMembers      Feature = "members"
	FeatureListings     Feature = "listings"
	FeatureEvents       Feature = "events"
	FeatureGroups       Feature = "groups"
	FeatureMessaging    Feature = "messaging"
	FeatureTransactions Feature = "transactions"
)

// Features lists every partnership feature.
func Features() []Feature {
	return []Feature{
		FeatureMembers,
		FeatureListings,
		FeatureEvents,
		FeatureGroups,
		FeatureMessaging,
		FeatureTransactions,
	}
}

// PartnershipStatus is the lifecycle state of a partnership direction.
type PartnershipStatus string

const (
	PartnershipActive    PartnershipStatus = "active"
	PartnershipSuspended PartnershipStatus = "suspended"
)

// Partnership is one direction of a tenant pair: the row (tenant_id,
// partner_tenant_id) records what tenant_id shares with partner_tenant_id.
// Partnerships exist symmetrically (both directions have a row) but each
// side may enable a different feature subset.
type Partnership struct {
	ID                  uuid.UUID         `db:"id" json:"id"`
	TenantID            uuid.UUID         `db:"tenant_id" json:"tenant_id"`
	PartnerTenantID     uuid.UUID         `db:"partner_tenant_id" json:"partner_tenant_id"`
	Status              PartnershipStatus `db:"status" json:"status"`
	MembersEnabled      bool              `db:"members_enabled" json:"members_enabled"`
	ListingsEnabled     bool              `db:"listings_enabled" json:"listings_enabled"`
	EventsEnabled       bool              `db:"events_enabled" json:"events_enabled"`
	GroupsEnabled       bool              `db:"groups_enabled" json:"groups_enabled"`
	MessagingEnabled    bool              `db:"messaging_enabled" json:"messaging_enabled"`
	TransactionsEnabled bool              `db:"transactions_enabled" json:"transactions_enabled"`
	Since               time.Time         `db:"since" json:"since"`
	CreatedAt           time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time         `db:"updated_at" json:"updated_at"`
}

// TableName returns the database table name
func (Partnership) TableName() string {
	return "partnerships"
}

// IsActive reports whether this partnership direction is visible to the
// federated query router.
func (p *Partnership) IsActive() bool {
	return p.Status == PartnershipActive
}

// FeatureEnabled reports whether this direction shares the given feature.
func (p *Partnership) FeatureEnabled(feature Feature) bool {
	switch feature {
	case FeatureMembers:
		return p.MembersEnabled
	case FeatureListings:
		return p.ListingsEnabled
	case FeatureEvents:
		return p.EventsEnabled
	case FeatureGroups:
		return p.GroupsEnabled
	case FeatureMessaging:
		return p.MessagingEnabled
	case FeatureTransactions:
		return p.TransactionsEnabled
	default:
		return false
	}
}
