package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is one autonomous timebank community. Rows are immutable after
// onboarding except the capability flags.
type Tenant struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Domain          string    `db:"domain" json:"domain"`
	BaseURL         string    `db:"base_url" json:"base_url"`
	MembersEnabled  bool      `db:"members_enabled" json:"members_enabled"`
	ListingsEnabled bool      `db:"listings_enabled" json:"listings_enabled"`
	EventsEnabled   bool      `db:"events_enabled" json:"events_enabled"`
	GroupsEnabled   bool      `db:"groups_enabled" json:"groups_enabled"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// TableName returns the database table name
func (Tenant) TableName() string {
	return "tenants"
}
