package models

import (
	"time"

	"github.com/google/uuid"
)

// PrivacyLevel is an ordered user setting; each level exposes a strict
// superset of the fields exposed by the previous one.
type PrivacyLevel string

const (
	PrivacyDiscovery PrivacyLevel = "discovery"
	PrivacySocial    PrivacyLevel = "social"
	PrivacyEconomic  PrivacyLevel = "economic"
)

// Rank returns the ordering of the privacy level. Unknown values rank below
// discovery so a malformed row never widens exposure.
func (l PrivacyLevel) Rank() int {
	switch l {
	case PrivacyDiscovery:
		return 1
	case PrivacySocial:
		return 2
	case PrivacyEconomic:
		return 3
	default:
		return 0
	}
}

// Valid reports whether the level is one of the known values.
func (l PrivacyLevel) Valid() bool {
	return l.Rank() > 0
}

// ServiceReach describes how far a member is willing to provide services.
type ServiceReach string

const (
	ReachLocalOnly  ServiceReach = "local_only"
	ReachWillTravel ServiceReach = "will_travel"
	ReachRemoteOK   ServiceReach = "remote_ok"
)

func (r ServiceReach) Valid() bool {
	switch r {
	case ReachLocalOnly, ReachWillTravel, ReachRemoteOK:
		return true
	}
	return false
}

// FederationSettings is one row per user holding the federation opt-in
// state, privacy level and per-field visibility toggles. Toggles can only
// restrict what the privacy level allows, never expand it.
type FederationSettings struct {
	UserID            uuid.UUID    `db:"user_id" json:"user_id"`
	TenantID          uuid.UUID    `db:"tenant_id" json:"tenant_id"`
	OptedIn           bool         `db:"opted_in" json:"opted_in"`
	PrivacyLevel      PrivacyLevel `db:"privacy_level" json:"privacy_level"`
	ServiceReach      ServiceReach `db:"service_reach" json:"service_reach"`
	ShowLocation      bool         `db:"show_location" json:"show_location"`
	ShowSkills        bool         `db:"show_skills" json:"show_skills"`
	AllowMessaging    bool         `db:"allow_messaging" json:"allow_messaging"`
	AllowTransactions bool         `db:"allow_transactions" json:"allow_transactions"`
	CreatedAt         time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at" json:"updated_at"`
}

// TableName returns the database table name
func (FederationSettings) TableName() string {
	return "federation_settings"
}

// DefaultFederationSettings returns the opt-out defaults for a user that has
// never saved settings.
func DefaultFederationSettings(userID, tenantID uuid.UUID) *FederationSettings {
	return &FederationSettings{
		UserID:       userID,
		TenantID:     tenantID,
		OptedIn:      false,
		PrivacyLevel: PrivacyDiscovery,
		ServiceReach: ReachLocalOnly,
	}
}
