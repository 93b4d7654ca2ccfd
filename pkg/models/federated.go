package models

import (
	"time"

	"github.com/google/uuid"
)

// ResourceType is the closed set of federated resource kinds.
type ResourceType string

const (
	ResourceMember  ResourceType = "member"
	ResourceListing ResourceType = "listing"
	ResourceEvent   ResourceType = "event"
	ResourceGroup   ResourceType = "group"
)

func (r ResourceType) Valid() bool {
	switch r {
	case ResourceMember, ResourceListing, ResourceEvent, ResourceGroup:
		return true
	}
	return false
}

// Feature returns the partnership feature gating this resource type.
func (r ResourceType) Feature() Feature {
	switch r {
	case ResourceMember:
		return FeatureMembers
	case ResourceListing:
		return FeatureListings
	case ResourceEvent:
		return FeatureEvents
	case ResourceGroup:
		return FeatureGroups
	default:
		return ""
	}
}

// FederatedMember is a read-time projection of a partner tenant's member.
// Redactable fields are pointers; the privacy gate nils them out before the
// record leaves the router.
type FederatedMember struct {
	ID                  uuid.UUID    `json:"id"`
	TenantID            uuid.UUID    `json:"tenant_id"`
	TenantName          string       `json:"tenant_name,omitempty"`
	Name                string       `json:"name"`
	Avatar              *string      `json:"avatar,omitempty"`
	Bio                 *string      `json:"bio,omitempty"`
	Location            *string      `json:"location,omitempty"`
	Skills              []string     `json:"skills,omitempty"`
	ServiceReach        ServiceReach `json:"service_reach,omitempty"`
	MessagingEnabled    bool         `json:"messaging_enabled"`
	TransactionsEnabled bool         `json:"transactions_enabled"`
	OptedIn             bool         `json:"-"`
	PrivacyLevel        PrivacyLevel `json:"-"`
	ShowLocation        bool         `json:"-"`
	ShowSkills          bool         `json:"-"`
	LastActiveAt        time.Time    `json:"last_active_at,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
}

// FederatedListing is a partner tenant's offer or request.
type FederatedListing struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	TenantName   string    `json:"tenant_name,omitempty"`
	OwnerID      uuid.UUID `json:"owner_id"`
	OwnerName    string    `json:"owner_name,omitempty"`
	Title        string    `json:"title"`
	Description  *string   `json:"description,omitempty"`
	Category     string    `json:"category,omitempty"`
	Kind         string    `json:"kind"` // offer or request
	LastActiveAt time.Time `json:"last_active_at,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// FederatedEvent is a partner tenant's community event.
type FederatedEvent struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	TenantName  string    `json:"tenant_name,omitempty"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Location    *string   `json:"location,omitempty"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// FederatedGroup is a partner tenant's member group.
type FederatedGroup struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	TenantName   string    `json:"tenant_name,omitempty"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	MemberCount  int       `json:"member_count"`
	LastActiveAt time.Time `json:"last_active_at,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
