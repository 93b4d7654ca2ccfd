// Package privacy decides which member fields and actions are exposable
// across tenant boundaries. Every decision is derived from the member's own
// federation settings and the partnership flags; nothing here writes state.
package privacy

import (
	"github.com/Ramsey-B/clover/pkg/models"
)

// Field identifies one redactable member attribute.
type Field string

const (
	FieldName         Field = "name"
	FieldAvatar       Field = "avatar"
	FieldBio          Field = "bio"
	FieldLocation     Field = "location"
	FieldSkills       Field = "skills"
	FieldServiceReach Field = "service_reach"
	FieldMessaging    Field = "messaging"
	FieldTransactions Field = "transactions"
)

// FieldSet is the set of fields a viewer is entitled to see.
type FieldSet map[Field]bool

// Contains reports whether the field is in the set.
func (s FieldSet) Contains(f Field) bool {
	return s[f]
}

// baseFields returns the exposed-field set for a privacy level alone. Each
// level is a strict superset of the previous one.
func baseFields(level models.PrivacyLevel) FieldSet {
	set := FieldSet{}
	if level.Rank() >= models.PrivacyDiscovery.Rank() {
		set[FieldName] = true
		set[FieldAvatar] = true
		set[FieldBio] = true
	}
	if level.Rank() >= models.PrivacySocial.Rank() {
		set[FieldLocation] = true
		set[FieldSkills] = true
		set[FieldServiceReach] = true
		set[FieldMessaging] = true
	}
	if level.Rank() >= models.PrivacyEconomic.Rank() {
		set[FieldTransactions] = true
	}
	return set
}

// ExposedFields computes the fields of a member that the viewing tenant may
// see: the privacy-level base set, narrowed by the member's own toggles,
// narrowed again by what the partnership direction enables. Toggles and
// partnership flags only ever remove fields.
func ExposedFields(settings *models.FederationSettings, partnership *models.Partnership) FieldSet {
	if settings == nil || !settings.OptedIn {
		return FieldSet{}
	}
	if partnership == nil || !partnership.IsActive() || !partnership.FeatureEnabled(models.FeatureMembers) {
		return FieldSet{}
	}

	set := baseFields(settings.PrivacyLevel)

	if !settings.ShowLocation {
		delete(set, FieldLocation)
	}
	if !settings.ShowSkills {
		delete(set, FieldSkills)
	}
	if !settings.AllowMessaging {
		delete(set, FieldMessaging)
	}
	if !settings.AllowTransactions {
		delete(set, FieldTransactions)
	}

	if !partnership.FeatureEnabled(models.FeatureMessaging) {
		delete(set, FieldMessaging)
	}
	if !partnership.FeatureEnabled(models.FeatureTransactions) {
		delete(set, FieldTransactions)
	}

	return set
}

// CanMessage reports whether the member accepts cross-tenant messages from
// the viewing tenant. Requires opt-in, privacy level social or above, the
// member's messaging toggle, and the partnership's messaging flag.
func CanMessage(settings *models.FederationSettings, partnership *models.Partnership) bool {
	if settings == nil || !settings.OptedIn || !settings.AllowMessaging {
		return false
	}
	if settings.PrivacyLevel.Rank() < models.PrivacySocial.Rank() {
		return false
	}
	return partnership != nil && partnership.IsActive() && partnership.FeatureEnabled(models.FeatureMessaging)
}

// CanTransact reports whether the member accepts cross-tenant transactions
// from the viewing tenant. Requires opt-in, privacy level economic, the
// member's transactions toggle, and the partnership's transactions flag.
func CanTransact(settings *models.FederationSettings, partnership *models.Partnership) bool {
	if settings == nil || !settings.OptedIn || !settings.AllowTransactions {
		return false
	}
	if settings.PrivacyLevel.Rank() < models.PrivacyEconomic.Rank() {
		return false
	}
	return partnership != nil && partnership.IsActive() && partnership.FeatureEnabled(models.FeatureTransactions)
}

// Visible reports whether the member may appear in federated results at all.
// A member that never opted in is dropped, not redacted.
func Visible(member *models.FederatedMember) bool {
	return member != nil && member.OptedIn
}

// Redact strips a member record down to the fields the viewer is entitled to
// see. The record carries its owner's settings as unexported-to-JSON fields,
// populated by the owning tenant; redaction happens here, before the record
// leaves the router.
func Redact(member *models.FederatedMember, partnership *models.Partnership) {
	settings := MemberSettings(member)
	fields := ExposedFields(settings, partnership)

	if !fields.Contains(FieldAvatar) {
		member.Avatar = nil
	}
	if !fields.Contains(FieldBio) {
		member.Bio = nil
	}
	if !fields.Contains(FieldLocation) {
		member.Location = nil
	}
	if !fields.Contains(FieldSkills) {
		member.Skills = nil
	}
	if !fields.Contains(FieldServiceReach) {
		member.ServiceReach = ""
	}
	member.MessagingEnabled = fields.Contains(FieldMessaging)
	member.TransactionsEnabled = fields.Contains(FieldTransactions)
}

// MemberSettings reconstructs the owner's settings from the flags the
// owning tenant attached to the record. Callers needing action gates
// (CanMessage, CanTransact) feed this projection to them before redaction
// wipes the flags.
func MemberSettings(member *models.FederatedMember) *models.FederationSettings {
	return &models.FederationSettings{
		UserID:            member.ID,
		TenantID:          member.TenantID,
		OptedIn:           member.OptedIn,
		PrivacyLevel:      member.PrivacyLevel,
		ServiceReach:      member.ServiceReach,
		ShowLocation:      member.ShowLocation,
		ShowSkills:        member.ShowSkills,
		AllowMessaging:    member.MessagingEnabled,
		AllowTransactions: member.TransactionsEnabled,
	}
}
