package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func optedInSettings(level models.PrivacyLevel) *models.FederationSettings {
	return &models.FederationSettings{
		OptedIn:           true,
		PrivacyLevel:      level,
		ServiceReach:      models.ReachLocalOnly,
		ShowLocation:      true,
		ShowSkills:        true,
		AllowMessaging:    true,
		AllowTransactions: true,
	}
}

func openPartnership() *models.Partnership {
	return &models.Partnership{
		Status:              models.PartnershipActive,
		MembersEnabled:      true,
		ListingsEnabled:     true,
		EventsEnabled:       true,
		GroupsEnabled:       true,
		MessagingEnabled:    true,
		TransactionsEnabled: true,
	}
}

func TestExposedFieldsLevelsAreSupersets(t *testing.T) {
	partnership := openPartnership()

	discovery := ExposedFields(optedInSettings(models.PrivacyDiscovery), partnership)
	social := ExposedFields(optedInSettings(models.PrivacySocial), partnership)
	economic := ExposedFields(optedInSettings(models.PrivacyEconomic), partnership)

	for field := range discovery {
		assert.True(t, social.Contains(field), "social must include discovery field %s", field)
	}
	for field := range social {
		assert.True(t, economic.Contains(field), "economic must include social field %s", field)
	}

	assert.True(t, discovery.Contains(FieldName))
	assert.True(t, discovery.Contains(FieldAvatar))
	assert.True(t, discovery.Contains(FieldBio))
	assert.False(t, discovery.Contains(FieldSkills))
	assert.False(t, discovery.Contains(FieldServiceReach))
	assert.False(t, discovery.Contains(FieldLocation))
	assert.False(t, discovery.Contains(FieldMessaging))
	assert.False(t, discovery.Contains(FieldTransactions))

	assert.True(t, social.Contains(FieldLocation))
	assert.True(t, social.Contains(FieldSkills))
	assert.True(t, social.Contains(FieldServiceReach))
	assert.True(t, social.Contains(FieldMessaging))
	assert.False(t, social.Contains(FieldTransactions))

	assert.True(t, economic.Contains(FieldTransactions))
}

func TestExposedFieldsNotOptedIn(t *testing.T) {
	settings := optedInSettings(models.PrivacyEconomic)
	settings.OptedIn = false

	fields := ExposedFields(settings, openPartnership())
	assert.Empty(t, fields)

	assert.Empty(t, ExposedFields(nil, openPartnership()))
}

func TestExposedFieldsInactivePartnership(t *testing.T) {
	settings := optedInSettings(models.PrivacyEconomic)

	suspended := openPartnership()
	suspended.Status = models.PartnershipSuspended
	assert.Empty(t, ExposedFields(settings, suspended))

	noMembers := openPartnership()
	noMembers.MembersEnabled = false
	assert.Empty(t, ExposedFields(settings, noMembers))

	assert.Empty(t, ExposedFields(settings, nil))
}

func TestExposedFieldsTogglesOnlyRemove(t *testing.T) {
	settings := optedInSettings(models.PrivacyEconomic)
	settings.ShowLocation = false
	settings.ShowSkills = false
	settings.AllowMessaging = false
	settings.AllowTransactions = false

	fields := ExposedFields(settings, openPartnership())
	assert.False(t, fields.Contains(FieldLocation))
	assert.False(t, fields.Contains(FieldSkills))
	assert.False(t, fields.Contains(FieldMessaging))
	assert.False(t, fields.Contains(FieldTransactions))

	// Fields without a toggle survive.
	assert.True(t, fields.Contains(FieldName))
	assert.True(t, fields.Contains(FieldBio))
}

func TestExposedFieldsPartnershipFlagsNarrow(t *testing.T) {
	settings := optedInSettings(models.PrivacyEconomic)

	partnership := openPartnership()
	partnership.MessagingEnabled = false
	partnership.TransactionsEnabled = false

	fields := ExposedFields(settings, partnership)
	assert.False(t, fields.Contains(FieldMessaging))
	assert.False(t, fields.Contains(FieldTransactions))
	assert.True(t, fields.Contains(FieldName))
}

func TestCanMessage(t *testing.T) {
	partnership := openPartnership()

	assert.True(t, CanMessage(optedInSettings(models.PrivacySocial), partnership))
	assert.True(t, CanMessage(optedInSettings(models.PrivacyEconomic), partnership))

	// Discovery level never exposes messaging.
	assert.False(t, CanMessage(optedInSettings(models.PrivacyDiscovery), partnership))

	declined := optedInSettings(models.PrivacySocial)
	declined.AllowMessaging = false
	assert.False(t, CanMessage(declined, partnership))

	closed := openPartnership()
	closed.MessagingEnabled = false
	assert.False(t, CanMessage(optedInSettings(models.PrivacySocial), closed))

	assert.False(t, CanMessage(nil, partnership))
}

func TestCanTransact(t *testing.T) {
	partnership := openPartnership()

	assert.True(t, CanTransact(optedInSettings(models.PrivacyEconomic), partnership))
	assert.False(t, CanTransact(optedInSettings(models.PrivacySocial), partnership))

	declined := optedInSettings(models.PrivacyEconomic)
	declined.AllowTransactions = false
	assert.False(t, CanTransact(declined, partnership))

	closed := openPartnership()
	closed.TransactionsEnabled = false
	assert.False(t, CanTransact(optedInSettings(models.PrivacyEconomic), closed))
}

func testMember(level models.PrivacyLevel) *models.FederatedMember {
	avatar := "https://example.org/a.png"
	bio := "woodworker"
	location := "Lisbon"
	return &models.FederatedMember{
		Name:                "Alice",
		Avatar:              &avatar,
		Bio:                 &bio,
		Location:            &location,
		Skills:              []string{"carpentry", "joinery"},
		ServiceReach:        models.ReachWillTravel,
		MessagingEnabled:    true,
		TransactionsEnabled: true,
		OptedIn:             true,
		PrivacyLevel:        level,
		ShowLocation:        true,
		ShowSkills:          true,
	}
}

func TestRedactDiscoveryLevel(t *testing.T) {
	member := testMember(models.PrivacyDiscovery)
	Redact(member, openPartnership())

	assert.Equal(t, "Alice", member.Name)
	require.NotNil(t, member.Avatar)
	require.NotNil(t, member.Bio)
	assert.Equal(t, "woodworker", *member.Bio)

	assert.Nil(t, member.Skills)
	assert.Equal(t, models.ServiceReach(""), member.ServiceReach)
	assert.Nil(t, member.Location)
	assert.False(t, member.MessagingEnabled)
	assert.False(t, member.TransactionsEnabled)
}

func TestRedactSocialLevel(t *testing.T) {
	member := testMember(models.PrivacySocial)
	Redact(member, openPartnership())

	assert.NotNil(t, member.Location)
	assert.Equal(t, []string{"carpentry", "joinery"}, member.Skills)
	assert.Equal(t, models.ReachWillTravel, member.ServiceReach)
	assert.True(t, member.MessagingEnabled)
	assert.False(t, member.TransactionsEnabled)
}

func TestRedactEconomicLevel(t *testing.T) {
	member := testMember(models.PrivacyEconomic)
	Redact(member, openPartnership())

	assert.True(t, member.MessagingEnabled)
	assert.True(t, member.TransactionsEnabled)
}

func TestRedactHonorsMemberToggles(t *testing.T) {
	member := testMember(models.PrivacyEconomic)
	member.ShowLocation = false
	member.ShowSkills = false
	Redact(member, openPartnership())

	assert.Nil(t, member.Location)
	assert.Nil(t, member.Skills)
	assert.NotNil(t, member.Bio)
}

func TestMemberSettingsProjection(t *testing.T) {
	member := testMember(models.PrivacyEconomic)
	member.ShowSkills = false

	settings := MemberSettings(member)

	assert.True(t, settings.OptedIn)
	assert.Equal(t, models.PrivacyEconomic, settings.PrivacyLevel)
	assert.False(t, settings.ShowSkills)
	assert.True(t, settings.AllowMessaging)
	assert.True(t, settings.AllowTransactions)

	// The projection feeds the action gates directly.
	assert.True(t, CanMessage(settings, openPartnership()))
	assert.True(t, CanTransact(settings, openPartnership()))
}

func TestVisible(t *testing.T) {
	member := testMember(models.PrivacyDiscovery)
	assert.True(t, Visible(member))

	member.OptedIn = false
	assert.False(t, Visible(member))

	assert.False(t, Visible(nil))
}
