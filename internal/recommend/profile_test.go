package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyperjump/foundermatch/internal/models"
)

func TestFromSkillsProfile(t *testing.T) {
	p := FromSkillsProfile([]string{" Python ", "machine  learning", ""}, []string{"python", "Health"}, "CTO")
	assert.Equal(t, ProfileSkills, p.Kind())
	assert.Equal(t, []string{"Python", "machine learning", "Health", "CTO"}, p.Terms())
	assert.Equal(t, "Python machine learning Health CTO", p.Query())
	assert.False(t, p.Empty())
}

func TestFromPreferencesProfile(t *testing.T) {
	p := FromPreferencesProfile(models.Preferences{
		Industries: []string{"Agriculture", "agriculture"},
		Tags:       []string{"IoT", "  "},
	})
	assert.Equal(t, ProfilePreferences, p.Kind())
	assert.Equal(t, "Agriculture IoT", p.Query())
}

func TestTermsFromProfile(t *testing.T) {
	tests := []struct {
		name    string
		profile *models.UserProfile
		kind    ProfileKind
		query   string
	}{
		{name: "nil", profile: nil, kind: ProfileNone},
		{name: "empty", profile: &models.UserProfile{}, kind: ProfileNone},
		{
			name:    "skills win",
			profile: &models.UserProfile{Skills: []string{"sensors"}, Preferences: &models.Preferences{Tags: []string{"fintech"}}},
			kind:    ProfileSkills,
			query:   "sensors",
		},
		{
			name:    "preferences when skills are blank",
			profile: &models.UserProfile{Skills: []string{" "}, Preferences: &models.Preferences{Industries: []string{"Fintech"}}},
			kind:    ProfilePreferences,
			query:   "Fintech",
		},
		{
			name:    "empty preferences",
			profile: &models.UserProfile{Preferences: &models.Preferences{}},
			kind:    ProfileNone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TermsFromProfile(tt.profile)
			assert.Equal(t, tt.kind, got.Kind())
			assert.Equal(t, tt.query, got.Query())
			assert.Equal(t, tt.kind == ProfileNone, got.Empty())
		})
	}
}

func TestProfileKind_String(t *testing.T) {
	assert.Equal(t, "skills", ProfileSkills.String())
	assert.Equal(t, "preferences", ProfilePreferences.String())
	assert.Equal(t, "none", ProfileNone.String())
}

func TestProfileTerms_TermsIsACopy(t *testing.T) {
	p := FromSkillsProfile([]string{"go"}, nil, "")
	terms := p.Terms()
	terms[0] = "rust"
	assert.Equal(t, "go", p.Query())
}
