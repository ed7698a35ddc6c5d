package recommend

import (
	"strings"

	"github.com/hyperjump/foundermatch/internal/models"
)

// ProfileKind says which kind of profile a ProfileTerms was built from.
type ProfileKind int

const (
	// ProfileNone is the zero value: no profile terms.
	ProfileNone ProfileKind = iota
	// ProfileSkills is built from skills, interests and role.
	ProfileSkills
	// ProfilePreferences is built from preferred industries and tags.
	ProfilePreferences
)

// String returns the basis name used in API responses.
func (k ProfileKind) String() string {
	switch k {
	case ProfileSkills:
		return "skills"
	case ProfilePreferences:
		return "preferences"
	default:
		return "none"
	}
}

// ProfileTerms is the normalized set of search terms derived from one kind of
// user profile. Build it with FromSkillsProfile or FromPreferencesProfile.
type ProfileTerms struct {
	kind  ProfileKind
	terms []string
}

// FromSkillsProfile derives terms from a founder's skills, interests and role.
func FromSkillsProfile(skills, interests []string, role string) ProfileTerms {
	all := make([]string, 0, len(skills)+len(interests)+1)
	all = append(all, skills...)
	all = append(all, interests...)
	all = append(all, role)
	return ProfileTerms{kind: ProfileSkills, terms: normalizeTerms(all)}
}

// FromPreferencesProfile derives terms from preferred industries and tags.
func FromPreferencesProfile(p models.Preferences) ProfileTerms {
	all := make([]string, 0, len(p.Industries)+len(p.Tags))
	all = append(all, p.Industries...)
	all = append(all, p.Tags...)
	return ProfileTerms{kind: ProfilePreferences, terms: normalizeTerms(all)}
}

// TermsFromProfile picks the skills terms when the profile has any, else the
// preferences terms. The result is empty when neither yields a term.
func TermsFromProfile(p *models.UserProfile) ProfileTerms {
	if p == nil {
		return ProfileTerms{}
	}
	if skills := FromSkillsProfile(p.Skills, p.Interests, p.Role); !skills.Empty() {
		return skills
	}
	if p.Preferences != nil {
		if prefs := FromPreferencesProfile(*p.Preferences); !prefs.Empty() {
			return prefs
		}
	}
	return ProfileTerms{}
}

// Kind returns the profile kind the terms came from.
func (p ProfileTerms) Kind() ProfileKind { return p.kind }

// Terms returns a copy of the normalized terms.
func (p ProfileTerms) Terms() []string {
	out := make([]string, len(p.terms))
	copy(out, p.terms)
	return out
}

// Empty reports whether there are no terms.
func (p ProfileTerms) Empty() bool { return len(p.terms) == 0 }

// Query joins the terms with single spaces.
func (p ProfileTerms) Query() string { return strings.Join(p.terms, " ") }

// normalizeTerms trims entries, drops blanks, and removes case-insensitive
// duplicates keeping the first spelling.
func normalizeTerms(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.Join(strings.Fields(t), " ")
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}
