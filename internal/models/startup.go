// Package models defines core data structures for startups, user profiles, queries, and results.
package models

import (
	"strings"
	"time"

	"github.com/hyperjump/foundermatch/internal/validation"
)

// Startup is one record of the recommendation corpus.
type Startup struct {
	ID           string    `json:"id" yaml:"id" db:"id"`
	Title        string    `json:"title" yaml:"title" db:"title"`
	Description  string    `json:"description" yaml:"description" db:"description"`
	Industry     string    `json:"industry" yaml:"industry" db:"industry"`
	Location     string    `json:"location" yaml:"location" db:"location"`
	FundingStage string    `json:"funding_stage" yaml:"funding_stage" db:"funding_stage"`
	Tags         []string  `json:"tags" yaml:"tags" db:"tags"`
	Source       string    `json:"source,omitempty" yaml:"-" db:"source"`
	CreatedAt    time.Time `json:"created_at,omitempty" yaml:"-" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at,omitempty" yaml:"-" db:"updated_at"`
}

// Document returns the text the vectorizer sees for s: description, tags and industry,
// separated by single spaces.
func (s *Startup) Document() string {
	return s.Description + " " + strings.Join(s.Tags, " ") + " " + s.Industry
}

// StartupInput is the input for creating a startup through the API.
type StartupInput struct {
	ID           string   `json:"id,omitempty" validate:"omitempty,max=128"`
	Title        string   `json:"title" validate:"required,max=200"`
	Description  string   `json:"description" validate:"required,max=5000"`
	Industry     string   `json:"industry" validate:"required,max=100"`
	Location     string   `json:"location,omitempty" validate:"max=200"`
	FundingStage string   `json:"funding_stage,omitempty" validate:"max=50"`
	Tags         []string `json:"tags,omitempty" validate:"max=50,dive,max=100"`
}

// Validate checks field rules.
func (in *StartupInput) Validate() error {
	return validation.ValidateStruct(in)
}

// ToStartup converts the input into a Startup with tags trimmed and blanks removed.
func (in *StartupInput) ToStartup() *Startup {
	return &Startup{
		ID:           in.ID,
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Industry:     strings.TrimSpace(in.Industry),
		Location:     strings.TrimSpace(in.Location),
		FundingStage: strings.TrimSpace(in.FundingStage),
		Tags:         CleanTags(in.Tags),
	}
}

// CleanTags trims every tag and drops empty ones. The result is never nil.
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
