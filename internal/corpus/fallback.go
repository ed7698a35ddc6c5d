package corpus

import (
	_ "embed"
	"fmt"

	"github.com/hyperjump/foundermatch/internal/models"
)

//go:embed fallback.yaml
var fallbackYAML []byte

// FallbackSource is the Source of every startup returned by Fallback.
const FallbackSource = "builtin:fallback"

// Fallback returns the built-in startup dataset, freshly decoded on every call so
// callers may modify the result.
func Fallback() ([]*models.Startup, error) {
	records, err := parseYAML(fallbackYAML)
	if err != nil {
		return nil, fmt.Errorf("parse fallback corpus: %w", err)
	}
	return NewLoader().normalize(FallbackSource, records), nil
}
