// Package corpus reads startup records from JSON, YAML, and Excel files and
// provides the built-in fallback dataset.
package corpus

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/foundermatch/internal/models"
)

// SupportedExtensions lists the file extensions Load understands.
var SupportedExtensions = []string{".json", ".yaml", ".yml", ".xlsx"}

// Supported reports whether path has an extension Load understands.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

const idPrefix = "startup:"

// StartupID returns a stable id for the position-th record of the file at path.
// The same cleaned path and position always yield the same id.
func StartupID(path string, position int) string {
	hash := sha256.Sum256([]byte(filepath.Clean(path) + "#" + strconv.Itoa(position)))
	return idPrefix + hex.EncodeToString(hash[:8])
}

// Loader reads startup files.
type Loader struct {
	logger *zap.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets a logger for skipped records.
func WithLogger(l *zap.Logger) LoaderOption {
	return func(ld *Loader) { ld.logger = l }
}

// NewLoader returns a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	ld := &Loader{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// Load reads the startups in the file at path. Records without an id get
// StartupID(path, position); records without a title, description, or industry
// are skipped. Every returned startup has Source set to path.
func (ld *Loader) Load(path string) ([]*models.Startup, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ld.Parse(path, content)
}

// Parse decodes content as the format implied by path's extension.
func (ld *Loader) Parse(path string, content []byte) ([]*models.Startup, error) {
	var (
		records []*models.Startup
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		records, err = parseJSON(content)
	case ".yaml", ".yml":
		records, err = parseYAML(content)
	case ".xlsx":
		records, err = parseExcel(content)
	default:
		return nil, fmt.Errorf("unsupported corpus file: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return ld.normalize(path, records), nil
}

func (ld *Loader) normalize(path string, records []*models.Startup) []*models.Startup {
	out := make([]*models.Startup, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		if r == nil {
			continue
		}
		r.ID = strings.TrimSpace(r.ID)
		r.Title = strings.TrimSpace(r.Title)
		r.Description = strings.TrimSpace(r.Description)
		r.Industry = strings.TrimSpace(r.Industry)
		r.Location = strings.TrimSpace(r.Location)
		r.FundingStage = strings.TrimSpace(r.FundingStage)
		r.Tags = models.CleanTags(r.Tags)
		if r.Title == "" || r.Description == "" || r.Industry == "" {
			ld.logger.Debug("skipping incomplete startup record",
				zap.String("path", path), zap.Int("position", i))
			continue
		}
		if r.ID == "" {
			r.ID = StartupID(path, i)
		}
		if _, dup := seen[r.ID]; dup {
			ld.logger.Debug("skipping duplicate startup id",
				zap.String("path", path), zap.String("id", r.ID))
			continue
		}
		seen[r.ID] = struct{}{}
		r.Source = path
		out = append(out, r)
	}
	return out
}

type corpusFile struct {
	Startups []*models.Startup `json:"startups" yaml:"startups"`
}

// parseJSON accepts a bare array or an object with a "startups" array.
func parseJSON(content []byte) ([]*models.Startup, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []*models.Startup
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, err
		}
		return records, nil
	}
	var file corpusFile
	if err := json.Unmarshal(trimmed, &file); err != nil {
		return nil, err
	}
	return file.Startups, nil
}

// parseYAML accepts a bare sequence or a mapping with a "startups" sequence.
func parseYAML(content []byte) ([]*models.Startup, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(content, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	doc := root.Content[0]
	if doc.Kind == yaml.SequenceNode {
		var records []*models.Startup
		if err := doc.Decode(&records); err != nil {
			return nil, err
		}
		return records, nil
	}
	var file corpusFile
	if err := doc.Decode(&file); err != nil {
		return nil, err
	}
	return file.Startups, nil
}
