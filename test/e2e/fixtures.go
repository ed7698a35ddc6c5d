package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/foundermatch/internal/models"
)

// SupportedFileExtensions is the list of corpus file formats written by E2E tests.
var SupportedFileExtensions = []string{".json", ".yaml", ".xlsx"}

// xlsxHeader is the header row of generated spreadsheets. The mixed spelling
// checks that column matching is case-insensitive.
var xlsxHeader = []string{"ID", "Title", "Description", "Industry", "Location", "Funding Stage", "Tags"}

// WriteCorpusFile encodes startups in the format implied by ext.
func WriteCorpusFile(ext string, startups []*models.Startup) ([]byte, error) {
	switch ext {
	case ".json":
		return json.MarshalIndent(startups, "", "  ")
	case ".yaml", ".yml":
		return yaml.Marshal(map[string][]*models.Startup{"startups": startups})
	case ".xlsx":
		return xlsxCorpus(startups)
	default:
		return nil, fmt.Errorf("unsupported corpus extension %q", ext)
	}
}

func xlsxCorpus(startups []*models.Startup) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &xlsxHeader); err != nil {
		return nil, err
	}
	for i, s := range startups {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []string{s.ID, s.Title, s.Description, s.Industry, s.Location, s.FundingStage, strings.Join(s.Tags, "; ")}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
