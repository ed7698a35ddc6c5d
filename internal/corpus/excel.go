package corpus

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/foundermatch/internal/models"
)

// parseExcel reads the first sheet. The first row names the columns; unknown
// columns are ignored and header matching is case-insensitive ("Funding Stage"
// and "funding_stage" both work). Tags are split on commas or semicolons.
func parseExcel(content []byte) ([]*models.Startup, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	columns := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
		if _, ok := columns[key]; !ok {
			columns[key] = i
		}
	}
	if _, ok := columns["name"]; ok {
		if _, hasTitle := columns["title"]; !hasTitle {
			columns["title"] = columns["name"]
		}
	}

	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	records := make([]*models.Startup, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, &models.Startup{
			ID:           cell(row, "id"),
			Title:        cell(row, "title"),
			Description:  cell(row, "description"),
			Industry:     cell(row, "industry"),
			Location:     cell(row, "location"),
			FundingStage: cell(row, "funding_stage"),
			Tags:         splitTags(cell(row, "tags")),
		})
	}
	return records, nil
}

func splitTags(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
}
