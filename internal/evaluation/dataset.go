// Package evaluation scores a labeled transcript workbook with the risk
// classifier and reports how the fixed threshold performs on it.
package evaluation

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sample is one labeled transcript.
type Sample struct {
	Row   int // 1-based worksheet row
	Text  string
	Fraud bool
}

// LoadSamples reads the first sheet of the workbook at path. The header row
// must contain a text column ("text" or "transcript") and a "label" column.
// Rows with blank text are skipped.
func LoadSamples(path string) ([]Sample, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	textIdx, labelIdx := -1, -1
	for i, h := range rows[0] {
		n := strings.ToLower(strings.TrimSpace(h))
		switch {
		case textIdx == -1 && (n == "text" || n == "transcript" || n == "문장"):
			textIdx = i
		case labelIdx == -1 && (n == "label" || n == "라벨"):
			labelIdx = i
		}
	}
	if textIdx == -1 || labelIdx == -1 {
		return nil, fmt.Errorf("header must contain text and label columns, got %v", rows[0])
	}

	var out []Sample
	for i, r := range rows[1:] {
		row := i + 2
		text := cell(r, textIdx)
		if strings.TrimSpace(text) == "" {
			continue
		}
		fraud, err := ParseLabel(cell(r, labelIdx))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		out = append(out, Sample{Row: row, Text: text, Fraud: fraud})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no labeled rows")
	}
	return out, nil
}

// ParseLabel accepts 1/0, true/false, fraud/normal and the Korean labels.
func ParseLabel(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "fraud", "phishing", "보이스피싱":
		return true, nil
	case "0", "false", "normal", "정상":
		return false, nil
	default:
		return false, fmt.Errorf("unrecognized label %q", s)
	}
}

func cell(r []string, idx int) string {
	if idx < len(r) {
		return r[idx]
	}
	return ""
}
