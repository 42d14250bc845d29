package evaluation

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"voice-phishing-detector/internal/service/policy"
)

// Sheet names of the report workbook.
const (
	ResultsSheet = "Results"
	SummarySheet = "Summary"
)

// WriteReport saves per-sample results and the summary to a new workbook.
func WriteReport(path string, results []Result, sum Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ResultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	header := []interface{}{"row", "text", "label", "risk_score", "model_result", "correct", "error"}
	if err := f.SetSheetRow(ResultsSheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(ResultsSheet, "A1", "G1", bold); err != nil {
		return err
	}

	for i, r := range results {
		row := []interface{}{r.Row, r.Text, label(r.Fraud), "", "", r.Correct(), ""}
		if r.Err != nil {
			row[6] = r.Err.Error()
		} else {
			row[3] = r.Score
			row[4] = string(r.Verdict)
		}
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(ResultsSheet, cellName, &row); err != nil {
			return fmt.Errorf("write row %d: %w", r.Row, err)
		}
	}
	if err := f.SetColWidth(ResultsSheet, "B", "B", 60); err != nil {
		return err
	}

	summary := [][]interface{}{
		{"threshold", policy.Threshold},
		{"total", sum.Total},
		{"errors", sum.Errors},
		{"true_positives", sum.TruePositives},
		{"false_positives", sum.FalsePositives},
		{"true_negatives", sum.TrueNegatives},
		{"false_negatives", sum.FalseNegatives},
		{"accuracy", sum.Accuracy()},
		{"precision", sum.Precision()},
		{"recall", sum.Recall()},
		{"f1", sum.F1()},
	}
	for i, kv := range summary {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := kv
		if err := f.SetSheetRow(SummarySheet, cellName, &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SummarySheet, "A1", fmt.Sprintf("A%d", len(summary)), bold); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func label(fraud bool) string {
	if fraud {
		return "fraud"
	}
	return "normal"
}
