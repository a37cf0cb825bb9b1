package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"orderlens/internal/analysis"
	"orderlens/internal/errors"
	"orderlens/pkg/contracts/domain"
)

const (
	revenueSheet   = "Revenue"
	bootstrapSheet = "Bootstrap"
)

// writeWorkbook produces the Excel companion to the markdown summary, one
// sheet per analysis.
func writeWorkbook(path string, meta domain.RunMetadata, summaries []analysis.CountrySummary, boot analysis.BootstrapResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", revenueSheet); err != nil {
		return errors.NewStorageError("rename workbook sheet", err)
	}

	headers := []string{"Country", "Orders", "Revenue", "Refund rate"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(revenueSheet, cell, h); err != nil {
			return errors.NewStorageError("write workbook header", err)
		}
	}
	for r, s := range summaries {
		row := r + 2
		values := []interface{}{s.Country, s.Orders, s.Revenue, s.RefundRate}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			if err := f.SetCellValue(revenueSheet, cell, v); err != nil {
				return errors.NewStorageError("write revenue row", err)
			}
		}
	}

	if _, err := f.NewSheet(bootstrapSheet); err != nil {
		return errors.NewStorageError("create bootstrap sheet", err)
	}
	bootRows := [][2]interface{}{
		{"Run ID", meta.RunID},
		{"Group A", boot.GroupA},
		{"Group B", boot.GroupB},
		{"Resamples", boot.Resamples},
		{"Seed", boot.Seed},
		{"Observed difference", boot.ObservedDiff},
		{"Bootstrap mean", boot.MeanDiff},
		{"CI lower", boot.CILower},
		{"CI upper", boot.CIUpper},
	}
	for i, kv := range bootRows {
		keyCell := fmt.Sprintf("A%d", i+1)
		valCell := fmt.Sprintf("B%d", i+1)
		if err := f.SetCellValue(bootstrapSheet, keyCell, kv[0]); err != nil {
			return errors.NewStorageError("write bootstrap row", err)
		}
		if err := f.SetCellValue(bootstrapSheet, valCell, kv[1]); err != nil {
			return errors.NewStorageError("write bootstrap row", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.NewStorageError(fmt.Sprintf("save workbook %s", path), err)
	}
	return nil
}
