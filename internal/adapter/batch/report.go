package batch

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/xuri/excelize/v2"
)

const reportSheet = "Reconciliation"

var reportHeader = []string{
	"Scenario", "Currency", "Precision", "Factor", "Net Rate", "Net Amount", "Tax Amount", "Residue", "Discrepancy", "Status", "Error",
}

func (o Outcome) row() []string {
	if o.Err != nil {
		return []string{o.Name, o.Currency, fmt.Sprint(o.Precision), "", "", "", "", "", "", o.Status(), o.Err.Error()}
	}
	return []string{
		o.Name,
		o.Currency,
		fmt.Sprint(o.Precision),
		o.Factor.String(),
		o.NetRate.StringFixed(o.Precision),
		o.NetAmount.StringFixed(o.Precision),
		o.TaxAmount.StringFixed(o.Precision),
		o.Residue.StringFixed(o.Precision),
		o.Discrepancy.StringFixed(o.Precision),
		o.Status(),
		"",
	}
}

// WriteTable renders outcomes as an aligned text table
func WriteTable(w io.Writer, outcomes []Outcome) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeLine := func(cells []string) {
		for i, c := range cells {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, c)
		}
		fmt.Fprintln(tw)
	}

	writeLine(reportHeader)
	for _, o := range outcomes {
		writeLine(o.row())
	}
	return tw.Flush()
}

// WriteXLSX saves outcomes as a single-sheet workbook at path
func WriteXLSX(path string, outcomes []Outcome) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	rows := make([][]string, 0, len(outcomes)+1)
	rows = append(rows, reportHeader)
	for _, o := range outcomes {
		rows = append(rows, o.row())
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(reportSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// Failed reports whether any outcome is not PASS
func Failed(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if o.Status() != "PASS" {
			return true
		}
	}
	return false
}
