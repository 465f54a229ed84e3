package exporter

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"carviz/pkg/contracts/domain"
)

// SheetName is the worksheet holding the exported view.
const SheetName = "Filtered Cars"

const priceFormat = "$#,##0"

// WriteXLSX writes view as a single-sheet workbook. Columns follow the source
// header; price cells are numeric with a currency display format.
func WriteXLSX(w io.Writer, view domain.FilteredView) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	columns := exportColumns(view)
	header := make([]interface{}, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, l := range view.Listings {
		row := make([]interface{}, len(columns))
		for j, col := range columns {
			if v, ok := l.Price(domain.Metric(col)); ok {
				row[j] = v
			} else {
				row[j] = l.Field(col)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if err := styleSheet(f, columns); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// XLSXBytes renders view with WriteXLSX.
func XLSXBytes(view domain.FilteredView) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, view); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func styleSheet(f *excelize.File, columns []string) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return err
	}

	numFmt := priceFormat
	price, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return err
	}
	for i, col := range columns {
		if !domain.Metric(col).Valid() {
			continue
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColStyle(SheetName, name, price); err != nil {
			return err
		}
	}

	return f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
