// Package sheet reads and writes workbooks of flat, header-keyed tables.
//
// Each sheet is one table: the first row holds column headers and every
// following row is a record keyed by those headers. Cells are strings.
package sheet

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/roach88/tinycms/internal/record"
)

// defaultSheet is the sheet every new excelize workbook starts with.
const defaultSheet = "Sheet1"

// Table is one named sheet.
type Table struct {
	Name    string
	Columns []string
	Rows    []record.Row
}

// Workbook is an ordered set of tables.
type Workbook struct {
	Tables []Table
}

// Table returns the table called name.
func (w *Workbook) Table(name string) (Table, bool) {
	for _, t := range w.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// Encode writes the workbook as xlsx bytes. Tables keep their order; the
// first one is the active sheet.
func Encode(w Workbook) ([]byte, error) {
	if len(w.Tables) == 0 {
		return nil, fmt.Errorf("encode workbook: no tables")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, t := range w.Tables {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, t.Name); err != nil {
				return nil, fmt.Errorf("encode workbook: rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return nil, fmt.Errorf("encode workbook: add sheet %q: %w", t.Name, err)
		}

		if err := writeTable(f, t); err != nil {
			return nil, fmt.Errorf("encode workbook: sheet %q: %w", t.Name, err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTable(f *excelize.File, t Table) error {
	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(t.Name, "A1", &header); err != nil {
		return err
	}

	for r, row := range t.Rows {
		cells := make([]any, len(t.Columns))
		for i, c := range t.Columns {
			cells[i] = row[c]
		}
		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.Name, axis, &cells); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads xlsx bytes. Every sheet becomes a table whose columns are the
// non-empty header cells. Blank rows are skipped; missing cells read as "".
func Decode(data []byte) (Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Workbook{}, fmt.Errorf("decode workbook: %w", err)
	}
	defer f.Close()

	var w Workbook
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return Workbook{}, fmt.Errorf("decode workbook: sheet %q: %w", name, err)
		}
		w.Tables = append(w.Tables, readTable(name, rows))
	}
	return w, nil
}

func readTable(name string, rows [][]string) Table {
	t := Table{Name: name, Rows: []record.Row{}}
	if len(rows) == 0 {
		return t
	}

	header := rows[0]
	for _, h := range header {
		if h = strings.TrimSpace(h); h != "" {
			t.Columns = append(t.Columns, h)
		}
	}

	for _, cells := range rows[1:] {
		row := record.Row{}
		for i, cell := range cells {
			if i >= len(header) {
				break
			}
			key := strings.TrimSpace(header[i])
			if key == "" || cell == "" {
				continue
			}
			row[key] = cell
		}
		if len(row) > 0 {
			t.Rows = append(t.Rows, row)
		}
	}
	return t
}
