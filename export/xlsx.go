// Package export renders query results as downloadable spreadsheets.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"
	"unicode/utf8"

	"logportal/models"

	"github.com/xuri/excelize/v2"
)

const (
	// SheetName is the single worksheet of every export.
	SheetName = "Logs"

	// Filename is the attachment name offered to browsers.
	Filename = "error_logs.xlsx"

	// ContentType is the MIME type of an xlsx workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	timeLayout = "2006-01-02 15:04:05"
)

// ErrNoRows is returned when there is nothing to export.
var ErrNoRows = errors.New("no rows to export")

// WriteXLSX writes rs as a workbook with one sheet: a header row of the
// result columns followed by one row per result row.
func WriteXLSX(w io.Writer, rs *models.ResultSet) error {
	if rs.Empty() {
		return ErrNoRows
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	columns := rs.Columns
	if len(columns) == 0 {
		columns = rs.Rows[0].Names()
	}

	header := make([]any, len(columns))
	for i, name := range columns {
		header[i] = name
	}
	if err := writeRow(sw, 1, header); err != nil {
		return err
	}

	for i, row := range rs.Rows {
		values := make([]any, len(columns))
		for j, name := range columns {
			v, _ := row.Get(name)
			values[j] = cellValue(v)
		}
		if err := writeRow(sw, i+2, values); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRow(sw *excelize.StreamWriter, rowNum int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := sw.SetRow(cell, values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}

// cellValue maps a result value onto a type the stream writer stores natively.
func cellValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return truncate(val)
	case []byte:
		return truncate(string(val))
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return val
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(string(val), 64); err == nil {
			return f
		}
		return truncate(string(val))
	case time.Time:
		return val.UTC().Format(timeLayout)
	default:
		return truncate(fmt.Sprint(val))
	}
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= excelize.TotalCellChars {
		return s
	}
	runes := []rune(s)
	return string(runes[:excelize.TotalCellChars])
}
