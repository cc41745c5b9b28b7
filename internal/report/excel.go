package report

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	eventsSheet = "Events"
	headerRow   = 1
)

// Excel renders the collected events as a workbook. The first sheet lists
// every event; each event carrying a table gets its own sheet.
func (a *Agent) Excel() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", eventsSheet); err != nil {
		return nil, err
	}
	if err := setRow(f, eventsSheet, headerRow, []string{"Kind", "Title", "Description"}); err != nil {
		return nil, err
	}

	tables := 0
	for i, e := range a.Events() {
		if err := setRow(f, eventsSheet, headerRow+1+i, []string{string(e.Kind), e.Title, e.Description}); err != nil {
			return nil, err
		}
		if !e.HasData() {
			continue
		}
		tables++
		sheet := tableSheetName(tables, e.Title)
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
		if err := setRow(f, sheet, headerRow, e.Columns); err != nil {
			return nil, err
		}
		for j, row := range e.Rows {
			if err := setRow(f, sheet, headerRow+1+j, row); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

// tableSheetName keeps sheet names unique and within the 31 character
// limit of the format.
func tableSheetName(n int, title string) string {
	name := strconv.Itoa(n) + " " + strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return -1
		}
		return r
	}, title)
	if runes := []rune(name); len(runes) > 31 {
		name = string(runes[:31])
	}
	return name
}
