package output

import (
	"io"
	"strconv"

	"github.com/cohabs/stripesync/pkg/reconcile"
)

// SummaryData converts a run summary to table data: one row per family and
// a total row when more than one family ran.
func SummaryData(s reconcile.Summary) Data {
	data := Data{
		Headers:      []string{"family", "count", "done", "failed", "skipped", "synced", "error"},
		RightAligned: []int{1, 2, 3, 4, 5, 6},
	}
	for _, f := range s.Families {
		data.Rows = append(data.Rows, statsRow(f.Family, f.Stats))
	}
	if len(s.Families) > 1 {
		data.Rows = append(data.Rows, statsRow("total", s.Totals()))
	}
	return data
}

// FormatSummary writes a run summary in format.
func FormatSummary(w io.Writer, s reconcile.Summary, format Format) error {
	var data any = s
	if format == FormatTable || format == "" {
		data = SummaryData(s)
	}
	return NewFormatter(format).Format(w, data)
}

// InspectionData converts classification counts to table data.
func InspectionData(ins []reconcile.Inspection) Data {
	headers := []string{"family", "count"}
	for _, s := range reconcile.Statuses {
		headers = append(headers, string(s))
	}
	data := Data{Headers: headers, RightAligned: []int{1, 2, 3, 4, 5, 6}}
	for _, in := range ins {
		row := []string{in.Family, strconv.Itoa(in.Count)}
		for _, s := range reconcile.Statuses {
			row = append(row, strconv.Itoa(in.Counts[s]))
		}
		data.Rows = append(data.Rows, row)
	}
	return data
}

// FormatInspections writes classification results in format. The table
// format prints the counts followed by the records needing attention.
func FormatInspections(w io.Writer, ins []reconcile.Inspection, format Format) error {
	if format != FormatTable && format != "" {
		return NewFormatter(format).Format(w, ins)
	}
	if err := Table(w, InspectionData(ins)); err != nil {
		return err
	}
	for _, in := range ins {
		if len(in.Rows) == 0 {
			continue
		}
		if _, err := io.WriteString(w, "\n"+in.Family+"\n"); err != nil {
			return err
		}
		if err := Table(w, Data{Headers: in.Columns, Rows: in.Rows}); err != nil {
			return err
		}
	}
	return nil
}

func statsRow(name string, s reconcile.Stats) []string {
	return []string{
		name,
		strconv.Itoa(s.Count),
		strconv.Itoa(s.Done),
		strconv.Itoa(s.Failed),
		strconv.Itoa(s.Skipped),
		strconv.Itoa(s.Synced),
		strconv.Itoa(s.Error),
	}
}
