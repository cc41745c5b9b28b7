package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohabs/stripesync/pkg/reconcile"
)

func testSummary() reconcile.Summary {
	return reconcile.Summary{
		Commit: true,
		Families: []reconcile.FamilyStats{
			{Family: "users", Stats: reconcile.Stats{Count: 5, Done: 2, Synced: 3}},
			{Family: "rooms", Stats: reconcile.Stats{Count: 4, Failed: 1, Skipped: 1, Synced: 2}},
		},
	}
}

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"table", "JSON", "yaml", ""} {
		_, err := ParseFormat(in)
		assert.NoError(t, err, in)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestSummaryData(t *testing.T) {
	data := SummaryData(testSummary())
	require.Len(t, data.Rows, 3)
	assert.Equal(t, []string{"users", "5", "2", "0", "0", "3", "0"}, data.Rows[0])
	assert.Equal(t, []string{"total", "9", "2", "1", "1", "5", "0"}, data.Rows[2])

	single := reconcile.Summary{Families: testSummary().Families[:1]}
	assert.Len(t, SummaryData(single).Rows, 1, "no total row for one family")
}

func TestFormatSummaryTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatSummary(&buf, testSummary(), FormatTable))

	out := strings.ToLower(buf.String())
	assert.Contains(t, out, "family")
	assert.Contains(t, out, "users")
	assert.Contains(t, out, "total")
}

func TestFormatSummaryJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatSummary(&buf, testSummary(), FormatJSON))

	var decoded struct {
		Commit   bool `json:"commit"`
		Families []struct {
			Family string `json:"family"`
			Done   int    `json:"done"`
		} `json:"families"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.True(t, decoded.Commit)
	assert.Equal(t, "users", decoded.Families[0].Family)
	assert.Equal(t, 2, decoded.Families[0].Done)
}

func TestFormatSummaryYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatSummary(&buf, testSummary(), FormatYAML))

	out := buf.String()
	assert.Contains(t, out, "commit: true")
	assert.Contains(t, out, "family: users")
	assert.Contains(t, out, "done: 2")
}

func TestFormatInspections(t *testing.T) {
	ins := []reconcile.Inspection{{
		Family:  "leases",
		Count:   2,
		Counts:  map[reconcile.RecordStatus]int{reconcile.StatusInvalid: 1, reconcile.StatusSynced: 1},
		Columns: []string{"id", "status", "message"},
		Rows:    [][]string{{"l1", "invalid", "Invalid link to houseId."}},
	}}

	data := InspectionData(ins)
	assert.Equal(t, []string{"family", "count", "missing", "invalid", "broken", "synced", "error"}, data.Headers)
	assert.Equal(t, []string{"leases", "2", "0", "1", "0", "1", "0"}, data.Rows[0])

	var buf bytes.Buffer
	require.NoError(t, FormatInspections(&buf, ins, FormatTable))
	assert.Contains(t, buf.String(), "Invalid link to houseId.")
	assert.Equal(t, 1, strings.Count(buf.String(), "\nleases\n"))
}
