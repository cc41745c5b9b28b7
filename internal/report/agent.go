// Package report collects the progress events of a run, prints them to the
// console and persists them as a report file.
package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	md "github.com/nao1215/markdown"
	"github.com/olekukonko/tablewriter"

	"github.com/cohabs/stripesync/pkg/constants"
	"github.com/cohabs/stripesync/pkg/errors"
	"github.com/cohabs/stripesync/pkg/reconcile"
)

// Format is the report file format.
type Format string

const (
	// FormatText writes the plain text report.
	FormatText Format = "text"
	// FormatMarkdown writes a markdown document.
	FormatMarkdown Format = "markdown"
	// FormatExcel writes a spreadsheet.
	FormatExcel Format = "xlsx"
)

// ParseFormat converts a string to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatText, "", "txt":
		return FormatText, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatExcel, "excel":
		return FormatExcel, nil
	default:
		return "", errors.NewValidationError("report_format", s, "must be one of: text, markdown, xlsx")
	}
}

// Extension returns the file extension of f.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatExcel:
		return ".xlsx"
	default:
		return ".txt"
	}
}

// Agent implements reconcile.Reporter. It is safe for concurrent use.
type Agent struct {
	mu      sync.Mutex
	console io.Writer
	events  []reconcile.Event
}

// NewAgent returns an Agent printing to console. A nil console prints
// nothing.
func NewAgent(console io.Writer) *Agent {
	if console == nil {
		console = io.Discard
	}
	return &Agent{console: console}
}

// Report implements reconcile.Reporter.
func (a *Agent) Report(_ context.Context, e reconcile.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.events = append(a.events, e)

	b := badgeFor(e.Kind)
	fmt.Fprintf(a.console, "%s  %s  %s - %s\n", b.Symbol, b.Style.Render(b.Label), e.Title, e.Description)
	if e.HasData() {
		_ = renderTable(a.console, e.Columns, e.Rows)
	}
}

// Events returns a copy of the collected events.
func (a *Agent) Events() []reconcile.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]reconcile.Event, len(a.events))
	copy(out, a.events)
	return out
}

// Len returns the number of collected events.
func (a *Agent) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.events)
}

// Reset drops every collected event.
func (a *Agent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = nil
}

// Text renders the collected events as the plain text report: one
// "[kind] - [title: description]" line per event, followed by its table.
func (a *Agent) Text() string {
	var buf bytes.Buffer
	for _, e := range a.Events() {
		fmt.Fprintf(&buf, "[%s] - [%s: %s]\n", e.Kind, e.Title, e.Description)
		if e.HasData() {
			_ = renderTable(&buf, e.Columns, e.Rows)
		}
	}
	return buf.String()
}

// Markdown renders the collected events as a markdown document.
func (a *Agent) Markdown(title string) (string, error) {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf).H1(title).LF()
	for _, e := range a.Events() {
		b := badgeFor(e.Kind)
		doc.H3(fmt.Sprintf("%s %s %s", b.Symbol, b.Label, e.Title)).
			PlainText(e.Description).
			LF()
		if e.HasData() {
			doc.Table(md.TableSet{Header: e.Columns, Rows: e.Rows}).LF()
		}
	}
	if err := doc.Build(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FileName returns the report file name for a run started at ts.
func FileName(ts time.Time, ext string) string {
	return constants.ReportFilePrefix + ts.UTC().Format("2006-01-02T15:04:05.000Z07:00") + ext
}

// WriteFile persists the report in dir and returns its path.
func (a *Agent) WriteFile(dir string, ts time.Time, format Format) (string, error) {
	var content []byte
	switch format {
	case FormatMarkdown:
		doc, err := a.Markdown("Stripe synchronization report " + ts.UTC().Format(time.RFC3339))
		if err != nil {
			return "", err
		}
		content = []byte(doc)
	case FormatExcel:
		var err error
		if content, err = a.Excel(); err != nil {
			return "", err
		}
	default:
		content = []byte(a.Text())
	}
	return write(dir, FileName(ts, format.Extension()), content)
}

// WriteError persists the text report followed by the error that ended
// the run, with the ".error" extension.
func (a *Agent) WriteError(dir string, ts time.Time, cause error) (string, error) {
	content := a.Text()
	if cause != nil {
		content += fmt.Sprintf("[%s] - [Error: %s]\n", reconcile.EventDanger, cause.Error())
	}
	return write(dir, FileName(ts, ".error"), []byte(content))
}

func write(dir, name string, content []byte) (string, error) {
	if dir == "" {
		dir = constants.DefaultReportDir
	}
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return "", errors.WrapIO("create", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, constants.FilePermissions); err != nil {
		return "", errors.WrapIO("write", path, err)
	}
	return path, nil
}

func renderTable(w io.Writer, columns []string, rows [][]string) error {
	table := tablewriter.NewTable(w)
	headers := make([]any, len(columns))
	for i, c := range columns {
		headers[i] = c
	}
	table.Header(headers...)
	for _, row := range rows {
		cells := make([]any, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		if err := table.Append(cells...); err != nil {
			return err
		}
	}
	return table.Render()
}
