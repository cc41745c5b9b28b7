package reconcile

import "strings"

// Family describes one local entity family and how it maps onto a remote
// resource kind.
type Family[T Record, P any] struct {
	// Name is the lower-case family name used in reports and events, e.g. "users".
	Name string

	// Entity is the singular local entity name used in messages, e.g. "User".
	Entity string

	// Resource is the display name of the remote kind, e.g. "Customer".
	Resource string

	// Validate reports whether the record carries every required cross-link.
	// When it does not, the returned message enumerates what is missing.
	// A nil Validate treats every record as eligible.
	Validate func(T) (bool, string)

	// Link returns the record's remote link field, empty when unlinked.
	Link func(T) string

	// Payload builds the remote creation payload for the record.
	Payload func(T) P

	// Columns and Row render records in reports.
	Columns []string
	Row     func(T) []string
}

// Label returns the upper-case family name used in report titles.
func (f Family[T, P]) Label() string {
	return strings.ToUpper(f.Name)
}

func (f Family[T, P]) eligible(item T) (bool, string) {
	if f.Validate == nil {
		return true, ""
	}
	return f.Validate(item)
}

func (f Family[T, P]) rows(items []T, extra ...func(int) string) [][]string {
	if f.Row == nil {
		return nil
	}
	rows := make([][]string, 0, len(items))
	for i, item := range items {
		row := f.Row(item)
		for _, fn := range extra {
			row = append(row, fn(i))
		}
		rows = append(rows, row)
	}
	return rows
}

// MissingLinks builds the invalid-record message from per-field checks. Each
// absent field contributes "Invalid link to <field>." and present fields
// contribute an empty string, joined by single spaces.
func MissingLinks(fields ...LinkCheck) (bool, string) {
	ok := true
	parts := make([]string, len(fields))
	for i, f := range fields {
		if f.Value == "" {
			ok = false
			parts[i] = "Invalid link to " + f.Field + "."
		}
	}
	if ok {
		return true, ""
	}
	return false, strings.Join(parts, " ")
}

// LinkCheck is one required cross-link of a record.
type LinkCheck struct {
	Field string
	Value string
}
