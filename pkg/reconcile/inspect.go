package reconcile

import "context"

// Inspector classifies a family without synchronizing anything.
type Inspector interface {
	Name() string
	Inspect(ctx context.Context) (Inspection, error)
}

// Inspection is the family-independent view of one classification pass.
type Inspection struct {
	Family  string               `json:"family" yaml:"family"`
	Count   int                  `json:"count" yaml:"count"`
	Counts  map[RecordStatus]int `json:"counts" yaml:"counts"`
	Columns []string             `json:"columns" yaml:"columns"`
	Rows    [][]string           `json:"rows" yaml:"rows"`
}

// Inspect implements Inspector. Rows list every record that is not synced,
// in status order, with the status and message appended.
func (d *Driver[T, P]) Inspect(ctx context.Context) (Inspection, error) {
	if err := d.opts.Validate(); err != nil {
		return Inspection{}, err
	}
	parts, count, err := d.Classify(ctx)
	if err != nil {
		return Inspection{}, err
	}

	in := Inspection{
		Family:  d.family.Name,
		Count:   count,
		Counts:  make(map[RecordStatus]int, len(Statuses)),
		Columns: append(append([]string{}, d.family.Columns...), "status", "message"),
	}
	for _, s := range Statuses {
		in.Counts[s] = parts.Len(s)
		if s == StatusSynced {
			continue
		}
		cs := parts[s]
		items := make([]T, len(cs))
		for i, c := range cs {
			items[i] = c.Item
		}
		in.Rows = append(in.Rows, d.family.rows(items,
			func(int) string { return string(s) },
			func(i int) string { return cs[i].Message },
		)...)
	}
	return in, nil
}
