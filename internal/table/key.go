package table

import "fmt"

// Key is the shared daily-record key tuple. One row per Key is the invariant
// the pipeline preserves from aggregation through to the final feature table.
type Key struct {
	ID            string
	StudyInterval string
	IsWeekend     bool
	Day           int
}

func (k Key) String() string {
	return fmt.Sprintf("(id=%s interval=%s weekend=%t day=%d)", k.ID, k.StudyInterval, k.IsWeekend, k.Day)
}

// Less orders keys by (id, study_interval, day, is_weekend), matching the
// pipeline's output sort contract.
func (k Key) Less(o Key) bool {
	if k.ID != o.ID {
		return k.ID < o.ID
	}
	if k.StudyInterval != o.StudyInterval {
		return k.StudyInterval < o.StudyInterval
	}
	if k.Day != o.Day {
		return k.Day < o.Day
	}
	return !k.IsWeekend && o.IsWeekend
}

// KeyAt extracts the key tuple from row i. The id and study_interval columns
// may be stored as either strings or numbers depending on the source export.
func (t *Table) KeyAt(i int) (Key, error) {
	var k Key
	var err error
	if k.ID, err = t.cellAsString("id", i); err != nil {
		return k, err
	}
	if k.StudyInterval, err = t.cellAsString("study_interval", i); err != nil {
		return k, err
	}
	wc := t.Column("is_weekend")
	if wc == nil {
		return k, fmt.Errorf("key column %q not found", "is_weekend")
	}
	if v, ok := wc.Float(i); ok {
		k.IsWeekend = v != 0
	}
	dc := t.Column("day_in_study")
	if dc == nil {
		return k, fmt.Errorf("key column %q not found", "day_in_study")
	}
	if v, ok := dc.Float(i); ok {
		k.Day = int(v)
	}
	return k, nil
}

func (t *Table) cellAsString(name string, i int) (string, error) {
	c := t.Column(name)
	if c == nil {
		return "", fmt.Errorf("key column %q not found", name)
	}
	if c.Kind == String {
		s, _ := c.StringAt(i)
		return s, nil
	}
	if v, ok := c.Float(i); ok {
		return fmt.Sprintf("%g", v), nil
	}
	return "", nil
}
