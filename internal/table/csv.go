package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadCSV parses a CSV stream into a table. Columns named in stringCols are
// kept as strings; every other column is parsed as float64. Empty cells become
// nulls. Boolean text (true/false) in a float column is coerced to 1/0, which
// covers the is_weekend flag as exported by the study tooling.
func ReadCSV(r io.Reader, stringCols map[string]bool) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	t := New()
	for _, name := range header {
		name = strings.TrimSpace(name)
		if stringCols[name] {
			t.MustAddColumn(&Column{Name: name, Kind: String})
		} else {
			t.MustAddColumn(&Column{Name: name, Kind: Float})
		}
	}

	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record at line %d: %w", line+1, err)
		}
		line++
		if len(record) != len(header) {
			return nil, fmt.Errorf("line %d has %d fields, header has %d", line, len(record), len(header))
		}
		t.AppendNullRow()
		row := t.NumRows() - 1
		for i, raw := range record {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			c := t.cols[i]
			if c.Kind == String {
				c.SetString(row, raw)
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				if b, berr := strconv.ParseBool(strings.ToLower(raw)); berr == nil {
					if b {
						v = 1
					}
				} else {
					return nil, fmt.Errorf("line %d column %q: cannot parse %q as number", line, c.Name, raw)
				}
			}
			c.SetFloat(row, v)
		}
	}
	return t, nil
}

// WriteCSV writes the table as CSV. Null cells are written as empty fields so
// the output round-trips through ReadCSV.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	record := make([]string, len(t.cols))
	for row := 0; row < t.NumRows(); row++ {
		for i, c := range t.cols {
			switch {
			case c.Null[row]:
				record[i] = ""
			case c.Kind == String:
				record[i] = c.Str[row]
			default:
				record[i] = strconv.FormatFloat(c.Num[row], 'g', -1, 64)
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", row, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV output: %w", err)
	}
	return nil
}
