// Package table implements the column-oriented in-memory table that pipeline
// stages pass between each other. Columns are either string-valued or
// float-valued and every cell carries an explicit null flag, so missingness
// survives each transform until the imputer removes it.
package table

import (
	"fmt"
	"math"
	"sort"
)

// Kind identifies the storage type of a column.
type Kind int

const (
	String Kind = iota
	Float
)

// Column holds one named column. Exactly one of Str or Num is populated
// depending on Kind; Null always has one entry per row.
type Column struct {
	Name string
	Kind Kind
	Str  []string
	Num  []float64
	Null []bool
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	return len(c.Null)
}

// appendNull grows the column by one null cell.
func (c *Column) appendNull() {
	c.Null = append(c.Null, true)
	if c.Kind == String {
		c.Str = append(c.Str, "")
	} else {
		c.Num = append(c.Num, math.NaN())
	}
}

// Table is an ordered collection of equal-length columns.
type Table struct {
	cols   []*Column
	byName map[string]int
}

// New returns an empty table with no columns.
func New() *Table {
	return &Table{byName: make(map[string]int)}
}

// NumRows returns the row count (0 for a table with no columns).
func (t *Table) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return t.cols[0].Len()
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.cols)
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Column returns the named column, or nil if it does not exist.
func (t *Table) Column(name string) *Column {
	i, ok := t.byName[name]
	if !ok {
		return nil
	}
	return t.cols[i]
}

// AddColumn appends a column to the table. The column length must match the
// table's row count unless the table has no columns yet.
func (t *Table) AddColumn(c *Column) error {
	if _, ok := t.byName[c.Name]; ok {
		return fmt.Errorf("column %q already exists", c.Name)
	}
	if len(t.cols) > 0 && c.Len() != t.NumRows() {
		return fmt.Errorf("column %q has %d rows, table has %d", c.Name, c.Len(), t.NumRows())
	}
	t.byName[c.Name] = len(t.cols)
	t.cols = append(t.cols, c)
	return nil
}

// MustAddColumn is AddColumn for construction paths where a name collision or
// length mismatch is a programming error.
func (t *Table) MustAddColumn(c *Column) {
	if err := t.AddColumn(c); err != nil {
		panic(err)
	}
}

// DropColumn removes the named column. Dropping a missing column is an error.
func (t *Table) DropColumn(name string) error {
	i, ok := t.byName[name]
	if !ok {
		return fmt.Errorf("column %q not found", name)
	}
	t.cols = append(t.cols[:i], t.cols[i+1:]...)
	delete(t.byName, name)
	for j := i; j < len(t.cols); j++ {
		t.byName[t.cols[j].Name] = j
	}
	return nil
}

// ReplaceColumn swaps the named column for c in place, preserving column
// order. The new column keeps the old name's position regardless of c.Name.
func (t *Table) ReplaceColumn(name string, c *Column) error {
	i, ok := t.byName[name]
	if !ok {
		return fmt.Errorf("column %q not found", name)
	}
	if t.NumRows() != c.Len() {
		return fmt.Errorf("column %q has %d rows, table has %d", c.Name, c.Len(), t.NumRows())
	}
	delete(t.byName, name)
	t.cols[i] = c
	t.byName[c.Name] = i
	return nil
}

// NewFloatColumn returns an all-null float column of length n.
func NewFloatColumn(name string, n int) *Column {
	c := &Column{Name: name, Kind: Float, Num: make([]float64, n), Null: make([]bool, n)}
	for i := range c.Null {
		c.Null[i] = true
		c.Num[i] = math.NaN()
	}
	return c
}

// NewStringColumn returns an all-null string column of length n.
func NewStringColumn(name string, n int) *Column {
	c := &Column{Name: name, Kind: String, Str: make([]string, n), Null: make([]bool, n)}
	for i := range c.Null {
		c.Null[i] = true
	}
	return c
}

// SetFloat assigns a non-null float value to row i.
func (c *Column) SetFloat(i int, v float64) {
	c.Num[i] = v
	c.Null[i] = false
}

// SetString assigns a non-null string value to row i.
func (c *Column) SetString(i int, v string) {
	c.Str[i] = v
	c.Null[i] = false
}

// SetNull marks row i as missing.
func (c *Column) SetNull(i int) {
	c.Null[i] = true
	if c.Kind == Float {
		c.Num[i] = math.NaN()
	} else {
		c.Str[i] = ""
	}
}

// Float returns the value at row i and whether it is present.
func (c *Column) Float(i int) (float64, bool) {
	if c.Null[i] {
		return 0, false
	}
	return c.Num[i], true
}

// StringAt returns the value at row i and whether it is present.
func (c *Column) StringAt(i int) (string, bool) {
	if c.Null[i] {
		return "", false
	}
	return c.Str[i], true
}

// NonNull returns the non-null float values of the column in row order.
func (c *Column) NonNull() []float64 {
	out := make([]float64, 0, c.Len())
	for i := range c.Null {
		if !c.Null[i] {
			out = append(out, c.Num[i])
		}
	}
	return out
}

// NullCount returns the number of missing cells.
func (c *Column) NullCount() int {
	n := 0
	for _, isNull := range c.Null {
		if isNull {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := New()
	for _, c := range t.cols {
		nc := &Column{Name: c.Name, Kind: c.Kind}
		nc.Null = append([]bool(nil), c.Null...)
		if c.Kind == String {
			nc.Str = append([]string(nil), c.Str...)
		} else {
			nc.Num = append([]float64(nil), c.Num...)
		}
		out.MustAddColumn(nc)
	}
	return out
}

// AppendNullRow grows every column by one null cell and returns the new row
// index.
func (t *Table) AppendNullRow() int {
	for _, c := range t.cols {
		c.appendNull()
	}
	return t.NumRows() - 1
}

// Permute reorders all columns by the given row permutation. perm[i] is the
// source row index for destination row i.
func (t *Table) Permute(perm []int) {
	for _, c := range t.cols {
		null := make([]bool, len(perm))
		if c.Kind == String {
			str := make([]string, len(perm))
			for i, src := range perm {
				str[i] = c.Str[src]
				null[i] = c.Null[src]
			}
			c.Str = str
		} else {
			num := make([]float64, len(perm))
			for i, src := range perm {
				num[i] = c.Num[src]
				null[i] = c.Null[src]
			}
			c.Num = num
		}
		c.Null = null
	}
}

// SortByKey stably sorts the table ascending by the given columns. String
// columns compare lexically, float columns numerically with nulls last.
func (t *Table) SortByKey(keyCols ...string) error {
	cols := make([]*Column, len(keyCols))
	for i, name := range keyCols {
		c := t.Column(name)
		if c == nil {
			return fmt.Errorf("sort key column %q not found", name)
		}
		cols[i] = c
	}
	perm := make([]int, t.NumRows())
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		ra, rb := perm[a], perm[b]
		for _, c := range cols {
			if cmp := compareCells(c, ra, rb); cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})
	t.Permute(perm)
	return nil
}

func compareCells(c *Column, a, b int) int {
	// Nulls sort after any value.
	switch {
	case c.Null[a] && c.Null[b]:
		return 0
	case c.Null[a]:
		return 1
	case c.Null[b]:
		return -1
	}
	if c.Kind == String {
		switch {
		case c.Str[a] < c.Str[b]:
			return -1
		case c.Str[a] > c.Str[b]:
			return 1
		}
		return 0
	}
	switch {
	case c.Num[a] < c.Num[b]:
		return -1
	case c.Num[a] > c.Num[b]:
		return 1
	}
	return 0
}
