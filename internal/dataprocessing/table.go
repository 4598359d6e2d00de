package dataprocessing

import (
	"fmt"
	"slices"
)

// Kind is the value type held by a column
type Kind int

const (
	// KindString columns hold text
	KindString Kind = iota
	// KindFloat columns hold float64 values
	KindFloat
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindFloat:
		return "float"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Column is a named sequence of values of a single kind.
// Only the slice matching Kind is populated.
type Column struct {
	Name    string
	Kind    Kind
	Strings []string
	Floats  []float64
}

// NewStringColumn creates a text column
func NewStringColumn(name string, values []string) *Column {
	return &Column{Name: name, Kind: KindString, Strings: values}
}

// NewFloatColumn creates a numeric column
func NewFloatColumn(name string, values []float64) *Column {
	return &Column{Name: name, Kind: KindFloat, Floats: values}
}

// Len returns the number of values in the column
func (c *Column) Len() int {
	if c.Kind == KindFloat {
		return len(c.Floats)
	}
	return len(c.Strings)
}

// Value returns the value at row i as string or float64
func (c *Column) Value(i int) any {
	if c.Kind == KindFloat {
		return c.Floats[i]
	}
	return c.Strings[i]
}

func (c *Column) clone() *Column {
	return &Column{
		Name:    c.Name,
		Kind:    c.Kind,
		Strings: slices.Clone(c.Strings),
		Floats:  slices.Clone(c.Floats),
	}
}

// Table is an ordered set of named columns aligned by row position.
// All columns have the same length and names are unique.
type Table struct {
	columns []*Column
}

// NewTable builds a table from columns in schema order
func NewTable(columns ...*Column) (*Table, error) {
	t := &Table{}
	for _, c := range columns {
		if err := t.AddColumn(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// AddColumn appends a column, rejecting duplicates and length mismatches
func (t *Table) AddColumn(c *Column) error {
	if c == nil {
		return fmt.Errorf("nil column")
	}
	if c.Name == "" {
		return fmt.Errorf("column name is empty")
	}
	if _, ok := t.Column(c.Name); ok {
		return fmt.Errorf("duplicate column %q", c.Name)
	}
	if len(t.columns) > 0 && c.Len() != t.NumRows() {
		return fmt.Errorf("column %q has %d values, table has %d rows", c.Name, c.Len(), t.NumRows())
	}
	t.columns = append(t.columns, c)
	return nil
}

// Columns returns the columns in schema order
func (t *Table) Columns() []*Column {
	return slices.Clone(t.columns)
}

// ColumnNames returns the column names in schema order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// NumRows returns the row count
func (t *Table) NumRows() int {
	if len(t.columns) == 0 {
		return 0
	}
	return t.columns[0].Len()
}

// NumColumns returns the column count
func (t *Table) NumColumns() int {
	return len(t.columns)
}

// Row returns the values of row i in schema order
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.columns))
	for j, c := range t.columns {
		row[j] = c.Value(i)
	}
	return row
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	out := &Table{columns: make([]*Column, len(t.columns))}
	for i, c := range t.columns {
		out.columns[i] = c.clone()
	}
	return out
}
