package ctl

import (
	"fmt"

	"github.com/consensys/starkvm/trace"
)

// Style selects the lookup argument used to reduce a table.
type Style uint8

const (
	// StyleGrandProduct accumulates a running product of combined rows,
	// skipping rows whose filter is zero.
	StyleGrandProduct Style = iota
	// StyleLogUp accumulates a running sum of filter/combine terms; the
	// looked side weighs each term by a multiplicity instead of a binary
	// filter.
	StyleLogUp
)

func (s Style) String() string {
	switch s {
	case StyleGrandProduct:
		return "grand-product"
	case StyleLogUp:
		return "logup"
	default:
		return fmt.Sprintf("style(%d)", uint8(s))
	}
}

// TableRef designates the rows one side of a lookup contributes: the tuple of
// columns to combine and the filter (or multiplicity) selecting rows.
type TableRef struct {
	Kind    trace.TableKind
	Columns []Column
	Filter  Column
}

// NewTableRef builds a reference with an always-on filter.
func NewTableRef(kind trace.TableKind, columns []Column) TableRef {
	return TableRef{Kind: kind, Columns: columns, Filter: Always()}
}

// NewTableRefFiltered builds a reference selecting only rows where filter is
// non-zero.
func NewTableRefFiltered(kind trace.TableKind, columns []Column, filter Column) TableRef {
	return TableRef{Kind: kind, Columns: columns, Filter: filter}
}

// CrossTableLookup asserts that the multiset of filtered tuples of the
// looking tables equals the multiset of tuples of the looked table.
type CrossTableLookup struct {
	Name     string
	Lookings []TableRef
	Looked   TableRef
	Style    Style
}

// NewCrossTableLookup panics if any looking side exposes a different number
// of columns than the looked side; mismatched tuples can never combine to
// comparable values.
func NewCrossTableLookup(name string, lookings []TableRef, looked TableRef, style Style) CrossTableLookup {
	for _, l := range lookings {
		if len(l.Columns) != len(looked.Columns) {
			panic(fmt.Sprintf("ctl: lookup %q: looking table %s exposes %d columns, looked table %s exposes %d",
				name, l.Kind, len(l.Columns), looked.Kind, len(looked.Columns)))
		}
	}
	return CrossTableLookup{Name: name, Lookings: lookings, Looked: looked, Style: style}
}
