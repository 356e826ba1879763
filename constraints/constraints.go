// Package constraints defines the contract between trace tables and the
// constraint system. A table describes its polynomial identities by feeding
// expressions that must vanish into a Consumer; the package evaluates them
// over a finished trace and reports every row where one fails to vanish.
package constraints

import (
	"fmt"

	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/consensys/starkvm/trace"
)

// Evaluator is implemented by every table kind. Eval is called once per row
// pair; expressions it registers on the Consumer must evaluate to zero
// wherever their scope applies.
type Evaluator interface {
	Eval(c *Consumer, local, next []goldilocks.Element)
}

// Violation records one constraint that failed to vanish on one row.
type Violation struct {
	Table trace.TableKind
	Name  string
	Row   int
	Value goldilocks.Element
}

func (v Violation) Error() string {
	return fmt.Sprintf("constraints: table %s: %q evaluates to %s at row %d",
		v.Table, v.Name, v.Value.String(), v.Row)
}

// Consumer collects constraint evaluations for a single row pair. The zero
// value is not usable; Check drives it.
type Consumer struct {
	table      trace.TableKind
	row        int
	numRows    int
	violations []Violation
}

func (c *Consumer) record(name string, v goldilocks.Element) {
	c.violations = append(c.violations, Violation{Table: c.table, Name: name, Row: c.row, Value: v})
}

// Local registers an expression that must vanish on every row.
func (c *Consumer) Local(name string, v goldilocks.Element) {
	if !v.IsZero() {
		c.record(name, v)
	}
}

// Transition registers an expression over (local, next) that must vanish on
// every row pair except the wrap from the last row back to the first.
func (c *Consumer) Transition(name string, v goldilocks.Element) {
	if c.row == c.numRows-1 {
		return
	}
	if !v.IsZero() {
		c.record(name, v)
	}
}

// FirstRow registers an expression that must vanish on the first row only.
func (c *Consumer) FirstRow(name string, v goldilocks.Element) {
	if c.row != 0 {
		return
	}
	if !v.IsZero() {
		c.record(name, v)
	}
}

// LastRow registers an expression that must vanish on the last row only.
func (c *Consumer) LastRow(name string, v goldilocks.Element) {
	if c.row != c.numRows-1 {
		return
	}
	if !v.IsZero() {
		c.record(name, v)
	}
}

// Check evaluates ev over every row pair of tbl, next rows wrapping
// cyclically, and returns the first violation found, nil if all constraints
// vanish.
func Check(tbl *trace.Table, ev Evaluator) error {
	violations := CheckAll(tbl, ev)
	if len(violations) == 0 {
		return nil
	}
	return violations[0]
}

// CheckAll is Check but returns every violation; test helpers use it to
// report all failing rows at once.
func CheckAll(tbl *trace.Table, ev Evaluator) []Violation {
	c := &Consumer{table: tbl.Kind(), numRows: tbl.NumRows()}
	for row := 0; row < c.numRows; row++ {
		c.row = row
		local := tbl.Row(row)
		next := tbl.Row((row + 1) % c.numRows)
		ev.Eval(c, local, next)
	}
	return c.violations
}
