// Package ctl implements cross-table lookups between execution trace tables.
//
// A lookup relates rows of one or more looking tables to rows of a single
// looked table. Each side exposes its rows through Column linear combinations
// so that a tuple of columns can be folded, under random challenges, into a
// single field element per row. The lookup argument then reduces each table
// to one running column whose final values must agree across tables.
package ctl

import (
	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/consensys/starkvm/trace"
)

type term struct {
	col   int
	coeff goldilocks.Element
}

// Column is a linear combination of table columns, possibly referring to both
// the local row and the next row, plus a constant.
type Column struct {
	lv       []term
	nv       []term
	constant goldilocks.Element
}

// Single selects column i of the local row.
func Single(i int) Column {
	return Column{lv: []term{{col: i, coeff: one()}}}
}

// SingleNext selects column i of the next row.
func SingleNext(i int) Column {
	return Column{nv: []term{{col: i, coeff: one()}}}
}

// Constant is a column that evaluates to v on every row.
func Constant(v uint64) Column {
	var c Column
	c.constant.SetUint64(v)
	return c
}

// Always evaluates to one on every row; it is the filter of a lookup whose
// every row participates.
func Always() Column {
	return Constant(1)
}

// Sum adds the given local columns.
func Sum(cols ...int) Column {
	c := Column{lv: make([]term, len(cols))}
	for i, col := range cols {
		c.lv[i] = term{col: col, coeff: one()}
	}
	return c
}

// Singles maps each column index to its Single column.
func Singles(cols ...int) []Column {
	out := make([]Column, len(cols))
	for i, col := range cols {
		out[i] = Single(col)
	}
	return out
}

// ReduceWithPowers folds the given local columns with ascending powers of
// base: cols[0] + cols[1]*base + cols[2]*base^2 + ...
func ReduceWithPowers(cols []int, base uint64) Column {
	c := Column{lv: make([]term, len(cols))}
	var pow goldilocks.Element
	pow.SetOne()
	var b goldilocks.Element
	b.SetUint64(base)
	for i, col := range cols {
		c.lv[i] = term{col: col, coeff: pow}
		pow.Mul(&pow, &b)
	}
	return c
}

// Linear combines local columns with explicit coefficients. It panics when
// the two slices disagree in length.
func Linear(cols []int, coeffs []uint64) Column {
	if len(cols) != len(coeffs) {
		panic("ctl: Linear: mismatched columns and coefficients")
	}
	c := Column{lv: make([]term, len(cols))}
	for i, col := range cols {
		c.lv[i].col = col
		c.lv[i].coeff.SetUint64(coeffs[i])
	}
	return c
}

// Diff is next minus local of the same column; it exposes per-row deltas such
// as clock differences to a range check.
func Diff(col int) Column {
	var neg goldilocks.Element
	neg.SetOne()
	neg.Neg(&neg)
	return Column{
		nv: []term{{col: col, coeff: one()}},
		lv: []term{{col: col, coeff: neg}},
	}
}

// Scaled multiplies column i of the local row by coeff.
func Scaled(i int, coeff uint64) Column {
	var c goldilocks.Element
	c.SetUint64(coeff)
	return Column{lv: []term{{col: i, coeff: c}}}
}

// Add returns the sum of two columns.
func Add(a, b Column) Column {
	var c Column
	c.lv = append(append([]term{}, a.lv...), b.lv...)
	c.nv = append(append([]term{}, a.nv...), b.nv...)
	c.constant.Add(&a.constant, &b.constant)
	return c
}

// WithOffset adds a constant to the column.
func (c Column) WithOffset(v uint64) Column {
	var off goldilocks.Element
	off.SetUint64(v)
	out := c
	out.constant.Add(&c.constant, &off)
	return out
}

// Eval evaluates the combination over an explicit pair of rows.
func (c Column) Eval(local, next []goldilocks.Element) goldilocks.Element {
	acc := c.constant
	var t goldilocks.Element
	for _, tm := range c.lv {
		t.Mul(&local[tm.col], &tm.coeff)
		acc.Add(&acc, &t)
	}
	for _, tm := range c.nv {
		t.Mul(&next[tm.col], &tm.coeff)
		acc.Add(&acc, &t)
	}
	return acc
}

// EvalTable evaluates the combination at the given row of a table. Next-row
// terms wrap around so the last row pairs with the first, matching the
// cyclic evaluation domain.
func (c Column) EvalTable(tbl *trace.Table, row int) goldilocks.Element {
	local := tbl.Row(row)
	next := tbl.Row((row + 1) % tbl.NumRows())
	return c.Eval(local, next)
}

func one() goldilocks.Element {
	var e goldilocks.Element
	e.SetOne()
	return e
}
