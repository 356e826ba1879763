// Package trace defines the trace-table data model: a matrix of Goldilocks
// field elements with a fixed column count and a power-of-two row count.
// Tables are created once per proof by their generator and never mutated
// afterwards; all cross-stage communication happens through finished tables.
package trace

import (
	"encoding/binary"
	"fmt"

	"github.com/consensys/gnark-crypto/field/goldilocks"
	"golang.org/x/crypto/blake2b"

	"github.com/consensys/starkvm/internal/utils"
)

// MinLength is the minimum padded row count of any table. Keeping a floor
// avoids degenerate FFT domains downstream.
const MinLength = 8

// Table is one finished trace table. The row count is always a power of two
// and at least MinLength; rows beyond Len() are padding.
type Table struct {
	kind   TableKind
	width  int
	length int
	rows   [][]goldilocks.Element
}

// New wraps already padded rows into a Table. length is the number of rows
// before padding. It panics if the row count is not a padded power of two
// or if any row does not have exactly width columns; both are programmer
// errors in the calling generator.
func New(kind TableKind, width, length int, rows [][]goldilocks.Element) *Table {
	n := len(rows)
	if n < MinLength || n&(n-1) != 0 {
		panic(fmt.Sprintf("trace: %s table has %d rows, want a power of two >= %d", kind, n, MinLength))
	}
	if length > n {
		panic(fmt.Sprintf("trace: %s table claims %d real rows out of %d", kind, length, n))
	}
	for i, row := range rows {
		if len(row) != width {
			panic(fmt.Sprintf("trace: %s table row %d has %d columns, want %d", kind, i, len(row), width))
		}
	}
	return &Table{kind: kind, width: width, length: length, rows: rows}
}

func (t *Table) Kind() TableKind { return t.kind }
func (t *Table) Width() int      { return t.width }

// NumRows returns the padded (power of two) row count.
func (t *Table) NumRows() int { return len(t.rows) }

// Len returns the number of rows before padding.
func (t *Table) Len() int { return t.length }

// Row returns the i-th row. The returned slice aliases the table and must
// not be written to.
func (t *Table) Row(i int) []goldilocks.Element { return t.rows[i] }

// At returns the element at row i, column j.
func (t *Table) At(i, j int) goldilocks.Element { return t.rows[i][j] }

// Digest returns the committing digest of the table, used to bind the
// challenge transcript to the table content. The full pipeline commits with
// the polynomial-commitment backend instead; the blake2b digest stands in
// for it at this layer and keeps challenge sampling after commitment.
func (t *Table) Digest() [32]byte {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err) // keyless blake2b cannot fail
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(t.kind)<<32|uint64(t.width))
	h.Write(buf[:])
	for _, row := range t.rows {
		for i := range row {
			binary.LittleEndian.PutUint64(buf[:], utils.ToU64(row[i]))
			h.Write(buf[:])
		}
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// PadRows pads a generator's row list to max(next power of two, MinLength)
// rows. pad receives the last real row (the zero view when rows is empty)
// and returns the padding row; generators zero their selector columns there
// and keep everything else, so transition constraints stay satisfiable
// across the table boundary.
func PadRows[V any](rows []V, pad func(last V) V) []V {
	target := utils.NextPowerOfTwo(len(rows))
	if target < MinLength {
		target = MinLength
	}
	var last V
	if len(rows) > 0 {
		last = rows[len(rows)-1]
	}
	padRow := pad(last)
	for len(rows) < target {
		rows = append(rows, padRow)
	}
	return rows
}
