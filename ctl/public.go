package ctl

import (
	"fmt"

	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/consensys/starkvm/trace"
)

// PublicSubTable discloses the filtered rows of one table as public values
// and binds the disclosure to the trace with a logup-style running sum. The
// verifier recomputes the sum from the disclosed rows alone; agreement with
// the in-trace sum proves the disclosure is exactly the filtered rows.
type PublicSubTable struct {
	Name string
	Ref  TableRef
}

// NewPublicSubTable panics on an empty column tuple; a sub-table that
// discloses nothing binds nothing.
func NewPublicSubTable(name string, ref TableRef) PublicSubTable {
	if len(ref.Columns) == 0 {
		panic(fmt.Sprintf("ctl: public sub-table %q discloses no columns", name))
	}
	return PublicSubTable{Name: name, Ref: ref}
}

// Values extracts the disclosed rows: the column tuple evaluated at every row
// whose filter is non-zero, in trace order.
func (p *PublicSubTable) Values(tables *trace.Set) ([][]goldilocks.Element, error) {
	tbl := tables[p.Ref.Kind]
	if tbl == nil {
		return nil, fmt.Errorf("ctl: public sub-table %q: table %s not generated", p.Name, p.Ref.Kind)
	}

	var out [][]goldilocks.Element
	for row := 0; row < tbl.NumRows(); row++ {
		filter := p.Ref.Filter.EvalTable(tbl, row)
		if filter.IsZero() {
			continue
		}
		if !isOne(&filter) {
			return nil, fmt.Errorf("%w: public sub-table %q table %s row %d evaluates to %s",
				ErrNonBinaryFilter, p.Name, p.Ref.Kind, row, filter.String())
		}
		values := make([]goldilocks.Element, len(p.Ref.Columns))
		for c := range p.Ref.Columns {
			values[c] = p.Ref.Columns[c].EvalTable(tbl, row)
		}
		out = append(out, values)
	}
	return out, nil
}

// ZData computes the in-trace running sum Σ filter/combine over the table,
// one column per challenge.
func (p *PublicSubTable) ZData(tables *trace.Set, set ChallengeSet) ([NumChallenges]ZData, error) {
	var out [NumChallenges]ZData
	for i := range set.Challenges {
		z, err := buildZ(tables, &p.Ref, &set.Challenges[i], StyleLogUp, false)
		if err != nil {
			return out, fmt.Errorf("ctl: public sub-table %q: %w", p.Name, err)
		}
		out[i] = z
	}
	return out, nil
}

// ReduceValues folds disclosed rows the way the verifier does: the sum of
// 1/combine over every disclosed row.
func ReduceValues(values [][]goldilocks.Element, ch *Challenge) goldilocks.Element {
	combined := make([]goldilocks.Element, len(values))
	for i := range values {
		combined[i] = ch.Combine(values[i])
	}
	inverses := goldilocks.BatchInvert(combined)

	var acc goldilocks.Element
	for i := range inverses {
		acc.Add(&acc, &inverses[i])
	}
	return acc
}

// VerifyPublicSubTable checks that the disclosed rows and the in-trace
// running sums agree under every challenge.
func VerifyPublicSubTable(p *PublicSubTable, values [][]goldilocks.Element, zs [NumChallenges]ZData, set ChallengeSet) error {
	for i := range set.Challenges {
		reduced := ReduceValues(values, &set.Challenges[i])
		if !reduced.Equal(&zs[i].Final) {
			return fmt.Errorf("ctl: public sub-table %q challenge %d: disclosed rows fold to %s, trace sum is %s",
				p.Name, i, reduced.String(), zs[i].Final.String())
		}
	}
	return nil
}
