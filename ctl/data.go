package ctl

import (
	"fmt"

	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/consensys/starkvm/trace"
)

// ZData is the running column a lookup adds to one table: partial products
// under StyleGrandProduct, partial sums under StyleLogUp. Final is the value
// on the last row, the only value the cross-table equation consumes.
type ZData struct {
	Kind  trace.TableKind
	Z     []goldilocks.Element
	Final goldilocks.Element
}

// LookupZ groups the running columns of one lookup under one challenge.
type LookupZ struct {
	Lookings []ZData
	Looked   ZData
}

// LookupData holds, for one lookup, its running columns under every
// challenge.
type LookupData struct {
	Lookup      *CrossTableLookup
	ByChallenge [NumChallenges]LookupZ
}

// BuildLookupData computes the running columns of a lookup over finished
// trace tables. The tables are only read.
func BuildLookupData(tables *trace.Set, lookup *CrossTableLookup, set ChallengeSet) (LookupData, error) {
	data := LookupData{Lookup: lookup}
	for i := range set.Challenges {
		ch := &set.Challenges[i]

		lookings := make([]ZData, len(lookup.Lookings))
		for j := range lookup.Lookings {
			z, err := buildZ(tables, &lookup.Lookings[j], ch, lookup.Style, false)
			if err != nil {
				return LookupData{}, fmt.Errorf("lookup %q: %w", lookup.Name, err)
			}
			lookings[j] = z
		}
		looked, err := buildZ(tables, &lookup.Looked, ch, lookup.Style, true)
		if err != nil {
			return LookupData{}, fmt.Errorf("lookup %q: %w", lookup.Name, err)
		}
		data.ByChallenge[i] = LookupZ{Lookings: lookings, Looked: looked}
	}
	return data, nil
}

func buildZ(tables *trace.Set, ref *TableRef, ch *Challenge, style Style, looked bool) (ZData, error) {
	tbl := tables[ref.Kind]
	if tbl == nil {
		return ZData{}, fmt.Errorf("table %s not generated", ref.Kind)
	}
	n := tbl.NumRows()

	filters := make([]goldilocks.Element, n)
	combined := make([]goldilocks.Element, n)
	values := make([]goldilocks.Element, len(ref.Columns))
	for row := 0; row < n; row++ {
		filters[row] = ref.Filter.EvalTable(tbl, row)
		for c := range ref.Columns {
			values[c] = ref.Columns[c].EvalTable(tbl, row)
		}
		combined[row] = ch.Combine(values)
	}

	// multiplicities beyond one only make sense on the looked side of a
	// logup argument
	if style == StyleGrandProduct || !looked {
		for row := range filters {
			if !filters[row].IsZero() && !isOne(&filters[row]) {
				return ZData{}, fmt.Errorf("table %s row %d: filter is %s, want 0 or 1",
					ref.Kind, row, filters[row].String())
			}
		}
	}

	z := ZData{Kind: ref.Kind, Z: make([]goldilocks.Element, n)}
	switch style {
	case StyleGrandProduct:
		acc := one()
		for row := 0; row < n; row++ {
			if !filters[row].IsZero() {
				acc.Mul(&acc, &combined[row])
			}
			z.Z[row] = acc
		}
	case StyleLogUp:
		inverses := goldilocks.BatchInvert(combined)
		var acc, t goldilocks.Element
		for row := 0; row < n; row++ {
			t.Mul(&filters[row], &inverses[row])
			acc.Add(&acc, &t)
			z.Z[row] = acc
		}
	default:
		return ZData{}, fmt.Errorf("unknown lookup style %s", style)
	}
	z.Final = z.Z[n-1]
	return z, nil
}

// VerifyLookupData checks the cross-table equation of one lookup: under every
// challenge, the looking finals must fold to the looked final, by product for
// grand products and by sum for logup.
func VerifyLookupData(data *LookupData) error {
	for i := range data.ByChallenge {
		lz := &data.ByChallenge[i]
		var acc goldilocks.Element
		switch data.Lookup.Style {
		case StyleGrandProduct:
			acc.SetOne()
			for j := range lz.Lookings {
				acc.Mul(&acc, &lz.Lookings[j].Final)
			}
		case StyleLogUp:
			for j := range lz.Lookings {
				acc.Add(&acc, &lz.Lookings[j].Final)
			}
		default:
			return fmt.Errorf("ctl: unknown lookup style %s", data.Lookup.Style)
		}
		if !acc.Equal(&lz.Looked.Final) {
			return fmt.Errorf("ctl: lookup %q challenge %d: looking tables fold to %s, looked table %s has %s",
				data.Lookup.Name, i, acc.String(), lz.Looked.Kind, lz.Looked.Final.String())
		}
	}
	return nil
}

// BuildAll computes running columns for every lookup of a schema.
func BuildAll(tables *trace.Set, lookups []CrossTableLookup, set ChallengeSet) ([]LookupData, error) {
	out := make([]LookupData, len(lookups))
	for i := range lookups {
		data, err := BuildLookupData(tables, &lookups[i], set)
		if err != nil {
			return nil, err
		}
		out[i] = data
	}
	return out, nil
}

// VerifyAll verifies the cross-table equation of every lookup.
func VerifyAll(data []LookupData) error {
	for i := range data {
		if err := VerifyLookupData(&data[i]); err != nil {
			return err
		}
	}
	return nil
}

func isOne(e *goldilocks.Element) bool {
	o := one()
	return e.Equal(&o)
}
