package ctl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/consensys/starkvm/internal/utils"
	"github.com/consensys/starkvm/trace"
)

var (
	// ErrNonBinaryFilter reports a looking-side filter that evaluated to
	// something other than 0 or 1.
	ErrNonBinaryFilter = errors.New("ctl: non-binary filter")
	// ErrInconsistentTables reports a lookup whose looking and looked
	// multisets differ.
	ErrInconsistentTables = errors.New("ctl: inconsistent table rows")
)

// CheckLookup compares the two sides of a lookup directly, as multisets of
// row tuples, without challenges. It catches mis-generated traces before the
// randomized argument hides them behind a near-certain but unhelpful final
// value mismatch, so the orchestrator runs it in debug builds only.
func CheckLookup(tables *trace.Set, lookup *CrossTableLookup) error {
	looking := make(map[string]int64)
	for i := range lookup.Lookings {
		if err := collect(tables, &lookup.Lookings[i], looking, false); err != nil {
			return fmt.Errorf("lookup %q: %w", lookup.Name, err)
		}
	}

	looked := make(map[string]int64)
	allowMultiplicity := lookup.Style == StyleLogUp
	if err := collect(tables, &lookup.Looked, looked, allowMultiplicity); err != nil {
		return fmt.Errorf("lookup %q: %w", lookup.Name, err)
	}

	for key, n := range looking {
		if looked[key] != n {
			return fmt.Errorf("%w: lookup %q: tuple [%s] appears %d times on the looking side, %d on the looked side",
				ErrInconsistentTables, lookup.Name, key, n, looked[key])
		}
	}
	for key, n := range looked {
		if _, ok := looking[key]; !ok {
			return fmt.Errorf("%w: lookup %q: tuple [%s] appears %d times on the looked side only",
				ErrInconsistentTables, lookup.Name, key, n)
		}
	}
	return nil
}

func collect(tables *trace.Set, ref *TableRef, into map[string]int64, allowMultiplicity bool) error {
	tbl := tables[ref.Kind]
	if tbl == nil {
		return fmt.Errorf("table %s not generated", ref.Kind)
	}

	values := make([]goldilocks.Element, len(ref.Columns))
	for row := 0; row < tbl.NumRows(); row++ {
		filter := ref.Filter.EvalTable(tbl, row)
		if filter.IsZero() {
			continue
		}
		count := int64(1)
		if allowMultiplicity {
			count = int64(utils.ToU64(filter))
		} else if !isOne(&filter) {
			return fmt.Errorf("%w: table %s row %d evaluates to %s",
				ErrNonBinaryFilter, ref.Kind, row, filter.String())
		}
		for c := range ref.Columns {
			values[c] = ref.Columns[c].EvalTable(tbl, row)
		}
		into[tupleKey(values)] += count
	}
	return nil
}

func tupleKey(values []goldilocks.Element) string {
	parts := make([]string, len(values))
	for i := range values {
		parts[i] = fmt.Sprintf("%d", utils.ToU64(values[i]))
	}
	return strings.Join(parts, " ")
}

// CheckAll runs the direct multiset check over every lookup of a schema.
func CheckAll(tables *trace.Set, lookups []CrossTableLookup) error {
	for i := range lookups {
		if err := CheckLookup(tables, &lookups[i]); err != nil {
			return err
		}
	}
	return nil
}
