// Package columns makes trace-table row indexing simpler by providing an
// abstraction for column-by-name access instead of direct number indexing.
//
// A column view is an ordinary struct whose exported fields all have the
// same scalar type (possibly nested in sub-structs and fixed-size arrays,
// to group columns by the logic they handle). The functions here convert
// between such a view and the flat column slice the prover operates on,
// walking fields in declaration order so that a field's position in the
// view is exactly its column index.
package columns

import (
	"fmt"
	"reflect"
	"strings"
)

// walk visits every leaf of type leaf under v, in field declaration order.
func walk(v reflect.Value, leaf reflect.Type, fn func(reflect.Value)) {
	if v.Type() == leaf {
		fn(v)
		return
	}
	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			walk(v.Field(i), leaf, fn)
		}
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			walk(v.Index(i), leaf, fn)
		}
	default:
		panic(fmt.Sprintf("columns: field of type %s in view, want %s", v.Type(), leaf))
	}
}

// Size returns the number of columns of the view Row, that is, its number
// of E-typed leaves.
func Size[Row, E any]() int {
	var r Row
	n := 0
	walk(reflect.ValueOf(&r).Elem(), reflect.TypeFor[E](), func(reflect.Value) { n++ })
	return n
}

// Flatten projects the view onto its flat column representation.
func Flatten[Row, E any](r *Row) []E {
	out := make([]E, 0, Size[Row, E]())
	walk(reflect.ValueOf(r).Elem(), reflect.TypeFor[E](), func(v reflect.Value) {
		out = append(out, v.Interface().(E))
	})
	return out
}

// Unflatten is the inverse of Flatten. It panics if flat does not have
// exactly Size[Row, E]() entries; a wrong length is a programmer error,
// never a data error.
func Unflatten[Row, E any](flat []E) Row {
	var r Row
	if n := Size[Row, E](); len(flat) != n {
		panic(fmt.Sprintf("columns: view %s has %d columns, got %d values",
			reflect.TypeFor[Row](), n, len(flat)))
	}
	i := 0
	walk(reflect.ValueOf(&r).Elem(), reflect.TypeFor[E](), func(v reflect.Value) {
		v.Set(reflect.ValueOf(flat[i]))
		i++
	})
	return r
}

// Map applies f to every column of in and writes the results into out,
// preserving positions. in and out must be two instantiations of the same
// view with leaf types A and B; Map panics if their shapes differ. The
// usual use is casting a view of machine integers into a view of field
// elements.
func Map[RowA, RowB, A, B any](in *RowA, out *RowB, f func(A) B) {
	flat := Flatten[RowA, A](in)
	if n := Size[RowB, B](); len(flat) != n {
		panic(fmt.Sprintf("columns: cannot map %s (%d columns) onto %s (%d columns)",
			reflect.TypeFor[RowA](), len(flat), reflect.TypeFor[RowB](), n))
	}
	i := 0
	walk(reflect.ValueOf(out).Elem(), reflect.TypeFor[B](), func(v reflect.Value) {
		v.Set(reflect.ValueOf(f(flat[i])))
		i++
	})
}

// Indexed returns the canonical index map of the view: the instantiation of
// Row with int leaves where every field holds its own column index. It is
// the only supported way to name a column when building symbolic references
// for constraints and lookups.
func Indexed[Row any]() Row {
	var r Row
	i := 0
	walk(reflect.ValueOf(&r).Elem(), reflect.TypeFor[int](), func(v reflect.Value) {
		v.SetInt(int64(i))
		i++
	})
	return r
}

// Names returns the dotted field path of every column, in column order.
// Handy for debugging and for labelling serialized tables.
func Names[Row, E any]() []string {
	var r Row
	var out []string
	leaf := reflect.TypeFor[E]()
	var visit func(v reflect.Value, path string)
	visit = func(v reflect.Value, path string) {
		if v.Type() == leaf {
			out = append(out, path)
			return
		}
		switch v.Kind() {
		case reflect.Struct:
			t := v.Type()
			for i := 0; i < v.NumField(); i++ {
				visit(v.Field(i), path+"."+t.Field(i).Name)
			}
		case reflect.Array:
			for i := 0; i < v.Len(); i++ {
				visit(v.Index(i), fmt.Sprintf("%s[%d]", path, i))
			}
		default:
			panic(fmt.Sprintf("columns: field of type %s in view, want %s", v.Type(), leaf))
		}
	}
	root := reflect.TypeFor[Row]().Name()
	if i := strings.IndexByte(root, '['); i >= 0 {
		// strip the type argument of generic views
		root = root[:i]
	}
	visit(reflect.ValueOf(&r).Elem(), root)
	return out
}
