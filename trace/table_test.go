package trace

import (
	"bytes"
	"testing"

	"github.com/consensys/gnark-crypto/field/goldilocks"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(vs ...uint64) []goldilocks.Element {
	r := make([]goldilocks.Element, len(vs))
	for i, v := range vs {
		r[i].SetUint64(v)
	}
	return r
}

func TestNewTable(t *testing.T) {
	assert := require.New(t)

	rows := make([][]goldilocks.Element, MinLength)
	for i := range rows {
		rows[i] = row(uint64(i), uint64(i*2))
	}
	tbl := New(KindXor, 2, 3, rows)
	assert.Equal(KindXor, tbl.Kind())
	assert.Equal(2, tbl.Width())
	assert.Equal(MinLength, tbl.NumRows())
	assert.Equal(3, tbl.Len())
	at := tbl.At(2, 1)
	assert.Equal(uint64(4), at.Bits()[0])

	assert.Panics(func() { New(KindXor, 2, 3, rows[:5]) }, "non power of two row count")
	assert.Panics(func() { New(KindXor, 2, 9, rows) }, "length larger than rows")
	bad := append(append([][]goldilocks.Element{}, rows[:MinLength-1]...), row(1))
	assert.Panics(func() { New(KindXor, 2, 3, bad) }, "inconsistent width")
}

func TestPadRows(t *testing.T) {
	type view struct{ a, b uint64 }

	rows := []view{{1, 2}, {3, 4}, {5, 6}}
	padded := PadRows(rows, func(last view) view {
		last.b = 0
		return last
	})
	require.Len(t, padded, MinLength)
	assert.Equal(t, view{1, 2}, padded[0])
	assert.Equal(t, view{5, 6}, padded[2])
	for i := 3; i < MinLength; i++ {
		assert.Equal(t, view{5, 0}, padded[i], "padding duplicates last row through pad fn")
	}

	// already power of two above the minimum stays as is
	big := make([]view, 16)
	for i := range big {
		big[i] = view{uint64(i), uint64(i)}
	}
	assert.Len(t, PadRows(big, func(last view) view { return last }), 16)

	// empty input pads from the zero view
	empty := PadRows(nil, func(last view) view { return last })
	require.Len(t, empty, MinLength)
	assert.Equal(t, view{}, empty[0])
}

func TestTableDigest(t *testing.T) {
	rows := make([][]goldilocks.Element, MinLength)
	for i := range rows {
		rows[i] = row(uint64(i))
	}
	a := New(KindCpu, 1, MinLength, rows)
	b := New(KindCpu, 1, MinLength, rows)
	assert.Equal(t, a.Digest(), b.Digest())

	mutated := make([][]goldilocks.Element, MinLength)
	copy(mutated, rows)
	mutated[3] = row(42)
	c := New(KindCpu, 1, MinLength, mutated)
	assert.NotEqual(t, a.Digest(), c.Digest())

	d := New(KindProgram, 1, MinLength, rows)
	assert.NotEqual(t, a.Digest(), d.Digest(), "digest binds the table kind")
}

func TestTableSerialization(t *testing.T) {
	assert := require.New(t)

	rows := make([][]goldilocks.Element, MinLength)
	for i := range rows {
		rows[i] = row(uint64(i), uint64(i)<<32, ^uint64(0)>>1)
	}
	tbl := New(KindMemory, 3, 5, rows)

	var buf bytes.Buffer
	written, err := tbl.WriteTo(&buf)
	assert.NoError(err)
	assert.Equal(int64(buf.Len()), written)

	var back Table
	read, err := back.ReadFrom(&buf)
	assert.NoError(err)
	assert.Equal(written, read)

	assert.Equal(tbl.Kind(), back.Kind())
	assert.Equal(tbl.Width(), back.Width())
	assert.Equal(tbl.Len(), back.Len())
	assert.Equal(tbl.Digest(), back.Digest())
	for row := 0; row < tbl.NumRows(); row++ {
		if diff := cmp.Diff(tbl.Row(row), back.Row(row)); diff != "" {
			t.Fatalf("row %d mismatch (-want +got):\n%s", row, diff)
		}
	}
}

func TestReadFromRejectsMalformedShape(t *testing.T) {
	assert := require.New(t)

	encode := func(d tableData) *bytes.Buffer {
		enc, err := cbor.CoreDetEncOptions().EncMode()
		assert.NoError(err)
		var buf bytes.Buffer
		assert.NoError(enc.NewEncoder(&buf).Encode(d))
		return &buf
	}
	zeros := func(n, width int) [][]uint64 {
		out := make([][]uint64, n)
		for i := range out {
			out[i] = make([]uint64, width)
		}
		return out
	}

	cases := []struct {
		name string
		data tableData
	}{
		{"below the minimum", tableData{Kind: uint8(KindXor), Width: 2, Length: 3, Rows: zeros(3, 2)}},
		{"not a power of two", tableData{Kind: uint8(KindXor), Width: 2, Length: 3, Rows: zeros(12, 2)}},
		{"length exceeds rows", tableData{Kind: uint8(KindXor), Width: 2, Length: 9, Rows: zeros(8, 2)}},
		{"unknown kind", tableData{Kind: 200, Width: 2, Length: 3, Rows: zeros(8, 2)}},
		{"non-positive width", tableData{Kind: uint8(KindXor), Width: 0, Length: 3, Rows: zeros(8, 0)}},
		{"ragged row", tableData{Kind: uint8(KindXor), Width: 2, Length: 3, Rows: append(zeros(7, 2), make([]uint64, 3))}},
	}
	for _, tc := range cases {
		var back Table
		_, err := back.ReadFrom(encode(tc.data))
		assert.Error(err, tc.name)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "cpu", KindCpu.String())
	assert.Equal(t, "rangecheck_u8", KindRangeCheckU8.String())
	for _, k := range AllKinds() {
		assert.NotEmpty(t, k.String())
	}
}
