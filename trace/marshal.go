package trace

import (
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/field/goldilocks"
	"github.com/fxamacker/cbor/v2"

	"github.com/consensys/starkvm/internal/utils"
)

// serialized wire form of a table; values are canonical uint64.
type tableData struct {
	Kind   uint8      `cbor:"1,keyasint"`
	Width  int        `cbor:"2,keyasint"`
	Length int        `cbor:"3,keyasint"`
	Rows   [][]uint64 `cbor:"4,keyasint"`
}

// WriteTo serializes the table in CBOR so it can be handed to an external
// commitment backend out of process.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	data := tableData{
		Kind:   uint8(t.kind),
		Width:  t.width,
		Length: t.length,
		Rows:   make([][]uint64, len(t.rows)),
	}
	for i, row := range t.rows {
		data.Rows[i] = make([]uint64, len(row))
		for j := range row {
			data.Rows[i][j] = utils.ToU64(row[j])
		}
	}

	// encode our object
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return 0, err
	}

	cw := &countingWriter{w: w}
	if err := enc.NewEncoder(cw).Encode(data); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// ReadFrom deserializes a table written by WriteTo.
func (t *Table) ReadFrom(r io.Reader) (int64, error) {
	dm, err := cbor.DecOptions{MaxArrayElements: 1 << 26}.DecMode()
	if err != nil {
		return 0, err
	}

	cr := &countingReader{r: r}
	var data tableData
	if err := dm.NewDecoder(cr).Decode(&data); err != nil {
		return cr.n, err
	}
	if int(data.Kind) >= NumTableKinds {
		return cr.n, fmt.Errorf("trace: unknown table kind %d", data.Kind)
	}
	if data.Width <= 0 {
		return cr.n, fmt.Errorf("trace: invalid width %d", data.Width)
	}
	// the stream is untrusted input, so the shape invariants New panics on
	// are errors here
	n := len(data.Rows)
	if n < MinLength || n&(n-1) != 0 {
		return cr.n, fmt.Errorf("trace: %d rows, want a power of two >= %d", n, MinLength)
	}
	if data.Length < 0 || data.Length > n {
		return cr.n, fmt.Errorf("trace: %d real rows claimed out of %d", data.Length, n)
	}

	t.kind = TableKind(data.Kind)
	t.width = data.Width
	t.length = data.Length
	t.rows = make([][]goldilocks.Element, len(data.Rows))
	for i, row := range data.Rows {
		if len(row) != data.Width {
			return cr.n, fmt.Errorf("trace: row %d has %d columns, want %d", i, len(row), data.Width)
		}
		t.rows[i] = make([]goldilocks.Element, len(row))
		for j, v := range row {
			t.rows[i][j].SetUint64(v)
		}
	}
	return cr.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}
