package columns

import (
	"testing"

	"github.com/consensys/gnark-crypto/field/goldilocks"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ops[T any] struct {
	IsStore T
	IsLoad  T
}

type memView[T any] struct {
	Clk   T
	Ops   ops[T]
	Addrs [2]T
	Limbs [2]T
}

func TestSize(t *testing.T) {
	assert.Equal(t, 7, Size[memView[goldilocks.Element], goldilocks.Element]())
	assert.Equal(t, 7, Size[memView[int], int]())
}

func TestIndexed(t *testing.T) {
	m := Indexed[memView[int]]()
	assert.Equal(t, 0, m.Clk)
	assert.Equal(t, 1, m.Ops.IsStore)
	assert.Equal(t, 2, m.Ops.IsLoad)
	assert.Equal(t, 3, m.Addrs[0])
	assert.Equal(t, 4, m.Addrs[1])
	assert.Equal(t, 5, m.Limbs[0])
	assert.Equal(t, 6, m.Limbs[1])
}

func TestFlattenIndexAgreement(t *testing.T) {
	// a field's index in the index map is its offset in the flat array
	var v memView[goldilocks.Element]
	v.Limbs[1].SetUint64(42)
	flat := Flatten[memView[goldilocks.Element], goldilocks.Element](&v)
	m := Indexed[memView[int]]()
	assert.True(t, flat[m.Limbs[1]].Equal(&v.Limbs[1]))
}

func TestRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("Unflatten(Flatten(v)) == v", prop.ForAll(
		func(raw []uint64) bool {
			flat := make([]goldilocks.Element, len(raw))
			for i, x := range raw {
				flat[i].SetUint64(x)
			}
			v := Unflatten[memView[goldilocks.Element]](flat)
			back := Flatten[memView[goldilocks.Element], goldilocks.Element](&v)
			for i := range back {
				if !back[i].Equal(&flat[i]) {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(7, gen.UInt64()),
	))

	properties.TestingRun(t)
}

func TestUnflattenWrongLength(t *testing.T) {
	require.Panics(t, func() {
		Unflatten[memView[goldilocks.Element]](make([]goldilocks.Element, 3))
	})
}

func TestMap(t *testing.T) {
	in := memView[uint32]{Clk: 7, Limbs: [2]uint32{0xff, 0x01}}
	var out memView[goldilocks.Element]
	Map(&in, &out, func(v uint32) goldilocks.Element {
		return goldilocks.NewElement(uint64(v))
	})
	require.Equal(t, uint64(7), out.Clk.Bits()[0])
	require.Equal(t, uint64(0xff), out.Limbs[0].Bits()[0])
}

func TestNames(t *testing.T) {
	names := Names[memView[int], int]()
	require.Len(t, names, 7)
	assert.Equal(t, "memView.Clk", names[0])
	assert.Equal(t, "memView.Addrs[1]", names[4])
}
