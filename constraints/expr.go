package constraints

import "github.com/consensys/gnark-crypto/field/goldilocks"

// value-returning field helpers; the generated field API is pointer based,
// which reads poorly in constraint expressions.

func Add(a, b goldilocks.Element) goldilocks.Element {
	var out goldilocks.Element
	out.Add(&a, &b)
	return out
}

func Sub(a, b goldilocks.Element) goldilocks.Element {
	var out goldilocks.Element
	out.Sub(&a, &b)
	return out
}

func Mul(a, b goldilocks.Element) goldilocks.Element {
	var out goldilocks.Element
	out.Mul(&a, &b)
	return out
}

func One() goldilocks.Element {
	var out goldilocks.Element
	out.SetOne()
	return out
}

// Binary registers v·(v−1), which vanishes exactly when v is 0 or 1.
func (c *Consumer) Binary(name string, v goldilocks.Element) {
	c.Local(name, Mul(v, Sub(v, One())))
}
