// Copyright 2020 ConsenSys AG
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package utils

import (
	"math/bits"

	"github.com/consensys/gnark-crypto/field/goldilocks"
)

// FromU32 embeds a 32-bit machine word into the field. The embedding is
// canonical; 32-bit values never wrap around the Goldilocks modulus.
func FromU32(v uint32) goldilocks.Element {
	return goldilocks.NewElement(uint64(v))
}

// FromU64 embeds a 64-bit integer into the field, reducing mod p.
func FromU64(v uint64) goldilocks.Element {
	var e goldilocks.Element
	e.SetUint64(v)
	return e
}

// FromBool maps false to 0 and true to 1.
func FromBool(b bool) goldilocks.Element {
	if b {
		return goldilocks.NewElement(1)
	}
	return goldilocks.Element{}
}

// ToU64 returns the canonical integer represented by e.
func ToU64(e goldilocks.Element) uint64 {
	return e.Bits()[0]
}

// U16Limbs decomposes v into its low and high 16-bit limbs.
func U16Limbs(v uint32) [2]uint32 {
	return [2]uint32{v & 0xffff, v >> 16}
}

// ByteLimbs decomposes v into its 4 little-endian bytes.
func ByteLimbs(v uint32) [4]uint32 {
	return [4]uint32{v & 0xff, (v >> 8) & 0xff, (v >> 16) & 0xff, v >> 24}
}

// NextPowerOfTwo returns the smallest power of two ≥ n. n must fit the result
// in an int.
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << (bits.Len(uint(n - 1)))
}
