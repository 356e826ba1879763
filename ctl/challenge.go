package ctl

import (
	"fmt"

	"github.com/consensys/gnark-crypto/field/goldilocks"
	fiatshamir "github.com/consensys/gnark-crypto/fiat-shamir"
	"golang.org/x/crypto/blake2b"

	"github.com/consensys/starkvm/trace"
)

// NumChallenges is the number of independent challenge pairs every lookup is
// instantiated with.
const NumChallenges = 2

// Challenge is one pair of random coefficients used to fold a tuple of
// column values into a single field element.
type Challenge struct {
	Beta  goldilocks.Element
	Gamma goldilocks.Element
}

// Combine folds values into beta-powers plus gamma:
//
//	v[0] + v[1]·β + v[2]·β² + ... + γ
func (c *Challenge) Combine(values []goldilocks.Element) goldilocks.Element {
	acc := c.Gamma
	pow := one()
	var t goldilocks.Element
	for i := range values {
		t.Mul(&values[i], &pow)
		acc.Add(&acc, &t)
		pow.Mul(&pow, &c.Beta)
	}
	return acc
}

// ChallengeSet carries the NumChallenges pairs shared by every lookup of a
// proof.
type ChallengeSet struct {
	Challenges [NumChallenges]Challenge
}

// SampleChallenges derives the challenge set from the digests of all
// committed tables. Both prover and verifier run the same transcript, so the
// challenges depend on every cell of every table.
func SampleChallenges(tables *trace.Set) (ChallengeSet, error) {
	names := make([]string, 0, 2*NumChallenges)
	for i := 0; i < NumChallenges; i++ {
		names = append(names, fmt.Sprintf("beta%d", i), fmt.Sprintf("gamma%d", i))
	}

	h, err := blake2b.New256(nil)
	if err != nil {
		return ChallengeSet{}, err
	}
	fs := fiatshamir.NewTranscript(h, names...)

	for _, kind := range trace.AllKinds() {
		tbl := tables[kind]
		if tbl == nil {
			continue
		}
		digest := tbl.Digest()
		if err := fs.Bind(names[0], digest[:]); err != nil {
			return ChallengeSet{}, err
		}
	}

	var set ChallengeSet
	for i := 0; i < NumChallenges; i++ {
		beta, err := fs.ComputeChallenge(names[2*i])
		if err != nil {
			return ChallengeSet{}, err
		}
		gamma, err := fs.ComputeChallenge(names[2*i+1])
		if err != nil {
			return ChallengeSet{}, err
		}
		set.Challenges[i].Beta.SetBytes(beta)
		set.Challenges[i].Gamma.SetBytes(gamma)
	}
	return set, nil
}
