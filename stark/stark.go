// Package stark drives the arithmetization pipeline: generate every trace
// table, commit to them, sample lookup challenges from the commitments, fold
// the cross-table lookups and extract the public disclosures. The output is
// what a commitment/FRI backend consumes; the backend itself lives outside
// this module.
package stark

import (
	"time"

	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/consensys/starkvm/ctl"
	"github.com/consensys/starkvm/debug"
	"github.com/consensys/starkvm/logger"
	"github.com/consensys/starkvm/tables"
	"github.com/consensys/starkvm/trace"
)

// PublicDisclosure is one public sub-table instance: the disclosed rows and
// the in-trace accumulators binding them.
type PublicDisclosure struct {
	Name   string
	Values [][]goldilocks.Element
	Z      [ctl.NumChallenges]ctl.ZData
}

// Artifacts is everything the arithmetization produces for one execution.
type Artifacts struct {
	Tables     *trace.Set
	Digests    [trace.NumTableKinds][32]byte
	Challenges ctl.ChallengeSet
	Lookups    []ctl.LookupData
	Publics    []PublicDisclosure
}

// BuildArtifacts runs the full generate, commit, challenge, fold pipeline.
// It is a pure function of its inputs: the same record always produces the
// same artifacts. In debug builds the lookup configuration and every table's
// constraints are additionally checked directly, before any folding, so a
// mis-generated trace fails with a row-level explanation instead of an
// opaque accumulator mismatch.
func BuildArtifacts(reg *tables.Registry, in tables.Input) (*Artifacts, error) {
	log := logger.Logger()
	start := time.Now()

	set, err := reg.GenerateTables(in)
	if err != nil {
		return nil, err
	}

	if debug.Debug {
		if err := reg.CheckConstraints(set); err != nil {
			return nil, err
		}
		if err := ctl.CheckAll(set, reg.Lookups()); err != nil {
			return nil, err
		}
	}

	a := &Artifacts{Tables: set}
	for _, kind := range trace.AllKinds() {
		a.Digests[kind] = set[kind].Digest()
	}

	a.Challenges, err = ctl.SampleChallenges(set)
	if err != nil {
		return nil, err
	}

	a.Lookups, err = ctl.BuildAll(set, reg.Lookups(), a.Challenges)
	if err != nil {
		return nil, err
	}

	for _, sub := range reg.PublicSubTables() {
		values, err := sub.Values(set)
		if err != nil {
			return nil, err
		}
		zs, err := sub.ZData(set, a.Challenges)
		if err != nil {
			return nil, err
		}
		a.Publics = append(a.Publics, PublicDisclosure{Name: sub.Name, Values: values, Z: zs})
	}

	log.Debug().Dur("took", time.Since(start)).Msg("built arithmetization artifacts")
	return a, nil
}

// VerifyArtifacts checks the cross-table equations and the public
// disclosures of finished artifacts: every lookup's finals must reconcile
// under every challenge, and every disclosure must fold back to its in-trace
// accumulator.
func VerifyArtifacts(reg *tables.Registry, a *Artifacts) error {
	if err := ctl.VerifyAll(a.Lookups); err != nil {
		return err
	}
	subs := reg.PublicSubTables()
	for i := range subs {
		if err := ctl.VerifyPublicSubTable(&subs[i], a.Publics[i].Values, a.Publics[i].Z, a.Challenges); err != nil {
			return err
		}
	}
	return nil
}
