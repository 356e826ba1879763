// Package starkvm implements the arithmetization layer of a RISC-V zkVM:
// trace tables generated from an execution record, cross-table lookups
// binding them together, range-check domain tables and public sub-table
// disclosures. The output of the pipeline is consumed by an external
// commitment/FRI backend.
//
// The field is Goldilocks (p = 2^64 - 2^32 + 1); all table cells are
// goldilocks.Element values.
package starkvm

import (
	"github.com/blang/semver/v4"
)

var Version = semver.MustParse("0.1.0")
