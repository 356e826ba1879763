package tables

import (
	"errors"
	"fmt"
	"time"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/sync/errgroup"

	"github.com/consensys/starkvm/logger"
	"github.com/consensys/starkvm/trace"
)

// GenerateTables runs every generator over the input and returns the full
// set of finished tables. Kinds within one stage run in parallel; stages run
// in order so derived tables see the tables they aggregate. The result is
// deterministic regardless of scheduling because generators only read the
// input and earlier stages.
func (r *Registry) GenerateTables(in Input) (*trace.Set, error) {
	if in.Program == nil || in.Record == nil {
		return nil, errors.New("tables: generation needs both a program and an execution record")
	}
	log := logger.Logger()
	start := time.Now()

	var set trace.Set
	for stage := Stage(0); int(stage) < numStages; stage++ {
		g := new(errgroup.Group)
		for _, kind := range trace.AllKinds() {
			d := r.Descriptor(kind)
			if d.Stage != stage {
				continue
			}
			g.Go(func() error {
				tStart := time.Now()
				tbl := d.Generate(in, &set)
				if tbl.Kind() != d.Kind {
					return fmt.Errorf("tables: generator for %s produced a %s table", d.Kind, tbl.Kind())
				}
				if tbl.Width() != d.Width {
					return fmt.Errorf("tables: table %s has width %d, descriptor declares %d", d.Kind, tbl.Width(), d.Width)
				}
				set[d.Kind] = tbl
				log.Debug().
					Stringer("table", d.Kind).
					Int("rows", tbl.NumRows()).
					Int("realRows", tbl.Len()).
					Dur("took", time.Since(tStart)).
					Msg("generated trace table")
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	generated := bitset.New(uint(trace.NumTableKinds))
	for _, kind := range trace.AllKinds() {
		if set[kind] != nil {
			generated.Set(uint(kind))
		}
	}
	if !generated.All() {
		missing := make([]string, 0)
		for _, kind := range trace.AllKinds() {
			if !generated.Test(uint(kind)) {
				missing = append(missing, kind.String())
			}
		}
		return nil, fmt.Errorf("tables: generation left tables missing: %v", missing)
	}

	log.Debug().Dur("took", time.Since(start)).Msg("generated all trace tables")
	return &set, nil
}
