// Package sketch is an in-process model of the mergeable cardinality sketches
// the dialect adapters emit (hll_add_agg, HLL_COUNT.INIT, HLL_ACCUMULATE).
//
// It mirrors the Init, Merge and Compute trio so rollups can be checked for
// composability without a warehouse: Compute(Merge(Init(A), Init(B))) should
// estimate |A ∪ B| within RelativeError.
package sketch

import (
	"errors"
	"fmt"
	"math"

	"github.com/axiomhq/hyperloglog"
	"github.com/cespare/xxhash/v2"
)

// Precision is the number of register index bits.
const Precision = 14

// ErrCorrupt is returned by Unmarshal for bytes that do not decode.
var ErrCorrupt = errors.New("corrupt sketch")

// Sketch is a HyperLogLog estimator over hashed string values.
// It is not safe for concurrent use.
type Sketch struct {
	hll *hyperloglog.Sketch
}

// Init builds a sketch from values.
func Init(values ...string) *Sketch {
	s := &Sketch{hll: hyperloglog.New14()}
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add hashes v into the sketch.
func (s *Sketch) Add(v string) {
	s.hll.InsertHash(xxhash.Sum64String(v))
}

// Merge returns a new sketch equivalent to the union of sketches.
// The inputs are not modified. Nil entries are skipped.
func Merge(sketches ...*Sketch) (*Sketch, error) {
	out := Init()
	for i, s := range sketches {
		if s == nil {
			continue
		}
		if err := out.hll.Merge(s.hll); err != nil {
			return nil, fmt.Errorf("merge sketch %d: %w", i, err)
		}
	}
	return out, nil
}

// Compute returns the rounded cardinality estimate.
func (s *Sketch) Compute() int64 {
	return int64(s.hll.Estimate())
}

// MarshalBinary encodes the sketch for storage in a rollup table.
func (s *Sketch) MarshalBinary() ([]byte, error) {
	return s.hll.MarshalBinary()
}

// Unmarshal decodes bytes produced by MarshalBinary.
func Unmarshal(data []byte) (*Sketch, error) {
	hll := hyperloglog.New14()
	if err := hll.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &Sketch{hll: hll}, nil
}

// RelativeError is the standard error of a precision-14 estimate,
// 1.04/sqrt(2^14), roughly 0.8%.
func RelativeError() float64 {
	return 1.04 / math.Sqrt(float64(uint64(1)<<Precision))
}
