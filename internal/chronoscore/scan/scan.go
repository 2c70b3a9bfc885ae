// Package scan implements the PriceScanner strategy: pure, stateless
// computation over the sorted price arrays an OrderBook exposes. It never
// mutates anything and never allocates.
package scan

import (
	"math/bits"
	"os"

	"golang.org/x/sys/cpu"

	"github.com/vivkver/chronos/internal/chronoscore/types"
)

// Kind is the scanner implementation variant, selected once at construction
// time (spec.md §9: "Model as a sum type... no dynamic dispatch inside the
// hot loop of a single call").
type Kind uint8

const (
	KindScalar Kind = iota
	KindVectorized
)

func (k Kind) String() string {
	if k == KindVectorized {
		return "vectorized"
	}
	return "scalar"
}

// laneCount is how many price entries the vectorized variant compares per
// iteration. It does not depend on actual hardware vector width: the
// variant is a portable, branch-light batched scan (no assembly), gated by
// a real hardware-capability probe so the "vectorized" label reflects an
// actual SIMD-capable target, not aspiration.
const laneCount = 8

// Scanner is the selected strategy. Construct with New; the zero value is
// the scalar variant (always safe).
type Scanner struct {
	kind Kind
}

// Config controls scanner selection. DisableSIMD mirrors spec.md §6's
// `disable_simd` option and always wins over hardware detection.
type Config struct {
	DisableSIMD bool
}

// envDisableSIMD is the documented environment-variable override
// (spec.md §4.1: "an environment-variable override to force scalar").
const envDisableSIMD = "CHRONOS_DISABLE_SIMD"

// New selects a scanner variant at construction time: hardware feature
// detection decides, unless overridden by Config.DisableSIMD or the
// CHRONOS_DISABLE_SIMD environment variable.
func New(cfg Config) *Scanner {
	if cfg.DisableSIMD || envForcesScalar() {
		return &Scanner{kind: KindScalar}
	}
	if hardwareSupportsVectorized() {
		return &Scanner{kind: KindVectorized}
	}
	return &Scanner{kind: KindScalar}
}

// NewWithKind constructs a scanner pinned to a specific variant, bypassing
// feature detection. Used by the equivalence test suite and by callers that
// need to force a variant deterministically across replicas.
func NewWithKind(kind Kind) *Scanner {
	return &Scanner{kind: kind}
}

func (s *Scanner) Kind() Kind { return s.kind }

func envForcesScalar() bool {
	v, ok := os.LookupEnv(envDisableSIMD)
	return ok && v != "" && v != "0" && v != "false"
}

func hardwareSupportsVectorized() bool {
	return cpu.X86.HasAVX2 || cpu.ARM64.HasASIMD
}

// FindInsertionPoint returns the first index i in prices[0:count] such that,
// for descending=true, prices[i] < newPrice; for descending=false,
// prices[i] > newPrice. Returns count if no such index exists. Ties
// (prices[i] == newPrice) never satisfy the strict comparison.
func (s *Scanner) FindInsertionPoint(prices []types.Price, count int, newPrice types.Price, descending bool) int {
	switch s.kind {
	case KindVectorized:
		return vectorizedFindInsertionPoint(prices, count, newPrice, descending)
	default:
		return scalarFindInsertionPoint(prices, count, newPrice, descending)
	}
}

// CountMatchableLevels returns the longest prefix [0:n) of prices[0:count]
// satisfying the aggressor's crossing predicate: prices[i] <= limitPrice for
// a buying aggressor against asks, prices[i] >= limitPrice for a selling
// aggressor against bids. The array is sorted toward the aggressor, so this
// is monotonic and stops at the first mismatch.
func (s *Scanner) CountMatchableLevels(prices []types.Price, count int, limitPrice types.Price, isBuySide bool) int {
	switch s.kind {
	case KindVectorized:
		return vectorizedCountMatchableLevels(prices, count, limitPrice, isBuySide)
	default:
		return scalarCountMatchableLevels(prices, count, limitPrice, isBuySide)
	}
}

// FindFirstMatchableLevel returns 0 iff the top-of-book satisfies the
// crossing predicate, else -1. Specified independently of the sorted
// invariant for callers that don't want to assume it.
func (s *Scanner) FindFirstMatchableLevel(prices []types.Price, count int, limitPrice types.Price, isBuySide bool) int {
	switch s.kind {
	case KindVectorized:
		return vectorizedFindFirstMatchableLevel(prices, count, limitPrice, isBuySide)
	default:
		return scalarFindFirstMatchableLevel(prices, count, limitPrice, isBuySide)
	}
}

// --- scalar baseline ---

func scalarFindInsertionPoint(prices []types.Price, count int, newPrice types.Price, descending bool) int {
	for i := 0; i < count; i++ {
		if descending {
			if prices[i] < newPrice {
				return i
			}
		} else {
			if prices[i] > newPrice {
				return i
			}
		}
	}
	return count
}

func crosses(price, limitPrice types.Price, isBuySide bool) bool {
	if isBuySide {
		return price <= limitPrice
	}
	return price >= limitPrice
}

func scalarCountMatchableLevels(prices []types.Price, count int, limitPrice types.Price, isBuySide bool) int {
	n := 0
	for ; n < count; n++ {
		if !crosses(prices[n], limitPrice, isBuySide) {
			break
		}
	}
	return n
}

func scalarFindFirstMatchableLevel(prices []types.Price, count int, limitPrice types.Price, isBuySide bool) int {
	if count == 0 {
		return -1
	}
	if crosses(prices[0], limitPrice, isBuySide) {
		return 0
	}
	return -1
}

// --- vectorized (batched) variant ---
//
// There is no portable SIMD intrinsic in the Go language proper, so this
// variant does not hand-write assembly. It instead processes laneCount
// prices per iteration, building an 8-bit match mask exactly as a real
// lane-wise compare-and-mask SIMD sequence would, and uses
// bits.TrailingZeros8 to locate the first failing/matching lane - the same
// shape a real vector implementation takes, just without a hardware vector
// register backing it. It is selected only when hardwareSupportsVectorized
// reports a capable target, and it is a tested invariant that it returns
// byte-identical results to the scalar baseline for every input.

func vectorizedFindInsertionPoint(prices []types.Price, count int, newPrice types.Price, descending bool) int {
	i := 0
	for ; i+laneCount <= count; i += laneCount {
		var mask uint8
		for lane := 0; lane < laneCount; lane++ {
			p := prices[i+lane]
			var hit bool
			if descending {
				hit = p < newPrice
			} else {
				hit = p > newPrice
			}
			if hit {
				mask |= 1 << uint(lane)
			}
		}
		if mask != 0 {
			return i + bits.TrailingZeros8(mask)
		}
	}
	// Scalar tail for count mod laneCount.
	return i + scalarFindInsertionPoint(prices[i:count], count-i, newPrice, descending)
}

func vectorizedCountMatchableLevels(prices []types.Price, count int, limitPrice types.Price, isBuySide bool) int {
	i := 0
	for ; i+laneCount <= count; i += laneCount {
		var mask uint8
		for lane := 0; lane < laneCount; lane++ {
			if crosses(prices[i+lane], limitPrice, isBuySide) {
				mask |= 1 << uint(lane)
			}
		}
		if mask != 0xFF {
			return i + bits.TrailingZeros8(^mask&0xFF)
		}
	}
	return i + scalarCountMatchableLevels(prices[i:count], count-i, limitPrice, isBuySide)
}

func vectorizedFindFirstMatchableLevel(prices []types.Price, count int, limitPrice types.Price, isBuySide bool) int {
	return scalarFindFirstMatchableLevel(prices, count, limitPrice, isBuySide)
}
