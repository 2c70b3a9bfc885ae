package scan

import (
	"math/rand"
	"testing"

	"github.com/vivkver/chronos/internal/chronoscore/types"
)

func randomSortedPrices(n int, descending bool, rng *rand.Rand) []types.Price {
	seen := make(map[types.Price]bool, n)
	prices := make([]types.Price, 0, n)
	for len(prices) < n {
		p := types.Price(rng.Int63n(1_000_000))
		if seen[p] {
			continue
		}
		seen[p] = true
		prices = append(prices, p)
	}
	if descending {
		for i := 0; i < len(prices); i++ {
			for j := i + 1; j < len(prices); j++ {
				if prices[j] > prices[i] {
					prices[i], prices[j] = prices[j], prices[i]
				}
			}
		}
	} else {
		for i := 0; i < len(prices); i++ {
			for j := i + 1; j < len(prices); j++ {
				if prices[j] < prices[i] {
					prices[i], prices[j] = prices[j], prices[i]
				}
			}
		}
	}
	return prices
}

func TestScalarAndVectorizedEquivalence_FindInsertionPoint(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	scalar := NewWithKind(KindScalar)
	vectorized := NewWithKind(KindVectorized)

	for _, n := range []int{0, 1, 3, 7, 8, 9, 16, 33, 100} {
		for _, descending := range []bool{true, false} {
			prices := randomSortedPrices(n, descending, rng)
			buf := make([]types.Price, types.MaxLevels)
			copy(buf, prices)

			for trial := 0; trial < 20; trial++ {
				newPrice := types.Price(rng.Int63n(1_000_000))
				got := scalar.FindInsertionPoint(buf, n, newPrice, descending)
				want := vectorized.FindInsertionPoint(buf, n, newPrice, descending)
				if got != want {
					t.Fatalf("n=%d descending=%v price=%d: scalar=%d vectorized=%d", n, descending, newPrice, got, want)
				}
			}
		}
	}
}

func TestScalarAndVectorizedEquivalence_CountMatchableLevels(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	scalar := NewWithKind(KindScalar)
	vectorized := NewWithKind(KindVectorized)

	for _, n := range []int{0, 1, 7, 8, 9, 33, 100} {
		for _, isBuySide := range []bool{true, false} {
			prices := randomSortedPrices(n, isBuySide, rng)
			buf := make([]types.Price, types.MaxLevels)
			copy(buf, prices)

			for trial := 0; trial < 20; trial++ {
				limit := types.Price(rng.Int63n(1_000_000))
				got := scalar.CountMatchableLevels(buf, n, limit, isBuySide)
				want := vectorized.CountMatchableLevels(buf, n, limit, isBuySide)
				if got != want {
					t.Fatalf("n=%d isBuySide=%v limit=%d: scalar=%d vectorized=%d", n, isBuySide, limit, got, want)
				}
			}
		}
	}
}

func TestFindInsertionPoint_Descending(t *testing.T) {
	s := NewWithKind(KindScalar)
	prices := []types.Price{100, 90, 80, 70}
	if got := s.FindInsertionPoint(prices, 4, 85, true); got != 2 {
		t.Fatalf("got %d, want 2", got)
	}
	if got := s.FindInsertionPoint(prices, 4, 100, true); got != 1 {
		t.Fatalf("tie: got %d, want 1 (strict comparison never matches the tie itself)", got)
	}
	if got := s.FindInsertionPoint(prices, 4, 60, true); got != 4 {
		t.Fatalf("got %d, want 4 (append at end)", got)
	}
}

func TestCountMatchableLevels_Buy(t *testing.T) {
	s := NewWithKind(KindScalar)
	asks := []types.Price{100, 105, 110, 120}
	if got := s.CountMatchableLevels(asks, 4, 108, true); got != 2 {
		t.Fatalf("got %d, want 2", got)
	}
	if got := s.CountMatchableLevels(asks, 4, 90, true); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
	if got := s.CountMatchableLevels(asks, 4, 1000, true); got != 4 {
		t.Fatalf("got %d, want 4", got)
	}
}

func TestFindFirstMatchableLevel(t *testing.T) {
	s := NewWithKind(KindScalar)
	asks := []types.Price{100, 105}
	if got := s.FindFirstMatchableLevel(asks, 2, 100, true); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
	if got := s.FindFirstMatchableLevel(asks, 2, 99, true); got != -1 {
		t.Fatalf("got %d, want -1", got)
	}
	if got := s.FindFirstMatchableLevel(asks, 0, 100, true); got != -1 {
		t.Fatalf("empty side: got %d, want -1", got)
	}
}

func TestNew_EnvOverride(t *testing.T) {
	t.Setenv(envDisableSIMD, "1")
	s := New(Config{})
	if s.Kind() != KindScalar {
		t.Fatalf("env override should force scalar, got %v", s.Kind())
	}
}

func TestNew_ConfigOverride(t *testing.T) {
	s := New(Config{DisableSIMD: true})
	if s.Kind() != KindScalar {
		t.Fatalf("Config.DisableSIMD should force scalar, got %v", s.Kind())
	}
}

func BenchmarkFindInsertionPoint_Scalar(b *testing.B) {
	benchmarkFindInsertionPoint(b, KindScalar)
}

func BenchmarkFindInsertionPoint_Vectorized(b *testing.B) {
	benchmarkFindInsertionPoint(b, KindVectorized)
}

func benchmarkFindInsertionPoint(b *testing.B, kind Kind) {
	rng := rand.New(rand.NewSource(3))
	prices := randomSortedPrices(512, true, rng)
	s := NewWithKind(kind)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.FindInsertionPoint(prices, len(prices), types.Price(i%1_000_000), true)
	}
}
