// Package types holds the small, allocation-free value types shared by every
// CHRONOS core package: the book, the scanners, the matching engine, and the
// wire codecs all import this package and nothing heavier.
package types

// Price is a 64-bit fixed-point value, scale 1e8. There is no floating point
// anywhere on the matching hot path; every comparison here is exact integer
// comparison.
type Price int64

// PriceScale is the fixed-point scale applied to Price: a Price of
// 10_000_000_000 represents $100.00.
const PriceScale = 100_000_000

// Quantity is a resting or incoming order's size. Valid states are strictly
// positive; zero means "fully filled, eligible for removal".
type Quantity int32

// Side distinguishes the two sides of the book. Wire value matches spec.md
// §3: Buy=0, Sell=1.
type Side uint8

const (
	Buy  Side = 0
	Sell Side = 1
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// Opposite returns the side an aggressor of this side matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderType distinguishes resting-eligible LIMIT orders from MARKET orders,
// which never rest. Wire value matches spec.md §3: Limit=0, Market=1.
type OrderType uint8

const (
	Limit  OrderType = 0
	Market OrderType = 1
)

// ExecType is the outbound report classification, wire-encoded per spec.md
// §6.
type ExecType uint8

const (
	ExecNew         ExecType = 0
	ExecPartialFill ExecType = 1
	ExecFill        ExecType = 2
	ExecCanceled    ExecType = 3
	ExecRejected    ExecType = 4
)

func (e ExecType) String() string {
	switch e {
	case ExecNew:
		return "NEW"
	case ExecPartialFill:
		return "PARTIAL_FILL"
	case ExecFill:
		return "FILL"
	case ExecCanceled:
		return "CANCELED"
	case ExecRejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// Constants exposed by the core (spec.md §6).
const (
	// MaxLevels bounds the number of distinct price levels tracked per side
	// of a single instrument's book.
	MaxLevels = 1024

	// MaxOrders bounds the number of live+free order slots in a single
	// instrument's book.
	MaxOrders = 1_048_576

	// OrderSlotSize is the fixed, cache-line-aligned size in bytes of one
	// OrderSlot record.
	OrderSlotSize = 64

	// NullSlot is the sentinel denoting "no slot" wherever a slot index is
	// stored (free-list terminator, queue terminator, cancel-miss).
	NullSlot int32 = -1
)

// MinPrice and MaxPrice bound the fixed-point price domain and double as the
// "effective limit" sentinels a MARKET order sweeps against (spec.md §4.3
// step 3: "Effective limit = ±∞ sentinel for MARKET").
const (
	MinPrice Price = -1 << 62
	MaxPrice Price = 1<<62 - 1
)

// EffectiveLimit returns the limit price a sweep should compare against for
// the given order type: the order's own limit for LIMIT orders, or the
// sentinel most permissive to the aggressor's side for MARKET orders.
func EffectiveLimit(orderType OrderType, side Side, limitPrice Price) Price {
	if orderType == Limit {
		return limitPrice
	}
	if side == Buy {
		return MaxPrice
	}
	return MinPrice
}
