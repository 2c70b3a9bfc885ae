// Package engine implements MatchingEngine: the price-time priority sweep
// across one instrument's order book, execution report emission, and
// cancel-by-order-id. MatchOrder is the only entry point that runs on the
// hot path; it never allocates, never reads the wall clock, and produces
// byte-identical output given identical input across replays.
package engine

import (
	"fmt"

	"github.com/vivkver/chronos/internal/chronoscore/book"
	"github.com/vivkver/chronos/internal/chronoscore/codec"
	"github.com/vivkver/chronos/internal/chronoscore/metrics"
	"github.com/vivkver/chronos/internal/chronoscore/scan"
	"github.com/vivkver/chronos/internal/chronoscore/types"
)

// Config controls the capacities and scanner variant every book in an
// engine is constructed with.
type Config struct {
	InstrumentCount int
	MaxLevels       int
	MaxOrders       int
	DisableSIMD     bool
	Metrics         metrics.Sink
}

// MatchingEngine owns one dense array of books, indexed by instrument id,
// and the monotonic execution-id counter shared across all of them.
type MatchingEngine struct {
	books       []*book.OrderBook
	scanner     *scan.Scanner
	nextExecID  uint64
	metricsSink metrics.Sink
	maxLevels   int
	maxOrders   int
}

// New constructs a MatchingEngine with one pre-allocated OrderBook per
// instrument id in [0, cfg.InstrumentCount).
func New(cfg Config) *MatchingEngine {
	if cfg.MaxLevels <= 0 {
		cfg.MaxLevels = types.MaxLevels
	}
	if cfg.MaxOrders <= 0 {
		cfg.MaxOrders = types.MaxOrders
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NoopSink{}
	}

	scanner := scan.New(scan.Config{DisableSIMD: cfg.DisableSIMD})

	e := &MatchingEngine{
		books:       make([]*book.OrderBook, cfg.InstrumentCount),
		scanner:     scanner,
		metricsSink: cfg.Metrics,
		maxLevels:   cfg.MaxLevels,
		maxOrders:   cfg.MaxOrders,
	}
	for i := range e.books {
		e.books[i] = book.New(int32(i), cfg.MaxLevels, cfg.MaxOrders, scanner)
	}
	return e
}

// Reset restores every book to empty and rewinds the execution-id counter
// to zero, without reallocating any book's backing arrays.
func (e *MatchingEngine) Reset() {
	for _, b := range e.books {
		b.Reset()
	}
	e.nextExecID = 0
}

// Book exposes the OrderBook for an instrument id, for read-only inspection
// (tests, snapshotting). Returns nil if instrumentID is out of range.
func (e *MatchingEngine) Book(instrumentID int32) *book.OrderBook {
	if instrumentID < 0 || int(instrumentID) >= len(e.books) {
		return nil
	}
	return e.books[instrumentID]
}

func (e *MatchingEngine) nextExecIDValue() uint64 {
	e.nextExecID++
	return e.nextExecID
}

// reportWriter is a bump allocator over a caller-owned output buffer: it
// writes one Header+ExecutionReport per call and advances the offset. The
// caller sizes the buffer; MatchOrder never grows it.
type reportWriter struct {
	buf    []byte
	offset int
}

func (w *reportWriter) remaining() int { return len(w.buf) - w.offset }

func (w *reportWriter) write(execID uint64, orderID uint64, instrumentID int32, price types.Price, fillQty, remaining types.Quantity, execType types.ExecType, side types.Side, clientID uint64, timestampNs int64) error {
	total := codec.HeaderSize + codec.ExecutionReportBodySize
	if w.remaining() < total {
		return fmt.Errorf("engine: output buffer exhausted at offset %d writing execution report", w.offset)
	}
	msg := w.buf[w.offset : w.offset+total]
	codec.PutExecutionReportHeader(msg[:codec.HeaderSize])
	rep := codec.WrapExecutionReport(msg[codec.HeaderSize:])
	rep.SetExecID(execID)
	rep.SetOrderID(orderID)
	rep.SetInstrumentID(instrumentID)
	rep.SetPrice(int64(price))
	rep.SetFillQty(int32(fillQty))
	rep.SetRemaining(int32(remaining))
	rep.SetExecType(uint8(execType))
	rep.SetSide(uint8(side))
	rep.SetClientID(clientID)
	rep.SetTimestampNs(timestampNs)
	w.offset += total
	return nil
}

// MatchOrder decodes a NewOrderSingle from in, sweeps the opposite side of
// the named instrument's book in price-time priority, and appends one
// Header+ExecutionReport per fill (resting side first, aggressor's own
// report last) plus a final report for the aggressor's own resulting state
// (NEW if it rests, FILL/PARTIAL_FILL if fully/partially filled against the
// book, REJECTED if it cannot be processed) into out starting at offset.
// Returns the number of bytes written. clusterTimestampNs is the single
// externally-supplied timestamp for every report this call emits — no
// wall-clock read ever happens here.
func (e *MatchingEngine) MatchOrder(in codec.NewOrderSingle, clusterTimestampNs int64, out []byte, offset int) (int, error) {
	w := &reportWriter{buf: out, offset: offset}

	instrumentID := in.InstrumentID()
	b := e.Book(instrumentID)
	if b == nil {
		e.metricsSink.OnOrderRejected(instrumentID, "unknown_instrument")
		if err := w.write(e.nextExecIDValue(), in.OrderID(), instrumentID, types.Price(in.Price()), 0, 0, types.ExecRejected, types.Side(in.Side()), in.ClientID(), clusterTimestampNs); err != nil {
			return w.offset - offset, err
		}
		return w.offset - offset, nil
	}

	orderType := types.OrderType(in.OrderType())
	side := types.Side(in.Side())
	aggressorOrderID := in.OrderID()
	aggressorClientID := in.ClientID()
	remaining := types.Quantity(in.Quantity())
	limit := types.EffectiveLimit(orderType, side, types.Price(in.Price()))

	e.metricsSink.OnOrderProcessed(instrumentID, uint8(side), uint8(orderType))

	oppositeSide := side.Opposite()
	isBuySide := side == types.Buy

	for remaining > 0 {
		var prices []types.Price
		var levelCount int
		if oppositeSide == types.Buy {
			prices = b.BidPrices()
			levelCount = b.BidLevelCount()
		} else {
			prices = b.AskPrices()
			levelCount = b.AskLevelCount()
		}

		if e.scanner.FindFirstMatchableLevel(prices, levelCount, limit, isBuySide) != 0 {
			break
		}

		headSlot := b.HeadOrderSlot(oppositeSide, 0)
		if headSlot == types.NullSlot {
			break
		}

		restingRemaining := b.SlotRemaining(headSlot)
		fillQty := remaining
		if restingRemaining < fillQty {
			fillQty = restingRemaining
		}
		fillPrice := b.SlotPrice(headSlot)

		restingOrderID := b.SlotOrderID(headSlot)
		restingClientID := b.SlotClientID(headSlot)
		restingNewRemaining := b.ReduceQuantity(headSlot, fillQty)

		e.metricsSink.OnMatchFound(instrumentID, int64(fillQty), int64(fillPrice))

		restingExecType := types.ExecFill
		if restingNewRemaining > 0 {
			restingExecType = types.ExecPartialFill
		}
		if err := w.write(e.nextExecIDValue(), restingOrderID, instrumentID, fillPrice, fillQty, restingNewRemaining, restingExecType, oppositeSide, restingClientID, clusterTimestampNs); err != nil {
			return w.offset - offset, err
		}
		if restingNewRemaining == 0 {
			b.RemoveOrder(headSlot)
		}

		remaining -= fillQty
	}

	originalQty := types.Quantity(in.Quantity())
	if remaining == 0 {
		if err := w.write(e.nextExecIDValue(), aggressorOrderID, instrumentID, types.Price(in.Price()), originalQty, 0, types.ExecFill, side, aggressorClientID, clusterTimestampNs); err != nil {
			return w.offset - offset, err
		}
		return w.offset - offset, nil
	}

	filledQty := originalQty - remaining
	if filledQty > 0 {
		// Partially filled: report the partial fill, then (LIMIT only) rest
		// the residual.
		if err := w.write(e.nextExecIDValue(), aggressorOrderID, instrumentID, types.Price(in.Price()), filledQty, remaining, types.ExecPartialFill, side, aggressorClientID, clusterTimestampNs); err != nil {
			return w.offset - offset, err
		}
		if orderType != types.Limit {
			return w.offset - offset, nil
		}
		slot := b.AddOrder(aggressorOrderID, types.Price(in.Price()), aggressorClientID, clusterTimestampNs, remaining, instrumentID, side, orderType)
		if slot == types.NullSlot {
			e.metricsSink.OnOrderRejected(instrumentID, "book_full")
			if err := w.write(e.nextExecIDValue(), aggressorOrderID, instrumentID, types.Price(in.Price()), 0, remaining, types.ExecRejected, side, aggressorClientID, clusterTimestampNs); err != nil {
				return w.offset - offset, err
			}
		}
		return w.offset - offset, nil
	}

	if orderType == types.Market {
		e.metricsSink.OnOrderRejected(instrumentID, "market_no_liquidity")
		if err := w.write(e.nextExecIDValue(), aggressorOrderID, instrumentID, types.Price(in.Price()), 0, remaining, types.ExecRejected, side, aggressorClientID, clusterTimestampNs); err != nil {
			return w.offset - offset, err
		}
		return w.offset - offset, nil
	}

	slot := b.AddOrder(aggressorOrderID, types.Price(in.Price()), aggressorClientID, clusterTimestampNs, remaining, instrumentID, side, orderType)
	if slot == types.NullSlot {
		e.metricsSink.OnOrderRejected(instrumentID, "book_full")
		if err := w.write(e.nextExecIDValue(), aggressorOrderID, instrumentID, types.Price(in.Price()), 0, remaining, types.ExecRejected, side, aggressorClientID, clusterTimestampNs); err != nil {
			return w.offset - offset, err
		}
		return w.offset - offset, nil
	}

	if err := w.write(e.nextExecIDValue(), aggressorOrderID, instrumentID, types.Price(in.Price()), 0, remaining, types.ExecNew, side, aggressorClientID, clusterTimestampNs); err != nil {
		return w.offset - offset, err
	}
	return w.offset - offset, nil
}

// Cancel resolves orderID to a resting slot on instrumentID's book and
// removes it, emitting a CANCELED report. Unknown order ids (already
// filled, already canceled, or never existed) emit REJECTED instead,
// matching spec.md §9's cancel-lookup resolution.
func (e *MatchingEngine) Cancel(instrumentID int32, orderID uint64, clientID uint64, clusterTimestampNs int64, out []byte, offset int) (int, error) {
	w := &reportWriter{buf: out, offset: offset}

	b := e.Book(instrumentID)
	if b == nil {
		e.metricsSink.OnOrderRejected(instrumentID, "unknown_instrument")
		if err := w.write(e.nextExecIDValue(), orderID, instrumentID, 0, 0, 0, types.ExecRejected, 0, clientID, clusterTimestampNs); err != nil {
			return w.offset - offset, err
		}
		return w.offset - offset, nil
	}

	slot, ok := b.SlotByOrderID(orderID)
	if !ok {
		e.metricsSink.OnOrderRejected(instrumentID, "unknown_order")
		if err := w.write(e.nextExecIDValue(), orderID, instrumentID, 0, 0, 0, types.ExecRejected, 0, clientID, clusterTimestampNs); err != nil {
			return w.offset - offset, err
		}
		return w.offset - offset, nil
	}

	price := b.SlotPrice(slot)
	side := b.SlotSide(slot)
	removedClientID := b.SlotClientID(slot)
	remaining := b.RemoveOrder(slot)

	if err := w.write(e.nextExecIDValue(), orderID, instrumentID, price, 0, remaining, types.ExecCanceled, side, removedClientID, clusterTimestampNs); err != nil {
		return w.offset - offset, err
	}
	return w.offset - offset, nil
}
