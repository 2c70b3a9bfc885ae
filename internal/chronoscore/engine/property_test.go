package engine

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vivkver/chronos/internal/chronoscore/codec"
	"github.com/vivkver/chronos/internal/chronoscore/types"
)

// randomOrderStream generates a fixed, reproducible sequence of NewOrderSingle
// commands (as encoded Header+body messages) so it can be replayed against
// independent fresh engines.
func randomOrderStream(seed int64, n int, instrumentCount int32) [][]byte {
	rng := rand.New(rand.NewSource(seed))
	msgs := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		buf := make([]byte, codec.HeaderSize+codec.NewOrderSingleBodySize)
		codec.PutNewOrderSingleHeader(buf[:codec.HeaderSize])
		m := codec.WrapNewOrderSingle(buf[codec.HeaderSize:])
		m.SetOrderID(uint64(i + 1))
		m.SetClientID(uint64(rng.Intn(8)))
		m.SetPrice(int64(rng.Intn(40) + 1))
		m.SetTimestampNs(int64(i))
		m.SetQuantity(int32(rng.Intn(15) + 1))
		m.SetInstrumentID(rng.Int31n(instrumentCount))
		m.SetSide(uint8(rng.Intn(2)))
		m.SetOrderType(uint8(types.Limit))
		msgs = append(msgs, buf)
	}
	return msgs
}

// TestDeterminism_ReplayIsByteIdentical covers spec.md §8 property 6: two
// fresh engines fed the same command stream (including cluster timestamps)
// must emit byte-identical output streams, execIds included.
func TestDeterminism_ReplayIsByteIdentical(t *testing.T) {
	msgs := randomOrderStream(7, 500, 4)

	run := func() []byte {
		e := New(Config{InstrumentCount: 4, MaxLevels: 64, MaxOrders: 4096, DisableSIMD: true})
		var out bytes.Buffer
		buf := make([]byte, 8192)
		for i, raw := range msgs {
			m := codec.WrapNewOrderSingle(raw[codec.HeaderSize:])
			n, err := e.MatchOrder(m, int64(i), buf, 0)
			require.NoError(t, err)
			out.Write(buf[:n])
		}
		return out.Bytes()
	}

	first := run()
	second := run()
	require.Equal(t, first, second, "replaying the same command stream on two fresh engines must be byte-identical")
}

// TestConservationOfQuantity covers spec.md §8 property 7: total filled
// quantity attributed to the resting side of every match equals the total
// filled quantity attributed to aggressors.
func TestConservationOfQuantity(t *testing.T) {
	msgs := randomOrderStream(11, 300, 2)
	e := New(Config{InstrumentCount: 2, MaxLevels: 64, MaxOrders: 2048, DisableSIMD: true})

	var restingFilled, aggressorFilled int64
	buf := make([]byte, 8192)
	for i, raw := range msgs {
		m := codec.WrapNewOrderSingle(raw[codec.HeaderSize:])
		n, err := e.MatchOrder(m, int64(i), buf, 0)
		require.NoError(t, err)

		offset := 0
		msgSize := codec.HeaderSize + codec.ExecutionReportBodySize
		aggressorOrderID := m.OrderID()
		for offset < n {
			rep := codec.WrapExecutionReport(buf[offset+codec.HeaderSize : offset+msgSize])
			et := types.ExecType(rep.ExecType())
			if et == types.ExecFill || et == types.ExecPartialFill {
				if rep.OrderID() == aggressorOrderID {
					aggressorFilled += int64(rep.FillQty())
				} else {
					restingFilled += int64(rep.FillQty())
				}
			}
			offset += msgSize
		}
	}

	require.Equal(t, restingFilled, aggressorFilled, "total quantity filled on the resting side must equal total quantity filled on the aggressor side")
}

// TestPriceTimePriority_AcrossLevelsAndWithinLevel covers spec.md §8 property 8: among resting orders
// at the same price, earlier arrival fills first; across price levels, the
// more aggressive price fills first.
func TestPriceTimePriority_AcrossLevelsAndWithinLevel(t *testing.T) {
	e := New(Config{InstrumentCount: 1, MaxLevels: 16, MaxOrders: 64, DisableSIMD: true})
	buf := make([]byte, 4096)

	place := func(orderID uint64, price int64, qty int32, side types.Side, ts int64) {
		in := make([]byte, codec.HeaderSize+codec.NewOrderSingleBodySize)
		codec.PutNewOrderSingleHeader(in[:codec.HeaderSize])
		m := codec.WrapNewOrderSingle(in[codec.HeaderSize:])
		m.SetOrderID(orderID)
		m.SetClientID(orderID)
		m.SetPrice(price)
		m.SetTimestampNs(ts)
		m.SetQuantity(qty)
		m.SetInstrumentID(0)
		m.SetSide(uint8(side))
		m.SetOrderType(uint8(types.Limit))
		_, err := e.MatchOrder(m, ts, buf, 0)
		require.NoError(t, err)
	}

	// Best price (cheapest ask) first, then two orders at the same price in
	// arrival order.
	place(1, 100, 3, types.Sell, 1) // best ask
	place(2, 105, 5, types.Sell, 2) // first at 105
	place(3, 105, 5, types.Sell, 3) // second at 105

	in := make([]byte, codec.HeaderSize+codec.NewOrderSingleBodySize)
	codec.PutNewOrderSingleHeader(in[:codec.HeaderSize])
	agg := codec.WrapNewOrderSingle(in[codec.HeaderSize:])
	agg.SetOrderID(4)
	agg.SetClientID(4)
	agg.SetPrice(105)
	agg.SetTimestampNs(4)
	agg.SetQuantity(3 + 5 + 2)
	agg.SetInstrumentID(0)
	agg.SetSide(uint8(types.Buy))
	agg.SetOrderType(uint8(types.Limit))

	n, err := e.MatchOrder(agg, 4, buf, 0)
	require.NoError(t, err)

	var fillOrder []uint64
	offset := 0
	msgSize := codec.HeaderSize + codec.ExecutionReportBodySize
	for offset < n {
		rep := codec.WrapExecutionReport(buf[offset+codec.HeaderSize : offset+msgSize])
		if rep.OrderID() != 4 {
			fillOrder = append(fillOrder, rep.OrderID())
		}
		offset += msgSize
	}

	require.Equal(t, []uint64{1, 2, 3}, fillOrder, "best price fills first, then arrival order within a price")
}
