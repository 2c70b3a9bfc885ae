package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vivkver/chronos/internal/chronoscore/codec"
	"github.com/vivkver/chronos/internal/chronoscore/engine"
	"github.com/vivkver/chronos/internal/chronoscore/types"
)

func restOrder(t *testing.T, eng *engine.MatchingEngine, orderID, clientID uint64, price int64, qty int32, instrumentID int32, side types.Side) {
	t.Helper()
	in := make([]byte, codec.HeaderSize+codec.NewOrderSingleBodySize)
	codec.PutNewOrderSingleHeader(in[:codec.HeaderSize])
	m := codec.WrapNewOrderSingle(in[codec.HeaderSize:])
	m.SetOrderID(orderID)
	m.SetClientID(clientID)
	m.SetPrice(price)
	m.SetTimestampNs(0)
	m.SetQuantity(qty)
	m.SetInstrumentID(instrumentID)
	m.SetSide(uint8(side))
	m.SetOrderType(uint8(types.Limit))

	out := make([]byte, 256)
	_, err := eng.MatchOrder(m, 1, out, 0)
	require.NoError(t, err)
}

func TestEncodeRestoreRoundTrip_Memory(t *testing.T) {
	eng := engine.New(engine.Config{InstrumentCount: 2, MaxLevels: 32, MaxOrders: 256, DisableSIMD: true})

	restOrder(t, eng, 1, 10, 10_000, 5, 0, types.Buy)
	restOrder(t, eng, 2, 20, 10_100, 7, 0, types.Buy)
	restOrder(t, eng, 3, 30, 9_900, 3, 1, types.Sell)

	blob, err := Encode([]int32{0, 1}, eng.Book)
	require.NoError(t, err)

	store := NewMemoryStore()
	meta, err := store.Put("test", blob)
	require.NoError(t, err)
	require.NotEmpty(t, meta.ID)

	got, _, err := store.Get("test")
	require.NoError(t, err)
	require.Equal(t, blob, got)

	fresh := engine.New(engine.Config{InstrumentCount: 2, MaxLevels: 32, MaxOrders: 256, DisableSIMD: true})
	require.NoError(t, Restore(fresh, got))

	require.Equal(t, 2, fresh.Book(0).LiveOrderCount())
	require.Equal(t, 1, fresh.Book(1).LiveOrderCount())
	require.Equal(t, types.Price(10_100), fresh.Book(0).BestBid())
	require.Equal(t, types.Price(9_900), fresh.Book(1).BestAsk())
}

func TestEncodeRestoreRoundTrip_File(t *testing.T) {
	eng := engine.New(engine.Config{InstrumentCount: 1, MaxLevels: 32, MaxOrders: 256, DisableSIMD: true})
	restOrder(t, eng, 1, 10, 10_000, 5, 0, types.Buy)

	blob, err := Encode([]int32{0}, eng.Book)
	require.NoError(t, err)

	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "snaps"))
	require.NoError(t, err)

	_, err = store.Put("inst0", blob)
	require.NoError(t, err)

	got, _, err := store.Get("inst0")
	require.NoError(t, err)
	require.Equal(t, blob, got)

	fresh := engine.New(engine.Config{InstrumentCount: 1, MaxLevels: 32, MaxOrders: 256, DisableSIMD: true})
	require.NoError(t, Restore(fresh, got))
	require.Equal(t, 1, fresh.Book(0).LiveOrderCount())
}

func TestCompositeStore_WritesToAllStores(t *testing.T) {
	mem1 := NewMemoryStore()
	mem2 := NewMemoryStore()
	composite := NewCompositeStore(mem1, mem2)

	_, err := composite.Put("k", []byte("hello"))
	require.NoError(t, err)

	got1, _, err := mem1.Get("k")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got1)

	got2, _, err := mem2.Get("k")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got2)
}

func TestRestore_RejectsUnknownVersion(t *testing.T) {
	eng := engine.New(engine.Config{InstrumentCount: 1, MaxLevels: 8, MaxOrders: 16, DisableSIMD: true})
	bad := []byte{0xFF, 0xFF, 0, 0, 0, 0, 0, 0}
	require.Error(t, Restore(eng, bad))
}
