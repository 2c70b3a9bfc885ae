// Package snapshot implements the CHRONOS snapshot/restore scheme spec.md
// §9 leaves unspecified: a versioned binary format that reuses the
// NewOrderSingle wire encoding for every resting order, and a Store
// interface with interchangeable backends (memory, file, Postgres, Redis,
// and a write-through composite of any of them) adapted from the teacher's
// OrderStore/TradeStore storage layer.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/vivkver/chronos/internal/chronoscore/book"
	"github.com/vivkver/chronos/internal/chronoscore/codec"
	"github.com/vivkver/chronos/internal/chronoscore/engine"
	"github.com/vivkver/chronos/internal/chronoscore/types"
)

// FormatVersion is the current snapshot binary format version. Bumped
// whenever the record layout changes; Restore refuses to load a version it
// doesn't recognize.
const FormatVersion uint16 = 1

// Encode serializes the live resting orders of each book that books returns
// for instrumentIDs into a single snapshot blob: an 8-byte header (version uint16, padding
// uint16, instrumentCount uint32) followed by, per instrument, a 16-byte
// instrument record (instrumentId uint32, liveOrderCount uint32, padding
// uint64) and then liveOrderCount NewOrderSingle-encoded records (header +
// 42-byte body each), walked per price level in FIFO order so Restore
// replays addOrder calls in the exact order that reproduces price-time
// priority.
func Encode(instrumentIDs []int32, books func(int32) *book.OrderBook) ([]byte, error) {
	var buf bytes.Buffer

	var header [8]byte
	binary.LittleEndian.PutUint16(header[0:2], FormatVersion)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(instrumentIDs)))
	buf.Write(header[:])

	for _, id := range instrumentIDs {
		b := books(id)
		if b == nil {
			return nil, fmt.Errorf("snapshot: no book for instrument %d", id)
		}

		var instHeader [16]byte
		binary.LittleEndian.PutUint32(instHeader[0:4], uint32(id))
		binary.LittleEndian.PutUint32(instHeader[4:8], uint32(b.LiveOrderCount()))
		buf.Write(instHeader[:])

		writeSide(&buf, b, types.Buy)
		writeSide(&buf, b, types.Sell)
	}

	return buf.Bytes(), nil
}

func writeSide(buf *bytes.Buffer, b *book.OrderBook, side types.Side) {
	levelCount := b.BidLevelCount()
	if side == types.Sell {
		levelCount = b.AskLevelCount()
	}
	recSize := codec.HeaderSize + codec.NewOrderSingleBodySize
	rec := make([]byte, recSize)
	for level := 0; level < levelCount; level++ {
		for slot := b.HeadOrderSlot(side, level); slot != types.NullSlot; slot = b.SlotNext(slot) {
			codec.PutNewOrderSingleHeader(rec[:codec.HeaderSize])
			m := codec.WrapNewOrderSingle(rec[codec.HeaderSize:])
			m.SetOrderID(b.SlotOrderID(slot))
			m.SetClientID(b.SlotClientID(slot))
			m.SetPrice(int64(b.SlotPrice(slot)))
			m.SetTimestampNs(b.SlotTimestampNs(slot))
			m.SetQuantity(int32(b.SlotRemaining(slot)))
			m.SetInstrumentID(b.InstrumentID())
			m.SetSide(uint8(side))
			m.SetOrderType(uint8(types.Limit))
			buf.Write(rec)
		}
	}
}

// Restore replays a snapshot blob produced by Encode into eng by calling
// MatchingEngine.Book(id).AddOrder for every record, in encoded order. The
// engine should be freshly Reset before calling Restore.
func Restore(eng MatchingEngineBooks, blob []byte) error {
	if len(blob) < 8 {
		return fmt.Errorf("snapshot: blob too short for header (%d bytes)", len(blob))
	}
	version := binary.LittleEndian.Uint16(blob[0:2])
	if version != FormatVersion {
		return fmt.Errorf("snapshot: unsupported format version %d", version)
	}
	instrumentCount := binary.LittleEndian.Uint32(blob[4:8])
	offset := 8

	recSize := codec.HeaderSize + codec.NewOrderSingleBodySize

	for i := uint32(0); i < instrumentCount; i++ {
		if offset+16 > len(blob) {
			return fmt.Errorf("snapshot: truncated instrument header at offset %d", offset)
		}
		instrumentID := int32(binary.LittleEndian.Uint32(blob[offset : offset+4]))
		liveOrderCount := binary.LittleEndian.Uint32(blob[offset+4 : offset+8])
		offset += 16

		b := eng.Book(instrumentID)
		if b == nil {
			return fmt.Errorf("snapshot: no book for instrument %d", instrumentID)
		}

		for j := uint32(0); j < liveOrderCount; j++ {
			if offset+recSize > len(blob) {
				return fmt.Errorf("snapshot: truncated order record at offset %d", offset)
			}
			rec := blob[offset : offset+recSize]
			offset += recSize

			h := codec.WrapHeader(rec[:codec.HeaderSize])
			if h.TemplateID() != codec.TemplateNewOrderSingle {
				return fmt.Errorf("snapshot: unexpected template id %d in order record", h.TemplateID())
			}
			m := codec.WrapNewOrderSingle(rec[codec.HeaderSize:])

			slot := b.AddOrder(m.OrderID(), types.Price(m.Price()), m.ClientID(), m.TimestampNs(), types.Quantity(m.Quantity()), m.InstrumentID(), types.Side(m.Side()), types.OrderType(m.OrderType()))
			if slot == types.NullSlot {
				return fmt.Errorf("snapshot: restore rejected order %d on instrument %d (pool/book full)", m.OrderID(), instrumentID)
			}
		}
	}

	return nil
}

// MatchingEngineBooks is the minimal surface Restore needs from a
// MatchingEngine; satisfied directly by *engine.MatchingEngine.
type MatchingEngineBooks interface {
	Book(instrumentID int32) *book.OrderBook
}

var _ MatchingEngineBooks = (*engine.MatchingEngine)(nil)
