// Package codec implements the bit-exact, little-endian flyweight wire
// encoding for CHRONOS commands and execution reports (spec.md §4.4): a
// fixed 8-byte Header followed by a fixed-layout body selected by
// templateId. Every type here is a thin view over a caller-owned []byte;
// none of them allocate or copy on encode/decode.
package codec

import "encoding/binary"

// Header is the 8-byte message preamble: blockLength, templateId, schemaId,
// version, each a little-endian uint16.
const HeaderSize = 8

const (
	SchemaID      uint16 = 1
	SchemaVersion uint16 = 1
)

const (
	TemplateNewOrderSingle  uint16 = 1
	TemplateCancelOrder     uint16 = 2
	TemplateExecutionReport uint16 = 3
)

// Header is a flyweight view over the first HeaderSize bytes of a message.
type Header struct {
	buf []byte
}

// WrapHeader views buf[0:HeaderSize] as a Header. Panics if buf is too
// short, matching the flyweight codecs' contract that callers size buffers
// correctly ahead of time.
func WrapHeader(buf []byte) Header { return Header{buf: buf[:HeaderSize:HeaderSize]} }

func (h Header) BlockLength() uint16 { return binary.LittleEndian.Uint16(h.buf[0:2]) }
func (h Header) TemplateID() uint16  { return binary.LittleEndian.Uint16(h.buf[2:4]) }
func (h Header) SchemaID() uint16    { return binary.LittleEndian.Uint16(h.buf[4:6]) }
func (h Header) Version() uint16     { return binary.LittleEndian.Uint16(h.buf[6:8]) }

func (h Header) SetBlockLength(v uint16) { binary.LittleEndian.PutUint16(h.buf[0:2], v) }
func (h Header) SetTemplateID(v uint16)  { binary.LittleEndian.PutUint16(h.buf[2:4], v) }
func (h Header) SetSchemaID(v uint16)    { binary.LittleEndian.PutUint16(h.buf[4:6], v) }
func (h Header) SetVersion(v uint16)     { binary.LittleEndian.PutUint16(h.buf[6:8], v) }

func putHeader(buf []byte, templateID, blockLength uint16) {
	h := WrapHeader(buf)
	h.SetBlockLength(blockLength)
	h.SetTemplateID(templateID)
	h.SetSchemaID(SchemaID)
	h.SetVersion(SchemaVersion)
}

// --- NewOrderSingle: template 1, 42-byte body ---

const NewOrderSingleBodySize = 42

// NewOrderSingle is a flyweight view over a 42-byte body immediately
// following a Header.
type NewOrderSingle struct {
	buf []byte
}

func WrapNewOrderSingle(buf []byte) NewOrderSingle {
	return NewOrderSingle{buf: buf[:NewOrderSingleBodySize:NewOrderSingleBodySize]}
}

// PutNewOrderSingleHeader writes a Header for a NewOrderSingle body into
// buf[0:HeaderSize].
func PutNewOrderSingleHeader(buf []byte) {
	putHeader(buf, TemplateNewOrderSingle, NewOrderSingleBodySize)
}

// Field offsets match spec.md §4.4 exactly: orderId u64 @0, price i64 @8,
// clientId u64 @16, timestampNs i64 @24, instrumentId u32 @32, quantity u32
// @36, side u8 @40, orderType u8 @41.
func (m NewOrderSingle) OrderID() uint64     { return binary.LittleEndian.Uint64(m.buf[0:8]) }
func (m NewOrderSingle) Price() int64        { return int64(binary.LittleEndian.Uint64(m.buf[8:16])) }
func (m NewOrderSingle) ClientID() uint64    { return binary.LittleEndian.Uint64(m.buf[16:24]) }
func (m NewOrderSingle) TimestampNs() int64  { return int64(binary.LittleEndian.Uint64(m.buf[24:32])) }
func (m NewOrderSingle) InstrumentID() int32 { return int32(binary.LittleEndian.Uint32(m.buf[32:36])) }
func (m NewOrderSingle) Quantity() int32     { return int32(binary.LittleEndian.Uint32(m.buf[36:40])) }
func (m NewOrderSingle) Side() uint8         { return m.buf[40] }
func (m NewOrderSingle) OrderType() uint8    { return m.buf[41] }

func (m NewOrderSingle) SetOrderID(v uint64)  { binary.LittleEndian.PutUint64(m.buf[0:8], v) }
func (m NewOrderSingle) SetPrice(v int64)     { binary.LittleEndian.PutUint64(m.buf[8:16], uint64(v)) }
func (m NewOrderSingle) SetClientID(v uint64) { binary.LittleEndian.PutUint64(m.buf[16:24], v) }
func (m NewOrderSingle) SetTimestampNs(v int64) {
	binary.LittleEndian.PutUint64(m.buf[24:32], uint64(v))
}
func (m NewOrderSingle) SetInstrumentID(v int32) {
	binary.LittleEndian.PutUint32(m.buf[32:36], uint32(v))
}
func (m NewOrderSingle) SetQuantity(v int32)  { binary.LittleEndian.PutUint32(m.buf[36:40], uint32(v)) }
func (m NewOrderSingle) SetSide(v uint8)      { m.buf[40] = v }
func (m NewOrderSingle) SetOrderType(v uint8) { m.buf[41] = v }

// --- CancelOrder: template 2, 20-byte body ---

const CancelOrderBodySize = 20

type CancelOrder struct {
	buf []byte
}

func WrapCancelOrder(buf []byte) CancelOrder {
	return CancelOrder{buf: buf[:CancelOrderBodySize:CancelOrderBodySize]}
}

func PutCancelOrderHeader(buf []byte) {
	putHeader(buf, TemplateCancelOrder, CancelOrderBodySize)
}

func (m CancelOrder) OrderID() uint64     { return binary.LittleEndian.Uint64(m.buf[0:8]) }
func (m CancelOrder) ClientID() uint64    { return binary.LittleEndian.Uint64(m.buf[8:16]) }
func (m CancelOrder) InstrumentID() int32 { return int32(binary.LittleEndian.Uint32(m.buf[16:20])) }

func (m CancelOrder) SetOrderID(v uint64)     { binary.LittleEndian.PutUint64(m.buf[0:8], v) }
func (m CancelOrder) SetClientID(v uint64)    { binary.LittleEndian.PutUint64(m.buf[8:16], v) }
func (m CancelOrder) SetInstrumentID(v int32) { binary.LittleEndian.PutUint32(m.buf[16:20], uint32(v)) }

// --- ExecutionReport: template 3, 54-byte body ---

const ExecutionReportBodySize = 54

type ExecutionReport struct {
	buf []byte
}

func WrapExecutionReport(buf []byte) ExecutionReport {
	return ExecutionReport{buf: buf[:ExecutionReportBodySize:ExecutionReportBodySize]}
}

func PutExecutionReportHeader(buf []byte) {
	putHeader(buf, TemplateExecutionReport, ExecutionReportBodySize)
}

// Field offsets match spec.md §4.4 exactly: orderId u64 @0, execId u64 @8,
// price i64 @16, clientId u64 @24, matchTimestampNs i64 @32, instrumentId
// u32 @40, filledQuantity u32 @44, remainingQuantity u32 @48, side u8 @52,
// execType u8 @53.
func (m ExecutionReport) OrderID() uint64     { return binary.LittleEndian.Uint64(m.buf[0:8]) }
func (m ExecutionReport) ExecID() uint64      { return binary.LittleEndian.Uint64(m.buf[8:16]) }
func (m ExecutionReport) Price() int64        { return int64(binary.LittleEndian.Uint64(m.buf[16:24])) }
func (m ExecutionReport) ClientID() uint64    { return binary.LittleEndian.Uint64(m.buf[24:32]) }
func (m ExecutionReport) TimestampNs() int64  { return int64(binary.LittleEndian.Uint64(m.buf[32:40])) }
func (m ExecutionReport) InstrumentID() int32 { return int32(binary.LittleEndian.Uint32(m.buf[40:44])) }
func (m ExecutionReport) FillQty() int32      { return int32(binary.LittleEndian.Uint32(m.buf[44:48])) }
func (m ExecutionReport) Remaining() int32    { return int32(binary.LittleEndian.Uint32(m.buf[48:52])) }
func (m ExecutionReport) Side() uint8         { return m.buf[52] }
func (m ExecutionReport) ExecType() uint8     { return m.buf[53] }

func (m ExecutionReport) SetOrderID(v uint64)  { binary.LittleEndian.PutUint64(m.buf[0:8], v) }
func (m ExecutionReport) SetExecID(v uint64)   { binary.LittleEndian.PutUint64(m.buf[8:16], v) }
func (m ExecutionReport) SetPrice(v int64)     { binary.LittleEndian.PutUint64(m.buf[16:24], uint64(v)) }
func (m ExecutionReport) SetClientID(v uint64) { binary.LittleEndian.PutUint64(m.buf[24:32], v) }
func (m ExecutionReport) SetTimestampNs(v int64) {
	binary.LittleEndian.PutUint64(m.buf[32:40], uint64(v))
}
func (m ExecutionReport) SetInstrumentID(v int32) {
	binary.LittleEndian.PutUint32(m.buf[40:44], uint32(v))
}
func (m ExecutionReport) SetFillQty(v int32) { binary.LittleEndian.PutUint32(m.buf[44:48], uint32(v)) }
func (m ExecutionReport) SetRemaining(v int32) {
	binary.LittleEndian.PutUint32(m.buf[48:52], uint32(v))
}
func (m ExecutionReport) SetSide(v uint8)     { m.buf[52] = v }
func (m ExecutionReport) SetExecType(v uint8) { m.buf[53] = v }
