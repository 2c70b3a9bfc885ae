package codec

import "testing"

func TestHeaderRoundTrip(t *testing.T) {
	buf := make([]byte, HeaderSize)
	PutNewOrderSingleHeader(buf)
	h := WrapHeader(buf)

	if h.TemplateID() != TemplateNewOrderSingle {
		t.Fatalf("got template %d, want %d", h.TemplateID(), TemplateNewOrderSingle)
	}
	if h.BlockLength() != NewOrderSingleBodySize {
		t.Fatalf("got block length %d, want %d", h.BlockLength(), NewOrderSingleBodySize)
	}
	if h.SchemaID() != SchemaID || h.Version() != SchemaVersion {
		t.Fatalf("unexpected schema id/version: %d/%d", h.SchemaID(), h.Version())
	}
}

func TestNewOrderSingleRoundTrip(t *testing.T) {
	if NewOrderSingleBodySize != 42 {
		t.Fatalf("NewOrderSingle body size changed: %d", NewOrderSingleBodySize)
	}

	buf := make([]byte, NewOrderSingleBodySize)
	m := WrapNewOrderSingle(buf)
	m.SetOrderID(123456789)
	m.SetClientID(42)
	m.SetPrice(-500)
	m.SetTimestampNs(9999)
	m.SetQuantity(7)
	m.SetInstrumentID(3)
	m.SetSide(1)
	m.SetOrderType(0)

	got := WrapNewOrderSingle(buf)
	if got.OrderID() != 123456789 {
		t.Fatalf("OrderID round trip failed: %d", got.OrderID())
	}
	if got.ClientID() != 42 {
		t.Fatalf("ClientID round trip failed: %d", got.ClientID())
	}
	if got.Price() != -500 {
		t.Fatalf("Price round trip failed (negative price): %d", got.Price())
	}
	if got.TimestampNs() != 9999 {
		t.Fatalf("TimestampNs round trip failed: %d", got.TimestampNs())
	}
	if got.Quantity() != 7 {
		t.Fatalf("Quantity round trip failed: %d", got.Quantity())
	}
	if got.InstrumentID() != 3 {
		t.Fatalf("InstrumentID round trip failed: %d", got.InstrumentID())
	}
	if got.Side() != 1 {
		t.Fatalf("Side round trip failed: %d", got.Side())
	}
	if got.OrderType() != 0 {
		t.Fatalf("OrderType round trip failed: %d", got.OrderType())
	}
}

func TestCancelOrderRoundTrip(t *testing.T) {
	if CancelOrderBodySize != 20 {
		t.Fatalf("CancelOrder body size changed: %d", CancelOrderBodySize)
	}

	buf := make([]byte, CancelOrderBodySize)
	m := WrapCancelOrder(buf)
	m.SetOrderID(55)
	m.SetClientID(9)
	m.SetInstrumentID(2)

	got := WrapCancelOrder(buf)
	if got.OrderID() != 55 || got.ClientID() != 9 || got.InstrumentID() != 2 {
		t.Fatalf("CancelOrder round trip failed: %+v", got)
	}
}

func TestExecutionReportRoundTrip(t *testing.T) {
	if ExecutionReportBodySize != 54 {
		t.Fatalf("ExecutionReport body size changed: %d", ExecutionReportBodySize)
	}

	buf := make([]byte, ExecutionReportBodySize)
	m := WrapExecutionReport(buf)
	m.SetExecID(1)
	m.SetOrderID(2)
	m.SetInstrumentID(3)
	m.SetPrice(40000)
	m.SetFillQty(5)
	m.SetRemaining(0)
	m.SetExecType(2)
	m.SetSide(0)
	m.SetClientID(777)
	m.SetTimestampNs(888)

	got := WrapExecutionReport(buf)
	if got.ExecID() != 1 || got.OrderID() != 2 || got.InstrumentID() != 3 {
		t.Fatalf("ids round trip failed: %+v", got)
	}
	if got.Price() != 40000 || got.FillQty() != 5 || got.Remaining() != 0 {
		t.Fatalf("quantities round trip failed: %+v", got)
	}
	if got.ExecType() != 2 || got.Side() != 0 {
		t.Fatalf("type/side round trip failed: %+v", got)
	}
	if got.ClientID() != 777 || got.TimestampNs() != 888 {
		t.Fatalf("client/timestamp round trip failed: %+v", got)
	}
}

func TestLittleEndianByteLayout(t *testing.T) {
	buf := make([]byte, HeaderSize)
	h := WrapHeader(buf)
	h.SetBlockLength(0x0102)
	if buf[0] != 0x02 || buf[1] != 0x01 {
		t.Fatalf("expected little-endian byte order, got %02x %02x", buf[0], buf[1])
	}
}
