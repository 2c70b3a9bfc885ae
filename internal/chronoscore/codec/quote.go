package codec

// QuoteRequest and Quote reserve template ids 4 and 5 in the schema. They
// are part of the wire schema spec.md §4.4 enumerates but are not consumed
// by the matching core itself. Only QuoteRequest has a flyweight view here,
// and it has no field accessors; Quote has a template id only.
const (
	TemplateQuoteRequest uint16 = 4
	TemplateQuote        uint16 = 5
)

const QuoteRequestBodySize = 20

type QuoteRequest struct {
	buf []byte
}

func WrapQuoteRequest(buf []byte) QuoteRequest {
	return QuoteRequest{buf: buf[:QuoteRequestBodySize:QuoteRequestBodySize]}
}

func PutQuoteRequestHeader(buf []byte) {
	putHeader(buf, TemplateQuoteRequest, QuoteRequestBodySize)
}
