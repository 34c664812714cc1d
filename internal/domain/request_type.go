package domain

// RequestType is the closed set of request categories.
type RequestType string

const (
	RequestTransport RequestType = "transport"
	RequestOffice    RequestType = "office"
	RequestDelivery  RequestType = "delivery"
	RequestOther     RequestType = "other"
)

// RequestTypes lists categories in menu order.
var RequestTypes = []RequestType{RequestTransport, RequestOffice, RequestDelivery, RequestOther}

var requestTypeLabels = map[RequestType]string{
	RequestTransport: "🚗 Транспорт",
	RequestOffice:    "🏢 Офис",
	RequestDelivery:  "📦 Доставка",
	RequestOther:     "❓ Другое",
}

// Label returns the button label, which is also the persisted request_type value.
func (t RequestType) Label() string {
	if l, ok := requestTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// Valid reports whether t belongs to the closed set.
func (t RequestType) Valid() bool {
	_, ok := requestTypeLabels[t]
	return ok
}

// RequestTypeFromLabel resolves a button label back to its category.
func RequestTypeFromLabel(label string) (RequestType, bool) {
	for t, l := range requestTypeLabels {
		if l == label {
			return t, true
		}
	}
	return "", false
}
