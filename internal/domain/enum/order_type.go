package enum

// OrderType is the service channel of an order
type OrderType string

const (
	OrderTypeTable            OrderType = "Mesa"
	OrderTypeTakeaway         OrderType = "Para llevar"
	OrderTypeDeliveryRappi    OrderType = "Delivery Rappi"
	OrderTypeDeliveryInternal OrderType = "Delivery Interno"
)

// Valid reports whether t is a known order type.
func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeTable, OrderTypeTakeaway, OrderTypeDeliveryRappi, OrderTypeDeliveryInternal:
		return true
	}
	return false
}

// IsPlatformDelivery reports whether the order is fulfilled and paid through
// a delivery platform, which settles the order on its own terms.
func (t OrderType) IsPlatformDelivery() bool {
	return t == OrderTypeDeliveryRappi
}
