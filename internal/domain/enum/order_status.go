package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// OrderStatus represents the lifecycle status of an order
type OrderStatus int

const (
	OrderStatusOpen   OrderStatus = 0
	OrderStatusClosed OrderStatus = 1
	OrderStatusVoided OrderStatus = 2
)

var orderStatusNames = [...]string{"Open", "Closed", "Voided"}

func (s OrderStatus) String() string {
	if s < 0 || int(s) >= len(orderStatusNames) {
		return fmt.Sprintf("OrderStatus(%d)", int(s))
	}
	return orderStatusNames[s]
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	return s >= OrderStatusOpen && s <= OrderStatusVoided
}

func (s OrderStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		// Try unmarshaling as int
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = OrderStatus(i)
		return nil
	}
	switch str {
	case "Open", "Abierta":
		*s = OrderStatusOpen
	case "Closed", "Cerrada":
		*s = OrderStatusClosed
	case "Voided", "Anulada":
		*s = OrderStatusVoided
	default:
		return fmt.Errorf("unknown order status %q", str)
	}
	return nil
}

func (s OrderStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *OrderStatus) Scan(value interface{}) error {
	if value == nil {
		*s = OrderStatusOpen
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = OrderStatus(v)
	case int:
		*s = OrderStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into OrderStatus", value)
	}
	return nil
}
