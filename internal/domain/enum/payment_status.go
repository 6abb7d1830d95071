package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PaymentStatus represents whether an order has been paid
type PaymentStatus int

const (
	PaymentStatusUnpaid PaymentStatus = 0
	PaymentStatusPaid   PaymentStatus = 1
)

func (s PaymentStatus) String() string {
	switch s {
	case PaymentStatusUnpaid:
		return "Unpaid"
	case PaymentStatusPaid:
		return "Paid"
	default:
		return fmt.Sprintf("PaymentStatus(%d)", int(s))
	}
}

// Valid reports whether s is a known status.
func (s PaymentStatus) Valid() bool {
	return s == PaymentStatusUnpaid || s == PaymentStatusPaid
}

func (s PaymentStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *PaymentStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = PaymentStatus(i)
		return nil
	}
	switch str {
	case "Unpaid", "SIN PAGAR":
		*s = PaymentStatusUnpaid
	case "Paid", "Pagado":
		*s = PaymentStatusPaid
	default:
		return fmt.Errorf("unknown payment status %q", str)
	}
	return nil
}

func (s PaymentStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *PaymentStatus) Scan(value interface{}) error {
	if value == nil {
		*s = PaymentStatusUnpaid
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = PaymentStatus(v)
	case int:
		*s = PaymentStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into PaymentStatus", value)
	}
	return nil
}
