package enum

// PaymentMethod is the tender a customer used for (part of) an order
type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "Efectivo"
	PaymentMethodYape          PaymentMethod = "Yape"
	PaymentMethodPlin          PaymentMethod = "Plin"
	PaymentMethodCard          PaymentMethod = "Tarjeta"
	PaymentMethodTransfer      PaymentMethod = "Transferencia"
	PaymentMethodRappiTransfer PaymentMethod = "Transferencia Rappi"
)

// IsCard reports whether the method carries the card surcharge.
func (m PaymentMethod) IsCard() bool {
	return m == PaymentMethodCard
}

// AccountType identifies one of the fixed payment buckets
type AccountType string

const (
	AccountTypeCash AccountType = "efectivo"
	AccountTypeYape AccountType = "yape"
	AccountTypePlin AccountType = "plin"
	AccountTypeBank AccountType = "bbva"
)

// Valid reports whether t is one of the fixed buckets.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeCash, AccountTypeYape, AccountTypePlin, AccountTypeBank:
		return true
	}
	return false
}
