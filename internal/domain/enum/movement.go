package enum

// StockDirection is the direction of an inventory movement
type StockDirection string

const (
	StockIn  StockDirection = "in"
	StockOut StockDirection = "out"
)

// Valid reports whether d is in or out.
func (d StockDirection) Valid() bool {
	return d == StockIn || d == StockOut
}

// Sign returns +1 for incoming and -1 for outgoing movements.
func (d StockDirection) Sign() int {
	if d == StockOut {
		return -1
	}
	return 1
}

// LedgerDirection is the direction of an account movement
type LedgerDirection string

const (
	Credit LedgerDirection = "credit"
	Debit  LedgerDirection = "debit"
)

// Valid reports whether d is credit or debit.
func (d LedgerDirection) Valid() bool {
	return d == Credit || d == Debit
}

// MovementSource records what caused an account movement
type MovementSource string

const (
	SourceSale             MovementSource = "sale"
	SourcePurchase         MovementSource = "purchase"
	SourceExpense          MovementSource = "expense"
	SourceManualAdjustment MovementSource = "manual_adjustment"
	SourceInitialSeed      MovementSource = "initial_seed"
)

// Valid reports whether s is a known source.
func (s MovementSource) Valid() bool {
	switch s {
	case SourceSale, SourcePurchase, SourceExpense, SourceManualAdjustment, SourceInitialSeed:
		return true
	}
	return false
}

// RewardMovementType classifies a loyalty points movement
type RewardMovementType string

const (
	RewardPurchase   RewardMovementType = "purchase"
	RewardReferral   RewardMovementType = "referral"
	RewardRedemption RewardMovementType = "redemption"
)
