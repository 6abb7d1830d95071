package enum

// SettlementStatus is the overall state of an order settlement
type SettlementStatus string

const (
	SettlementPending             SettlementStatus = "pending"
	SettlementCompleted           SettlementStatus = "completed"
	SettlementNeedsReconciliation SettlementStatus = "needs_reconciliation"
	SettlementUnwound             SettlementStatus = "unwound"
)

// StepKind names the ledger a settlement step writes to
type StepKind string

const (
	StepInventory StepKind = "inventory"
	StepAccount   StepKind = "account"
	StepRewards   StepKind = "rewards"
)

// StepStatus is the state of a single settlement step
type StepStatus string

const (
	StepPending  StepStatus = "pending"
	StepDone     StepStatus = "done"
	StepFailed   StepStatus = "failed"
	StepSkipped  StepStatus = "skipped"
	StepReverted StepStatus = "reverted"
)

// Runnable reports whether a step still has to be applied.
func (s StepStatus) Runnable() bool {
	return s == StepPending || s == StepFailed
}

// InventoryPolicy controls how stock shortfalls affect a settlement
type InventoryPolicy string

const (
	// InventoryBestEffort closes the order and flags lines that could not be debited.
	InventoryBestEffort InventoryPolicy = "best_effort"
	// InventoryStrict rejects the closing write when any line is short.
	InventoryStrict InventoryPolicy = "strict"
)

// Valid reports whether p is a known policy.
func (p InventoryPolicy) Valid() bool {
	return p == InventoryBestEffort || p == InventoryStrict
}
