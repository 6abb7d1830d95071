package enum

// AuditKind names a ledger outcome worth surfacing to operators
type AuditKind string

const (
	AuditUnmappedPaymentMethod AuditKind = "unmapped_payment_method"
	AuditDuplicateReferral     AuditKind = "duplicate_referral"
	AuditReferralExpired       AuditKind = "referral_window_expired"
	AuditReferralMonthlyCap    AuditKind = "referral_monthly_cap"
	AuditDuplicateSettlement   AuditKind = "duplicate_settlement"
	AuditStepFailed            AuditKind = "settlement_step_failed"
	AuditSettlementUnwound     AuditKind = "settlement_unwound"
	AuditLowStock              AuditKind = "low_stock"
	AuditReconciliationDrift   AuditKind = "reconciliation_drift"
)
