package domain

const (
	Currency = "XAF"

	RoleUser  = "user"
	RoleAdmin = "admin"

	// Deposit and withdrawal statuses
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"

	// Investment statuses
	InvestmentActive  = "active"
	InvestmentMatured = "matured"

	DecisionApprove = "approve"
	DecisionReject  = "reject"

	// Causing record types
	RefDeposit    = "deposit"
	RefWithdrawal = "withdrawal"
	RefInvestment = "investment"

	// Ledger entry kinds
	EntryDepositCredit    = "deposit_credit"
	EntryWithdrawalDebit  = "withdrawal_debit"
	EntryWithdrawalRefund = "withdrawal_refund"
	EntryInvestmentDebit  = "investment_debit"
	EntryInvestmentPayout = "investment_payout"

	// Payment methods
	MethodMTNMoMo      = "mtn_momo"
	MethodOrangeMoney  = "orange_money"
	MethodBankTransfer = "bank"

	// Notification kinds
	NotifyDepositConfirmed    = "deposit_confirmed"
	NotifyDepositApproved     = "deposit_approved"
	NotifyDepositRejected     = "deposit_rejected"
	NotifyWithdrawalRequested = "withdrawal_requested"
	NotifyWithdrawalApproved  = "withdrawal_approved"
	NotifyWithdrawalRejected  = "withdrawal_rejected"

	// Activity actions
	ActivitySignup              = "signup"
	ActivityProfileCompleted    = "profile_completed"
	ActivityDepositConfirmed    = "deposit_confirmed"
	ActivityWithdrawalRequested = "withdrawal_requested"
	ActivityInvestmentPurchased = "investment_purchased"
	ActivityInvestmentMatured   = "investment_matured"
	ActivitySupportMessage      = "support_message"

	DefaultMinDeposit    int64 = 1_000
	DefaultMinWithdrawal int64 = 9_500

	// MaxAmount caps a single deposit, withdrawal or investment (one trillion XAF).
	MaxAmount int64 = 1_000_000_000_000

	MaxSupportMessageLength = 2000
)

// ValidMethod reports whether m is an accepted deposit/withdrawal channel.
func ValidMethod(m string) bool {
	switch m {
	case MethodMTNMoMo, MethodOrangeMoney, MethodBankTransfer:
		return true
	default:
		return false
	}
}
