package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID               uuid.UUID `json:"id"`
	Subject          string    `json:"subject"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	Balance          int64     `json:"balance"`
	FullName         string    `json:"full_name"`
	Phone            string    `json:"phone"`
	Country          string    `json:"country"`
	City             string    `json:"city"`
	DateOfBirth      string    `json:"date_of_birth,omitempty"`
	ReferralCode     string    `json:"referral_code,omitempty"`
	ProfileCompleted bool      `json:"profile_completed"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Deposit struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Amount      int64      `json:"amount"`
	Method      string     `json:"method"`
	PayerPhone  string     `json:"payer_phone"`
	Reference   string     `json:"reference"`
	Status      string     `json:"status"`
	Note        string     `json:"note,omitempty"`
	ProcessedBy *uuid.UUID `json:"processed_by,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Withdrawal struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	Amount        int64      `json:"amount"`
	Method        string     `json:"method"`
	AccountName   string     `json:"account_name"`
	AccountNumber string     `json:"account_number"`
	RequestKey    string     `json:"-"`
	Status        string     `json:"status"`
	Note          string     `json:"note,omitempty"`
	ProcessedBy   *uuid.UUID `json:"processed_by,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type Investment struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	PlanID         string     `json:"plan_id"`
	Amount         int64      `json:"amount"`
	ExpectedReturn int64      `json:"expected_return"`
	Status         string     `json:"status"`
	StartsAt       time.Time  `json:"starts_at"`
	MaturesAt      time.Time  `json:"matures_at"`
	SettledAt      *time.Time `json:"settled_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// LedgerEntry records one balance mutation and the record that caused it.
type LedgerEntry struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Amount       int64     `json:"amount"`
	BalanceAfter int64     `json:"balance_after"`
	Kind         string    `json:"kind"`
	RefType      string    `json:"ref_type"`
	RefID        uuid.UUID `json:"ref_id"`
	CreatedAt    time.Time `json:"created_at"`
}

type Notification struct {
	ID        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	RefType   string    `json:"ref_type"`
	RefID     uuid.UUID `json:"ref_id"`
	UserID    uuid.UUID `json:"user_id"`
	Amount    int64     `json:"amount"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type SupportMessage struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	SenderRole  string    `json:"sender_role"`
	SenderID    uuid.UUID `json:"sender_id"`
	Body        string    `json:"body"`
	ReadByUser  bool      `json:"read_by_user"`
	ReadByAdmin bool      `json:"read_by_admin"`
	CreatedAt   time.Time `json:"created_at"`
}

// SupportThread summarises one user's conversation for the admin inbox.
type SupportThread struct {
	UserID        uuid.UUID `json:"user_id"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
	UnreadCount   int64     `json:"unread_count"`
}

type Activity struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	IP        string    `json:"ip,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type AuditLog struct {
	ID         int64      `json:"id"`
	EntityType string     `json:"entity_type"`
	EntityID   uuid.UUID  `json:"entity_id"`
	ActorID    *uuid.UUID `json:"actor_id,omitempty"`
	Action     string     `json:"action"`
	PrevState  string     `json:"prev_state,omitempty"`
	NextState  string     `json:"next_state,omitempty"`
	Metadata   []byte     `json:"metadata,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type IdempotencyKey struct {
	Key            string
	RequestHash    string
	Method         string
	Path           string
	ResponseStatus int
	ResponseBody   []byte
	ContentType    string
	InProgress     bool
	CreatedAt      time.Time
}

// BalanceMismatch is a user whose stored balance differs from the ledger sum.
type BalanceMismatch struct {
	UserID    uuid.UUID `json:"user_id"`
	Balance   int64     `json:"balance"`
	LedgerSum int64     `json:"ledger_sum"`
}

type PlatformStats struct {
	Users                 int64 `json:"users"`
	TotalBalances         int64 `json:"total_balances"`
	PendingDeposits       int64 `json:"pending_deposits"`
	PendingDepositSum     int64 `json:"pending_deposit_sum"`
	ApprovedDepositSum    int64 `json:"approved_deposit_sum"`
	PendingWithdrawals    int64 `json:"pending_withdrawals"`
	PendingWithdrawalSum  int64 `json:"pending_withdrawal_sum"`
	ApprovedWithdrawalSum int64 `json:"approved_withdrawal_sum"`
	ActiveInvestments     int64 `json:"active_investments"`
	ActiveInvestedSum     int64 `json:"active_invested_sum"`
	UnreadNotifications   int64 `json:"unread_notifications"`
}
