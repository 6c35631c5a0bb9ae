package repository

import (
	"context"
	"time"

	"github.com/ayo6706/profitwave/internal/models"
	"github.com/google/uuid"
)

// Querier is the data access contract shared by the Postgres and in-memory backends.
// Lookups of absent rows return domain.ErrNotFound; unique violations return
// domain.ErrConflict; an unreachable backend returns domain.ErrStorageUnavailable.
type Querier interface {
	UpsertUserBySubject(ctx context.Context, arg UpsertUserParams) (models.User, bool, error)
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
	GetUserBySubject(ctx context.Context, subject string) (models.User, error)
	UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (models.User, error)
	// AdjustUserBalance applies delta as one conditional update and returns the new balance.
	// It fails with domain.ErrInsufficientBalance when the result would be negative.
	AdjustUserBalance(ctx context.Context, id uuid.UUID, delta int64) (int64, error)
	ListUsers(ctx context.Context, arg ListUsersParams) ([]models.User, error)

	InsertDeposit(ctx context.Context, d models.Deposit) (models.Deposit, error)
	GetDeposit(ctx context.Context, id uuid.UUID) (models.Deposit, error)
	GetDepositByReference(ctx context.Context, userID uuid.UUID, reference string) (models.Deposit, error)
	// TransitionDepositStatus is a compare-and-swap on status. A record that exists but is
	// not in arg.From yields domain.ErrAlreadyProcessed.
	TransitionDepositStatus(ctx context.Context, arg TransitionParams) (models.Deposit, error)
	ListDeposits(ctx context.Context, arg ListRecordsParams) ([]models.Deposit, error)

	InsertWithdrawal(ctx context.Context, w models.Withdrawal) (models.Withdrawal, error)
	GetWithdrawal(ctx context.Context, id uuid.UUID) (models.Withdrawal, error)
	GetWithdrawalByRequestKey(ctx context.Context, userID uuid.UUID, requestKey string) (models.Withdrawal, error)
	TransitionWithdrawalStatus(ctx context.Context, arg TransitionParams) (models.Withdrawal, error)
	ListWithdrawals(ctx context.Context, arg ListRecordsParams) ([]models.Withdrawal, error)

	InsertInvestment(ctx context.Context, inv models.Investment) (models.Investment, error)
	GetInvestment(ctx context.Context, id uuid.UUID) (models.Investment, error)
	ListInvestments(ctx context.Context, arg ListRecordsParams) ([]models.Investment, error)
	// ClaimMaturedInvestments returns active investments due at or before arg.AsOf, oldest
	// first, leaving out arg.Skip and rows held by a concurrent claimer.
	ClaimMaturedInvestments(ctx context.Context, arg ClaimMaturedParams) ([]models.Investment, error)
	TransitionInvestmentStatus(ctx context.Context, arg TransitionParams) (models.Investment, error)

	// InsertLedgerEntry fails with domain.ErrAlreadyProcessed if the (kind, ref_type, ref_id)
	// token was already posted.
	InsertLedgerEntry(ctx context.Context, e models.LedgerEntry) (models.LedgerEntry, error)
	ListLedgerEntries(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]models.LedgerEntry, error)
	GetBalanceMismatches(ctx context.Context, limit int32) ([]models.BalanceMismatch, error)

	InsertNotification(ctx context.Context, n models.Notification) (models.Notification, error)
	ListNotifications(ctx context.Context, arg ListNotificationsParams) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID) error

	InsertSupportMessage(ctx context.Context, m models.SupportMessage) (models.SupportMessage, error)
	ListSupportMessages(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]models.SupportMessage, error)
	// MarkSupportMessagesRead flags messages in a thread as read by readerRole. Only messages
	// sent by the other side are affected.
	MarkSupportMessagesRead(ctx context.Context, userID uuid.UUID, readerRole string) (int64, error)
	ListSupportThreads(ctx context.Context, limit, offset int32) ([]models.SupportThread, error)

	InsertActivity(ctx context.Context, a models.Activity) (models.Activity, error)
	ListActivities(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]models.Activity, error)

	InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) (int64, error)
	ListAuditLogs(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.AuditLog, error)

	GetIdempotencyKey(ctx context.Context, key string) (models.IdempotencyKey, error)
	// ReserveIdempotencyKey returns false when the key already exists.
	ReserveIdempotencyKey(ctx context.Context, arg ReserveIdempotencyKeyParams) (bool, error)
	FinalizeIdempotencyKey(ctx context.Context, arg FinalizeIdempotencyKeyParams) (models.IdempotencyKey, error)
	ReleaseIdempotencyKey(ctx context.Context, key, requestHash string) error

	GetPlatformStats(ctx context.Context) (models.PlatformStats, error)
}

// Store scopes queries to a transaction and reports backend health.
type Store interface {
	Queries() Querier
	RunInTx(ctx context.Context, fn func(q Querier) error) error
	Ping(ctx context.Context) error
}

type UpsertUserParams struct {
	ID      uuid.UUID
	Subject string
	Email   string
	Role    string
}

// UpdateUserProfileParams carries a partial profile update; nil fields are left unchanged.
type UpdateUserProfileParams struct {
	ID               uuid.UUID
	FullName         *string
	Phone            *string
	Country          *string
	City             *string
	DateOfBirth      *string
	ReferralCode     *string
	ProfileCompleted bool
}

type ListUsersParams struct {
	Query  string
	Role   string
	Limit  int32
	Offset int32
}

type ListRecordsParams struct {
	UserID *uuid.UUID
	Status string
	Limit  int32
	Offset int32
}

type ClaimMaturedParams struct {
	AsOf  time.Time
	Limit int32
	Skip  []uuid.UUID
}

type TransitionParams struct {
	ID          uuid.UUID
	From        string
	To          string
	Note        string
	ProcessedBy *uuid.UUID
	At          time.Time
}

type ListNotificationsParams struct {
	UnreadOnly bool
	Limit      int32
	Offset     int32
}

type InsertAuditLogParams struct {
	EntityType string
	EntityID   uuid.UUID
	ActorID    *uuid.UUID
	Action     string
	PrevState  *string
	NextState  *string
	Metadata   []byte
}

type ReserveIdempotencyKeyParams struct {
	IdempotencyKey string
	RequestHash    string
	Method         string
	Path           string
}

type FinalizeIdempotencyKeyParams struct {
	ResponseStatus int32
	ResponseBody   []byte
	ContentType    string
	IdempotencyKey string
	RequestHash    string
}
