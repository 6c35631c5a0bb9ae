package repository

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ayo6706/profitwave/internal/domain"
	"github.com/ayo6706/profitwave/internal/models"
	"github.com/google/uuid"
)

// MemoryStore is a process-local Store. Transactions are serialised behind a
// single mutex and a failed transaction restores the state it started from.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
	now   func() time.Time
}

type memState struct {
	users       map[uuid.UUID]models.User
	subjects    map[string]uuid.UUID
	deposits    map[uuid.UUID]models.Deposit
	withdrawals map[uuid.UUID]models.Withdrawal
	investments map[uuid.UUID]models.Investment
	tokens      map[string]struct{}
	idempotency map[string]models.IdempotencyKey

	// insertion order, oldest first
	userOrder       []uuid.UUID
	depositOrder    []uuid.UUID
	withdrawalOrder []uuid.UUID
	investmentOrder []uuid.UUID
	ledger          []models.LedgerEntry
	notifications   []models.Notification
	support         []models.SupportMessage
	activities      []models.Activity
	audit           []models.AuditLog
	auditSeq        int64
}

func newMemState() *memState {
	return &memState{
		users:       map[uuid.UUID]models.User{},
		subjects:    map[string]uuid.UUID{},
		deposits:    map[uuid.UUID]models.Deposit{},
		withdrawals: map[uuid.UUID]models.Withdrawal{},
		investments: map[uuid.UUID]models.Investment{},
		tokens:      map[string]struct{}{},
		idempotency: map[string]models.IdempotencyKey{},
	}
}

func (s *memState) clone() *memState {
	return &memState{
		users:           maps.Clone(s.users),
		subjects:        maps.Clone(s.subjects),
		deposits:        maps.Clone(s.deposits),
		withdrawals:     maps.Clone(s.withdrawals),
		investments:     maps.Clone(s.investments),
		tokens:          maps.Clone(s.tokens),
		idempotency:     maps.Clone(s.idempotency),
		userOrder:       slices.Clone(s.userOrder),
		depositOrder:    slices.Clone(s.depositOrder),
		withdrawalOrder: slices.Clone(s.withdrawalOrder),
		investmentOrder: slices.Clone(s.investmentOrder),
		ledger:          slices.Clone(s.ledger),
		notifications:   slices.Clone(s.notifications),
		support:         slices.Clone(s.support),
		activities:      slices.Clone(s.activities),
		audit:           slices.Clone(s.audit),
		auditSeq:        s.auditSeq,
	}
}

type MemoryOption func(*MemoryStore)

// WithClock overrides the timestamp source for rows the store stamps itself.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		state: newMemState(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Queries returns a query set where every call is its own transaction.
func (s *MemoryStore) Queries() Querier {
	return &memQueries{store: s}
}

func (s *MemoryStore) RunInTx(ctx context.Context, fn func(q Querier) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(&memQueries{store: s, inTx: true}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

var _ Store = (*MemoryStore)(nil)
var _ Querier = (*memQueries)(nil)

type memQueries struct {
	store *MemoryStore
	inTx  bool
}

func (q *memQueries) lock() func() {
	if q.inTx {
		return func() {}
	}
	q.store.mu.Lock()
	return q.store.mu.Unlock
}

func (q *memQueries) st() *memState {
	return q.store.state
}

func token(kind, refType string, refID uuid.UUID) string {
	return kind + "/" + refType + "/" + refID.String()
}

// newestFirst orders rows by created_at DESC, breaking ties by reverse insertion.
func newestFirst[T any](rows []T, createdAt func(T) time.Time) []T {
	out := make([]T, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, rows[i])
	}
	slices.SortStableFunc(out, func(a, b T) int {
		return createdAt(b).Compare(createdAt(a))
	})
	return out
}

func paginate[T any](rows []T, limit, offset int32) []T {
	if offset > 0 {
		if int(offset) >= len(rows) {
			return []T{}
		}
		rows = rows[offset:]
	}
	if limit > 0 && int(limit) < len(rows) {
		rows = rows[:limit]
	}
	out := make([]T, len(rows))
	copy(out, rows)
	return out
}

func ordered[T any](order []uuid.UUID, byID map[uuid.UUID]T) []T {
	out := make([]T, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out
}

func (q *memQueries) UpsertUserBySubject(_ context.Context, arg UpsertUserParams) (models.User, bool, error) {
	defer q.lock()()
	s := q.st()

	if id, ok := s.subjects[arg.Subject]; ok {
		u := s.users[id]
		changed := false
		if arg.Email != "" && arg.Email != u.Email {
			u.Email = arg.Email
			changed = true
		}
		if arg.Role != u.Role {
			u.Role = arg.Role
			changed = true
		}
		if changed {
			u.UpdatedAt = q.store.now()
			s.users[id] = u
		}
		return u, false, nil
	}

	if _, ok := s.users[arg.ID]; ok {
		return models.User{}, false, fmt.Errorf("upsert user: %w", domain.ErrConflict)
	}
	now := q.store.now()
	u := models.User{
		ID:        arg.ID,
		Subject:   arg.Subject,
		Email:     arg.Email,
		Role:      arg.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.users[u.ID] = u
	s.subjects[u.Subject] = u.ID
	s.userOrder = append(s.userOrder, u.ID)
	return u, true, nil
}

func (q *memQueries) GetUser(_ context.Context, id uuid.UUID) (models.User, error) {
	defer q.lock()()
	u, ok := q.st().users[id]
	if !ok {
		return models.User{}, fmt.Errorf("get user: %w", domain.ErrNotFound)
	}
	return u, nil
}

func (q *memQueries) GetUserBySubject(_ context.Context, subject string) (models.User, error) {
	defer q.lock()()
	id, ok := q.st().subjects[subject]
	if !ok {
		return models.User{}, fmt.Errorf("get user by subject: %w", domain.ErrNotFound)
	}
	return q.st().users[id], nil
}

func (q *memQueries) UpdateUserProfile(_ context.Context, arg UpdateUserProfileParams) (models.User, error) {
	defer q.lock()()
	s := q.st()
	u, ok := s.users[arg.ID]
	if !ok {
		return models.User{}, fmt.Errorf("update user profile: %w", domain.ErrNotFound)
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&u.FullName, arg.FullName)
	set(&u.Phone, arg.Phone)
	set(&u.Country, arg.Country)
	set(&u.City, arg.City)
	set(&u.DateOfBirth, arg.DateOfBirth)
	set(&u.ReferralCode, arg.ReferralCode)
	u.ProfileCompleted = u.ProfileCompleted || arg.ProfileCompleted
	u.UpdatedAt = q.store.now()
	s.users[u.ID] = u
	return u, nil
}

func (q *memQueries) AdjustUserBalance(_ context.Context, id uuid.UUID, delta int64) (int64, error) {
	defer q.lock()()
	s := q.st()
	u, ok := s.users[id]
	if !ok {
		return 0, fmt.Errorf("adjust balance: user %s: %w", id, domain.ErrNotFound)
	}
	if delta > 0 && u.Balance > math.MaxInt64-delta {
		return 0, fmt.Errorf("adjust balance by %d: %w", delta, domain.ErrBalanceLimit)
	}
	if u.Balance+delta < 0 {
		return 0, fmt.Errorf("adjust balance by %d: %w", delta, domain.ErrInsufficientBalance)
	}
	u.Balance += delta
	u.UpdatedAt = q.store.now()
	s.users[id] = u
	return u.Balance, nil
}

func (q *memQueries) ListUsers(_ context.Context, arg ListUsersParams) ([]models.User, error) {
	defer q.lock()()
	s := q.st()
	needle := strings.ToLower(arg.Query)
	var matched []models.User
	for _, u := range ordered(s.userOrder, s.users) {
		if arg.Role != "" && u.Role != arg.Role {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(u.Email), needle) &&
			!strings.Contains(strings.ToLower(u.FullName), needle) &&
			!strings.Contains(strings.ToLower(u.Phone), needle) {
			continue
		}
		matched = append(matched, u)
	}
	rows := newestFirst(matched, func(u models.User) time.Time { return u.CreatedAt })
	return paginate(rows, arg.Limit, arg.Offset), nil
}

func (q *memQueries) InsertDeposit(_ context.Context, d models.Deposit) (models.Deposit, error) {
	defer q.lock()()
	s := q.st()
	if _, ok := s.deposits[d.ID]; ok {
		return models.Deposit{}, fmt.Errorf("insert deposit: %w", domain.ErrConflict)
	}
	for _, existing := range s.deposits {
		if existing.UserID == d.UserID && existing.Reference == d.Reference {
			return models.Deposit{}, fmt.Errorf("insert deposit: %w", domain.ErrConflict)
		}
	}
	d.UpdatedAt = d.CreatedAt
	s.deposits[d.ID] = d
	s.depositOrder = append(s.depositOrder, d.ID)
	return d, nil
}

func (q *memQueries) GetDeposit(_ context.Context, id uuid.UUID) (models.Deposit, error) {
	defer q.lock()()
	d, ok := q.st().deposits[id]
	if !ok {
		return models.Deposit{}, fmt.Errorf("get deposit: %w", domain.ErrNotFound)
	}
	return d, nil
}

func (q *memQueries) GetDepositByReference(_ context.Context, userID uuid.UUID, reference string) (models.Deposit, error) {
	defer q.lock()()
	for _, d := range q.st().deposits {
		if d.UserID == userID && d.Reference == reference {
			return d, nil
		}
	}
	return models.Deposit{}, fmt.Errorf("get deposit by reference: %w", domain.ErrNotFound)
}

func (q *memQueries) TransitionDepositStatus(_ context.Context, arg TransitionParams) (models.Deposit, error) {
	defer q.lock()()
	s := q.st()
	d, ok := s.deposits[arg.ID]
	if !ok {
		return models.Deposit{}, fmt.Errorf("transition deposit: %w", domain.ErrNotFound)
	}
	if d.Status != arg.From {
		return models.Deposit{}, fmt.Errorf("transition deposit: status is %s: %w", d.Status, domain.ErrAlreadyProcessed)
	}
	at := arg.At
	d.Status = arg.To
	d.Note = arg.Note
	d.ProcessedBy = arg.ProcessedBy
	d.ProcessedAt = &at
	d.UpdatedAt = at
	s.deposits[d.ID] = d
	return d, nil
}

func (q *memQueries) ListDeposits(_ context.Context, arg ListRecordsParams) ([]models.Deposit, error) {
	defer q.lock()()
	s := q.st()
	var matched []models.Deposit
	for _, d := range ordered(s.depositOrder, s.deposits) {
		if matchRecord(arg, d.UserID, d.Status) {
			matched = append(matched, d)
		}
	}
	rows := newestFirst(matched, func(d models.Deposit) time.Time { return d.CreatedAt })
	return paginate(rows, arg.Limit, arg.Offset), nil
}

func (q *memQueries) InsertWithdrawal(_ context.Context, w models.Withdrawal) (models.Withdrawal, error) {
	defer q.lock()()
	s := q.st()
	if _, ok := s.withdrawals[w.ID]; ok {
		return models.Withdrawal{}, fmt.Errorf("insert withdrawal: %w", domain.ErrConflict)
	}
	for _, existing := range s.withdrawals {
		if existing.UserID == w.UserID && existing.RequestKey == w.RequestKey {
			return models.Withdrawal{}, fmt.Errorf("insert withdrawal: %w", domain.ErrConflict)
		}
	}
	w.UpdatedAt = w.CreatedAt
	s.withdrawals[w.ID] = w
	s.withdrawalOrder = append(s.withdrawalOrder, w.ID)
	return w, nil
}

func (q *memQueries) GetWithdrawal(_ context.Context, id uuid.UUID) (models.Withdrawal, error) {
	defer q.lock()()
	w, ok := q.st().withdrawals[id]
	if !ok {
		return models.Withdrawal{}, fmt.Errorf("get withdrawal: %w", domain.ErrNotFound)
	}
	return w, nil
}

func (q *memQueries) GetWithdrawalByRequestKey(_ context.Context, userID uuid.UUID, requestKey string) (models.Withdrawal, error) {
	defer q.lock()()
	for _, w := range q.st().withdrawals {
		if w.UserID == userID && w.RequestKey == requestKey {
			return w, nil
		}
	}
	return models.Withdrawal{}, fmt.Errorf("get withdrawal by request key: %w", domain.ErrNotFound)
}

func (q *memQueries) TransitionWithdrawalStatus(_ context.Context, arg TransitionParams) (models.Withdrawal, error) {
	defer q.lock()()
	s := q.st()
	w, ok := s.withdrawals[arg.ID]
	if !ok {
		return models.Withdrawal{}, fmt.Errorf("transition withdrawal: %w", domain.ErrNotFound)
	}
	if w.Status != arg.From {
		return models.Withdrawal{}, fmt.Errorf("transition withdrawal: status is %s: %w", w.Status, domain.ErrAlreadyProcessed)
	}
	at := arg.At
	w.Status = arg.To
	w.Note = arg.Note
	w.ProcessedBy = arg.ProcessedBy
	w.ProcessedAt = &at
	w.UpdatedAt = at
	s.withdrawals[w.ID] = w
	return w, nil
}

func (q *memQueries) ListWithdrawals(_ context.Context, arg ListRecordsParams) ([]models.Withdrawal, error) {
	defer q.lock()()
	s := q.st()
	var matched []models.Withdrawal
	for _, w := range ordered(s.withdrawalOrder, s.withdrawals) {
		if matchRecord(arg, w.UserID, w.Status) {
			matched = append(matched, w)
		}
	}
	rows := newestFirst(matched, func(w models.Withdrawal) time.Time { return w.CreatedAt })
	return paginate(rows, arg.Limit, arg.Offset), nil
}

func (q *memQueries) InsertInvestment(_ context.Context, inv models.Investment) (models.Investment, error) {
	defer q.lock()()
	s := q.st()
	if _, ok := s.investments[inv.ID]; ok {
		return models.Investment{}, fmt.Errorf("insert investment: %w", domain.ErrConflict)
	}
	inv.CreatedAt = inv.StartsAt
	s.investments[inv.ID] = inv
	s.investmentOrder = append(s.investmentOrder, inv.ID)
	return inv, nil
}

func (q *memQueries) GetInvestment(_ context.Context, id uuid.UUID) (models.Investment, error) {
	defer q.lock()()
	inv, ok := q.st().investments[id]
	if !ok {
		return models.Investment{}, fmt.Errorf("get investment: %w", domain.ErrNotFound)
	}
	return inv, nil
}

func (q *memQueries) ListInvestments(_ context.Context, arg ListRecordsParams) ([]models.Investment, error) {
	defer q.lock()()
	s := q.st()
	var matched []models.Investment
	for _, inv := range ordered(s.investmentOrder, s.investments) {
		if matchRecord(arg, inv.UserID, inv.Status) {
			matched = append(matched, inv)
		}
	}
	rows := newestFirst(matched, func(inv models.Investment) time.Time { return inv.CreatedAt })
	return paginate(rows, arg.Limit, arg.Offset), nil
}

func (q *memQueries) ClaimMaturedInvestments(_ context.Context, arg ClaimMaturedParams) ([]models.Investment, error) {
	defer q.lock()()
	s := q.st()
	var due []models.Investment
	for _, inv := range ordered(s.investmentOrder, s.investments) {
		if inv.Status == domain.InvestmentActive && !inv.MaturesAt.After(arg.AsOf) && !slices.Contains(arg.Skip, inv.ID) {
			due = append(due, inv)
		}
	}
	slices.SortStableFunc(due, func(a, b models.Investment) int {
		return a.MaturesAt.Compare(b.MaturesAt)
	})
	return paginate(due, arg.Limit, 0), nil
}

func (q *memQueries) TransitionInvestmentStatus(_ context.Context, arg TransitionParams) (models.Investment, error) {
	defer q.lock()()
	s := q.st()
	inv, ok := s.investments[arg.ID]
	if !ok {
		return models.Investment{}, fmt.Errorf("transition investment: %w", domain.ErrNotFound)
	}
	if inv.Status != arg.From {
		return models.Investment{}, fmt.Errorf("transition investment: status is %s: %w", inv.Status, domain.ErrAlreadyProcessed)
	}
	at := arg.At
	inv.Status = arg.To
	inv.SettledAt = &at
	s.investments[inv.ID] = inv
	return inv, nil
}

func (q *memQueries) InsertLedgerEntry(_ context.Context, e models.LedgerEntry) (models.LedgerEntry, error) {
	defer q.lock()()
	s := q.st()
	key := token(e.Kind, e.RefType, e.RefID)
	if _, ok := s.tokens[key]; ok {
		return models.LedgerEntry{}, fmt.Errorf("insert ledger entry %s: %w", key, domain.ErrAlreadyProcessed)
	}
	if _, ok := s.users[e.UserID]; !ok {
		return models.LedgerEntry{}, fmt.Errorf("insert ledger entry: user %s: %w", e.UserID, domain.ErrNotFound)
	}
	s.tokens[key] = struct{}{}
	s.ledger = append(s.ledger, e)
	return e, nil
}

func (q *memQueries) ListLedgerEntries(_ context.Context, userID uuid.UUID, limit, offset int32) ([]models.LedgerEntry, error) {
	defer q.lock()()
	var matched []models.LedgerEntry
	for _, e := range q.st().ledger {
		if e.UserID == userID {
			matched = append(matched, e)
		}
	}
	rows := newestFirst(matched, func(e models.LedgerEntry) time.Time { return e.CreatedAt })
	return paginate(rows, limit, offset), nil
}

func (q *memQueries) GetBalanceMismatches(_ context.Context, limit int32) ([]models.BalanceMismatch, error) {
	defer q.lock()()
	s := q.st()
	sums := make(map[uuid.UUID]int64, len(s.users))
	for _, e := range s.ledger {
		sums[e.UserID] += e.Amount
	}
	out := []models.BalanceMismatch{}
	for _, u := range s.users {
		if u.Balance != sums[u.ID] {
			out = append(out, models.BalanceMismatch{UserID: u.ID, Balance: u.Balance, LedgerSum: sums[u.ID]})
		}
	}
	slices.SortFunc(out, func(a, b models.BalanceMismatch) int {
		return cmp.Compare(a.UserID.String(), b.UserID.String())
	})
	return paginate(out, limit, 0), nil
}

func (q *memQueries) InsertNotification(_ context.Context, n models.Notification) (models.Notification, error) {
	defer q.lock()()
	s := q.st()
	s.notifications = append(s.notifications, n)
	return n, nil
}

func (q *memQueries) ListNotifications(_ context.Context, arg ListNotificationsParams) ([]models.Notification, error) {
	defer q.lock()()
	var matched []models.Notification
	for _, n := range q.st().notifications {
		if arg.UnreadOnly && n.Read {
			continue
		}
		matched = append(matched, n)
	}
	rows := newestFirst(matched, func(n models.Notification) time.Time { return n.CreatedAt })
	return paginate(rows, arg.Limit, arg.Offset), nil
}

func (q *memQueries) MarkNotificationRead(_ context.Context, id uuid.UUID) error {
	defer q.lock()()
	s := q.st()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].Read = true
			return nil
		}
	}
	return fmt.Errorf("mark notification read: %w", domain.ErrNotFound)
}

func (q *memQueries) InsertSupportMessage(_ context.Context, m models.SupportMessage) (models.SupportMessage, error) {
	defer q.lock()()
	s := q.st()
	if _, ok := s.users[m.UserID]; !ok {
		return models.SupportMessage{}, fmt.Errorf("insert support message: user %s: %w", m.UserID, domain.ErrNotFound)
	}
	s.support = append(s.support, m)
	return m, nil
}

func (q *memQueries) ListSupportMessages(_ context.Context, userID uuid.UUID, limit, offset int32) ([]models.SupportMessage, error) {
	defer q.lock()()
	var matched []models.SupportMessage
	for _, m := range q.st().support {
		if m.UserID == userID {
			matched = append(matched, m)
		}
	}
	slices.SortStableFunc(matched, func(a, b models.SupportMessage) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return paginate(matched, limit, offset), nil
}

func (q *memQueries) MarkSupportMessagesRead(_ context.Context, userID uuid.UUID, readerRole string) (int64, error) {
	if readerRole != domain.RoleUser && readerRole != domain.RoleAdmin {
		return 0, domain.Invalid("reader_role", "unknown role %q", readerRole)
	}
	defer q.lock()()
	s := q.st()
	var n int64
	for i := range s.support {
		m := &s.support[i]
		if m.UserID != userID {
			continue
		}
		switch readerRole {
		case domain.RoleUser:
			if m.SenderRole == domain.RoleAdmin && !m.ReadByUser {
				m.ReadByUser = true
				n++
			}
		case domain.RoleAdmin:
			if m.SenderRole == domain.RoleUser && !m.ReadByAdmin {
				m.ReadByAdmin = true
				n++
			}
		}
	}
	return n, nil
}

func (q *memQueries) ListSupportThreads(_ context.Context, limit, offset int32) ([]models.SupportThread, error) {
	defer q.lock()()
	s := q.st()
	threads := map[uuid.UUID]*models.SupportThread{}
	for _, m := range s.support {
		t, ok := threads[m.UserID]
		if !ok {
			u := s.users[m.UserID]
			t = &models.SupportThread{UserID: m.UserID, Email: u.Email, FullName: u.FullName}
			threads[m.UserID] = t
		}
		if !m.CreatedAt.Before(t.LastMessageAt) {
			t.LastMessage = m.Body
			t.LastMessageAt = m.CreatedAt
		}
		if m.SenderRole == domain.RoleUser && !m.ReadByAdmin {
			t.UnreadCount++
		}
	}
	out := make([]models.SupportThread, 0, len(threads))
	for _, t := range threads {
		out = append(out, *t)
	}
	slices.SortFunc(out, func(a, b models.SupportThread) int {
		if c := b.LastMessageAt.Compare(a.LastMessageAt); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID.String(), b.UserID.String())
	})
	return paginate(out, limit, offset), nil
}

func (q *memQueries) InsertActivity(_ context.Context, a models.Activity) (models.Activity, error) {
	defer q.lock()()
	s := q.st()
	if _, ok := s.users[a.UserID]; !ok {
		return models.Activity{}, fmt.Errorf("insert activity: user %s: %w", a.UserID, domain.ErrNotFound)
	}
	s.activities = append(s.activities, a)
	return a, nil
}

func (q *memQueries) ListActivities(_ context.Context, userID uuid.UUID, limit, offset int32) ([]models.Activity, error) {
	defer q.lock()()
	var matched []models.Activity
	for _, a := range q.st().activities {
		if a.UserID == userID {
			matched = append(matched, a)
		}
	}
	rows := newestFirst(matched, func(a models.Activity) time.Time { return a.CreatedAt })
	return paginate(rows, limit, offset), nil
}

func (q *memQueries) InsertAuditLog(_ context.Context, arg InsertAuditLogParams) (int64, error) {
	defer q.lock()()
	s := q.st()
	s.auditSeq++
	entry := models.AuditLog{
		ID:         s.auditSeq,
		EntityType: arg.EntityType,
		EntityID:   arg.EntityID,
		ActorID:    arg.ActorID,
		Action:     arg.Action,
		Metadata:   arg.Metadata,
		CreatedAt:  q.store.now(),
	}
	if arg.PrevState != nil {
		entry.PrevState = *arg.PrevState
	}
	if arg.NextState != nil {
		entry.NextState = *arg.NextState
	}
	s.audit = append(s.audit, entry)
	return entry.ID, nil
}

func (q *memQueries) ListAuditLogs(_ context.Context, entityType string, entityID uuid.UUID) ([]models.AuditLog, error) {
	defer q.lock()()
	out := []models.AuditLog{}
	for _, a := range q.st().audit {
		if a.EntityType == entityType && a.EntityID == entityID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (q *memQueries) GetIdempotencyKey(_ context.Context, key string) (models.IdempotencyKey, error) {
	defer q.lock()()
	k, ok := q.st().idempotency[key]
	if !ok {
		return models.IdempotencyKey{}, fmt.Errorf("get idempotency key: %w", domain.ErrNotFound)
	}
	return k, nil
}

func (q *memQueries) ReserveIdempotencyKey(_ context.Context, arg ReserveIdempotencyKeyParams) (bool, error) {
	defer q.lock()()
	s := q.st()
	if _, ok := s.idempotency[arg.IdempotencyKey]; ok {
		return false, nil
	}
	s.idempotency[arg.IdempotencyKey] = models.IdempotencyKey{
		Key:         arg.IdempotencyKey,
		RequestHash: arg.RequestHash,
		Method:      arg.Method,
		Path:        arg.Path,
		ContentType: "application/json",
		InProgress:  true,
		CreatedAt:   q.store.now(),
	}
	return true, nil
}

func (q *memQueries) FinalizeIdempotencyKey(_ context.Context, arg FinalizeIdempotencyKeyParams) (models.IdempotencyKey, error) {
	defer q.lock()()
	s := q.st()
	k, ok := s.idempotency[arg.IdempotencyKey]
	if !ok || k.RequestHash != arg.RequestHash {
		return models.IdempotencyKey{}, fmt.Errorf("finalize idempotency key: %w", domain.ErrNotFound)
	}
	k.ResponseStatus = int(arg.ResponseStatus)
	k.ResponseBody = slices.Clone(arg.ResponseBody)
	k.ContentType = arg.ContentType
	k.InProgress = false
	s.idempotency[arg.IdempotencyKey] = k
	return k, nil
}

func (q *memQueries) ReleaseIdempotencyKey(_ context.Context, key, requestHash string) error {
	defer q.lock()()
	s := q.st()
	if k, ok := s.idempotency[key]; ok && k.RequestHash == requestHash && k.InProgress {
		delete(s.idempotency, key)
	}
	return nil
}

func (q *memQueries) GetPlatformStats(_ context.Context) (models.PlatformStats, error) {
	defer q.lock()()
	s := q.st()
	var out models.PlatformStats
	for _, u := range s.users {
		out.Users++
		out.TotalBalances += u.Balance
	}
	for _, d := range s.deposits {
		switch d.Status {
		case domain.StatusPending:
			out.PendingDeposits++
			out.PendingDepositSum += d.Amount
		case domain.StatusApproved:
			out.ApprovedDepositSum += d.Amount
		}
	}
	for _, w := range s.withdrawals {
		switch w.Status {
		case domain.StatusPending:
			out.PendingWithdrawals++
			out.PendingWithdrawalSum += w.Amount
		case domain.StatusApproved:
			out.ApprovedWithdrawalSum += w.Amount
		}
	}
	for _, inv := range s.investments {
		if inv.Status == domain.InvestmentActive {
			out.ActiveInvestments++
			out.ActiveInvestedSum += inv.Amount
		}
	}
	for _, n := range s.notifications {
		if !n.Read {
			out.UnreadNotifications++
		}
	}
	return out, nil
}

func matchRecord(arg ListRecordsParams, userID uuid.UUID, status string) bool {
	if arg.UserID != nil && *arg.UserID != userID {
		return false
	}
	return arg.Status == "" || arg.Status == status
}
