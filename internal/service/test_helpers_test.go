package service

import (
	"context"
	"testing"

	"github.com/ayo6706/profitwave/internal/domain"
	"github.com/ayo6706/profitwave/internal/models"
	"github.com/ayo6706/profitwave/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.openly.dev/pointy"
)

type testEnv struct {
	ctx           context.Context
	store         *repository.MemoryStore
	users         *UserService
	accounts      *AccountService
	deposits      *DepositService
	withdrawals   *WithdrawalService
	investments   *InvestmentService
	support       *SupportService
	activity      *ActivityService
	notifications *NotificationService
	stats         *StatsService
	admin         models.User
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	env := &testEnv{
		ctx:           context.Background(),
		store:         store,
		users:         NewUserService(store),
		accounts:      NewAccountService(store),
		deposits:      NewDepositService(store, domain.DefaultMinDeposit),
		withdrawals:   NewWithdrawalService(store, domain.DefaultMinWithdrawal),
		investments:   NewInvestmentService(store),
		support:       NewSupportService(store),
		activity:      NewActivityService(store),
		notifications: NewNotificationService(store),
		stats:         NewStatsService(store),
	}
	env.admin = env.signup(t, "admin-"+uuid.NewString(), domain.RoleAdmin)
	return env
}

func (e *testEnv) signup(t *testing.T, subject, role string) models.User {
	t.Helper()
	u, _, err := e.users.EnsureUser(e.ctx, EnsureUserRequest{Subject: subject, Email: subject + "@example.com", Role: role, ClientIP: "127.0.0.1"})
	require.NoError(t, err)
	return u
}

// verifiedUser signs up a user with a completed profile.
func (e *testEnv) verifiedUser(t *testing.T) models.User {
	t.Helper()
	u := e.signup(t, "user-"+uuid.NewString(), domain.RoleUser)
	u, err := e.users.CompleteProfile(e.ctx, CompleteProfileRequest{
		UserID:   u.ID,
		FullName: pointy.String("Ada Nkemdirim"),
		Phone:    pointy.String("+237650000000"),
		Country:  pointy.String("Cameroon"),
	})
	require.NoError(t, err)
	require.True(t, u.ProfileCompleted)
	return u
}

// fund credits amount through a confirmed and approved deposit.
func (e *testEnv) fund(t *testing.T, userID uuid.UUID, amount int64) {
	t.Helper()
	d, _, err := e.deposits.Confirm(e.ctx, ConfirmDepositRequest{
		UserID:     userID,
		Amount:     amount,
		Method:     domain.MethodMTNMoMo,
		PayerPhone: "650000000",
		Reference:  "fund-" + uuid.NewString(),
	})
	require.NoError(t, err)
	_, err = e.deposits.Approve(e.ctx, e.admin.ID, d.ID, "")
	require.NoError(t, err)
}

func (e *testEnv) balance(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	b, err := e.accounts.GetBalance(e.ctx, userID)
	require.NoError(t, err)
	return b.Balance
}
