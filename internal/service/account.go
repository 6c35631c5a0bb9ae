package service

import (
	"context"
	"math"

	"github.com/ayo6706/profitwave/internal/domain"
	"github.com/ayo6706/profitwave/internal/models"
	"github.com/google/uuid"
)

// AccountService exposes a user's wallet: balance and ledger statement.
type AccountService struct {
	store QueryStore
}

func NewAccountService(store QueryStore) *AccountService {
	return &AccountService{store: store}
}

// Balance is the wallet view of a user.
type Balance struct {
	UserID    uuid.UUID `json:"user_id"`
	Balance   int64     `json:"balance"`
	Currency  string    `json:"currency"`
	Formatted string    `json:"formatted"`
}

func (s *AccountService) GetBalance(ctx context.Context, userID uuid.UUID) (Balance, error) {
	u, err := s.store.Queries().GetUser(ctx, userID)
	if err != nil {
		return Balance{}, err
	}
	m := domain.NewMoney(u.Balance)
	return Balance{UserID: u.ID, Balance: m.Amount, Currency: m.Currency, Formatted: m.String()}, nil
}

const defaultStatementPageSize = 10

// StatementWindow converts a 1-based page and a page size into the limit and
// offset of a ledger query. Zero values select the first page and the default
// size.
func StatementWindow(page, pageSize int) (limit, offset int32, err error) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = defaultStatementPageSize
	}
	if page < 1 || page > math.MaxInt32 {
		return 0, 0, domain.Invalid("page", "must be between 1 and %d", math.MaxInt32)
	}
	if pageSize < 1 || pageSize > int(maxPageSize) {
		return 0, 0, domain.Invalid("page_size", "must be between 1 and %d", maxPageSize)
	}
	off := int64(page-1) * int64(pageSize)
	if off > math.MaxInt32 {
		return 0, 0, domain.Invalid("page", "is past the last addressable page")
	}
	return int32(pageSize), int32(off), nil
}

// GetStatement pages through ledger entries, newest first. page is 1-based.
func (s *AccountService) GetStatement(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]models.LedgerEntry, error) {
	limit, offset, err := StatementWindow(page, pageSize)
	if err != nil {
		return nil, err
	}
	return s.store.Queries().ListLedgerEntries(ctx, userID, limit, offset)
}
