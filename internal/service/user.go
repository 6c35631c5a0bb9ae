package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ayo6706/profitwave/internal/domain"
	"github.com/ayo6706/profitwave/internal/models"
	"github.com/ayo6706/profitwave/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	phonePattern    = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
	referralPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)
)

const minimumAge = 18

func validPhone(v string) bool {
	return phonePattern.MatchString(strings.ReplaceAll(v, " ", ""))
}

// UserService manages identities mirrored from the identity provider and
// their profiles.
type UserService struct {
	store    QueryStore
	audit    *AuditService
	activity *ActivityService
}

func NewUserService(store QueryStore) *UserService {
	return &UserService{
		store:    store,
		audit:    NewAuditService(),
		activity: NewActivityService(store),
	}
}

type EnsureUserRequest struct {
	Subject  string
	Email    string
	Role     string
	ClientIP string
}

// EnsureUser returns the user for a token subject, creating it on first sight.
func (s *UserService) EnsureUser(ctx context.Context, req EnsureUserRequest) (models.User, bool, error) {
	req.Subject = strings.TrimSpace(req.Subject)
	if req.Subject == "" {
		return models.User{}, false, fmt.Errorf("token subject is empty: %w", domain.ErrUnauthorized)
	}
	if req.Role != domain.RoleAdmin {
		req.Role = domain.RoleUser
	}

	var (
		user    models.User
		created bool
	)
	err := s.store.RunInTx(ctx, func(qtx repository.Querier) error {
		var err error
		user, created, err = qtx.UpsertUserBySubject(ctx, repository.UpsertUserParams{
			ID:      uuid.New(),
			Subject: req.Subject,
			Email:   strings.TrimSpace(req.Email),
			Role:    req.Role,
		})
		if err != nil {
			return fmt.Errorf("upsert user: %w", err)
		}
		if !created {
			return nil
		}
		return s.activity.Record(ctx, qtx, user.ID, domain.ActivitySignup, user.Email, req.ClientIP)
	})
	if err != nil {
		return models.User{}, false, err
	}
	if created {
		zap.L().Info("user signed up", zap.String("user_id", user.ID.String()), zap.String("role", user.Role))
	}
	return user, created, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (models.User, error) {
	return s.store.Queries().GetUser(ctx, id)
}

func (s *UserService) GetBySubject(ctx context.Context, subject string) (models.User, error) {
	return s.store.Queries().GetUserBySubject(ctx, subject)
}

// CompleteProfileRequest is a partial profile update; nil fields are unchanged.
type CompleteProfileRequest struct {
	UserID       uuid.UUID
	FullName     *string
	Phone        *string
	Country      *string
	City         *string
	DateOfBirth  *string
	ReferralCode *string
	ClientIP     string
}

func (r *CompleteProfileRequest) normalize(today time.Time) error {
	r.FullName = optionalTrimmed(r.FullName)
	r.Phone = optionalTrimmed(r.Phone)
	r.Country = optionalTrimmed(r.Country)
	r.City = optionalTrimmed(r.City)
	r.DateOfBirth = optionalTrimmed(r.DateOfBirth)
	r.ReferralCode = optionalTrimmed(r.ReferralCode)

	if r.FullName != nil {
		if n := utf8.RuneCountInString(*r.FullName); n < 2 || n > 100 {
			return domain.Invalid("full_name", "must be 2 to 100 characters")
		}
	}
	if r.Phone != nil {
		if !validPhone(*r.Phone) {
			return domain.Invalid("phone", "must be 8 to 15 digits, optionally prefixed with +")
		}
		p := strings.ReplaceAll(*r.Phone, " ", "")
		r.Phone = &p
	}
	if r.Country != nil {
		if n := utf8.RuneCountInString(*r.Country); n < 2 || n > 56 {
			return domain.Invalid("country", "must be 2 to 56 characters")
		}
	}
	if r.City != nil && utf8.RuneCountInString(*r.City) > 80 {
		return domain.Invalid("city", "must be at most 80 characters")
	}
	if r.DateOfBirth != nil && *r.DateOfBirth != "" {
		dob, err := time.Parse(time.DateOnly, *r.DateOfBirth)
		if err != nil {
			return domain.Invalid("date_of_birth", "must be formatted YYYY-MM-DD")
		}
		if dob.AddDate(minimumAge, 0, 0).After(today) {
			return domain.Invalid("date_of_birth", "you must be at least %d years old", minimumAge)
		}
	}
	if r.ReferralCode != nil && *r.ReferralCode != "" && !referralPattern.MatchString(*r.ReferralCode) {
		return domain.Invalid("referral_code", "must be up to 32 letters, digits, _ or -")
	}
	return nil
}

func profileComplete(u models.User) bool {
	return u.FullName != "" && u.Phone != "" && u.Country != ""
}

// CompleteProfile applies a partial update. The profile counts as completed
// once full name, phone and country are all set; it never reverts.
func (s *UserService) CompleteProfile(ctx context.Context, req CompleteProfileRequest) (models.User, error) {
	if err := req.normalize(now()); err != nil {
		return models.User{}, err
	}

	var user models.User
	err := s.store.RunInTx(ctx, func(qtx repository.Querier) error {
		current, err := qtx.GetUser(ctx, req.UserID)
		if err != nil {
			return err
		}

		merged := current
		apply := func(dst *string, v *string) {
			if v != nil {
				*dst = *v
			}
		}
		apply(&merged.FullName, req.FullName)
		apply(&merged.Phone, req.Phone)
		apply(&merged.Country, req.Country)
		if current.ProfileCompleted && !profileComplete(merged) {
			return domain.Invalid("profile", "full_name, phone and country cannot be cleared once the profile is completed")
		}

		user, err = qtx.UpdateUserProfile(ctx, repository.UpdateUserProfileParams{
			ID:               req.UserID,
			FullName:         req.FullName,
			Phone:            req.Phone,
			Country:          req.Country,
			City:             req.City,
			DateOfBirth:      req.DateOfBirth,
			ReferralCode:     req.ReferralCode,
			ProfileCompleted: profileComplete(merged),
		})
		if err != nil {
			return fmt.Errorf("update profile: %w", err)
		}

		if current.ProfileCompleted || !user.ProfileCompleted {
			return nil
		}
		if err := s.audit.Write(ctx, qtx, "user", user.ID, &user.ID, domain.ActivityProfileCompleted, "", "", map[string]any{
			"country": user.Country,
		}); err != nil {
			return err
		}
		return s.activity.Record(ctx, qtx, user.ID, domain.ActivityProfileCompleted, "", req.ClientIP)
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// List is the admin user search over email, name and phone.
func (s *UserService) List(ctx context.Context, query, role string, limit, offset int32) ([]models.User, error) {
	switch role {
	case "", domain.RoleUser, domain.RoleAdmin:
	default:
		return nil, domain.Invalid("role", "must be user or admin")
	}
	limit, offset = normalizePage(limit, offset)
	return s.store.Queries().ListUsers(ctx, repository.ListUsersParams{
		Query:  strings.TrimSpace(query),
		Role:   role,
		Limit:  limit,
		Offset: offset,
	})
}

// UserDetail is the admin view of one user.
type UserDetail struct {
	User          models.User          `json:"user"`
	RecentLedger  []models.LedgerEntry `json:"recent_ledger"`
	RecentDeposit []models.Deposit     `json:"recent_deposits"`
}

const recentItems = 10

func (s *UserService) Detail(ctx context.Context, id uuid.UUID) (UserDetail, error) {
	q := s.store.Queries()
	u, err := q.GetUser(ctx, id)
	if err != nil {
		return UserDetail{}, err
	}
	entries, err := q.ListLedgerEntries(ctx, id, recentItems, 0)
	if err != nil {
		return UserDetail{}, fmt.Errorf("list ledger entries: %w", err)
	}
	deposits, err := q.ListDeposits(ctx, repository.ListRecordsParams{UserID: &id, Limit: recentItems})
	if err != nil {
		return UserDetail{}, fmt.Errorf("list deposits: %w", err)
	}
	return UserDetail{User: u, RecentLedger: entries, RecentDeposit: deposits}, nil
}
