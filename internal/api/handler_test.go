package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/ayo6706/profitwave/internal/api"
	"github.com/ayo6706/profitwave/internal/config"
	"github.com/ayo6706/profitwave/internal/domain"
	"github.com/ayo6706/profitwave/internal/idempotency"
	"github.com/ayo6706/profitwave/internal/models"
	"github.com/ayo6706/profitwave/internal/observability"
	"github.com/ayo6706/profitwave/internal/repository"
	"github.com/ayo6706/profitwave/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testJWTSecret   = "test-secret-0123456789-test-secret"
	testJWTIssuer   = "profitwave-test"
	testJWTAudience = "profitwave-api-test"
)

func TestMain(m *testing.M) {
	zap.ReplaceGlobals(zap.NewNop())
	observability.Init()
	os.Exit(m.Run())
}

type testAPI struct {
	handler http.Handler
	store   *repository.MemoryStore
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()
	store := repository.NewMemoryStore()
	cfg := &config.Config{
		HTTPPort:           "0",
		StorageBackend:     config.StorageMemory,
		AuthSecret:         testJWTSecret,
		AuthIssuer:         testJWTIssuer,
		AuthAudience:       testJWTAudience,
		MinDeposit:         domain.DefaultMinDeposit,
		MinWithdrawal:      domain.DefaultMinWithdrawal,
		PublicRateLimitRPS: 1000,
		AuthRateLimitRPS:   1000,
		IdempotencyTTL:     time.Hour,
		CORSAllowedOrigins: []string{"*"},
	}
	idemStore := idempotency.NewStore(nil, store.Queries(), cfg.IdempotencyTTL)
	svc := service.NewServices(store, cfg.MinDeposit, cfg.MinWithdrawal)
	router := api.NewRouter(cfg, zap.NewNop(), store, idemStore, nil, svc)
	return &testAPI{handler: router.Routes(), store: store}
}

func tokenFor(subject, role string) string {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   subject,
		"email": subject + "@example.com",
		"role":  role,
		"iss":   testJWTIssuer,
		"aud":   testJWTAudience,
		"iat":   now.Unix(),
		"nbf":   now.Add(-30 * time.Second).Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	})
	signed, _ := token.SignedString([]byte(testJWTSecret))
	return signed
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

// decodeData unwraps the success envelope into dst.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	require.True(t, env.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	require.Contains(t, w.Header().Get("Content-Type"), "application/problem+json")
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	return body
}

// signupWithProfile registers subject and completes the profile.
func (a *testAPI) signupWithProfile(t *testing.T, subject string) (string, models.User) {
	t.Helper()
	token := tokenFor(subject, domain.RoleUser)
	w := a.do(t, http.MethodPost, "/v1/me", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(t, http.MethodPut, "/v1/me/profile", token, map[string]string{
		"full_name": "Amara Nkemdirim",
		"phone":     "+237650000000",
		"country":   "Cameroon",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var user models.User
	decodeData(t, w, &user)
	require.True(t, user.ProfileCompleted)
	return token, user
}

// fundViaAdmin confirms a deposit as the user and approves it as an admin.
func (a *testAPI) fundViaAdmin(t *testing.T, userToken string, amount int64) {
	t.Helper()
	w := a.do(t, http.MethodPost, "/v1/deposits", userToken, map[string]any{
		"amount":      amount,
		"method":      domain.MethodMTNMoMo,
		"payer_phone": "650000000",
		"reference":   "MP" + uuid.NewString()[:8],
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var deposit models.Deposit
	decodeData(t, w, &deposit)
	assert.Equal(t, domain.StatusPending, deposit.Status)

	w = a.do(t, http.MethodPost, "/v1/admin/deposits/"+deposit.ID.String()+"/approve", tokenFor("ops-admin", domain.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func (a *testAPI) balanceOf(t *testing.T, token string) int64 {
	t.Helper()
	w := a.do(t, http.MethodGet, "/v1/me/balance", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var b service.Balance
	decodeData(t, w, &b)
	assert.Equal(t, domain.Currency, b.Currency)
	return b.Balance
}

func TestRFC7807ProblemDetails(t *testing.T) {
	a := setupAPI(t)

	w := a.do(t, http.MethodGet, "/v1/me/balance", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	body := decodeProblem(t, w)
	assert.NotEmpty(t, body["type"])
	assert.Equal(t, float64(http.StatusUnauthorized), body["status"])
	assert.Equal(t, "unauthorized", body["code"])
	assert.NotEmpty(t, body["title"])
	assert.NotEmpty(t, body["detail"])
	assert.Equal(t, "/v1/me/balance", body["instance"])
	assert.NotEmpty(t, body["request_id"])
}

func TestInvalidTokenRejected(t *testing.T) {
	a := setupAPI(t)

	w := a.do(t, http.MethodGet, "/v1/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "mallory",
		"iss": testJWTIssuer,
		"aud": testJWTAudience,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, _ := forged.SignedString([]byte("some-other-secret-some-other-secret"))
	w = a.do(t, http.MethodGet, "/v1/me", signed, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignupIsIdempotent(t *testing.T) {
	a := setupAPI(t)
	token := tokenFor("subject-1", domain.RoleUser)

	w := a.do(t, http.MethodPost, "/v1/me", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var first models.User
	decodeData(t, w, &first)
	assert.Equal(t, "subject-1@example.com", first.Email)
	assert.Equal(t, domain.RoleUser, first.Role)
	assert.Zero(t, first.Balance)

	w = a.do(t, http.MethodPost, "/v1/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var second models.User
	decodeData(t, w, &second)
	assert.Equal(t, first.ID, second.ID)
}

func TestMeIncludesBalance(t *testing.T) {
	a := setupAPI(t)
	token := tokenFor("subject-me", domain.RoleUser)

	w := a.do(t, http.MethodGet, "/v1/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var me struct {
		User    models.User     `json:"user"`
		Balance service.Balance `json:"balance"`
	}
	decodeData(t, w, &me)
	assert.Equal(t, me.User.ID, me.Balance.UserID)
	assert.Equal(t, "0 XAF", me.Balance.Formatted)
}

func TestProfileValidation(t *testing.T) {
	a := setupAPI(t)
	token := tokenFor("subject-profile", domain.RoleUser)

	w := a.do(t, http.MethodPut, "/v1/me/profile", token, map[string]string{"phone": "abc"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeProblem(t, w)
	assert.Equal(t, "validation_error", body["code"])
	assert.Equal(t, "phone", body["field"])

	w = a.do(t, http.MethodPut, "/v1/me/profile", token, map[string]string{"nickname": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDepositApprovalCreditsBalance(t *testing.T) {
	a := setupAPI(t)
	token, _ := a.signupWithProfile(t, "subject-deposit")

	a.fundViaAdmin(t, token, 50_000)
	assert.Equal(t, int64(50_000), a.balanceOf(t, token))

	w := a.do(t, http.MethodGet, "/v1/me/ledger?page=1&page_size=10", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var statement struct {
		Items []models.LedgerEntry `json:"items"`
	}
	decodeData(t, w, &statement)
	require.Len(t, statement.Items, 1)
	assert.Equal(t, domain.EntryDepositCredit, statement.Items[0].Kind)
	assert.Equal(t, int64(50_000), statement.Items[0].BalanceAfter)
}

func TestStatementPaging(t *testing.T) {
	a := setupAPI(t)
	token, _ := a.signupWithProfile(t, "subject-statement")
	for iter := 0; iter < 3; iter++ {
		a.fundViaAdmin(t, token, 5_000)
	}

	w := a.do(t, http.MethodGet, "/v1/me/ledger?page=2&page_size=2", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var statement struct {
		Items  []models.LedgerEntry `json:"items"`
		Count  int                  `json:"count"`
		Limit  int32                `json:"limit"`
		Offset int32                `json:"offset"`
	}
	decodeData(t, w, &statement)
	assert.Len(t, statement.Items, 1)
	assert.Equal(t, 1, statement.Count)
	assert.Equal(t, int32(2), statement.Limit)
	assert.Equal(t, int32(2), statement.Offset)

	cases := map[string]string{
		"page=abc":                    "page",
		"page=0":                      "page",
		"page=-1":                     "page",
		"page_size=1000":              "page_size",
		"page_size=x":                 "page_size",
		"page=30000000&page_size=100": "page",
	}
	for query, field := range cases {
		t.Run(query, func(t *testing.T) {
			w := a.do(t, http.MethodGet, "/v1/me/ledger?"+query, token, nil)
			require.Equal(t, http.StatusBadRequest, w.Code)
			body := decodeProblem(t, w)
			assert.Equal(t, "validation_error", body["code"])
			assert.Equal(t, field, body["field"])
		})
	}
}

func TestListOffsetOutOfRange(t *testing.T) {
	a := setupAPI(t)
	token, _ := a.signupWithProfile(t, "subject-offset")

	w := a.do(t, http.MethodGet, "/v1/deposits?offset=4294967296", token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodGet, "/v1/deposits?offset=2147483647", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDepositAmountBounds(t *testing.T) {
	a := setupAPI(t)
	token, user := a.signupWithProfile(t, "subject-bounds")
	admin := tokenFor("ops-admin", domain.RoleAdmin)

	w := a.do(t, http.MethodPost, "/v1/deposits", token, map[string]any{
		"amount": domain.MaxAmount + 1, "method": domain.MethodMTNMoMo, "payer_phone": "650000000", "reference": "MP-HUGE",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "amount", decodeProblem(t, w)["field"])

	_, err := a.store.Queries().AdjustUserBalance(context.Background(), user.ID, math.MaxInt64-1_000)
	require.NoError(t, err)

	w = a.do(t, http.MethodPost, "/v1/deposits", token, map[string]any{
		"amount": 6_500, "method": domain.MethodMTNMoMo, "payer_phone": "650000000", "reference": "MP-EDGE",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var deposit models.Deposit
	decodeData(t, w, &deposit)

	w = a.do(t, http.MethodPost, "/v1/admin/deposits/"+deposit.ID.String()+"/approve", admin, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "balance_limit_exceeded", decodeProblem(t, w)["code"])

	w = a.do(t, http.MethodGet, "/v1/admin/deposits/"+deposit.ID.String(), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"pending"`)
}

func TestDepositDecisionIsFinal(t *testing.T) {
	a := setupAPI(t)
	token := tokenFor("subject-final", domain.RoleUser)
	admin := tokenFor("ops-admin", domain.RoleAdmin)

	w := a.do(t, http.MethodPost, "/v1/deposits", token, map[string]any{
		"amount":    20_000,
		"method":    domain.MethodBankTransfer,
		"reference": "BANK-0001",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var deposit models.Deposit
	decodeData(t, w, &deposit)

	w = a.do(t, http.MethodPost, "/v1/admin/deposits/"+deposit.ID.String()+"/reject", admin, map[string]string{"note": "no matching transfer"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, http.MethodPost, "/v1/admin/deposits/"+deposit.ID.String()+"/approve", admin, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_processed", decodeProblem(t, w)["code"])
	assert.Zero(t, a.balanceOf(t, token))

	w = a.do(t, http.MethodGet, "/v1/admin/deposits/"+deposit.ID.String(), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Deposit models.Deposit       `json:"deposit"`
		History []service.AuditEntry `json:"history"`
	}
	decodeData(t, w, &detail)
	assert.Equal(t, domain.StatusRejected, detail.Deposit.Status)
	assert.NotEmpty(t, detail.History)
}

func TestWithdrawalLifecycleOverHTTP(t *testing.T) {
	a := setupAPI(t)
	token, _ := a.signupWithProfile(t, "subject-withdraw")
	admin := tokenFor("ops-admin", domain.RoleAdmin)
	a.fundViaAdmin(t, token, 10_000)

	payload := map[string]any{
		"amount":         9_500,
		"method":         domain.MethodMTNMoMo,
		"account_name":   "Amara Nkemdirim",
		"account_number": "650000000",
	}
	w := a.do(t, http.MethodPost, "/v1/withdrawals", token, payload, "Idempotency-Key", "wd-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var withdrawal models.Withdrawal
	decodeData(t, w, &withdrawal)
	assert.Equal(t, domain.StatusPending, withdrawal.Status)
	assert.Equal(t, int64(500), a.balanceOf(t, token))

	// same key and body replays the stored response without a second debit
	replay := a.do(t, http.MethodPost, "/v1/withdrawals", token, payload, "Idempotency-Key", "wd-1")
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, idempotency.ServedByStore, replay.Header().Get("X-Idempotent-Replay"))
	assert.JSONEq(t, w.Body.String(), replay.Body.String())
	assert.Equal(t, int64(500), a.balanceOf(t, token))

	// same key with another body is a conflict
	payload["amount"] = 10_000
	w = a.do(t, http.MethodPost, "/v1/withdrawals", token, payload, "Idempotency-Key", "wd-1")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(t, http.MethodPost, "/v1/admin/withdrawals/"+withdrawal.ID.String()+"/reject", admin, map[string]string{"note": "wrong number"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(10_000), a.balanceOf(t, token))

	w = a.do(t, http.MethodPost, "/v1/admin/withdrawals/"+withdrawal.ID.String()+"/approve", admin, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_processed", decodeProblem(t, w)["code"])
	assert.Equal(t, int64(10_000), a.balanceOf(t, token))
}

func TestWithdrawalRequiresIdempotencyKey(t *testing.T) {
	a := setupAPI(t)
	token, _ := a.signupWithProfile(t, "subject-nokey")

	w := a.do(t, http.MethodPost, "/v1/withdrawals", token, map[string]any{
		"amount":         9_500,
		"method":         domain.MethodMTNMoMo,
		"account_name":   "Amara Nkemdirim",
		"account_number": "650000000",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "idempotency_key", decodeProblem(t, w)["field"])
}

func TestWithdrawalInsufficientBalance(t *testing.T) {
	a := setupAPI(t)
	token, _ := a.signupWithProfile(t, "subject-poor")
	a.fundViaAdmin(t, token, 5_000)

	w := a.do(t, http.MethodPost, "/v1/withdrawals", token, map[string]any{
		"amount":         9_500,
		"method":         domain.MethodOrangeMoney,
		"account_name":   "Amara Nkemdirim",
		"account_number": "690000000",
	}, "Idempotency-Key", "wd-poor")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "insufficient_balance", decodeProblem(t, w)["code"])
	assert.Equal(t, int64(5_000), a.balanceOf(t, token))

	w = a.do(t, http.MethodGet, "/v1/withdrawals", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Items []models.Withdrawal `json:"items"`
		Count int                 `json:"count"`
	}
	decodeData(t, w, &list)
	assert.Zero(t, list.Count)
}

func TestAdminRoutesForbiddenForUsers(t *testing.T) {
	a := setupAPI(t)
	token := tokenFor("subject-curious", domain.RoleUser)

	for _, path := range []string{"/v1/admin/users", "/v1/admin/stats", "/v1/admin/deposits", "/v1/admin/notifications"} {
		w := a.do(t, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}
	w := a.do(t, http.MethodPost, "/v1/admin/deposits/"+uuid.NewString()+"/approve", token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", decodeProblem(t, w)["code"])
}

func TestAdminNotFoundAndBadID(t *testing.T) {
	a := setupAPI(t)
	admin := tokenFor("ops-admin", domain.RoleAdmin)

	w := a.do(t, http.MethodPost, "/v1/admin/withdrawals/"+uuid.NewString()+"/approve", admin, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeProblem(t, w)["code"])

	w = a.do(t, http.MethodGet, "/v1/admin/users/not-a-uuid", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvestmentPurchaseOverHTTP(t *testing.T) {
	a := setupAPI(t)
	token, _ := a.signupWithProfile(t, "subject-invest")
	a.fundViaAdmin(t, token, 120_000)

	w := a.do(t, http.MethodGet, "/v1/plans", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodPost, "/v1/investments", token, map[string]any{"plan_id": "silver", "amount": 100_000})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var inv models.Investment
	decodeData(t, w, &inv)
	assert.Equal(t, int64(125_000), inv.ExpectedReturn)
	assert.Equal(t, domain.InvestmentActive, inv.Status)
	assert.Equal(t, int64(20_000), a.balanceOf(t, token))

	w = a.do(t, http.MethodPost, "/v1/investments", token, map[string]any{"plan_id": "silver", "amount": 100_000})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSupportConversation(t *testing.T) {
	a := setupAPI(t)
	token, user := a.signupWithProfile(t, "subject-support")
	admin := tokenFor("ops-admin", domain.RoleAdmin)

	w := a.do(t, http.MethodPost, "/v1/support/messages", token, map[string]string{"body": "My deposit is still pending"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(t, http.MethodPost, "/v1/admin/support/threads/"+user.ID.String(), admin, map[string]string{"body": "Looking into it"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(t, http.MethodGet, "/v1/support/messages", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var thread struct {
		Items []models.SupportMessage `json:"items"`
	}
	decodeData(t, w, &thread)
	require.Len(t, thread.Items, 2)
	assert.Equal(t, domain.RoleUser, thread.Items[0].SenderRole)
	assert.Equal(t, domain.RoleAdmin, thread.Items[1].SenderRole)

	w = a.do(t, http.MethodPost, "/v1/support/messages", token, map[string]string{"body": "   "})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "body", decodeProblem(t, w)["field"])
}

func TestAdminStatsAndNotifications(t *testing.T) {
	a := setupAPI(t)
	token, _ := a.signupWithProfile(t, "subject-stats")
	admin := tokenFor("ops-admin", domain.RoleAdmin)
	a.fundViaAdmin(t, token, 30_000)

	w := a.do(t, http.MethodGet, "/v1/admin/stats", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats models.PlatformStats
	decodeData(t, w, &stats)
	assert.Equal(t, int64(30_000), stats.TotalBalances)

	w = a.do(t, http.MethodGet, "/v1/admin/notifications?unread=true", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Items []models.Notification `json:"items"`
	}
	decodeData(t, w, &list)
	require.NotEmpty(t, list.Items)

	w = a.do(t, http.MethodPost, "/v1/admin/notifications/"+list.Items[0].ID.String()+"/read", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	a := setupAPI(t)

	w := a.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = a.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = a.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = a.do(t, http.MethodGet, "/openapi.yaml", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi:")
}

func TestUnknownRouteIsProblem(t *testing.T) {
	a := setupAPI(t)
	w := a.do(t, http.MethodGet, "/v1/nowhere", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeProblem(t, w)["code"])
}
