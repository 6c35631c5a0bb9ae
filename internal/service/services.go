package service

// Services bundles every use case the HTTP layer and workers depend on.
type Services struct {
	Users          *UserService
	Accounts       *AccountService
	Deposits       *DepositService
	Withdrawals    *WithdrawalService
	Investments    *InvestmentService
	Support        *SupportService
	Activity       *ActivityService
	Notifications  *NotificationService
	Stats          *StatsService
	Reconciliation *ReconciliationService
}

// NewServices wires all services over one store.
func NewServices(store QueryStore, minDeposit, minWithdrawal int64) *Services {
	return &Services{
		Users:          NewUserService(store),
		Accounts:       NewAccountService(store),
		Deposits:       NewDepositService(store, minDeposit),
		Withdrawals:    NewWithdrawalService(store, minWithdrawal),
		Investments:    NewInvestmentService(store),
		Support:        NewSupportService(store),
		Activity:       NewActivityService(store),
		Notifications:  NewNotificationService(store),
		Stats:          NewStatsService(store),
		Reconciliation: NewReconciliationService(store),
	}
}
