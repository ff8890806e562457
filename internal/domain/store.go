package domain

// Store groups the per-entity repositories behind a single unit-of-work
// boundary. WithTransaction runs fn against a Store whose repositories share
// one database transaction: every write inside fn commits together or not at
// all.
type Store interface {
	Accounts() AccountRepository
	Transactions() TransactionRepository
	Loans() LoanRepository
	Users() UserRepository
	WithTransaction(fn func(Store) error) error
}
