package repository

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

// MemStore is an in-memory domain.Store used by the service unit tests. It
// mirrors the SQL store's transaction semantics by snapshotting all state
// before WithTransaction runs and restoring the snapshot when fn fails, so
// the no-partial-mutation guarantees can be asserted without a database.
type MemStore struct {
	mu    sync.Mutex
	state *memState
	inTx  bool
}

type memState struct {
	users        map[int64]*domain.User
	accounts     map[int64]*domain.Account
	transactions []*domain.Transaction
	loans        map[int64]*domain.Loan

	nextUserID int64
	nextAcctID int64
	nextTxID   int64
	nextLoanID int64
}

var _ domain.Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{state: &memState{
		users:    make(map[int64]*domain.User),
		accounts: make(map[int64]*domain.Account),
		loans:    make(map[int64]*domain.Loan),
	}}
}

func (s *memState) clone() *memState {
	cp := &memState{
		users:        make(map[int64]*domain.User, len(s.users)),
		accounts:     make(map[int64]*domain.Account, len(s.accounts)),
		transactions: make([]*domain.Transaction, len(s.transactions)),
		loans:        make(map[int64]*domain.Loan, len(s.loans)),
		nextUserID:   s.nextUserID,
		nextAcctID:   s.nextAcctID,
		nextTxID:     s.nextTxID,
		nextLoanID:   s.nextLoanID,
	}
	for id, u := range s.users {
		cp.users[id] = copyUser(u)
	}
	for id, a := range s.accounts {
		cp.accounts[id] = copyAccount(a)
	}
	for i, tx := range s.transactions {
		c := *tx
		cp.transactions[i] = &c
	}
	for id, l := range s.loans {
		cp.loans[id] = copyLoan(l)
	}
	return cp
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func copyAccount(a *domain.Account) *domain.Account {
	c := *a
	if a.LastInterestAt != nil {
		t := *a.LastInterestAt
		c.LastInterestAt = &t
	}
	return &c
}

func copyLoan(l *domain.Loan) *domain.Loan {
	c := *l
	if l.ReturnDate != nil {
		t := *l.ReturnDate
		c.ReturnDate = &t
	}
	return &c
}

func (s *MemStore) Accounts() domain.AccountRepository         { return &memAccountRepo{s.state} }
func (s *MemStore) Transactions() domain.TransactionRepository { return &memTransactionRepo{s.state} }
func (s *MemStore) Loans() domain.LoanRepository               { return &memLoanRepo{s.state} }
func (s *MemStore) Users() domain.UserRepository               { return &memUserRepo{s.state} }

func (s *MemStore) WithTransaction(fn func(domain.Store) error) error {
	if s.inTx {
		return errors.ErrCannotBeginTransaction
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	tx := &MemStore{state: s.state, inTx: true}
	if err := fn(tx); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// TransactionCount reports how many ledger records exist; tests use it to
// assert that failed operations created none.
func (s *MemStore) TransactionCount() int {
	return len(s.state.transactions)
}

type memAccountRepo struct{ state *memState }

func (r *memAccountRepo) Create(account *domain.Account) error {
	for _, a := range r.state.accounts {
		if a.Number == account.Number {
			return errors.ErrDuplicateAccount
		}
	}
	r.state.nextAcctID++
	account.ID = r.state.nextAcctID
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}
	r.state.accounts[account.ID] = copyAccount(account)
	return nil
}

func (r *memAccountRepo) GetByID(id int64) (*domain.Account, error) {
	a, ok := r.state.accounts[id]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	return copyAccount(a), nil
}

func (r *memAccountRepo) GetByIDForUpdate(id int64) (*domain.Account, error) {
	return r.GetByID(id)
}

func (r *memAccountRepo) GetByNumber(number string) (*domain.Account, error) {
	for _, a := range r.state.accounts {
		if a.Number == number {
			return copyAccount(a), nil
		}
	}
	return nil, errors.ErrAccountNotFound
}

func (r *memAccountRepo) GetByNumberForUpdate(number string) (*domain.Account, error) {
	return r.GetByNumber(number)
}

func (r *memAccountRepo) UpdateBalance(id int64, balance decimal.Decimal) error {
	a, ok := r.state.accounts[id]
	if !ok {
		return errors.ErrAccountNotFound
	}
	a.Balance = balance
	return nil
}

func (r *memAccountRepo) UpdateStatus(id int64, status domain.AccountStatus) error {
	a, ok := r.state.accounts[id]
	if !ok {
		return errors.ErrAccountNotFound
	}
	a.Status = status
	return nil
}

func (r *memAccountRepo) SetInterestAccrued(id int64, balance decimal.Decimal, accruedAt time.Time) error {
	a, ok := r.state.accounts[id]
	if !ok {
		return errors.ErrAccountNotFound
	}
	a.Balance = balance
	t := accruedAt
	a.LastInterestAt = &t
	return nil
}

func (r *memAccountRepo) ListByUser(userID int64) ([]domain.Account, error) {
	var out []domain.Account
	for _, a := range r.state.accounts {
		if a.UserID == userID {
			out = append(out, *copyAccount(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memAccountRepo) ListActiveSavings() ([]domain.Account, error) {
	var out []domain.Account
	for _, a := range r.state.accounts {
		if a.Type == domain.AccountTypeSavings && a.Status == domain.AccountStatusActive {
			out = append(out, *copyAccount(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memTransactionRepo struct{ state *memState }

func (r *memTransactionRepo) Create(tx *domain.Transaction) error {
	r.state.nextTxID++
	tx.ID = r.state.nextTxID
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	c := *tx
	r.state.transactions = append(r.state.transactions, &c)
	return nil
}

func (r *memTransactionRepo) ListByAccount(accountID int64) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, tx := range r.state.transactions {
		if tx.AccountID == accountID {
			out = append(out, *tx)
		}
	}
	return out, nil
}

type memLoanRepo struct{ state *memState }

func (r *memLoanRepo) Create(loan *domain.Loan) error {
	r.state.nextLoanID++
	loan.ID = r.state.nextLoanID
	if loan.CreatedAt.IsZero() {
		loan.CreatedAt = time.Now()
	}
	r.state.loans[loan.ID] = copyLoan(loan)
	return nil
}

func (r *memLoanRepo) GetByID(id int64) (*domain.Loan, error) {
	l, ok := r.state.loans[id]
	if !ok {
		return nil, errors.ErrLoanNotFound
	}
	return copyLoan(l), nil
}

func (r *memLoanRepo) GetByIDForUpdate(id int64) (*domain.Loan, error) {
	return r.GetByID(id)
}

func (r *memLoanRepo) Update(loan *domain.Loan) error {
	if _, ok := r.state.loans[loan.ID]; !ok {
		return errors.ErrLoanNotFound
	}
	r.state.loans[loan.ID] = copyLoan(loan)
	return nil
}

func (r *memLoanRepo) ListByUser(userID int64) ([]domain.Loan, error) {
	var out []domain.Loan
	for _, l := range r.state.loans {
		if l.UserID == userID {
			out = append(out, *copyLoan(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memLoanRepo) ListByStatus(status domain.LoanStatus) ([]domain.Loan, error) {
	var out []domain.Loan
	for _, l := range r.state.loans {
		if l.Status == status {
			out = append(out, *copyLoan(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memUserRepo struct{ state *memState }

func (r *memUserRepo) Create(user *domain.User) error {
	for _, u := range r.state.users {
		if u.Email == user.Email {
			return errors.ErrDuplicateEmail
		}
	}
	r.state.nextUserID++
	user.ID = r.state.nextUserID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	r.state.users[user.ID] = copyUser(user)
	return nil
}

func (r *memUserRepo) GetByID(id int64) (*domain.User, error) {
	u, ok := r.state.users[id]
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (r *memUserRepo) GetByEmail(email string) (*domain.User, error) {
	for _, u := range r.state.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, errors.ErrUserNotFound
}
