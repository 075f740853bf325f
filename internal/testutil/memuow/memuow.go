package memuow

import (
	"context"
	"sort"
	"sync"

	"gorm.io/gorm"

	"lendsmart-backend/internal/domain/loan"
	"lendsmart-backend/internal/domain/uow"
	"lendsmart-backend/internal/domain/user"
)

var _ uow.UnitOfWork = (*Store)(nil)

// Store is an in-memory unit of work for tests. WithinLoanTx serializes per
// loan id, mirroring the production row lock: concurrent funding attempts on
// one loan observe each other's committed state, loans never block each
// other. Mutations run on clones and are committed only when the callback
// succeeds, so a failing callback leaves the store untouched.
type Store struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	loans map[string]*loan.Loan
	users map[string]*user.User
}

func New() *Store {
	return &Store{
		locks: make(map[string]*sync.Mutex),
		loans: make(map[string]*loan.Loan),
		users: make(map[string]*user.User),
	}
}

func (s *Store) SeedLoan(l *loan.Loan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loans[l.LoanID] = cloneLoan(l)
}

func (s *Store) SeedUser(u *user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *u
	s.users[u.UserID] = &c
}

// Loan returns a snapshot of the committed aggregate.
func (s *Store) Loan(loanID string) (*loan.Loan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.loans[loanID]
	if !ok {
		return nil, false
	}
	return cloneLoan(l), true
}

func (s *Store) lockFor(loanID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lk, ok := s.locks[loanID]
	if !ok {
		lk = &sync.Mutex{}
		s.locks[loanID] = lk
	}
	return lk
}

func (s *Store) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	tx := newTx(s)
	if err := fn(uow.Repos{Loans: &txLoans{tx}, Users: &txUsers{tx}}); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *Store) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	lk := s.lockFor(loanID)
	lk.Lock()
	defer lk.Unlock()

	s.mu.Lock()
	orig, ok := s.loans[loanID]
	s.mu.Unlock()
	if !ok {
		return gorm.ErrRecordNotFound
	}

	tx := newTx(s)
	work := cloneLoan(orig)
	if err := fn(uow.Repos{Loans: &txLoans{tx}, Users: &txUsers{tx}}, work); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// ---- transaction state ----

type txState struct {
	s           *Store
	stagedLoans map[string]*loan.Loan
	stagedUsers map[string]*user.User
}

func newTx(s *Store) *txState {
	return &txState{
		s:           s,
		stagedLoans: make(map[string]*loan.Loan),
		stagedUsers: make(map[string]*user.User),
	}
}

func (tx *txState) commit() {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	for id, l := range tx.stagedLoans {
		tx.s.loans[id] = l
	}
	for id, u := range tx.stagedUsers {
		tx.s.users[id] = u
	}
}

type txLoans struct{ tx *txState }

func (r *txLoans) Create(ctx context.Context, l *loan.Loan) error {
	r.tx.stagedLoans[l.LoanID] = cloneLoan(l)
	return nil
}

func (r *txLoans) Save(ctx context.Context, l *loan.Loan) error {
	r.tx.stagedLoans[l.LoanID] = cloneLoan(l)
	return nil
}

func (r *txLoans) GetByLoanID(ctx context.Context, loanID string) (*loan.Loan, error) {
	if l, ok := r.tx.stagedLoans[loanID]; ok {
		return cloneLoan(l), nil
	}
	r.tx.s.mu.Lock()
	defer r.tx.s.mu.Unlock()
	if l, ok := r.tx.s.loans[loanID]; ok {
		return cloneLoan(l), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *txLoans) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loan.Loan, error) {
	return r.GetByLoanID(ctx, loanID)
}

func (r *txLoans) GetPendingLoanByBorrowerID(ctx context.Context, borrowerID string) (*loan.Loan, error) {
	ls := r.snapshot()
	var newest *loan.Loan
	for _, l := range ls {
		if l.BorrowerID != borrowerID || l.Status != loan.StatusPending {
			continue
		}
		if newest == nil || l.StatusUpdatedAt.After(newest.StatusUpdatedAt) {
			newest = l
		}
	}
	if newest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneLoan(newest), nil
}

func (r *txLoans) ListByStatus(ctx context.Context, status loan.Status, limit, offset int) ([]loan.Loan, error) {
	var out []loan.Loan
	for _, l := range r.snapshot() {
		if l.Status == status {
			out = append(out, *cloneLoan(l))
		}
	}
	return window(out, limit, offset), nil
}

func (r *txLoans) ListByBorrower(ctx context.Context, borrowerID string, limit, offset int) ([]loan.Loan, error) {
	var out []loan.Loan
	for _, l := range r.snapshot() {
		if l.BorrowerID == borrowerID {
			out = append(out, *cloneLoan(l))
		}
	}
	return window(out, limit, offset), nil
}

func (r *txLoans) CountByBorrowerAndStatus(ctx context.Context, borrowerID string, status loan.Status) (int64, error) {
	var n int64
	for _, l := range r.snapshot() {
		if l.BorrowerID == borrowerID && l.Status == status {
			n++
		}
	}
	return n, nil
}

// snapshot merges committed and staged loans, staged winning.
func (r *txLoans) snapshot() []*loan.Loan {
	r.tx.s.mu.Lock()
	merged := make(map[string]*loan.Loan, len(r.tx.s.loans))
	for id, l := range r.tx.s.loans {
		merged[id] = l
	}
	r.tx.s.mu.Unlock()
	for id, l := range r.tx.stagedLoans {
		merged[id] = l
	}
	out := make([]*loan.Loan, 0, len(merged))
	for _, l := range merged {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoanID < out[j].LoanID })
	return out
}

func window(ls []loan.Loan, limit, offset int) []loan.Loan {
	if offset >= len(ls) {
		return nil
	}
	ls = ls[offset:]
	if limit > 0 && limit < len(ls) {
		ls = ls[:limit]
	}
	return ls
}

type txUsers struct{ tx *txState }

func (r *txUsers) Create(ctx context.Context, u *user.User) error {
	c := *u
	r.tx.stagedUsers[u.UserID] = &c
	return nil
}

func (r *txUsers) Save(ctx context.Context, u *user.User) error {
	c := *u
	r.tx.stagedUsers[u.UserID] = &c
	return nil
}

func (r *txUsers) GetByUserID(ctx context.Context, userID string) (*user.User, error) {
	if u, ok := r.tx.stagedUsers[userID]; ok {
		c := *u
		return &c, nil
	}
	r.tx.s.mu.Lock()
	defer r.tx.s.mu.Unlock()
	if u, ok := r.tx.s.users[userID]; ok {
		c := *u
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func cloneLoan(l *loan.Loan) *loan.Loan {
	c := *l
	if l.Schedule != nil {
		c.Schedule = make([]loan.Installment, len(l.Schedule))
		copy(c.Schedule, l.Schedule)
	}
	if l.Contributions != nil {
		c.Contributions = make([]loan.Contribution, len(l.Contributions))
		copy(c.Contributions, l.Contributions)
	}
	return &c
}
