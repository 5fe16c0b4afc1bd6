// Package store keeps a server-confirmed cache of the user's transactions and
// categories together with the UI flags that drive the add and edit forms.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/walletflow/internal/common"
	"github.com/Veraticus/walletflow/internal/model"
	"github.com/Veraticus/walletflow/internal/notify"
	"github.com/Veraticus/walletflow/internal/service"
	"golang.org/x/sync/errgroup"
)

// Snapshot is a deep copy of the store state.
type Snapshot struct {
	EditingTransaction *model.Transaction
	Error              string
	Transactions       []model.Transaction
	IncomeCategories   []model.Category
	ExpenseCategories  []model.Category
	IsLoading          bool
	IsAddModalOpen     bool
	IsEditModalOpen    bool
}

// Categories returns income and expense categories in one list.
func (s Snapshot) Categories() []model.Category {
	all := make([]model.Category, 0, len(s.IncomeCategories)+len(s.ExpenseCategories))
	all = append(all, s.IncomeCategories...)
	return append(all, s.ExpenseCategories...)
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to reject future-dated drafts.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store is the transaction cache. Mutations are applied only after the
// server confirms them; nothing is updated optimistically.
type Store struct {
	api      service.TransactionAPI
	now      func() time.Time
	logger   *slog.Logger
	notifier *notify.Notifier[Snapshot]
	state    Snapshot
	inflight int
	gen      uint64
	mu       sync.Mutex
	closed   bool
}

var _ service.TransactionAdder = (*Store)(nil)

// New creates an empty store backed by api.
func New(api service.TransactionAPI, opts ...Option) *Store {
	s := &Store{
		api:      api,
		now:      time.Now,
		logger:   common.ComponentLogger("store"),
		notifier: notify.New[Snapshot](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn to receive a snapshot after every committed change.
// Callbacks run on a single goroutine, one at a time.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	return s.notifier.Subscribe(fn)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Close tears the store down. Requests still in flight are discarded when they return.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.notifier.Stop()
}

// Reset drops all cached data, for example after sign-out. Requests started
// before Reset still finish but their results are not applied.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.gen++
	s.state = Snapshot{IsLoading: s.inflight > 0}
	s.publishLocked()
}

// Load fetches categories and transactions concurrently. Both requests run to
// completion so a failure of one does not clobber the other's error message.
func (s *Store) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		return s.LoadCategories(ctx)
	})
	g.Go(func() error {
		return s.LoadTransactions(ctx)
	})
	return g.Wait()
}

// LoadCategories fetches categories and partitions them by kind.
// On failure the previous categories are kept.
func (s *Store) LoadCategories(ctx context.Context) error {
	gen, err := s.begin()
	if err != nil {
		return err
	}

	cats, err := s.api.ListCategories(ctx)

	return s.finish("load categories", gen, err, func(st *Snapshot) {
		st.IncomeCategories, st.ExpenseCategories = model.PartitionCategories(cats)
	})
}

// LoadTransactions replaces the cache with the server's list.
// On failure the previous cache is kept.
func (s *Store) LoadTransactions(ctx context.Context) error {
	gen, err := s.begin()
	if err != nil {
		return err
	}

	txs, err := s.api.ListTransactions(ctx)

	return s.finish("load transactions", gen, err, func(st *Snapshot) {
		st.Transactions = cloneTransactions(txs)
	})
}

// AddTransaction validates the draft, creates it on the server and appends
// the confirmed record. A validation failure makes no network call.
func (s *Store) AddTransaction(ctx context.Context, draft model.TransactionDraft) (model.Transaction, error) {
	payload, err := s.normalize(draft)
	if err != nil {
		return model.Transaction{}, err
	}
	gen, err := s.begin()
	if err != nil {
		return model.Transaction{}, err
	}

	created, err := s.api.CreateTransaction(ctx, payload)
	if err == nil {
		err = confirmed(created)
	}

	err = s.finish("add transaction", gen, err, func(st *Snapshot) {
		st.Transactions = append(st.Transactions, cloneTransaction(created))
		st.IsAddModalOpen = false
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return created, nil
}

// UpdateTransaction validates the patch, updates the record on the server and
// replaces the cached record with the same ID.
func (s *Store) UpdateTransaction(ctx context.Context, id string, patch model.TransactionPatch) (model.Transaction, error) {
	if id == "" {
		return model.Transaction{}, common.NewValidationError("id", "Transaction ID is required.")
	}
	payload, err := s.normalize(patch)
	if err != nil {
		return model.Transaction{}, err
	}
	gen, err := s.begin()
	if err != nil {
		return model.Transaction{}, err
	}

	updated, err := s.api.UpdateTransaction(ctx, id, payload)
	if err == nil {
		err = confirmed(updated)
	}

	err = s.finish("update transaction", gen, err, func(st *Snapshot) {
		replaced := false
		for i := range st.Transactions {
			if st.Transactions[i].ID == id {
				st.Transactions[i] = cloneTransaction(updated)
				replaced = true
				break
			}
		}
		if !replaced {
			st.Transactions = append(st.Transactions, cloneTransaction(updated))
		}
		st.IsEditModalOpen = false
		st.EditingTransaction = nil
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return updated, nil
}

// DeleteTransaction deletes the record on the server and then drops it from the cache.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	if id == "" {
		return common.NewValidationError("id", "Transaction ID is required.")
	}
	gen, err := s.begin()
	if err != nil {
		return err
	}

	err = s.api.DeleteTransaction(ctx, id)

	return s.finish("delete transaction", gen, err, func(st *Snapshot) {
		kept := st.Transactions[:0]
		for _, tx := range st.Transactions {
			if tx.ID != id {
				kept = append(kept, tx)
			}
		}
		st.Transactions = kept
	})
}

// OpenAddModal shows the add form.
func (s *Store) OpenAddModal() {
	s.local(func(st *Snapshot) {
		st.IsAddModalOpen = true
	})
}

// CloseAddModal hides the add form.
func (s *Store) CloseAddModal() {
	s.local(func(st *Snapshot) {
		st.IsAddModalOpen = false
	})
}

// OpenEditModal shows the edit form for tx.
func (s *Store) OpenEditModal(tx model.Transaction) {
	s.local(func(st *Snapshot) {
		editing := cloneTransaction(tx)
		st.EditingTransaction = &editing
		st.IsEditModalOpen = true
	})
}

// CloseEditModal hides the edit form.
func (s *Store) CloseEditModal() {
	s.local(func(st *Snapshot) {
		st.IsEditModalOpen = false
		st.EditingTransaction = nil
	})
}

func (s *Store) normalize(draft model.TransactionDraft) (model.TransactionPayload, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return model.TransactionPayload{}, common.ErrStoreClosed
	}
	income := append([]model.Category(nil), s.state.IncomeCategories...)
	s.mu.Unlock()

	return draft.Normalize(income, s.now())
}

// begin marks a remote operation as started and returns the reset
// generation it belongs to.
func (s *Store) begin() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, common.ErrStoreClosed
	}
	s.inflight++
	s.state.IsLoading = true
	s.state.Error = ""
	s.publishLocked()
	return s.gen, nil
}

// finish commits a remote operation. apply runs only when err is nil and no
// Reset happened since begin. Results arriving after Close are dropped
// without notification.
// confirmed rejects a record the server returned without an ID.
func confirmed(tx model.Transaction) error {
	if tx.ID != "" {
		return nil
	}
	return &common.APIError{
		Kind:        common.KindServer,
		Err:         errors.New("response has no transaction id"),
		UserMessage: "Server error. Please try again later.",
	}
}

func (s *Store) finish(op string, gen uint64, err error, apply func(*Snapshot)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.logger.Debug("Discarding result after close", "op", op)
		return common.ErrStoreClosed
	}

	s.inflight--
	s.state.IsLoading = s.inflight > 0

	if gen != s.gen {
		s.logger.Debug("Discarding result after reset", "op", op)
		s.publishLocked()
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	}

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("Operation failed", "op", op, "error", err)
		}
		s.state.Error = common.UserMessage(err)
		s.publishLocked()
		return fmt.Errorf("%s: %w", op, err)
	}

	apply(&s.state)
	s.publishLocked()
	return nil
}

func (s *Store) local(apply func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	apply(&s.state)
	s.publishLocked()
}

func (s *Store) publishLocked() {
	s.notifier.Publish(s.state.clone())
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Transactions = cloneTransactions(s.Transactions)
	out.IncomeCategories = append([]model.Category(nil), s.IncomeCategories...)
	out.ExpenseCategories = append([]model.Category(nil), s.ExpenseCategories...)
	if s.EditingTransaction != nil {
		editing := cloneTransaction(*s.EditingTransaction)
		out.EditingTransaction = &editing
	}
	return out
}

func cloneTransactions(txs []model.Transaction) []model.Transaction {
	if txs == nil {
		return nil
	}
	out := make([]model.Transaction, len(txs))
	for i, tx := range txs {
		out[i] = cloneTransaction(tx)
	}
	return out
}

func cloneTransaction(tx model.Transaction) model.Transaction {
	if tx.BalanceAfter != nil {
		balance := *tx.BalanceAfter
		tx.BalanceAfter = &balance
	}
	return tx
}
