package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/walletflow/internal/api"
	"github.com/Veraticus/walletflow/internal/common"
	"github.com/Veraticus/walletflow/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeAPI is an in-memory TransactionAPI. Setting gate makes every call
// block until the channel is closed.
type fakeAPI struct {
	err          error
	gate         chan struct{}
	started      chan string
	transactions []model.Transaction
	categories   []model.Category
	payloads     []model.TransactionPayload
	calls        []string
	nextID       int
	mu           sync.Mutex
	blank        bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		categories: []model.Category{
			{ID: "c1", Name: "Car", Kind: model.TypeExpense},
			{ID: "inc", Name: "Income", Kind: model.TypeIncome},
			{ID: "c2", Name: "Food", Kind: model.TypeExpense},
		},
		transactions: []model.Transaction{
			tx("t1", model.TypeExpense, "c1", "-10"),
			tx("t2", model.TypeIncome, "inc", "100"),
			tx("t3", model.TypeExpense, "c2", "-15"),
		},
	}
}

func tx(id string, typ model.TransactionType, category, amount string) model.Transaction {
	return model.Transaction{
		ID:              id,
		Type:            typ,
		CategoryID:      category,
		Amount:          decimal.RequireFromString(amount),
		TransactionDate: testNow.AddDate(0, 0, -1),
	}
}

func (f *fakeAPI) enter(call string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	gate, started, err := f.gate, f.started, f.err
	f.mu.Unlock()

	if started != nil {
		started <- call
	}
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) ListTransactions(_ context.Context) ([]model.Transaction, error) {
	if err := f.enter("ListTransactions"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Transaction(nil), f.transactions...), nil
}

func (f *fakeAPI) CreateTransaction(_ context.Context, p model.TransactionPayload) (model.Transaction, error) {
	if err := f.enter("CreateTransaction"); err != nil {
		return model.Transaction{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.payloads = append(f.payloads, p)
	created := model.Transaction{
		ID:              fmt.Sprintf("new-%d", f.nextID),
		Type:            p.Type,
		CategoryID:      p.CategoryID,
		Comment:         p.Comment,
		Amount:          p.Amount,
		TransactionDate: p.TransactionDate,
	}
	f.transactions = append(f.transactions, created)
	return created, nil
}

func (f *fakeAPI) UpdateTransaction(_ context.Context, id string, p model.TransactionPayload) (model.Transaction, error) {
	if err := f.enter("UpdateTransaction"); err != nil {
		return model.Transaction{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	if f.blank {
		return model.Transaction{}, nil
	}
	return model.Transaction{
		ID:              id,
		Type:            p.Type,
		CategoryID:      p.CategoryID,
		Comment:         p.Comment,
		Amount:          p.Amount,
		TransactionDate: p.TransactionDate,
	}, nil
}

func (f *fakeAPI) DeleteTransaction(_ context.Context, _ string) error {
	return f.enter("DeleteTransaction")
}

func (f *fakeAPI) ListCategories(_ context.Context) ([]model.Category, error) {
	if err := f.enter("ListCategories"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Category(nil), f.categories...), nil
}

func (f *fakeAPI) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func newLoadedStore(t *testing.T, api *fakeAPI) *Store {
	t.Helper()
	s := New(api, WithClock(func() time.Time { return testNow }))
	t.Cleanup(s.Close)
	require.NoError(t, s.Load(context.Background()))
	return s
}

func ids(txs []model.Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx.ID)
	}
	return out
}

var errServer = &common.APIError{Kind: common.KindServer, Status: 500, UserMessage: "Server error. Please try again later."}

func TestStore_Load(t *testing.T) {
	api := newFakeAPI()
	s := newLoadedStore(t, api)

	snap := s.Snapshot()
	assert.ElementsMatch(t, []string{"t1", "t2", "t3"}, ids(snap.Transactions))
	assert.Equal(t, []model.Category{{ID: "inc", Name: "Income", Kind: model.TypeIncome}}, snap.IncomeCategories)
	assert.Len(t, snap.ExpenseCategories, 2)
	assert.False(t, snap.IsLoading)
	assert.Empty(t, snap.Error)
	assert.Len(t, snap.Categories(), 3)
}

func TestStore_LoadIsIdempotent(t *testing.T) {
	api := newFakeAPI()
	s := newLoadedStore(t, api)
	first := s.Snapshot()

	require.NoError(t, s.LoadTransactions(context.Background()))
	require.NoError(t, s.LoadTransactions(context.Background()))

	assert.Equal(t, first.Transactions, s.Snapshot().Transactions)
}

func TestStore_LoadFailureKeepsCache(t *testing.T) {
	api := newFakeAPI()
	s := newLoadedStore(t, api)

	api.setErr(errServer)
	err := s.LoadTransactions(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrServer)

	err = s.LoadCategories(context.Background())
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Len(t, snap.Transactions, 3)
	assert.Len(t, snap.IncomeCategories, 1)
	assert.Equal(t, "Server error. Please try again later.", snap.Error)
	assert.False(t, snap.IsLoading)

	// The next successful call clears the error.
	api.setErr(nil)
	require.NoError(t, s.LoadTransactions(context.Background()))
	assert.Empty(t, s.Snapshot().Error)
}

func TestStore_AddTransaction(t *testing.T) {
	api := newFakeAPI()
	s := newLoadedStore(t, api)
	s.OpenAddModal()
	require.True(t, s.Snapshot().IsAddModalOpen)

	created, err := s.AddTransaction(context.Background(), model.TransactionDraft{
		Type:            model.TypeIncome,
		Amount:          "-50",
		CategoryID:      "c1",
		TransactionDate: testNow,
	})
	require.NoError(t, err)

	assert.Equal(t, "inc", created.CategoryID)
	assert.True(t, created.Amount.Equal(decimal.NewFromInt(50)))

	snap := s.Snapshot()
	assert.Contains(t, ids(snap.Transactions), created.ID)
	assert.Len(t, snap.Transactions, 4)
	assert.False(t, snap.IsAddModalOpen)
}

func TestStore_AddTransactionEmptyCreatedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/transactions":
			_, _ = w.Write([]byte(`[{"id":"t1","transactionDate":"2024-05-01T00:00:00.000Z","type":"EXPENSE","categoryId":"c1","amount":-10}]`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/transaction-categories":
			_, _ = w.Write([]byte(`[{"id":"c1","name":"Car","type":"EXPENSE"}]`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/transactions":
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	client, err := api.NewClient(api.Config{BaseURL: server.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	s := New(client, WithClock(func() time.Time { return testNow }))
	t.Cleanup(s.Close)
	require.NoError(t, s.Load(context.Background()))
	s.OpenAddModal()

	_, err = s.AddTransaction(context.Background(), model.TransactionDraft{
		Type:            model.TypeExpense,
		Amount:          "12",
		CategoryID:      "c1",
		TransactionDate: testNow,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrServer)

	snap := s.Snapshot()
	assert.Equal(t, []string{"t1"}, ids(snap.Transactions))
	assert.True(t, snap.IsAddModalOpen)
	assert.NotEmpty(t, snap.Error)
}

func TestStore_UpdateTransactionWithoutIDLeavesCache(t *testing.T) {
	fake := newFakeAPI()
	s := newLoadedStore(t, fake)
	before := s.Snapshot().Transactions

	fake.mu.Lock()
	fake.blank = true
	fake.mu.Unlock()

	_, err := s.UpdateTransaction(context.Background(), "t1", model.TransactionPatch{
		Type:            model.TypeExpense,
		Amount:          "99",
		CategoryID:      "c1",
		TransactionDate: testNow,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrServer)
	assert.Equal(t, before, s.Snapshot().Transactions)
}

func TestStore_AddTransactionValidationMakesNoCall(t *testing.T) {
	api := newFakeAPI()
	s := newLoadedStore(t, api)
	before := api.Calls()

	_, err := s.AddTransaction(context.Background(), model.TransactionDraft{
		Type:            model.TypeExpense,
		Amount:          "12",
		TransactionDate: testNow,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = s.AddTransaction(context.Background(), model.TransactionDraft{
		Type:            model.TypeExpense,
		Amount:          "12",
		CategoryID:      "c1",
		TransactionDate: testNow.Add(time.Hour),
	})
	assert.ErrorIs(t, err, common.ErrValidation)

	assert.Equal(t, before, api.Calls())
	assert.Len(t, s.Snapshot().Transactions, 3)
}

func TestStore_AddTransactionFailureLeavesCache(t *testing.T) {
	api := newFakeAPI()
	s := newLoadedStore(t, api)
	s.OpenAddModal()

	api.setErr(errServer)
	_, err := s.AddTransaction(context.Background(), model.TransactionDraft{
		Type:            model.TypeExpense,
		Amount:          "12",
		CategoryID:      "c1",
		TransactionDate: testNow,
	})
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Len(t, snap.Transactions, 3)
	assert.True(t, snap.IsAddModalOpen)
	assert.NotEmpty(t, snap.Error)
}

func TestStore_UpdateTransactionTouchesOneRecord(t *testing.T) {
	api := newFakeAPI()
	s := newLoadedStore(t, api)
	before := s.Snapshot()

	s.OpenEditModal(before.Transactions[0])
	require.NotNil(t, s.Snapshot().EditingTransaction)

	updated, err := s.UpdateTransaction(context.Background(), "t1", model.TransactionPatch{
		Type:            model.TypeExpense,
		Amount:          "99",
		CategoryID:      "c2",
		Comment:         "fixed",
		TransactionDate: testNow,
	})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(decimal.NewFromInt(-99)))

	after := s.Snapshot()
	require.Len(t, after.Transactions, 3)
	assert.Equal(t, ids(before.Transactions), ids(after.Transactions))
	assert.Equal(t, "fixed", after.Transactions[0].Comment)
	assert.Equal(t, before.Transactions[1], after.Transactions[1])
	assert.Equal(t, before.Transactions[2], after.Transactions[2])
	assert.False(t, after.IsEditModalOpen)
	assert.Nil(t, after.EditingTransaction)
}

func TestStore_UpdateTransactionFailure(t *testing.T) {
	api := newFakeAPI()
	s := newLoadedStore(t, api)
	before := s.Snapshot()
	s.OpenEditModal(before.Transactions[0])

	api.setErr(errServer)
	_, err := s.UpdateTransaction(context.Background(), "t1", model.TransactionPatch{
		Type:            model.TypeExpense,
		Amount:          "99",
		CategoryID:      "c2",
		TransactionDate: testNow,
	})
	require.Error(t, err)

	after := s.Snapshot()
	assert.Equal(t, before.Transactions, after.Transactions)
	assert.True(t, after.IsEditModalOpen)
}

func TestStore_DeleteTransaction(t *testing.T) {
	tests := []struct {
		apiErr  error
		name    string
		wantIDs []string
	}{
		{name: "success removes the record", wantIDs: []string{"t1", "t3"}},
		{name: "failure keeps the cache", apiErr: errServer, wantIDs: []string{"t1", "t2", "t3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			s := newLoadedStore(t, api)
			api.setErr(tt.apiErr)

			err := s.DeleteTransaction(context.Background(), "t2")
			if tt.apiErr != nil {
				require.Error(t, err)
				assert.NotEmpty(t, s.Snapshot().Error)
			} else {
				require.NoError(t, err)
			}
			assert.ElementsMatch(t, tt.wantIDs, ids(s.Snapshot().Transactions))
		})
	}
}

func TestStore_SnapshotIsDeepCopy(t *testing.T) {
	api := newFakeAPI()
	s := newLoadedStore(t, api)

	snap := s.Snapshot()
	snap.Transactions[0].Comment = "mutated"
	snap.IncomeCategories[0].Name = "mutated"

	fresh := s.Snapshot()
	assert.NotEqual(t, "mutated", fresh.Transactions[0].Comment)
	assert.NotEqual(t, "mutated", fresh.IncomeCategories[0].Name)
}

func TestStore_IsLoadingDuringCall(t *testing.T) {
	api := newFakeAPI()
	s := newLoadedStore(t, api)

	api.mu.Lock()
	api.gate = make(chan struct{})
	api.started = make(chan string, 1)
	api.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- s.LoadTransactions(context.Background())
	}()

	<-api.started
	assert.True(t, s.Snapshot().IsLoading)

	close(api.gate)
	require.NoError(t, <-done)
	assert.False(t, s.Snapshot().IsLoading)
}

func TestStore_CloseDiscardsLateResults(t *testing.T) {
	api := newFakeAPI()
	s := New(api, WithClock(func() time.Time { return testNow }))

	var mu sync.Mutex
	notifications := 0
	s.Subscribe(func(Snapshot) {
		mu.Lock()
		notifications++
		mu.Unlock()
	})

	api.mu.Lock()
	api.gate = make(chan struct{})
	api.started = make(chan string, 1)
	api.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- s.LoadTransactions(context.Background())
	}()
	<-api.started

	// Wait for the "loading started" notification to be delivered.
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return notifications == 1
	}, time.Second, 5*time.Millisecond)

	s.Close()
	close(api.gate)

	err := <-done
	assert.ErrorIs(t, err, common.ErrStoreClosed)
	assert.Empty(t, s.Snapshot().Transactions)

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, notifications)
	mu.Unlock()

	assert.ErrorIs(t, s.DeleteTransaction(context.Background(), "t1"), common.ErrStoreClosed)
}

func TestStore_SubscribersSeeCommittedState(t *testing.T) {
	api := newFakeAPI()
	s := New(api, WithClock(func() time.Time { return testNow }))
	t.Cleanup(s.Close)

	got := make(chan Snapshot, 16)
	s.Subscribe(func(snap Snapshot) { got <- snap })

	require.NoError(t, s.LoadTransactions(context.Background()))

	var snaps []Snapshot
	for len(snaps) < 2 {
		select {
		case snap := <-got:
			snaps = append(snaps, snap)
		case <-time.After(time.Second):
			t.Fatalf("got %d notifications, want 2", len(snaps))
		}
	}

	assert.True(t, snaps[0].IsLoading)
	assert.Empty(t, snaps[0].Transactions)
	assert.False(t, snaps[1].IsLoading)
	assert.Len(t, snaps[1].Transactions, 3)
}

func TestStore_ModalFlags(t *testing.T) {
	s := New(newFakeAPI())
	t.Cleanup(s.Close)

	s.OpenAddModal()
	assert.True(t, s.Snapshot().IsAddModalOpen)
	s.CloseAddModal()
	assert.False(t, s.Snapshot().IsAddModalOpen)

	s.OpenEditModal(tx("t9", model.TypeExpense, "c1", "-1"))
	snap := s.Snapshot()
	assert.True(t, snap.IsEditModalOpen)
	require.NotNil(t, snap.EditingTransaction)
	assert.Equal(t, "t9", snap.EditingTransaction.ID)

	s.CloseEditModal()
	snap = s.Snapshot()
	assert.False(t, snap.IsEditModalOpen)
	assert.Nil(t, snap.EditingTransaction)
}

func TestStore_Reset(t *testing.T) {
	s := newLoadedStore(t, newFakeAPI())
	s.Reset()
	snap := s.Snapshot()
	assert.Empty(t, snap.Transactions)
	assert.Empty(t, snap.IncomeCategories)
}

func TestStore_ResetDiscardsInFlightResults(t *testing.T) {
	api := newFakeAPI()
	s := New(api, WithClock(func() time.Time { return testNow }))
	t.Cleanup(s.Close)

	api.mu.Lock()
	api.gate = make(chan struct{})
	api.started = make(chan string, 1)
	api.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- s.LoadTransactions(context.Background())
	}()
	<-api.started

	s.Reset()
	assert.True(t, s.Snapshot().IsLoading)

	close(api.gate)
	require.NoError(t, <-done)

	snap := s.Snapshot()
	assert.Empty(t, snap.Transactions)
	assert.False(t, snap.IsLoading)
}

func TestStore_ContextCanceledIsReturned(t *testing.T) {
	api := newFakeAPI()
	api.setErr(context.Canceled)
	s := New(api)
	t.Cleanup(s.Close)

	err := s.LoadTransactions(context.Background())
	assert.True(t, errors.Is(err, context.Canceled))
}
